package jwtinfra

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePublicKey(t *testing.T, key *rsa.PrivateKey) string {
	t.Helper()
	pubBytes, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "public.pem")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes}), 0600))
	return path
}

func sign(t *testing.T, key *rsa.PrivateKey, userID string, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, &Claims{
		UserID:           userID,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)},
	})
	s, err := tok.SignedString(key)
	require.NoError(t, err)
	return s
}

func TestVerify(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	v, err := NewVerifier(writePublicKey(t, key))
	require.NoError(t, err)

	claims, err := v.Verify(context.Background(), sign(t, key, "u1", time.Now().Add(time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)

	_, err = v.Verify(context.Background(), sign(t, key, "u1", time.Now().Add(-time.Hour)))
	assert.Error(t, err)

	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	_, err = v.Verify(context.Background(), sign(t, other, "u1", time.Now().Add(time.Hour)))
	assert.Error(t, err)
}

func TestNewVerifier_MissingFile(t *testing.T) {
	_, err := NewVerifier(filepath.Join(t.TempDir(), "nope.pem"))
	assert.ErrorContains(t, err, "read public key")
}
