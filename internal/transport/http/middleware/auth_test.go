package middleware

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	jwtinfra "github.com/callog-relay/internal/infrastructure/jwt"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestVerifier generates a key pair, writes the public half to a temp
// file and returns a verifier for it plus the private key for signing.
func newTestVerifier(t *testing.T) (*jwtinfra.Verifier, *rsa.PrivateKey) {
	t.Helper()
	privKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	pubBytes, err := x509.MarshalPKIXPublicKey(&privKey.PublicKey)
	require.NoError(t, err)
	pubPath := filepath.Join(t.TempDir(), "public.pem")
	require.NoError(t, os.WriteFile(pubPath, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes}), 0600))

	v, err := jwtinfra.NewVerifier(pubPath)
	require.NoError(t, err)
	return v, privKey
}

func sign(t *testing.T, key *rsa.PrivateKey, userID string, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, &jwtinfra.Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(exp.Add(-time.Hour)),
		},
	})
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func okHandler(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func TestAuth_MissingHeader(t *testing.T) {
	v, _ := newTestVerifier(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	Auth(v)(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), `"code":"unauthorized"`)
}

func TestAuth_BadToken(t *testing.T) {
	v, _ := newTestVerifier(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	rr := httptest.NewRecorder()
	Auth(v)(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuth_ExpiredToken(t *testing.T) {
	v, key := newTestVerifier(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+sign(t, key, "u1", time.Now().Add(-time.Hour)))
	rr := httptest.NewRecorder()
	Auth(v)(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuth_ForeignKey(t *testing.T) {
	v, _ := newTestVerifier(t)
	_, otherKey := newTestVerifier(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+sign(t, otherKey, "u1", time.Now().Add(time.Hour)))
	rr := httptest.NewRecorder()
	Auth(v)(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuth_ValidToken_InjectsClaims(t *testing.T) {
	v, key := newTestVerifier(t)

	var gotClaims *jwtinfra.Claims
	captureHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+sign(t, key, "u1", time.Now().Add(time.Hour)))
	rr := httptest.NewRecorder()
	Auth(v)(captureHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, gotClaims)
	assert.Equal(t, "u1", gotClaims.UserID)
}

type staticVerifier struct {
	claims *jwtinfra.Claims
	err    error
}

func (s staticVerifier) Verify(context.Context, string) (*jwtinfra.Claims, error) { return s.claims, s.err }

func TestAnyVerifier(t *testing.T) {
	deny := staticVerifier{err: errors.New("nope")}
	allow := staticVerifier{claims: &jwtinfra.Claims{UserID: "svc"}}

	claims, err := AnyVerifier{deny, allow}.Verify(context.Background(), "t")
	require.NoError(t, err)
	assert.Equal(t, "svc", claims.UserID)

	_, err = AnyVerifier{deny}.Verify(context.Background(), "t")
	assert.EqualError(t, err, "nope")

	_, err = AnyVerifier{}.Verify(context.Background(), "t")
	assert.Error(t, err)
}
