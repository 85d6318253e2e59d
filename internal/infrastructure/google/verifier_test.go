package google

import (
	"context"
	"errors"
	"testing"

	"github.com/callog-relay/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/idtoken"
)

func TestVerify_MapsPayload(t *testing.T) {
	v := &Verifier{audience: "https://relay.example", validate: func(_ context.Context, token, aud string) (*idtoken.Payload, error) {
		assert.Equal(t, "tok", token)
		assert.Equal(t, "https://relay.example", aud)
		return &idtoken.Payload{
			Issuer:   "https://accounts.google.com",
			Audience: aud,
			Subject:  "1234",
			Expires:  1760520000,
			IssuedAt: 1760516400,
			Claims:   map[string]interface{}{"email": "scheduler@proj.iam.gserviceaccount.com"},
		}, nil
	}}

	claims, err := v.Verify(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "scheduler@proj.iam.gserviceaccount.com", claims.UserID)
	assert.Equal(t, "1234", claims.Subject)
	assert.Equal(t, int64(1760520000), claims.ExpiresAt.Unix())
}

func TestVerify_SubjectWithoutEmail(t *testing.T) {
	v := &Verifier{validate: func(context.Context, string, string) (*idtoken.Payload, error) {
		return &idtoken.Payload{Subject: "1234", Claims: map[string]interface{}{}}, nil
	}}
	claims, err := v.Verify(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "1234", claims.UserID)
}

func TestVerify_Rejected(t *testing.T) {
	v := &Verifier{validate: func(context.Context, string, string) (*idtoken.Payload, error) {
		return nil, errors.New("idtoken: token expired")
	}}
	_, err := v.Verify(context.Background(), "tok")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
