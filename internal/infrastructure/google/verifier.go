package google

import (
	"context"
	"fmt"
	"time"

	"github.com/callog-relay/internal/domain"
	jwtinfra "github.com/callog-relay/internal/infrastructure/jwt"
	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/api/idtoken"
)

type validateFunc func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// Verifier accepts Google-signed ID tokens minted for one audience, such as
// the OIDC tokens Cloud Run and Cloud Scheduler attach to outgoing calls.
type Verifier struct {
	audience string
	validate validateFunc
}

func NewVerifier(audience string) *Verifier {
	return &Verifier{audience: audience, validate: idtoken.Validate}
}

// Verify validates the token and maps its subject to Claims.UserID.
// Returns a domain.ErrUnauthorized-wrapped error if the token is invalid.
func (v *Verifier) Verify(ctx context.Context, token string) (*jwtinfra.Claims, error) {
	p, err := v.validate(ctx, token, v.audience)
	if err != nil {
		return nil, fmt.Errorf("invalid google token: %w", domain.ErrUnauthorized)
	}
	userID := p.Subject
	if email, _ := p.Claims["email"].(string); email != "" {
		userID = email
	}
	return &jwtinfra.Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    p.Issuer,
			Subject:   p.Subject,
			Audience:  jwt.ClaimStrings{p.Audience},
			ExpiresAt: jwt.NewNumericDate(unix(p.Expires)),
			IssuedAt:  jwt.NewNumericDate(unix(p.IssuedAt)),
		},
	}, nil
}

func unix(sec int64) time.Time { return time.Unix(sec, 0) }
