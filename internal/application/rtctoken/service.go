package rtctoken

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/callog-relay/internal/domain"
	"github.com/callog-relay/internal/observability"
	"github.com/callog-relay/internal/pkg/validate"
)

// TokenTTL is the fixed lifetime of every issued credential.
const TokenTTL = 24 * time.Hour

// certificateMissingMessage is returned alongside a nil token.
const certificateMissingMessage = "App Certificate not configured"

// IssueRequest is the input of the issue-token operation.
type IssueRequest struct {
	ChannelName string `json:"channelName" validate:"required"`
	UID         uint32 `json:"uid"`
	Role        string `json:"role"`
}

// Signer produces a signed RTC token. Implementations wrap the vendor builder.
type Signer interface {
	Sign(appID, certificate, channelName string, uid uint32, role domain.RTCRole, expiresAt int64) (string, error)
}

type Service interface {
	Issue(ctx context.Context, req IssueRequest) (*domain.RTCCredential, error)
}

// ServiceDeps holds the configuration and collaborators of the token service.
type ServiceDeps struct {
	AppID       string
	Certificate string
	Signer      Signer
	Now         func() time.Time
}

type service struct {
	appID       string
	certificate string
	signer      Signer
	now         func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		appID:       deps.AppID,
		certificate: deps.Certificate,
		signer:      deps.Signer,
		now:         now,
	}
}

// ParseRole maps the wire value to a role. Anything but "audience" publishes.
func ParseRole(s string) domain.RTCRole {
	if domain.RTCRole(s) == domain.RTCRoleAudience {
		return domain.RTCRoleAudience
	}
	return domain.RTCRolePublisher
}

func (s *service) Issue(_ context.Context, req IssueRequest) (*domain.RTCCredential, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.ChannelName) == "" {
		return nil, fmt.Errorf("channelName must not be blank: %w", domain.ErrInvalidArgument)
	}
	cred := &domain.RTCCredential{
		AppID:       s.appID,
		ChannelName: req.ChannelName,
		UID:         req.UID,
		Role:        ParseRole(req.Role),
	}

	if s.certificate == "" {
		slog.Warn("rtc certificate not configured, issuing null token", "channel", req.ChannelName)
		cred.Message = certificateMissingMessage
		observability.TokensIssued.WithLabelValues("false").Inc()
		return cred, nil
	}
	if s.appID == "" || s.signer == nil {
		return nil, fmt.Errorf("rtc app id: %w", domain.ErrUnconfigured)
	}

	expiresAt := s.now().Add(TokenTTL).Unix()
	token, err := s.signer.Sign(s.appID, s.certificate, req.ChannelName, req.UID, cred.Role, expiresAt)
	if err != nil {
		slog.Error("rtc token signing failed", "channel", req.ChannelName, "uid", req.UID, "err", err)
		return nil, fmt.Errorf("sign rtc token: %w", domain.ErrDependencyUnavailable)
	}
	cred.Token = &token
	cred.ExpiresAt = expiresAt
	observability.TokensIssued.WithLabelValues("true").Inc()
	return cred, nil
}
