package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/callog-relay/internal/domain"
	"github.com/callog-relay/internal/logging"
	"github.com/callog-relay/internal/observability"
	"github.com/callog-relay/internal/pkg/id"
	"github.com/callog-relay/internal/pkg/validate"
	"github.com/sony/gobreaker"
)

// DispatchRequest announces an incoming call to one recipient, addressed
// either by user id or directly by delivery token.
type DispatchRequest struct {
	PeerID        string `json:"peerId" validate:"required_without=DeliveryToken"`
	DeliveryToken string `json:"fcmToken"`
	ChannelID     string `json:"channelId" validate:"required"`
	CallType      string `json:"callType" validate:"required"`
	CallerName    string `json:"callerName" validate:"required"`
	CallerID      string `json:"callerId"`
}

type DispatchResult struct {
	Success        bool   `json:"success"`
	MessageID      string `json:"messageId"`
	NotificationID string `json:"notificationId"`
}

// Transport submits a built message to one push network.
type Transport interface {
	Name() string
	Send(ctx context.Context, msg *domain.PushMessage) (messageID string, err error)
}

// PeerDirectory resolves a user id to its registered delivery token.
type PeerDirectory interface {
	GetDeliveryToken(ctx context.Context, userID string) (*domain.UserDeliveryToken, error)
}

// NotificationStore persists dispatch records.
type NotificationStore interface {
	Create(ctx context.Context, n *domain.CallNotification) error
	ApplyChange(ctx context.Context, notificationID string, change domain.StatusChange) (bool, error)
}

// ExpiryScheduler arranges the sent -> expired sweep for a record.
type ExpiryScheduler interface {
	ScheduleExpiry(ctx context.Context, notificationID string) error
}

type Service interface {
	Dispatch(ctx context.Context, req DispatchRequest) (*DispatchResult, error)
}

type ServiceDeps struct {
	Peers     PeerDirectory
	Store     NotificationStore
	Transport Transport
	Expiry    ExpiryScheduler
	// Breaker is optional; without it every send goes straight to Transport.
	Breaker *gobreaker.CircuitBreaker
	Timeout time.Duration
	Options MessageOptions
	Now     func() time.Time
	NewID   func(time.Time) string
}

type service struct {
	peers     PeerDirectory
	store     NotificationStore
	transport Transport
	expiry    ExpiryScheduler
	breaker   *gobreaker.CircuitBreaker
	timeout   time.Duration
	opts      MessageOptions
	now       func() time.Time
	newID     func(time.Time) string
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		peers:     deps.Peers,
		store:     deps.Store,
		transport: deps.Transport,
		expiry:    deps.Expiry,
		breaker:   deps.Breaker,
		timeout:   deps.Timeout,
		opts:      deps.Options,
		now:       deps.Now,
		newID:     deps.NewID,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = id.NewAt
	}
	return s
}

func (s *service) Dispatch(ctx context.Context, req DispatchRequest) (*DispatchResult, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.ChannelID) == "" || strings.TrimSpace(req.CallerName) == "" {
		return nil, fmt.Errorf("channelId and callerName must not be blank: %w", domain.ErrInvalidArgument)
	}

	token, err := s.resolveToken(ctx, req)
	if err != nil {
		return nil, err
	}

	now := s.now()
	rec := &domain.CallNotification{
		ID:         s.newID(now),
		CallerID:   req.CallerID,
		PeerID:     req.PeerID,
		ChannelID:  req.ChannelID,
		CallType:   domain.CallType(req.CallType),
		CallerName: req.CallerName,
		Status:     domain.StatusPending,
		Transport:  s.transport.Name(),
		CreatedAt:  now,
	}
	if !rec.CallType.Known() {
		slog.Warn("unknown call type, using generic label", "call_type", req.CallType)
	}

	pendingStored := true
	if err := s.store.Create(ctx, rec); err != nil {
		pendingStored = false
		slog.Error("create pending notification failed", "notification_id", rec.ID, "err", err)
	}

	msg := BuildMessage(rec, token, s.opts)
	messageID, sendErr := s.send(ctx, msg)
	if sendErr != nil {
		return nil, s.recordFailure(ctx, rec, pendingStored, token, sendErr)
	}

	s.recordSuccess(ctx, rec, pendingStored, messageID)
	return &DispatchResult{Success: true, MessageID: messageID, NotificationID: rec.ID}, nil
}

// resolveToken returns the explicit token or looks the peer up.
func (s *service) resolveToken(ctx context.Context, req DispatchRequest) (string, error) {
	if req.DeliveryToken != "" {
		return req.DeliveryToken, nil
	}
	u, err := s.peers.GetDeliveryToken(ctx, req.PeerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", err
		}
		slog.Error("peer lookup failed", "peer_id", req.PeerID, "err", err)
		return "", fmt.Errorf("peer lookup: %w", domain.ErrDependencyUnavailable)
	}
	if strings.TrimSpace(u.Token) == "" {
		return "", fmt.Errorf("user %s: %w", req.PeerID, domain.ErrNoDeliveryToken)
	}
	return u.Token, nil
}

func (s *service) send(ctx context.Context, msg *domain.PushMessage) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		observability.DispatchLatency.WithLabelValues(s.transport.Name()).Observe(time.Since(start).Seconds())
	}()

	if s.breaker == nil {
		return s.transport.Send(ctx, msg)
	}
	out, err := s.breaker.Execute(func() (interface{}, error) {
		return s.transport.Send(ctx, msg)
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

// recordFailure persists the failed outcome best-effort and returns the
// classified delivery error.
func (s *service) recordFailure(ctx context.Context, rec *domain.CallNotification, pendingStored bool, token string, sendErr error) error {
	slog.Error("push send failed",
		"notification_id", rec.ID,
		"transport", s.transport.Name(),
		"token", logging.TokenPrefix(token),
		"err", sendErr,
	)

	var result string
	var err error
	switch {
	case errors.Is(sendErr, domain.ErrTokenRejected):
		result, err = "token_rejected", domain.ErrTokenRejected
	case isBreakerRejection(sendErr):
		result, err = "breaker_open", fmt.Errorf("push network circuit open: %w: %w", domain.ErrDeliveryFailed, domain.ErrDependencyUnavailable)
	case errors.Is(sendErr, context.DeadlineExceeded):
		result, err = "timeout", fmt.Errorf("push send timed out: %w: %w", domain.ErrDeliveryFailed, domain.ErrTimeout)
	default:
		result, err = "failed", fmt.Errorf("push send: %w", domain.ErrDeliveryFailed)
	}
	observability.Dispatches.WithLabelValues(s.transport.Name(), result).Inc()

	at := s.now()
	detail := sendErr.Error()
	if pendingStored {
		change := domain.StatusChange{From: domain.StatusPending, To: domain.StatusFailed, At: at, Error: detail}
		if _, werr := s.store.ApplyChange(ctx, rec.ID, change); werr != nil {
			slog.Error("record failed status", "notification_id", rec.ID, "err", werr)
		}
		return err
	}

	rec.Status = domain.StatusFailed
	rec.FailedAt = &at
	rec.Error = detail
	if werr := s.store.Create(ctx, rec); werr != nil {
		slog.Error("create failed notification record", "notification_id", rec.ID, "err", werr)
	}
	return err
}

func (s *service) recordSuccess(ctx context.Context, rec *domain.CallNotification, pendingStored bool, messageID string) {
	observability.Dispatches.WithLabelValues(s.transport.Name(), "sent").Inc()
	slog.Info("push sent", "notification_id", rec.ID, "transport", s.transport.Name(), "message_id", messageID)

	at := s.now()
	if pendingStored {
		change := domain.StatusChange{From: domain.StatusPending, To: domain.StatusSent, At: at, MessageID: messageID}
		if _, err := s.store.ApplyChange(ctx, rec.ID, change); err != nil {
			slog.Error("record sent status", "notification_id", rec.ID, "err", err)
		}
	} else {
		rec.Status = domain.StatusSent
		rec.SentAt = &at
		rec.MessageID = messageID
		if err := s.store.Create(ctx, rec); err != nil {
			slog.Error("create sent notification record", "notification_id", rec.ID, "err", err)
		}
	}

	if s.expiry != nil {
		if err := s.expiry.ScheduleExpiry(ctx, rec.ID); err != nil {
			slog.Error("schedule expiry", "notification_id", rec.ID, "err", err)
		}
	}
}
