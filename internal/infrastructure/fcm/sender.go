package fcm

import (
	"context"
	"fmt"
	"strconv"

	fb "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/errorutils"
	"firebase.google.com/go/v4/messaging"
	"github.com/callog-relay/internal/domain"
)

// messagingClient is the subset of *messaging.Client the sender needs.
type messagingClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// Sender delivers call notifications through the Firebase Admin SDK (HTTP v1).
type Sender struct {
	client messagingClient
}

func NewSender(ctx context.Context, app *fb.App) (*Sender, error) {
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("get messaging client: %w", err)
	}
	return &Sender{client: client}, nil
}

func (s *Sender) Name() string { return "fcm" }

func (s *Sender) Send(ctx context.Context, msg *domain.PushMessage) (string, error) {
	id, err := s.client.Send(ctx, toMessage(msg))
	if err != nil {
		if isTokenRejection(err) {
			return "", fmt.Errorf("%w: %v", domain.ErrTokenRejected, err)
		}
		return "", fmt.Errorf("fcm send: %w", err)
	}
	return id, nil
}

func isTokenRejection(err error) bool {
	return messaging.IsUnregistered(err) ||
		messaging.IsSenderIDMismatch(err) ||
		errorutils.IsInvalidArgument(err)
}

// toMessage maps the neutral message onto the per-platform FCM blocks.
func toMessage(msg *domain.PushMessage) *messaging.Message {
	ttl := msg.TTL
	androidPriority := "normal"
	if msg.HighPriority {
		androidPriority = "high"
	}

	m := &messaging.Message{
		Token: msg.Token,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
		Android: &messaging.AndroidConfig{
			Priority: androidPriority,
			TTL:      &ttl,
			Notification: &messaging.AndroidNotification{
				ChannelID:             msg.AndroidChannelID,
				Sound:                 msg.Sound,
				Priority:              messaging.PriorityMax,
				DefaultSound:          true,
				DefaultVibrateTimings: true,
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{"apns-priority": msg.APNSPriority},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: msg.Sound,
					Badge: intPtr(1),
				},
			},
		},
		Webpush: &messaging.WebpushConfig{
			Headers: map[string]string{
				"Urgency": "high",
				"TTL":     strconv.Itoa(int(ttl.Seconds())),
			},
			Notification: &messaging.WebpushNotification{
				Title:              msg.Title,
				Body:               msg.Body,
				Icon:               msg.WebIcon,
				Badge:              msg.WebBadge,
				Tag:                msg.WebTag,
				RequireInteraction: msg.RequireInteraction,
				Vibrate:            msg.Vibrate,
				Actions:            webActions(msg.Actions),
			},
		},
	}
	if msg.ClickLink != "" {
		m.Webpush.FCMOptions = &messaging.WebpushFCMOptions{Link: msg.ClickLink}
	}
	return m
}

func webActions(actions []domain.PushAction) []*messaging.WebpushNotificationAction {
	out := make([]*messaging.WebpushNotificationAction, 0, len(actions))
	for _, a := range actions {
		out = append(out, &messaging.WebpushNotificationAction{Action: a.Action, Title: a.Title})
	}
	return out
}

func intPtr(v int) *int { return &v }
