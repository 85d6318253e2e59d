package fcm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/callog-relay/internal/domain"
)

// legacyRejections are per-result errors that mean the token itself is bad.
var legacyRejections = map[string]bool{
	"NotRegistered":       true,
	"InvalidRegistration": true,
	"MismatchSenderId":    true,
	"MissingRegistration": true,
}

// LegacySender posts to the server-key FCM HTTP endpoint.
type LegacySender struct {
	url        string
	serverKey  string
	httpClient *http.Client
}

func NewLegacySender(url, serverKey string, httpClient *http.Client) *LegacySender {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &LegacySender{url: url, serverKey: serverKey, httpClient: httpClient}
}

func (s *LegacySender) Name() string { return "legacy" }

type legacyNotification struct {
	Title       string `json:"title"`
	Body        string `json:"body"`
	Sound       string `json:"sound,omitempty"`
	Tag         string `json:"tag,omitempty"`
	Icon        string `json:"icon,omitempty"`
	ClickAction string `json:"click_action,omitempty"`
}

type legacyRequest struct {
	To           string             `json:"to"`
	Notification legacyNotification `json:"notification"`
	Data         map[string]string  `json:"data"`
	Priority     string             `json:"priority"`
	TimeToLive   int                `json:"time_to_live"`
}

type legacyResponse struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
	Results []struct {
		MessageID string `json:"message_id"`
		Error     string `json:"error"`
	} `json:"results"`
}

func (s *LegacySender) Send(ctx context.Context, msg *domain.PushMessage) (string, error) {
	priority := "normal"
	if msg.HighPriority {
		priority = "high"
	}
	payload := legacyRequest{
		To: msg.Token,
		Notification: legacyNotification{
			Title:       msg.Title,
			Body:        msg.Body,
			Sound:       msg.Sound,
			Tag:         msg.WebTag,
			Icon:        msg.WebIcon,
			ClickAction: msg.ClickLink,
		},
		Data:       msg.Data,
		Priority:   priority,
		TimeToLive: int(msg.TTL.Seconds()),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal legacy payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+s.serverKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("legacy fcm request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("legacy fcm status %d: %s", resp.StatusCode, respBody)
	}

	var out legacyResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("decode legacy fcm response: %w", err)
	}
	if out.Success == 1 && len(out.Results) > 0 && out.Results[0].MessageID != "" {
		return out.Results[0].MessageID, nil
	}

	reason := "unknown"
	if len(out.Results) > 0 && out.Results[0].Error != "" {
		reason = out.Results[0].Error
	}
	if legacyRejections[reason] {
		return "", fmt.Errorf("%w: %s", domain.ErrTokenRejected, reason)
	}
	return "", fmt.Errorf("legacy fcm rejected message: %s", reason)
}
