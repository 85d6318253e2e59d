package dispatch

import (
	"strconv"
	"time"

	"github.com/callog-relay/internal/domain"
)

const (
	androidChannelID = "call_notifications"
	defaultSound     = "default"
	messageTTL       = 60 * time.Second
	apnsPriority     = "10"
	webIcon          = "/icon.png"
	webBadge         = "/badge.png"
	unknownParty     = "unknown"
)

// MessageOptions are deployment-specific hints added to every message.
type MessageOptions struct {
	ClickLink string
}

func callLabel(t domain.CallType) string {
	switch t {
	case domain.CallTypeVoice:
		return "音声通話"
	case domain.CallTypeVideo:
		return "ビデオ通話"
	default:
		return "通話"
	}
}

// DisplayText returns the notification title and body for a call.
func DisplayText(callType domain.CallType, callerName string) (title, body string) {
	label := callLabel(callType)
	return "🔔 " + label + "着信", callerName + "さんから" + label + "がかかってきています"
}

// BuildMessage assembles the push message announcing n to token.
func BuildMessage(n *domain.CallNotification, token string, opts MessageOptions) *domain.PushMessage {
	title, body := DisplayText(n.CallType, n.CallerName)
	return &domain.PushMessage{
		Token: token,
		Title: title,
		Body:  body,
		Data: map[string]string{
			"type":           string(n.CallType),
			"callType":       string(n.CallType),
			"channelId":      n.ChannelID,
			"callerName":     n.CallerName,
			"callerId":       orUnknown(n.CallerID),
			"peerId":         orUnknown(n.PeerID),
			"timestamp":      strconv.FormatInt(n.CreatedAt.UnixMilli(), 10),
			"notificationId": n.ID,
		},
		HighPriority:       true,
		TTL:                messageTTL,
		AndroidChannelID:   androidChannelID,
		Sound:              defaultSound,
		APNSPriority:       apnsPriority,
		WebIcon:            webIcon,
		WebBadge:           webBadge,
		WebTag:             "call_" + n.ChannelID,
		RequireInteraction: true,
		Vibrate:            []int{200, 100, 200},
		Actions: []domain.PushAction{
			{Action: "answer", Title: "応答"},
			{Action: "decline", Title: "拒否"},
		},
		ClickLink: opts.ClickLink,
	}
}

func orUnknown(s string) string {
	if s == "" {
		return unknownParty
	}
	return s
}
