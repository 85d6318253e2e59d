package domain

import "time"

// PushAction is a button rendered on a web push notification.
type PushAction struct {
	Action string
	Title  string
}

// PushMessage is a fully built call notification, independent of the push
// network that will carry it.
type PushMessage struct {
	Token string
	Title string
	Body  string
	Data  map[string]string

	// Delivery hints. Transports map what their network supports.
	HighPriority       bool
	TTL                time.Duration
	AndroidChannelID   string
	Sound              string
	APNSPriority       string
	WebIcon            string
	WebBadge           string
	WebTag             string
	RequireInteraction bool
	Vibrate            []int
	Actions            []PushAction
	ClickLink          string
}
