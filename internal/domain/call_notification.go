package domain

import "time"

// CallType is the category of call a notification announces.
type CallType string

const (
	CallTypeVoice CallType = "voice_call"
	CallTypeVideo CallType = "video_call"
)

// Known reports whether t is one of the recognised call categories.
func (t CallType) Known() bool {
	return t == CallTypeVoice || t == CallTypeVideo
}

// NotificationStatus is the lifecycle state of a CallNotification.
type NotificationStatus string

const (
	StatusPending NotificationStatus = "pending"
	StatusSent    NotificationStatus = "sent"
	StatusFailed  NotificationStatus = "failed"
	StatusExpired NotificationStatus = "expired"
)

// CanTransition reports whether moving from s to next is allowed.
// pending -> sent -> expired, pending -> failed. failed and expired are terminal.
func (s NotificationStatus) CanTransition(next NotificationStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusSent || next == StatusFailed
	case StatusSent:
		return next == StatusExpired
	default:
		return false
	}
}

// CallNotification is the persisted record of one dispatch attempt.
type CallNotification struct {
	ID         string             `json:"id" dynamodbav:"notification_id" firestore:"-"`
	CallerID   string             `json:"callerId" dynamodbav:"caller_id" firestore:"callerId"`
	PeerID     string             `json:"peerId" dynamodbav:"peer_id" firestore:"peerId"`
	ChannelID  string             `json:"channelId" dynamodbav:"channel_id" firestore:"channelId"`
	CallType   CallType           `json:"callType" dynamodbav:"call_type" firestore:"callType"`
	CallerName string             `json:"callerName" dynamodbav:"caller_name" firestore:"callerName"`
	Status     NotificationStatus `json:"status" dynamodbav:"status" firestore:"status"`
	Transport  string             `json:"transport,omitempty" dynamodbav:"transport,omitempty" firestore:"transport,omitempty"`
	MessageID  string             `json:"messageId,omitempty" dynamodbav:"message_id,omitempty" firestore:"fcmResponse,omitempty"`
	Error      string             `json:"error,omitempty" dynamodbav:"error,omitempty" firestore:"error,omitempty"`
	CreatedAt  time.Time          `json:"createdAt" dynamodbav:"created_at,unixtime" firestore:"createdAt"`
	SentAt     *time.Time         `json:"sentAt,omitempty" dynamodbav:"sent_at,unixtime,omitempty" firestore:"sentAt,omitempty"`
	FailedAt   *time.Time         `json:"failedAt,omitempty" dynamodbav:"failed_at,unixtime,omitempty" firestore:"failedAt,omitempty"`
	ExpiredAt  *time.Time         `json:"expiredAt,omitempty" dynamodbav:"expired_at,unixtime,omitempty" firestore:"expiredAt,omitempty"`
}

// StatusChange describes a single transition applied to a stored record.
// Exactly one timestamp is set, matching To.
type StatusChange struct {
	From      NotificationStatus
	To        NotificationStatus
	At        time.Time
	MessageID string
	Error     string
}
