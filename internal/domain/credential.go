package domain

// RTCRole is the privilege requested when joining a media channel.
type RTCRole string

const (
	RTCRolePublisher RTCRole = "publisher"
	RTCRoleAudience  RTCRole = "audience"
)

// RTCCredential is a time-limited credential for joining a real-time channel.
// Token is nil exactly when no signing certificate is configured; callers join
// without authentication in that case.
type RTCCredential struct {
	AppID       string  `json:"appId"`
	ChannelName string  `json:"channelName"`
	UID         uint32  `json:"uid"`
	Role        RTCRole `json:"role"`
	Token       *string `json:"token"`
	ExpiresAt   int64   `json:"expiresAt,omitempty"`
	Message     string  `json:"message,omitempty"`
}
