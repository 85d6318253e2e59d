package agora

import (
	"fmt"

	"github.com/AgoraIO-Community/go-tokenbuilder/rtctokenbuilder"
	"github.com/callog-relay/internal/domain"
)

// Signer builds Agora RTC tokens bound to a numeric uid.
type Signer struct{}

func NewSigner() *Signer { return &Signer{} }

func (Signer) Sign(appID, certificate, channelName string, uid uint32, role domain.RTCRole, expiresAt int64) (string, error) {
	var r rtctokenbuilder.Role = rtctokenbuilder.RolePublisher
	if role == domain.RTCRoleAudience {
		r = rtctokenbuilder.RoleSubscriber
	}
	token, err := rtctokenbuilder.BuildTokenWithUID(appID, certificate, channelName, uid, r, uint32(expiresAt))
	if err != nil {
		return "", fmt.Errorf("build agora token: %w", err)
	}
	return token, nil
}
