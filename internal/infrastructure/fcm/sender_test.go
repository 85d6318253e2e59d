package fcm

import (
	"context"
	"errors"
	"testing"
	"time"

	"firebase.google.com/go/v4/messaging"
	"github.com/callog-relay/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockMessaging struct{ mock.Mock }

func (m *mockMessaging) Send(ctx context.Context, message *messaging.Message) (string, error) {
	args := m.Called(ctx, message)
	return args.String(0), args.Error(1)
}

func sampleMessage() *domain.PushMessage {
	return &domain.PushMessage{
		Token:              "tok-123",
		Title:              "🔔 ビデオ通話着信",
		Body:               "Aliceさんからビデオ通話がかかってきています",
		Data:               map[string]string{"type": "video_call", "channelId": "room42"},
		HighPriority:       true,
		TTL:                60 * time.Second,
		AndroidChannelID:   "call_notifications",
		Sound:              "default",
		APNSPriority:       "10",
		WebTag:             "call_room42",
		RequireInteraction: true,
		Actions:            []domain.PushAction{{Action: "answer", Title: "応答"}, {Action: "decline", Title: "拒否"}},
		ClickLink:          "https://app.example.com/call",
	}
}

func TestToMessage_MapsPlatformBlocks(t *testing.T) {
	m := toMessage(sampleMessage())

	assert.Equal(t, "tok-123", m.Token)
	assert.Equal(t, "🔔 ビデオ通話着信", m.Notification.Title)
	assert.Equal(t, "video_call", m.Data["type"])

	require.NotNil(t, m.Android)
	assert.Equal(t, "high", m.Android.Priority)
	assert.Equal(t, 60*time.Second, *m.Android.TTL)
	assert.Equal(t, "call_notifications", m.Android.Notification.ChannelID)

	assert.Equal(t, "10", m.APNS.Headers["apns-priority"])
	assert.Equal(t, "default", m.APNS.Payload.Aps.Sound)

	require.NotNil(t, m.Webpush)
	assert.Equal(t, "call_room42", m.Webpush.Notification.Tag)
	assert.True(t, m.Webpush.Notification.RequireInteraction)
	require.Len(t, m.Webpush.Notification.Actions, 2)
	assert.Equal(t, "応答", m.Webpush.Notification.Actions[0].Title)
	assert.Equal(t, "https://app.example.com/call", m.Webpush.FCMOptions.Link)
	assert.Equal(t, "60", m.Webpush.Headers["TTL"])
}

func TestToMessage_NoClickLink_OmitsFCMOptions(t *testing.T) {
	msg := sampleMessage()
	msg.ClickLink = ""
	assert.Nil(t, toMessage(msg).Webpush.FCMOptions)
}

func TestSend_ReturnsMessageID(t *testing.T) {
	client := &mockMessaging{}
	client.On("Send", mock.Anything, mock.AnythingOfType("*messaging.Message")).Return("projects/p/messages/1", nil)

	id, err := (&Sender{client: client}).Send(context.Background(), sampleMessage())
	require.NoError(t, err)
	assert.Equal(t, "projects/p/messages/1", id)
	client.AssertExpectations(t)
}

func TestSend_GenericError_IsNotTokenRejection(t *testing.T) {
	client := &mockMessaging{}
	client.On("Send", mock.Anything, mock.Anything).Return("", errors.New("connection reset"))

	_, err := (&Sender{client: client}).Send(context.Background(), sampleMessage())
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrTokenRejected))
}
