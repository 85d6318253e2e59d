package rtctoken

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/callog-relay/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockSigner struct{ mock.Mock }

func (m *mockSigner) Sign(appID, certificate, channelName string, uid uint32, role domain.RTCRole, expiresAt int64) (string, error) {
	args := m.Called(appID, certificate, channelName, uid, role, expiresAt)
	return args.String(0), args.Error(1)
}

// --- helpers ---

var fixedNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func newSvc(signer Signer, certificate string) Service {
	return NewService(ServiceDeps{
		AppID:       "app-1",
		Certificate: certificate,
		Signer:      signer,
		Now:         func() time.Time { return fixedNow },
	})
}

// --- tests ---

func TestIssue_MissingChannelName_NeverSigns(t *testing.T) {
	signer := &mockSigner{}
	_, err := newSvc(signer, "cert").Issue(context.Background(), IssueRequest{UID: 7})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
	signer.AssertNotCalled(t, "Sign", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestIssue_NoCertificate_ReturnsNullToken(t *testing.T) {
	signer := &mockSigner{}
	cred, err := newSvc(signer, "").Issue(context.Background(), IssueRequest{ChannelName: "room42", UID: 3})
	require.NoError(t, err)
	assert.Nil(t, cred.Token)
	assert.Equal(t, "App Certificate not configured", cred.Message)
	assert.Equal(t, "room42", cred.ChannelName)
	assert.Equal(t, uint32(3), cred.UID)
	assert.Zero(t, cred.ExpiresAt)
	signer.AssertNotCalled(t, "Sign", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestIssue_AudienceRole_SignsWithFixedExpiry(t *testing.T) {
	signer := &mockSigner{}
	wantExp := fixedNow.Add(24 * time.Hour).Unix()
	signer.On("Sign", "app-1", "cert", "room42", uint32(7), domain.RTCRoleAudience, wantExp).Return("006signed", nil)

	cred, err := newSvc(signer, "cert").Issue(context.Background(), IssueRequest{ChannelName: "room42", UID: 7, Role: "audience"})
	require.NoError(t, err)
	require.NotNil(t, cred.Token)
	assert.Equal(t, "006signed", *cred.Token)
	assert.Equal(t, "app-1", cred.AppID)
	assert.Equal(t, uint32(7), cred.UID)
	assert.Equal(t, wantExp, cred.ExpiresAt)
	assert.Greater(t, cred.ExpiresAt, fixedNow.Unix())
	signer.AssertExpectations(t)
}

func TestIssue_DefaultsToPublisher(t *testing.T) {
	signer := &mockSigner{}
	signer.On("Sign", "app-1", "cert", "lobby", uint32(0), domain.RTCRolePublisher, mock.Anything).Return("tok", nil)

	cred, err := newSvc(signer, "cert").Issue(context.Background(), IssueRequest{ChannelName: "lobby"})
	require.NoError(t, err)
	assert.Equal(t, domain.RTCRolePublisher, cred.Role)
	signer.AssertExpectations(t)
}

func TestIssue_SignerError_IsDependencyUnavailable(t *testing.T) {
	signer := &mockSigner{}
	signer.On("Sign", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("bad app id"))

	_, err := newSvc(signer, "cert").Issue(context.Background(), IssueRequest{ChannelName: "room42"})
	assert.True(t, errors.Is(err, domain.ErrDependencyUnavailable))
}

func TestIssue_CertificateWithoutAppID_IsUnconfigured(t *testing.T) {
	svc := NewService(ServiceDeps{Certificate: "cert", Signer: &mockSigner{}})
	_, err := svc.Issue(context.Background(), IssueRequest{ChannelName: "room42"})
	assert.True(t, errors.Is(err, domain.ErrUnconfigured))
}

func TestParseRole(t *testing.T) {
	assert.Equal(t, domain.RTCRoleAudience, ParseRole("audience"))
	assert.Equal(t, domain.RTCRolePublisher, ParseRole("publisher"))
	assert.Equal(t, domain.RTCRolePublisher, ParseRole(""))
	assert.Equal(t, domain.RTCRolePublisher, ParseRole("host"))
}
