package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/callog-relay/internal/application/dispatch"
	"github.com/callog-relay/internal/application/rtctoken"
	"github.com/callog-relay/internal/application/transcription"
	"github.com/callog-relay/internal/config"
	"github.com/callog-relay/internal/domain"
	jwtinfra "github.com/callog-relay/internal/infrastructure/jwt"
	"github.com/callog-relay/internal/transport/http/handler"
	appmiddleware "github.com/callog-relay/internal/transport/http/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

type stubTokens struct{}

func (stubTokens) Issue(_ context.Context, req rtctoken.IssueRequest) (*domain.RTCCredential, error) {
	return &domain.RTCCredential{AppID: "app", ChannelName: req.ChannelName}, nil
}

type stubDispatcher struct{}

func (stubDispatcher) Dispatch(context.Context, dispatch.DispatchRequest) (*dispatch.DispatchResult, error) {
	return &dispatch.DispatchResult{Success: true, MessageID: "m", NotificationID: "n"}, nil
}

type stubReader struct{}

func (stubReader) Get(context.Context, string) (*domain.CallNotification, error) {
	return nil, domain.ErrNotFound
}

type stubTranscriber struct{}

func (stubTranscriber) Transcribe(context.Context, transcription.TranscribeRequest) (*transcription.Result, error) {
	return nil, domain.ErrEmptyResult
}

type denyAll struct{}

func (denyAll) Verify(context.Context, string) (*jwtinfra.Claims, error) { return nil, errors.New("denied") }

func newTestRouter(t *testing.T, verifier appmiddleware.TokenVerifier) http.Handler {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	cfg := &config.Config{AllowedOrigins: []string{"*"}, RateLimitRPS: 100, RateLimitBurst: 100}
	return NewRouter(ctx, cfg, &Deps{
		Tokens:        stubTokens{},
		Dispatcher:    stubDispatcher{},
		Notifications: stubReader{},
		Transcriber:   stubTranscriber{},
		Verifier:      verifier,
		ReadyChecks:   map[string]handler.Check{},
		Gatherer:      prometheus.NewRegistry(),
	})
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRouter_RoutesAndAliases(t *testing.T) {
	r := newTestRouter(t, nil)

	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/v1/rtc/token", `{"channelName":"c"}`).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/generateAgoraToken", `{"data":{"channelName":"c"}}`).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/v1/notifications/call", `{"peerId":"u"}`).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/sendPushNotification", `{"peerId":"u"}`).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/v1/notifications/nope", "").Code)
	assert.Equal(t, http.StatusInternalServerError, do(r, http.MethodPost, "/transcribeAudio", `{"audioUrl":"x"}`).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/v1/health-check/ping", "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/readyz", "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/metrics", "").Code)
}

func TestRouter_Preflight(t *testing.T) {
	r := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/v1/notifications/call", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rr.Body.String())

	assert.Equal(t, http.StatusOK, do(r, http.MethodOptions, "/transcribeAudio", "").Code)
}

func TestRouter_AuthWhenVerifierSet(t *testing.T) {
	r := newTestRouter(t, denyAll{})

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodPost, "/v1/rtc/token", `{"channelName":"c"}`).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodPost, "/sendPushNotification", `{}`).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/v1/health-check/ping", "").Code)
}
