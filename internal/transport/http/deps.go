package http

import (
	"github.com/callog-relay/internal/application/dispatch"
	"github.com/callog-relay/internal/application/rtctoken"
	"github.com/callog-relay/internal/application/transcription"
	"github.com/callog-relay/internal/transport/http/handler"
	appmiddleware "github.com/callog-relay/internal/transport/http/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// Deps holds the application services and infrastructure the router serves.
type Deps struct {
	Tokens        rtctoken.Service
	Dispatcher    dispatch.Service
	Notifications handler.NotificationReader
	Transcriber   transcription.Service
	// Verifier is optional; when nil the /v1 routes are public.
	Verifier appmiddleware.TokenVerifier
	// ReadyChecks are run by /readyz.
	ReadyChecks map[string]handler.Check
	Gatherer    prometheus.Gatherer
}
