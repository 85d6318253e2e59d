package http

import (
	"context"
	"net/http"

	"github.com/callog-relay/internal/config"
	"github.com/callog-relay/internal/transport/http/handler"
	appmiddleware "github.com/callog-relay/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router. ctx bounds the
// rate limiter's background cleanup.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(appmiddleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authMw := func(next http.Handler) http.Handler { return next }
	if deps.Verifier != nil {
		authMw = appmiddleware.Auth(deps.Verifier)
	}
	limiter := appmiddleware.NewRateLimiter(ctx, rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)

	healthH := handler.NewHealthHandler(deps.ReadyChecks)
	tokenH := handler.NewTokenHandler(deps.Tokens)
	notifH := handler.NewNotificationHandler(deps.Dispatcher, deps.Notifications)
	transcribeH := handler.NewTranscriptionHandler(deps.Transcriber)

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	// Preflights that reach the router without an Origin header.
	r.Options("/*", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Get("/healthz", healthH.Live)
	r.Get("/readyz", healthH.Ready)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health-check/{action}", healthH.Ping)

		r.Group(func(r chi.Router) {
			r.Use(limiter.Limit)
			r.Use(authMw)

			r.Post("/rtc/token", tokenH.Issue)
			r.Post("/notifications/call", notifH.Dispatch)
			r.Get("/notifications/{id}", notifH.Get)
			r.Post("/transcriptions", transcribeH.Transcribe)
		})
	})

	// Paths used by clients of the first release.
	r.Group(func(r chi.Router) {
		r.Use(limiter.Limit)
		r.Use(authMw)

		r.Post("/generateAgoraToken", tokenH.Issue)
		r.Post("/sendPushNotification", notifH.Dispatch)
		r.Post("/transcribeAudio", transcribeH.Transcribe)
	})

	return r
}
