package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/callog-relay/internal/application/dispatch"
	"github.com/callog-relay/internal/application/record"
	"github.com/callog-relay/internal/application/rtctoken"
	"github.com/callog-relay/internal/bootstrap"
	"github.com/callog-relay/internal/config"
	"github.com/callog-relay/internal/infrastructure/agora"
	googleauth "github.com/callog-relay/internal/infrastructure/google"
	jwtinfra "github.com/callog-relay/internal/infrastructure/jwt"
	"github.com/callog-relay/internal/logging"
	"github.com/callog-relay/internal/observability"
	transporthttp "github.com/callog-relay/internal/transport/http"
	"github.com/callog-relay/internal/transport/http/handler"
	appmiddleware "github.com/callog-relay/internal/transport/http/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Init("callog-api", cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backends, err := bootstrap.Open(ctx, cfg)
	if err != nil {
		slog.Error("open backends", "err", err)
		os.Exit(1)
	}
	defer backends.Close()

	transport, err := backends.PushTransport(ctx, cfg)
	if err != nil {
		slog.Error("push transport", "err", err)
		os.Exit(1)
	}
	transcriber, err := backends.Transcriber(ctx, cfg)
	if err != nil {
		slog.Error("transcription provider", "err", err)
		os.Exit(1)
	}

	keeper := record.NewKeeper(record.KeeperDeps{
		Store:       backends.Notifications,
		Scheduler:   backends.ExpiryScheduler(cfg),
		ExpiryDelay: cfg.ExpiryDelay,
	})
	defer keeper.Close()

	// The worker owns cleanup when expiry goes through SQS.
	if cfg.CleanupEnabled && cfg.ExpiryScheduler == config.SchedulerTimer {
		go keeper.RunCleanup(ctx, cfg.CleanupInterval, cfg.CleanupMaxAge, cfg.CleanupBatchLimit)
	}

	// Bearer verification is optional; /v1 stays public without either source.
	var verifiers appmiddleware.AnyVerifier
	if cfg.AuthJWTPublicKeyPath != "" {
		v, err := jwtinfra.NewVerifier(cfg.AuthJWTPublicKeyPath)
		if err != nil {
			slog.Error("jwt verifier", "err", err)
			os.Exit(1)
		}
		verifiers = append(verifiers, v)
	}
	if cfg.AuthGoogleAudience != "" {
		verifiers = append(verifiers, googleauth.NewVerifier(cfg.AuthGoogleAudience))
	}

	reg := prometheus.NewRegistry()
	observability.Register(reg)

	deps := &transporthttp.Deps{
		Tokens: rtctoken.NewService(rtctoken.ServiceDeps{
			AppID:       cfg.AgoraAppID,
			Certificate: cfg.AgoraAppCertificate,
			Signer:      agora.NewSigner(),
		}),
		Dispatcher: dispatch.NewService(dispatch.ServiceDeps{
			Peers:     backends.Peers,
			Store:     backends.Notifications,
			Transport: transport,
			Expiry:    keeper,
			Breaker:   dispatch.NewBreaker(transport.Name(), cfg.PushBreakerFailures, cfg.PushBreakerCooldown),
			Timeout:   cfg.PushTimeout,
			Options:   dispatch.MessageOptions{ClickLink: cfg.PushClickLink},
		}),
		Notifications: backends.Notifications,
		Transcriber:   transcriber,
		ReadyChecks:   map[string]handler.Check{"store": backends.Notifications.Ping},
		Gatherer:      reg,
	}
	if len(verifiers) > 0 {
		deps.Verifier = verifiers
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      transporthttp.NewRouter(ctx, cfg, deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv,
			"store", cfg.StoreBackend, "push", transport.Name(), "expiry", cfg.ExpiryScheduler)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "err", err)
	}
	slog.Info("server stopped")
}
