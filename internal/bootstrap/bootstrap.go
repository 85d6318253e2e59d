// Package bootstrap turns a loaded Config into the concrete backends shared
// by the API server and the expiry worker.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	fb "firebase.google.com/go/v4"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/callog-relay/internal/application/dispatch"
	"github.com/callog-relay/internal/application/record"
	"github.com/callog-relay/internal/application/transcription"
	"github.com/callog-relay/internal/config"
	"github.com/callog-relay/internal/domain"
	"github.com/callog-relay/internal/infrastructure/audio"
	"github.com/callog-relay/internal/infrastructure/awsutil"
	"github.com/callog-relay/internal/infrastructure/dynamo"
	"github.com/callog-relay/internal/infrastructure/fcm"
	"github.com/callog-relay/internal/infrastructure/firebase"
	"github.com/callog-relay/internal/infrastructure/firestore"
	s3infra "github.com/callog-relay/internal/infrastructure/s3"
	"github.com/callog-relay/internal/infrastructure/sns"
	"github.com/callog-relay/internal/infrastructure/speech"
	sqsqueue "github.com/callog-relay/internal/infrastructure/sqs"
)

// NotificationStore is everything the services need from the record store.
type NotificationStore interface {
	dispatch.NotificationStore
	record.NotificationStore
	Ping(ctx context.Context) error
}

// Backends holds the clients built from one Config.
type Backends struct {
	AWS           aws.Config
	Firebase      *fb.App
	Notifications NotificationStore
	Peers         dispatch.PeerDirectory

	closers []func() error
}

// Open connects the configured store. Firebase is only initialised when a
// selected backend needs it.
func Open(ctx context.Context, cfg *config.Config) (*Backends, error) {
	awsCfg, err := awsutil.LoadConfig(ctx, cfg, "")
	if err != nil {
		return nil, err
	}
	b := &Backends{AWS: awsCfg}

	if cfg.NeedsFirebase() {
		if b.Firebase, err = firebase.NewApp(ctx, cfg); err != nil {
			return nil, err
		}
	}

	switch cfg.StoreBackend {
	case config.StoreFirestore:
		client, err := b.Firebase.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("open firestore: %w", err)
		}
		b.closers = append(b.closers, client.Close)
		b.Notifications = firestore.NewNotificationRepo(client, cfg.FirestoreCollections.Notifications)
		b.Peers = firestore.NewUserRepo(client, cfg.FirestoreCollections.Users)
	default:
		client := dynamo.NewClient(awsCfg, awsutil.Endpoint(cfg))
		dynamo.Bootstrap(ctx, client, cfg.DynamoTables)
		b.Notifications = dynamo.NewNotificationRepo(client, cfg.DynamoTables.Notifications)
		b.Peers = dynamo.NewUserRepo(client, cfg.DynamoTables.Users)
	}
	slog.Info("record store ready", "backend", cfg.StoreBackend)
	return b, nil
}

// PushTransport builds the configured push sender.
func (b *Backends) PushTransport(ctx context.Context, cfg *config.Config) (dispatch.Transport, error) {
	switch cfg.PushTransport {
	case config.TransportLegacy:
		return fcm.NewLegacySender(cfg.FCMLegacyURL, cfg.FCMServerKey, &http.Client{Timeout: cfg.PushTimeout}), nil
	case config.TransportSNS:
		snsCfg, err := awsutil.LoadConfig(ctx, cfg, cfg.SNSRegion)
		if err != nil {
			return nil, err
		}
		return sns.NewPushSender(sns.NewClient(snsCfg, awsutil.Endpoint(cfg)), cfg.SNSPlatformApplicationARN), nil
	default:
		if b.Firebase == nil {
			return nil, fmt.Errorf("fcm transport without firebase app: %w", domain.ErrUnconfigured)
		}
		sender, err := fcm.NewSender(ctx, b.Firebase)
		if err != nil {
			return nil, err
		}
		return sender, nil
	}
}

// ExpiryScheduler returns the SQS-backed scheduler, or nil when expiry runs
// on in-process timers.
func (b *Backends) ExpiryScheduler(cfg *config.Config) record.ExpiryScheduler {
	if cfg.ExpiryScheduler != config.SchedulerSQS {
		return nil
	}
	return &sqsqueue.ExpiryQueue{
		SQS:      sqsqueue.NewClient(b.AWS, awsutil.Endpoint(cfg)),
		QueueURL: cfg.ExpiryQueueURL,
		Delay:    cfg.ExpiryDelay,
	}
}

// Transcriber wires the audio fetcher and the configured recognizer.
func (b *Backends) Transcriber(ctx context.Context, cfg *config.Config) (transcription.Service, error) {
	objects := s3infra.NewStore(s3infra.NewClient(b.AWS, awsutil.Endpoint(cfg)))
	fetcher := audio.NewFetcher(&http.Client{Timeout: cfg.AudioFetchTimeout}, objects, cfg.AudioMaxBytes)

	var recognizer transcription.Recognizer
	switch cfg.TranscribeProvider {
	case config.ProviderGemini:
		recognizer = speech.NewGeminiRecognizer(cfg.GeminiBaseURL, cfg.GeminiModel, cfg.GeminiAPIKey,
			&http.Client{Timeout: cfg.TranscribeTimeout})
	default:
		g, err := speech.NewGoogleRecognizer(ctx, firebase.CredentialOptions(cfg)...)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, g.Close)
		recognizer = g
	}

	return transcription.NewService(transcription.ServiceDeps{
		Fetcher:         fetcher,
		Recognizer:      recognizer,
		DefaultLanguage: cfg.TranscribeDefaultLanguage,
	}), nil
}

// Close releases every client that holds a connection.
func (b *Backends) Close() {
	for _, c := range b.closers {
		if err := c(); err != nil {
			slog.Warn("close backend", "err", err)
		}
	}
}
