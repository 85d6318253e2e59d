package config

import (
	"fmt"
	"time"

	"github.com/callog-relay/internal/domain"
	"github.com/kelseyhightower/envconfig"
)

// Store backends.
const (
	StoreDynamo    = "dynamo"
	StoreFirestore = "firestore"
)

// Push transports.
const (
	TransportFCM    = "fcm"
	TransportLegacy = "legacy"
	TransportSNS    = "sns"
)

// Transcription providers.
const (
	ProviderSpeech = "speech"
	ProviderGemini = "gemini"
)

// Expiry schedulers.
const (
	SchedulerTimer = "timer"
	SchedulerSQS   = "sqs"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort        string   `envconfig:"APP_PORT" default:"3000"`
	AppEnv         string   `envconfig:"APP_ENV" default:"development"`
	LogFormat      string   `envconfig:"LOG_FORMAT" default:"json"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"*"`

	AWSRegion      string `envconfig:"AWS_REGION" default:"us-east-1"`
	AWSEndpointURL string `envconfig:"AWS_ENDPOINT_URL"` // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string `envconfig:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey   string `envconfig:"AWS_SECRET_ACCESS_KEY"`

	StoreBackend         string               `envconfig:"STORE_BACKEND" default:"dynamo"`
	DynamoTables         DynamoTables         `envconfig:"DYNAMO_TABLE"`
	FirestoreCollections FirestoreCollections `envconfig:"FIRESTORE_COLLECTION"`

	FirebaseProjectID       string `envconfig:"FIREBASE_PROJECT_ID"`
	FirebaseServiceAccount  string `envconfig:"FIREBASE_SERVICE_ACCOUNT"` // raw service-account JSON
	FirebaseCredentialsFile string `envconfig:"FIREBASE_CREDENTIALS_FILE"`

	AgoraAppID          string `envconfig:"AGORA_APP_ID"`
	AgoraAppCertificate string `envconfig:"AGORA_APP_CERTIFICATE"`

	PushTransport             string        `envconfig:"PUSH_TRANSPORT" default:"fcm"`
	PushTimeout               time.Duration `envconfig:"PUSH_TIMEOUT" default:"10s"`
	PushClickLink             string        `envconfig:"PUSH_CLICK_LINK"`
	PushBreakerFailures       uint32        `envconfig:"PUSH_BREAKER_FAILURES" default:"5"`
	PushBreakerCooldown       time.Duration `envconfig:"PUSH_BREAKER_COOLDOWN" default:"30s"`
	FCMServerKey              string        `envconfig:"FCM_SERVER_KEY"`
	FCMLegacyURL              string        `envconfig:"FCM_LEGACY_URL" default:"https://fcm.googleapis.com/fcm/send"`
	SNSRegion                 string        `envconfig:"SNS_REGION" default:"us-east-1"`
	SNSPlatformApplicationARN string        `envconfig:"SNS_PLATFORM_APPLICATION_ARN"`

	TranscribeProvider        string        `envconfig:"TRANSCRIBE_PROVIDER" default:"speech"`
	TranscribeDefaultLanguage string        `envconfig:"TRANSCRIBE_DEFAULT_LANGUAGE" default:"ja-JP"`
	TranscribeTimeout         time.Duration `envconfig:"TRANSCRIBE_TIMEOUT" default:"60s"`
	GeminiAPIKey              string        `envconfig:"GEMINI_API_KEY"`
	GeminiModel               string        `envconfig:"GEMINI_MODEL" default:"gemini-1.5-flash"`
	GeminiBaseURL             string        `envconfig:"GEMINI_BASE_URL" default:"https://generativelanguage.googleapis.com/v1beta"`
	AudioFetchTimeout         time.Duration `envconfig:"AUDIO_FETCH_TIMEOUT" default:"30s"`
	AudioMaxBytes             int64         `envconfig:"AUDIO_MAX_BYTES" default:"26214400"`

	ExpiryScheduler     string        `envconfig:"EXPIRY_SCHEDULER" default:"timer"`
	ExpiryDelay         time.Duration `envconfig:"EXPIRY_DELAY" default:"30s"`
	ExpiryQueueURL      string        `envconfig:"EXPIRY_QUEUE_URL"`
	ExpiryQueueWaitTime int32         `envconfig:"EXPIRY_QUEUE_WAIT_TIME" default:"20"`
	ExpiryQueueMaxMsgs  int32         `envconfig:"EXPIRY_QUEUE_MAX_MSGS" default:"10"`

	CleanupEnabled    bool          `envconfig:"CLEANUP_ENABLED" default:"true"`
	CleanupInterval   time.Duration `envconfig:"CLEANUP_INTERVAL" default:"1h"`
	CleanupMaxAge     time.Duration `envconfig:"CLEANUP_MAX_AGE" default:"1h"`
	CleanupBatchLimit int           `envconfig:"CLEANUP_BATCH_LIMIT" default:"500"`

	AuthJWTPublicKeyPath string `envconfig:"AUTH_JWT_PUBLIC_KEY_PATH"`
	AuthGoogleAudience   string `envconfig:"AUTH_GOOGLE_AUDIENCE"`

	RateLimitRPS   float64 `envconfig:"RATE_LIMIT_RPS" default:"5"`
	RateLimitBurst int     `envconfig:"RATE_LIMIT_BURST" default:"10"`
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users         string `envconfig:"USERS" default:"users"`
	Notifications string `envconfig:"NOTIFICATIONS" default:"call_notifications"`
}

// FirestoreCollections holds the Firestore collection name for each entity.
type FirestoreCollections struct {
	Users         string `envconfig:"USERS" default:"users"`
	Notifications string `envconfig:"NOTIFICATIONS" default:"call_notifications"`
}

// Load reads all configuration from environment variables and validates
// the combinations that would otherwise fail on the first request.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks backend selections and the credentials each one needs.
// A missing Agora certificate is not an error: token issuance degrades to
// unauthenticated joins.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreDynamo, StoreFirestore:
	default:
		return fmt.Errorf("STORE_BACKEND %q: %w", c.StoreBackend, domain.ErrInvalidArgument)
	}

	switch c.PushTransport {
	case TransportFCM:
	case TransportLegacy:
		if c.FCMServerKey == "" {
			return fmt.Errorf("FCM_SERVER_KEY is required for the legacy transport: %w", domain.ErrUnconfigured)
		}
	case TransportSNS:
		if c.SNSPlatformApplicationARN == "" {
			return fmt.Errorf("SNS_PLATFORM_APPLICATION_ARN is required for the sns transport: %w", domain.ErrUnconfigured)
		}
	default:
		return fmt.Errorf("PUSH_TRANSPORT %q: %w", c.PushTransport, domain.ErrInvalidArgument)
	}

	if c.TranscribeTimeout <= 0 {
		return fmt.Errorf("TRANSCRIBE_TIMEOUT must be positive: %w", domain.ErrInvalidArgument)
	}

	switch c.TranscribeProvider {
	case ProviderSpeech:
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for the gemini provider: %w", domain.ErrUnconfigured)
		}
	default:
		return fmt.Errorf("TRANSCRIBE_PROVIDER %q: %w", c.TranscribeProvider, domain.ErrInvalidArgument)
	}

	switch c.ExpiryScheduler {
	case SchedulerTimer:
	case SchedulerSQS:
		if c.ExpiryQueueURL == "" {
			return fmt.Errorf("EXPIRY_QUEUE_URL is required for the sqs scheduler: %w", domain.ErrUnconfigured)
		}
	default:
		return fmt.Errorf("EXPIRY_SCHEDULER %q: %w", c.ExpiryScheduler, domain.ErrInvalidArgument)
	}

	if c.CleanupBatchLimit <= 0 || c.CleanupBatchLimit > 500 {
		return fmt.Errorf("CLEANUP_BATCH_LIMIT must be in 1..500: %w", domain.ErrInvalidArgument)
	}
	return nil
}

// NeedsFirebase reports whether any selected backend talks to Firebase.
func (c *Config) NeedsFirebase() bool {
	return c.StoreBackend == StoreFirestore || c.PushTransport == TransportFCM
}
