package firebase

import (
	"context"
	"fmt"
	"log/slog"

	fb "firebase.google.com/go/v4"
	"github.com/callog-relay/internal/config"
	"google.golang.org/api/option"
)

// CredentialOptions returns the Google client options for the configured
// service account. Raw service-account JSON wins over a credentials file;
// with neither, Application Default Credentials are used.
func CredentialOptions(cfg *config.Config) []option.ClientOption {
	switch {
	case cfg.FirebaseServiceAccount != "":
		return []option.ClientOption{option.WithCredentialsJSON([]byte(cfg.FirebaseServiceAccount))}
	case cfg.FirebaseCredentialsFile != "":
		return []option.ClientOption{option.WithCredentialsFile(cfg.FirebaseCredentialsFile)}
	default:
		return nil
	}
}

// NewApp initialises the Firebase Admin app shared by messaging and
// Firestore.
func NewApp(ctx context.Context, cfg *config.Config) (*fb.App, error) {
	opts := CredentialOptions(cfg)

	var fbCfg *fb.Config
	if cfg.FirebaseProjectID != "" {
		fbCfg = &fb.Config{ProjectID: cfg.FirebaseProjectID}
	}

	app, err := fb.NewApp(ctx, fbCfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}
	slog.Info("firebase app initialized", "project", cfg.FirebaseProjectID)
	return app, nil
}
