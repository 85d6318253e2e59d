package transcription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/callog-relay/internal/domain"
	"github.com/callog-relay/internal/observability"
	"github.com/callog-relay/internal/pkg/validate"
)

// DefaultLanguage is used when the caller gives no hint.
const DefaultLanguage = "ja-JP"

type TranscribeRequest struct {
	AudioURL     string `json:"audioUrl" validate:"required"`
	AudioFormat  string `json:"audioFormat" validate:"required"`
	LanguageHint string `json:"languageHint"`
}

type Result struct {
	Text        string   `json:"text"`
	AudioFormat string   `json:"audioFormat"`
	AudioSize   int      `json:"audioSize"`
	Confidence  *float32 `json:"confidence,omitempty"`
}

// Fetcher downloads the recorded audio named by ref.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// Recognizer turns audio into ordered text segments.
type Recognizer interface {
	Name() string
	Recognize(ctx context.Context, audio []byte, format domain.AudioFormat, language string) ([]domain.TranscriptSegment, error)
}

type Service interface {
	Transcribe(ctx context.Context, req TranscribeRequest) (*Result, error)
}

type ServiceDeps struct {
	Fetcher         Fetcher
	Recognizer      Recognizer
	DefaultLanguage string
}

type service struct {
	fetcher    Fetcher
	recognizer Recognizer
	language   string
}

func NewService(deps ServiceDeps) Service {
	lang := deps.DefaultLanguage
	if lang == "" {
		lang = DefaultLanguage
	}
	return &service{fetcher: deps.Fetcher, recognizer: deps.Recognizer, language: lang}
}

func (s *service) Transcribe(ctx context.Context, req TranscribeRequest) (*Result, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	format := domain.AudioFormat(strings.ToLower(req.AudioFormat))
	if !format.Supported() {
		return nil, fmt.Errorf("audioFormat %q is not supported: %w", req.AudioFormat, domain.ErrInvalidArgument)
	}
	if s.recognizer == nil || s.fetcher == nil {
		return nil, fmt.Errorf("transcription provider: %w", domain.ErrUnconfigured)
	}
	provider := s.recognizer.Name()

	audio, err := s.fetcher.Fetch(ctx, req.AudioURL)
	if err != nil {
		s.count(provider, "fetch_failed")
		slog.Error("audio fetch failed", "audio_url", redactURL(req.AudioURL), "err", err)
		return nil, classify(err, domain.ErrFetchFailed)
	}

	language := s.language
	if hint := strings.TrimSpace(req.LanguageHint); hint != "" {
		language = hint
	}

	segments, err := s.recognizer.Recognize(ctx, audio, format, language)
	if err != nil {
		s.count(provider, "failed")
		slog.Error("recognition failed", "provider", provider, "audio_size", len(audio), "err", err)
		return nil, classify(err, domain.ErrDependencyUnavailable)
	}

	text, confidence := join(segments)
	if strings.TrimSpace(text) == "" {
		s.count(provider, "empty")
		return nil, fmt.Errorf("no speech recognised: %w", domain.ErrEmptyResult)
	}

	s.count(provider, "ok")
	slog.Info("audio transcribed", "provider", provider, "audio_size", len(audio), "segments", len(segments))
	return &Result{
		Text:        text,
		AudioFormat: string(format),
		AudioSize:   len(audio),
		Confidence:  confidence,
	}, nil
}

func (s *service) count(provider, result string) {
	observability.Transcriptions.WithLabelValues(provider, result).Inc()
}

// redactURL drops the query and fragment, where signed download URLs carry
// their access tokens.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<unparseable>"
	}
	u.User = nil
	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}

// join concatenates segment text in service order and averages the
// confidences that were reported.
func join(segments []domain.TranscriptSegment) (string, *float32) {
	texts := make([]string, 0, len(segments))
	var sum float32
	var n int
	for _, seg := range segments {
		texts = append(texts, seg.Text)
		if seg.Confidence != nil {
			sum += *seg.Confidence
			n++
		}
	}
	if n == 0 {
		return strings.Join(texts, "\n"), nil
	}
	avg := sum / float32(n)
	return strings.Join(texts, "\n"), &avg
}

// classify keeps taxonomy errors the dependency already produced and
// otherwise tags err with fallback. Deadlines become ErrTimeout.
func classify(err, fallback error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", fallback, domain.ErrTimeout)
	case errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrUnconfigured),
		errors.Is(err, fallback):
		return err
	default:
		return fmt.Errorf("%w: %v", fallback, err)
	}
}
