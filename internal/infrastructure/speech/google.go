package speech

import (
	"context"
	"fmt"

	gspeech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/callog-relay/internal/domain"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
)

type recognizeClient interface {
	Recognize(ctx context.Context, req *speechpb.RecognizeRequest, opts ...gax.CallOption) (*speechpb.RecognizeResponse, error)
}

// GoogleRecognizer transcribes with Cloud Speech-to-Text v1 synchronous
// recognition.
type GoogleRecognizer struct {
	client recognizeClient
	closer func() error
}

func NewGoogleRecognizer(ctx context.Context, opts ...option.ClientOption) (*GoogleRecognizer, error) {
	client, err := gspeech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create speech client: %w", err)
	}
	return &GoogleRecognizer{client: client, closer: client.Close}, nil
}

func (g *GoogleRecognizer) Name() string { return "speech" }

func (g *GoogleRecognizer) Close() error {
	if g.closer == nil {
		return nil
	}
	return g.closer()
}

func (g *GoogleRecognizer) Recognize(ctx context.Context, audio []byte, format domain.AudioFormat, language string) ([]domain.TranscriptSegment, error) {
	resp, err := g.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: recognitionConfig(format, language),
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("speech recognize: %w", err)
	}

	var segments []domain.TranscriptSegment
	for _, result := range resp.GetResults() {
		alts := result.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		conf := alts[0].GetConfidence()
		segments = append(segments, domain.TranscriptSegment{
			Text:       alts[0].GetTranscript(),
			Confidence: &conf,
		})
	}
	return segments, nil
}

// recognitionConfig selects the encoding for the container. m4a has no v1
// encoding, so the service is left to detect it.
func recognitionConfig(format domain.AudioFormat, language string) *speechpb.RecognitionConfig {
	cfg := &speechpb.RecognitionConfig{
		Encoding:                   speechpb.RecognitionConfig_ENCODING_UNSPECIFIED,
		LanguageCode:               language,
		EnableAutomaticPunctuation: true,
	}
	if format == domain.AudioFormatWebM {
		cfg.Encoding = speechpb.RecognitionConfig_WEBM_OPUS
		cfg.SampleRateHertz = 48000
	}
	return cfg
}
