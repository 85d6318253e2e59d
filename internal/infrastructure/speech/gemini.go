package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/callog-relay/internal/domain"
)

const transcribePrompt = `音声ファイルの内容を正確に文字起こししてください。
会話の内容をそのまま文字に起こし、話者が複数いる場合は区別してください。
句読点や改行を適切に挿入して、読みやすい形式にしてください。`

// GeminiRecognizer transcribes by sending the audio inline to the Gemini
// generateContent REST endpoint.
type GeminiRecognizer struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
}

func NewGeminiRecognizer(baseURL, model, apiKey string, httpClient *http.Client) *GeminiRecognizer {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &GeminiRecognizer{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

func (g *GeminiRecognizer) Name() string { return "gemini" }

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (g *GeminiRecognizer) Recognize(ctx context.Context, audio []byte, format domain.AudioFormat, language string) ([]domain.TranscriptSegment, error) {
	prompt := transcribePrompt
	if language != "" {
		prompt += "\n言語: " + language
	}

	payload := geminiRequest{Contents: []geminiContent{{Parts: []geminiPart{
		{Text: prompt},
		{InlineData: &geminiInlineData{
			MimeType: format.MimeType(),
			Data:     base64.StdEncoding.EncodeToString(audio),
		}},
	}}}}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal gemini request: %w", err)
	}

	// The key travels as a header so it never shows up in a *url.Error.
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini api status %d: %s", resp.StatusCode, respBody)
	}

	var out geminiResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("decode gemini response: %w", err)
	}
	if len(out.Candidates) == 0 {
		return nil, nil
	}
	var segments []domain.TranscriptSegment
	for _, p := range out.Candidates[0].Content.Parts {
		if p.Text != "" {
			segments = append(segments, domain.TranscriptSegment{Text: p.Text})
		}
	}
	return segments, nil
}
