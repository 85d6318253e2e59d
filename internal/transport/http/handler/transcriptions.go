package handler

import (
	"net/http"

	"github.com/callog-relay/internal/application/transcription"
)

// TranscriptionResponse keeps the older "transcription" key next to "text"
// for clients built against the first release.
type TranscriptionResponse struct {
	*transcription.Result
	Transcription string `json:"transcription"`
}

type TranscriptionHandler struct {
	svc transcription.Service
}

func NewTranscriptionHandler(svc transcription.Service) *TranscriptionHandler {
	return &TranscriptionHandler{svc: svc}
}

func (h *TranscriptionHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	var req transcription.TranscribeRequest
	if err := decodeBody(r, &req); err != nil {
		httpError(w, r, err)
		return
	}
	res, err := h.svc.Transcribe(r.Context(), req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, TranscriptionResponse{Result: res, Transcription: res.Text})
}
