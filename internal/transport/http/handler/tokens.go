package handler

import (
	"net/http"

	"github.com/callog-relay/internal/application/rtctoken"
)

// TokenHandler issues real-time channel credentials.
type TokenHandler struct {
	svc rtctoken.Service
}

func NewTokenHandler(svc rtctoken.Service) *TokenHandler { return &TokenHandler{svc: svc} }

func (h *TokenHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req rtctoken.IssueRequest
	if err := decodeBody(r, &req); err != nil {
		httpError(w, r, err)
		return
	}
	cred, err := h.svc.Issue(r.Context(), req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, cred)
}
