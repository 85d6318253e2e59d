package handler

import (
	"context"
	"net/http"

	"github.com/callog-relay/internal/application/dispatch"
	"github.com/callog-relay/internal/domain"
	"github.com/go-chi/chi/v5"
)

// NotificationReader loads one stored call notification.
type NotificationReader interface {
	Get(ctx context.Context, notificationID string) (*domain.CallNotification, error)
}

// NotificationHandler handles call notification endpoints.
type NotificationHandler struct {
	svc     dispatch.Service
	records NotificationReader
}

func NewNotificationHandler(svc dispatch.Service, records NotificationReader) *NotificationHandler {
	return &NotificationHandler{svc: svc, records: records}
}

func (h *NotificationHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	var req dispatch.DispatchRequest
	if err := decodeBody(r, &req); err != nil {
		httpError(w, r, err)
		return
	}
	res, err := h.svc.Dispatch(r.Context(), req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, res)
}

// Get returns the current state of a dispatch record so clients can poll it.
func (h *NotificationHandler) Get(w http.ResponseWriter, r *http.Request) {
	n, err := h.records.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, n)
}
