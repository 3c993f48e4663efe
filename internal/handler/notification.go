package handler

import (
	"net/http"

	"github.com/crashlink/companion-server/internal/service"
)

type NotificationHandler struct {
	notificationService *service.NotificationService
}

func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// POST /notifications/alert
// Responds once recipients are resolved; delivery continues in the background.
func (h *NotificationHandler) Alert(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string            `json:"userId"`
		Title  string            `json:"title"`
		Body   string            `json:"body"`
		Data   map[string]string `json:"data"`
		locationFields
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := requireUUID("userId", req.UserID); err != nil {
		writeError(w, r, err)
		return
	}

	loc, err := req.location()
	if err != nil {
		writeError(w, r, err)
		return
	}

	recipients, err := h.notificationService.Alert(r.Context(), req.UserID, service.AlertParams{
		Title:    req.Title,
		Body:     req.Body,
		Location: loc,
		Data:     req.Data,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"message":    "Alert dispatched",
		"recipients": recipients,
	})
}
