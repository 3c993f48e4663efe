package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/crashlink/companion-server/internal/audit"
	apperrors "github.com/crashlink/companion-server/internal/errors"
	"github.com/crashlink/companion-server/internal/service"
)

type UsageHandler struct {
	usageService *service.UsageService
}

func NewUsageHandler(usageService *service.UsageService) *UsageHandler {
	return &UsageHandler{usageService: usageService}
}

// POST /codes/{code}/track-usage
func (h *UsageHandler) TrackUsage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   string  `json:"userId"`
		DeviceID *string `json:"deviceId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := requireUUID("userId", req.UserID); err != nil {
		writeError(w, r, err)
		return
	}

	created, err := h.usageService.TrackUsage(r.Context(), chi.URLParam(r, "code"), req.UserID, req.DeviceID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	msg := "Usage updated"
	if created {
		msg = "Usage tracked"
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: msg})
}

// GET /users/{userId}/pasted-codes
func (h *UsageHandler) ListPasted(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if err := requireUUID("userId", userID); err != nil {
		writeError(w, r, err)
		return
	}

	codes, err := h.usageService.ListPasted(r.Context(), userID, ParseLimit(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, codes)
}

// GET /codes/{code}/who-used
func (h *UsageHandler) ListUsedBy(w http.ResponseWriter, r *http.Request) {
	users, err := h.usageService.ListUsedBy(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// GET /codes/{code}/usage-history?userId=
func (h *UsageHandler) ListUsageHistory(w http.ResponseWriter, r *http.Request) {
	requesterID := r.URL.Query().Get("userId")
	if err := requireUUID("userId", requesterID); err != nil {
		writeError(w, r, err)
		return
	}

	history, err := h.usageService.ListUsageHistory(r.Context(), chi.URLParam(r, "code"), requesterID)
	if err != nil {
		h.auditDenied(r, requesterID, err)
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

// DELETE /codes/{code}/usage/{usageId}
func (h *UsageHandler) RemoveUsageEntry(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := requireUUID("userId", req.UserID); err != nil {
		writeError(w, r, err)
		return
	}

	usageID := chi.URLParam(r, "usageId")
	if err := requireUUID("usageId", usageID); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.usageService.RemoveUsageEntry(r.Context(), chi.URLParam(r, "code"), usageID, req.UserID); err != nil {
		h.auditDenied(r, req.UserID, err)
		writeError(w, r, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:     audit.EventUsageEntryDelete,
		UserID:   req.UserID,
		TargetID: usageID,
	})

	writeJSON(w, http.StatusOK, messageResponse{Message: "Usage entry removed"})
}

func (h *UsageHandler) auditDenied(r *http.Request, requesterID string, err error) {
	if apperrors.GetCode(err) != apperrors.ErrCodeForbidden {
		return
	}
	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventAccessDenied,
		UserID:  requesterID,
		Details: map[string]interface{}{"path": r.URL.Path},
	})
}
