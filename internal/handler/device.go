package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/crashlink/companion-server/internal/audit"
	"github.com/crashlink/companion-server/internal/service"
)

type DeviceHandler struct {
	deviceService *service.DeviceService
}

func NewDeviceHandler(deviceService *service.DeviceService) *DeviceHandler {
	return &DeviceHandler{deviceService: deviceService}
}

// GET /devices/paired/{userId}
func (h *DeviceHandler) ListPaired(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if err := requireUUID("userId", userID); err != nil {
		writeError(w, r, err)
		return
	}

	peers, err := h.deviceService.ListPaired(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, peers)
}

// DELETE /devices/disconnect
func (h *DeviceHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID       string `json:"userId"`
		PairedUserID string `json:"pairedUserId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := requireUUID("userId", req.UserID); err != nil {
		writeError(w, r, err)
		return
	}
	if err := requireUUID("pairedUserId", req.PairedUserID); err != nil {
		writeError(w, r, err)
		return
	}

	removed, err := h.deviceService.Disconnect(r.Context(), req.UserID, req.PairedUserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:     audit.EventDeviceDisconnect,
		UserID:   req.UserID,
		TargetID: req.PairedUserID,
		Details:  map[string]interface{}{"removed": removed},
	})

	writeJSON(w, http.StatusOK, messageResponse{Message: "Devices disconnected"})
}
