package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/crashlink/companion-server/internal/audit"
	"github.com/crashlink/companion-server/internal/model"
	"github.com/crashlink/companion-server/internal/service"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// POST /users/register
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DeviceID              string  `json:"deviceId"`
		DeviceName            *string `json:"deviceName"`
		PhoneNumber           *string `json:"phoneNumber"`
		EmergencyContactName  *string `json:"emergencyContactName"`
		EmergencyContactPhone *string `json:"emergencyContactPhone"`
		PushToken             *string `json:"pushToken"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.userService.Register(r.Context(), model.UpsertUserParams{
		DeviceID:              req.DeviceID,
		DeviceName:            req.DeviceName,
		PhoneNumber:           req.PhoneNumber,
		EmergencyContactName:  req.EmergencyContactName,
		EmergencyContactPhone: req.EmergencyContactPhone,
		PushToken:             req.PushToken,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// GET /users/{userId}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if err := requireUUID("userId", userID); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.userService.Get(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// PUT /users/{userId}/push-token
func (h *UserHandler) UpdatePushToken(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if err := requireUUID("userId", userID); err != nil {
		writeError(w, r, err)
		return
	}

	var req struct {
		PushToken string `json:"pushToken"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.userService.UpdatePushToken(r.Context(), userID, req.PushToken)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":      "Push token updated",
		"hasPushToken": user.HasPushToken(),
	})
}

// DELETE /users/{userId}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if err := requireUUID("userId", userID); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.userService.Delete(r.Context(), userID); err != nil {
		writeError(w, r, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{Type: audit.EventUserDelete, UserID: userID})
	writeJSON(w, http.StatusOK, messageResponse{Message: "User deleted"})
}
