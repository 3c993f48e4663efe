package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/crashlink/companion-server/internal/audit"
	apperrors "github.com/crashlink/companion-server/internal/errors"
	"github.com/crashlink/companion-server/internal/model"
	"github.com/crashlink/companion-server/internal/service"
	"github.com/crashlink/companion-server/internal/util"
)

type PairingHandler struct {
	pairingService *service.PairingService
}

func NewPairingHandler(pairingService *service.PairingService) *PairingHandler {
	return &PairingHandler{pairingService: pairingService}
}

type locationFields struct {
	Latitude  *float64 `json:"lat"`
	Longitude *float64 `json:"lon"`
	Accuracy  *float64 `json:"accuracy"`
}

// location returns nil when neither coordinate was sent.
func (f locationFields) location() (*model.Location, error) {
	if f.Latitude == nil && f.Longitude == nil {
		return nil, nil
	}
	if f.Latitude == nil || f.Longitude == nil {
		return nil, apperrors.ValidationError("lat and lon must be provided together")
	}
	return &model.Location{
		Latitude:  *f.Latitude,
		Longitude: *f.Longitude,
		Accuracy:  f.Accuracy,
	}, nil
}

// POST /pairing/generate
func (h *PairingHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OwnerID    string  `json:"ownerId"`
		DeviceName *string `json:"deviceName"`
		locationFields
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := requireUUID("ownerId", req.OwnerID); err != nil {
		writeError(w, r, err)
		return
	}

	loc, err := req.location()
	if err != nil {
		writeError(w, r, err)
		return
	}

	pc, err := h.pairingService.Generate(r.Context(), service.GenerateParams{
		OwnerID:    req.OwnerID,
		Location:   loc,
		DeviceName: req.DeviceName,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventCodeGenerate,
		UserID:  req.OwnerID,
		Details: map[string]interface{}{"code": util.MaskCode(pc.Code)},
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"code":      pc.Code,
		"expiresAt": pc.ExpiresAt.Format(time.RFC3339),
	})
}

// POST /pairing/validate
func (h *PairingHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code            string `json:"code"`
		InitiatorUserID string `json:"initiatorUserId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Code == "" {
		writeError(w, r, apperrors.MissingRequired("code"))
		return
	}
	if err := requireUUID("initiatorUserId", req.InitiatorUserID); err != nil {
		writeError(w, r, err)
		return
	}

	owner, err := h.pairingService.Validate(r.Context(), req.Code, req.InitiatorUserID)
	if err != nil {
		audit.LogFromRequest(r, audit.Event{
			Type:    audit.EventCodeRedeemFailed,
			UserID:  req.InitiatorUserID,
			Details: map[string]interface{}{"reason": string(apperrors.GetCode(err))},
		})
		writeError(w, r, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:     audit.EventCodeRedeem,
		UserID:   req.InitiatorUserID,
		TargetID: owner.ID,
	})

	writeJSON(w, http.StatusOK, owner)
}

// GET /pairing/location/{code}
func (h *PairingHandler) GetLocation(w http.ResponseWriter, r *http.Request) {
	loc, err := h.pairingService.GetLocation(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

// POST /pairing/update-location/{code}
func (h *PairingHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	var req locationFields
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		writeError(w, r, apperrors.ValidationError("lat and lon are required"))
		return
	}

	loc, _ := req.location()
	pc, err := h.pairingService.UpdateLocation(r.Context(), chi.URLParam(r, "code"), *loc)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Location updated", Code: pc.Code})
}

// GET /users/{userId}/pairing-codes
func (h *PairingHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if err := requireUUID("userId", userID); err != nil {
		writeError(w, r, err)
		return
	}

	codes, err := h.pairingService.ListActiveCodes(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count": len(codes),
		"codes": codes,
	})
}
