package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/crashlink/companion-server/internal/errors"
	"github.com/crashlink/companion-server/internal/model"
	"github.com/crashlink/companion-server/internal/repository"
	"github.com/crashlink/companion-server/internal/sse"
	"github.com/crashlink/companion-server/internal/util"
)

const unknownDeviceName = "Unknown Device"

// EventPublisher delivers pairing events to a user's device streams.
type EventPublisher interface {
	Publish(ctx context.Context, userID string, event sse.Event) error
}

type GenerateParams struct {
	OwnerID    string
	Location   *model.Location
	DeviceName *string
}

// CodeLocation is the location snapshot attached to a pairing code.
type CodeLocation struct {
	Code       string     `json:"code"`
	Latitude   float64    `json:"lat"`
	Longitude  float64    `json:"lon"`
	Accuracy   *float64   `json:"accuracy"`
	DeviceName string     `json:"deviceName"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty"`
}

// PeerEvent is the payload of device_paired and device_unpaired events.
type PeerEvent struct {
	PeerID     string `json:"peerId"`
	DeviceName string `json:"deviceName,omitempty"`
}

type PairingService struct {
	codeRepo repository.PairingCodeRepository
	userRepo repository.UserRepository
	connRepo repository.ConnectionRepository
	events   EventPublisher
	codeTTL  time.Duration
	now      func() time.Time
}

func NewPairingService(
	codeRepo repository.PairingCodeRepository,
	userRepo repository.UserRepository,
	connRepo repository.ConnectionRepository,
	events EventPublisher,
	codeTTL time.Duration,
) *PairingService {
	return &PairingService{
		codeRepo: codeRepo,
		userRepo: userRepo,
		connRepo: connRepo,
		events:   events,
		codeTTL:  codeTTL,
		now:      time.Now,
	}
}

// Generate creates a new code owned by params.OwnerID. Earlier live codes of
// the same owner stay valid.
func (s *PairingService) Generate(ctx context.Context, params GenerateParams) (*model.PairingCode, error) {
	if params.OwnerID == "" {
		return nil, apperrors.MissingRequired("ownerId")
	}
	if params.Location != nil {
		if err := ValidateLocation(*params.Location); err != nil {
			return nil, err
		}
	}

	owner, err := s.userRepo.FindByID(ctx, params.OwnerID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if owner == nil {
		return nil, apperrors.NotFound("User")
	}

	if params.DeviceName != nil && *params.DeviceName != "" && *params.DeviceName != owner.DeviceName {
		if err := s.userRepo.UpdateDeviceName(ctx, owner.ID, *params.DeviceName); err != nil {
			log.Warn().Err(err).Str("userId", owner.ID).Msg("failed to update device name")
		}
	}

	expiresAt := s.now().Add(s.codeTTL)
	for attempt := 1; attempt <= maxGenerateAttempts; attempt++ {
		pc, err := s.codeRepo.Create(ctx, model.CreatePairingCodeParams{
			Code:      generateCode(),
			UserID:    owner.ID,
			Location:  params.Location,
			ExpiresAt: expiresAt,
		})
		if err == nil {
			log.Info().
				Str("code", util.MaskCode(pc.Code)).
				Str("userId", owner.ID).
				Time("expiresAt", pc.ExpiresAt).
				Bool("hasLocation", params.Location != nil).
				Msg("pairing code created")
			return pc, nil
		}
		if !errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.Database(err)
		}
		log.Warn().Int("attempt", attempt).Msg("pairing code collision, retrying")
	}

	return nil, apperrors.Conflict("Could not allocate a unique pairing code")
}

// Validate redeems code on behalf of seekerID and returns the code owner.
// The connection is stored before the code is deleted, so a failed insert
// leaves the code redeemable.
func (s *PairingService) Validate(ctx context.Context, rawCode, seekerID string) (*model.User, error) {
	code := NormalizeCode(rawCode)
	if !IsValidCodeFormat(code) {
		return nil, apperrors.InvalidPairingCode()
	}

	pc, err := s.codeRepo.FindByCode(ctx, code)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if pc == nil {
		return nil, apperrors.InvalidPairingCode()
	}
	if pc.IsExpired(s.now()) {
		return nil, apperrors.PairingExpired()
	}
	if pc.UserID == seekerID {
		return nil, apperrors.ValidationError("Cannot pair a device with itself")
	}

	owner, err := s.userRepo.FindByID(ctx, pc.UserID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if owner == nil {
		return nil, apperrors.NotFound("User")
	}

	created, err := s.connRepo.Create(ctx, seekerID, owner.ID)
	if err != nil {
		if errors.Is(err, repository.ErrMissingReference) {
			return nil, apperrors.NotFound("User")
		}
		return nil, apperrors.Database(err)
	}

	if _, err := s.codeRepo.Delete(ctx, pc.ID); err != nil {
		return nil, apperrors.Database(err)
	}

	log.Info().
		Str("code", util.MaskCode(code)).
		Str("ownerId", owner.ID).
		Str("seekerId", seekerID).
		Bool("newConnection", created).
		Msg("pairing successful")

	if created {
		s.publish(ctx, owner.ID, sse.EventDevicePaired, PeerEvent{PeerID: seekerID})
		s.publish(ctx, seekerID, sse.EventDevicePaired, PeerEvent{PeerID: owner.ID, DeviceName: owner.DeviceName})
	}

	return owner, nil
}

// UpdateLocation replaces the location snapshot of a code. Expired codes that
// are still stored can be updated.
func (s *PairingService) UpdateLocation(ctx context.Context, rawCode string, loc model.Location) (*model.PairingCode, error) {
	if err := ValidateLocation(loc); err != nil {
		return nil, err
	}

	code := NormalizeCode(rawCode)
	if !IsValidCodeFormat(code) {
		return nil, apperrors.InvalidPairingCode()
	}

	pc, err := s.codeRepo.UpdateLocation(ctx, code, loc)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if pc == nil {
		return nil, apperrors.InvalidPairingCode()
	}

	log.Debug().Str("code", util.MaskCode(code)).Msg("pairing code location updated")
	return pc, nil
}

func (s *PairingService) GetLocation(ctx context.Context, rawCode string) (*CodeLocation, error) {
	code := NormalizeCode(rawCode)
	if !IsValidCodeFormat(code) {
		return nil, apperrors.InvalidPairingCode()
	}

	pc, err := s.codeRepo.FindByCode(ctx, code)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if pc == nil {
		return nil, apperrors.InvalidPairingCode()
	}

	loc := pc.Location()
	if loc == nil {
		return nil, apperrors.NoLocation()
	}

	deviceName := unknownDeviceName
	owner, err := s.userRepo.FindByID(ctx, pc.UserID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if owner != nil {
		deviceName = owner.DeviceName
	}

	return &CodeLocation{
		Code:       pc.Code,
		Latitude:   loc.Latitude,
		Longitude:  loc.Longitude,
		Accuracy:   loc.Accuracy,
		DeviceName: deviceName,
		CreatedAt:  pc.CreatedAt,
		UpdatedAt:  pc.UpdatedAt,
	}, nil
}

// ListActiveCodes returns the owner's unexpired codes, newest first.
func (s *PairingService) ListActiveCodes(ctx context.Context, ownerID string) ([]model.PairingCode, error) {
	codes, err := s.codeRepo.FindActiveByUserID(ctx, ownerID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return codes, nil
}

// ValidateLocation checks coordinate ranges in decimal degrees.
func ValidateLocation(loc model.Location) error {
	if loc.Latitude < -90 || loc.Latitude > 90 {
		return apperrors.InvalidInput("lat", "must be between -90 and 90")
	}
	if loc.Longitude < -180 || loc.Longitude > 180 {
		return apperrors.InvalidInput("lon", "must be between -180 and 180")
	}
	if loc.Accuracy != nil && *loc.Accuracy < 0 {
		return apperrors.InvalidInput("accuracy", "must not be negative")
	}
	return nil
}

// publish is best effort; a missed event never fails the request.
func (s *PairingService) publish(ctx context.Context, userID, eventType string, data any) {
	publishEvent(ctx, s.events, userID, eventType, data)
}

func publishEvent(ctx context.Context, events EventPublisher, userID, eventType string, data any) {
	if events == nil {
		return
	}
	event, err := sse.NewEvent(eventType, data)
	if err != nil {
		log.Error().Err(err).Str("eventType", eventType).Msg("failed to encode event")
		return
	}
	if err := events.Publish(ctx, userID, event); err != nil {
		log.Warn().Err(err).Str("userId", userID).Str("eventType", eventType).Msg("failed to publish event")
	}
}
