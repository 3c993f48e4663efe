package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/crashlink/companion-server/internal/errors"
	"github.com/crashlink/companion-server/internal/model"
	"github.com/crashlink/companion-server/internal/repository"
	"github.com/crashlink/companion-server/internal/util"
)

const (
	defaultPastedLimit = 50
	maxPastedLimit     = 100
	unknownOwnerDevice = "Unknown"
)

type PastedCode struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	UsedAt      time.Time `json:"usedAt"`
	OwnerDevice string    `json:"ownerDevice"`
}

type PastedCodes struct {
	Count int          `json:"count"`
	Codes []PastedCode `json:"codes"`
}

type CodeUser struct {
	ID     string    `json:"id"`
	Device string    `json:"device"`
	UsedAt time.Time `json:"usedAt"`
}

type CodeUsers struct {
	Code  string     `json:"code"`
	Count int        `json:"count"`
	Users []CodeUser `json:"users"`
}

// UsageEntry is one ledger row as shown to the code owner.
type UsageEntry struct {
	ID       string    `json:"id"`
	UserID   string    `json:"userId"`
	Device   string    `json:"device"`
	DeviceID *string   `json:"deviceId"`
	UsedAt   time.Time `json:"usedAt"`
}

type UsageHistory struct {
	Code       string       `json:"code"`
	UsageCount int          `json:"usageCount"`
	Usage      []UsageEntry `json:"usage"`
}

// UsageService keeps the ledger of who redeemed which code.
type UsageService struct {
	codeRepo  repository.PairingCodeRepository
	usageRepo repository.UsageRepository
}

func NewUsageService(codeRepo repository.PairingCodeRepository, usageRepo repository.UsageRepository) *UsageService {
	return &UsageService{
		codeRepo:  codeRepo,
		usageRepo: usageRepo,
	}
}

// TrackUsage records that userID used the code. Repeated calls for the same
// code and user refresh one row. The bool reports whether a row was created.
func (s *UsageService) TrackUsage(ctx context.Context, rawCode, userID string, deviceID *string) (bool, error) {
	if userID == "" {
		return false, apperrors.MissingRequired("userId")
	}

	pc, err := s.findCode(ctx, rawCode)
	if err != nil {
		return false, err
	}

	usage, created, err := s.usageRepo.Upsert(ctx, model.TrackUsageParams{
		PairingCodeID: pc.ID,
		Code:          pc.Code,
		UserID:        userID,
		DeviceID:      deviceID,
		CodeOwnerID:   pc.UserID,
	})
	if err != nil {
		if errors.Is(err, repository.ErrMissingReference) {
			return false, apperrors.NotFound("User")
		}
		return false, apperrors.Database(err)
	}

	log.Info().
		Str("code", util.MaskCode(pc.Code)).
		Str("userId", userID).
		Str("usageId", usage.ID).
		Bool("created", created).
		Msg("code usage tracked")

	return created, nil
}

func (s *UsageService) ListPasted(ctx context.Context, userID string, limit int) (*PastedCodes, error) {
	if userID == "" {
		return nil, apperrors.MissingRequired("userId")
	}
	if limit <= 0 {
		limit = defaultPastedLimit
	}
	if limit > maxPastedLimit {
		limit = maxPastedLimit
	}

	rows, err := s.usageRepo.FindPastedByUserID(ctx, userID, limit)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	codes := make([]PastedCode, 0, len(rows))
	for _, row := range rows {
		owner := unknownOwnerDevice
		if row.OwnerDevice != nil {
			owner = *row.OwnerDevice
		}
		codes = append(codes, PastedCode{
			ID:          row.ID,
			Code:        row.Code,
			UsedAt:      row.UsedAt,
			OwnerDevice: owner,
		})
	}

	return &PastedCodes{Count: len(codes), Codes: codes}, nil
}

// ListUsedBy lists every redeemer of a stored code. Anyone who knows the code
// may call it.
func (s *UsageService) ListUsedBy(ctx context.Context, rawCode string) (*CodeUsers, error) {
	pc, err := s.findCode(ctx, rawCode)
	if err != nil {
		return nil, err
	}

	redeemers, err := s.usageRepo.FindRedeemersByCodeID(ctx, pc.ID)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	users := make([]CodeUser, 0, len(redeemers))
	for _, r := range redeemers {
		users = append(users, CodeUser{
			ID:     r.UserID,
			Device: deviceLabel(r.DeviceName),
			UsedAt: r.UsedAt,
		})
	}

	return &CodeUsers{Code: pc.Code, Count: len(users), Users: users}, nil
}

// ListUsageHistory is ListUsedBy restricted to the code owner, with usage
// ids and device ids included.
func (s *UsageService) ListUsageHistory(ctx context.Context, rawCode, requesterID string) (*UsageHistory, error) {
	if requesterID == "" {
		return nil, apperrors.MissingRequired("userId")
	}

	pc, err := s.findOwnedCode(ctx, rawCode, requesterID)
	if err != nil {
		return nil, err
	}

	redeemers, err := s.usageRepo.FindRedeemersByCodeID(ctx, pc.ID)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	entries := make([]UsageEntry, 0, len(redeemers))
	for _, r := range redeemers {
		entries = append(entries, UsageEntry{
			ID:       r.UsageID,
			UserID:   r.UserID,
			Device:   deviceLabel(r.DeviceName),
			DeviceID: r.DeviceID,
			UsedAt:   r.UsedAt,
		})
	}

	return &UsageHistory{Code: pc.Code, UsageCount: len(entries), Usage: entries}, nil
}

// RemoveUsageEntry deletes a ledger row of an owned code. A usage id that
// belongs to another code is left alone and the call still succeeds.
func (s *UsageService) RemoveUsageEntry(ctx context.Context, rawCode, usageID, requesterID string) error {
	if requesterID == "" {
		return apperrors.MissingRequired("userId")
	}
	if usageID == "" {
		return apperrors.MissingRequired("usageId")
	}

	pc, err := s.findOwnedCode(ctx, rawCode, requesterID)
	if err != nil {
		return err
	}

	removed, err := s.usageRepo.DeleteForCode(ctx, usageID, pc.ID)
	if err != nil {
		return apperrors.Database(err)
	}

	log.Info().
		Str("code", util.MaskCode(pc.Code)).
		Str("usageId", usageID).
		Int64("removed", removed).
		Msg("usage entry removed")
	return nil
}

func (s *UsageService) findCode(ctx context.Context, rawCode string) (*model.PairingCode, error) {
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
	return pc, nil
}

// findOwnedCode compares requesterID with the owner id as given; there is no
// session to verify it against.
func (s *UsageService) findOwnedCode(ctx context.Context, rawCode, requesterID string) (*model.PairingCode, error) {
	pc, err := s.findCode(ctx, rawCode)
	if err != nil {
		return nil, err
	}
	if pc.UserID != requesterID {
		return nil, apperrors.Forbidden("Only the code owner can access its usage history")
	}
	return pc, nil
}

func deviceLabel(name *string) string {
	if name == nil || *name == "" {
		return unknownOwnerDevice
	}
	return *name
}
