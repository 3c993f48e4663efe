package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/crashlink/companion-server/internal/model"
)

type PairingCodeRepository interface {
	// FindByCode matches the normalized code regardless of expiry.
	FindByCode(ctx context.Context, code string) (*model.PairingCode, error)
	FindActiveByUserID(ctx context.Context, userID string) ([]model.PairingCode, error)
	// Create returns ErrConflict when the code string is already taken.
	Create(ctx context.Context, params model.CreatePairingCodeParams) (*model.PairingCode, error)
	UpdateLocation(ctx context.Context, code string, loc model.Location) (*model.PairingCode, error)
	Delete(ctx context.Context, id string) (int64, error)
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type pairingCodeRepo struct {
	db sqlxDB
}

func NewPairingCodeRepository(db *sqlx.DB) PairingCodeRepository {
	return &pairingCodeRepo{db: db}
}

func (r *pairingCodeRepo) FindByCode(ctx context.Context, code string) (*model.PairingCode, error) {
	var pc model.PairingCode
	err := r.db.GetContext(ctx, &pc, `
		SELECT * FROM pairing_codes WHERE UPPER(code) = UPPER($1)
	`, code)
	return HandleNotFound(&pc, err)
}

func (r *pairingCodeRepo) FindActiveByUserID(ctx context.Context, userID string) ([]model.PairingCode, error) {
	codes := []model.PairingCode{}
	err := r.db.SelectContext(ctx, &codes, `
		SELECT * FROM pairing_codes
		WHERE user_id = $1 AND expires_at > NOW()
		ORDER BY created_at DESC
	`, userID)
	return codes, err
}

func (r *pairingCodeRepo) Create(ctx context.Context, params model.CreatePairingCodeParams) (*model.PairingCode, error) {
	var lat, lon, acc *float64
	if params.Location != nil {
		lat, lon, acc = &params.Location.Latitude, &params.Location.Longitude, params.Location.Accuracy
	}

	var pc model.PairingCode
	err := r.db.GetContext(ctx, &pc, `
		INSERT INTO pairing_codes (user_id, code, latitude, longitude, accuracy, expires_at)
		VALUES ($1, UPPER($2), $3, $4, $5, $6)
		RETURNING *
	`, params.UserID, params.Code, lat, lon, acc, params.ExpiresAt)
	if err != nil {
		return nil, translateError(err)
	}
	return &pc, nil
}

func (r *pairingCodeRepo) UpdateLocation(ctx context.Context, code string, loc model.Location) (*model.PairingCode, error) {
	var pc model.PairingCode
	err := r.db.GetContext(ctx, &pc, `
		UPDATE pairing_codes SET
			latitude = $2,
			longitude = $3,
			accuracy = $4,
			updated_at = NOW()
		WHERE UPPER(code) = UPPER($1)
		RETURNING *
	`, code, loc.Latitude, loc.Longitude, loc.Accuracy)
	return HandleNotFound(&pc, err)
}

func (r *pairingCodeRepo) Delete(ctx context.Context, id string) (int64, error) {
	return rowsAffected(r.db.ExecContext(ctx, `DELETE FROM pairing_codes WHERE id = $1`, id))
}

func (r *pairingCodeRepo) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return rowsAffected(r.db.ExecContext(ctx, `
		DELETE FROM pairing_codes WHERE expires_at < $1
	`, cutoff))
}
