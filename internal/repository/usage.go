package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/crashlink/companion-server/internal/model"
)

type UsageRepository interface {
	// Upsert inserts a ledger row for (pairing code, user) or refreshes the
	// existing one. The bool reports whether a new row was inserted.
	Upsert(ctx context.Context, params model.TrackUsageParams) (*model.CodeUsage, bool, error)
	FindPastedByUserID(ctx context.Context, userID string, limit int) ([]model.PastedCode, error)
	FindRedeemersByCodeID(ctx context.Context, pairingCodeID string) ([]model.CodeRedeemer, error)
	// DeleteForCode removes usageID only when it belongs to pairingCodeID.
	DeleteForCode(ctx context.Context, usageID, pairingCodeID string) (int64, error)
}

type usageRepo struct {
	db sqlxDB
}

func NewUsageRepository(db *sqlx.DB) UsageRepository {
	return &usageRepo{db: db}
}

func (r *usageRepo) Upsert(ctx context.Context, params model.TrackUsageParams) (*model.CodeUsage, bool, error) {
	var row struct {
		model.CodeUsage
		Inserted bool `db:"inserted"`
	}
	err := r.db.GetContext(ctx, &row, `
		INSERT INTO code_usages (pairing_code_id, code, user_id, device_id, code_owner_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (pairing_code_id, user_id) DO UPDATE SET
			used_at = NOW(),
			device_id = EXCLUDED.device_id
		RETURNING *, (xmax = 0) AS inserted
	`, params.PairingCodeID, params.Code, params.UserID, params.DeviceID, params.CodeOwnerID)
	if err != nil {
		return nil, false, translateError(err)
	}
	return &row.CodeUsage, row.Inserted, nil
}

func (r *usageRepo) FindPastedByUserID(ctx context.Context, userID string, limit int) ([]model.PastedCode, error) {
	codes := []model.PastedCode{}
	err := r.db.SelectContext(ctx, &codes, `
		SELECT cu.id, COALESCE(pc.code, cu.code) AS code, cu.used_at, owner.device_name AS owner_device
		FROM code_usages cu
		LEFT JOIN pairing_codes pc ON pc.id = cu.pairing_code_id
		LEFT JOIN users owner ON owner.id = COALESCE(pc.user_id, cu.code_owner_id)
		WHERE cu.user_id = $1
		ORDER BY cu.used_at DESC
		LIMIT $2
	`, userID, limit)
	return codes, err
}

func (r *usageRepo) FindRedeemersByCodeID(ctx context.Context, pairingCodeID string) ([]model.CodeRedeemer, error) {
	redeemers := []model.CodeRedeemer{}
	err := r.db.SelectContext(ctx, &redeemers, `
		SELECT cu.id AS usage_id, cu.user_id, u.device_name,
			COALESCE(cu.device_id, u.device_id) AS device_id, cu.used_at
		FROM code_usages cu
		LEFT JOIN users u ON u.id = cu.user_id
		WHERE cu.pairing_code_id = $1
		ORDER BY cu.used_at DESC
	`, pairingCodeID)
	return redeemers, err
}

func (r *usageRepo) DeleteForCode(ctx context.Context, usageID, pairingCodeID string) (int64, error) {
	return rowsAffected(r.db.ExecContext(ctx, `
		DELETE FROM code_usages WHERE id = $1 AND pairing_code_id = $2
	`, usageID, pairingCodeID))
}
