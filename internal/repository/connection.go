package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/crashlink/companion-server/internal/model"
)

type ConnectionRepository interface {
	// Create stores the edge userID -> pairedUserID. It reports false without
	// error when the pair already exists in either direction.
	Create(ctx context.Context, userID, pairedUserID string) (bool, error)
	// FindPeers resolves every user on the other end of a connection that
	// involves userID, whichever column userID sits in.
	FindPeers(ctx context.Context, userID string) ([]model.Peer, error)
	Exists(ctx context.Context, userID, peerID string) (bool, error)
	// DeleteBetween removes the pair in both directions.
	DeleteBetween(ctx context.Context, userID, peerID string) (int64, error)
}

type connectionRepo struct {
	db sqlxDB
}

func NewConnectionRepository(db *sqlx.DB) ConnectionRepository {
	return &connectionRepo{db: db}
}

func (r *connectionRepo) Create(ctx context.Context, userID, pairedUserID string) (bool, error) {
	n, err := rowsAffected(r.db.ExecContext(ctx, `
		INSERT INTO device_connections (user_id, paired_user_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, userID, pairedUserID))
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *connectionRepo) FindPeers(ctx context.Context, userID string) ([]model.Peer, error) {
	peers := []model.Peer{}
	err := r.db.SelectContext(ctx, &peers, `
		SELECT u.id, u.device_name, u.device_id, u.push_token, MAX(dc.paired_at) AS paired_at
		FROM device_connections dc
		JOIN users u ON u.id = CASE
			WHEN dc.user_id = $1 THEN dc.paired_user_id
			ELSE dc.user_id
		END
		WHERE dc.user_id = $1 OR dc.paired_user_id = $1
		GROUP BY u.id, u.device_name, u.device_id, u.push_token
		ORDER BY paired_at DESC
	`, userID)
	return peers, err
}

func (r *connectionRepo) Exists(ctx context.Context, userID, peerID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM device_connections
			WHERE (user_id = $1 AND paired_user_id = $2)
			   OR (user_id = $2 AND paired_user_id = $1)
		)
	`, userID, peerID)
	return exists, err
}

func (r *connectionRepo) DeleteBetween(ctx context.Context, userID, peerID string) (int64, error) {
	return rowsAffected(r.db.ExecContext(ctx, `
		DELETE FROM device_connections
		WHERE (user_id = $1 AND paired_user_id = $2)
		   OR (user_id = $2 AND paired_user_id = $1)
	`, userID, peerID))
}
