package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/crashlink/companion-server/internal/model"
)

const defaultDeviceName = "Unknown Device"

type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByDeviceID(ctx context.Context, deviceID string) (*model.User, error)
	Upsert(ctx context.Context, params model.UpsertUserParams) (*model.User, error)
	UpdateDeviceName(ctx context.Context, id, deviceName string) error
	UpdatePushToken(ctx context.Context, id string, pushToken *string) (*model.User, error)
	Delete(ctx context.Context, id string) (int64, error)
}

type userRepo struct {
	db sqlxDB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		SELECT * FROM users WHERE id = $1
	`, id)
	return HandleNotFound(&user, err)
}

func (r *userRepo) FindByDeviceID(ctx context.Context, deviceID string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		SELECT * FROM users WHERE device_id = $1
	`, deviceID)
	return HandleNotFound(&user, err)
}

// Upsert creates the user on first contact from a device and merges
// the non-nil fields on every later contact.
func (r *userRepo) Upsert(ctx context.Context, params model.UpsertUserParams) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		INSERT INTO users (
			device_id, device_name, phone_number,
			emergency_contact_name, emergency_contact_phone, push_token
		)
		VALUES ($1, COALESCE($2, $7), $3, $4, $5, $6)
		ON CONFLICT (device_id) DO UPDATE SET
			device_name = COALESCE($2, users.device_name),
			phone_number = COALESCE($3, users.phone_number),
			emergency_contact_name = COALESCE($4, users.emergency_contact_name),
			emergency_contact_phone = COALESCE($5, users.emergency_contact_phone),
			push_token = COALESCE($6, users.push_token),
			updated_at = NOW()
		RETURNING *
	`, params.DeviceID, params.DeviceName, params.PhoneNumber,
		params.EmergencyContactName, params.EmergencyContactPhone, params.PushToken,
		defaultDeviceName)
	if err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

func (r *userRepo) UpdateDeviceName(ctx context.Context, id, deviceName string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET device_name = $2, updated_at = NOW()
		WHERE id = $1
	`, id, deviceName)
	return err
}

// UpdatePushToken sets or clears (nil) the push token.
func (r *userRepo) UpdatePushToken(ctx context.Context, id string, pushToken *string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		UPDATE users SET push_token = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING *
	`, id, pushToken)
	return HandleNotFound(&user, err)
}

func (r *userRepo) Delete(ctx context.Context, id string) (int64, error) {
	return rowsAffected(r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id))
}
