package model

import "time"

// CodeUsage is a ledger row. PairingCodeID becomes nil once the code is deleted;
// Code and CodeOwnerID keep the history readable after that.
type CodeUsage struct {
	ID            string    `db:"id" json:"id"`
	PairingCodeID *string   `db:"pairing_code_id" json:"pairingCodeId,omitempty"`
	Code          string    `db:"code" json:"code"`
	UserID        string    `db:"user_id" json:"userId"`
	DeviceID      *string   `db:"device_id" json:"deviceId,omitempty"`
	CodeOwnerID   *string   `db:"code_owner_id" json:"codeOwnerId,omitempty"`
	UsedAt        time.Time `db:"used_at" json:"usedAt"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}

type TrackUsageParams struct {
	PairingCodeID string
	Code          string
	UserID        string
	DeviceID      *string
	CodeOwnerID   string
}

// PastedCode is a ledger row seen from the redeemer's side.
type PastedCode struct {
	ID          string    `db:"id"`
	Code        string    `db:"code"`
	UsedAt      time.Time `db:"used_at"`
	OwnerDevice *string   `db:"owner_device"`
}

// CodeRedeemer is a ledger row seen from the code owner's side.
type CodeRedeemer struct {
	UsageID    string    `db:"usage_id"`
	UserID     string    `db:"user_id"`
	DeviceName *string   `db:"device_name"`
	DeviceID   *string   `db:"device_id"`
	UsedAt     time.Time `db:"used_at"`
}
