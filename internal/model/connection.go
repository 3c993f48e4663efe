package model

import "time"

type DeviceConnection struct {
	ID           string    `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"userId"`
	PairedUserID string    `db:"paired_user_id" json:"pairedUserId"`
	PairedAt     time.Time `db:"paired_at" json:"pairedAt"`
}

// Peer is the other side of a device connection, whichever side initiated it.
type Peer struct {
	ID         string    `db:"id" json:"id"`
	DeviceName string    `db:"device_name" json:"deviceName"`
	DeviceID   string    `db:"device_id" json:"deviceId"`
	PushToken  *string   `db:"push_token" json:"-"`
	PairedAt   time.Time `db:"paired_at" json:"pairedAt"`
}
