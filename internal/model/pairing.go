package model

import "time"

type PairingCode struct {
	ID        string     `db:"id" json:"id"`
	UserID    string     `db:"user_id" json:"userId"`
	Code      string     `db:"code" json:"code"`
	Latitude  *float64   `db:"latitude" json:"latitude,omitempty"`
	Longitude *float64   `db:"longitude" json:"longitude,omitempty"`
	Accuracy  *float64   `db:"accuracy" json:"accuracy,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	ExpiresAt time.Time  `db:"expires_at" json:"expiresAt"`
	UpdatedAt *time.Time `db:"updated_at" json:"updatedAt,omitempty"`
}

// IsExpired reports whether now is strictly past the code's expiry.
func (pc *PairingCode) IsExpired(now time.Time) bool {
	return now.After(pc.ExpiresAt)
}

// Location returns the attached snapshot, or nil when no coordinates were ever stored.
func (pc *PairingCode) Location() *Location {
	if pc.Latitude == nil || pc.Longitude == nil {
		return nil
	}
	return &Location{
		Latitude:  *pc.Latitude,
		Longitude: *pc.Longitude,
		Accuracy:  pc.Accuracy,
	}
}

type Location struct {
	Latitude  float64  `json:"lat"`
	Longitude float64  `json:"lon"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
}

type CreatePairingCodeParams struct {
	Code      string
	UserID    string
	Location  *Location
	ExpiresAt time.Time
}
