package model

import "time"

type User struct {
	ID                    string    `db:"id" json:"id"`
	DeviceID              string    `db:"device_id" json:"deviceId"`
	DeviceName            string    `db:"device_name" json:"deviceName"`
	PhoneNumber           *string   `db:"phone_number" json:"phoneNumber,omitempty"`
	EmergencyContactName  *string   `db:"emergency_contact_name" json:"emergencyContactName,omitempty"`
	EmergencyContactPhone *string   `db:"emergency_contact_phone" json:"emergencyContactPhone,omitempty"`
	PushToken             *string   `db:"push_token" json:"-"`
	CreatedAt             time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt             time.Time `db:"updated_at" json:"updatedAt"`
}

func (u *User) HasPushToken() bool {
	return u.PushToken != nil && *u.PushToken != ""
}

// UpsertUserParams carries registration fields. Nil fields leave the stored value untouched.
type UpsertUserParams struct {
	DeviceID              string
	DeviceName            *string
	PhoneNumber           *string
	EmergencyContactName  *string
	EmergencyContactPhone *string
	PushToken             *string
}
