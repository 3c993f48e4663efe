package util

import (
	"github.com/google/uuid"
)

// IsValidUUID accepts only the canonical hyphenated form that Postgres returns.
func IsValidUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// MaskCode keeps the first two characters of a pairing code for logs.
func MaskCode(code string) string {
	if len(code) <= 2 {
		return "******"
	}
	return code[:2] + "****"
}
