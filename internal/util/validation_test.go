package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidUUID(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"3f2c4b1e-8a9d-4c3b-9e2f-1a2b3c4d5e6f", true},
		{"3F2C4B1E-8A9D-4C3B-9E2F-1A2B3C4D5E6F", true},
		{"", false},
		{"not-a-uuid", false},
		{"3f2c4b1e8a9d4c3b9e2f1a2b3c4d5e6f", false},
		{"{3f2c4b1e-8a9d-4c3b-9e2f-1a2b3c4d5e6f}", false},
		{"urn:uuid:3f2c4b1e-8a9d-4c3b-9e2f-1a2b3c4d5e6f", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidUUID(tt.input))
		})
	}
}

func TestMaskCode(t *testing.T) {
	assert.Equal(t, "AB****", MaskCode("AB12CD"))
	assert.Equal(t, "******", MaskCode("AB"))
	assert.Equal(t, "******", MaskCode(""))
}
