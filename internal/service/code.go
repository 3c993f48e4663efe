package service

import (
	"math/rand/v2"
	"regexp"
	"strings"
)

const (
	codeAlphabet        = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength          = 6
	maxGenerateAttempts = 5
)

var codePattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)

// generateCode returns a random code. Uniqueness is left to the store.
func generateCode() string {
	b := make([]byte, codeLength)
	for i := range b {
		b[i] = codeAlphabet[rand.IntN(len(codeAlphabet))]
	}
	return string(b)
}

// NormalizeCode trims input, drops the first hyphen and upper-cases the rest,
// so "ab-12cd" and "AB12CD" name the same code.
func NormalizeCode(input string) string {
	return strings.ToUpper(strings.Replace(strings.TrimSpace(input), "-", "", 1))
}

// IsValidCodeFormat reports whether an already normalized code is well formed.
func IsValidCodeFormat(code string) bool {
	return codePattern.MatchString(code)
}
