// Package codes generates and normalizes guest-facing redeem codes.
// Codes are short uppercase tokens a guest reads off their phone at the
// counter, so the alphabet drops lookalike characters (0/O, 1/I/L).
package codes

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// alphabet intentionally omits 0, O, 1, I and L.
const alphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// Length is the number of characters in a generated redeem code.
const Length = 6

// Generate returns a new random redeem code. Uniqueness within a venue's
// active-code namespace is the caller's responsibility (the store checks
// for collisions against non-expired codes and retries).
func Generate() (string, error) {
	buf := make([]byte, Length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(buf), nil
}

// Normalize maps operator or guest input to canonical code form:
// trimmed, uppercased, separators removed. Lookalike characters are not
// substituted; they never appear in generated codes and a mismatch
// should surface as one.
func Normalize(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "-", "")
	return s
}

// WellFormed reports whether s could have been produced by Generate.
// The redeem handler rejects malformed input before touching the store.
func WellFormed(s string) bool {
	if len(s) != Length {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !strings.ContainsRune(alphabet, rune(s[i])) {
			return false
		}
	}
	return true
}
