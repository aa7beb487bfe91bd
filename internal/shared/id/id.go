// Package id generates identifiers: opaque connection IDs and human-facing
// room codes.
package id

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

const (
	// Base62 alphabet: 0-9, A-Z, a-z
	alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// roomCodeAlphabet excludes glyphs that read ambiguously when shared
	// verbally or handwritten: 0, O, I, L, 1.
	roomCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

	// DefaultLength is the default length for generated short IDs
	DefaultLength = 12

	// RoomCodeLength is the fixed length of a room code.
	RoomCodeLength = 6
)

var roomCodePattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)

// Generate creates a random short ID with the specified length using Base62 encoding.
// The generated ID is cryptographically random and URL-safe.
func Generate(length int) (string, error) {
	return randomFrom(alphabet, length, DefaultLength)
}

// MustGenerate creates a random short ID and panics on error.
func MustGenerate(length int) string {
	id, err := Generate(length)
	if err != nil {
		panic(err)
	}
	return id
}

// GenerateWithPrefix creates a prefixed ID in the format "prefix_randomstring".
func GenerateWithPrefix(prefix string, length int) (string, error) {
	id, err := Generate(length)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s_%s", prefix, id), nil
}

// GenerateRoomCode creates a random 6-character room code from the
// restricted alphabet.
func GenerateRoomCode() (string, error) {
	return randomFrom(roomCodeAlphabet, RoomCodeLength, RoomCodeLength)
}

// NormalizeRoomCode uppercases and trims a room code. Room scoping compares
// codes exactly, so every code must pass through here before storage or
// broadcast.
func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsValidRoomCode reports whether code has the 6-character alphanumeric shape.
// Validation is case-insensitive; normalization happens separately.
func IsValidRoomCode(code string) bool {
	return roomCodePattern.MatchString(strings.ToUpper(strings.TrimSpace(code)))
}

func randomFrom(chars string, length, fallback int) (string, error) {
	if length <= 0 {
		length = fallback
	}

	result := make([]byte, length)
	max := big.NewInt(int64(len(chars)))

	for i := 0; i < length; i++ {
		num, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		result[i] = chars[num.Int64()]
	}

	return string(result), nil
}
