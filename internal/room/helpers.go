package room

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

var roomInvalidChars = regexp.MustCompile(`[^a-z0-9-]`)

// SanitizeRoom lowercases a room name and drops everything outside
// [a-z0-9-]. The result may be empty.
func SanitizeRoom(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return roomInvalidChars.ReplaceAllString(name, "")
}

// NewRoomID returns a random 10-character hex room name.
func NewRoomID() string {
	entropy := make([]byte, 10)
	_, _ = rand.Read(entropy)
	sum := sha256.Sum256(entropy)
	return hex.EncodeToString(sum[:])[:10]
}

// ParseWatched interprets a loosely-typed watched flag as decoded from JSON
// or a query string. Booleans and numbers use their truth value; strings
// are true for "1", "true", "yes" and "watched".
func ParseWatched(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case float64:
		return val != 0
	case int:
		return val != 0
	case int64:
		return val != 0
	case string:
		switch strings.ToLower(val) {
		case "1", "true", "yes", "watched":
			return true
		}
	}
	return false
}
