package tlproxy

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashText computes the SHA-256 hash of the trimmed text.
func HashText(text string) string {
	trimmed := strings.TrimSpace(text)
	hash := sha256.Sum256([]byte(trimmed))
	return hex.EncodeToString(hash[:])
}

// FragmentID returns a short, stable identifier for a text fragment. Logs
// carry it instead of page content.
func FragmentID(text string) string {
	return HashText(text)[:12]
}
