package booking

import (
	"crypto/rand"
	"errors"
	"fmt"
)

// codePrefix is the fixed two-letter prefix on every booking code.
const codePrefix = "AD"

// codeAlphabet excludes 0, O, 1 and I so codes survive being read aloud.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// codeSuffixLen is the number of random characters after the dash.
const codeSuffixLen = 4

// maxCodeAttempts bounds the regeneration loop on registry collisions.
const maxCodeAttempts = 5

// ErrCodeExhausted is returned when code generation keeps colliding with
// codes already held by the registry.
var ErrCodeExhausted = errors.New("booking: code generation exhausted")

// GenerateCode produces a short speakable booking code, e.g. "AD-7KQX".
// Codes are collision-resistant, not unique; the registry retries on
// collision.
func GenerateCode() (string, error) {
	buf := make([]byte, codeSuffixLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("booking: read random bytes: %w", err)
	}
	suffix := make([]byte, codeSuffixLen)
	for i, b := range buf {
		suffix[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return codePrefix + "-" + string(suffix), nil
}
