package core

import (
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Invitation codes are 8 characters from an uppercase alphanumeric
// alphabet: hard enough to guess (36^8 within one survey), easy to read
// aloud or type from a printed letter. They are credentials for one survey,
// not cryptographic secrets.
const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 8
)

// NewInvitationCode returns a fresh random code. Uniqueness within a survey
// is enforced by the store; callers regenerate on collision.
func NewInvitationCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	var sb strings.Builder
	for _, b := range buf {
		sb.WriteByte(codeAlphabet[int(b)%len(codeAlphabet)])
	}
	return sb.String(), nil
}

// NewPublicID mints the stable external identifier of a survey. It is
// assigned once at creation and never reassigned, independent of the
// storage key.
func NewPublicID() string {
	return "srv_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// NormalizeCode uppercases a code before any comparison or storage.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NormalizeEmail lowercases an address before any comparison or storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
