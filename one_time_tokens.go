package accounts

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"
)

// ResetTokenTTL is how long a password-reset token stays redeemable.
const ResetTokenTTL = 10 * time.Minute

const resetTokenLength = 16

const resetTokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewConfirmationToken mints an email-confirmation token: 5 random bytes,
// hex encoded, uppercased. Short enough to retype from a plain-text email.
func NewConfirmationToken() (string, error) {
	buf := make([]byte, 5)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(buf)), nil
}

// NewResetToken mints a password-reset token from the alphanumeric
// alphabet. Rejection sampling keeps the character distribution uniform.
func NewResetToken() (string, error) {
	out := make([]byte, 0, resetTokenLength)
	buf := make([]byte, resetTokenLength*2)

	for len(out) < resetTokenLength {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			// 248 is the largest multiple of 62 below 256
			if b >= 248 {
				continue
			}
			out = append(out, resetTokenAlphabet[int(b)%len(resetTokenAlphabet)])
			if len(out) == resetTokenLength {
				break
			}
		}
	}

	return string(out), nil
}
