package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"
)

// ResetCodeTTL is the validity window for a password reset code.
const ResetCodeTTL = 15 * time.Minute

var ErrMalformedResetCode = errors.New("reset code must be exactly 6 digits")

// GenerateResetCode produces a 6-digit decimal reset code.
func GenerateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// ValidateResetCodeFormat checks the code shape before any lookup, so
// malformed input never reaches the store.
func ValidateResetCodeFormat(code string) error {
	if len(code) != 6 {
		return ErrMalformedResetCode
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return ErrMalformedResetCode
		}
	}
	return nil
}
