package auth

import (
	"errors"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrPasswordNoUpper    = errors.New("password must contain an uppercase letter")
	ErrPasswordNoDigit    = errors.New("password must contain a digit")
	ErrPasswordNoSymbol   = errors.New("password must contain a symbol")
)

const (
	bcryptCost        = 12
	minPasswordLength = 8
)

// ValidatePassword enforces the portal password policy, shared by the
// registration and reset flows.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return ErrPasswordTooShort
	}

	var hasUpper, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			hasSymbol = true
		}
	}

	switch {
	case !hasUpper:
		return ErrPasswordNoUpper
	case !hasDigit:
		return ErrPasswordNoDigit
	case !hasSymbol:
		return ErrPasswordNoSymbol
	}
	return nil
}

// HashPassword validates and hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	if err := ValidatePassword(password); err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// CheckPassword compares a password with its hash
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// IsPolicyViolation reports whether err is one of the password policy errors.
func IsPolicyViolation(err error) bool {
	return errors.Is(err, ErrPasswordTooShort) ||
		errors.Is(err, ErrPasswordNoUpper) ||
		errors.Is(err, ErrPasswordNoDigit) ||
		errors.Is(err, ErrPasswordNoSymbol)
}
