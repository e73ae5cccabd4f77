// utils/valid.go
package utils

import (
	"html"
	"regexp"
	"strings"
	"unicode"

	"github.com/skillstream/lms_backend/apperr"
)

const (
	passwordMinLen  = 8
	passwordMaxLen  = 50
	passwordSymbols = "!@#$%^&*"
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidatePassword enforces the password policy: 8-50 characters drawn from
// letters, digits and the fixed symbol set, with at least one lowercase
// letter, one uppercase letter, one digit and one symbol.
func ValidatePassword(password string) error {
	if len(password) < passwordMinLen || len(password) > passwordMaxLen {
		return apperr.New(apperr.KindWeakPassword,
			"Password must be 8-50 characters long")
	}

	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case strings.ContainsRune(passwordSymbols, r):
			hasSymbol = true
		default:
			return apperr.Newf(apperr.KindWeakPassword,
				"Password may only contain letters, numbers and %s", passwordSymbols)
		}
	}

	if !hasLower || !hasUpper || !hasDigit || !hasSymbol {
		return apperr.New(apperr.KindWeakPassword,
			"Password must include at least one uppercase letter, lowercase letter, number, and special character")
	}

	return nil
}

// SanitizeEmail trims, lowercases and validates an email address.
func SanitizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailRegex.MatchString(email) {
		return "", apperr.New(apperr.KindInvalidEmail,
			"Please provide a valid email address or leave it empty")
	}
	return email, nil
}

// SanitizeInput strips leading/trailing space, control characters and HTML
// from free-text user input.
func SanitizeInput(input string) string {
	input = strings.TrimSpace(input)
	input = html.EscapeString(input)
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, input)
}
