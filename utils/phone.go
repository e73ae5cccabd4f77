// utils/phone.go
package utils

import (
	"regexp"
	"strings"

	"github.com/skillstream/lms_backend/apperr"
)

const phoneCountryCode = "91"

var nonDigitRegex = regexp.MustCompile(`\D`)

// NormalizePhone canonicalizes a raw Indian phone number into +91XXXXXXXXXX
// form. Accepted shapes: a bare 10-digit number starting with 6-9, a 12-digit
// number carrying the 91 prefix, or an already-canonical +91 number. The
// result is deterministic and idempotent, which the uniqueness lookups depend
// on. Everything else is rejected.
func NormalizePhone(raw string) (string, error) {
	digits := nonDigitRegex.ReplaceAllString(raw, "")

	switch {
	case len(digits) == 10 && digits[0] >= '6' && digits[0] <= '9':
		return "+" + phoneCountryCode + digits, nil
	case len(digits) == 12 && strings.HasPrefix(digits, phoneCountryCode) &&
		digits[2] >= '6' && digits[2] <= '9':
		return "+" + digits, nil
	}

	return "", apperr.New(apperr.KindInvalidPhoneFormat,
		"Please provide a valid Indian phone number (10 digits starting with 6-9)")
}
