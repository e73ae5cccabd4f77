package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillstream/lms_backend/apperr"
)

func TestValidatePassword(t *testing.T) {
	valid := []string{
		"Abc@1234",
		"Str0ng!Password",
		"aB1!" + strings.Repeat("x", 46), // exactly 50
	}
	for _, pw := range valid {
		assert.NoError(t, ValidatePassword(pw), "password %q", pw)
	}

	invalid := []struct {
		name string
		pw   string
	}{
		{"too short", "Ab@1234"},
		{"too long", "aB1!" + strings.Repeat("x", 47)},
		{"no uppercase", "abc@1234"},
		{"no lowercase", "ABC@1234"},
		{"no digit", "Abcd@efgh"},
		{"no symbol", "Abcd1234"},
		{"disallowed symbol", "Abc_1234"},
		{"space", "Abc@ 1234"},
		{"non-ascii", "Abc@1234é"},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.pw)
			require.Error(t, err)
			assert.Equal(t, apperr.KindWeakPassword, apperr.KindOf(err))
		})
	}
}

func TestSanitizeEmail(t *testing.T) {
	got, err := SanitizeEmail("  Asha.K@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "asha.k@example.com", got)

	for _, bad := range []string{"", "plainaddress", "a b@example.com", "no@tld"} {
		_, err := SanitizeEmail(bad)
		require.Error(t, err, "email %q", bad)
		assert.Equal(t, apperr.KindInvalidEmail, apperr.KindOf(err))
	}
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "Asha", SanitizeInput("  Asha  "))
	assert.Equal(t, "&lt;b&gt;Asha&lt;/b&gt;", SanitizeInput("<b>Asha</b>"))
	assert.Equal(t, "AshaK", SanitizeInput("Asha\x00\x1fK"))
}
