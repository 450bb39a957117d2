package validation

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	PasswordMinLength = 8
	PasswordMaxLength = 128
	UsernameMaxLength = 20
)

var (
	// emailRegex validates the local@domain.tld shape
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	// uuidRegex validates UUID format
	uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
)

// IsValidEmail checks if the string is a valid email format
func IsValidEmail(email string) bool {
	if len(email) > 254 {
		return false
	}
	return emailRegex.MatchString(email)
}

// IsValidUUID checks if the string is a valid UUID format
func IsValidUUID(id string) bool {
	return uuidRegex.MatchString(id)
}

// ValidatePassword enforces the password policy: 8-128 characters with at
// least one letter and one digit. Symbols are allowed but not required.
func ValidatePassword(password string) (bool, string) {
	if len(password) < PasswordMinLength {
		return false, "Password must be at least 8 characters"
	}
	if len(password) > PasswordMaxLength {
		return false, "Password must be at most 128 characters"
	}

	var hasLetter, hasDigit bool
	for _, char := range password {
		switch {
		case unicode.IsLetter(char):
			hasLetter = true
		case unicode.IsDigit(char):
			hasDigit = true
		}
	}

	if !hasLetter {
		return false, "Password must contain at least one letter"
	}
	if !hasDigit {
		return false, "Password must contain at least one digit"
	}

	return true, ""
}

// ValidateUsername checks the optional profile username
func ValidateUsername(username string) (bool, string) {
	if len([]rune(username)) > UsernameMaxLength {
		return false, "Username must be at most 20 characters"
	}
	return true, ""
}

// SanitizeString removes null bytes and control characters except newlines and tabs
func SanitizeString(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")

	var result strings.Builder
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' || !unicode.IsControl(r) {
			result.WriteRune(r)
		}
	}

	return result.String()
}
