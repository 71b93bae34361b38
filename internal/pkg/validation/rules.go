// Package validation holds account field rules that binding tags cannot
// express on their own. Services call these after binding so the same rules
// apply to the CLI and the HTTP API.
package validation

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	PasswordMinLength = 8
	// bcrypt ignores everything past 72 bytes.
	PasswordMaxLength = 72

	NameMinLength  = 2
	NameMaxLength  = 120
	EmailMaxLength = 255
)

var emailPattern = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)

// NormalizeEmail lowercases and trims an address. Emails are stored and
// compared in this form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidEmail(email string) bool {
	e := NormalizeEmail(email)
	return e != "" && len(e) <= EmailMaxLength && emailPattern.MatchString(e)
}

// ValidName counts runes of the trimmed name.
func ValidName(name string) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	return n >= NameMinLength && n <= NameMaxLength
}

// ValidPassword requires the length bounds plus at least one letter and one digit.
func ValidPassword(password string) bool {
	if len(password) < PasswordMinLength || len(password) > PasswordMaxLength {
		return false
	}
	var letter, digit bool
	for _, r := range password {
		letter = letter || unicode.IsLetter(r)
		digit = digit || unicode.IsDigit(r)
	}
	return letter && digit
}
