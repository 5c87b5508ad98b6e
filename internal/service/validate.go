package service

import (
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/iliyamo/learning-platform/internal/repository"
	"github.com/iliyamo/learning-platform/internal/utils"
)

const (
	minPasswordLen = 6
	maxEmailLen    = 255
	minNameLen     = 2
	maxNameLen     = 120
)

// ValidateEmail normalizes email and checks it is a bare address.
func ValidateEmail(email string) (string, error) {
	email = repository.NormalizeEmail(email)
	if email == "" || len(email) > maxEmailLen {
		return "", invalid("email", "invalid")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", invalid("email", "invalid")
	}
	at := strings.LastIndexByte(email, '@')
	if at < 1 || !strings.Contains(email[at+1:], ".") {
		return "", invalid("email", "invalid")
	}
	return email, nil
}

// ValidatePassword enforces the length window bcrypt can handle.
func ValidatePassword(field, pw string) error {
	if utf8.RuneCountInString(pw) < minPasswordLen {
		return invalid(field, "weak_password")
	}
	if len(pw) > utils.MaxPasswordBytes {
		return invalid(field, "too_long")
	}
	return nil
}

// NormalizeName trims the display name, strips markup and control
// characters, and returns nil for an absent name.
func NormalizeName(name *string) (*string, error) {
	if name == nil {
		return nil, nil
	}
	clean := strings.Map(func(r rune) rune {
		if r == '<' || r == '>' || unicode.IsControl(r) {
			return -1
		}
		return r
	}, *name)
	clean = strings.TrimSpace(clean)
	if clean == "" && strings.TrimSpace(*name) == "" {
		return nil, nil
	}
	n := utf8.RuneCountInString(clean)
	if n < minNameLen || n > maxNameLen {
		return nil, invalid("name", "length")
	}
	return &clean, nil
}

// validResetCode accepts 4 to 12 digits.
func validResetCode(code string) bool {
	if len(code) < 4 || len(code) > 12 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
