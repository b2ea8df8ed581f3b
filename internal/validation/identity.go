// Package validation checks user-supplied identity fields.
package validation

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MaxUsernameLen    = 64
	MaxPasswordLen    = 72 // bcrypt ignores bytes past 72
	MaxDisplayNameLen = 100
	MaxBioLen         = 500
)

// ValidateUsername requires 1-64 characters with no whitespace or control characters.
func ValidateUsername(username string) error {
	if strings.TrimSpace(username) == "" {
		return fmt.Errorf("username is required")
	}
	if utf8.RuneCountInString(username) > MaxUsernameLen {
		return fmt.Errorf("username must not exceed %d characters", MaxUsernameLen)
	}
	for _, r := range username {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return fmt.Errorf("username must not contain whitespace or control characters")
		}
	}
	return nil
}

// ValidatePassword only rejects blank and over-long passwords.
func ValidatePassword(password string) error {
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password is required")
	}
	if len(password) > MaxPasswordLen {
		return fmt.Errorf("password must not exceed %d bytes", MaxPasswordLen)
	}
	return nil
}

// ValidateProfile bounds the free-text profile fields. Nil means unchanged.
func ValidateProfile(displayName, bio *string) error {
	if displayName != nil && utf8.RuneCountInString(*displayName) > MaxDisplayNameLen {
		return fmt.Errorf("display name too long (max %d characters)", MaxDisplayNameLen)
	}
	if bio != nil && utf8.RuneCountInString(*bio) > MaxBioLen {
		return fmt.Errorf("bio too long (max %d characters)", MaxBioLen)
	}
	return nil
}
