package auth

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a password using bcrypt
func HashPassword(password string, cost int) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(bytes), err
}

// CheckPasswordHash checks if a password matches a hash
func CheckPasswordHash(password, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePasswordStrength requires at least 8 characters mixing letters and digits.
func ValidatePasswordStrength(password string) error {
	var hasLetter, hasDigit bool
	for _, ch := range password {
		switch {
		case unicode.IsLetter(ch):
			hasLetter = true
		case unicode.IsDigit(ch):
			hasDigit = true
		}
	}

	var failures []string
	if len(password) < 8 {
		failures = append(failures, "at least 8 characters")
	}
	if !hasLetter {
		failures = append(failures, "at least 1 letter")
	}
	if !hasDigit {
		failures = append(failures, "at least 1 digit")
	}
	if len(failures) > 0 {
		return fmt.Errorf("password must contain %s", strings.Join(failures, ", "))
	}
	return nil
}
