// pkg/auth/password.go
package auth

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrWeakPassword    = errors.New("password is too short")
	ErrInvalidEmail    = errors.New("invalid email format")
	ErrInvalidUsername = errors.New("username is too short")
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// PasswordManager hashes and checks passwords.
type PasswordManager struct {
	minLength  int
	bcryptCost int
}

// NewPasswordManager creates a password manager with the registration rules.
func NewPasswordManager() *PasswordManager {
	return &PasswordManager{
		minLength:  5,
		bcryptCost: bcrypt.DefaultCost,
	}
}

// HashPassword hashes a password using bcrypt
func (pm *PasswordManager) HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), pm.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// ComparePassword reports whether password matches the stored hash.
func (pm *PasswordManager) ComparePassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

// ValidatePassword enforces the minimum length.
func (pm *PasswordManager) ValidatePassword(password string) error {
	if len(password) < pm.minLength {
		return ErrWeakPassword
	}
	return nil
}

// ValidateEmail validates an email address format
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if len(email) > 255 || !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

// ValidateUsername checks the trimmed length.
func ValidateUsername(username string) error {
	if len(strings.TrimSpace(username)) < 3 {
		return ErrInvalidUsername
	}
	return nil
}
