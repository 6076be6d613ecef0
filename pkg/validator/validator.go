package validator

import (
	"fmt"
	"regexp"
	"strings"
	"user-service/internal/domain/user"
	apperrors "user-service/pkg/errors"
)

const (
	minEmailLength    = 3
	maxEmailLength    = 255
	minPasswordLength = 8
	// bcrypt ignores input past 72 bytes.
	maxPasswordBytes  = 72
	minUsernameLength = 3
	maxUsernameLength = 50

	FieldUsername = "username"
	FieldEmail    = "email"
	FieldPassword = "password"
	FieldRole     = "role"

	errEmailEmptyFmt         = "email cannot be empty"
	errEmailLengthFmt        = "email must be between %d and %d characters"
	errEmailInvalidFmt       = "invalid email format"
	errPasswordMinLengthFmt  = "password must be at least %d characters"
	errPasswordMaxLengthFmt  = "password must not exceed %d bytes"
	errPasswordNoDigitFmt    = "password must contain at least one digit"
	errUsernameEmptyFmt      = "username cannot be empty"
	errUsernameLengthFmt     = "username must be between %d and %d characters"
	errUsernameCharactersFmt = "username may only contain letters, digits, '.', '_' and '-'"
	errRoleEmptyFmt          = "role cannot be empty"
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
	digitRegex    = regexp.MustCompile(`\d`)
)

func Email(email string) error {
	if email == "" {
		return fmt.Errorf(errEmailEmptyFmt)
	}

	if len(email) < minEmailLength || len(email) > maxEmailLength {
		return fmt.Errorf(errEmailLengthFmt, minEmailLength, maxEmailLength)
	}

	if !emailRegex.MatchString(email) {
		return fmt.Errorf(errEmailInvalidFmt)
	}

	return nil
}

// Password enforces the strength rule: at least 8 characters with at least
// one digit.
func Password(password string) error {
	if len([]rune(password)) < minPasswordLength {
		return fmt.Errorf(errPasswordMinLengthFmt, minPasswordLength)
	}

	if len(password) > maxPasswordBytes {
		return fmt.Errorf(errPasswordMaxLengthFmt, maxPasswordBytes)
	}

	if !digitRegex.MatchString(password) {
		return fmt.Errorf(errPasswordNoDigitFmt)
	}

	return nil
}

func Username(username string) error {
	if username == "" {
		return fmt.Errorf(errUsernameEmptyFmt)
	}

	if len(username) < minUsernameLength || len(username) > maxUsernameLength {
		return fmt.Errorf(errUsernameLengthFmt, minUsernameLength, maxUsernameLength)
	}

	if !usernameRegex.MatchString(username) {
		return fmt.Errorf(errUsernameCharactersFmt)
	}

	return nil
}

// Role parses and validates a role label, returning its canonical form.
func Role(role string) (user.Role, error) {
	if strings.TrimSpace(role) == "" {
		return "", fmt.Errorf(errRoleEmptyFmt)
	}
	return user.ParseRole(role)
}

// Collector accumulates field errors so a request reports every problem at
// once instead of the first one.
type Collector struct {
	details []apperrors.FieldError
}

func (c *Collector) Check(field string, err error) {
	if err != nil {
		c.details = append(c.details, apperrors.FieldError{Field: field, Message: err.Error()})
	}
}

// Err returns a validation AppError, or nil when every check passed.
func (c *Collector) Err() error {
	if len(c.details) == 0 {
		return nil
	}
	return apperrors.Validation(c.details)
}
