package validation

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxUsernameLength = 64
	MaxHabitLength    = 100
	minYear           = 1
	maxYear           = 9999
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string
	Value   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s (value: %q)", e.Field, e.Message, e.Value)
}

// ParseMonth parses a 1-12 month query value. Empty input yields def.
func ParseMonth(raw string, def time.Month) (time.Month, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &FieldError{Field: "month", Value: raw, Message: "must be a number"}
	}
	if n < 1 || n > 12 {
		return 0, &FieldError{Field: "month", Value: raw, Message: "must be between 1 and 12"}
	}
	return time.Month(n), nil
}

// ParseYear parses a four digit year query value. Empty input yields def.
func ParseYear(raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &FieldError{Field: "year", Value: raw, Message: "must be a number"}
	}
	if n < minYear || n > maxYear {
		return 0, &FieldError{Field: "year", Value: raw, Message: fmt.Sprintf("must be between %d and %d", minYear, maxYear)}
	}
	return n, nil
}

// HabitName trims the submitted name. An empty result means "nothing to add"
// and is not an error.
func HabitName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if utf8.RuneCountInString(name) > MaxHabitLength {
		return "", &FieldError{Field: "habit", Value: name, Message: fmt.Sprintf("must be at most %d characters", MaxHabitLength)}
	}
	return name, nil
}

// Credentials checks that both registration fields are present.
func Credentials(username, password string) error {
	if strings.TrimSpace(username) == "" {
		return &FieldError{Field: "username", Value: username, Message: "required"}
	}
	if utf8.RuneCountInString(username) > MaxUsernameLength {
		return &FieldError{Field: "username", Value: username, Message: fmt.Sprintf("must be at most %d characters", MaxUsernameLength)}
	}
	if password == "" {
		return &FieldError{Field: "password", Message: "required"}
	}
	return nil
}
