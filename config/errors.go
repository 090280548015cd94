package config

import (
	"fmt"
	"strings"
)

// ConfigError describes an invalid or missing setting together with what to do about it.
//
//nolint:revive // exported as config.ConfigError on purpose
type ConfigError struct {
	Category string // "missing" or "invalid"
	Field    string
	Message  string
	Action   string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	parts := []string{fmt.Sprintf("config_%s:", e.Category)}
	if e.Field != "" {
		parts = append(parts, e.Field)
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if e.Action != "" {
		parts = append(parts, e.Action)
	}
	return strings.Join(parts, " ")
}

// NewMissingFieldError reports a required setting that has no value.
func NewMissingFieldError(field, envVar string) *ConfigError {
	return &ConfigError{
		Category: "missing",
		Field:    field,
		Message:  "required",
		Action:   fmt.Sprintf("set %s env var or add %s to config.yaml", envVar, field),
	}
}

// NewInvalidFieldError reports a setting with an unusable value.
func NewInvalidFieldError(field, message string, validOptions []string) *ConfigError {
	err := &ConfigError{Category: "invalid", Field: field, Message: message}
	if len(validOptions) > 0 {
		err.Action = fmt.Sprintf("must be one of: %s", strings.Join(validOptions, ", "))
	}
	return err
}
