package core

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrProviderNotConfigured is returned before any network call when no
	// Gemini API key was supplied at startup.
	ErrProviderNotConfigured = errors.New("gemini API key not configured")
)

// ValidationError is an input that was rejected before any write.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
