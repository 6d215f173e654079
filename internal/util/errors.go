package util

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrEmailRegistered  = errors.New("email already registered")
	ErrInvalidLogin     = errors.New("invalid email or password")
	ErrPermissionDenied = errors.New("permission denied")

	// Quiz session errors
	ErrUnauthenticated    = errors.New("authentication required")
	ErrQuizNotFound       = errors.New("quiz not found")
	ErrSessionNotFound    = errors.New("quiz session not found")
	ErrSessionTerminal    = errors.New("quiz session already submitted")
	ErrIndexOutOfRange    = errors.New("question index out of range")
	ErrNoQuestions        = errors.New("quiz has no questions")
	ErrAttemptNotRecorded = errors.New("attempt could not be recorded")

	// Ingestion errors
	ErrEmptyInput  = errors.New("input contains no rows")
	ErrRateLimited = errors.New("classification service rate limited")
	ErrServerError = errors.New("classification service error")
	ErrBadRequest  = errors.New("classification request rejected")
)

// MalformedResponseError is returned when the classification output cannot
// be coerced to the expected JSON shape even after the fallback cleanup.
// Excerpt carries a bounded slice of the raw text for diagnostics.
type MalformedResponseError struct {
	Excerpt string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed classification response: %s", e.Excerpt)
}

// NewMalformedResponseError truncates raw to at most max bytes.
func NewMalformedResponseError(raw string, max int) *MalformedResponseError {
	if len(raw) > max {
		raw = raw[:max] + "..."
	}
	return &MalformedResponseError{Excerpt: raw}
}

// ValidationError reports per-field problems found while validating question
// drafts at save time. The save it belongs to is all-or-nothing.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, "; ")
}

func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, field+": "+message)
}

func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}
