package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrEmptyContent indicates the provider answered successfully but produced
// no generated text, typically a safety block.
var ErrEmptyContent = errors.New("model returned no content")

// Error wraps a provider failure with its HTTP status.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return "adapter error"
	}
	if e.Message != "" {
		return fmt.Sprintf("upstream error (status=%d): %s", e.Status, e.Message)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("upstream error (status=%d)", e.Status)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Retryable reports whether an outcome justifies advancing to the next
// cascade entry. Classification is status-based: 429 means this model's
// quota is exhausted, empty content and transport failures are per-attempt
// conditions, and every other provider status is expected to reproduce
// identically on all models.
//
// Quota-flavored 400s are handled separately by QuotaFlavored so callers
// can log when that message heuristic fires.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, ErrEmptyContent) {
		return true
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusTooManyRequests
	}
	// Anything without a provider status is a transport or timeout
	// condition local to this attempt.
	return true
}

// QuotaFlavored reports whether a 400 carries quota or size wording.
// Upstream sometimes reports per-model quota and request-size violations as
// plain 400s whose only signal is the message text, so a documented
// substring match remains as an isolated fallback heuristic.
func QuotaFlavored(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest {
		return false
	}
	msg := strings.ToLower(apiErr.Message)
	return strings.Contains(msg, "quota") || strings.Contains(msg, "size")
}
