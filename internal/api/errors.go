// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"fmt"

	"github.com/morganforge/skiff/internal/model"
)

// =============================================================================
// ERROR CODES
// =============================================================================

// Symbolic error codes shared between client and backend.
const (
	CodeTimeout         = "TIMEOUT"
	CodeOffline         = "OFFLINE"
	CodeNetworkError    = "NETWORK_ERROR"
	CodeHTTPError       = "HTTP_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeAIError         = "AI_ERROR"
	CodeAIProviderError = "AI_PROVIDER_ERROR"
	CodeRateLimit       = "RATE_LIMIT"
	CodeUnknown         = "UNKNOWN_ERROR"
)

// =============================================================================
// CLASSIFIED ERROR TYPE
// =============================================================================

// Error is a classified request failure: a symbolic code plus a
// human-readable message, with the HTTP status when one was received.
type Error struct {
	// Code is one of the Code* constants, or a backend-supplied code.
	Code string

	// Message is human-readable and safe to surface in the UI.
	Message string

	// Status is the HTTP status code, or 0 for transport-level failures.
	Status int

	// UserMessage carries the persisted user message when a send failed
	// after the backend durably stored the user's text. The contract is
	// "user message persisted, assistant message absent": the caller must
	// keep the user's words visible.
	UserMessage *model.Message
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("api error [%s] (HTTP %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("api error [%s]: %s", e.Code, e.Message)
}

// Is implements errors.Is support: two api errors match when their codes match.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// ErrorCode extracts the symbolic code from an error, or UNKNOWN_ERROR for
// errors that did not come from this package.
func ErrorCode(err error) string {
	if apiErr, ok := AsError(err); ok {
		return apiErr.Code
	}
	return CodeUnknown
}

// ErrorMessage extracts the human-readable message from an error.
func ErrorMessage(err error) string {
	if apiErr, ok := AsError(err); ok {
		return apiErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

// AsError unwraps err into a classified *Error if it is one.
func AsError(err error) (*Error, bool) {
	apiErr, ok := err.(*Error)
	return apiErr, ok
}

// Retryable reports whether a classified error is worth retrying:
// transport-level failures, rate limiting, and server errors. Validation
// and other 4xx failures are final. So is any failure the backend
// reports after it already persisted the user's message (the error
// carries that message, or an AI_* code): the append is not idempotent,
// and replaying it would store the user's text once per attempt.
// Recovery from those is the user-initiated retry path.
func Retryable(err error) bool {
	apiErr, ok := AsError(err)
	if !ok {
		return false
	}
	switch apiErr.Code {
	case CodeTimeout, CodeNetworkError, CodeOffline:
		return true
	case CodeAIError, CodeAIProviderError:
		return false
	}
	if apiErr.UserMessage != nil {
		return false
	}
	if apiErr.Status == 429 {
		return true
	}
	return apiErr.Status >= 500
}
