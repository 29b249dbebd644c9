// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the skiff chat backend.
//
// The client wraps every call with a per-attempt timeout, classifies
// failures into a fixed set of symbolic codes, and retries transient
// failures with exponential backoff. It is purely functional: beyond the
// network call itself it has no side effects, and callers own all state.
//
// # Error Classification
//
//   - TIMEOUT: the attempt was cancelled by its deadline
//   - OFFLINE: connection failed and no local network connectivity exists
//   - NETWORK_ERROR: connection-level failure (DNS, refused, reset)
//   - HTTP_ERROR: non-2xx response with an unparsable body
//   - otherwise: the {error, code} pair parsed from the JSON error body
//
// # Retry Policy
//
// Retries apply only to TIMEOUT, NETWORK_ERROR, OFFLINE, HTTP 429, and
// HTTP 5xx. Other 4xx responses fail immediately. The delay before retry
// n (0-indexed) is initialDelay * 2^n: 1s, 2s, 4s at the defaults.
package api
