// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists conversations and messages in SQLite.
//
// The store uses the pure Go sqlite driver through database/sql with a
// single connection, since SQLite allows one writer at a time.
// Timestamps are stored as RFC 3339 strings so lexicographic and
// chronological order coincide.
package storage
