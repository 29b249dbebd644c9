// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// # Key Types
//
//   - Conversation: a named, ordered thread of messages
//   - Message: a single user or assistant message
//   - SendFailure: the recorded outcome of a failed send attempt
//
// Pending messages, optimistic user messages not yet confirmed by the
// backend, carry IDs in a reserved "temp-" namespace so
// they can never collide with server-issued identifiers.
package model
