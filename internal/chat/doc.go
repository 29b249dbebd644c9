// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat owns all conversational state for the client.
//
// This package implements the conversation state machine: the
// conversation list, the selected conversation, its ordered message
// sequence, send lifecycle tracking, and failure bookkeeping. A single
// Controller serializes every mutation under one mutex; network calls
// run outside the lock and each continuation re-validates a generation
// counter before applying its result, so a response from an abandoned
// selection can never corrupt current state.
//
// # Key Types
//
//   - Controller: single state owner exposing commands and snapshots
//   - Snapshot: consistent read view of all controller state
//   - EditSession: the message currently being edited, if any
//   - Service: the store operations the controller depends on
//   - Navigator: sink for route-change signals
//
// # Send Lifecycle
//
// A send moves through idle -> pending -> {persisted | failed}. A fresh
// send appends one optimistic pending message; a failed send keeps that
// message visible with its error recorded in the failed map. From
// failed, the only ways forward are a user-initiated retry or a
// truncation (edit) that drops the message. There are no automatic
// retries at this layer.
//
// # Usage
//
//	ctrl := chat.NewController(client).WithNavigator(router)
//	ctrl.Initialize(ctx, deepLinkID)
//	ctrl.SendMessage(ctx, "hello", "")
//	snap := ctrl.Snapshot()
package chat
