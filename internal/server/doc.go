// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides the skiff HTTP backend.
//
// Endpoints:
//   - POST   /api/chats              - Create a conversation
//   - GET    /api/chats              - List conversations (newest first)
//   - GET    /api/chats/{id}         - Conversation with its messages
//   - POST   /api/chats/{id}/messages - Append a message, get the reply
//   - DELETE /api/chats/{id}         - Delete a conversation
//   - GET    /health                 - Health check
//
// Errors are JSON payloads of the form {"error": ..., "code": ...}.
// When reply generation fails after the user's message was persisted,
// the 503 payload additionally carries that message under
// "userMessage" so clients can keep it on screen.
package server
