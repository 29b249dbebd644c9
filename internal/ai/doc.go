// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ai calls the upstream completion provider.
//
// The Provider interface takes the conversation so far and returns the
// assistant's reply. The OpenAI-compatible implementation classifies
// failures into the shared error taxonomy (TIMEOUT, NETWORK_ERROR,
// AI_PROVIDER_ERROR) so the HTTP layer can surface them verbatim. When
// no API key is configured the mock provider answers deterministically,
// which keeps local development working without credentials.
package ai
