// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small string helpers shared across skiff.
//
// All truncation helpers are rune-aware: they count characters, not bytes,
// so multi-byte UTF-8 sequences are never split mid-character.
package util
