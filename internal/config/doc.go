// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading for skiff.
//
// Configuration comes from three layers, later layers winning:
//
//   - Built-in defaults
//   - ~/.skiff/config.toml
//   - Environment variables (SKIFF_*, PORT, OPENAI_API_KEY)
//
// The client, server, and AI provider sections are independent; the
// TUI process reads [client] and [ui], the serve process reads
// [server] and [ai].
package config
