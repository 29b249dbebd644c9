// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	if cfg.Client.ServerURL != "http://127.0.0.1:3000" {
		t.Errorf("server_url = %q", cfg.Client.ServerURL)
	}
	if cfg.Client.MaxRetries != 3 || cfg.Client.InitialDelayMs != 1000 {
		t.Errorf("retry defaults = %d/%dms", cfg.Client.MaxRetries, cfg.Client.InitialDelayMs)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
}

func TestLoadFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
version = "1.0.0"

[client]
server_url = "http://10.0.0.5:8080"
timeout_secs = 10

[server]
port = 8080

[ai]
model = "gpt-4o"
`
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Client.ServerURL != "http://10.0.0.5:8080" {
		t.Errorf("server_url = %q", cfg.Client.ServerURL)
	}
	if cfg.Client.TimeoutSecs != 10 {
		t.Errorf("timeout_secs = %d", cfg.Client.TimeoutSecs)
	}
	// Fields absent from the file keep their defaults.
	if cfg.Client.MaxRetries != 3 {
		t.Errorf("max_retries = %d, expected default 3", cfg.Client.MaxRetries)
	}
	if cfg.AI.Model != "gpt-4o" {
		t.Errorf("model = %q", cfg.AI.Model)
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("port = %d, expected default", cfg.Server.Port)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("SKIFF_SERVER_URL", "http://example.test:9999")
	t.Setenv("PORT", "9999")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.Client.ServerURL != "http://example.test:9999" {
		t.Errorf("server_url = %q", cfg.Client.ServerURL)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.AI.APIKey != "sk-test" {
		t.Errorf("api_key = %q", cfg.AI.APIKey)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *Config)
		valid  bool
	}{
		{"defaults", func(cfg *Config) {}, true},
		{"relative url", func(cfg *Config) { cfg.Client.ServerURL = "localhost:3000" }, false},
		{"zero timeout", func(cfg *Config) { cfg.Client.TimeoutSecs = 0 }, false},
		{"negative retries", func(cfg *Config) { cfg.Client.MaxRetries = -1 }, false},
		{"port out of range", func(cfg *Config) { cfg.Server.Port = 70000 }, false},
		{"bad theme", func(cfg *Config) { cfg.UI.Theme = "solarized" }, false},
		{"light theme", func(cfg *Config) { cfg.UI.Theme = "light" }, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.valid && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tc.valid && err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
