// skiff - a terminal chat client with a matching HTTP backend.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/morganforge/skiff/internal/ai"
	"github.com/morganforge/skiff/internal/api"
	"github.com/morganforge/skiff/internal/config"
	"github.com/morganforge/skiff/internal/server"
	"github.com/morganforge/skiff/internal/storage"
	"github.com/morganforge/skiff/internal/ui"
)

// Version information (set at build time)
var (
	Version   = "1.0.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	args := os.Args[1:]
	cmd := ""
	if len(args) > 0 {
		cmd = args[0]
	}

	switch cmd {
	case "", "chat":
		runTUI(args)
	case "serve":
		runServe()
	case "version", "--version", "-v":
		fmt.Printf("skiff %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`skiff - terminal chat client

Usage:
  skiff [chat] [conversation-id]   open the chat TUI (default)
  skiff serve                      run the backend server
  skiff version                    print version information

Configuration lives at ~/.skiff/config.toml. Environment overrides:
  SKIFF_SERVER_URL  backend URL for the client
  SKIFF_HOST, PORT  backend bind address
  SKIFF_DB_PATH     SQLite database path
  OPENAI_API_KEY    AI provider key (empty = mock replies)
`)
}

// =============================================================================
// TUI
// =============================================================================

func runTUI(args []string) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// Optional positional conversation id opens that conversation
	// directly, like following a saved link.
	deepLink := ""
	for _, arg := range args {
		if arg != "chat" {
			deepLink = arg
			break
		}
	}

	client := api.NewClient(cfg.Client.ServerURL).
		WithTimeout(cfg.Client.ClientTimeout()).
		WithMaxRetries(cfg.Client.MaxRetries).
		WithInitialDelay(cfg.Client.InitialDelay())

	ctrl, sync, router := ui.Wire(client)
	program := tea.NewProgram(ui.New(ui.Options{
		Controller:   ctrl,
		Synchronizer: sync,
		Router:       router,
		Theme:        cfg.UI.Theme,
		DeepLink:     deepLink,
	}), tea.WithAltScreen())

	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// SERVER
// =============================================================================

func runServe() {
	// .env is optional; real environment always wins.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("SERVER_CONFIG | %v", err)
	}

	dbPath := cfg.Server.DBPath
	if dbPath == "" {
		dbPath, err = config.DefaultDBPath()
		if err != nil {
			log.Fatalf("SERVER_CONFIG | resolve db path: %v", err)
		}
	}

	store, err := storage.Open(dbPath)
	if err != nil {
		log.Fatalf("SERVER_STORE | open %s: %v", dbPath, err)
	}
	defer store.Close()

	provider := ai.NewProvider(ai.Config{
		APIKey:  cfg.AI.APIKey,
		BaseURL: cfg.AI.BaseURL,
		Model:   cfg.AI.Model,
		Timeout: cfg.AI.Timeout(),
	})

	srv := server.NewServer(store, provider).
		WithAddr(cfg.Server.Addr()).
		WithRateLimit(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("SERVER_LISTEN | %v", err)
		}
	case sig := <-stop:
		log.Printf("SERVER_SIGNAL | %v", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("SERVER_SHUTDOWN | %v", err)
		}
	}
}
