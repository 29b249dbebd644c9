// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides the skiff HTTP backend.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"html"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/morganforge/skiff/internal/ai"
	"github.com/morganforge/skiff/internal/api"
	"github.com/morganforge/skiff/internal/model"
	"github.com/morganforge/skiff/internal/storage"
	"github.com/morganforge/skiff/internal/util"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultAddr is the default listen address.
	DefaultAddr = "127.0.0.1:3000"

	// MaxMessageRunes is the maximum message length after normalization.
	MaxMessageRunes = 2000

	// MaxRequestBodySize caps request bodies (64KB is generous for a
	// 2000-rune message).
	MaxRequestBodySize = 64 * 1024

	// fallbackReply stands in when the provider returns empty content.
	fallbackReply = "Sorry, I'm having trouble responding right now. Please try again."

	// Version is the server version.
	Version = "1.0.0"
)

// ============================================================================
// SERVER
// ============================================================================

// Server is the skiff HTTP backend.
type Server struct {
	addr     string
	mux      *http.ServeMux
	server   *http.Server
	store    *storage.Store
	provider ai.Provider
	limiter  *RateLimiter
}

// NewServer creates a server over the given store and provider.
func NewServer(store *storage.Store, provider ai.Provider) *Server {
	s := &Server{
		addr:     DefaultAddr,
		mux:      http.NewServeMux(),
		store:    store,
		provider: provider,
		limiter:  NewRateLimiter(5, 10),
	}
	s.setupRoutes()
	return s
}

// WithAddr sets the listen address.
func (s *Server) WithAddr(addr string) *Server {
	s.addr = addr
	return s
}

// WithRateLimit replaces the default per-client budget. rps <= 0
// disables rate limiting.
func (s *Server) WithRateLimit(rps float64, burst int) *Server {
	if rps <= 0 {
		s.limiter = nil
		return s
	}
	s.limiter = NewRateLimiter(rps, burst)
	return s
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.addr
}

// ============================================================================
// ROUTES
// ============================================================================

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("POST /api/chats", s.handleCreateChat)
	s.mux.HandleFunc("GET /api/chats", s.handleListChats)
	s.mux.HandleFunc("GET /api/chats/{id}", s.handleGetChat)
	s.mux.HandleFunc("DELETE /api/chats/{id}", s.handleDeleteChat)
	s.mux.HandleFunc("POST /api/chats/{id}/messages", s.handleSendMessage)
	s.mux.HandleFunc("GET /health", s.handleHealth)
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	middlewares := []Middleware{
		RecoveryMiddleware(),
		LoggingMiddleware(log.Default()),
	}
	if s.limiter != nil {
		middlewares = append(middlewares, RateLimitMiddleware(s.limiter))
	}
	return Chain(middlewares...)(s.mux)
}

// ============================================================================
// HANDLERS
// ============================================================================

func (s *Server) handleCreateChat(w http.ResponseWriter, r *http.Request) {
	conv, err := s.store.CreateChat(r.Context())
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, conv)
}

func (s *Server) handleListChats(w http.ResponseWriter, r *http.Request) {
	chats, err := s.store.ListChats(r.Context())
	if err != nil {
		s.storeError(w, err)
		return
	}
	if chats == nil {
		chats = []model.Conversation{}
	}
	writeJSON(w, http.StatusOK, chats)
}

func (s *Server) handleGetChat(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	chat, err := s.store.GetChat(r.Context(), id)
	if err != nil {
		s.storeError(w, err)
		return
	}
	messages, err := s.store.Messages(r.Context(), id)
	if err != nil {
		s.storeError(w, err)
		return
	}
	if messages == nil {
		messages = []model.Message{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"chat":     chat,
		"messages": messages,
	})
}

func (s *Server) handleDeleteChat(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := s.store.DeleteChat(r.Context(), id); err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Chat deleted successfully",
		"id":      id,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": Version,
	})
}

// sendMessageRequest is the append-message request body.
type sendMessageRequest struct {
	Content string `json:"content"`
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ctx := r.Context()

	var req sendMessageRequest
	body := http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", api.CodeInvalidInput)
		return
	}

	content, err := normalizeContent(req.Content)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), api.CodeInvalidInput)
		return
	}

	chat, err := s.store.GetChat(ctx, id)
	if err != nil {
		s.storeError(w, err)
		return
	}

	// The user's message is durably persisted before the provider is
	// consulted, so a completion failure never loses their words.
	userMessage, err := s.store.AppendMessage(ctx, id, model.RoleUser, content)
	if err != nil {
		s.storeError(w, err)
		return
	}

	// The title is rewritten exactly once, on the first message.
	updatedTitle := chat.Title
	if chat.HasDefaultTitle() {
		updatedTitle = model.TitleFromContent(content)
		if err := s.store.UpdateTitle(ctx, id, updatedTitle); err != nil {
			s.storeError(w, err)
			return
		}
	}

	history, err := s.store.Messages(ctx, id)
	if err != nil {
		s.storeError(w, err)
		return
	}

	reply, err := s.provider.Complete(ctx, history)
	if err != nil {
		s.completionError(w, err, userMessage)
		return
	}
	if reply == "" {
		reply = fallbackReply
	}

	assistantMessage, err := s.store.AppendMessage(ctx, id, model.RoleAssistant, reply)
	if err != nil {
		s.storeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"userMessage":      userMessage,
		"assistantMessage": assistantMessage,
		"updatedTitle":     updatedTitle,
	})
}

// ============================================================================
// VALIDATION
// ============================================================================

// normalizeContent trims, escapes, and bounds a message body.
func normalizeContent(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", errors.New("Message cannot be empty")
	}
	sanitized := html.EscapeString(trimmed)
	if util.RuneLen(sanitized) > MaxMessageRunes {
		return "", errors.New("Message too long")
	}
	return sanitized, nil
}

// ============================================================================
// ERROR RESPONSES
// ============================================================================

// storeError maps storage failures onto wire errors.
func (s *Server) storeError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Chat not found", api.CodeNotFound)
		return
	}
	log.Printf("STORE_ERROR | %v", err)
	writeError(w, http.StatusInternalServerError, "Internal server error", api.CodeUnknown)
}

// completionError reports a failed reply generation, carrying the
// already-persisted user message so clients keep it visible.
func (s *Server) completionError(w http.ResponseWriter, err error, userMessage model.Message) {
	message := "Unable to generate response. Please try again."
	code := api.CodeAIError
	if classified, ok := api.AsError(err); ok {
		if classified.Message != "" {
			message = classified.Message
		}
		if classified.Code != "" {
			code = classified.Code
		}
	}

	writeJSON(w, http.StatusServiceUnavailable, map[string]any{
		"error":       message,
		"code":        code,
		"userMessage": userMessage,
	})
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// Start runs the server until Shutdown or listener failure.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("SERVER_START | addr=%s version=%s", s.addr, Version)
	return s.server.ListenAndServe()
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	log.Printf("SERVER_SHUTDOWN | starting graceful shutdown")
	return s.server.Shutdown(ctx)
}

// ============================================================================
// HELPERS
// ============================================================================

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("WRITE_ERROR | %v", err)
	}
}

// writeError writes a classified JSON error payload.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, map[string]any{
		"error": message,
		"code":  code,
	})
}
