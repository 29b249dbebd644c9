// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package nav

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/morganforge/skiff/internal/api"
	"github.com/morganforge/skiff/internal/chat"
	"github.com/morganforge/skiff/internal/model"
)

// stubService is a minimal chat.Service for driving the real controller.
type stubService struct {
	list      []model.Conversation
	details   map[string][]model.Message
	beforeGet func()
}

func (s *stubService) CheckHealth(ctx context.Context) error { return nil }

func (s *stubService) ListConversations(ctx context.Context) ([]model.Conversation, error) {
	return append([]model.Conversation(nil), s.list...), nil
}

func (s *stubService) GetConversation(ctx context.Context, id string) (*api.ConversationDetail, error) {
	if s.beforeGet != nil {
		s.beforeGet()
	}
	messages, ok := s.details[id]
	if !ok {
		return nil, &api.Error{Code: api.CodeNotFound, Message: "Conversation not found", Status: 404}
	}
	return &api.ConversationDetail{
		Conversation: model.Conversation{ID: id, Title: model.DefaultTitle},
		Messages:     append([]model.Message(nil), messages...),
	}, nil
}

func (s *stubService) CreateConversation(ctx context.Context) (model.Conversation, error) {
	return model.Conversation{ID: "stub", Title: model.DefaultTitle}, nil
}

func (s *stubService) SendMessage(ctx context.Context, conversationID, content string) (*api.SendMessageResponse, error) {
	return nil, &api.Error{Code: api.CodeUnknown, Message: "not implemented"}
}

func (s *stubService) DeleteConversation(ctx context.Context, id string) error { return nil }

// fakeController records which reconciliation path Apply took.
type fakeController struct {
	snap      chat.Snapshot
	activated []string
	cleared   int
}

func (f *fakeController) Snapshot() chat.Snapshot { return f.snap }

func (f *fakeController) ActivateConversation(ctx context.Context, id string) error {
	f.activated = append(f.activated, id)
	return nil
}

func (f *fakeController) ClearSelection() { f.cleared++ }

type routeSink struct {
	routes []string
}

func (r *routeSink) Navigate(id string) { r.routes = append(r.routes, id) }

func snapshot(currentID string, known ...string) chat.Snapshot {
	snap := chat.Snapshot{Status: chat.StatusOnline}
	for _, id := range known {
		snap.Conversations = append(snap.Conversations, model.Conversation{ID: id, Title: model.DefaultTitle})
	}
	if currentID != "" {
		snap.Current = &model.Conversation{ID: currentID}
	}
	return snap
}

func TestApply_AlreadyCurrent(t *testing.T) {
	ctrl := &fakeController{snap: snapshot("c1", "c1", "c2")}
	sink := &routeSink{}
	sync := NewSynchronizer(ctrl, sink)

	require.NoError(t, sync.Apply(context.Background(), "c1"))
	require.Empty(t, ctrl.activated)
	require.Zero(t, ctrl.cleared)
	require.Empty(t, sink.routes)
}

func TestApply_KnownConversation(t *testing.T) {
	ctrl := &fakeController{snap: snapshot("c1", "c1", "c2")}
	sync := NewSynchronizer(ctrl, &routeSink{})

	require.NoError(t, sync.Apply(context.Background(), "c2"))
	require.Equal(t, []string{"c2"}, ctrl.activated)
}

func TestApply_UnknownConversationRedirects(t *testing.T) {
	ctrl := &fakeController{snap: snapshot("c1", "c1")}
	sink := &routeSink{}
	sync := NewSynchronizer(ctrl, sink)

	require.NoError(t, sync.Apply(context.Background(), "ghost"))
	require.Empty(t, ctrl.activated)
	require.Equal(t, []string{""}, sink.routes)
}

func TestApply_EmptyRouteClearsSelection(t *testing.T) {
	ctrl := &fakeController{snap: snapshot("c1", "c1")}
	sync := NewSynchronizer(ctrl, &routeSink{})

	require.NoError(t, sync.Apply(context.Background(), ""))
	require.Equal(t, 1, ctrl.cleared)

	// Without a selection, the empty route is a no-op.
	ctrl2 := &fakeController{snap: snapshot("")}
	sync2 := NewSynchronizer(ctrl2, &routeSink{})
	require.NoError(t, sync2.Apply(context.Background(), ""))
	require.Zero(t, ctrl2.cleared)
}

func TestApply_SuppressedDuringInitialLoad(t *testing.T) {
	snap := snapshot("", "c1")
	snap.ListLoading = true
	ctrl := &fakeController{snap: snap}
	sink := &routeSink{}
	sync := NewSynchronizer(ctrl, sink)

	require.NoError(t, sync.Apply(context.Background(), "c1"))
	require.Empty(t, ctrl.activated)
	require.Empty(t, sink.routes)
}

// TestApply_StaleFetchDiscarded exercises the guard end to end against
// the real controller: a second Apply arriving while the first is
// fetching wins.
func TestApply_StaleFetchDiscarded(t *testing.T) {
	store := &stubService{
		list: []model.Conversation{{ID: "c1"}, {ID: "c2"}},
		details: map[string][]model.Message{
			"c1": {{ID: "m1", Role: model.RoleUser, Content: "one"}},
			"c2": {{ID: "m2", Role: model.RoleUser, Content: "two"}},
		},
	}
	ctrl := chat.NewController(store)
	require.NoError(t, ctrl.Initialize(context.Background(), ""))

	sink := &routeSink{}
	sync := NewSynchronizer(ctrl, sink)
	raced := false
	store.beforeGet = func() {
		if raced {
			return
		}
		raced = true
		require.NoError(t, sync.Apply(context.Background(), "c2"))
	}

	require.NoError(t, sync.Apply(context.Background(), "c1"))

	snap := ctrl.Snapshot()
	require.Equal(t, "c2", snap.Current.ID)
	require.Len(t, snap.Messages, 1)
	require.Equal(t, "m2", snap.Messages[0].ID)
}
