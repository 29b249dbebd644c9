// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat owns all conversational state for the client.
//
// This file tests the controller's send lifecycle, retry and edit
// splicing, empty-conversation cleanup, and staleness guards against a
// fake store.
package chat

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/morganforge/skiff/internal/api"
	"github.com/morganforge/skiff/internal/model"
)

// =============================================================================
// FAKES
// =============================================================================

// fakeService is an in-memory stand-in for the HTTP store.
type fakeService struct {
	mu sync.Mutex

	conversations []model.Conversation
	details       map[string]*api.ConversationDetail

	healthErr error
	listErr   error
	getErr    error
	createErr error
	sendErr   error
	deleteErr error

	// sendFn overrides the canned send behavior when set.
	sendFn func(conversationID, content string) (*api.SendMessageResponse, error)

	sends   int
	deleted []string
	created int
}

func (f *fakeService) CheckHealth(ctx context.Context) error { return f.healthErr }

func (f *fakeService) ListConversations(ctx context.Context) ([]model.Conversation, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]model.Conversation(nil), f.conversations...), nil
}

func (f *fakeService) GetConversation(ctx context.Context, id string) (*api.ConversationDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	detail, ok := f.details[id]
	if !ok {
		return nil, &api.Error{Code: api.CodeNotFound, Message: "Conversation not found", Status: 404}
	}
	copied := *detail
	copied.Messages = append([]model.Message(nil), detail.Messages...)
	return &copied, nil
}

func (f *fakeService) CreateConversation(ctx context.Context) (model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return model.Conversation{}, f.createErr
	}
	f.created++
	return model.Conversation{ID: fmt.Sprintf("new-%d", f.created), Title: model.DefaultTitle}, nil
}

func (f *fakeService) SendMessage(ctx context.Context, conversationID, content string) (*api.SendMessageResponse, error) {
	f.mu.Lock()
	f.sends++
	n := f.sends
	fn := f.sendFn
	sendErr := f.sendErr
	f.mu.Unlock()

	if fn != nil {
		return fn(conversationID, content)
	}
	if sendErr != nil {
		return nil, sendErr
	}
	return &api.SendMessageResponse{
		UserMessage:      model.Message{ID: fmt.Sprintf("user-%d", n), Role: model.RoleUser, Content: content},
		AssistantMessage: model.Message{ID: fmt.Sprintf("asst-%d", n), Role: model.RoleAssistant, Content: "reply to: " + content},
	}, nil
}

func (f *fakeService) DeleteConversation(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

// navRecorder captures route-change signals.
type navRecorder struct {
	mu     sync.Mutex
	routes []string
}

func (n *navRecorder) Navigate(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.routes = append(n.routes, id)
}

func (n *navRecorder) last() (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.routes) == 0 {
		return "", false
	}
	return n.routes[len(n.routes)-1], true
}

// seeded returns a controller initialized with one conversation "c1"
// selected and the given messages loaded.
func seeded(t *testing.T, messages []model.Message) (*Controller, *fakeService, *navRecorder) {
	t.Helper()
	svc := &fakeService{
		conversations: []model.Conversation{{ID: "c1", Title: model.DefaultTitle}},
		details: map[string]*api.ConversationDetail{
			"c1": {Conversation: model.Conversation{ID: "c1", Title: model.DefaultTitle}, Messages: messages},
		},
	}
	nav := &navRecorder{}
	ctrl := NewController(svc).WithNavigator(nav)
	require.NoError(t, ctrl.Initialize(context.Background(), "c1"))
	return ctrl, svc, nav
}

// =============================================================================
// STARTUP TESTS
// =============================================================================

func TestController_InitializeOffline(t *testing.T) {
	svc := &fakeService{healthErr: &api.Error{Code: api.CodeNetworkError, Message: "Unable to connect to the server. Please try again later."}}
	ctrl := NewController(svc)

	err := ctrl.Initialize(context.Background(), "")
	require.Error(t, err)

	snap := ctrl.Snapshot()
	require.Equal(t, StatusOffline, snap.Status)
	require.False(t, snap.ListLoading)
	require.Empty(t, snap.Conversations)
	require.NotEmpty(t, snap.LastError)
}

func TestController_InitializeDeepLink(t *testing.T) {
	ctrl, _, _ := seeded(t, []model.Message{
		{ID: "m1", Role: model.RoleUser, Content: "hi"},
	})

	snap := ctrl.Snapshot()
	require.Equal(t, StatusOnline, snap.Status)
	require.False(t, snap.ListLoading)
	require.NotNil(t, snap.Current)
	require.Equal(t, "c1", snap.Current.ID)
	require.Len(t, snap.Messages, 1)
}

func TestController_InitializeUnknownDeepLink(t *testing.T) {
	svc := &fakeService{conversations: []model.Conversation{{ID: "c1", Title: model.DefaultTitle}}}
	nav := &navRecorder{}
	ctrl := NewController(svc).WithNavigator(nav)

	require.NoError(t, ctrl.Initialize(context.Background(), "ghost"))

	snap := ctrl.Snapshot()
	require.Nil(t, snap.Current)
	route, ok := nav.last()
	require.True(t, ok)
	require.Equal(t, "", route)
}

// =============================================================================
// SEND TESTS
// =============================================================================

func TestController_SendMessage_Success(t *testing.T) {
	ctrl, svc, _ := seeded(t, nil)
	svc.sendFn = func(conversationID, content string) (*api.SendMessageResponse, error) {
		return &api.SendMessageResponse{
			UserMessage:      model.Message{ID: "u1", Role: model.RoleUser, Content: content},
			AssistantMessage: model.Message{ID: "a1", Role: model.RoleAssistant, Content: "hello!"},
			UpdatedTitle:     "Hello",
		}, nil
	}

	require.NoError(t, ctrl.SendMessage(context.Background(), "Hello", ""))

	snap := ctrl.Snapshot()
	require.False(t, snap.Loading)
	require.Empty(t, snap.Failed)
	require.Len(t, snap.Messages, 2)
	require.Equal(t, "u1", snap.Messages[0].ID)
	require.Equal(t, "a1", snap.Messages[1].ID)
	require.False(t, model.IsPendingID(snap.Messages[0].ID))

	// Title rewrite propagates to both the selection and the list.
	require.Equal(t, "Hello", snap.Current.Title)
	require.Equal(t, "Hello", snap.Conversations[0].Title)
}

func TestController_SendMessage_Failure(t *testing.T) {
	ctrl, svc, _ := seeded(t, nil)
	svc.sendErr = &api.Error{Code: api.CodeAIError, Message: "Failed to generate response", Status: 503}

	err := ctrl.SendMessage(context.Background(), "Hello", "")
	require.Error(t, err)

	snap := ctrl.Snapshot()
	require.False(t, snap.Loading)
	require.Len(t, snap.Messages, 1, "optimistic message stays visible")
	require.True(t, model.IsPendingID(snap.Messages[0].ID))
	require.Equal(t, "Hello", snap.Messages[0].Content)

	failure, ok := snap.Failed[snap.Messages[0].ID]
	require.True(t, ok)
	require.Equal(t, api.CodeAIError, failure.Code)
	require.Equal(t, "Failed to generate response", snap.LastError)
}

func TestController_SendMessage_NoSelection(t *testing.T) {
	svc := &fakeService{}
	ctrl := NewController(svc)
	require.NoError(t, ctrl.Initialize(context.Background(), ""))

	require.NoError(t, ctrl.SendMessage(context.Background(), "Hello", ""))
	require.Zero(t, svc.sends)
	require.Empty(t, ctrl.Snapshot().Messages)
}

func TestController_SendMessage_EveryAttemptSettles(t *testing.T) {
	// Each attempt ends in exactly one of persisted or failed, and
	// loading is false afterwards in both cases.
	for _, fail := range []bool{false, true} {
		ctrl, svc, _ := seeded(t, nil)
		if fail {
			svc.sendErr = &api.Error{Code: api.CodeTimeout, Message: "Request timed out"}
		}

		_ = ctrl.SendMessage(context.Background(), "ping", "")

		snap := ctrl.Snapshot()
		require.False(t, snap.Loading)
		require.Len(t, snap.Messages, map[bool]int{false: 2, true: 1}[fail])
		if fail {
			require.Len(t, snap.Failed, 1)
		} else {
			require.Empty(t, snap.Failed)
		}
	}
}

// =============================================================================
// RETRY TESTS
// =============================================================================

func TestController_RetryMessage(t *testing.T) {
	ctrl, svc, _ := seeded(t, nil)
	svc.sendErr = &api.Error{Code: api.CodeNetworkError, Message: "Unable to connect to the server. Please try again later."}

	require.Error(t, ctrl.SendMessage(context.Background(), "Hello", ""))
	failedID := ctrl.Snapshot().Messages[0].ID

	// Connectivity restored.
	svc.mu.Lock()
	svc.sendErr = nil
	svc.mu.Unlock()

	require.NoError(t, ctrl.RetryMessage(context.Background(), failedID))

	snap := ctrl.Snapshot()
	require.Len(t, snap.Messages, 2, "retry never duplicates the user message")
	require.Equal(t, "Hello", snap.Messages[0].Content)
	require.Equal(t, model.RoleAssistant, snap.Messages[1].Role)
	require.Empty(t, snap.Failed)
	require.Equal(t, 2, svc.sends)
}

func TestController_RetryMessage_SplicesTrailing(t *testing.T) {
	// A retried message supersedes itself and everything after it.
	ctrl, svc, _ := seeded(t, []model.Message{
		{ID: "m1", Role: model.RoleUser, Content: "first"},
		{ID: "m2", Role: model.RoleAssistant, Content: "stale reply"},
	})
	svc.sendFn = func(conversationID, content string) (*api.SendMessageResponse, error) {
		return &api.SendMessageResponse{
			UserMessage:      model.Message{ID: "m3", Role: model.RoleUser, Content: content},
			AssistantMessage: model.Message{ID: "m4", Role: model.RoleAssistant, Content: "fresh reply"},
		}, nil
	}

	require.NoError(t, ctrl.SendMessage(context.Background(), "first", "m1"))

	snap := ctrl.Snapshot()
	require.Len(t, snap.Messages, 2)
	require.Equal(t, "m3", snap.Messages[0].ID)
	require.Equal(t, "fresh reply", snap.Messages[1].Content)
}

func TestController_RetryMessage_IgnoresAssistant(t *testing.T) {
	ctrl, svc, _ := seeded(t, []model.Message{
		{ID: "m1", Role: model.RoleUser, Content: "hi"},
		{ID: "m2", Role: model.RoleAssistant, Content: "hello"},
	})

	require.NoError(t, ctrl.RetryMessage(context.Background(), "m2"))
	require.NoError(t, ctrl.RetryMessage(context.Background(), "ghost"))
	require.Zero(t, svc.sends)
}

// =============================================================================
// EDIT TESTS
// =============================================================================

func TestController_SubmitEdit_TruncatesAndResends(t *testing.T) {
	// Editing position k in an n-message sequence yields exactly k+2
	// messages on success.
	ctrl, _, _ := seeded(t, []model.Message{
		{ID: "m1", Role: model.RoleUser, Content: "one"},
		{ID: "m2", Role: model.RoleAssistant, Content: "reply one"},
		{ID: "m3", Role: model.RoleUser, Content: "two"},
		{ID: "m4", Role: model.RoleAssistant, Content: "reply two"},
	})

	require.NoError(t, ctrl.StartEditing("m3"))
	require.NoError(t, ctrl.SubmitEdit(context.Background(), "m3", "two, revised"))

	snap := ctrl.Snapshot()
	require.Len(t, snap.Messages, 4) // k=2, so 2+2
	require.Equal(t, "m1", snap.Messages[0].ID)
	require.Equal(t, "m2", snap.Messages[1].ID)
	require.Equal(t, "two, revised", snap.Messages[2].Content)
	require.Equal(t, model.RoleAssistant, snap.Messages[3].Role)
	require.Nil(t, snap.Editing)
	require.False(t, snap.Loading)
}

func TestController_SubmitEdit_FailureIsBannerOnly(t *testing.T) {
	ctrl, svc, _ := seeded(t, []model.Message{
		{ID: "m1", Role: model.RoleUser, Content: "one"},
		{ID: "m2", Role: model.RoleAssistant, Content: "reply"},
	})
	svc.sendErr = &api.Error{Code: api.CodeTimeout, Message: "Request timed out"}

	require.NoError(t, ctrl.StartEditing("m1"))
	require.Error(t, ctrl.SubmitEdit(context.Background(), "m1", "changed"))

	snap := ctrl.Snapshot()
	require.False(t, snap.Loading)
	require.Equal(t, "Request timed out", snap.LastError)
	require.Empty(t, snap.Failed, "edit failures never enter the failed map")
}

func TestController_StartEditing_Rules(t *testing.T) {
	ctrl, svc, _ := seeded(t, []model.Message{
		{ID: "m1", Role: model.RoleUser, Content: "hi"},
		{ID: "m2", Role: model.RoleAssistant, Content: "hello"},
	})

	require.ErrorIs(t, ctrl.StartEditing("m2"), ErrNotUserMessage)

	// A failed message cannot be edited.
	svc.sendErr = &api.Error{Code: api.CodeAIError, Message: "boom"}
	require.Error(t, ctrl.SendMessage(context.Background(), "new", ""))
	snap := ctrl.Snapshot()
	failedID := snap.Messages[len(snap.Messages)-1].ID
	require.ErrorIs(t, ctrl.StartEditing(failedID), ErrEditFailedMessage)

	require.NoError(t, ctrl.StartEditing("m1"))
	snap = ctrl.Snapshot()
	require.NotNil(t, snap.Editing)
	require.Equal(t, "hi", snap.Editing.OriginalContent)

	ctrl.CancelEditing()
	require.Nil(t, ctrl.Snapshot().Editing)
}

// =============================================================================
// CLEANUP AND LIFECYCLE TESTS
// =============================================================================

func TestController_StartNew_DeletesEmptyCurrent(t *testing.T) {
	ctrl, svc, nav := seeded(t, nil)

	require.NoError(t, ctrl.StartNewConversation(context.Background()))

	require.Contains(t, svc.deleted, "c1")
	snap := ctrl.Snapshot()
	require.Len(t, snap.Conversations, 1)
	require.Equal(t, "new-1", snap.Conversations[0].ID)
	require.Equal(t, "new-1", snap.Current.ID)
	route, _ := nav.last()
	require.Equal(t, "new-1", route)
}

func TestController_StartNew_PreservesNonEmptyCurrent(t *testing.T) {
	ctrl, svc, _ := seeded(t, []model.Message{
		{ID: "m1", Role: model.RoleUser, Content: "keep me"},
	})

	require.NoError(t, ctrl.StartNewConversation(context.Background()))

	require.NotContains(t, svc.deleted, "c1")
	snap := ctrl.Snapshot()
	require.Len(t, snap.Conversations, 2)
	require.Equal(t, "new-1", snap.Conversations[0].ID, "new conversation is prepended")
}

func TestController_DeleteIfEmpty_FetchFailurePreserves(t *testing.T) {
	// A conversation whose messages cannot be fetched is assumed
	// non-empty; transient errors must never delete data.
	ctrl, svc, _ := seeded(t, nil)
	svc.mu.Lock()
	svc.getErr = &api.Error{Code: api.CodeNetworkError, Message: "down"}
	svc.mu.Unlock()

	ctrl.deleteIfEmpty(context.Background(), model.Conversation{ID: "other"})

	require.Empty(t, svc.deleted)
}

func TestController_SelectConversation_CleansUpAndNavigates(t *testing.T) {
	ctrl, svc, nav := seeded(t, nil)
	ctrl.mu.Lock()
	ctrl.conversations = append(ctrl.conversations, model.Conversation{ID: "c2", Title: "Older"})
	ctrl.mu.Unlock()

	ctrl.SelectConversation(context.Background(), "c2")

	require.Contains(t, svc.deleted, "c1", "abandoned empty conversation is cleaned up")
	route, _ := nav.last()
	require.Equal(t, "c2", route)
	// Selection itself is applied by the navigation synchronizer, not here.
	require.Equal(t, "c1", ctrl.Snapshot().Current.ID)
}

func TestController_DeleteConversation_Current(t *testing.T) {
	ctrl, svc, nav := seeded(t, []model.Message{
		{ID: "m1", Role: model.RoleUser, Content: "hi"},
	})

	require.NoError(t, ctrl.DeleteConversation(context.Background(), "c1"))

	require.Contains(t, svc.deleted, "c1")
	snap := ctrl.Snapshot()
	require.Nil(t, snap.Current)
	require.Empty(t, snap.Messages)
	require.Empty(t, snap.Conversations)
	route, _ := nav.last()
	require.Equal(t, "", route)
}

func TestController_DeleteConversation_AlreadyGone(t *testing.T) {
	ctrl, svc, _ := seeded(t, nil)
	svc.deleteErr = &api.Error{Code: api.CodeNotFound, Message: "Conversation not found", Status: 404}

	require.NoError(t, ctrl.DeleteConversation(context.Background(), "c1"))
	require.Empty(t, ctrl.Snapshot().Conversations)
}

// =============================================================================
// STALENESS TESTS
// =============================================================================

func TestController_StaleSendDiscarded(t *testing.T) {
	// A selection change while a send is in flight wins: the send's
	// result is discarded, but loading still clears.
	ctrl, svc, _ := seeded(t, nil)
	svc.sendFn = func(conversationID, content string) (*api.SendMessageResponse, error) {
		ctrl.ClearSelection()
		return &api.SendMessageResponse{
			UserMessage:      model.Message{ID: "u1", Role: model.RoleUser, Content: content},
			AssistantMessage: model.Message{ID: "a1", Role: model.RoleAssistant, Content: "late"},
		}, nil
	}

	require.NoError(t, ctrl.SendMessage(context.Background(), "Hello", ""))

	snap := ctrl.Snapshot()
	require.False(t, snap.Loading)
	require.Nil(t, snap.Current)
	require.Empty(t, snap.Messages, "stale result never lands")
}

func TestController_StaleActivationDiscarded(t *testing.T) {
	svc := &fakeService{
		conversations: []model.Conversation{
			{ID: "c1", Title: "First"},
			{ID: "c2", Title: "Second"},
		},
		details: map[string]*api.ConversationDetail{
			"c1": {Conversation: model.Conversation{ID: "c1"}, Messages: []model.Message{{ID: "m1", Role: model.RoleUser, Content: "old"}}},
			"c2": {Conversation: model.Conversation{ID: "c2"}, Messages: []model.Message{{ID: "m2", Role: model.RoleUser, Content: "new"}}},
		},
	}
	ctrl := NewController(svc)
	require.NoError(t, ctrl.Initialize(context.Background(), ""))

	// A second activation lands while the first is fetching.
	var raced bool
	ctrl.svc = &hookedService{fakeService: svc, beforeGet: func() {
		if raced {
			return
		}
		raced = true
		require.NoError(t, ctrl.ActivateConversation(context.Background(), "c2"))
	}}

	require.NoError(t, ctrl.ActivateConversation(context.Background(), "c1"))

	snap := ctrl.Snapshot()
	require.Equal(t, "c2", snap.Current.ID, "newer navigation wins")
	require.Len(t, snap.Messages, 1)
	require.Equal(t, "m2", snap.Messages[0].ID, "older fetch's messages are discarded")
}

// hookedService runs a callback before each detail fetch, simulating a
// competing navigation racing the fetch.
type hookedService struct {
	*fakeService
	beforeGet func()
}

func (h *hookedService) GetConversation(ctx context.Context, id string) (*api.ConversationDetail, error) {
	if h.beforeGet != nil {
		h.beforeGet()
	}
	return h.fakeService.GetConversation(ctx, id)
}
