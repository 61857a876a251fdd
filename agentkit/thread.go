// Copyright (c) Microsoft. All rights reserved.

package agentkit

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Thread manages conversation state for an agent interaction.
// It operates in one of two mutually exclusive modes:
//   - Service-managed: conversation state lives server-side and the thread
//     carries only the service's conversation ID.
//   - Locally-managed: messages are stored locally via a [MessageStore].
//
// Setting one mode locks out the other.
type Thread struct {
	mu              sync.Mutex
	id              string
	conversationID  string
	store           MessageStore
	contextProvider ContextProvider
	modeLocked      bool
}

// ThreadOption configures a [Thread].
type ThreadOption func(*Thread)

// WithThreadStore sets the local message store for the thread.
func WithThreadStore(store MessageStore) ThreadOption {
	return func(t *Thread) {
		t.store = store
	}
}

// WithThreadContextProvider attaches a context provider to the thread.
func WithThreadContextProvider(cp ContextProvider) ThreadOption {
	return func(t *Thread) {
		t.contextProvider = cp
	}
}

// WithThreadConversationID starts the thread in service-managed mode with an
// existing server-side conversation.
func WithThreadConversationID(id string) ThreadOption {
	return func(t *Thread) {
		t.conversationID = id
		t.modeLocked = true
	}
}

// NewThread creates a new Thread with a generated ID.
func NewThread(opts ...ThreadOption) *Thread {
	t := &Thread{
		id: uuid.NewString(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ID returns the thread's unique identifier.
func (t *Thread) ID() string { return t.id }

// ConversationID returns the service-managed conversation ID, or empty if
// locally managed.
func (t *Thread) ConversationID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conversationID
}

// SetConversationID locks the thread into service-managed mode.
// Returns ErrThreadModeLocked if the thread is already in local mode.
func (t *Thread) SetConversationID(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.modeLocked && t.store != nil {
		return fmt.Errorf("%w: cannot switch to service mode", ErrThreadModeLocked)
	}
	t.conversationID = id
	t.modeLocked = true
	return nil
}

// Store returns the local message store, or nil if service-managed.
func (t *Thread) Store() MessageStore {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.store
}

// SetStore locks the thread into locally-managed mode.
// Returns ErrThreadModeLocked if the thread is already in service mode.
func (t *Thread) SetStore(store MessageStore) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.modeLocked && t.conversationID != "" {
		return fmt.Errorf("%w: cannot switch to local mode", ErrThreadModeLocked)
	}
	t.store = store
	t.modeLocked = true
	return nil
}

// ContextProvider returns the thread's context provider, if any.
func (t *Thread) ContextProvider() ContextProvider { return t.contextProvider }

// Serialize returns the thread state as a serializable map.
func (t *Thread) Serialize() (map[string]any, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	state := map[string]any{
		"id": t.id,
	}
	if t.conversationID != "" {
		state["conversationId"] = t.conversationID
	}
	if t.store != nil {
		storeState, err := t.store.Serialize()
		if err != nil {
			return nil, fmt.Errorf("serialize store: %w", err)
		}
		state["store"] = storeState
	}
	return state, nil
}
