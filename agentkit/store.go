// Copyright (c) Microsoft. All rights reserved.

package agentkit

import (
	"context"
	"sync"
)

// MessageStore persists conversation messages for a [Thread].
type MessageStore interface {
	// ListMessages returns all stored messages in order.
	ListMessages(ctx context.Context) ([]Message, error)

	// AddMessages appends messages to the store.
	AddMessages(ctx context.Context, msgs []Message) error

	// Serialize returns the store's state as a serializable map.
	Serialize() (map[string]any, error)
}

// InMemoryStore is a simple in-memory [MessageStore], safe for concurrent use.
type InMemoryStore struct {
	mu       sync.Mutex
	messages []Message
}

// NewInMemoryStore creates an empty [InMemoryStore].
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) ListMessages(_ context.Context) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]Message, len(s.messages))
	copy(cp, s.messages)
	return cp, nil
}

func (s *InMemoryStore) AddMessages(_ context.Context, msgs []Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msgs...)
	return nil
}

func (s *InMemoryStore) Serialize() (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return map[string]any{
		"messages": s.messages,
	}, nil
}
