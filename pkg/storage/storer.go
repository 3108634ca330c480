// Package storage persists the completed messages of a conversation.
package storage

import (
	"context"

	"github.com/papercomputeco/agentstream/pkg/llm"
)

// Storer defines the interface for persisting and retrieving the message
// lists of conversations from a storage backend.
type Storer interface {
	// Append adds a message to the end of a conversation, creating the
	// conversation if needed. A message whose id is already stored in the
	// conversation replaces the stored one in place.
	Append(ctx context.Context, conversationID string, msg llm.ChatMessage) error

	// Messages returns a conversation's messages in order. Returns
	// ErrNotFound if the conversation doesn't exist.
	Messages(ctx context.Context, conversationID string) ([]llm.ChatMessage, error)

	// Conversations returns the ids of all stored conversations.
	Conversations(ctx context.Context) ([]string, error)

	// Close closes the store and releases any resources.
	Close() error
}

// ErrNotFound is returned when a conversation doesn't exist in the store.
type ErrNotFound struct {
	ConversationID string
}

func (e ErrNotFound) Error() string {
	if e.ConversationID == "" {
		return "conversation not found"
	}

	return "conversation not found: " + e.ConversationID
}
