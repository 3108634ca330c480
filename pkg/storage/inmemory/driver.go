// Package inmemory is a storage.Storer kept entirely in process memory.
package inmemory

import (
	"context"
	"slices"
	"sync"

	"github.com/papercomputeco/agentstream/pkg/llm"
	"github.com/papercomputeco/agentstream/pkg/storage"
)

// Driver is an in-memory storage.Storer. It is safe for concurrent use.
type Driver struct {
	mu            sync.RWMutex
	conversations map[string][]llm.ChatMessage
	order         []string
}

var _ storage.Storer = (*Driver)(nil)

func NewDriver() *Driver {
	return &Driver{
		conversations: map[string][]llm.ChatMessage{},
	}
}

func (d *Driver) Append(_ context.Context, conversationID string, msg llm.ChatMessage) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	messages, ok := d.conversations[conversationID]
	if !ok {
		d.order = append(d.order, conversationID)
	}

	i := slices.IndexFunc(messages, func(m llm.ChatMessage) bool { return m.ID == msg.ID })
	if i >= 0 {
		messages[i] = msg
	} else {
		messages = append(messages, msg)
	}
	d.conversations[conversationID] = messages

	return nil
}

func (d *Driver) Messages(_ context.Context, conversationID string) ([]llm.ChatMessage, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	messages, ok := d.conversations[conversationID]
	if !ok {
		return nil, storage.ErrNotFound{ConversationID: conversationID}
	}

	return slices.Clone(messages), nil
}

func (d *Driver) Conversations(_ context.Context) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return slices.Clone(d.order), nil
}

func (d *Driver) Close() error {
	return nil
}
