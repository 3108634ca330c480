// Package sqlite is a storage.Storer backed by a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/agentstream/pkg/llm"
	"github.com/papercomputeco/agentstream/pkg/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	seq             INTEGER PRIMARY KEY AUTOINCREMENT,
	conversation_id TEXT NOT NULL,
	message_id      TEXT NOT NULL,
	role            TEXT NOT NULL,
	parts           TEXT NOT NULL,
	metadata        TEXT NOT NULL,
	UNIQUE (conversation_id, message_id)
);
CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages (conversation_id, seq);
`

// Driver is a SQLite storage.Storer. Parts and metadata are stored as JSON;
// messages keep the position of their first insert.
type Driver struct {
	db *sql.DB
}

var _ storage.Storer = (*Driver)(nil)

// NewDriver opens (creating if needed) the database at path. Use ":memory:"
// for an in-memory database.
func NewDriver(ctx context.Context, path string) (*Driver, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("could not open sqlite database: %w", err)
	}

	// Every connection to ":memory:" is its own database.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create schema: %w", err)
	}

	return &Driver{db: db}, nil
}

func (d *Driver) Append(ctx context.Context, conversationID string, msg llm.ChatMessage) error {
	parts, err := json.Marshal(msg.Parts)
	if err != nil {
		return fmt.Errorf("marshal parts: %w", err)
	}
	metadata, err := json.Marshal(msg.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO messages (conversation_id, message_id, role, parts, metadata)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (conversation_id, message_id) DO UPDATE SET
			role = excluded.role,
			parts = excluded.parts,
			metadata = excluded.metadata`,
		conversationID, msg.ID, msg.Role, string(parts), string(metadata),
	)
	if err != nil {
		return fmt.Errorf("storing message %s: %w", msg.ID, err)
	}

	return nil
}

func (d *Driver) Messages(ctx context.Context, conversationID string) ([]llm.ChatMessage, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT message_id, role, parts, metadata
		FROM messages
		WHERE conversation_id = ?
		ORDER BY seq`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []llm.ChatMessage
	for rows.Next() {
		var (
			msg             llm.ChatMessage
			parts, metadata string
		)
		if err := rows.Scan(&msg.ID, &msg.Role, &parts, &metadata); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if err := json.Unmarshal([]byte(parts), &msg.Parts); err != nil {
			return nil, fmt.Errorf("unmarshal parts of %s: %w", msg.ID, err)
		}
		if err := json.Unmarshal([]byte(metadata), &msg.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata of %s: %w", msg.ID, err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	if len(messages) == 0 {
		return nil, storage.ErrNotFound{ConversationID: conversationID}
	}
	return messages, nil
}

func (d *Driver) Conversations(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT conversation_id
		FROM messages
		GROUP BY conversation_id
		ORDER BY MIN(seq)`)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func (d *Driver) Close() error {
	return d.db.Close()
}
