package stores

import (
	"context"
	"fmt"
	"time"

	"github.com/hay-kot/docket/internal/core/message"
	"github.com/hay-kot/docket/internal/data/db"
)

// MessageStore implements message.Store using SQLite.
type MessageStore struct {
	db *db.DB
}

var _ message.Store = (*MessageStore)(nil)

// NewMessageStore creates a new SQLite-backed message store.
func NewMessageStore(db *db.DB) *MessageStore {
	return &MessageStore{db: db}
}

// Save persists a message. Replays of a known message_id are ignored
// and reported via the returned boolean.
func (s *MessageStore) Save(ctx context.Context, m *message.Message) (bool, error) {
	if m.ReceivedAt.IsZero() {
		m.ReceivedAt = time.Now().UTC()
	}

	res, err := s.db.Conn().ExecContext(ctx, `
		INSERT INTO messages
			(message_id, conversation_id, sender, text, received_at, processed)
		VALUES (?,?,?,?,?,?)`,
		m.MessageID, m.ConversationID, m.Sender, m.Text, m.ReceivedAt, m.Processed,
	)
	if IsConstraintError(err) {
		// Duplicate message_id; fetch the existing row id.
		row := s.db.Conn().QueryRowContext(ctx,
			`SELECT id FROM messages WHERE message_id = ?`, m.MessageID)
		if err := row.Scan(&m.ID); err != nil {
			return false, fmt.Errorf("resolve duplicate message: %w", err)
		}
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("insert message: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("resolve message id: %w", err)
	}
	m.ID = id
	return true, nil
}

// MarkProcessed flags a message as handled by extraction.
func (s *MessageStore) MarkProcessed(ctx context.Context, messageID string) error {
	_, err := s.db.Conn().ExecContext(ctx,
		`UPDATE messages SET processed = TRUE WHERE message_id = ?`, messageID)
	if err != nil {
		return fmt.Errorf("mark message processed: %w", err)
	}
	return nil
}

// ListUnprocessed returns unhandled messages for a conversation, oldest first.
func (s *MessageStore) ListUnprocessed(ctx context.Context, conversationID string) ([]message.Message, error) {
	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT id, message_id, conversation_id, sender, text, received_at, processed
		FROM messages
		WHERE conversation_id = ? AND processed = FALSE
		ORDER BY received_at ASC`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("list unprocessed messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var messages []message.Message
	for rows.Next() {
		var m message.Message
		err := rows.Scan(&m.ID, &m.MessageID, &m.ConversationID, &m.Sender,
			&m.Text, &m.ReceivedAt, &m.Processed)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
