// Package message defines raw chat messages awaiting extraction.
package message

import (
	"context"
	"time"
)

// Message is a single inbound chat turn. MessageID is the external
// transport identifier and is unique; replays of the same ID are
// ignored on save.
type Message struct {
	ID             int64     `json:"id"`
	MessageID      string    `json:"message_id"`
	ConversationID string    `json:"conversation_id"`
	Sender         string    `json:"sender"`
	Text           string    `json:"text"`
	ReceivedAt     time.Time `json:"received_at"`
	Processed      bool      `json:"processed"`
}

// Store defines the interface for message persistence.
type Store interface {
	// Save persists a message, ignoring duplicates by MessageID.
	// The returned boolean reports whether the row was newly inserted.
	Save(ctx context.Context, m *Message) (bool, error)

	// MarkProcessed flags a message as handled by extraction.
	MarkProcessed(ctx context.Context, messageID string) error

	// ListUnprocessed returns unhandled messages for a conversation,
	// oldest first.
	ListUnprocessed(ctx context.Context, conversationID string) ([]Message, error)
}
