package stores

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hay-kot/docket/internal/core/history"
	"github.com/hay-kot/docket/internal/data/db"
)

// HistoryStore implements history.Store using SQLite. The table is
// append-only; no update or delete statements exist here.
type HistoryStore struct {
	db *db.DB
}

var _ history.Store = (*HistoryStore)(nil)

// NewHistoryStore creates a new SQLite-backed history store.
func NewHistoryStore(db *db.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

// Add appends an entry and returns its ID.
func (s *HistoryStore) Add(ctx context.Context, e *history.Entry) (int64, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	payload := e.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal payload: %w", err)
	}

	res, err := s.db.Conn().ExecContext(ctx, `
		INSERT INTO actions_history
			(action_id, operation, payload, source_message_id, source_text, actor, created_at)
		VALUES (?,?,?,?,?,?,?)`,
		e.ActionID, string(e.Operation), string(payloadJSON),
		toNullString(e.SourceMessageID), toNullString(e.SourceText),
		e.Actor, e.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert history entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("resolve history id: %w", err)
	}
	e.ID = id
	return id, nil
}

// ListByAction returns all entries for an action, newest first.
func (s *HistoryStore) ListByAction(ctx context.Context, actionID int64) ([]history.Entry, error) {
	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT id, action_id, operation, payload, source_message_id, source_text, actor, created_at
		FROM actions_history
		WHERE action_id = ?
		ORDER BY created_at DESC, id DESC`,
		actionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []history.Entry
	for rows.Next() {
		var e history.Entry
		var op, payloadJSON string
		var sourceMessageID, sourceText sql.NullString

		err := rows.Scan(&e.ID, &e.ActionID, &op, &payloadJSON,
			&sourceMessageID, &sourceText, &e.Actor, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}

		e.Operation = history.Operation(op)
		e.SourceMessageID = sourceMessageID.String
		e.SourceText = sourceText.String
		if err := json.Unmarshal([]byte(payloadJSON), &e.Payload); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func toNullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
