package stores

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hay-kot/docket/internal/core/action"
	"github.com/hay-kot/docket/internal/data/db"
)

const defaultListLimit = 100

// ActionStore implements action.Store using SQLite.
type ActionStore struct {
	db *db.DB
}

var _ action.Store = (*ActionStore)(nil)

// NewActionStore creates a new SQLite-backed action store.
func NewActionStore(db *db.DB) *ActionStore {
	return &ActionStore{db: db}
}

const actionColumns = `id, client_id, conversation_id, task_type, task_text, task_key, owner, status, metadata, created_at, updated_at`

// Create persists a new action and sets its ID, CreatedAt, and UpdatedAt.
func (s *ActionStore) Create(ctx context.Context, a *action.Action) (int64, error) {
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	metadata, err := json.Marshal(a.Metadata)
	if err != nil {
		return 0, fmt.Errorf("marshal metadata: %w", err)
	}

	res, err := s.db.Conn().ExecContext(ctx, `
		INSERT INTO actions
			(client_id, conversation_id, task_type, task_text, task_key, owner, status, metadata, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		a.ClientID, a.ConversationID, string(a.TaskType), a.TaskText, a.TaskKey,
		a.Owner, string(a.Status), string(metadata), a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert action: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("resolve action id: %w", err)
	}
	a.ID = id
	return id, nil
}

// Get retrieves an action by ID. Returns action.ErrNotFound if absent.
func (s *ActionStore) Get(ctx context.Context, id int64) (action.Action, error) {
	row := s.db.Conn().QueryRowContext(ctx,
		`SELECT `+actionColumns+` FROM actions WHERE id = ?`, id)

	a, err := scanAction(row)
	if IsNotFoundError(err) {
		return action.Action{}, action.ErrNotFound
	}
	if err != nil {
		return action.Action{}, fmt.Errorf("get action: %w", err)
	}
	return a, nil
}

// ListOpen returns the matching snapshot for a client: open and
// tentative actions, newest first.
func (s *ActionStore) ListOpen(ctx context.Context, clientID string) ([]action.Action, error) {
	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT `+actionColumns+` FROM actions
		WHERE client_id = ? AND status IN (?, ?)
		ORDER BY created_at DESC`,
		clientID, string(action.StatusOpen), string(action.StatusTentative),
	)
	if err != nil {
		return nil, fmt.Errorf("list open actions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectActions(rows)
}

// Update applies a partial update. Returns action.ErrNotFound if the
// row does not exist.
func (s *ActionStore) Update(ctx context.Context, id int64, patch action.Patch) error {
	if patch.IsZero() {
		return nil
	}

	set := []string{}
	args := []any{}

	if patch.TaskText != nil {
		set = append(set, "task_text = ?")
		args = append(args, *patch.TaskText)
	}
	if patch.TaskKey != nil {
		set = append(set, "task_key = ?")
		args = append(args, *patch.TaskKey)
	}
	if patch.Owner != nil {
		set = append(set, "owner = ?")
		args = append(args, *patch.Owner)
	}
	if patch.Status != nil {
		set = append(set, "status = ?")
		args = append(args, string(*patch.Status))
	}
	if patch.Metadata != nil {
		metadata, err := json.Marshal(*patch.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
		set = append(set, "metadata = ?")
		args = append(args, string(metadata))
	}

	set = append(set, "updated_at = ?")
	args = append(args, time.Now().UTC(), id)

	res, err := s.db.Conn().ExecContext(ctx,
		`UPDATE actions SET `+strings.Join(set, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update action: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return action.ErrNotFound
	}
	return nil
}

// List returns actions matching the filter, most recently updated first.
func (s *ActionStore) List(ctx context.Context, filter action.ListFilter) ([]action.Action, error) {
	q := strings.Builder{}
	q.WriteString(`SELECT ` + actionColumns + ` FROM actions WHERE 1=1`)
	args := []any{}

	if filter.ClientID != "" {
		q.WriteString(" AND client_id = ?")
		args = append(args, filter.ClientID)
	}
	if filter.Status != "" {
		q.WriteString(" AND status = ?")
		args = append(args, string(filter.Status))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	q.WriteString(" ORDER BY updated_at DESC LIMIT ?")
	args = append(args, limit)

	rows, err := s.db.Conn().QueryContext(ctx, q.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectActions(rows)
}

// scanner abstracts sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanAction(s scanner) (action.Action, error) {
	var a action.Action
	var taskType, status, metadataJSON string

	err := s.Scan(
		&a.ID, &a.ClientID, &a.ConversationID, &taskType, &a.TaskText,
		&a.TaskKey, &a.Owner, &status, &metadataJSON, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return action.Action{}, err
	}

	a.TaskType = action.TaskType(taskType)
	a.Status = action.Status(status)
	if err := json.Unmarshal([]byte(metadataJSON), &a.Metadata); err != nil {
		return action.Action{}, fmt.Errorf("decode metadata: %w", err)
	}
	return a, nil
}

func collectActions(rows *sql.Rows) ([]action.Action, error) {
	var actions []action.Action
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}
