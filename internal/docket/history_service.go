package docket

import (
	"context"
	"fmt"

	"github.com/hay-kot/docket/internal/core/action"
	"github.com/hay-kot/docket/internal/core/history"
)

// HistoryService is the read side of the audit trail.
type HistoryService struct {
	actions action.Store
	audit   history.Store
}

// NewHistoryService creates a HistoryService.
func NewHistoryService(actions action.Store, audit history.Store) *HistoryService {
	return &HistoryService{actions: actions, audit: audit}
}

// History returns the full audit trail for an action, newest first.
// Returns action.ErrNotFound if the action does not exist.
func (s *HistoryService) History(ctx context.Context, actionID int64) ([]history.Entry, error) {
	if _, err := s.actions.Get(ctx, actionID); err != nil {
		return nil, err
	}
	entries, err := s.audit.ListByAction(ctx, actionID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return entries, nil
}

// Latest returns the most recent entry, or nil when no history exists.
func (s *HistoryService) Latest(ctx context.Context, actionID int64) (*history.Entry, error) {
	entries, err := s.History(ctx, actionID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

// Summary recomputes the aggregate view over an action's history on
// every call; nothing is cached or stored.
func (s *HistoryService) Summary(ctx context.Context, actionID int64) (history.Summary, error) {
	entries, err := s.History(ctx, actionID)
	if err != nil {
		return history.Summary{}, err
	}
	return history.Summarize(entries), nil
}
