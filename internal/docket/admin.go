package docket

import (
	"context"
	"fmt"

	"github.com/hay-kot/docket/internal/core/action"
	"github.com/hay-kot/docket/internal/core/history"
	"github.com/rs/zerolog"
)

// Admin exposes the administrative close and merge operations used by
// external tooling. These are the only paths that terminate a
// tentative action.
type Admin struct {
	actions action.Store
	audit   history.Store
	log     zerolog.Logger
}

// NewAdmin creates an Admin service.
func NewAdmin(actions action.Store, audit history.Store, log zerolog.Logger) *Admin {
	return &Admin{
		actions: actions,
		audit:   audit,
		log:     log.With().Str("component", "admin").Logger(),
	}
}

// Close sets an action's status to closed and records the closure.
// Closing an already-closed action is a no-op, not an error: the
// returned boolean is false and no history entry is appended.
func (s *Admin) Close(ctx context.Context, actionID int64, reason, actor string) (bool, error) {
	a, err := s.actions.Get(ctx, actionID)
	if err != nil {
		return false, err
	}

	if a.Status == action.StatusClosed {
		s.log.Debug().Int64("action_id", actionID).Msg("already closed, no-op")
		return false, nil
	}

	closed := action.StatusClosed
	if err := s.actions.Update(ctx, actionID, action.Patch{Status: &closed}); err != nil {
		return false, fmt.Errorf("close action %d: %w", actionID, err)
	}

	entry := history.Entry{
		ActionID:  actionID,
		Operation: history.OpClose,
		Payload:   map[string]any{"reason": reason},
		Actor:     actor,
	}
	if _, err := s.audit.Add(ctx, &entry); err != nil {
		return false, fmt.Errorf("append audit entry: %w", err)
	}

	return true, nil
}

// Merge combines the source action's metadata into the target and
// closes the source. Both actions must belong to the same client;
// a cross-client merge is rejected with action.ErrCrossClientMerge
// before any state changes.
//
// One merge entry is logged on the target, one close entry on the
// source.
func (s *Admin) Merge(ctx context.Context, sourceID, targetID int64, reason, actor string) error {
	source, err := s.actions.Get(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("source action %d: %w", sourceID, err)
	}
	target, err := s.actions.Get(ctx, targetID)
	if err != nil {
		return fmt.Errorf("target action %d: %w", targetID, err)
	}

	if source.ClientID != target.ClientID {
		return action.ErrCrossClientMerge
	}

	merged := target.Metadata.Merge(source.Metadata)
	if err := s.actions.Update(ctx, targetID, action.Patch{Metadata: &merged}); err != nil {
		return fmt.Errorf("update merge target %d: %w", targetID, err)
	}

	closed := action.StatusClosed
	if err := s.actions.Update(ctx, sourceID, action.Patch{Status: &closed}); err != nil {
		return fmt.Errorf("close merge source %d: %w", sourceID, err)
	}

	mergeEntry := history.Entry{
		ActionID:  targetID,
		Operation: history.OpMerge,
		Payload: map[string]any{
			"source_action_id": sourceID,
			"merge_reason":     reason,
		},
		Actor: actor,
	}
	if _, err := s.audit.Add(ctx, &mergeEntry); err != nil {
		return fmt.Errorf("append merge entry: %w", err)
	}

	closeEntry := history.Entry{
		ActionID:  sourceID,
		Operation: history.OpClose,
		Payload:   map[string]any{"reason": "merged into another action"},
		Actor:     actor,
	}
	if _, err := s.audit.Add(ctx, &closeEntry); err != nil {
		return fmt.Errorf("append close entry: %w", err)
	}

	return nil
}
