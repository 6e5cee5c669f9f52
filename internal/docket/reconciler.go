// Package docket is the service layer: it wires the extractor, the
// scorer, and the stores into the reconciliation and administrative
// operations exposed to commands.
package docket

import (
	"context"
	"errors"
	"fmt"

	"github.com/hay-kot/docket/internal/core/action"
	"github.com/hay-kot/docket/internal/core/extract"
	"github.com/hay-kot/docket/internal/core/history"
	"github.com/hay-kot/docket/internal/core/match"
	"github.com/rs/zerolog"
)

// SystemActor is the actor recorded for reconciler-driven mutations.
const SystemActor = "system"

// Counts aggregates reconciliation outcomes for a batch.
type Counts struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Closed    int `json:"closed"`
	Tentative int `json:"tentative"`
}

// Add accumulates other into c.
func (c *Counts) Add(other Counts) {
	c.Created += other.Created
	c.Updated += other.Updated
	c.Closed += other.Closed
	c.Tentative += other.Tentative
}

// Reconciler decides create/update/close/tentative for extracted
// candidates against a client's open items and drives the audit trail.
//
// Reconciler promises nothing about concurrent callers: two batches
// for the same client processed at once can both read the same
// snapshot and create duplicate actions. Callers needing strict
// per-client consistency must serialize externally.
type Reconciler struct {
	actions        action.Store
	audit          history.Store
	scorer         *match.Scorer
	highConfidence float64
	tentative      float64
	log            zerolog.Logger
}

// NewReconciler creates a Reconciler with the given decision thresholds.
func NewReconciler(actions action.Store, audit history.Store, scorer *match.Scorer, highConfidence, tentative float64, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		actions:        actions,
		audit:          audit,
		scorer:         scorer,
		highConfidence: highConfidence,
		tentative:      tentative,
		log:            log.With().Str("component", "reconciler").Logger(),
	}
}

// Process reconciles a batch of candidates from one source message.
//
// The client's open+tentative snapshot is fetched once for the whole
// batch and never refreshed, so two candidates from the same message
// can only match previously persisted actions, not each other.
// Tentative actions stay in the snapshot: a later exact match can
// update or close one without review.
//
// Each candidate performs exactly one action write followed by one
// audit write. A failed action write leaves no orphan history entry;
// a failed audit write after a successful action write leaves an
// un-audited mutation (known gap, requires transactional pairing to
// harden).
func (r *Reconciler) Process(ctx context.Context, candidates []action.Candidate, clientID, conversationID, sourceMessageID, sourceText string) (Counts, error) {
	var counts Counts

	snapshot, err := r.actions.ListOpen(ctx, clientID)
	if err != nil {
		return counts, fmt.Errorf("fetch open actions: %w", err)
	}

	for _, c := range candidates {
		taskKey := extract.TaskKey(c)
		result := r.scorer.BestMatch(c, taskKey, snapshot)

		r.log.Debug().
			Str("client_id", clientID).
			Str("task_key", taskKey).
			Str("match_type", string(result.Type)).
			Float64("confidence", result.Confidence).
			Msg("candidate scored")

		switch {
		case result.Type == match.TypeExact,
			result.Type == match.TypeFuzzy && result.Confidence >= r.highConfidence:
			err = r.updateExisting(ctx, result.ActionID, c, sourceMessageID, sourceText, &counts)
		case result.Type == match.TypeFuzzy && result.Confidence >= r.tentative:
			err = r.create(ctx, c, taskKey, action.StatusTentative, clientID, conversationID, sourceMessageID, sourceText, &counts)
		default:
			err = r.create(ctx, c, taskKey, action.StatusOpen, clientID, conversationID, sourceMessageID, sourceText, &counts)
		}
		if err != nil {
			return counts, err
		}
	}

	return counts, nil
}

// updateExisting closes the matched action when the candidate hints
// closure, otherwise merges candidate metadata into it. The modify
// and none hints intentionally share the merge path.
func (r *Reconciler) updateExisting(ctx context.Context, actionID int64, c action.Candidate, sourceMessageID, sourceText string, counts *Counts) error {
	existing, err := r.actions.Get(ctx, actionID)
	if err != nil {
		if errors.Is(err, action.ErrNotFound) {
			// Snapshot raced with an external delete; nothing to update.
			r.log.Warn().Int64("action_id", actionID).Msg("matched action vanished, skipping")
			return nil
		}
		return fmt.Errorf("load matched action: %w", err)
	}

	var patch action.Patch
	var op history.Operation
	payload := map[string]any{}

	switch c.StatusHint {
	case action.HintClosed:
		closed := action.StatusClosed
		patch.Status = &closed
		op = history.OpClose
		payload["status"] = string(action.StatusClosed)
		counts.Closed++
	default: // HintModify and HintNone take the same merge path.
		merged := existing.Metadata.Merge(c.Metadata)
		patch.Metadata = &merged
		op = history.OpUpdate
		payload["metadata"] = merged
		counts.Updated++
	}

	if err := r.actions.Update(ctx, actionID, patch); err != nil {
		return fmt.Errorf("update action %d: %w", actionID, err)
	}

	entry := history.Entry{
		ActionID:        actionID,
		Operation:       op,
		Payload:         payload,
		SourceMessageID: sourceMessageID,
		SourceText:      history.TruncateSource(sourceText),
		Actor:           SystemActor,
	}
	if _, err := r.audit.Add(ctx, &entry); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

func (r *Reconciler) create(ctx context.Context, c action.Candidate, taskKey string, status action.Status, clientID, conversationID, sourceMessageID, sourceText string, counts *Counts) error {
	a := action.Action{
		ClientID:       clientID,
		ConversationID: conversationID,
		TaskType:       c.TaskType,
		TaskText:       c.TaskText,
		TaskKey:        taskKey,
		Owner:          c.Owner,
		Status:         status,
		Metadata:       c.Metadata,
	}

	id, err := r.actions.Create(ctx, &a)
	if err != nil {
		return fmt.Errorf("create action: %w", err)
	}

	payload := map[string]any{"status": string(status)}
	switch status {
	case action.StatusTentative:
		payload["reason"] = "low confidence match"
		counts.Tentative++
	case action.StatusOpen:
		counts.Created++
	case action.StatusClosed:
		// Never created directly in closed state.
	}

	entry := history.Entry{
		ActionID:        id,
		Operation:       history.OpCreate,
		Payload:         payload,
		SourceMessageID: sourceMessageID,
		SourceText:      history.TruncateSource(sourceText),
		Actor:           SystemActor,
	}
	if _, err := r.audit.Add(ctx, &entry); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}
