// Package history defines the append-only audit trail for action
// mutations. Entries are never edited or deleted after the fact.
package history

import "time"

// Operation is the kind of mutation an entry records.
type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpClose  Operation = "close"
	OpMerge  Operation = "merge"
)

// MaxSourceTextLen bounds the stored excerpt of the message that
// triggered a mutation.
const MaxSourceTextLen = 200

// Entry records a single mutation of an action.
type Entry struct {
	ID              int64          `json:"id"`
	ActionID        int64          `json:"action_id"`
	Operation       Operation      `json:"operation"`
	Payload         map[string]any `json:"payload,omitempty"`
	SourceMessageID string         `json:"source_message_id,omitempty"`
	SourceText      string         `json:"source_text,omitempty"`
	Actor           string         `json:"actor"`
	CreatedAt       time.Time      `json:"created_at"`
}

// TruncateSource bounds s to MaxSourceTextLen.
func TruncateSource(s string) string {
	if len(s) > MaxSourceTextLen {
		return s[:MaxSourceTextLen]
	}
	return s
}

// Summary is an aggregate view over one action's history, recomputed
// fresh on every read. Cost is bounded by the action's history length.
type Summary struct {
	TotalOperations int               `json:"total_operations"`
	OperationCounts map[Operation]int `json:"operation_counts"`
	SourceMessages  []string          `json:"source_messages"`
	Actors          []string          `json:"actors"`
	FirstOperation  *Entry            `json:"first_operation,omitempty"`
	LastOperation   *Entry            `json:"last_operation,omitempty"`
}

// Summarize aggregates entries that are ordered newest-first, as
// returned by Store.ListByAction.
func Summarize(entries []Entry) Summary {
	s := Summary{
		TotalOperations: len(entries),
		OperationCounts: make(map[Operation]int),
		SourceMessages:  []string{},
		Actors:          []string{},
	}

	seenMsg := make(map[string]struct{})
	seenActor := make(map[string]struct{})

	for i := range entries {
		e := entries[i]
		s.OperationCounts[e.Operation]++

		if e.SourceMessageID != "" {
			if _, ok := seenMsg[e.SourceMessageID]; !ok {
				seenMsg[e.SourceMessageID] = struct{}{}
				s.SourceMessages = append(s.SourceMessages, e.SourceMessageID)
			}
		}
		if _, ok := seenActor[e.Actor]; !ok {
			seenActor[e.Actor] = struct{}{}
			s.Actors = append(s.Actors, e.Actor)
		}
	}

	if len(entries) > 0 {
		s.LastOperation = &entries[0]
		s.FirstOperation = &entries[len(entries)-1]
	}

	return s
}
