package history

import "context"

// Store defines the interface for audit trail persistence. The store
// is append-only: there is no update or delete.
type Store interface {
	// Add appends an entry and returns its ID. The store populates
	// ID and CreatedAt if not already set.
	Add(ctx context.Context, e *Entry) (int64, error)

	// ListByAction returns all entries for an action, newest first.
	ListByAction(ctx context.Context, actionID int64) ([]Entry, error)
}
