package action

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a referenced action does not exist.
	ErrNotFound = errors.New("action not found")
	// ErrCrossClientMerge is returned when a merge is attempted between
	// actions belonging to different clients. No state is changed.
	ErrCrossClientMerge = errors.New("cannot merge actions from different clients")
)

// Patch is a partial update applied to a stored action. Nil fields are
// left untouched.
type Patch struct {
	TaskText *string
	TaskKey  *string
	Owner    *string
	Status   *Status
	Metadata *Metadata
}

// IsZero reports whether the patch carries no changes.
func (p Patch) IsZero() bool {
	return p.TaskText == nil && p.TaskKey == nil && p.Owner == nil &&
		p.Status == nil && p.Metadata == nil
}

// ListFilter controls which actions are returned by List.
type ListFilter struct {
	ClientID string // empty means all clients
	Status   Status // empty means all statuses
	Limit    int    // 0 means store default
}

// Store defines the interface for action persistence.
type Store interface {
	// Create persists a new action and returns its ID. The store
	// populates ID, CreatedAt, and UpdatedAt.
	Create(ctx context.Context, a *Action) (int64, error)

	// Get returns a single action by ID.
	// Returns ErrNotFound if the action does not exist.
	Get(ctx context.Context, id int64) (Action, error)

	// ListOpen returns the client's actions with status open or
	// tentative, ordered by created_at DESC. This is the matching
	// snapshot consumed by reconciliation.
	ListOpen(ctx context.Context, clientID string) ([]Action, error)

	// Update applies a partial update and bumps updated_at.
	// Returns ErrNotFound if the action does not exist.
	Update(ctx context.Context, id int64, patch Patch) error

	// List returns actions matching the filter, ordered by
	// updated_at DESC.
	List(ctx context.Context, filter ListFilter) ([]Action, error)
}
