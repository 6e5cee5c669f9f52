package docket

import (
	"context"
	"sync"
	"testing"

	"github.com/hay-kot/docket/internal/core/action"
	"github.com/hay-kot/docket/internal/core/extract"
	"github.com/hay-kot/docket/internal/core/history"
	"github.com/hay-kot/docket/internal/core/match"
	"github.com/hay-kot/docket/internal/data/db"
	"github.com/hay-kot/docket/internal/data/stores"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	actions    *stores.ActionStore
	audit      *stores.HistoryStore
	messages   *stores.MessageStore
	extractor  *extract.Extractor
	reconciler *Reconciler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	database, err := db.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	actions := stores.NewActionStore(database)
	audit := stores.NewHistoryStore(database)

	return &testEnv{
		actions:    actions,
		audit:      audit,
		messages:   stores.NewMessageStore(database),
		extractor:  extract.New("rm", "client"),
		reconciler: NewReconciler(actions, audit, match.NewScorer(),
			match.DefaultHighConfidence, match.DefaultTentative, zerolog.Nop()),
	}
}

func (e *testEnv) extract(t *testing.T, text, sender string) action.Candidate {
	t.Helper()
	c, ok := e.extractor.Extract(text, sender)
	require.True(t, ok, "text %q did not extract", text)
	return c
}

func TestReconciler_CreatesOpenAction(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	c := env.extract(t, "Please send your PAN card document", "rm")

	counts, err := env.reconciler.Process(ctx, []action.Candidate{c},
		"client-1", "conv-1", "msg-1", "Please send your PAN card document")
	require.NoError(t, err)
	assert.Equal(t, Counts{Created: 1}, counts)

	open, err := env.actions.ListOpen(ctx, "client-1")
	require.NoError(t, err)
	require.Len(t, open, 1)

	a := open[0]
	assert.Equal(t, action.TaskPANCard, a.TaskType)
	assert.Equal(t, "pan_card_pdf_client", a.TaskKey)
	assert.Equal(t, "client", a.Owner)
	assert.Equal(t, action.StatusOpen, a.Status)

	entries, err := env.audit.ListByAction(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, history.OpCreate, entries[0].Operation)
	assert.Equal(t, "msg-1", entries[0].SourceMessageID)
	assert.Equal(t, SystemActor, entries[0].Actor)
	assert.Equal(t, "open", entries[0].Payload["status"])
}

func TestReconciler_LowConfidenceCreatesNewAction(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	request := env.extract(t, "Please send your PAN card document", "rm")
	_, err := env.reconciler.Process(ctx, []action.Candidate{request},
		"client-1", "conv-1", "msg-1", "Please send your PAN card document")
	require.NoError(t, err)

	// The PAN value message scores 0.4 (type) + 0.2*0.735 (text) against
	// the stored request: different entities, inverted owner. That lands
	// under the tentative floor, so a second open action appears instead
	// of the original closing.
	value := env.extract(t, "My PAN number is ABCDE1234F", "client")
	counts, err := env.reconciler.Process(ctx, []action.Candidate{value},
		"client-1", "conv-1", "msg-2", "My PAN number is ABCDE1234F")
	require.NoError(t, err)
	assert.Equal(t, Counts{Created: 1}, counts)

	open, err := env.actions.ListOpen(ctx, "client-1")
	require.NoError(t, err)
	assert.Len(t, open, 2)
}

func TestReconciler_ExactMatchMergesMetadata(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first := env.extract(t, "Please send your PAN card document", "rm")
	_, err := env.reconciler.Process(ctx, []action.Candidate{first},
		"client-1", "conv-1", "msg-1", "Please send your PAN card document")
	require.NoError(t, err)

	// Same task key, richer metadata.
	second := action.Candidate{
		TaskType: action.TaskPANCard,
		TaskText: "Provide PAN card document",
		Owner:    "client",
		Metadata: action.Metadata{
			DeliverableType: action.DeliverablePDF,
			URLs:            []string{"https://example.com/upload"},
		},
	}
	counts, err := env.reconciler.Process(ctx, []action.Candidate{second},
		"client-1", "conv-1", "msg-2", "Upload it here https://example.com/upload")
	require.NoError(t, err)
	assert.Equal(t, Counts{Updated: 1}, counts)

	open, err := env.actions.ListOpen(ctx, "client-1")
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, []string{"https://example.com/upload"}, open[0].Metadata.URLs)

	entries, err := env.audit.ListByAction(ctx, open[0].ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, history.OpUpdate, entries[0].Operation)
}

func TestReconciler_ClosedHintClosesMatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	request := env.extract(t, "Please send your PAN card document", "rm")
	_, err := env.reconciler.Process(ctx, []action.Candidate{request},
		"client-1", "conv-1", "msg-1", "Please send your PAN card document")
	require.NoError(t, err)

	done := action.Candidate{
		TaskType:   action.TaskPANCard,
		TaskText:   "Provide PAN card document",
		Owner:      "client",
		StatusHint: action.HintClosed,
		Metadata:   action.Metadata{DeliverableType: action.DeliverablePDF},
	}
	counts, err := env.reconciler.Process(ctx, []action.Candidate{done},
		"client-1", "conv-1", "msg-2", "I have uploaded the PAN card pdf")
	require.NoError(t, err)
	assert.Equal(t, Counts{Closed: 1}, counts)

	open, err := env.actions.ListOpen(ctx, "client-1")
	require.NoError(t, err)
	assert.Empty(t, open)

	all, err := env.actions.List(ctx, action.ListFilter{ClientID: "client-1"})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, action.StatusClosed, all[0].Status)

	entries, err := env.audit.ListByAction(ctx, all[0].ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, history.OpClose, entries[0].Operation)
	assert.Equal(t, "closed", entries[0].Payload["status"])
}

func TestReconciler_HighConfidenceFuzzyUpdates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	request := env.extract(t, "Please send your PAN card document", "rm")
	_, err := env.reconciler.Process(ctx, []action.Candidate{request},
		"client-1", "conv-1", "msg-1", "Please send your PAN card document")
	require.NoError(t, err)

	// A PAN number changes the task key, but everything else agrees:
	// type, owner, deliverable, text. The fuzzy score reaches 1.0 and
	// the candidate folds into the existing action.
	c := action.Candidate{
		TaskType: action.TaskPANCard,
		TaskText: "Provide PAN card document",
		Owner:    "client",
		Metadata: action.Metadata{
			PANNumber:       "ABCDE1234F",
			DeliverableType: action.DeliverablePDF,
		},
	}
	counts, err := env.reconciler.Process(ctx, []action.Candidate{c},
		"client-1", "conv-1", "msg-2", "PAN card pdf for ABCDE1234F")
	require.NoError(t, err)
	assert.Equal(t, Counts{Updated: 1}, counts)

	open, err := env.actions.ListOpen(ctx, "client-1")
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "ABCDE1234F", open[0].Metadata.PANNumber)
	assert.Equal(t, "pan_card_pdf_client", open[0].TaskKey, "task key is not rewritten on update")
}

func TestReconciler_MidConfidenceCreatesTentative(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	request := env.extract(t, "Please send your PAN card document", "rm")
	_, err := env.reconciler.Process(ctx, []action.Candidate{request},
		"client-1", "conv-1", "msg-1", "Please send your PAN card document")
	require.NoError(t, err)

	// Same type and owner, diverging entities and text:
	// 0.4 + 0 + 0.2*0.735 + 0.1 = 0.647, between the two thresholds.
	c := action.Candidate{
		TaskType: action.TaskPANCard,
		TaskText: "Provide PAN card document (number required)",
		Owner:    "client",
		Metadata: action.Metadata{
			PANNumber:       "ABCDE1234F",
			DeliverableType: action.DeliverableNumber,
		},
	}
	counts, err := env.reconciler.Process(ctx, []action.Candidate{c},
		"client-1", "conv-1", "msg-2", "PAN number ABCDE1234F")
	require.NoError(t, err)
	assert.Equal(t, Counts{Tentative: 1}, counts)

	tentative, err := env.actions.List(ctx, action.ListFilter{
		ClientID: "client-1",
		Status:   action.StatusTentative,
	})
	require.NoError(t, err)
	require.Len(t, tentative, 1)

	entries, err := env.audit.ListByAction(ctx, tentative[0].ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, history.OpCreate, entries[0].Operation)
	assert.Equal(t, "low confidence match", entries[0].Payload["reason"])
}

func TestReconciler_SnapshotNotRefreshedWithinBatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	c := env.extract(t, "Please send your PAN card document", "rm")

	// Two identical candidates in one batch both score against the
	// snapshot taken before either was written, so both create.
	counts, err := env.reconciler.Process(ctx, []action.Candidate{c, c},
		"client-1", "conv-1", "msg-1", "Please send your PAN card document")
	require.NoError(t, err)
	assert.Equal(t, Counts{Created: 2}, counts)

	open, err := env.actions.ListOpen(ctx, "client-1")
	require.NoError(t, err)
	assert.Len(t, open, 2)
}

// gateStore blocks ListOpen until every expected caller has taken its
// snapshot, forcing the cross-batch interleaving that produces
// duplicates.
type gateStore struct {
	mu      sync.Mutex
	gate    *sync.WaitGroup
	actions []action.Action
	nextID  int64
}

var _ action.Store = (*gateStore)(nil)

func (g *gateStore) Create(_ context.Context, a *action.Action) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextID++
	a.ID = g.nextID
	g.actions = append(g.actions, *a)
	return a.ID, nil
}

func (g *gateStore) Get(_ context.Context, id int64) (action.Action, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, a := range g.actions {
		if a.ID == id {
			return a, nil
		}
	}
	return action.Action{}, action.ErrNotFound
}

func (g *gateStore) ListOpen(_ context.Context, _ string) ([]action.Action, error) {
	g.mu.Lock()
	snapshot := append([]action.Action(nil), g.actions...)
	g.mu.Unlock()

	g.gate.Done()
	g.gate.Wait()
	return snapshot, nil
}

func (g *gateStore) Update(_ context.Context, id int64, _ action.Patch) error {
	return nil
}

func (g *gateStore) List(_ context.Context, _ action.ListFilter) ([]action.Action, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]action.Action(nil), g.actions...), nil
}

type nopAudit struct{}

func (nopAudit) Add(_ context.Context, e *history.Entry) (int64, error) { return 1, nil }
func (nopAudit) ListByAction(_ context.Context, _ int64) ([]history.Entry, error) {
	return nil, nil
}

func TestReconciler_ConcurrentBatchesCreateDuplicates(t *testing.T) {
	var gate sync.WaitGroup
	gate.Add(2)

	store := &gateStore{gate: &gate}
	rec := NewReconciler(store, nopAudit{}, match.NewScorer(),
		match.DefaultHighConfidence, match.DefaultTentative, zerolog.Nop())

	c := action.Candidate{
		TaskType: action.TaskPANCard,
		TaskText: "Provide PAN card document",
		Owner:    "client",
		Metadata: action.Metadata{DeliverableType: action.DeliverablePDF},
	}

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := rec.Process(context.Background(), []action.Candidate{c},
				"client-1", "conv-1", "msg", "text")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// Both batches snapshotted before either wrote, so the same task
	// key exists twice. Admin merge is the documented repair path.
	all, err := store.List(context.Background(), action.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, all[0].TaskKey, all[1].TaskKey)
}

// ghostStore reports an open action that no longer exists on Get,
// simulating a delete racing the snapshot.
type ghostStore struct {
	gateStore
	ghost action.Action
}

func (g *ghostStore) ListOpen(_ context.Context, _ string) ([]action.Action, error) {
	return []action.Action{g.ghost}, nil
}

func (g *ghostStore) Get(_ context.Context, _ int64) (action.Action, error) {
	return action.Action{}, action.ErrNotFound
}

func TestReconciler_VanishedMatchIsSkipped(t *testing.T) {
	store := &ghostStore{ghost: action.Action{
		ID:      42,
		TaskKey: "pan_card_pdf_client",
	}}
	rec := NewReconciler(store, nopAudit{}, match.NewScorer(),
		match.DefaultHighConfidence, match.DefaultTentative, zerolog.Nop())

	c := action.Candidate{
		TaskType: action.TaskPANCard,
		TaskText: "Provide PAN card document",
		Owner:    "client",
		Metadata: action.Metadata{DeliverableType: action.DeliverablePDF},
	}

	counts, err := rec.Process(context.Background(), []action.Candidate{c},
		"client-1", "conv-1", "msg-1", "text")
	require.NoError(t, err)
	assert.Equal(t, Counts{}, counts)
}
