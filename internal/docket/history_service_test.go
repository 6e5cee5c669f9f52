package docket

import (
	"context"
	"testing"

	"github.com/hay-kot/docket/internal/core/action"
	"github.com/hay-kot/docket/internal/core/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHistoryService(t *testing.T) (*HistoryService, *testEnv) {
	t.Helper()
	env := newTestEnv(t)
	return NewHistoryService(env.actions, env.audit), env
}

func TestHistoryService_History(t *testing.T) {
	svc, env := newTestHistoryService(t)
	ctx := context.Background()

	a := createAction(t, env, "client-1", action.Metadata{})
	for _, op := range []history.Operation{history.OpCreate, history.OpUpdate} {
		_, err := env.audit.Add(ctx, &history.Entry{
			ActionID:  a.ID,
			Operation: op,
			Actor:     SystemActor,
		})
		require.NoError(t, err)
	}

	entries, err := svc.History(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, history.OpUpdate, entries[0].Operation)
}

func TestHistoryService_HistoryActionNotFound(t *testing.T) {
	svc, _ := newTestHistoryService(t)

	_, err := svc.History(context.Background(), 999)
	assert.ErrorIs(t, err, action.ErrNotFound)
}

func TestHistoryService_Latest(t *testing.T) {
	svc, env := newTestHistoryService(t)
	ctx := context.Background()

	a := createAction(t, env, "client-1", action.Metadata{})

	// An action written outside the reconciler can have no history yet.
	latest, err := svc.Latest(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, latest)

	_, err = env.audit.Add(ctx, &history.Entry{ActionID: a.ID, Operation: history.OpCreate, Actor: SystemActor})
	require.NoError(t, err)
	_, err = env.audit.Add(ctx, &history.Entry{ActionID: a.ID, Operation: history.OpClose, Actor: "admin"})
	require.NoError(t, err)

	latest, err = svc.Latest(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, history.OpClose, latest.Operation)
}

func TestHistoryService_Summary(t *testing.T) {
	svc, env := newTestHistoryService(t)
	ctx := context.Background()

	a := createAction(t, env, "client-1", action.Metadata{})
	for _, e := range []history.Entry{
		{ActionID: a.ID, Operation: history.OpCreate, SourceMessageID: "msg-1", Actor: SystemActor},
		{ActionID: a.ID, Operation: history.OpUpdate, SourceMessageID: "msg-2", Actor: SystemActor},
		{ActionID: a.ID, Operation: history.OpClose, Actor: "admin"},
	} {
		e := e
		_, err := env.audit.Add(ctx, &e)
		require.NoError(t, err)
	}

	summary, err := svc.Summary(ctx, a.ID)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.TotalOperations)
	assert.Equal(t, map[history.Operation]int{
		history.OpCreate: 1,
		history.OpUpdate: 1,
		history.OpClose:  1,
	}, summary.OperationCounts)
	assert.ElementsMatch(t, []string{"msg-1", "msg-2"}, summary.SourceMessages)
	assert.ElementsMatch(t, []string{SystemActor, "admin"}, summary.Actors)
	require.NotNil(t, summary.FirstOperation)
	assert.Equal(t, history.OpCreate, summary.FirstOperation.Operation)
	require.NotNil(t, summary.LastOperation)
	assert.Equal(t, history.OpClose, summary.LastOperation.Operation)
}
