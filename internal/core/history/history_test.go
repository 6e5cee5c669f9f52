package history

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncateSource(t *testing.T) {
	short := "please send your pan card"
	assert.Equal(t, short, TruncateSource(short))

	long := strings.Repeat("x", MaxSourceTextLen+50)
	got := TruncateSource(long)
	assert.Len(t, got, MaxSourceTextLen)
	assert.Equal(t, long[:MaxSourceTextLen], got)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)

	assert.Zero(t, s.TotalOperations)
	assert.Empty(t, s.OperationCounts)
	assert.Empty(t, s.SourceMessages)
	assert.Empty(t, s.Actors)
	assert.Nil(t, s.FirstOperation)
	assert.Nil(t, s.LastOperation)
}

func TestSummarize(t *testing.T) {
	// Entries arrive newest-first, matching Store.ListByAction.
	entries := []Entry{
		{ID: 3, ActionID: 1, Operation: OpClose, SourceMessageID: "msg-2", Actor: "system"},
		{ID: 2, ActionID: 1, Operation: OpUpdate, SourceMessageID: "msg-2", Actor: "system"},
		{ID: 1, ActionID: 1, Operation: OpCreate, SourceMessageID: "msg-1", Actor: "system"},
	}

	s := Summarize(entries)

	assert.Equal(t, 3, s.TotalOperations)
	assert.Equal(t, map[Operation]int{OpCreate: 1, OpUpdate: 1, OpClose: 1}, s.OperationCounts)
	assert.Equal(t, []string{"msg-2", "msg-1"}, s.SourceMessages)
	assert.Equal(t, []string{"system"}, s.Actors)

	require.NotNil(t, s.FirstOperation)
	require.NotNil(t, s.LastOperation)
	assert.Equal(t, OpCreate, s.FirstOperation.Operation)
	assert.Equal(t, OpClose, s.LastOperation.Operation)
}

func TestSummarize_SkipsBlankSourceMessages(t *testing.T) {
	entries := []Entry{
		{ID: 2, Operation: OpClose, Actor: "admin"},
		{ID: 1, Operation: OpCreate, SourceMessageID: "msg-1", Actor: "system"},
	}

	s := Summarize(entries)
	assert.Equal(t, []string{"msg-1"}, s.SourceMessages)
	assert.Equal(t, []string{"admin", "system"}, s.Actors)
}
