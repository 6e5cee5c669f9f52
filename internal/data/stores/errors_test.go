package stores

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsNotFoundError(t *testing.T) {
	assert.True(t, IsNotFoundError(sql.ErrNoRows))
	assert.True(t, IsNotFoundError(fmt.Errorf("get row: %w", sql.ErrNoRows)))
	assert.False(t, IsNotFoundError(nil))
	assert.False(t, IsNotFoundError(errors.New("boom")))
}

func TestIsConstraintError(t *testing.T) {
	database := newTestDB(t)

	insert := func() error {
		_, err := database.Conn().Exec(`
			INSERT INTO messages (message_id, conversation_id, sender, text, received_at)
			VALUES ('msg-1', 'conv-1', 'rm', 'hello', '2026-03-01T10:00:00Z')`)
		return err
	}

	require.NoError(t, insert())

	err := insert()
	require.Error(t, err)
	assert.True(t, IsConstraintError(err))
	assert.False(t, IsNotFoundError(err))
	assert.False(t, IsBusyError(err))
}

func TestIsBusyError_NonSQLite(t *testing.T) {
	assert.False(t, IsBusyError(nil))
	assert.False(t, IsBusyError(sql.ErrNoRows))
	assert.False(t, IsBusyError(errors.New("boom")))
}
