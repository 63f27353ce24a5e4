package sqlite

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/warmline/internal/domain/call"
)

// NewTestDB creates a new in-memory SQLite database for testing. The shared
// cache keeps every pooled connection on the same database.
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := New(dsn)
	require.NoError(t, err, "failed to create test database")

	err = db.RunMigrations()
	require.NoError(t, err, "failed to run migrations")

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func insertCall(t *testing.T, db *DB, id, roomID string) {
	t.Helper()
	repo := NewCallRepository(db)
	err := repo.Create(context.Background(), &call.Call{
		ID:             id,
		CallerIdentity: "caller-1",
		RoomID:         roomID,
		Status:         call.StatusActive,
		CreatedAt:      time.Now().UTC(),
	})
	require.NoError(t, err)
}

// TestMigrations verifies that migrations run successfully
func TestMigrations(t *testing.T) {
	db := NewTestDB(t)

	tables := []string{
		"rooms",
		"calls",
		"call_agents",
		"transfers",
		"conversation_entries",
	}

	for _, table := range tables {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err, "failed to query table %s", table)
		require.Equal(t, 1, count, "table %s not found", table)
	}
}

// TestForeignKeys verifies that foreign key constraints are enabled
func TestForeignKeys(t *testing.T) {
	db := NewTestDB(t)

	var enabled int
	err := db.QueryRow("PRAGMA foreign_keys").Scan(&enabled)
	require.NoError(t, err)
	require.Equal(t, 1, enabled, "foreign keys not enabled")
}

// TestTransferStateConstraint verifies the state CHECK on transfers
func TestTransferStateConstraint(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertCall(t, db, "c1", "r1")

	_, err := db.ExecContext(ctx,
		`INSERT INTO transfers (id, call_id, agent_a, agent_b, state) VALUES (?, ?, ?, ?, ?)`,
		"t1", "c1", "a1", "b1", "teleporting")
	require.Error(t, err, "should fail with invalid state")
}
