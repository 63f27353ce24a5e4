package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/warmline/internal/domain/conversation"
	"github.com/rpggio/warmline/internal/repository"
)

func TestConversationRepository_AppendAssignsSequence(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewConversationRepository(db)
	insertCall(t, db, "c1", "r1")

	for i, text := range []string{"hi", "hello", "I need help"} {
		entry := &conversation.Entry{
			CallID:    "c1",
			Speaker:   "caller-1",
			Text:      text,
			CreatedAt: time.Now().UTC(),
		}
		seq, err := repo.Append(ctx, entry)
		require.NoError(t, err)
		require.Equal(t, int64(i+1), seq)
		require.Equal(t, seq, entry.Seq)
	}
}

func TestConversationRepository_SequencesPerCall(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewConversationRepository(db)
	insertCall(t, db, "c1", "r1")
	insertCall(t, db, "c2", "r2")

	now := time.Now().UTC()
	seq, err := repo.Append(ctx, &conversation.Entry{CallID: "c1", Speaker: "s", Text: "a", CreatedAt: now})
	require.NoError(t, err)
	require.Equal(t, int64(1), seq)

	// A second call starts its own sequence.
	seq, err = repo.Append(ctx, &conversation.Entry{CallID: "c2", Speaker: "s", Text: "b", CreatedAt: now})
	require.NoError(t, err)
	require.Equal(t, int64(1), seq)
}

func TestConversationRepository_List(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewConversationRepository(db)
	insertCall(t, db, "c1", "r1")

	now := time.Now().UTC()
	_, err := repo.Append(ctx, &conversation.Entry{CallID: "c1", Speaker: "caller-1", Text: "hi", CreatedAt: now})
	require.NoError(t, err)
	_, err = repo.Append(ctx, &conversation.Entry{CallID: "c1", Speaker: "agent-a", Text: "hello", CreatedAt: now})
	require.NoError(t, err)

	entries, err := repo.List(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, int64(1), entries[0].Seq)
	require.Equal(t, "caller-1", entries[0].Speaker)
	require.Equal(t, int64(2), entries[1].Seq)
	require.Equal(t, "agent-a", entries[1].Speaker)
}

func TestConversationRepository_ListEmpty(t *testing.T) {
	db := NewTestDB(t)
	repo := NewConversationRepository(db)
	insertCall(t, db, "c1", "r1")

	entries, err := repo.List(context.Background(), "c1")
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestConversationRepository_AppendUnknownCall(t *testing.T) {
	db := NewTestDB(t)
	repo := NewConversationRepository(db)

	_, err := repo.Append(context.Background(), &conversation.Entry{
		CallID: "missing", Speaker: "s", Text: "a", CreatedAt: time.Now().UTC(),
	})
	require.ErrorIs(t, err, repository.ErrForeignKeyViolation)
}
