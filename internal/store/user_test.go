package store

import (
	"context"
	"testing"

	"github.com/rpggio/accord/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestUserRepository(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewUserRepository(db)

	insertUser(t, db, "alice")
	insertUser(t, db, "bob")

	u, err := repo.Get(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "User alice", u.DisplayName)

	_, err = repo.Get(ctx, "carol")
	require.ErrorIs(t, err, repository.ErrNotFound)

	users, err := repo.GetMany(ctx, []string{"alice", "bob", "carol"})
	require.NoError(t, err)
	require.Len(t, users, 2)

	err = repo.Create(ctx, u)
	require.ErrorIs(t, err, repository.ErrConflict)
}

func TestAPIKeyRepository(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewAPIKeyRepository(db)
	insertUser(t, db, "alice")

	require.NoError(t, repo.Create(ctx, "hash1", "alice", "laptop"))
	require.ErrorIs(t, repo.Create(ctx, "hash1", "alice", "again"), repository.ErrConflict)
	require.ErrorIs(t, repo.Create(ctx, "hash2", "nobody", ""), repository.ErrForeignKeyViolation)

	userID, err := repo.ResolveUser(ctx, "hash1")
	require.NoError(t, err)
	require.Equal(t, "alice", userID)

	var lastUsed *int64
	require.NoError(t, db.QueryRow("SELECT last_used FROM api_keys WHERE key_hash = ?", "hash1").Scan(&lastUsed))
	require.NotNil(t, lastUsed)

	_, err = repo.ResolveUser(ctx, "unknown")
	require.ErrorIs(t, err, repository.ErrNotFound)
}
