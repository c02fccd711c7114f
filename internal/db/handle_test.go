package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablevc/tablevc/internal/models"
	"github.com/tablevc/tablevc/internal/store"
)

func setupTestRepository(t *testing.T) *Repository {
	t.Helper()

	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, st.Initialize())
	t.Cleanup(func() { st.Close() })

	return NewRepository(st, "tester <tester@localhost>")
}

func TestRepository_ListBranches(t *testing.T) {
	r := setupTestRepository(t)

	current, branches, err := r.ListBranches(context.Background())
	require.NoError(t, err)
	assert.Equal(t, store.DefaultBranch, current)
	require.Len(t, branches, 1)
	assert.True(t, branches[0].IsCurrent)
}

func TestRepository_CheckoutForksFromCurrent(t *testing.T) {
	r := setupTestRepository(t)
	ctx := context.Background()

	require.NoError(t, r.ImportRows(ctx, "users", models.RowSet{{"id": float64(1)}}, []string{"id"}, models.ImportCreate))

	require.NoError(t, r.Checkout(ctx, "feature", true))

	current, _, err := r.ListBranches(ctx)
	require.NoError(t, err)
	assert.Equal(t, "feature", current)

	// Fork carries the source branch's tables
	rows, err := r.ReadTable(ctx, "users")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestRepository_CommitStagesAndAttributesAuthor(t *testing.T) {
	r := setupTestRepository(t)
	ctx := context.Background()

	require.NoError(t, r.ImportRows(ctx, "users", models.RowSet{{"id": float64(1)}}, []string{"id"}, models.ImportCreate))

	commit, err := r.Commit(ctx, "users", "first import")
	require.NoError(t, err)
	assert.Equal(t, "tester <tester@localhost>", commit.Author)
	assert.Equal(t, "first import", commit.Message)

	entries, err := r.Log(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, commit.Hash, entries[0].Hash)
}

func TestRepository_CommitUnknownTable(t *testing.T) {
	r := setupTestRepository(t)

	_, err := r.Commit(context.Background(), "ghost", "msg")
	assert.ErrorIs(t, err, store.ErrTableNotFound)
}

func TestRepository_OperationsTargetCurrentBranch(t *testing.T) {
	r := setupTestRepository(t)
	ctx := context.Background()

	require.NoError(t, r.Checkout(ctx, "feature", true))
	require.NoError(t, r.ImportRows(ctx, "users", models.RowSet{{"id": float64(1)}}, []string{"id"}, models.ImportCreate))
	require.NoError(t, r.Checkout(ctx, store.DefaultBranch, false))

	// The table exists only on the feature branch
	tables, err := r.ListTables(ctx)
	require.NoError(t, err)
	assert.Empty(t, tables)

	_, err = r.ReadTable(ctx, "users")
	assert.ErrorIs(t, err, store.ErrTableNotFound)
}

func TestRepository_CancelledContext(t *testing.T) {
	r := setupTestRepository(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := r.ListBranches(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	err = r.Checkout(ctx, "feature", true)
	assert.ErrorIs(t, err, context.Canceled)
}
