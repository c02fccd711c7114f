package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablevc/tablevc/internal/db"
	"github.com/tablevc/tablevc/internal/models"
)

func setupPipelines(t *testing.T) (*db.MockHandle, *MutationPipeline, *ReadPipeline) {
	t.Helper()
	h := db.NewMockHandle()
	scope := NewBranchScope()
	return h, NewMutationPipeline(h, scope), NewReadPipeline(h, scope)
}

func TestMutationPipeline_CreateTable(t *testing.T) {
	h, mutate, _ := setupPipelines(t)

	desc, err := mutate.Execute(context.Background(), &MutationRequest{
		Branch:      "feature",
		Table:       "users",
		PrimaryKeys: []string{"id"},
		Data:        models.RowSet{{"id": float64(1), "name": "a"}},
		Mode:        models.ImportCreate,
	})
	require.NoError(t, err)

	require.NotNil(t, desc)
	assert.NotEmpty(t, desc.CommitHash)
	assert.Contains(t, desc.Message, "Executed import on table users in import mode \"CREATE\"")
	assert.NotEmpty(t, desc.Author)
	assert.False(t, desc.Timestamp.IsZero())

	// Branch was forked for the mutation and restored afterwards
	assert.Contains(t, h.Branches, "feature")
	assert.Equal(t, "main", h.Current)
	assert.Len(t, h.Commits["feature"], 1)
}

func TestMutationPipeline_CreateExistingTable(t *testing.T) {
	h, mutate, _ := setupPipelines(t)
	h.Tables["main"]["users"] = models.RowSet{{"id": float64(1)}}

	_, err := mutate.Execute(context.Background(), &MutationRequest{
		Branch: "main",
		Table:  "users",
		Data:   models.RowSet{{"id": float64(2)}},
		Mode:   models.ImportCreate,
	})
	require.Error(t, err)
	assert.Equal(t, KindTableAlreadyExists, KindOf(err))

	// Refused before import: no commit was produced
	assert.Empty(t, h.Commits["main"])
	assert.NotContains(t, h.CallLog(), "import users mode=CREATE")
}

func TestMutationPipeline_UpdateMissingTable(t *testing.T) {
	h, mutate, _ := setupPipelines(t)

	_, err := mutate.Execute(context.Background(), &MutationRequest{
		Branch: "main",
		Table:  "users",
		Data:   models.RowSet{{"id": float64(1)}},
		Mode:   models.ImportUpdate,
	})
	require.Error(t, err)
	assert.Equal(t, KindTableNotFound, KindOf(err))
	assert.Empty(t, h.Commits["main"])
}

func TestMutationPipeline_UpdateCommitMessage(t *testing.T) {
	h, mutate, _ := setupPipelines(t)
	h.Tables["main"]["users"] = models.RowSet{{"id": float64(1), "name": "a"}}
	h.Keys["main"]["users"] = []string{"id"}

	desc, err := mutate.Execute(context.Background(), &MutationRequest{
		Branch: "main",
		Table:  "users",
		Data:   models.RowSet{{"id": float64(1), "name": "b"}},
		Mode:   models.ImportUpdate,
	})
	require.NoError(t, err)
	assert.Contains(t, desc.Message, "import mode \"UPDATE\"")

	assert.Equal(t, models.RowSet{{"id": float64(1), "name": "b"}}, h.Tables["main"]["users"])
}

func TestReadPipeline_RoundTrip(t *testing.T) {
	h, mutate, read := setupPipelines(t)

	data := models.RowSet{
		{"id": float64(1), "name": "a"},
		{"id": float64(2), "name": "b"},
	}
	_, err := mutate.Execute(context.Background(), &MutationRequest{
		Branch:      "feature",
		Table:       "users",
		PrimaryKeys: []string{"id"},
		Data:        data,
		Mode:        models.ImportCreate,
	})
	require.NoError(t, err)

	rows, err := read.Execute(context.Background(), &ReadRequest{Branch: "feature", Table: "users"})
	require.NoError(t, err)
	assert.Equal(t, data, rows)
	assert.Equal(t, "main", h.Current)
}

func TestReadPipeline_Idempotent(t *testing.T) {
	h, _, read := setupPipelines(t)
	h.Tables["main"]["users"] = models.RowSet{{"id": float64(1)}}

	req := &ReadRequest{Branch: "main", Table: "users"}
	first, err := read.Execute(context.Background(), req)
	require.NoError(t, err)
	second, err := read.Execute(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "main", h.Current)
}

func TestReadPipeline_BranchNotFound(t *testing.T) {
	h, _, read := setupPipelines(t)

	_, err := read.Execute(context.Background(), &ReadRequest{Branch: "ghost", Table: "users"})
	require.Error(t, err)
	assert.Equal(t, KindBranchNotFound, KindOf(err))

	// Reads never create branches
	assert.NotContains(t, h.Branches, "ghost")
}

func TestReadPipeline_TableNotFound(t *testing.T) {
	_, _, read := setupPipelines(t)

	_, err := read.Execute(context.Background(), &ReadRequest{Branch: "main", Table: "ghost"})
	require.Error(t, err)
	assert.Equal(t, KindTableNotFound, KindOf(err))
}
