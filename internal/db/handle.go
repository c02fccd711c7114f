package db

import (
	"context"
	"fmt"

	"github.com/tablevc/tablevc/internal/models"
	"github.com/tablevc/tablevc/internal/store"
)

// Repository is the store-backed Handle. Its lifetime equals the process
// lifetime; it is created once at startup from the repository location.
type Repository struct {
	st     *store.Store
	author string
}

// NewRepository creates a repository handle over an initialized store.
// Commits are attributed to the given author.
func NewRepository(st *store.Store, author string) *Repository {
	return &Repository{st: st, author: author}
}

// ListBranches returns the current branch name and all branches.
func (r *Repository) ListBranches(ctx context.Context) (string, []*models.Branch, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}

	current, err := r.st.GetCurrentBranch()
	if err != nil {
		return "", nil, fmt.Errorf("get current branch: %w", err)
	}

	branches, err := r.st.ListBranches()
	if err != nil {
		return "", nil, fmt.Errorf("list branches: %w", err)
	}

	return current, branches, nil
}

// Checkout repoints the cursor to the named branch.
func (r *Repository) Checkout(ctx context.Context, branch string, createIfAbsent bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.st.Checkout(branch, createIfAbsent)
}

// ListTables returns the table names on the current branch.
func (r *Repository) ListTables(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	current, err := r.st.GetCurrentBranch()
	if err != nil {
		return nil, err
	}
	return r.st.ListTables(current)
}

// ImportRows imports rows into a table on the current branch.
func (r *Repository) ImportRows(ctx context.Context, table string, rows models.RowSet, primaryKeys []string, mode models.ImportMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	current, err := r.st.GetCurrentBranch()
	if err != nil {
		return err
	}
	return r.st.ImportRows(current, table, rows, primaryKeys, mode)
}

// Commit stages the table and commits it on the current branch.
func (r *Repository) Commit(ctx context.Context, table, message string) (*models.Commit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	current, err := r.st.GetCurrentBranch()
	if err != nil {
		return nil, err
	}

	if err := r.st.StageTable(current, table); err != nil {
		return nil, fmt.Errorf("stage table: %w", err)
	}

	return r.st.CreateCommit(current, r.author, message)
}

// Log returns the current branch's commits, newest first.
func (r *Repository) Log(ctx context.Context, limit int) ([]*models.Commit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	current, err := r.st.GetCurrentBranch()
	if err != nil {
		return nil, err
	}
	return r.st.GetCommitLog(current, limit)
}

// ReadTable returns the rows of a table on the current branch.
func (r *Repository) ReadTable(ctx context.Context, table string) (models.RowSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	current, err := r.st.GetCurrentBranch()
	if err != nil {
		return nil, err
	}
	return r.st.ReadTable(current, table)
}
