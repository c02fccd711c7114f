// Package db exposes the repository handle: a typed facade over the
// versioned-table engine's capability set.
package db

import (
	"context"

	"github.com/tablevc/tablevc/internal/models"
)

// Handle is the contract for operations against the shared repository.
//
// A Handle wraps the engine's single "current branch" cursor and is NOT
// safe for unsynchronized concurrent use: callers must serialize access,
// normally through core.BranchScope. Engine failures are returned
// unchanged, never swallowed.
type Handle interface {
	// ListBranches returns the current branch name and all branches.
	ListBranches(ctx context.Context) (current string, branches []*models.Branch, err error)

	// Checkout repoints the cursor to the named branch, forking it from
	// the current branch when createIfAbsent is set and it does not exist.
	Checkout(ctx context.Context, branch string, createIfAbsent bool) error

	// ListTables returns the table names on the current branch.
	ListTables(ctx context.Context) ([]string, error)

	// ImportRows imports rows into a table on the current branch.
	ImportRows(ctx context.Context, table string, rows models.RowSet, primaryKeys []string, mode models.ImportMode) error

	// Commit stages the table and commits it on the current branch.
	Commit(ctx context.Context, table, message string) (*models.Commit, error)

	// Log returns the current branch's commits, newest first.
	Log(ctx context.Context, limit int) ([]*models.Commit, error)

	// ReadTable returns the rows of a table on the current branch.
	ReadTable(ctx context.Context, table string) (models.RowSet, error)
}

// Verify that *Repository implements Handle at compile time
var _ Handle = (*Repository)(nil)
