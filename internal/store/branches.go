package store

import (
	"fmt"

	"github.com/tablevc/tablevc/internal/models"
)

const currentBranchKey = "CURRENT_BRANCH"

// CreateBranch creates a new branch forked from the given source branch,
// copying the source branch's table definitions and row state.
func (s *Store) CreateBranch(name, from string) error {
	exists, err := s.BranchExists(name)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrBranchExists, name)
	}

	fromExists, err := s.BranchExists(from)
	if err != nil {
		return err
	}
	if !fromExists {
		return fmt.Errorf("%w: %s", ErrBranchNotFound, from)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("INSERT INTO branches (name) VALUES (?)", name); err != nil {
		return fmt.Errorf("create branch: %w", err)
	}

	if _, err := tx.Exec(`
		INSERT INTO table_defs (branch, table_name, primary_keys)
		SELECT ?, table_name, primary_keys FROM table_defs WHERE branch = ?`,
		name, from,
	); err != nil {
		return fmt.Errorf("fork table definitions: %w", err)
	}

	if _, err := tx.Exec(`
		INSERT INTO table_rows (branch, table_name, row_key, seq, row_json)
		SELECT ?, table_name, row_key, seq, row_json FROM table_rows WHERE branch = ?`,
		name, from,
	); err != nil {
		return fmt.Errorf("fork table rows: %w", err)
	}

	return tx.Commit()
}

// BranchExists checks if a branch with the given name exists.
func (s *Store) BranchExists(name string) (bool, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM branches WHERE name = ?", name).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListBranches returns all branches sorted by name, with IsCurrent set
// on the branch the cursor points to.
func (s *Store) ListBranches() ([]*models.Branch, error) {
	current, err := s.GetCurrentBranch()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query("SELECT name, created_at FROM branches ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var branches []*models.Branch
	for rows.Next() {
		var branch models.Branch
		var createdAt string
		if err := rows.Scan(&branch.Name, &createdAt); err != nil {
			return nil, err
		}
		branch.CreatedAt = parseTimestamp(createdAt)
		branch.IsCurrent = branch.Name == current
		branches = append(branches, &branch)
	}

	return branches, rows.Err()
}

// DeleteBranch removes a branch and its table state.
func (s *Store) DeleteBranch(name string) error {
	current, err := s.GetCurrentBranch()
	if err != nil {
		return err
	}
	if name == current {
		return fmt.Errorf("cannot delete branch '%s' while it is checked out", name)
	}

	exists, err := s.BranchExists(name)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrBranchNotFound, name)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Commits go too: they are keyed by branch name, so leaving them
	// behind would resurrect the old history if the name is reused.
	for _, stmt := range []string{
		"DELETE FROM table_rows WHERE branch = ?",
		"DELETE FROM table_defs WHERE branch = ?",
		"DELETE FROM staged_tables WHERE branch = ?",
		"DELETE FROM commits WHERE branch = ?",
		"DELETE FROM branches WHERE name = ?",
	} {
		if _, err := tx.Exec(stmt, name); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetCurrentBranch retrieves the branch the cursor points to.
func (s *Store) GetCurrentBranch() (string, error) {
	return s.GetValue(currentBranchKey)
}

// SetCurrentBranch repoints the cursor to the given branch.
// The branch must exist; cursor validity is the engine's invariant.
func (s *Store) SetCurrentBranch(name string) error {
	return s.SetValue(currentBranchKey, name)
}

// Checkout repoints the cursor to the target branch, optionally forking
// it from the current branch when it does not exist yet.
func (s *Store) Checkout(name string, createIfAbsent bool) error {
	exists, err := s.BranchExists(name)
	if err != nil {
		return err
	}

	if !exists {
		if !createIfAbsent {
			return fmt.Errorf("%w: %s", ErrBranchNotFound, name)
		}
		current, err := s.GetCurrentBranch()
		if err != nil {
			return err
		}
		if err := s.CreateBranch(name, current); err != nil {
			return err
		}
	}

	return s.SetCurrentBranch(name)
}
