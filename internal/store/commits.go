package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/tablevc/tablevc/internal/models"
)

// CreateCommit commits the staged tables on a branch, producing a new
// commit whose parent is the branch's previous tip. The staging area is
// cleared on success.
func (s *Store) CreateCommit(branch, author, message string) (*models.Commit, error) {
	staged, err := s.StagedTables(branch)
	if err != nil {
		return nil, err
	}
	if len(staged) == 0 {
		return nil, ErrNothingStaged
	}

	parent, err := s.LatestCommit(branch)
	if err != nil {
		return nil, err
	}

	commit := &models.Commit{
		Branch:    branch,
		Author:    author,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
	if parent != nil {
		commit.ParentHash = parent.Hash
	}
	commit.Hash = commitHash(commit, staged)

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO commits (hash, branch, parent_hash, author, message, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`,
		commit.Hash, commit.Branch,
		sql.NullString{String: commit.ParentHash, Valid: commit.ParentHash != ""},
		commit.Author, commit.Message, commit.Timestamp,
	); err != nil {
		return nil, fmt.Errorf("create commit: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM staged_tables WHERE branch = ?", branch); err != nil {
		return nil, fmt.Errorf("clear staging: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return commit, nil
}

// GetCommit retrieves a commit by hash
func (s *Store) GetCommit(hash string) (*models.Commit, error) {
	return s.scanCommit(s.db.QueryRow(`
		SELECT hash, branch, parent_hash, author, message, timestamp
		FROM commits WHERE hash = ?`, hash))
}

// LatestCommit returns the most recent commit on a branch, or nil when
// the branch has no commits yet.
func (s *Store) LatestCommit(branch string) (*models.Commit, error) {
	commit, err := s.scanCommit(s.db.QueryRow(`
		SELECT hash, branch, parent_hash, author, message, timestamp
		FROM commits WHERE branch = ?
		ORDER BY timestamp DESC, rowid DESC LIMIT 1`, branch))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return commit, err
}

// GetCommitLog returns a branch's commits in reverse chronological order
func (s *Store) GetCommitLog(branch string, limit int) ([]*models.Commit, error) {
	query := `
		SELECT hash, branch, parent_hash, author, message, timestamp
		FROM commits WHERE branch = ?
		ORDER BY timestamp DESC, rowid DESC`

	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = s.db.Query(query+" LIMIT ?", branch, limit)
	} else {
		rows, err = s.db.Query(query, branch)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var commits []*models.Commit
	for rows.Next() {
		commit, err := s.scanCommit(rows)
		if err != nil {
			return nil, err
		}
		commits = append(commits, commit)
	}

	return commits, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanCommit(row rowScanner) (*models.Commit, error) {
	var commit models.Commit
	var parentHash sql.NullString
	var timestamp string

	err := row.Scan(
		&commit.Hash, &commit.Branch, &parentHash,
		&commit.Author, &commit.Message, &timestamp,
	)
	if err != nil {
		return nil, err
	}

	commit.Timestamp = parseTimestamp(timestamp)
	if parentHash.Valid {
		commit.ParentHash = parentHash.String
	}

	return &commit, nil
}

// commitHash derives a commit hash from the commit metadata and the
// staged table names.
func commitHash(c *models.Commit, staged []string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\n%s\n%s\n%s\n%s\n", c.Branch, c.ParentHash, c.Author, c.Message,
		c.Timestamp.Format(time.RFC3339Nano))
	for _, t := range staged {
		fmt.Fprintln(h, t)
	}
	return hex.EncodeToString(h.Sum(nil))
}
