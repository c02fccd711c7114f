package db

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tablevc/tablevc/internal/models"
	"github.com/tablevc/tablevc/internal/store"
)

// MockHandle is an in-memory Handle implementation for testing. It keeps
// per-branch table state and records every engine call in order, so tests
// can assert on call sequences across concurrent scopes.
type MockHandle struct {
	mu sync.Mutex

	// Current is the branch the cursor points to.
	Current string
	// Branches holds the branch names in creation order.
	Branches []string
	// Tables maps branch -> table -> rows.
	Tables map[string]map[string]models.RowSet
	// Keys maps branch -> table -> primary key columns.
	Keys map[string]map[string][]string
	// Commits maps branch -> commits, newest first.
	Commits map[string][]*models.Commit
	// Calls records every method invocation in order.
	Calls []string

	// Err makes every method fail when set.
	Err error
	// CheckoutErrFor makes Checkout fail for specific target branches.
	CheckoutErrFor map[string]error
	// Author is attributed to commits.
	Author string
}

// NewMockHandle creates a mock with a single "main" branch checked out.
func NewMockHandle() *MockHandle {
	return &MockHandle{
		Current:        store.DefaultBranch,
		Branches:       []string{store.DefaultBranch},
		Tables:         map[string]map[string]models.RowSet{store.DefaultBranch: {}},
		Keys:           map[string]map[string][]string{store.DefaultBranch: {}},
		Commits:        map[string][]*models.Commit{},
		CheckoutErrFor: map[string]error{},
		Author:         "mock <mock@localhost>",
	}
}

func (m *MockHandle) record(format string, args ...any) {
	m.Calls = append(m.Calls, fmt.Sprintf(format, args...))
}

// CallLog returns a copy of the recorded calls.
func (m *MockHandle) CallLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Calls...)
}

// ListBranches returns the current branch and all branches.
func (m *MockHandle) ListBranches(ctx context.Context) (string, []*models.Branch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record("list_branches")
	if m.Err != nil {
		return "", nil, m.Err
	}

	branches := make([]*models.Branch, 0, len(m.Branches))
	for _, name := range m.Branches {
		branches = append(branches, &models.Branch{
			Name:      name,
			IsCurrent: name == m.Current,
		})
	}
	return m.Current, branches, nil
}

// Checkout repoints the cursor, forking the branch when requested.
func (m *MockHandle) Checkout(ctx context.Context, branch string, createIfAbsent bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record("checkout %s create=%v", branch, createIfAbsent)
	if m.Err != nil {
		return m.Err
	}
	if err := m.CheckoutErrFor[branch]; err != nil {
		return err
	}

	if !m.branchExists(branch) {
		if !createIfAbsent {
			return fmt.Errorf("%w: %s", store.ErrBranchNotFound, branch)
		}
		m.Branches = append(m.Branches, branch)
		m.Tables[branch] = map[string]models.RowSet{}
		m.Keys[branch] = map[string][]string{}
		for table, rows := range m.Tables[m.Current] {
			m.Tables[branch][table] = append(models.RowSet{}, rows...)
		}
		for table, pks := range m.Keys[m.Current] {
			m.Keys[branch][table] = append([]string{}, pks...)
		}
	}

	m.Current = branch
	return nil
}

// ListTables returns the table names on the current branch.
func (m *MockHandle) ListTables(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record("list_tables")
	if m.Err != nil {
		return nil, m.Err
	}

	var tables []string
	for name := range m.Tables[m.Current] {
		tables = append(tables, name)
	}
	return tables, nil
}

// ImportRows imports rows into a table on the current branch.
func (m *MockHandle) ImportRows(ctx context.Context, table string, rows models.RowSet, primaryKeys []string, mode models.ImportMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record("import %s mode=%s", table, mode)
	if m.Err != nil {
		return m.Err
	}

	branchTables := m.Tables[m.Current]
	_, exists := branchTables[table]

	switch mode {
	case models.ImportCreate:
		if exists {
			return fmt.Errorf("%w: %s", store.ErrTableExists, table)
		}
		branchTables[table] = append(models.RowSet{}, rows...)
		m.Keys[m.Current][table] = append([]string{}, primaryKeys...)
	case models.ImportUpdate:
		if !exists {
			return fmt.Errorf("%w: %s", store.ErrTableNotFound, table)
		}
		branchTables[table] = mergeRows(branchTables[table], rows, m.Keys[m.Current][table])
	default:
		return fmt.Errorf("unknown import mode %q", mode)
	}

	return nil
}

// Commit records a commit for the current branch.
func (m *MockHandle) Commit(ctx context.Context, table, message string) (*models.Commit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record("commit %s", table)
	if m.Err != nil {
		return nil, m.Err
	}
	if _, ok := m.Tables[m.Current][table]; !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrTableNotFound, table)
	}

	commit := &models.Commit{
		Hash:      fmt.Sprintf("%s-%d", m.Current, len(m.Commits[m.Current])+1),
		Branch:    m.Current,
		Author:    m.Author,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
	if prev := m.Commits[m.Current]; len(prev) > 0 {
		commit.ParentHash = prev[0].Hash
	}
	m.Commits[m.Current] = append([]*models.Commit{commit}, m.Commits[m.Current]...)
	return commit, nil
}

// Log returns the current branch's commits, newest first.
func (m *MockHandle) Log(ctx context.Context, limit int) ([]*models.Commit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record("log")
	if m.Err != nil {
		return nil, m.Err
	}

	commits := m.Commits[m.Current]
	if limit > 0 && limit < len(commits) {
		commits = commits[:limit]
	}
	return append([]*models.Commit{}, commits...), nil
}

// ReadTable returns the rows of a table on the current branch.
func (m *MockHandle) ReadTable(ctx context.Context, table string) (models.RowSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record("read %s", table)
	if m.Err != nil {
		return nil, m.Err
	}

	rows, ok := m.Tables[m.Current][table]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrTableNotFound, table)
	}
	return append(models.RowSet{}, rows...), nil
}

func (m *MockHandle) branchExists(name string) bool {
	for _, b := range m.Branches {
		if b == name {
			return true
		}
	}
	return false
}

// mergeRows merges incoming rows into existing ones by primary key,
// appending rows without a key match.
func mergeRows(existing, incoming models.RowSet, primaryKeys []string) models.RowSet {
	if len(primaryKeys) == 0 {
		return append(existing, incoming...)
	}

	key := func(row models.Row) string {
		k := ""
		for _, pk := range primaryKeys {
			k += fmt.Sprintf("%v\x1f", row[pk])
		}
		return k
	}

	index := make(map[string]int, len(existing))
	for i, row := range existing {
		index[key(row)] = i
	}

	merged := append(models.RowSet{}, existing...)
	for _, row := range incoming {
		if i, ok := index[key(row)]; ok {
			merged[i] = row
		} else {
			merged = append(merged, row)
		}
	}
	return merged
}

// Verify that *MockHandle implements Handle at compile time
var _ Handle = (*MockHandle)(nil)
