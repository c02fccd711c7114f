package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tablevc/tablevc/internal/models"
)

// ListTables returns the table names present on a branch, sorted by name.
func (s *Store) ListTables(branch string) ([]string, error) {
	rows, err := s.db.Query(
		"SELECT table_name FROM table_defs WHERE branch = ? ORDER BY table_name", branch)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}

	return tables, rows.Err()
}

// TableExists checks if a table exists on a branch.
func (s *Store) TableExists(branch, table string) (bool, error) {
	var count int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM table_defs WHERE branch = ? AND table_name = ?",
		branch, table).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ImportRows imports rows into a table on a branch. In create mode the
// table must not exist and primaryKeys defines the table's keys; in
// update mode the table must exist and incoming rows are merged by the
// stored primary keys (rows without a key match are appended).
func (s *Store) ImportRows(branch, table string, rowSet models.RowSet, primaryKeys []string, mode models.ImportMode) error {
	if !mode.Valid() {
		return fmt.Errorf("unknown import mode %q", mode)
	}

	exists, err := s.TableExists(branch, table)
	if err != nil {
		return err
	}

	switch mode {
	case models.ImportCreate:
		if exists {
			return fmt.Errorf("%w: %s", ErrTableExists, table)
		}
	case models.ImportUpdate:
		if !exists {
			return fmt.Errorf("%w: %s", ErrTableNotFound, table)
		}
		// Merge keys come from the stored definition, not the request
		primaryKeys, err = s.tablePrimaryKeys(branch, table)
		if err != nil {
			return err
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if mode == models.ImportCreate {
		pksJSON, err := json.Marshal(primaryKeys)
		if err != nil {
			return fmt.Errorf("marshal primary keys: %w", err)
		}
		if _, err := tx.Exec(
			"INSERT INTO table_defs (branch, table_name, primary_keys) VALUES (?, ?, ?)",
			branch, table, string(pksJSON),
		); err != nil {
			return fmt.Errorf("create table definition: %w", err)
		}
	}

	var nextSeq int
	if err := tx.QueryRow(
		"SELECT COALESCE(MAX(seq), 0) + 1 FROM table_rows WHERE branch = ? AND table_name = ?",
		branch, table).Scan(&nextSeq); err != nil {
		return err
	}

	for _, row := range rowSet {
		data, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("marshal row: %w", err)
		}

		key, err := rowKey(row, primaryKeys)
		if err != nil {
			return err
		}

		// Upsert preserves the original seq so merged rows keep their position
		if _, err := tx.Exec(`
			INSERT INTO table_rows (branch, table_name, row_key, seq, row_json)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(branch, table_name, row_key) DO UPDATE SET row_json = excluded.row_json`,
			branch, table, key, nextSeq, string(data),
		); err != nil {
			return fmt.Errorf("import row: %w", err)
		}
		nextSeq++
	}

	return tx.Commit()
}

// ReadTable returns the rows of a table on a branch in import order.
func (s *Store) ReadTable(branch, table string) (models.RowSet, error) {
	exists, err := s.TableExists(branch, table)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}

	rows, err := s.db.Query(`
		SELECT row_json FROM table_rows
		WHERE branch = ? AND table_name = ?
		ORDER BY seq`, branch, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := models.RowSet{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var row models.Row
		if err := json.Unmarshal([]byte(data), &row); err != nil {
			return nil, fmt.Errorf("unmarshal row: %w", err)
		}
		result = append(result, row)
	}

	return result, rows.Err()
}

// StageTable marks a table's working state for inclusion in the next commit.
func (s *Store) StageTable(branch, table string) error {
	exists, err := s.TableExists(branch, table)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}

	_, err = s.db.Exec(`
		INSERT INTO staged_tables (branch, table_name) VALUES (?, ?)
		ON CONFLICT(branch, table_name) DO UPDATE SET staged_at = CURRENT_TIMESTAMP`,
		branch, table)
	return err
}

// StagedTables returns the tables currently staged on a branch.
func (s *Store) StagedTables(branch string) ([]string, error) {
	rows, err := s.db.Query(
		"SELECT table_name FROM staged_tables WHERE branch = ? ORDER BY table_name", branch)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}

	return tables, rows.Err()
}

// tablePrimaryKeys returns the primary key columns stored for a table.
func (s *Store) tablePrimaryKeys(branch, table string) ([]string, error) {
	var pksJSON string
	err := s.db.QueryRow(
		"SELECT primary_keys FROM table_defs WHERE branch = ? AND table_name = ?",
		branch, table).Scan(&pksJSON)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	if err != nil {
		return nil, err
	}

	var pks []string
	if err := json.Unmarshal([]byte(pksJSON), &pks); err != nil {
		return nil, fmt.Errorf("unmarshal primary keys: %w", err)
	}
	return pks, nil
}

// rowKey derives the storage key for a row from its primary key values.
// Keyless tables get a random key, so every import appends.
func rowKey(row models.Row, primaryKeys []string) (string, error) {
	if len(primaryKeys) == 0 {
		return uuid.NewString(), nil
	}

	parts := make([]string, 0, len(primaryKeys))
	for _, pk := range primaryKeys {
		v, ok := row[pk]
		if !ok {
			return "", fmt.Errorf("row missing primary key column %q", pk)
		}
		parts = append(parts, fmt.Sprintf("%v", v))
	}
	return strings.Join(parts, "\x1f"), nil
}
