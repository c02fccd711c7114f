package models

// Row is a single record mapping column names to scalar values.
type Row map[string]any

// RowSet is an ordered sequence of rows. Column consistency across rows
// is not enforced here; the engine's import operation decides.
type RowSet []Row

// ImportMode determines whether an import creates a new table or merges
// into an existing one.
type ImportMode string

const (
	// ImportCreate requires the table to not exist yet.
	ImportCreate ImportMode = "CREATE"
	// ImportUpdate requires the table to already exist.
	ImportUpdate ImportMode = "UPDATE"
)

// Valid reports whether the mode is one of the known import modes.
func (m ImportMode) Valid() bool {
	return m == ImportCreate || m == ImportUpdate
}
