package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/tablevc/tablevc/internal/models"
)

func validCreatePayload() map[string]any {
	return map[string]any{
		"branch":       "feature",
		"table":        "users",
		"primary_keys": []any{"id"},
		"data": []any{
			map[string]any{"id": float64(1), "name": "a"},
		},
	}
}

func TestExtractParam_Missing(t *testing.T) {
	_, err := ExtractParam(map[string]any{}, "branch", ParamString)
	require.Error(t, err)
	assert.Equal(t, KindMissingParameter, KindOf(err))
	assert.Contains(t, err.Error(), "branch missing from payload")
}

func TestExtractParam_String(t *testing.T) {
	got, err := ExtractParam(map[string]any{"branch": "main"}, "branch", ParamString)
	require.NoError(t, err)
	assert.Equal(t, "main", got)
}

func TestExtractParam_StringTypeMismatch(t *testing.T) {
	_, err := ExtractParam(map[string]any{"branch": float64(7)}, "branch", ParamString)
	require.Error(t, err)
	assert.Equal(t, KindTypeMismatch, KindOf(err))
	assert.Contains(t, err.Error(), "7 is not of type string")
}

func TestExtractParam_StringList(t *testing.T) {
	got, err := ExtractParam(map[string]any{"primary_keys": []any{"id", "region"}}, "primary_keys", ParamStringList)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "region"}, got)
}

func TestExtractParam_StringListElementMismatch(t *testing.T) {
	_, err := ExtractParam(map[string]any{"primary_keys": []any{"id", float64(2)}}, "primary_keys", ParamStringList)
	require.Error(t, err)
	assert.Equal(t, KindTypeMismatch, KindOf(err))
}

func TestExtractParam_Rows(t *testing.T) {
	got, err := ExtractParam(map[string]any{"data": []any{
		map[string]any{"id": float64(1)},
		map[string]any{"id": float64(2)},
	}}, "data", ParamRows)
	require.NoError(t, err)
	assert.Equal(t, models.RowSet{{"id": float64(1)}, {"id": float64(2)}}, got)
}

func TestExtractParam_RowsNotAList(t *testing.T) {
	_, err := ExtractParam(map[string]any{"data": map[string]any{"id": float64(1)}}, "data", ParamRows)
	require.Error(t, err)
	assert.Equal(t, KindTypeMismatch, KindOf(err))
}

func TestExtractParam_RowElementNotAnObject(t *testing.T) {
	_, err := ExtractParam(map[string]any{"data": []any{"not-a-row"}}, "data", ParamRows)
	require.Error(t, err)
	assert.Equal(t, KindTypeMismatch, KindOf(err))
	assert.Contains(t, err.Error(), "not a row object")
}

func TestParseCreateRequest_Valid(t *testing.T) {
	req, err := ParseCreateRequest(validCreatePayload())
	require.NoError(t, err)
	assert.Equal(t, "feature", req.Branch)
	assert.Equal(t, "users", req.Table)
	assert.Equal(t, []string{"id"}, req.PrimaryKeys)
	assert.Len(t, req.Data, 1)
	assert.Equal(t, models.ImportCreate, req.Mode)
}

func TestParseCreateRequest_AggregatesAllFailures(t *testing.T) {
	payload := map[string]any{
		"table": float64(3), // wrong type
		"data":  []any{map[string]any{"id": float64(1)}},
		// branch and primary_keys missing
	}

	_, err := ParseCreateRequest(payload)
	require.Error(t, err)

	failures := multierr.Errors(err)
	assert.Len(t, failures, 3)
	assert.Contains(t, err.Error(), "branch missing from payload")
	assert.Contains(t, err.Error(), "primary_keys missing from payload")
	assert.Contains(t, err.Error(), "3 is not of type string")
}

func TestParseUpdateRequest_IgnoresPrimaryKeys(t *testing.T) {
	payload := map[string]any{
		"branch":       "main",
		"table":        "users",
		"primary_keys": []any{"id"},
		"data":         []any{map[string]any{"id": float64(1)}},
	}

	req, err := ParseUpdateRequest(payload)
	require.NoError(t, err)
	assert.Nil(t, req.PrimaryKeys)
	assert.Equal(t, models.ImportUpdate, req.Mode)
}

func TestParseUpdateRequest_MissingData(t *testing.T) {
	_, err := ParseUpdateRequest(map[string]any{"branch": "main", "table": "users"})
	require.Error(t, err)
	assert.Equal(t, KindMissingParameter, KindOf(err))
}

func TestParseReadRequest(t *testing.T) {
	req, err := ParseReadRequest(map[string]any{"branch": "main", "table": "users"})
	require.NoError(t, err)
	assert.Equal(t, "main", req.Branch)
	assert.Equal(t, "users", req.Table)

	_, err = ParseReadRequest(map[string]any{"table": "users"})
	require.Error(t, err)
	assert.Equal(t, KindMissingParameter, KindOf(err))
}
