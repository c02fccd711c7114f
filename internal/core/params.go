package core

import (
	"go.uber.org/multierr"

	"github.com/tablevc/tablevc/internal/models"
)

// ParamType names the expected shape of a request field.
type ParamType string

const (
	ParamString     ParamType = "string"
	ParamStringList ParamType = "list of strings"
	ParamRows       ParamType = "list of row objects"
)

// ExtractParam extracts a named field from an untyped request payload
// and checks it against the expected type. It is pure: no state is
// touched, and callers must check the error before proceeding.
func ExtractParam(payload map[string]any, name string, kind ParamType) (any, error) {
	raw, ok := payload[name]
	if !ok {
		return nil, errf(KindMissingParameter, "%s missing from payload", name)
	}

	switch kind {
	case ParamString:
		s, ok := raw.(string)
		if !ok {
			return nil, errf(KindTypeMismatch, "%s: %v is not of type %s", name, raw, kind)
		}
		return s, nil

	case ParamStringList:
		items, ok := raw.([]any)
		if !ok {
			return nil, errf(KindTypeMismatch, "%s: %v is not of type %s", name, raw, kind)
		}
		list := make([]string, 0, len(items))
		for _, item := range items {
			s, ok := item.(string)
			if !ok {
				return nil, errf(KindTypeMismatch, "%s: %v is not of type %s", name, item, ParamString)
			}
			list = append(list, s)
		}
		return list, nil

	case ParamRows:
		items, ok := raw.([]any)
		if !ok {
			return nil, errf(KindTypeMismatch, "%s: %v is not of type %s", name, raw, kind)
		}
		rows := make(models.RowSet, 0, len(items))
		for _, item := range items {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, errf(KindTypeMismatch, "%s: %v is not a row object", name, item)
			}
			rows = append(rows, models.Row(obj))
		}
		return rows, nil
	}

	return nil, errf(KindTypeMismatch, "%s: unknown expected type %q", name, kind)
}

// MutationRequest is the validated per-request state for create/update.
type MutationRequest struct {
	Branch      string
	Table       string
	PrimaryKeys []string
	Data        models.RowSet
	Mode        models.ImportMode
}

// ReadRequest is the validated per-request state for reads.
type ReadRequest struct {
	Branch string
	Table  string
}

// ParseCreateRequest validates a create_table payload. All field
// failures are aggregated; any failure refuses the whole request.
func ParseCreateRequest(payload map[string]any) (*MutationRequest, error) {
	branch, branchErr := ExtractParam(payload, "branch", ParamString)
	table, tableErr := ExtractParam(payload, "table", ParamString)
	primaryKeys, pksErr := ExtractParam(payload, "primary_keys", ParamStringList)
	data, dataErr := ExtractParam(payload, "data", ParamRows)

	if err := multierr.Combine(branchErr, tableErr, pksErr, dataErr); err != nil {
		return nil, err
	}

	return &MutationRequest{
		Branch:      branch.(string),
		Table:       table.(string),
		PrimaryKeys: primaryKeys.([]string),
		Data:        data.(models.RowSet),
		Mode:        models.ImportCreate,
	}, nil
}

// ParseUpdateRequest validates an update_table payload. Primary keys
// are not accepted for updates; the stored definition wins.
func ParseUpdateRequest(payload map[string]any) (*MutationRequest, error) {
	branch, branchErr := ExtractParam(payload, "branch", ParamString)
	table, tableErr := ExtractParam(payload, "table", ParamString)
	data, dataErr := ExtractParam(payload, "data", ParamRows)

	if err := multierr.Combine(branchErr, tableErr, dataErr); err != nil {
		return nil, err
	}

	return &MutationRequest{
		Branch: branch.(string),
		Table:  table.(string),
		Data:   data.(models.RowSet),
		Mode:   models.ImportUpdate,
	}, nil
}

// ParseReadRequest validates a read_table payload.
func ParseReadRequest(payload map[string]any) (*ReadRequest, error) {
	branch, branchErr := ExtractParam(payload, "branch", ParamString)
	table, tableErr := ExtractParam(payload, "table", ParamString)

	if err := multierr.Combine(branchErr, tableErr); err != nil {
		return nil, err
	}

	return &ReadRequest{
		Branch: branch.(string),
		Table:  table.(string),
	}, nil
}
