package core

import (
	"errors"
	"fmt"

	"github.com/tablevc/tablevc/internal/store"
)

// Kind is the machine-readable classification of a pipeline failure.
type Kind string

const (
	KindMissingParameter   Kind = "missing_parameter"
	KindTypeMismatch       Kind = "type_mismatch"
	KindTableNotFound      Kind = "table_not_found"
	KindTableAlreadyExists Kind = "table_already_exists"
	KindBranchNotFound     Kind = "branch_not_found"
	KindCollaborator       Kind = "collaborator_error"
	KindRestorationFailure Kind = "restoration_failure"
)

// Error is a classified pipeline failure. Every failure leaving a
// pipeline carries a Kind so callers can always produce a structured
// response, never a generic one.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// errf creates a classified error.
func errf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf classifies any error leaving a pipeline. Engine sentinels map
// to their kinds; everything unrecognized is a collaborator failure.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	switch {
	case errors.Is(err, store.ErrTableNotFound):
		return KindTableNotFound
	case errors.Is(err, store.ErrTableExists):
		return KindTableAlreadyExists
	case errors.Is(err, store.ErrBranchNotFound):
		return KindBranchNotFound
	}
	return KindCollaborator
}
