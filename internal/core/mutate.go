package core

import (
	"context"
	"fmt"

	"github.com/tablevc/tablevc/internal/db"
	"github.com/tablevc/tablevc/internal/models"
)

// MutationPipeline executes validated table imports inside a branch
// scope: precondition check, import, commit, and commit lookup all run
// within one scope acquisition.
type MutationPipeline struct {
	handle db.Handle
	scope  *BranchScope
}

// NewMutationPipeline creates a mutation pipeline over the shared handle.
func NewMutationPipeline(h db.Handle, scope *BranchScope) *MutationPipeline {
	return &MutationPipeline{handle: h, scope: scope}
}

// Execute runs a create or update import on the requested branch and
// returns the resulting commit. Mutations may fork the branch when it
// does not exist yet. An error return means no new commit was created;
// a failure after a successful import can leave the working state
// modified, which is surfaced, not rolled back.
func (p *MutationPipeline) Execute(ctx context.Context, req *MutationRequest) (*models.CommitDescriptor, error) {
	var desc *models.CommitDescriptor

	err := p.scope.Run(ctx, p.handle, req.Branch, true, func(ctx context.Context) error {
		tables, err := p.handle.ListTables(ctx)
		if err != nil {
			return &Error{Kind: KindCollaborator, Message: "list tables", Err: err}
		}

		exists := false
		for _, t := range tables {
			if t == req.Table {
				exists = true
				break
			}
		}

		switch req.Mode {
		case models.ImportCreate:
			if exists {
				return errf(KindTableAlreadyExists, "table '%s' already exists", req.Table)
			}
		case models.ImportUpdate:
			if !exists {
				return errf(KindTableNotFound, "table '%s' not found", req.Table)
			}
		}

		if err := p.handle.ImportRows(ctx, req.Table, req.Data, req.PrimaryKeys, req.Mode); err != nil {
			return &Error{Kind: KindCollaborator, Message: "import rows", Err: err}
		}

		message := fmt.Sprintf("Executed import on table %s in import mode %q", req.Table, req.Mode)
		if _, err := p.handle.Commit(ctx, req.Table, message); err != nil {
			return &Error{Kind: KindCollaborator, Message: "commit", Err: err}
		}

		entries, err := p.handle.Log(ctx, 1)
		if err != nil {
			return &Error{Kind: KindCollaborator, Message: "read log", Err: err}
		}
		if len(entries) == 0 {
			return errf(KindCollaborator, "commit log empty after commit on table '%s'", req.Table)
		}

		desc = entries[0].Descriptor()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return desc, nil
}
