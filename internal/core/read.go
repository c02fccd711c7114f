package core

import (
	"context"

	"github.com/tablevc/tablevc/internal/db"
	"github.com/tablevc/tablevc/internal/models"
)

// ReadPipeline executes validated table reads inside a branch scope
// acquired in no-create mode: reads never create branches.
type ReadPipeline struct {
	handle db.Handle
	scope  *BranchScope
}

// NewReadPipeline creates a read pipeline over the shared handle.
func NewReadPipeline(h db.Handle, scope *BranchScope) *ReadPipeline {
	return &ReadPipeline{handle: h, scope: scope}
}

// Execute reads a table on the requested branch. An absent branch fails
// with BranchNotFound; an absent table surfaces the engine's own
// not-found failure unchanged.
func (p *ReadPipeline) Execute(ctx context.Context, req *ReadRequest) (models.RowSet, error) {
	var rows models.RowSet

	err := p.scope.Run(ctx, p.handle, req.Branch, false, func(ctx context.Context) error {
		var err error
		rows, err = p.handle.ReadTable(ctx, req.Table)
		return err
	})
	if err != nil {
		return nil, err
	}

	return rows, nil
}
