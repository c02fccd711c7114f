// Package core implements the branch-scoped transaction orchestration
// layer: request validation, the branch checkout scope, and the
// mutation/read pipelines that run against the shared repository handle.
package core

import (
	"context"
	"time"

	"go.uber.org/multierr"

	"github.com/tablevc/tablevc/internal/db"
	"github.com/tablevc/tablevc/internal/models"
)

// BranchScope makes "checkout branch, run operation, restore prior
// branch" one critical section against the repository handle's single
// branch cursor. At most one scope is live at a time, system-wide,
// regardless of which branch is targeted: the cursor is shared across
// all branches, so a per-branch lock would still allow two scopes to
// interleave checkouts and silently run an operation on the wrong
// branch.
type BranchScope struct {
	gate chan struct{}

	// OnWait, when set, observes how long each caller blocked waiting
	// for the gate.
	OnWait func(time.Duration)
}

// NewBranchScope creates a scope gate for one repository handle.
func NewBranchScope() *BranchScope {
	return &BranchScope{gate: make(chan struct{}, 1)}
}

// Run acquires the gate, checkouts the target branch, runs fn, and
// restores the prior branch on every exit path before the gate is
// released. With create set, an absent target branch is forked from the
// current one; without it, an absent target fails with BranchNotFound
// and no checkout is issued. A target equal to the current branch
// proceeds directly without any checkout call.
//
// Cancellation while waiting for the gate abandons the attempt with no
// effect on shared state. Once the scope is active, restoration runs to
// completion even if the request context is cancelled: a half-switched
// cursor must never be left for the next acquirer.
func (s *BranchScope) Run(ctx context.Context, h db.Handle, branch string, create bool, fn func(ctx context.Context) error) (err error) {
	start := time.Now()
	select {
	case s.gate <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-s.gate }()

	if s.OnWait != nil {
		s.OnWait(time.Since(start))
	}

	current, branches, err := h.ListBranches(ctx)
	if err != nil {
		return &Error{Kind: KindCollaborator, Message: "list branches", Err: err}
	}

	switched := false
	if branch != current {
		if create {
			if err := h.Checkout(ctx, branch, !branchExists(branches, branch)); err != nil {
				return &Error{Kind: KindCollaborator, Message: "checkout " + branch, Err: err}
			}
		} else {
			if !branchExists(branches, branch) {
				return errf(KindBranchNotFound, "branch '%s' not found", branch)
			}
			if err := h.Checkout(ctx, branch, false); err != nil {
				return &Error{Kind: KindCollaborator, Message: "checkout " + branch, Err: err}
			}
		}
		switched = true
	}

	if switched {
		defer func() {
			// Restoration must survive request cancellation.
			rerr := h.Checkout(context.WithoutCancel(ctx), current, false)
			if rerr != nil {
				// Losing either failure would hide a corrupted cursor,
				// so both are retained; restoration takes precedence in
				// the reported kind.
				err = &Error{
					Kind:    KindRestorationFailure,
					Message: "failed to restore branch '" + current + "'",
					Err:     multierr.Append(err, rerr),
				}
			}
		}()
	}

	return fn(ctx)
}

func branchExists(branches []*models.Branch, name string) bool {
	for _, b := range branches {
		if b.Name == name {
			return true
		}
	}
	return false
}
