package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablevc/tablevc/internal/db"
)

func indexOf(calls []string, want string) int {
	for i, c := range calls {
		if c == want {
			return i
		}
	}
	return -1
}

func TestBranchScope_SwitchAndRestore(t *testing.T) {
	h := db.NewMockHandle()
	scope := NewBranchScope()

	err := scope.Run(context.Background(), h, "feature", true, func(ctx context.Context) error {
		assert.Equal(t, "feature", h.Current)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, "main", h.Current)
	calls := h.CallLog()
	assert.Equal(t, []string{
		"list_branches",
		"checkout feature create=true",
		"checkout main create=false",
	}, calls)
}

func TestBranchScope_SameBranchNoCheckout(t *testing.T) {
	h := db.NewMockHandle()
	scope := NewBranchScope()

	ran := false
	err := scope.Run(context.Background(), h, "main", true, func(ctx context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)

	// No checkout issued in either direction
	assert.Equal(t, []string{"list_branches"}, h.CallLog())
}

func TestBranchScope_NoCreateAbsentBranch(t *testing.T) {
	h := db.NewMockHandle()
	scope := NewBranchScope()

	err := scope.Run(context.Background(), h, "ghost", false, func(ctx context.Context) error {
		t.Fatal("operation must not run")
		return nil
	})
	require.Error(t, err)
	assert.Equal(t, KindBranchNotFound, KindOf(err))

	// Failed before any checkout; cursor untouched
	assert.Equal(t, "main", h.Current)
	assert.Equal(t, []string{"list_branches"}, h.CallLog())
}

func TestBranchScope_NoCreateExistingBranch(t *testing.T) {
	h := db.NewMockHandle()
	h.Branches = append(h.Branches, "feature")
	h.Tables["feature"] = nil
	scope := NewBranchScope()

	err := scope.Run(context.Background(), h, "feature", false, func(ctx context.Context) error {
		return nil
	})
	require.NoError(t, err)

	calls := h.CallLog()
	assert.Contains(t, calls, "checkout feature create=false")
	assert.Equal(t, "main", h.Current)
}

func TestBranchScope_RestoresOnOperationError(t *testing.T) {
	h := db.NewMockHandle()
	scope := NewBranchScope()

	opErr := errors.New("import blew up")
	err := scope.Run(context.Background(), h, "feature", true, func(ctx context.Context) error {
		return opErr
	})
	assert.ErrorIs(t, err, opErr)

	assert.Equal(t, "main", h.Current)
	assert.Contains(t, h.CallLog(), "checkout main create=false")
}

func TestBranchScope_RestoresOnPanic(t *testing.T) {
	h := db.NewMockHandle()
	scope := NewBranchScope()

	func() {
		defer func() {
			require.NotNil(t, recover())
		}()
		_ = scope.Run(context.Background(), h, "feature", true, func(ctx context.Context) error {
			panic("operation panicked")
		})
	}()

	assert.Equal(t, "main", h.Current)
	assert.Contains(t, h.CallLog(), "checkout main create=false")

	// Gate was released: the next scope can still run.
	err := scope.Run(context.Background(), h, "main", false, func(ctx context.Context) error { return nil })
	assert.NoError(t, err)
}

func TestBranchScope_RestorationFailureRetainsBothErrors(t *testing.T) {
	h := db.NewMockHandle()
	h.CheckoutErrFor["main"] = errors.New("cursor stuck")
	scope := NewBranchScope()

	opErr := errors.New("import blew up")
	err := scope.Run(context.Background(), h, "feature", true, func(ctx context.Context) error {
		return opErr
	})
	require.Error(t, err)

	assert.Equal(t, KindRestorationFailure, KindOf(err))
	assert.Contains(t, err.Error(), "failed to restore branch 'main'")
	assert.Contains(t, err.Error(), "import blew up")
	assert.Contains(t, err.Error(), "cursor stuck")
	assert.ErrorIs(t, err, opErr)
}

func TestBranchScope_RestorationFailureOnSuccessfulOperation(t *testing.T) {
	h := db.NewMockHandle()
	h.CheckoutErrFor["main"] = errors.New("cursor stuck")
	scope := NewBranchScope()

	err := scope.Run(context.Background(), h, "feature", true, func(ctx context.Context) error {
		return nil
	})
	require.Error(t, err)
	assert.Equal(t, KindRestorationFailure, KindOf(err))
}

func TestBranchScope_CancelledWhileWaiting(t *testing.T) {
	h := db.NewMockHandle()
	scope := NewBranchScope()

	holding := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- scope.Run(context.Background(), h, "feature", true, func(ctx context.Context) error {
			close(holding)
			<-release
			return nil
		})
	}()
	<-holding

	ctx, cancel := context.WithCancel(context.Background())
	waiterDone := make(chan error, 1)
	go func() {
		waiterDone <- scope.Run(ctx, h, "other", true, func(ctx context.Context) error {
			return nil
		})
	}()

	cancel()
	err := <-waiterDone
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
	require.NoError(t, <-done)

	// The abandoned waiter touched nothing: no list_branches or
	// checkout for "other" was ever issued.
	for _, call := range h.CallLog() {
		assert.NotContains(t, call, "other")
	}
}

func TestBranchScope_ConcurrentScopesNeverInterleave(t *testing.T) {
	h := db.NewMockHandle()
	scope := NewBranchScope()

	entered := make(chan struct{})
	release := make(chan struct{})
	firstDone := make(chan error, 1)
	go func() {
		firstDone <- scope.Run(context.Background(), h, "feature-a", true, func(ctx context.Context) error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	secondDone := make(chan error, 1)
	go func() {
		secondDone <- scope.Run(context.Background(), h, "feature-b", true, func(ctx context.Context) error {
			assert.Equal(t, "feature-b", h.Current)
			return nil
		})
	}()

	// Give the second scope a chance to misbehave while the first holds
	// the gate.
	time.Sleep(50 * time.Millisecond)
	assert.NotContains(t, h.CallLog(), "checkout feature-b create=true")

	close(release)
	require.NoError(t, <-firstDone)
	require.NoError(t, <-secondDone)

	calls := h.CallLog()
	restoreA := indexOf(calls, "checkout main create=false")
	checkoutB := indexOf(calls, "checkout feature-b create=true")
	require.GreaterOrEqual(t, restoreA, 0)
	require.GreaterOrEqual(t, checkoutB, 0)
	assert.Less(t, restoreA, checkoutB, "second scope must not check out before the first restored")

	assert.Equal(t, "main", h.Current)
}

func TestBranchScope_OnWaitObservesGateWait(t *testing.T) {
	h := db.NewMockHandle()
	scope := NewBranchScope()

	var waited []time.Duration
	scope.OnWait = func(d time.Duration) { waited = append(waited, d) }

	err := scope.Run(context.Background(), h, "main", false, func(ctx context.Context) error { return nil })
	require.NoError(t, err)
	assert.Len(t, waited, 1)
}
