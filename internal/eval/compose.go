package eval

import (
	"context"
	"os"
	"sync"

	"github.com/marcelocantos/tsh/internal/ast"
	"github.com/marcelocantos/tsh/internal/exitcode"
)

func (fm *frame) compound(ctx context.Context, c *ast.Compound) (int, error) {
	switch c.Op {
	case ast.OpSequential:
		if status, err := fm.eval(ctx, c.Left); err != nil {
			return status, err
		}
		return fm.eval(ctx, c.Right)

	case ast.OpOrElse, ast.OpAndThen:
		status, err := fm.eval(ctx, c.Left)
		if err != nil {
			return status, err
		}
		if (status == exitcode.Success) == (c.Op == ast.OpAndThen) {
			return fm.eval(ctx, c.Right)
		}
		return status, nil

	case ast.OpParallel:
		return fm.parallel(ctx, c), nil

	case ast.OpPipe:
		return fm.pipe(ctx, c), nil
	}
	diag(fm.stdio.Err, "unknown operator %v", c.Op)
	return exitcode.Failure, nil
}

// parallel runs both sides at once and waits for both. The overall status
// is success; each side's own status goes to the observer.
func (fm *frame) parallel(ctx context.Context, c *ast.Compound) int {
	left, right := fm.cloneForBranch(), fm.cloneForBranch()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		left.branch(ctx, c.Left)
	}()
	go func() {
		defer wg.Done()
		right.branch(ctx, c.Right)
	}()
	wg.Wait()
	return exitcode.Success
}

// pipe connects the left side's output to the right side's input and
// returns the right side's status once both have finished.
func (fm *frame) pipe(ctx context.Context, c *ast.Compound) int {
	r, w, err := os.Pipe()
	if err != nil {
		diag(fm.stdio.Err, "pipe: %v", err)
		return exitcode.Failure
	}

	left, right := fm.cloneForBranch(), fm.cloneForBranch()
	left.stdio.Out = w
	right.stdio.In = r

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		left.branch(ctx, c.Left)
		w.Close()
	}()

	status := right.branch(ctx, c.Right)
	// A writer still running sees a broken pipe rather than blocking forever.
	r.Close()
	wg.Wait()
	return status
}
