package eval

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/migadu/sievecore/bytecode"
)

// Job pairs one message's Host with the bytecode include cache it
// should resolve its own `include` targets through (includes may
// legitimately differ per message if per-user scripts are involved).
type Job struct {
	Host     Host
	Includes *bytecode.IncludeCache
}

// EvaluateAll runs one evaluation per job concurrently against the
// same shared, read-only bytecode buffer, per §5's concurrency model:
// evaluations share only the immutable bytecode and interpreter
// configuration, never Host state or action/notify lists.
func EvaluateAll(ctx context.Context, bc *bytecode.Bytecode, jobs []Job) ([]*Outcome, error) {
	outcomes := make([]*Outcome, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			out, err := Evaluate(gctx, bc, job.Host, job.Includes)
			if err != nil {
				return err
			}
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}
