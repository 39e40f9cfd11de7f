package sim

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/pidsim/internal/dynamo"
	"github.com/san-kum/pidsim/internal/reference"
)

// Runner is satisfied by *Loop[T] for any element type.
type Runner interface {
	Run(ctx context.Context, ref reference.Signal, cfg dynamo.Config) (*dynamo.Result, error)
}

// Job is one independent loop run. Jobs must not share controllers or plants.
type Job struct {
	Name      string
	Loop      Runner
	Reference reference.Signal
	Config    dynamo.Config
}

// RunAll runs jobs concurrently. The first failure cancels the rest.
func RunAll(ctx context.Context, jobs []Job) ([]*dynamo.Result, error) {
	results := make([]*dynamo.Result, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	for i, job := range jobs {
		g.Go(func() error {
			res, err := job.Loop.Run(ctx, job.Reference, job.Config)
			if err != nil {
				return fmt.Errorf("%s: %w", job.Name, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
