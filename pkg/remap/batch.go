package remap

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/layermap/pkg/resolve"
	"github.com/matzehuels/layermap/pkg/strategy"
	"github.com/matzehuels/layermap/pkg/template"
)

// Job is one independent container-to-container remap.
type Job struct {
	Context  resolve.MappingContext
	Target   template.Container
	Strategy *strategy.LayoutStrategy
	SourceID string
}

// BatchResult is the outcome of one Job.
type BatchResult struct {
	Payload Payload
	Err     error
}

// Batch runs jobs concurrently, at most limit at a time (limit <= 0 means
// unbounded). A failing job does not affect the others. Results are in job
// order. Jobs not started before ctx is cancelled fail with ctx.Err().
func Batch(ctx context.Context, jobs []Job, limit int) []BatchResult {
	results := make([]BatchResult, len(jobs))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, job := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			p, err := RemapContext(job.Context, job.Target, job.Strategy)
			if err == nil {
				p.SourceID = job.SourceID
			}
			results[i] = BatchResult{Payload: p, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
