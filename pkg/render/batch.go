package render

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Fepozopo/darkroom/pkg/codec"
	"github.com/Fepozopo/darkroom/pkg/gpu"
	"github.com/Fepozopo/darkroom/pkg/params"
	"golang.org/x/sync/errgroup"
)

// Job is one export: a source file rendered with Params into Output.
type Job struct {
	Input  string
	Output string
	Params params.EditParameters
}

// JobResult reports the outcome of one Job.
type JobResult struct {
	Job     Job
	Bytes   int
	Backend Backend
}

// ExportBatch exports jobs with up to workers goroutines. Each worker owns
// its own GPU engine when cfg.UseGPU is set. The first failure cancels the
// remaining jobs; results are returned in job order.
func ExportBatch(ctx context.Context, jobs []Job, workers int, cfg Config) ([]JobResult, error) {
	if workers < 1 {
		workers = 1
	}
	workers = min(workers, len(jobs))
	results := make([]JobResult, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	idx := make(chan int)
	g.Go(func() error {
		defer close(idx)
		for i := range jobs {
			select {
			case idx <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	var logOnce sync.Once
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			r := New(cfg)
			defer r.Close()
			for i := range idx {
				res, err := r.exportJob(ctx, jobs[i])
				if err != nil {
					return fmt.Errorf("%s: %w", jobs[i].Input, err)
				}
				if res.Backend == BackendCPU && cfg.UseGPU {
					logOnce.Do(func() { r.log.Warn("batch export running on cpu") })
				}
				results[i] = res
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Renderer) exportJob(ctx context.Context, job Job) (JobResult, error) {
	src, _, err := codec.Load(job.Input)
	if err != nil {
		return JobResult{}, err
	}
	f, err := codec.FormatFromPath(job.Output)
	if err != nil {
		return JobResult{}, err
	}
	backend := BackendCPU
	var data []byte
	if r.engine != nil {
		data, err = r.ExportGPU(ctx, src, job.Params, f)
		backend = BackendGPU
	}
	if r.engine == nil || errors.Is(err, gpu.ErrDeviceUnavailable) {
		data, err = r.Export(ctx, src, job.Params, f)
		backend = BackendCPU
	}
	if err != nil {
		return JobResult{}, err
	}
	if err := codec.WriteFile(job.Output, data); err != nil {
		return JobResult{}, err
	}
	return JobResult{Job: job, Bytes: len(data), Backend: backend}, nil
}
