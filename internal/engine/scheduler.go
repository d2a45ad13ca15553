package engine

import (
	"context"
	"runtime"
	"sync/atomic"

	"github.com/notname9390/lol/pkg/logger"
	"github.com/notname9390/lol/pkg/types"
)

// Invoker executes one compile job to completion.
type Invoker interface {
	Invoke(ctx context.Context, job types.CompileJob) types.CompileResult
}

// Scheduler runs compile jobs on a fixed-size worker pool. Jobs are
// admitted in slice order; a single collector goroutine forwards every
// result to the sink, so the sink never sees concurrent calls.
type Scheduler struct {
	invoker  Invoker
	log      logger.Logger
	workers  int
	failFast bool
}

// NewScheduler creates a scheduler. A non-positive worker count means
// one worker per CPU.
func NewScheduler(inv Invoker, log logger.Logger, workers int, failFast bool) *Scheduler {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Scheduler{
		invoker:  inv,
		log:      log.WithScope("scheduler"),
		workers:  workers,
		failFast: failFast,
	}
}

// Workers returns the pool size.
func (s *Scheduler) Workers() int {
	return s.workers
}

// Run feeds every job through the pool and forwards results to sink.
// Under fail-fast the first observed failure stops admission of jobs
// that have not been handed to a worker yet; jobs already running are
// left to finish. Jobs never admitted simply produce no result, which
// the aggregator counts as skipped.
func (s *Scheduler) Run(ctx context.Context, jobList []types.CompileJob, sink func(types.CompileResult)) error {
	if len(jobList) == 0 {
		return nil
	}

	// Unbuffered: a send is the moment of admission.
	jobCh := make(chan types.CompileJob)
	resultCh := make(chan types.CompileResult, s.workers)

	var stop atomic.Bool

	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		for result := range resultCh {
			if s.failFast && result.Failed() {
				stop.Store(true)
			}
			sink(result)
		}
	}()

	g, runCtx := NewSafeGroup(ctx, s.log)
	g.SetLimit(s.workers)
	for i := 0; i < s.workers; i++ {
		g.Go(func() error {
			for job := range jobCh {
				resultCh <- s.invoker.Invoke(runCtx, job)
			}
			return nil
		})
	}

admission:
	for _, job := range jobList {
		if stop.Load() {
			s.log.Debug("failure observed, halting admission")
			break
		}
		select {
		case jobCh <- job:
		case <-runCtx.Done():
			break admission
		}
	}
	close(jobCh)

	err := g.Wait()
	close(resultCh)
	<-collectorDone

	return err
}
