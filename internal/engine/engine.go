// Package engine orchestrates a full build run: classify the tree,
// assemble compile jobs, schedule them over a worker pool, and
// aggregate the results into a report.
package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/notname9390/lol/pkg/classifier"
	"github.com/notname9390/lol/pkg/invoker"
	"github.com/notname9390/lol/pkg/jobs"
	"github.com/notname9390/lol/pkg/logger"
	"github.com/notname9390/lol/pkg/report"
	"github.com/notname9390/lol/pkg/toolchain"
	"github.com/notname9390/lol/pkg/types"
	"github.com/notname9390/lol/pkg/utils"
)

// StateRecorder persists the outcome of a finished run.
type StateRecorder interface {
	RecordRun(rep *types.BuildReport) error
}

// RunNotifier delivers a user-facing notification for a finished run.
type RunNotifier interface {
	NotifyRun(rep *types.BuildReport)
}

// Options describes one build run.
type Options struct {
	Root string

	// Languages restricts the run; empty means everything discovered.
	Languages []types.Language

	// Flags holds the effective per-language compiler flags.
	Flags map[types.Language][]string

	// CompilerPaths overrides the executable per language.
	CompilerPaths map[types.Language]string

	IgnorePatterns  []string
	IncludePatterns []string

	// Jobs caps parallel toolchain processes; non-positive means one
	// per CPU.
	Jobs int

	// Timeout bounds each invocation; zero means the invoker default.
	Timeout time.Duration

	FailFast bool

	// LogDir receives per-language invocation logs when set.
	LogDir string
}

// Dependencies carries the orchestrator's collaborators. Nil fields
// are optional except the invoker, which defaults to the real process
// invoker.
type Dependencies struct {
	Invoker  Invoker
	State    StateRecorder
	Notifier RunNotifier
}

// Orchestrator drives one build run end to end.
type Orchestrator struct {
	opts     Options
	log      logger.Logger
	registry *toolchain.Registry
	invoker  Invoker
	state    StateRecorder
	notifier RunNotifier
}

// New creates an orchestrator for the given options.
func New(opts Options, log logger.Logger, deps Dependencies) *Orchestrator {
	if abs, err := filepath.Abs(opts.Root); err == nil {
		opts.Root = abs
	}

	inv := deps.Invoker
	if inv == nil {
		inv = invoker.New(log, invoker.Options{
			Timeout: opts.Timeout,
			LogDir:  opts.LogDir,
		})
	}

	return &Orchestrator{
		opts:     opts,
		log:      log,
		registry: toolchain.NewRegistry(),
		invoker:  inv,
		state:    deps.State,
		notifier: deps.Notifier,
	}
}

// Run executes one full build and returns the finalized report. The
// returned error is reserved for fatal problems such as an unusable
// root or a malformed pattern; ordinary compile failures land in the
// report instead.
func (o *Orchestrator) Run(ctx context.Context) (*types.BuildReport, error) {
	runID := uuid.New().String()
	startedAt := time.Now()

	o.log.Info(fmt.Sprintf("Starting build run in %s", o.opts.Root))

	cls, err := classifier.New(o.registry, o.log, classifier.Options{
		Languages:       o.opts.Languages,
		IgnorePatterns:  o.opts.IgnorePatterns,
		IncludePatterns: o.opts.IncludePatterns,
	})
	if err != nil {
		return nil, err
	}

	discovery, err := cls.Discover(o.opts.Root)
	if err != nil {
		return nil, err
	}

	o.log.Info(fmt.Sprintf("Discovered %d source file(s) across %d language(s)",
		discovery.TotalFiles, len(discovery.Groups)))
	for _, group := range discovery.Groups {
		o.log.Debug(fmt.Sprintf("%s: %d file(s), %s",
			group.Language, len(group.Files), utils.FormatBytes(group.TotalSize())))
	}

	builder := jobs.NewBuilder(o.registry, o.log)
	set := builder.Build(discovery, jobs.Options{
		Flags:         o.opts.Flags,
		CompilerPaths: o.opts.CompilerPaths,
	})

	agg := report.NewAggregator()
	for _, pre := range set.Prefailed {
		agg.Add(pre)
	}

	runnable := set.Runnable
	if o.opts.FailFast && len(set.Prefailed) > 0 {
		// The prefailed results already count as failures, so under
		// fail-fast nothing else is admitted.
		runnable = nil
	}

	scheduler := NewScheduler(o.invoker, o.log, o.opts.Jobs, o.opts.FailFast)
	if len(runnable) > 0 {
		o.log.Info(fmt.Sprintf("Running %d job(s) on %d worker(s)", len(runnable), scheduler.Workers()))
	}
	if err := scheduler.Run(ctx, runnable, agg.Add); err != nil {
		o.log.Error(fmt.Sprintf("Scheduler stopped early: %v", err))
	}

	rep := agg.Finalize(report.RunInfo{
		RunID:      runID,
		Root:       discovery.Root,
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
		TotalJobs:  set.Total(),
		Warnings:   discovery.Warnings,
	})

	if o.state != nil {
		if err := o.state.RecordRun(rep); err != nil {
			o.log.Warn(fmt.Sprintf("Failed to record run state: %v", err))
		}
	}
	if o.notifier != nil {
		o.notifier.NotifyRun(rep)
	}

	if rep.OverallSuccess {
		o.log.Success(fmt.Sprintf("All %d job(s) succeeded", rep.TotalJobs))
	} else {
		o.log.Error(fmt.Sprintf("%d failed, %d skipped of %d job(s)",
			rep.Failed, rep.Skipped, rep.TotalJobs))
	}

	return rep, nil
}
