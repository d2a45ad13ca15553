// Package jobs turns discovered language groups into schedulable
// compile jobs.
package jobs

import (
	"fmt"
	"os/exec"
	"time"

	"github.com/notname9390/lol/pkg/classifier"
	"github.com/notname9390/lol/pkg/logger"
	"github.com/notname9390/lol/pkg/toolchain"
	"github.com/notname9390/lol/pkg/types"
)

// Options adjusts how jobs are assembled.
type Options struct {
	// Flags holds the effective per-language compiler flags, already
	// normalized. A present entry replaces the defaults entirely; base
	// args from the registry are always kept.
	Flags map[types.Language][]string

	// CompilerPaths overrides the executable used for a language.
	CompilerPaths map[types.Language]string
}

// BuildSet is the outcome of job building. Jobs lists every job in id
// order. Runnable is the subset whose toolchain resolved. Prefailed
// carries one immediate result per job of each missing toolchain, so
// the report still accounts for every file that should have compiled.
type BuildSet struct {
	Jobs      []types.CompileJob
	Runnable  []types.CompileJob
	Prefailed []types.CompileResult
}

// Total returns the number of jobs, runnable or not.
func (s *BuildSet) Total() int {
	return len(s.Jobs)
}

// Builder assembles compile jobs from a discovery.
type Builder struct {
	registry *toolchain.Registry
	log      logger.Logger
	lookPath func(file string) (string, error)
}

// NewBuilder creates a job builder.
func NewBuilder(registry *toolchain.Registry, log logger.Logger) *Builder {
	return &Builder{
		registry: registry,
		log:      log.WithScope("jobs"),
		lookPath: exec.LookPath,
	}
}

// Build assembles jobs for every discovered group. Groups arrive
// sorted by language with files in discovery order, so job ids are
// stable across runs over the same tree. The executable is resolved
// once per language; when it is missing every job of that language is
// prefailed instead of dropped.
func (b *Builder) Build(d *classifier.Discovery, opts Options) *BuildSet {
	set := &BuildSet{}
	nextID := 1

	for _, group := range d.Groups {
		spec, err := b.registry.SpecFor(group.Language)
		if err != nil {
			continue
		}

		executable := spec.Executable
		if override := opts.CompilerPaths[group.Language]; override != "" {
			executable = override
		}

		flags := opts.Flags[group.Language]

		var groupJobs []types.CompileJob
		if spec.Invocation == types.InvocationGroup {
			groupJobs = append(groupJobs, makeJob(nextID, spec, executable, flags, group.Files, d.Root))
			nextID++
		} else {
			for _, file := range group.Files {
				groupJobs = append(groupJobs, makeJob(nextID, spec, executable, flags, []types.SourceFile{file}, d.Root))
				nextID++
			}
		}

		resolved, lookErr := b.lookPath(executable)
		if lookErr != nil {
			b.log.Warn(fmt.Sprintf("%s not found, failing %d %s job(s)", executable, len(groupJobs), group.Language))
			now := time.Now()
			for _, job := range groupJobs {
				set.Jobs = append(set.Jobs, job)
				set.Prefailed = append(set.Prefailed, types.CompileResult{
					JobID:       job.ID,
					Language:    job.Language,
					Label:       job.Label(),
					FailureKind: types.FailureToolchainNotFound,
					Error:       fmt.Sprintf("%s: executable not found on PATH", executable),
					StartedAt:   now,
					FinishedAt:  now,
				})
			}
			continue
		}

		for i := range groupJobs {
			groupJobs[i].Executable = resolved
			set.Jobs = append(set.Jobs, groupJobs[i])
			set.Runnable = append(set.Runnable, groupJobs[i])
		}
	}

	return set
}

// makeJob builds one job. The argv layout is base args, then flags,
// then root-relative file paths; the job runs with the project root as
// working directory.
func makeJob(id int, spec toolchain.Spec, executable string, flags []string, files []types.SourceFile, root string) types.CompileJob {
	args := make([]string, 0, len(spec.BaseArgs)+len(flags)+len(files))
	args = append(args, spec.BaseArgs...)
	args = append(args, flags...)
	for _, f := range files {
		args = append(args, f.RelPath)
	}

	return types.CompileJob{
		ID:         id,
		Language:   spec.Language,
		Files:      files,
		Executable: executable,
		Args:       args,
		Dir:        root,
		Mode:       spec.Mode,
	}
}
