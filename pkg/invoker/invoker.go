// Package invoker runs compile jobs as toolchain subprocesses.
package invoker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/notname9390/lol/pkg/logger"
	"github.com/notname9390/lol/pkg/types"
)

const (
	// DefaultTimeout bounds a single toolchain invocation.
	DefaultTimeout = 120 * time.Second

	// waitDelay gives a killed process a grace period to release its
	// pipes before Wait gives up on them.
	waitDelay = 5 * time.Second
)

// Options adjusts invoker behavior.
type Options struct {
	// Timeout bounds each invocation. Zero means DefaultTimeout.
	Timeout time.Duration

	// LogDir, when set, receives an append-only per-language log of
	// every invocation.
	LogDir string
}

// ProcessInvoker executes jobs with the job's own executable and argv,
// never through a shell.
type ProcessInvoker struct {
	log     logger.Logger
	timeout time.Duration
	logDir  string

	mu sync.Mutex
}

// New creates a process invoker.
func New(log logger.Logger, opts Options) *ProcessInvoker {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ProcessInvoker{
		log:     log.WithScope("invoke"),
		timeout: timeout,
		logDir:  opts.LogDir,
	}
}

// Timeout returns the effective per-job timeout.
func (p *ProcessInvoker) Timeout() time.Duration {
	return p.timeout
}

// Invoke runs one job to completion and classifies the outcome. Stdout
// and stderr are captured separately. A deadline hit maps to a timeout
// failure with no exit code; a process that never spawned maps to an
// internal failure; a non-zero exit is a compile failure carrying the
// code.
func (p *ProcessInvoker) Invoke(ctx context.Context, job types.CompileJob) types.CompileResult {
	result := types.CompileResult{
		JobID:     job.ID,
		Language:  job.Language,
		Label:     job.Label(),
		StartedAt: time.Now(),
	}

	runCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, job.Executable, job.Args...)
	cmd.Dir = job.Dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	p.log.Debug(fmt.Sprintf("running %s", job.CommandLine()))

	err := cmd.Run()

	result.FinishedAt = time.Now()
	result.Duration = result.FinishedAt.Sub(result.StartedAt)
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	switch {
	case err == nil:
		code := cmd.ProcessState.ExitCode()
		result.ExitCode = &code
		result.Success = true

	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		result.FailureKind = types.FailureTimeout
		result.Error = fmt.Sprintf("timed out after %s", p.timeout)

	case errors.Is(runCtx.Err(), context.Canceled):
		result.FailureKind = types.FailureInternal
		result.Error = "canceled"

	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code := exitErr.ExitCode()
			result.ExitCode = &code
			result.FailureKind = types.FailureCompile
			result.Error = err.Error()
		} else {
			result.FailureKind = types.FailureInternal
			result.Error = err.Error()
		}
	}

	p.appendLog(job, &result)
	return result
}

// appendLog mirrors each invocation into <logDir>/<language>.log. Jobs
// of one language can finish concurrently, so writes are serialized.
func (p *ProcessInvoker) appendLog(job types.CompileJob, result *types.CompileResult) {
	if p.logDir == "" {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := os.MkdirAll(p.logDir, 0755); err != nil {
		p.log.Warn(fmt.Sprintf("cannot create log directory: %v", err))
		return
	}

	logPath := filepath.Join(p.logDir, fmt.Sprintf("%s.log", job.Language))
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		p.log.Warn(fmt.Sprintf("cannot open log file: %v", err))
		return
	}
	defer f.Close()

	status := "ok"
	if result.Failed() {
		status = string(result.FailureKind)
	}

	fmt.Fprintf(f, "\n=== %s at %s (%s) ===\n", result.Label, result.StartedAt.Format("2006-01-02 15:04:05"), status)
	fmt.Fprintf(f, "$ %s\n", job.CommandLine())
	if result.Stdout != "" {
		fmt.Fprint(f, result.Stdout)
	}
	if result.Stderr != "" {
		fmt.Fprint(f, result.Stderr)
	}
	if result.Error != "" {
		fmt.Fprintf(f, "error: %s\n", result.Error)
	}
}
