// Package report aggregates per-job results into a final build report.
package report

import (
	"sort"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/notname9390/lol/pkg/types"
)

const (
	// MaxFailureDetails bounds the diagnostics section of a report.
	MaxFailureDetails = 10

	// StderrExcerptBytes bounds each failure's captured stderr.
	StderrExcerptBytes = 2000
)

// RunInfo carries the run-level facts the aggregator cannot observe on
// its own.
type RunInfo struct {
	RunID      string
	Root       string
	StartedAt  time.Time
	FinishedAt time.Time
	TotalJobs  int
	Warnings   []string
}

// Aggregator collects results as they finish. It is safe for
// concurrent use and performs no I/O; rendering is the caller's
// concern.
type Aggregator struct {
	mu        sync.Mutex
	results   []types.CompileResult
	perLang   map[types.Language]*types.LanguageStats
	succeeded int
	failed    int
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		perLang: make(map[types.Language]*types.LanguageStats),
	}
}

// Add records one finished job.
func (a *Aggregator) Add(result types.CompileResult) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.results = append(a.results, result)

	stats, ok := a.perLang[result.Language]
	if !ok {
		stats = &types.LanguageStats{}
		a.perLang[result.Language] = stats
	}

	if result.Success {
		a.succeeded++
		stats.Succeeded++
	} else {
		a.failed++
		stats.Failed++
	}
}

// Count returns the number of results recorded so far.
func (a *Aggregator) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.results)
}

// FailedCount returns the number of failed results recorded so far.
func (a *Aggregator) FailedCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.failed
}

// Finalize freezes the collected results into a report. Results are
// ordered by job id; jobs with no result count as skipped. A run is
// only an overall success when nothing failed and nothing was skipped.
func (a *Aggregator) Finalize(info RunInfo) *types.BuildReport {
	a.mu.Lock()
	defer a.mu.Unlock()

	results := make([]types.CompileResult, len(a.results))
	copy(results, a.results)
	sort.Slice(results, func(i, j int) bool { return results[i].JobID < results[j].JobID })

	skipped := info.TotalJobs - len(results)
	if skipped < 0 {
		skipped = 0
	}

	perLang := make(map[types.Language]*types.LanguageStats, len(a.perLang))
	for lang, stats := range a.perLang {
		clone := *stats
		perLang[lang] = &clone
	}

	report := &types.BuildReport{
		RunID:          info.RunID,
		Root:           info.Root,
		StartedAt:      info.StartedAt,
		FinishedAt:     info.FinishedAt,
		DurationMillis: info.FinishedAt.Sub(info.StartedAt).Milliseconds(),
		TotalJobs:      info.TotalJobs,
		Succeeded:      a.succeeded,
		Failed:         a.failed,
		Skipped:        skipped,
		OverallSuccess: a.failed == 0 && skipped == 0,
		PerLanguage:    perLang,
		Results:        results,
		Warnings:       info.Warnings,
	}

	for _, res := range results {
		if res.Success {
			continue
		}
		if len(report.Failures) < MaxFailureDetails {
			report.Failures = append(report.Failures, types.FailureDetail{
				JobID:         res.JobID,
				Language:      res.Language,
				Label:         res.Label,
				Kind:          res.FailureKind,
				ExitCode:      res.ExitCode,
				StderrExcerpt: excerpt(res.Stderr, StderrExcerptBytes),
			})
		}
	}

	for _, res := range results {
		if res.Duration <= 0 {
			continue
		}
		if report.Slowest == nil || res.Duration > report.Slowest.Duration {
			report.Slowest = &types.SlowestJob{
				JobID:    res.JobID,
				Language: res.Language,
				Label:    res.Label,
				Duration: res.Duration,
			}
		}
	}

	return report
}

// excerpt returns the first max bytes of s without splitting a rune.
func excerpt(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
