// Package types provides core types shared across the lol orchestrator
package types

import (
	"fmt"
	"time"
)

// Language identifies a supported programming language
type Language string

const (
	LanguageC          Language = "c"
	LanguageCpp        Language = "cpp"
	LanguagePython     Language = "python"
	LanguageJava       Language = "java"
	LanguageRust       Language = "rust"
	LanguageGo         Language = "go"
	LanguageJavaScript Language = "javascript"
	LanguageTypeScript Language = "typescript"
	LanguageCSharp     Language = "csharp"
	LanguageSwift      Language = "swift"
	LanguageKotlin     Language = "kotlin"
	LanguageScala      Language = "scala"
	LanguageHaskell    Language = "haskell"
	LanguageFSharp     Language = "fsharp"
	LanguageOCaml      Language = "ocaml"
	LanguageNim        Language = "nim"
	LanguageZig        Language = "zig"
	LanguageV          Language = "v"
	LanguageOdin       Language = "odin"
	LanguageJai        Language = "jai"
)

// InvocationMode controls how a toolchain's success is interpreted
type InvocationMode string

const (
	// ModeBuild toolchains produce an artifact; success is exit code zero.
	ModeBuild InvocationMode = "build"
	// ModeCheck toolchains validate syntax only; no artifact is expected.
	ModeCheck InvocationMode = "check"
)

// InvocationStyle controls how files of a language map onto jobs
type InvocationStyle string

const (
	// InvocationGroup passes every file of the language in one command line.
	InvocationGroup InvocationStyle = "group"
	// InvocationPerFile spawns one process per source file.
	InvocationPerFile InvocationStyle = "per-file"
)

// FailureKind classifies why a compile job failed
type FailureKind string

const (
	FailureCompile           FailureKind = "compile_error"
	FailureToolchainNotFound FailureKind = "toolchain_not_found"
	FailureTimeout           FailureKind = "timeout"
	FailureInternal          FailureKind = "internal_error"
)

// SourceFile is one classified file discovered during traversal
type SourceFile struct {
	Path     string   `json:"path"`
	RelPath  string   `json:"relPath"`
	Ext      string   `json:"ext"`
	Language Language `json:"language"`
	Size     int64    `json:"size"`
}

// LanguageGroup collects the discovered files of one language in
// traversal order.
type LanguageGroup struct {
	Language Language     `json:"language"`
	Files    []SourceFile `json:"files"`
}

// Add appends a file to the group.
func (g *LanguageGroup) Add(file SourceFile) {
	g.Files = append(g.Files, file)
}

// TotalSize returns the combined byte size of the group's files.
func (g *LanguageGroup) TotalSize() int64 {
	var size int64
	for _, f := range g.Files {
		size += f.Size
	}
	return size
}

// CompileJob is one schedulable toolchain invocation. Jobs are immutable
// once built and consumed exactly once by the scheduler.
type CompileJob struct {
	ID         int            `json:"id"`
	Language   Language       `json:"language"`
	Files      []SourceFile   `json:"files"`
	Executable string         `json:"executable"`
	Args       []string       `json:"args"`
	Dir        string         `json:"dir"`
	Mode       InvocationMode `json:"mode"`
}

// Label returns a short human-readable identifier for the job: the
// relative path for per-file jobs, "<lang> (N files)" for group jobs.
func (j *CompileJob) Label() string {
	if len(j.Files) == 1 {
		return j.Files[0].RelPath
	}
	return fmt.Sprintf("%s (%d files)", j.Language, len(j.Files))
}

// CommandLine renders the full command for logging.
func (j *CompileJob) CommandLine() string {
	line := j.Executable
	for _, arg := range j.Args {
		line += " " + arg
	}
	return line
}

// CompileResult is the outcome of exactly one CompileJob. ExitCode is nil
// when the process never ran (missing toolchain, spawn failure) or was
// killed on timeout.
type CompileResult struct {
	JobID       int           `json:"jobId"`
	Language    Language      `json:"language"`
	Label       string        `json:"label"`
	Success     bool          `json:"success"`
	FailureKind FailureKind   `json:"failureKind,omitempty"`
	ExitCode    *int          `json:"exitCode,omitempty"`
	Stdout      string        `json:"stdout,omitempty"`
	Stderr      string        `json:"stderr,omitempty"`
	Error       string        `json:"error,omitempty"`
	StartedAt   time.Time     `json:"startedAt"`
	FinishedAt  time.Time     `json:"finishedAt"`
	Duration    time.Duration `json:"duration"`
}

// Failed reports whether the result carries any failure kind.
func (r *CompileResult) Failed() bool {
	return !r.Success
}

// LanguageStats holds per-language pass/fail counters.
type LanguageStats struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// FailureDetail is one failing job prepared for diagnostic display.
type FailureDetail struct {
	JobID         int         `json:"jobId"`
	Language      Language    `json:"language"`
	Label         string      `json:"label"`
	Kind          FailureKind `json:"kind"`
	ExitCode      *int        `json:"exitCode"`
	StderrExcerpt string      `json:"stderrExcerpt"`
}

// SlowestJob records the longest-running job of a report.
type SlowestJob struct {
	JobID    int           `json:"jobId"`
	Language Language      `json:"language"`
	Label    string        `json:"label"`
	Duration time.Duration `json:"duration"`
}

// BuildReport is the finalized outcome of a whole run. Skipped counts
// jobs that were never admitted because fail-fast stopped the run.
type BuildReport struct {
	RunID          string                      `json:"runId"`
	Root           string                      `json:"root"`
	StartedAt      time.Time                   `json:"startedAt"`
	FinishedAt     time.Time                   `json:"finishedAt"`
	DurationMillis int64                       `json:"durationMillis"`
	TotalJobs      int                         `json:"totalJobs"`
	Succeeded      int                         `json:"succeeded"`
	Failed         int                         `json:"failed"`
	Skipped        int                         `json:"skipped"`
	OverallSuccess bool                        `json:"overallSuccess"`
	PerLanguage    map[Language]*LanguageStats `json:"perLanguage"`
	Results        []CompileResult             `json:"results"`
	Failures       []FailureDetail             `json:"failures"`
	Slowest        *SlowestJob                 `json:"slowest,omitempty"`
	Warnings       []string                    `json:"warnings,omitempty"`
}

// ResultsFor returns the report's results for one language, preserving
// job-id order.
func (r *BuildReport) ResultsFor(lang Language) []CompileResult {
	var out []CompileResult
	for _, res := range r.Results {
		if res.Language == lang {
			out = append(out, res)
		}
	}
	return out
}
