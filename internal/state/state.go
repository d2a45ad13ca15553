// Package state persists build run outcomes under the project's .lol
// directory.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/notname9390/lol/pkg/logger"
	"github.com/notname9390/lol/pkg/types"
)

// ErrNoState is returned when no run has been recorded yet.
var ErrNoState = errors.New("no recorded runs")

// maxHistoryEntries caps the run history file.
const maxHistoryEntries = 20

// RunSummary is the compact history entry kept per run.
type RunSummary struct {
	RunID          string    `json:"runId"`
	StartedAt      time.Time `json:"startedAt"`
	DurationMillis int64     `json:"durationMillis"`
	TotalJobs      int       `json:"totalJobs"`
	Succeeded      int       `json:"succeeded"`
	Failed         int       `json:"failed"`
	Skipped        int       `json:"skipped"`
	OverallSuccess bool      `json:"overallSuccess"`
}

// Manager reads and writes run state files.
type Manager struct {
	baseDir  string
	stateDir string
	log      logger.Logger
	mu       sync.Mutex
}

// NewManager creates a state manager rooted at the project directory.
// Nothing is created on disk until a run is recorded.
func NewManager(projectRoot string, log logger.Logger) *Manager {
	baseDir := filepath.Join(projectRoot, ".lol")
	return &Manager{
		baseDir:  baseDir,
		stateDir: filepath.Join(baseDir, "state"),
		log:      log.WithScope("state"),
	}
}

// BaseDir returns the .lol directory this manager owns.
func (m *Manager) BaseDir() string {
	return m.baseDir
}

// RecordRun persists the full report as the last run and appends a
// compact summary to the history file.
func (m *Manager) RecordRun(rep *types.BuildReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.MkdirAll(m.stateDir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	if err := m.writeJSON(m.lastRunPath(), rep); err != nil {
		return err
	}

	history, err := m.loadHistory()
	if err != nil {
		m.log.Warn(fmt.Sprintf("Resetting unreadable run history: %v", err))
		history = nil
	}
	history = append(history, summarize(rep))
	if len(history) > maxHistoryEntries {
		history = history[len(history)-maxHistoryEntries:]
	}

	return m.writeJSON(m.historyPath(), history)
}

// LastRun loads the most recently recorded report.
func (m *Manager) LastRun() (*types.BuildReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.lastRunPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoState
		}
		return nil, fmt.Errorf("failed to read run state: %w", err)
	}

	var rep types.BuildReport
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("failed to parse run state: %w", err)
	}
	return &rep, nil
}

// History returns recorded run summaries, oldest first.
func (m *Manager) History() ([]RunSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadHistory()
}

// Clean removes everything the tool has written under the project.
func (m *Manager) Clean() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.RemoveAll(m.baseDir); err != nil {
		return fmt.Errorf("failed to remove state: %w", err)
	}
	return nil
}

// Private methods

func (m *Manager) lastRunPath() string {
	return filepath.Join(m.stateDir, "last-run.json")
}

func (m *Manager) historyPath() string {
	return filepath.Join(m.stateDir, "history.json")
}

func (m *Manager) loadHistory() ([]RunSummary, error) {
	data, err := os.ReadFile(m.historyPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var history []RunSummary
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, err
	}
	return history, nil
}

// writeJSON writes atomically via a temp file and rename, so a crashed
// run never leaves a half-written state file behind.
func (m *Manager) writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename state file: %w", err)
	}

	return nil
}

func summarize(rep *types.BuildReport) RunSummary {
	return RunSummary{
		RunID:          rep.RunID,
		StartedAt:      rep.StartedAt,
		DurationMillis: rep.DurationMillis,
		TotalJobs:      rep.TotalJobs,
		Succeeded:      rep.Succeeded,
		Failed:         rep.Failed,
		Skipped:        rep.Skipped,
		OverallSuccess: rep.OverallSuccess,
	}
}
