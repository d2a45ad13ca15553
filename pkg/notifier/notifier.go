// Package notifier surfaces build run outcomes as desktop notifications.
package notifier

import (
	"fmt"
	"time"

	"github.com/gen2brain/beeep"

	"github.com/notname9390/lol/pkg/logger"
	"github.com/notname9390/lol/pkg/types"
)

// RunNotifier sends one desktop notification per completed run.
type RunNotifier struct {
	enabled bool
	log     logger.Logger
	send    func(title, message string) error
}

// New creates a run notifier. When disabled it swallows every call.
func New(enabled bool, log logger.Logger) *RunNotifier {
	return &RunNotifier{
		enabled: enabled,
		log:     log.WithScope("notify"),
		send:    sendDesktop,
	}
}

// NotifyRun reports the outcome of a finished run.
func (n *RunNotifier) NotifyRun(rep *types.BuildReport) {
	if !n.enabled || rep == nil {
		return
	}

	duration := time.Duration(rep.DurationMillis) * time.Millisecond

	var title, message string
	switch {
	case rep.TotalJobs == 0:
		title = "✅ Build Succeeded"
		message = "No source files to compile"
	case rep.OverallSuccess:
		title = "✅ Build Succeeded"
		message = fmt.Sprintf("%d job(s) compiled in %s", rep.Succeeded, formatDuration(duration))
	default:
		title = "❌ Build Failed"
		message = fmt.Sprintf("%d of %d job(s) failed", rep.Failed, rep.TotalJobs)
		if rep.Skipped > 0 {
			message += fmt.Sprintf(" (%d skipped)", rep.Skipped)
		}
		message += fmt.Sprintf(" in %s", formatDuration(duration))
	}

	n.deliver(title, message)
}

// Private methods

func (n *RunNotifier) deliver(title, message string) {
	if err := n.send(title, message); err != nil {
		n.log.Debug("Failed to send notification", logger.WithField("error", err))
	}
}

func sendDesktop(title, message string) error {
	return beeep.Notify(title, message, "")
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}
