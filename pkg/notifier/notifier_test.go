package notifier_test

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/notname9390/lol/pkg/logger"
	"github.com/notname9390/lol/pkg/notifier"
	"github.com/notname9390/lol/pkg/types"
)

type capturedNote struct {
	title   string
	message string
}

func captureNotifier(enabled bool) (*notifier.RunNotifier, *[]capturedNote) {
	n := notifier.New(enabled, logger.NewWithOutput("error", io.Discard))
	var notes []capturedNote
	n.SetSend(func(title, message string) error {
		notes = append(notes, capturedNote{title, message})
		return nil
	})
	return n, &notes
}

func TestNotifyRun_Success(t *testing.T) {
	n, notes := captureNotifier(true)

	n.NotifyRun(&types.BuildReport{
		TotalJobs:      4,
		Succeeded:      4,
		OverallSuccess: true,
		DurationMillis: 2500,
	})

	if len(*notes) != 1 {
		t.Fatalf("sent %d notifications, want 1", len(*notes))
	}
	note := (*notes)[0]
	if !strings.Contains(note.title, "Succeeded") {
		t.Errorf("title = %q, want success title", note.title)
	}
	if !strings.Contains(note.message, "4 job(s)") || !strings.Contains(note.message, "2.5s") {
		t.Errorf("message = %q, want job count and duration", note.message)
	}
}

func TestNotifyRun_Failure(t *testing.T) {
	n, notes := captureNotifier(true)

	n.NotifyRun(&types.BuildReport{
		TotalJobs:      5,
		Succeeded:      2,
		Failed:         2,
		Skipped:        1,
		DurationMillis: 300,
	})

	if len(*notes) != 1 {
		t.Fatalf("sent %d notifications, want 1", len(*notes))
	}
	note := (*notes)[0]
	if !strings.Contains(note.title, "Failed") {
		t.Errorf("title = %q, want failure title", note.title)
	}
	if !strings.Contains(note.message, "2 of 5") {
		t.Errorf("message = %q, want failure counts", note.message)
	}
	if !strings.Contains(note.message, "1 skipped") {
		t.Errorf("message = %q, want skipped count", note.message)
	}
	if !strings.Contains(note.message, "300ms") {
		t.Errorf("message = %q, want duration", note.message)
	}
}

func TestNotifyRun_EmptyRun(t *testing.T) {
	n, notes := captureNotifier(true)

	n.NotifyRun(&types.BuildReport{OverallSuccess: true})

	if len(*notes) != 1 {
		t.Fatalf("sent %d notifications, want 1", len(*notes))
	}
	if !strings.Contains((*notes)[0].message, "No source files") {
		t.Errorf("message = %q, want empty-run wording", (*notes)[0].message)
	}
}

func TestNotifyRun_Disabled(t *testing.T) {
	n, notes := captureNotifier(false)

	n.NotifyRun(&types.BuildReport{TotalJobs: 1, Failed: 1})

	if len(*notes) != 0 {
		t.Errorf("disabled notifier sent %d notifications", len(*notes))
	}
}

func TestNotifyRun_NilReport(t *testing.T) {
	n, notes := captureNotifier(true)

	n.NotifyRun(nil)

	if len(*notes) != 0 {
		t.Errorf("nil report sent %d notifications", len(*notes))
	}
}

func TestNotifyRun_SendErrorIsSwallowed(t *testing.T) {
	n := notifier.New(true, logger.NewWithOutput("error", io.Discard))
	n.SetSend(func(title, message string) error {
		return errors.New("no notification daemon")
	})

	// Must not panic or propagate.
	n.NotifyRun(&types.BuildReport{TotalJobs: 1, Succeeded: 1, OverallSuccess: true})
}

func TestNotifyRun_DurationFormats(t *testing.T) {
	tests := []struct {
		millis int64
		want   string
	}{
		{250, "250ms"},
		{1500, "1.5s"},
		{59900, "59.9s"},
		{61000, "1m1s"},
		{150000, "2m30s"},
	}

	for _, tt := range tests {
		n, notes := captureNotifier(true)
		n.NotifyRun(&types.BuildReport{
			TotalJobs:      1,
			Succeeded:      1,
			OverallSuccess: true,
			DurationMillis: tt.millis,
		})
		if !strings.Contains((*notes)[0].message, tt.want) {
			t.Errorf("duration %dms rendered %q, want %q", tt.millis, (*notes)[0].message, tt.want)
		}
	}
}
