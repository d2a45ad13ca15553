package invoker_test

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/notname9390/lol/pkg/invoker"
	"github.com/notname9390/lol/pkg/logger"
	"github.com/notname9390/lol/pkg/types"
)

func shPath(t *testing.T) string {
	t.Helper()
	path, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not installed")
	}
	return path
}

func shJob(t *testing.T, id int, script string) types.CompileJob {
	return types.CompileJob{
		ID:         id,
		Language:   types.LanguageC,
		Files:      []types.SourceFile{{RelPath: "main.c", Language: types.LanguageC}},
		Executable: shPath(t),
		Args:       []string{"-c", script},
		Dir:        t.TempDir(),
		Mode:       types.ModeBuild,
	}
}

func newInvoker(opts invoker.Options) *invoker.ProcessInvoker {
	return invoker.New(logger.NewWithOutput("error", io.Discard), opts)
}

func TestInvoke_Success(t *testing.T) {
	inv := newInvoker(invoker.Options{})
	job := shJob(t, 1, "echo built; echo warning 1>&2")

	result := inv.Invoke(context.Background(), job)

	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.FailureKind != "" {
		t.Errorf("failure kind = %s, want empty", result.FailureKind)
	}
	if result.ExitCode == nil || *result.ExitCode != 0 {
		t.Errorf("exit code = %v, want 0", result.ExitCode)
	}
	if !strings.Contains(result.Stdout, "built") {
		t.Errorf("stdout = %q, want it to contain built", result.Stdout)
	}
	if !strings.Contains(result.Stderr, "warning") {
		t.Errorf("stderr = %q, want it to contain warning", result.Stderr)
	}
	if strings.Contains(result.Stdout, "warning") {
		t.Error("stderr leaked into stdout")
	}
	if result.Duration <= 0 {
		t.Errorf("duration = %s, want positive", result.Duration)
	}
	if result.JobID != 1 || result.Language != types.LanguageC {
		t.Errorf("result identity wrong: %+v", result)
	}
}

func TestInvoke_CompileFailure(t *testing.T) {
	inv := newInvoker(invoker.Options{})
	job := shJob(t, 2, "echo 'main.c:1: error' 1>&2; exit 3")

	result := inv.Invoke(context.Background(), job)

	if result.Success {
		t.Fatal("expected failure")
	}
	if result.FailureKind != types.FailureCompile {
		t.Errorf("failure kind = %s, want %s", result.FailureKind, types.FailureCompile)
	}
	if result.ExitCode == nil || *result.ExitCode != 3 {
		t.Errorf("exit code = %v, want 3", result.ExitCode)
	}
	if !strings.Contains(result.Stderr, "error") {
		t.Errorf("stderr = %q, want compiler diagnostics", result.Stderr)
	}
}

func TestInvoke_Timeout(t *testing.T) {
	inv := newInvoker(invoker.Options{Timeout: 100 * time.Millisecond})
	job := shJob(t, 3, "sleep 5")

	start := time.Now()
	result := inv.Invoke(context.Background(), job)

	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("invocation took %s, timeout did not fire", elapsed)
	}
	if result.Success {
		t.Fatal("expected timeout failure")
	}
	if result.FailureKind != types.FailureTimeout {
		t.Errorf("failure kind = %s, want %s", result.FailureKind, types.FailureTimeout)
	}
	if result.ExitCode != nil {
		t.Errorf("exit code = %v, want nil for timeout", *result.ExitCode)
	}
	if !strings.Contains(result.Error, "timed out") {
		t.Errorf("error = %q, want timeout message", result.Error)
	}
}

func TestInvoke_SpawnFailure(t *testing.T) {
	inv := newInvoker(invoker.Options{})
	job := types.CompileJob{
		ID:         4,
		Language:   types.LanguageRust,
		Files:      []types.SourceFile{{RelPath: "lib.rs", Language: types.LanguageRust}},
		Executable: filepath.Join(t.TempDir(), "missing-compiler"),
		Args:       []string{"lib.rs"},
		Dir:        t.TempDir(),
	}

	result := inv.Invoke(context.Background(), job)

	if result.Success {
		t.Fatal("expected spawn failure")
	}
	if result.FailureKind != types.FailureInternal {
		t.Errorf("failure kind = %s, want %s", result.FailureKind, types.FailureInternal)
	}
	if result.ExitCode != nil {
		t.Errorf("exit code = %v, want nil when nothing ran", *result.ExitCode)
	}
	if result.Error == "" {
		t.Error("expected spawn error message")
	}
}

func TestInvoke_CanceledContext(t *testing.T) {
	inv := newInvoker(invoker.Options{})
	job := shJob(t, 5, "sleep 5")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	result := inv.Invoke(ctx, job)

	if result.Success {
		t.Fatal("expected canceled invocation to fail")
	}
	if result.FailureKind != types.FailureInternal {
		t.Errorf("failure kind = %s, want %s", result.FailureKind, types.FailureInternal)
	}
}

func TestInvoke_DefaultTimeout(t *testing.T) {
	inv := newInvoker(invoker.Options{})
	if inv.Timeout() != invoker.DefaultTimeout {
		t.Errorf("timeout = %s, want %s", inv.Timeout(), invoker.DefaultTimeout)
	}

	inv = newInvoker(invoker.Options{Timeout: 10 * time.Second})
	if inv.Timeout() != 10*time.Second {
		t.Errorf("timeout = %s, want 10s", inv.Timeout())
	}
}

func TestInvoke_AppendsLanguageLog(t *testing.T) {
	logDir := filepath.Join(t.TempDir(), "logs")
	inv := newInvoker(invoker.Options{LogDir: logDir})

	inv.Invoke(context.Background(), shJob(t, 6, "echo first"))
	inv.Invoke(context.Background(), shJob(t, 7, "echo second 1>&2; exit 1"))

	data, err := os.ReadFile(filepath.Join(logDir, "c.log"))
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}

	content := string(data)
	if !strings.Contains(content, "first") || !strings.Contains(content, "second") {
		t.Errorf("log missing invocation output:\n%s", content)
	}
	if !strings.Contains(content, "(ok)") {
		t.Errorf("log missing success status:\n%s", content)
	}
	if !strings.Contains(content, "(compile_error)") {
		t.Errorf("log missing failure status:\n%s", content)
	}
}
