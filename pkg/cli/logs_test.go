package cli

import (
	"fmt"
	"strings"
	"testing"
)

func setupTestLogs(t *testing.T, root string, languages ...string) {
	t.Helper()
	for _, lang := range languages {
		content := fmt.Sprintf("[10:00:01] $ gcc -c main.%s\n[10:00:02] exit 0\n", lang)
		writeTestFile(t, root, ".lol/logs/"+lang+".log", content)
	}
}

func TestRunLogs_AllLanguages(t *testing.T) {
	dir := t.TempDir()
	setupTestLogs(t, dir, "c", "python")

	if err := runLogs(dir, "", false, 50); err != nil {
		t.Errorf("runLogs failed: %v", err)
	}
}

func TestRunLogs_SpecificLanguage(t *testing.T) {
	dir := t.TempDir()
	setupTestLogs(t, dir, "c", "python")

	if err := runLogs(dir, "c", false, 50); err != nil {
		t.Errorf("runLogs failed for specific language: %v", err)
	}
}

func TestRunLogs_MissingLanguage(t *testing.T) {
	dir := t.TempDir()
	setupTestLogs(t, dir, "c")

	err := runLogs(dir, "rust", false, 50)
	if err == nil {
		t.Fatal("expected error for language without logs")
	}
	if !strings.Contains(err.Error(), "no logs found for language: rust") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRunLogs_NoLogDirectory(t *testing.T) {
	// A tree that was never built has no log directory; that is not an
	// error, just nothing to show.
	if err := runLogs(t.TempDir(), "", false, 50); err != nil {
		t.Errorf("runLogs failed without log directory: %v", err)
	}
}

func TestRunLogs_EmptyLogDirectory(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, ".lol/logs/.keep", "")

	if err := runLogs(dir, "", false, 50); err != nil {
		t.Errorf("runLogs failed on empty log directory: %v", err)
	}
}

func TestReadLastNLines_Tail(t *testing.T) {
	dir := t.TempDir()

	var b strings.Builder
	for i := 1; i <= 100; i++ {
		fmt.Fprintf(&b, "line %d\n", i)
	}
	writeTestFile(t, dir, "big.log", b.String())

	content, err := readLastNLines(dir+"/big.log", 10)
	if err != nil {
		t.Fatalf("readLastNLines failed: %v", err)
	}

	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	if len(lines) != 10 {
		t.Fatalf("expected 10 lines, got %d", len(lines))
	}
	if lines[0] != "line 91" || lines[9] != "line 100" {
		t.Errorf("wrong tail window: first=%q last=%q", lines[0], lines[9])
	}
	if !strings.HasSuffix(content, "\n") {
		t.Error("content should end with a newline")
	}
}

func TestReadLastNLines_FewerThanAsked(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "small.log", "one\ntwo\nthree\n")

	content, err := readLastNLines(dir+"/small.log", 10)
	if err != nil {
		t.Fatalf("readLastNLines failed: %v", err)
	}
	if content != "one\ntwo\nthree\n" {
		t.Errorf("expected whole file, got %q", content)
	}
}

func TestReadLastNLines_MissingFile(t *testing.T) {
	if _, err := readLastNLines(t.TempDir()+"/nope.log", 10); err == nil {
		t.Error("expected error for missing file")
	}
}
