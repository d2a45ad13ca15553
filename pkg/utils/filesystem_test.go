package utils_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/notname9390/lol/pkg/utils"
)

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "present.txt")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if !utils.FileExists(file) {
		t.Error("expected FileExists to be true for a regular file")
	}
	if utils.FileExists(dir) {
		t.Error("expected FileExists to be false for a directory")
	}
	if utils.FileExists(filepath.Join(dir, "absent.txt")) {
		t.Error("expected FileExists to be false for a missing path")
	}
}

func TestDirectoryExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}

	if !utils.DirectoryExists(dir) {
		t.Error("expected DirectoryExists to be true for a directory")
	}
	if utils.DirectoryExists(file) {
		t.Error("expected DirectoryExists to be false for a file")
	}
}

func TestIsSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation requires privileges on windows")
	}

	dir := t.TempDir()
	target := filepath.Join(dir, "target")
	link := filepath.Join(dir, "link")
	if err := os.WriteFile(target, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(target, link); err != nil {
		t.Fatal(err)
	}

	if !utils.IsSymlink(link) {
		t.Error("expected IsSymlink to be true for a symlink")
	}
	if utils.IsSymlink(target) {
		t.Error("expected IsSymlink to be false for a regular file")
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
	}

	for _, tt := range tests {
		if got := utils.FormatBytes(tt.bytes); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}
