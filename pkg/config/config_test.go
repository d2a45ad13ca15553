package config_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/notname9390/lol/pkg/config"
	"github.com/notname9390/lol/pkg/types"
)

func TestLoadConfig_JSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "lol.config.json")

	testConfig := map[string]interface{}{
		"version":   "1.0",
		"languages": []string{"c", "python"},
		"flags": map[string][]string{
			"c": {"-Wall", "-O2"},
		},
		"jobs":           4,
		"timeoutSeconds": 30,
		"failFast":       true,
	}

	data, _ := json.Marshal(testConfig)
	os.WriteFile(configPath, data, 0644)

	manager := config.NewManager()
	cfg, err := manager.LoadConfig(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Version != "1.0" {
		t.Errorf("expected version 1.0, got %s", cfg.Version)
	}
	if len(cfg.Languages) != 2 || cfg.Languages[0] != types.LanguageC {
		t.Errorf("languages not loaded: %v", cfg.Languages)
	}
	if cfg.Jobs != 4 {
		t.Errorf("expected 4 jobs, got %d", cfg.Jobs)
	}
	if cfg.TimeoutSeconds != 30 {
		t.Errorf("expected 30s timeout, got %d", cfg.TimeoutSeconds)
	}
	if !cfg.FailFast {
		t.Error("expected fail fast enabled")
	}
}

func TestLoadConfig_YAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "lol.config.yaml")

	testConfig := map[string]interface{}{
		"version":        "1.0",
		"languages":      []string{"rust"},
		"ignorePatterns": []string{"vendor/", "*.tmp"},
	}

	data, _ := yaml.Marshal(testConfig)
	os.WriteFile(configPath, data, 0644)

	manager := config.NewManager()
	cfg, err := manager.LoadConfig(configPath)
	if err != nil {
		t.Fatalf("failed to load YAML config: %v", err)
	}

	if len(cfg.Languages) != 1 || cfg.Languages[0] != types.LanguageRust {
		t.Errorf("languages not loaded: %v", cfg.Languages)
	}
	if len(cfg.IgnorePatterns) != 2 {
		t.Errorf("expected 2 ignore patterns, got %d", len(cfg.IgnorePatterns))
	}
}

func TestLoadConfig_NormalizesFlags(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "lol.config.json")

	raw := `{"version": "1.0", "flags": {"c": ["Wall", "-O2", "std=c99"]}}`
	os.WriteFile(configPath, []byte(raw), 0644)

	manager := config.NewManager()
	cfg, err := manager.LoadConfig(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	got := strings.Join(cfg.Flags[types.LanguageC], " ")
	want := "-Wall -O2 -std=c99"
	if got != want {
		t.Errorf("normalized flags = %q, want %q", got, want)
	}
}

func TestValidateConfig(t *testing.T) {
	manager := config.NewManager()

	tests := []struct {
		name    string
		config  *config.Config
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid config",
			config: &config.Config{
				Version:   "1.0",
				Languages: []types.Language{types.LanguageC, types.LanguageGo},
				Jobs:      2,
			},
			wantErr: false,
		},
		{
			name:    "empty version accepted",
			config:  &config.Config{},
			wantErr: false,
		},
		{
			name: "invalid version",
			config: &config.Config{
				Version: "2.0",
			},
			wantErr: true,
			errMsg:  "unsupported config version",
		},
		{
			name: "unknown language",
			config: &config.Config{
				Version:   "1.0",
				Languages: []types.Language{"brainfuck"},
			},
			wantErr: true,
			errMsg:  "unknown language",
		},
		{
			name: "flags for unknown language",
			config: &config.Config{
				Version: "1.0",
				Flags: map[types.Language][]string{
					"cobol": {"-O2"},
				},
			},
			wantErr: true,
			errMsg:  "flags for unknown language",
		},
		{
			name: "empty compiler path",
			config: &config.Config{
				Version: "1.0",
				CompilerPaths: map[types.Language]string{
					types.LanguageC: "  ",
				},
			},
			wantErr: true,
			errMsg:  "empty compiler path",
		},
		{
			name: "negative jobs",
			config: &config.Config{
				Version: "1.0",
				Jobs:    -1,
			},
			wantErr: true,
			errMsg:  "jobs must not be negative",
		},
		{
			name: "negative timeout",
			config: &config.Config{
				Version:        "1.0",
				TimeoutSeconds: -5,
			},
			wantErr: true,
			errMsg:  "timeout must not be negative",
		},
		{
			name: "negative settling delay",
			config: &config.Config{
				Version: "1.0",
				Watch:   &config.WatchConfig{SettlingDelayMs: -100},
			},
			wantErr: true,
			errMsg:  "settling delay must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := manager.ValidateConfig(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}

			if err != nil && tt.errMsg != "" {
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("expected error containing '%s', got '%s'", tt.errMsg, err.Error())
				}
			}
		})
	}
}

func TestGetDefaultConfig(t *testing.T) {
	manager := config.NewManager()
	cfg := manager.GetDefaultConfig()

	if cfg.Version != config.CurrentVersion {
		t.Errorf("expected version %s, got %s", config.CurrentVersion, cfg.Version)
	}
	if cfg.Jobs != runtime.NumCPU() {
		t.Errorf("expected %d jobs, got %d", runtime.NumCPU(), cfg.Jobs)
	}
	if cfg.TimeoutSeconds != config.DefaultTimeoutSeconds {
		t.Errorf("expected %ds timeout, got %d", config.DefaultTimeoutSeconds, cfg.TimeoutSeconds)
	}
	if cfg.Watch == nil || cfg.Watch.SettlingDelayMs != config.DefaultSettlingDelayMs {
		t.Error("watch defaults not set")
	}

	cFlags := strings.Join(cfg.Flags[types.LanguageC], " ")
	if cFlags != "-Wall -Wextra -std=c99" {
		t.Errorf("unexpected default c flags: %q", cFlags)
	}
	cppFlags := strings.Join(cfg.Flags[types.LanguageCpp], " ")
	if cppFlags != "-Wall -Wextra -std=c++17" {
		t.Errorf("unexpected default c++ flags: %q", cppFlags)
	}

	if err := manager.ValidateConfig(cfg); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestDefaultIgnorePatterns(t *testing.T) {
	patterns := config.DefaultIgnorePatterns()

	expected := []string{"*.o", "target/", "build/", "node_modules/", ".git/", ".lol/"}
	for _, want := range expected {
		found := false
		for _, p := range patterns {
			if p == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected default ignore pattern %q not found", want)
		}
	}
}

func TestDiscover(t *testing.T) {
	tmpDir := t.TempDir()
	manager := config.NewManager()

	if got := manager.Discover(tmpDir); got != "" {
		t.Errorf("expected no config discovered, got %q", got)
	}

	yamlPath := filepath.Join(tmpDir, "lol.config.yaml")
	os.WriteFile(yamlPath, []byte("version: \"1.0\"\n"), 0644)
	if got := manager.Discover(tmpDir); got != yamlPath {
		t.Errorf("Discover = %q, want %q", got, yamlPath)
	}

	// JSON outranks YAML when both exist.
	jsonPath := filepath.Join(tmpDir, "lol.config.json")
	os.WriteFile(jsonPath, []byte(`{"version": "1.0"}`), 0644)
	if got := manager.Discover(tmpDir); got != jsonPath {
		t.Errorf("Discover = %q, want %q", got, jsonPath)
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "lol.config.json")

	manager := config.NewManager()
	original := manager.GetDefaultConfig()
	original.Languages = []types.Language{types.LanguageC, types.LanguageRust}
	original.FailFast = true

	if err := manager.SaveConfig(configPath, original); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	loaded, err := manager.LoadConfig(configPath)
	if err != nil {
		t.Fatalf("failed to reload config: %v", err)
	}

	if len(loaded.Languages) != 2 {
		t.Errorf("languages lost in round trip: %v", loaded.Languages)
	}
	if !loaded.FailFast {
		t.Error("fail fast lost in round trip")
	}
	if loaded.Jobs != original.Jobs {
		t.Errorf("jobs = %d, want %d", loaded.Jobs, original.Jobs)
	}
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	manager := config.NewManager()

	// Non-existent file
	if _, err := manager.LoadConfig("/non/existent/file.json"); err == nil {
		t.Error("expected error for non-existent file")
	}

	// Unparseable content
	tmpDir := t.TempDir()
	invalidPath := filepath.Join(tmpDir, "invalid.json")
	os.WriteFile(invalidPath, []byte("{not json: [nor yaml"), 0644)

	if _, err := manager.LoadConfig(invalidPath); err == nil {
		t.Error("expected error for unparseable config")
	}
}

func TestNormalizeFlags(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  string
	}{
		{"already dashed", []string{"-Wall", "-O2"}, "-Wall -O2"},
		{"bare tokens", []string{"Wall", "O2"}, "-Wall -O2"},
		{"mixed", []string{"Wall", "-std=c99"}, "-Wall -std=c99"},
		{"blank tokens dropped", []string{"", "  ", "O1"}, "-O1"},
		{"empty", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := strings.Join(config.NormalizeFlags(tt.input), " ")
			if got != tt.want {
				t.Errorf("NormalizeFlags(%v) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSplitFlags(t *testing.T) {
	got := strings.Join(config.SplitFlags("Wall  -O2  std=c++17"), " ")
	want := "-Wall -O2 -std=c++17"
	if got != want {
		t.Errorf("SplitFlags = %q, want %q", got, want)
	}
}
