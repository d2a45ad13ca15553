// Package config handles configuration loading and management
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/notname9390/lol/pkg/toolchain"
	"github.com/notname9390/lol/pkg/types"
)

const (
	// CurrentVersion is the config schema version this build understands.
	CurrentVersion = "1.0"

	// DefaultTimeoutSeconds bounds a single toolchain invocation.
	DefaultTimeoutSeconds = 120

	// DefaultSettlingDelayMs is how long watch mode waits after the last
	// file event before triggering a build.
	DefaultSettlingDelayMs = 500
)

// configFileNames are the discovery candidates, in priority order.
var configFileNames = []string{
	"lol.config.json",
	"lol.config.yaml",
	"lol.config.yml",
}

// Config is the project configuration.
type Config struct {
	Version string `json:"version"`

	// Languages restricts the build to the listed languages. Empty
	// means build everything discovered.
	Languages []types.Language `json:"languages,omitempty"`

	// Flags replaces the default per-language compiler flags.
	Flags map[types.Language][]string `json:"flags,omitempty"`

	// CompilerPaths overrides the registry executable per language,
	// e.g. pointing c at clang instead of gcc.
	CompilerPaths map[types.Language]string `json:"compilerPaths,omitempty"`

	IgnorePatterns  []string `json:"ignorePatterns,omitempty"`
	IncludePatterns []string `json:"includePatterns,omitempty"`

	// Jobs caps parallel toolchain processes. Zero means one per CPU.
	Jobs int `json:"jobs,omitempty"`

	// TimeoutSeconds bounds each invocation. Zero means the default.
	TimeoutSeconds int `json:"timeoutSeconds,omitempty"`

	FailFast bool `json:"failFast,omitempty"`

	Watch         *WatchConfig        `json:"watch,omitempty"`
	Notifications *NotificationConfig `json:"notifications,omitempty"`
	Logging       *LoggingConfig      `json:"logging,omitempty"`
}

// WatchConfig tunes watch mode.
type WatchConfig struct {
	SettlingDelayMs int `json:"settlingDelay,omitempty"`
}

// NotificationConfig controls desktop notifications.
type NotificationConfig struct {
	Enabled *bool `json:"enabled,omitempty"`
}

// LoggingConfig controls the log sink.
type LoggingConfig struct {
	File  string `json:"file,omitempty"`
	Level string `json:"level,omitempty"`
}

// Manager handles configuration operations
type Manager struct {
	registry *toolchain.Registry
}

// NewManager creates a new configuration manager
func NewManager() *Manager {
	return &Manager{registry: toolchain.NewRegistry()}
}

// Discover looks for a config file in the project root. It returns an
// empty path (and no error) when none exists, since configuration is
// optional.
func (m *Manager) Discover(root string) string {
	for _, name := range configFileNames {
		candidate := filepath.Join(root, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

// LoadConfig loads configuration from a file
func (m *Manager) LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config

	// Try JSON first
	if err := json.Unmarshal(data, &cfg); err == nil {
		return m.finishLoad(&cfg)
	}

	// Try YAML by round-tripping through JSON so only json tags are
	// needed on the struct
	var yamlData map[string]interface{}
	if err := yaml.Unmarshal(data, &yamlData); err == nil {
		jsonData, err := json.Marshal(yamlData)
		if err == nil {
			if err := json.Unmarshal(jsonData, &cfg); err == nil {
				return m.finishLoad(&cfg)
			}
		}
	}

	return nil, fmt.Errorf("failed to parse config as JSON or YAML")
}

// SaveConfig writes a config file as indented JSON.
func (m *Manager) SaveConfig(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ValidateConfig validates a configuration
func (m *Manager) ValidateConfig(cfg *Config) error {
	if cfg.Version != "" && cfg.Version != CurrentVersion {
		return fmt.Errorf("unsupported config version: %s", cfg.Version)
	}

	for _, lang := range cfg.Languages {
		if !m.registry.Known(lang) {
			return fmt.Errorf("unknown language: %s", lang)
		}
	}
	for lang := range cfg.Flags {
		if !m.registry.Known(lang) {
			return fmt.Errorf("flags for unknown language: %s", lang)
		}
	}
	for lang, path := range cfg.CompilerPaths {
		if !m.registry.Known(lang) {
			return fmt.Errorf("compiler path for unknown language: %s", lang)
		}
		if strings.TrimSpace(path) == "" {
			return fmt.Errorf("empty compiler path for language: %s", lang)
		}
	}

	if cfg.Jobs < 0 {
		return fmt.Errorf("jobs must not be negative, got %d", cfg.Jobs)
	}
	if cfg.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout must not be negative, got %d", cfg.TimeoutSeconds)
	}
	if cfg.Watch != nil && cfg.Watch.SettlingDelayMs < 0 {
		return fmt.Errorf("settling delay must not be negative, got %d", cfg.Watch.SettlingDelayMs)
	}

	return nil
}

// GetDefaultConfig returns the built-in defaults: conservative warning
// flags for C and C++, release builds for Rust, stripped binaries for
// Go, and ignore patterns covering common artifact and VCS directories.
func (m *Manager) GetDefaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Flags: map[types.Language][]string{
			types.LanguageC:    {"-Wall", "-Wextra", "-std=c99"},
			types.LanguageCpp:  {"-Wall", "-Wextra", "-std=c++17"},
			types.LanguageRust: {"--release"},
			types.LanguageGo:   {"-ldflags=-s", "-ldflags=-w"},
		},
		IgnorePatterns: DefaultIgnorePatterns(),
		Jobs:           runtime.NumCPU(),
		TimeoutSeconds: DefaultTimeoutSeconds,
		Watch: &WatchConfig{
			SettlingDelayMs: DefaultSettlingDelayMs,
		},
	}
}

// DefaultIgnorePatterns returns the artifact, dependency, and VCS
// patterns skipped when no config overrides them. The tool's own state
// directory is always on the list so watch mode never triggers on it.
func DefaultIgnorePatterns() []string {
	return []string{
		"*.o",
		"*.obj",
		"*.exe",
		"*.dll",
		"*.so",
		"*.dylib",
		"*.a",
		"*.lib",
		"target/",
		"build/",
		"dist/",
		"node_modules/",
		".git/",
		".svn/",
		".hg/",
		".lol/",
	}
}

// NormalizeFlags ensures every flag token carries a leading dash, so
// users can write "Wall" and "std=c99" interchangeably with the dashed
// forms.
func NormalizeFlags(flags []string) []string {
	if len(flags) == 0 {
		return nil
	}
	out := make([]string, 0, len(flags))
	for _, flag := range flags {
		flag = strings.TrimSpace(flag)
		if flag == "" {
			continue
		}
		if !strings.HasPrefix(flag, "-") {
			flag = "-" + flag
		}
		out = append(out, flag)
	}
	return out
}

// SplitFlags splits a space-separated flag string and normalizes each
// token.
func SplitFlags(s string) []string {
	return NormalizeFlags(strings.Fields(s))
}

// Private methods

func (m *Manager) finishLoad(cfg *Config) (*Config, error) {
	if cfg.Version == "" {
		cfg.Version = CurrentVersion
	}
	for lang, flags := range cfg.Flags {
		cfg.Flags[lang] = NormalizeFlags(flags)
	}
	if err := m.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
