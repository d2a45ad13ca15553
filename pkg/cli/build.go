package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/notname9390/lol/internal/engine"
	"github.com/notname9390/lol/internal/state"
	"github.com/notname9390/lol/pkg/config"
	"github.com/notname9390/lol/pkg/logger"
	"github.com/notname9390/lol/pkg/notifier"
	"github.com/notname9390/lol/pkg/toolchain"
	"github.com/notname9390/lol/pkg/types"
)

// buildFlags holds the root command's flag values.
type buildFlags struct {
	all       bool
	langC     bool
	langCpp   bool
	langPy    bool
	langJava  bool
	langRust  bool
	langGo    bool
	langJS    bool
	langTS    bool
	langExtra []string

	jobs     int
	timeout  time.Duration
	failFast bool
	cflags   string
	cxxflags string
	ignore   []string
	include  []string
	output   string
	notify   bool
}

var buildOpts buildFlags

func addBuildFlags(cmd *cobra.Command) {
	addRunFlags(cmd)

	f := cmd.Flags()
	f.StringVar(&buildOpts.output, "output", "pretty", "report format: pretty or json")
	f.BoolVar(&buildOpts.notify, "notify", false, "send a desktop notification when the run finishes")
}

// addRunFlags registers the flags shared by one-shot builds and watch
// mode.
func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()

	f.BoolVarP(&buildOpts.all, "all", "a", false, "build every language found (the default)")
	f.BoolVar(&buildOpts.langC, "c", false, "build C sources")
	f.BoolVar(&buildOpts.langCpp, "cpp", false, "build C++ sources")
	f.BoolVar(&buildOpts.langPy, "python", false, "check Python sources")
	f.BoolVar(&buildOpts.langJava, "java", false, "build Java sources")
	f.BoolVar(&buildOpts.langRust, "rust", false, "build Rust sources")
	f.BoolVar(&buildOpts.langGo, "go", false, "build Go sources")
	f.BoolVar(&buildOpts.langJS, "js", false, "check JavaScript sources")
	f.BoolVar(&buildOpts.langTS, "ts", false, "check TypeScript sources")
	f.StringSliceVar(&buildOpts.langExtra, "lang", nil, "additional languages, e.g. haskell,zig")

	f.IntVarP(&buildOpts.jobs, "jobs", "j", 0, "parallel compile jobs (default: one per CPU)")
	f.DurationVar(&buildOpts.timeout, "timeout", 0, "per-job timeout (default 2m)")
	f.BoolVar(&buildOpts.failFast, "fail-fast", false, "stop admitting jobs after the first failure")
	f.StringVar(&buildOpts.cflags, "cflags", "", "replace the default C compiler flags (space separated)")
	f.StringVar(&buildOpts.cxxflags, "cxxflags", "", "replace the default C++ compiler flags (space separated)")
	f.StringArrayVar(&buildOpts.ignore, "ignore", nil, "glob pattern to skip (repeatable)")
	f.StringArrayVar(&buildOpts.include, "include", nil, "glob pattern that rescues ignored paths (repeatable)")
}

func runBuild(cmd *cobra.Command, args []string) error {
	if buildOpts.output != "pretty" && buildOpts.output != "json" {
		return fmt.Errorf("unknown output format: %s", buildOpts.output)
	}

	root := rootArg(args)
	cfg, err := loadProjectConfig(root)
	if err != nil {
		return err
	}

	log := newRunLogger(cmd, cfg)

	opts, err := buildEngineOptions(cmd, root, cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := engine.Dependencies{
		State:    state.NewManager(opts.Root, log),
		Notifier: notifier.New(notifyEnabled(cmd, cfg), log),
	}

	rep, err := engine.New(opts, log, deps).Run(ctx)
	if err != nil {
		return err
	}

	if err := renderReport(os.Stdout, rep, buildOpts.output); err != nil {
		return err
	}

	exitCode = ExitCode(rep, nil)
	return nil
}

// loadProjectConfig loads the project config, falling back to built-in
// defaults when no config file exists.
func loadProjectConfig(root string) (*config.Config, error) {
	manager := config.NewManager()

	path := cfgFile
	if path == "" {
		path = manager.Discover(root)
	}
	if path == "" {
		return manager.GetDefaultConfig(), nil
	}

	cfg, err := manager.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func newRunLogger(cmd *cobra.Command, cfg *config.Config) logger.Logger {
	level := verbosity
	if !cmd.Flags().Changed("verbosity") && cfg.Logging != nil && cfg.Logging.Level != "" {
		level = cfg.Logging.Level
	}

	logFile := ""
	if cfg.Logging != nil {
		logFile = cfg.Logging.File
	}

	return logger.New(logFile, level)
}

// buildEngineOptions merges flags over config over built-in defaults.
func buildEngineOptions(cmd *cobra.Command, root string, cfg *config.Config) (engine.Options, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return engine.Options{}, fmt.Errorf("failed to resolve %s: %w", root, err)
	}

	languages, err := selectedLanguages(cfg)
	if err != nil {
		return engine.Options{}, err
	}

	jobs := buildOpts.jobs
	if !cmd.Flags().Changed("jobs") {
		jobs = cfg.Jobs
	}

	timeout := buildOpts.timeout
	if !cmd.Flags().Changed("timeout") {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	failFast := buildOpts.failFast
	if !cmd.Flags().Changed("fail-fast") {
		failFast = cfg.FailFast
	}

	return engine.Options{
		Root:            abs,
		Languages:       languages,
		Flags:           effectiveFlags(cmd, cfg),
		CompilerPaths:   cfg.CompilerPaths,
		IgnorePatterns:  mergePatterns(config.DefaultIgnorePatterns(), cfg.IgnorePatterns, buildOpts.ignore),
		IncludePatterns: mergePatterns(nil, cfg.IncludePatterns, buildOpts.include),
		Jobs:            jobs,
		Timeout:         timeout,
		FailFast:        failFast,
		LogDir:          filepath.Join(abs, ".lol", "logs"),
	}, nil
}

// selectedLanguages resolves the language filter: CLI selection beats
// the config list; no selection anywhere means every language.
func selectedLanguages(cfg *config.Config) ([]types.Language, error) {
	if buildOpts.all {
		return nil, nil
	}

	picks := []struct {
		on   bool
		lang types.Language
	}{
		{buildOpts.langC, types.LanguageC},
		{buildOpts.langCpp, types.LanguageCpp},
		{buildOpts.langPy, types.LanguagePython},
		{buildOpts.langJava, types.LanguageJava},
		{buildOpts.langRust, types.LanguageRust},
		{buildOpts.langGo, types.LanguageGo},
		{buildOpts.langJS, types.LanguageJavaScript},
		{buildOpts.langTS, types.LanguageTypeScript},
	}

	registry := toolchain.NewRegistry()
	seen := make(map[types.Language]bool)
	var langs []types.Language

	for _, pick := range picks {
		if pick.on && !seen[pick.lang] {
			seen[pick.lang] = true
			langs = append(langs, pick.lang)
		}
	}

	for _, raw := range buildOpts.langExtra {
		lang := types.Language(strings.ToLower(strings.TrimSpace(raw)))
		if lang == "" {
			continue
		}
		if !registry.Known(lang) {
			return nil, fmt.Errorf("unknown language: %s", raw)
		}
		if !seen[lang] {
			seen[lang] = true
			langs = append(langs, lang)
		}
	}

	if len(langs) == 0 {
		return cfg.Languages, nil
	}
	return langs, nil
}

// effectiveFlags starts from the built-in defaults, overlays the config
// map, then applies --cflags/--cxxflags.
func effectiveFlags(cmd *cobra.Command, cfg *config.Config) map[types.Language][]string {
	flags := make(map[types.Language][]string)
	for lang, fl := range config.NewManager().GetDefaultConfig().Flags {
		flags[lang] = fl
	}
	for lang, fl := range cfg.Flags {
		flags[lang] = fl
	}

	if cmd.Flags().Changed("cflags") {
		flags[types.LanguageC] = config.SplitFlags(buildOpts.cflags)
	}
	if cmd.Flags().Changed("cxxflags") {
		flags[types.LanguageCpp] = config.SplitFlags(buildOpts.cxxflags)
	}

	return flags
}

func mergePatterns(defaults, fromConfig, fromFlags []string) []string {
	merged := make([]string, 0, len(defaults)+len(fromConfig)+len(fromFlags))
	merged = append(merged, defaults...)
	merged = append(merged, fromConfig...)
	merged = append(merged, fromFlags...)
	return merged
}

func notifyEnabled(cmd *cobra.Command, cfg *config.Config) bool {
	if cmd.Flags().Changed("notify") {
		return buildOpts.notify
	}
	if cfg.Notifications != nil && cfg.Notifications.Enabled != nil {
		return *cfg.Notifications.Enabled
	}
	return false
}
