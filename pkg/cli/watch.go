package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/notname9390/lol/internal/engine"
	"github.com/notname9390/lol/internal/state"
	"github.com/notname9390/lol/internal/watch"
	"github.com/notname9390/lol/pkg/config"
	"github.com/notname9390/lol/pkg/notifier"
	"github.com/notname9390/lol/pkg/toolchain"
)

func newWatchCmd() *cobra.Command {
	var settlingMs int
	var notify bool

	cmd := &cobra.Command{
		Use:   "watch [path]",
		Short: "Rebuild automatically when source files change",
		Long: `Start watch mode: build the tree once, then rerun the build every time
a settled batch of source changes lands. Press Ctrl-C to stop.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, rootArg(args), settlingMs, notify)
		},
	}

	addRunFlags(cmd)
	cmd.Flags().IntVar(&settlingMs, "settling", 0, "quiet period in ms before a rebuild fires (default 500)")
	cmd.Flags().BoolVar(&notify, "notify", true, "send a desktop notification per run")

	return cmd
}

func runWatch(cmd *cobra.Command, root string, settlingMs int, notify bool) error {
	cfg, err := loadProjectConfig(root)
	if err != nil {
		return err
	}

	log := newRunLogger(cmd, cfg)

	opts, err := buildEngineOptions(cmd, root, cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	w, err := watch.New(opts.Root, toolchain.NewRegistry(), log, watch.Options{
		Languages:      opts.Languages,
		IgnorePatterns: opts.IgnorePatterns,
		SettlingDelay:  settlingDelay(cmd, cfg, settlingMs),
	})
	if err != nil {
		return err
	}
	defer w.Close()

	deps := engine.Dependencies{
		State:    state.NewManager(opts.Root, log),
		Notifier: notifier.New(watchNotifyEnabled(cmd, cfg, notify), log),
	}
	orchestrator := engine.New(opts, log, deps)

	runOnce := func() {
		rep, err := orchestrator.Run(ctx)
		if err != nil {
			printError(fmt.Sprintf("Build run failed: %v", err))
			return
		}
		renderPretty(os.Stdout, rep)
	}

	printInfo(fmt.Sprintf("Starting lol v%s in watch mode", version))

	// Watch before the first build so edits made mid-build are not lost.
	if err := w.Start(ctx); err != nil {
		return err
	}

	runOnce()
	printInfo("Watching for changes. Press Ctrl-C to stop.")

	for {
		select {
		case <-ctx.Done():
			fmt.Println()
			printInfo("Stopping watch mode")
			return nil

		case <-w.Trigger():
			changed := w.TakeChanges()
			if len(changed) == 0 {
				continue
			}
			printInfo(fmt.Sprintf("%d file(s) changed, rebuilding...", len(changed)))
			runOnce()
		}
	}
}

// settlingDelay resolves the quiet period: flag over config over the
// built-in default.
func settlingDelay(cmd *cobra.Command, cfg *config.Config, flagMs int) time.Duration {
	if cmd.Flags().Changed("settling") && flagMs > 0 {
		return time.Duration(flagMs) * time.Millisecond
	}
	if cfg.Watch != nil && cfg.Watch.SettlingDelayMs > 0 {
		return time.Duration(cfg.Watch.SettlingDelayMs) * time.Millisecond
	}
	return watch.DefaultSettlingDelay
}

// watchNotifyEnabled defaults notifications on in watch mode; the flag
// and then the config can switch them off.
func watchNotifyEnabled(cmd *cobra.Command, cfg *config.Config, flag bool) bool {
	if cmd.Flags().Changed("notify") {
		return flag
	}
	if cfg.Notifications != nil && cfg.Notifications.Enabled != nil {
		return *cfg.Notifications.Enabled
	}
	return true
}
