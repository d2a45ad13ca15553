package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/notname9390/lol/internal/state"
	"github.com/notname9390/lol/pkg/logger"
	"github.com/notname9390/lol/pkg/toolchain"
)

func newLanguagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List every supported language",
		Long:  `Print the language table: extensions, the toolchain command, and how jobs are formed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLanguages()
		},
	}
}

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check which toolchains are installed",
		Long:  `Probe every supported toolchain on PATH and report what is missing.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor()
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [path]",
		Short: "Show the last recorded build run",
		Long:  `Display the outcome of the most recent build run and the run history.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(rootArg(args))
		},
	}
}

func newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean [path]",
		Short: "Remove recorded state and logs",
		Long:  `Delete the .lol directory holding run state and per-language build logs.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(rootArg(args))
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of lol",
		Long:  `Print the version number of lol`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("lol v%s\n", version)
		},
	}
}

// Implementation functions

func runLanguages() error {
	registry := toolchain.NewRegistry()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LANGUAGE\tEXTENSIONS\tCOMMAND\tMODE\tINVOCATION")
	fmt.Fprintln(w, "--------\t----------\t-------\t----\t----------")

	for _, lang := range registry.Languages() {
		spec, err := registry.SpecFor(lang)
		if err != nil {
			continue
		}

		command := spec.Executable
		if len(spec.BaseArgs) > 0 {
			command += " " + strings.Join(spec.BaseArgs, " ")
		}

		fmt.Fprintf(w, "%s\t.%s\t%s\t%s\t%s\n",
			lang,
			strings.Join(spec.Extensions, " ."),
			command,
			spec.Mode,
			spec.Invocation,
		)
	}

	return w.Flush()
}

func runDoctor() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := toolchain.NewRegistry()
	printInfo("Probing toolchains...")

	results := toolchain.ProbeAll(ctx, registry, registry.Languages())

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LANGUAGE\tCOMMAND\tSTATUS\tDETAIL")
	fmt.Fprintln(w, "--------\t-------\t------\t------")

	available := 0
	for _, r := range results {
		status := color.RedString("missing")
		detail := r.Reason
		if r.Available {
			available++
			status = color.GreenString("ok")
			detail = r.Version
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Language, r.Command, status, detail)
	}
	w.Flush()

	fmt.Println()
	if available == len(results) {
		printSuccess(fmt.Sprintf("All %d toolchains available", len(results)))
	} else {
		printWarning(fmt.Sprintf("%d of %d toolchains available", available, len(results)))
	}
	return nil
}

func runStatus(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", root, err)
	}

	sm := state.NewManager(abs, logger.New("", "error"))

	rep, err := sm.LastRun()
	if errors.Is(err, state.ErrNoState) {
		printWarning("No runs recorded yet. Run 'lol' to build.")
		return nil
	}
	if err != nil {
		return err
	}

	printInfo(fmt.Sprintf("Last run at %s", rep.StartedAt.Local().Format("2006-01-02 15:04:05")))
	renderPretty(os.Stdout, rep)

	history, err := sm.History()
	if err != nil || len(history) < 2 {
		return nil
	}

	fmt.Println()
	printInfo("Run history:")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tJOBS\tOK\tFAILED\tSKIPPED\tRESULT")
	fmt.Fprintln(w, "----\t----\t--\t------\t-------\t------")
	for _, run := range history {
		result := color.GreenString("ok")
		if !run.OverallSuccess {
			result = color.RedString("failed")
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%s\n",
			run.StartedAt.Local().Format("01-02 15:04:05"),
			run.TotalJobs, run.Succeeded, run.Failed, run.Skipped, result)
	}
	return w.Flush()
}

func runClean(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", root, err)
	}

	sm := state.NewManager(abs, logger.New("", "error"))
	if err := sm.Clean(); err != nil {
		return err
	}

	printSuccess("Removed run state and logs")
	return nil
}
