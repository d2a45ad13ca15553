package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/notname9390/lol/pkg/types"
)

func renderReport(w io.Writer, rep *types.BuildReport, format string) error {
	if format == "json" {
		return renderJSON(w, rep)
	}
	renderPretty(w, rep)
	return nil
}

func renderJSON(w io.Writer, rep *types.BuildReport) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func renderPretty(w io.Writer, rep *types.BuildReport) {
	if rep.TotalJobs == 0 {
		fmt.Fprintf(w, "%s No source files to compile\n", color.YellowString("[lol]"))
		renderWarnings(w, rep.Warnings)
		return
	}

	headline := color.GreenString("Build succeeded")
	if !rep.OverallSuccess {
		headline = color.RedString("Build failed")
	}
	duration := time.Duration(rep.DurationMillis) * time.Millisecond
	fmt.Fprintf(w, "\n%s  %d job(s): %d succeeded, %d failed, %d skipped in %s\n\n",
		headline, rep.TotalJobs, rep.Succeeded, rep.Failed, rep.Skipped, duration.Round(time.Millisecond))

	renderLanguageTable(w, rep)
	renderFailures(w, rep)

	if rep.Slowest != nil {
		fmt.Fprintf(w, "\nSlowest job: [%d] %s (%s)\n",
			rep.Slowest.JobID, rep.Slowest.Label, rep.Slowest.Duration.Round(time.Millisecond))
	}

	renderWarnings(w, rep.Warnings)
}

func renderLanguageTable(w io.Writer, rep *types.BuildReport) {
	if len(rep.PerLanguage) == 0 {
		return
	}

	langs := make([]types.Language, 0, len(rep.PerLanguage))
	for lang := range rep.PerLanguage {
		langs = append(langs, lang)
	}
	sort.Slice(langs, func(i, j int) bool { return langs[i] < langs[j] })

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LANGUAGE\tJOBS\tOK\tFAILED")
	fmt.Fprintln(tw, "--------\t----\t--\t------")
	for _, lang := range langs {
		stats := rep.PerLanguage[lang]
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n",
			lang, stats.Succeeded+stats.Failed, stats.Succeeded, stats.Failed)
	}
	tw.Flush()
}

func renderFailures(w io.Writer, rep *types.BuildReport) {
	if len(rep.Failures) == 0 {
		return
	}

	fmt.Fprintf(w, "\n%s\n", color.RedString("Failures (showing %d of %d):", len(rep.Failures), rep.Failed))
	for _, f := range rep.Failures {
		code := "-"
		if f.ExitCode != nil {
			code = strconv.Itoa(*f.ExitCode)
		}
		fmt.Fprintf(w, "  ✗ [%d] %s (%s, exit %s)\n", f.JobID, f.Label, f.Kind, code)

		excerpt := strings.TrimRight(f.StderrExcerpt, "\n")
		if excerpt == "" {
			continue
		}
		for _, line := range strings.Split(excerpt, "\n") {
			fmt.Fprintf(w, "      %s\n", line)
		}
	}
}

func renderWarnings(w io.Writer, warnings []string) {
	for _, warn := range warnings {
		fmt.Fprintf(w, "%s %s\n", color.YellowString("warning:"), warn)
	}
}
