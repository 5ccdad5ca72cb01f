package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/bindgen/internal/ir"
	"github.com/roach88/bindgen/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Cache  string
	Config string
	Source string // optional - filter to one source
	Limit  int
	Run    string // optional - show one run with its registrations
}

// HistoryResult holds the runs listed by history.
type HistoryResult struct {
	Runs  []store.Run  `json:"runs"`
	Stats HistoryStats `json:"stats"`
}

// HistoryStats summarizes the listed runs.
type HistoryStats struct {
	Total     int `json:"total"`
	Generated int `json:"generated"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// RunDetail is one run with the registrations it recorded.
type RunDetail struct {
	Run           store.Run         `json:"run"`
	Registrations []ir.Registration `json:"registrations"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded generation runs",
		Long: `List the runs recorded in a generation cache.

Runs are shown in logical order. With --run, a single run is shown with
every registration its module routine issued.

Examples:
  bindgen history --cache .bindgen.db
  bindgen history --cache .bindgen.db --source core_functions.bindgen.go --limit 5
  bindgen history --cache .bindgen.db --run 0190a1b2-... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Cache, "cache", "", "path to SQLite generation cache")
	cmd.Flags().StringVar(&opts.Config, "config", "", "project file naming the cache")
	cmd.Flags().StringVar(&opts.Source, "source", "", "filter to one declaration block")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "show only the N most recent runs")
	cmd.Flags().StringVar(&opts.Run, "run", "", "show one run and its registrations")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cachePath, err := historyCachePath(opts)
	if err != nil {
		return outputCommandError(formatter, blockErrorCode(err), err.Error())
	}
	if opts.Limit < 0 {
		return outputCommandError(formatter, ErrCodeInvalidFlags, fmt.Sprintf("--limit must not be negative, got %d", opts.Limit))
	}

	ctx := context.Background()
	st, err := store.Open(cachePath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open cache", err)
	}
	defer st.Close()

	if opts.Run != "" {
		return showRun(ctx, st, opts, formatter)
	}

	runs, err := st.ListRuns(ctx, store.RunFilter{Source: opts.Source, Limit: opts.Limit})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	result := HistoryResult{Runs: runs, Stats: HistoryStats{Total: len(runs)}}
	for _, run := range runs {
		switch run.Status {
		case store.StatusGenerated:
			result.Stats.Generated++
		case store.StatusSkipped:
			result.Stats.Skipped++
		case store.StatusFailed:
			result.Stats.Failed++
		}
	}

	if opts.Format == "json" {
		return formatter.Respond(CLIResponse{Status: "ok", Data: result})
	}
	return outputHistoryText(formatter.Writer, result, opts.Verbose)
}

// historyCachePath picks the cache from --cache or the project file.
func historyCachePath(opts *HistoryOptions) (string, error) {
	if opts.Cache != "" {
		return opts.Cache, nil
	}
	if opts.Config != "" {
		cfg, err := loadConfig(opts.Config, true)
		if err != nil {
			return "", err
		}
		if cfg.Cache != "" {
			return cfg.Path(cfg.Cache), nil
		}
	}
	return "", &blockError{Code: ErrCodeInvalidFlags, Message: "--cache is required (or a --config naming a cache)"}
}

func showRun(ctx context.Context, st *store.Store, opts *HistoryOptions, formatter *OutputFormatter) error {
	run, err := st.ReadRun(ctx, opts.Run)
	if errors.Is(err, store.ErrNotFound) {
		return outputCommandError(formatter, ErrCodeNotFound, fmt.Sprintf("run not found: %s", opts.Run))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}
	regs, err := st.ReadRegistrations(ctx, run.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read registrations", err)
	}

	detail := RunDetail{Run: run, Registrations: regs}
	if opts.Format == "json" {
		return formatter.Respond(CLIResponse{Status: "ok", Data: detail})
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Run %s\n", run.ID)
	formatRunLine(w, run, true)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Registrations ===")
	if len(regs) == 0 {
		fmt.Fprintln(w, "  (no registrations)")
	}
	for _, reg := range regs {
		formatRegistration(w, reg)
	}
	return nil
}

// outputHistoryText outputs the run list as text.
func outputHistoryText(w io.Writer, result HistoryResult, verbose bool) error {
	fmt.Fprintln(w, "=== Runs ===")
	if len(result.Runs) == 0 {
		fmt.Fprintln(w, "  (no runs)")
	}
	for _, run := range result.Runs {
		formatRunLine(w, run, verbose)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Total:     %d\n", result.Stats.Total)
	fmt.Fprintf(w, "  Generated: %d\n", result.Stats.Generated)
	fmt.Fprintf(w, "  Skipped:   %d\n", result.Stats.Skipped)
	fmt.Fprintf(w, "  Failed:    %d\n", result.Stats.Failed)
	return nil
}

// formatRunLine formats a single run for text output.
func formatRunLine(w io.Writer, run store.Run, verbose bool) {
	switch run.Status {
	case store.StatusFailed:
		fmt.Fprintf(w, "  [%d] %-9s %s\n", run.Seq, run.Status, run.Source)
		fmt.Fprintf(w, "       Error: %s\n", run.Error)
	default:
		fmt.Fprintf(w, "  [%d] %-9s %s -> %s (%d registration(s))\n",
			run.Seq, run.Status, run.Source, run.Output, run.RegistrationCount)
	}
	if verbose {
		fmt.Fprintf(w, "       ID: %s\n", truncateID(run.ID))
		if run.ModuleHash != "" {
			fmt.Fprintf(w, "       Module: %s (%s)\n", run.Module, truncateID(run.ModuleHash))
		}
	}
}
