package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/bindgen/internal/compiler"
	"github.com/roach88/bindgen/internal/emit"
	"github.com/roach88/bindgen/internal/ir"
	"github.com/roach88/bindgen/internal/store"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	Blocks BlockOptions
	Output string // output file, single source only
	Cache  string // generation cache database
	Force  bool   // regenerate even on a cache hit
	Stdout bool   // print the generated unit instead of writing it
	Keep   int    // runs to keep per source in the cache, 0 keeps all
}

// BlockResult is the outcome of generating one declaration block.
type BlockResult struct {
	Source        string          `json:"source"`
	Output        string          `json:"output,omitempty"`
	Module        string          `json:"module,omitempty"`
	Status        store.RunStatus `json:"status"`
	RunID         string          `json:"run_id,omitempty"`
	Fns           int             `json:"fns"`
	Consts        int             `json:"consts"`
	Registrations int             `json:"registrations"`
	Error         *CLIError       `json:"error,omitempty"`
}

// GenerateResult holds the outcome of a generate invocation.
type GenerateResult struct {
	Blocks    []BlockResult `json:"blocks"`
	Generated int           `json:"generated"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate [source.go...]",
		Short: "Generate registration code for declaration blocks",
		Long: `Generate the dispatchers and module routine for declaration blocks.

Sources are given as arguments or listed in bindgen.cue. Each block is
compiled, validated and emitted on its own; a failing block writes no
output and does not stop the others.

With --cache, every run is recorded in a SQLite database. A block whose
source and options match its latest run, and whose output file is
unchanged, is skipped unless --force is given.

Exit codes:
  0 - All blocks generated or skipped
  2 - One or more blocks failed, or the command line was invalid

Examples:
  bindgen generate core_functions.bindgen.go -o core_functions.go --module language_core
  bindgen generate --config bindgen.cue --cache .bindgen.db
  bindgen generate math.go --stdout`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, args, cmd)
		},
	}

	opts.Blocks.addFlags(cmd)
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path (single source only)")
	cmd.Flags().StringVar(&opts.Cache, "cache", "", "path to SQLite generation cache")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "regenerate even when the cache is up to date")
	cmd.Flags().BoolVar(&opts.Stdout, "stdout", false, "write the generated code to stdout")
	cmd.Flags().IntVar(&opts.Keep, "keep", 0, "runs to keep per source in the cache (0 keeps all)")

	return cmd
}

func runGenerate(opts *GenerateOptions, args []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if err := checkGenerateFlags(opts, args); err != nil {
		return outputCommandError(formatter, ErrCodeInvalidFlags, err.Error())
	}

	blocks, err := resolveBlocks(opts.Blocks, args)
	if err != nil {
		return outputCommandError(formatter, blockErrorCode(err), err.Error())
	}
	if opts.Output != "" {
		if len(blocks.Jobs) != 1 {
			return outputCommandError(formatter, ErrCodeInvalidFlags, "--output requires exactly one source")
		}
		blocks.Jobs[0].Output = opts.Output
	}

	ctx := context.Background()
	g := &generator{opts: opts, logger: opts.Logger(), formatter: formatter}
	if cachePath := blocks.CachePath(opts.Cache); cachePath != "" && !opts.Stdout {
		st, err := store.Open(cachePath)
		if err != nil {
			return outputCommandError(formatter, ErrCodeCache, fmt.Sprintf("failed to open cache: %v", err))
		}
		defer st.Close()
		g.store = st
		formatter.VerboseLog("Using cache %s", cachePath)
	}

	result := GenerateResult{Blocks: make([]BlockResult, 0, len(blocks.Jobs))}
	var units [][]byte
	for _, j := range blocks.Jobs {
		br, out := g.generate(ctx, j)
		result.Blocks = append(result.Blocks, br)
		switch br.Status {
		case store.StatusGenerated:
			result.Generated++
			units = append(units, out)
		case store.StatusSkipped:
			result.Skipped++
		case store.StatusFailed:
			result.Failed++
		}
	}

	if opts.Stdout && result.Failed == 0 {
		w := cmd.OutOrStdout()
		for _, out := range units {
			if _, err := w.Write(out); err != nil {
				return WrapExitError(ExitCommandError, "failed to write output", err)
			}
		}
		return nil
	}

	if opts.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: result}
		if result.Failed > 0 {
			resp.Status = "error"
			resp.Error = firstBlockError(result)
		}
		if err := formatter.Respond(resp); err != nil {
			return err
		}
	} else {
		outputGenerateText(formatter.Writer, result, opts.Verbose)
	}

	if result.Failed > 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("generation failed for %d block(s)", result.Failed))
	}
	return nil
}

func checkGenerateFlags(opts *GenerateOptions, args []string) error {
	if opts.Stdout && opts.Output != "" {
		return errors.New("--stdout and --output are mutually exclusive")
	}
	if opts.Stdout && opts.Format == "json" {
		return errors.New("--stdout cannot be combined with --format json")
	}
	if opts.Output != "" && len(args) > 1 {
		return errors.New("--output requires exactly one source")
	}
	if opts.Keep < 0 {
		return fmt.Errorf("--keep must not be negative, got %d", opts.Keep)
	}
	return nil
}

// generator runs the per-block pipeline.
type generator struct {
	opts      *GenerateOptions
	store     *store.Store
	logger    *zap.Logger
	formatter *OutputFormatter
}

// generate compiles, validates and emits one block, consulting and
// updating the cache. The generated unit is returned for --stdout.
func (g *generator) generate(ctx context.Context, j job) (BlockResult, []byte) {
	br := BlockResult{Source: j.Source, Output: j.Output}
	g.formatter.VerboseLog("Generating %s", j.Source)

	src, err := readSource(j.Source)
	if err != nil {
		return g.fail(ctx, br, store.Run{}, errorCode(err), err), nil
	}

	optionsHash, err := generationOptionsHash(j)
	if err != nil {
		return g.fail(ctx, br, store.Run{}, ErrCodeGeneric, err), nil
	}
	run := store.Run{
		Source:        j.Source,
		Output:        j.Output,
		FuncName:      j.FuncName,
		OptionsHash:   optionsHash,
		SourceHash:    ir.SourceHash(src),
		RuntimeImport: j.Compile.RuntimeImport,
	}

	if g.store != nil && !g.opts.Force {
		hit, ok, err := g.store.Lookup(ctx, store.CacheKey{
			Source:      run.Source,
			SourceHash:  run.SourceHash,
			OptionsHash: run.OptionsHash,
		})
		if err != nil {
			return g.fail(ctx, br, run, ErrCodeCache, err), nil
		}
		if ok && hit.Output == j.Output && outputMatches(j.Output, hit.OutputHash) {
			return g.skip(ctx, br, hit), nil
		}
	}

	block, err := compiler.CompileBlock(j.Source, src, j.Compile)
	if err != nil {
		return g.fail(ctx, br, run, errorCode(err), err), nil
	}
	run.Module = block.Module.Name
	run.RuntimeImport = block.RuntimeImport
	run.FnCount = len(block.Module.Fns)
	run.ConstCount = len(block.Module.Consts)
	br.Module = run.Module
	br.Fns = run.FnCount
	br.Consts = run.ConstCount

	if verrs := compiler.Validate(block); len(verrs) > 0 {
		return g.fail(ctx, br, run, verrs[0].Code, validationFailure(verrs)), nil
	}

	out, err := emit.Generate(block, emit.Options{FuncName: j.FuncName})
	if err != nil {
		return g.fail(ctx, br, run, ErrCodeEmitFailed, err), nil
	}

	if !g.opts.Stdout {
		if err := os.WriteFile(j.Output, out, 0o644); err != nil {
			return g.fail(ctx, br, run, ErrCodeWriteFailed, fmt.Errorf("write %s: %w", j.Output, err)), nil
		}
	}

	regs := block.Module.Registrations()
	run.Status = store.StatusGenerated
	run.OutputHash = ir.OutputHash(out)
	run.RegistrationCount = len(regs)
	if run.FuncName == "" {
		run.FuncName = emit.DefaultFuncName
	}
	if run.ModuleHash, err = ir.ModuleHash(block.Module); err != nil {
		return g.fail(ctx, br, run, ErrCodeGeneric, err), nil
	}
	br.Status = store.StatusGenerated
	br.Registrations = len(regs)

	if g.store != nil {
		stored, err := g.record(ctx, run, regs)
		if err != nil {
			br.Status = store.StatusFailed
			br.Error = &CLIError{Code: ErrCodeCache, Message: err.Error()}
			return br, out
		}
		br.RunID = stored.ID
	}

	g.logger.Info("generated block",
		zap.String("source", j.Source),
		zap.String("output", j.Output),
		zap.Int("registrations", len(regs)))
	return br, out
}

// skip records a cache hit.
func (g *generator) skip(ctx context.Context, br BlockResult, hit store.Run) BlockResult {
	br.Status = store.StatusSkipped
	br.Module = hit.Module
	br.Fns = hit.FnCount
	br.Consts = hit.ConstCount
	br.Registrations = hit.RegistrationCount

	previous := hit.ID
	hit.ID = ""
	hit.Status = store.StatusSkipped
	stored, err := g.record(ctx, hit, nil)
	if err != nil {
		br.Status = store.StatusFailed
		br.Error = &CLIError{Code: ErrCodeCache, Message: err.Error()}
		return br
	}
	br.RunID = stored.ID

	g.logger.Info("skipped block", zap.String("source", br.Source), zap.String("previous_run", previous))
	return br
}

// fail reports a failed block and records it when caching.
func (g *generator) fail(ctx context.Context, br BlockResult, run store.Run, code string, err error) BlockResult {
	br.Status = store.StatusFailed
	br.Error = &CLIError{Code: code, Message: err.Error()}
	g.logger.Warn("block failed", zap.String("source", br.Source), zap.Error(err))

	if g.store == nil {
		return br
	}
	run.Source = br.Source
	run.Output = br.Output
	run.Status = store.StatusFailed
	run.Error = err.Error()
	stored, recErr := g.record(ctx, run, nil)
	if recErr != nil {
		g.logger.Warn("recording failed run", zap.Error(recErr))
		return br
	}
	br.RunID = stored.ID
	return br
}

func (g *generator) record(ctx context.Context, run store.Run, regs []ir.Registration) (store.Run, error) {
	stored, err := g.store.RecordRun(ctx, run, regs)
	if err != nil {
		return store.Run{}, err
	}
	if g.opts.Keep > 0 {
		n, err := g.store.Prune(ctx, run.Source, g.opts.Keep)
		if err != nil {
			return store.Run{}, err
		}
		if n > 0 {
			g.formatter.VerboseLog("Pruned %d run(s) of %s", n, run.Source)
		}
	}
	return stored, nil
}

// generationOptionsHash identifies everything besides the source bytes
// that shapes the generated unit.
func generationOptionsHash(j job) (string, error) {
	return ir.OptionsHash(ir.IRObject{
		"runtime_import":    ir.IRString(j.Compile.RuntimeImport),
		"runtime_alias":     ir.IRString(j.Compile.RuntimeAlias),
		"module":            ir.IRString(j.Compile.ModuleName),
		"func":              ir.IRString(j.FuncName),
		"generator_version": ir.IRString(ir.GeneratorVersion),
	})
}

// outputMatches reports whether the file at path still has the recorded hash.
func outputMatches(path, hash string) bool {
	if hash == "" {
		return false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return ir.OutputHash(data) == hash
}

// validationFailure folds validation errors into one error.
func validationFailure(errs []compiler.ValidationError) error {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return errors.New(strings.Join(msgs, "; "))
}

func firstBlockError(result GenerateResult) *CLIError {
	for _, b := range result.Blocks {
		if b.Error != nil {
			return b.Error
		}
	}
	return nil
}

// outputGenerateText prints one line per block and a summary.
func outputGenerateText(w io.Writer, result GenerateResult, verbose bool) {
	for _, b := range result.Blocks {
		switch b.Status {
		case store.StatusGenerated:
			fmt.Fprintf(w, "✓ %s -> %s (%d registration(s))\n", b.Source, b.Output, b.Registrations)
		case store.StatusSkipped:
			fmt.Fprintf(w, "- %s (up to date)\n", b.Source)
		case store.StatusFailed:
			fmt.Fprintf(w, "✗ %s\n", b.Source)
			fmt.Fprintf(w, "  %s: %s\n", b.Error.Code, b.Error.Message)
		}
		if verbose && b.RunID != "" {
			fmt.Fprintf(w, "  run %s\n", b.RunID)
		}
	}

	fmt.Fprintf(w, "\n%d generated, %d skipped, %d failed\n", result.Generated, result.Skipped, result.Failed)
}

// outputCommandError reports a command-level failure (exit code 2).
func outputCommandError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}
