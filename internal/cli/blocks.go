package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/bindgen/internal/compiler"
	"github.com/roach88/bindgen/internal/config"
	"github.com/roach88/bindgen/internal/emit"
)

// BlockOptions holds the flags that select declaration blocks and how they
// are compiled. Flags override values from the project file.
type BlockOptions struct {
	Config        string
	RuntimeImport string
	RuntimeAlias  string
	Module        string
	Func          string
}

func (o *BlockOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Config, "config", "", "project file (default "+config.DefaultFile+" when no sources are given)")
	cmd.Flags().StringVar(&o.RuntimeImport, "runtime-import", "", "import path of the runtime package")
	cmd.Flags().StringVar(&o.RuntimeAlias, "runtime-alias", "", "identifier the runtime package is referred to by")
	cmd.Flags().StringVar(&o.Module, "module", "", "module name used in descriptors")
	cmd.Flags().StringVar(&o.Func, "func", "", "name of the generated registration routine (default "+emit.DefaultFuncName+")")
}

// job is one declaration block resolved from arguments or the project file.
type job struct {
	Source   string
	Output   string
	Compile  compiler.Options
	FuncName string
}

// resolvedBlocks is the outcome of resolving the command line.
type resolvedBlocks struct {
	Jobs   []job
	Config *config.Config // nil when no project file was read
}

// resolveBlocks turns positional sources, or the project file when there
// are none, into jobs.
func resolveBlocks(opts BlockOptions, args []string) (*resolvedBlocks, error) {
	cfg, err := loadConfig(opts.Config, len(args) == 0)
	if err != nil {
		return nil, err
	}

	res := &resolvedBlocks{Config: cfg}
	base := compiler.Options{}
	if cfg != nil {
		base.RuntimeImport = cfg.Runtime.Import
		base.RuntimeAlias = cfg.Runtime.Alias
	}
	if opts.RuntimeImport != "" {
		base.RuntimeImport = opts.RuntimeImport
	}
	if opts.RuntimeAlias != "" {
		base.RuntimeAlias = opts.RuntimeAlias
	}

	if len(args) > 0 {
		for _, source := range args {
			j := job{Source: source, Output: config.DefaultOutput(source), Compile: base, FuncName: opts.Func}
			j.Compile.ModuleName = opts.Module
			res.Jobs = append(res.Jobs, j)
		}
		return res, nil
	}

	if len(cfg.Blocks) == 0 {
		return nil, &blockError{Code: ErrCodeNoBlocks, Message: fmt.Sprintf("%s lists no blocks", opts.configPath())}
	}
	for _, b := range cfg.Blocks {
		j := job{
			Source:   cfg.Path(b.Source),
			Output:   cfg.Path(b.OutputPath()),
			Compile:  base,
			FuncName: b.Func,
		}
		j.Compile.ModuleName = b.Module
		if opts.Module != "" {
			j.Compile.ModuleName = opts.Module
		}
		if opts.Func != "" {
			j.FuncName = opts.Func
		}
		res.Jobs = append(res.Jobs, j)
	}
	return res, nil
}

// CachePath returns the cache database named on the command line, falling
// back to the project file's cache entry.
func (r *resolvedBlocks) CachePath(flag string) string {
	if flag != "" {
		return flag
	}
	if r.Config != nil && r.Config.Cache != "" {
		return r.Config.Path(r.Config.Cache)
	}
	return ""
}

func (o BlockOptions) configPath() string {
	if o.Config != "" {
		return o.Config
	}
	return config.DefaultFile
}

// loadConfig reads the project file. An explicit --config must exist; the
// default file is only required when there are no positional sources.
func loadConfig(path string, required bool) (*config.Config, error) {
	explicit := path != ""
	if !explicit {
		if !required {
			return nil, nil
		}
		path = config.DefaultFile
	}

	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		if !explicit {
			return nil, &blockError{
				Code:    ErrCodeNoBlocks,
				Message: fmt.Sprintf("no declaration blocks given and no %s found", config.DefaultFile),
			}
		}
		return nil, &blockError{Code: ErrCodeNotFound, Message: fmt.Sprintf("config file not found: %s", path)}
	}
	if err != nil {
		return nil, &blockError{Code: ErrCodeConfig, Message: err.Error(), Err: err}
	}
	return cfg, nil
}

// blockError is a failure to resolve the blocks of a command.
type blockError struct {
	Code    string
	Message string
	Err     error
}

func (e *blockError) Error() string { return e.Message }

func (e *blockError) Unwrap() error { return e.Err }

// blockErrorCode returns the error code of a resolution failure.
func blockErrorCode(err error) string {
	var be *blockError
	if errors.As(err, &be) {
		return be.Code
	}
	return errorCode(err)
}

// readSource reads a declaration block.
func readSource(path string) ([]byte, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return src, nil
}
