// Package config loads bindgen.cue project files.
//
// A project file lists the declaration blocks to generate and the runtime
// package the generated dispatchers import:
//
//	runtime: {
//		"import": "example.com/host/dynamic"
//	}
//	blocks: [
//		{source: "core_functions.bindgen.go"},
//		{source: "math.go", output: "math_gen.go", "func": "MathModule"},
//	]
//
// The file is unified with an embedded CUE schema before decoding, so
// unknown fields and malformed names are rejected with positions.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// DefaultFile is the project file looked up when none is given.
const DefaultFile = "bindgen.cue"

//go:embed schema.cue
var schemaSource string

// Config is a decoded project file. Paths are relative to Dir.
type Config struct {
	Runtime Runtime `json:"runtime"`
	Cache   string  `json:"cache,omitempty"`
	Blocks  []Block `json:"blocks"`

	// Dir is the directory holding the project file.
	Dir string `json:"-"`
}

// Runtime selects the package generated code refers to.
type Runtime struct {
	Import string `json:"import,omitempty"`
	Alias  string `json:"alias,omitempty"`
}

// Block is one declaration block to generate.
type Block struct {
	Source string `json:"source"`
	Output string `json:"output,omitempty"`
	Func   string `json:"func,omitempty"`
	Module string `json:"module,omitempty"`
}

// Error is a project file failure, positioned when CUE knows where.
type Error struct {
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// Load reads and validates the project file at path.
func Load(path string) (*Config, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(path, src)
	if err != nil {
		return nil, err
	}
	cfg.Dir = filepath.Dir(path)
	return cfg, nil
}

// Parse validates src against the schema and decodes it.
func Parse(filename string, src []byte) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile config schema: %w", err)
	}

	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err, filename)
	}

	unified := schema.LookupPath(cue.ParsePath("#Config")).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err, filename)
	}

	var cfg Config
	if err := unified.Decode(&cfg); err != nil {
		return nil, formatCUEError(err, filename)
	}
	if err := cfg.check(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// check enforces the rules the schema cannot express.
func (c *Config) check() error {
	outputs := make(map[string]string)
	for _, b := range c.Blocks {
		out := b.OutputPath()
		if filepath.Clean(out) == filepath.Clean(b.Source) {
			return &Error{Message: fmt.Sprintf("block %s: output would overwrite the source", b.Source)}
		}
		if prev, ok := outputs[filepath.Clean(out)]; ok {
			return &Error{Message: fmt.Sprintf("blocks %s and %s write the same output %s", prev, b.Source, out)}
		}
		outputs[filepath.Clean(out)] = b.Source
	}
	return nil
}

// Path resolves p against the project directory.
func (c *Config) Path(p string) string {
	if p == "" || filepath.IsAbs(p) || c.Dir == "" {
		return p
	}
	return filepath.Join(c.Dir, p)
}

// OutputPath returns the block's output, defaulting to DefaultOutput.
func (b Block) OutputPath() string {
	if b.Output != "" {
		return b.Output
	}
	return DefaultOutput(b.Source)
}

// DefaultOutput derives the generated file name from a source file:
// x.bindgen.go becomes x.go and any other x.go becomes x_bindgen.go.
func DefaultOutput(source string) string {
	if base, ok := strings.CutSuffix(source, ".bindgen.go"); ok {
		return base + ".go"
	}
	return strings.TrimSuffix(source, ".go") + "_bindgen.go"
}

// formatCUEError keeps the first CUE error, positioned in filename when
// one of its positions lies there.
func formatCUEError(err error, filename string) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	msg := first.Error()
	if path := strings.Join(first.Path(), "."); path != "" && !strings.HasPrefix(msg, path) {
		msg = path + ": " + msg
	}
	out := &Error{Message: msg}
	for _, pos := range errors.Positions(first) {
		if !out.Pos.IsValid() || pos.Filename() == filename {
			out.Pos = pos
		}
		if pos.Filename() == filename {
			break
		}
	}
	return out
}
