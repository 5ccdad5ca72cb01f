package compiler

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/roach88/bindgen/internal/ir"
)

// DefaultRuntimeImport is the import path of the runtime boundary package
// generated code is written against.
const DefaultRuntimeImport = "github.com/roach88/bindgen/dynamic"

// Options controls how a declaration block is compiled.
type Options struct {
	// RuntimeImport is the import path of the runtime package.
	RuntimeImport string

	// RuntimeAlias is the identifier the runtime package is referred to by
	// when the block does not import it itself. Defaults to the last path
	// element of RuntimeImport.
	RuntimeAlias string

	// ModuleName names the module in descriptors. Defaults to the file
	// name without extension.
	ModuleName string
}

func (o Options) withDefaults(filename string) Options {
	if o.RuntimeImport == "" {
		o.RuntimeImport = DefaultRuntimeImport
	}
	if o.RuntimeAlias == "" {
		o.RuntimeAlias = path.Base(o.RuntimeImport)
	}
	if o.ModuleName == "" {
		base := filepath.Base(filename)
		o.ModuleName = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return o
}

// Block is a compiled declaration block: its IR plus the file with
// consumed directives stripped, ready for emission. Line numbers in the IR
// refer to Source.
type Block struct {
	Module   *ir.Module
	Filename string
	Source   []byte
	Stripped []byte
	Fset     *token.FileSet
	File     *ast.File

	// RuntimeImport and RuntimeAlias say how generated code refers to the
	// runtime package. HasRuntimeImport is false when the emitter must add
	// the import.
	RuntimeImport    string
	RuntimeAlias     string
	HasRuntimeImport bool
}

// CompileFile reads and compiles one declaration block from disk.
func CompileFile(filename string, opts Options) (*Block, error) {
	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	return CompileBlock(filename, src, opts)
}

// CompileBlock parses src and assembles its module IR. Any failure aborts
// the whole block; no partial result is returned.
func CompileBlock(filename string, src []byte, opts Options) (*Block, error) {
	opts = opts.withDefaults(filename)

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return nil, formatParseError(err)
	}

	block := &Block{
		Filename:      filename,
		Source:        src,
		Fset:          fset,
		File:          file,
		RuntimeImport: opts.RuntimeImport,
		RuntimeAlias:  opts.RuntimeAlias,
	}
	if err := block.resolveRuntimeAlias(); err != nil {
		return nil, err
	}

	ex, err := extract(fset, file)
	if err != nil {
		return nil, err
	}
	if len(ex.drop) > 0 {
		block.Stripped = stripComments(fset, src, ex.drop)
		block.Fset = token.NewFileSet()
		block.File, err = parser.ParseFile(block.Fset, filename, block.Stripped, parser.ParseComments|parser.SkipObjectResolution)
		if err != nil {
			return nil, fmt.Errorf("reparse %s without directives: %w", filename, err)
		}
	} else {
		block.Stripped = src
	}

	c := &classifier{fset: fset, alias: block.RuntimeAlias}
	mod := &ir.Module{
		Name:    opts.ModuleName,
		Package: file.Name.Name,
		Fns:     []ir.ExportedFn{},
		Consts:  ex.consts,
	}
	if mod.Consts == nil {
		mod.Consts = []ir.ExportedConst{}
	}
	for _, cand := range ex.fns {
		fn, err := c.classify(cand)
		if err != nil {
			return nil, err
		}
		if fn.Skip {
			Logger().Debug("skipping function",
				zap.String("fn", fn.Name),
				zap.Int("line", fn.Line))
			continue
		}
		mod.Fns = append(mod.Fns, *fn)
	}
	block.Module = mod

	Logger().Debug("compiled block",
		zap.String("file", filename),
		zap.String("module", mod.Name),
		zap.Int("fns", len(mod.Fns)),
		zap.Int("consts", len(mod.Consts)))
	return block, nil
}

// resolveRuntimeAlias finds the name the file imports the runtime under.
func (b *Block) resolveRuntimeAlias() error {
	for _, spec := range b.File.Imports {
		if unquoteImport(spec) != b.RuntimeImport {
			continue
		}
		b.HasRuntimeImport = true
		b.RuntimeAlias = path.Base(b.RuntimeImport)
		if spec.Name != nil {
			if spec.Name.Name == "_" || spec.Name.Name == "." {
				return errorAt(b.Fset.Position(spec.Pos()), "import",
					"runtime package must be imported by name, not %q", spec.Name.Name)
			}
			b.RuntimeAlias = spec.Name.Name
		}
		return nil
	}
	return nil
}

// formatParseError converts the first syntax error into a CompileError.
func formatParseError(err error) error {
	var list scanner.ErrorList
	if errors.As(err, &list) && len(list) > 0 {
		return errorAt(list[0].Pos, "syntax", "%s", list[0].Msg)
	}
	return &CompileError{Field: "syntax", Message: err.Error()}
}
