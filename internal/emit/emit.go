package emit

import (
	"bytes"
	"fmt"
	"go/format"
	"go/token"
	"path"
	"slices"

	"github.com/dave/jennifer/jen"
	"go.uber.org/zap"
	"golang.org/x/tools/go/ast/astutil"

	"github.com/roach88/bindgen/internal/compiler"
	"github.com/roach88/bindgen/internal/ir"
)

// Header marks generated files.
const Header = "// Code generated by bindgen. DO NOT EDIT."

// DefaultFuncName is the default name of the registration routine.
const DefaultFuncName = "GenerateModule"

// Options controls emission.
type Options struct {
	// FuncName names the registration routine. Defaults to DefaultFuncName.
	FuncName string
}

func (o Options) withDefaults() Options {
	if o.FuncName == "" {
		o.FuncName = DefaultFuncName
	}
	return o
}

// Generate emits the generated unit for a compiled block: the header, the
// block's declarations with directives stripped, then one dispatcher per
// exported function and the registration routine. The result is gofmt
// formatted and its registrations are checked against the block's IR.
func Generate(block *compiler.Block, opts Options) ([]byte, error) {
	opts = opts.withDefaults()
	if !token.IsIdentifier(opts.FuncName) {
		return nil, fmt.Errorf("registration routine name %q is not an identifier", opts.FuncName)
	}
	if err := checkNames(block, opts.FuncName); err != nil {
		return nil, err
	}

	if !block.HasRuntimeImport {
		name := ""
		if block.RuntimeAlias != path.Base(block.RuntimeImport) {
			name = block.RuntimeAlias
		}
		astutil.AddNamedImport(block.Fset, block.File, name, block.RuntimeImport)
		block.HasRuntimeImport = true
	}

	var buf bytes.Buffer
	buf.WriteString(Header)
	buf.WriteString("\n\n")
	if err := format.Node(&buf, block.Fset, block.File); err != nil {
		return nil, fmt.Errorf("print declarations: %w", err)
	}
	buf.WriteString("\n")

	g := &generator{rt: block.RuntimeAlias}
	var decls []jen.Code
	for i := range block.Module.Fns {
		decls = append(decls, g.dispatcher(&block.Module.Fns[i])...)
	}
	decls = append(decls, g.routine(opts.FuncName, block.Module))

	for _, decl := range decls {
		buf.WriteString("\n")
		if err := jen.Add(decl).Render(&buf); err != nil {
			return nil, fmt.Errorf("render generated code: %w", err)
		}
		buf.WriteString("\n")
	}

	out, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format generated file: %w", err)
	}

	if err := verifyRoundTrip(out, opts.FuncName, block.Module); err != nil {
		return nil, err
	}

	compiler.Logger().Debug("generated module",
		zap.String("file", block.Filename),
		zap.String("routine", opts.FuncName),
		zap.Int("dispatchers", len(block.Module.Fns)),
		zap.Int("bytes", len(out)))
	return out, nil
}

// verifyRoundTrip re-derives the registrations from the generated source
// and compares them with the ones the IR calls for.
func verifyRoundTrip(src []byte, funcName string, m *ir.Module) error {
	got, err := ReadRegistrations(src, funcName)
	if err != nil {
		return fmt.Errorf("read back registrations: %w", err)
	}
	want := m.Registrations()
	if !slices.EqualFunc(got, want, ir.Registration.Equal) {
		return fmt.Errorf("generated registrations do not match the module: got %d, want %d", len(got), len(want))
	}
	return nil
}
