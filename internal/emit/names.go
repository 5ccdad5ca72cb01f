package emit

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/roach88/bindgen/internal/compiler"
	"github.com/roach88/bindgen/internal/ir"
)

// Identifiers local to generated method bodies. Exported functions and
// non-literal constants must not share these names.
const (
	ctxParam  = "ctx"
	argsParam = "args"
	posParam  = "pos"
	moduleVar = "m"
	outVar    = "out"
	errVar    = "err"
)

// fnNames are the generated identifiers belonging to one exported function.
type fnNames struct {
	token      string // dispatcher type
	callable   string // accessor returning the dispatcher
	inputTypes string // accessor returning the type signature
}

func namesFor(fn *ir.ExportedFn) fnNames {
	base := upperFirst(fn.Name)
	return fnNames{
		token:      lowerFirst(fn.Name) + "Token",
		callable:   base + "TokenCallable",
		inputTypes: base + "TokenInputTypes",
	}
}

func upperFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[n:]
}

func lowerFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[n:]
}

func argName(i int) string { return fmt.Sprintf("arg%d", i) }

// checkNames rejects generated identifiers that collide with each other or
// with declarations already in the file, and exported names that would be
// shadowed inside generated bodies.
func checkNames(block *compiler.Block, funcName string) error {
	declared := topLevelNames(block.File)
	generated := map[string]string{funcName: "registration routine"}
	if _, ok := declared[funcName]; ok {
		return collision(block, 0, funcName, "registration routine collides with an existing declaration")
	}

	for i := range block.Module.Fns {
		fn := &block.Module.Fns[i]
		if isLocalName(fn.Name) {
			return collision(block, fn.Line, fn.Name, "function name is shadowed by a dispatcher local")
		}
		if fn.Name == block.RuntimeAlias {
			return collision(block, fn.Line, fn.Name, "function name shadows the runtime package")
		}
		fnTypes := []ir.TypeDescriptor{fn.Return.Type}
		for _, p := range fn.Params {
			fnTypes = append(fnTypes, p.Type)
		}
		for _, t := range fnTypes {
			for _, id := range typeIdents(t) {
				if isLocalName(id) {
					return collision(block, fn.Line, id, "type used by "+fn.Name+" is shadowed by a dispatcher local")
				}
			}
		}
		n := namesFor(fn)
		for _, id := range []string{n.token, n.callable, n.inputTypes} {
			if owner, ok := generated[id]; ok {
				return collision(block, fn.Line, id, "generated identifier already used by "+owner)
			}
			if _, ok := declared[id]; ok {
				return collision(block, fn.Line, id, "generated identifier collides with an existing declaration")
			}
			generated[id] = fn.Name
		}
	}

	for _, c := range block.Module.Consts {
		if !c.IsLiteral && (c.Name == moduleVar || c.Name == block.RuntimeAlias) {
			return collision(block, 0, c.Name, "constant name is shadowed in the registration routine")
		}
		if c.IsLiteral && slices.Contains(typeIdents(c.Type), moduleVar) {
			return collision(block, 0, moduleVar, "type of constant "+c.Name+" is shadowed in the registration routine")
		}
	}
	return nil
}

// typeIdents returns the unqualified identifiers a type expression refers
// to. Package selectors and predeclared names are left out.
func typeIdents(t ir.TypeDescriptor) []string {
	if t == "" {
		return nil
	}
	expr, err := parser.ParseExpr(string(t))
	if err != nil {
		return nil
	}
	var ids []string
	var visit func(ast.Node) bool
	visit = func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.SelectorExpr:
			return false
		case *ast.Field:
			// field and parameter names are not type references
			if n.Type != nil {
				ast.Inspect(n.Type, visit)
			}
			return false
		case *ast.Ident:
			if types.Universe.Lookup(n.Name) == nil {
				ids = append(ids, n.Name)
			}
		}
		return true
	}
	ast.Inspect(expr, visit)
	return ids
}

func isLocalName(name string) bool {
	switch name {
	case ctxParam, argsParam, posParam, outVar, errVar:
		return true
	}
	rest, ok := strings.CutPrefix(name, "arg")
	if !ok || rest == "" {
		return false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func collision(block *compiler.Block, line int, name, msg string) error {
	return &compiler.CompileError{
		Field:   "emit",
		Message: fmt.Sprintf("%s: %s", name, msg),
		Pos:     token.Position{Filename: block.Filename, Line: line},
	}
}

// topLevelNames returns the package-level identifiers declared in file.
func topLevelNames(file *ast.File) map[string]struct{} {
	names := make(map[string]struct{})
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Recv == nil {
				names[d.Name.Name] = struct{}{}
			}
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				switch s := spec.(type) {
				case *ast.TypeSpec:
					names[s.Name.Name] = struct{}{}
				case *ast.ValueSpec:
					for _, id := range s.Names {
						names[id.Name] = struct{}{}
					}
				}
			}
		}
	}
	return names
}
