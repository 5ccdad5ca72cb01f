// Package lint is a go vet style analyzer for //bindgen:fn directives.
package lint

import (
	"errors"
	"go/ast"
	"go/token"
	"go/types"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"

	"github.com/roach88/bindgen/internal/compiler"
)

// Analyzer reports malformed and misplaced //bindgen: directives, and
// property accessors whose parameter count cannot work.
var Analyzer = &analysis.Analyzer{
	Name: "bindgen",
	Doc:  "reports malformed or misplaced //bindgen:fn directives",
	Run:  run,
	Requires: []*analysis.Analyzer{
		inspect.Analyzer,
	},
}

func run(pass *analysis.Pass) (interface{}, error) {
	insp := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	attached := make(map[*ast.Comment]bool)
	nodeFilter := []ast.Node{(*ast.FuncDecl)(nil)}
	insp.Preorder(nodeFilter, func(n ast.Node) {
		fd := n.(*ast.FuncDecl)
		if fd.Doc == nil {
			return
		}
		var found *ast.Comment
		for _, c := range fd.Doc.List {
			if !compiler.IsDirective(c.Text) {
				continue
			}
			attached[c] = true
			if found != nil {
				pass.Reportf(c.Pos(), "more than one directive on %s", fd.Name.Name)
				continue
			}
			found = c
		}
		if found == nil {
			return
		}
		params, ok := parse(pass, found)
		if !ok {
			return
		}
		if fd.Recv != nil {
			pass.Reportf(fd.Name.Pos(), "directive on method %s; only top-level functions can be exported", fd.Name.Name)
			return
		}
		checkAccessor(pass, fd, params)
	})

	for _, file := range pass.Files {
		for _, group := range file.Comments {
			for _, c := range group.List {
				if !compiler.IsDirective(c.Text) || attached[c] {
					continue
				}
				if _, ok := parse(pass, c); ok {
					pass.Reportf(c.Pos(), "directive is not attached to a top-level function")
				}
			}
		}
	}
	return nil, nil
}

// parse reports a directive syntax error at the offending column.
func parse(pass *analysis.Pass, c *ast.Comment) (*compiler.FnParams, bool) {
	base := pass.Fset.Position(c.Pos())
	params, err := compiler.ParseDirective(c.Text, base)
	if err == nil {
		return params, true
	}
	pos := c.Pos()
	var ce *compiler.CompileError
	if errors.As(err, &ce) {
		if delta := ce.Pos.Offset - base.Offset; delta > 0 && delta < len(c.Text) {
			pos += token.Pos(delta)
		}
		pass.Reportf(pos, "%s", ce.Message)
		return nil, false
	}
	pass.Reportf(pos, "%v", err)
	return nil, false
}

// checkAccessor verifies the parameter count of getters and setters. A
// leading call context parameter does not count.
func checkAccessor(pass *analysis.Pass, fd *ast.FuncDecl, params *compiler.FnParams) {
	if params.Get == "" && params.Set == "" {
		return
	}
	n := 0
	first := true
	for _, field := range fd.Type.Params.List {
		names := max(len(field.Names), 1)
		if first && isCallContext(pass, field.Type) {
			names--
		}
		first = false
		n += names
	}
	switch {
	case params.Get != "" && n != 1:
		pass.Reportf(fd.Name.Pos(), "getter %s takes %d parameters; want 1", fd.Name.Name, n)
	case params.Set != "" && n != 2:
		pass.Reportf(fd.Name.Pos(), "setter %s takes %d parameters; want 2", fd.Name.Name, n)
	}
}

// isCallContext matches any named type called CallContext.
func isCallContext(pass *analysis.Pass, expr ast.Expr) bool {
	if tv, ok := pass.TypesInfo.Types[expr]; ok && tv.Type != nil {
		if named, ok := tv.Type.(interface{ Obj() *types.TypeName }); ok {
			return named.Obj().Name() == "CallContext"
		}
	}
	switch e := expr.(type) {
	case *ast.SelectorExpr:
		return e.Sel.Name == "CallContext"
	case *ast.Ident:
		return e.Name == "CallContext"
	}
	return false
}
