package compiler

import (
	"go/ast"
	"go/constant"
	"go/token"
	"go/types"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/bindgen/internal/ir"
)

// fnCandidate is a top-level function together with its parsed directive.
// params is nil when the function carries no directive.
type fnCandidate struct {
	decl   *ast.FuncDecl
	params *FnParams
}

// extraction is the result of walking one file's top-level declarations.
type extraction struct {
	fns    []fnCandidate
	consts []ir.ExportedConst
	drop   []*ast.Comment // consumed directives and the template constraint
}

// extract walks the top-level declarations of file in order and records
// the comments that must not appear in generated output.
func extract(fset *token.FileSet, file *ast.File) (*extraction, error) {
	owned := make(map[*ast.Comment]bool)
	out := &extraction{}

	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			directive, err := findDirective(fset, d.Doc)
			if err != nil {
				return nil, err
			}
			if directive != nil {
				owned[directive] = true
				if sep := separatorBefore(d.Doc, directive); sep != nil {
					owned[sep] = true
				}
			}
			if d.Recv != nil {
				if directive != nil {
					return nil, errorAt(fset.Position(directive.Pos()), "directive",
						"method %s cannot be exported; only top-level functions can", d.Name.Name)
				}
				continue
			}
			cand := fnCandidate{decl: d}
			if directive != nil {
				params, err := ParseDirective(directive.Text, fset.Position(directive.Pos()))
				if err != nil {
					return nil, err
				}
				cand.params = params
			}
			out.fns = append(out.fns, cand)

		case *ast.GenDecl:
			if d.Tok == token.CONST {
				consts, err := extractConsts(fset, d)
				if err != nil {
					return nil, err
				}
				out.consts = append(out.consts, consts...)
			}
		}
	}

	// Any directive not attached to a function is an error, as is an
	// unknown directive anywhere in the file.
	for _, group := range file.Comments {
		for _, c := range group.List {
			if !IsDirective(c.Text) || owned[c] {
				continue
			}
			pos := fset.Position(c.Pos())
			if _, err := ParseDirective(c.Text, pos); err != nil {
				return nil, err
			}
			return nil, errorAt(pos, "directive", "directive is not attached to a top-level function")
		}
	}

	for _, group := range file.Comments {
		for _, c := range group.List {
			if owned[c] || isBuildConstraint(file, c) {
				out.drop = append(out.drop, c)
			}
		}
	}
	return out, nil
}

// findDirective returns the single //bindgen: comment in a doc group.
func findDirective(fset *token.FileSet, doc *ast.CommentGroup) (*ast.Comment, error) {
	if doc == nil {
		return nil, nil
	}
	var found *ast.Comment
	for _, c := range doc.List {
		if !IsDirective(c.Text) {
			continue
		}
		if found != nil {
			return nil, errorAt(fset.Position(c.Pos()), "directive", "more than one directive on a function")
		}
		found = c
	}
	return found, nil
}

// separatorBefore returns the empty "//" line separating a trailing
// directive from the prose above it, if there is one.
func separatorBefore(doc *ast.CommentGroup, directive *ast.Comment) *ast.Comment {
	n := len(doc.List)
	if n < 2 || doc.List[n-1] != directive || doc.List[n-2].Text != "//" {
		return nil
	}
	return doc.List[n-2]
}

// extractConsts returns one candidate per exported name of a const block.
// Implicitly repeated specs (iota style) carry no value expression and are
// registered through their identifier. An untyped integer literal must fit
// the int a boxed constant defaults to.
func extractConsts(fset *token.FileSet, d *ast.GenDecl) ([]ir.ExportedConst, error) {
	var out []ir.ExportedConst
	for _, spec := range d.Specs {
		vs, ok := spec.(*ast.ValueSpec)
		if !ok {
			continue
		}
		var typ ir.TypeDescriptor
		if vs.Type != nil {
			typ = ir.TypeDescriptor(types.ExprString(vs.Type))
		}
		for i, name := range vs.Names {
			if name.Name == "_" || !ast.IsExported(name.Name) {
				continue
			}
			c := ir.ExportedConst{Name: name.Name, Type: typ}
			if i < len(vs.Values) {
				c.Value = types.ExprString(vs.Values[i])
				c.IsLiteral = isLiteral(vs.Values[i])
				if typ == "" && overflowsInt(vs.Values[i]) {
					return nil, errorAt(fset.Position(vs.Values[i].Pos()), "const",
						"%s overflows int; give the constant an explicit type", name.Name)
				}
			}
			out = append(out, c)
		}
	}
	return out, nil
}

// overflowsInt reports whether expr is an integer literal, possibly signed,
// whose value does not fit in 64 bits.
func overflowsInt(expr ast.Expr) bool {
	neg := false
	for {
		switch e := expr.(type) {
		case *ast.ParenExpr:
			expr = e.X
			continue
		case *ast.UnaryExpr:
			if e.Op == token.SUB {
				neg = !neg
			} else if e.Op != token.ADD {
				return false
			}
			expr = e.X
			continue
		}
		break
	}
	lit, ok := expr.(*ast.BasicLit)
	if !ok || lit.Kind != token.INT {
		return false
	}
	v := constant.MakeFromLiteral(lit.Value, token.INT, 0)
	if neg {
		v = constant.UnaryOp(token.SUB, v, 0)
	}
	_, exact := constant.Int64Val(v)
	return !exact
}

// isLiteral reports whether expr is a basic literal, a signed numeric
// literal, or one of the predeclared booleans.
func isLiteral(expr ast.Expr) bool {
	switch e := expr.(type) {
	case *ast.BasicLit:
		return e.Kind != token.IMAG
	case *ast.UnaryExpr:
		lit, ok := e.X.(*ast.BasicLit)
		return ok && (e.Op == token.SUB || e.Op == token.ADD) &&
			(lit.Kind == token.INT || lit.Kind == token.FLOAT)
	case *ast.Ident:
		return e.Name == "true" || e.Name == "false"
	case *ast.ParenExpr:
		return isLiteral(e.X)
	}
	return false
}

// isBuildConstraint reports whether c is the "ignore" build constraint
// that keeps a declaration block out of normal builds.
func isBuildConstraint(file *ast.File, c *ast.Comment) bool {
	if c.Pos() >= file.Package {
		return false
	}
	text := strings.TrimSpace(c.Text)
	return text == "//go:build ignore" || text == "// +build ignore"
}

// stripComments removes the given comments from src. A comment that is
// alone on its line takes the whole line with it, and a build constraint
// also takes the blank line after it.
func stripComments(fset *token.FileSet, src []byte, comments []*ast.Comment) []byte {
	type span struct{ start, end int }
	var spans []span
	for _, c := range comments {
		start := fset.Position(c.Pos()).Offset
		end := fset.Position(c.End()).Offset

		lineStart := start
		for lineStart > 0 && (src[lineStart-1] == ' ' || src[lineStart-1] == '\t') {
			lineStart--
		}
		lineEnd := end
		for lineEnd < len(src) && (src[lineEnd] == ' ' || src[lineEnd] == '\t' || src[lineEnd] == '\r') {
			lineEnd++
		}
		if (lineStart == 0 || src[lineStart-1] == '\n') && (lineEnd == len(src) || src[lineEnd] == '\n') {
			start, end = lineStart, min(lineEnd+1, len(src))
			if strings.HasPrefix(c.Text, "//go:build") || strings.HasPrefix(c.Text, "// +build") {
				for end < len(src) && src[end] == '\n' {
					end++
				}
			}
		}
		spans = append(spans, span{start, end})
	}
	slices.SortFunc(spans, func(a, b span) int { return a.start - b.start })

	out := make([]byte, 0, len(src))
	pos := 0
	for _, sp := range spans {
		if sp.start < pos {
			sp.start = pos
		}
		out = append(out, src[pos:sp.start]...)
		pos = max(pos, sp.end)
	}
	return append(out, src[pos:]...)
}

// unquoteImport returns the path of an import spec.
func unquoteImport(spec *ast.ImportSpec) string {
	path, err := strconv.Unquote(spec.Path.Value)
	if err != nil {
		return spec.Path.Value
	}
	return path
}
