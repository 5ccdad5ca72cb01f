package compiler

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"strings"

	"go.uber.org/zap"

	"github.com/roach88/bindgen/internal/ir"
)

// Runtime type names the classifier recognises, qualified by the alias the
// declaration block imports the runtime package under.
const (
	callContextType = "CallContext"
	refType         = "Ref"
	valueType       = "Value"
)

// classifier derives ExportedFn descriptions for one file.
type classifier struct {
	fset  *token.FileSet
	alias string
}

func (c *classifier) position(node ast.Node) token.Position {
	return c.fset.Position(node.Pos())
}

// isRuntime reports whether expr is the selector alias.name.
func (c *classifier) isRuntime(expr ast.Expr, name string) bool {
	sel, ok := expr.(*ast.SelectorExpr)
	if !ok {
		return false
	}
	pkg, ok := sel.X.(*ast.Ident)
	return ok && pkg.Name == c.alias && sel.Sel.Name == name
}

// refElem returns T when expr is alias.Ref[T].
func (c *classifier) refElem(expr ast.Expr) (ast.Expr, bool) {
	idx, ok := expr.(*ast.IndexExpr)
	if !ok || !c.isRuntime(idx.X, refType) {
		return nil, false
	}
	return idx.Index, true
}

// classify turns a function candidate into an ExportedFn. The returned
// function has Skip set when it is not to be exported.
func (c *classifier) classify(cand fnCandidate) (*ir.ExportedFn, error) {
	decl := cand.decl
	name := decl.Name.Name
	params := cand.params
	if params == nil {
		params = &FnParams{}
		if !ast.IsExported(name) {
			params.Skip = true
		}
	}

	fn := &ir.ExportedFn{
		Name:      name,
		Skip:      params.Skip,
		Pure:      params.Pure,
		RawResult: params.ReturnRaw,
		Line:      c.position(decl).Line,
	}
	if fn.Skip {
		return fn, nil
	}

	if name == "init" || name == "main" || name == "_" {
		return nil, errorAt(c.position(decl.Name), "function", "%s cannot be exported", name)
	}
	if decl.Type.TypeParams != nil && decl.Type.TypeParams.NumFields() > 0 {
		return nil, errorAt(c.position(decl.Type.TypeParams), "function",
			"generic function %s cannot be exported", name)
	}

	var err error
	if fn.Params, err = c.classifyParams(decl); err != nil {
		return nil, err
	}
	if fn.Return, err = c.classifyResults(decl, params.ReturnRaw); err != nil {
		return nil, err
	}
	if err := c.assignRole(fn, params, decl); err != nil {
		return nil, err
	}

	fn.Access = params.Access
	if fn.Access == "" {
		fn.Access = ir.AccessPrivate
		if ast.IsExported(name) {
			fn.Access = ir.AccessPublic
		}
	}
	fn.Namespace = params.Namespace
	if fn.Namespace == "" {
		fn.Namespace = ir.NamespaceInternal
	}

	if fn.Pure && !fn.IsMethodCall() {
		Logger().Warn("pure has no effect without a mutable first parameter",
			zap.String("fn", name),
			zap.Int("line", fn.Line))
	}
	return fn, nil
}

func (c *classifier) classifyParams(decl *ast.FuncDecl) ([]ir.ParamSpec, error) {
	var specs []ir.ParamSpec
	for _, field := range decl.Type.Params.List {
		names := field.Names
		if len(names) == 0 {
			names = []*ast.Ident{nil}
		}
		for _, ident := range names {
			index := len(specs)
			spec, err := c.classifyParam(field.Type, index)
			if err != nil {
				return nil, err
			}
			if ident != nil && ident.Name != "_" {
				spec.Name = ident.Name
			} else {
				spec.Name = fmt.Sprintf("p%d", index)
			}
			specs = append(specs, spec)
		}
	}
	return specs, nil
}

func (c *classifier) classifyParam(expr ast.Expr, index int) (ir.ParamSpec, error) {
	pos := c.position(expr)

	if c.isRuntime(expr, callContextType) {
		if index != 0 {
			return ir.ParamSpec{}, errorAt(pos, "param", "%s must be the first parameter", types.ExprString(expr))
		}
		return ir.ParamSpec{
			Type:          ir.TypeDescriptor(types.ExprString(expr)),
			Mode:          ir.ByValue,
			IsCallContext: true,
		}, nil
	}

	switch t := expr.(type) {
	case *ast.Ellipsis:
		return ir.ParamSpec{}, errorAt(pos, "param", "variadic parameters are not supported")

	case *ast.StarExpr:
		if err := c.checkElem(t.X, expr); err != nil {
			return ir.ParamSpec{}, err
		}
		return ir.ParamSpec{Type: ir.TypeDescriptor(types.ExprString(t.X)), Mode: ir.ByMutableRef}, nil
	}

	if elem, ok := c.refElem(expr); ok {
		if err := c.checkElem(elem, expr); err != nil {
			return ir.ParamSpec{}, err
		}
		return ir.ParamSpec{Type: ir.TypeDescriptor(types.ExprString(elem)), Mode: ir.ByImmutableRef}, nil
	}

	return ir.ParamSpec{Type: ir.TypeDescriptor(types.ExprString(expr)), Mode: ir.ByValue}, nil
}

// checkElem rejects reference nesting below the outer reference whole.
func (c *classifier) checkElem(elem, whole ast.Expr) error {
	pos := c.position(whole)
	if _, ok := elem.(*ast.StarExpr); ok {
		return errorAt(pos, "param", "unsupported reference nesting: %s", types.ExprString(whole))
	}
	if _, ok := c.refElem(elem); ok {
		return errorAt(pos, "param", "unsupported reference nesting: %s", types.ExprString(whole))
	}
	if c.isRuntime(elem, callContextType) {
		return errorAt(pos, "param", "%s must be passed by value", types.ExprString(elem))
	}
	return nil
}

// classifyResults flattens the result list and matches it against the
// supported shapes: none, T, error, (T, error).
func (c *classifier) classifyResults(decl *ast.FuncDecl, raw bool) (ir.ReturnSpec, error) {
	var results []ast.Expr
	if decl.Type.Results != nil {
		for _, field := range decl.Type.Results.List {
			n := len(field.Names)
			if n == 0 {
				n = 1
			}
			for range n {
				results = append(results, field.Type)
			}
		}
	}

	pos := c.position(decl.Type)
	if raw {
		if len(results) != 2 || !c.isRuntime(results[0], valueType) || !isErrorType(results[1]) {
			return ir.ReturnSpec{}, errorAt(pos, "result",
				"return_raw requires the result (%s.Value, error)", c.alias)
		}
		return ir.ReturnSpec{Type: ir.TypeDescriptor(types.ExprString(results[0])), IsFallible: true}, nil
	}

	switch len(results) {
	case 0:
		return ir.ReturnSpec{}, nil
	case 1:
		if isErrorType(results[0]) {
			return ir.ReturnSpec{IsFallible: true}, nil
		}
		return ir.ReturnSpec{Type: ir.TypeDescriptor(types.ExprString(results[0]))}, nil
	case 2:
		if isErrorType(results[1]) && !isErrorType(results[0]) {
			return ir.ReturnSpec{Type: ir.TypeDescriptor(types.ExprString(results[0])), IsFallible: true}, nil
		}
	}
	shape := make([]string, len(results))
	for i, r := range results {
		shape[i] = types.ExprString(r)
	}
	return ir.ReturnSpec{}, errorAt(pos, "result",
		"unsupported result shape (%s); want T, error or (T, error)", strings.Join(shape, ", "))
}

func isErrorType(expr ast.Expr) bool {
	ident, ok := expr.(*ast.Ident)
	return ok && ident.Name == "error"
}

// assignRole resolves the role, exposed name and aliases.
func (c *classifier) assignRole(fn *ir.ExportedFn, params *FnParams, decl *ast.FuncDecl) error {
	pos := params.Pos
	if !pos.IsValid() {
		pos = c.position(decl)
	}

	switch {
	case params.Get != "":
		fn.Role = ir.Role{Kind: ir.RoleGetter, Target: params.Get}
		fn.ExposedName = ir.GetterPrefix + params.Get
		if fn.Arity() != 1 {
			return errorAt(pos, "get", "getter %q must take exactly one parameter, got %d", params.Get, fn.Arity())
		}
		if !fn.Return.HasPayload() {
			return errorAt(pos, "get", "getter %q must return a value", params.Get)
		}
	case params.Set != "":
		fn.Role = ir.Role{Kind: ir.RoleSetter, Target: params.Set}
		fn.ExposedName = ir.SetterPrefix + params.Set
		if fn.Arity() != 2 {
			return errorAt(pos, "set", "setter %q must take exactly two parameters, got %d", params.Set, fn.Arity())
		}
		if fn.Return.HasPayload() && !fn.RawResult {
			return errorAt(pos, "set", "setter %q must not return a value", params.Set)
		}
	case params.Name != "" && !token.IsIdentifier(params.Name):
		fn.Role = ir.Role{Kind: ir.RoleOperator, Target: params.Name}
		fn.ExposedName = params.Name
		return nil
	case params.Name != "":
		fn.Role = ir.Role{Kind: ir.RolePlain}
		fn.ExposedName = params.Name
		return nil
	default:
		fn.Role = ir.Role{Kind: ir.RolePlain}
		fn.ExposedName = fn.Name
		return nil
	}

	if params.Name != "" {
		fn.Aliases = []string{params.Name}
	}
	return nil
}
