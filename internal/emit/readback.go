package emit

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"strconv"

	"github.com/roach88/bindgen/internal/ir"
)

// ReadRegistrations re-derives the registrations issued by the routine
// funcName in generated source. Type signatures are resolved through the
// InputTypes accessor and dispatcher method the routine refers to.
func ReadRegistrations(src []byte, funcName string) ([]ir.Registration, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "generated.go", src, parser.SkipObjectResolution)
	if err != nil {
		return nil, fmt.Errorf("parse generated source: %w", err)
	}

	r := &reader{funcs: make(map[string]*ast.FuncDecl), methods: make(map[string]*ast.FuncDecl)}
	for _, decl := range file.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok {
			continue
		}
		if fd.Recv == nil {
			r.funcs[fd.Name.Name] = fd
			continue
		}
		if fd.Name.Name == "InputTypes" && len(fd.Recv.List) == 1 {
			if id, ok := fd.Recv.List[0].Type.(*ast.Ident); ok {
				r.methods[id.Name] = fd
			}
		}
	}

	routine, ok := r.funcs[funcName]
	if !ok || routine.Body == nil {
		return nil, fmt.Errorf("registration routine %s not found", funcName)
	}

	regs := []ir.Registration{}
	for _, stmt := range routine.Body.List {
		es, ok := stmt.(*ast.ExprStmt)
		if !ok {
			continue
		}
		call, ok := es.X.(*ast.CallExpr)
		if !ok {
			continue
		}
		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok {
			continue
		}
		var reg ir.Registration
		switch sel.Sel.Name {
		case "SetVar":
			reg, err = r.readVar(call)
		case "SetFn":
			reg, err = r.readFn(call)
		default:
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fset.Position(call.Pos()), err)
		}
		regs = append(regs, reg)
	}
	return regs, nil
}

type reader struct {
	funcs   map[string]*ast.FuncDecl
	methods map[string]*ast.FuncDecl // InputTypes by receiver type
}

func (r *reader) readVar(call *ast.CallExpr) (ir.Registration, error) {
	if len(call.Args) != 2 {
		return ir.Registration{}, fmt.Errorf("SetVar takes 2 arguments, got %d", len(call.Args))
	}
	name, err := stringLit(call.Args[0])
	if err != nil {
		return ir.Registration{}, err
	}
	from, ok := call.Args[1].(*ast.CallExpr)
	if !ok || len(from.Args) != 1 {
		return ir.Registration{}, fmt.Errorf("SetVar %q: value is not a From call", name)
	}
	value := types.ExprString(from.Args[0])
	if idx, ok := from.Fun.(*ast.IndexExpr); ok {
		value = types.ExprString(idx.Index) + "(" + value + ")"
	}
	return ir.Registration{Kind: ir.RegisterVar, Name: name, Value: value}, nil
}

func (r *reader) readFn(call *ast.CallExpr) (ir.Registration, error) {
	if len(call.Args) != 5 {
		return ir.Registration{}, fmt.Errorf("SetFn takes 5 arguments, got %d", len(call.Args))
	}
	name, err := stringLit(call.Args[0])
	if err != nil {
		return ir.Registration{}, err
	}
	reg := ir.Registration{Kind: ir.RegisterFn, Name: name}

	switch selectorName(call.Args[1]) {
	case "NamespaceGlobal":
		reg.Namespace = ir.NamespaceGlobal
	case "NamespaceInternal":
		reg.Namespace = ir.NamespaceInternal
	default:
		return ir.Registration{}, fmt.Errorf("SetFn %q: unknown namespace %s", name, types.ExprString(call.Args[1]))
	}

	switch selectorName(call.Args[2]) {
	case "FnPublic":
		reg.Access = ir.AccessPublic
	case "FnPrivate":
		reg.Access = ir.AccessPrivate
	default:
		return ir.Registration{}, fmt.Errorf("SetFn %q: unknown access %s", name, types.ExprString(call.Args[2]))
	}

	reg.Signature, err = r.signature(call.Args[3])
	if err != nil {
		return ir.Registration{}, fmt.Errorf("SetFn %q: %w", name, err)
	}
	return reg, nil
}

// signature follows Accessor() -> token{}.InputTypes() -> []TypeID{TypeOf[T]()...}.
func (r *reader) signature(expr ast.Expr) ([]ir.TypeDescriptor, error) {
	call, ok := expr.(*ast.CallExpr)
	if !ok {
		return nil, fmt.Errorf("signature is not an accessor call")
	}
	accessor, ok := call.Fun.(*ast.Ident)
	if !ok {
		return nil, fmt.Errorf("signature is not an accessor call")
	}
	fd, ok := r.funcs[accessor.Name]
	if !ok {
		return nil, fmt.Errorf("accessor %s not found", accessor.Name)
	}
	ret, err := singleReturn(fd)
	if err != nil {
		return nil, fmt.Errorf("accessor %s: %w", accessor.Name, err)
	}

	// token{}.InputTypes()
	inner, ok := ret.(*ast.CallExpr)
	if !ok {
		return nil, fmt.Errorf("accessor %s does not call InputTypes", accessor.Name)
	}
	sel, ok := inner.Fun.(*ast.SelectorExpr)
	if !ok || sel.Sel.Name != "InputTypes" {
		return nil, fmt.Errorf("accessor %s does not call InputTypes", accessor.Name)
	}
	lit, ok := sel.X.(*ast.CompositeLit)
	if !ok {
		return nil, fmt.Errorf("accessor %s does not construct a dispatcher", accessor.Name)
	}
	tokenType, ok := lit.Type.(*ast.Ident)
	if !ok {
		return nil, fmt.Errorf("accessor %s does not construct a dispatcher", accessor.Name)
	}
	method, ok := r.methods[tokenType.Name]
	if !ok {
		return nil, fmt.Errorf("%s has no InputTypes method", tokenType.Name)
	}
	ret, err = singleReturn(method)
	if err != nil {
		return nil, fmt.Errorf("%s.InputTypes: %w", tokenType.Name, err)
	}

	list, ok := ret.(*ast.CompositeLit)
	if !ok {
		return nil, fmt.Errorf("%s.InputTypes does not return a literal", tokenType.Name)
	}
	sig := []ir.TypeDescriptor{}
	for _, elt := range list.Elts {
		typeOf, ok := elt.(*ast.CallExpr)
		if !ok {
			return nil, fmt.Errorf("%s.InputTypes: unexpected element %s", tokenType.Name, types.ExprString(elt))
		}
		idx, ok := typeOf.Fun.(*ast.IndexExpr)
		if !ok {
			return nil, fmt.Errorf("%s.InputTypes: unexpected element %s", tokenType.Name, types.ExprString(elt))
		}
		sig = append(sig, ir.TypeDescriptor(types.ExprString(idx.Index)))
	}
	return sig, nil
}

func singleReturn(fd *ast.FuncDecl) (ast.Expr, error) {
	if fd.Body == nil || len(fd.Body.List) != 1 {
		return nil, fmt.Errorf("body is not a single return")
	}
	ret, ok := fd.Body.List[0].(*ast.ReturnStmt)
	if !ok || len(ret.Results) != 1 {
		return nil, fmt.Errorf("body is not a single return")
	}
	return ret.Results[0], nil
}

func stringLit(expr ast.Expr) (string, error) {
	lit, ok := expr.(*ast.BasicLit)
	if !ok || lit.Kind != token.STRING {
		return "", fmt.Errorf("expected a string literal, got %s", types.ExprString(expr))
	}
	return strconv.Unquote(lit.Value)
}

func selectorName(expr ast.Expr) string {
	if sel, ok := expr.(*ast.SelectorExpr); ok {
		return sel.Sel.Name
	}
	return ""
}
