package emit

import (
	"github.com/dave/jennifer/jen"

	"github.com/roach88/bindgen/internal/ir"
)

// routine renders the registration routine: a fresh module, one SetVar per
// constant, then one SetFn per exposed name of every function.
func (g *generator) routine(funcName string, m *ir.Module) jen.Code {
	body := []jen.Code{
		jen.Id(moduleVar).Op(":=").Add(g.qual("NewModule").Call()),
	}

	for _, c := range m.Consts {
		body = append(body, jen.Id(moduleVar).Dot("SetVar").Call(jen.Lit(c.Name), g.constValue(c)))
	}

	for i := range m.Fns {
		fn := &m.Fns[i]
		n := namesFor(fn)
		for _, name := range fn.ExposedNames() {
			body = append(body, jen.Id(moduleVar).Dot("SetFn").Call(
				jen.Lit(name),
				g.qual(namespaceConst(fn.Namespace)),
				g.qual(accessConst(fn.Access)),
				jen.Id(n.inputTypes).Call(),
				jen.Id(n.callable).Call(),
			))
		}
	}

	body = append(body, jen.Return(jen.Id(moduleVar)))

	return jen.Commentf("%s builds the %s module.", funcName, m.Name).Line().
		Func().Id(funcName).Params().Op("*").Add(g.qual("Module")).Block(body...)
}

// constValue boxes the literal when there is one, the identifier otherwise.
// A typed literal keeps its type through an explicit instantiation.
func (g *generator) constValue(c ir.ExportedConst) jen.Code {
	from := g.qual("From")
	switch {
	case !c.IsLiteral:
		return from.Call(jen.Id(c.Name))
	case c.Type != "":
		return from.Types(typeExpr(c.Type)).Call(jen.Op(c.Value))
	default:
		return from.Call(jen.Op(c.Value))
	}
}

func namespaceConst(ns ir.Namespace) string {
	if ns == ir.NamespaceGlobal {
		return "NamespaceGlobal"
	}
	return "NamespaceInternal"
}

func accessConst(a ir.Access) string {
	if a == ir.AccessPrivate {
		return "FnPrivate"
	}
	return "FnPublic"
}
