package emit

import (
	"github.com/dave/jennifer/jen"

	"github.com/roach88/bindgen/internal/ir"
)

// generator renders the declarations for one block. rt is the identifier
// the runtime package is referred to by.
type generator struct {
	rt string
}

func (g *generator) qual(name string) *jen.Statement {
	return jen.Id(g.rt).Dot(name)
}

func typeExpr(t ir.TypeDescriptor) jen.Code {
	return jen.Id(string(t))
}

// dispatcher returns the dispatcher type, its PluginFunction methods and
// the two accessors of fn.
func (g *generator) dispatcher(fn *ir.ExportedFn) []jen.Code {
	n := namesFor(fn)
	recv := jen.Id(n.token)

	return []jen.Code{
		jen.Commentf("%s dispatches script calls to %s.", n.token, fn.Name).Line().
			Type().Id(n.token).Struct(),

		jen.Func().Params(recv.Clone()).Id("Call").Params(
			jen.Id(ctxParam).Add(g.qual("CallContext")),
			jen.Id(argsParam).Index().Op("*").Add(g.qual("Value")),
			jen.Id(posParam).Add(g.qual("Position")),
		).Params(g.qual("Value"), jen.Error()).Block(g.callBody(fn)...),

		jen.Func().Params(recv.Clone()).Id("InputTypes").Params().Index().Add(g.qual("TypeID")).Block(
			jen.Return(g.typeList(fn)),
		),

		jen.Func().Params(recv.Clone()).Id("IsMethodCall").Params().Bool().Block(
			jen.Return(jen.Lit(fn.IsMethodCall())),
		),

		jen.Func().Params(recv.Clone()).Id("IsVariadic").Params().Bool().Block(
			jen.Return(jen.False()),
		),

		jen.Func().Params(recv.Clone()).Id("Clone").Params().Add(g.qual("PluginFunction")).Block(
			jen.Return(jen.Id(n.token).Values()),
		),

		jen.Commentf("%s returns the dispatcher of %s.", n.callable, fn.Name).Line().
			Func().Id(n.callable).Params().Add(g.qual("CallableFunction")).Block(
			jen.Return(g.qual("FromPlugin").Call(jen.Id(n.token).Values())),
		),

		jen.Commentf("%s returns the type signature of %s.", n.inputTypes, fn.Name).Line().
			Func().Id(n.inputTypes).Params().Index().Add(g.qual("TypeID")).Block(
			jen.Return(jen.Id(n.token).Values().Dot("InputTypes").Call()),
		),
	}
}

// typeList renders []TypeID{TypeOf[T1](), ...} for the script-visible params.
func (g *generator) typeList(fn *ir.ExportedFn) *jen.Statement {
	var elems []jen.Code
	for _, t := range fn.InputTypes() {
		elems = append(elems, g.qual("TypeOf").Types(typeExpr(t)).Call())
	}
	return jen.Index().Add(g.qual("TypeID")).Values(elems...)
}

// callBody asserts the arity, extracts every argument in declared order,
// calls the function and boxes or propagates its result.
func (g *generator) callBody(fn *ir.ExportedFn) []jen.Code {
	body := []jen.Code{
		g.qual("AssertArgCount").Call(jen.Id(argsParam), jen.Lit(fn.Arity())),
	}

	var callArgs []jen.Code
	slot := 0
	for _, p := range fn.Params {
		if p.IsCallContext {
			callArgs = append(callArgs, jen.Id(ctxParam))
			continue
		}
		arg := argName(slot)
		body = append(body, jen.Id(arg).Op(":=").Add(g.extract(p, slot)))
		callArgs = append(callArgs, jen.Id(arg))
		slot++
	}

	call := jen.Id(fn.Name).Call(callArgs...)
	unit := g.qual("Unit").Call()
	propagate := g.qual("Propagate").Call(jen.Id(errVar), jen.Id(posParam))

	switch {
	case fn.RawResult:
		body = append(body, jen.Return(call))
	case fn.Return.IsFallible && fn.Return.HasPayload():
		body = append(body,
			jen.List(jen.Id(outVar), jen.Id(errVar)).Op(":=").Add(call),
			jen.If(jen.Id(errVar).Op("!=").Nil()).Block(
				jen.Return(unit.Clone(), propagate),
			),
			jen.Return(g.qual("From").Call(jen.Id(outVar)), jen.Nil()),
		)
	case fn.Return.IsFallible:
		body = append(body,
			jen.If(jen.Id(errVar).Op(":=").Add(call), jen.Id(errVar).Op("!=").Nil()).Block(
				jen.Return(unit.Clone(), propagate),
			),
			jen.Return(unit.Clone(), jen.Nil()),
		)
	case fn.Return.HasPayload():
		body = append(body, jen.Return(g.qual("From").Call(call), jen.Nil()))
	default:
		body = append(body, call, jen.Return(unit, jen.Nil()))
	}
	return body
}

// extract renders the expression pulling argument slot out of args.
func (g *generator) extract(p ir.ParamSpec, slot int) *jen.Statement {
	arg := jen.Id(argsParam).Index(jen.Lit(slot))
	switch p.Mode {
	case ir.ByMutableRef:
		return g.qual("Borrow").Types(typeExpr(p.Type)).Call(arg)
	case ir.ByImmutableRef:
		return g.qual("RefOf").Types(typeExpr(p.Type)).Call(arg)
	default:
		return g.qual("Cast").Types(typeExpr(p.Type)).Call(arg.Dot("Take").Call())
	}
}
