package dynamic

import (
	"fmt"
	"strings"
)

// FnAccess is the visibility of a registered function.
type FnAccess int

const (
	FnPublic FnAccess = iota
	FnPrivate
)

func (a FnAccess) String() string {
	if a == FnPrivate {
		return "private"
	}
	return "public"
}

// FnNamespace controls whether a function is reachable only through its
// module or is also exposed in the global namespace.
type FnNamespace int

const (
	NamespaceInternal FnNamespace = iota
	NamespaceGlobal
)

func (n FnNamespace) String() string {
	if n == NamespaceGlobal {
		return "global"
	}
	return "internal"
}

// FuncInfo is one registered native function.
type FuncInfo struct {
	Name      string
	Namespace FnNamespace
	Access    FnAccess
	Params    []TypeID
	Func      CallableFunction
}

// FnAnonymousPrefix starts the name of every script closure.
const FnAnonymousPrefix = "anon$"

// PathSeparator joins the segments of a nested module path.
const PathSeparator = "::"

// ScriptFnDef describes a function defined by a script.
type ScriptFnDef struct {
	Name   string
	Access FnAccess
	Params []string
}

// NamedModule is a sub-module entry.
type NamedModule struct {
	Name   string
	Module *Module
}

// Module is a script namespace: native functions, variables, script
// functions and sub-modules, all kept in insertion order.
type Module struct {
	id         string
	standard   bool
	funcs      []*FuncInfo
	vars       map[string]Value
	varOrder   []string
	scriptFns  []*ScriptFnDef
	subModules []NamedModule
}

// NewModule creates an empty module.
func NewModule() *Module {
	return &Module{vars: make(map[string]Value)}
}

// ID returns the module's identifier, if any.
func (m *Module) ID() string { return m.id }

// SetID names the module.
func (m *Module) SetID(id string) { m.id = id }

// IsStandard reports whether the module is part of a standard package.
func (m *Module) IsStandard() bool { return m.standard }

// SetStandard flags the module as part of a standard package.
func (m *Module) SetStandard(standard bool) { m.standard = standard }

// SetFn registers a native function. Collisions are kept: lookups return the
// first registration whose signature matches.
func (m *Module) SetFn(name string, ns FnNamespace, access FnAccess, params []TypeID, fn CallableFunction) {
	m.funcs = append(m.funcs, &FuncInfo{
		Name:      name,
		Namespace: ns,
		Access:    access,
		Params:    append([]TypeID(nil), params...),
		Func:      fn,
	})
}

// SetVar registers a variable, replacing an existing one of the same name.
func (m *Module) SetVar(name string, v Value) {
	if _, ok := m.vars[name]; !ok {
		m.varOrder = append(m.varOrder, name)
	}
	m.vars[name] = v
}

// GetVar returns a registered variable.
func (m *Module) GetVar(name string) (Value, bool) {
	v, ok := m.vars[name]
	return v, ok
}

// VarNames returns variable names in registration order.
func (m *Module) VarNames() []string {
	return append([]string(nil), m.varOrder...)
}

// Funcs returns the registered native functions in registration order.
func (m *Module) Funcs() []*FuncInfo {
	return append([]*FuncInfo(nil), m.funcs...)
}

// SetScriptFn registers a script-defined function.
func (m *Module) SetScriptFn(def ScriptFnDef) {
	d := def
	d.Params = append([]string(nil), def.Params...)
	m.scriptFns = append(m.scriptFns, &d)
}

// IterScriptFns returns script-defined functions in registration order.
func (m *Module) IterScriptFns() []*ScriptFnDef {
	return append([]*ScriptFnDef(nil), m.scriptFns...)
}

// SetSubModule attaches a named sub-module.
func (m *Module) SetSubModule(name string, sub *Module) {
	for i := range m.subModules {
		if m.subModules[i].Name == name {
			m.subModules[i].Module = sub
			return
		}
	}
	m.subModules = append(m.subModules, NamedModule{Name: name, Module: sub})
}

// IterSubModules returns sub-modules in registration order.
func (m *Module) IterSubModules() []NamedModule {
	return append([]NamedModule(nil), m.subModules...)
}

// Combine copies other's functions, variables, script functions and
// sub-modules into m.
func (m *Module) Combine(other *Module) *Module {
	m.funcs = append(m.funcs, other.funcs...)
	for _, name := range other.varOrder {
		m.SetVar(name, other.vars[name])
	}
	m.scriptFns = append(m.scriptFns, other.scriptFns...)
	for _, sub := range other.subModules {
		m.SetSubModule(sub.Name, sub.Module)
	}
	return m
}

// FindFn returns the first function registered under name whose parameter
// tokens accept args.
func (m *Module) FindFn(name string, args []TypeID) (*FuncInfo, bool) {
	for _, f := range m.funcs {
		if f.Name != name || len(f.Params) != len(args) {
			continue
		}
		ok := true
		for i, p := range f.Params {
			if !p.Matches(args[i]) {
				ok = false
				break
			}
		}
		if ok {
			return f, true
		}
	}
	return nil, false
}

// Call looks up name by the argument types and invokes it. Failures from the
// function are tagged with pos if they carry no position.
func (m *Module) Call(ctx CallContext, name string, args []*Value, pos Position) (Value, error) {
	types := make([]TypeID, len(args))
	for i, a := range args {
		types[i] = a.Type()
	}
	f, ok := m.FindFn(name, types)
	if !ok || !f.Func.IsPlugin() {
		return Value{}, &EvalError{
			Kind:    ErrFunctionNotFound,
			Message: fmt.Sprintf("%s (%s)", name, joinTypes(types)),
			Pos:     pos,
		}
	}
	out, err := f.Func.Plugin().Call(ctx, args, pos)
	if err != nil {
		return Value{}, Propagate(err, pos)
	}
	return out, nil
}

func joinTypes(types []TypeID) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}
