package dynamic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// doubleFn is a hand-written dispatcher in the shape the generator emits.
type doubleFn struct{}

func (doubleFn) Call(ctx CallContext, args []*Value, pos Position) (Value, error) {
	AssertArgCount(args, 1)
	arg0 := Cast[int64](args[0].Take())
	return From(arg0 * 2), nil
}
func (doubleFn) IsMethodCall() bool    { return false }
func (doubleFn) IsVariadic() bool      { return false }
func (doubleFn) Clone() PluginFunction { return doubleFn{} }
func (doubleFn) InputTypes() []TypeID  { return []TypeID{TypeOf[int64]()} }

type failFn struct{}

func (failFn) Call(ctx CallContext, args []*Value, pos Position) (Value, error) {
	return Value{}, NewRuntimeError("nope", NoPosition)
}
func (failFn) IsMethodCall() bool    { return false }
func (failFn) IsVariadic() bool      { return false }
func (failFn) Clone() PluginFunction { return failFn{} }
func (failFn) InputTypes() []TypeID  { return nil }

func TestModuleCall(t *testing.T) {
	m := NewModule()
	m.SetFn("double", NamespaceInternal, FnPublic, doubleFn{}.InputTypes(), FromPlugin(doubleFn{}))

	arg := From(int64(21))
	out, err := m.Call(CallContext{}, "double", []*Value{&arg}, NewPosition(1, 1))
	require.NoError(t, err)
	assert.Equal(t, int64(42), Cast[int64](out))
	assert.True(t, arg.IsUnit(), "by-value argument is moved out of its slot")
}

func TestModuleCallNotFound(t *testing.T) {
	m := NewModule()
	m.SetFn("double", NamespaceInternal, FnPublic, doubleFn{}.InputTypes(), FromPlugin(doubleFn{}))

	arg := From("str")
	_, err := m.Call(CallContext{}, "double", []*Value{&arg}, NewPosition(4, 2))
	var evalErr *EvalError
	require.ErrorAs(t, err, &evalErr)
	assert.Equal(t, ErrFunctionNotFound, evalErr.Kind)
	assert.Contains(t, evalErr.Message, "double (string)")
}

func TestModuleCallTagsPosition(t *testing.T) {
	m := NewModule()
	m.SetFn("fail", NamespaceInternal, FnPublic, nil, FromPlugin(failFn{}))

	_, err := m.Call(CallContext{}, "fail", nil, NewPosition(7, 3))
	var evalErr *EvalError
	require.ErrorAs(t, err, &evalErr)
	assert.Equal(t, NewPosition(7, 3), evalErr.Pos)
}

func TestModuleVarsKeepOrder(t *testing.T) {
	m := NewModule()
	m.SetVar("B", From(int64(2)))
	m.SetVar("A", From(int64(1)))
	m.SetVar("B", From(int64(3)))

	assert.Equal(t, []string{"B", "A"}, m.VarNames())
	v, ok := m.GetVar("B")
	require.True(t, ok)
	assert.Equal(t, int64(3), Cast[int64](v))
}

func TestModuleCombine(t *testing.T) {
	lib := NewModule()
	lib.SetStandard(true)

	gen := NewModule()
	gen.SetFn("double", NamespaceGlobal, FnPublic, doubleFn{}.InputTypes(), FromPlugin(doubleFn{}))
	gen.SetVar("X", From(int64(1)))
	gen.SetScriptFn(ScriptFnDef{Name: "helper", Params: []string{"a"}})
	gen.SetSubModule("sub", NewModule())

	lib.Combine(gen)
	require.Len(t, lib.Funcs(), 1)
	assert.Equal(t, NamespaceGlobal, lib.Funcs()[0].Namespace)
	assert.Equal(t, []string{"X"}, lib.VarNames())
	assert.Len(t, lib.IterScriptFns(), 1)
	assert.Len(t, lib.IterSubModules(), 1)
	assert.True(t, lib.IsStandard())
}

func TestFindFnDynamicParam(t *testing.T) {
	m := NewModule()
	m.SetFn("any", NamespaceInternal, FnPublic, []TypeID{TypeOf[Value]()}, FromPlugin(failFn{}))

	_, ok := m.FindFn("any", []TypeID{TypeOf[string]()})
	assert.True(t, ok)
	_, ok = m.FindFn("any", nil)
	assert.False(t, ok)
}

func TestAccessAndNamespaceStrings(t *testing.T) {
	assert.Equal(t, "public", FnPublic.String())
	assert.Equal(t, "private", FnPrivate.String())
	assert.Equal(t, "internal", NamespaceInternal.String())
	assert.Equal(t, "global", NamespaceGlobal.String())
}

func TestCallContextWithCall(t *testing.T) {
	root := NewModule()
	ctx := NewCallContext("f", NoPosition, []*Module{root}, []Import{{Name: "m", Module: root}})
	next := ctx.WithCall("g", NewPosition(2, 2))

	assert.Equal(t, "f", ctx.FnName())
	assert.Equal(t, "g", next.FnName())
	assert.Equal(t, NewPosition(2, 2), next.Position())
	assert.Len(t, next.IterNamespaces(), 1)
	assert.Len(t, next.IterImports(), 1)
}
