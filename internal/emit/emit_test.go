package emit

import (
	"bytes"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"go/types"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bindgen/internal/compiler"
	"github.com/roach88/bindgen/internal/ir"
)

func generate(t *testing.T, src string) (*compiler.Block, string) {
	t.Helper()
	block, err := compiler.CompileBlock("block.go", []byte(src), compiler.Options{})
	require.NoError(t, err)
	out, err := Generate(block, Options{})
	require.NoError(t, err)
	return block, string(out)
}

// returnOf returns the single returned expression of a method or function.
func returnOf(t *testing.T, src, recv, name string) string {
	t.Helper()
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "gen.go", src, 0)
	require.NoError(t, err)
	for _, decl := range file.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok || fd.Name.Name != name {
			continue
		}
		if recv != "" {
			if fd.Recv == nil || types.ExprString(fd.Recv.List[0].Type) != recv {
				continue
			}
		}
		ret := fd.Body.List[len(fd.Body.List)-1].(*ast.ReturnStmt)
		parts := make([]string, len(ret.Results))
		for i, r := range ret.Results {
			var buf bytes.Buffer
			require.NoError(t, format.Node(&buf, fset, r))
			parts[i] = buf.String()
		}
		return strings.Join(parts, ", ")
	}
	t.Fatalf("%s.%s not found", recv, name)
	return ""
}

func TestGenerateZeroArgFunction(t *testing.T) {
	_, out := generate(t, `package p

func Answer() int64 { return 42 }
`)

	assert.True(t, strings.HasPrefix(out, Header+"\n"))
	assert.Contains(t, out, "type answerToken struct{}")
	assert.Contains(t, out, "dynamic.AssertArgCount(args, 0)")
	assert.Equal(t, "dynamic.From(Answer()), nil", returnOf(t, out, "answerToken", "Call"))
	assert.Equal(t, "[]dynamic.TypeID{}", returnOf(t, out, "answerToken", "InputTypes"))
	assert.Equal(t, "false", returnOf(t, out, "answerToken", "IsMethodCall"))
	assert.Equal(t, "false", returnOf(t, out, "answerToken", "IsVariadic"))
	assert.Equal(t, "answerToken{}", returnOf(t, out, "answerToken", "Clone"))
	assert.Equal(t, "dynamic.FromPlugin(answerToken{})", returnOf(t, out, "", "AnswerTokenCallable"))
	assert.Equal(t, "answerToken{}.InputTypes()", returnOf(t, out, "", "AnswerTokenInputTypes"))
	assert.Contains(t, out, `import "github.com/roach88/bindgen/dynamic"`)
}

func TestGenerateTwoArgsSameType(t *testing.T) {
	_, out := generate(t, `package p

func Add(a, b int64) int64 { return a + b }
`)

	assert.Contains(t, out, "dynamic.AssertArgCount(args, 2)")
	first := strings.Index(out, "arg0 := dynamic.Cast[int64](args[0].Take())")
	second := strings.Index(out, "arg1 := dynamic.Cast[int64](args[1].Take())")
	require.NotEqual(t, -1, first)
	require.NotEqual(t, -1, second)
	assert.Less(t, first, second, "arguments are extracted in declared order")
	assert.Equal(t, "dynamic.From(Add(arg0, arg1)), nil", returnOf(t, out, "addToken", "Call"))
	assert.Equal(t, "[]dynamic.TypeID{dynamic.TypeOf[int64](), dynamic.TypeOf[int64]()}",
		returnOf(t, out, "addToken", "InputTypes"))
}

func TestGenerateGetterNaming(t *testing.T) {
	_, out := generate(t, `package p

import "github.com/roach88/bindgen/dynamic"

//bindgen:fn name="tag", get="tag", pure
func GetTag(value *dynamic.Value) int64 { return int64(value.Tag()) }
`)

	assert.Contains(t, out, "func GetTag(value *dynamic.Value) int64", "native name preserved")
	assert.NotContains(t, out, "//bindgen:fn")
	assert.Contains(t, out, `m.SetFn("get$tag", dynamic.NamespaceInternal, dynamic.FnPublic, GetTagTokenInputTypes(), GetTagTokenCallable())`)
	assert.Contains(t, out, `m.SetFn("tag", dynamic.NamespaceInternal, dynamic.FnPublic, GetTagTokenInputTypes(), GetTagTokenCallable())`)
	assert.Contains(t, out, "arg0 := dynamic.Borrow[dynamic.Value](args[0])")
	assert.Equal(t, "true", returnOf(t, out, "getTagToken", "IsMethodCall"))
}

func TestGeneratePassModes(t *testing.T) {
	_, out := generate(t, `package p

import "github.com/roach88/bindgen/dynamic"

func Show(ctx dynamic.CallContext, v dynamic.Ref[string], n *int64, s string) string {
	return ctx.FnName()
}
`)

	assert.Contains(t, out, "dynamic.AssertArgCount(args, 3)")
	assert.Contains(t, out, "arg0 := dynamic.RefOf[string](args[0])")
	assert.Contains(t, out, "arg1 := dynamic.Borrow[int64](args[1])")
	assert.Contains(t, out, "arg2 := dynamic.Cast[string](args[2].Take())")
	assert.Equal(t, "dynamic.From(Show(ctx, arg0, arg1, arg2)), nil", returnOf(t, out, "showToken", "Call"))
	assert.Equal(t, "false", returnOf(t, out, "showToken", "IsMethodCall"))
	assert.Equal(t, "[]dynamic.TypeID{dynamic.TypeOf[string](), dynamic.TypeOf[int64](), dynamic.TypeOf[string]()}",
		returnOf(t, out, "showToken", "InputTypes"))
}

func TestGenerateResultShapes(t *testing.T) {
	_, out := generate(t, `package p

import (
	"errors"

	"github.com/roach88/bindgen/dynamic"
)

func Touch() {}

func Check(n int64) error {
	if n < 0 {
		return errors.New("negative")
	}
	return nil
}

func Half(n int64) (int64, error) { return n / 2, nil }

//bindgen:fn return_raw
func Raw(n int64) (dynamic.Value, error) { return dynamic.From(n), nil }
`)

	assert.Contains(t, out, "Touch()\n\treturn dynamic.Unit(), nil")
	assert.Contains(t, out, "if err := Check(arg0); err != nil {\n\t\treturn dynamic.Unit(), dynamic.Propagate(err, pos)\n\t}")
	assert.Equal(t, "dynamic.Unit(), nil", returnOf(t, out, "checkToken", "Call"))
	assert.Contains(t, out, "out, err := Half(arg0)")
	assert.Equal(t, "dynamic.From(out), nil", returnOf(t, out, "halfToken", "Call"))
	assert.Equal(t, "Raw(arg0)", returnOf(t, out, "rawToken", "Call"))
}

func TestGenerateSkipAndPrivate(t *testing.T) {
	_, out := generate(t, `package p

func Visible() {}

func hidden() {}

//bindgen:fn skip
func Skipped() {}

//bindgen:fn private global
func Internal() {}
`)

	assert.Contains(t, out, "func hidden() {}", "skipped declarations are kept")
	assert.Contains(t, out, "func Skipped() {}")
	assert.NotContains(t, out, "hiddenToken")
	assert.NotContains(t, out, "skippedToken")
	assert.Contains(t, out, `m.SetFn("Internal", dynamic.NamespaceGlobal, dynamic.FnPrivate, InternalTokenInputTypes(), InternalTokenCallable())`)
}

func TestGenerateConstants(t *testing.T) {
	_, out := generate(t, `package p

const Answer = 42

const (
	Name   string = "bindgen"
	Double        = Answer * 2
	secret        = 1
)

func Use() int64 { return 0 }
`)

	assert.Equal(t, 1, strings.Count(out, `m.SetVar("Answer", dynamic.From(42))`))
	assert.Equal(t, 1, strings.Count(out, `m.SetVar("Name", dynamic.From[string]("bindgen"))`))
	assert.Equal(t, 1, strings.Count(out, `m.SetVar("Double", dynamic.From(Double))`))
	assert.NotContains(t, out, `"secret"`)

	varIdx := strings.Index(out, "m.SetVar(")
	fnIdx := strings.Index(out, "m.SetFn(")
	assert.Less(t, varIdx, fnIdx, "constants are registered before functions")
}

func TestGenerateAddsAliasedImport(t *testing.T) {
	block, err := compiler.CompileBlock("block.go", []byte("package p\n\nfunc One() int64 { return 1 }\n"),
		compiler.Options{RuntimeAlias: "rt"})
	require.NoError(t, err)

	out, err := Generate(block, Options{FuncName: "Register"})
	require.NoError(t, err)

	assert.Contains(t, string(out), `import rt "github.com/roach88/bindgen/dynamic"`)
	assert.Contains(t, string(out), "func Register() *rt.Module {")
	assert.Contains(t, string(out), "m := rt.NewModule()")
}

func TestGenerateKeepsExistingAlias(t *testing.T) {
	_, out := generate(t, `package p

import rt "github.com/roach88/bindgen/dynamic"

func Tagged(v *rt.Value) int64 { return int64(v.Tag()) }
`)

	assert.Equal(t, 1, strings.Count(out, `"github.com/roach88/bindgen/dynamic"`))
	assert.Contains(t, out, "arg0 := rt.Borrow[rt.Value](args[0])")
}

func TestGenerateStripsTemplateConstraint(t *testing.T) {
	_, out := generate(t, `//go:build ignore

// Package p is a template.
package p

// Neg negates.
//
//bindgen:fn name="-"
func Neg(x int64) int64 { return -x }
`)

	assert.NotContains(t, out, "//go:build")
	assert.Contains(t, out, "// Package p is a template.\npackage p")
	assert.Contains(t, out, "// Neg negates.\nfunc Neg(x int64) int64")
}

func TestGenerateRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"empty", "package p\n"},
		{"consts only", "package p\n\nconst A = 1\nconst B int64 = -2\n"},
		{"mixed", `package p

import "github.com/roach88/bindgen/dynamic"

const Limit = 10

//bindgen:fn name="!"
func Not(x bool) bool { return !x }

//bindgen:fn name="tag", get="tag"
func GetTag(v *dynamic.Value) int64 { return 0 }

//bindgen:fn set="tag", return_raw
func SetTag(v *dynamic.Value, tag int64) (dynamic.Value, error) { return dynamic.Unit(), nil }

//bindgen:fn global private
func list(ctx dynamic.CallContext) dynamic.Array { return nil }

func Pair(a []string, b map[string]int64, c func(int64) bool) {}
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block, out := generate(t, tt.src)

			got, err := ReadRegistrations([]byte(out), DefaultFuncName)
			require.NoError(t, err)
			want := block.Module.Registrations()
			require.Len(t, got, len(want))
			for i := range want {
				assert.Equal(t, want[i].Name, got[i].Name)
				assert.Equal(t, want[i].Access, got[i].Access)
				assert.Equal(t, want[i].Arity(), got[i].Arity())
				assert.Equal(t, want[i].Signature, got[i].Signature)
				assert.True(t, want[i].Equal(got[i]), "registration %d", i)
			}
		})
	}
}

func TestGenerateRoundTripFixture(t *testing.T) {
	block, err := compiler.CompileFile("../compiler/testdata/blocks/arith.go", compiler.Options{})
	require.NoError(t, err)

	out, err := Generate(block, Options{})
	require.NoError(t, err)

	got, err := ReadRegistrations(out, DefaultFuncName)
	require.NoError(t, err)
	assert.Equal(t, []ir.Registration{
		{Kind: ir.RegisterVar, Name: "Zero", Value: "0"},
		{Kind: ir.RegisterVar, Name: "Name", Value: `string("arith")`},
		{Kind: ir.RegisterFn, Name: "+", Access: ir.AccessPublic, Namespace: ir.NamespaceInternal, Signature: []ir.TypeDescriptor{"int64", "int64"}},
		{Kind: ir.RegisterFn, Name: "Div", Access: ir.AccessPublic, Namespace: ir.NamespaceInternal, Signature: []ir.TypeDescriptor{"int64", "int64"}},
		{Kind: ir.RegisterFn, Name: "get$len", Access: ir.AccessPublic, Namespace: ir.NamespaceInternal, Signature: []ir.TypeDescriptor{"string"}},
		{Kind: ir.RegisterFn, Name: "len", Access: ir.AccessPublic, Namespace: ir.NamespaceInternal, Signature: []ir.TypeDescriptor{"string"}},
		{Kind: ir.RegisterFn, Name: "Describe", Access: ir.AccessPublic, Namespace: ir.NamespaceGlobal, Signature: []ir.TypeDescriptor{"dynamic.Value"}},
	}, got)
}

func TestGenerateNameCollisions(t *testing.T) {
	tests := []struct {
		name string
		src  string
		opts Options
		msg  string
	}{
		{
			name: "case-insensitive twins",
			src:  "package p\n\nfunc Add() {}\n\n//bindgen:fn\nfunc add() {}\n",
			msg:  "addToken: generated identifier already used by Add",
		},
		{
			name: "existing declaration",
			src:  "package p\n\nfunc Add() {}\n\ntype addToken int\n",
			msg:  "addToken: generated identifier collides with an existing declaration",
		},
		{
			name: "routine exists",
			src:  "package p\n\nfunc GenerateModule() {}\n",
			msg:  "GenerateModule: registration routine collides",
		},
		{
			name: "shadowed local",
			src:  "package p\n\n//bindgen:fn\nfunc args() {}\n",
			msg:  "args: function name is shadowed by a dispatcher local",
		},
		{
			name: "shadowed arg slot",
			src:  "package p\n\n//bindgen:fn\nfunc arg0() {}\n",
			msg:  "arg0: function name is shadowed",
		},
		{
			name: "parameter type shadowed by local",
			src:  "package p\n\ntype pos int64\n\nfunc Move(p pos) pos { return p }\n",
			msg:  "pos: type used by Move is shadowed by a dispatcher local",
		},
		{
			name: "nested type shadowed by arg slot",
			src:  "package p\n\ntype arg1 struct{}\n\nfunc Keys(m map[string][]arg1) {}\n",
			msg:  "arg1: type used by Keys is shadowed",
		},
		{
			name: "result type shadowed by local",
			src:  "package p\n\ntype out int64\n\nfunc Make() out { return 0 }\n",
			msg:  "out: type used by Make is shadowed",
		},
		{
			name: "constant type shadowed by module",
			src:  "package p\n\ntype m int64\n\nconst Size m = 3\n",
			msg:  "m: type of constant Size is shadowed in the registration routine",
		},
		{
			name: "constant shadowed by module",
			src:  "package p\n\nconst M = 1\n\nconst m = M\n",
			opts: Options{},
			msg:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block, err := compiler.CompileBlock("block.go", []byte(tt.src), compiler.Options{})
			require.NoError(t, err)

			_, err = Generate(block, tt.opts)
			if tt.msg == "" {
				require.NoError(t, err, "unexported constants are never registered")
				return
			}
			require.Error(t, err)
			var ce *compiler.CompileError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, "emit", ce.Field)
			assert.Contains(t, ce.Message, tt.msg)
		})
	}
}

func TestGenerateRejectsBadRoutineName(t *testing.T) {
	block, err := compiler.CompileBlock("block.go", []byte("package p\n"), compiler.Options{})
	require.NoError(t, err)

	_, err = Generate(block, Options{FuncName: "not valid"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not an identifier")
}

func TestTypeIdents(t *testing.T) {
	assert.Empty(t, typeIdents(""))
	assert.Empty(t, typeIdents("int64"))
	assert.Empty(t, typeIdents("dynamic.Value"))
	assert.Equal(t, []string{"pos"}, typeIdents("map[string]pos"))
	assert.Equal(t, []string{"out"}, typeIdents("func(ctx out) error"))
	assert.Equal(t, []string{"Point"}, typeIdents("struct{ args Point }"))
}

func TestIsLocalName(t *testing.T) {
	assert.True(t, isLocalName("ctx"))
	assert.True(t, isLocalName("arg12"))
	assert.False(t, isLocalName("arg"))
	assert.False(t, isLocalName("argv"))
	assert.False(t, isLocalName("Args"))
}

func TestReadRegistrationsErrors(t *testing.T) {
	_, err := ReadRegistrations([]byte("package p\n"), "GenerateModule")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "registration routine GenerateModule not found")

	_, err = ReadRegistrations([]byte("package p\n\nfunc GenerateModule() { m.SetFn(\"f\", dynamic.Nowhere, dynamic.FnPublic, X(), Y()) }\n"), "GenerateModule")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown namespace dynamic.Nowhere")

	_, err = ReadRegistrations([]byte("package p\n\nfunc GenerateModule() { m.SetFn(\"f\", dynamic.NamespaceGlobal, dynamic.FnPublic, X(), Y()) }\n"), "GenerateModule")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accessor X not found")

	_, err = ReadRegistrations([]byte("package p\n\nfunc broken( {"), "GenerateModule")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse generated source")
}
