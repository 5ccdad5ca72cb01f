package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bindgen/internal/ir"
	"github.com/roach88/bindgen/internal/testutil"
)

func executeDescribe(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewDescribeCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestDescribeText(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{"arith.go": testutil.ArithBlock})
	source := filepath.Join(dir, "arith.go")

	out, err := executeDescribe(t, "text", source)
	require.NoError(t, err)
	assert.Contains(t, out, "Module arith ("+source+")")
	assert.Contains(t, out, "  var Zero = 0\n")
	assert.Contains(t, out, "  fn  public  internal +(int64, int64)\n")
	assert.Contains(t, out, "  fn  public  internal Div(int64, int64)\n")
	assert.Contains(t, out, "Hash: ")
}

func TestDescribeJSON(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{"arith.go": testutil.ArithBlock})

	out, err := executeDescribe(t, "json", filepath.Join(dir, "arith.go"), "--module", "math")
	require.NoError(t, err)

	var response struct {
		Status string              `json:"status"`
		Data   []ModuleDescription `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "ok", response.Status)
	require.Len(t, response.Data, 1)

	desc := response.Data[0]
	assert.Equal(t, "math", desc.Module)
	assert.Len(t, desc.ModuleHash, 64)

	var table map[string]any
	require.NoError(t, json.Unmarshal(desc.Descriptor, &table))
	assert.Equal(t, "math", table["module"])
	assert.Equal(t, "arith", table["package"])
	assert.Equal(t, ir.IRVersion, table["ir_version"])
	assert.Len(t, table["fns"], 2)
	assert.Len(t, table["consts"], 1)
}

func TestDescribeHashIsStable(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{
		"a.go": testutil.ArithBlock,
		"b.go": "// A leading comment does not change the descriptor.\n" + testutil.ArithBlock,
	})

	out, err := executeDescribe(t, "json", filepath.Join(dir, "a.go"), filepath.Join(dir, "b.go"), "--module", "arith")
	require.NoError(t, err)

	var response struct {
		Data []ModuleDescription `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	require.Len(t, response.Data, 2)
	assert.Equal(t, response.Data[0].ModuleHash, response.Data[1].ModuleHash)
}

func TestDescribeCompileError(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{"bad.go": badDirectiveBlock})

	out, err := executeDescribe(t, "text", filepath.Join(dir, "bad.go"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E102]")
}

func TestFormatRegistration(t *testing.T) {
	buf := &bytes.Buffer{}
	formatRegistration(buf, ir.Registration{Kind: ir.RegisterVar, Name: "Pi", Value: "float64(3.14)"})
	formatRegistration(buf, ir.Registration{
		Kind:      ir.RegisterFn,
		Name:      "get$len",
		Access:    ir.AccessPrivate,
		Namespace: ir.NamespaceGlobal,
		Signature: []ir.TypeDescriptor{"string"},
	})
	assert.Equal(t,
		"  var Pi = float64(3.14)\n"+
			"  fn  private global   get$len(string)\n",
		buf.String())
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "short", truncateID("short"))
	assert.Equal(t, "0123456789ab...", truncateID("0123456789abcdef"))
}
