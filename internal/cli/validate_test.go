package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bindgen/internal/testutil"
)

const duplicateBlock = `package dup

//bindgen:fn name="twice"
func A(x int64) int64 { return x }

//bindgen:fn name="twice"
func B(y int64) int64 { return y }
`

const badDirectiveBlock = `package bad

//bindgen:fn bogus
func A(x int64) int64 { return x }
`

func executeValidate(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestValidateValidBlock(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{"arith.go": testutil.ArithBlock})

	out, err := executeValidate(t, "text", filepath.Join(dir, "arith.go"))
	require.NoError(t, err)
	assert.Contains(t, out, "✓ All 1 block(s) valid")
}

func TestValidateValidBlockJSON(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{"arith.go": testutil.ArithBlock})

	out, err := executeValidate(t, "json", filepath.Join(dir, "arith.go"))
	require.NoError(t, err)

	var response struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "ok", response.Status)
	assert.True(t, response.Data.Valid)
	require.Len(t, response.Data.Blocks, 1)
	assert.True(t, response.Data.Blocks[0].Valid)
}

func TestValidateNonExistentSource(t *testing.T) {
	out, err := executeValidate(t, "text", filepath.Join(t.TempDir(), "missing.go"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
}

func TestValidateNoBlocks(t *testing.T) {
	t.Chdir(t.TempDir())

	out, err := executeValidate(t, "text")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E003]")
	assert.Contains(t, out, "no bindgen.cue found")
}

func TestValidateDirectiveError(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{"bad.go": badDirectiveBlock})
	source := filepath.Join(dir, "bad.go")

	out, err := executeValidate(t, "text", source)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, source+":3")
	assert.Contains(t, out, `E102: directive: unknown key "bogus"`)
}

func TestValidateDuplicateRegistrationJSON(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{"dup.go": duplicateBlock})

	out, err := executeValidate(t, "json", filepath.Join(dir, "dup.go"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var response struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "error", response.Status)
	assert.False(t, response.Data.Valid)
	require.NotNil(t, response.Error)
	assert.Equal(t, "E201", response.Error.Code)
	assert.Contains(t, response.Error.Message, "already registered")
}

func TestValidateMixedBlocks(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{
		"arith.go": testutil.ArithBlock,
		"dup.go":   duplicateBlock,
	})

	out, err := executeValidate(t, "json", filepath.Join(dir, "arith.go"), filepath.Join(dir, "dup.go"))
	require.Error(t, err)

	var response struct {
		Data ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	require.Len(t, response.Data.Blocks, 2)
	assert.True(t, response.Data.Blocks[0].Valid)
	assert.False(t, response.Data.Blocks[1].Valid)
}

func TestValidateFromConfig(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{
		"arith.go": testutil.ArithBlock,
		"bindgen.cue": `blocks: [{source: "arith.go"}]
`,
	})

	out, err := executeValidate(t, "text", "--config", filepath.Join(dir, "bindgen.cue"))
	require.NoError(t, err)
	assert.Contains(t, out, "✓ All 1 block(s) valid")
}

func TestValidateInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{
		"bindgen.cue": `blocks: [{source: 42}]
`,
	})

	out, err := executeValidate(t, "text", "--config", filepath.Join(dir, "bindgen.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E004]")
}

func TestValidateVerboseOutput(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{"arith.go": testutil.ArithBlock})
	source := filepath.Join(dir, "arith.go")

	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "text", Verbose: true})
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs([]string{source})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, errBuf.String(), "Validating "+source)
	assert.NotContains(t, buf.String(), "Validating")
}

func TestMapFieldToErrorCode(t *testing.T) {
	tests := []struct {
		field string
		want  string
	}{
		{"syntax", ErrCodeSyntax},
		{"directive", ErrCodeDirective},
		{"import", ErrCodeImport},
		{"function", ErrCodeFunction},
		{"param", ErrCodeParam},
		{"result", ErrCodeResult},
		{"get", ErrCodeAccessor},
		{"set", ErrCodeAccessor},
		{"const", ErrCodeConst},
		{"unknown", ErrCodeGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			assert.Equal(t, tt.want, MapFieldToErrorCode(tt.field))
		})
	}
}
