package langcore

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bindgen/internal/compiler"
	"github.com/roach88/bindgen/internal/emit"
)

// The checked-in core_functions.go must register what the template asks for.
func TestGeneratedFileIsCurrent(t *testing.T) {
	block, err := compiler.CompileFile("core_functions.bindgen.go", compiler.Options{ModuleName: PackageID})
	require.NoError(t, err)
	assert.Empty(t, compiler.Validate(block))

	fresh, err := emit.Generate(block, emit.Options{})
	require.NoError(t, err)

	onDisk, err := os.ReadFile("core_functions.go")
	require.NoError(t, err)

	want, err := emit.ReadRegistrations(fresh, emit.DefaultFuncName)
	require.NoError(t, err)
	got, err := emit.ReadRegistrations(onDisk, emit.DefaultFuncName)
	require.NoError(t, err)
	assert.Equal(t, want, got, "core_functions.go is stale; run go generate")
	assert.Equal(t, block.Module.Registrations(), got)
}
