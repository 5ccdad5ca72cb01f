package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/bindgen/internal/ir"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun creates a generated run with minimal required fields.
func createTestRun(source, sourceHash string) Run {
	return Run{
		Source:        source,
		Output:        source + ".out",
		Module:        "test",
		FuncName:      "GenerateModule",
		RuntimeImport: "github.com/roach88/bindgen/dynamic",
		Status:        StatusGenerated,
		OptionsHash:   "options-hash",
		SourceHash:    sourceHash,
		ModuleHash:    "module-hash",
		OutputHash:    "output-hash",
	}
}

// createTestRegistrations returns one variable and two function registrations.
func createTestRegistrations() []ir.Registration {
	return []ir.Registration{
		{Kind: ir.RegisterVar, Name: "Answer", Value: "42"},
		{Kind: ir.RegisterFn, Name: "+", Access: ir.AccessPublic, Namespace: ir.NamespaceInternal,
			Signature: []ir.TypeDescriptor{"int64", "int64"}},
		{Kind: ir.RegisterFn, Name: "now", Access: ir.AccessPrivate, Namespace: ir.NamespaceGlobal,
			Signature: []ir.TypeDescriptor{}},
	}
}
