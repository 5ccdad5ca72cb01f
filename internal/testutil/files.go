package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFiles creates files under dir from a path -> content map, creating
// parent directories as needed.
func WriteFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
}

// ReadFile returns the content of path, failing the test if it is missing.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

// ArithBlock is a small declaration block exercising operators, a fallible
// function and a constant.
const ArithBlock = `package arith

import "errors"

const Zero = 0

//bindgen:fn name="+"
func Add(a, b int64) int64 { return a + b }

func Div(a, b int64) (int64, error) {
	if b == 0 {
		return 0, errors.New("division by zero")
	}
	return a / b, nil
}
`
