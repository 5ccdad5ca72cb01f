package store

import "errors"

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("not found")

// RunStatus is the outcome of generating one block.
type RunStatus string

const (
	StatusGenerated RunStatus = "generated"
	StatusSkipped   RunStatus = "skipped" // cache hit, output left untouched
	StatusFailed    RunStatus = "failed"
)

// Run is one generation of one declaration block.
type Run struct {
	ID                string    `json:"id"`
	Seq               int64     `json:"seq"`
	Source            string    `json:"source"`
	Output            string    `json:"output"`
	Module            string    `json:"module"`
	FuncName          string    `json:"func"`
	RuntimeImport     string    `json:"runtime_import"`
	Status            RunStatus `json:"status"`
	OptionsHash       string    `json:"options_hash"`
	SourceHash        string    `json:"source_hash"`
	ModuleHash        string    `json:"module_hash,omitempty"`
	OutputHash        string    `json:"output_hash,omitempty"`
	FnCount           int       `json:"fn_count"`
	ConstCount        int       `json:"const_count"`
	RegistrationCount int       `json:"registration_count"`
	Error             string    `json:"error,omitempty"`
	GeneratorVersion  string    `json:"generator_version"`
	IRVersion         string    `json:"ir_version"`
}

// CacheKey identifies the inputs of a generation.
type CacheKey struct {
	Source      string
	SourceHash  string
	OptionsHash string
}

// RunFilter narrows ListRuns.
type RunFilter struct {
	Source string // exact source path, empty for all
	Limit  int    // most recent N runs, 0 for all
}
