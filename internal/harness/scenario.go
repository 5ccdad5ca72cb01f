package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/bindgen/dynamic"
)

// Scenario is one executable test case.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Modules lists the built-in modules to load as global namespaces, in
	// lookup order.
	Modules []string `yaml:"modules"`

	// Script describes the script-defined functions visible from every call.
	Script ScriptSpec `yaml:"script,omitempty"`

	// Vars declares variables that arguments can borrow with $name.
	Vars map[string]VarSpec `yaml:"vars,omitempty"`

	// Steps are executed in order.
	Steps []Step `yaml:"steps"`

	// Assertions are evaluated after the last step.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// ScriptSpec is the script side of the call site.
type ScriptSpec struct {
	Functions []ScriptFn     `yaml:"functions,omitempty"`
	Imports   []ScriptModule `yaml:"imports,omitempty"`
}

// ScriptFn is a script-defined function.
type ScriptFn struct {
	Name   string   `yaml:"name"`
	Access string   `yaml:"access,omitempty"` // public (default) or private
	Params []string `yaml:"params,omitempty"`
}

// ScriptModule is an imported module and its nested sub-modules.
type ScriptModule struct {
	Name      string         `yaml:"name"`
	Functions []ScriptFn     `yaml:"functions,omitempty"`
	Modules   []ScriptModule `yaml:"modules,omitempty"`
}

// VarSpec is the initial value and tag of a variable.
type VarSpec struct {
	Value any   `yaml:"value"`
	Tag   int64 `yaml:"tag,omitempty"`
}

// Step calls one registered function.
type Step struct {
	// Call is the registered name, e.g. "set_tag" or "get$tag".
	Call string `yaml:"call"`

	// Args are literals or $name variable references.
	Args []any `yaml:"args,omitempty"`

	// Expect validates the outcome. Without it the call must succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect describes the expected outcome of a step. Value and Unit expect
// success; Error and Kind expect a failure.
type Expect struct {
	Value any    `yaml:"value,omitempty"`
	Unit  bool   `yaml:"unit,omitempty"`
	Tag   *int64 `yaml:"tag,omitempty"`

	// Error is a substring of the expected error message.
	Error string `yaml:"error,omitempty"`

	// Kind is the expected error kind, see ErrorKinds.
	Kind string `yaml:"kind,omitempty"`
}

func (e *Expect) wantsFailure() bool {
	return e.Error != "" || e.Kind != ""
}

// Assertion validates the trace or the final variables.
type Assertion struct {
	// Type is one of trace_contains, trace_order, trace_count, var_state.
	Type string `yaml:"type"`

	// Call is the registered name (trace_contains, trace_count).
	Call string `yaml:"call,omitempty"`

	// Args are the exact expected arguments (trace_contains).
	Args []any `yaml:"args,omitempty"`

	// Count is the expected number of calls (trace_count).
	Count int `yaml:"count,omitempty"`

	// Calls is the expected call order (trace_order).
	Calls []string `yaml:"calls,omitempty"`

	// Var, Value and Tag describe the expected final variable (var_state).
	Var   string `yaml:"var,omitempty"`
	Value any    `yaml:"value,omitempty"`
	Tag   *int64 `yaml:"tag,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertVarState      = "var_state"
)

// ErrorKinds maps the kind names used in scenarios to error kinds.
var ErrorKinds = map[string]dynamic.ErrorKind{
	"runtime":            dynamic.ErrRuntime,
	"arithmetic":         dynamic.ErrArithmetic,
	"function_not_found": dynamic.ErrFunctionNotFound,
	"mismatch_data_type": dynamic.ErrMismatchDataType,
}

func kindName(k dynamic.ErrorKind) string {
	for name, kind := range ErrorKinds {
		if kind == k {
			return name
		}
	}
	return "runtime"
}

// LoadScenario reads and parses a scenario YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML. Unknown fields are rejected so that
// typos such as "assertion:" do not silently disable checks.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// FindScenarios returns the .yaml and .yml files under dir whose base name
// matches filter. An empty filter matches everything.
func FindScenarios(dir, filter string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Modules) == 0 {
		return fmt.Errorf("modules list is required and must be non-empty")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if err := validateScriptFns("script.functions", s.Script.Functions); err != nil {
		return err
	}
	for i, imp := range s.Script.Imports {
		if err := validateScriptModule(fmt.Sprintf("script.imports[%d]", i), imp); err != nil {
			return err
		}
	}

	for name, v := range s.Vars {
		if name == "" || strings.HasPrefix(name, "$") {
			return fmt.Errorf("vars: invalid variable name %q", name)
		}
		if v.Tag < int64(dynamic.TagMin) || v.Tag > int64(dynamic.TagMax) {
			return fmt.Errorf("vars.%s: tag %d is out of range", name, v.Tag)
		}
	}

	for i, step := range s.Steps {
		if step.Call == "" {
			return fmt.Errorf("steps[%d]: call is required", i)
		}
		for j, arg := range step.Args {
			if name, ok := varRef(arg); ok {
				if _, declared := s.Vars[name]; !declared {
					return fmt.Errorf("steps[%d].args[%d]: undeclared variable $%s", i, j, name)
				}
			}
		}
		if err := validateExpect(i, step.Expect); err != nil {
			return err
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i], s.Vars); err != nil {
			return err
		}
	}
	return nil
}

func validateScriptFns(field string, fns []ScriptFn) error {
	for i, fn := range fns {
		if fn.Name == "" {
			return fmt.Errorf("%s[%d]: name is required", field, i)
		}
		if _, err := parseAccess(fn.Access); err != nil {
			return fmt.Errorf("%s[%d]: %w", field, i, err)
		}
	}
	return nil
}

func validateScriptModule(field string, m ScriptModule) error {
	if m.Name == "" {
		return fmt.Errorf("%s: name is required", field)
	}
	if err := validateScriptFns(field+".functions", m.Functions); err != nil {
		return err
	}
	for i, sub := range m.Modules {
		if err := validateScriptModule(fmt.Sprintf("%s.modules[%d]", field, i), sub); err != nil {
			return err
		}
	}
	return nil
}

func validateExpect(index int, e *Expect) error {
	if e == nil {
		return nil
	}
	if e.wantsFailure() && (e.Value != nil || e.Unit || e.Tag != nil) {
		return fmt.Errorf("steps[%d].expect: error and value expectations are exclusive", index)
	}
	if e.Value != nil && e.Unit {
		return fmt.Errorf("steps[%d].expect: value and unit are exclusive", index)
	}
	if e.Kind != "" {
		if _, ok := ErrorKinds[e.Kind]; !ok {
			return fmt.Errorf("steps[%d].expect: unknown error kind %q", index, e.Kind)
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion, vars map[string]VarSpec) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertTraceContains:
		if a.Call == "" {
			return fmt.Errorf("assertions[%d]: call is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Calls) == 0 {
			return fmt.Errorf("assertions[%d]: calls list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Call == "" {
			return fmt.Errorf("assertions[%d]: call is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertVarState:
		if a.Var == "" {
			return fmt.Errorf("assertions[%d]: var is required for var_state", index)
		}
		if _, ok := vars[a.Var]; !ok {
			return fmt.Errorf("assertions[%d]: undeclared variable %q", index, a.Var)
		}
		if a.Value == nil && a.Tag == nil {
			return fmt.Errorf("assertions[%d]: value or tag is required for var_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

// varRef reports whether arg is a $name variable reference.
func varRef(arg any) (string, bool) {
	s, ok := arg.(string)
	if !ok || !strings.HasPrefix(s, "$") || strings.HasPrefix(s, "$$") {
		return "", false
	}
	return s[1:], true
}

func parseAccess(s string) (dynamic.FnAccess, error) {
	switch s {
	case "", "public":
		return dynamic.FnPublic, nil
	case "private":
		return dynamic.FnPrivate, nil
	}
	return dynamic.FnPublic, fmt.Errorf("unknown access %q", s)
}
