package harness

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/roach88/bindgen/dynamic"
	"github.com/roach88/bindgen/internal/ir"
	"github.com/roach88/bindgen/internal/langcore"
)

// ModuleFactory builds a fresh module for one scenario run.
type ModuleFactory func() *dynamic.Module

// builtinModules are the modules a scenario can name.
var builtinModules = map[string]ModuleFactory{
	"langcore": langcore.Package,
}

// BuiltinModules returns the names of the built-in modules, sorted.
func BuiltinModules() []string {
	return slices.Sorted(maps.Keys(builtinModules))
}

// Option configures a run.
type Option func(*Harness)

// WithLogger sets the logger steps are reported to.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Harness) { h.logger = logger }
}

// WithModule makes an extra module available under name, shadowing a
// built-in module of the same name.
func WithModule(name string, factory ModuleFactory) Option {
	return func(h *Harness) { h.modules[name] = factory }
}

// Harness executes one scenario.
type Harness struct {
	modules    map[string]ModuleFactory
	logger     *zap.Logger
	namespaces []*dynamic.Module
	imports    []dynamic.Import
	vars       map[string]*dynamic.Value
}

// Run executes a scenario and returns its result.
//
// Each run builds fresh modules and variables, so scenarios are isolated
// from each other. An error is returned when the scenario cannot be set up;
// failed expectations and assertions are reported through the Result.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	h := &Harness{
		modules: maps.Clone(builtinModules),
		logger:  zap.NewNop(),
		vars:    make(map[string]*dynamic.Value),
	}
	for _, opt := range opts {
		opt(h)
	}

	if err := h.setup(scenario); err != nil {
		return nil, err
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		h.executeStep(i, step, result)
	}

	for name, v := range h.vars {
		state, err := varState(*v)
		if err != nil {
			return nil, fmt.Errorf("vars.%s: %w", name, err)
		}
		result.Vars[name] = state
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	h.logger.Debug("scenario finished",
		zap.String("scenario", scenario.Name),
		zap.Bool("pass", result.Pass),
		zap.Int("steps", len(result.Trace)))
	return result, nil
}

// setup loads the modules, builds the script namespace and imports, and
// initializes the variables.
func (h *Harness) setup(s *Scenario) error {
	script := dynamic.NewModule()
	if err := addScriptFns(script, s.Script.Functions); err != nil {
		return fmt.Errorf("script.functions: %w", err)
	}
	h.namespaces = []*dynamic.Module{script}

	for _, name := range s.Modules {
		factory, ok := h.modules[name]
		if !ok {
			return fmt.Errorf("unknown module %q (available: %s)", name, strings.Join(slices.Sorted(maps.Keys(h.modules)), ", "))
		}
		h.namespaces = append(h.namespaces, factory())
	}

	for _, imp := range s.Script.Imports {
		m, err := buildScriptModule(imp)
		if err != nil {
			return fmt.Errorf("script.imports: %w", err)
		}
		h.imports = append(h.imports, dynamic.Import{Name: imp.Name, Module: m})
	}

	for name, spec := range s.Vars {
		v, err := literalValue(spec.Value)
		if err != nil {
			return fmt.Errorf("vars.%s: %w", name, err)
		}
		v.SetTag(dynamic.Tag(spec.Tag))
		h.vars[name] = &v
	}
	return nil
}

func addScriptFns(m *dynamic.Module, fns []ScriptFn) error {
	for _, fn := range fns {
		access, err := parseAccess(fn.Access)
		if err != nil {
			return fmt.Errorf("%s: %w", fn.Name, err)
		}
		m.SetScriptFn(dynamic.ScriptFnDef{Name: fn.Name, Access: access, Params: fn.Params})
	}
	return nil
}

func buildScriptModule(spec ScriptModule) (*dynamic.Module, error) {
	m := dynamic.NewModule()
	if err := addScriptFns(m, spec.Functions); err != nil {
		return nil, fmt.Errorf("%s: %w", spec.Name, err)
	}
	for _, sub := range spec.Modules {
		child, err := buildScriptModule(sub)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", spec.Name, err)
		}
		m.SetSubModule(sub.Name, child)
	}
	return m, nil
}

// executeStep runs one call, records it in the trace and checks its
// expectation.
func (h *Harness) executeStep(index int, step Step, result *Result) {
	pos := dynamic.NewPosition(index+1, 1)
	label := fmt.Sprintf("steps[%d] %s", index, step.Call)

	args, traceArgs, err := h.buildArgs(step.Args)
	if err != nil {
		result.AddError(fmt.Sprintf("%s: %v", label, err))
		return
	}

	out, callErr := h.call(step.Call, args, pos)

	event := TraceEvent{Call: step.Call, Args: traceArgs}
	if callErr != nil {
		event.Error = callErr.Error()
		event.ErrorKind = "runtime"
		var evalErr *dynamic.EvalError
		if errors.As(callErr, &evalErr) {
			event.ErrorKind = kindName(evalErr.Kind)
		}
	} else {
		state, err := varState(out)
		if err != nil {
			result.AddError(fmt.Sprintf("%s: result: %v", label, err))
			return
		}
		event.Result, event.Unit, event.Tag = state.Value, state.Unit, state.Tag
	}
	result.AddTrace(event)

	h.logger.Debug("step executed",
		zap.Int("step", index),
		zap.String("call", step.Call),
		zap.Bool("failed", event.Failed()))

	for _, msg := range checkExpect(step.Expect, event) {
		result.AddError(fmt.Sprintf("%s: %s", label, msg))
	}
}

// buildArgs resolves step arguments. Variable references point at the
// variable itself so calls can mutate it; literals are fresh values.
func (h *Harness) buildArgs(raw []any) ([]*dynamic.Value, ir.IRArray, error) {
	args := make([]*dynamic.Value, len(raw))
	trace := make(ir.IRArray, len(raw))
	for i, arg := range raw {
		if name, ok := varRef(arg); ok {
			v, declared := h.vars[name]
			if !declared {
				return nil, nil, fmt.Errorf("args[%d]: undeclared variable $%s", i, name)
			}
			args[i] = v
			trace[i] = ir.IRString("$" + name)
			continue
		}
		if s, ok := arg.(string); ok && strings.HasPrefix(s, "$$") {
			arg = s[1:]
		}
		v, err := literalValue(arg)
		if err != nil {
			return nil, nil, fmt.Errorf("args[%d]: %w", i, err)
		}
		irv, err := valueToIR(v)
		if err != nil {
			return nil, nil, fmt.Errorf("args[%d]: %w", i, err)
		}
		args[i] = &v
		trace[i] = irv
	}
	return args, trace, nil
}

// call resolves name against the global namespaces in order and invokes the
// first match. Dispatcher panics are reported as errors.
func (h *Harness) call(name string, args []*dynamic.Value, pos dynamic.Position) (out dynamic.Value, err error) {
	types := make([]dynamic.TypeID, len(args))
	for i, a := range args {
		types[i] = a.Type()
	}

	defer func() {
		if r := recover(); r != nil {
			out, err = dynamic.Unit(), dynamic.NewRuntimeError(fmt.Sprint(r), pos)
		}
	}()

	ctx := dynamic.NewCallContext(name, pos, h.namespaces, h.imports)
	for _, m := range h.namespaces {
		if _, ok := m.FindFn(name, types); ok {
			return m.Call(ctx, name, args, pos)
		}
	}

	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return dynamic.Unit(), &dynamic.EvalError{
		Kind:    dynamic.ErrFunctionNotFound,
		Message: fmt.Sprintf("%s (%s)", name, strings.Join(names, ", ")),
		Pos:     pos,
	}
}

// literalValue boxes a YAML literal. Integers become int64, sequences
// Array and mappings Map.
func literalValue(val any) (dynamic.Value, error) {
	switch v := val.(type) {
	case nil:
		return dynamic.Unit(), fmt.Errorf("null values are not supported")
	case string:
		return dynamic.From(v), nil
	case bool:
		return dynamic.From(v), nil
	case int:
		return dynamic.From(int64(v)), nil
	case int64:
		return dynamic.From(v), nil
	case uint64:
		return dynamic.Unit(), fmt.Errorf("integer %d overflows int64", v)
	case float64:
		return dynamic.Unit(), fmt.Errorf("floats are not supported: %v", v)
	case []any:
		arr := make(dynamic.Array, len(v))
		for i, elem := range v {
			ev, err := literalValue(elem)
			if err != nil {
				return dynamic.Unit(), fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = ev
		}
		return dynamic.From(arr), nil
	case map[string]any:
		m := make(dynamic.Map, len(v))
		for k, elem := range v {
			ev, err := literalValue(elem)
			if err != nil {
				return dynamic.Unit(), fmt.Errorf("key %q: %w", k, err)
			}
			m[k] = ev
		}
		return dynamic.From(m), nil
	default:
		return dynamic.Unit(), fmt.Errorf("unsupported type %T", val)
	}
}

// valueToIR converts a runtime payload to its trace form.
func valueToIR(v dynamic.Value) (ir.IRValue, error) {
	switch p := v.Interface().(type) {
	case nil:
		return nil, fmt.Errorf("unit cannot appear inside a value")
	case string:
		return ir.IRString(p), nil
	case bool:
		return ir.IRBool(p), nil
	case int64:
		return ir.IRInt(p), nil
	case int:
		return ir.IRInt(int64(p)), nil
	case int32:
		return ir.IRInt(int64(p)), nil
	case dynamic.Array:
		arr := make(ir.IRArray, len(p))
		for i, elem := range p {
			irv, err := valueToIR(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = irv
		}
		return arr, nil
	case dynamic.Map:
		obj := make(ir.IRObject, len(p))
		for k, elem := range p {
			irv, err := valueToIR(elem)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			obj[k] = irv
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported payload type %s", v.Type())
	}
}

func varState(v dynamic.Value) (VarState, error) {
	state := VarState{Tag: int64(v.Tag())}
	if v.IsUnit() {
		state.Unit = true
		return state, nil
	}
	irv, err := valueToIR(v)
	if err != nil {
		return VarState{}, err
	}
	state.Value = irv
	return state, nil
}

// convertToIRValue converts a YAML expectation to IR for comparison.
func convertToIRValue(val any) (ir.IRValue, error) {
	v, err := literalValue(val)
	if err != nil {
		return nil, err
	}
	return valueToIR(v)
}
