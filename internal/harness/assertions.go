package harness

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/roach88/bindgen/internal/ir"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string       // assertion type
	Expected string       // human-readable expected outcome
	Actual   string       // human-readable actual outcome
	Trace    []TraceEvent // full trace for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s %s\n", event.Seq, event.Call, formatIR(event.Args))
	}
	return buf.String()
}

// checkExpect compares one trace event with the step's expectation.
func checkExpect(expect *Expect, event TraceEvent) []string {
	if expect == nil {
		if event.Failed() {
			return []string{fmt.Sprintf("unexpected error: %s", event.Error)}
		}
		return nil
	}

	var errs []string
	if expect.wantsFailure() {
		if !event.Failed() {
			return []string{fmt.Sprintf("expected an error, got %s", describeResult(event))}
		}
		if expect.Error != "" && !strings.Contains(event.Error, expect.Error) {
			errs = append(errs, fmt.Sprintf("error %q does not contain %q", event.Error, expect.Error))
		}
		if expect.Kind != "" && expect.Kind != event.ErrorKind {
			errs = append(errs, fmt.Sprintf("error kind: expected %s, got %s", expect.Kind, event.ErrorKind))
		}
		return errs
	}

	if event.Failed() {
		return []string{fmt.Sprintf("unexpected error: %s", event.Error)}
	}
	if expect.Unit && !event.Unit {
		errs = append(errs, fmt.Sprintf("expected unit, got %s", describeResult(event)))
	}
	if expect.Value != nil {
		want, err := convertToIRValue(expect.Value)
		if err != nil {
			return []string{fmt.Sprintf("expect.value: %v", err)}
		}
		if !valuesEqual(event.Result, want) {
			errs = append(errs, fmt.Sprintf("expected %s, got %s", formatIR(want), describeResult(event)))
		}
	}
	if expect.Tag != nil && *expect.Tag != event.Tag {
		errs = append(errs, fmt.Sprintf("expected tag %d, got %d", *expect.Tag, event.Tag))
	}
	return errs
}

// assertTraceContains checks that the trace has a call with the given name
// and, when args are given, exactly those arguments.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	var want ir.IRArray
	if assertion.Args != nil {
		want = make(ir.IRArray, len(assertion.Args))
		for i, arg := range assertion.Args {
			if _, ok := varRef(arg); ok {
				want[i] = ir.IRString(arg.(string))
				continue
			}
			irv, err := convertToIRValue(arg)
			if err != nil {
				return fmt.Errorf("trace_contains args[%d]: %w", i, err)
			}
			want[i] = irv
		}
	}

	for _, event := range trace {
		if event.Call != assertion.Call {
			continue
		}
		if want == nil || valuesEqual(event.Args, want) {
			return nil
		}
	}

	expected := "call " + assertion.Call
	if want != nil {
		expected += " with args " + formatIR(want)
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: expected,
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the first occurrences of the calls appear in
// the given order. Other calls may appear in between.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	positions := make(map[string]int)
	for i, event := range trace {
		if positions[event.Call] == 0 {
			positions[event.Call] = i + 1
		}
	}

	for _, call := range assertion.Calls {
		if positions[call] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all calls present: %v", assertion.Calls),
				Actual:   fmt.Sprintf("missing call: %s", call),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(assertion.Calls); i++ {
		prev, curr := assertion.Calls[i-1], assertion.Calls[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("calls in order: %v", assertion.Calls),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks that the call appears exactly Count times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Call == assertion.Call {
			count++
		}
	}
	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.Call),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertVarState checks the final value and tag of a variable.
func assertVarState(result *Result, assertion Assertion) error {
	state, ok := result.Vars[assertion.Var]
	if !ok {
		return fmt.Errorf("var_state: unknown variable %q", assertion.Var)
	}
	if assertion.Value != nil {
		want, err := convertToIRValue(assertion.Value)
		if err != nil {
			return fmt.Errorf("var_state value: %w", err)
		}
		if !valuesEqual(state.Value, want) {
			return &AssertionError{
				Type:     AssertVarState,
				Expected: fmt.Sprintf("%s = %s", assertion.Var, formatIR(want)),
				Actual:   fmt.Sprintf("%s = %s", assertion.Var, formatIR(state.Value)),
				Trace:    result.Trace,
			}
		}
	}
	if assertion.Tag != nil && *assertion.Tag != state.Tag {
		return &AssertionError{
			Type:     AssertVarState,
			Expected: fmt.Sprintf("%s has tag %d", assertion.Var, *assertion.Tag),
			Actual:   fmt.Sprintf("%s has tag %d", assertion.Var, state.Tag),
			Trace:    result.Trace,
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the result and
// returns one message per failed assertion.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, assertion := range assertions {
		var err error
		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertVarState:
			err = assertVarState(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func valuesEqual(actual, expected ir.IRValue) bool {
	if actual == nil || expected == nil {
		return actual == nil && expected == nil
	}
	return reflect.DeepEqual(actual, expected)
}

func describeResult(event TraceEvent) string {
	switch {
	case event.Failed():
		return "error: " + event.Error
	case event.Unit:
		return "unit"
	default:
		return formatIR(event.Result)
	}
}

// formatIR renders a value as canonical JSON for messages.
func formatIR(v ir.IRValue) string {
	if v == nil {
		return "<none>"
	}
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
