package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/bindgen/internal/ir"
)

// TraceSnapshot is the golden form of a run: its trace and final variables.
type TraceSnapshot struct {
	ScenarioName string              `json:"scenario_name"`
	Trace        []TraceEvent        `json:"trace"`
	Vars         map[string]VarState `json:"vars,omitempty"`
}

// NewSnapshot captures the trace and variables of result.
func NewSnapshot(name string, result *Result) TraceSnapshot {
	return TraceSnapshot{ScenarioName: name, Trace: result.Trace, Vars: result.Vars}
}

// Canonical renders the snapshot as canonical JSON.
func (s TraceSnapshot) Canonical() ([]byte, error) {
	return ir.MarshalCanonical(s.toCanonicalMap())
}

// toCanonicalMap converts the snapshot to the map form MarshalCanonical
// accepts. Optional fields are omitted rather than written as null.
func (s TraceSnapshot) toCanonicalMap() map[string]any {
	trace := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		m := map[string]any{
			"seq":  event.Seq,
			"call": event.Call,
			"args": event.Args,
		}
		if event.Failed() {
			m["error"] = event.Error
			m["error_kind"] = event.ErrorKind
		} else {
			addValue(m, "result", event.Result, event.Unit, event.Tag)
		}
		trace[i] = m
	}

	out := map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         trace,
	}
	if len(s.Vars) > 0 {
		vars := make(map[string]any, len(s.Vars))
		for name, state := range s.Vars {
			m := map[string]any{}
			addValue(m, "value", state.Value, state.Unit, state.Tag)
			vars[name] = m
		}
		out["vars"] = vars
	}
	return out
}

func addValue(m map[string]any, key string, value ir.IRValue, unit bool, tag int64) {
	if unit {
		m["unit"] = true
	} else if value != nil {
		m[key] = value
	}
	if tag != 0 {
		m["tag"] = tag
	}
}

// RunWithGolden executes a scenario and compares its snapshot with
// testdata/golden/<name>.golden. Run the test with -update to rewrite the
// golden file.
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(scenario, opts...)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result with its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := NewSnapshot(scenarioName, result).Canonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
