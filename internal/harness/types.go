package harness

import (
	"github.com/roach88/bindgen/internal/ir"
)

// TraceEvent records one executed step.
type TraceEvent struct {
	Seq  int64      `json:"seq"`
	Call string     `json:"call"`
	Args ir.IRArray `json:"args"`

	// Result is the returned value. It is nil when the call failed or
	// returned unit; Unit tells the two apart.
	Result ir.IRValue `json:"result,omitempty"`
	Unit   bool       `json:"unit,omitempty"`
	Tag    int64      `json:"tag,omitempty"`

	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
}

// Failed reports whether the call returned an error.
func (e TraceEvent) Failed() bool { return e.Error != "" }

// VarState is the final value of a scenario variable.
type VarState struct {
	Value ir.IRValue `json:"value,omitempty"`
	Unit  bool       `json:"unit,omitempty"`
	Tag   int64      `json:"tag,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace contains one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains expectation and assertion failures.
	Errors []string `json:"errors,omitempty"`

	// Vars holds the variables as they are after the last step.
	Vars map[string]VarState `json:"vars,omitempty"`
}

// NewResult creates a passing result with an empty trace.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		Vars:   make(map[string]VarState),
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends an event, numbering it after the previous one.
func (r *Result) AddTrace(event TraceEvent) {
	event.Seq = int64(len(r.Trace) + 1)
	r.Trace = append(r.Trace, event)
}
