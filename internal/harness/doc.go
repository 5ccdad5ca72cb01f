// Package harness runs scenario files against generated modules.
//
// A scenario names the built-in modules to load, describes the script
// functions and imports visible from the call site, declares variables and
// then calls registered functions step by step. Every call is recorded in a
// trace that assertions and golden files compare against.
//
// # Scenario Format
//
//	name: tag_roundtrip
//	description: "set_tag writes through a borrowed variable"
//	modules:
//	  - langcore
//	script:
//	  functions:
//	    - { name: foo, params: [x, y] }
//	  imports:
//	    - name: util
//	      functions:
//	        - { name: helper }
//	      modules:
//	        - name: inner
//	          functions:
//	            - { name: deep, params: [a] }
//	vars:
//	  x: { value: 42, tag: 0 }
//	steps:
//	  - call: set_tag
//	    args: [$x, 7]
//	    expect: { unit: true }
//	  - call: tag
//	    args: [$x]
//	    expect: { value: 7 }
//	  - call: set_tag
//	    args: [$x, 4294967296]
//	    expect: { kind: arithmetic, error: "too large" }
//	assertions:
//	  - type: var_state
//	    var: x
//	    tag: 7
//
// An argument written as $name borrows the scenario variable in place, so
// functions taking their first parameter by reference mutate it. Write $$
// for a literal leading dollar.
//
// # Assertion Types
//
//   - trace_contains: a call appears in the trace, optionally with exact args
//   - trace_order: calls appear in the given order
//   - trace_count: a call appears exactly N times
//   - var_state: a variable holds the given value and/or tag after all steps
//
// Runs are deterministic: every step is executed at position (step, 1) and
// trace sequence numbers start at 1, so traces can be snapshotted with
// RunWithGolden.
package harness
