// Package compiler turns a Go declaration block into the export IR.
//
// A declaration block is one Go source file. Its top-level functions and
// exported constants are candidates for export. Functions are selected and
// shaped by an optional directive in their doc comment:
//
//	//bindgen:fn name="+" pure
//	func Add(a, b int64) int64 { return a + b }
//
// Recognised keys are name, get and set (which take double-quoted values)
// and the flags pure, return_raw, skip, global, internal, public and
// private. Exported functions without a directive are exported as they
// are; unexported ones are skipped.
//
// CompileBlock runs extraction, directive parsing and signature
// classification and returns a Block holding the ir.Module together with
// the parsed file, directives detached, for the emitter. The first error
// aborts the whole block. Validate reports registration conflicts without
// failing fast.
package compiler
