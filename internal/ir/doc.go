// Package ir holds the generation-time description of a declaration block:
// exported functions, their parameter-passing modes and return shapes, and
// exported constants.
//
// A Module is built once per block by the compiler and consumed once by the
// emitter. It has no runtime existence; the descriptor table and hashes in
// this package exist for caching, inspection and round-trip checks.
//
// ir imports nothing internal.
package ir
