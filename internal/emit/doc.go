// Package emit generates the Go source of a compiled declaration block.
//
// For every exported function it emits a stateless dispatcher type
// implementing the runtime's PluginFunction interface, two accessors
// exposing the dispatcher and its type signature, and a registration
// routine that builds a module from the block's constants and functions.
// The block's own declarations are carried over unchanged apart from
// consumed directives.
//
// ReadRegistrations parses generated source back into registrations.
// Generate uses it to check every file it produces.
package emit
