package dynamic

// PluginFunction is the uniform calling convention for native functions.
// Implementations are generated, stateless and safe for concurrent use.
type PluginFunction interface {
	// Call invokes the function. args holds exactly len(InputTypes())
	// entries; mutable-reference parameters are borrowed from their slots,
	// by-value parameters are moved out of them.
	Call(ctx CallContext, args []*Value, pos Position) (Value, error)
	// IsMethodCall reports whether the first argument is borrowed in place.
	IsMethodCall() bool
	IsVariadic() bool
	Clone() PluginFunction
	// InputTypes lists the parameter type tokens, call context excluded.
	InputTypes() []TypeID
}

// CallableFunction is what a Module stores for a registered function.
type CallableFunction struct {
	plugin PluginFunction
}

// FromPlugin wraps a plugin function.
func FromPlugin(p PluginFunction) CallableFunction {
	return CallableFunction{plugin: p}
}

// Plugin returns the wrapped plugin function.
func (c CallableFunction) Plugin() PluginFunction { return c.plugin }

// IsPlugin reports whether c wraps a plugin function.
func (c CallableFunction) IsPlugin() bool { return c.plugin != nil }

// IsMethod reports whether c borrows its first argument in place.
func (c CallableFunction) IsMethod() bool {
	return c.plugin != nil && c.plugin.IsMethodCall()
}
