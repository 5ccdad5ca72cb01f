package dynamic

// Import is a module imported into the calling scope under a name.
type Import struct {
	Name   string
	Module *Module
}

// CallContext is passed out-of-band to native functions that ask for it. It
// exposes the namespaces visible at the call site.
type CallContext struct {
	fnName     string
	pos        Position
	namespaces []*Module
	imports    []Import
}

// NewCallContext creates a call context for a call to fnName at pos.
func NewCallContext(fnName string, pos Position, namespaces []*Module, imports []Import) CallContext {
	return CallContext{
		fnName:     fnName,
		pos:        pos,
		namespaces: namespaces,
		imports:    imports,
	}
}

// FnName returns the name the function was called by.
func (c CallContext) FnName() string { return c.fnName }

// Position returns the call site.
func (c CallContext) Position() Position { return c.pos }

// IterNamespaces returns the global namespaces in lookup order.
func (c CallContext) IterNamespaces() []*Module { return c.namespaces }

// IterImports returns the imported modules in import order.
func (c CallContext) IterImports() []Import { return c.imports }

// WithCall returns a copy of c describing a call to fnName at pos.
func (c CallContext) WithCall(fnName string, pos Position) CallContext {
	c.fnName = fnName
	c.pos = pos
	return c
}
