package ir

// Access is the script-side visibility of a function.
type Access string

const (
	AccessPublic  Access = "public"
	AccessPrivate Access = "private"
)

// Namespace controls where a function is registered.
type Namespace string

const (
	NamespaceInternal Namespace = "internal"
	NamespaceGlobal   Namespace = "global"
)

// PassMode is how a parameter is extracted from its boxed argument slot.
type PassMode string

const (
	ByValue        PassMode = "value"   // moved out of the slot and cast
	ByImmutableRef PassMode = "ref"     // read through a Ref view
	ByMutableRef   PassMode = "mut_ref" // borrowed in place
)

// RoleKind distinguishes plain functions from property accessors and operators.
type RoleKind string

const (
	RolePlain    RoleKind = "plain"
	RoleGetter   RoleKind = "getter"
	RoleSetter   RoleKind = "setter"
	RoleOperator RoleKind = "operator"
)

// Getter and setter registration prefixes.
const (
	GetterPrefix = "get$"
	SetterPrefix = "set$"
)

// AnonymousFnPrefix marks script closures; native exports may not use it.
const AnonymousFnPrefix = "anon$"

// Role is the function's role. Target is the property for getters and
// setters and the symbol for operators.
type Role struct {
	Kind   RoleKind `json:"kind"`
	Target string   `json:"target,omitempty"`
}

// TypeDescriptor identifies a static type by its canonical Go type
// expression. Two descriptors are equal iff they denote the same expression.
type TypeDescriptor string

// ParamSpec describes one declared parameter.
type ParamSpec struct {
	Name          string         `json:"name"`
	Type          TypeDescriptor `json:"type"`
	Mode          PassMode       `json:"mode"`
	IsCallContext bool           `json:"is_call_context"`
}

// ReturnSpec describes the declared result. An empty Type means the success
// payload is unit.
type ReturnSpec struct {
	Type       TypeDescriptor `json:"type,omitempty"`
	IsFallible bool           `json:"is_fallible"`
}

// HasPayload reports whether a successful call yields a non-unit value.
func (r ReturnSpec) HasPayload() bool { return r.Type != "" }

// ExportedFn describes how one exported function must be called.
type ExportedFn struct {
	Name        string      `json:"name"`
	Access      Access      `json:"access"`
	ExposedName string      `json:"exposed_name"`
	Aliases     []string    `json:"aliases,omitempty"`
	Role        Role        `json:"role"`
	Namespace   Namespace   `json:"namespace"`
	Params      []ParamSpec `json:"params"`
	Return      ReturnSpec  `json:"return"`
	Pure        bool        `json:"pure"`
	RawResult   bool        `json:"raw_result"`
	Skip        bool        `json:"skip"`
	Line        int         `json:"line,omitempty"`
}

// Arity is the number of parameters visible to scripts.
func (f *ExportedFn) Arity() int {
	n := 0
	for _, p := range f.Params {
		if !p.IsCallContext {
			n++
		}
	}
	return n
}

// InputTypes returns the non-context parameter types in declared order.
func (f *ExportedFn) InputTypes() []TypeDescriptor {
	types := make([]TypeDescriptor, 0, len(f.Params))
	for _, p := range f.Params {
		if !p.IsCallContext {
			types = append(types, p.Type)
		}
	}
	return types
}

// ScriptParams returns the non-context parameters in declared order.
func (f *ExportedFn) ScriptParams() []ParamSpec {
	params := make([]ParamSpec, 0, len(f.Params))
	for _, p := range f.Params {
		if !p.IsCallContext {
			params = append(params, p)
		}
	}
	return params
}

// HasCallContext reports whether the first parameter is the call context.
func (f *ExportedFn) HasCallContext() bool {
	return len(f.Params) > 0 && f.Params[0].IsCallContext
}

// IsMethodCall reports whether the first script-visible parameter is a
// mutable reference. Any first mutable argument counts as a receiver.
func (f *ExportedFn) IsMethodCall() bool {
	params := f.ScriptParams()
	return len(params) > 0 && params[0].Mode == ByMutableRef
}

// ExposedNames returns every name the function is registered under,
// primary name first.
func (f *ExportedFn) ExposedNames() []string {
	return append([]string{f.ExposedName}, f.Aliases...)
}

// ExportedConst is an exported constant registered as a module variable.
type ExportedConst struct {
	Name      string         `json:"name"`
	Type      TypeDescriptor `json:"type,omitempty"`
	Value     string         `json:"value,omitempty"` // source of the value expression
	IsLiteral bool           `json:"is_literal"`
}

// Module is the IR of one declaration block, in declaration order.
type Module struct {
	Name    string          `json:"name"`
	Package string          `json:"package"`
	Fns     []ExportedFn    `json:"fns"`
	Consts  []ExportedConst `json:"consts"`
}

// Fn returns the function with the given Go name.
func (m *Module) Fn(name string) (*ExportedFn, bool) {
	for i := range m.Fns {
		if m.Fns[i].Name == name {
			return &m.Fns[i], true
		}
	}
	return nil, false
}
