package ir

import (
	"slices"
	"strings"
)

// RegistrationKind distinguishes function and variable registrations.
type RegistrationKind string

const (
	RegisterFn  RegistrationKind = "fn"
	RegisterVar RegistrationKind = "var"
)

// Registration is one registration call issued by a generated module
// routine. For variables only Name and Value are set.
type Registration struct {
	Kind      RegistrationKind `json:"kind"`
	Name      string           `json:"name"`
	Access    Access           `json:"access,omitempty"`
	Namespace Namespace        `json:"namespace,omitempty"`
	Signature []TypeDescriptor `json:"signature,omitempty"`
	Value     string           `json:"value,omitempty"`
}

// Arity is the length of the type signature.
func (r Registration) Arity() int { return len(r.Signature) }

// SignatureString renders the signature as "name(T1, T2)".
func (r Registration) SignatureString() string {
	parts := make([]string, len(r.Signature))
	for i, t := range r.Signature {
		parts[i] = string(t)
	}
	return r.Name + "(" + strings.Join(parts, ", ") + ")"
}

// Equal compares two registrations field by field.
func (r Registration) Equal(other Registration) bool {
	return r.Kind == other.Kind &&
		r.Name == other.Name &&
		r.Access == other.Access &&
		r.Namespace == other.Namespace &&
		r.Value == other.Value &&
		slices.Equal(r.Signature, other.Signature)
}

// Registrations lists the registration calls the module routine issues:
// constants first, then every exposed name of every function, in
// declaration order.
func (m *Module) Registrations() []Registration {
	regs := make([]Registration, 0, len(m.Consts)+len(m.Fns))
	for _, c := range m.Consts {
		regs = append(regs, Registration{Kind: RegisterVar, Name: c.Name, Value: c.ValueExpr()})
	}
	for i := range m.Fns {
		fn := &m.Fns[i]
		for _, name := range fn.ExposedNames() {
			regs = append(regs, Registration{
				Kind:      RegisterFn,
				Name:      name,
				Access:    fn.Access,
				Namespace: fn.Namespace,
				Signature: fn.InputTypes(),
			})
		}
	}
	return regs
}

// ValueExpr is the expression the module routine boxes for the constant:
// the literal when there is one, the constant's own name otherwise.
func (c ExportedConst) ValueExpr() string {
	if !c.IsLiteral {
		return c.Name
	}
	if c.Type != "" {
		return string(c.Type) + "(" + c.Value + ")"
	}
	return c.Value
}
