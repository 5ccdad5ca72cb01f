package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/bindgen/internal/ir"
)

// Validation error codes (E200-E299)
const (
	// General validation errors (E200)
	ErrUnsupportedIRType = "E200" // unsupported IR type for validation

	// Module errors (E201-E209)
	ErrDuplicateRegistration = "E201" // same exposed name and input types registered twice
	ErrAccessorTypeMismatch  = "E202" // getter and setter of one property disagree on types
	ErrOperatorArity         = "E203" // operator must take one or two parameters
	ErrReservedName          = "E204" // exposed name uses the anonymous-function prefix
	ErrDuplicateConst        = "E205" // constant registered twice
)

// ValidationError represents a module validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled module against registration rules.
// Returns all errors found (does not fail-fast).
func Validate(v any) []ValidationError {
	switch m := v.(type) {
	case *ir.Module:
		return validateModule(m)
	case ir.Module:
		return validateModule(&m)
	case *Block:
		return validateModule(m.Module)
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported IR type: %T", v),
			Code:    ErrUnsupportedIRType,
		}}
	}
}

func validateModule(m *ir.Module) []ValidationError {
	var errs []ValidationError

	consts := make(map[string]bool)
	for _, c := range m.Consts {
		if consts[c.Name] {
			errs = append(errs, ValidationError{
				Field:   c.Name,
				Message: "constant registered more than once",
				Code:    ErrDuplicateConst,
			})
		}
		consts[c.Name] = true
	}

	seen := make(map[string]string)
	for i := range m.Fns {
		fn := &m.Fns[i]
		for _, name := range fn.ExposedNames() {
			if strings.HasPrefix(name, ir.AnonymousFnPrefix) {
				errs = append(errs, ValidationError{
					Field:   fn.Name,
					Message: fmt.Sprintf("exposed name %q uses reserved prefix %q", name, ir.AnonymousFnPrefix),
					Code:    ErrReservedName,
					Line:    fn.Line,
				})
			}
			key := signatureKey(name, fn.InputTypes())
			if prev, ok := seen[key]; ok {
				errs = append(errs, ValidationError{
					Field:   fn.Name,
					Message: fmt.Sprintf("%s already registered by %s", key, prev),
					Code:    ErrDuplicateRegistration,
					Line:    fn.Line,
				})
				continue
			}
			seen[key] = fn.Name
		}

		if fn.Role.Kind == ir.RoleOperator && (fn.Arity() < 1 || fn.Arity() > 2) {
			errs = append(errs, ValidationError{
				Field:   fn.Name,
				Message: fmt.Sprintf("operator %q takes %d parameters; want 1 or 2", fn.Role.Target, fn.Arity()),
				Code:    ErrOperatorArity,
				Line:    fn.Line,
			})
		}
	}

	errs = append(errs, validateAccessors(m)...)
	return errs
}

// validateAccessors checks that the getter of a property returns the type
// its setter accepts, and that both agree on the receiver type.
func validateAccessors(m *ir.Module) []ValidationError {
	var errs []ValidationError

	type accessor struct {
		fn       *ir.ExportedFn
		receiver ir.TypeDescriptor
		value    ir.TypeDescriptor
	}
	getters := make(map[string]accessor)
	var setters []accessor

	for i := range m.Fns {
		fn := &m.Fns[i]
		inputs := fn.InputTypes()
		switch fn.Role.Kind {
		case ir.RoleGetter:
			if len(inputs) != 1 {
				continue
			}
			getters[fn.Role.Target] = accessor{fn: fn, receiver: inputs[0], value: fn.Return.Type}
		case ir.RoleSetter:
			if len(inputs) != 2 {
				continue
			}
			setters = append(setters, accessor{fn: fn, receiver: inputs[0], value: inputs[1]})
		}
	}

	for _, set := range setters {
		get, ok := getters[set.fn.Role.Target]
		if !ok {
			continue
		}
		if get.receiver != set.receiver {
			errs = append(errs, ValidationError{
				Field: set.fn.Name,
				Message: fmt.Sprintf("setter of %q takes receiver %s but getter %s takes %s",
					set.fn.Role.Target, set.receiver, get.fn.Name, get.receiver),
				Code: ErrAccessorTypeMismatch,
				Line: set.fn.Line,
			})
		}
		if get.value != set.value {
			errs = append(errs, ValidationError{
				Field: set.fn.Name,
				Message: fmt.Sprintf("setter of %q accepts %s but getter %s returns %s",
					set.fn.Role.Target, set.value, get.fn.Name, get.value),
				Code: ErrAccessorTypeMismatch,
				Line: set.fn.Line,
			})
		}
	}
	return errs
}

func signatureKey(name string, inputs []ir.TypeDescriptor) string {
	parts := make([]string, len(inputs))
	for i, t := range inputs {
		parts[i] = string(t)
	}
	return name + "(" + strings.Join(parts, ", ") + ")"
}
