package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/bindgen/internal/ir"
)

// marshalSignature converts a type signature to canonical JSON TEXT.
func marshalSignature(sig []ir.TypeDescriptor) (string, error) {
	data, err := ir.MarshalCanonical(ir.Strings(sig))
	if err != nil {
		return "", fmt.Errorf("marshal signature: %w", err)
	}
	return string(data), nil
}

// unmarshalSignature parses a stored signature. Variable registrations
// have no signature and come back as nil.
func unmarshalSignature(kind ir.RegistrationKind, data string) ([]ir.TypeDescriptor, error) {
	if kind == ir.RegisterVar {
		return nil, nil
	}
	sig := []ir.TypeDescriptor{}
	if data == "" || data == "[]" {
		return sig, nil
	}
	if err := json.Unmarshal([]byte(data), &sig); err != nil {
		return nil, fmt.Errorf("unmarshal signature: %w", err)
	}
	return sig, nil
}
