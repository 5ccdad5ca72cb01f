package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes. The version suffix allows the
// algorithm to change without colliding with old cache entries.
const (
	DomainSource  = "bindgen/source/v1"
	DomainModule  = "bindgen/module/v1"
	DomainOutput  = "bindgen/output/v1"
	DomainOptions = "bindgen/options/v1"
)

// hashWithDomain computes SHA256(domain || 0x00 || data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SourceHash identifies the bytes of a declaration block.
func SourceHash(src []byte) string {
	return hashWithDomain(DomainSource, src)
}

// OutputHash identifies the bytes of a generated file.
func OutputHash(out []byte) string {
	return hashWithDomain(DomainOutput, out)
}

// ModuleHash identifies a Module by its canonical descriptor table.
func ModuleHash(m *Module) (string, error) {
	canonical, err := MarshalCanonical(m.Descriptor())
	if err != nil {
		return "", fmt.Errorf("ModuleHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainModule, canonical), nil
}

// OptionsHash identifies the generation options a block was emitted with.
func OptionsHash(opts IRObject) (string, error) {
	canonical, err := MarshalCanonical(opts)
	if err != nil {
		return "", fmt.Errorf("OptionsHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainOptions, canonical), nil
}
