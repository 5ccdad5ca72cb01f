package langcore

import "github.com/roach88/bindgen/dynamic"

//go:generate go run ../../cmd/bindgen generate core_functions.bindgen.go -o core_functions.go --module language_core

// PackageID identifies the language core package.
const PackageID = "language_core"

// Package returns the language core as a standard module.
func Package() *dynamic.Module {
	m := dynamic.NewModule()
	m.SetID(PackageID)
	m.SetStandard(true)
	return m.Combine(GenerateModule())
}
