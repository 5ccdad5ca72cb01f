// Package langcore is the built-in language core module: logical not, the
// value tag property and the script function metadata list.
//
// core_functions.go is generated from core_functions.bindgen.go; edit the
// template and run go generate.
package langcore
