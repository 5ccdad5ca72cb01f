package langcore

import (
	"strings"

	"github.com/roach88/bindgen/dynamic"
)

// FnMetadata describes one script-defined function visible from a call site.
type FnMetadata struct {
	Namespace   string // empty for functions in the global namespaces
	Name        string
	Access      dynamic.FnAccess
	IsAnonymous bool
	Params      []string
}

// Map converts the record to its script form. The namespace key is only
// present for functions found through an import.
func (f FnMetadata) Map() dynamic.Map {
	params := make(dynamic.Array, len(f.Params))
	for i, p := range f.Params {
		params[i] = dynamic.From(p)
	}
	m := dynamic.Map{
		"name":         dynamic.From(f.Name),
		"access":       dynamic.From(f.Access.String()),
		"is_anonymous": dynamic.From(f.IsAnonymous),
		"params":       dynamic.From(params),
	}
	if f.Namespace != "" {
		m["namespace"] = dynamic.From(f.Namespace)
	}
	return m
}

// CollectFnMetadata lists the script functions of every namespace visible
// from ctx, then those of every import, descending into sub-modules.
// Records come out in discovery order.
func CollectFnMetadata(ctx dynamic.CallContext) []FnMetadata {
	var out []FnMetadata
	for _, ns := range ctx.IterNamespaces() {
		for _, fn := range ns.IterScriptFns() {
			out = append(out, newFnMetadata("", fn))
		}
	}
	for _, imp := range ctx.IterImports() {
		out = scanModule(out, imp.Name, imp.Module)
	}
	return out
}

func scanModule(out []FnMetadata, namespace string, m *dynamic.Module) []FnMetadata {
	for _, fn := range m.IterScriptFns() {
		out = append(out, newFnMetadata(namespace, fn))
	}
	for _, sub := range m.IterSubModules() {
		out = scanModule(out, namespace+dynamic.PathSeparator+sub.Name, sub.Module)
	}
	return out
}

func newFnMetadata(namespace string, fn *dynamic.ScriptFnDef) FnMetadata {
	return FnMetadata{
		Namespace:   namespace,
		Name:        fn.Name,
		Access:      fn.Access,
		IsAnonymous: strings.HasPrefix(fn.Name, dynamic.FnAnonymousPrefix),
		Params:      append([]string{}, fn.Params...),
	}
}

// FnMetadataList returns CollectFnMetadata as an array of maps.
func FnMetadataList(ctx dynamic.CallContext) dynamic.Array {
	records := CollectFnMetadata(ctx)
	list := make(dynamic.Array, len(records))
	for i, r := range records {
		list[i] = dynamic.From(r.Map())
	}
	return list
}
