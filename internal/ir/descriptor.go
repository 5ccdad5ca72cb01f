package ir

// Descriptor returns the module as a runtime-loadable descriptor table. It
// carries everything a host needs to match calls without the generated
// source: names, access, roles and type-signature tokens.
func (m *Module) Descriptor() IRObject {
	fns := make(IRArray, len(m.Fns))
	for i := range m.Fns {
		fns[i] = m.Fns[i].Descriptor()
	}
	consts := make(IRArray, len(m.Consts))
	for i, c := range m.Consts {
		consts[i] = IRObject{
			"name":       IRString(c.Name),
			"type":       IRString(c.Type),
			"value":      IRString(c.Value),
			"is_literal": IRBool(c.IsLiteral),
		}
	}
	return IRObject{
		"ir_version": IRString(IRVersion),
		"module":     IRString(m.Name),
		"package":    IRString(m.Package),
		"fns":        fns,
		"consts":     consts,
	}
}

// Descriptor returns the descriptor entry of one function.
func (f *ExportedFn) Descriptor() IRObject {
	params := make(IRArray, len(f.Params))
	for i, p := range f.Params {
		params[i] = IRObject{
			"name":    IRString(p.Name),
			"type":    IRString(p.Type),
			"mode":    IRString(p.Mode),
			"context": IRBool(p.IsCallContext),
		}
	}
	role := IRObject{"kind": IRString(f.Role.Kind)}
	if f.Role.Target != "" {
		role["target"] = IRString(f.Role.Target)
	}
	return IRObject{
		"name":          IRString(f.Name),
		"exposed_names": Strings(f.ExposedNames()),
		"access":        IRString(f.Access),
		"namespace":     IRString(f.Namespace),
		"role":          role,
		"params":        params,
		"input_types":   Strings(f.InputTypes()),
		"return": IRObject{
			"type":     IRString(f.Return.Type),
			"fallible": IRBool(f.Return.IsFallible),
		},
		"pure":        IRBool(f.Pure),
		"raw_result":  IRBool(f.RawResult),
		"method_call": IRBool(f.IsMethodCall()),
	}
}
