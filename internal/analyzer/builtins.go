package analyzer

import "github.com/arborist-lang/arborist/internal/types"

// RegisterBuiltins populates a's builtin scope with the small set of
// always-available names spec.md §6 describes as "the root scope every
// module's State chains to": core functions whose return shape is
// fixed independent of argument types, plus a handful of stdlib module
// stand-ins carrying only a name and a documentation URL (spec.md §2's
// Symbol/URL lattice member) for names this analyzer does not model
// more precisely.
func RegisterBuiltins(a *Analyzer) {
	st := a.Builtins

	builtin := func(name string, ret types.Type, url string) {
		fn := &types.FunctionType{
			Name:          name,
			IsBuiltin:     true,
			BuiltinReturn: ret,
			URL:           url,
			Cache:         make(map[string]types.Type),
			Scopes:        make(map[string]*types.State),
		}
		b := st.Insert(name, nil, fn, types.BindFunction, "", 0, 0)
		b.Builtin = true
		b.URL = url
	}

	builtin("len", types.IntUnbounded, "")
	builtin("print", types.NIL, "")
	builtin("str", types.STR, "")
	builtin("int", types.IntUnbounded, "")
	builtin("float", types.UNKNOWN, "")
	builtin("bool", types.BOOL, "")
	builtin("range", types.ListType{Elt: types.IntUnbounded}, "")
	builtin("list", types.ListType{Elt: types.UNKNOWN}, "")
	builtin("dict", types.DictType{Key: types.UNKNOWN, Val: types.UNKNOWN}, "")
	builtin("set", types.SetType{Elt: types.UNKNOWN}, "")
	builtin("tuple", types.TupleType{}, "")
	builtin("sorted", types.ListType{Elt: types.UNKNOWN}, "")
	builtin("enumerate", types.ListType{Elt: types.TupleType{Elts: []types.Type{types.IntUnbounded, types.UNKNOWN}}}, "")
	builtin("isinstance", types.BOOL, "")
	builtin("super", types.UNKNOWN, "")
	builtin("puts", types.NIL, "")
	builtin("p", types.NIL, "")
	builtin("require", types.NIL, "")
	builtin("raise", types.CONT, "")

	module := func(name, url string, attrs map[string]string) {
		mst := types.NewState(nil, types.ScopeModule, name)
		for attr, aurl := range attrs {
			sym := types.SymbolType{Name: name + "." + attr, URL: aurl}
			b := mst.Insert(attr, nil, sym, types.BindAttribute, "", 0, 0)
			b.Builtin = true
			b.URL = aurl
		}
		mt := &types.ModuleType{Name: name, St: mst}
		b := st.Insert(name, nil, mt, types.BindModule, "", 0, 0)
		b.Builtin = true
		b.URL = url
	}

	module("os", "", map[string]string{"path": "", "environ": "", "getcwd": ""})
	module("sys", "", map[string]string{"argv": "", "exit": "", "stdout": ""})
	module("math", "", map[string]string{"pi": "", "sqrt": "", "floor": "", "ceil": ""})
	module("json", "", map[string]string{"dumps": "", "loads": ""})
}
