package analyzer

import (
	"strings"

	"github.com/arborist-lang/arborist/internal/ast"
	"github.com/arborist-lang/arborist/internal/binder"
	"github.com/arborist-lang/arborist/internal/diagnostics"
	"github.com/arborist-lang/arborist/internal/types"
)

// bindTarget routes an assignment target through binder.Bind, except
// for rbflavor's `@ivar` names, which land on self's class table
// rather than the lexical scope (see transformName's read-side
// counterpart in transform.go).
func bindTarget(a *Analyzer, state *types.State, target ast.Node, rhs types.Type) {
	if name, ok := target.(*ast.Name); ok && strings.HasPrefix(name.Id, "@") {
		self := nearestSelf(state)
		if self == nil {
			state.Insert(name.Id, name, rhs, types.BindVariable, name.File(), name.Start(), name.End()-name.Start())
			return
		}
		st := classStateOf(self)
		if st == nil {
			return
		}
		st.Insert(name.Id[1:], name, rhs, types.BindAttribute, name.File(), name.Start(), name.End()-name.Start())
		return
	}
	binder.Bind(state, target, rhs, types.BindVariable, target.File(), a.Transform, a.bag)
}

func (a *Analyzer) transformAssign(n *ast.Assign, state *types.State) types.Type {
	val := a.Transform(n.Value, state)
	for _, tgt := range n.Targets {
		bindTarget(a, state, tgt, val)
	}
	return val
}

func (a *Analyzer) transformAugAssign(n *ast.AugAssign, state *types.State) types.Type {
	cur := a.Transform(n.Target, state)
	rhs := a.Transform(n.Value, state)
	combined := applyBinOp(n.Op, cur, rhs)
	bindTarget(a, state, n.Target, combined)
	return combined
}

func (a *Analyzer) transformIf(n *ast.If, state *types.State) types.Type {
	testType := a.Transform(n.Test, state)

	var thenState, elseState *types.State
	if bt, ok := testType.(*types.BoolType); ok && bt.Undecided && bt.S1 != nil && bt.S2 != nil {
		thenState, elseState = bt.S1, bt.S2
	} else {
		thenState, elseState = state.Copy(), state.Copy()
	}

	thenDead := runBranch(a, n.Body, thenState)
	elseDead := true
	if len(n.Orelse) > 0 {
		elseDead = runBranch(a, n.Orelse, elseState)
	} else {
		elseDead = false
	}

	var merged *types.State
	switch {
	case thenDead && !elseDead:
		merged = elseState
	case elseDead && !thenDead:
		merged = thenState
	default:
		merged = types.Merge(thenState, elseState)
	}
	state.Overwrite(merged)
	return types.CONT
}

// runBranch runs body against branchState and reports whether the
// branch ends in an unconditional terminator.
func runBranch(a *Analyzer, body []ast.Node, branchState *types.State) bool {
	for _, stmt := range body {
		a.Transform(stmt, branchState)
		if isTerminator(stmt) {
			return true
		}
	}
	return false
}

// transformFor models zero-or-more iterations as the union of a
// zero-iteration state and a one-iteration state (spec.md §4.7's
// flow-sensitive merge, approximated to a single pass rather than a
// fixpoint — see DESIGN.md).
func (a *Analyzer) transformFor(n *ast.For, state *types.State) types.Type {
	iterType := a.Transform(n.Iter, state)
	elt := elementType(iterType)

	zero := state.Copy()
	one := state.Copy()
	bindTarget(a, one, n.Target, elt)
	runBranch(a, n.Body, one)

	merged := types.Merge(zero, one)
	if len(n.Orelse) > 0 {
		orelse := merged.Copy()
		runBranch(a, n.Orelse, orelse)
		merged = types.Merge(merged, orelse)
	}
	state.Overwrite(merged)
	return types.CONT
}

func (a *Analyzer) transformWhile(n *ast.While, state *types.State) types.Type {
	a.Transform(n.Test, state)

	zero := state.Copy()
	one := state.Copy()
	runBranch(a, n.Body, one)

	merged := types.Merge(zero, one)
	if len(n.Orelse) > 0 {
		orelse := merged.Copy()
		runBranch(a, n.Orelse, orelse)
		merged = types.Merge(merged, orelse)
	}
	state.Overwrite(merged)
	return types.CONT
}

// transformTry unions the body, every handler, the else clause, and
// the always-run finally clause (spec.md §4.7).
func (a *Analyzer) transformTry(n *ast.Try, state *types.State) types.Type {
	bodyState := state.Copy()
	runBranch(a, n.Body, bodyState)

	merged := bodyState
	if len(n.Orelse) > 0 {
		orelse := bodyState.Copy()
		runBranch(a, n.Orelse, orelse)
		merged = types.Merge(merged, orelse)
	}

	for _, h := range n.Handlers {
		hState := state.Copy()
		if h.ExcType != nil {
			a.Transform(h.ExcType, hState)
		}
		if h.Name != "" {
			hState.Insert(h.Name, h, types.UNKNOWN, types.BindVariable, h.File(), h.Start(), h.End()-h.Start())
		}
		runBranch(a, h.Body, hState)
		merged = types.Merge(merged, hState)
	}

	state.Overwrite(merged)
	if len(n.Finalbody) > 0 {
		runBranch(a, n.Finalbody, state)
	}
	return types.CONT
}

func (a *Analyzer) transformWith(n *ast.With, state *types.State) types.Type {
	ctxType := a.Transform(n.Context, state)
	varType := ctxType
	if inst, ok := ctxType.(*types.InstanceType); ok {
		var entered types.Type = types.UNKNOWN
		for _, b := range lookupClassAttr(inst.Class, "__enter__") {
			if fn, ok := b.Type.(*types.FunctionType); ok {
				entered = types.Union(entered, a.evalFunctionCall(fn, inst, nil, map[string]types.Type{}, nil, nil, nil, nil))
			}
		}
		if entered != types.UNKNOWN {
			varType = entered
		}
	}
	if n.OptionalVars != nil {
		bindTarget(a, state, n.OptionalVars, varType)
	}
	return a.TransformBody(n.Body, state)
}

func (a *Analyzer) transformReturn(n *ast.Return, state *types.State) types.Type {
	var val types.Type = types.NIL
	if n.Value != nil {
		val = a.Transform(n.Value, state)
	}
	if acc := a.currentReturn(); acc != nil {
		acc.ret = types.Union(acc.ret, val)
		if n.Value != nil {
			acc.sawValueReturn = true
		} else {
			acc.sawBareReturn = true
		}
	}
	return types.CONT
}

func (a *Analyzer) transformYield(n *ast.Yield, state *types.State) types.Type {
	var val types.Type = types.NIL
	if n.Value != nil {
		val = a.Transform(n.Value, state)
	}
	if acc := a.currentReturn(); acc != nil {
		acc.yields = types.Union(acc.yields, val)
		acc.sawYield = true
	}
	return types.UNKNOWN
}

// transformImport resolves spec.md §4.13's three shapes: a plain
// module import, a selective `from x import a, b`, and a wildcard
// import that merges the target module's table into the importer's.
func (a *Analyzer) transformImport(n *ast.ImportNode, state *types.State) types.Type {
	mod, ok := a.resolveModule(n.ModulePath, n.File())
	if !ok {
		a.putProblem(n, diagnostics.New(diagnostics.UndefinedName, n.File(), n.Pos(), "cannot resolve module "+n.ModulePath))
		return types.UNKNOWN
	}

	if n.IsWildcard {
		for name, bs := range mod.St.Table {
			for _, b := range bs {
				state.Insert(name, b.DefiningNode, b.Type, b.Kind, n.File(), n.Start(), n.End()-n.Start())
			}
		}
		return types.CONT
	}

	if len(n.Names) > 0 {
		for _, name := range n.Names {
			bs := mod.St.LookupAttr(name)
			var t types.Type = types.UNKNOWN
			for _, b := range bs {
				t = types.Union(t, b.Type)
			}
			state.Insert(name, n, t, types.BindVariable, n.File(), n.Start(), n.End()-n.Start())
		}
		return types.CONT
	}

	alias := n.Alias
	if alias == "" {
		alias = mod.Name
	}
	state.Insert(alias, n, mod, types.BindModule, n.File(), n.Start(), n.End()-n.Start())
	return types.CONT
}

func (a *Analyzer) transformFunctionDef(n *ast.FunctionDef, state *types.State) types.Type {
	fn := &types.FunctionType{
		Def:    n,
		Env:    state,
		Name:   n.Name,
		Cache:  make(map[string]types.Type),
		Scopes: make(map[string]*types.State),
	}
	for _, d := range n.Defaults {
		fn.Defaults = append(fn.Defaults, a.Transform(d, state))
	}
	if doc, ok := ast.GetDocString(n.Body); ok {
		fn.Doc = doc
	}
	kind := types.BindFunction
	if n.IsMethod {
		kind = types.BindMethod
	}

	var bound types.Type = fn
	if n.IsMethod {
		// Every method, decorated or not, is registered as uncalled with
		// its undecorated FunctionType before any decorator runs: a
		// decorator that calls it clears the entry, and otherwise
		// Finish's sweep gives it one pass with an Unknown self.
		a.uncalled[n] = fn
	}
	for _, dec := range n.Decorators {
		decType := a.Transform(dec, state)
		wrapped := a.applyDecorator(decType, bound, n)
		if wrapped == types.UNKNOWN {
			break
		}
		bound = wrapped
	}
	if !n.IsMethod {
		if asFn, ok := bound.(*types.FunctionType); ok {
			a.uncalled[n] = asFn
		}
	}

	state.Insert(n.Name, n, bound, kind, n.File(), n.Start(), n.End()-n.Start())
	return types.CONT
}

// applyDecorator evaluates `decorator(funcType)` the way a Call would,
// falling back to the undecorated type when the decorator itself
// doesn't resolve to something callable (spec.md §4.13).
func (a *Analyzer) applyDecorator(decType, target types.Type, n ast.Node) types.Type {
	switch d := decType.(type) {
	case *types.FunctionType:
		return a.evalFunctionCall(d, nil, []types.Type{target}, map[string]types.Type{}, nil, nil, nil, nil)
	case *types.ClassType:
		inst := &types.InstanceType{Class: d}
		bs := lookupClassAttr(d, "__init__")
		if len(bs) == 0 {
			bs = lookupClassAttr(d, "initialize")
		}
		for _, b := range bs {
			if fn, ok := b.Type.(*types.FunctionType); ok {
				a.evalFunctionCall(fn, inst, []types.Type{target}, map[string]types.Type{}, nil, nil, nil, nil)
			}
		}
		return inst
	default:
		return target
	}
}

func (a *Analyzer) transformClassDef(n *ast.ClassDef, state *types.State) types.Type {
	class := &types.ClassType{Name: n.Name, Def: n}
	class.St = types.NewState(state, types.ScopeClass, n.Name)

	for _, baseExpr := range n.Bases {
		bt := a.Transform(baseExpr, state)
		if cb, ok := bt.(*types.ClassType); ok {
			class.Bases = append(class.Bases, cb)
		}
	}

	state.Insert(n.Name, n, class, types.BindClass, n.File(), n.Start(), n.End()-n.Start())

	for _, stmt := range n.Body {
		if fd, ok := stmt.(*ast.FunctionDef); ok {
			fd.IsMethod = true
		}
		a.Transform(stmt, class.St)
	}

	var bound types.Type = class
	for _, dec := range n.Decorators {
		decType := a.Transform(dec, state)
		wrapped := a.applyDecorator(decType, bound, n)
		if wrapped == types.UNKNOWN {
			break
		}
		bound = wrapped
	}
	if bound != types.Type(class) {
		state.Insert(n.Name, n, bound, types.BindClass, n.File(), n.Start(), n.End()-n.Start())
	}
	return types.CONT
}
