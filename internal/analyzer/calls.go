package analyzer

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/arborist-lang/arborist/internal/ast"
	"github.com/arborist-lang/arborist/internal/diagnostics"
	"github.com/arborist-lang/arborist/internal/types"
)

// returnAcc accumulates a function body's Return/Yield contributions
// while its body is being transformed (spec.md §4.5/§4.7): Return and
// Yield are statements, not expressions with a value the call chain
// passes back up, so their effect has to land somewhere a later step
// of evalFunctionBody can read.
type returnAcc struct {
	ret            types.Type
	yields         types.Type
	sawYield       bool
	sawValueReturn bool
	sawBareReturn  bool
}

func (a *Analyzer) currentReturn() *returnAcc {
	if len(a.returnStack) == 0 {
		return nil
	}
	return a.returnStack[len(a.returnStack)-1]
}

func (a *Analyzer) pushReturnFrame() *returnAcc {
	acc := &returnAcc{ret: types.UNKNOWN, yields: types.UNKNOWN}
	a.returnStack = append(a.returnStack, acc)
	return acc
}

func (a *Analyzer) popReturnFrame() {
	a.returnStack = a.returnStack[:len(a.returnStack)-1]
}

// nearestSelf walks the lexical chain for the nearest bound receiver
// (spec.md §9's self-type-as-explicit-parameter decision, threaded
// here via State.Self rather than a FunctionType field).
func nearestSelf(state *types.State) types.Type {
	for s := state; s != nil; s = s.Parent {
		if s.Self != nil {
			return s.Self
		}
	}
	return nil
}

// classStateOf returns the scope holding a type's own attributes: a
// class's table directly, or an instance's class's table.
func classStateOf(t types.Type) *types.State {
	switch v := t.(type) {
	case *types.ClassType:
		return v.St
	case *types.InstanceType:
		if v.Class != nil {
			return v.Class.St
		}
	case *types.ModuleType:
		return v.St
	case types.UnionType:
		for _, m := range v.Members {
			if st := classStateOf(m); st != nil {
				return st
			}
		}
	}
	return nil
}

// lookupClassAttr resolves name against class's own table, then its
// bases in declaration order (spec.md §4.13's simplified MRO: single
// inheritance chain, depth-first).
func lookupClassAttr(class *types.ClassType, name string) []*types.Binding {
	if class == nil {
		return nil
	}
	if bs := class.St.LookupAttr(name); len(bs) > 0 {
		return bs
	}
	for _, base := range class.Bases {
		if bs := lookupClassAttr(base, name); len(bs) > 0 {
			return bs
		}
	}
	return nil
}

// resolveAttribute evaluates `value.attr`, returning the member's type
// and, when the receiver is a class/instance/module, the bindings it
// resolved against (for reference recording and bound-method
// resolution at call sites).
func (a *Analyzer) resolveAttribute(n *ast.Attribute, state *types.State) (types.Type, []*types.Binding) {
	objType := a.Transform(n.Value, state)
	bs := attrBindings(objType, n.Attr)
	if len(bs) == 0 {
		a.putProblem(n, diagnostics.New(diagnostics.AttributeNotFound, n.File(), n.Pos(), "no attribute "+n.Attr))
		return types.UNKNOWN, nil
	}
	var t types.Type = types.UNKNOWN
	for _, b := range bs {
		t = types.Union(t, b.Type)
		a.recordRef(b, n, n.File())
	}
	a.recordType(n, t)
	return t, bs
}

func attrBindings(objType types.Type, attr string) []*types.Binding {
	switch v := objType.(type) {
	case *types.ClassType:
		return lookupClassAttr(v, attr)
	case *types.InstanceType:
		return lookupClassAttr(v.Class, attr)
	case *types.ModuleType:
		return v.St.LookupAttr(attr)
	case types.UnionType:
		for _, m := range v.Members {
			if bs := attrBindings(m, attr); len(bs) > 0 {
				return bs
			}
		}
	}
	return nil
}

// evalCall is the central algorithm of spec.md §4.5: resolve the
// callee, evaluate every argument (always, so references and
// diagnostics surface even when the callee itself is unresolvable),
// then dispatch to a constructor or a plain function invocation.
func (a *Analyzer) evalCall(call *ast.Call, state *types.State) types.Type {
	calleeType, selfType := a.resolveCallee(call.Func, state)

	args := make([]types.Type, len(call.Args))
	for i, ae := range call.Args {
		args[i] = a.Transform(ae, state)
	}
	keywords := make(map[string]types.Type, len(call.Keywords))
	for _, kw := range call.Keywords {
		keywords[kw.Name] = a.Transform(kw.Value, state)
	}
	var starArgs types.Type
	if call.Starargs != nil {
		starArgs = a.Transform(call.Starargs, state)
	}
	var kwArgs types.Type
	if call.Kwargs != nil {
		kwArgs = a.Transform(call.Kwargs, state)
	}
	var blockType types.Type
	if call.BlockArg != nil {
		blockType = a.Transform(call.BlockArg, state)
	}

	switch callee := calleeType.(type) {
	case *types.ClassType:
		return a.evalConstructor(callee, call, args, keywords)
	case *types.FunctionType:
		return a.evalFunctionCall(callee, selfType, args, keywords, starArgs, kwArgs, blockType, call)
	case nil:
		return types.UNKNOWN
	default:
		a.putProblem(call, diagnostics.New(diagnostics.CallingNonCallable, call.File(), call.Pos(), "calling a non-callable value"))
		return types.UNKNOWN
	}
}

// resolveCallee evaluates the callee expression and, when it is a
// bound-method-style attribute access (`obj.method(...)`), returns the
// receiver as selfType alongside the resolved function.
func (a *Analyzer) resolveCallee(funcExpr ast.Node, state *types.State) (types.Type, types.Type) {
	if attr, ok := funcExpr.(*ast.Attribute); ok {
		objType := a.Transform(attr.Value, state)
		bs := attrBindings(objType, attr.Attr)
		if len(bs) == 0 {
			a.putProblem(attr, diagnostics.New(diagnostics.AttributeNotFound, attr.File(), attr.Pos(), "no attribute "+attr.Attr))
			return nil, nil
		}
		var t types.Type = types.UNKNOWN
		for _, b := range bs {
			t = types.Union(t, b.Type)
			a.recordRef(b, attr, attr.File())
		}
		if _, isClass := objType.(*types.ClassType); isClass {
			// Class.method(...): an unbound call, no implicit receiver.
			return t, nil
		}
		return t, objType
	}
	return a.Transform(funcExpr, state), nil
}

// evalConstructor builds an instance, then evaluates __init__/initialize
// against it for side effects (spec.md §4.5's constructor special
// case): the constructor's return value is discarded, the instance
// itself is the call's result.
func (a *Analyzer) evalConstructor(class *types.ClassType, call *ast.Call, args []types.Type, keywords map[string]types.Type) types.Type {
	inst := &types.InstanceType{Class: class, Ctor: call, CtorArgs: args}
	bs := lookupClassAttr(class, "__init__")
	if len(bs) == 0 {
		bs = lookupClassAttr(class, "initialize")
	}
	for _, b := range bs {
		if fn, ok := b.Type.(*types.FunctionType); ok {
			a.evalFunctionCall(fn, inst, args, keywords, nil, nil, nil, call)
		}
	}
	return inst
}

// evalFunctionCall implements spec.md §4.5/§4.6: bind parameters,
// memoize on the fromType key, guard against recursive re-entry of this
// exact Call node, and run the body under a fresh child scope parented
// on the function's captured lexical environment.
func (a *Analyzer) evalFunctionCall(fn *types.FunctionType, selfType types.Type, args []types.Type, keywords map[string]types.Type, starArgs, kwArgs, blockType types.Type, call *ast.Call) types.Type {
	if fn.IsBuiltin || fn.Def == nil {
		// A builtin has no definition AST to flag Called on, bind
		// parameters against, or push onto the call stack: spec.md
		// §4.5.3a's "no definition AST" path short-circuits here.
		return fn.BuiltinReturn
	}

	fn.Def.Called = true
	delete(a.uncalled, fn.Def)

	keyArgs := args
	if selfType != nil {
		keyArgs = append([]types.Type{selfType}, args...)
	}
	key := types.CacheKey(keyArgs)

	if cached, ok := fn.Cache[key]; ok {
		return cached
	}
	for _, frame := range a.callStack {
		if frame.call == call {
			// Recursive re-entry of this exact Call node: spec.md §4.5b's
			// cycle guard. Unknown breaks the loop; the cache entry the
			// outer call eventually writes supersedes it.
			return types.UNKNOWN
		}
	}
	a.callStack = append(a.callStack, callFrame{call: call})
	defer func() { a.callStack = a.callStack[:len(a.callStack)-1] }()

	child := types.NewState(fn.Env, types.ScopeFunction, fn.Name)
	if selfType != nil {
		child.Self = selfType
	}
	file := fn.Def.File()
	bindParams(child, fn, selfType, args, keywords, starArgs, kwArgs, blockType, file)

	acc := a.pushReturnFrame()
	a.TransformBody(fn.Def.Body, child)
	a.popReturnFrame()

	result := acc.ret
	if acc.sawYield {
		result = types.Union(result, types.ListType{Elt: acc.yields})
	}
	// "function not always returns" (spec.md §7 E-NORETURN): some path
	// explicitly returns a value while another falls off the end (or
	// returns bare), so the inferred type silently picked up an
	// implicit Nil alongside whatever the value-returning path yields.
	bodyEndsOpen := len(fn.Def.Body) == 0 || !isTerminator(fn.Def.Body[len(fn.Def.Body)-1])
	if acc.sawValueReturn && (bodyEndsOpen || acc.sawBareReturn) {
		result = types.Union(result, types.NIL)
		a.putProblem(fn.Def, diagnostics.New(diagnostics.FunctionNotReturns, file, fn.Def.Pos(), fn.Def.Name+" does not return a value on every path"))
	}

	fn.Cache[key] = result
	fn.Scopes[key] = child
	return result
}

// bindParams implements spec.md §4.6's resolution order: positional
// slots (filled by self first when present), then defaults for
// trailing unfilled positionals, then keyword arguments, then the
// `*args` catch-all, then any afterRest named parameters, then the
// `**kwargs` catch-all, then a trailing block parameter.
func bindParams(child *types.State, fn *types.FunctionType, selfType types.Type, args []types.Type, keywords map[string]types.Type, starArgs, kwArgs, blockType types.Type, file string) {
	def := fn.Def
	formal := def.Args
	// Python methods list `self`/`cls` explicitly as Args[0]; Ruby
	// methods never do (the receiver is wholly implicit there). Detect
	// the Python shape by name rather than by frontend, so both
	// flavors share this one binder.
	if selfType != nil && len(formal) > 0 && (formal[0] == "self" || formal[0] == "cls") {
		child.Insert(formal[0], def, selfType, types.BindParameter, file, def.Start(), 0)
		formal = formal[1:]
	}

	nDefaults := len(def.Defaults)
	nRequired := len(formal) - nDefaults

	i := 0
	for ; i < len(formal) && i < len(args); i++ {
		child.Insert(formal[i], def, args[i], types.BindParameter, file, def.Start(), 0)
	}
	for ; i < len(formal); i++ {
		di := i - nRequired
		if di >= 0 && di < len(fn.Defaults) {
			child.Insert(formal[i], def, fn.Defaults[di], types.BindParameter, file, def.Start(), 0)
			continue
		}
		if kwVal, ok := keywords[formal[i]]; ok {
			child.Insert(formal[i], def, kwVal, types.BindParameter, file, def.Start(), 0)
			delete(keywords, formal[i])
			continue
		}
		child.Insert(formal[i], def, types.UNKNOWN, types.BindParameter, file, def.Start(), 0)
	}

	extraPositional := args[min(i, len(args)):]
	if def.Vararg != "" {
		elt := types.UnionAll(extraPositional)
		if starArgs != nil {
			elt = types.Union(elt, elementType(starArgs))
		}
		child.Insert(def.Vararg, def, types.ListType{Elt: elt}, types.BindParameter, file, def.Start(), 0)
	}

	for _, name := range def.AfterRest {
		if kwVal, ok := keywords[name]; ok {
			child.Insert(name, def, kwVal, types.BindParameter, file, def.Start(), 0)
			delete(keywords, name)
			continue
		}
		child.Insert(name, def, types.UNKNOWN, types.BindParameter, file, def.Start(), 0)
	}

	if def.Kwarg != "" {
		var val types.Type = types.UNKNOWN
		if len(keywords) > 0 {
			var vals []types.Type
			for _, v := range keywords {
				vals = append(vals, v)
			}
			val = types.UnionAll(vals)
		}
		if kwArgs != nil {
			val = types.Union(val, elementType(kwArgs))
		}
		child.Insert(def.Kwarg, def, types.DictType{Key: types.STR, Val: val}, types.BindParameter, file, def.Start(), 0)
	}

	if def.BlockArg != "" {
		bt := blockType
		if bt == nil {
			bt = types.UNKNOWN
		}
		child.Insert(def.BlockArg, def, bt, types.BindParameter, file, def.Start(), 0)
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// resolveModule resolves an import path to a ModuleType: a registered
// builtin stand-in first, otherwise a sibling source file relative to
// fromFile, analyzed on demand.
func (a *Analyzer) resolveModule(modulePath, fromFile string) (*types.ModuleType, bool) {
	head := modulePath
	if i := strings.IndexByte(head, '.'); i >= 0 {
		head = head[:i]
	}
	if bs := a.Builtins.LookupAttr(head); len(bs) > 0 {
		if mt, ok := bs[0].Type.(*types.ModuleType); ok {
			return mt, true
		}
	}

	rel := strings.ReplaceAll(modulePath, ".", string(filepath.Separator))
	dir := filepath.Dir(fromFile)
	for _, fe := range a.Registry.All() {
		for _, ext := range fe.Extensions() {
			candidate := filepath.Join(dir, rel+ext)
			if _, err := os.Stat(candidate); err == nil {
				mt, err := a.LoadFile(candidate)
				if err != nil {
					return nil, false
				}
				return mt, true
			}
		}
	}
	return nil, false
}
