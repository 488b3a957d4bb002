package analyzer

import (
	"strings"

	"github.com/arborist-lang/arborist/internal/ast"
	"github.com/arborist-lang/arborist/internal/diagnostics"
	"github.com/arborist-lang/arborist/internal/types"
)

// Transform is the single dispatch point every statement and
// expression node passes through (spec.md §4.1/§4.7): a type switch
// over the fixed node taxonomy rather than a visitor (see
// SPEC_FULL.md §4.9).
func (a *Analyzer) Transform(node ast.Node, state *types.State) types.Type {
	switch n := node.(type) {

	// ---- literals ----
	case *ast.Num:
		if n.IsFloat {
			return types.UNKNOWN
		}
		return types.IntExact(n.IVal)
	case *ast.Str:
		return types.STR
	case *ast.BoolLit:
		if n.Value {
			return types.TRUE
		}
		return types.FALSE
	case *ast.NilLit:
		return types.NIL

	// ---- containers ----
	case *ast.TupleNode:
		elts := make([]types.Type, len(n.Elts))
		for i, e := range n.Elts {
			elts[i] = a.Transform(e, state)
		}
		return types.TupleType{Elts: elts}
	case *ast.ListNode:
		var elt types.Type = types.UNKNOWN
		for _, e := range n.Elts {
			elt = types.Union(elt, a.Transform(e, state))
		}
		return types.ListType{Elt: elt}
	case *ast.SetNode:
		var elt types.Type = types.UNKNOWN
		for _, e := range n.Elts {
			elt = types.Union(elt, a.Transform(e, state))
		}
		return types.SetType{Elt: elt}
	case *ast.DictNode:
		var key, val types.Type = types.UNKNOWN, types.UNKNOWN
		for _, k := range n.Keys {
			key = types.Union(key, a.Transform(k, state))
		}
		for _, v := range n.Values {
			val = types.Union(val, a.Transform(v, state))
		}
		return types.DictType{Key: key, Val: val}
	case *ast.Starred:
		return types.ListType{Elt: a.Transform(n.Value, state)}

	// ---- names / attributes / subscripts ----
	case *ast.Name:
		return a.transformName(n, state)
	case *ast.Attribute:
		t, _ := a.resolveAttribute(n, state)
		return t
	case *ast.Subscript:
		obj := a.Transform(n.Value, state)
		a.Transform(n.Index, state)
		return elementType(obj)

	// ---- operators ----
	case *ast.BinOp:
		left := a.Transform(n.Left, state)
		right := a.Transform(n.Right, state)
		return applyBinOp(n.Op, left, right)
	case *ast.BoolOp:
		return a.transformBoolOp(n, state)
	case *ast.UnaryOp:
		return a.transformUnaryOp(n, state)
	case *ast.Compare:
		a.Transform(n.Left, state)
		a.Transform(n.Right, state)
		return types.NewUndecided(state.Copy(), state.Copy())

	// ---- functions / calls ----
	case *ast.Lambda:
		return a.transformLambda(n, state)
	case *ast.Call:
		return a.evalCall(n, state)

	// ---- comprehensions ----
	case *ast.ListComp:
		elt := a.transformComprehension(n.Target, n.Iter, n.Ifs, n.Elt, state)
		return types.ListType{Elt: elt}
	case *ast.SetComp:
		elt := a.transformComprehension(n.Target, n.Iter, n.Ifs, n.Elt, state)
		return types.SetType{Elt: elt}
	case *ast.DictComp:
		key := a.transformComprehension(n.Target, n.Iter, n.Ifs, n.KeyExpr, state)
		val := a.transformComprehension(n.Target, n.Iter, n.Ifs, n.ValExpr, state)
		return types.DictType{Key: key, Val: val}

	// ---- statements ----
	case *ast.ExprStmt:
		return a.Transform(n.Value, state)
	case *ast.Assign:
		return a.transformAssign(n, state)
	case *ast.AugAssign:
		return a.transformAugAssign(n, state)
	case *ast.If:
		return a.transformIf(n, state)
	case *ast.For:
		return a.transformFor(n, state)
	case *ast.While:
		return a.transformWhile(n, state)
	case *ast.Try:
		return a.transformTry(n, state)
	case *ast.With:
		return a.transformWith(n, state)
	case *ast.Return:
		return a.transformReturn(n, state)
	case *ast.Yield:
		return a.transformYield(n, state)
	case *ast.Break:
		return types.CONT
	case *ast.Continue:
		return types.CONT
	case *ast.Global:
		for _, name := range n.Names {
			state.GlobalNames[name] = true
		}
		return types.CONT
	case *ast.ImportNode:
		return a.transformImport(n, state)
	case *ast.FunctionDef:
		return a.transformFunctionDef(n, state)
	case *ast.ClassDef:
		return a.transformClassDef(n, state)
	case *ast.Keyword:
		return a.Transform(n.Value, state)

	default:
		return types.UNKNOWN
	}
}

// TransformBody runs each statement of body against state in order,
// stopping early at the first unconditional terminator (spec.md §4.7:
// Return/Break/Continue never fall through to the next statement).
// The returned type is CONT when every statement ran to completion,
// or the terminator's own flow type otherwise.
func (a *Analyzer) TransformBody(body []ast.Node, state *types.State) types.Type {
	for _, stmt := range body {
		flow := a.Transform(stmt, state)
		if isTerminator(stmt) {
			return flow
		}
	}
	return types.CONT
}

func isTerminator(n ast.Node) bool {
	switch n.(type) {
	case *ast.Return, *ast.Break, *ast.Continue:
		return true
	}
	return false
}

// transformName resolves a bare identifier. A Ruby-style `@ivar`
// resolves against the nearest enclosing method's self rather than
// lexically, since rbflavor lexes it as a single IDENT (spec.md
// §4.13's Ruby-specific note; see DESIGN.md).
func (a *Analyzer) transformName(n *ast.Name, state *types.State) types.Type {
	if strings.HasPrefix(n.Id, "@") {
		self := nearestSelf(state)
		if self == nil {
			return types.UNKNOWN
		}
		st := classStateOf(self)
		if st == nil {
			return types.UNKNOWN
		}
		attr := n.Id[1:]
		bs := st.LookupAttr(attr)
		if len(bs) == 0 {
			return types.UNKNOWN
		}
		var t types.Type = types.UNKNOWN
		for _, b := range bs {
			t = types.Union(t, b.Type)
			a.recordRef(b, n, n.File())
		}
		a.recordType(n, t)
		return t
	}

	bs := state.Lookup(n.Id)
	if len(bs) == 0 {
		if n.Id == "self" || n.Id == "this" {
			if self := nearestSelf(state); self != nil {
				return self
			}
		}
		a.putProblem(n, diagnostics.New(diagnostics.UndefinedName, n.File(), n.Pos(), "undefined name "+n.Id))
		return types.UNKNOWN
	}
	var t types.Type = types.UNKNOWN
	for _, b := range bs {
		t = types.Union(t, b.Type)
		a.recordRef(b, n, n.File())
	}
	a.recordType(n, t)
	return t
}

func (a *Analyzer) transformUnaryOp(n *ast.UnaryOp, state *types.State) types.Type {
	v := a.Transform(n.Operand, state)
	switch n.Op {
	case "not", "!":
		if bt, ok := v.(*types.BoolType); ok {
			if bt.Undecided {
				return types.NewUndecided(bt.S2, bt.S1)
			}
			if bt.Concrete != nil {
				if *bt.Concrete {
					return types.FALSE
				}
				return types.TRUE
			}
		}
		return types.BOOL
	case "-":
		if it, ok := v.(types.IntType); ok {
			return types.ToNumericType(types.IntNegate(it))
		}
		return types.UNKNOWN
	default:
		return types.UNKNOWN
	}
}

// transformBoolOp evaluates an `and`/`or` chain. Per-operand narrowing
// is not modeled precisely: both branch states are
// plain copies of the state reached after the last evaluated operand,
// which is sound (never drops a binding) even though it doesn't
// narrow as tightly as a real short-circuit evaluator would.
func (a *Analyzer) transformBoolOp(n *ast.BoolOp, state *types.State) types.Type {
	var last types.Type = types.UNKNOWN
	for _, v := range n.Values {
		last = a.Transform(v, state)
	}
	if bt, ok := last.(*types.BoolType); ok && bt.Undecided {
		return bt
	}
	return types.NewUndecided(state.Copy(), state.Copy())
}

func (a *Analyzer) transformLambda(n *ast.Lambda, state *types.State) types.Type {
	ret := &ast.Return{Value: n.Body}
	ret.Init(n.Body.Start(), n.Body.End(), n.Body.Pos())
	fd := &ast.FunctionDef{
		Name:     "<lambda>",
		Args:     n.Args,
		Defaults: n.Defaults,
		Vararg:   n.Vararg,
		Kwarg:    n.Kwarg,
		Body:     []ast.Node{ret},
	}
	fd.Init(n.Start(), n.End(), n.Pos())
	fn := &types.FunctionType{
		Def:    fd,
		Env:    state,
		Name:   "<lambda>",
		Cache:  make(map[string]types.Type),
		Scopes: make(map[string]*types.State),
	}
	for _, d := range n.Defaults {
		fn.Defaults = append(fn.Defaults, a.Transform(d, state))
	}
	return fn
}

func (a *Analyzer) transformComprehension(target, iter ast.Node, ifs []ast.Node, elt ast.Node, state *types.State) types.Type {
	iterType := a.Transform(iter, state)
	child := types.NewState(state, types.ScopeBlock, "")
	bindTarget(a, child, target, elementType(iterType))
	for _, cond := range ifs {
		a.Transform(cond, child)
	}
	return a.Transform(elt, child)
}

// elementType returns the type produced by iterating or subscripting
// t, matching the analogous (unexported) helper in internal/binder —
// duplicated rather than imported since binder intentionally exposes
// no public container-element API (it only needs it internally for
// unpack targets).
func elementType(t types.Type) types.Type {
	switch v := t.(type) {
	case types.ListType:
		return v.Elt
	case types.SetType:
		return v.Elt
	case types.DictType:
		return v.Key
	case types.StrType:
		return types.STR
	case types.TupleType:
		return types.UnionAll(v.Elts)
	case types.UnionType:
		var out types.Type = types.UNKNOWN
		for _, m := range v.Members {
			out = types.Union(out, elementType(m))
		}
		return out
	default:
		return types.UNKNOWN
	}
}

// applyBinOp implements spec.md §4.1's arithmetic/concatenation table.
// An operand combination it doesn't recognize degrades to Unknown
// rather than a diagnostic: this analyzer infers types, it does not
// type-check, so an operator applied to an unexpected shape is not by
// itself an error (spec.md §1 Purpose & Scope).
func applyBinOp(op string, left, right types.Type) types.Type {
	li, lok := left.(types.IntType)
	ri, rok := right.(types.IntType)
	if lok && rok {
		switch op {
		case "+":
			return types.ToNumericType(types.IntAdd(li, ri))
		case "-":
			return types.ToNumericType(types.IntSub(li, ri))
		case "*":
			return types.ToNumericType(types.IntMul(li, ri))
		case "/":
			return types.ToNumericType(types.IntDiv(li, ri))
		case "%":
			return types.IntUnbounded
		}
	}
	if op == "+" {
		_, lstr := left.(types.StrType)
		_, rstr := right.(types.StrType)
		if lstr && rstr {
			return types.STR
		}
		if ll, ok := left.(types.ListType); ok {
			if rl, ok := right.(types.ListType); ok {
				return types.ListType{Elt: types.Union(ll.Elt, rl.Elt)}
			}
		}
	}
	if op == "*" {
		if _, ok := left.(types.StrType); ok {
			return types.STR
		}
	}
	return types.UNKNOWN
}
