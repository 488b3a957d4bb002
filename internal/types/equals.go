package types

// Equals implements the per-variant equality spec.md §3/§4.1 requires:
// structural for value-like variants (Int, Str, List, Tuple, Dict,
// Set, Union), identity for reference-like variants (Function, Class,
// Module, Instance-by-creation-site).
func Equals(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case unknownType:
		_, ok := b.(unknownType)
		return ok
	case contType:
		_, ok := b.(contType)
		return ok
	case nilType:
		_, ok := b.(nilType)
		return ok
	case *BoolType:
		bv, ok := b.(*BoolType)
		if !ok {
			return false
		}
		if av == bv {
			return true
		}
		if av.Undecided || bv.Undecided {
			return false
		}
		if av.Concrete != nil && bv.Concrete != nil {
			return *av.Concrete == *bv.Concrete
		}
		return av.Concrete == nil && bv.Concrete == nil
	case IntType:
		bv, ok := b.(IntType)
		return ok && av == bv
	case StrType:
		_, ok := b.(StrType)
		return ok
	case ListType:
		bv, ok := b.(ListType)
		return ok && Equals(av.Elt, bv.Elt)
	case TupleType:
		bv, ok := b.(TupleType)
		if !ok || len(av.Elts) != len(bv.Elts) {
			return false
		}
		for i := range av.Elts {
			if !Equals(av.Elts[i], bv.Elts[i]) {
				return false
			}
		}
		return true
	case DictType:
		bv, ok := b.(DictType)
		return ok && Equals(av.Key, bv.Key) && Equals(av.Val, bv.Val)
	case SetType:
		bv, ok := b.(SetType)
		return ok && Equals(av.Elt, bv.Elt)
	case UnionType:
		bv, ok := b.(UnionType)
		if !ok || len(av.Members) != len(bv.Members) {
			return false
		}
		for _, m := range av.Members {
			if !containsMember(bv.Members, m) {
				return false
			}
		}
		return true
	case *ClassType:
		bv, ok := b.(*ClassType)
		return ok && av == bv
	case *InstanceType:
		bv, ok := b.(*InstanceType)
		return ok && av.Class == bv.Class && av.Ctor == bv.Ctor
	case *FunctionType:
		bv, ok := b.(*FunctionType)
		return ok && av == bv
	case *ModuleType:
		bv, ok := b.(*ModuleType)
		return ok && av == bv
	case SymbolType:
		bv, ok := b.(SymbolType)
		return ok && av == bv
	default:
		return false
	}
}

func containsMember(members []Type, m Type) bool {
	for _, x := range members {
		if Equals(x, m) {
			return true
		}
	}
	return false
}
