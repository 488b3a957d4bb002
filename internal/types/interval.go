package types

// IntAdd, IntSub, IntMul, IntDiv, IntNegate implement spec.md §4.1's
// integer interval arithmetic: bounded-ness is the conjunction of
// operand bounded-ness, and division is permitted to produce an
// infeasible interval when the divisor straddles zero — callers treat
// an infeasible result as Unknown (see ToNumericType below).

func IntAdd(a, b IntType) IntType {
	return IntType{
		Lower:        a.Lower + b.Lower,
		Upper:        a.Upper + b.Upper,
		LowerBounded: a.LowerBounded && b.LowerBounded,
		UpperBounded: a.UpperBounded && b.UpperBounded,
	}
}

func IntSub(a, b IntType) IntType {
	return IntType{
		Lower:        a.Lower - b.Upper,
		Upper:        a.Upper - b.Lower,
		LowerBounded: a.LowerBounded && b.UpperBounded,
		UpperBounded: a.UpperBounded && b.LowerBounded,
	}
}

func IntMul(a, b IntType) IntType {
	fullyBounded := a.LowerBounded && a.UpperBounded && b.LowerBounded && b.UpperBounded
	if !fullyBounded {
		return IntType{}
	}
	products := [4]int64{
		a.Lower * b.Lower,
		a.Lower * b.Upper,
		a.Upper * b.Lower,
		a.Upper * b.Upper,
	}
	lo, hi := products[0], products[0]
	for _, p := range products[1:] {
		if p < lo {
			lo = p
		}
		if p > hi {
			hi = p
		}
	}
	return IntType{Lower: lo, Upper: hi, LowerBounded: true, UpperBounded: true}
}

// IntDiv divides a by b using a.lower/b.upper and a.upper/b.lower, per
// spec.md §4.1. An unbounded operand, or a divisor with zero as one of
// its bounds, yields the unbounded Int. A divisor interval straddling
// zero yields a non-feasible interval; ToNumericType maps that to
// Unknown.
func IntDiv(a, b IntType) IntType {
	bounded := a.LowerBounded && a.UpperBounded && b.LowerBounded && b.UpperBounded
	if !bounded || b.Upper == 0 || b.Lower == 0 {
		return IntType{}
	}
	lo := a.Lower / b.Upper
	hi := a.Upper / b.Lower
	if lo > hi {
		lo, hi = hi, lo
	}
	result := IntType{Lower: lo, Upper: hi, LowerBounded: true, UpperBounded: true}
	if b.Lower <= 0 && b.Upper >= 0 {
		// divisor straddles zero: mark infeasible rather than report a
		// bogus interval.
		result.Lower, result.Upper = 1, 0
	}
	return result
}

func IntNegate(a IntType) IntType {
	return IntType{
		Lower:        -a.Upper,
		Upper:        -a.Lower,
		LowerBounded: a.UpperBounded,
		UpperBounded: a.LowerBounded,
	}
}

// ToNumericType maps a (possibly infeasible) IntType result to the
// type the analyzer should actually record: Unknown if infeasible,
// the interval itself otherwise.
func ToNumericType(i IntType) Type {
	if !i.IsFeasible() {
		return UNKNOWN
	}
	return i
}
