package pvsolver

// TermRelation is the three-valued outcome of comparing one term against
// another.
type TermRelation uint8

const (
	Inconclusive TermRelation = iota
	Satisfied
	Contradicted
)

// Term is a signed constraint on the unknown version of a single package:
// either "version is in R" (positive) or "version is not in R" (negative).
type Term[V any] struct {
	positive bool
	r        Range[V]
}

// PositiveTerm returns the term "the version lies in r".
func PositiveTerm[V any](r Range[V]) Term[V] {
	return Term[V]{positive: true, r: r}
}

// NegativeTerm returns the term "the version lies outside r".
func NegativeTerm[V any](r Range[V]) Term[V] {
	return Term[V]{positive: false, r: r}
}

// ExactTerm returns the term matched only by v.
func ExactTerm[V any](cmp Cmp[V], v V) Term[V] {
	return PositiveTerm(Singleton(cmp, v))
}

// EmptyTerm is satisfied by no version: Positive(empty range).
func EmptyTerm[V any](cmp Cmp[V]) Term[V] {
	return PositiveTerm(Empty(cmp))
}

// AnyTerm is Negative(full range). A negative term admits the complement of
// its range, so AnyTerm admits no version: Contains is false for every v.
// It is not an identity element for Intersection (intersecting with it
// admits nothing); callers that need to seed an accumulator with "no
// constraint yet" must special-case the absence of a prior term instead of
// intersecting against AnyTerm.
func AnyTerm[V any](cmp Cmp[V]) Term[V] {
	return NegativeTerm(Full(cmp))
}

// IsPositive reports whether the term asserts membership rather than
// exclusion.
func (t Term[V]) IsPositive() bool {
	return t.positive
}

// Range returns the term's underlying range (its R, regardless of polarity).
func (t Term[V]) Range() Range[V] {
	return t.r
}

// Negate flips polarity while preserving R.
func (t Term[V]) Negate() Term[V] {
	return Term[V]{positive: !t.positive, r: t.r}
}

// Contains reports whether the term admits v.
func (t Term[V]) Contains(v V) bool {
	if t.positive {
		return t.r.Contains(v)
	}
	return !t.r.Contains(v)
}

// Intersection computes the term whose admitted set is the intersection of
// the two terms' admitted sets.
func (t Term[V]) Intersection(other Term[V]) Term[V] {
	switch {
	case t.positive && other.positive:
		return PositiveTerm(t.r.Intersection(other.r))
	case !t.positive && !other.positive:
		return NegativeTerm(t.r.Union(other.r))
	case t.positive && !other.positive:
		return PositiveTerm(t.r.Intersection(other.r.Complement()))
	default: // !t.positive && other.positive
		return PositiveTerm(other.r.Intersection(t.r.Complement()))
	}
}

// Union computes the term whose admitted set is the union of the two terms'
// admitted sets, via De Morgan duality with Intersection.
func (t Term[V]) Union(other Term[V]) Term[V] {
	switch {
	case t.positive && other.positive:
		return PositiveTerm(t.r.Union(other.r))
	case !t.positive && !other.positive:
		return NegativeTerm(t.r.Intersection(other.r))
	case t.positive && !other.positive:
		return NegativeTerm(other.r.Intersection(t.r.Complement()))
	default: // !t.positive && other.positive
		return NegativeTerm(t.r.Intersection(other.r.Complement()))
	}
}

// IsDisjoint reports whether no version satisfies both terms.
func (t Term[V]) IsDisjoint(other Term[V]) bool {
	switch {
	case t.positive && other.positive:
		return t.r.IsDisjoint(other.r)
	case !t.positive && !other.positive:
		// Disjoint iff their negated ranges cover the whole domain.
		return t.r.Union(other.r).Equal(Full(t.r.cmp))
	case t.positive && !other.positive:
		return t.r.SubsetOf(other.r)
	default:
		return other.r.SubsetOf(t.r)
	}
}

// SubsetOf reports whether every version admitted by t is also admitted by
// other.
func (t Term[V]) SubsetOf(other Term[V]) bool {
	switch {
	case t.positive && other.positive:
		return t.r.SubsetOf(other.r)
	case t.positive && !other.positive:
		return t.r.IsDisjoint(other.r)
	case !t.positive && other.positive:
		return t.r.Union(other.r).Equal(Full(t.r.cmp))
	default: // !t.positive && !other.positive
		return other.r.SubsetOf(t.r)
	}
}

// AllowedRange returns the range of versions the term actually admits:
// itself for a positive term, its complement for a negative one. Useful
// wherever a caller needs a concrete Range rather than a signed constraint,
// e.g. handing a candidate set to a provider.
func (t Term[V]) AllowedRange() Range[V] {
	if t.positive {
		return t.r
	}
	return t.r.Complement()
}

// Relation compares t against other: Satisfied if other is a subset of t
// (t is implied once other holds), Contradicted if they share no version,
// otherwise Inconclusive.
func (t Term[V]) Relation(other Term[V]) TermRelation {
	if other.SubsetOf(t) {
		return Satisfied
	}
	if t.IsDisjoint(other) {
		return Contradicted
	}
	return Inconclusive
}
