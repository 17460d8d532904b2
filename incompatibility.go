package pvsolver

// ProvenanceKind tags how an Incompatibility came to exist.
type ProvenanceKind uint8

const (
	ProvNotRoot ProvenanceKind = iota
	ProvNoVersions
	ProvFromDependency
	ProvDerivedFrom
	ProvCustom
)

// Provenance records why an incompatibility exists. Only the fields
// relevant to Kind are meaningful; this is a tagged union expressed as a
// flat struct, since Go has no sum types and these unions are small enough
// that a vtable-free struct beats an interface hierarchy in the hot path.
type Provenance[V any] struct {
	Kind ProvenanceKind

	// FromDependency: P1 depends on P2. NotRoot, NoVersions, Custom: P1 is
	// the package in question.
	P1, P2 PackageID

	// DerivedFrom: the two incompatibilities resolution combined.
	Left, Right IncompatibilityID

	// Custom: caller-supplied context for a Custom incompatibility.
	Meta any
}

type incTerm[V any] struct {
	pkg  PackageID
	term Term[V]
}

// Incompatibility is a small mapping from package to term, interpreted as
// a disjunction of negations: the conjunction of its terms must never all
// hold at once. It carries at most one term per package.
type Incompatibility[V any] struct {
	id         IncompatibilityID
	terms      []incTerm[V]
	Provenance Provenance[V]
}

func newNotRootIncompatibility[V any](cmp Cmp[V], root PackageID, rootVersion V) *Incompatibility[V] {
	return &Incompatibility[V]{
		terms:      []incTerm[V]{{root, NegativeTerm(Singleton(cmp, rootVersion))}},
		Provenance: Provenance[V]{Kind: ProvNotRoot, P1: root},
	}
}

func newNoVersionsIncompatibility[V any](pkg PackageID, s Range[V]) *Incompatibility[V] {
	return &Incompatibility[V]{
		terms:      []incTerm[V]{{pkg, PositiveTerm(s)}},
		Provenance: Provenance[V]{Kind: ProvNoVersions, P1: pkg},
	}
}

// newFromDependencyIncompatibility encodes "any version of p1 in s1
// requires p2 in s2" as {p1: Positive(s1), p2: Negative(s2)}, dropping the
// p2 term entirely when s2 is empty.
func newFromDependencyIncompatibility[V any](p1 PackageID, s1 Range[V], p2 PackageID, s2 Range[V]) *Incompatibility[V] {
	terms := []incTerm[V]{{p1, PositiveTerm(s1)}}
	if !s2.IsEmpty() {
		terms = append(terms, incTerm[V]{p2, NegativeTerm(s2)})
	}
	return &Incompatibility[V]{
		terms:      terms,
		Provenance: Provenance[V]{Kind: ProvFromDependency, P1: p1, P2: p2},
	}
}

func newCustomIncompatibility[V any](pkg PackageID, s Range[V], meta any) *Incompatibility[V] {
	return &Incompatibility[V]{
		terms:      []incTerm[V]{{pkg, NegativeTerm(s)}},
		Provenance: Provenance[V]{Kind: ProvCustom, P1: pkg, Meta: meta},
	}
}

// Len returns the number of terms in the incompatibility.
func (inc *Incompatibility[V]) Len() int {
	return len(inc.terms)
}

// ID returns the incompatibility's stable arena ID.
func (inc *Incompatibility[V]) ID() IncompatibilityID {
	return inc.id
}

// Get returns the term the incompatibility places on pkg, if any.
func (inc *Incompatibility[V]) Get(pkg PackageID) (Term[V], bool) {
	for _, it := range inc.terms {
		if it.pkg == pkg {
			return it.term, true
		}
	}
	return Term[V]{}, false
}

// Packages returns the packages the incompatibility mentions, in their
// original insertion order.
func (inc *Incompatibility[V]) Packages() []PackageID {
	out := make([]PackageID, len(inc.terms))
	for i, it := range inc.terms {
		out[i] = it.pkg
	}
	return out
}

// AsDependency returns the (p1, p2) pair iff the incompatibility's
// provenance is FromDependency.
func (inc *Incompatibility[V]) AsDependency() (p1, p2 PackageID, ok bool) {
	if inc.Provenance.Kind != ProvFromDependency {
		return 0, 0, false
	}
	return inc.Provenance.P1, inc.Provenance.P2, true
}

func termsEqual[V any](a, b Term[V]) bool {
	if a.positive != b.positive {
		return false
	}
	return a.r.Equal(b.r)
}

// MergeDependents collapses {a∈S1 ⇒ b∈T, a∈S2 ⇒ b∈T} into {a∈S1∪S2 ⇒ b∈T}
// when inc and other are both FromDependency incompatibilities over the
// same (p1, p2) pair with an identical dependency term on p2.
func (inc *Incompatibility[V]) MergeDependents(other *Incompatibility[V]) (*Incompatibility[V], bool) {
	if inc.Provenance.Kind != ProvFromDependency || other.Provenance.Kind != ProvFromDependency {
		return nil, false
	}
	if inc.Provenance.P1 != other.Provenance.P1 || inc.Provenance.P2 != other.Provenance.P2 {
		return nil, false
	}

	p2 := inc.Provenance.P2
	t2a, oka := inc.Get(p2)
	t2b, okb := other.Get(p2)
	if oka != okb {
		return nil, false
	}
	if oka && !termsEqual(t2a, t2b) {
		return nil, false
	}

	p1 := inc.Provenance.P1
	t1a, _ := inc.Get(p1)
	t1b, _ := other.Get(p1)

	terms := []incTerm[V]{{p1, PositiveTerm(t1a.Range().Union(t1b.Range()))}}
	if oka {
		terms = append(terms, incTerm[V]{p2, t2a})
	}
	return &Incompatibility[V]{
		terms:      terms,
		Provenance: Provenance[V]{Kind: ProvFromDependency, P1: p1, P2: p2},
	}, true
}

// PriorCause resolves inc against satisfierCause at pivot, producing the
// incompatibility conflict resolution learns at this step: for every other
// package, the intersection of the two terms when both mention it, else
// whichever one does; for pivot, that same intersection-or-unique term, but
// dropped entirely if it comes out equal to Any (the vacuous term carries
// no information).
func (inc *Incompatibility[V]) PriorCause(satisfierCause *Incompatibility[V], pivot PackageID) *Incompatibility[V] {
	var terms []incTerm[V]
	seen := make(map[PackageID]bool, inc.Len()+satisfierCause.Len())

	add := func(pkg PackageID) {
		if seen[pkg] {
			return
		}
		seen[pkg] = true

		t1, ok1 := inc.Get(pkg)
		t2, ok2 := satisfierCause.Get(pkg)
		var term Term[V]
		switch {
		case ok1 && ok2:
			term = t1.Intersection(t2)
		case ok1:
			term = t1
		default:
			term = t2
		}

		if pkg == pivot && termsEqual(term, AnyTerm[V](term.r.cmp)) {
			return
		}
		terms = append(terms, incTerm[V]{pkg, term})
	}

	for _, it := range inc.terms {
		add(it.pkg)
	}
	for _, it := range satisfierCause.terms {
		add(it.pkg)
	}

	return &Incompatibility[V]{
		terms:      terms,
		Provenance: Provenance[V]{Kind: ProvDerivedFrom, Left: inc.id, Right: satisfierCause.id},
	}
}

// IsTerminal reports whether the incompatibility proves unsatisfiability:
// it has zero terms, or exactly one term, on the root package, that
// contains the root version.
func (inc *Incompatibility[V]) IsTerminal(root PackageID, rootVersion V) bool {
	if len(inc.terms) == 0 {
		return true
	}
	if len(inc.terms) == 1 {
		it := inc.terms[0]
		return it.pkg == root && it.term.Contains(rootVersion)
	}
	return false
}

// RelationKind is the aggregate outcome of comparing an incompatibility's
// terms against a partial solution.
type RelationKind uint8

const (
	RelInconclusive RelationKind = iota
	RelSatisfied
	RelAlmostSatisfied
	RelContradicted
)

// IncompatibilityRelation is the result of Relation: Pkg is meaningful for
// AlmostSatisfied (the one term propagation can now resolve) and for
// Contradicted (the term that already rules the incompatibility out).
type IncompatibilityRelation struct {
	Kind RelationKind
	Pkg  PackageID
}

// Relation evaluates the incompatibility against the partial solution
// exposed by lookup, which returns the accumulated term for a package, or
// !ok if the package has never been touched.
//
// "Satisfied" means the incompatibility is currently violated by the
// partial solution — every term holds, so the conjunction the
// incompatibility forbids is in fact true, which is a conflict.
// "AlmostSatisfied" means every term but one holds, so propagation can
// infer the negation of that lone unsettled term.
func (inc *Incompatibility[V]) Relation(lookup func(PackageID) (Term[V], bool)) IncompatibilityRelation {
	inconclusiveCount := 0
	var inconclusivePkg PackageID

	for _, it := range inc.terms {
		assigned, ok := lookup(it.pkg)
		var rel TermRelation
		if !ok {
			rel = Inconclusive
		} else {
			rel = it.term.Relation(assigned)
		}

		switch rel {
		case Contradicted:
			return IncompatibilityRelation{Kind: RelContradicted, Pkg: it.pkg}
		case Inconclusive:
			inconclusiveCount++
			inconclusivePkg = it.pkg
		}
	}

	switch inconclusiveCount {
	case 0:
		return IncompatibilityRelation{Kind: RelSatisfied}
	case 1:
		return IncompatibilityRelation{Kind: RelAlmostSatisfied, Pkg: inconclusivePkg}
	default:
		return IncompatibilityRelation{Kind: RelInconclusive}
	}
}
