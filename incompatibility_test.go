package pvsolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	pkgRoot PackageID = iota
	pkgFoo
	pkgBar
	pkgBaz
)

func TestIncompatibilityAsDependency(t *testing.T) {
	inc := newFromDependencyIncompatibility(pkgFoo, Singleton(intCmp, 1), pkgBar, Between(intCmp, 1, 5))
	p1, p2, ok := inc.AsDependency()
	require.True(t, ok)
	assert.Equal(t, pkgFoo, p1)
	assert.Equal(t, pkgBar, p2)

	notDep := newNoVersionsIncompatibility(pkgFoo, Between(intCmp, 1, 5))
	_, _, ok = notDep.AsDependency()
	assert.False(t, ok)
}

func TestIncompatibilityFromDependencyOmitsEmptyTerm(t *testing.T) {
	inc := newFromDependencyIncompatibility(pkgFoo, Singleton(intCmp, 1), pkgBar, Empty(intCmp))
	assert.Equal(t, 1, inc.Len())
	_, ok := inc.Get(pkgBar)
	assert.False(t, ok)
}

func TestIncompatibilityMergeDependents(t *testing.T) {
	dep := Between(intCmp, 1, 5)
	a := newFromDependencyIncompatibility(pkgFoo, Singleton(intCmp, 1), pkgBar, dep)
	b := newFromDependencyIncompatibility(pkgFoo, Singleton(intCmp, 2), pkgBar, dep)

	merged, ok := a.MergeDependents(b)
	require.True(t, ok)
	p1Term, _ := merged.Get(pkgFoo)
	assert.True(t, p1Term.Range().Contains(1))
	assert.True(t, p1Term.Range().Contains(2))
	p2Term, _ := merged.Get(pkgBar)
	assert.True(t, p2Term.Range().Equal(dep))
}

func TestIncompatibilityMergeDependentsRejectsDifferentTerm(t *testing.T) {
	a := newFromDependencyIncompatibility(pkgFoo, Singleton(intCmp, 1), pkgBar, Between(intCmp, 1, 5))
	b := newFromDependencyIncompatibility(pkgFoo, Singleton(intCmp, 2), pkgBar, Between(intCmp, 10, 20))
	_, ok := a.MergeDependents(b)
	assert.False(t, ok)
}

func TestIncompatibilityIsTerminal(t *testing.T) {
	// NotRoot's own term is Negative(Singleton(rootVersion)) — it forbids
	// the root *not* being rootVersion, which is not itself the terminal
	// shape; is_terminal fires once conflict resolution derives a single
	// term directly asserting the root satisfies rootVersion.
	notRoot := newNotRootIncompatibility(intCmp, pkgRoot, 1)
	assert.False(t, notRoot.IsTerminal(pkgRoot, 1))

	asserted := &Incompatibility[int]{
		terms: []incTerm[int]{{pkgRoot, PositiveTerm(Singleton(intCmp, 1))}},
	}
	assert.True(t, asserted.IsTerminal(pkgRoot, 1))
	assert.False(t, asserted.IsTerminal(pkgRoot, 2))

	empty := &Incompatibility[int]{}
	assert.True(t, empty.IsTerminal(pkgRoot, 1))

	dep := newFromDependencyIncompatibility(pkgFoo, Singleton(intCmp, 1), pkgBar, Between(intCmp, 1, 5))
	assert.False(t, dep.IsTerminal(pkgRoot, 1))
}

func TestIncompatibilityRelation(t *testing.T) {
	inc := newFromDependencyIncompatibility(pkgFoo, Singleton(intCmp, 1), pkgBar, Between(intCmp, 1, 5))

	// foo pinned to 1 (inside S1), bar known to be outside [1,5): both
	// terms hold, so the incompatibility is Satisfied (a real conflict).
	lookupSatisfied := map[PackageID]Term[int]{
		pkgFoo: ExactTerm(intCmp, 1),
		pkgBar: NegativeTerm(Between(intCmp, 1, 5)),
	}
	rel := inc.Relation(func(p PackageID) (Term[int], bool) {
		t, ok := lookupSatisfied[p]
		return t, ok
	})
	assert.Equal(t, RelSatisfied, rel.Kind)

	lookupContradicted := map[PackageID]Term[int]{
		pkgFoo: ExactTerm(intCmp, 100), // outside S1
	}
	rel = inc.Relation(func(p PackageID) (Term[int], bool) {
		t, ok := lookupContradicted[p]
		return t, ok
	})
	assert.Equal(t, RelContradicted, rel.Kind)
	assert.Equal(t, pkgFoo, rel.Pkg)

	rel = inc.Relation(func(p PackageID) (Term[int], bool) { return Term[int]{}, false })
	assert.Equal(t, RelInconclusive, rel.Kind)

	lookupAlmost := map[PackageID]Term[int]{
		pkgFoo: ExactTerm(intCmp, 1),
	}
	rel = inc.Relation(func(p PackageID) (Term[int], bool) {
		t, ok := lookupAlmost[p]
		return t, ok
	})
	assert.Equal(t, RelAlmostSatisfied, rel.Kind)
	assert.Equal(t, pkgBar, rel.Pkg)
}

func TestIncompatibilityRelationSatisfiedOnProperSubset(t *testing.T) {
	// The incompatibility's own term must be the wider side of the subset
	// check: foo decided to exactly 5 is a proper subset of [1,10), not
	// equal to it, but still satisfies the incompatibility's term on foo.
	inc := newFromDependencyIncompatibility(pkgFoo, Between(intCmp, 1, 10), pkgBar, Between(intCmp, 1, 5))

	lookup := map[PackageID]Term[int]{
		pkgFoo: ExactTerm(intCmp, 5),
		pkgBar: NegativeTerm(Between(intCmp, 1, 5)),
	}
	rel := inc.Relation(func(p PackageID) (Term[int], bool) {
		t, ok := lookup[p]
		return t, ok
	})
	assert.Equal(t, RelSatisfied, rel.Kind)
}

func TestIncompatibilityPriorCauseDropsVacuousPivot(t *testing.T) {
	// Per spec, the pivot's combined term is current.pivot ∩ cause.pivot,
	// kept only if it isn't `any`. Here both sides already are `any`, so
	// the intersection is `any` too — an edge case worth covering on its
	// own, since most real incompatibilities never store an any term.
	current := &Incompatibility[int]{
		id: 10,
		terms: []incTerm[int]{
			{pkgFoo, PositiveTerm(Between(intCmp, 1, 5))},
			{pkgBar, AnyTerm[int](intCmp)},
		},
		Provenance: Provenance[int]{Kind: ProvFromDependency, P1: pkgFoo, P2: pkgBar},
	}
	satisfierCause := &Incompatibility[int]{
		id:         11,
		terms:      []incTerm[int]{{pkgBar, AnyTerm[int](intCmp)}},
		Provenance: Provenance[int]{Kind: ProvCustom, P1: pkgBar},
	}

	learned := current.PriorCause(satisfierCause, pkgBar)
	_, ok := learned.Get(pkgBar)
	assert.False(t, ok, "a pivot term that intersects to any must be dropped")
	fooTerm, ok := learned.Get(pkgFoo)
	require.True(t, ok)
	assert.True(t, fooTerm.Range().Equal(Between(intCmp, 1, 5)))
	assert.Equal(t, ProvDerivedFrom, learned.Provenance.Kind)
	assert.Equal(t, IncompatibilityID(10), learned.Provenance.Left)
	assert.Equal(t, IncompatibilityID(11), learned.Provenance.Right)
}

func TestIncompatibilityPriorCauseKeepsNonVacuousPivot(t *testing.T) {
	// current: {foo: Positive([1,5)), bar: Negative([1,5))}, cause:
	// {bar: Positive([1,5))} — the intersection at bar is Positive(empty),
	// not any, so it must survive (even though it now admits nothing).
	current := newFromDependencyIncompatibility(pkgFoo, Between(intCmp, 1, 5), pkgBar, Between(intCmp, 1, 5))
	current.id = 10
	satisfierCause := newNoVersionsIncompatibility(pkgBar, Between(intCmp, 1, 5))
	satisfierCause.id = 11

	learned := current.PriorCause(satisfierCause, pkgBar)
	barTerm, ok := learned.Get(pkgBar)
	require.True(t, ok, "a non-any pivot intersection must be kept")
	assert.True(t, barTerm.IsPositive())
	assert.True(t, barTerm.Range().IsEmpty())
}
