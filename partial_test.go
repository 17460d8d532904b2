package pvsolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartialSolutionAddDerivationNarrows(t *testing.T) {
	ps := NewPartialSolution(intCmp)
	ps.AddDerivation(pkgFoo, 1, PositiveTerm(Singleton(intCmp, 5)))

	term, ok := ps.CurrentTerm(pkgFoo)
	require.True(t, ok)
	assert.False(t, term.Contains(5))
	assert.True(t, term.Contains(6))
}

func TestPartialSolutionAddDecisionPanicsOnViolation(t *testing.T) {
	ps := NewPartialSolution(intCmp)
	ps.AddDerivation(pkgFoo, 1, PositiveTerm(Singleton(intCmp, 5)))

	assert.Panics(t, func() {
		ps.AddDecision(pkgFoo, 5)
	})
}

func TestPartialSolutionAddDecisionAdvancesLevel(t *testing.T) {
	ps := NewPartialSolution(intCmp)
	assert.Equal(t, 0, ps.CurrentDecisionLevel())
	ps.AddDecision(pkgFoo, 1)
	assert.Equal(t, 1, ps.CurrentDecisionLevel())
	ps.AddDecision(pkgBar, 2)
	assert.Equal(t, 2, ps.CurrentDecisionLevel())
}

func TestPartialSolutionFastPathDecidesDirectly(t *testing.T) {
	ps := NewPartialSolution(intCmp)
	get := func(id IncompatibilityID) *Incompatibility[int] { panic("should not be called on the fast path") }

	_, hasConflict := ps.AddPackageVersionIncompatibilities(pkgFoo, 5, IDRange{}, get)
	assert.False(t, hasConflict)

	term, ok := ps.CurrentTerm(pkgFoo)
	require.True(t, ok)
	assert.True(t, term.Contains(5))
	assert.False(t, term.Contains(6))
}

func TestPartialSolutionSlowPathDetectsConflict(t *testing.T) {
	ps := NewPartialSolution(intCmp)
	ps.Backtrack(0) // force hasEverBacktracked so the slow path runs

	bad := newNoVersionsIncompatibility(pkgFoo, Singleton(intCmp, 5))
	get := func(id IncompatibilityID) *Incompatibility[int] { return bad }

	conflict, hasConflict := ps.AddPackageVersionIncompatibilities(pkgFoo, 5, IDRange{Start: 7, End: 8}, get)
	assert.True(t, hasConflict)
	assert.Equal(t, IncompatibilityID(7), conflict)

	_, ok := ps.CurrentTerm(pkgFoo)
	assert.False(t, ok, "a rejected decision must not be recorded")
}

func TestPartialSolutionSlowPathAllowsNonConflicting(t *testing.T) {
	ps := NewPartialSolution(intCmp)
	ps.Backtrack(0)

	unrelated := newNoVersionsIncompatibility(pkgFoo, Singleton(intCmp, 99))
	get := func(id IncompatibilityID) *Incompatibility[int] { return unrelated }

	_, hasConflict := ps.AddPackageVersionIncompatibilities(pkgFoo, 5, IDRange{Start: 7, End: 8}, get)
	assert.False(t, hasConflict)

	term, ok := ps.CurrentTerm(pkgFoo)
	require.True(t, ok)
	assert.True(t, term.Contains(5))
}

func TestPartialSolutionExtractSolutionPanicsWhenUndecided(t *testing.T) {
	ps := NewPartialSolution(intCmp)
	ps.AddDerivation(pkgFoo, 1, PositiveTerm(Singleton(intCmp, 5)))

	assert.Panics(t, func() {
		ps.ExtractSolution()
	})
}

func TestPartialSolutionExtractSolution(t *testing.T) {
	ps := NewPartialSolution(intCmp)
	ps.AddDecision(pkgFoo, 1)
	ps.AddDecision(pkgBar, 2)

	sol := ps.ExtractSolution()
	assert.Equal(t, map[PackageID]int{pkgFoo: 1, pkgBar: 2}, sol)
}

func TestPartialSolutionBacktrackDropsAndTrims(t *testing.T) {
	ps := NewPartialSolution(intCmp)

	ps.AddDecision(pkgFoo, 10) // level 1
	ps.AddDerivation(pkgBar, 1, PositiveTerm(Singleton(intCmp, 99)))
	ps.AddDecision(pkgBar, 20) // level 2
	ps.AddDerivation(pkgBaz, 2, PositiveTerm(Singleton(intCmp, 50)))

	ps.Backtrack(1)
	assert.True(t, ps.HasEverBacktracked())

	_, ok := ps.CurrentTerm(pkgBaz)
	assert.False(t, ok, "package first touched past the target level must be dropped")

	fooTerm, ok := ps.CurrentTerm(pkgFoo)
	require.True(t, ok)
	assert.True(t, fooTerm.Contains(10))
	assert.False(t, fooTerm.Contains(11))

	barTerm, ok := ps.CurrentTerm(pkgBar)
	require.True(t, ok)
	assert.True(t, barTerm.Contains(20), "bar's decision must be popped, reverting to its derivation")
	assert.False(t, barTerm.Contains(99))

	pkg, rng, ok := ps.PickHighestPriority(func(p PackageID, r Range[int]) Priority { return Priority{Level: 1} })
	require.True(t, ok)
	assert.Equal(t, pkgBar, pkg)
	assert.True(t, rng.Contains(20))
	assert.False(t, rng.Contains(99))
}

func TestPartialSolutionPickHighestPriorityOrdersByLevel(t *testing.T) {
	ps := NewPartialSolution(intCmp)
	ps.AddDerivation(pkgFoo, 1, PositiveTerm(Singleton(intCmp, 999)))
	ps.AddDerivation(pkgBar, 1, PositiveTerm(Singleton(intCmp, 999)))

	prio := func(pkg PackageID, r Range[int]) Priority {
		if pkg == pkgFoo {
			return Priority{Level: 5}
		}
		return Priority{Level: 10}
	}

	pkg, _, ok := ps.PickHighestPriority(prio)
	require.True(t, ok)
	assert.Equal(t, pkgBar, pkg, "higher priority level must be picked first")
}

func TestPartialSolutionPickHighestPrioritySkipsDecided(t *testing.T) {
	ps := NewPartialSolution(intCmp)
	ps.AddDecision(pkgFoo, 1)

	_, _, ok := ps.PickHighestPriority(func(PackageID, Range[int]) Priority { return Priority{} })
	assert.False(t, ok, "a solution with only decided packages has nothing left to pick")
}
