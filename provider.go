package pvsolver

import "github.com/sirupsen/logrus"

// ProviderDependency is one (package, range) constraint a chosen version
// imposes on another package, as handed back by GetDependencies. Order is
// significant: per spec §5's determinism requirement, the provider must
// return dependencies in a stable order rather than the resolver sorting
// them.
type ProviderDependency[P comparable, V any] struct {
	Package P
	Range   Range[V]
}

// DependencyOutcome is the result of asking a provider for a version's
// dependencies: either the version is available and Dependencies holds its
// (distinct-keyed) constraints, or it is not.
type DependencyOutcome[P comparable, V any] struct {
	Available    bool
	Dependencies []ProviderDependency[P, V]
}

// Provider is the caller-supplied oracle over the package universe: which
// versions exist, what they depend on, and how to prioritize packages
// still undecided. All three methods must be pure functions of their
// arguments within one resolution (§5) — the resolver calls them
// synchronously and never more than once needs to agree with a prior call
// on the same arguments.
type Provider[P comparable, V any] interface {
	// ChooseVersion returns the highest version in r available for p, or
	// !ok if none exists. Returning a version outside r is a provider
	// contract violation and panics.
	ChooseVersion(p P, r Range[V]) (v V, ok bool)

	// GetDependencies returns the dependencies of the version p=v chosen by
	// a prior ChooseVersion call.
	GetDependencies(p P, v V) DependencyOutcome[P, V]

	// Prioritize returns p's priority for selection, given the range the
	// partial solution currently admits for it and the conflict statistics
	// accumulated for it so far.
	Prioritize(p P, r Range[V], stats ConflictStats) Priority
}

// Options configures a Resolver beyond what the Provider supplies.
type Options struct {
	// Logger is the logger the resolver holds. A nil Logger is replaced by a
	// logrus logger that discards its output. The resolution loop itself
	// does not emit any log events.
	Logger *logrus.Logger

	// MaxDecisions aborts resolution with ErrBudgetExceeded once the
	// cumulative number of decisions made exceeds this many. Zero means
	// unbounded.
	MaxDecisions int
}
