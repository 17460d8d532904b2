package pvsolver

import "github.com/sirupsen/logrus"

// triedVersions records, per package, which versions the driver has
// already requested dependencies for — the "added_dependencies" set of
// spec §4.7 — using cmp for membership since V need not be comparable in
// the Go sense.
type triedVersions[V any] struct {
	cmp Cmp[V]
	m   map[PackageID][]V
}

func newTriedVersions[V any](cmp Cmp[V]) *triedVersions[V] {
	return &triedVersions[V]{cmp: cmp, m: make(map[PackageID][]V)}
}

func (t *triedVersions[V]) has(pkg PackageID, v V) bool {
	for _, x := range t.m[pkg] {
		if t.cmp(x, v) == 0 {
			return true
		}
	}
	return false
}

func (t *triedVersions[V]) add(pkg PackageID, v V) {
	t.m[pkg] = append(t.m[pkg], v)
}

// Resolver runs the CDCL-style resolution loop of spec §4.7 against a
// caller-supplied Provider. It is generic over the caller's package
// identifier type P and version type V; the resolver's own internals work
// exclusively in terms of interned PackageIDs and Range[V]/Term[V], never
// touching P or V's representation beyond what the Provider and Cmp hand
// it.
type Resolver[P comparable, V any] struct {
	provider Provider[P, V]
	cmp      Cmp[V]
	opts     Options
	log      *logrus.Entry

	pkgs  *packageArena[P]
	stats *conflictStatsTracker

	st    *state[V]
	ps    *PartialSolution[V]
	tried *triedVersions[V]

	decisionsMade int
}

// NewResolver builds a Resolver against provider, ordering versions with
// cmp. Options.Logger may be nil to disable logging; Options.MaxDecisions
// of zero means unbounded.
func NewResolver[P comparable, V any](provider Provider[P, V], cmp Cmp[V], opts Options) *Resolver[P, V] {
	return &Resolver[P, V]{
		provider: provider,
		cmp:      cmp,
		opts:     opts,
		log:      newLogger(opts.Logger),
		pkgs:     newPackageArena[P](),
		stats:    newConflictStatsTracker(),
	}
}

// Stats returns the conflict statistics accumulated for pkg so far. Safe
// to call after Resolve returns, successfully or not.
func (r *Resolver[P, V]) Stats(pkg P) ConflictStats {
	id, ok := r.pkgs.Lookup(pkg)
	if !ok {
		return ConflictStats{}
	}
	return r.stats.get(id)
}

// Resolve runs the driver loop of spec §4.7 to completion, returning an
// assignment covering every package reachable from root's dependencies, or
// a SolveFailure (ErrUnsatisfiable or ErrBudgetExceeded).
func (r *Resolver[P, V]) Resolve(root P, rootVersion V) (map[P]V, error) {
	rootID := r.pkgs.Intern(root)
	r.st = newState(r.cmp, r.log, rootID, rootVersion)
	r.ps = NewPartialSolution(r.cmp)
	r.tried = newTriedVersions(r.cmp)
	r.decisionsMade = 0

	next := rootID
	for {
		causes, err := r.st.unitPropagate(r.ps, next)
		r.absorbCauses(causes)
		if err != nil {
			return nil, err
		}

		pkg, rng, ok := r.ps.PickHighestPriority(r.priority)
		if !ok {
			return r.extract(), nil
		}
		next = pkg

		rawPkg := r.pkgs.Package(pkg)
		v, ok := r.provider.ChooseVersion(rawPkg, rng)
		if !ok {
			r.st.addIncompatibility(newNoVersionsIncompatibility[V](pkg, rng))
			continue
		}
		if !rng.Contains(v) {
			panic("pvsolver: provider.ChooseVersion returned a version outside the requested range")
		}

		if r.tried.has(pkg, v) {
			if err := r.checkBudget(); err != nil {
				return nil, err
			}
			r.ps.AddDecision(pkg, v)
			continue
		}
		r.tried.add(pkg, v)

		outcome := r.provider.GetDependencies(rawPkg, v)
		if !outcome.Available {
			r.st.addIncompatibility(newNoVersionsIncompatibility(pkg, Singleton(r.cmp, v)))
			continue
		}

		deps := make([]Dependency[V], len(outcome.Dependencies))
		for i, d := range outcome.Dependencies {
			depID := r.pkgs.Intern(d.Package)
			deps[i] = Dependency[V]{Package: depID, Range: d.Range}
			r.stats.recordDependencyIngestion(pkg, depID, true)
		}

		if err := r.checkBudget(); err != nil {
			return nil, err
		}
		_, causes, err = r.st.addPackageVersionDependencies(r.ps, pkg, v, deps)
		r.absorbCauses(causes)
		if err != nil {
			return nil, err
		}
	}
}

func (r *Resolver[P, V]) absorbCauses(causes []PackageOrInc) {
	for _, c := range causes {
		recordUnitPropagationCause(r.stats, c.Pkg, r.st.get(c.Inc))
	}
}

func (r *Resolver[P, V]) checkBudget() error {
	r.decisionsMade++
	if r.opts.MaxDecisions > 0 && r.decisionsMade > r.opts.MaxDecisions {
		return &ErrBudgetExceeded{Limit: r.opts.MaxDecisions}
	}
	return nil
}

func (r *Resolver[P, V]) extract() map[P]V {
	sol := r.ps.ExtractSolution()
	out := make(map[P]V, len(sol))
	for id, v := range sol {
		out[r.pkgs.Package(id)] = v
	}
	return out
}

// priority adapts Provider.Prioritize to the PackageID-keyed signature
// PartialSolution.PickHighestPriority expects.
func (r *Resolver[P, V]) priority(pkg PackageID, rng Range[V]) Priority {
	raw := r.pkgs.Package(pkg)
	return r.provider.Prioritize(raw, rng, r.stats.get(pkg))
}
