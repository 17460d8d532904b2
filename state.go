package pvsolver

import "github.com/sirupsen/logrus"

type depKey struct {
	p1, p2 PackageID
}

// Dependency is a (package, range) constraint already resolved to an
// interned PackageID, as passed to addPackageVersionDependencies. The
// driver builds these from a Provider's raw ProviderDependency values.
type Dependency[V any] struct {
	Package PackageID
	Range   Range[V]
}

// state is the resolver's mutable working set: the incompatibility arena,
// the per-package index into it, and the caches that make unit propagation
// and dependency-merging cheap. It owns everything except the running
// partial solution, which lives alongside it in Resolver.
type state[V any] struct {
	cmp Cmp[V]
	log *logrus.Entry

	incs *incompatibilityArena[V]

	byPackage      map[PackageID][]IncompatibilityID
	contradicted   map[IncompatibilityID]int
	mergedDeps     map[depKey][]IncompatibilityID

	root        PackageID
	rootVersion V
}

func newState[V any](cmp Cmp[V], log *logrus.Entry, root PackageID, rootVersion V) *state[V] {
	s := &state[V]{
		cmp:          cmp,
		log:          log,
		incs:         newIncompatibilityArena[V](),
		byPackage:    make(map[PackageID][]IncompatibilityID),
		contradicted: make(map[IncompatibilityID]int),
		mergedDeps:   make(map[depKey][]IncompatibilityID),
		root:         root,
		rootVersion:  rootVersion,
	}
	rootInc := newNotRootIncompatibility[V](cmp, root, rootVersion)
	id := s.incs.Alloc(rootInc)
	s.byPackage[root] = append(s.byPackage[root], id)
	return s
}

func (s *state[V]) get(id IncompatibilityID) *Incompatibility[V] {
	return s.incs.Get(id)
}

// addIncompatibility allocates inc, merges it into the dependency index if
// applicable, and indexes the (possibly merged) result under every package
// it mentions.
func (s *state[V]) addIncompatibility(inc *Incompatibility[V]) IncompatibilityID {
	id := s.incs.Alloc(inc)
	return s.mergeIncompatibility(id)
}

// addPackageVersionDependencies allocates one FromDependency incompatibility
// per (depPkg, depRange) pair describing version's requirements, merges
// each into the dependency index, and then forwards to the partial
// solution's fast path: if no backtrack has ever happened, pkg=version is
// committed as a decision outright; otherwise every newly allocated
// incompatibility is checked against the hypothetical decision first, and
// a conflict found this way is resolved exactly as unit propagation would
// resolve one, before control returns to the driver.
func (s *state[V]) addPackageVersionDependencies(ps *PartialSolution[V], pkg PackageID, version V, deps []Dependency[V]) (IDRange, []PackageOrInc, error) {
	start := s.incs.Next()
	for _, d := range deps {
		inc := newFromDependencyIncompatibility(pkg, Singleton(s.cmp, version), d.Package, d.Range)
		id := s.incs.Alloc(inc)
		s.mergeIncompatibility(id)
	}
	idRange := IDRange{Start: start, End: s.incs.Next()}

	conflict, hasConflict := ps.AddPackageVersionIncompatibilities(pkg, version, idRange, s.get)
	if !hasConflict {
		return idRange, nil, nil
	}

	var causes []PackageOrInc
	pivot, rootCause, err := s.conflictResolution(ps, conflict, &causes)
	if err != nil {
		return idRange, causes, err
	}
	causeTerm, _ := s.get(rootCause).Get(pivot)
	ps.AddDerivation(pivot, rootCause, causeTerm)
	s.contradicted[rootCause] = ps.currentDecisionLevel
	return idRange, causes, nil
}

// mergeIncompatibility implements spec §4.6's merge_incompatibility: for a
// FromDependency incompatibility, it tries to fold into every past
// FromDependency incompatibility over the same (p1, p2) pair sharing the
// merge's dependent-side term, replacing whichever one succeeds and
// continuing in case the merged result merges further. It returns the ID
// actually indexed (which may differ from the one passed in, if merged).
func (s *state[V]) mergeIncompatibility(id IncompatibilityID) IncompatibilityID {
	cur := s.get(id)
	p1, p2, isDep := cur.AsDependency()
	if !isDep {
		s.indexUnderPackages(id, cur)
		return id
	}

	key := depKey{p1, p2}
	bucket := s.mergedDeps[key]
	for i, pastID := range bucket {
		past := s.get(pastID)
		merged, ok := past.MergeDependents(cur)
		if !ok {
			continue
		}
		mergedID := s.incs.Alloc(merged)
		s.removeFromPackageIndex(pastID, past)
		// Drop the merged-away entry before rescanning, so the merged result
		// is not merged with itself; the recursive call appends and indexes it.
		rest := append(append([]IncompatibilityID(nil), bucket[:i]...), bucket[i+1:]...)
		s.mergedDeps[key] = rest
		return s.mergeIncompatibility(mergedID)
	}

	s.mergedDeps[key] = append(bucket, id)
	s.indexUnderPackages(id, cur)
	return id
}

func (s *state[V]) indexUnderPackages(id IncompatibilityID, inc *Incompatibility[V]) {
	for _, pkg := range inc.Packages() {
		s.byPackage[pkg] = append(s.byPackage[pkg], id)
	}
}

func (s *state[V]) removeFromPackageIndex(id IncompatibilityID, inc *Incompatibility[V]) {
	for _, pkg := range inc.Packages() {
		list := s.byPackage[pkg]
		for i, other := range list {
			if other == id {
				s.byPackage[pkg] = append(list[:i], list[i+1:]...)
				break
			}
		}
	}
}

// unitPropagate implements spec §4.6's unit propagation loop starting from
// seed package p, learning and applying new incompatibilities until
// nothing more can be derived. It returns the (pivot, causeID) pairs
// recorded by every conflict resolution step, for conflict statistics.
func (s *state[V]) unitPropagate(ps *PartialSolution[V], p PackageID) ([]PackageOrInc, error) {
	var satisfierCauses []PackageOrInc
	buffer := []PackageID{p}
	inBuffer := map[PackageID]bool{p: true}

	for len(buffer) > 0 {
		cur := buffer[len(buffer)-1]
		buffer = buffer[:len(buffer)-1]
		delete(inBuffer, cur)

		var conflict IncompatibilityID
		hasConflict := false

		ids := s.byPackage[cur]
		for i := len(ids) - 1; i >= 0; i-- {
			id := ids[i]
			if _, ok := s.contradicted[id]; ok {
				continue
			}
			inc := s.get(id)
			rel := inc.Relation(ps.CurrentTerm)
			switch rel.Kind {
			case RelSatisfied:
				conflict = id
				hasConflict = true
			case RelAlmostSatisfied:
				q := rel.Pkg
				if !inBuffer[q] {
					buffer = append(buffer, q)
					inBuffer[q] = true
				}
				qTerm, _ := inc.Get(q)
				ps.AddDerivation(q, id, qTerm)
				s.contradicted[id] = ps.currentDecisionLevel
			case RelContradicted:
				s.contradicted[id] = ps.currentDecisionLevel
			}
		}

		if hasConflict {
			pivot, rootCause, err := s.conflictResolution(ps, conflict, &satisfierCauses)
			if err != nil {
				return satisfierCauses, err
			}
			buffer = []PackageID{pivot}
			inBuffer = map[PackageID]bool{pivot: true}
			causeTerm, _ := s.get(rootCause).Get(pivot)
			ps.AddDerivation(pivot, rootCause, causeTerm)
			s.contradicted[rootCause] = ps.currentDecisionLevel
		}
	}

	return satisfierCauses, nil
}

// PackageOrInc is a (package, incompatibility) pair recorded during
// conflict resolution, for statistics.
type PackageOrInc struct {
	Pkg PackageID
	Inc IncompatibilityID
}

// conflictResolution implements spec §4.6's loop: repeatedly resolve the
// conflicting incompatibility against its satisfier's cause at their
// shared pivot, until the result is terminal (unsatisfiable) or the
// satisfier search calls for a backjump.
func (s *state[V]) conflictResolution(ps *PartialSolution[V], start IncompatibilityID, causes *[]PackageOrInc) (PackageID, IncompatibilityID, error) {
	i := start
	derivedDuringLoop := false

	for {
		if s.get(i).IsTerminal(s.root, s.rootVersion) {
			return 0, 0, newErrUnsatisfiable(s.get(i))
		}

		pkg, search := ps.SatisfierSearch(s.get(i), s.get)
		*causes = append(*causes, PackageOrInc{Pkg: pkg, Inc: i})

		if search.Kind == SearchDifferentLevels {
			s.backtrack(ps, i, derivedDuringLoop, search.Level)
			return pkg, i, nil
		}

		merged := s.get(i).PriorCause(s.get(search.Cause), pkg)
		i = s.incs.Alloc(merged)
		derivedDuringLoop = true
	}
}

// backtrack implements spec §4.6's backtrack: reset the partial solution
// to level, drop contradicted-incompatibility cache entries above it, and
// if the triggering incompatibility was derived inside this conflict
// resolution loop, merge it into the dependency index now that it is about
// to be indexed under its packages for the first time.
func (s *state[V]) backtrack(ps *PartialSolution[V], triggeringInc IncompatibilityID, derived bool, level int) {
	ps.Backtrack(level)
	for id, lvl := range s.contradicted {
		if lvl > level {
			delete(s.contradicted, id)
		}
	}
	if derived {
		s.mergeIncompatibility(triggeringInc)
	}
}
