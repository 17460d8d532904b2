package pvsolver

import "container/heap"

// Priority orders candidate packages in the driver's pick step: higher
// Level wins, ties broken by Tiebreak. A typical provider returns
// (conflictCount, -versionCountInRange); MaxPriority lets a provider push
// an unsatisfiable package to the front so resolution fails fast.
type Priority struct {
	Level    int
	Tiebreak int
}

// MaxPriority sorts before every ordinarily-computed priority.
var MaxPriority = Priority{Level: int(^uint(0) >> 1)}

func (p Priority) less(other Priority) bool {
	if p.Level != other.Level {
		return p.Level < other.Level
	}
	return p.Tiebreak < other.Tiebreak
}

type pqEntry[V any] struct {
	pkg PackageID
	pr  Priority
}

// pq is a max-heap over Priority; container/heap gives a min-heap, so Less
// is inverted.
type pq[V any] []pqEntry[V]

func (q pq[V]) Len() int            { return len(q) }
func (q pq[V]) Less(i, j int) bool  { return q[j].pr.less(q[i].pr) }
func (q pq[V]) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *pq[V]) Push(x interface{}) { *q = append(*q, x.(pqEntry[V])) }
func (q *pq[V]) Pop() interface{} {
	old := *q
	n := len(old)
	e := old[n-1]
	*q = old[:n-1]
	return e
}

// paEntry is one dated entry in a package's assignment log: either a
// derivation (accumulated intersected with negate(cause's term)) or a
// decision (accumulated pinned to exactly version). Decisions and
// derivations share one log so that backtracking can uniformly pop
// whichever trailing entries exceed the target level.
type paEntry[V any] struct {
	globalIndex   int
	decisionLevel int
	isDecision    bool
	cause         IncompatibilityID // meaningful when !isDecision
	version       V                 // meaningful when isDecision
	accumulated   Term[V]
}

type packageAssignments[V any] struct {
	smallestLevel int
	highestLevel  int
	entries       []paEntry[V]
}

func (pa *packageAssignments[V]) current() Term[V] {
	return pa.entries[len(pa.entries)-1].accumulated
}

func (pa *packageAssignments[V]) isDecided() bool {
	return pa.entries[len(pa.entries)-1].isDecision
}

// PartialSolution is the resolver's running record of what it has decided
// and derived about each package, per spec §4.5.
type PartialSolution[V any] struct {
	cmp Cmp[V]

	currentDecisionLevel int
	nextGlobalIndex       int
	hasEverBacktracked    bool

	assignments map[PackageID]*packageAssignments[V]
	order       []PackageID
	indexOf     map[PackageID]int

	outdated map[PackageID]bool
	queue    pq[V]
}

// NewPartialSolution returns an empty partial solution ordered by cmp.
func NewPartialSolution[V any](cmp Cmp[V]) *PartialSolution[V] {
	return &PartialSolution[V]{
		cmp:         cmp,
		assignments: make(map[PackageID]*packageAssignments[V]),
		indexOf:     make(map[PackageID]int),
		outdated:    make(map[PackageID]bool),
	}
}

// CurrentDecisionLevel returns how many decisions are currently active.
func (ps *PartialSolution[V]) CurrentDecisionLevel() int {
	return ps.currentDecisionLevel
}

// HasEverBacktracked reports whether a backtrack has ever occurred, gating
// the fast path on dependency ingestion.
func (ps *PartialSolution[V]) HasEverBacktracked() bool {
	return ps.hasEverBacktracked
}

// CurrentTerm returns the accumulated term the partial solution holds for
// pkg, if it has ever been touched.
func (ps *PartialSolution[V]) CurrentTerm(pkg PackageID) (Term[V], bool) {
	pa, ok := ps.assignments[pkg]
	if !ok {
		return Term[V]{}, false
	}
	return pa.current(), true
}

func (ps *PartialSolution[V]) ensure(pkg PackageID) *packageAssignments[V] {
	pa, ok := ps.assignments[pkg]
	if !ok {
		pa = &packageAssignments[V]{smallestLevel: ps.currentDecisionLevel}
		ps.assignments[pkg] = pa
		ps.indexOf[pkg] = len(ps.order)
		ps.order = append(ps.order, pkg)
	}
	return pa
}

func (ps *PartialSolution[V]) markOutdated(pkg PackageID) {
	ps.outdated[pkg] = true
}

// AddDerivation records that pkg's admissible set has narrowed because
// cause is almost satisfied: the new accumulated term is the negation of
// cause's term on pkg, intersected with the previous accumulated term if
// pkg has one already. A package seen for the first time has nothing to
// intersect against yet, so its first entry is exactly that negation.
func (ps *PartialSolution[V]) AddDerivation(pkg PackageID, cause IncompatibilityID, causeTerm Term[V]) {
	pa := ps.ensure(pkg)

	accum := causeTerm.Negate()
	if len(pa.entries) > 0 {
		accum = pa.current().Intersection(accum)
	}

	pa.entries = append(pa.entries, paEntry[V]{
		globalIndex:   ps.nextGlobalIndex,
		decisionLevel: ps.currentDecisionLevel,
		cause:         cause,
		accumulated:   accum,
	})
	ps.nextGlobalIndex++
	if pa.highestLevel < ps.currentDecisionLevel {
		pa.highestLevel = ps.currentDecisionLevel
	}
	ps.markOutdated(pkg)
}

// AddDecision records the decision pkg = version, advancing the decision
// level and swapping pkg's slot to the end of the decided prefix.
func (ps *PartialSolution[V]) AddDecision(pkg PackageID, version V) {
	pa := ps.ensure(pkg)
	if len(pa.entries) > 0 && !pa.current().Contains(version) {
		panic("pvsolver: decided version violates accumulated term")
	}

	ps.currentDecisionLevel++
	pa.entries = append(pa.entries, paEntry[V]{
		globalIndex:   ps.nextGlobalIndex,
		decisionLevel: ps.currentDecisionLevel,
		isDecision:    true,
		version:       version,
		accumulated:   ExactTerm(ps.cmp, version),
	})
	ps.nextGlobalIndex++
	if pa.highestLevel < ps.currentDecisionLevel {
		pa.highestLevel = ps.currentDecisionLevel
	}

	from := ps.indexOf[pkg]
	to := ps.currentDecisionLevel - 1
	ps.swapOrder(from, to)
	delete(ps.outdated, pkg)
}

func (ps *PartialSolution[V]) swapOrder(i, j int) {
	if i == j {
		return
	}
	ps.order[i], ps.order[j] = ps.order[j], ps.order[i]
	ps.indexOf[ps.order[i]] = i
	ps.indexOf[ps.order[j]] = j
}

// AddPackageVersionIncompatibilities implements the fast path on
// dependency ingestion: if no backtrack has ever happened, pkg = version is
// added as a decision outright. Otherwise every incompatibility in newIDs
// is checked with the hypothetical term pkg = exact(version); the first one
// that would be Satisfied is returned as a conflict instead of deciding.
func (ps *PartialSolution[V]) AddPackageVersionIncompatibilities(pkg PackageID, version V, newIDs IDRange, get func(IncompatibilityID) *Incompatibility[V]) (conflict IncompatibilityID, hasConflict bool) {
	if !ps.hasEverBacktracked {
		ps.AddDecision(pkg, version)
		return 0, false
	}

	hypothetical := ExactTerm(ps.cmp, version)
	lookup := func(q PackageID) (Term[V], bool) {
		if q == pkg {
			return hypothetical, true
		}
		return ps.CurrentTerm(q)
	}

	for id := newIDs.Start; id < newIDs.End; id++ {
		rel := get(id).Relation(lookup)
		if rel.Kind == RelSatisfied {
			return id, true
		}
	}
	ps.AddDecision(pkg, version)
	return 0, false
}

// ExtractSolution returns the decided (package, version) pairs. It panics
// if any tracked package is not currently decided, which the driver never
// permits to happen — reaching it is a solver bug, not a user error.
func (ps *PartialSolution[V]) ExtractSolution() map[PackageID]V {
	out := make(map[PackageID]V, len(ps.order))
	for _, pkg := range ps.order {
		pa := ps.assignments[pkg]
		if !pa.isDecided() {
			panic("pvsolver: extract_solution called with an undecided package")
		}
		out[pkg] = pa.entries[len(pa.entries)-1].version
	}
	return out
}

// SatisfierKind distinguishes the two SatisfierSearch outcomes.
type SatisfierKind uint8

const (
	SearchDifferentLevels SatisfierKind = iota
	SearchSameLevel
)

// SatisfierSearch is the result of resolving one step of conflict
// resolution: either the learned incompatibility should backjump to Level,
// or it should be re-derived at the current level against Cause.
type SatisfierSearch struct {
	Kind  SatisfierKind
	Level int
	Cause IncompatibilityID
}

type satisfierCandidate[V any] struct {
	pkg     PackageID
	globalI int
	level   int
	cause   IncompatibilityID
	isDec   bool
}

// searchDisjoint finds, among pa's derivation entries, the earliest one
// whose accumulated term is disjoint from startTerm — the first moment the
// partial solution ruled out startTerm. If none qualifies, the package's
// own decision satisfies it instead.
func searchDisjoint[V any](pa *packageAssignments[V], currentLevel int, startTerm Term[V]) satisfierCandidate[V] {
	for _, e := range pa.entries {
		if e.isDecision {
			continue
		}
		if e.accumulated.IsDisjoint(startTerm) {
			return satisfierCandidate[V]{globalI: e.globalIndex, level: e.decisionLevel, cause: e.cause}
		}
	}
	last := pa.entries[len(pa.entries)-1]
	if !last.isDecision {
		panic("pvsolver: satisfied incompatibility with no satisfying derivation or decision")
	}
	return satisfierCandidate[V]{globalI: last.globalIndex, level: currentLevel, isDec: true}
}

// searchPackage is searchDisjoint against target's negation, for callers
// that hold the term an incompatibility places on pkg rather than the
// already-negated search term itself.
func searchPackage[V any](pa *packageAssignments[V], currentLevel int, target Term[V]) satisfierCandidate[V] {
	return searchDisjoint(pa, currentLevel, target.Negate())
}

// SatisfierSearch implements spec §4.5's satisfier search and previous-
// satisfier-level computation for an incompatibility whose Relation is
// Satisfied. get resolves the IncompatibilityID recorded against a
// derivation entry back to its incompatibility, needed to recompute the
// previous satisfier level. It returns the satisfier's package and the
// next step conflict resolution should take.
func (ps *PartialSolution[V]) SatisfierSearch(inc *Incompatibility[V], get func(IncompatibilityID) *Incompatibility[V]) (PackageID, SatisfierSearch) {
	pkgs := inc.Packages()
	candidates := make([]satisfierCandidate[V], len(pkgs))
	for i, p := range pkgs {
		t, _ := inc.Get(p)
		pa := ps.assignments[p]
		c := searchPackage(pa, ps.currentDecisionLevel, t)
		c.pkg = p
		candidates[i] = c
	}

	satIdx := 0
	for i := 1; i < len(candidates); i++ {
		if candidates[i].globalI > candidates[satIdx].globalI {
			satIdx = i
		}
	}
	sat := candidates[satIdx]
	satisfierLevel := sat.level

	// Previous satisfier level: re-run the satisfier package's own search
	// against the term that actually produced its satisfying entry — the
	// negation of the causing incompatibility's term at that package (for a
	// derivation), or the decided version itself (for a decision) —
	// intersected with the negation of inc's own term at that package, then
	// take the max decision level across every candidate, the satisfier's
	// now replaced.
	var accum Term[V]
	if sat.isDec {
		accum = ExactTerm(ps.cmp, ps.assignments[sat.pkg].entries[len(ps.assignments[sat.pkg].entries)-1].version)
	} else {
		cause := get(sat.cause)
		t, ok := cause.Get(sat.pkg)
		if !ok {
			t, _ = inc.Get(sat.pkg)
		}
		accum = t.Negate()
	}
	incTermAtSat, _ := inc.Get(sat.pkg)
	newTerm := accum.Intersection(incTermAtSat.Negate())
	replaced := searchDisjoint(ps.assignments[sat.pkg], ps.currentDecisionLevel, newTerm)

	prevLevel := 1
	for i, c := range candidates {
		level := c.level
		if i == satIdx {
			level = replaced.level
		}
		if level > prevLevel {
			prevLevel = level
		}
	}

	if prevLevel >= satisfierLevel {
		if !sat.isDec {
			return sat.pkg, SatisfierSearch{Kind: SearchSameLevel, Cause: sat.cause}
		}
		// A freshly-decided package with no prior narrowing derivation came
		// out as the satisfier at the same level as itself: there is no
		// incompatibility to resolve against at this level. Force progress
		// by backjumping one level instead of looping forever.
		fallback := satisfierLevel - 1
		if fallback < 1 {
			fallback = 1
		}
		return sat.pkg, SatisfierSearch{Kind: SearchDifferentLevels, Level: fallback}
	}
	return sat.pkg, SatisfierSearch{Kind: SearchDifferentLevels, Level: prevLevel}
}

// Backtrack discards everything decided or derived past level, per spec
// §4.5/§4.6: packages never touched at or before level are dropped
// entirely, packages untouched past level are kept as-is, and packages with
// activity on both sides have their trailing entries popped.
func (ps *PartialSolution[V]) Backtrack(level int) {
	ps.currentDecisionLevel = level
	ps.hasEverBacktracked = true

	kept := ps.order[:0]
	for _, pkg := range ps.order {
		pa := ps.assignments[pkg]
		switch {
		case pa.smallestLevel > level:
			delete(ps.assignments, pkg)
			continue
		case pa.highestLevel <= level:
			if !pa.isDecided() {
				ps.markOutdated(pkg)
			}
		default:
			for len(pa.entries) > 1 && pa.entries[len(pa.entries)-1].decisionLevel > level {
				pa.entries = pa.entries[:len(pa.entries)-1]
			}
			pa.highestLevel = pa.entries[len(pa.entries)-1].decisionLevel
			ps.markOutdated(pkg)
		}
		kept = append(kept, pkg)
	}
	ps.order = kept

	ps.indexOf = make(map[PackageID]int, len(ps.order))
	for i, pkg := range ps.order {
		ps.indexOf[pkg] = i
	}
}

// PickHighestPriority returns the undecided package with the highest
// priority under prio, and the range of versions it currently admits, or
// !ok once every tracked package is decided.
func (ps *PartialSolution[V]) PickHighestPriority(prio func(pkg PackageID, r Range[V]) Priority) (PackageID, Range[V], bool) {
	for pkg := range ps.outdated {
		delete(ps.outdated, pkg)
		pa, ok := ps.assignments[pkg]
		if !ok || pa.isDecided() {
			continue
		}
		r := pa.current().AllowedRange()
		heap.Push(&ps.queue, pqEntry[V]{pkg: pkg, pr: prio(pkg, r)})
	}

	for ps.queue.Len() > 0 {
		e := heap.Pop(&ps.queue).(pqEntry[V])
		pa, ok := ps.assignments[e.pkg]
		if !ok || pa.isDecided() {
			continue // stale: decided or dropped since this entry was queued
		}
		return e.pkg, pa.current().AllowedRange(), true
	}
	return 0, Range[V]{}, false
}
