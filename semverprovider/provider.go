package semverprovider

import (
	"sort"

	"github.com/Masterminds/semver"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/dep-resolve/pvsolver"
)

type rawDep[P comparable] struct {
	pkg        P
	constraint string
}

// Catalog is a closed-world, in-memory pvsolver.Provider[P, *semver.Version]:
// every version a package can resolve to, and every dependency each version
// declares, is registered up front via AddVersion/AddDependency. It exists
// to let a caller exercise the resolver against real semver constraint
// strings (">=1.2.0, <2.0.0", "^1.4", "~1.2.3") without writing its own
// Range arithmetic, not to be a general-purpose registry client.
type Catalog[P comparable] struct {
	log      *logrus.Entry
	versions map[P][]*semver.Version
	deps     map[P]map[string][]rawDep[P]
}

// NewCatalog returns an empty catalog. A nil logger discards log output.
func NewCatalog[P comparable](log *logrus.Logger) *Catalog[P] {
	var entry *logrus.Entry
	if log == nil {
		entry = logrus.NewEntry(logrus.New())
		entry.Logger.SetOutput(discard{})
	} else {
		entry = logrus.NewEntry(log)
	}
	return &Catalog[P]{
		log:      entry,
		versions: make(map[P][]*semver.Version),
		deps:     make(map[P]map[string][]rawDep[P]),
	}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

// AddVersion registers pkg@version as resolvable.
func (c *Catalog[P]) AddVersion(pkg P, version string) error {
	v, err := semver.NewVersion(version)
	if err != nil {
		return errors.Wrapf(err, "semverprovider: bad version %q for %v", version, pkg)
	}
	c.versions[pkg] = append(c.versions[pkg], v)
	sort.Sort(byVersion(c.versions[pkg]))
	return nil
}

// AddDependency records that pkg@version requires some version of depPkg
// satisfying constraint, in Masterminds/semver constraint syntax.
func (c *Catalog[P]) AddDependency(pkg P, version string, depPkg P, constraint string) error {
	v, err := semver.NewVersion(version)
	if err != nil {
		return errors.Wrapf(err, "semverprovider: bad version %q for %v", version, pkg)
	}
	if _, err := semver.NewConstraint(constraint); err != nil {
		return errors.Wrapf(err, "semverprovider: bad constraint %q on %v for %v", constraint, depPkg, pkg)
	}
	if c.deps[pkg] == nil {
		c.deps[pkg] = make(map[string][]rawDep[P])
	}
	key := v.String()
	c.deps[pkg][key] = append(c.deps[pkg][key], rawDep[P]{pkg: depPkg, constraint: constraint})
	return nil
}

type byVersion []*semver.Version

func (b byVersion) Len() int           { return len(b) }
func (b byVersion) Less(i, j int) bool { return b[i].LessThan(b[j]) }
func (b byVersion) Swap(i, j int)      { b[i], b[j] = b[j], b[i] }

// ChooseVersion returns the highest registered version of p admitted by r.
func (c *Catalog[P]) ChooseVersion(p P, r pvsolver.Range[*semver.Version]) (*semver.Version, bool) {
	vs := c.versions[p]
	for i := len(vs) - 1; i >= 0; i-- {
		if r.Contains(vs[i]) {
			c.log.WithFields(logrus.Fields{"package": p, "version": vs[i]}).Debug("chose version")
			return vs[i], true
		}
	}
	return nil, false
}

// GetDependencies reports the dependencies registered for p@v, translating
// each constraint string into a pvsolver.Range over depPkg's registered
// versions: the range admits exactly the registered versions the
// constraint matches. A dependency on a package with no registered
// versions yields an empty range; the resolver then records that
// dependency as an incompatibility on p@v alone, which rules p@v out.
func (c *Catalog[P]) GetDependencies(p P, v *semver.Version) pvsolver.DependencyOutcome[P, *semver.Version] {
	raw, ok := c.deps[p][v.String()]
	if !ok {
		if !c.hasVersion(p, v) {
			return pvsolver.DependencyOutcome[P, *semver.Version]{Available: false}
		}
		return pvsolver.DependencyOutcome[P, *semver.Version]{Available: true}
	}

	out := make([]pvsolver.ProviderDependency[P, *semver.Version], 0, len(raw))
	for _, d := range raw {
		r, err := c.rangeFromConstraint(d.pkg, d.constraint)
		if err != nil {
			// AddDependency already validated the constraint syntax, so this
			// can only fail if the catalog itself is malformed.
			panic(err)
		}
		out = append(out, pvsolver.ProviderDependency[P, *semver.Version]{Package: d.pkg, Range: r})
	}
	return pvsolver.DependencyOutcome[P, *semver.Version]{Available: true, Dependencies: out}
}

func (c *Catalog[P]) hasVersion(p P, v *semver.Version) bool {
	for _, x := range c.versions[p] {
		if x.Equal(v) {
			return true
		}
	}
	return false
}

// rangeFromConstraint maps a semver constraint string onto the subset of
// depPkg's registered versions it admits. Masterminds/semver's Constraint
// keeps its interval bounds private, so rather than reverse-engineering
// them this unions a Singleton per admitted registered version — exact for
// a closed-world catalog, where "the range" only ever needs to answer
// Contains queries against versions the catalog itself produced.
func (c *Catalog[P]) rangeFromConstraint(depPkg P, constraint string) (pvsolver.Range[*semver.Version], error) {
	cs, err := semver.NewConstraint(constraint)
	if err != nil {
		return pvsolver.Range[*semver.Version]{}, err
	}
	out := pvsolver.Empty(Compare)
	for _, v := range c.versions[depPkg] {
		if cs.Check(v) {
			out = out.Union(pvsolver.Singleton(Compare, v))
		}
	}
	return out, nil
}

// Prioritize favors packages the conflict tracker has blamed most often,
// and among ties the package with fewer remaining candidate versions —
// the same "pick the most constrained unresolved identifier first" instinct
// behind a classic unselected-items heap, just keyed off live conflict
// data instead of arrival order. A package with zero candidates left in r
// gets pushed to MaxPriority so the resolver discovers the dead end
// immediately rather than deciding everything else first.
func (c *Catalog[P]) Prioritize(p P, r pvsolver.Range[*semver.Version], stats pvsolver.ConflictStats) pvsolver.Priority {
	remaining := 0
	for _, v := range c.versions[p] {
		if r.Contains(v) {
			remaining++
		}
	}
	if remaining == 0 {
		return pvsolver.MaxPriority
	}
	return pvsolver.Priority{Level: stats.ConflictCount(), Tiebreak: -remaining}
}
