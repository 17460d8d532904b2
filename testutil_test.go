package pvsolver

import "sort"

// fixtureProvider is a small in-memory Provider[string,int] used by the
// end-to-end driver tests: versions and dependencies are registered ahead
// of time, and ChooseVersion always prefers the highest version in range,
// matching the convention the end-to-end scenarios assume.
type fixtureProvider struct {
	versions map[string][]int
	deps     map[string]map[int][]ProviderDependency[string, int]
	priority map[string]int
}

func newFixtureProvider() *fixtureProvider {
	return &fixtureProvider{
		versions: make(map[string][]int),
		deps:     make(map[string]map[int][]ProviderDependency[string, int]),
		priority: make(map[string]int),
	}
}

func (f *fixtureProvider) addVersion(pkg string, v int) {
	f.versions[pkg] = append(f.versions[pkg], v)
}

func (f *fixtureProvider) addDep(pkg string, v int, depPkg string, r Range[int]) {
	if f.deps[pkg] == nil {
		f.deps[pkg] = make(map[int][]ProviderDependency[string, int])
	}
	f.deps[pkg][v] = append(f.deps[pkg][v], ProviderDependency[string, int]{Package: depPkg, Range: r})
}

func (f *fixtureProvider) ChooseVersion(pkg string, r Range[int]) (int, bool) {
	vs := append([]int(nil), f.versions[pkg]...)
	sort.Sort(sort.Reverse(sort.IntSlice(vs)))
	for _, v := range vs {
		if r.Contains(v) {
			return v, true
		}
	}
	return 0, false
}

func (f *fixtureProvider) GetDependencies(pkg string, v int) DependencyOutcome[string, int] {
	return DependencyOutcome[string, int]{Available: true, Dependencies: f.deps[pkg][v]}
}

func (f *fixtureProvider) Prioritize(pkg string, r Range[int], stats ConflictStats) Priority {
	return Priority{Level: f.priority[pkg]}
}
