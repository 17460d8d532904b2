package pvsolver

// ConflictStats are the per-package counters spec §4.8 feeds into
// Provider.Prioritize, so the driver learns to pick packages that have
// historically caused or suffered from conflicts before ones that haven't.
type ConflictStats struct {
	UnitPropagationAffected int
	UnitPropagationCulprit  int
	DependenciesAffected    int
	DependenciesCulprit     int
}

// ConflictCount is the simple sum used by a typical prioritizer's
// conflict_count component.
func (c ConflictStats) ConflictCount() int {
	return c.UnitPropagationAffected + c.UnitPropagationCulprit + c.DependenciesAffected + c.DependenciesCulprit
}

type conflictStatsTracker struct {
	byPackage map[PackageID]*ConflictStats
}

func newConflictStatsTracker() *conflictStatsTracker {
	return &conflictStatsTracker{byPackage: make(map[PackageID]*ConflictStats)}
}

func (t *conflictStatsTracker) entry(pkg PackageID) *ConflictStats {
	e, ok := t.byPackage[pkg]
	if !ok {
		e = &ConflictStats{}
		t.byPackage[pkg] = e
	}
	return e
}

func (t *conflictStatsTracker) get(pkg PackageID) ConflictStats {
	if e, ok := t.byPackage[pkg]; ok {
		return *e
	}
	return ConflictStats{}
}

// recordDependencyIngestion credits affected (the package whose chosen
// version induced the incompatibility) and, if present, culprit (the
// package it depends on).
func (t *conflictStatsTracker) recordDependencyIngestion(affected PackageID, culprit PackageID, hasCulprit bool) {
	t.entry(affected).DependenciesAffected++
	if hasCulprit {
		t.entry(culprit).DependenciesCulprit++
	}
}

// recordUnitPropagationCause credits pivot (the package conflict
// resolution pinned the learned incompatibility on) and every other
// package the incompatibility mentions.
func recordUnitPropagationCause[V any](t *conflictStatsTracker, pivot PackageID, inc *Incompatibility[V]) {
	t.entry(pivot).UnitPropagationAffected++
	for _, p := range inc.Packages() {
		if p == pivot {
			continue
		}
		t.entry(p).UnitPropagationCulprit++
	}
}
