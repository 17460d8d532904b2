// Package semverprovider is an optional concrete pvsolver.Provider for
// packages versioned with github.com/Masterminds/semver. It is a
// convenience layer outside the resolver core: the core only ever sees
// pvsolver.Range[*semver.Version] built from a pvsolver.Cmp the way any
// other caller would build one.
package semverprovider

import (
	"github.com/Masterminds/semver"
)

// Compare is the pvsolver.Cmp for *semver.Version, usable directly as the
// cmp argument to pvsolver.NewResolver.
func Compare(a, b *semver.Version) int {
	return a.Compare(b)
}

// ParseVersion parses a semver string into the *semver.Version the rest of
// this package and pvsolver's Range algebra operate on.
func ParseVersion(s string) (*semver.Version, error) {
	return semver.NewVersion(s)
}

// MustParseVersion is ParseVersion for call sites building a fixed version
// catalog, where a malformed literal is a programmer error.
func MustParseVersion(s string) *semver.Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}
