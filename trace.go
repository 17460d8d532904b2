package pvsolver

import (
	"fmt"
	"strings"

	"github.com/sanity-io/litter"
)

// ExplainFailure renders a human-readable derivation trace for a failure
// returned by Resolve. For ErrUnsatisfiable it walks the terminal
// incompatibility's DerivedFrom provenance back to its NotRoot/NoVersions/
// FromDependency leaves, one line per step; for any other error it falls
// back to err.Error().
func (r *Resolver[P, V]) ExplainFailure(err error) string {
	eu, ok := err.(*ErrUnsatisfiable[V])
	if !ok {
		return err.Error()
	}
	var sb strings.Builder
	sb.WriteString("no version of root satisfies its own requirements:\n")
	r.explainNode(&sb, eu.Cause, 1, make(map[IncompatibilityID]bool))
	return sb.String()
}

func (r *Resolver[P, V]) explainNode(sb *strings.Builder, inc *Incompatibility[V], depth int, seen map[IncompatibilityID]bool) {
	indent := strings.Repeat("  ", depth)
	if seen[inc.id] {
		fmt.Fprintf(sb, "%s(see above)\n", indent)
		return
	}
	seen[inc.id] = true

	switch inc.Provenance.Kind {
	case ProvNotRoot:
		fmt.Fprintf(sb, "%sroot must be exactly the requested version\n", indent)
	case ProvNoVersions:
		fmt.Fprintf(sb, "%sno version of %v is available in the required range\n", indent, r.pkgs.Package(inc.Provenance.P1))
	case ProvFromDependency:
		dep := r.pkgs.Package(inc.Provenance.P2)
		fmt.Fprintf(sb, "%s%v requires %v, which is unavailable here\n", indent, r.pkgs.Package(inc.Provenance.P1), dep)
	case ProvCustom:
		fmt.Fprintf(sb, "%scustom constraint on %v: %s\n", indent, r.pkgs.Package(inc.Provenance.P1), litter.Sdump(inc.Provenance.Meta))
	case ProvDerivedFrom:
		fmt.Fprintf(sb, "%sfollows from combining:\n", indent)
		r.explainNode(sb, r.st.get(inc.Provenance.Left), depth+1, seen)
		r.explainNode(sb, r.st.get(inc.Provenance.Right), depth+1, seen)
	}
}
