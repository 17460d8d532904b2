package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/dep-resolve/pvsolver"
)

// intCmp orders the int versions the range-literal format uses.
func intCmp(a, b int) int { return a - b }

// fileProvider is the in-memory pvsolver.Provider[string,int] a benchmark
// file loads into, mirroring the teacher's depspec fixture table — one
// line per package version, dependencies spelled out alongside it — but
// read from a text file rather than built from Go literals, since this is
// the CLI's own loader and never touches the pvsolver package itself.
type fileProvider struct {
	versions map[string][]int
	deps     map[string]map[int][]pvsolver.ProviderDependency[string, int]
}

func newFileProvider() *fileProvider {
	return &fileProvider{
		versions: make(map[string][]int),
		deps:     make(map[string]map[int][]pvsolver.ProviderDependency[string, int]),
	}
}

// LoadFile parses the §6 range literal format:
//
//	<pkg> <ver> [<dep>:singleton:<v> | <dep>:range:<lo>:<hi>]...
//
// Lines starting with # and blank lines are ignored.
func LoadFile(path string) (*fileProvider, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "pvbench: open %s", path)
	}
	defer f.Close()
	return parseFile(f)
}

func parseFile(r io.Reader) (*fileProvider, error) {
	p := newFileProvider()
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("pvbench: line %d: need at least <pkg> <ver>", lineNo)
		}
		pkg := fields[0]
		ver, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, errors.Wrapf(err, "pvbench: line %d: bad version %q", lineNo, fields[1])
		}
		p.versions[pkg] = append(p.versions[pkg], ver)

		for _, tok := range fields[2:] {
			dep, err := parseDepToken(tok)
			if err != nil {
				return nil, errors.Wrapf(err, "pvbench: line %d", lineNo)
			}
			if p.deps[pkg] == nil {
				p.deps[pkg] = make(map[int][]pvsolver.ProviderDependency[string, int])
			}
			p.deps[pkg][ver] = append(p.deps[pkg][ver], *dep)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "pvbench")
	}
	return p, nil
}

func parseDepToken(tok string) (*pvsolver.ProviderDependency[string, int], error) {
	parts := strings.Split(tok, ":")
	if len(parts) < 3 {
		return nil, fmt.Errorf("malformed dependency token %q", tok)
	}
	depPkg, kind := parts[0], parts[1]
	switch kind {
	case "singleton":
		if len(parts) != 3 {
			return nil, fmt.Errorf("malformed singleton token %q", tok)
		}
		v, err := strconv.Atoi(parts[2])
		if err != nil {
			return nil, errors.Wrapf(err, "bad singleton version in %q", tok)
		}
		return &pvsolver.ProviderDependency[string, int]{
			Package: depPkg,
			Range:   pvsolver.Singleton(intCmp, v),
		}, nil
	case "range":
		if len(parts) != 4 {
			return nil, fmt.Errorf("malformed range token %q", tok)
		}
		lo, err := strconv.Atoi(parts[2])
		if err != nil {
			return nil, errors.Wrapf(err, "bad range lo in %q", tok)
		}
		hi, err := strconv.Atoi(parts[3])
		if err != nil {
			return nil, errors.Wrapf(err, "bad range hi in %q", tok)
		}
		return &pvsolver.ProviderDependency[string, int]{
			Package: depPkg,
			Range:   pvsolver.Between(intCmp, lo, hi),
		}, nil
	default:
		return nil, fmt.Errorf("unknown dependency kind %q in %q", kind, tok)
	}
}

func (p *fileProvider) ChooseVersion(pkg string, r pvsolver.Range[int]) (int, bool) {
	best, ok := 0, false
	for _, v := range p.versions[pkg] {
		if r.Contains(v) && (!ok || v > best) {
			best, ok = v, true
		}
	}
	return best, ok
}

func (p *fileProvider) GetDependencies(pkg string, v int) pvsolver.DependencyOutcome[string, int] {
	for _, known := range p.versions[pkg] {
		if known == v {
			return pvsolver.DependencyOutcome[string, int]{Available: true, Dependencies: p.deps[pkg][v]}
		}
	}
	return pvsolver.DependencyOutcome[string, int]{Available: false}
}

// Prioritize ranks packages by their conflict counters first and, among
// ties, picks the package with the fewest remaining candidates — the "most
// constrained identifier first" heuristic a benchmark loader needs without
// any domain-specific hints to lean on.
func (p *fileProvider) Prioritize(pkg string, r pvsolver.Range[int], stats pvsolver.ConflictStats) pvsolver.Priority {
	remaining := 0
	for _, v := range p.versions[pkg] {
		if r.Contains(v) {
			remaining++
		}
	}
	if remaining == 0 {
		return pvsolver.MaxPriority
	}
	return pvsolver.Priority{Level: stats.ConflictCount(), Tiebreak: -remaining}
}
