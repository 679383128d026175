package buildgraph

import (
	"sort"
	"strings"

	"github.com/pyrate-build/pyrate/internal/fingerprint"
	"github.com/pyrate-build/pyrate/internal/rule"
	"github.com/pyrate-build/pyrate/internal/targettype"
)

// TargetSpec is the argument bundle for NewBuildTarget: a named node
// with a rule and an ordered list of sources, plus the projections it
// advertises to whatever consumes it in turn.
type TargetSpec struct {
	Name           string
	InstallName    string
	UserName       string
	Rule           *rule.Rule
	Sources        []Source
	TargetType     targettype.Type
	NoRename       bool
	OnUseInputs    []KeyedSources
	OnUseDeps      []KeyedSources
	OnUseVariables []KeyedVariables
}

// BuildTarget is a named node with a rule and an ordered list of
// sources. It computes its effective inputs, deps and variables by
// projecting from each source under its own rule name (§4.1).
type BuildTarget struct {
	Base
	Name        string
	InstallName string
	UserName    string
	Rule        *rule.Rule
	Sources     []Source
	TargetType  targettype.Type
	NoRename    bool
	dropOpts    bool
}

// NewBuildTarget constructs a target from spec, resolving any
// self-references in its own outgoing projections.
func NewBuildTarget(spec TargetSpec) *BuildTarget {
	t := &BuildTarget{
		Name:        spec.Name,
		InstallName: spec.InstallName,
		UserName:    spec.UserName,
		Rule:        spec.Rule,
		Sources:     spec.Sources,
		TargetType:  spec.TargetType,
		NoRename:    spec.NoRename,
	}
	t.Base = NewBase(t, spec.OnUseInputs, spec.OnUseDeps, spec.OnUseVariables)
	return t
}

// DropOpts marks this target's `opts` variable as folded into its rule
// command (§4.7c); EffectiveVariables will stop reporting it.
func (t *BuildTarget) DropOpts() { t.dropOpts = true }

// OptsDropped reports whether DropOpts has been called.
func (t *BuildTarget) OptsDropped() bool { return t.dropOpts }

// EffectiveInputs collects this target's build inputs by projecting
// from each of its sources under its own rule name.
func (t *BuildTarget) EffectiveInputs() []Source {
	var result []Source
	for _, s := range t.Sources {
		result = append(result, selectSources(s.Projections().InputsByKey, t.Rule.Name)...)
	}
	return result
}

// EffectiveDeps is EffectiveInputs's counterpart for order-only deps.
func (t *BuildTarget) EffectiveDeps() []Source {
	var result []Source
	for _, s := range t.Sources {
		result = append(result, selectSources(s.Projections().DepsByKey, t.Rule.Name)...)
	}
	return result
}

// EffectiveVariables merges every source's contributed variables under
// this target's rule name. Per variable, values are merged by
// order-preserving de-duplication and joined with a single space; the
// `opts` entry is omitted once DropOpts has been called.
func (t *BuildTarget) EffectiveVariables() map[string]string {
	ordered := map[string][]string{}
	seen := map[string]map[string]bool{}
	for _, s := range t.Sources {
		vars := selectVariables(s.Projections().VariablesByKey, t.Rule.Name)
		for name, values := range vars {
			if seen[name] == nil {
				seen[name] = map[string]bool{}
			}
			for _, v := range values {
				if v == "" || seen[name][v] {
					continue
				}
				seen[name][v] = true
				ordered[name] = append(ordered[name], v)
			}
		}
	}
	result := make(map[string]string, len(ordered))
	for name, values := range ordered {
		result[name] = strings.Join(values, " ")
	}
	if t.dropOpts {
		delete(result, "opts")
	}
	return result
}

// Fingerprint is this target's identity: name, rule fingerprint, sorted
// fingerprints of its effective inputs and deps, and its sorted
// effective variables.
func (t *BuildTarget) Fingerprint() fingerprint.Fingerprint {
	b := fingerprint.New().String(t.Name).Fingerprint(t.Rule.Fingerprint())

	inputs := t.EffectiveInputs()
	inputFPs := make([]fingerprint.Fingerprint, len(inputs))
	for i, s := range inputs {
		inputFPs[i] = s.Fingerprint()
	}
	b = b.SortedFingerprints(inputFPs)

	deps := t.EffectiveDeps()
	depFPs := make([]fingerprint.Fingerprint, len(deps))
	for i, s := range deps {
		depFPs[i] = s.Fingerprint()
	}
	b = b.SortedFingerprints(depFPs)

	vars := t.EffectiveVariables()
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	pairs := make([][2]string, len(names))
	for i, name := range names {
		pairs[i] = [2]string{name, vars[name]}
	}
	b = b.StringPairs(pairs)

	return b.Build()
}
