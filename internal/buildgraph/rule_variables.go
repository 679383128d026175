package buildgraph

import (
	"sort"

	"github.com/pyrate-build/pyrate/internal/fingerprint"
)

// RuleVariables is a carrier that injects variable values (typically an
// `opts` list) into whatever target consumes it. It never contributes
// inputs or deps.
type RuleVariables struct {
	Base
	Vars VariableSet
}

// NewRuleVariables wraps a set of rule-variable contributions, applied
// under any rule (the None default).
func NewRuleVariables(vars VariableSet) *RuleVariables {
	rv := &RuleVariables{Vars: vars}
	rv.Base = NewBase(rv, nil, nil, []KeyedVariables{{Key: "", Vars: vars}})
	return rv
}

// AddRuleVars is the Go equivalent of pyrate's add_rule_vars helper: it
// builds a single-element []Source wrapping the non-empty named
// variables, or nil if every value was empty. Context operations use
// this to fold a `compiler_opts`/`linker_opts` string argument into the
// target's build_src list.
func AddRuleVars(vars map[string]string) []Source {
	filtered := VariableSet{}
	for k, v := range vars {
		if v != "" {
			filtered[k] = []string{v}
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	return []Source{NewRuleVariables(filtered)}
}

// Fingerprint identifies a RuleVariables carrier by its sorted variable
// contributions.
func (r *RuleVariables) Fingerprint() fingerprint.Fingerprint {
	b := fingerprint.New().String("RuleVariables")
	names := make([]string, 0, len(r.Vars))
	for name := range r.Vars {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b = b.String(name).Strings(r.Vars[name])
	}
	return b.Build()
}
