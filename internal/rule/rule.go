// Package rule implements the emittable command template (§3 "Rule")
// that a Ninja or Make backend turns into a `rule`/recipe block.
package rule

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/pyrate-build/pyrate/internal/fingerprint"
	"github.com/pyrate-build/pyrate/internal/targettype"
)

// placeholderPattern matches both the $VAR and ${var} spellings of a
// rule template variable.
var placeholderPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// sentinels are the placeholders every rule is allowed to use without
// declaring them in Defaults or Params.
var sentinels = map[string]bool{"in": true, "out": true, "opts": true}

// A KV is an ordered key/value pair attached to a Rule, e.g. Ninja's
// `depfile`/`deps` parameters.
type KV struct {
	Key   string
	Value string
}

// A Rule is an emittable command template with defaults and metadata,
// plus a from/to Connection consulted only during graph construction.
type Rule struct {
	Name        string
	Cmd         string
	Description string
	Defaults    map[string]string
	Params      []KV
	Connection  targettype.Connection
}

// New builds a Rule and checks the placeholder-closure invariant:
// every $VAR/${var} in cmd other than in/out/opts must be a key in
// defaults or one of the params.
func New(name, cmd, description string, defaults map[string]string, params ...KV) (*Rule, error) {
	r := &Rule{
		Name:        name,
		Cmd:         cmd,
		Description: description,
		Defaults:    copyDefaults(defaults),
		Params:      append([]KV(nil), params...),
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Placeholders returns the distinct template variable names used in
// Cmd, in first-occurrence order, excluding none of the sentinels.
func (r *Rule) Placeholders() []string {
	seen := map[string]bool{}
	var names []string
	for _, m := range placeholderPattern.FindAllStringSubmatch(r.Cmd, -1) {
		name := m[1]
		if name == "" {
			name = m[2]
		}
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// Validate checks the placeholder-closure invariant described in §3:
// every non-sentinel placeholder must resolve to a default or a param.
func (r *Rule) Validate() error {
	known := map[string]bool{}
	for k := range r.Defaults {
		known[k] = true
	}
	for _, kv := range r.Params {
		known[kv.Key] = true
	}
	for _, name := range r.Placeholders() {
		if sentinels[name] || known[name] {
			continue
		}
		return fmt.Errorf("rule %q: placeholder $%s has no default or param", r.Name, name)
	}
	return nil
}

// Fingerprint is the Rule's identity: name, cmd, description, sorted
// defaults, sorted params. Connection is deliberately excluded — it's
// construction-time routing metadata, not part of what gets emitted.
func (r *Rule) Fingerprint() fingerprint.Fingerprint {
	b := fingerprint.New().String(r.Name).String(r.Cmd).String(r.Description)
	b = b.StringPairs(sortedDefaults(r.Defaults))
	b = b.StringPairs(sortedParams(r.Params))
	return b.Build()
}

// Clone returns a deep copy whose mutation can't leak back into a
// tool-owned template. Context.find_rule always returns a clone (§4.2).
func (r *Rule) Clone() *Rule {
	return &Rule{
		Name:        r.Name,
		Cmd:         r.Cmd,
		Description: r.Description,
		Defaults:    copyDefaults(r.Defaults),
		Params:      append([]KV(nil), r.Params...),
		Connection:  r.Connection,
	}
}

// Param looks up a single param value by key.
func (r *Rule) Param(key string) (string, bool) {
	for _, kv := range r.Params {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

func copyDefaults(defaults map[string]string) map[string]string {
	out := make(map[string]string, len(defaults))
	for k, v := range defaults {
		out[k] = v
	}
	return out
}

func sortedDefaults(defaults map[string]string) [][2]string {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([][2]string, len(keys))
	for i, k := range keys {
		pairs[i] = [2]string{k, defaults[k]}
	}
	return pairs
}

func sortedParams(params []KV) [][2]string {
	sorted := append([]KV(nil), params...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })
	pairs := make([][2]string, len(sorted))
	for i, kv := range sorted {
		pairs[i] = [2]string{kv.Key, kv.Value}
	}
	return pairs
}
