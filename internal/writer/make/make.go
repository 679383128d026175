// Package make serialises a canonicalised registry into a Makefile
// (§6.4). The Ninja writer is the authoritative contract (§9 open
// question 3); this backend re-derives the same rule/target data,
// substituting $in/$out/${var} textually into each recipe line rather
// than leaning on Make's own variable expansion, so that a diff
// between the two backends' build actions stays legible.
package make

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"sort"

	"github.com/alessio/shellescape"

	"github.com/pyrate-build/pyrate/internal/buildgraph"
	"github.com/pyrate-build/pyrate/internal/registry"
)

var placeholderPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// Write emits c's targets as a Makefile to w. defaults names the
// default goal(s); an empty list defaults the goal to the first
// target in c.Targets.
func Write(w io.Writer, c *registry.Canonical, defaults []*buildgraph.BuildTarget) error {
	bw := bufio.NewWriter(w)

	globals := map[string]string{}
	var globalKeys []string
	for _, r := range c.Rules {
		keys := make([]string, 0, len(r.Defaults))
		for k := range r.Defaults {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if _, ok := globals[k]; ok {
				continue
			}
			globals[k] = r.Defaults[k]
			globalKeys = append(globalKeys, k)
		}
	}
	for _, k := range globalKeys {
		fmt.Fprintf(bw, "%s := %s\n", k, globals[k])
	}
	if len(globalKeys) > 0 {
		bw.WriteString("\n")
	}

	goal := defaultGoal(defaults)
	if goal != "" {
		fmt.Fprintf(bw, ".DEFAULT_GOAL := %s\n\n", goal)
	}
	if len(defaults) > 1 {
		names := make([]string, len(defaults))
		for i, t := range defaults {
			names[i] = t.Name
		}
		fmt.Fprintf(bw, ".PHONY: default_target\ndefault_target: %s\n\n", joinNames(names))
	}

	var outputs []string
	for _, t := range c.Targets {
		outputs = append(outputs, t.Name)
		writeTarget(bw, t, globals)
	}

	bw.WriteString(".PHONY: clean\nclean:\n")
	if len(outputs) > 0 {
		fmt.Fprintf(bw, "\trm -f %s\n", joinNames(outputs))
	}

	return bw.Flush()
}

// defaultGoal picks the Makefile's default goal per §6.4: the first
// listed default, or "default_target" when more than one is listed.
func defaultGoal(defaults []*buildgraph.BuildTarget) string {
	if len(defaults) == 0 {
		return ""
	}
	if len(defaults) == 1 {
		return defaults[0].Name
	}
	return "default_target"
}

func writeTarget(bw *bufio.Writer, t *buildgraph.BuildTarget, globals map[string]string) {
	inputs := sourceNames(t.EffectiveInputs())
	deps := sourceNames(t.EffectiveDeps())

	// $in/$out are inlined straight into a shell recipe line (unlike
	// Ninja, which parses its build line itself), so a name containing
	// a space or shell metacharacter needs escaping here.
	vars := t.EffectiveVariables()
	subst := func(cmd string) string {
		return substitute(cmd, shellescape.QuoteCommand(inputs), shellescape.Quote(t.Name), globals, vars)
	}

	if depfile, ok := t.Rule.Param("depfile"); ok {
		if d, ok := t.Rule.Param("deps"); ok && d == "gcc" {
			fmt.Fprintf(bw, "-include %s\n", subst(depfile))
		}
	}

	if t.Rule.Name == "phony" {
		fmt.Fprintf(bw, ".PHONY: %s\n", t.Name)
	}
	fmt.Fprintf(bw, "%s: %s\n", t.Name, joinNames(append(append([]string{}, inputs...), deps...)))
	fmt.Fprintf(bw, "\t%s\n", subst(t.Rule.Cmd))
}

func substitute(cmd, in, out string, globals, vars map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(cmd, func(tok string) string {
		m := placeholderPattern.FindStringSubmatch(tok)
		name := m[1]
		if name == "" {
			name = m[2]
		}
		switch name {
		case "in":
			return in
		case "out":
			return out
		}
		if v, ok := vars[name]; ok {
			return v
		}
		if v, ok := globals[name]; ok {
			return v
		}
		return ""
	})
}

func sourceNames(sources []buildgraph.Source) []string {
	names := make([]string, 0, len(sources))
	for _, s := range sources {
		if name := buildgraph.SourceName(s); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func joinNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += " "
		}
		out += n
	}
	return out
}
