// Package ninja serialises a canonicalised registry into a Ninja
// build manifest (§6.3), grounded directly on original_source's
// NinjaBuildFileWriter.
package ninja

import (
	"bufio"
	"fmt"
	"io"
	"sort"

	"github.com/pyrate-build/pyrate/internal/buildgraph"
	"github.com/pyrate-build/pyrate/internal/registry"
)

// Write emits c's rules and targets to w, followed by a `default` line
// naming defaults unless defaults is empty or is the single phony `all`
// target.
func Write(w io.Writer, c *registry.Canonical, defaults []*buildgraph.BuildTarget) error {
	bw := bufio.NewWriter(w)

	emitted := map[string]bool{}
	for _, r := range c.Rules {
		keys := make([]string, 0, len(r.Defaults))
		for k := range r.Defaults {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if emitted[k] {
				continue
			}
			emitted[k] = true
			fmt.Fprintf(bw, "%s = %s\n", k, r.Defaults[k])
		}
	}
	if len(emitted) > 0 {
		bw.WriteString("\n")
	}

	for _, r := range c.Rules {
		// phony is built into Ninja and cannot be declared again.
		if r.Name == "phony" {
			continue
		}
		fmt.Fprintf(bw, "rule %s\n", r.Name)
		fmt.Fprintf(bw, "  command = %s\n", r.Cmd)
		fmt.Fprintf(bw, "  description = %s\n", r.Description)
		for _, kv := range r.Params {
			fmt.Fprintf(bw, "  %s = %s\n", kv.Key, kv.Value)
		}
		bw.WriteString("\n")
	}

	for _, t := range c.Targets {
		writeTarget(bw, t)
	}

	if len(defaults) > 0 && !(len(defaults) == 1 && defaults[0].Name == "all") {
		names := make([]string, len(defaults))
		for i, t := range defaults {
			names[i] = t.Name
		}
		fmt.Fprintf(bw, "default %s\n", joinNames(names))
	}

	return bw.Flush()
}

func writeTarget(bw *bufio.Writer, t *buildgraph.BuildTarget) {
	inputs := sourceNames(t.EffectiveInputs())
	fmt.Fprintf(bw, "build %s: %s %s", t.Name, t.Rule.Name, joinNames(inputs))
	if deps := sourceNames(t.EffectiveDeps()); len(deps) > 0 {
		fmt.Fprintf(bw, " | %s", joinNames(deps))
	}
	bw.WriteString("\n")

	vars := t.EffectiveVariables()
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(bw, "  %s = %s\n", k, vars[k])
	}
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
