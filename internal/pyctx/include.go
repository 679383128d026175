package pyctx

import (
	"github.com/pyrate-build/pyrate/internal/buildgraph"
	"github.com/pyrate-build/pyrate/internal/rule"
)

// phonyRule is the no-op aggregate rule Include uses to bundle a nested
// script's targets under one user-visible name. Both writers
// special-case a rule named "phony": the Ninja writer emits no rule
// block for it and uses Ninja's built-in phony rule, and the Make
// writer marks its targets .PHONY.
var phonyRule = &rule.Rule{Name: "phony", Cmd: "", Description: "phony aggregate"}

// Include implements §4.10: run executes the nested script against a
// freshly constructed child Context that shares this Context's
// Registry and Platform and carries a cloned ToolHolder. After run
// returns, every target and install-target the Registry gained during
// the call is collected; if targetName is non-empty, a phony aggregate
// target bundling them is registered and returned.
func (c *Context) Include(sub string, inherit bool, targetName string, run func(child *Context) error) (*buildgraph.BuildTarget, error) {
	child := c.child(sub, inherit)

	markT, markI := c.Registry.Mark()
	if err := run(child); err != nil {
		return nil, err
	}
	newTargets, newInstalls := c.Registry.Since(markT, markI)

	if targetName == "" {
		return nil, nil
	}

	sources := make([]buildgraph.Source, 0, len(newTargets)+len(newInstalls))
	for _, t := range newTargets {
		sources = append(sources, buildgraph.NewTargetAlias(t))
	}
	for _, t := range newInstalls {
		sources = append(sources, buildgraph.NewTargetAlias(t))
	}

	aggregate := buildgraph.NewBuildTarget(buildgraph.TargetSpec{
		Name:     c.join(targetName),
		Rule:     phonyRule,
		Sources:  sources,
		NoRename: true,
	})
	c.Registry.Add(aggregate)
	return aggregate, nil
}
