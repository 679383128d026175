package pyctx

import (
	"path"

	"github.com/pyrate-build/pyrate/internal/buildgraph"
	"github.com/pyrate-build/pyrate/internal/targettype"
)

// Install implements §4.6: for each target, derive its install
// destination, build an install target aliasing it, and register the
// result in both the Registry and the separate install-targets list
// used to synthesise the phony `install` aggregate.
func (c *Context) Install(targets []*buildgraph.BuildTarget, destination string) ([]*buildgraph.BuildTarget, error) {
	results := make([]*buildgraph.BuildTarget, 0, len(targets))
	for _, t := range targets {
		dir := destination
		if dir == "" {
			if p, ok := c.Platform.InstallPath(t.TargetType); ok {
				dir = p
			}
		}
		installName := t.InstallName
		if installName == "" {
			installName = path.Base(t.Name)
		}

		r, err := c.FindRule(t.TargetType, targettype.Install)
		if err != nil {
			return nil, err
		}
		installed := buildgraph.NewBuildTarget(buildgraph.TargetSpec{
			Name:       path.Join(dir, installName),
			Rule:       r,
			Sources:    []buildgraph.Source{buildgraph.NewTargetAlias(t)},
			TargetType: targettype.Install,
		})
		c.Registry.Add(installed)
		c.Registry.AddInstallTarget(installed)
		results = append(results, installed)
	}
	return results, nil
}
