package pyctx

import (
	"fmt"
	"path"

	"github.com/pyrate-build/pyrate/internal/buildgraph"
	"github.com/pyrate-build/pyrate/internal/targettype"
)

// ObjectFile implements §4.4: compiles inputs (coerced per
// CoerceInputs) into a single object target using the rule connecting
// their shared input target type to `object`.
func (c *Context) ObjectFile(name string, inputs interface{}, compilerOpts string) (*buildgraph.BuildTarget, error) {
	sources, err := CoerceInputs(inputs)
	if err != nil {
		return nil, err
	}
	inputType, err := c.soleBuildableType(sources, name)
	if err != nil {
		return nil, err
	}
	return c.objectFileFrom(name, inputType, sources, compilerOpts)
}

// soleBuildableType implements §4.4 point 2: collect the target types
// of every buildable (non-passive) source and require exactly one.
func (c *Context) soleBuildableType(sources []buildgraph.Source, name string) (targettype.Type, error) {
	seen := map[targettype.Type]bool{}
	for _, s := range sources {
		tt, buildable, err := c.classify(s)
		if err != nil {
			return "", err
		}
		if buildable {
			seen[tt] = true
		}
	}
	switch len(seen) {
	case 0:
		return "", fmt.Errorf("object_file %q: no buildable input target type found", name)
	case 1:
		for tt := range seen {
			return tt, nil
		}
	}
	return "", fmt.Errorf("object_file %q: inputs span more than one target type; set target_type explicitly", name)
}

func (c *Context) objectFileFrom(name string, inputType targettype.Type, sources []buildgraph.Source, compilerOpts string) (*buildgraph.BuildTarget, error) {
	r, err := c.FindRule(inputType, targettype.Object)
	if err != nil {
		return nil, err
	}
	ext, _ := c.Platform.Extension(targettype.Object)
	outName := c.join(path.Join(c.ObjectBasePath, name+ext))

	all := append([]buildgraph.Source(nil), c.ImplicitInputs...)
	all = append(all, sources...)
	all = append(all, buildgraph.AddRuleVars(map[string]string{"opts": c.mergeCompilerOpts(compilerOpts)})...)

	target := buildgraph.NewBuildTarget(buildgraph.TargetSpec{
		Name:        outName,
		Rule:        r,
		Sources:     all,
		TargetType:  targettype.Object,
		OnUseInputs: []buildgraph.KeyedSources{{Key: "", Values: []buildgraph.Source{buildgraph.SelfRef}}},
	})
	c.Registry.Add(target)
	return target, nil
}
