package pyctx

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/pyrate-build/pyrate/internal/buildgraph"
	"github.com/pyrate-build/pyrate/internal/external"
	"github.com/pyrate-build/pyrate/internal/targettype"
)

// LinkMode selects how link() turns buildable inputs into the final
// target (§4.5 point 3).
type LinkMode string

const (
	// LinkSingle compiles each buildable input into its own object
	// target, then links the objects together. The default.
	LinkSingle LinkMode = "single"
	// LinkDirect compiles and links in one step via a direct
	// compile_link_* rule, valid only when every buildable input
	// shares a single target type; otherwise link() silently
	// downgrades to LinkSingle.
	LinkDirect LinkMode = "direct"
)

func isLanguageType(t targettype.Type) bool {
	switch t {
	case targettype.C, targettype.Cpp, targettype.Fortran, targettype.Swig:
		return true
	}
	return false
}

func isLinkReadyType(t targettype.Type) bool {
	switch t {
	case targettype.Object, targettype.Shared, targettype.Static:
		return true
	}
	return false
}

// Link implements §4.5's unified link(name, target_type, inputs,
// implicit_inputs, link_mode) procedure. noRename sets the resulting
// target's no_rename flag (§4.7b), keeping its name through the
// canonicaliser's collision pass unless another no_rename target
// already claims it.
func (c *Context) Link(name string, targetType targettype.Type, inputs, implicitInputs interface{}, compilerOpts, linkerOpts string, mode LinkMode, noRename bool) (*buildgraph.BuildTarget, error) {
	sources, err := CoerceInputs(inputs)
	if err != nil {
		return nil, err
	}
	extra, err := CoerceInputs(implicitInputs)
	if err != nil {
		return nil, err
	}

	var buildable, linkReady, passive []buildgraph.Source
	var buildableTypes = map[targettype.Type]bool{}
	for _, s := range sources {
		tt, ok, err := c.classify(s)
		if err != nil {
			return nil, err
		}
		switch {
		case ok && isLanguageType(tt):
			buildable = append(buildable, s)
			buildableTypes[tt] = true
		case ok && isLinkReadyType(tt):
			linkReady = append(linkReady, s)
		default:
			passive = append(passive, s)
		}
	}

	environment := append([]buildgraph.Source(nil), c.Platform.RequiredInputs(targetType, c.Tools)...)
	environment = append(environment, extra...)
	environment = append(environment, passive...)

	if mode == "" {
		mode = LinkSingle
	}
	if mode == LinkDirect && len(buildableTypes) > 1 {
		mode = LinkSingle
	}

	var linkInputs []buildgraph.Source
	var target *buildgraph.BuildTarget

	if mode == LinkDirect && len(buildable) > 0 {
		var inputType targettype.Type
		for tt := range buildableTypes {
			inputType = tt
		}
		r, err := c.FindRule(inputType, targetType)
		if err != nil {
			return nil, err
		}
		all := append([]buildgraph.Source(nil), c.ImplicitInputs...)
		all = append(all, environment...)
		all = append(all, buildable...)
		all = append(all, linkReady...)
		all = append(all, buildgraph.AddRuleVars(map[string]string{"opts": c.mergeCompilerOpts(compilerOpts)})...)
		all = append(all, buildgraph.AddRuleVars(map[string]string{"opts": linkerOpts})...)
		target = buildgraph.NewBuildTarget(buildgraph.TargetSpec{
			Name:       c.join(name),
			Rule:       r,
			Sources:    filterForStatic(targetType, all),
			TargetType: targetType,
			NoRename:   noRename,
		})
	} else {
		var objects []buildgraph.Source
		for _, s := range buildable {
			tt, _, _ := c.classify(s)
			objSources := append([]buildgraph.Source(nil), environment...)
			objSources = append(objSources, s)
			obj, err := c.objectFileFrom(objectName(name, s), tt, objSources, compilerOpts)
			if err != nil {
				return nil, err
			}
			objects = append(objects, obj)
		}
		linkInputs = append(linkInputs, c.ImplicitInputs...)
		linkInputs = append(linkInputs, environment...)
		linkInputs = append(linkInputs, objects...)
		linkInputs = append(linkInputs, linkReady...)
		linkInputs = append(linkInputs, buildgraph.AddRuleVars(map[string]string{"opts": linkerOpts})...)

		r, err := c.FindRule(targettype.Object, targetType)
		if err != nil {
			return nil, err
		}
		target = buildgraph.NewBuildTarget(buildgraph.TargetSpec{
			Name:       c.join(name),
			Rule:       r,
			Sources:    filterForStatic(targetType, linkInputs),
			TargetType: targetType,
			NoRename:   noRename,
		})
	}

	shapeLinkTarget(target, targetType)
	c.Registry.Add(target)
	c.Registry.AddToAll(target)
	return target, nil
}

// filterForStatic implements §4.5 point 5: a static archive carries no
// link-time flags, so Externals (pthread and the compiler families
// themselves) are dropped from its input list.
func filterForStatic(targetType targettype.Type, sources []buildgraph.Source) []buildgraph.Source {
	if targetType != targettype.Static {
		return sources
	}
	filtered := make([]buildgraph.Source, 0, len(sources))
	for _, s := range sources {
		if _, ok := s.(*external.External); ok {
			continue
		}
		filtered = append(filtered, s)
	}
	return filtered
}

// shapeLinkTarget implements §4.5 point 6's target-type-specific
// on-use shaping.
func shapeLinkTarget(t *buildgraph.BuildTarget, targetType targettype.Type) {
	switch targetType {
	case targettype.Shared:
		dir := path.Dir(t.Name)
		linkName := strings.TrimPrefix(strings.TrimSuffix(path.Base(t.Name), path.Ext(t.Name)), "lib")
		t.Base = buildgraph.NewBase(t, nil,
			[]buildgraph.KeyedSources{{Key: "", Values: []buildgraph.Source{buildgraph.SelfRef}}},
			[]buildgraph.KeyedVariables{{Key: "", Vars: buildgraph.VariableSet{
				"opts": {"-L" + dir, "-Wl,-rpath " + dir, "-l" + linkName},
			}}})
	case targettype.Static:
		t.Base = buildgraph.NewBase(t, []buildgraph.KeyedSources{{Key: "", Values: []buildgraph.Source{buildgraph.SelfRef}}}, nil, nil)
	}
}

// objectName derives a per-input object-target name for single-mode
// linking from the source's advertised name, stripping its extension.
func objectName(linkName string, s buildgraph.Source) string {
	base := buildgraph.SourceName(s)
	base = strings.TrimSuffix(path.Base(base), path.Ext(base))
	if base == "" {
		return linkName
	}
	return base
}

// Executable is the `exe` convenience wrapper over Link (§4.5 point 6
// "exe: neither deps nor inputs propagated"). noRename is threaded
// through to Link so `executable(..., no_rename=True)` (§8 scenario 6)
// keeps its name across the canonicaliser's collision pass.
func (c *Context) Executable(name string, inputs interface{}, compilerOpts, linkerOpts string, noRename bool) (*buildgraph.BuildTarget, error) {
	return c.Link(name, targettype.Exe, inputs, nil, compilerOpts, linkerOpts, LinkSingle, noRename)
}

// SharedLibrary is the `shared_library` convenience wrapper. A nil
// inputs argument selects the reference-only construction described in
// §4.5: the named path must already exist, and the call returns a
// RuleVariables carrier rather than registering a target; noRename is
// meaningless in that path and is simply ignored.
func (c *Context) SharedLibrary(name string, inputs interface{}, compilerOpts, linkerOpts string, noRename bool) (buildgraph.Source, error) {
	if inputs == nil {
		return c.referenceSharedLibrary(name)
	}
	return c.Link(name, targettype.Shared, inputs, nil, compilerOpts, linkerOpts, LinkSingle, noRename)
}

// StaticLibrary is the `static_library` convenience wrapper, with the
// same reference-only behaviour on a nil inputs argument.
func (c *Context) StaticLibrary(name string, inputs interface{}, compilerOpts string, noRename bool) (buildgraph.Source, error) {
	if inputs == nil {
		return c.referenceStaticLibrary(name)
	}
	return c.Link(name, targettype.Static, inputs, nil, compilerOpts, "", LinkSingle, noRename)
}

func (c *Context) referenceSharedLibrary(name string) (buildgraph.Source, error) {
	if _, err := os.Stat(name); err != nil {
		return nil, fmt.Errorf("shared_library %q: reference path does not exist: %w", name, err)
	}
	dir := path.Dir(name)
	linkName := strings.TrimPrefix(strings.TrimSuffix(path.Base(name), path.Ext(name)), "lib")
	return buildgraph.NewRuleVariables(buildgraph.VariableSet{
		"opts": {"-L" + dir, "-Wl,-rpath " + dir, "-l" + linkName},
	}), nil
}

func (c *Context) referenceStaticLibrary(name string) (buildgraph.Source, error) {
	if _, err := os.Stat(name); err != nil {
		return nil, fmt.Errorf("static_library %q: reference path does not exist: %w", name, err)
	}
	return buildgraph.NewInputFile(name), nil
}
