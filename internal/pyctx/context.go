// Package pyctx implements the Context façade: the single entry point a
// build script (or a power user) drives to resolve rules, classify
// sources, synthesise object/link/install targets and compose nested
// scripts (§4.2-§4.6, §4.10).
package pyctx

import (
	"fmt"
	"path"

	"github.com/pyrate-build/pyrate/internal/buildgraph"
	"github.com/pyrate-build/pyrate/internal/platform"
	"github.com/pyrate-build/pyrate/internal/registry"
	"github.com/pyrate-build/pyrate/internal/rule"
	"github.com/pyrate-build/pyrate/internal/targettype"
	"github.com/pyrate-build/pyrate/internal/toolchain"
)

// Context is the mutable façade threaded through a build script's
// operations. A root Context owns its Registry and Platform; nested
// Contexts created by Include share both with their parent and carry
// their own prefix, base paths and cloned ToolHolder (§4.10).
type Context struct {
	Registry *registry.Registry
	Platform *platform.Platform
	Tools    *toolchain.ToolHolder

	// Prefix is joined onto every name this Context constructs, so a
	// nested include() can namespace its targets under the parent's.
	Prefix string

	// ObjectBasePath is joined onto Prefix for object_file's output
	// path (§4.4 point 3's "basepath_object_file").
	ObjectBasePath string

	// ImplicitInputs is added to every object/link target this
	// Context constructs — environment-wide passive sources such as
	// global include-path RuleVariables, inherited across an
	// inherit=true include (§4.10).
	ImplicitInputs []buildgraph.Source

	// DefaultCompilerOpts is folded into every object_file call's own
	// compiler_opts (prepended, so a call's explicit opts still come
	// last), seeded from the layered configuration's Build.OptimiseOpts
	// (§3.1).
	DefaultCompilerOpts string

	// LibSearchPath is appended after match_libs's own dirs argument,
	// seeded from the layered configuration's External.SearchPath
	// (§3.1), so a project-wide library location doesn't need repeating
	// at every match_libs call site.
	LibSearchPath []string
}

// New returns a root Context with a fresh Registry, the given Platform
// and a ToolHolder backed by tc (tc may be nil for the power-user
// Context(...) construction path, §6).
func New(p *platform.Platform, tc *toolchain.Toolchain) *Context {
	return &Context{
		Registry: registry.New(),
		Platform: p,
		Tools:    toolchain.NewToolHolder(tc),
	}
}

// mergeCompilerOpts prepends DefaultCompilerOpts onto a call's own
// compilerOpts, so the configured default always sorts before an
// object_file/link call's explicit flags on the command line.
func (c *Context) mergeCompilerOpts(compilerOpts string) string {
	switch {
	case c.DefaultCompilerOpts == "":
		return compilerOpts
	case compilerOpts == "":
		return c.DefaultCompilerOpts
	default:
		return c.DefaultCompilerOpts + " " + compilerOpts
	}
}

// join applies this Context's Prefix to a user-supplied name.
func (c *Context) join(name string) string {
	if c.Prefix == "" {
		return name
	}
	return path.Join(c.Prefix, name)
}

// FindRule implements §4.2: consult tools in stable (role-sorted)
// order, then platform install rules, returning a clone so the
// caller's mutations never leak back into the tool-owned template.
func (c *Context) FindRule(from, to targettype.Type) (*rule.Rule, error) {
	want := targettype.Connection{From: from, To: to}
	for _, role := range c.Tools.Roles() {
		ext, ok := c.Tools.Get(role)
		if !ok {
			continue
		}
		for _, r := range ext.Rules {
			if r.Connection == want {
				return r.Clone(), nil
			}
		}
	}
	if to == targettype.Install {
		if r, ok := c.Platform.InstallRuleFor(from); ok {
			return r.Clone(), nil
		}
	}
	return nil, fmt.Errorf("find_rule: no rule connects %s", want)
}

// classify implements §4.3. The bool result is false for a passive
// input (no tool claims its extension, or it is a structural carrier
// like RuleVariables/External); a non-nil error means more than one
// tool disagreed about the extension.
func (c *Context) classify(s buildgraph.Source) (targettype.Type, bool, error) {
	switch v := s.(type) {
	case *buildgraph.BuildTarget:
		if v.TargetType != "" {
			return v.TargetType, true, nil
		}
		return "", false, nil
	case *buildgraph.TargetAlias:
		return c.classify(v.Target)
	case *buildgraph.InputFile:
		return c.classifyExt(path.Ext(v.Name))
	default:
		return "", false, nil
	}
}

func (c *Context) classifyExt(ext string) (targettype.Type, bool, error) {
	found := map[targettype.Type]bool{}
	for _, role := range c.Tools.Roles() {
		ext2, ok := c.Tools.Get(role)
		if !ok {
			continue
		}
		if tt, ok := ext2.ExtHandlers[ext]; ok {
			found[tt] = true
		}
	}
	switch len(found) {
	case 0:
		return "", false, nil
	case 1:
		for tt := range found {
			return tt, true, nil
		}
	}
	return "", false, fmt.Errorf("classify: extension %q matches more than one target type; set target_type explicitly", ext)
}

// Sibling exposes child as the power-user `Context(...)` construct
// (§6): a new Context sharing this one's Registry and Platform, with
// its own namespace prefix and a cloned ToolHolder it can override
// independently, mirroring pyrate.py's create_ctx.
func (c *Context) Sibling(prefix string, inherit bool) *Context {
	return c.child(prefix, inherit)
}

// child returns a nested Context for Include: it shares the Registry
// and Platform, clones the ToolHolder, and joins name onto Prefix. When
// inherit is set, ObjectBasePath and ImplicitInputs carry over too
// (§4.10).
func (c *Context) child(name string, inherit bool) *Context {
	child := &Context{
		Registry: c.Registry,
		Platform: c.Platform,
		Tools:    c.Tools.Clone(),
		Prefix:   c.join(name),
	}
	if inherit {
		child.ObjectBasePath = c.ObjectBasePath
		child.ImplicitInputs = append([]buildgraph.Source(nil), c.ImplicitInputs...)
		child.DefaultCompilerOpts = c.DefaultCompilerOpts
		child.LibSearchPath = append([]string(nil), c.LibSearchPath...)
	}
	return child
}
