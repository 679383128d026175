package pyctx

import (
	"fmt"
	"os"

	"github.com/pyrate-build/pyrate/internal/external"
)

// FindExternal runs build (typically one of the internal/external
// catalogue constructors) and captures any probe/version failure
// rather than propagating it: per §7's propagation policy, probe and
// version errors during find_external/find_toolchain are reported to
// standard error and the call returns a null sentinel so a script can
// branch on availability.
func (c *Context) FindExternal(build func() (*external.External, error)) (*external.External, bool) {
	e, err := build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "find_external: %v\n", err)
		return nil, false
	}
	return e, true
}

// UseExternal is find_external plus registration: on success, e is
// appended to this Context's ImplicitInputs so every object_file/link
// call made afterwards picks up its flags automatically, the way
// use_external implicitly applies an external library project-wide
// rather than requiring every call site to list it.
func (c *Context) UseExternal(build func() (*external.External, error)) (*external.External, bool) {
	e, ok := c.FindExternal(build)
	if !ok {
		return nil, false
	}
	c.ImplicitInputs = append(c.ImplicitInputs, e)
	return e, true
}

// FindToolchain looks up role without binding it, for a script that
// wants to branch on whether a role is already resolvable.
func (c *Context) FindToolchain(role string) (*external.External, bool) {
	return c.Tools.Get(role)
}

// UseToolchain runs build and, on success, binds its result to role as
// an explicit ToolHolder override (taking precedence over whatever the
// backing Toolchain would otherwise resolve, §3 "ToolHolder"). A probe
// or version failure is captured the same way as FindExternal.
func (c *Context) UseToolchain(role string, build func() (*external.External, error)) (*external.External, bool) {
	e, ok := c.FindExternal(build)
	if !ok {
		return nil, false
	}
	c.Tools.Set(role, e)
	return e, true
}

// CreateExternal is the power-user construct (§6): it accepts an
// already-built External (typically assembled by hand from raw Rule/
// InputFile/BuildSource values rather than a catalogue constructor) and
// returns it unchanged, for symmetry with FindExternal/UseExternal at
// the build-script call site.
func (c *Context) CreateExternal(e *external.External) *external.External { return e }
