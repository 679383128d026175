// Package toolchain implements the lazy tool-role bindings (§3
// "Toolchain") and the mutable façade (§3 "ToolHolder") a Context
// consults when resolving a rule for a given role.
package toolchain

import "github.com/pyrate-build/pyrate/internal/external"

// Factory lazily constructs the external bound to a tool role. It is
// invoked at most once per role; a non-nil error downgrades the role to
// permanently absent without aborting the run (§7 propagation policy).
type Factory func() (*external.External, error)

// Toolchain is a mapping from tool role name (c, cpp, fortran, linker,
// ...) to a lazy external factory.
type Toolchain struct {
	order     []string
	factories map[string]Factory
	resolved  map[string]*external.External
	failed    map[string]error
}

// New returns an empty Toolchain.
func New() *Toolchain {
	return &Toolchain{
		factories: map[string]Factory{},
		resolved:  map[string]*external.External{},
		failed:    map[string]error{},
	}
}

// Bind registers the factory for role, replacing any previous binding
// and clearing any cached resolution or failure for it.
func (tc *Toolchain) Bind(role string, f Factory) {
	if _, known := tc.factories[role]; !known {
		tc.order = append(tc.order, role)
	}
	tc.factories[role] = f
	delete(tc.resolved, role)
	delete(tc.failed, role)
}

// Get resolves role, invoking its factory on first access and caching
// either the resulting external or the failure for every subsequent
// call. The second return is false when the role is unbound, or was
// bound but its factory failed.
func (tc *Toolchain) Get(role string) (*external.External, bool) {
	if e, ok := tc.resolved[role]; ok {
		return e, true
	}
	if _, failedBefore := tc.failed[role]; failedBefore {
		return nil, false
	}
	f, bound := tc.factories[role]
	if !bound {
		return nil, false
	}
	e, err := f()
	if err != nil {
		tc.failed[role] = err
		return nil, false
	}
	tc.resolved[role] = e
	return e, true
}

// LastError returns the cached probe/version error for role, if its
// factory has already been tried and failed.
func (tc *Toolchain) LastError(role string) error {
	return tc.failed[role]
}

// Roles returns every bound role name in bind order.
func (tc *Toolchain) Roles() []string {
	return append([]string(nil), tc.order...)
}
