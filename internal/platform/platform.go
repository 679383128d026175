// Package platform implements the per-platform extension table,
// install-path table and install-rule list that Context consults when
// materialising and installing targets (§3 "Platform").
package platform

import (
	"fmt"
	"sort"

	"github.com/pyrate-build/pyrate/internal/buildgraph"
	"github.com/pyrate-build/pyrate/internal/external"
	"github.com/pyrate-build/pyrate/internal/rule"
	"github.com/pyrate-build/pyrate/internal/targettype"
	"github.com/pyrate-build/pyrate/internal/toolchain"
)

// A Platform names the current target environment and carries three
// tables consulted throughout object/link/install construction: output
// filename extensions, install-destination directories and the
// from-type rules that drive `install`.
type Platform struct {
	Name string

	extensions   map[targettype.Type]string
	installPaths map[targettype.Type]string
	installRules map[targettype.Type]*rule.Rule
}

// New returns an empty platform named name; its tables are populated
// with SetExtension/SetInstallPath/AddInstallRule, typically from
// config defaults (§3.1).
func New(name string) *Platform {
	return &Platform{
		Name:         name,
		extensions:   map[targettype.Type]string{},
		installPaths: map[targettype.Type]string{},
		installRules: map[targettype.Type]*rule.Rule{},
	}
}

// SetExtension records the output filename extension used for target
// type t, e.g. Shared -> ".so".
func (p *Platform) SetExtension(t targettype.Type, ext string) { p.extensions[t] = ext }

// Extension looks up the filename extension for t.
func (p *Platform) Extension(t targettype.Type) (string, bool) {
	ext, ok := p.extensions[t]
	return ext, ok
}

// SetInstallPath records the default install directory for targets of
// type t, used by `install` when no explicit destination is given.
func (p *Platform) SetInstallPath(t targettype.Type, path string) { p.installPaths[t] = path }

// InstallPath looks up the default install directory for t.
func (p *Platform) InstallPath(t targettype.Type) (string, bool) {
	path, ok := p.installPaths[t]
	return path, ok
}

// AddInstallRule registers r as the platform's install rule for
// whatever target type r.Connection.From names; r.Connection.To must be
// targettype.Install.
func (p *Platform) AddInstallRule(r *rule.Rule) error {
	if r.Connection.To != targettype.Install {
		return fmt.Errorf("install rule %q must connect to %q, got %q", r.Name, targettype.Install, r.Connection.To)
	}
	p.installRules[r.Connection.From] = r
	return nil
}

// InstallRuleFor returns the registered install rule for targets of
// type from, if any. Context.install falls back here when no tool rule
// connects (from, install) (§4.6).
func (p *Platform) InstallRuleFor(from targettype.Type) (*rule.Rule, bool) {
	r, ok := p.installRules[from]
	return r, ok
}

// RequiredInputs aggregates the required-input sources every tool bound
// in tools contributes for target type t, in the tool holder's stable
// role order. This realises "Platform ... also queries tools for
// per-target-type required inputs" (§2).
func (p *Platform) RequiredInputs(t targettype.Type, tools *toolchain.ToolHolder) []buildgraph.Source {
	if tools == nil {
		return nil
	}
	roles := tools.Roles()
	sort.Strings(roles)
	seen := map[*external.External]bool{}
	var result []buildgraph.Source
	for _, role := range roles {
		ext, ok := tools.Get(role)
		if !ok || seen[ext] {
			continue
		}
		seen[ext] = true
		result = append(result, ext.RequiredInputsFor(t)...)
	}
	return result
}
