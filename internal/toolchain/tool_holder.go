package toolchain

import (
	"sort"

	"github.com/pyrate-build/pyrate/internal/external"
)

// ToolHolder is the mutable façade a Context consults for tools: it
// answers from an explicit override first, falls back to lazily
// resolving the backing Toolchain, and remembers deletions so a
// deleted role never comes back from that fallback (§3, §9 "Deletion
// stickiness").
type ToolHolder struct {
	toolchain *Toolchain
	overrides map[string]*external.External
	deleted   map[string]bool
}

// NewToolHolder returns a holder backed by tc. tc may be nil, in which
// case every lookup falls through to whatever overrides are Set
// directly — used by Context(...) power-user construction (§6) where a
// caller wires tools by hand instead of through discovery.
func NewToolHolder(tc *Toolchain) *ToolHolder {
	return &ToolHolder{toolchain: tc, overrides: map[string]*external.External{}, deleted: map[string]bool{}}
}

// Get returns the external bound to role, consulting an explicit
// override first and then the backing toolchain, unless role has been
// deleted.
func (h *ToolHolder) Get(role string) (*external.External, bool) {
	if h.deleted[role] {
		return nil, false
	}
	if e, ok := h.overrides[role]; ok {
		return e, true
	}
	if h.toolchain == nil {
		return nil, false
	}
	return h.toolchain.Get(role)
}

// Set installs an explicit override for role, clearing any prior
// deletion — an explicit assignment always wins over stickiness.
func (h *ToolHolder) Set(role string, e *external.External) {
	delete(h.deleted, role)
	h.overrides[role] = e
}

// Delete removes role's explicit override (if any) and marks it so the
// backing toolchain is never consulted for it again.
func (h *ToolHolder) Delete(role string) {
	delete(h.overrides, role)
	h.deleted[role] = true
}

// Clone returns an independent copy sharing the same backing
// Toolchain (so resolution caching is shared) but with its own
// overrides and deletions, for `include`'s nested Context (§4.10).
func (h *ToolHolder) Clone() *ToolHolder {
	clone := NewToolHolder(h.toolchain)
	for role, e := range h.overrides {
		clone.overrides[role] = e
	}
	for role := range h.deleted {
		clone.deleted[role] = true
	}
	return clone
}

// Roles returns every role currently resolvable through this holder —
// override or toolchain-backed, excluding deletions — in stable
// (sorted) key order.
func (h *ToolHolder) Roles() []string {
	seen := map[string]bool{}
	for role := range h.overrides {
		if !h.deleted[role] {
			seen[role] = true
		}
	}
	if h.toolchain != nil {
		for _, role := range h.toolchain.Roles() {
			if !h.deleted[role] {
				if _, ok := h.Get(role); ok {
					seen[role] = true
				}
			}
		}
	}
	roles := make([]string, 0, len(seen))
	for role := range seen {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}
