// Package registry owns the full set of constructed targets and
// performs the canonicalisation pass that turns a potentially
// redundant, name-colliding graph into the minimal, deterministic one
// a writer serialises (§3 "Registry", §4.7).
package registry

import (
	"fmt"

	"github.com/pyrate-build/pyrate/internal/buildgraph"
	"github.com/pyrate-build/pyrate/internal/rule"
)

// Registry is the ordered list of every target a Context has
// registered, plus the canonicaliser flags. Canonicalize reads only
// RenameAllTargets and RenameAllRules: RenameAllConstants and
// FoldTargetOpts are not consulted, so constants are renamed only on
// collision and option folding always runs.
type Registry struct {
	RenameAllTargets   bool
	RenameAllRules     bool
	RenameAllConstants bool
	FoldTargetOpts     bool

	targets        []*buildgraph.BuildTarget
	allTargets     []*buildgraph.BuildTarget
	installTargets []*buildgraph.BuildTarget
}

// New returns an empty Registry with every canonicaliser flag off.
func New() *Registry {
	return &Registry{}
}

// Add registers t for emission.
func (r *Registry) Add(t *buildgraph.BuildTarget) {
	r.targets = append(r.targets, t)
}

// AddToAll appends t to the process-wide "all" selection synthesised
// by `build all` (§4.5 point 7).
func (r *Registry) AddToAll(t *buildgraph.BuildTarget) {
	r.allTargets = append(r.allTargets, t)
}

// AddInstallTarget registers t in the separate install-targets list
// used to synthesise the phony `install` aggregate (§4.6).
func (r *Registry) AddInstallTarget(t *buildgraph.BuildTarget) {
	r.installTargets = append(r.installTargets, t)
}

// AllTargets returns the process-wide "all" selection in registration
// order.
func (r *Registry) AllTargets() []*buildgraph.BuildTarget {
	return append([]*buildgraph.BuildTarget(nil), r.allTargets...)
}

// InstallTargets returns the install-targets list in registration
// order.
func (r *Registry) InstallTargets() []*buildgraph.BuildTarget {
	return append([]*buildgraph.BuildTarget(nil), r.installTargets...)
}

// Mark returns the current lengths of the target and install-target
// lists, for later use with Since — how Context.Include discovers
// everything a nested script's run added (§4.10).
func (r *Registry) Mark() (targets, installTargets int) {
	return len(r.targets), len(r.installTargets)
}

// Since returns the targets and install-targets added after a prior
// Mark.
func (r *Registry) Since(mark, installMark int) (targets, installTargets []*buildgraph.BuildTarget) {
	return append([]*buildgraph.BuildTarget(nil), r.targets[mark:]...),
		append([]*buildgraph.BuildTarget(nil), r.installTargets[installMark:]...)
}

// DuplicateNoRenameError is the canonicaliser's one failure mode: two
// or more targets sharing a name both insist on keeping it (§4.7b,
// §8 "no_rename honoured").
type DuplicateNoRenameError struct {
	Name string
}

func (e *DuplicateNoRenameError) Error() string {
	return fmt.Sprintf("canonicalise: more than one no_rename target named %q", e.Name)
}

// Canonical is the result of Registry.Canonicalize: the final rule and
// target lists in emission order (§4.7 "final emission order").
type Canonical struct {
	Rules   []*rule.Rule
	Targets []*buildgraph.BuildTarget
}

// Canonicalize runs the full canonicalisation pass described in §4.7:
// recursive dedup by fingerprint (a), name-collision renaming (b),
// rule-option folding (c), then rule unification and constant rename
// (d). The fold-before-unify ordering and the fold-xor-per-target-opts
// rule are this implementation's resolution of the design's two open
// questions (recorded in DESIGN.md).
func (r *Registry) Canonicalize() (*Canonical, error) {
	order, err := dedupeTargets(r.targets)
	if err != nil {
		return nil, err
	}
	if err := renameCollidingTargets(order, r.RenameAllTargets); err != nil {
		return nil, err
	}
	foldRuleOptions(order)
	rules := unifyRules(order)
	renameCollidingConstants(rules)
	renameCollidingRules(rules, r.RenameAllRules)

	return &Canonical{Rules: rules, Targets: order}, nil
}
