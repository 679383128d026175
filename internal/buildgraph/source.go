// Package buildgraph implements the polymorphic BuildSource family, the
// BuildTarget node built on top of it, and the on-use projection
// protocol that lets a source tell a consuming target how to use it
// (§3, §4.1 of the design).
package buildgraph

import (
	"strings"

	"github.com/pyrate-build/pyrate/internal/fingerprint"
)

// A Source is a node that can feed into a BuildTarget: a plain input
// file, a rule-variable carrier, a target alias, an external, or a
// target itself. This is the tagged-variant BuildSource: every concrete
// type below implements it, and the projection protocol dispatches on
// which one it's looking at only through these two methods.
type Source interface {
	// Fingerprint is this source's identity contribution.
	Fingerprint() fingerprint.Fingerprint
	// Projections exposes the three on-use maps the source was built
	// with, already resolved against self-references.
	Projections() *Base
}

// KeyedSources is one (rule-name-or-"", sources) entry in an ordered
// on_use_inputs/on_use_deps projection list. An empty Key stands for
// the `None` "any rule" default from the design.
type KeyedSources struct {
	Key    string
	Values []Source
}

// VariableSet is the per-variable value lists contributed at one
// projection key, e.g. {"opts": ["-O2", "-Wall"]}.
type VariableSet map[string][]string

// KeyedVariables is one (rule-name-or-"", variables) entry in an
// ordered on_use_variables projection list.
type KeyedVariables struct {
	Key  string
	Vars VariableSet
}

// Base is the embeddable projection state shared by every Source
// variant. It is exported (unlike a typical private mixin) so that
// Source implementations living in other packages — External, most
// notably — can embed it too.
type Base struct {
	InputsByKey    []KeyedSources
	DepsByKey      []KeyedSources
	VariablesByKey []KeyedVariables
}

// Projections implements the tail of the Source interface for anything
// that embeds Base directly.
func (b *Base) Projections() *Base { return b }

// selfMarker is the sentinel a source uses in its own projection lists
// to mean "substitute the owning source here". NewBase resolves every
// occurrence to the real self at construction time, per the design's
// instruction that self-references resolve "at construction" rather
// than later.
type selfMarker struct{}

func (selfMarker) Fingerprint() fingerprint.Fingerprint { return fingerprint.Fingerprint("<unresolved-self>") }
func (selfMarker) Projections() *Base                   { return &Base{} }

// SelfRef is the self-reference marker described in §3/§9: pass it in a
// projection list to have a source advertise itself as that
// projection's contribution.
var SelfRef Source = selfMarker{}

func isSelfRef(s Source) bool {
	_, ok := s.(selfMarker)
	return ok
}

// NewBase builds a resolved Base for the source `self`, replacing any
// SelfRef occurrences in inputs/deps with self itself.
func NewBase(self Source, inputs, deps []KeyedSources, variables []KeyedVariables) Base {
	return Base{
		InputsByKey:    resolveSelf(self, inputs),
		DepsByKey:      resolveSelf(self, deps),
		VariablesByKey: variables,
	}
}

func resolveSelf(self Source, in []KeyedSources) []KeyedSources {
	if in == nil {
		return nil
	}
	out := make([]KeyedSources, len(in))
	for i, entry := range in {
		values := make([]Source, len(entry.Values))
		for j, s := range entry.Values {
			if isSelfRef(s) {
				values[j] = self
			} else {
				values[j] = s
			}
		}
		out[i] = KeyedSources{Key: entry.Key, Values: values}
	}
	return out
}

// selectSources implements the "first key that is a substring of
// R.name, else the None default, else empty" selection rule from §4.1
// for either on_use_inputs or on_use_deps.
func selectSources(list []KeyedSources, ruleName string) []Source {
	for _, entry := range list {
		if entry.Key != "" && strings.Contains(ruleName, entry.Key) {
			return entry.Values
		}
	}
	for _, entry := range list {
		if entry.Key == "" {
			return entry.Values
		}
	}
	return nil
}

// selectVariables is the same selection rule applied to
// on_use_variables.
func selectVariables(list []KeyedVariables, ruleName string) VariableSet {
	for _, entry := range list {
		if entry.Key != "" && strings.Contains(ruleName, entry.Key) {
			return entry.Vars
		}
	}
	for _, entry := range list {
		if entry.Key == "" {
			return entry.Vars
		}
	}
	return nil
}

// SourceName best-efforts a human/file-visible name for a source, used
// by the writers when serialising an input or dep list. RuleVariables
// carriers never appear in an effective input/dep list (they only ever
// contribute variables) so they have no case here.
func SourceName(s Source) string {
	switch v := s.(type) {
	case *InputFile:
		return v.Name
	case *TargetAlias:
		return v.Target.Name
	case *BuildTarget:
		return v.Name
	case namedSource:
		return v.SourceName()
	default:
		return ""
	}
}

// namedSource lets sources defined outside this package (External, in
// particular) participate in SourceName without an import cycle.
type namedSource interface {
	SourceName() string
}
