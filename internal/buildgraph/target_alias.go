package buildgraph

import "github.com/pyrate-build/pyrate/internal/fingerprint"

// TargetAlias wraps a BuildTarget to let it appear as an input to
// another target without taking ownership of it (used by install(),
// §4.6).
type TargetAlias struct {
	Base
	Target *BuildTarget
}

// NewTargetAlias wraps target, advertising itself as an input under any
// rule.
func NewTargetAlias(target *BuildTarget) *TargetAlias {
	a := &TargetAlias{Target: target}
	a.Base = NewBase(a, []KeyedSources{{Key: "", Values: []Source{SelfRef}}}, nil, nil)
	return a
}

// Fingerprint folds in the wrapped target's own fingerprint, so two
// aliases of the same target collide the way two direct references
// would.
func (a *TargetAlias) Fingerprint() fingerprint.Fingerprint {
	return fingerprint.New().String("TargetAlias").Fingerprint(a.Target.Fingerprint()).Build()
}
