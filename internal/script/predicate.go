package script

import (
	"fmt"
	"strings"

	"github.com/pyrate-build/pyrate/internal/version"
)

// parsePredicate turns a script's `version: "<3.5"`-shaped string into
// a version.Predicate via version.Factory, the same comparison
// vocabulary the `version` predicate factory exposes to power users
// (§6 "version (predicate factory)"). An empty expr yields a nil
// predicate (no constraint).
func parsePredicate(expr string) (*version.Predicate, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}
	f := version.NewFactory()
	for _, op := range []struct {
		prefix string
		build  func(interface{}) (version.Predicate, error)
	}{
		{"<=", f.LessOrEqual},
		{">=", f.GreaterOrEqual},
		{"==", f.Equal},
		{"!=", f.NotEqual},
		{"<", f.LessThan},
		{">", f.GreaterThan},
	} {
		if strings.HasPrefix(expr, op.prefix) {
			ref := strings.TrimSpace(strings.TrimPrefix(expr, op.prefix))
			p, err := op.build(ref)
			if err != nil {
				return nil, err
			}
			return &p, nil
		}
	}
	return nil, fmt.Errorf("version predicate %q: expected a comparison operator prefix", expr)
}
