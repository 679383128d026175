package pyctx

import (
	"fmt"
	"strings"

	"github.com/pyrate-build/pyrate/internal/buildgraph"
)

// CoerceInputs implements §4.4 point 1's input coercion, shared by
// object_file and link: a bare string is whitespace-split into
// filenames, a []string becomes one InputFile per element, an already-
// built []buildgraph.Source (or a mix of the two via []interface{})
// passes through unchanged, and a nil element anywhere is an error —
// the YAML script loader and direct Go callers both funnel through
// this so neither path has to special-case the other's shape.
func CoerceInputs(raw interface{}) ([]buildgraph.Source, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		var sources []buildgraph.Source
		for _, tok := range strings.Fields(v) {
			sources = append(sources, buildgraph.NewInputFile(tok))
		}
		return sources, nil
	case []string:
		sources := make([]buildgraph.Source, len(v))
		for i, tok := range v {
			sources[i] = buildgraph.NewInputFile(tok)
		}
		return sources, nil
	case []buildgraph.Source:
		for _, s := range v {
			if s == nil {
				return nil, fmt.Errorf("coerce inputs: nil source in input list")
			}
		}
		return v, nil
	case []interface{}:
		sources := make([]buildgraph.Source, 0, len(v))
		for _, elem := range v {
			switch e := elem.(type) {
			case nil:
				return nil, fmt.Errorf("coerce inputs: nil in input list")
			case string:
				sources = append(sources, buildgraph.NewInputFile(e))
			case buildgraph.Source:
				sources = append(sources, e)
			default:
				return nil, fmt.Errorf("coerce inputs: unsupported input element %T", elem)
			}
		}
		return sources, nil
	case buildgraph.Source:
		return []buildgraph.Source{v}, nil
	default:
		return nil, fmt.Errorf("coerce inputs: unsupported input type %T", raw)
	}
}
