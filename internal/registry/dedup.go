package registry

import (
	"path/filepath"
	"strings"

	"github.com/pyrate-build/pyrate/internal/buildgraph"
	"github.com/pyrate-build/pyrate/internal/fingerprint"
)

// shortFingerprint truncates a hex fingerprint to a name-suffix-sized
// chunk; fingerprints are already collision-resistant content hashes,
// so a prefix is as good an identity suffix as the whole string.
func shortFingerprint(f fingerprint.Fingerprint) string {
	s := string(f)
	if len(s) > 12 {
		return s[:12]
	}
	return s
}

func suffixName(name string, f fingerprint.Fingerprint) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return base + "_" + shortFingerprint(f) + ext
}

// dedupeTargets walks every registered target depth-first through its
// sources, replacing BuildTarget (and TargetAlias-wrapped BuildTarget)
// references with the first-seen instance sharing the same
// fingerprint, and returns the resulting dependency-first target_order
// (§4.7a).
func dedupeTargets(roots []*buildgraph.BuildTarget) ([]*buildgraph.BuildTarget, error) {
	visited := map[*buildgraph.BuildTarget]*buildgraph.BuildTarget{}
	canonical := map[fingerprint.Fingerprint]*buildgraph.BuildTarget{}
	var order []*buildgraph.BuildTarget

	var walk func(t *buildgraph.BuildTarget) *buildgraph.BuildTarget
	walk = func(t *buildgraph.BuildTarget) *buildgraph.BuildTarget {
		if c, done := visited[t]; done {
			return c
		}
		for i, s := range t.Sources {
			switch v := s.(type) {
			case *buildgraph.BuildTarget:
				t.Sources[i] = walk(v)
			case *buildgraph.TargetAlias:
				v.Target = walk(v.Target)
			}
		}
		fp := t.Fingerprint()
		c, exists := canonical[fp]
		if !exists {
			c = t
			canonical[fp] = t
			order = append(order, t)
		} else if t.NoRename {
			c.NoRename = true
		}
		visited[t] = c
		return c
	}

	for _, t := range roots {
		walk(t)
	}
	return order, nil
}

// renameCollidingTargets implements §4.7b: for every name shared by
// more than one distinct (post-dedup) target, or unconditionally when
// renameAll is set, every target but the name's "winner" is suffixed
// with its own fingerprint. The winner is the sole no_rename target in
// the group if there is exactly one, else the first target_order
// occurrence; renameAll overrides even the winner.
func renameCollidingTargets(order []*buildgraph.BuildTarget, renameAll bool) error {
	groups := map[string][]*buildgraph.BuildTarget{}
	var names []string
	for _, t := range order {
		if _, ok := groups[t.Name]; !ok {
			names = append(names, t.Name)
		}
		groups[t.Name] = append(groups[t.Name], t)
	}

	for _, name := range names {
		group := groups[name]
		if len(group) <= 1 && !renameAll {
			continue
		}
		var noRename []*buildgraph.BuildTarget
		for _, t := range group {
			if t.NoRename {
				noRename = append(noRename, t)
			}
		}
		if len(noRename) > 1 {
			return &DuplicateNoRenameError{Name: name}
		}
		winner := group[0]
		if len(noRename) == 1 {
			winner = noRename[0]
		}
		for _, t := range group {
			if t == winner && !renameAll {
				continue
			}
			t.Name = suffixName(t.Name, t.Fingerprint())
		}
	}
	return nil
}
