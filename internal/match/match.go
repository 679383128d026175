// Package match implements file matching (§4.9): selecting a sorted
// set of filenames under a base directory from a whitespace-separated
// list of shell-glob tokens, any of which may be negated with a
// leading `-`.
package match

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/shlex"
)

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Match implements `match(pattern, base, recurse)`: pattern is split on
// whitespace into tokens, a leading `-` marking a token as an
// exclusion. A path under base is accepted iff at least one positive
// token matches it and no negative token does; path matching applies
// shell-glob semantics to each path component via filepath.Match, which
// already refuses to cross a `/` boundary on `*`/`?`. Results are
// returned sorted lexicographically and relative to base.
func Match(pattern, base string, recurse bool) ([]string, error) {
	positive, negative, err := splitTokens(pattern)
	if err != nil {
		return nil, err
	}

	var results []string
	err = walk(base, func(name string, isDir bool) error {
		if isDir {
			if !recurse && name != base {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(base, name)
		if err != nil {
			return err
		}
		if !recurse && strings.ContainsRune(rel, filepath.Separator) {
			return nil
		}
		ok, err := matchesAny(positive, rel)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		excluded, err := matchesAny(negative, rel)
		if err != nil {
			return err
		}
		if excluded {
			return nil
		}
		results = append(results, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("match %q under %q: %w", pattern, base, err)
	}
	sort.Strings(results)
	return results, nil
}

func splitTokens(pattern string) (positive, negative []string, err error) {
	// shlex rather than strings.Fields so a base/pattern containing a
	// quoted, space-bearing glob (e.g. `"my dir/*.cpp"`) splits into one
	// token instead of being torn apart at the space.
	tokens, err := shlex.Split(pattern)
	if err != nil {
		return nil, nil, fmt.Errorf("match: invalid pattern %q: %w", pattern, err)
	}
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		if strings.HasPrefix(tok, "-") {
			tok = strings.TrimPrefix(tok, "-")
			if tok == "" {
				return nil, nil, fmt.Errorf("match: bare %q exclusion token", "-")
			}
			negative = append(negative, tok)
		} else {
			positive = append(positive, tok)
		}
	}
	return positive, negative, nil
}

func matchesAny(tokens []string, rel string) (bool, error) {
	for _, tok := range tokens {
		ok, err := filepath.Match(tok, rel)
		if err != nil {
			return false, fmt.Errorf("invalid glob token %q: %w", tok, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Libs implements `match_libs(names, dirs)`: for each library name
// (without its `lib`/extension decoration), search dirs in order for a
// `lib<name>.so` or `lib<name>.a`, returning the first match found for
// each name. A name with no match in any dir is omitted, matching the
// "passive if nothing found" treatment the rest of the catalogue gives
// optional system libraries.
func Libs(names, dirs []string) []string {
	var found []string
	for _, name := range names {
	search:
		for _, dir := range dirs {
			for _, candidate := range []string{"lib" + name + ".so", "lib" + name + ".a"} {
				full := filepath.Join(dir, candidate)
				if fileExists(full) {
					found = append(found, full)
					break search
				}
			}
		}
	}
	return found
}
