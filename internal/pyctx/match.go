package pyctx

import "github.com/pyrate-build/pyrate/internal/match"

// Match implements the `match` Context operation (§4.9), resolved
// relative to this Context's Prefix.
func (c *Context) Match(pattern, base string, recurse bool) ([]string, error) {
	return match.Match(pattern, c.join(base), recurse)
}

// MatchLibs implements `match_libs`, searching dirs (then this
// Context's configured LibSearchPath, §3.1) for a `lib<name>` shared or
// static archive per name.
func (c *Context) MatchLibs(names, dirs []string) []string {
	all := append(append([]string(nil), dirs...), c.LibSearchPath...)
	return match.Libs(names, all)
}
