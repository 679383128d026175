package registry

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/pyrate-build/pyrate/internal/buildgraph"
	"github.com/pyrate-build/pyrate/internal/fingerprint"
	"github.com/pyrate-build/pyrate/internal/rule"
)

// foldRuleOptions implements §4.7c: targets are grouped by the
// fingerprint of the rule they use; within a group of two or more
// targets, if every target agrees on a single non-empty effective
// `opts` string, that value is
// substituted literally into the rule's command, the rule is cloned
// under a fingerprint-suffixed name, and every target in the group has
// its `opts` dropped so it is never emitted twice (§9 open question 2:
// fold XOR per-target opts, never both).
func foldRuleOptions(order []*buildgraph.BuildTarget) {
	type group struct {
		rule    *rule.Rule
		targets []*buildgraph.BuildTarget
		opts    map[string]bool
	}
	groups := map[fingerprint.Fingerprint]*group{}
	var groupOrder []fingerprint.Fingerprint

	for _, t := range order {
		fp := t.Rule.Fingerprint()
		g, ok := groups[fp]
		if !ok {
			g = &group{rule: t.Rule, opts: map[string]bool{}}
			groups[fp] = g
			groupOrder = append(groupOrder, fp)
		}
		g.targets = append(g.targets, t)
		g.opts[t.EffectiveVariables()["opts"]] = true
	}

	optsPlaceholder := regexp.MustCompile(`\$\{opts\}`)

	for _, fp := range groupOrder {
		g := groups[fp]
		if len(g.opts) != 1 || len(g.targets) < 2 {
			continue
		}
		var opts string
		for v := range g.opts {
			opts = v
		}
		if opts == "" {
			continue
		}
		folded := g.rule.Clone()
		folded.Cmd = optsPlaceholder.ReplaceAllLiteralString(folded.Cmd, opts)
		folded.Name = fmt.Sprintf("%s_%s", g.rule.Name, shortFingerprint(folded.Fingerprint()))
		for _, t := range g.targets {
			t.Rule = folded
			t.DropOpts()
		}
	}
}

// unifyRules collapses rules sharing a fingerprint down to one shared
// instance and returns them in first-seen order, rewriting every
// target's Rule pointer to the canonical instance (§4.7d, first half).
func unifyRules(order []*buildgraph.BuildTarget) []*rule.Rule {
	canonical := map[fingerprint.Fingerprint]*rule.Rule{}
	var rules []*rule.Rule
	for _, t := range order {
		fp := t.Rule.Fingerprint()
		r, ok := canonical[fp]
		if !ok {
			r = t.Rule
			canonical[fp] = r
			rules = append(rules, r)
		}
		t.Rule = r
	}
	return rules
}

var constantPlaceholder = func(key string) (*regexp.Regexp, *regexp.Regexp) {
	return regexp.MustCompile(`\$\{` + regexp.QuoteMeta(key) + `\}`),
		regexp.MustCompile(`\$` + regexp.QuoteMeta(key) + `\b`)
}

// renameCollidingConstants implements §4.7d's constant-rename half: any
// default-variable key shared by more than one (already fingerprint-
// distinct) rule, but bound to a different value in each, is
// disambiguated by suffixing the key itself with a fingerprint of its
// value in every rule that uses it, rewriting that rule's command
// template to match.
func renameCollidingConstants(rules []*rule.Rule) {
	values := map[string]map[string]bool{}
	for _, r := range rules {
		for k, v := range r.Defaults {
			if values[k] == nil {
				values[k] = map[string]bool{}
			}
			values[k][v] = true
		}
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if len(values[key]) <= 1 {
			continue
		}
		braced, bare := constantPlaceholder(key)
		for _, r := range rules {
			v, ok := r.Defaults[key]
			if !ok {
				continue
			}
			newKey := fmt.Sprintf("%s_%s", key, shortFingerprint(fingerprint.New().String(v).Build()))
			delete(r.Defaults, key)
			r.Defaults[newKey] = v
			r.Cmd = braced.ReplaceAllString(r.Cmd, "${"+newKey+"}")
			r.Cmd = bare.ReplaceAllString(r.Cmd, "$"+newKey)
		}
	}
}

// renameCollidingRules implements §4.7d's final pass: any rule name
// still covering more than one distinct rule, or every rule when
// renameAll is set, is suffixed with that rule's own fingerprint.
// Rules already uniquely renamed by foldRuleOptions pass through
// untouched here (their name already covers exactly one rule).
func renameCollidingRules(rules []*rule.Rule, renameAll bool) {
	groups := map[string][]*rule.Rule{}
	var names []string
	for _, r := range rules {
		if _, ok := groups[r.Name]; !ok {
			names = append(names, r.Name)
		}
		groups[r.Name] = append(groups[r.Name], r)
	}
	for _, name := range names {
		group := groups[name]
		if len(group) <= 1 && !renameAll {
			continue
		}
		for _, r := range group {
			r.Name = fmt.Sprintf("%s_%s", name, shortFingerprint(r.Fingerprint()))
		}
	}
}
