package script

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/pyrate-build/pyrate/internal/buildgraph"
	"github.com/pyrate-build/pyrate/internal/external"
	"github.com/pyrate-build/pyrate/internal/pyctx"
	"github.com/pyrate-build/pyrate/internal/pyrerr"
	"github.com/pyrate-build/pyrate/internal/rule"
	"github.com/pyrate-build/pyrate/internal/targettype"
)

// knownOps is every op kind exec recognises; validateOps reports every
// unrecognised op in one pass rather than making a user fix one typo at
// a time across repeated runs.
var knownOps = map[string]bool{
	"context": true, "object_file": true, "executable": true,
	"shared_library": true, "static_library": true, "install": true,
	"match": true, "match_libs": true,
	"find_external": true, "use_external": true, "create_external": true,
	"find_toolchain": true, "use_toolchain": true,
	"find_rule": true, "rule": true, "wrapper": true, "include": true,
}

// validateOps collects every op with an unrecognised kind into a single
// aggregated error, using go-multierror so a malformed script reports
// all its typos at once instead of one per run.
func validateOps(doc *Document) error {
	var result *multierror.Error
	for i, op := range doc.Targets {
		if !knownOps[op.Op] {
			result = multierror.Append(result, fmt.Errorf("targets[%d]: unknown op %q", i, op.Op))
		}
	}
	return result.ErrorOrNil()
}

// sortedKVs turns a script's `params:` map into rule.New's ordered KV
// list, sorted by key so two identical scripts always fingerprint a
// "rule" op's Rule the same way.
func sortedKVs(params map[string]string) []rule.KV {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	kvs := make([]rule.KV, len(keys))
	for i, k := range keys {
		kvs[i] = rule.KV{Key: k, Value: params[k]}
	}
	return kvs
}

// Runner replays a parsed Document's ordered operations against a root
// pyctx.Context, threading the operations' own naming so a later op can
// reference an earlier one's result — the Go-native stand-in for the
// original's exec_globals binding dict (§6.1).
type Runner struct {
	root *pyctx.Context

	// named holds every op's result keyed by its `name:` field. The
	// value is buildgraph.Source rather than *buildgraph.BuildTarget
	// because shared_library/static_library's reference-only path (a
	// nil inputs list) returns a RuleVariables/InputFile carrier
	// instead of a registered target.
	named map[string]buildgraph.Source

	externals map[string]*external.External
	matches   map[string][]string
	rules     map[string]*rule.Rule
	contexts  map[string]*pyctx.Context
}

// NewRunner returns a Runner that executes against root.
func NewRunner(root *pyctx.Context) *Runner {
	return &Runner{
		root:      root,
		named:     map[string]buildgraph.Source{},
		externals: map[string]*external.External{},
		matches:   map[string][]string{},
		rules:     map[string]*rule.Rule{},
		contexts:  map[string]*pyctx.Context{},
	}
}

// Run binds doc's toolchain, replays every target op and include in
// document order, and resolves default_targets/build_output (§6.1).
func (r *Runner) Run(doc *Document) ([]*buildgraph.BuildTarget, []string, error) {
	if err := validateOps(doc); err != nil {
		return nil, nil, pyrerr.New(pyrerr.UserScript, err)
	}

	for role, binding := range doc.Toolchain {
		e, err := buildExternal(binding.External, binding.Std, binding.Version, "")
		if err != nil {
			return nil, nil, pyrerr.New(pyrerr.Probe, fmt.Errorf("toolchain %s: %w", role, err))
		}
		r.root.Tools.Set(role, e)
	}

	for _, op := range doc.Targets {
		if err := r.exec(op); err != nil {
			return nil, nil, err
		}
	}

	for _, inc := range doc.Include {
		if err := r.execInclude(r.root, inc); err != nil {
			return nil, nil, err
		}
	}

	var defaults []*buildgraph.BuildTarget
	for _, name := range doc.DefaultTargets {
		s, ok := r.named[name]
		if !ok {
			return nil, nil, pyrerr.Newf(pyrerr.UserScript, "default_targets: no registered target named %q", name)
		}
		t, ok := s.(*buildgraph.BuildTarget)
		if !ok {
			return nil, nil, pyrerr.Newf(pyrerr.UserScript, "default_targets: %q is not a build target", name)
		}
		defaults = append(defaults, t)
	}

	buildOutput := doc.BuildOutput
	if len(buildOutput) == 0 {
		buildOutput = []string{"ninja"}
	}
	return defaults, buildOutput, nil
}

// ctxFor resolves op.Context against previously created sibling
// Contexts, defaulting to the root Context.
func (r *Runner) ctxFor(name string) (*pyctx.Context, error) {
	if name == "" {
		return r.root, nil
	}
	c, ok := r.contexts[name]
	if !ok {
		return nil, pyrerr.Newf(pyrerr.UserScript, "context %q: no such context (create it with op: context first)", name)
	}
	return c, nil
}

// exec dispatches a single target-list entry (§6.1).
func (r *Runner) exec(op Op) error {
	c, err := r.ctxFor(op.Context)
	if err != nil {
		return err
	}

	switch op.Op {
	case "context":
		r.contexts[op.Name] = c.Sibling(op.Name, op.Inherit)
		return nil

	case "object_file":
		inputs, err := r.resolveInputs(op.Inputs)
		if err != nil {
			return err
		}
		t, err := c.ObjectFile(op.Name, toSources(inputs), op.CompilerOpts)
		if err != nil {
			return err
		}
		r.store(op.Name, t)
		return nil

	case "executable":
		inputs, err := r.resolveInputs(op.Inputs)
		if err != nil {
			return err
		}
		t, err := c.Executable(op.Name, toSources(inputs), op.CompilerOpts, op.LinkerOpts, op.NoRename)
		if err != nil {
			return err
		}
		r.store(op.Name, t)
		return nil

	case "shared_library":
		inputs, err := r.optionalInputs(op.Inputs)
		if err != nil {
			return err
		}
		s, err := c.SharedLibrary(op.Name, inputs, op.CompilerOpts, op.LinkerOpts, op.NoRename)
		if err != nil {
			return err
		}
		r.store(op.Name, s)
		return nil

	case "static_library":
		inputs, err := r.optionalInputs(op.Inputs)
		if err != nil {
			return err
		}
		s, err := c.StaticLibrary(op.Name, inputs, op.CompilerOpts, op.NoRename)
		if err != nil {
			return err
		}
		r.store(op.Name, s)
		return nil

	case "install":
		targets, err := r.resolveBuildTargets(op.Targets)
		if err != nil {
			return err
		}
		installed, err := c.Install(targets, op.Destination)
		if err != nil {
			return err
		}
		if op.Name != "" && len(installed) == 1 {
			r.store(op.Name, installed[0])
		}
		return nil

	case "match":
		matched, err := c.Match(op.Pattern, op.Base, op.Recurse)
		if err != nil {
			return err
		}
		r.matches[op.Name] = matched
		return nil

	case "match_libs":
		r.matches[op.Name] = c.MatchLibs(op.Names, op.Dirs)
		return nil

	case "find_external":
		e, ok := c.FindExternal(func() (*external.External, error) {
			return buildExternal(op.External, op.Std, op.Version, op.Pkg)
		})
		if ok {
			r.externals[op.Name] = e
		}
		return nil

	case "use_external":
		e, ok := c.UseExternal(func() (*external.External, error) {
			return buildExternal(op.External, op.Std, op.Version, op.Pkg)
		})
		if ok {
			r.externals[op.Name] = e
		}
		return nil

	case "create_external":
		e, err := buildExternal(op.External, op.Std, op.Version, op.Pkg)
		if err != nil {
			return err
		}
		r.externals[op.Name] = c.CreateExternal(e)
		return nil

	case "find_toolchain":
		if e, ok := c.FindToolchain(op.Role); ok {
			r.externals[op.Name] = e
		}
		return nil

	case "use_toolchain":
		e, ok := c.UseToolchain(op.Role, func() (*external.External, error) {
			return buildExternal(op.External, op.Std, op.Version, op.Pkg)
		})
		if ok {
			r.externals[op.Name] = e
		}
		return nil

	case "find_rule":
		rl, err := c.FindRule(targettype.Type(op.From), targettype.Type(op.To))
		if err != nil {
			return err
		}
		if op.Name != "" {
			r.rules[op.Name] = rl
		}
		return nil

	case "rule":
		rl, err := rule.New(op.Name, op.Cmd, op.Description, op.Defaults, sortedKVs(op.Params)...)
		if err != nil {
			return err
		}
		rl.Connection = targettype.Connection{From: targettype.Type(op.From), To: targettype.Type(op.To)}
		r.rules[op.Name] = rl
		return nil

	case "wrapper":
		return r.execWrapper(c, op)

	case "include":
		return r.execInclude(c, op.Include)

	default:
		return pyrerr.Newf(pyrerr.UserScript, "unknown op %q", op.Op)
	}
}

func (r *Runner) execWrapper(c *pyctx.Context, op Op) error {
	s, err := external.NewSwig()
	if err != nil {
		return err
	}
	libs, err := r.resolveInputs(op.Swig.Libs)
	if err != nil {
		return err
	}
	var langExternal *external.External
	if op.Swig.LangExternal != "" {
		e, ok := r.externals[op.Swig.LangExternal]
		if !ok {
			return pyrerr.Newf(pyrerr.UserScript, "wrapper %q: no such external %q", op.Name, op.Swig.LangExternal)
		}
		langExternal = e
	}
	out, err := c.Wrapper(s, op.Swig.Lang, op.Name, op.Swig.Ifile, libs, langExternal, op.Swig.SwigOpts, op.LinkerOpts)
	if err != nil {
		return err
	}
	r.store(op.Name, out)
	return nil
}

// execInclude runs a nested script file's targets under a child Context
// (§4.10). Path resolution and reading the nested file is the caller's
// (cmd/pyrate's) job: IncludeOp.Path is handed to a loader callback so
// this package stays free of filesystem concerns.
func (r *Runner) execInclude(c *pyctx.Context, inc IncludeOp) error {
	sub, err := loadInclude(inc.Path)
	if err != nil {
		return err
	}
	_, err = c.Include(inc.Path, inc.Inherit, inc.TargetName, func(child *pyctx.Context) error {
		childRunner := NewRunner(child)
		childRunner.externals = r.externals
		childRunner.matches = r.matches
		childRunner.rules = r.rules
		childRunner.contexts = r.contexts
		_, _, err := childRunner.Run(sub)
		if err != nil {
			return err
		}
		for k, v := range childRunner.named {
			r.named[k] = v
		}
		return nil
	})
	return err
}

func (r *Runner) store(name string, s buildgraph.Source) {
	if name != "" {
		r.named[name] = s
	}
}

// resolveInputs implements the DSL's input-token vocabulary: a bare
// token is a plain file, ":name" looks up a prior op's named result,
// "!name" looks up a prior op's named external, and "@name" expands a
// prior match/match_libs op's file list, one InputFile per match.
func (r *Runner) resolveInputs(tokens []string) ([]buildgraph.Source, error) {
	var sources []buildgraph.Source
	for _, tok := range tokens {
		switch {
		case strings.HasPrefix(tok, ":"):
			name := tok[1:]
			s, ok := r.named[name]
			if !ok {
				return nil, pyrerr.Newf(pyrerr.UserScript, "input %q: no registered target named %q", tok, name)
			}
			sources = append(sources, s)
		case strings.HasPrefix(tok, "!"):
			name := tok[1:]
			e, ok := r.externals[name]
			if !ok {
				return nil, pyrerr.Newf(pyrerr.UserScript, "input %q: no registered external named %q", tok, name)
			}
			sources = append(sources, e)
		case strings.HasPrefix(tok, "@"):
			name := tok[1:]
			files, ok := r.matches[name]
			if !ok {
				return nil, pyrerr.Newf(pyrerr.UserScript, "input %q: no registered match result named %q", tok, name)
			}
			for _, f := range files {
				sources = append(sources, buildgraph.NewInputFile(f))
			}
		default:
			sources = append(sources, buildgraph.NewInputFile(tok))
		}
	}
	return sources, nil
}

// optionalInputs is resolveInputs but preserves shared_library/
// static_library's nil-means-reference-only contract (§4.5).
func (r *Runner) optionalInputs(tokens []string) (interface{}, error) {
	if tokens == nil {
		return nil, nil
	}
	sources, err := r.resolveInputs(tokens)
	if err != nil {
		return nil, err
	}
	return sources, nil
}

// resolveBuildTargets resolves an install op's `targets:` list, which
// must name only registered build targets, not reference-only sources.
func (r *Runner) resolveBuildTargets(names []string) ([]*buildgraph.BuildTarget, error) {
	targets := make([]*buildgraph.BuildTarget, 0, len(names))
	for _, name := range names {
		s, ok := r.named[name]
		if !ok {
			return nil, pyrerr.Newf(pyrerr.UserScript, "install: no registered target named %q", name)
		}
		t, ok := s.(*buildgraph.BuildTarget)
		if !ok {
			return nil, pyrerr.Newf(pyrerr.UserScript, "install: %q is a reference-only library, not a build target", name)
		}
		targets = append(targets, t)
	}
	return targets, nil
}

func toSources(sources []buildgraph.Source) interface{} {
	if sources == nil {
		return nil
	}
	return sources
}

// loadInclude is overridden by cmd/pyrate to read and parse a nested
// script file from disk; internal/script has no filesystem dependency
// of its own.
var loadInclude = func(path string) (*Document, error) {
	return nil, pyrerr.Newf(pyrerr.UserScript, "include %q: no script loader configured", path)
}

// SetIncludeLoader installs the callback execInclude uses to resolve a
// nested script's path into a parsed Document. cmd/pyrate calls this
// once at startup with a loader that reads relative to the including
// script's directory.
func SetIncludeLoader(loader func(path string) (*Document, error)) {
	loadInclude = loader
}
