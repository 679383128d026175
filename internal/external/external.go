// Package external implements the external catalogue: named,
// independently-discoverable components (compilers, linkers, SWIG,
// Python, ROOT, pkg-config-backed library bundles) that contribute
// rules, flag projections and required inputs to the toolchain (§3,
// §4.11).
package external

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/pyrate-build/pyrate/internal/buildgraph"
	"github.com/pyrate-build/pyrate/internal/fingerprint"
	"github.com/pyrate-build/pyrate/internal/rule"
	"github.com/pyrate-build/pyrate/internal/targettype"
	"github.com/pyrate-build/pyrate/internal/version"
)

// An External is a named component contributing rules, on-use
// projections, an extension-to-target-type mapping, and per-target-type
// required inputs.
type External struct {
	buildgraph.Base
	Name    string
	Version *version.Version

	Rules          []*rule.Rule
	ExtHandlers    map[string]targettype.Type
	RequiredInputs map[targettype.Type][]buildgraph.Source
}

// SourceName satisfies buildgraph's namedSource so an External can be
// named when it shows up in a diagnostic or (rarely) a writer's input
// list.
func (e *External) SourceName() string { return e.Name }

// Fingerprint folds in everything that distinguishes one External
// instance from another: its name, version and rules.
// Externals aren't usually deduplicated by the registry (they're not
// BuildTargets) but sources that embed one still need a stable
// identity to fold into their own fingerprint.
func (e *External) Fingerprint() fingerprint.Fingerprint {
	b := fingerprint.New().String("External").String(e.Name)
	if e.Version != nil {
		b = b.String(e.Version.String())
	}
	ruleFPs := make([]fingerprint.Fingerprint, len(e.Rules))
	for i, r := range e.Rules {
		ruleFPs[i] = r.Fingerprint()
	}
	return b.SortedFingerprints(ruleFPs).Build()
}

// RequiredInputsFor returns the sources this external forces into every
// target of the given type, e.g. the gcc/clang externals' `-fPIC`
// opts carrier on shared targets.
func (e *External) RequiredInputsFor(t targettype.Type) []buildgraph.Source {
	return e.RequiredInputs[t]
}

// ProbeError is the "probe" error kind from §7: a subprocess failed to
// spawn or exited non-zero while discovering an external.
type ProbeError struct {
	Command []string
	Cause   error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("unable to run %v: %v", e.Command, e.Cause)
}

func (e *ProbeError) Unwrap() error { return e.Cause }

// VersionMismatchError is the "version" error kind from §7: a probed
// external exists but fails the caller's version predicate.
type VersionMismatchError struct {
	Name     string
	Probed   string
	Expected string
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("%s version %s does not satisfy %s", e.Name, e.Probed, e.Expected)
}

// runCommand runs a probe command and captures stdout/stderr, mirroring
// pyrate.py's run_process: a spawn failure or non-zero exit both
// produce a ProbeError.
func runCommand(name string, args ...string) (stdout, stderr string, err error) {
	return runCommandEnv(nil, name, args...)
}

// runCommandEnv is runCommand with extraEnv ("KEY=value" pairs)
// appended to the probe's environment, letting a caller (e.g.
// pkg-config with a configured search path) override a variable the
// ambient environment already sets, since a later entry wins when
// exec.Cmd builds its environment.
func runCommandEnv(extraEnv []string, name string, args ...string) (stdout, stderr string, err error) {
	cmd := exec.Command(name, args...)
	if len(extraEnv) > 0 {
		cmd.Env = append(os.Environ(), extraEnv...)
	}
	var out, errOut bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errOut
	if runErr := cmd.Run(); runErr != nil {
		return out.String(), errOut.String(), &ProbeError{Command: append([]string{name}, args...), Cause: runErr}
	}
	return out.String(), errOut.String(), nil
}

// pkgConfigEnv builds the PKG_CONFIG_PATH override passed to
// runCommandEnv: extra directories prepended to whatever
// PKG_CONFIG_PATH is already set to, so pkg-config checks them first.
// Returns nil (no override) when extra is empty.
func pkgConfigEnv(extra []string) []string {
	if len(extra) == 0 {
		return nil
	}
	path := strings.Join(extra, string(os.PathListSeparator))
	if existing := os.Getenv("PKG_CONFIG_PATH"); existing != "" {
		path = path + string(os.PathListSeparator) + existing
	}
	return []string{"PKG_CONFIG_PATH=" + path}
}
