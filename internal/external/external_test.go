package external

import (
	"testing"

	"github.com/pyrate-build/pyrate/internal/targettype"
)

func TestPthreadProjectsOptsToCompileAndLinkRules(t *testing.T) {
	p := NewPthread()
	byKey := map[string][]string{}
	for _, kv := range p.Projections().VariablesByKey {
		byKey[kv.Key] = kv.Vars["opts"]
	}
	for _, ruleName := range []string{"compile_cpp", "link_static", "link_shared", "link_exe"} {
		opts := byKey[ruleName]
		if len(opts) != 1 || opts[0] != "-pthread" {
			t.Fatalf("rule %s: got opts %v", ruleName, opts)
		}
	}
}

func TestPthreadHasNoRulesOrVersion(t *testing.T) {
	p := NewPthread()
	if len(p.Rules) != 0 {
		t.Fatalf("pthread should contribute no rules, got %v", p.Rules)
	}
	if p.Version != nil {
		t.Fatal("pthread should not carry a version")
	}
}

func TestExternalFingerprintStableAndDistinguishing(t *testing.T) {
	a, b := NewPthread(), NewPthread()
	if a.Fingerprint() != b.Fingerprint() {
		t.Fatal("two pthread instances should fingerprint equal")
	}
	if other := (&External{Name: "other"}); other.Fingerprint() == a.Fingerprint() {
		t.Fatal("externals with different names should fingerprint differently")
	}
}

func TestNewCppFamilyRuleConnections(t *testing.T) {
	e, err := newCppFamily("gcc", "g++", "gcc-ar", CompilerOptions{}.withDefaults("-Wall", "rcs", "-shared -fPIC", "-g"))
	if err != nil {
		t.Fatal(err)
	}
	if len(e.Rules) != 4 {
		t.Fatalf("expected 4 rules, got %d", len(e.Rules))
	}
	byName := map[string]targettype.Connection{}
	for _, r := range e.Rules {
		byName[r.Name] = r.Connection
	}
	if byName["compile_cpp"] != (targettype.Connection{From: targettype.Cpp, To: targettype.Object}) {
		t.Fatalf("got %v", byName["compile_cpp"])
	}
	if byName["link_shared"] != (targettype.Connection{From: targettype.Object, To: targettype.Shared}) {
		t.Fatalf("got %v", byName["link_shared"])
	}
}

func TestNewCppFamilyRequiresSharedPIC(t *testing.T) {
	e, err := newCppFamily("gcc", "g++", "gcc-ar", CompilerOptions{}.withDefaults("-Wall", "rcs", "-shared", "-g"))
	if err != nil {
		t.Fatal(err)
	}
	inputs := e.RequiredInputsFor(targettype.Shared)
	if len(inputs) != 1 {
		t.Fatalf("expected one required-input source for shared targets, got %d", len(inputs))
	}
}

func TestParseClangVersionLine(t *testing.T) {
	stderr := "clang version 15.0.7\nTarget: x86_64-pc-linux-gnu\n"
	if got := parseClangVersion(stderr); got != "15.0.7" {
		t.Fatalf("got %q", got)
	}
}

func TestProbeErrorWrapsCause(t *testing.T) {
	_, _, err := runCommand("definitely-not-a-real-binary-xyz")
	if err == nil {
		t.Fatal("expected a probe error for a nonexistent binary")
	}
	pe, ok := err.(*ProbeError)
	if !ok {
		t.Fatalf("expected *ProbeError, got %T", err)
	}
	if pe.Unwrap() == nil {
		t.Fatal("expected a wrapped cause")
	}
}

func TestVersionMismatchErrorMessage(t *testing.T) {
	err := &VersionMismatchError{Name: "clang", Probed: "9.0.0", Expected: ">=10"}
	if err.Error() == "" {
		t.Fatal("expected a non-empty message")
	}
}

func TestSwigGenerationRuleConnection(t *testing.T) {
	r, err := generationRule("python")
	if err != nil {
		t.Fatal(err)
	}
	if r.Connection != (targettype.Connection{From: targettype.Swig, To: targettype.Cpp}) {
		t.Fatalf("got %v", r.Connection)
	}
	if r.Name != "swig_cpp_python" {
		t.Fatalf("got %q", r.Name)
	}
}

