package buildgraph

import (
	"testing"

	"github.com/pyrate-build/pyrate/internal/rule"
)

func compileRule(t *testing.T) *rule.Rule {
	t.Helper()
	r, err := rule.New("compile_cpp", "$CXX ${opts} -c $in -o $out", "compile", map[string]string{"CXX": "g++"})
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestEffectiveInputsFromInputFile(t *testing.T) {
	f := NewInputFile("foo.cpp")
	target := NewBuildTarget(TargetSpec{Name: "foo.o", Rule: compileRule(t), Sources: []Source{f}})
	inputs := target.EffectiveInputs()
	if len(inputs) != 1 || SourceName(inputs[0]) != "foo.cpp" {
		t.Fatalf("got %v", inputs)
	}
}

func TestSubstringKeySelection(t *testing.T) {
	// A source that only contributes under keys containing "compile" should
	// be picked up by a rule named "compile_cpp" via substring match.
	f := &InputFile{Name: "x.h"}
	f.Base = NewBase(f, []KeyedSources{{Key: "compile", Values: []Source{SelfRef}}}, nil, nil)
	target := NewBuildTarget(TargetSpec{Name: "x.o", Rule: compileRule(t), Sources: []Source{f}})
	inputs := target.EffectiveInputs()
	if len(inputs) != 1 || SourceName(inputs[0]) != "x.h" {
		t.Fatalf("expected substring-matched contribution, got %v", inputs)
	}
}

func TestVariableMergeOrderPreservingDedup(t *testing.T) {
	rv1 := NewRuleVariables(VariableSet{"opts": {"-O2"}})
	rv2 := NewRuleVariables(VariableSet{"opts": {"-Wall", "-O2"}})
	target := NewBuildTarget(TargetSpec{Name: "t", Rule: compileRule(t), Sources: []Source{rv1, rv2}})
	vars := target.EffectiveVariables()
	if vars["opts"] != "-O2 -Wall" {
		t.Fatalf("got %q", vars["opts"])
	}
}

func TestDropOptsRemovesVariable(t *testing.T) {
	rv := NewRuleVariables(VariableSet{"opts": {"-O3"}})
	target := NewBuildTarget(TargetSpec{Name: "t", Rule: compileRule(t), Sources: []Source{rv}})
	target.DropOpts()
	if _, ok := target.EffectiveVariables()["opts"]; ok {
		t.Fatal("expected opts to be dropped")
	}
}

func TestSelfReferenceResolvesToOwner(t *testing.T) {
	obj := NewBuildTarget(TargetSpec{
		Name:        "foo.o",
		Rule:        compileRule(t),
		Sources:     []Source{NewInputFile("foo.cpp")},
		OnUseInputs: []KeyedSources{{Key: "", Values: []Source{SelfRef}}},
	})
	selected := selectSources(obj.Projections().InputsByKey, "link_exe")
	if len(selected) != 1 || selected[0] != Source(obj) {
		t.Fatalf("expected self-reference to resolve to the owning target, got %v", selected)
	}
}

func TestFingerprintEquivalenceForIdenticalTargets(t *testing.T) {
	mk := func() *BuildTarget {
		return NewBuildTarget(TargetSpec{
			Name:    "foo.o",
			Rule:    compileRule(t),
			Sources: []Source{NewInputFile("foo.cpp")},
		})
	}
	a, b := mk(), mk()
	if a.Fingerprint() != b.Fingerprint() {
		t.Fatal("structurally identical targets should fingerprint equal")
	}
}

func TestFingerprintDiffersOnOpts(t *testing.T) {
	mk := func(opts string) *BuildTarget {
		return NewBuildTarget(TargetSpec{
			Name:    "foo.o",
			Rule:    compileRule(t),
			Sources: append([]Source{NewInputFile("foo.cpp")}, AddRuleVars(map[string]string{"opts": opts})...),
		})
	}
	a, b := mk(""), mk("-O3")
	if a.Fingerprint() == b.Fingerprint() {
		t.Fatal("targets differing only in opts should not fingerprint equal")
	}
}

func TestTargetAliasFingerprintFollowsWrappedTarget(t *testing.T) {
	target := NewBuildTarget(TargetSpec{Name: "foo.o", Rule: compileRule(t), Sources: []Source{NewInputFile("foo.cpp")}})
	a1, a2 := NewTargetAlias(target), NewTargetAlias(target)
	if a1.Fingerprint() != a2.Fingerprint() {
		t.Fatal("two aliases of the same target should have equal fingerprints")
	}
	if SourceName(a1) != "foo.o" {
		t.Fatalf("got %q", SourceName(a1))
	}
}
