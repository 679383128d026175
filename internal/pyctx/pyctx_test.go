package pyctx

import (
	"strings"
	"testing"

	"github.com/pyrate-build/pyrate/internal/buildgraph"
	"github.com/pyrate-build/pyrate/internal/external"
	"github.com/pyrate-build/pyrate/internal/platform"
	"github.com/pyrate-build/pyrate/internal/rule"
	"github.com/pyrate-build/pyrate/internal/targettype"
	"github.com/pyrate-build/pyrate/internal/toolchain"
)

// fakeCompiler builds a minimal gcc-shaped External by hand, avoiding
// any subprocess probe so tests stay hermetic.
func fakeCompiler(t *testing.T) *external.External {
	t.Helper()
	mk := func(name, cmd string, from, to targettype.Type) *rule.Rule {
		r, err := rule.New(name, cmd, name, map[string]string{"CXX": "g++"})
		if err != nil {
			t.Fatal(err)
		}
		r.Connection = targettype.Connection{From: from, To: to}
		return r
	}
	e := &external.External{
		Name: "gcc",
		Rules: []*rule.Rule{
			mk("compile_cpp", "$CXX ${opts} -c $in -o $out", targettype.Cpp, targettype.Object),
			mk("link_static", "ar rcs $out $in", targettype.Object, targettype.Static),
			mk("link_shared", "$CXX -shared ${opts} -o $out $in", targettype.Object, targettype.Shared),
			mk("link_exe", "$CXX ${opts} -o $out $in", targettype.Object, targettype.Exe),
		},
		ExtHandlers: map[string]targettype.Type{".cpp": targettype.Cpp, ".cc": targettype.Cpp},
	}
	return e
}

func newTestContext(t *testing.T) *Context {
	t.Helper()
	tc := toolchain.New()
	tc.Bind("cpp", func() (*external.External, error) { return fakeCompiler(t), nil })
	p := platform.New("linux")
	p.SetExtension(targettype.Object, ".o")
	p.SetExtension(targettype.Shared, ".so")
	p.SetExtension(targettype.Static, ".a")
	p.SetInstallPath(targettype.Exe, "/usr/local/bin")
	return New(p, tc)
}

func TestFindRuleResolvesThroughTools(t *testing.T) {
	c := newTestContext(t)
	r, err := c.FindRule(targettype.Cpp, targettype.Object)
	if err != nil {
		t.Fatal(err)
	}
	if r.Name != "compile_cpp" {
		t.Fatalf("got %q", r.Name)
	}
}

func TestFindRuleFailsWithNoConnection(t *testing.T) {
	c := newTestContext(t)
	if _, err := c.FindRule(targettype.Fortran, targettype.Object); err == nil {
		t.Fatal("expected an error for an unresolvable connection")
	}
}

func TestFindRuleReturnsAClone(t *testing.T) {
	c := newTestContext(t)
	r1, err := c.FindRule(targettype.Cpp, targettype.Object)
	if err != nil {
		t.Fatal(err)
	}
	r1.Cmd = "mutated"
	r2, err := c.FindRule(targettype.Cpp, targettype.Object)
	if err != nil {
		t.Fatal(err)
	}
	if r2.Cmd == "mutated" {
		t.Fatal("expected find_rule to return an independent clone")
	}
}

func TestClassifyAmbiguousExtensionFails(t *testing.T) {
	c := newTestContext(t)
	tc := toolchain.New()
	tc.Bind("cpp", func() (*external.External, error) { return fakeCompiler(t), nil })
	tc.Bind("other", func() (*external.External, error) {
		return &external.External{Name: "other", ExtHandlers: map[string]targettype.Type{".cpp": targettype.Fortran}}, nil
	})
	c.Tools = toolchain.NewToolHolder(tc)
	if _, _, err := c.classify(buildgraph.NewInputFile("x.cpp")); err == nil {
		t.Fatal("expected ambiguous classification to fail")
	}
}

func TestClassifyPassiveInputHasNoBuildableType(t *testing.T) {
	c := newTestContext(t)
	_, buildable, err := c.classify(buildgraph.NewInputFile("readme.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if buildable {
		t.Fatal("expected an unrecognised extension to be passive")
	}
}

func TestObjectFileBuildsAndRegisters(t *testing.T) {
	c := newTestContext(t)
	obj, err := c.ObjectFile("foo", "foo.cpp", "-O2")
	if err != nil {
		t.Fatal(err)
	}
	if obj.Name != "foo.o" {
		t.Fatalf("got %q", obj.Name)
	}
	if obj.TargetType != targettype.Object {
		t.Fatalf("got %v", obj.TargetType)
	}
	if obj.EffectiveVariables()["opts"] != "-O2" {
		t.Fatalf("got %q", obj.EffectiveVariables()["opts"])
	}
	if len(c.Registry.AllTargets()) != 0 {
		t.Fatal("object_file should not append to the all-targets list")
	}
}

func TestObjectFileStringInputIsWhitespaceSplit(t *testing.T) {
	c := newTestContext(t)
	obj, err := c.ObjectFile("multi", "a.cpp b.cpp", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(obj.EffectiveInputs()) != 2 {
		t.Fatalf("expected both whitespace-split sources as inputs, got %v", obj.EffectiveInputs())
	}
}

func TestExecutableSingleModeCompilesThenLinks(t *testing.T) {
	c := newTestContext(t)
	exe, err := c.Executable("app", "main.cpp", "-O2", "-pthread", false)
	if err != nil {
		t.Fatal(err)
	}
	if exe.TargetType != targettype.Exe {
		t.Fatalf("got %v", exe.TargetType)
	}
	if len(exe.Sources) == 0 {
		t.Fatal("expected the exe target to have sources")
	}
	var sawObject bool
	for _, s := range exe.Sources {
		if bt, ok := s.(*buildgraph.BuildTarget); ok && bt.TargetType == targettype.Object {
			sawObject = true
		}
	}
	if !sawObject {
		t.Fatal("expected single-mode linking to compile main.cpp into an object first")
	}
	if exe.EffectiveVariables()["opts"] != "-pthread" {
		t.Fatalf("got %q", exe.EffectiveVariables()["opts"])
	}
	all := c.Registry.AllTargets()
	if len(all) != 1 || all[0] != exe {
		t.Fatalf("expected the executable registered in the all-targets list, got %v", all)
	}
}

func TestSharedLibraryPublishesLinkFlagsNotSelfInput(t *testing.T) {
	c := newTestContext(t)
	lib, err := c.SharedLibrary("libfoo.so", "foo.cpp", "", "", false)
	if err != nil {
		t.Fatal(err)
	}
	bt := lib.(*buildgraph.BuildTarget)
	opts := bt.Projections().VariablesByKey
	var found []string
	for _, kv := range opts {
		found = append(found, kv.Vars["opts"]...)
	}
	joined := strings.Join(found, " ")
	if !strings.Contains(joined, "-lfoo") || !strings.Contains(joined, "-L") {
		t.Fatalf("expected -L/-l flags published, got %v", found)
	}
	inputs := selectOnUseInputs(bt)
	if len(inputs) != 0 {
		t.Fatal("a shared library must not publish itself as an input")
	}
}

func TestStaticLibraryPublishesSelfAsInput(t *testing.T) {
	c := newTestContext(t)
	lib, err := c.StaticLibrary("libfoo.a", "foo.cpp", "", false)
	if err != nil {
		t.Fatal(err)
	}
	bt := lib.(*buildgraph.BuildTarget)
	inputs := selectOnUseInputs(bt)
	if len(inputs) != 1 {
		t.Fatalf("expected the static library to publish itself as an input, got %v", inputs)
	}
}

func TestStaticLibraryDropsExternalsFromLinkInputs(t *testing.T) {
	c := newTestContext(t)
	inputs := []buildgraph.Source{buildgraph.NewInputFile("foo.cpp"), external.NewPthread()}
	lib, err := c.StaticLibrary("libfoo.a", inputs, "", false)
	if err != nil {
		t.Fatal(err)
	}
	bt := lib.(*buildgraph.BuildTarget)
	for _, s := range bt.Sources {
		if _, ok := s.(*external.External); ok {
			t.Fatal("expected pthread (an External) to be filtered from a static library's inputs")
		}
	}
}

// selectOnUseInputs returns whatever a target would contribute under
// the None default projection key.
func selectOnUseInputs(bt *buildgraph.BuildTarget) []buildgraph.Source {
	for _, kv := range bt.Projections().InputsByKey {
		if kv.Key == "" {
			return kv.Values
		}
	}
	return nil
}

func TestInstallDerivesDestinationFromPlatform(t *testing.T) {
	c := newTestContext(t)
	tc := toolchain.New()
	tc.Bind("cpp", func() (*external.External, error) {
		e := fakeCompiler(t)
		r, _ := rule.New("install_exe", "install -m755 $in $out", "install", nil)
		r.Connection = targettype.Connection{From: targettype.Exe, To: targettype.Install}
		e.Rules = append(e.Rules, r)
		return e, nil
	})
	c.Tools = toolchain.NewToolHolder(tc)

	exe, err := c.Executable("app", "main.cpp", "", "", false)
	if err != nil {
		t.Fatal(err)
	}
	installed, err := c.Install([]*buildgraph.BuildTarget{exe}, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(installed) != 1 || installed[0].Name != "/usr/local/bin/app" {
		t.Fatalf("got %v", installed)
	}
	if len(c.Registry.InstallTargets()) != 1 {
		t.Fatal("expected the install target registered in the install-targets list")
	}
}

func TestIncludeSharesRegistryAndNamesAggregate(t *testing.T) {
	c := newTestContext(t)
	aggregate, err := c.Include("sub", true, "sub_all", func(child *Context) error {
		_, err := child.Executable("app", "main.cpp", "", "", false)
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	if aggregate == nil || aggregate.Name != "sub_all" {
		t.Fatalf("got %v", aggregate)
	}
	// The nested call registered both the compiled object and the
	// executable that links it; the aggregate bundles everything the
	// registry gained, not just the intentionally-named target.
	if len(aggregate.Sources) != 2 {
		t.Fatalf("expected the aggregate to alias every target added during the nested call, got %d", len(aggregate.Sources))
	}
	found := false
	for _, tgt := range c.Registry.AllTargets() {
		if strings.HasSuffix(tgt.Name, "app") {
			found = true
		}
	}
	if !found {
		t.Fatal("expected the nested executable visible through the shared registry's all-targets list")
	}
}

func TestCoerceInputsWhitespaceSplitsAndRejectsNil(t *testing.T) {
	sources, err := CoerceInputs("a.cpp b.cpp")
	if err != nil {
		t.Fatal(err)
	}
	if len(sources) != 2 {
		t.Fatalf("got %d", len(sources))
	}
	if _, err := CoerceInputs([]interface{}{"a.cpp", nil}); err == nil {
		t.Fatal("expected nil in input list to be an error")
	}
}
