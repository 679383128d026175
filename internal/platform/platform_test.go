package platform

import (
	"testing"

	"github.com/pyrate-build/pyrate/internal/external"
	"github.com/pyrate-build/pyrate/internal/rule"
	"github.com/pyrate-build/pyrate/internal/targettype"
	"github.com/pyrate-build/pyrate/internal/toolchain"
)

func TestExtensionAndInstallPathLookup(t *testing.T) {
	p := New("linux")
	p.SetExtension(targettype.Shared, ".so")
	p.SetInstallPath(targettype.Shared, "/usr/local/lib")

	ext, ok := p.Extension(targettype.Shared)
	if !ok || ext != ".so" {
		t.Fatalf("got %q, %v", ext, ok)
	}
	path, ok := p.InstallPath(targettype.Shared)
	if !ok || path != "/usr/local/lib" {
		t.Fatalf("got %q, %v", path, ok)
	}
	if _, ok := p.Extension(targettype.Static); ok {
		t.Fatal("expected no extension registered for static")
	}
}

func TestAddInstallRuleRejectsWrongConnection(t *testing.T) {
	r, err := rule.New("bad", "cp $in $out", "bad", nil)
	if err != nil {
		t.Fatal(err)
	}
	r.Connection = targettype.Connection{From: targettype.Shared, To: targettype.Object}
	p := New("linux")
	if err := p.AddInstallRule(r); err == nil {
		t.Fatal("expected an error for a rule not connecting to install")
	}
}

func TestInstallRuleForLookup(t *testing.T) {
	r, err := rule.New("install_shared", "install -m755 $in $out", "install", nil)
	if err != nil {
		t.Fatal(err)
	}
	r.Connection = targettype.Connection{From: targettype.Shared, To: targettype.Install}
	p := New("linux")
	if err := p.AddInstallRule(r); err != nil {
		t.Fatal(err)
	}
	got, ok := p.InstallRuleFor(targettype.Shared)
	if !ok || got != r {
		t.Fatal("expected the registered install rule back")
	}
	if _, ok := p.InstallRuleFor(targettype.Static); ok {
		t.Fatal("expected no install rule registered for static")
	}
}

func TestRequiredInputsEmptyWhenBoundToolsRequireNone(t *testing.T) {
	tc := toolchain.New()
	pthread := external.NewPthread()
	tc.Bind("cpp", func() (*external.External, error) { return pthread, nil })
	tc.Bind("linker", func() (*external.External, error) { return pthread, nil })
	holder := toolchain.NewToolHolder(tc)
	p := New("linux")

	inputs := p.RequiredInputs(targettype.Shared, holder)
	// pthread contributes nothing to RequiredInputs (only opts projections),
	// so binding it to two roles still yields nothing.
	if len(inputs) != 0 {
		t.Fatalf("expected no required inputs from pthread, got %d", len(inputs))
	}
}

func TestRequiredInputsNilToolHolder(t *testing.T) {
	p := New("linux")
	if got := p.RequiredInputs(targettype.Shared, nil); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}
