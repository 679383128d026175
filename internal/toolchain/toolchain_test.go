package toolchain

import (
	"errors"
	"testing"

	"github.com/pyrate-build/pyrate/internal/external"
)

func TestFactoryInvokedAtMostOnce(t *testing.T) {
	calls := 0
	tc := New()
	tc.Bind("cpp", func() (*external.External, error) {
		calls++
		return external.NewPthread(), nil
	})
	if _, ok := tc.Get("cpp"); !ok {
		t.Fatal("expected resolution to succeed")
	}
	tc.Get("cpp")
	tc.Get("cpp")
	if calls != 1 {
		t.Fatalf("expected factory invoked once, got %d", calls)
	}
}

func TestFailedProbeLeavesRoleUnboundAndIsNotRetried(t *testing.T) {
	calls := 0
	tc := New()
	tc.Bind("fortran", func() (*external.External, error) {
		calls++
		return nil, errors.New("gfortran not found")
	})
	if _, ok := tc.Get("fortran"); ok {
		t.Fatal("expected resolution to fail")
	}
	tc.Get("fortran")
	if calls != 1 {
		t.Fatalf("expected factory invoked once despite repeated failed lookups, got %d", calls)
	}
	if tc.LastError("fortran") == nil {
		t.Fatal("expected a cached error")
	}
}

func TestUnboundRoleIsAbsent(t *testing.T) {
	tc := New()
	if _, ok := tc.Get("linker"); ok {
		t.Fatal("expected an unbound role to be absent")
	}
}

func TestToolHolderOverrideWinsOverToolchain(t *testing.T) {
	tc := New()
	tc.Bind("cpp", func() (*external.External, error) { return external.NewPthread(), nil })
	h := NewToolHolder(tc)
	override := external.NewPthread()
	h.Set("cpp", override)
	got, ok := h.Get("cpp")
	if !ok || got != override {
		t.Fatal("expected the explicit override to be returned")
	}
}

func TestToolHolderDeletionIsSticky(t *testing.T) {
	tc := New()
	tc.Bind("cpp", func() (*external.External, error) { return external.NewPthread(), nil })
	h := NewToolHolder(tc)
	h.Get("cpp")
	h.Delete("cpp")
	if _, ok := h.Get("cpp"); ok {
		t.Fatal("expected deleted role to stay absent")
	}
}

func TestToolHolderSetClearsDeletion(t *testing.T) {
	h := NewToolHolder(nil)
	h.Delete("cpp")
	override := external.NewPthread()
	h.Set("cpp", override)
	got, ok := h.Get("cpp")
	if !ok || got != override {
		t.Fatal("expected Set to clear a prior deletion")
	}
}

func TestToolHolderCloneIsIndependent(t *testing.T) {
	tc := New()
	tc.Bind("cpp", func() (*external.External, error) { return external.NewPthread(), nil })
	h := NewToolHolder(tc)
	h.Get("cpp")
	clone := h.Clone()
	clone.Delete("cpp")
	if _, ok := h.Get("cpp"); !ok {
		t.Fatal("deleting on the clone should not affect the original")
	}
	if _, ok := clone.Get("cpp"); ok {
		t.Fatal("expected the clone's deletion to stick")
	}
}

func TestToolHolderRolesStableOrder(t *testing.T) {
	tc := New()
	tc.Bind("cpp", func() (*external.External, error) { return external.NewPthread(), nil })
	tc.Bind("fortran", func() (*external.External, error) { return external.NewPthread(), nil })
	h := NewToolHolder(tc)
	roles := h.Roles()
	if len(roles) != 2 || roles[0] != "cpp" || roles[1] != "fortran" {
		t.Fatalf("expected sorted roles, got %v", roles)
	}
}
