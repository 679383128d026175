package match

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := []string{
		"a.cpp", "b.cpp", "main_test.cpp",
		"sub/c.cpp", "sub/d.h",
	}
	for _, f := range files {
		full := filepath.Join(dir, f)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestMatchPositiveTokenNonRecursive(t *testing.T) {
	dir := writeTree(t)
	got, err := Match("*.cpp", dir, false)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a.cpp", "b.cpp", "main_test.cpp"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestMatchExclusionToken(t *testing.T) {
	dir := writeTree(t)
	got, err := Match("*.cpp -*_test.cpp", dir, false)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range got {
		if name == "main_test.cpp" {
			t.Fatalf("expected the exclusion token to drop main_test.cpp, got %v", got)
		}
	}
}

func TestMatchRecurseFindsNestedFiles(t *testing.T) {
	dir := writeTree(t)
	got, err := Match("**/*.cpp", dir, true)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, name := range got {
		if name == "sub/c.cpp" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected sub/c.cpp among recursive matches, got %v", got)
	}
}

func TestMatchNonRecurseSkipsNestedFiles(t *testing.T) {
	dir := writeTree(t)
	got, err := Match("*.cpp", dir, false)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range got {
		if name == "sub/c.cpp" {
			t.Fatal("expected non-recursive match to skip the nested directory")
		}
	}
}

func TestMatchResultsSorted(t *testing.T) {
	dir := writeTree(t)
	got, err := Match("*.cpp", dir, false)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(got); i++ {
		if got[i-1] > got[i] {
			t.Fatalf("expected sorted results, got %v", got)
		}
	}
}

func TestLibsFindsFirstMatchingDir(t *testing.T) {
	dir1 := t.TempDir()
	dir2 := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir2, "libfoo.so"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	got := Libs([]string{"foo", "missing"}, []string{dir1, dir2})
	if len(got) != 1 || got[0] != filepath.Join(dir2, "libfoo.so") {
		t.Fatalf("got %v", got)
	}
}
