package rule

import "testing"

func TestNewRejectsUndeclaredPlaceholder(t *testing.T) {
	_, err := New("compile", "$CXX ${opts} -c $in -o $out", "compile", nil)
	if err == nil {
		t.Fatal("expected an error for undeclared $CXX placeholder")
	}
}

func TestNewAcceptsSentinelsAndDeclaredVars(t *testing.T) {
	r, err := New("compile", "$CXX $CXX_FLAGS ${opts} -c $in -o $out", "compile",
		map[string]string{"CXX": "g++", "CXX_FLAGS": "-Wall"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Name != "compile" {
		t.Fatalf("got name %q", r.Name)
	}
}

func TestFingerprintStableAcrossMapOrder(t *testing.T) {
	r1, _ := New("r", "$A $B $out $in ${opts}", "d", map[string]string{"A": "1", "B": "2"})
	r2, _ := New("r", "$A $B $out $in ${opts}", "d", map[string]string{"B": "2", "A": "1"})
	if r1.Fingerprint() != r2.Fingerprint() {
		t.Fatal("fingerprint should not depend on map iteration order")
	}
}

func TestFingerprintIgnoresConnection(t *testing.T) {
	r, _ := New("r", "$out $in", "d", nil)
	r2 := r.Clone()
	r2.Connection.From = "cpp"
	if r.Fingerprint() != r2.Fingerprint() {
		t.Fatal("connection must not affect fingerprint identity")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	r, _ := New("r", "$CXX $out $in", "d", map[string]string{"CXX": "g++"})
	clone := r.Clone()
	clone.Defaults["CXX"] = "clang++"
	if r.Defaults["CXX"] != "g++" {
		t.Fatal("mutating the clone's defaults leaked back to the original")
	}
}

func TestParam(t *testing.T) {
	r, _ := New("r", "$out $in", "d", nil, KV{Key: "deps", Value: "gcc"})
	v, ok := r.Param("deps")
	if !ok || v != "gcc" {
		t.Fatalf("got %q, %v", v, ok)
	}
	if _, ok := r.Param("missing"); ok {
		t.Fatal("expected missing param to report not-found")
	}
}
