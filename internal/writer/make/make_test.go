package make

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyrate-build/pyrate/internal/buildgraph"
	"github.com/pyrate-build/pyrate/internal/registry"
	"github.com/pyrate-build/pyrate/internal/rule"
)

func buildTarget(name string, r *rule.Rule, inputs ...buildgraph.Source) *buildgraph.BuildTarget {
	return buildgraph.NewBuildTarget(buildgraph.TargetSpec{Name: name, Rule: r, Sources: inputs})
}

func TestWriteSubstitutesInOutAndGlobals(t *testing.T) {
	r, err := rule.New("compile_cpp", "$CXX ${opts} -c $in -o $out", "compile(cpp) $out",
		map[string]string{"CXX": "g++"},
		rule.KV{Key: "depfile", Value: "$out.d"}, rule.KV{Key: "deps", Value: "gcc"})
	require.NoError(t, err)

	foo := buildgraph.NewInputFile("foo.cpp")
	target := buildTarget("foo.o", r, foo)

	var buf strings.Builder
	c := &registry.Canonical{Rules: []*rule.Rule{r}, Targets: []*buildgraph.BuildTarget{target}}
	require.NoError(t, Write(&buf, c, nil))

	out := buf.String()
	assert.Contains(t, out, "CXX := g++\n")
	assert.Contains(t, out, "-include foo.o.d\n")
	assert.Contains(t, out, "foo.o: foo.cpp\n")
	assert.Contains(t, out, "\tg++  -c foo.cpp -o foo.o\n")
	assert.Contains(t, out, ".PHONY: clean\nclean:\n\trm -f foo.o\n")
}

func TestWriteDefaultGoalSynthesisesAggregateForMultipleDefaults(t *testing.T) {
	r, err := rule.New("phony", "", "phony aggregate", nil)
	require.NoError(t, err)
	a := buildTarget("a", r)
	b := buildTarget("b", r)

	var buf strings.Builder
	c := &registry.Canonical{Rules: []*rule.Rule{r}, Targets: []*buildgraph.BuildTarget{a, b}}
	require.NoError(t, Write(&buf, c, []*buildgraph.BuildTarget{a, b}))

	out := buf.String()
	assert.Contains(t, out, ".DEFAULT_GOAL := default_target\n")
	assert.Contains(t, out, "default_target: a b\n")
}
