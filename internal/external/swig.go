package external

import (
	"fmt"
	"strings"

	"github.com/pyrate-build/pyrate/internal/buildgraph"
	"github.com/pyrate-build/pyrate/internal/fingerprint"
	"github.com/pyrate-build/pyrate/internal/rule"
	"github.com/pyrate-build/pyrate/internal/targettype"
)

// Swig is the `swig` external: it has no fixed rule set (its generation
// rule is templated per target language) and instead exposes Wrapper,
// the Go stand-in for pyrate.py's swig.wrapper(lang, name, ifile, libs,
// swig_opts) convenience (§8 scenario 4).
type Swig struct {
	buildgraph.Base
	RawVersion string
}

// NewSwig probes `swig -version` and returns the swig external.
func NewSwig() (*Swig, error) {
	stdout, _, err := runCommand("swig", "-version")
	if err != nil {
		return nil, err
	}
	s := &Swig{RawVersion: strings.TrimSpace(stdout)}
	s.Base = buildgraph.NewBase(s, nil, nil, nil)
	return s, nil
}

// SourceName satisfies buildgraph's namedSource.
func (s *Swig) SourceName() string { return "swig" }

// Fingerprint identifies this external by the probed swig banner.
func (s *Swig) Fingerprint() fingerprint.Fingerprint {
	return fingerprint.New().String("External").String("swig").String(s.RawVersion).Build()
}

// generationRule builds the swig_cpp_<lang> rule, templated fresh per
// call since the target language varies the command line.
func generationRule(lang string) (*rule.Rule, error) {
	r, err := rule.New(fmt.Sprintf("swig_cpp_%s", lang),
		"swig -c++ -"+lang+" ${opts} -o $out $in", "swig("+lang+") $out", nil)
	if err != nil {
		return nil, err
	}
	r.Connection = targettype.Connection{From: targettype.Swig, To: targettype.Cpp}
	return r, nil
}

// Wrapper is the Go equivalent of pyrate.py's swig.wrapper: it builds a
// generation target that runs swig over ifile to produce `<name>.cpp`,
// then returns that target so the caller (ordinarily
// pyctx.Context.SharedLibrary) can link it into `_<name>.<ext>` together
// with libs and the target-language external's own flags. Kept here
// rather than folded into pyctx so the swig external stays a
// self-contained, Context-independent unit; pyctx only has to thread
// its output and langExternal's flags into a shared_library call. Wrapper
// itself only builds the generation step, so it takes no libs/langExternal
// argument — those are the caller's concern.
func (s *Swig) Wrapper(lang, name, ifile, swigOpts string) (*buildgraph.BuildTarget, error) {
	r, err := generationRule(lang)
	if err != nil {
		return nil, err
	}
	sources := []buildgraph.Source{buildgraph.NewInputFile(ifile)}
	sources = append(sources, buildgraph.AddRuleVars(map[string]string{"opts": swigOpts})...)
	generated := buildgraph.NewBuildTarget(buildgraph.TargetSpec{
		Name:        name + ".cpp",
		Rule:        r,
		Sources:     sources,
		TargetType:  targettype.Cpp,
		OnUseInputs: []buildgraph.KeyedSources{{Key: "", Values: []buildgraph.Source{buildgraph.SelfRef}}},
	})
	return generated, nil
}
