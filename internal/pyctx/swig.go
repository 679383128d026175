package pyctx

import (
	"github.com/pyrate-build/pyrate/internal/buildgraph"
	"github.com/pyrate-build/pyrate/internal/external"
	"github.com/pyrate-build/pyrate/internal/targettype"
)

// Wrapper implements `swig.wrapper(lang, name, ifile, libs, swig_opts)`
// (§8 scenario 4): it builds the swig_cpp_<lang> generation target via
// s.Wrapper, then links its output together with libs and
// langExternal's contributed flags into a shared library named
// `_<name>` plus the platform's shared-library extension (e.g.
// `_mylib.so`), matching the generation-target-then-shared-library shape
// the scenario describes.
func (c *Context) Wrapper(s *external.Swig, lang, name, ifile string, libs []buildgraph.Source, langExternal *external.External, swigOpts, linkerOpts string) (buildgraph.Source, error) {
	generated, err := s.Wrapper(lang, name, ifile, swigOpts)
	if err != nil {
		return nil, err
	}
	inputs := append([]buildgraph.Source{generated}, libs...)
	if langExternal != nil {
		inputs = append(inputs, langExternal)
	}
	libName := "_" + name
	if c.Platform != nil {
		if ext, ok := c.Platform.Extension(targettype.Shared); ok {
			libName += ext
		}
	}
	return c.SharedLibrary(libName, inputs, "", linkerOpts, false)
}
