package external

import (
	"fmt"
	"strings"

	"github.com/pyrate-build/pyrate/internal/buildgraph"
	"github.com/pyrate-build/pyrate/internal/rule"
	"github.com/pyrate-build/pyrate/internal/targettype"
	"github.com/pyrate-build/pyrate/internal/version"
)

// NewPthread builds the `pthread` external: no rules, no version probe,
// just `-pthread` contributed to every compile/link rule. Grounded
// directly on pyrate.py's External_pthread.
func NewPthread() *External {
	e := &External{Name: "pthread"}
	e.Base = buildgraph.NewBase(e, nil, nil, []buildgraph.KeyedVariables{
		{Key: "compile_cpp", Vars: buildgraph.VariableSet{"opts": {"-pthread"}}},
		{Key: "link_static", Vars: buildgraph.VariableSet{"opts": {"-pthread"}}},
		{Key: "link_shared", Vars: buildgraph.VariableSet{"opts": {"-pthread"}}},
		{Key: "link_exe", Vars: buildgraph.VariableSet{"opts": {"-pthread"}}},
	})
	return e
}

// CompilerOptions configures a C++-family toolchain external.
type CompilerOptions struct {
	Version         *version.Predicate // optional acceptance gate on the probed version
	VersionExpr     string             // the predicate's source expression, for VersionMismatchError.Expected
	Std             string             // e.g. "c++17", prepended to compile flags
	CompileCppFlags string
	LinkStaticFlags string
	LinkSharedFlags string
	LinkExeFlags    string
}

func (o CompilerOptions) withDefaults(defaultCompile, defaultLinkStatic, defaultLinkShared, defaultLinkExe string) CompilerOptions {
	if o.CompileCppFlags == "" {
		o.CompileCppFlags = defaultCompile
	}
	if o.LinkStaticFlags == "" {
		o.LinkStaticFlags = defaultLinkStatic
	}
	if o.LinkSharedFlags == "" {
		o.LinkSharedFlags = defaultLinkShared
	}
	if o.LinkExeFlags == "" {
		o.LinkExeFlags = defaultLinkExe
	}
	return o
}

// newCppFamily builds the shared rule set for a C++ compiler/linker
// driver pair: compile_cpp, link_static, link_shared, link_exe. This is
// the Go generalisation of pyrate.py's External_CPP, parameterised over
// compiler/archiver executable names instead of being GCC/Clang
// specific.
func newCppFamily(name, compiler, archiver string, opts CompilerOptions) (*External, error) {
	compileFlags := opts.CompileCppFlags
	if opts.Std != "" {
		compileFlags = fmt.Sprintf("-std=%s %s", opts.Std, compileFlags)
	}
	compileRule, err := rule.New("compile_cpp",
		"$CXX $CXX_FLAGS ${opts} -MMD -MT $out -MF $out.d -c $in -o $out", "compile(cpp) $out",
		map[string]string{"CXX": compiler, "CXX_FLAGS": compileFlags},
		rule.KV{Key: "depfile", Value: "$out.d"}, rule.KV{Key: "deps", Value: "gcc"})
	if err != nil {
		return nil, err
	}
	linkStaticRule, err := rule.New("link_static",
		"rm -f $out && $LINKER_STATIC $LINKER_STATIC_FLAGS ${opts} $out $in", "link(static) $out",
		map[string]string{"LINKER_STATIC": archiver, "LINKER_STATIC_FLAGS": opts.LinkStaticFlags})
	if err != nil {
		return nil, err
	}
	linkSharedRule, err := rule.New("link_shared",
		"$LINKER_SHARED $LINKER_SHARED_FLAGS ${opts} -o $out $in", "link(shared) $out",
		map[string]string{"LINKER_SHARED": compiler, "LINKER_SHARED_FLAGS": opts.LinkSharedFlags})
	if err != nil {
		return nil, err
	}
	linkExeRule, err := rule.New("link_exe",
		"$LINKER_EXE $LINKER_EXE_FLAGS ${opts} -o $out $in", "link(exe) $out",
		map[string]string{"LINKER_EXE": compiler, "LINKER_EXE_FLAGS": opts.LinkExeFlags})
	if err != nil {
		return nil, err
	}
	compileRule.Connection = targettype.Connection{From: targettype.Cpp, To: targettype.Object}
	linkStaticRule.Connection = targettype.Connection{From: targettype.Object, To: targettype.Static}
	linkSharedRule.Connection = targettype.Connection{From: targettype.Object, To: targettype.Shared}
	linkExeRule.Connection = targettype.Connection{From: targettype.Object, To: targettype.Exe}

	e := &External{
		Name:  name,
		Rules: []*rule.Rule{compileRule, linkStaticRule, linkSharedRule, linkExeRule},
		ExtHandlers: map[string]targettype.Type{
			".cpp": targettype.Cpp, ".cxx": targettype.Cpp, ".cc": targettype.Cpp,
		},
		// shared libraries must be position-independent; enforced the way
		// pyrate's enforced_flags_by_target_type does it, generalised into
		// the broader required-inputs mechanism (§4.11).
		RequiredInputs: map[targettype.Type][]buildgraph.Source{
			targettype.Shared: buildgraph.AddRuleVars(map[string]string{"opts": "-fPIC"}),
		},
	}
	e.Base = buildgraph.NewBase(e, nil, nil, nil)
	return e, nil
}

// NewGCC probes `g++ -v` and builds the gcc external. The probe output
// is not parsed, so opts.Version is not checked and any g++ found is
// accepted.
func NewGCC(opts CompilerOptions) (*External, error) {
	opts = opts.withDefaults("-Wall -pedantic", "rcs", "-shared -g -fPIC", "-g")
	compiler := "g++"
	if _, _, err := runCommand(compiler, "-v"); err != nil {
		return nil, err
	}
	return newCppFamily("gcc", compiler, "gcc-ar", opts)
}

// NewClang probes `clang++ -v`, parses the reported version, checks it
// against opts.Version if given, and builds the clang external.
func NewClang(opts CompilerOptions) (*External, error) {
	opts = opts.withDefaults("-Weverything", "rcs", "-shared -g -fPIC", "-g")
	compiler := "clang++"
	_, stderr, err := runCommand(compiler, "-v")
	if err != nil {
		return nil, err
	}
	installed := parseClangVersion(stderr)
	if opts.Version != nil && installed != "" {
		v, verr := version.Parse(installed)
		if verr != nil {
			return nil, verr
		}
		if !(*opts.Version)(v) {
			return nil, &VersionMismatchError{Name: "clang", Probed: installed, Expected: opts.VersionExpr}
		}
	}
	return newCppFamily("clang", compiler, "llvm-ar", opts)
}

func parseClangVersion(stderr string) string {
	lines := strings.Split(stderr, "\n")
	if len(lines) == 0 {
		return ""
	}
	fields := strings.Fields(lines[0])
	if len(fields) < 3 {
		return ""
	}
	return fields[2]
}

// NewFortran probes `gfortran -v` and builds a compile_fortran rule
// alongside the same link rules as the gcc family, since gfortran links
// through the same driver conventions.
func NewFortran(opts CompilerOptions) (*External, error) {
	opts = opts.withDefaults("-Wall", "rcs", "-shared -g -fPIC", "-g")
	compiler := "gfortran"
	if _, _, err := runCommand(compiler, "-v"); err != nil {
		return nil, err
	}
	e, err := newCppFamily("fortran", compiler, "gcc-ar", opts)
	if err != nil {
		return nil, err
	}
	compileFortran, err := rule.New("compile_fortran",
		"$FC $FC_FLAGS ${opts} -c $in -o $out", "compile(fortran) $out",
		map[string]string{"FC": compiler, "FC_FLAGS": opts.CompileCppFlags})
	if err != nil {
		return nil, err
	}
	compileFortran.Connection = targettype.Connection{From: targettype.Fortran, To: targettype.Object}
	e.Name = "fortran"
	e.Rules = append(e.Rules, compileFortran)
	e.ExtHandlers[".f90"] = targettype.Fortran
	e.ExtHandlers[".f"] = targettype.Fortran
	return e, nil
}

// NewPython probes `python<version>-config --cflags`/`--ldflags` and
// contributes those as `opts` to every compile/link rule, mirroring
// pyrate.py's External_Python.
func NewPython(v *version.Version) (*External, error) {
	helper := "python-config"
	if v != nil {
		helper = fmt.Sprintf("python%s-config", v.String())
	}
	cflags, _, err := runCommand(helper, "--cflags")
	if err != nil {
		return nil, err
	}
	ldflags, _, err := runCommand(helper, "--ldflags")
	if err != nil {
		return nil, err
	}
	cflags, ldflags = strings.TrimSpace(cflags), strings.TrimSpace(ldflags)
	e := &External{Name: "python"}
	e.Base = buildgraph.NewBase(e, nil, nil, []buildgraph.KeyedVariables{
		{Key: "compile_cpp", Vars: buildgraph.VariableSet{"opts": {cflags}}},
		{Key: "link_static", Vars: buildgraph.VariableSet{"opts": {ldflags}}},
		{Key: "link_shared", Vars: buildgraph.VariableSet{"opts": {ldflags}}},
		{Key: "link_exe", Vars: buildgraph.VariableSet{"opts": {ldflags}}},
	})
	return e, nil
}

// NewROOT probes `root-config --cflags --libs --version` the same way
// Python is probed: it's another build-helper-script-backed external,
// shaped identically but naming the CERN ROOT toolkit's own driver.
// versionExpr is v's source expression, recorded on a mismatch.
func NewROOT(v *version.Predicate, versionExpr string) (*External, error) {
	cflags, _, err := runCommand("root-config", "--cflags")
	if err != nil {
		return nil, err
	}
	libs, _, err := runCommand("root-config", "--libs")
	if err != nil {
		return nil, err
	}
	if v != nil {
		installed, _, verr := runCommand("root-config", "--version")
		if verr != nil {
			return nil, verr
		}
		parsed, perr := version.Parse(strings.TrimSpace(installed))
		if perr != nil {
			return nil, perr
		}
		if !(*v)(parsed) {
			return nil, &VersionMismatchError{Name: "root", Probed: strings.TrimSpace(installed), Expected: versionExpr}
		}
	}
	cflags, libs = strings.TrimSpace(cflags), strings.TrimSpace(libs)
	e := &External{Name: "root"}
	e.Base = buildgraph.NewBase(e, nil, nil, []buildgraph.KeyedVariables{
		{Key: "compile_cpp", Vars: buildgraph.VariableSet{"opts": {cflags}}},
		{Key: "link_static", Vars: buildgraph.VariableSet{"opts": {libs}}},
		{Key: "link_shared", Vars: buildgraph.VariableSet{"opts": {libs}}},
		{Key: "link_exe", Vars: buildgraph.VariableSet{"opts": {libs}}},
	})
	return e, nil
}

// NewPkgConfig probes `pkg-config --cflags --libs <pkg>` (and
// optionally `--modversion` against a predicate) for a single named
// package, contributing the result as `opts`. versionExpr is v's source
// expression, recorded on a mismatch. extraPkgConfigPath is prepended
// to the probe's PKG_CONFIG_PATH (the config file's External.PkgConfigPath,
// §3.1), so a package shipped outside the default search path is still
// discoverable without the caller having to export the variable itself.
func NewPkgConfig(pkg string, v *version.Predicate, versionExpr string, extraPkgConfigPath []string) (*External, error) {
	env := pkgConfigEnv(extraPkgConfigPath)
	if v != nil {
		installed, _, err := runCommandEnv(env, "pkg-config", "--modversion", pkg)
		if err != nil {
			return nil, err
		}
		parsed, perr := version.Parse(strings.TrimSpace(installed))
		if perr != nil {
			return nil, perr
		}
		if !(*v)(parsed) {
			return nil, &VersionMismatchError{Name: pkg, Probed: strings.TrimSpace(installed), Expected: versionExpr}
		}
	}
	cflags, _, err := runCommandEnv(env, "pkg-config", "--cflags", pkg)
	if err != nil {
		return nil, err
	}
	libs, _, err := runCommandEnv(env, "pkg-config", "--libs", pkg)
	if err != nil {
		return nil, err
	}
	cflags, libs = strings.TrimSpace(cflags), strings.TrimSpace(libs)
	e := &External{Name: "pkgconfig:" + pkg}
	e.Base = buildgraph.NewBase(e, nil, nil, []buildgraph.KeyedVariables{
		{Key: "compile_cpp", Vars: buildgraph.VariableSet{"opts": {cflags}}},
		{Key: "link_static", Vars: buildgraph.VariableSet{"opts": {libs}}},
		{Key: "link_shared", Vars: buildgraph.VariableSet{"opts": {libs}}},
		{Key: "link_exe", Vars: buildgraph.VariableSet{"opts": {libs}}},
	})
	return e, nil
}

// Available is the registry of external constructors reachable by name
// from a build script's `find_external`/`use_external`, mirroring
// pyrate.py's External.available class dict.
var Available = map[string]bool{
	"pthread": true, "gcc": true, "clang": true, "fortran": true,
	"python": true, "swig": true, "pkgconfig": true, "root": true,
}
