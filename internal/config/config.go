// Package config reads the layered .pyrateconfig files that seed a
// Platform and Toolchain before a build script runs (§3.1).
package config

import (
	"os"
	"path"

	"github.com/please-build/gcfg"
	"gopkg.in/op/go-logging.v1"
)

var log = logging.MustGetLogger("config")

// ConfigFileName is the repo config, normally checked in.
const ConfigFileName = ".pyrateconfig"

// LocalConfigFileName overrides ConfigFileName on one machine; not
// normally checked in.
const LocalConfigFileName = ".pyrateconfig.local"

// MachineConfigFileName is the machine-wide config, read before either
// of the repo-level files.
const MachineConfigFileName = "/etc/pyrateconfig"

// A Configuration holds everything read from the layered config files,
// overridden in turn by environment variables and finally by CLI
// flags (§3.1's "machine < repo < local < flags" precedence).
type Configuration struct {
	Toolchain struct {
		Cpp     string `help:"external bound to the cpp role (gcc or clang)." var:"PYRATE_CPP"`
		Fortran string `help:"external bound to the fortran role (gfortran)." var:"PYRATE_FORTRAN"`
		Std     string `help:"language standard passed to the compiler, e.g. c++17." var:"PYRATE_STD"`
	}
	Build struct {
		OptimiseOpts   string `help:"compiler flags prepended to every object_file/link call's own compiler_opts." var:"PYRATE_OPTS"`
		ObjectBasePath string `help:"directory object files are written under, relative to the output directory."`
	}
	External struct {
		PkgConfigPath []string `help:"extra directories prepended to PKG_CONFIG_PATH before probing pkg-config."`
		SearchPath    []string `help:"extra directories match_libs searches, after a target's own directories."`
	}
	Output struct {
		Writer string `help:"default backend: ninja or make." var:"PYRATE_WRITER"`
		Path   string `help:"default output file name, used as given when -o is absent and exactly one backend is requested; ignored when several are."`
	}
}

// DefaultConfiguration returns the configuration used when no files and
// no overrides are present.
func DefaultConfiguration() *Configuration {
	c := &Configuration{}
	c.Toolchain.Cpp = "gcc"
	c.Toolchain.Fortran = "gfortran"
	c.Build.OptimiseOpts = "-O2"
	c.Build.ObjectBasePath = ""
	c.Output.Writer = "ninja"
	c.Output.Path = "build.ninja"
	return c
}

// readConfigFile merges filename into config, tolerating a missing
// file; a malformed one is an error.
func readConfigFile(config *Configuration, filename string) error {
	log.Debug("reading config from %s", filename)
	if err := gcfg.ReadFileInto(config, filename); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		if gcfg.FatalOnly(err) != nil {
			return err
		}
		log.Warning("error in config file %s: %s", filename, err)
	}
	return nil
}

// ReadConfigFiles merges the default configuration with each named
// file in turn, later files overriding earlier ones, then applies
// PYRATE_* environment overrides. filenames is expected to be
// [MachineConfigFileName, ConfigFileName, LocalConfigFileName] for the
// standard machine/repo/local layering, but any order is accepted.
func ReadConfigFiles(filenames []string) (*Configuration, error) {
	config := DefaultConfiguration()
	for _, filename := range filenames {
		if err := readConfigFile(config, filename); err != nil {
			return config, err
		}
	}
	applyEnvOverrides(config)
	return config, nil
}

// ConfigFilesIn returns the standard machine/repo/local file list for a
// build rooted at dir.
func ConfigFilesIn(dir string) []string {
	return []string{
		MachineConfigFileName,
		path.Join(dir, ConfigFileName),
		path.Join(dir, LocalConfigFileName),
	}
}

// applyEnvOverrides applies the handful of PYRATE_* environment
// variables named by the `var` tags above; unlike the teacher's
// reflection-driven alias-flag machinery (config_flags.go) this list is
// small enough to keep explicit rather than walking the struct by
// reflection.
func applyEnvOverrides(config *Configuration) {
	if v := os.Getenv("PYRATE_CPP"); v != "" {
		config.Toolchain.Cpp = v
	}
	if v := os.Getenv("PYRATE_FORTRAN"); v != "" {
		config.Toolchain.Fortran = v
	}
	if v := os.Getenv("PYRATE_STD"); v != "" {
		config.Toolchain.Std = v
	}
	if v := os.Getenv("PYRATE_OPTS"); v != "" {
		config.Build.OptimiseOpts = v
	}
	if v := os.Getenv("PYRATE_WRITER"); v != "" {
		config.Output.Writer = v
	}
}
