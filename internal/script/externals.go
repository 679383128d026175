package script

import (
	"fmt"

	"github.com/pyrate-build/pyrate/internal/external"
	"github.com/pyrate-build/pyrate/internal/version"
)

// BuildExternal is buildExternal exported for cmd/pyrate, which needs
// the same name-to-constructor dispatch to seed a root Context's
// Toolchain from layered configuration before any script runs.
func BuildExternal(name, std, versionExpr, pkg string) (*external.External, error) {
	return buildExternal(name, std, versionExpr, pkg)
}

// pkgConfigPath is the config file's External.PkgConfigPath (§3.1),
// consulted by every "pkgconfig" external this process builds. Set
// once at startup via SetPkgConfigPath, the same package-level-config
// pattern SetIncludeLoader uses for the include callback.
var pkgConfigPath []string

// SetPkgConfigPath installs the extra directories prepended to
// PKG_CONFIG_PATH before every pkg-config probe. cmd/pyrate calls this
// once at startup with the layered configuration's External.PkgConfigPath.
func SetPkgConfigPath(dirs []string) {
	pkgConfigPath = dirs
}

// buildExternal dispatches a script's `external: <name>` field to the
// matching internal/external catalogue constructor (§4.11). std and
// versionExpr are consulted only by the constructors that accept them;
// pkg names the pkg-config package for "pkgconfig".
func buildExternal(name, std, versionExpr, pkg string) (*external.External, error) {
	switch name {
	case "pthread":
		return external.NewPthread(), nil
	case "gcc":
		pred, err := parsePredicate(versionExpr)
		if err != nil {
			return nil, err
		}
		return external.NewGCC(external.CompilerOptions{Std: std, Version: pred})
	case "clang":
		pred, err := parsePredicate(versionExpr)
		if err != nil {
			return nil, err
		}
		return external.NewClang(external.CompilerOptions{Std: std, Version: pred, VersionExpr: versionExpr})
	case "fortran":
		pred, err := parsePredicate(versionExpr)
		if err != nil {
			return nil, err
		}
		return external.NewFortran(external.CompilerOptions{Std: std, Version: pred})
	case "python":
		if versionExpr == "" {
			return external.NewPython(nil)
		}
		v, err := version.Parse(versionExpr)
		if err != nil {
			return nil, err
		}
		return external.NewPython(&v)
	case "root":
		pred, err := parsePredicate(versionExpr)
		if err != nil {
			return nil, err
		}
		return external.NewROOT(pred, versionExpr)
	case "pkgconfig":
		if pkg == "" {
			return nil, fmt.Errorf("pkgconfig external requires a package name")
		}
		pred, err := parsePredicate(versionExpr)
		if err != nil {
			return nil, err
		}
		return external.NewPkgConfig(pkg, pred, versionExpr, pkgConfigPath)
	case "swig":
		return nil, fmt.Errorf("swig is bound via op: wrapper, not toolchain/find_external")
	default:
		return nil, fmt.Errorf("unknown external %q", name)
	}
}
