// Command pyrate reads a declarative build script and writes a Ninja
// or Make manifest for it (§6).
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/thought-machine/go-flags"
	"gopkg.in/op/go-logging.v1"

	"github.com/pyrate-build/pyrate/internal/buildgraph"
	"github.com/pyrate-build/pyrate/internal/config"
	"github.com/pyrate-build/pyrate/internal/external"
	"github.com/pyrate-build/pyrate/internal/platform"
	"github.com/pyrate-build/pyrate/internal/pyctx"
	"github.com/pyrate-build/pyrate/internal/pyrerr"
	"github.com/pyrate-build/pyrate/internal/pyrlog"
	"github.com/pyrate-build/pyrate/internal/registry"
	"github.com/pyrate-build/pyrate/internal/rule"
	"github.com/pyrate-build/pyrate/internal/script"
	"github.com/pyrate-build/pyrate/internal/targettype"
	"github.com/pyrate-build/pyrate/internal/toolchain"
	makewriter "github.com/pyrate-build/pyrate/internal/writer/make"
	"github.com/pyrate-build/pyrate/internal/writer/ninja"
)

// version is stamped at release time; left as a placeholder between
// releases the way the teacher's own main packages do it.
const version = "0.1.0"

var log = logging.MustGetLogger("main")

var opts struct {
	Version   bool `short:"V" long:"version" description:"Print the version and exit."`
	Makefile  bool `short:"M" long:"makefile" description:"Emit a Makefile instead of a Ninja manifest, overriding build_output."`
	Output    string `short:"o" long:"output" description:"Output file name; when more than one backend is requested its extension is substituted."`
	Verbosity int    `short:"v" long:"verbosity" default:"2" description:"Log verbosity: 0 critical, 1 error, 2 warning, 3 notice, 4 info, 5 debug."`

	Args struct {
		BuildFile string `positional-arg-name:"BUILD_FILE"`
	} `positional-args:"yes"`
}

func main() {
	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	extra, err := parser.ParseArgs(os.Args[1:])
	if err != nil {
		if ferr, ok := err.(*flags.Error); ok && ferr.Type == flags.ErrHelp {
			fmt.Println(err)
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if len(extra) > 0 {
		fmt.Fprintf(os.Stderr, "pyrate: unexpected argument(s): %s\n", strings.Join(extra, " "))
		os.Exit(1)
	}
	if opts.Version {
		fmt.Printf("pyrate version %s\n", version)
		os.Exit(0)
	}

	pyrlog.InitLogging(pyrlog.Verbosity(opts.Verbosity))

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "pyrate: %s\n", err)
		os.Exit(1)
	}
}

// run implements the whole CLI contract (§6.2) as a single error-returning
// function; main is the only place allowed to call os.Exit, matching the
// teacher's convention of keeping every other package exit-free.
func run() error {
	buildFile := opts.Args.BuildFile
	if buildFile == "" {
		buildFile = "build.yaml"
	}
	if info, err := os.Stat(buildFile); err == nil && info.IsDir() {
		buildFile = filepath.Join(buildFile, "build.yaml")
	}
	dir := filepath.Dir(buildFile)

	cfg, err := config.ReadConfigFiles(config.ConfigFilesIn(dir))
	if err != nil {
		return pyrerr.New(pyrerr.Configuration, err)
	}

	script.SetIncludeLoader(includeLoader(dir))
	script.SetPkgConfigPath(cfg.External.PkgConfigPath)

	doc, err := loadScript(buildFile)
	if err != nil {
		return err
	}

	root := pyctx.New(linuxPlatform(), rootToolchain(cfg))
	root.ObjectBasePath = cfg.Build.ObjectBasePath
	root.DefaultCompilerOpts = cfg.Build.OptimiseOpts
	root.LibSearchPath = cfg.External.SearchPath

	runner := script.NewRunner(root)
	defaults, buildOutput, err := runner.Run(doc)
	if err != nil {
		return err
	}
	scriptChoseBackend := len(doc.BuildOutput) > 0
	switch {
	case opts.Makefile:
		buildOutput = []string{"make"}
	case !scriptChoseBackend && cfg.Output.Writer != "":
		// The script didn't name a backend; config's Output.Writer
		// outranks the Runner's own hardcoded ninja fallback.
		buildOutput = []string{cfg.Output.Writer}
	}

	canonical, err := root.Registry.Canonicalize()
	if err != nil {
		return pyrerr.New(pyrerr.Configuration, err)
	}

	// -o (or its config fallback) only applies verbatim when exactly one
	// backend was requested; requesting more than one means no single
	// filename can serve both, so each gets its own default name with
	// -o's stem reused and its extension substituted (§6.2).
	explicitOutput := opts.Output
	if explicitOutput == "" && len(buildOutput) == 1 {
		explicitOutput = cfg.Output.Path
	}

	for _, backend := range buildOutput {
		outPath := outputPath(backend, explicitOutput, len(buildOutput) > 1)
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		writeErr := writeBackend(backend, f, canonical, defaults)
		if writeErr != nil {
			f.Close()
			return writeErr
		}
		if err := f.Close(); err != nil {
			return err
		}
		if info, err := os.Stat(outPath); err == nil {
			log.Infof("wrote %s (%s)", outPath, humanize.Bytes(uint64(info.Size())))
		}
	}
	return nil
}

// writeBackend dispatches to the requested writer. "make" imports under
// an alias since the package name "make" would otherwise shadow Go's
// builtin make().
func writeBackend(backend string, f *os.File, c *registry.Canonical, defaults []*buildgraph.BuildTarget) error {
	switch backend {
	case "ninja":
		return ninja.Write(f, c, defaults)
	case "make":
		return makewriter.Write(f, c, defaults)
	default:
		return pyrerr.Newf(pyrerr.UserScript, "build_output: unknown backend %q", backend)
	}
}

// outputPath derives a backend's output filename from explicitOutput
// (-o, or its config-file default when only one backend is in play),
// substituting its extension when more than one backend was requested
// (§6.2).
func outputPath(backend, explicitOutput string, multi bool) string {
	ext := map[string]string{"ninja": ".ninja", "make": ".mk"}[backend]
	if explicitOutput == "" {
		if backend == "make" {
			return "Makefile"
		}
		return "build.ninja"
	}
	if !multi {
		return explicitOutput
	}
	stem := strings.TrimSuffix(explicitOutput, filepath.Ext(explicitOutput))
	return stem + ext
}

func loadScript(path string) (*script.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pyrerr.New(pyrerr.UserScript, fmt.Errorf("reading %s: %w", path, err))
	}
	return script.Parse(data)
}

// includeLoader returns the callback script.SetIncludeLoader installs:
// a nested script's path is resolved relative to dir, the including
// script's own directory.
func includeLoader(dir string) func(path string) (*script.Document, error) {
	return func(path string) (*script.Document, error) {
		return loadScript(filepath.Join(dir, path))
	}
}

// rootToolchain seeds a Toolchain from layered configuration (§3.1): the
// cpp and fortran roles are bound lazily, deferring any probe failure
// until a script actually asks for the role.
func rootToolchain(cfg *config.Configuration) *toolchain.Toolchain {
	tc := toolchain.New()
	if cfg.Toolchain.Cpp != "" {
		name, std := cfg.Toolchain.Cpp, cfg.Toolchain.Std
		tc.Bind("cpp", func() (*external.External, error) {
			return script.BuildExternal(name, std, "", "")
		})
	}
	if cfg.Toolchain.Fortran != "" {
		name := cfg.Toolchain.Fortran
		tc.Bind("fortran", func() (*external.External, error) {
			return script.BuildExternal(name, "", "", "")
		})
	}
	return tc
}

// linuxPlatform seeds the fixed Linux install-path table (§6.5): shared
// and static libraries install to /usr/lib, executables to /usr/bin,
// every install rule running `cp $in $out`.
func linuxPlatform() *platform.Platform {
	p := platform.New("linux")
	p.SetExtension(targettype.Object, ".o")
	p.SetExtension(targettype.Shared, ".so")
	p.SetExtension(targettype.Static, ".a")
	p.SetExtension(targettype.Exe, "")

	p.SetInstallPath(targettype.Shared, "/usr/lib")
	p.SetInstallPath(targettype.Static, "/usr/lib")
	p.SetInstallPath(targettype.Exe, "/usr/bin")

	for _, from := range []targettype.Type{targettype.Shared, targettype.Static, targettype.Exe} {
		r, err := rule.New("install_"+string(from), "cp $in $out", "install $out", nil)
		if err != nil {
			panic(err)
		}
		r.Connection = targettype.Connection{From: from, To: targettype.Install}
		if err := p.AddInstallRule(r); err != nil {
			panic(err)
		}
	}
	return p
}
