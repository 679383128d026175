// Package script parses and replays the declarative YAML build-script
// surface (§6.1): the Go-native stand-in for the original's embedded
// Python evaluator, chosen per §9's design note because Go has no
// bundled equivalent. A document is parsed once with gopkg.in/yaml.v3
// into an ordered operation list and replayed against a root
// pyctx.Context in document order, preserving the original's
// program-order execution model without a general-purpose evaluator.
package script

// ToolchainBinding binds one role (e.g. "cpp") to an external, with an
// optional language standard and version floor.
type ToolchainBinding struct {
	External string `yaml:"external"`
	Std      string `yaml:"std"`
	Version  string `yaml:"version"`
}

// Op is one entry in the ordered `targets:` list. Every field is
// optional; which ones are consulted depends on Op.Op. Named this way
// (rather than, say, "Step") because it mirrors the op field's own
// name in the YAML, which mirrors a Context method 1:1 (§6.1).
type Op struct {
	Op string `yaml:"op"`

	Name    string   `yaml:"name"`
	Inputs  []string `yaml:"inputs"`
	Targets []string `yaml:"targets"`

	CompilerOpts string `yaml:"compiler_opts"`
	LinkerOpts   string `yaml:"linker_opts"`
	Destination  string `yaml:"destination"`
	NoRename     bool   `yaml:"no_rename"`

	// Inherit is consulted only by op: context, selecting whether the
	// new sibling carries over ObjectBasePath/ImplicitInputs (§4.10).
	Inherit bool `yaml:"inherit"`

	Role     string `yaml:"role"`
	External string `yaml:"external"`
	Std      string `yaml:"std"`
	Version  string `yaml:"version"`
	Pkg      string `yaml:"pkg"`

	// Context selects a previously created sibling Context (via an
	// `op: context` entry) to run this op against instead of the root
	// Context. Empty means the root Context.
	Context string `yaml:"context"`

	Pattern string   `yaml:"pattern"`
	Base    string   `yaml:"base"`
	Recurse bool     `yaml:"recurse"`
	Names   []string `yaml:"names"`
	Dirs    []string `yaml:"dirs"`

	From string `yaml:"from"`
	To   string `yaml:"to"`

	Cmd         string            `yaml:"cmd"`
	Description string            `yaml:"description"`
	Defaults    map[string]string `yaml:"defaults"`
	Params      map[string]string `yaml:"params"`

	Swig struct {
		Lang         string   `yaml:"lang"`
		Ifile        string   `yaml:"ifile"`
		Libs         []string `yaml:"libs"`
		LangExternal string   `yaml:"lang_external"`
		SwigOpts     string   `yaml:"swig_opts"`
	} `yaml:"swig"`

	Include IncludeOp `yaml:"include"`
}

// IncludeOp is the inline body of an `op: include` entry, and also the
// shape of each entry in the document's top-level `include:` list.
type IncludeOp struct {
	Path       string `yaml:"path"`
	Inherit    bool   `yaml:"inherit"`
	TargetName string `yaml:"target_name"`
}

// Document is the parsed shape of a build script (§6.1).
type Document struct {
	Toolchain      map[string]ToolchainBinding `yaml:"toolchain"`
	Targets        []Op                        `yaml:"targets"`
	Include        []IncludeOp                 `yaml:"include"`
	DefaultTargets []string                    `yaml:"default_targets"`
	BuildOutput    []string                    `yaml:"build_output"`
}
