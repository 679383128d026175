// Package targettype names the logical kinds a BuildSource or
// BuildTarget can be — the "target type" and "connection" vocabulary
// used to route rule resolution during graph construction (§4.2-§4.3).
package targettype

// A Type is the logical kind of an input or output.
type Type string

// The fixed set of structural kinds the canonicaliser and linker care
// about. Language tags (C, Cpp, Fortran, Swig, CppHeader, ...) identify
// what a source file compiles *from*; the structural kinds identify
// what a target *is*.
const (
	Object  Type = "object"
	Shared  Type = "shared"
	Static  Type = "static"
	Exe     Type = "exe"
	Install Type = "install"

	C         Type = "c"
	Cpp       Type = "cpp"
	Fortran   Type = "fortran"
	Swig      Type = "swig"
	CppHeader Type = "c++.h"
)

// Connection is a rule's (from_type, to_type) tag, consulted only
// during graph construction (Context.find_rule, object_file, link) and
// never serialised into the emitted manifest.
type Connection struct {
	From Type
	To   Type
}

func (c Connection) String() string {
	return string(c.From) + "->" + string(c.To)
}
