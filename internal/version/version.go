// Package version parses dotted version strings into comparable tuples
// and builds the "check" predicates used during toolchain and external
// discovery (§4.8 of the design).
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// A Version is a 4-tuple of non-negative integers, comparable
// lexicographically. Shorter inputs are right-padded with zeros.
type Version [4]int

// String renders the version in dotted form, trimming trailing zero
// components back down to at least one.
func (v Version) String() string {
	n := 4
	for n > 1 && v[n-1] == 0 {
		n--
	}
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = strconv.Itoa(v[i])
	}
	return strings.Join(parts, ".")
}

// Compare returns -1, 0 or 1 as v is less than, equal to or greater
// than other, using plain tuple order.
func (v Version) Compare(other Version) int {
	for i := 0; i < 4; i++ {
		if v[i] != other[i] {
			if v[i] < other[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// Parse accepts a Version, an int, a float64, a dotted string, or a
// slice of components, and produces a canonical Version. Each dotted
// component is parsed as digits -> integer, or a single letter ->
// ordinal (a=0, b=1, ...); anything else is a VersionError.
func Parse(value interface{}) (Version, error) {
	switch v := value.(type) {
	case Version:
		return v, nil
	case int:
		return Parse(strconv.Itoa(v))
	case float64:
		return Parse(strconv.FormatFloat(v, 'f', -1, 64))
	case string:
		return parseDotted(v)
	case []string:
		return parseComponents(v)
	case []interface{}:
		strs := make([]string, len(v))
		for i, c := range v {
			strs[i] = fmt.Sprintf("%v", c)
		}
		return parseComponents(strs)
	default:
		return Version{}, &Error{Input: fmt.Sprintf("%v", value), Reason: "unsupported version value type"}
	}
}

func parseDotted(s string) (Version, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Version{}, &Error{Input: s, Reason: "empty version string"}
	}
	return parseComponents(strings.Split(s, "."))
}

func parseComponents(components []string) (Version, error) {
	if len(components) == 0 {
		return Version{}, &Error{Reason: "no version components given"}
	}
	if len(components) > 4 {
		return Version{}, &Error{Input: strings.Join(components, "."), Reason: "too many version components (max 4)"}
	}
	var v Version
	for i, c := range components {
		n, err := parseComponent(c)
		if err != nil {
			return Version{}, err
		}
		v[i] = n
	}
	return v, nil
}

// parseComponent parses a single dotted segment: a run of digits is an
// integer, a single letter is its alphabet ordinal (a=0, b=1, ...).
func parseComponent(c string) (int, error) {
	if c == "" {
		return 0, &Error{Input: c, Reason: "empty version component"}
	}
	if n, err := strconv.Atoi(c); err == nil {
		if n < 0 {
			return 0, &Error{Input: c, Reason: "version components must be non-negative"}
		}
		return n, nil
	}
	if len(c) == 1 {
		r := c[0]
		if r >= 'a' && r <= 'z' {
			return int(r - 'a'), nil
		}
		if r >= 'A' && r <= 'Z' {
			return int(r - 'A'), nil
		}
	}
	return 0, &Error{Input: c, Reason: "version component is neither digits nor a single letter"}
}

// Error is a VersionError for an unparsable version string or value,
// per the error taxonomy in §7. A probed version that fails a predicate
// is reported by the external that ran the check, not with this type.
type Error struct {
	Input  string
	Reason string
}

func (e *Error) Error() string {
	if e.Input == "" {
		return fmt.Sprintf("invalid version: %s", e.Reason)
	}
	return fmt.Sprintf("invalid version %q: %s", e.Input, e.Reason)
}

// A Predicate is a callable built from a relational operator against a
// reference Version; applied during external/toolchain discovery to
// decide whether a probed version is acceptable.
type Predicate func(Version) bool

// Op names a relational operator. The Predicate built from it does not
// record the operator.
type Op string

const (
	LT Op = "<"
	LE Op = "<="
	EQ Op = "=="
	NE Op = "!="
	GT Op = ">"
	GE Op = ">="
)

// Factory is the predicate factory exposed to build scripts as the
// read-only `version` name (§6). Each relational method parses its
// reference argument with Parse and returns a Predicate comparing
// against it; this is the Go stand-in for Python's operator overloads
// (`version < '3.5'`).
type Factory struct{}

// NewFactory returns the predicate factory.
func NewFactory() Factory { return Factory{} }

func (Factory) build(op Op, ref interface{}, cmp func(int) bool) (Predicate, error) {
	refVersion, err := Parse(ref)
	if err != nil {
		return nil, err
	}
	return func(v Version) bool {
		return cmp(v.Compare(refVersion))
	}, nil
}

// LessThan corresponds to `version < ref`.
func (f Factory) LessThan(ref interface{}) (Predicate, error) {
	return f.build(LT, ref, func(c int) bool { return c < 0 })
}

// LessOrEqual corresponds to `version <= ref`.
func (f Factory) LessOrEqual(ref interface{}) (Predicate, error) {
	return f.build(LE, ref, func(c int) bool { return c <= 0 })
}

// Equal corresponds to `version == ref`.
func (f Factory) Equal(ref interface{}) (Predicate, error) {
	return f.build(EQ, ref, func(c int) bool { return c == 0 })
}

// NotEqual corresponds to `version != ref`.
func (f Factory) NotEqual(ref interface{}) (Predicate, error) {
	return f.build(NE, ref, func(c int) bool { return c != 0 })
}

// GreaterThan corresponds to `version > ref`.
func (f Factory) GreaterThan(ref interface{}) (Predicate, error) {
	return f.build(GT, ref, func(c int) bool { return c > 0 })
}

// GreaterOrEqual corresponds to `version >= ref`.
func (f Factory) GreaterOrEqual(ref interface{}) (Predicate, error) {
	return f.build(GE, ref, func(c int) bool { return c >= 0 })
}
