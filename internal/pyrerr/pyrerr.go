// Package pyrerr names the error-kind taxonomy from §7: configuration,
// probe, version and user-script errors, each wrapping a sentinel kind
// so a boundary (cmd/pyrate/main.go) can tell them apart without the
// core packages ever calling os.Exit or log.Fatal themselves.
package pyrerr

import "fmt"

// A Kind classifies why an operation failed, per §7's four error kinds.
type Kind string

const (
	// Configuration covers an unknown external/toolchain/rule
	// connection, an ambiguous target type, an empty input list to a
	// library constructor, a reference to a non-existent library file,
	// a nil in an input list, or multiple no_rename collisions.
	Configuration Kind = "configuration"
	// Probe covers a subprocess spawn failure or non-zero exit during
	// toolchain discovery.
	Probe Kind = "probe"
	// Version covers an unparsable version string or a failed
	// acceptance predicate.
	Version Kind = "version"
	// UserScript covers a malformed or erroring build script, reported
	// with a file-and-line pointer at the evaluation boundary.
	UserScript Kind = "user-script"
)

// Error is a pyrerr-classified error: a Kind plus the underlying cause.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Err) }

func (e *Error) Unwrap() error { return e.Err }

// New wraps err with kind, or returns nil if err is nil.
func New(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// Newf is New for a formatted message.
func Newf(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf reports err's Kind, or "" if err was not produced by this
// package.
func KindOf(err error) Kind {
	var e *Error
	for err != nil {
		if pe, ok := err.(*Error); ok {
			e = pe
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	if e == nil {
		return ""
	}
	return e.Kind
}
