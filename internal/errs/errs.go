// Package errs holds the error kinds shared across the codec, object,
// index and store packages. Each kind is its own type so callers can
// branch with errors.As instead of matching on string content.
package errs

import "fmt"

// ErrEmptyObject indicates an add/put was attempted with an object that has
// no geometry.
type ErrEmptyObject struct{}

func (e *ErrEmptyObject) Error() string { return "empty object" }

// ErrNotFound indicates get/put/del addressed an id absent from the table.
type ErrNotFound struct {
	Id uint32
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("object not found: id %d", e.Id)
}

// ErrIdOverflow indicates the next id would be the reserved sentinel
// 0xFFFFFFFF.
type ErrIdOverflow struct{}

func (e *ErrIdOverflow) Error() string { return "id space exhausted" }

// ErrBadTypeString indicates a type string did not match
// "<class>:<u24>" or "none".
type ErrBadTypeString struct {
	Str    string
	Reason string
}

func (e *ErrBadTypeString) Error() string {
	if e.Str == "" {
		return fmt.Sprintf("can't parse object type: %s", e.Reason)
	}
	return fmt.Sprintf("can't parse object type %q: %s", e.Str, e.Reason)
}

// ErrBadAlignString indicates an unknown alignment token.
type ErrBadAlignString struct {
	Str string
}

func (e *ErrBadAlignString) Error() string {
	return fmt.Sprintf("unknown object alignment: %q", e.Str)
}

// ErrDecode indicates malformed binary or text input: a record with the
// wrong size for its primitive, an unknown tag, a truncated stream, a
// malformed number, or an unterminated escape.
type ErrDecode struct {
	Reason string
}

func (e *ErrDecode) Error() string { return "decode error: " + e.Reason }

// ErrIo indicates a persistent-store open/read/write failure.
type ErrIo struct {
	Op  string
	Err error
}

func (e *ErrIo) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *ErrIo) Unwrap() error { return e.Err }

// ErrInvariant indicates an internal consistency check failed, such as the
// spatial index pointing at an id missing from the object table. Callers
// should treat this as a bug, not a recoverable condition.
type ErrInvariant struct {
	Reason string
}

func (e *ErrInvariant) Error() string { return "invariant violated: " + e.Reason }
