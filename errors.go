package wadlevel

import (
	"errors"
	"fmt"
)

// ErrEmptyLump is wrapped by the FormatError returned for an empty NODES or SSECTORS lump.
var ErrEmptyLump = errors.New("empty lump")

// FormatError reports a malformed or truncated lump, or a tree whose shape cannot be walked.
// Index is the offending record, or -1 when the error concerns the lump as a whole.
type FormatError struct {
	Kind  Kind
	Index int
	Msg   string
	Err   error
}

func (e *FormatError) Error() string {
	return describe("format", e.Kind, e.Index, e.Msg, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// IntegrityError reports a reference that does not resolve, or a combination of references
// that cannot describe a valid level.
type IntegrityError struct {
	Kind  Kind
	Index int
	Msg   string
}

func (e *IntegrityError) Error() string {
	return describe("integrity", e.Kind, e.Index, e.Msg, nil)
}

// RangeError reports a node child bounding box with min > max on some axis.
type RangeError struct {
	Kind  Kind
	Index int
	Child int
	Box   BoundBox
}

func (e *RangeError) Error() string {
	msg := fmt.Sprintf("child %d bounding box %+v has min > max", e.Child, e.Box)
	return describe("range", e.Kind, e.Index, msg, nil)
}

func describe(class string, kind Kind, index int, msg string, err error) string {
	s := "wadlevel: " + class + ": " + kind.String()
	if index >= 0 {
		s += fmt.Sprintf(" record %d", index)
	}
	if msg != "" {
		s += ": " + msg
	}
	if err != nil {
		s += ": " + err.Error()
	}
	return s
}

func integrityErrorf(kind Kind, index int, format string, args ...any) error {
	return &IntegrityError{Kind: kind, Index: index, Msg: fmt.Sprintf(format, args...)}
}
