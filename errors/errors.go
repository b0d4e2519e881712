// Package errors provides the error taxonomy for frame extraction and decoding
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors. Every *PixelError matches the sentinel of its category
// with errors.Is.
var (
	ErrFormat              = errors.New("dicom: pixel data format inconsistency")
	ErrNoPixelData         = errors.New("dicom: no pixel data")
	ErrMalformedMultiframe = errors.New("dicom: malformed multi-frame object")
	ErrUnsupportedTransfer = errors.New("dicom: unsupported transfer syntax")
	ErrUnsupportedSOPClass = errors.New("dicom: unsupported SOP class")
	ErrSequencing          = errors.New("dicom: frame sequencing violation")
	ErrFrameOutOfBounds    = errors.New("dicom: frame index out of bounds")
)

// Category classifies a fatal error.
type Category int

const (
	FormatInconsistency Category = iota + 1
	MissingStructure
	Unsupported
	Sequencing
	OutOfBounds
)

func (c Category) String() string {
	switch c {
	case FormatInconsistency:
		return "format-inconsistency"
	case MissingStructure:
		return "missing-structure"
	case Unsupported:
		return "unsupported"
	case Sequencing:
		return "sequencing"
	case OutOfBounds:
		return "out-of-bounds"
	default:
		return "unknown"
	}
}

// PixelError is a fatal error carrying its category and the context needed
// to diagnose it. Frame is -1 when no frame is involved.
type PixelError struct {
	Category       Category
	Op             string
	Frame          int
	Tag            string
	TransferSyntax string
	Expected       int64
	Actual         int64
	Msg            string
	Err            error
}

func (e *PixelError) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Msg)
	if e.Frame >= 0 {
		fmt.Fprintf(&b, " (frame %d)", e.Frame)
	}
	if e.Tag != "" {
		fmt.Fprintf(&b, " (tag %s)", e.Tag)
	}
	if e.TransferSyntax != "" {
		fmt.Fprintf(&b, " (transfer syntax %s)", e.TransferSyntax)
	}
	if e.Expected != 0 || e.Actual != 0 {
		fmt.Fprintf(&b, " (expected %d, actual %d)", e.Expected, e.Actual)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *PixelError) Unwrap() error {
	return e.Err
}

// Is matches the category sentinel, or the more specific sentinel the
// error was created for.
func (e *PixelError) Is(target error) bool {
	switch target {
	case ErrFormat:
		return e.Category == FormatInconsistency
	case ErrSequencing:
		return e.Category == Sequencing
	case ErrFrameOutOfBounds:
		return e.Category == OutOfBounds
	}
	return false
}

// NewFormatError reports a declared size that disagrees with the bytes present.
func NewFormatError(op string, frame int, expected, actual int64, msg string) *PixelError {
	return &PixelError{
		Category: FormatInconsistency,
		Op:       op,
		Frame:    frame,
		Expected: expected,
		Actual:   actual,
		Msg:      msg,
	}
}

// NewMissingError reports absent required structure. sentinel is one of
// ErrNoPixelData or ErrMalformedMultiframe.
func NewMissingError(op string, frame int, tag string, sentinel error) *PixelError {
	return &PixelError{
		Category: MissingStructure,
		Op:       op,
		Frame:    frame,
		Tag:      tag,
		Msg:      "required structure missing",
		Err:      sentinel,
	}
}

// NewUnsupportedTransferError reports a transfer syntax without a decoder.
func NewUnsupportedTransferError(op, transferSyntax string) *PixelError {
	return &PixelError{
		Category:       Unsupported,
		Op:             op,
		Frame:          -1,
		TransferSyntax: transferSyntax,
		Msg:            "no decoder registered",
		Err:            ErrUnsupportedTransfer,
	}
}

// NewUnsupportedSOPClassError reports a SOP class the operation cannot handle.
func NewUnsupportedSOPClassError(op, sopClassUID string) *PixelError {
	return &PixelError{
		Category: Unsupported,
		Op:       op,
		Frame:    -1,
		Msg:      fmt.Sprintf("SOP class %s", sopClassUID),
		Err:      ErrUnsupportedSOPClass,
	}
}

// NewSequencingError reports a backward request on a forward-only source.
func NewSequencingError(op string, requested, consumed int) *PixelError {
	return &PixelError{
		Category: Sequencing,
		Op:       op,
		Frame:    requested,
		Msg:      fmt.Sprintf("frame %d already consumed from forward-only stream", consumed),
	}
}

// NewOutOfBoundsError reports a frame index outside [0, frames).
func NewOutOfBoundsError(op string, frame, frames int) *PixelError {
	return &PixelError{
		Category: OutOfBounds,
		Op:       op,
		Frame:    frame,
		Msg:      fmt.Sprintf("number of frames is %d", frames),
	}
}

// CategoryOf returns the category of the first *PixelError in err's chain,
// or zero if there is none.
func CategoryOf(err error) Category {
	var pe *PixelError
	if errors.As(err, &pe) {
		return pe.Category
	}
	return 0
}

// IsSequencing reports whether err is a programming error that retrying
// on the same stream cannot fix.
func IsSequencing(err error) bool {
	return CategoryOf(err) == Sequencing
}

// IsFatal reports whether err carries one of the fatal categories. Errors
// from outside the taxonomy, such as I/O errors, report false.
func IsFatal(err error) bool {
	return CategoryOf(err) != 0
}
