package errors

import "fmt"

// Diagnostic records a degraded but recoverable condition. The operation
// that produced it still returned a usable result.
type Diagnostic struct {
	Stage string
	Tag   string
	Frame int
	Msg   string
}

func (d Diagnostic) String() string {
	if d.Tag != "" {
		return fmt.Sprintf("%s: %s (tag %s)", d.Stage, d.Msg, d.Tag)
	}
	return fmt.Sprintf("%s: %s", d.Stage, d.Msg)
}

// Diagnostics collects the non-fatal notes of one operation.
type Diagnostics []Diagnostic

// Add appends a formatted note.
func (d *Diagnostics) Add(stage, tag string, frame int, format string, args ...any) {
	*d = append(*d, Diagnostic{Stage: stage, Tag: tag, Frame: frame, Msg: fmt.Sprintf(format, args...)})
}

// HasStage reports whether any note was recorded for stage.
func (d Diagnostics) HasStage(stage string) bool {
	for _, n := range d {
		if n.Stage == stage {
			return true
		}
	}
	return false
}
