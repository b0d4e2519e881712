package pixel

import (
	"github.com/caio-sobreiro/dicomframe/errors"
)

// CursorState is the progress of a forward-only pixel data stream.
type CursorState int

const (
	NotStarted CursorState = iota
	AtFrame
	PostPixelData
	Closed
)

func (s CursorState) String() string {
	switch s {
	case NotStarted:
		return "not-started"
	case AtFrame:
		return "at-frame"
	case PostPixelData:
		return "post-pixel-data"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Cursor enforces the transitions of a forward-only stream:
//
//	NotStarted    -> AtFrame(k), PostPixelData, Closed
//	AtFrame(k)    -> AtFrame(j) for j > k, PostPixelData, Closed
//	PostPixelData -> Closed
//
// Every other request is a sequencing error.
type Cursor struct {
	state CursorState
	frame int
}

// State returns the current state.
func (c *Cursor) State() CursorState {
	return c.state
}

// Frame returns the last frame opened, or -1.
func (c *Cursor) Frame() int {
	if c.state == NotStarted {
		return -1
	}
	return c.frame
}

// Advance moves to frame k.
func (c *Cursor) Advance(k int) error {
	switch c.state {
	case NotStarted:
	case AtFrame:
		if k <= c.frame {
			return errors.NewSequencingError(opOpenFrame, k, c.frame)
		}
	case PostPixelData:
		return errors.NewSequencingError(opOpenFrame, k, c.frame)
	default:
		return closedError(opOpenFrame, k)
	}
	c.state = AtFrame
	c.frame = k
	return nil
}

// Finish moves past the last frame.
func (c *Cursor) Finish() error {
	switch c.state {
	case NotStarted, AtFrame, PostPixelData:
		c.state = PostPixelData
		return nil
	}
	return closedError("finish pixel data", c.frame)
}

// Close ends the stream; only Close is valid afterwards.
func (c *Cursor) Close() {
	c.state = Closed
}

func closedError(op string, frame int) error {
	return &errors.PixelError{
		Category: errors.Sequencing,
		Op:       op,
		Frame:    frame,
		Msg:      "stream is closed",
	}
}
