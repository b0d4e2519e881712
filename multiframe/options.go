package multiframe

import (
	"io"

	"github.com/caio-sobreiro/dicomframe/interfaces"
)

// DefaultInstanceNumberFormat combines the multi-frame Instance Number
// with the zero padded 1-based frame number.
const DefaultInstanceNumberFormat = "%s%04d"

// Option configures a Converter.
type Option func(*Converter)

// WithUIDMapper derives SOP Instance, Series Instance and referenced
// instance UIDs with m instead of the unkeyed HashUIDMapper.
func WithUIDMapper(m interfaces.UIDMapper) Option {
	return func(c *Converter) {
		c.mapper = m
	}
}

// WithPreserveSeriesInstanceUID keeps the Series Instance UID of the
// multi-frame object on every extracted frame.
func WithPreserveSeriesInstanceUID() Option {
	return func(c *Converter) {
		c.preserveSeries = true
	}
}

// WithInstanceNumberFormat sets the fmt template of the Instance Number.
// It receives the original Instance Number as a string and the 1-based
// frame number as an int.
func WithInstanceNumberFormat(format string) Option {
	return func(c *Converter) {
		c.instanceNumberFormat = format
	}
}

// WithSource resolves fragments that were not loaded, needed when frame
// boundaries have to be found from the fragment payloads.
func WithSource(src io.ReaderAt) Option {
	return func(c *Converter) {
		c.src = src
	}
}
