// Package interfaces contains the contracts between frame access, codecs
// and conversion.
package interfaces

import (
	"image"
	"io"

	"github.com/caio-sobreiro/dicomframe/pixel"
)

// FrameDecoder decodes the bytes of one compressed frame into an image in
// the photometric interpretation the decoder produces.
type FrameDecoder interface {
	Decode(src io.Reader, desc pixel.ImageDescriptor) (image.Image, error)
}

// RasterDecoder is implemented by decoders that can hand back raw samples
// without building an image first.
type RasterDecoder interface {
	FrameDecoder
	DecodeRaster(src io.Reader, desc pixel.ImageDescriptor) (*pixel.Raster, error)
}

// UIDMapper derives replacement UIDs. Implementations must return the
// same output for the same input.
type UIDMapper interface {
	MapUID(uid string) string
}
