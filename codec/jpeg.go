package codec

import (
	"image"
	"image/jpeg"
	"io"

	"github.com/caio-sobreiro/dicomframe/interfaces"
	"github.com/caio-sobreiro/dicomframe/pixel"
)

// JPEGDecoder decodes baseline and 8-bit extended JPEG frames. YCbCr
// frames come back as RGB.
type JPEGDecoder struct{}

// NewJPEGDecoder returns the baseline JPEG decoder.
func NewJPEGDecoder(string) interfaces.FrameDecoder {
	return JPEGDecoder{}
}

// Decode decodes one JPEG frame.
func (JPEGDecoder) Decode(src io.Reader, _ pixel.ImageDescriptor) (image.Image, error) {
	return jpeg.Decode(src)
}
