package codec

import (
	"image"
	"io"

	"github.com/jpfielding/jpegs/pkg/compress/jpegli"
	"github.com/jpfielding/jpegs/pkg/compress/jpegls"

	"github.com/caio-sobreiro/dicomframe/interfaces"
	"github.com/caio-sobreiro/dicomframe/pixel"
)

// JPEGLSDecoder decodes JPEG-LS lossless and near-lossless frames.
type JPEGLSDecoder struct{}

// NewJPEGLSDecoder returns the JPEG-LS decoder.
func NewJPEGLSDecoder(string) interfaces.FrameDecoder {
	return JPEGLSDecoder{}
}

// Decode decodes one JPEG-LS frame.
func (JPEGLSDecoder) Decode(src io.Reader, _ pixel.ImageDescriptor) (image.Image, error) {
	return jpegls.Decode(src)
}

// JPEGLosslessDecoder decodes JPEG lossless process 14 frames.
type JPEGLosslessDecoder struct{}

// NewJPEGLosslessDecoder returns the JPEG lossless decoder.
func NewJPEGLosslessDecoder(string) interfaces.FrameDecoder {
	return JPEGLosslessDecoder{}
}

// Decode decodes one JPEG lossless frame.
func (JPEGLosslessDecoder) Decode(src io.Reader, _ pixel.ImageDescriptor) (image.Image, error) {
	return jpegli.Decode(src)
}
