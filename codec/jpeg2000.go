package codec

import (
	"bytes"
	"fmt"
	"image"
	"io"

	jpeg2000 "github.com/mrjoshuak/go-jpeg2000"

	"github.com/caio-sobreiro/dicomframe/interfaces"
	"github.com/caio-sobreiro/dicomframe/pixel"
)

// JPEG2000Decoder decodes JPEG 2000 and HTJ2K codestreams.
//
// The codec scales samples of any precision to the full 8 or 16 bit
// range and clamps negative values. DecodeRaster scales back to the
// codestream precision so stored values survive unchanged; signed data is
// limited to its non-negative half.
type JPEG2000Decoder struct{}

// NewJPEG2000Decoder returns the JPEG 2000 decoder.
func NewJPEG2000Decoder(string) interfaces.FrameDecoder {
	return JPEG2000Decoder{}
}

// Decode decodes one codestream into an image.
func (JPEG2000Decoder) Decode(src io.Reader, _ pixel.ImageDescriptor) (image.Image, error) {
	return jpeg2000.Decode(src)
}

// DecodeRaster decodes one codestream into stored sample values.
func (JPEG2000Decoder) DecodeRaster(src io.Reader, desc pixel.ImageDescriptor) (*pixel.Raster, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("read jpeg 2000 frame: %w", err)
	}
	meta, err := jpeg2000.DecodeMetadata(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("read jpeg 2000 header: %w", err)
	}
	img, err := jpeg2000.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	raster, err := pixel.RasterFromImage(img, desc.BitsAllocated)
	if err != nil {
		return nil, err
	}
	if len(meta.BitsPerComponent) > 0 {
		unscale(raster, meta.BitsPerComponent[0])
	}
	return raster, nil
}

// unscale reverses v*full/max scaling of a precision-bit sample.
func unscale(r *pixel.Raster, precision int) {
	if precision <= 0 || precision == 8 || precision == 16 || precision > 16 {
		return
	}
	full := 255
	if precision > 8 {
		if !r.Wide() {
			return
		}
		full = 65535
	}
	maxVal := 1<<precision - 1
	back := func(v int) int { return (v*maxVal + full - 1) / full }
	if r.Wide() {
		for i, v := range r.Words {
			r.Words[i] = uint16(back(int(v)))
		}
		return
	}
	for i, v := range r.Bytes {
		r.Bytes[i] = uint8(back(int(v)))
	}
}
