package codec

import (
	"encoding/binary"
	"fmt"
	"image"
	"io"

	"github.com/caio-sobreiro/dicomframe/dicom"
	"github.com/caio-sobreiro/dicomframe/interfaces"
	"github.com/caio-sobreiro/dicomframe/pixel"
)

// NativeDecoder copies uncompressed samples into a raster.
type NativeDecoder struct{}

// NewNativeDecoder returns the decoder for native transfer syntaxes.
func NewNativeDecoder(string) interfaces.FrameDecoder {
	return NativeDecoder{}
}

// DecodeRaster reads exactly one frame. Words are read in the declared
// byte order. OW data with 8-bit samples under big endian encoding is
// stored as swapped byte pairs and is swapped back.
func (NativeDecoder) DecodeRaster(src io.Reader, desc pixel.ImageDescriptor) (*pixel.Raster, error) {
	raster, err := pixel.NewRaster(desc.Columns, desc.Rows, desc.SamplesPerPixel, desc.BitsAllocated, desc.Banded())
	if err != nil {
		return nil, err
	}
	buf := make([]byte, desc.FrameLength())
	if _, err := io.ReadFull(src, buf); err != nil {
		return nil, fmt.Errorf("read native frame: %w", err)
	}
	var order binary.ByteOrder = binary.LittleEndian
	if desc.BigEndian {
		order = binary.BigEndian
	}
	if !raster.Wide() {
		if desc.BigEndian && desc.PixelDataVR == dicom.VR_OW {
			swapPairs(buf)
		}
		copy(raster.Bytes, buf)
		return raster, nil
	}
	for i := range raster.Words {
		raster.Words[i] = order.Uint16(buf[i*2:])
	}
	return raster, nil
}

// Decode returns the frame as an image.
func (d NativeDecoder) Decode(src io.Reader, desc pixel.ImageDescriptor) (image.Image, error) {
	raster, err := d.DecodeRaster(src, desc)
	if err != nil {
		return nil, err
	}
	return pixel.ImageFromRaster(raster, desc.Photometric)
}

func swapPairs(b []byte) {
	for i := 0; i+1 < len(b); i += 2 {
		b[i], b[i+1] = b[i+1], b[i]
	}
}
