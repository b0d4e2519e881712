package codec

import (
	"encoding/binary"
	"fmt"
	"image"
	"io"

	"github.com/caio-sobreiro/dicomframe/errors"
	"github.com/caio-sobreiro/dicomframe/interfaces"
	"github.com/caio-sobreiro/dicomframe/pixel"
)

const rleHeaderLength = 64

// maxRLESegments is the number of offsets the header has room for.
const maxRLESegments = 15

// RLEDecoder decodes DICOM RLE Lossless frames.
type RLEDecoder struct{}

// NewRLEDecoder returns the RLE Lossless decoder.
func NewRLEDecoder(string) interfaces.FrameDecoder {
	return RLEDecoder{}
}

// DecodeRaster decodes one frame into a banded raster. The header holds
// the segment count and up to 15 segment offsets; each segment is one
// byte plane, most significant byte first within a sample.
func (RLEDecoder) DecodeRaster(src io.Reader, desc pixel.ImageDescriptor) (*pixel.Raster, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("read rle frame: %w", err)
	}
	if len(data) < rleHeaderLength {
		return nil, errors.NewFormatError("decode rle", -1, rleHeaderLength, int64(len(data)), "rle header truncated")
	}
	segments := int(binary.LittleEndian.Uint32(data))
	if segments > maxRLESegments {
		return nil, errors.NewFormatError("decode rle", -1, maxRLESegments, int64(segments), "rle header has more segments than offsets")
	}
	bytesPerSample := desc.BytesPerSample()
	if want := desc.SamplesPerPixel * bytesPerSample; segments != want {
		return nil, errors.NewFormatError("decode rle", -1, int64(want), int64(segments), "rle segment count disagrees with samples per pixel and bits allocated")
	}
	offsets := make([]int, segments+1)
	for i := 0; i < segments; i++ {
		offsets[i] = int(binary.LittleEndian.Uint32(data[4+i*4:]))
	}
	offsets[segments] = len(data)

	raster, err := pixel.NewRaster(desc.Columns, desc.Rows, desc.SamplesPerPixel, desc.BitsAllocated, true)
	if err != nil {
		return nil, err
	}
	plane := desc.Rows * desc.Columns
	segment := make([]byte, plane)
	for s := 0; s < segments; s++ {
		start, end := offsets[s], offsets[s+1]
		if start < rleHeaderLength || end > len(data) || start > end {
			return nil, errors.NewFormatError("decode rle", -1, int64(len(data)), int64(start), fmt.Sprintf("rle segment %d out of range", s))
		}
		for i := range segment {
			segment[i] = 0
		}
		if err := unpackBits(data[start:end], segment); err != nil {
			return nil, fmt.Errorf("rle segment %d: %w", s, err)
		}
		sample, byteIndex := s/bytesPerSample, s%bytesPerSample
		base := sample * plane
		if !raster.Wide() {
			copy(raster.Bytes[base:base+plane], segment)
			continue
		}
		shift := uint(8 * (bytesPerSample - 1 - byteIndex))
		for i, b := range segment {
			raster.Words[base+i] |= uint16(b) << shift
		}
	}
	return raster, nil
}

// Decode returns the frame as an image.
func (d RLEDecoder) Decode(src io.Reader, desc pixel.ImageDescriptor) (image.Image, error) {
	raster, err := d.DecodeRaster(src, desc)
	if err != nil {
		return nil, err
	}
	return pixel.ImageFromRaster(raster, desc.Photometric)
}

// unpackBits decodes PackBits runs into out. Decoding stops when out is
// full; a short segment leaves the remainder zero.
func unpackBits(data, out []byte) error {
	j := 0
	for i := 0; i < len(data) && j < len(out); {
		n := int8(data[i])
		i++
		switch {
		case n == -128:
		case n >= 0:
			count := int(n) + 1
			if i+count > len(data) {
				return fmt.Errorf("literal run truncated at %d", i)
			}
			j += copy(out[j:], data[i:i+count])
			i += count
		default:
			if i >= len(data) {
				return fmt.Errorf("replicate run truncated at %d", i)
			}
			count := int(-n) + 1
			for k := 0; k < count && j < len(out); k++ {
				out[j] = data[i]
				j++
			}
			i++
		}
	}
	return nil
}
