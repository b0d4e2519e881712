package codec

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"reflect"
	"testing"

	jpeg2000 "github.com/mrjoshuak/go-jpeg2000"

	"github.com/caio-sobreiro/dicomframe/dicom"
	"github.com/caio-sobreiro/dicomframe/errors"
	"github.com/caio-sobreiro/dicomframe/interfaces"
	"github.com/caio-sobreiro/dicomframe/pixel"
	"github.com/caio-sobreiro/dicomframe/types"
)

func descriptor(ts string, rows, cols, samples, bits int) pixel.ImageDescriptor {
	photometric := types.Photometric(types.Monochrome2)
	if samples == 3 {
		photometric = types.RGB
	}
	return pixel.ImageDescriptor{
		Rows:              rows,
		Columns:           cols,
		SamplesPerPixel:   samples,
		BitsAllocated:     bits,
		BitsStored:        bits,
		HighBit:           bits - 1,
		Photometric:       photometric,
		Frames:            1,
		TransferSyntaxUID: ts,
		BigEndian:         types.IsBigEndian(ts),
		PixelDataVR:       dicom.VR_OW,
	}
}

func TestNativeDecoder(t *testing.T) {
	tests := []struct {
		name      string
		desc      pixel.ImageDescriptor
		in        []byte
		wantBytes []uint8
		wantWords []uint16
	}{
		{
			name:      "8-bit little endian",
			desc:      descriptor(types.ExplicitVRLittleEndian, 1, 4, 1, 8),
			in:        []byte{1, 2, 3, 4},
			wantBytes: []uint8{1, 2, 3, 4},
		},
		{
			name:      "16-bit little endian",
			desc:      descriptor(types.ExplicitVRLittleEndian, 1, 2, 1, 16),
			in:        []byte{0x01, 0x02, 0x03, 0x04},
			wantWords: []uint16{0x0201, 0x0403},
		},
		{
			name:      "16-bit big endian",
			desc:      descriptor(types.ExplicitVRBigEndian, 1, 2, 1, 16),
			in:        []byte{0x01, 0x02, 0x03, 0x04},
			wantWords: []uint16{0x0102, 0x0304},
		},
		{
			name:      "8-bit OW big endian swapped",
			desc:      descriptor(types.ExplicitVRBigEndian, 1, 4, 1, 8),
			in:        []byte{2, 1, 4, 3},
			wantBytes: []uint8{1, 2, 3, 4},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NativeDecoder{}.DecodeRaster(bytes.NewReader(tt.in), tt.desc)
			if err != nil {
				t.Fatalf("DecodeRaster() error = %v", err)
			}
			if tt.wantBytes != nil && !reflect.DeepEqual(r.Bytes, tt.wantBytes) {
				t.Errorf("Bytes = %v, want %v", r.Bytes, tt.wantBytes)
			}
			if tt.wantWords != nil && !reflect.DeepEqual(r.Words, tt.wantWords) {
				t.Errorf("Words = %#v, want %#v", r.Words, tt.wantWords)
			}
		})
	}
}

func TestNativeDecoder_ShortFrame(t *testing.T) {
	_, err := NativeDecoder{}.DecodeRaster(bytes.NewReader([]byte{1, 2}), descriptor(types.ExplicitVRLittleEndian, 2, 2, 1, 8))
	if err == nil {
		t.Error("DecodeRaster() expected error for short frame")
	}
}

func TestNativeDecoder_BandedColour(t *testing.T) {
	desc := descriptor(types.ExplicitVRLittleEndian, 1, 2, 3, 8)
	desc.PlanarConfiguration = 1
	r, err := NativeDecoder{}.DecodeRaster(bytes.NewReader([]byte{10, 11, 20, 21, 30, 31}), desc)
	if err != nil {
		t.Fatalf("DecodeRaster() error = %v", err)
	}
	if got := r.At(1, 0, 2); got != 31 {
		t.Errorf("At(1,0,2) = %d, want 31", got)
	}
	if got := r.Interleaved().Bytes; !reflect.DeepEqual(got, []uint8{10, 20, 30, 11, 21, 31}) {
		t.Errorf("Interleaved() = %v", got)
	}
}

// rleFrame builds an RLE frame from already encoded segments.
func rleFrame(segments ...[]byte) []byte {
	header := make([]byte, rleHeaderLength)
	binary.LittleEndian.PutUint32(header, uint32(len(segments)))
	offset := rleHeaderLength
	var body []byte
	for i, s := range segments {
		binary.LittleEndian.PutUint32(header[4+i*4:], uint32(offset))
		body = append(body, s...)
		offset += len(s)
	}
	return append(header, body...)
}

func TestRLEDecoder(t *testing.T) {
	t.Run("8-bit", func(t *testing.T) {
		// replicate 7 three times, then literal 1 2
		frame := rleFrame([]byte{0xFE, 7, 0x01, 1, 2})
		r, err := RLEDecoder{}.DecodeRaster(bytes.NewReader(frame), descriptor(types.RLELossless, 1, 5, 1, 8))
		if err != nil {
			t.Fatalf("DecodeRaster() error = %v", err)
		}
		if !reflect.DeepEqual(r.Bytes, []uint8{7, 7, 7, 1, 2}) {
			t.Errorf("Bytes = %v", r.Bytes)
		}
	})
	t.Run("16-bit high byte first", func(t *testing.T) {
		frame := rleFrame([]byte{0x01, 0x12, 0x34}, []byte{0x01, 0x56, 0x78})
		r, err := RLEDecoder{}.DecodeRaster(bytes.NewReader(frame), descriptor(types.RLELossless, 1, 2, 1, 16))
		if err != nil {
			t.Fatalf("DecodeRaster() error = %v", err)
		}
		if !reflect.DeepEqual(r.Words, []uint16{0x1256, 0x3478}) {
			t.Errorf("Words = %#v", r.Words)
		}
	})
	t.Run("short segment padded", func(t *testing.T) {
		frame := rleFrame([]byte{0x00, 9})
		r, err := RLEDecoder{}.DecodeRaster(bytes.NewReader(frame), descriptor(types.RLELossless, 1, 3, 1, 8))
		if err != nil {
			t.Fatalf("DecodeRaster() error = %v", err)
		}
		if !reflect.DeepEqual(r.Bytes, []uint8{9, 0, 0}) {
			t.Errorf("Bytes = %v", r.Bytes)
		}
	})
	t.Run("more segments than the header holds", func(t *testing.T) {
		frame := make([]byte, rleHeaderLength)
		binary.LittleEndian.PutUint32(frame, 16)
		_, err := RLEDecoder{}.DecodeRaster(bytes.NewReader(frame), descriptor(types.RLELossless, 1, 1, 8, 16))
		if errors.CategoryOf(err) != errors.FormatInconsistency {
			t.Errorf("DecodeRaster() error = %v, want format inconsistency", err)
		}
	})
	t.Run("segment count mismatch", func(t *testing.T) {
		frame := rleFrame([]byte{0x00, 9})
		_, err := RLEDecoder{}.DecodeRaster(bytes.NewReader(frame), descriptor(types.RLELossless, 1, 1, 3, 8))
		if errors.CategoryOf(err) != errors.FormatInconsistency {
			t.Errorf("DecodeRaster() error = %v, want format inconsistency", err)
		}
	})
}

// fakeDecoder records which path the dispatcher took.
type fakeDecoder struct {
	imageCalls  *int
	rasterCalls *int
}

func (f fakeDecoder) Decode(src io.Reader, desc pixel.ImageDescriptor) (image.Image, error) {
	*f.imageCalls++
	img := image.NewRGBA(image.Rect(0, 0, desc.Columns, desc.Rows))
	img.SetRGBA(0, 0, color.RGBA{R: 1, G: 2, B: 3, A: 255})
	return img, nil
}

func (f fakeDecoder) DecodeRaster(src io.Reader, desc pixel.ImageDescriptor) (*pixel.Raster, error) {
	*f.rasterCalls++
	return pixel.NewRaster(desc.Columns, desc.Rows, desc.SamplesPerPixel, desc.BitsAllocated, false)
}

func TestRegistry_Decode(t *testing.T) {
	var imageCalls, rasterCalls int
	registry := NewRegistry()
	registry.Register(types.JPEG2000, "fake", func(string) interfaces.FrameDecoder {
		return fakeDecoder{imageCalls: &imageCalls, rasterCalls: &rasterCalls}
	})

	desc := descriptor(types.JPEG2000, 1, 1, 3, 8)
	if _, err := registry.Decode(bytes.NewReader(nil), desc, HintRaster); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if rasterCalls != 1 || imageCalls != 0 {
		t.Errorf("raster path calls = %d/%d, want 1/0", rasterCalls, imageCalls)
	}

	// ICT data comes back as RGB, so the image path is used
	desc.Photometric = types.YBRICT
	decoded, err := registry.Decode(bytes.NewReader(nil), desc, HintRaster)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if imageCalls != 1 {
		t.Errorf("image path calls = %d, want 1", imageCalls)
	}
	if decoded.Photometric != types.RGB {
		t.Errorf("Photometric = %v, want RGB", decoded.Photometric)
	}
	if got := decoded.Raster.At(0, 0, 2); got != 3 {
		t.Errorf("blue sample = %d, want 3", got)
	}
}

func TestRegistry_Lookup(t *testing.T) {
	registry := NewRegistry()
	if _, err := registry.Lookup(types.ExplicitVRLittleEndian); err != nil {
		t.Errorf("Lookup(native) error = %v", err)
	}
	_, err := registry.Lookup(types.RLELossless)
	if errors.CategoryOf(err) != errors.Unsupported {
		t.Errorf("Lookup(unregistered) error = %v, want unsupported", err)
	}
	if !registry.Has(types.ExplicitVRBigEndian) {
		t.Error("Has(native) = false")
	}

	def := NewDefaultRegistry()
	for _, ts := range []string{types.RLELossless, types.JPEGBaseline8Bit, types.JPEGLSLossless, types.JPEGLosslessSV1, types.JPEG2000Lossless} {
		if !def.Has(ts) {
			t.Errorf("default registry lacks %s", ts)
		}
	}
	def.Unregister(types.RLELossless)
	if def.Has(types.RLELossless) {
		t.Error("Has() after Unregister = true")
	}
	if def.Has(types.MPEG2MainProfile) {
		t.Error("Has(video) = true")
	}
	regs := def.Registrations()
	for i := 1; i < len(regs); i++ {
		if regs[i-1].TransferSyntaxUID > regs[i].TransferSyntaxUID {
			t.Fatalf("Registrations() not ordered: %v", regs)
		}
	}
}

func TestJPEGDecoder_Gray(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 8, 8))
	for i := range src.Pix {
		src.Pix[i] = 128
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: 100}); err != nil {
		t.Fatalf("jpeg.Encode() error = %v", err)
	}

	decoded, err := NewDefaultRegistry().Decode(&buf, descriptor(types.JPEGBaseline8Bit, 8, 8, 1, 8), HintRaster)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if decoded.Raster.Samples != 1 || decoded.Raster.Width != 8 {
		t.Fatalf("raster = %dx%d samples %d", decoded.Raster.Width, decoded.Raster.Height, decoded.Raster.Samples)
	}
	if got := decoded.Raster.At(3, 3, 0); got < 126 || got > 130 {
		t.Errorf("sample = %d, want about 128", got)
	}
}

func TestJPEG2000Decoder_Dimensions(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 16, 16))
	for i := range src.Pix {
		src.Pix[i] = uint8(i)
	}
	var buf bytes.Buffer
	opts := jpeg2000.DefaultOptions()
	opts.Format = jpeg2000.FormatJ2K
	opts.Lossless = true
	if err := jpeg2000.Encode(&buf, src, opts); err != nil {
		t.Fatalf("jpeg2000.Encode() error = %v", err)
	}

	decoded, err := NewDefaultRegistry().Decode(&buf, descriptor(types.JPEG2000Lossless, 16, 16, 1, 8), HintRaster)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if decoded.Raster.Width != 16 || decoded.Raster.Height != 16 || decoded.Raster.Samples != 1 {
		t.Errorf("raster = %dx%d samples %d", decoded.Raster.Width, decoded.Raster.Height, decoded.Raster.Samples)
	}
}

func TestUnscale(t *testing.T) {
	r, _ := pixel.NewRaster(3, 1, 1, 16, false)
	// 12-bit 0, 1, 4095 scaled to 16 bits
	r.Words = []uint16{0, 1 * 65535 / 4095, 65535}
	unscale(r, 12)
	if !reflect.DeepEqual(r.Words, []uint16{0, 1, 4095}) {
		t.Errorf("Words = %v, want [0 1 4095]", r.Words)
	}
}
