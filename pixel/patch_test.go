package pixel

import (
	"bytes"
	"io"
	"testing"

	"github.com/caio-sobreiro/dicomframe/dicom"
	"github.com/caio-sobreiro/dicomframe/types"
)

// jpeglsHeader builds SOI, an APP segment, SOF55 with precision p and the
// start of a scan.
func jpeglsHeader(p byte) []byte {
	return []byte{
		0xFF, 0xD8,
		0xFF, 0xE0, 0x00, 0x04, 'J', 'L',
		0xFF, 0xF7, 0x00, 0x0B, p, 0x00, 0x02, 0x00, 0x02, 0x01, 0x01, 0x11, 0x00,
		0xFF, 0xDA, 0x00, 0x08, 0x01, 0x01, 0x00, 0x00, 0x00, 0x00,
		0xAA, 0xBB, 0xFF, 0xD9,
	}
}

// withLSE inserts a preset parameters segment after SOI.
func withLSE(stream []byte) []byte {
	lse := []byte{0xFF, 0xF8, 0x00, 0x0D, 0x01, 0x0F, 0xFF, 0x00, 0x03, 0x00, 0x07, 0x00, 0x15, 0x00, 0x40}
	out := append([]byte(nil), stream[:2]...)
	out = append(out, lse...)
	return append(out, stream[2:]...)
}

func TestPatchJPEGLS(t *testing.T) {
	tests := []struct {
		name       string
		in         []byte
		bitsStored int
		want       []byte
	}{
		{"precision rewritten", jpeglsHeader(16), 12, jpeglsHeader(12)},
		{"matching precision untouched", jpeglsHeader(12), 12, jpeglsHeader(12)},
		{"not a JPEG stream", []byte{1, 2, 3, 4, 5}, 12, []byte{1, 2, 3, 4, 5}},
		{"truncated header", jpeglsHeader(16)[:9], 12, jpeglsHeader(16)[:9]},
		{"unsupported depth passes through", jpeglsHeader(16), 32, jpeglsHeader(16)},
		{"preset parameters left alone", withLSE(jpeglsHeader(16)), 12, withLSE(jpeglsHeader(12))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := io.ReadAll(PatchJPEGLS(bytes.NewReader(tt.in), tt.bitsStored))
			if err != nil {
				t.Fatalf("ReadAll() error = %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("patched = % x, want % x", got, tt.want)
			}
		})
	}
}

func TestRandomAccessFrames_JPEGLSPatch(t *testing.T) {
	ds := imageDataset(2, 2, 1)
	ds.SetInts(dicom.TagBitsAllocated, dicom.VR_US, 16)
	ds.SetInts(dicom.TagBitsStored, dicom.VR_US, 12)
	ds.AddElement(dicom.TagPixelData, dicom.VR_OB, fragments(nil, jpeglsHeader(16)))
	loc, err := Locate(ds, types.JPEGLSLossless)
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	frames, err := NewRandomAccessFrames(loc, nil, WithJPEGLSPatch())
	if err != nil {
		t.Fatalf("NewRandomAccessFrames() error = %v", err)
	}
	src, err := frames.OpenFrame(0)
	if err != nil {
		t.Fatalf("OpenFrame(0) error = %v", err)
	}
	if got := readAll(t, src); !bytes.Equal(got, jpeglsHeader(12)) {
		t.Errorf("frame = % x, want patched header", got)
	}
}
