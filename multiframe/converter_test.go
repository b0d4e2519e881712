package multiframe

import (
	"bytes"
	stderrors "errors"
	"reflect"
	"strings"
	"testing"

	"github.com/caio-sobreiro/dicomframe/dicom"
	"github.com/caio-sobreiro/dicomframe/errors"
	"github.com/caio-sobreiro/dicomframe/pixel"
	"github.com/caio-sobreiro/dicomframe/types"
)

var (
	tagMRImageFrameTypeSequence = dicom.Tag{Group: 0x0018, Element: 0x9226}
	tagMREchoSequence           = dicom.Tag{Group: 0x0018, Element: 0x9114}
	tagFrameContentSequence     = dicom.Tag{Group: 0x0020, Element: 0x9111}
	tagFrameAcquisitionNumber   = dicom.Tag{Group: 0x0020, Element: 0x9156}
)

func item(build func(ds *dicom.Dataset)) *dicom.Dataset {
	ds := dicom.NewDataset()
	build(ds)
	return ds
}

// enhancedMR builds a 2x2 8-bit Enhanced MR object with three frames whose
// pixels are 0..11.
func enhancedMR() *dicom.Dataset {
	ds := dicom.NewDataset()
	ds.SetString(dicom.TagSOPClassUID, dicom.VR_UI, types.EnhancedMRImageStorage)
	ds.SetString(dicom.TagSOPInstanceUID, dicom.VR_UI, "1.2.3")
	ds.SetString(dicom.TagSeriesInstanceUID, dicom.VR_UI, "1.2.4")
	ds.SetString(dicom.TagInstanceNumber, dicom.VR_IS, "7")
	ds.SetString(dicom.TagPhotometricInterpretation, dicom.VR_CS, "MONOCHROME2")
	ds.SetInts(dicom.TagRows, dicom.VR_US, 2)
	ds.SetInts(dicom.TagColumns, dicom.VR_US, 2)
	ds.SetInts(dicom.TagBitsAllocated, dicom.VR_US, 8)
	ds.SetInts(dicom.TagBitsStored, dicom.VR_US, 8)
	ds.SetInts(dicom.TagSamplesPerPixel, dicom.VR_US, 1)
	ds.SetInts(dicom.TagNumberOfFrames, dicom.VR_IS, 3)
	ds.NewSequence(dicom.TagDimensionIndexSequence).Add(dicom.NewDataset())
	ds.AddElement(dicom.TagPixelData, dicom.VR_OB, []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11})

	shared := ds.NewSequence(dicom.TagSharedFunctionalGroupsSequence)
	shared.Add(item(func(fg *dicom.Dataset) {
		fg.NewSequence(dicom.TagFrameVOILUTSequence).Add(item(func(m *dicom.Dataset) {
			m.SetFloats(dicom.TagWindowCenter, dicom.VR_DS, 128)
			m.SetFloats(dicom.TagWindowWidth, dicom.VR_DS, 256)
		}))
		fg.NewSequence(dicom.TagPixelValueTransformationSequence).Add(item(func(m *dicom.Dataset) {
			m.SetFloats(dicom.TagRescaleSlope, dicom.VR_DS, 1)
			m.SetFloats(dicom.TagRescaleIntercept, dicom.VR_DS, 0)
		}))
	}))

	perFrame := ds.NewSequence(dicom.TagPerFrameFunctionalGroupsSequence)
	for f := 0; f < 3; f++ {
		f := f
		perFrame.Add(item(func(fg *dicom.Dataset) {
			fg.NewSequence(tagFrameContentSequence).Add(item(func(m *dicom.Dataset) {
				m.SetInts(tagFrameAcquisitionNumber, dicom.VR_US, f+1)
			}))
			fg.NewSequence(tagMRImageFrameTypeSequence).Add(item(func(m *dicom.Dataset) {
				m.SetString(dicom.TagFrameType, dicom.VR_CS, "ORIGINAL", "PRIMARY", "M", "NONE")
			}))
			fg.NewSequence(tagMREchoSequence).Add(item(func(m *dicom.Dataset) {
				m.SetFloats(dicom.TagEffectiveEchoTime, dicom.VR_FD, float64(10*(f+1)))
			}))
			if f == 1 {
				fg.NewSequence(dicom.TagFrameVOILUTSequence).Add(item(func(m *dicom.Dataset) {
					m.SetFloats(dicom.TagWindowCenter, dicom.VR_DS, 40)
					m.SetFloats(dicom.TagWindowWidth, dicom.VR_DS, 400)
				}))
			}
		}))
	}
	return ds
}

func newConverter(t *testing.T, opts ...Option) *Converter {
	t.Helper()
	c, err := New(opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestExtract_Attributes(t *testing.T) {
	emf := enhancedMR()
	mapper := &HashUIDMapper{}
	res, err := newConverter(t).Extract(emf, 1)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	got := res.Attributes

	for _, tag := range excluded {
		if tag == dicom.TagPixelData {
			continue
		}
		if got.Contains(tag) {
			t.Errorf("%s present in the extracted frame", tag)
		}
	}
	if got.Contains(dicom.TagFrameType) {
		t.Error("Frame Type present in the extracted frame")
	}

	tests := []struct {
		name string
		tag  dicom.Tag
		want string
	}{
		{"sop class", dicom.TagSOPClassUID, types.MRImageStorage},
		{"sop instance", dicom.TagSOPInstanceUID, mapper.MapUID("1.2.3") + ".2"},
		{"series", dicom.TagSeriesInstanceUID, mapper.MapUID("1.2.4")},
		{"instance number", dicom.TagInstanceNumber, "70002"},
		{"per-frame window wins", dicom.TagWindowCenter, "40"},
		{"shared macro", dicom.TagRescaleSlope, "1"},
		{"per-frame macro", tagFrameAcquisitionNumber, "2"},
		{"image type from frame type", dicom.TagImageType, "ORIGINAL"},
		{"echo time", dicom.TagEchoTime, "20"},
	}
	for _, tt := range tests {
		if v := got.GetString(tt.tag); v != tt.want {
			t.Errorf("%s: %s = %q, want %q", tt.name, tt.tag, v, tt.want)
		}
	}
	if v := got.GetStrings(dicom.TagImageType); len(v) != 4 {
		t.Errorf("Image Type = %v, want 4 values", v)
	}

	// the source is untouched
	if emf.GetString(dicom.TagSOPInstanceUID) != "1.2.3" || !emf.Contains(dicom.TagNumberOfFrames) {
		t.Error("Extract modified the multi-frame object")
	}
}

func TestExtract_PreserveSeriesInstanceUID(t *testing.T) {
	res, err := newConverter(t, WithPreserveSeriesInstanceUID()).Extract(enhancedMR(), 0)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got := res.Attributes.GetString(dicom.TagSeriesInstanceUID); got != "1.2.4" {
		t.Errorf("Series Instance UID = %q, want 1.2.4", got)
	}
}

func TestExtract_InstanceNumber(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		original string
		frame    int
		want     string
	}{
		{"default", "", "7", 2, "70003"},
		{"no original", "", "", 0, "0001"},
		{"separator", "%s-%d", "12", 2, "12-3"},
		{"keeps rightmost 16", "%s-%012d", "123456", 0, "456-000000000001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []Option
			if tt.format != "" {
				opts = append(opts, WithInstanceNumberFormat(tt.format))
			}
			emf := enhancedMR()
			if tt.original == "" {
				emf.Remove(dicom.TagInstanceNumber)
			} else {
				emf.SetString(dicom.TagInstanceNumber, dicom.VR_IS, tt.original)
			}
			res, err := newConverter(t, opts...).Extract(emf, tt.frame)
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if got := res.Attributes.GetString(dicom.TagInstanceNumber); got != tt.want {
				t.Errorf("Instance Number = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNew_InvalidInstanceNumberFormat(t *testing.T) {
	for _, format := range []string{"%s", "%d%d", "%s%s%d"} {
		if _, err := New(WithInstanceNumberFormat(format)); err == nil {
			t.Errorf("New(WithInstanceNumberFormat(%q)) error = nil", format)
		}
	}
	if _, err := New(WithUIDMapper(nil)); err == nil {
		t.Error("New(WithUIDMapper(nil)) error = nil")
	}
}

func TestExtract_Idempotent(t *testing.T) {
	key := []byte("conversion run")
	var results []*Result
	for i := 0; i < 2; i++ {
		mapper, err := NewHashUIDMapper(key)
		if err != nil {
			t.Fatalf("NewHashUIDMapper() error = %v", err)
		}
		res, err := newConverter(t, WithUIDMapper(mapper)).Extract(enhancedMR(), 2)
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		results = append(results, res)
	}
	if !reflect.DeepEqual(results[0].Attributes, results[1].Attributes) {
		t.Error("attributes differ between runs")
	}
	if !bytes.Equal(results[0].PixelData.Bytes, results[1].PixelData.Bytes) {
		t.Error("pixel data differs between runs")
	}
}

func TestExtract_FrameBounds(t *testing.T) {
	c := newConverter(t)
	for _, frame := range []int{-1, 3} {
		_, err := c.Extract(enhancedMR(), frame)
		if !stderrors.Is(err, errors.ErrFrameOutOfBounds) {
			t.Errorf("Extract(%d) error = %v, want out of bounds", frame, err)
		}
	}
}

func TestExtract_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		modify func(ds *dicom.Dataset)
		tag    dicom.Tag
	}{
		{
			name:   "no shared groups",
			modify: func(ds *dicom.Dataset) { ds.Remove(dicom.TagSharedFunctionalGroupsSequence) },
			tag:    dicom.TagSharedFunctionalGroupsSequence,
		},
		{
			name: "missing per-frame item",
			modify: func(ds *dicom.Dataset) {
				sq := ds.GetSequence(dicom.TagPerFrameFunctionalGroupsSequence)
				sq.Items = sq.Items[:2]
			},
			tag: dicom.TagPerFrameFunctionalGroupsSequence,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emf := enhancedMR()
			tt.modify(emf)
			_, err := newConverter(t).Extract(emf, 2)
			if !stderrors.Is(err, errors.ErrMalformedMultiframe) {
				t.Fatalf("Extract() error = %v, want ErrMalformedMultiframe", err)
			}
			var pe *errors.PixelError
			if !stderrors.As(err, &pe) || pe.Tag != tt.tag.String() || pe.Category != errors.MissingStructure {
				t.Errorf("error = %#v, want missing %s", err, tt.tag)
			}
		})
	}
}

func TestExtract_UnsupportedSOPClass(t *testing.T) {
	emf := enhancedMR()
	emf.SetString(dicom.TagSOPClassUID, dicom.VR_UI, types.MultiFrameGrayscaleByteSecondaryCaptureImageStorage)
	_, err := newConverter(t).Extract(emf, 0)
	if !stderrors.Is(err, errors.ErrUnsupportedSOPClass) {
		t.Errorf("Extract() error = %v, want ErrUnsupportedSOPClass", err)
	}
	if IsSupportedSOPClass(types.MultiFrameGrayscaleByteSecondaryCaptureImageStorage) {
		t.Error("IsSupportedSOPClass(secondary capture) = true")
	}
	for _, uid := range []string{types.EnhancedCTImageStorage, types.EnhancedMRImageStorage, types.EnhancedPETImageStorage} {
		if !IsSupportedSOPClass(uid) {
			t.Errorf("IsSupportedSOPClass(%s) = false", uid)
		}
	}
}

func reference(class, instance string, frames ...int) *dicom.Dataset {
	ref := dicom.NewDataset()
	ref.SetString(dicom.TagReferencedSOPClassUID, dicom.VR_UI, class)
	ref.SetString(dicom.TagReferencedSOPInstanceUID, dicom.VR_UI, instance)
	if len(frames) > 0 {
		ref.SetInts(dicom.TagReferencedFrameNumber, dicom.VR_IS, frames...)
	}
	return ref
}

func TestExtract_ReferencedImages(t *testing.T) {
	emf := enhancedMR()
	perFrame := emf.GetNestedAt(dicom.TagPerFrameFunctionalGroupsSequence, 0)
	refs := perFrame.NewSequence(dicom.TagReferencedImageSequence)
	refs.Add(reference(types.EnhancedCTImageStorage, "9.8", 1, 3))
	refs.Add(reference(types.CTImageStorage, "9.9"))
	refs.Add(reference(types.EnhancedMRImageStorage, "9.7"))
	emf.NewSequence(dicom.TagSourceImageSequence).Add(reference(types.EnhancedPETImageStorage, "9.6", 2))

	res, err := newConverter(t).Extract(emf, 0)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	mapper := &HashUIDMapper{}

	type ref struct{ class, instance string }
	read := func(tag dicom.Tag) []ref {
		var out []ref
		for _, item := range res.Attributes.GetSequence(tag).Items {
			if item.Contains(dicom.TagReferencedFrameNumber) {
				t.Errorf("%s item still has Referenced Frame Number", tag)
			}
			out = append(out, ref{item.GetString(dicom.TagReferencedSOPClassUID), item.GetString(dicom.TagReferencedSOPInstanceUID)})
		}
		return out
	}

	wantImages := []ref{
		{types.CTImageStorage, "9.9"},
		{types.CTImageStorage, mapper.MapUID("9.8") + ".1"},
		{types.CTImageStorage, mapper.MapUID("9.8") + ".3"},
		{types.MRImageStorage, mapper.MapUID("9.7") + ".1"},
	}
	if got := read(dicom.TagReferencedImageSequence); !reflect.DeepEqual(got, wantImages) {
		t.Errorf("Referenced Image Sequence = %v, want %v", got, wantImages)
	}
	wantSources := []ref{{types.PETImageStorage, mapper.MapUID("9.6") + ".2"}}
	if got := read(dicom.TagSourceImageSequence); !reflect.DeepEqual(got, wantSources) {
		t.Errorf("Source Image Sequence = %v, want %v", got, wantSources)
	}

	// the per-frame item of the source still references the multi-frame object
	if n := perFrame.GetSequence(dicom.TagReferencedImageSequence).Len(); n != 3 {
		t.Errorf("source references = %d, want 3", n)
	}
}

func TestExtract_InlinePixelData(t *testing.T) {
	res, err := newConverter(t).Extract(enhancedMR(), 1)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	want := []byte{4, 5, 6, 7}
	if res.PixelData.Kind != pixel.Inline || !bytes.Equal(res.PixelData.Bytes, want) {
		t.Errorf("pixel data = %v %v, want inline %v", res.PixelData.Kind, res.PixelData.Bytes, want)
	}
	if got := res.Attributes.GetBytes(dicom.TagPixelData); !bytes.Equal(got, want) {
		t.Errorf("Pixel Data element = %v, want %v", got, want)
	}

	short := enhancedMR()
	short.AddElement(dicom.TagPixelData, dicom.VR_OB, []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9})
	if _, err := newConverter(t).Extract(short, 2); !stderrors.Is(err, errors.ErrFormat) {
		t.Errorf("Extract() of short pixel data error = %v, want ErrFormat", err)
	}
}

func TestExtract_BulkPixelData(t *testing.T) {
	emf := enhancedMR()
	emf.AddElement(dicom.TagPixelData, dicom.VR_OB, &dicom.BulkData{URI: "file:///mf.dcm", Offset: 100, Length: 12})
	res, err := newConverter(t).Extract(emf, 2)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	bulk := res.PixelData.Bulk
	if res.PixelData.Kind != pixel.Bulk || bulk.Offset != 108 || bulk.Length != 4 || bulk.URI != "file:///mf.dcm" {
		t.Errorf("bulk data = %+v, want offset 108 length 4", bulk)
	}
	e, _ := res.Attributes.GetElement(dicom.TagPixelData)
	if e.Value != bulk {
		t.Errorf("Pixel Data element = %v, want the sliced reference", e.Value)
	}
}

func payloads(frags *dicom.Fragments) [][]byte {
	out := make([][]byte, len(frags.Items))
	for i, f := range frags.Items {
		out[i] = f.Data
	}
	return out
}

func TestExtract_FragmentedPixelData(t *testing.T) {
	tests := []struct {
		name      string
		frames    int
		fragments [][]byte
		frame     int
		want      [][]byte
	}{
		{
			name:      "one fragment per frame",
			frames:    3,
			fragments: [][]byte{{0xA0}, {0xB0}, {0xC0}},
			frame:     1,
			want:      [][]byte{{}, {0xB0}},
		},
		{
			name:      "frames delimited by EOI",
			frames:    2,
			fragments: [][]byte{{0x01, 0x02}, {0x03, 0xFF, 0xD9}, {0x04, 0xFF, 0xD9, 0x00}},
			frame:     0,
			want:      [][]byte{{}, {0x01, 0x02}, {0x03, 0xFF, 0xD9}},
		},
		{
			name:      "single frame takes every fragment",
			frames:    1,
			fragments: [][]byte{{0x01}, {0x02}},
			frame:     0,
			want:      [][]byte{{}, {0x01}, {0x02}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emf := enhancedMR()
			emf.SetInts(dicom.TagNumberOfFrames, dicom.VR_IS, tt.frames)
			sq := emf.GetSequence(dicom.TagPerFrameFunctionalGroupsSequence)
			sq.Items = sq.Items[:tt.frames]
			frags := &dicom.Fragments{VR: dicom.VR_OB}
			frags.Add([]byte{})
			for _, f := range tt.fragments {
				frags.Add(f)
			}
			emf.AddElement(dicom.TagPixelData, dicom.VR_OB, frags)

			res, err := newConverter(t).Extract(emf, tt.frame)
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if res.PixelData.Kind != pixel.Fragmented {
				t.Fatalf("pixel data kind = %v, want fragmented", res.PixelData.Kind)
			}
			if got := payloads(res.PixelData.Fragments); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("fragments = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtract_TooFewFragments(t *testing.T) {
	emf := enhancedMR()
	frags := &dicom.Fragments{VR: dicom.VR_OB}
	frags.Add([]byte{})
	frags.Add([]byte{1})
	emf.AddElement(dicom.TagPixelData, dicom.VR_OB, frags)
	if _, err := newConverter(t).Extract(emf, 0); !stderrors.Is(err, errors.ErrFormat) {
		t.Errorf("Extract() error = %v, want ErrFormat", err)
	}
}

func TestHashUIDMapper(t *testing.T) {
	plain := &HashUIDMapper{}
	keyed, err := NewHashUIDMapper([]byte("secret"))
	if err != nil {
		t.Fatalf("NewHashUIDMapper() error = %v", err)
	}

	a := plain.MapUID("1.2.840.113619.2.1")
	if !strings.HasPrefix(a, "2.25.") || len(a) > 64 {
		t.Errorf("MapUID() = %q, want a 2.25 UID of at most 64 characters", a)
	}
	if b := plain.MapUID("1.2.840.113619.2.1"); a != b {
		t.Errorf("MapUID() not deterministic: %q != %q", a, b)
	}
	if b := plain.MapUID("1.2.840.113619.2.2"); a == b {
		t.Error("different UIDs map to the same UID")
	}
	if b := keyed.MapUID("1.2.840.113619.2.1"); a == b {
		t.Error("keyed and unkeyed mappers agree")
	}
	if got := plain.MapUID(""); got != "" {
		t.Errorf("MapUID(\"\") = %q, want empty", got)
	}
	if _, err := NewHashUIDMapper(make([]byte, 65)); err == nil {
		t.Error("NewHashUIDMapper() with a 65 byte key error = nil")
	}
}
