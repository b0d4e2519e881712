package imaging

import (
	"encoding/binary"
	"math"
	"math/bits"

	"github.com/caio-sobreiro/dicomframe/dicom"
	"github.com/caio-sobreiro/dicomframe/errors"
	"github.com/caio-sobreiro/dicomframe/pixel"
)

// LUTFactory collects the modality, VOI and presentation stages of one
// frame and combines them into a single table.
type LUTFactory struct {
	stored       StoredValue
	slope        float64
	intercept    float64
	modality     *LookupTable
	windowCenter float64
	windowWidth  float64
	voi          *LookupTable
	presentation *LookupTable
	inverse      bool
	frame        int
	diags        errors.Diagnostics
}

// NewLUTFactory starts an identity pipeline for samples laid out as stored.
func NewLUTFactory(stored StoredValue, frame int) *LUTFactory {
	return &LUTFactory{stored: stored, slope: 1, frame: frame}
}

// Diagnostics returns the notes recorded while building the stages.
func (f *LUTFactory) Diagnostics() errors.Diagnostics {
	return f.diags
}

// Window returns the window the VOI stage uses. Width 0 means no window.
func (f *LUTFactory) Window() (center, width float64) {
	return f.windowCenter, f.windowWidth
}

// SetWindow sets an explicit window.
func (f *LUTFactory) SetWindow(center, width float64) {
	f.windowCenter = center
	f.windowWidth = width
}

// SetModalityLUT reads the rescale values and Modality LUT Sequence of
// attrs.
func (f *LUTFactory) SetModalityLUT(attrs *dicom.Dataset) {
	if attrs == nil {
		return
	}
	f.intercept = attrs.GetFloat(dicom.TagRescaleIntercept, 0)
	f.slope = attrs.GetFloat(dicom.TagRescaleSlope, 1)
	if f.slope == 0 {
		f.diags.Add("modality", dicom.TagRescaleSlope.String(), f.frame, "rescale slope 0, using 1")
		f.slope = 1
	}
	if item := attrs.GetNested(dicom.TagModalityLUTSequence); item != nil {
		f.modality = f.createLUT("modality", f.stored, item, false)
	}
}

// SetVOI selects the window or VOI LUT of attrs. The window at
// windowIndex is used when preferWindow is set or no VOI LUT exists;
// an index past the available windows selects the first.
func (f *LUTFactory) SetVOI(attrs *dicom.Dataset, windowIndex, voiLUTIndex int, preferWindow bool) {
	if attrs == nil {
		return
	}
	item := attrs.GetNestedAt(dicom.TagVOILUTSequence, voiLUTIndex)
	if preferWindow || item == nil {
		centers := attrs.GetFloats(dicom.TagWindowCenter)
		widths := attrs.GetFloats(dicom.TagWindowWidth)
		if len(centers) > 0 && len(widths) > 0 {
			i := windowIndex
			if i < 0 || i >= min(len(centers), len(widths)) {
				i = 0
			}
			f.windowCenter = centers[i]
			f.windowWidth = widths[i]
			return
		}
	}
	if item != nil {
		in := f.stored
		if f.modality != nil {
			in = StoredValue{Bits: f.modality.OutBits}
		}
		f.voi = f.createLUT("voi", in, item, true)
	}
}

// SetPresentationLUT reads the Presentation LUT Sequence of attrs, or
// failing that its shape. Without a shape MONOCHROME1 data displays
// inverted.
func (f *LUTFactory) SetPresentationLUT(attrs *dicom.Dataset) {
	if attrs == nil {
		return
	}
	if item := attrs.GetNested(dicom.TagPresentationLUTSequence); item != nil {
		desc := item.GetInts(dicom.TagLUTDescriptor)
		if len(desc) == 3 {
			n := desc[0]
			if n == 0 {
				n = 0x10000
			}
			f.presentation = f.buildLUT("presentation", StoredValue{Bits: log2(n)},
				[]int{desc[0], 0, desc[2]}, item.GetBytes(dicom.TagLUTData), item.BigEndian)
			return
		}
		f.diags.Add("presentation", dicom.TagLUTDescriptor.String(), f.frame, "descriptor has %d values, ignoring presentation LUT", len(desc))
		return
	}
	if shape := attrs.GetString(dicom.TagPresentationLUTShape); shape != "" {
		f.inverse = shape == "INVERSE"
		return
	}
	f.inverse = attrs.GetString(dicom.TagPhotometricInterpretation) == "MONOCHROME1"
}

// AutoWindow derives the window from the smallest and largest stored
// value of r. It does nothing and returns false when a modality LUT, a
// VOI LUT or a window is already set.
func (f *LUTFactory) AutoWindow(r *pixel.Raster) bool {
	if f.modality != nil || f.voi != nil || f.windowWidth != 0 {
		return false
	}
	lo, hi := f.minMax(r)
	f.windowCenter = float64((lo+hi+1)/2)*f.slope + f.intercept
	f.windowWidth = math.Abs(float64(hi+1-lo) * f.slope)
	return true
}

func (f *LUTFactory) minMax(r *pixel.Raster) (int, int) {
	lo, hi := math.MaxInt32, math.MinInt32
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			v := f.stored.ValueOf(r.At(x, y, 0))
			lo = min(lo, v)
			hi = max(hi, v)
		}
	}
	if lo > hi {
		return 0, 0
	}
	return lo, hi
}

// Build combines the stages into one table with outBits wide output.
func (f *LUTFactory) Build(outBits int) *LookupTable {
	voiBits := outBits
	if f.presentation != nil {
		voiBits = log2(f.presentation.Len())
	}
	lut := f.modalityVOI(voiBits)
	switch {
	case f.presentation != nil:
		lut = lut.Combine(f.presentation.AdjustOutBits(outBits))
	case f.inverse:
		lut.Inverse()
	}
	return lut
}

func (f *LUTFactory) modalityVOI(outBits int) *LookupTable {
	if f.voi != nil {
		lut := f.voi.AdjustOutBits(outBits)
		if f.modality != nil {
			return f.modality.Combine(lut)
		}
		return lut
	}
	w := f.windowWidth
	if w == 0 && f.modality != nil {
		return f.modality.AdjustOutBits(outBits)
	}
	in := f.stored
	if f.modality != nil {
		in = StoredValue{Bits: f.modality.OutBits}
	}
	var size, offset int
	if w != 0 {
		size = max(2, abs(round(w/f.slope)))
		offset = round((f.windowCenter-f.intercept)/f.slope) - size/2
	} else {
		f.diags.Add("voi", "", f.frame, "no window or VOI LUT, mapping full stored range")
		offset = in.Min()
		size = in.Max() - in.Min() + 1
	}
	lut := NewLinearLUT(in, outBits, offset, size, f.slope < 0)
	if f.modality != nil {
		return f.modality.Combine(lut)
	}
	return lut
}

// createLUT builds a table from a LUT item. VOI tables declaring 16 bit
// entries whose values all fit a smaller range are narrowed first.
func (f *LUTFactory) createLUT(stage string, in StoredValue, item *dicom.Dataset, voi bool) *LookupTable {
	desc := item.GetInts(dicom.TagLUTDescriptor)
	data := item.GetBytes(dicom.TagLUTData)
	if voi && len(desc) == 3 && desc[2] == 16 && data != nil {
		desc = append([]int(nil), desc...)
		var hi byte
		start := 1
		if item.BigEndian {
			start = 0
		}
		for i := start; i < len(data); i += 2 {
			hi |= data[i]
		}
		if hi&0x80 == 0 {
			desc[2] = 8 + bits.Len8(hi)
		}
	}
	return f.buildLUT(stage, in, desc, data, item.BigEndian)
}

func (f *LUTFactory) buildLUT(stage string, in StoredValue, desc []int, data []byte, bigEndian bool) *LookupTable {
	tag := dicom.TagLUTDescriptor.String()
	if len(desc) != 3 {
		f.diags.Add(stage, tag, f.frame, "descriptor has %d values, using identity", len(desc))
		return nil
	}
	n := desc[0]
	if n == 0 {
		n = 0x10000
	}
	offset := int(int16(desc[1]))
	outBits := desc[2]
	if data == nil {
		f.diags.Add(stage, dicom.TagLUTData.String(), f.frame, "LUT data missing, using identity")
		return nil
	}
	var order binary.ByteOrder = binary.LittleEndian
	if bigEndian {
		order = binary.BigEndian
	}
	if len(data) == n<<1 {
		if outBits > 8 {
			if outBits > 16 {
				f.diags.Add(stage, tag, f.frame, "%d output bits not supported, using identity", outBits)
				return nil
			}
			words := make([]uint16, n)
			for i := range words {
				words[i] = order.Uint16(data[i<<1:])
			}
			return &LookupTable{In: in, OutBits: outBits, Offset: offset, Data: words}
		}
		// 8 bit entries padded to 16 bits, keep the low byte
		lowByte := 0
		if bigEndian {
			lowByte = 1
		}
		half := make([]byte, n)
		for i := range half {
			half[i] = data[i<<1|lowByte]
		}
		data = half
	}
	if len(data) != n || outBits > 8 {
		f.diags.Add(stage, dicom.TagLUTData.String(), f.frame,
			"%d bytes of LUT data for %d entries of %d bits, using identity", len(data), n, outBits)
		return nil
	}
	words := make([]uint16, n)
	for i, b := range data {
		words[i] = uint16(b)
	}
	return &LookupTable{In: in, OutBits: outBits, Offset: offset, Data: words}
}

// round rounds half up.
func round(v float64) int {
	return int(math.Floor(v + 0.5))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
