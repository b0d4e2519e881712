// Package imaging turns decoded monochrome samples into display values
// through the modality, VOI and presentation lookup tables, and burns in
// overlay planes.
package imaging

import (
	"fmt"

	"github.com/caio-sobreiro/dicomframe/pixel"
)

// StoredValue interprets the raw bits of one sample.
type StoredValue struct {
	Bits   int
	Signed bool
}

// StoredValueOf returns the stored value layout of desc.
func StoredValueOf(desc pixel.ImageDescriptor) StoredValue {
	bits := desc.BitsStored
	if bits <= 0 || bits > 16 {
		bits = desc.BitsAllocated
	}
	return StoredValue{Bits: bits, Signed: desc.Signed()}
}

// ValueOf masks raw to the stored bits and sign extends it when signed.
func (s StoredValue) ValueOf(raw int) int {
	if s.Signed {
		shift := 32 - s.Bits
		return int(int32(uint32(raw)<<shift) >> shift)
	}
	return raw & (1<<s.Bits - 1)
}

// Min is the smallest representable value.
func (s StoredValue) Min() int {
	if s.Signed {
		return -(1 << (s.Bits - 1))
	}
	return 0
}

// Max is the largest representable value.
func (s StoredValue) Max() int {
	if s.Signed {
		return 1<<(s.Bits-1) - 1
	}
	return 1<<s.Bits - 1
}

// LookupTable maps input values in [Offset, Offset+len(Data)) to output
// values of OutBits bits. Inputs outside the range clamp to the first or
// last entry.
type LookupTable struct {
	In      StoredValue
	OutBits int
	Offset  int
	Data    []uint16
}

// NewLinearLUT returns a ramp of size entries from 0 to the largest
// OutBits value, descending when flip is set.
func NewLinearLUT(in StoredValue, outBits, offset, size int, flip bool) *LookupTable {
	if size < 2 {
		size = 2
	}
	maxOut := 1<<outBits - 1
	maxIndex := size - 1
	mid := maxIndex / 2
	data := make([]uint16, size)
	for i := 0; i < size; i++ {
		v := uint16((i*maxOut + mid) / maxIndex)
		if flip {
			data[maxIndex-i] = v
		} else {
			data[i] = v
		}
	}
	return &LookupTable{In: in, OutBits: outBits, Offset: offset, Data: data}
}

// Len returns the number of entries.
func (l *LookupTable) Len() int {
	return len(l.Data)
}

func (l *LookupTable) String() string {
	return fmt.Sprintf("lut[in=%d signed=%t out=%d offset=%d len=%d]",
		l.In.Bits, l.In.Signed, l.OutBits, l.Offset, len(l.Data))
}

// Lookup maps one raw sample.
func (l *LookupTable) Lookup(raw int) int {
	i := l.In.ValueOf(raw) - l.Offset
	switch {
	case i < 0:
		i = 0
	case i >= len(l.Data):
		i = len(l.Data) - 1
	}
	return int(l.Data[i])
}

// AdjustOutBits returns a copy of l scaled to outBits.
func (l *LookupTable) AdjustOutBits(outBits int) *LookupTable {
	out := &LookupTable{In: l.In, OutBits: outBits, Offset: l.Offset, Data: make([]uint16, len(l.Data))}
	diff := outBits - l.OutBits
	for i, v := range l.Data {
		switch {
		case diff > 0:
			out.Data[i] = v << diff
		case diff < 0:
			out.Data[i] = v >> -diff
		default:
			out.Data[i] = v
		}
	}
	return out
}

// Inverse flips the output range in place.
func (l *LookupTable) Inverse() {
	maxOut := uint16(1<<l.OutBits - 1)
	for i, v := range l.Data {
		l.Data[i] = maxOut - v
	}
}

// Combine returns a table feeding the output of l through next. The
// result keeps the input side of l and the output side of next.
func (l *LookupTable) Combine(next *LookupTable) *LookupTable {
	out := &LookupTable{In: l.In, OutBits: next.OutBits, Offset: l.Offset, Data: make([]uint16, len(l.Data))}
	for i, v := range l.Data {
		out.Data[i] = uint16(next.Lookup(int(v)))
	}
	return out
}

// Apply maps every sample of a single sample raster into a new raster
// holding OutBits wide values.
func (l *LookupTable) Apply(src *pixel.Raster) (*pixel.Raster, error) {
	if src.Samples != 1 {
		return nil, fmt.Errorf("lookup table applied to %d samples per pixel", src.Samples)
	}
	dst, err := pixel.NewRaster(src.Width, src.Height, 1, l.OutBits, false)
	if err != nil {
		return nil, err
	}
	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			dst.Set(x, y, 0, l.Lookup(src.At(x, y, 0)))
		}
	}
	return dst, nil
}

func log2(v int) int {
	i := 0
	for v>>i != 0 {
		i++
	}
	return i - 1
}
