package dicom

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/caio-sobreiro/dicomframe/types"
)

// EncodeDataset encodes a dataset to bytes (Explicit VR Little Endian).
// Values held by reference are written empty; use WriteDataset to resolve
// them.
func (d *Dataset) EncodeDataset() []byte {
	var buf bytes.Buffer
	enc := &encoder{w: &buf, order: binary.LittleEndian, lenient: true}
	enc.writeDataset(d)
	return buf.Bytes()
}

// EncodeDatasetWithTransferSyntax encodes a dataset using the provided transfer syntax.
func EncodeDatasetWithTransferSyntax(dataset *Dataset, transferSyntaxUID string) ([]byte, error) {
	if dataset == nil {
		return nil, nil
	}
	var buf bytes.Buffer
	if err := WriteDataset(&buf, dataset, transferSyntaxUID, nil); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteDataset writes dataset to w in the given transfer syntax. Bulk data
// and referenced fragments are copied from src, which may be nil when the
// dataset holds every value in memory.
func WriteDataset(w io.Writer, dataset *Dataset, transferSyntaxUID string, src io.ReaderAt) error {
	if transferSyntaxUID == "" {
		transferSyntaxUID = TransferSyntaxExplicitVRLittleEndian
	}
	if !types.IsKnownTransferSyntax(transferSyntaxUID) || transferSyntaxUID == types.DeflatedExplicitVRLittleEndian {
		return fmt.Errorf("cannot encode dataset in transfer syntax %s", transferSyntaxUID)
	}
	enc := &encoder{
		w:        w,
		order:    binary.LittleEndian,
		implicit: types.IsImplicitVR(transferSyntaxUID),
		src:      src,
	}
	if types.IsBigEndian(transferSyntaxUID) {
		enc.order = binary.BigEndian
	}
	enc.writeDataset(dataset)
	return enc.err
}

type encoder struct {
	w        io.Writer
	order    binary.ByteOrder
	implicit bool
	src      io.ReaderAt
	lenient  bool
	err      error
}

func (e *encoder) write(p []byte) {
	if e.err != nil {
		return
	}
	_, e.err = e.w.Write(p)
}

func (e *encoder) writeTag(tag Tag) {
	var b [4]byte
	e.order.PutUint16(b[0:2], tag.Group)
	e.order.PutUint16(b[2:4], tag.Element)
	e.write(b[:])
}

func (e *encoder) writeUint32(v uint32) {
	var b [4]byte
	e.order.PutUint32(b[:], v)
	e.write(b[:])
}

func (e *encoder) writeHeader(tag Tag, vr string, length uint32) {
	e.writeTag(tag)
	if e.implicit {
		e.writeUint32(length)
		return
	}
	e.write([]byte(vr))
	if isLongVR(vr) {
		e.write([]byte{0, 0})
		e.writeUint32(length)
		return
	}
	var b [2]byte
	e.order.PutUint16(b[:], uint16(length))
	e.write(b[:])
}

func (e *encoder) writeDataset(d *Dataset) {
	for _, tag := range d.Tags() {
		e.writeElement(d.Elements[tag])
	}
}

func (e *encoder) writeElement(element *Element) {
	vr := element.VR
	if vr == "" {
		vr = LookupVR(element.Tag)
	}
	switch v := element.Value.(type) {
	case *Sequence:
		e.writeHeader(element.Tag, VR_SQ, UndefinedLength)
		for _, item := range v.Items {
			e.writeTag(TagItem)
			e.writeUint32(UndefinedLength)
			e.writeDataset(item)
			e.writeTag(TagItemDelimitationItem)
			e.writeUint32(0)
		}
		e.writeTag(TagSequenceDelimitationItem)
		e.writeUint32(0)
		return
	case *Fragments:
		if vr != VR_OB && vr != VR_OW {
			vr = VR_OB
		}
		e.writeHeader(element.Tag, vr, UndefinedLength)
		for _, frag := range v.Items {
			data := e.fragmentBytes(frag)
			if len(data)%2 == 1 {
				data = append(data, 0)
			}
			e.writeTag(TagItem)
			e.writeUint32(uint32(len(data)))
			e.write(data)
		}
		e.writeTag(TagSequenceDelimitationItem)
		e.writeUint32(0)
		return
	case *BulkData:
		data := e.bulkBytes(v)
		if v.BigEndian != (e.order == binary.BigEndian) && (vr == VR_OW || vr == VR_US || vr == VR_SS) {
			data = swapBytePairs(data)
		}
		if len(data)%2 == 1 {
			data = append(data, 0)
		}
		e.writeHeader(element.Tag, vr, uint32(len(data)))
		e.write(data)
		return
	}

	valueBytes := encodeElementValue(element, e.order)
	if len(valueBytes)%2 == 1 {
		valueBytes = append(valueBytes, padByte(vr))
	}
	if !e.implicit && !isLongVR(vr) && len(valueBytes) > 0xFFFF {
		if e.err == nil {
			e.err = fmt.Errorf("value of %s too long for VR %s", element.Tag, vr)
		}
		return
	}
	e.writeHeader(element.Tag, vr, uint32(len(valueBytes)))
	e.write(valueBytes)
}

func (e *encoder) fragmentBytes(f Fragment) []byte {
	if f.Data != nil || f.Length == 0 {
		return f.Data
	}
	return e.readAt(f.Offset, f.Length)
}

func (e *encoder) bulkBytes(b *BulkData) []byte {
	return e.readAt(b.Offset, b.Length)
}

func (e *encoder) readAt(offset, length int64) []byte {
	if e.src == nil {
		if !e.lenient && e.err == nil {
			e.err = fmt.Errorf("no source to resolve %d bytes at offset %d", length, offset)
		}
		return nil
	}
	data := make([]byte, length)
	if _, err := e.src.ReadAt(data, offset); err != nil && e.err == nil {
		e.err = fmt.Errorf("resolve bulk data at %d: %w", offset, err)
	}
	return data
}

func padByte(vr string) byte {
	switch vr {
	case VR_UI, VR_OB, VR_OW, VR_UN, VR_OF, VR_OD, VR_OL:
		return 0x00
	}
	return 0x20
}

// encodeElementValue encodes an element value to bytes
func encodeElementValue(element *Element, order binary.ByteOrder) []byte {
	switch v := element.Value.(type) {
	case nil:
		return nil
	case string:
		return []byte(strings.TrimRight(v, "\x00"))
	case []string:
		return []byte(strings.TrimRight(strings.Join(v, "\\"), "\x00"))
	case []byte:
		return v
	case int:
		switch element.VR {
		case VR_US:
			return encodeBinary([]uint16{uint16(v)}, order)
		case VR_UL:
			return encodeBinary([]uint32{uint32(v)}, order)
		}
		return []byte(strconv.Itoa(v))
	case []int:
		strs := make([]string, len(v))
		for i, n := range v {
			strs[i] = strconv.Itoa(n)
		}
		return []byte(strings.Join(strs, "\\"))
	case uint16:
		return encodeBinary([]uint16{v}, order)
	case uint32:
		return encodeBinary([]uint32{v}, order)
	case []uint32:
		if element.VR == VR_AT {
			out := make([]byte, 4*len(v))
			for i, t := range v {
				order.PutUint16(out[i*4:], uint16(t>>16))
				order.PutUint16(out[i*4+2:], uint16(t))
			}
			return out
		}
	}
	if b := encodeBinary(element.Value, order); b != nil {
		return b
	}
	return []byte(fmt.Sprintf("%v", element.Value))
}

// encodeBinary serialises binary numeric slices, or returns nil.
func encodeBinary(value interface{}, order binary.ByteOrder) []byte {
	switch v := value.(type) {
	case []uint16:
		out := make([]byte, 2*len(v))
		for i, n := range v {
			order.PutUint16(out[i*2:], n)
		}
		return out
	case []int16:
		out := make([]byte, 2*len(v))
		for i, n := range v {
			order.PutUint16(out[i*2:], uint16(n))
		}
		return out
	case []uint32:
		out := make([]byte, 4*len(v))
		for i, n := range v {
			order.PutUint32(out[i*4:], n)
		}
		return out
	case []int32:
		out := make([]byte, 4*len(v))
		for i, n := range v {
			order.PutUint32(out[i*4:], uint32(n))
		}
		return out
	case []float32:
		out := make([]byte, 4*len(v))
		for i, f := range v {
			order.PutUint32(out[i*4:], math.Float32bits(f))
		}
		return out
	case []float64:
		out := make([]byte, 8*len(v))
		for i, f := range v {
			order.PutUint64(out[i*8:], math.Float64bits(f))
		}
		return out
	}
	return nil
}

func swapBytePairs(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	for i := 0; i+1 < len(out); i += 2 {
		out[i], out[i+1] = out[i+1], out[i]
	}
	return out
}
