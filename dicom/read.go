package dicom

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"

	"github.com/caio-sobreiro/dicomframe/types"
)

// UndefinedLength marks sequences, items and encapsulated pixel data whose
// end is found by a delimiter.
const UndefinedLength = 0xFFFFFFFF

// ParseOption configures a Decoder.
type ParseOption func(*parseOptions)

type parseOptions struct {
	bulkDataURI       string
	bulkDataThreshold int64
	stopAtPixelData   bool
	skipCharset       bool
}

// WithBulkDataURI makes the decoder record Pixel Data, and any raw value
// above the bulk data threshold, as references into the source named uri
// instead of loading it.
func WithBulkDataURI(uri string) ParseOption {
	return func(o *parseOptions) {
		o.bulkDataURI = uri
	}
}

// WithBulkDataThreshold sets the size above which OB/OW/OF/UN values other
// than Pixel Data become bulk references. Zero means only Pixel Data.
func WithBulkDataThreshold(n int64) ParseOption {
	return func(o *parseOptions) {
		o.bulkDataThreshold = n
	}
}

// WithStopAtPixelData stops decoding right after the top-level Pixel Data
// element header, leaving the source positioned at its first value byte.
// Used for forward-only streams.
func WithStopAtPixelData() ParseOption {
	return func(o *parseOptions) {
		o.stopAtPixelData = true
	}
}

// WithoutCharsetDecoding keeps text values as raw bytes converted to string.
func WithoutCharsetDecoding() ParseOption {
	return func(o *parseOptions) {
		o.skipCharset = true
	}
}

// countReader tracks the absolute position of a forward-only reader.
type countReader struct {
	r   io.Reader
	pos int64
}

func (c *countReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.pos += int64(n)
	return n, err
}

// Decoder reads a dataset from a byte stream in one transfer syntax.
type Decoder struct {
	r        *countReader
	order    binary.ByteOrder
	explicit bool
	opts     parseOptions
	text     *textDecoder

	// PixelDataHeader is set when decoding stopped at Pixel Data.
	PixelDataHeader *ElementHeader
}

// ElementHeader is the decoded header of one element.
type ElementHeader struct {
	Tag    Tag
	VR     string
	Length uint32
	// Offset is the position of the first value byte.
	Offset int64
}

// NewDecoder returns a decoder reading r from position start.
func NewDecoder(r io.Reader, start int64, transferSyntaxUID string, opts ...ParseOption) *Decoder {
	d := &Decoder{
		r:        &countReader{r: r, pos: start},
		order:    binary.LittleEndian,
		explicit: !types.IsImplicitVR(transferSyntaxUID),
	}
	if types.IsBigEndian(transferSyntaxUID) {
		d.order = binary.BigEndian
	}
	for _, opt := range opts {
		opt(&d.opts)
	}
	return d
}

// Position returns the absolute position of the next unread byte.
func (d *Decoder) Position() int64 {
	return d.r.pos
}

// Source returns the underlying reader, positioned at Position.
func (d *Decoder) Source() io.Reader {
	return d.r
}

// Decode reads elements until EOF, or until Pixel Data when stopping there.
func (d *Decoder) Decode() (*Dataset, error) {
	ds := NewDataset()
	ds.BigEndian = d.order == binary.BigEndian
	if err := d.readElements(ds, -1, true); err != nil {
		return ds, err
	}
	return ds, nil
}

func (d *Decoder) readElements(ds *Dataset, end int64, top bool) error {
	for end < 0 || d.r.pos < end {
		hdr, err := d.readHeader()
		if err != nil {
			if errors.Is(err, io.EOF) && end < 0 {
				return nil
			}
			return err
		}
		switch hdr.Tag {
		case TagItemDelimitationItem:
			if end >= 0 {
				return fmt.Errorf("item delimiter inside defined length item at %d", hdr.Offset)
			}
			return nil
		case TagSequenceDelimitationItem, TagItem:
			return fmt.Errorf("unexpected %s at %d", hdr.Tag, hdr.Offset)
		}
		if top && hdr.Tag == TagPixelData && d.opts.stopAtPixelData {
			d.PixelDataHeader = &hdr
			return nil
		}
		if err := d.readValue(ds, hdr, top); err != nil {
			return err
		}
		if hdr.Tag == TagSpecificCharacterSet && !d.opts.skipCharset {
			text, err := newTextDecoder(ds.GetStrings(TagSpecificCharacterSet))
			if err != nil {
				slog.Debug("Falling back to default character repertoire", "error", err)
			} else {
				d.text = text
			}
		}
	}
	return nil
}

func (d *Decoder) readHeader() (ElementHeader, error) {
	var buf [8]byte
	if _, err := io.ReadFull(d.r, buf[:4]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return ElementHeader{}, fmt.Errorf("truncated element header: %w", err)
		}
		return ElementHeader{}, err
	}
	order := d.order
	tag := Tag{Group: order.Uint16(buf[0:2]), Element: order.Uint16(buf[2:4])}

	if tag.Group == 0xFFFE || !d.explicit {
		if _, err := io.ReadFull(d.r, buf[4:8]); err != nil {
			return ElementHeader{}, fmt.Errorf("truncated element header: %w", io.ErrUnexpectedEOF)
		}
		vr := ""
		if tag.Group != 0xFFFE {
			vr = LookupVR(tag)
		}
		return ElementHeader{Tag: tag, VR: vr, Length: order.Uint32(buf[4:8]), Offset: d.r.pos}, nil
	}

	if _, err := io.ReadFull(d.r, buf[4:8]); err != nil {
		return ElementHeader{}, fmt.Errorf("truncated element header: %w", io.ErrUnexpectedEOF)
	}
	vr := string(buf[4:6])
	if isLongVR(vr) {
		var l [4]byte
		if _, err := io.ReadFull(d.r, l[:]); err != nil {
			return ElementHeader{}, fmt.Errorf("truncated element header: %w", io.ErrUnexpectedEOF)
		}
		return ElementHeader{Tag: tag, VR: vr, Length: order.Uint32(l[:]), Offset: d.r.pos}, nil
	}
	return ElementHeader{Tag: tag, VR: vr, Length: uint32(order.Uint16(buf[6:8])), Offset: d.r.pos}, nil
}

// isLongVR reports whether explicit VR encoding uses a 32-bit length.
func isLongVR(vr string) bool {
	switch vr {
	case VR_OB, VR_OD, VR_OF, VR_OL, VR_OV, VR_OW, VR_SQ, VR_SV, VR_UC, VR_UN, VR_UR, VR_UT, VR_UV:
		return true
	}
	return false
}

func (d *Decoder) readValue(ds *Dataset, hdr ElementHeader, top bool) error {
	if hdr.VR == VR_SQ || hdr.Length == UndefinedLength && hdr.Tag != TagPixelData {
		sq, err := d.readSequence(hdr)
		if err != nil {
			return fmt.Errorf("sequence %s: %w", hdr.Tag, err)
		}
		ds.Elements[hdr.Tag] = &Element{Tag: hdr.Tag, VR: VR_SQ, Length: hdr.Length, Value: sq}
		return nil
	}
	if hdr.Tag == TagPixelData && hdr.Length == UndefinedLength {
		frags, err := d.ReadFragments(hdr.VR)
		if err != nil {
			return fmt.Errorf("pixel data: %w", err)
		}
		ds.Elements[hdr.Tag] = &Element{Tag: hdr.Tag, VR: hdr.VR, Length: hdr.Length, Value: frags}
		return nil
	}
	if hdr.Length == UndefinedLength {
		return fmt.Errorf("undefined length for %s %s", hdr.Tag, hdr.VR)
	}

	if d.isBulk(hdr, top) {
		if err := d.skip(int64(hdr.Length)); err != nil {
			return fmt.Errorf("bulk data %s: %w", hdr.Tag, err)
		}
		ds.Elements[hdr.Tag] = &Element{Tag: hdr.Tag, VR: hdr.VR, Length: hdr.Length, Value: &BulkData{
			URI:       d.opts.bulkDataURI,
			Offset:    hdr.Offset,
			Length:    int64(hdr.Length),
			BigEndian: d.order == binary.BigEndian,
		}}
		return nil
	}

	raw := make([]byte, hdr.Length)
	if _, err := io.ReadFull(d.r, raw); err != nil {
		return fmt.Errorf("value of %s: %w", hdr.Tag, io.ErrUnexpectedEOF)
	}
	ds.Elements[hdr.Tag] = &Element{Tag: hdr.Tag, VR: hdr.VR, Length: hdr.Length, Value: d.decodeValue(hdr, raw)}
	return nil
}

func (d *Decoder) isBulk(hdr ElementHeader, top bool) bool {
	if d.opts.bulkDataURI == "" {
		return false
	}
	if hdr.Tag == TagPixelData && top {
		return true
	}
	if d.opts.bulkDataThreshold <= 0 || int64(hdr.Length) <= d.opts.bulkDataThreshold {
		return false
	}
	switch hdr.VR {
	case VR_OB, VR_OW, VR_OF, VR_OD, VR_UN:
		return true
	}
	return false
}

func (d *Decoder) skip(n int64) error {
	copied, err := io.CopyN(io.Discard, d.r, n)
	if err != nil || copied != n {
		return io.ErrUnexpectedEOF
	}
	return nil
}

func (d *Decoder) readSequence(hdr ElementHeader) (*Sequence, error) {
	sq := &Sequence{}
	end := int64(-1)
	if hdr.Length != UndefinedLength {
		end = hdr.Offset + int64(hdr.Length)
	}
	for end < 0 || d.r.pos < end {
		item, err := d.readHeader()
		if err != nil {
			return nil, err
		}
		switch item.Tag {
		case TagSequenceDelimitationItem:
			return sq, nil
		case TagItem:
		default:
			return nil, fmt.Errorf("expected item, got %s at %d", item.Tag, item.Offset)
		}
		ds := NewDataset()
		ds.BigEndian = d.order == binary.BigEndian
		itemEnd := int64(-1)
		if item.Length != UndefinedLength {
			itemEnd = item.Offset + int64(item.Length)
		}
		if err := d.readElements(ds, itemEnd, false); err != nil {
			return nil, err
		}
		sq.Add(ds)
	}
	return sq, nil
}

// ReadFragments reads the items of encapsulated pixel data up to and
// including the sequence delimiter. The decoder must be positioned at the
// first item header.
func (d *Decoder) ReadFragments(vr string) (*Fragments, error) {
	frags := &Fragments{VR: vr, URI: d.opts.bulkDataURI, BigEndian: d.order == binary.BigEndian}
	for {
		hdr, err := d.readHeader()
		if err != nil {
			return nil, err
		}
		if hdr.Tag == TagSequenceDelimitationItem {
			return frags, nil
		}
		if hdr.Tag != TagItem {
			return nil, fmt.Errorf("expected fragment item, got %s at %d", hdr.Tag, hdr.Offset)
		}
		if hdr.Length == UndefinedLength {
			return nil, fmt.Errorf("fragment at %d has undefined length", hdr.Offset)
		}
		if d.opts.bulkDataURI != "" {
			if err := d.skip(int64(hdr.Length)); err != nil {
				return nil, err
			}
			frags.AddReference(hdr.Offset, int64(hdr.Length))
			continue
		}
		data := make([]byte, hdr.Length)
		if _, err := io.ReadFull(d.r, data); err != nil {
			return nil, io.ErrUnexpectedEOF
		}
		frags.Items = append(frags.Items, Fragment{Offset: hdr.Offset, Length: int64(hdr.Length), Data: data})
	}
}

// ReadItemHeader reads one item or delimiter header. It returns the tag and
// value length.
func (d *Decoder) ReadItemHeader() (Tag, uint32, error) {
	hdr, err := d.readHeader()
	if err != nil {
		return Tag{}, 0, err
	}
	return hdr.Tag, hdr.Length, nil
}

func (d *Decoder) decodeValue(hdr ElementHeader, raw []byte) interface{} {
	switch hdr.VR {
	case VR_US:
		out := make([]uint16, len(raw)/2)
		for i := range out {
			out[i] = d.order.Uint16(raw[i*2:])
		}
		return out
	case VR_SS:
		out := make([]int16, len(raw)/2)
		for i := range out {
			out[i] = int16(d.order.Uint16(raw[i*2:]))
		}
		return out
	case VR_UL, VR_AT:
		out := make([]uint32, len(raw)/4)
		for i := range out {
			out[i] = d.order.Uint32(raw[i*4:])
		}
		if hdr.VR == VR_AT {
			// stored as group then element, each in dataset byte order
			for i := range out {
				g := d.order.Uint16(raw[i*4:])
				e := d.order.Uint16(raw[i*4+2:])
				out[i] = uint32(g)<<16 | uint32(e)
			}
		}
		return out
	case VR_SL:
		out := make([]int32, len(raw)/4)
		for i := range out {
			out[i] = int32(d.order.Uint32(raw[i*4:]))
		}
		return out
	case VR_FL:
		out := make([]float32, len(raw)/4)
		for i := range out {
			out[i] = math.Float32frombits(d.order.Uint32(raw[i*4:]))
		}
		return out
	case VR_FD:
		out := make([]float64, len(raw)/8)
		for i := range out {
			out[i] = math.Float64frombits(d.order.Uint64(raw[i*8:]))
		}
		return out
	case VR_OB, VR_OW, VR_OD, VR_OF, VR_OL, VR_OV, VR_SV, VR_UV, VR_UN:
		return raw
	}
	return d.decodeText(hdr.VR, raw)
}

func (d *Decoder) decodeText(vr string, raw []byte) string {
	s := string(raw)
	if isCharsetSensitive(vr) && !d.opts.skipCharset {
		s = d.text.decode(raw)
	}
	s = strings.TrimRight(s, "\x00")
	if vr != VR_UT && vr != VR_LT && vr != VR_ST {
		s = strings.TrimSpace(s)
	} else {
		s = strings.TrimRight(s, " ")
	}
	return s
}

// ParseDataset parses a DICOM dataset from raw bytes (Explicit VR Little Endian)
func ParseDataset(data []byte) (*Dataset, error) {
	return ParseDatasetWithTransferSyntax(data, TransferSyntaxExplicitVRLittleEndian)
}

// ParseDatasetWithTransferSyntax parses a dataset using the provided transfer syntax.
func ParseDatasetWithTransferSyntax(data []byte, transferSyntaxUID string, opts ...ParseOption) (*Dataset, error) {
	if transferSyntaxUID == "" {
		transferSyntaxUID = TransferSyntaxExplicitVRLittleEndian
	}
	if transferSyntaxUID == types.DeflatedExplicitVRLittleEndian {
		return nil, fmt.Errorf("deflated datasets must be inflated before parsing")
	}
	dec := NewDecoder(bytes.NewReader(data), 0, transferSyntaxUID, opts...)
	return dec.Decode()
}
