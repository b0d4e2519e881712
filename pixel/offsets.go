package pixel

import (
	"encoding/binary"

	"github.com/caio-sobreiro/dicomframe/errors"
)

// ItemHeaderLength is the size of an encapsulated item tag plus length.
const ItemHeaderLength = 8

// unknownOffset is the table value meaning "not recorded here". No valid
// offset equals 1 because the first fragment starts at offset 0.
const unknownOffset = 1

const wrap = uint64(1) << 32

// FrameSpan locates one frame in the encapsulated stream. Position is the
// absolute position of the frame's first payload byte, or -1 when the
// table does not resolve it. Length is -1 while open-ended.
type FrameSpan struct {
	Frame    int
	Position int64
	Length   int64
}

// Resolved reports whether the frame's position is known.
func (s FrameSpan) Resolved() bool {
	return s.Position >= 0
}

// FrameOffsetTable holds one span per frame.
type FrameOffsetTable []FrameSpan

// FullyResolved reports whether every frame has a position.
func (t FrameOffsetTable) FullyResolved() bool {
	for _, s := range t {
		if !s.Resolved() {
			return false
		}
	}
	return len(t) > 0
}

// ResolveOffsets folds the Basic Offset Table into absolute frame
// positions. start is the position right after the table item. lastOffset
// carries the high 32 bits between calls and is returned updated; pass 0
// for a fresh table.
//
// Each raw entry is widened with the high half of lastOffset and bumped by
// 2^32 when it would go backwards. An entry of 1 is unknown: frame 0 then
// starts right after the table with decoder framing, later frames stay
// unresolved. An entry that does not increase strictly is left unresolved
// with a diagnostic.
func ResolveOffsets(table []byte, frames int, start int64, lastOffset uint64) (FrameOffsetTable, uint64, errors.Diagnostics, error) {
	if len(table)%4 != 0 {
		return nil, lastOffset, nil, errors.NewFormatError("resolve frame offsets", -1,
			int64(len(table)-len(table)%4), int64(len(table)), "basic offset table length is not a multiple of 4")
	}
	var diags errors.Diagnostics
	spans := make(FrameOffsetTable, frames)
	resolvedAny := false
	for f := 0; f < frames; f++ {
		spans[f] = FrameSpan{Frame: f, Position: -1, Length: -1}
		if (f+1)*4 > len(table) {
			if f == 0 {
				spans[f].Position = start + ItemHeaderLength
			}
			continue
		}
		raw := binary.LittleEndian.Uint32(table[f*4:])
		if raw == unknownOffset {
			if f == 0 {
				spans[f].Position = start + ItemHeaderLength
			}
			continue
		}
		offset := uint64(raw) | lastOffset&^0xFFFFFFFF
		if offset < lastOffset {
			offset += wrap
		}
		if resolvedAny && offset == lastOffset {
			diags.Add("offsets", "", f, "offset table entry %d does not increase", raw)
			continue
		}
		lastOffset = offset
		resolvedAny = true
		spans[f].Position = start + int64(offset) + ItemHeaderLength
	}
	for f := 0; f+1 < frames; f++ {
		if spans[f].Resolved() && spans[f+1].Resolved() && spans[f+1].Position > spans[f].Position {
			spans[f].Length = spans[f+1].Position - ItemHeaderLength - spans[f].Position
		}
	}
	return spans, lastOffset, diags, nil
}
