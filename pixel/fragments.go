package pixel

import (
	"bytes"
	"fmt"
	"io"

	"github.com/caio-sobreiro/dicomframe/dicom"
	"github.com/caio-sobreiro/dicomframe/errors"
)

// FragmentReader reads fragment payloads held in memory or located in a
// source.
type FragmentReader struct {
	Fragments *dicom.Fragments
	Source    io.ReaderAt
}

// Open returns a reader over the payload of item i.
func (r FragmentReader) Open(i int) (io.Reader, error) {
	f := r.Fragments.Items[i]
	if f.InMemory() {
		return bytes.NewReader(f.Data), nil
	}
	if r.Source == nil {
		return nil, fmt.Errorf("fragment %d is not loaded and no source is set", i)
	}
	return io.NewSectionReader(r.Source, f.Offset, f.Length), nil
}

// Bytes returns the payload of item i.
func (r FragmentReader) Bytes(i int) ([]byte, error) {
	f := r.Fragments.Items[i]
	if f.InMemory() {
		return f.Data, nil
	}
	rd, err := r.Open(i)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(rd)
}

// Tail returns up to n trailing payload bytes of item i.
func (r FragmentReader) Tail(i, n int) ([]byte, error) {
	f := r.Fragments.Items[i]
	size := f.Size()
	if int64(n) > size {
		n = int(size)
	}
	if f.InMemory() {
		return f.Data[len(f.Data)-n:], nil
	}
	if r.Source == nil {
		return nil, fmt.Errorf("fragment %d is not loaded and no source is set", i)
	}
	buf := make([]byte, n)
	if _, err := r.Source.ReadAt(buf, f.Offset+size-int64(n)); err != nil {
		return nil, err
	}
	return buf, nil
}

// EndsWithEOI reports whether a payload tail holds the FFD9 end marker,
// allowing one trailing pad byte.
func EndsWithEOI(tail []byte) bool {
	n := len(tail)
	if n >= 2 && tail[n-2] == 0xFF && tail[n-1] == 0xD9 {
		return true
	}
	return n >= 3 && tail[n-1] == 0x00 && tail[n-3] == 0xFF && tail[n-2] == 0xD9
}

// MapFragments assigns fragment items to frames. The result holds, per
// frame, the item indexes (1-based into Fragments.Items) carrying it.
//
// Rules, first match wins: a single frame takes every fragment; a fully
// resolved table maps fragments by position; one fragment more than frames
// maps them one to one; otherwise frames end at fragments whose payload
// ends with an EOI marker.
func MapFragments(r FragmentReader, table FrameOffsetTable, frames int) ([][]int, error) {
	items := r.Fragments.Len()
	out := make([][]int, frames)
	if frames == 1 {
		for i := 1; i < items; i++ {
			out[0] = append(out[0], i)
		}
		return out, nil
	}
	if m, ok := mapByPosition(r.Fragments, table, frames); ok {
		return m, nil
	}
	if items-1 == frames {
		for f := range out {
			out[f] = []int{f + 1}
		}
		return out, nil
	}

	f := 0
	for i := 1; i < items; i++ {
		if f >= frames {
			return nil, errors.NewFormatError("map fragments", f, int64(frames), int64(f+1), "more frames delimited by EOI markers than declared")
		}
		out[f] = append(out[f], i)
		tail, err := r.Tail(i, 3)
		if err != nil {
			return nil, fmt.Errorf("read fragment %d: %w", i, err)
		}
		if EndsWithEOI(tail) {
			f++
		}
	}
	if f != frames {
		return nil, errors.NewFormatError("map fragments", -1, int64(frames), int64(f), "frames delimited by EOI markers disagree with number of frames")
	}
	return out, nil
}

func mapByPosition(frags *dicom.Fragments, table FrameOffsetTable, frames int) ([][]int, bool) {
	if len(table) != frames || !table.FullyResolved() {
		return nil, false
	}
	out := make([][]int, frames)
	f := -1
	for i := 1; i < frags.Len(); i++ {
		offset := frags.Items[i].Offset
		if offset < 0 {
			return nil, false
		}
		if f+1 < frames && offset == table[f+1].Position {
			f++
		}
		if f < 0 || f+1 < frames && offset > table[f+1].Position {
			return nil, false
		}
		out[f] = append(out[f], i)
	}
	if f != frames-1 {
		return nil, false
	}
	return out, true
}
