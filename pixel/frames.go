package pixel

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"

	"github.com/caio-sobreiro/dicomframe/dicom"
	"github.com/caio-sobreiro/dicomframe/errors"
	"github.com/caio-sobreiro/dicomframe/types"
)

const opOpenFrame = "open frame"

// FrameSource is the bounded byte stream of one frame. Length is -1 when
// only the codec can find the end of the frame.
type FrameSource struct {
	io.Reader
	Frame  int
	Length int64
}

// FrameOption configures a frame stream factory.
type FrameOption func(*frameOptions)

type frameOptions struct {
	patchJPEGLS bool
}

// WithJPEGLSPatch corrects the sample precision of JPEG-LS lossless frame
// headers before they reach the codec.
func WithJPEGLSPatch() FrameOption {
	return func(o *frameOptions) {
		o.patchJPEGLS = true
	}
}

func (o frameOptions) wrap(r io.Reader, desc ImageDescriptor) io.Reader {
	if o.patchJPEGLS && desc.TransferSyntaxUID == types.JPEGLSLossless {
		return PatchJPEGLS(r, desc.BitsStored)
	}
	return r
}

func checkFrameIndex(index, frames int) error {
	if index < 0 || index >= frames {
		return errors.NewOutOfBoundsError(opOpenFrame, index, frames)
	}
	return nil
}

// RandomAccessFrames opens frames in any order from loaded pixel data or a
// seekable source.
type RandomAccessFrames struct {
	loc       *Location
	src       io.ReaderAt
	opts      frameOptions
	table     FrameOffsetTable
	fragments [][]int
	diags     errors.Diagnostics
}

// NewRandomAccessFrames prepares frame access for loc. src resolves bulk
// references and fragments that were not loaded; it may be nil when all
// pixel data is in memory. For fragmented data the offset table is
// resolved and fragments are mapped to frames here, once.
func NewRandomAccessFrames(loc *Location, src io.ReaderAt, opts ...FrameOption) (*RandomAccessFrames, error) {
	if !loc.HasPixelData() {
		return nil, errors.NewMissingError(opOpenFrame, -1, dicom.TagPixelData.String(), errors.ErrNoPixelData)
	}
	f := &RandomAccessFrames{loc: loc, src: src}
	for _, opt := range opts {
		opt(&f.opts)
	}
	if loc.Ref.Kind != Fragmented {
		return f, nil
	}

	frags := FragmentReader{Fragments: loc.Ref.Fragments, Source: src}
	bot, err := frags.Bytes(0)
	if err != nil {
		return nil, fmt.Errorf("read basic offset table: %w", err)
	}
	first := loc.Ref.Fragments.Items[0]
	start := int64(0)
	if first.Offset >= 0 {
		start = first.Offset + first.Size()
	}
	table, _, diags, err := ResolveOffsets(bot, loc.Descriptor.Frames, start, 0)
	if err != nil {
		return nil, err
	}
	f.table = table
	f.diags = diags
	f.fragments, err = MapFragments(frags, table, loc.Descriptor.Frames)
	if err != nil {
		return nil, err
	}
	slog.Debug("Mapped fragments to frames",
		"frames", loc.Descriptor.Frames,
		"fragments", loc.Ref.Fragments.Len()-1,
		"table_resolved", table.FullyResolved())
	return f, nil
}

// OffsetTable returns the resolved Basic Offset Table, nil for native data.
func (f *RandomAccessFrames) OffsetTable() FrameOffsetTable {
	return f.table
}

// FrameFragments returns the fragment item indexes of frame index.
func (f *RandomAccessFrames) FrameFragments(index int) []int {
	if index < 0 || index >= len(f.fragments) {
		return nil
	}
	return f.fragments[index]
}

// Diagnostics returns notes collected while resolving the offset table.
func (f *RandomAccessFrames) Diagnostics() errors.Diagnostics {
	return f.diags
}

// Descriptor returns the image descriptor of the located pixel data.
func (f *RandomAccessFrames) Descriptor() ImageDescriptor {
	return f.loc.Descriptor
}

// OpenFrame returns the bytes of frame index.
func (f *RandomAccessFrames) OpenFrame(index int) (*FrameSource, error) {
	desc := f.loc.Descriptor
	if err := checkFrameIndex(index, desc.Frames); err != nil {
		return nil, err
	}
	length := desc.FrameLength()
	offset := int64(index) * length
	switch f.loc.Ref.Kind {
	case Inline:
		b := f.loc.Ref.Bytes
		return &FrameSource{Reader: bytes.NewReader(b[offset : offset+length]), Frame: index, Length: length}, nil
	case Bulk:
		if f.src == nil {
			return nil, fmt.Errorf("%s: bulk pixel data %q needs a source", opOpenFrame, f.loc.Ref.Bulk.URI)
		}
		r := io.NewSectionReader(f.src, f.loc.Ref.Bulk.Offset+offset, length)
		return &FrameSource{Reader: r, Frame: index, Length: length}, nil
	}

	frags := FragmentReader{Fragments: f.loc.Ref.Fragments, Source: f.src}
	items := f.fragments[index]
	readers := make([]io.Reader, 0, len(items))
	var total int64
	for _, i := range items {
		r, err := frags.Open(i)
		if err != nil {
			return nil, err
		}
		readers = append(readers, r)
		total += f.loc.Ref.Fragments.Items[i].Size()
	}
	return &FrameSource{Reader: f.opts.wrap(io.MultiReader(readers...), desc), Frame: index, Length: total}, nil
}

// ForwardOnlyFrames opens frames from a stream positioned at the first
// value byte of Pixel Data. Frames can only be requested in increasing
// order; skipped frames are read and discarded.
type ForwardOnlyFrames struct {
	dec     *dicom.Decoder
	r       io.Reader
	desc    ImageDescriptor
	header  dicom.ElementHeader
	opts    frameOptions
	cursor  Cursor
	next    int
	pending *io.LimitedReader

	botRead bool
	table   FrameOffsetTable
	done    bool
	diags   errors.Diagnostics
}

// NewForwardOnlyFrames takes over dec after it stopped at Pixel Data.
func NewForwardOnlyFrames(dec *dicom.Decoder, desc ImageDescriptor, opts ...FrameOption) (*ForwardOnlyFrames, error) {
	if dec.PixelDataHeader == nil {
		return nil, errors.NewMissingError(opOpenFrame, -1, dicom.TagPixelData.String(), errors.ErrNoPixelData)
	}
	f := &ForwardOnlyFrames{dec: dec, r: dec.Source(), desc: desc, header: *dec.PixelDataHeader}
	for _, opt := range opts {
		opt(&f.opts)
	}
	encapsulated := f.header.Length == dicom.UndefinedLength
	if encapsulated != desc.Encapsulated() {
		return nil, errors.NewFormatError(opOpenFrame, -1, 0, int64(f.header.Length), "pixel data encoding disagrees with transfer syntax")
	}
	if !encapsulated {
		if err := checkNativeLength(desc, int64(f.header.Length)); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// State returns the cursor state.
func (f *ForwardOnlyFrames) State() CursorState {
	return f.cursor.State()
}

// Diagnostics returns notes collected while reading the offset table.
func (f *ForwardOnlyFrames) Diagnostics() errors.Diagnostics {
	return f.diags
}

// Next opens the frame after the last one opened.
func (f *ForwardOnlyFrames) Next() (*FrameSource, error) {
	return f.OpenFrame(f.next)
}

// OpenFrame returns frame index. The previous frame's stream is invalid
// afterwards.
func (f *ForwardOnlyFrames) OpenFrame(index int) (*FrameSource, error) {
	if err := checkFrameIndex(index, f.desc.Frames); err != nil {
		return nil, err
	}
	if err := f.cursor.Advance(index); err != nil {
		return nil, err
	}
	if !f.desc.Encapsulated() {
		return f.openNative(index)
	}
	return f.openEncapsulated(index)
}

func (f *ForwardOnlyFrames) openNative(index int) (*FrameSource, error) {
	if err := f.drainPending(); err != nil {
		return nil, err
	}
	length := f.desc.FrameLength()
	if err := f.skip(int64(index-f.next) * length); err != nil {
		return nil, err
	}
	f.pending = &io.LimitedReader{R: f.r, N: length}
	f.next = index + 1
	return &FrameSource{Reader: f.pending, Frame: index, Length: length}, nil
}

func (f *ForwardOnlyFrames) drainPending() error {
	if f.pending == nil || f.pending.N == 0 {
		return nil
	}
	return f.skip(f.pending.N)
}

func (f *ForwardOnlyFrames) skip(n int64) error {
	if n <= 0 {
		return nil
	}
	copied, err := io.CopyN(io.Discard, f.r, n)
	if copied != n {
		if err == nil || err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return fmt.Errorf("skip %d pixel data bytes: %w", n, err)
	}
	return nil
}

func (f *ForwardOnlyFrames) openEncapsulated(index int) (*FrameSource, error) {
	if err := f.readOffsetTable(); err != nil {
		return nil, err
	}
	for f.next < index {
		if _, err := f.readFrame(f.next); err != nil {
			return nil, err
		}
		f.next++
	}
	data, err := f.readFrame(index)
	if err != nil {
		return nil, err
	}
	f.next = index + 1
	r := f.opts.wrap(bytes.NewReader(data), f.desc)
	return &FrameSource{Reader: r, Frame: index, Length: int64(len(data))}, nil
}

func (f *ForwardOnlyFrames) readOffsetTable() error {
	if f.botRead {
		return nil
	}
	f.botRead = true
	tag, length, err := f.dec.ReadItemHeader()
	if err != nil {
		return fmt.Errorf("read basic offset table: %w", err)
	}
	if tag != dicom.TagItem {
		return errors.NewMissingError(opOpenFrame, -1, tag.String(), errors.ErrNoPixelData)
	}
	if length%4 != 0 || length == dicom.UndefinedLength {
		return errors.NewFormatError(opOpenFrame, -1, int64(length-length%4), int64(length), "basic offset table length is not a multiple of 4")
	}
	bot := make([]byte, length)
	if _, err := io.ReadFull(f.r, bot); err != nil {
		return fmt.Errorf("read basic offset table: %w", err)
	}
	f.table, _, f.diags, err = ResolveOffsets(bot, f.desc.Frames, f.dec.Position(), 0)
	return err
}

// readFrame reads the fragments of frame index into memory. Frame ends
// come from the resolved table, else from EOI markers for JPEG family
// syntaxes, else one fragment per frame. The last frame runs to the
// sequence delimiter.
func (f *ForwardOnlyFrames) readFrame(index int) ([]byte, error) {
	if f.done {
		return nil, errors.NewFormatError(opOpenFrame, index, int64(f.desc.Frames), int64(index), "pixel data ended before frame")
	}
	last := index == f.desc.Frames-1
	byTable := f.table.FullyResolved()
	var buf bytes.Buffer
	for {
		tag, length, err := f.dec.ReadItemHeader()
		if err != nil {
			return nil, fmt.Errorf("read fragment of frame %d: %w", index, err)
		}
		if tag == dicom.TagSequenceDelimitationItem {
			f.done = true
			if buf.Len() == 0 {
				return nil, errors.NewFormatError(opOpenFrame, index, int64(f.desc.Frames), int64(index), "pixel data ended before frame")
			}
			return buf.Bytes(), nil
		}
		if tag != dicom.TagItem || length == dicom.UndefinedLength {
			return nil, errors.NewFormatError(opOpenFrame, index, 0, int64(length), fmt.Sprintf("unexpected %s in encapsulated pixel data", tag))
		}
		data := make([]byte, length)
		if _, err := io.ReadFull(f.r, data); err != nil {
			return nil, fmt.Errorf("read fragment of frame %d: %w", index, err)
		}
		buf.Write(data)
		if last {
			continue
		}
		switch {
		case byTable:
			if f.dec.Position()+ItemHeaderLength >= f.table[index+1].Position {
				return buf.Bytes(), nil
			}
		case usesEOI(f.desc.TransferSyntaxUID):
			if EndsWithEOI(data) {
				return buf.Bytes(), nil
			}
		default:
			return buf.Bytes(), nil
		}
	}
}

func usesEOI(transferSyntaxUID string) bool {
	return transferSyntaxUID != types.RLELossless
}

// Finish consumes the rest of Pixel Data so the decoder can continue with
// the attributes that follow it.
func (f *ForwardOnlyFrames) Finish() error {
	if f.cursor.State() == PostPixelData {
		return nil
	}
	if err := f.cursor.Finish(); err != nil {
		return err
	}
	if !f.desc.Encapsulated() {
		end := f.header.Offset + int64(f.header.Length)
		return f.skip(end - f.dec.Position())
	}
	if err := f.readOffsetTable(); err != nil {
		return err
	}
	for !f.done {
		tag, length, err := f.dec.ReadItemHeader()
		if err != nil {
			return fmt.Errorf("skip to end of pixel data: %w", err)
		}
		if tag == dicom.TagSequenceDelimitationItem {
			f.done = true
			break
		}
		if err := f.skip(int64(length)); err != nil {
			return err
		}
	}
	return nil
}

// Close marks the stream unusable.
func (f *ForwardOnlyFrames) Close() {
	f.cursor.Close()
}
