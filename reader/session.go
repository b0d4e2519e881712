// Package reader ties pixel data location, frame streams, codec dispatch
// and rendering together for one object.
package reader

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/caio-sobreiro/dicomframe/codec"
	"github.com/caio-sobreiro/dicomframe/dicom"
	"github.com/caio-sobreiro/dicomframe/errors"
	"github.com/caio-sobreiro/dicomframe/imaging"
	"github.com/caio-sobreiro/dicomframe/pixel"
)

// frameSource is what a session needs from either frame factory.
type frameSource interface {
	OpenFrame(index int) (*pixel.FrameSource, error)
	Diagnostics() errors.Diagnostics
}

// Session reads the frames of one object.
//
// A session keeps cursor state and is not safe for concurrent use. To
// decode frames in parallel open one session per goroutine over
// independent sources; the descriptor and offset table of a session can
// be read from any goroutine once Open has returned.
type Session struct {
	ds       *dicom.Dataset
	ts       string
	desc     pixel.ImageDescriptor
	registry *codec.Registry
	logger   *slog.Logger

	random  *pixel.RandomAccessFrames
	forward *pixel.ForwardOnlyFrames
	stream  *dicom.Decoder
	trailer *dicom.Dataset

	closer io.Closer
	closed bool
}

// Open starts a session over ds encoded in transferSyntaxUID. Pixel data
// held in ds is read in any order. With WithStream, pixel data is read
// from the stream in increasing frame order only.
func Open(ds *dicom.Dataset, transferSyntaxUID string, opts ...Option) (*Session, error) {
	o := newOptions(opts)
	s := &Session{
		ds:       ds,
		ts:       transferSyntaxUID,
		registry: o.registry,
		logger:   o.logger,
		stream:   o.stream,
	}

	if o.stream != nil {
		s.desc = pixel.NewImageDescriptor(ds, transferSyntaxUID)
		if o.stream.PixelDataHeader == nil {
			s.logger.Debug("Stream has no pixel data", "transfer_syntax", transferSyntaxUID)
			return s, nil
		}
		s.desc.PixelDataVR = o.stream.PixelDataHeader.VR
		if s.desc.Rows <= 0 || s.desc.Columns <= 0 {
			return nil, errors.NewMissingError("open", -1, dicom.TagRows.String(), errors.ErrNoPixelData)
		}
		forward, err := pixel.NewForwardOnlyFrames(o.stream, s.desc, o.frameOpts...)
		if err != nil {
			return nil, err
		}
		s.forward = forward
		s.logger.Debug("Opened forward-only session",
			"transfer_syntax", transferSyntaxUID,
			"frames", s.desc.Frames)
		return s, nil
	}

	loc, err := pixel.Locate(ds, transferSyntaxUID)
	if err != nil {
		return nil, err
	}
	s.desc = loc.Descriptor
	if !loc.HasPixelData() {
		return s, nil
	}
	random, err := pixel.NewRandomAccessFrames(loc, o.src, o.frameOpts...)
	if err != nil {
		return nil, err
	}
	s.random = random
	for _, d := range random.Diagnostics() {
		s.logger.Debug("Offset table fallback", "frame_index", d.Frame, "msg", d.Msg)
	}
	s.logger.Debug("Opened session",
		"transfer_syntax", transferSyntaxUID,
		"kind", loc.Ref.Kind.String(),
		"frames", s.desc.Frames)
	return s, nil
}

// OpenFile opens the Part 10 file at path. Pixel data stays in the file
// and is read on demand; the file is closed by Close.
func OpenFile(path string, opts ...Option) (*Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	file, err := dicom.ParseFile(f, dicom.WithBulkDataURI(path))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	s, err := Open(file.Dataset, file.TransferSyntaxUID, append(opts, WithReaderAt(f))...)
	if err != nil {
		f.Close()
		return nil, err
	}
	s.closer = f
	return s, nil
}

// OpenStream reads a Part 10 file from a forward-only reader such as a
// network connection or pipe. Attributes after Pixel Data are available
// from ReadPostPixelData once the frames have been read.
func OpenStream(r io.Reader, opts ...Option) (*Session, error) {
	file, dec, err := dicom.NewFileDecoder(r, dicom.WithStopAtPixelData())
	if err != nil {
		return nil, err
	}
	ds, err := dec.Decode()
	if err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}
	return Open(ds, file.TransferSyntaxUID, append(opts, WithStream(dec))...)
}

// Dataset returns the attributes read so far.
func (s *Session) Dataset() *dicom.Dataset {
	return s.ds
}

// TransferSyntaxUID returns the transfer syntax of the pixel data.
func (s *Session) TransferSyntaxUID() string {
	return s.ts
}

// Descriptor returns the image pixel module of the object.
func (s *Session) Descriptor() pixel.ImageDescriptor {
	return s.desc
}

// NumFrames returns the number of frames, 0 without pixel data.
func (s *Session) NumFrames() int {
	if s.random == nil && s.forward == nil {
		return 0
	}
	return s.desc.Frames
}

// ForwardOnly reports whether frames must be read in increasing order.
func (s *Session) ForwardOnly() bool {
	return s.forward != nil
}

// OffsetTable returns the resolved Basic Offset Table of fragmented pixel
// data read in any order, nil otherwise.
func (s *Session) OffsetTable() pixel.FrameOffsetTable {
	if s.random == nil {
		return nil
	}
	return s.random.OffsetTable()
}

// Diagnostics returns the notes collected while locating frames.
func (s *Session) Diagnostics() errors.Diagnostics {
	src := s.frames()
	if src == nil {
		return nil
	}
	return src.Diagnostics()
}

func (s *Session) frames() frameSource {
	switch {
	case s.random != nil:
		return s.random
	case s.forward != nil:
		return s.forward
	}
	return nil
}

// OpenFrame returns the encoded bytes of frame index. On a forward-only
// session the stream of the previous frame is invalid afterwards.
func (s *Session) OpenFrame(index int) (*pixel.FrameSource, error) {
	if s.closed {
		return nil, closedError("open frame", index)
	}
	src := s.frames()
	if src == nil {
		return nil, errors.NewMissingError("open frame", index, dicom.TagPixelData.String(), errors.ErrNoPixelData)
	}
	return src.OpenFrame(index)
}

// ReadRaster decodes frame index into raw samples.
func (s *Session) ReadRaster(index int) (*codec.Decoded, error) {
	return s.decode(index, codec.HintRaster)
}

func (s *Session) decode(index int, hint codec.OutputHint) (*codec.Decoded, error) {
	src, err := s.OpenFrame(index)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Decoding frame",
		"frame_index", index,
		"transfer_syntax", s.ts,
		"length", src.Length)
	decoded, err := s.registry.Decode(src, s.desc, hint)
	if err != nil {
		return nil, fmt.Errorf("frame %d: %w", index, err)
	}
	return decoded, nil
}

// ReadImage decodes and renders frame index for display. Monochrome
// frames go through the lookup tables and overlays selected by p.
func (s *Session) ReadImage(index int, p imaging.Params) (*imaging.Result, error) {
	hint := codec.HintRaster
	if !s.desc.Photometric.IsMonochrome() {
		hint = codec.HintImage
	}
	decoded, err := s.decode(index, hint)
	if err != nil {
		return nil, err
	}
	if decoded.Image != nil && !decoded.Photometric.IsMonochrome() {
		return &imaging.Result{Image: decoded.Image}, nil
	}
	res, err := imaging.Render(s.ds, s.desc, decoded.Raster, decoded.Photometric, index, p)
	if err != nil {
		return nil, err
	}
	for _, d := range res.Diagnostics {
		s.logger.Debug("Render fallback", "frame_index", index, "stage", d.Stage, "msg", d.Msg)
	}
	return res, nil
}

// ReadPostPixelData returns the attributes that follow Pixel Data. On a
// forward-only session the remaining frames are skipped and further
// frame requests fail; the attributes are also merged into Dataset. On
// other sessions they were read with the rest of the dataset, which is
// returned.
func (s *Session) ReadPostPixelData() (*dicom.Dataset, error) {
	if s.closed {
		return nil, closedError("read post pixel data", -1)
	}
	if s.forward == nil {
		return s.ds, nil
	}
	if s.trailer != nil {
		return s.trailer, nil
	}
	if err := s.forward.Finish(); err != nil {
		return nil, err
	}
	trailer, err := s.stream.Decode()
	if err != nil {
		return nil, fmt.Errorf("read post pixel data: %w", err)
	}
	s.logger.Debug("Read attributes after pixel data", "count", trailer.Len())
	s.ds.AddAll(trailer)
	s.trailer = trailer
	return trailer, nil
}

// Close releases the session. Later calls fail with a sequencing error.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.forward != nil {
		s.forward.Close()
	}
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

func closedError(op string, frame int) error {
	return &errors.PixelError{Category: errors.Sequencing, Op: op, Frame: frame, Msg: "session is closed"}
}
