package reader

import (
	"io"
	"log/slog"

	"github.com/caio-sobreiro/dicomframe/codec"
	"github.com/caio-sobreiro/dicomframe/dicom"
	"github.com/caio-sobreiro/dicomframe/pixel"
)

// Option configures a Session.
type Option func(*options)

type options struct {
	registry  *codec.Registry
	logger    *slog.Logger
	src       io.ReaderAt
	stream    *dicom.Decoder
	frameOpts []pixel.FrameOption
}

func newOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = codec.NewDefaultRegistry()
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// WithRegistry decodes frames with r instead of the default registry.
func WithRegistry(r *codec.Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

// WithLogger sets the logger for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithReaderAt resolves bulk data references and unloaded fragments
// against src.
func WithReaderAt(src io.ReaderAt) Option {
	return func(o *options) {
		o.src = src
	}
}

// WithStream reads pixel data forward-only from dec, which must have
// stopped at Pixel Data (see dicom.WithStopAtPixelData).
func WithStream(dec *dicom.Decoder) Option {
	return func(o *options) {
		o.stream = dec
	}
}

// WithJPEGLSPatch corrects the sample precision of JPEG-LS lossless frame
// headers written by encoders that record the allocated instead of the
// stored bit depth.
func WithJPEGLSPatch() Option {
	return func(o *options) {
		o.frameOpts = append(o.frameOpts, pixel.WithJPEGLSPatch())
	}
}
