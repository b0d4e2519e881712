// Package codec dispatches frame decoding by transfer syntax.
package codec

import (
	"log/slog"
	"sort"

	"github.com/caio-sobreiro/dicomframe/errors"
	"github.com/caio-sobreiro/dicomframe/interfaces"
	"github.com/caio-sobreiro/dicomframe/types"
)

// DecoderFactory creates a decoder for transferSyntaxUID.
type DecoderFactory func(transferSyntaxUID string) interfaces.FrameDecoder

// Registration names the decoder serving one transfer syntax.
type Registration struct {
	TransferSyntaxUID string
	Name              string
	Factory           DecoderFactory
}

// Registry maps transfer syntaxes to decoders.
//
// A registry is built once and handed to every reader session that needs
// it; there is no package level registry. Registration is not safe for
// concurrent use with lookups.
//
// Example usage:
//
//	registry := codec.NewRegistry()
//	registry.Register(types.RLELossless, "rle", codec.NewRLEDecoder)
//	decoded, err := registry.Decode(frame, desc, codec.HintRaster)
type Registry struct {
	decoders map[string]Registration
}

// NewRegistry creates an empty registry. Native transfer syntaxes are
// always decodable; compressed ones need a registration.
func NewRegistry() *Registry {
	return &Registry{
		decoders: make(map[string]Registration),
	}
}

// NewDefaultRegistry returns a registry with every decoder this module
// ships registered.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(types.RLELossless, "rle", NewRLEDecoder)
	r.Register(types.JPEGBaseline8Bit, "jpeg", NewJPEGDecoder)
	r.Register(types.JPEGExtended12Bit, "jpeg", NewJPEGDecoder)
	r.Register(types.JPEGLossless, "jpeg-lossless", NewJPEGLosslessDecoder)
	r.Register(types.JPEGLosslessSV1, "jpeg-lossless", NewJPEGLosslessDecoder)
	r.Register(types.JPEGLSLossless, "jpeg-ls", NewJPEGLSDecoder)
	r.Register(types.JPEGLSNearLossless, "jpeg-ls", NewJPEGLSDecoder)
	r.Register(types.JPEG2000Lossless, "jpeg-2000", NewJPEG2000Decoder)
	r.Register(types.JPEG2000, "jpeg-2000", NewJPEG2000Decoder)
	r.Register(types.HTJ2KLossless, "jpeg-2000", NewJPEG2000Decoder)
	r.Register(types.HTJ2K, "jpeg-2000", NewJPEG2000Decoder)
	return r
}

// Register adds or replaces the decoder for a transfer syntax.
func (r *Registry) Register(transferSyntaxUID, name string, factory DecoderFactory) {
	r.decoders[transferSyntaxUID] = Registration{
		TransferSyntaxUID: transferSyntaxUID,
		Name:              name,
		Factory:           factory,
	}
}

// Unregister removes the decoder for a transfer syntax.
func (r *Registry) Unregister(transferSyntaxUID string) {
	delete(r.decoders, transferSyntaxUID)
}

// Has reports whether frames of transferSyntaxUID can be decoded.
func (r *Registry) Has(transferSyntaxUID string) bool {
	if types.IsNative(transferSyntaxUID) {
		return true
	}
	_, ok := r.decoders[transferSyntaxUID]
	return ok
}

// Registrations returns the registered decoders ordered by transfer syntax.
func (r *Registry) Registrations() []Registration {
	out := make([]Registration, 0, len(r.decoders))
	for _, reg := range r.decoders {
		out = append(out, reg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TransferSyntaxUID < out[j].TransferSyntaxUID })
	return out
}

// Lookup returns a decoder for transferSyntaxUID. Native syntaxes get the
// built-in native decoder unless one was registered explicitly.
func (r *Registry) Lookup(transferSyntaxUID string) (interfaces.FrameDecoder, error) {
	if reg, ok := r.decoders[transferSyntaxUID]; ok {
		return reg.Factory(transferSyntaxUID), nil
	}
	if types.IsNative(transferSyntaxUID) {
		return NewNativeDecoder(transferSyntaxUID), nil
	}
	slog.Debug("No decoder registered for transfer syntax",
		"transfer_syntax", transferSyntaxUID)
	return nil, errors.NewUnsupportedTransferError("decode frame", transferSyntaxUID)
}
