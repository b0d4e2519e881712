package codec

import (
	"fmt"
	"image"
	"io"
	"log/slog"

	"github.com/caio-sobreiro/dicomframe/interfaces"
	"github.com/caio-sobreiro/dicomframe/pixel"
	"github.com/caio-sobreiro/dicomframe/types"
)

// OutputHint tells the dispatcher what the caller will do with a frame.
type OutputHint int

const (
	// HintRaster asks for raw samples for value transforms.
	HintRaster OutputHint = iota
	// HintImage asks for a displayable image when the decoder makes one.
	HintImage
)

// Decoded is one decoded frame. Raster is always set; Image is set when
// the decoder produced an image on the way. Photometric describes the
// raster samples, which may differ from the declared interpretation once
// a codec undid its colour transform.
type Decoded struct {
	Raster      *pixel.Raster
	Image       image.Image
	Photometric types.Photometric
}

// Decode decodes one frame of desc from src.
//
// Decoders that can return raw samples are asked for them directly when
// their output keeps the declared photometric interpretation and the
// caller wants a raster; this skips building an image only to take it
// apart again.
func (r *Registry) Decode(src io.Reader, desc pixel.ImageDescriptor, hint OutputHint) (*Decoded, error) {
	dec, err := r.Lookup(desc.TransferSyntaxUID)
	if err != nil {
		return nil, err
	}
	photometric := desc.DecodedPhotometric()

	if rd, ok := dec.(interfaces.RasterDecoder); ok && hint == HintRaster && photometric == desc.Photometric {
		raster, err := rd.DecodeRaster(src, desc)
		if err != nil {
			return nil, fmt.Errorf("decode %s frame: %w", desc.TransferSyntaxUID, err)
		}
		return &Decoded{Raster: raster, Photometric: photometric}, nil
	}

	img, err := dec.Decode(src, desc)
	if err != nil {
		return nil, fmt.Errorf("decode %s frame: %w", desc.TransferSyntaxUID, err)
	}
	raster, err := pixel.RasterFromImage(img, desc.BitsAllocated)
	if err != nil {
		return nil, err
	}
	slog.Debug("Decoded frame through image path",
		"transfer_syntax", desc.TransferSyntaxUID,
		"photometric", photometric.String(),
		"image_type", fmt.Sprintf("%T", img))
	if raster.Samples == 3 && photometric.IsMonochrome() {
		return nil, fmt.Errorf("decode %s frame: colour image for %s data", desc.TransferSyntaxUID, photometric)
	}
	if raster.Samples == 3 && photometric.IsYBR() {
		// image decoders return RGB
		photometric = types.RGB
	}
	return &Decoded{Raster: raster, Image: img, Photometric: photometric}, nil
}
