package pixel

import (
	"fmt"
	"image"
	"image/color"
)

// Raster holds the decoded samples of one frame. Samples of 8 bits or less
// live in Bytes, wider samples in Words. Values are raw stored bits; sign
// extension and masking are left to the value transform.
type Raster struct {
	Width   int
	Height  int
	Samples int
	// Banded stores each sample plane contiguously instead of interleaving
	// samples per pixel.
	Banded bool
	Bytes  []uint8
	Words  []uint16
}

// NewRaster allocates a zeroed raster with storage sized by bitsAllocated.
func NewRaster(width, height, samples, bitsAllocated int, banded bool) (*Raster, error) {
	r := &Raster{Width: width, Height: height, Samples: samples, Banded: banded && samples > 1}
	n := width * height * samples
	switch {
	case bitsAllocated <= 8:
		r.Bytes = make([]uint8, n)
	case bitsAllocated <= 16:
		r.Words = make([]uint16, n)
	default:
		return nil, fmt.Errorf("%d bits allocated not supported", bitsAllocated)
	}
	return r, nil
}

// Wide reports whether samples are held as 16-bit words.
func (r *Raster) Wide() bool {
	return r.Words != nil
}

// Len returns the number of samples.
func (r *Raster) Len() int {
	if r.Words != nil {
		return len(r.Words)
	}
	return len(r.Bytes)
}

func (r *Raster) index(x, y, band int) int {
	if r.Banded {
		return band*r.Width*r.Height + y*r.Width + x
	}
	return (y*r.Width+x)*r.Samples + band
}

// At returns the raw sample of band at (x, y).
func (r *Raster) At(x, y, band int) int {
	i := r.index(x, y, band)
	if r.Words != nil {
		return int(r.Words[i])
	}
	return int(r.Bytes[i])
}

// Set stores the raw sample of band at (x, y).
func (r *Raster) Set(x, y, band, v int) {
	i := r.index(x, y, band)
	if r.Words != nil {
		r.Words[i] = uint16(v)
		return
	}
	r.Bytes[i] = uint8(v)
}

// Interleaved returns r with samples interleaved per pixel, converting a
// banded raster.
func (r *Raster) Interleaved() *Raster {
	if !r.Banded {
		return r
	}
	out := &Raster{Width: r.Width, Height: r.Height, Samples: r.Samples}
	if r.Words != nil {
		out.Words = make([]uint16, len(r.Words))
	} else {
		out.Bytes = make([]uint8, len(r.Bytes))
	}
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			for b := 0; b < r.Samples; b++ {
				out.Set(x, y, b, r.At(x, y, b))
			}
		}
	}
	return out
}

// RasterFromImage converts a decoded image into a raster. Gray images
// give one sample, everything else three. Samples are narrowed to
// bitsAllocated storage.
func RasterFromImage(img image.Image, bitsAllocated int) (*Raster, error) {
	b := img.Bounds()
	samples := 3
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		samples = 1
	}
	r, err := NewRaster(b.Dx(), b.Dy(), samples, bitsAllocated, false)
	if err != nil {
		return nil, err
	}
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			px := img.At(b.Min.X+x, b.Min.Y+y)
			switch src := img.(type) {
			case *image.Gray:
				r.Set(x, y, 0, int(src.GrayAt(b.Min.X+x, b.Min.Y+y).Y))
			case *image.Gray16:
				r.Set(x, y, 0, narrow(uint32(src.Gray16At(b.Min.X+x, b.Min.Y+y).Y), 16, r.Wide()))
			default:
				if samples == 1 {
					g := color.Gray16Model.Convert(px).(color.Gray16)
					r.Set(x, y, 0, narrow(uint32(g.Y), 16, r.Wide()))
					continue
				}
				cr, cg, cb, _ := px.RGBA()
				r.Set(x, y, 0, narrow(cr, 16, r.Wide()))
				r.Set(x, y, 1, narrow(cg, 16, r.Wide()))
				r.Set(x, y, 2, narrow(cb, 16, r.Wide()))
			}
		}
	}
	return r, nil
}

// narrow fits a bits-wide value into 8-bit storage when the raster is
// narrow.
func narrow(v uint32, bits int, wide bool) int {
	if wide {
		return int(v)
	}
	return int(v >> (bits - 8))
}
