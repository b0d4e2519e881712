package pixel

import (
	"fmt"
	"image"
	"image/color"

	"github.com/caio-sobreiro/dicomframe/types"
)

// ImageFromRaster builds an image from raw samples. Single sample rasters
// become Gray or Gray16 with the stored bits unchanged. Three sample
// rasters become RGBA or RGBA64; YBR_FULL and YBR_FULL_422 samples are
// converted to RGB.
func ImageFromRaster(r *Raster, photometric types.Photometric) (image.Image, error) {
	rect := image.Rect(0, 0, r.Width, r.Height)
	switch r.Samples {
	case 1:
		if r.Wide() {
			img := image.NewGray16(rect)
			for y := 0; y < r.Height; y++ {
				for x := 0; x < r.Width; x++ {
					img.SetGray16(x, y, color.Gray16{Y: uint16(r.At(x, y, 0))})
				}
			}
			return img, nil
		}
		img := image.NewGray(rect)
		copy(img.Pix, r.Bytes)
		return img, nil
	case 3:
		ybr := photometric == types.YBRFull || photometric == types.YBRFull422
		if r.Wide() {
			if ybr {
				return nil, fmt.Errorf("%s with 16-bit samples not supported", photometric)
			}
			img := image.NewRGBA64(rect)
			for y := 0; y < r.Height; y++ {
				for x := 0; x < r.Width; x++ {
					img.SetRGBA64(x, y, color.RGBA64{
						R: uint16(r.At(x, y, 0)),
						G: uint16(r.At(x, y, 1)),
						B: uint16(r.At(x, y, 2)),
						A: 0xffff,
					})
				}
			}
			return img, nil
		}
		img := image.NewRGBA(rect)
		for y := 0; y < r.Height; y++ {
			for x := 0; x < r.Width; x++ {
				c0, c1, c2 := uint8(r.At(x, y, 0)), uint8(r.At(x, y, 1)), uint8(r.At(x, y, 2))
				if ybr {
					c0, c1, c2 = color.YCbCrToRGB(c0, c1, c2)
				}
				img.SetRGBA(x, y, color.RGBA{R: c0, G: c1, B: c2, A: 0xff})
			}
		}
		return img, nil
	}
	return nil, fmt.Errorf("%d samples per pixel not supported", r.Samples)
}
