package types

import "strings"

// Photometric interpretations, DICOM Part 3 C.7.6.3.1.2.
const (
	Monochrome1  = "MONOCHROME1"
	Monochrome2  = "MONOCHROME2"
	PaletteColor = "PALETTE COLOR"
	RGB          = "RGB"
	YBRFull      = "YBR_FULL"
	YBRFull422   = "YBR_FULL_422"
	YBRPartial   = "YBR_PARTIAL_422"
	YBRICT       = "YBR_ICT"
	YBRRCT       = "YBR_RCT"
)

// Photometric is a photometric interpretation value.
type Photometric string

// ParsePhotometric normalises the attribute value. An empty value is
// treated as MONOCHROME2.
func ParsePhotometric(s string) Photometric {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return Monochrome2
	}
	return Photometric(s)
}

// IsMonochrome reports whether LUT processing applies.
func (p Photometric) IsMonochrome() bool {
	return p == Monochrome1 || p == Monochrome2
}

// IsInverse reports whether minimum sample values display as white.
func (p Photometric) IsInverse() bool {
	return p == Monochrome1
}

// IsYBR reports whether samples are luminance/chrominance encoded.
func (p Photometric) IsYBR() bool {
	return strings.HasPrefix(string(p), "YBR")
}

func (p Photometric) String() string {
	return string(p)
}

// AfterDecompression returns the photometric interpretation of the samples
// a decoder for transferSyntaxUID produces. Lossy JPEG and JPEG 2000
// decoders undo their colour transform; every other decoder hands samples
// through unchanged.
func (p Photometric) AfterDecompression(transferSyntaxUID string) Photometric {
	switch transferSyntaxUID {
	case JPEGBaseline8Bit, JPEGExtended12Bit:
		if p == YBRFull422 || p == YBRFull || p == YBRPartial {
			return RGB
		}
	case JPEG2000, JPEG2000Lossless, HTJ2K, HTJ2KLossless:
		if p == YBRICT || p == YBRRCT {
			return RGB
		}
	}
	return p
}
