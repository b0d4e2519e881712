package types

import "testing"

func TestParsePhotometric(t *testing.T) {
	tests := []struct {
		in   string
		want Photometric
	}{
		{"", Monochrome2},
		{"monochrome1 ", Monochrome1},
		{"RGB", RGB},
	}
	for _, tt := range tests {
		if got := ParsePhotometric(tt.in); got != tt.want {
			t.Errorf("ParsePhotometric(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPhotometricAfterDecompression(t *testing.T) {
	tests := []struct {
		name string
		pmi  Photometric
		ts   string
		want Photometric
	}{
		{"jpeg baseline ybr", YBRFull422, JPEGBaseline8Bit, RGB},
		{"jpeg baseline gray", Monochrome2, JPEGBaseline8Bit, Monochrome2},
		{"j2k ict", YBRICT, JPEG2000, RGB},
		{"native ybr", YBRFull, ExplicitVRLittleEndian, YBRFull},
		{"rle ybr", YBRFull, RLELossless, YBRFull},
		{"jpeg-ls rgb", RGB, JPEGLSLossless, RGB},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pmi.AfterDecompression(tt.ts); got != tt.want {
				t.Errorf("AfterDecompression() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPhotometricPredicates(t *testing.T) {
	if !Photometric(Monochrome1).IsInverse() {
		t.Error("MONOCHROME1 IsInverse() = false")
	}
	if Photometric(RGB).IsMonochrome() {
		t.Error("RGB IsMonochrome() = true")
	}
	if !Photometric(YBRFull422).IsYBR() {
		t.Error("YBR_FULL_422 IsYBR() = false")
	}
}
