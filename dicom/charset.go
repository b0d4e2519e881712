package dicom

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Bytes outside ASCII in a dataset without Specific Character Set are
// read as Latin-1, the most common undeclared repertoire in the field.
var defaultRepertoire encoding.Encoding = charmap.ISO8859_1

// labelsByTerm maps Specific Character Set defined terms (PS3.2 D.6.2)
// to WHATWG labels understood by html/charset.
var labelsByTerm = map[string]string{
	"ISO_IR 6":        "us-ascii",
	"ISO_IR 100":      "iso-ir-100",
	"ISO_IR 101":      "iso-ir-101",
	"ISO_IR 109":      "iso-ir-109",
	"ISO_IR 110":      "iso-ir-110",
	"ISO_IR 144":      "iso-ir-144",
	"ISO_IR 127":      "iso-ir-127",
	"ISO_IR 126":      "iso-ir-126",
	"ISO_IR 138":      "iso-ir-138",
	"ISO_IR 148":      "iso-ir-148",
	"ISO_IR 13":       "shift_jis",
	"ISO_IR 166":      "tis-620",
	"ISO_IR 192":      "utf-8",
	"GB18030":         "gb18030",
	"GBK":             "gbk",
	"ISO 2022 IR 6":   "us-ascii",
	"ISO 2022 IR 100": "iso-ir-100",
	"ISO 2022 IR 101": "iso-ir-101",
	"ISO 2022 IR 126": "iso-ir-126",
	"ISO 2022 IR 144": "iso-ir-144",
	"ISO 2022 IR 148": "iso-ir-148",
	"ISO 2022 IR 13":  "shift_jis",
	"ISO 2022 IR 87":  "iso-2022-jp",
	"ISO 2022 IR 159": "iso-2022-jp",
	"ISO 2022 IR 149": "euc-kr",
}

// textDecoder converts text values to UTF-8.
type textDecoder struct {
	enc encoding.Encoding
}

// newTextDecoder picks the encoding for a Specific Character Set value.
// Only the first term selects the repertoire; code extensions declared
// by later terms are decoded with the same encoding.
func newTextDecoder(terms []string) (*textDecoder, error) {
	if len(terms) == 0 {
		return &textDecoder{enc: defaultRepertoire}, nil
	}
	term := strings.TrimSpace(terms[0])
	if term == "" && len(terms) > 1 {
		term = strings.TrimSpace(terms[1])
	}
	if term == "" {
		return &textDecoder{enc: defaultRepertoire}, nil
	}
	label, ok := labelsByTerm[term]
	if !ok {
		return nil, fmt.Errorf("specific character set defined term not found: %v", term)
	}
	enc, _ := charset.Lookup(label)
	if enc == nil {
		return nil, fmt.Errorf("missing encoding for label %q", label)
	}
	return &textDecoder{enc: enc}, nil
}

func (t *textDecoder) decode(raw []byte) string {
	if isASCII(raw) {
		return string(raw)
	}
	if t == nil {
		t = &textDecoder{enc: defaultRepertoire}
	}
	out, err := t.enc.NewDecoder().Bytes(raw)
	if err != nil || !utf8.Valid(out) {
		return string(raw)
	}
	return string(out)
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= 0x80 {
			return false
		}
	}
	return true
}

// isCharsetSensitive reports whether values of vr are subject to the
// Specific Character Set.
func isCharsetSensitive(vr string) bool {
	switch vr {
	case VR_SH, VR_LO, VR_ST, VR_LT, VR_UC, VR_UT, VR_PN:
		return true
	}
	return false
}
