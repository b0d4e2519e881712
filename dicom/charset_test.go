package dicom

import "testing"

func TestTextDecoder(t *testing.T) {
	tests := []struct {
		name  string
		terms []string
		raw   []byte
		want  string
	}{
		{"ascii", nil, []byte("DOE^JOHN"), "DOE^JOHN"},
		{"default latin1", nil, []byte{'M', 0xfc, 'l', 'l', 'e', 'r'}, "Müller"},
		{"iso_ir 100", []string{"ISO_IR 100"}, []byte{'J', 0xe9, 'r', 0xf4, 'm', 'e'}, "Jérôme"},
		{"utf-8", []string{"ISO_IR 192"}, []byte("Wang^XiaoDong=王^小東"), "Wang^XiaoDong=王^小東"},
		{"cyrillic", []string{"ISO_IR 144"}, []byte{0xbb, 0xee, 0xda}, "Люк"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec, err := newTextDecoder(tt.terms)
			if err != nil {
				t.Fatalf("newTextDecoder() error = %v", err)
			}
			if got := dec.decode(tt.raw); got != tt.want {
				t.Errorf("decode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTextDecoder_UnknownTerm(t *testing.T) {
	if _, err := newTextDecoder([]string{"ISO_IR 999"}); err == nil {
		t.Error("newTextDecoder() expected error for unknown term")
	}
}
