package pixel

import (
	"bufio"
	"io"
	"log/slog"
)

const (
	markerSOI   = 0xD8
	markerSOF55 = 0xF7
	markerSOS   = 0xDA
)

// jpeglsPatchReader rewrites the sample precision of a JPEG-LS frame
// header to the declared BitsStored. Some encoders write the precision of
// the container word instead, which makes conforming decoders reject or
// misread the scan.
type jpeglsPatchReader struct {
	r       *bufio.Reader
	bits    int
	started bool
	header  []byte
	err     error
}

// PatchJPEGLS wraps r so that a JPEG-LS SOF55 precision disagreeing with
// bitsStored is corrected. Everything after the frame header passes
// through unchanged.
//
// Only the SOF55 precision is rewritten. LSE preset parameter segments
// (the JAI/ISO_11578 style patches some toolkits apply to JPEG-LS
// streams) are not inserted or modified.
func PatchJPEGLS(r io.Reader, bitsStored int) io.Reader {
	if bitsStored < 2 || bitsStored > 16 {
		return r
	}
	return &jpeglsPatchReader{r: bufio.NewReader(r), bits: bitsStored}
}

func (p *jpeglsPatchReader) Read(b []byte) (int, error) {
	if !p.started {
		p.started = true
		p.readHeader()
	}
	if len(p.header) > 0 {
		n := copy(b, p.header)
		p.header = p.header[n:]
		return n, nil
	}
	if p.err != nil {
		return 0, p.err
	}
	return p.r.Read(b)
}

// readHeader buffers marker segments up to and including SOF55 or SOS.
func (p *jpeglsPatchReader) readHeader() {
	var marker [2]byte
	if !p.fill(marker[:]) {
		return
	}
	if marker[0] != 0xFF || marker[1] != markerSOI {
		return
	}
	for {
		if !p.fill(marker[:]) {
			return
		}
		if marker[0] != 0xFF || marker[1] == markerSOS {
			return
		}
		if marker[1] >= 0xD0 && marker[1] <= 0xD9 || marker[1] == 0x01 {
			continue
		}
		var length [2]byte
		if !p.fill(length[:]) {
			return
		}
		n := int(length[0])<<8 | int(length[1])
		if n < 2 {
			return
		}
		start := len(p.header)
		segment := make([]byte, n-2)
		if !p.fill(segment) {
			return
		}
		if marker[1] == markerSOF55 {
			if len(segment) > 0 && int(segment[0]) != p.bits {
				slog.Debug("Patching JPEG-LS sample precision",
					"stream_precision", segment[0],
					"bits_stored", p.bits)
				p.header[start] = byte(p.bits)
			}
			return
		}
	}
}

// fill reads len(b) bytes into b and appends them to the buffered header.
func (p *jpeglsPatchReader) fill(b []byte) bool {
	n, err := io.ReadFull(p.r, b)
	p.header = append(p.header, b[:n]...)
	if err != nil {
		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		p.err = err
		return false
	}
	return true
}
