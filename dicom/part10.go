package dicom

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/caio-sobreiro/dicomframe/types"
)

// ImplementationClassUID identifies files written by this module.
const ImplementationClassUID = "1.2.826.0.1.3680043.10.1082.1"

// ImplementationVersionName is written alongside ImplementationClassUID.
const ImplementationVersionName = "DICOMFRAME_1"

const preambleLength = 128

// File is a parsed Part 10 file.
type File struct {
	Meta              *Dataset
	Dataset           *Dataset
	TransferSyntaxUID string
	// DatasetOffset is the position of the first dataset byte.
	DatasetOffset int64
}

// StripPart10Header removes the DICOM Part 10 preamble and File Meta Information
// to extract just the dataset.
//
// DICOM Part 10 files contain:
//   - 128 byte preamble
//   - 4 byte "DICM" prefix
//   - File Meta Information elements (group 0x0002)
//   - Dataset (the actual DICOM data)
func StripPart10Header(data []byte) ([]byte, error) {
	if len(data) < preambleLength+4 {
		return nil, fmt.Errorf("data too short to be DICOM Part 10 (need at least 132 bytes, got %d)", len(data))
	}
	file, _, err := NewFileDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if file.DatasetOffset >= int64(len(data)) {
		return nil, fmt.Errorf("failed to find dataset after File Meta Information")
	}
	return data[file.DatasetOffset:], nil
}

// HasPart10Header checks if the data starts with a DICOM Part 10 header.
//
// Returns true if the data contains the 128-byte preamble followed by "DICM".
func HasPart10Header(data []byte) bool {
	if len(data) < 132 {
		return false
	}
	return string(data[128:132]) == "DICM"
}

// NewFileDecoder reads the preamble and File Meta Information from r and
// returns a decoder positioned at the first dataset element. The caller
// drives the decoder; forward-only sources use this with
// WithStopAtPixelData.
func NewFileDecoder(r io.Reader, opts ...ParseOption) (*File, *Decoder, error) {
	br := bufio.NewReader(r)
	var preamble [preambleLength + 4]byte
	if _, err := io.ReadFull(br, preamble[:]); err != nil {
		return nil, nil, fmt.Errorf("read preamble: %w", err)
	}
	if string(preamble[preambleLength:]) != "DICM" {
		return nil, nil, fmt.Errorf("not a valid DICOM Part 10 file (missing DICM prefix at offset 128)")
	}

	metaDecoder := NewDecoder(br, preambleLength+4, types.ExplicitVRLittleEndian, WithoutCharsetDecoding())
	meta := NewDataset()
	for {
		peek, err := br.Peek(2)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, nil, fmt.Errorf("read file meta information: %w", err)
		}
		if binary.LittleEndian.Uint16(peek) != 0x0002 {
			break
		}
		hdr, err := metaDecoder.readHeader()
		if err != nil {
			return nil, nil, fmt.Errorf("read file meta information: %w", err)
		}
		if err := metaDecoder.readValue(meta, hdr, false); err != nil {
			return nil, nil, fmt.Errorf("read file meta information: %w", err)
		}
	}

	ts := meta.GetString(TagTransferSyntaxUID)
	if ts == "" {
		return nil, nil, fmt.Errorf("file meta information has no transfer syntax")
	}
	slog.Debug("Found Transfer Syntax UID in File Meta Information",
		"transfer_syntax", ts,
		"dataset_start_offset", metaDecoder.Position())

	file := &File{Meta: meta, TransferSyntaxUID: ts, DatasetOffset: metaDecoder.Position()}
	return file, NewDecoder(br, metaDecoder.Position(), ts, opts...), nil
}

// ParseFile reads a complete Part 10 file from r.
func ParseFile(r io.Reader, opts ...ParseOption) (*File, error) {
	file, dec, err := NewFileDecoder(r, opts...)
	if err != nil {
		return nil, err
	}
	ds, err := dec.Decode()
	if err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}
	file.Dataset = ds
	return file, nil
}

// ReadFile parses the Part 10 file at path. Pixel Data is recorded as a
// reference into the file and is not loaded.
func ReadFile(path string, opts ...ParseOption) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseFile(f, append([]ParseOption{WithBulkDataURI(path)}, opts...)...)
}

// NewFileMeta builds File Meta Information for a dataset.
func NewFileMeta(sopClassUID, sopInstanceUID, transferSyntaxUID string) *Dataset {
	meta := NewDataset()
	meta.AddElement(TagFileMetaInformationVersion, VR_OB, []byte{0x00, 0x01})
	meta.SetString(TagMediaStorageSOPClassUID, VR_UI, sopClassUID)
	meta.SetString(TagMediaStorageSOPInstanceUID, VR_UI, sopInstanceUID)
	meta.SetString(TagTransferSyntaxUID, VR_UI, transferSyntaxUID)
	meta.SetString(TagImplementationClassUID, VR_UI, ImplementationClassUID)
	meta.SetString(TagImplementationVersionName, VR_SH, ImplementationVersionName)
	return meta
}

// WriteFile writes a Part 10 file: preamble, File Meta Information built
// from the dataset's SOP Class and Instance UIDs, then the dataset. src
// resolves values held by reference and may be nil.
func WriteFile(w io.Writer, dataset *Dataset, transferSyntaxUID string, src io.ReaderAt) error {
	meta := NewFileMeta(
		dataset.GetString(TagSOPClassUID),
		dataset.GetString(TagSOPInstanceUID),
		transferSyntaxUID)
	metaBytes := meta.EncodeDataset()

	header := make([]byte, preambleLength, preambleLength+16)
	header = append(header, "DICM"...)
	header = append(header, 0x02, 0x00, 0x00, 0x00, 'U', 'L', 0x04, 0x00)
	header = binary.LittleEndian.AppendUint32(header, uint32(len(metaBytes)))
	if _, err := w.Write(header); err != nil {
		return err
	}
	if _, err := w.Write(metaBytes); err != nil {
		return err
	}

	body := dataset.Copy()
	for tag := range body.Elements {
		if tag.Group == 0x0002 {
			body.Remove(tag)
		}
	}
	return WriteDataset(w, body, transferSyntaxUID, src)
}
