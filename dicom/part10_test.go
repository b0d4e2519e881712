package dicom

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"
)

// createValidPart10File creates a minimal valid DICOM Part 10 file for testing
func createValidPart10File() []byte {
	var data []byte

	// 128-byte preamble (all zeros)
	preamble := make([]byte, 128)
	data = append(data, preamble...)

	// DICM prefix
	data = append(data, []byte("DICM")...)

	// Transfer Syntax UID (0002,0010) - using short VR format
	data = append(data, 0x02, 0x00, 0x10, 0x00) // Tag
	data = append(data, 'U', 'I')               // VR
	tsUID := "1.2.840.10008.1.2.1\x00"          // Explicit VR Little Endian (padded)
	tsLength := make([]byte, 2)
	binary.LittleEndian.PutUint16(tsLength, uint16(len(tsUID)))
	data = append(data, tsLength...)
	data = append(data, []byte(tsUID)...)

	// Dataset starts here (group > 0x0002)
	// Patient Name (0010,0010)
	data = append(data, 0x10, 0x00, 0x10, 0x00) // Tag
	data = append(data, 'P', 'N')               // VR
	patientName := "TEST^PATIENT"
	nameLength := make([]byte, 2)
	binary.LittleEndian.PutUint16(nameLength, uint16(len(patientName)))
	data = append(data, nameLength...)
	data = append(data, []byte(patientName)...)

	return data
}

func TestStripPart10Header_ValidFile(t *testing.T) {
	data := createValidPart10File()

	dataset, err := StripPart10Header(data)
	if err != nil {
		t.Fatalf("StripPart10Header() error = %v", err)
	}

	// Dataset should start with Patient Name tag (0010,0010)
	if len(dataset) < 4 {
		t.Fatal("Dataset too short")
	}

	expectedTag := []byte{0x10, 0x00, 0x10, 0x00}
	if !bytes.Equal(dataset[0:4], expectedTag) {
		t.Errorf("Expected dataset to start with tag 0010,0010, got %02x%02x,%02x%02x",
			dataset[1], dataset[0], dataset[3], dataset[2])
	}
}

func TestStripPart10Header_TooShort(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03}

	_, err := StripPart10Header(data)
	if err == nil {
		t.Error("Expected error for data too short")
	}

	if !bytes.Contains([]byte(err.Error()), []byte("too short")) {
		t.Errorf("Expected 'too short' error, got: %v", err)
	}
}

func TestStripPart10Header_MissingDICM(t *testing.T) {
	// Create data with 132 bytes but no DICM prefix
	data := make([]byte, 200)

	_, err := StripPart10Header(data)
	if err == nil {
		t.Error("Expected error for missing DICM prefix")
	}

	if !bytes.Contains([]byte(err.Error()), []byte("missing DICM")) {
		t.Errorf("Expected 'missing DICM' error, got: %v", err)
	}
}

func TestHasPart10Header(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want bool
	}{
		{"valid", createValidPart10File(), true},
		{"too short", []byte("DICM"), false},
		{"no prefix", make([]byte, 200), false},
		{"raw dataset", explicitLE(TagPatientName, VR_PN, []byte("DOE^JOHN")), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasPart10Header(tt.data); got != tt.want {
				t.Errorf("HasPart10Header() = %v, want %v", got, tt.want)
			}
		})
	}
}

func newImageDataset() *Dataset {
	ds := NewDataset()
	ds.SetString(TagSOPClassUID, VR_UI, "1.2.840.10008.5.1.4.1.1.7")
	ds.SetString(TagSOPInstanceUID, VR_UI, "1.2.3.4")
	ds.SetString(TagPhotometricInterpretation, VR_CS, "MONOCHROME2")
	ds.SetInts(TagRows, VR_US, 2)
	ds.SetInts(TagColumns, VR_US, 2)
	ds.SetInts(TagBitsAllocated, VR_US, 8)
	ds.AddElement(TagPixelData, VR_OB, []byte{1, 2, 3, 4})
	return ds
}

func TestWriteFile_ParseFile(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFile(&buf, newImageDataset(), TransferSyntaxExplicitVRLittleEndian, nil); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if !HasPart10Header(buf.Bytes()) {
		t.Fatal("written file has no Part 10 header")
	}

	file, err := ParseFile(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if file.TransferSyntaxUID != TransferSyntaxExplicitVRLittleEndian {
		t.Errorf("TransferSyntaxUID = %q", file.TransferSyntaxUID)
	}
	if got := file.Meta.GetString(TagMediaStorageSOPInstanceUID); got != "1.2.3.4" {
		t.Errorf("MediaStorageSOPInstanceUID = %q, want 1.2.3.4", got)
	}
	if got := file.Meta.GetString(TagImplementationClassUID); got != ImplementationClassUID {
		t.Errorf("ImplementationClassUID = %q", got)
	}
	if got := file.Meta.GetInt(TagFileMetaInformationGroupLength, 0); got <= 0 {
		t.Errorf("group length = %d", got)
	}
	if file.Dataset.Contains(TagTransferSyntaxUID) {
		t.Error("meta element leaked into the dataset")
	}
	if got := file.Dataset.GetBytes(TagPixelData); !bytes.Equal(got, []byte{1, 2, 3, 4}) {
		t.Errorf("PixelData = %v", got)
	}
}

func TestReadFile_PixelDataReference(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFile(&buf, newImageDataset(), TransferSyntaxExplicitVRLittleEndian, nil); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	path := filepath.Join(t.TempDir(), "image.dcm")
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}

	file, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	e, ok := file.Dataset.GetElement(TagPixelData)
	if !ok {
		t.Fatal("pixel data missing")
	}
	bd, ok := e.Value.(*BulkData)
	if !ok {
		t.Fatalf("pixel data value = %T, want *BulkData", e.Value)
	}
	if bd.URI != path || bd.Length != 4 {
		t.Errorf("bulk data = %+v", bd)
	}
	if got := buf.Bytes()[bd.Offset : bd.Offset+bd.Length]; !bytes.Equal(got, []byte{1, 2, 3, 4}) {
		t.Errorf("bytes at offset %d = %v", bd.Offset, got)
	}
}

func TestNewFileDecoder_StopAtPixelData(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFile(&buf, newImageDataset(), TransferSyntaxExplicitVRLittleEndian, nil); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	_, dec, err := NewFileDecoder(bytes.NewReader(buf.Bytes()), WithStopAtPixelData())
	if err != nil {
		t.Fatalf("NewFileDecoder() error = %v", err)
	}
	ds, err := dec.Decode()
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if ds.Contains(TagPixelData) {
		t.Error("pixel data decoded despite stop option")
	}
	if dec.PixelDataHeader == nil || dec.PixelDataHeader.Length != 4 {
		t.Fatalf("PixelDataHeader = %+v", dec.PixelDataHeader)
	}
	rest, err := io.ReadAll(dec.Source())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(rest, []byte{1, 2, 3, 4}) {
		t.Errorf("remaining stream = %v, want pixel bytes", rest)
	}
	if dec.Position() != int64(buf.Len()) {
		t.Errorf("Position() = %d, want %d", dec.Position(), buf.Len())
	}
}
