package types

// Transfer Syntax UIDs, DICOM Part 5 Section 8 and Part 6 Annex A.4.
const (
	ImplicitVRLittleEndian         = "1.2.840.10008.1.2"
	ExplicitVRLittleEndian         = "1.2.840.10008.1.2.1"
	DeflatedExplicitVRLittleEndian = "1.2.840.10008.1.2.1.99"
	// ExplicitVRBigEndian is retired but still found in archives.
	ExplicitVRBigEndian = "1.2.840.10008.1.2.2"
)

// JPEG family. Lossy processes deliver YBR data converted to RGB by the decoder.
const (
	JPEGBaseline8Bit  = "1.2.840.10008.1.2.4.50"
	JPEGExtended12Bit = "1.2.840.10008.1.2.4.51"
	// JPEGLossless is process 14 with any selection value.
	JPEGLossless = "1.2.840.10008.1.2.4.57"
	// JPEGLosslessSV1 is process 14, first-order prediction.
	JPEGLosslessSV1 = "1.2.840.10008.1.2.4.70"
)

// JPEG-LS
const (
	JPEGLSLossless     = "1.2.840.10008.1.2.4.80"
	JPEGLSNearLossless = "1.2.840.10008.1.2.4.81"
)

// JPEG 2000 Part 1 and High-Throughput JPEG 2000
const (
	JPEG2000Lossless = "1.2.840.10008.1.2.4.90"
	JPEG2000         = "1.2.840.10008.1.2.4.91"
	HTJ2KLossless    = "1.2.840.10008.1.2.4.201"
	HTJ2K            = "1.2.840.10008.1.2.4.203"
)

// RLELossless is DICOM PackBits run length encoding, Part 5 Annex G.
const RLELossless = "1.2.840.10008.1.2.5"

// Video syntaxes. Recognised so they can be reported as unsupported by name.
const (
	MPEG2MainProfile           = "1.2.840.10008.1.2.4.100"
	MPEG4AVCH264HighProfile    = "1.2.840.10008.1.2.4.102"
	HEVCH265MainProfileLevel51 = "1.2.840.10008.1.2.4.107"
)

// TransferSyntaxInfo provides metadata about a transfer syntax
type TransferSyntaxInfo struct {
	UID          string
	Name         string
	IsCompressed bool
	IsLossless   bool
	IsRetired    bool
	// Encapsulated pixel data is stored as a fragment sequence behind a
	// Basic Offset Table.
	Encapsulated bool
	BigEndian    bool
	ImplicitVR   bool
	Description  string
}

// GetTransferSyntaxInfo returns information about a transfer syntax UID
func GetTransferSyntaxInfo(uid string) *TransferSyntaxInfo {
	info, ok := transferSyntaxRegistry[uid]
	if !ok {
		return &TransferSyntaxInfo{
			UID:         uid,
			Name:        "Unknown",
			IsLossless:  true,
			Description: "Unknown transfer syntax",
		}
	}
	return &info
}

// IsKnownTransferSyntax reports whether uid is in the registry.
func IsKnownTransferSyntax(uid string) bool {
	_, ok := transferSyntaxRegistry[uid]
	return ok
}

// IsCompressed returns true if the transfer syntax uses compression
func IsCompressed(uid string) bool {
	return GetTransferSyntaxInfo(uid).IsCompressed
}

// IsLossless returns true if the transfer syntax is lossless
// Note: Uncompressed transfer syntaxes are considered lossless
func IsLossless(uid string) bool {
	return GetTransferSyntaxInfo(uid).IsLossless
}

// IsRetired returns true if the transfer syntax is retired
func IsRetired(uid string) bool {
	return GetTransferSyntaxInfo(uid).IsRetired
}

// IsEncapsulated returns true if pixel data is stored as fragments.
func IsEncapsulated(uid string) bool {
	return GetTransferSyntaxInfo(uid).Encapsulated
}

// IsBigEndian returns true for the retired explicit big endian syntax.
func IsBigEndian(uid string) bool {
	return GetTransferSyntaxInfo(uid).BigEndian
}

// IsImplicitVR returns true if the dataset is encoded without VR fields.
func IsImplicitVR(uid string) bool {
	return GetTransferSyntaxInfo(uid).ImplicitVR
}

// IsNative returns true for syntaxes whose pixel data is stored uncompressed.
func IsNative(uid string) bool {
	info, ok := transferSyntaxRegistry[uid]
	return ok && !info.Encapsulated && uid != DeflatedExplicitVRLittleEndian
}

func encapsulated(uid, name string, lossless bool, description string) TransferSyntaxInfo {
	return TransferSyntaxInfo{
		UID:          uid,
		Name:         name,
		IsCompressed: true,
		IsLossless:   lossless,
		Encapsulated: true,
		Description:  description,
	}
}

// transferSyntaxRegistry maps transfer syntax UIDs to their information
var transferSyntaxRegistry = map[string]TransferSyntaxInfo{
	// Uncompressed
	ImplicitVRLittleEndian: {
		UID:         ImplicitVRLittleEndian,
		Name:        "Implicit VR Little Endian",
		IsLossless:  true,
		ImplicitVR:  true,
		Description: "Default DICOM transfer syntax with implicit VR encoding",
	},
	ExplicitVRLittleEndian: {
		UID:         ExplicitVRLittleEndian,
		Name:        "Explicit VR Little Endian",
		IsLossless:  true,
		Description: "Explicit VR encoding with little endian byte order",
	},
	ExplicitVRBigEndian: {
		UID:         ExplicitVRBigEndian,
		Name:        "Explicit VR Big Endian",
		IsLossless:  true,
		IsRetired:   true,
		BigEndian:   true,
		Description: "Explicit VR encoding with big endian byte order (retired)",
	},
	DeflatedExplicitVRLittleEndian: {
		UID:          DeflatedExplicitVRLittleEndian,
		Name:         "Deflated Explicit VR Little Endian",
		IsCompressed: true,
		IsLossless:   true,
		Description:  "Deflate/zlib compression with explicit VR encoding",
	},

	// JPEG Lossy
	JPEGBaseline8Bit:  encapsulated(JPEGBaseline8Bit, "JPEG Baseline (Process 1)", false, "JPEG lossy compression, 8-bit samples"),
	JPEGExtended12Bit: encapsulated(JPEGExtended12Bit, "JPEG Extended (Process 2 & 4)", false, "JPEG lossy compression, 8-12 bit samples"),

	// JPEG Lossless
	JPEGLossless:    encapsulated(JPEGLossless, "JPEG Lossless (Process 14)", true, "JPEG lossless compression"),
	JPEGLosslessSV1: encapsulated(JPEGLosslessSV1, "JPEG Lossless, Non-Hierarchical, First-Order Prediction", true, "JPEG lossless compression with prediction (most common)"),

	// JPEG 2000
	JPEG2000Lossless: encapsulated(JPEG2000Lossless, "JPEG 2000 Lossless Only", true, "JPEG 2000 lossless compression"),
	JPEG2000:         encapsulated(JPEG2000, "JPEG 2000", false, "JPEG 2000 lossy or lossless compression"),

	// JPEG-LS
	JPEGLSLossless:     encapsulated(JPEGLSLossless, "JPEG-LS Lossless", true, "JPEG-LS lossless compression"),
	JPEGLSNearLossless: encapsulated(JPEGLSNearLossless, "JPEG-LS Near-Lossless", false, "JPEG-LS near-lossless compression with bounded error"),

	// RLE
	RLELossless: encapsulated(RLELossless, "RLE Lossless", true, "Run-Length Encoding lossless compression"),

	// MPEG
	MPEG2MainProfile:           encapsulated(MPEG2MainProfile, "MPEG2 Main Profile @ Main Level", false, "MPEG-2 video compression"),
	MPEG4AVCH264HighProfile:    encapsulated(MPEG4AVCH264HighProfile, "MPEG-4 AVC/H.264 High Profile", false, "H.264 video compression"),
	HEVCH265MainProfileLevel51: encapsulated(HEVCH265MainProfileLevel51, "HEVC/H.265 Main Profile", false, "H.265/HEVC video compression"),

	// High-Throughput JPEG 2000
	HTJ2KLossless: encapsulated(HTJ2KLossless, "High-Throughput JPEG 2000 Lossless", true, "HTJ2K lossless compression (fast JPEG 2000 variant)"),
	HTJ2K:         encapsulated(HTJ2K, "High-Throughput JPEG 2000", false, "HTJ2K lossy or lossless compression"),
}
