package pixel

import (
	"log/slog"

	"github.com/caio-sobreiro/dicomframe/dicom"
	"github.com/caio-sobreiro/dicomframe/errors"
)

// RefKind tells how pixel data is physically held.
type RefKind int

const (
	// Absent means the object carries no Pixel Data.
	Absent RefKind = iota
	// Inline pixel data is loaded contiguous bytes.
	Inline
	// Bulk pixel data is a byte range of an external source.
	Bulk
	// Fragmented pixel data is an encapsulated item sequence whose first
	// item is the Basic Offset Table.
	Fragmented
)

func (k RefKind) String() string {
	switch k {
	case Absent:
		return "absent"
	case Inline:
		return "inline"
	case Bulk:
		return "bulk"
	case Fragmented:
		return "fragmented"
	default:
		return "unknown"
	}
}

// PixelDataRef is the physical pixel data representation. Exactly the
// field named by Kind is set.
type PixelDataRef struct {
	Kind      RefKind
	Bytes     []byte
	Bulk      *dicom.BulkData
	Fragments *dicom.Fragments
}

// Location is the result of locating pixel data in a dataset.
type Location struct {
	Descriptor ImageDescriptor
	Ref        PixelDataRef
}

// HasPixelData reports whether the object carries pixel data.
func (l *Location) HasPixelData() bool {
	return l.Ref.Kind != Absent
}

const opLocate = "locate pixel data"

// Locate classifies the pixel data of ds and validates it against the
// image pixel module. A dataset without Pixel Data is not an error; the
// returned location has Kind Absent.
func Locate(ds *dicom.Dataset, transferSyntaxUID string) (*Location, error) {
	loc := &Location{Descriptor: NewImageDescriptor(ds, transferSyntaxUID)}
	e, ok := ds.GetElement(dicom.TagPixelData)
	if !ok || e.Value == nil {
		slog.Debug("No pixel data present", "transfer_syntax", transferSyntaxUID)
		return loc, nil
	}
	desc := loc.Descriptor
	if desc.Rows <= 0 {
		return nil, errors.NewMissingError(opLocate, -1, dicom.TagRows.String(), errors.ErrNoPixelData)
	}
	if desc.Columns <= 0 {
		return nil, errors.NewMissingError(opLocate, -1, dicom.TagColumns.String(), errors.ErrNoPixelData)
	}

	switch v := e.Value.(type) {
	case []byte:
		loc.Ref = PixelDataRef{Kind: Inline, Bytes: v}
		if err := checkNativeLength(desc, int64(len(v))); err != nil {
			return nil, err
		}
	case *dicom.BulkData:
		loc.Ref = PixelDataRef{Kind: Bulk, Bulk: v}
		if desc.Encapsulated() {
			return nil, errors.NewFormatError(opLocate, -1, 0, v.Length, "encapsulated pixel data stored as a single value")
		}
		if err := checkNativeLength(desc, v.Length); err != nil {
			return nil, err
		}
	case *dicom.Fragments:
		loc.Ref = PixelDataRef{Kind: Fragmented, Fragments: v}
		if err := checkFragments(desc, v); err != nil {
			return nil, err
		}
	default:
		return nil, errors.NewFormatError(opLocate, -1, 0, 0, "pixel data value has an unexpected type")
	}

	slog.Debug("Located pixel data",
		"kind", loc.Ref.Kind.String(),
		"transfer_syntax", transferSyntaxUID,
		"frames", desc.Frames,
		"frame_length", desc.FrameLength())
	return loc, nil
}

// checkNativeLength accepts the exact frame total, or one padding byte
// more when the total is odd.
func checkNativeLength(desc ImageDescriptor, actual int64) error {
	if desc.Encapsulated() {
		return errors.NewFormatError(opLocate, -1, 0, actual, "native pixel data under an encapsulated transfer syntax")
	}
	expected := desc.FrameLength() * int64(desc.Frames)
	if actual == expected || expected%2 == 1 && actual == expected+1 {
		return nil
	}
	return errors.NewFormatError(opLocate, -1, expected, actual, "pixel data length disagrees with image dimensions")
}

func checkFragments(desc ImageDescriptor, frags *dicom.Fragments) error {
	if !desc.Encapsulated() {
		return errors.NewFormatError(opLocate, -1, 0, int64(frags.Len()), "fragmented pixel data under a native transfer syntax")
	}
	if frags.Len() == 0 {
		return errors.NewMissingError(opLocate, -1, dicom.TagPixelData.String(), errors.ErrNoPixelData)
	}
	if bot := frags.Items[0].Size(); bot%4 != 0 {
		return errors.NewFormatError(opLocate, -1, bot-bot%4, bot, "basic offset table length is not a multiple of 4")
	}
	if frags.Len()-1 < desc.Frames {
		return errors.NewFormatError(opLocate, -1, int64(desc.Frames+1), int64(frags.Len()), "fewer fragments than frames")
	}
	return nil
}
