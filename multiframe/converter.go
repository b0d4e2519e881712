// Package multiframe converts frames of enhanced multi-frame objects into
// legacy single-frame objects.
package multiframe

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/caio-sobreiro/dicomframe/dicom"
	"github.com/caio-sobreiro/dicomframe/errors"
	"github.com/caio-sobreiro/dicomframe/interfaces"
	"github.com/caio-sobreiro/dicomframe/pixel"
	"github.com/caio-sobreiro/dicomframe/types"
)

const opExtract = "extract frame"

// maxInstanceNumberLength is the IS value length limit.
const maxInstanceNumberLength = 16

// excluded holds the multi-frame structure that has no single-frame
// counterpart.
var excluded = []dicom.Tag{
	dicom.TagReferencedImageEvidenceSequence,
	dicom.TagSourceImageEvidenceSequence,
	dicom.TagDimensionIndexSequence,
	dicom.TagNumberOfFrames,
	dicom.TagSharedFunctionalGroupsSequence,
	dicom.TagPerFrameFunctionalGroupsSequence,
	dicom.TagPixelData,
}

// Converter extracts single frames of Enhanced CT, MR and PET objects.
// A Converter holds no per-call state and may be shared between
// goroutines when its UID mapper may.
type Converter struct {
	mapper               interfaces.UIDMapper
	preserveSeries       bool
	instanceNumberFormat string
	src                  io.ReaderAt
}

// Result is one extracted frame.
type Result struct {
	// Attributes is the legacy object, Pixel Data included.
	Attributes *dicom.Dataset
	// PixelData is the frame's pixel data as stored in Attributes.
	PixelData pixel.PixelDataRef
}

// New returns a converter. It fails when the instance number format does
// not take exactly a string and an int.
func New(opts ...Option) (*Converter, error) {
	c := &Converter{
		mapper:               &HashUIDMapper{},
		instanceNumberFormat: DefaultInstanceNumberFormat,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.mapper == nil {
		return nil, fmt.Errorf("uid mapper is nil")
	}
	if err := checkInstanceNumberFormat(c.instanceNumberFormat); err != nil {
		return nil, err
	}
	return c, nil
}

func checkInstanceNumberFormat(format string) error {
	if s := fmt.Sprintf(format, "1", 1); strings.Contains(s, "%!") {
		return fmt.Errorf("invalid instance number format %q: %s", format, s)
	}
	return nil
}

// IsSupportedSOPClass reports whether frames of objects of class uid can
// be extracted.
func IsSupportedSOPClass(uid string) bool {
	_, ok := types.LegacySOPClassUID(uid)
	return ok
}

// Extract builds the legacy single-frame object for frame (0-based) of
// the enhanced multi-frame object emf. emf is not modified.
func (c *Converter) Extract(emf *dicom.Dataset, frame int) (*Result, error) {
	sopClass := emf.GetString(dicom.TagSOPClassUID)
	legacyClass, ok := types.LegacySOPClassUID(sopClass)
	if !ok {
		return nil, errors.NewUnsupportedSOPClassError(opExtract, sopClass)
	}
	frames := emf.GetInt(dicom.TagNumberOfFrames, 1)
	if frame < 0 || frame >= frames {
		return nil, errors.NewOutOfBoundsError(opExtract, frame, frames)
	}
	shared := emf.GetNested(dicom.TagSharedFunctionalGroupsSequence)
	if shared == nil {
		return nil, errors.NewMissingError(opExtract, frame,
			dicom.TagSharedFunctionalGroupsSequence.String(), errors.ErrMalformedMultiframe)
	}
	perFrame := emf.GetNestedAt(dicom.TagPerFrameFunctionalGroupsSequence, frame)
	if perFrame == nil {
		return nil, errors.NewMissingError(opExtract, frame,
			dicom.TagPerFrameFunctionalGroupsSequence.String(), errors.ErrMalformedMultiframe)
	}

	dest := dicom.NewDataset()
	dest.BigEndian = emf.BigEndian
	dest.AddNotSelected(emf, excluded...)
	addFunctionalGroups(dest, shared)
	addFunctionalGroups(dest, perFrame)

	ref, err := c.slicePixelData(emf, frame, frames)
	if err != nil {
		return nil, err
	}
	if e, ok := emf.GetElement(dicom.TagPixelData); ok {
		switch ref.Kind {
		case pixel.Inline:
			dest.AddElement(dicom.TagPixelData, e.VR, ref.Bytes)
		case pixel.Bulk:
			dest.AddElement(dicom.TagPixelData, e.VR, ref.Bulk)
		case pixel.Fragmented:
			dest.AddElement(dicom.TagPixelData, e.VR, ref.Fragments)
		}
	}

	dest.SetString(dicom.TagSOPClassUID, dicom.VR_UI, legacyClass)
	dest.SetString(dicom.TagSOPInstanceUID, dicom.VR_UI,
		fmt.Sprintf("%s.%d", c.mapper.MapUID(dest.GetString(dicom.TagSOPInstanceUID)), frame+1))
	dest.SetString(dicom.TagInstanceNumber, dicom.VR_IS,
		c.instanceNumber(dest.GetString(dicom.TagInstanceNumber), frame))
	dest.SetString(dicom.TagImageType, dicom.VR_CS, dest.GetStrings(dicom.TagFrameType)...)
	dest.Remove(dicom.TagFrameType)
	if !c.preserveSeries {
		if series := dest.GetString(dicom.TagSeriesInstanceUID); series != "" {
			dest.SetString(dicom.TagSeriesInstanceUID, dicom.VR_UI, c.mapper.MapUID(series))
		}
	}
	c.adjustReferencedImages(dest, dicom.TagReferencedImageSequence)
	c.adjustReferencedImages(dest, dicom.TagSourceImageSequence)

	if legacyClass == types.MRImageStorage {
		deriveMR(dest)
	}

	slog.Debug("Extracted frame",
		"frame_index", frame,
		"sop_class", legacyClass,
		"sop_instance_uid", dest.GetString(dicom.TagSOPInstanceUID),
		"pixel_data", ref.Kind.String())
	return &Result{Attributes: dest, PixelData: ref}, nil
}

// addFunctionalGroups merges the macros of one functional group item.
// Referenced Image Sequence is a direct member of the item and is kept as
// it is.
func addFunctionalGroups(dest, group *dicom.Dataset) {
	dest.AddSelected(group, dicom.TagReferencedImageSequence)
	for _, tag := range group.Tags() {
		if tag == dicom.TagReferencedImageSequence {
			continue
		}
		if macro := group.GetNested(tag); macro != nil {
			dest.AddAll(macro)
		}
	}
}

func (c *Converter) instanceNumber(original string, frame int) string {
	s := fmt.Sprintf(c.instanceNumberFormat, original, frame+1)
	if len(s) > maxInstanceNumberLength {
		s = s[len(s)-maxInstanceNumberLength:]
	}
	return s
}

// adjustReferencedImages replaces references to convertible multi-frame
// objects with one reference per referenced frame to the extracted
// single-frame objects. Other references are kept.
func (c *Converter) adjustReferencedImages(ds *dicom.Dataset, tag dicom.Tag) {
	sq := ds.GetSequence(tag)
	if sq == nil {
		return
	}
	kept := make([]*dicom.Dataset, 0, len(sq.Items))
	var expanded []*dicom.Dataset
	for _, ref := range sq.Items {
		legacy, ok := types.LegacySOPClassUID(ref.GetString(dicom.TagReferencedSOPClassUID))
		if !ok {
			kept = append(kept, ref)
			continue
		}
		uid := c.mapper.MapUID(ref.GetString(dicom.TagReferencedSOPInstanceUID))
		frameNumbers := ref.GetInts(dicom.TagReferencedFrameNumber)
		if len(frameNumbers) == 0 {
			frameNumbers = []int{1}
		}
		for _, n := range frameNumbers {
			item := ref.Copy()
			item.Remove(dicom.TagReferencedFrameNumber)
			item.SetString(dicom.TagReferencedSOPClassUID, dicom.VR_UI, legacy)
			item.SetString(dicom.TagReferencedSOPInstanceUID, dicom.VR_UI, fmt.Sprintf("%s.%d", uid, n))
			expanded = append(expanded, item)
		}
	}
	sq.Items = append(kept, expanded...)
}

// slicePixelData cuts frame out of the pixel data of emf. Native frames
// are sliced with the frame length of the image pixel module; fragmented
// frames keep their fragments behind an empty offset table.
func (c *Converter) slicePixelData(emf *dicom.Dataset, frame, frames int) (pixel.PixelDataRef, error) {
	e, ok := emf.GetElement(dicom.TagPixelData)
	if !ok || e.Value == nil {
		return pixel.PixelDataRef{}, nil
	}
	length := pixel.NewImageDescriptor(emf, "").FrameLength()
	offset := int64(frame) * length

	switch v := e.Value.(type) {
	case []byte:
		if offset+length > int64(len(v)) {
			return pixel.PixelDataRef{}, errors.NewFormatError(opExtract, frame,
				length*int64(frames), int64(len(v)), "pixel data shorter than the declared frames")
		}
		out := make([]byte, length)
		copy(out, v[offset:offset+length])
		return pixel.PixelDataRef{Kind: pixel.Inline, Bytes: out}, nil
	case *dicom.BulkData:
		if offset+length > v.Length {
			return pixel.PixelDataRef{}, errors.NewFormatError(opExtract, frame,
				length*int64(frames), v.Length, "pixel data shorter than the declared frames")
		}
		return pixel.PixelDataRef{Kind: pixel.Bulk, Bulk: v.Slice(offset, length)}, nil
	case *dicom.Fragments:
		frags, err := c.sliceFragments(v, frame, frames)
		if err != nil {
			return pixel.PixelDataRef{}, err
		}
		return pixel.PixelDataRef{Kind: pixel.Fragmented, Fragments: frags}, nil
	}
	return pixel.PixelDataRef{}, errors.NewFormatError(opExtract, frame, 0, 0, "pixel data value has an unexpected type")
}

func (c *Converter) sliceFragments(frags *dicom.Fragments, frame, frames int) (*dicom.Fragments, error) {
	if frags.Len()-1 < frames {
		return nil, errors.NewFormatError(opExtract, frame, int64(frames+1), int64(frags.Len()), "fewer fragments than frames")
	}
	r := pixel.FragmentReader{Fragments: frags, Source: c.src}
	bot, err := r.Bytes(0)
	if err != nil {
		return nil, fmt.Errorf("read basic offset table: %w", err)
	}
	start := int64(0)
	if first := frags.Items[0]; first.Offset >= 0 {
		start = first.Offset + first.Size()
	}
	table, _, _, err := pixel.ResolveOffsets(bot, frames, start, 0)
	if err != nil {
		return nil, err
	}
	mapping, err := pixel.MapFragments(r, table, frames)
	if err != nil {
		return nil, err
	}

	out := &dicom.Fragments{VR: frags.VR, BigEndian: frags.BigEndian, URI: frags.URI}
	out.Add([]byte{})
	for _, i := range mapping[frame] {
		out.Items = append(out.Items, frags.Items[i])
	}
	return out, nil
}
