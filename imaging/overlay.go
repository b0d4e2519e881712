package imaging

import (
	"github.com/caio-sobreiro/dicomframe/dicom"
	"github.com/caio-sobreiro/dicomframe/errors"
	"github.com/caio-sobreiro/dicomframe/pixel"
)

// MaxOverlays is the number of 60xx repeating groups.
const MaxOverlays = 16

// OverlayGroup identifies one 60xx repeating group by index 0..15.
type OverlayGroup int

// Tag returns t moved into the group.
func (g OverlayGroup) Tag(t dicom.Tag) dicom.Tag {
	return t.InGroup(uint16(g) << 1)
}

// Number is the 1-based overlay number used in messages.
func (g OverlayGroup) Number() int {
	return int(g) + 1
}

// ActiveOverlays returns the groups of attrs whose Overlay Rows are present
// and whose bit is set in mask.
func ActiveOverlays(attrs *dicom.Dataset, mask int) []OverlayGroup {
	return overlayGroups(attrs, dicom.TagOverlayRows, mask)
}

// ActivatedOverlays returns the groups a presentation state activates
// through Overlay Activation Layer.
func ActivatedOverlays(ps *dicom.Dataset) []OverlayGroup {
	return overlayGroups(ps, dicom.TagOverlayActivationLayer, -1)
}

func overlayGroups(attrs *dicom.Dataset, tag dicom.Tag, mask int) []OverlayGroup {
	var groups []OverlayGroup
	for i := 0; i < MaxOverlays; i++ {
		g := OverlayGroup(i)
		if mask&(1<<i) != 0 && attrs.ContainsValue(g.Tag(tag)) {
			groups = append(groups, g)
		}
	}
	return groups
}

// Overlay is one overlay plane ready to burn in.
type Overlay struct {
	Group   OverlayGroup
	Rows    int
	Columns int
	// Origin is the 1-based row and column of the top left overlay pixel.
	OriginRow    int
	OriginColumn int
	// FrameOrigin and Frames select the image frames the plane covers.
	FrameOrigin int
	Frames      int
	// Data holds Rows*Columns bits per frame, least significant bit first.
	Data     []byte
	Embedded bool
}

// ExtractEmbedded lifts an overlay stored in the unused high bits of the
// pixel samples out of r before the lookup tables discard them. It
// returns nil when the group holds a separate bitmap or when its bit
// position collides with the stored bits.
func ExtractEmbedded(attrs *dicom.Dataset, g OverlayGroup, r *pixel.Raster, bitsStored, frame int, diags *errors.Diagnostics) *Overlay {
	if attrs.GetInt(g.Tag(dicom.TagOverlayBitsAllocated), 1) == 1 {
		return nil
	}
	pos := attrs.GetInt(g.Tag(dicom.TagOverlayBitPosition), 0)
	if pos < bitsStored {
		diags.Add("overlay", g.Tag(dicom.TagOverlayBitPosition).String(), frame,
			"ignoring embedded overlay #%d at bit %d inside %d stored bits", g.Number(), pos, bitsStored)
		return nil
	}
	o, ok := readOverlayGeometry(attrs, g, frame, diags)
	if !ok {
		return nil
	}
	o.Embedded = true
	o.FrameOrigin, o.Frames = 1, 1
	n := o.Rows * o.Columns
	o.Data = make([]byte, (n+7)>>3)
	mask := 1 << pos
	for i := 0; i < n && i < r.Width*r.Height; i++ {
		if r.At(i%r.Width, i/r.Width, 0)&mask != 0 {
			o.Data[i>>3] |= 1 << (i & 7)
		}
	}
	return o
}

// ReadOverlay reads a separately stored overlay bitmap from attrs. A
// malformed group is reported in diags and yields nil.
func ReadOverlay(attrs *dicom.Dataset, g OverlayGroup, frame int, diags *errors.Diagnostics) *Overlay {
	o, ok := readOverlayGeometry(attrs, g, frame, diags)
	if !ok {
		return nil
	}
	o.FrameOrigin = attrs.GetInt(g.Tag(dicom.TagImageFrameOrigin), 1)
	o.Frames = attrs.GetInt(g.Tag(dicom.TagNumberOfFramesInOverlay), 1)
	o.Data = attrs.GetBytes(g.Tag(dicom.TagOverlayData))
	if o.Data == nil {
		diags.Add("overlay", g.Tag(dicom.TagOverlayData).String(), frame, "overlay #%d has no data", g.Number())
		return nil
	}
	need := (o.Rows*o.Columns*o.Frames + 7) >> 3
	if len(o.Data) < need {
		diags.Add("overlay", g.Tag(dicom.TagOverlayData).String(), frame,
			"overlay #%d has %d bytes, %dx%d over %d frames needs %d", g.Number(), len(o.Data), o.Rows, o.Columns, o.Frames, need)
		return nil
	}
	return o
}

func readOverlayGeometry(attrs *dicom.Dataset, g OverlayGroup, frame int, diags *errors.Diagnostics) (*Overlay, bool) {
	o := &Overlay{
		Group:   g,
		Rows:    attrs.GetInt(g.Tag(dicom.TagOverlayRows), 0),
		Columns: attrs.GetInt(g.Tag(dicom.TagOverlayColumns), 0),
	}
	if o.Rows <= 0 || o.Columns <= 0 {
		diags.Add("overlay", g.Tag(dicom.TagOverlayRows).String(), frame,
			"overlay #%d has size %dx%d", g.Number(), o.Rows, o.Columns)
		return nil, false
	}
	origin := attrs.GetInts(g.Tag(dicom.TagOverlayOrigin))
	if len(origin) != 2 {
		diags.Add("overlay", g.Tag(dicom.TagOverlayOrigin).String(), frame,
			"overlay #%d origin has %d values", g.Number(), len(origin))
		return nil, false
	}
	o.OriginRow, o.OriginColumn = origin[0], origin[1]
	return o, true
}

// BurnIn sets every pixel of r covered by the overlay plane for frame to
// value. Embedded planes always cover the frame they were extracted from.
// Pixels falling outside r are dropped.
func (o *Overlay) BurnIn(r *pixel.Raster, frame, value int) {
	index := 0
	if !o.Embedded {
		index = frame - o.FrameOrigin + 1
		if index < 0 || index >= o.Frames {
			return
		}
	}
	n := o.Rows * o.Columns
	off := n * index
	x0, y0 := o.OriginColumn-1, o.OriginRow-1
	for i := 0; i < n; i++ {
		bit := off + i
		if bit>>3 >= len(o.Data) || o.Data[bit>>3]&(1<<(bit&7)) == 0 {
			continue
		}
		x := x0 + i%o.Columns
		y := y0 + i/o.Columns
		if x < 0 || y < 0 || x >= r.Width || y >= r.Height {
			continue
		}
		r.Set(x, y, 0, value)
	}
}

// RecommendedGray returns the Recommended Display Grayscale Value of the
// graphic layer the presentation state activates group g on.
func RecommendedGray(ps *dicom.Dataset, g OverlayGroup) (int, bool) {
	layer := ps.GetString(g.Tag(dicom.TagOverlayActivationLayer))
	if layer == "" {
		return 0, false
	}
	layers := ps.GetSequence(dicom.TagGraphicLayerSequence)
	if layers == nil {
		return 0, false
	}
	for _, item := range layers.Items {
		if item.GetString(dicom.TagGraphicLayer) == layer {
			v := item.GetInt(dicom.TagRecommendedDisplayGrayscaleValue, -1)
			return v, v >= 0
		}
	}
	return 0, false
}
