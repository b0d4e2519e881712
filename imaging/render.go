package imaging

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/caio-sobreiro/dicomframe/dicom"
	"github.com/caio-sobreiro/dicomframe/errors"
	"github.com/caio-sobreiro/dicomframe/pixel"
	"github.com/caio-sobreiro/dicomframe/types"
)

// OutputBits is the depth of rendered monochrome images.
const OutputBits = 8

// Result is a rendered frame. Diagnostics lists the stages that fell back
// to an identity transform or skipped an overlay.
type Result struct {
	Image image.Image
	// Raster holds the display values of a monochrome frame, nil for
	// colour frames.
	Raster      *pixel.Raster
	Diagnostics errors.Diagnostics
}

// Render converts the decoded samples of frame into a displayable image.
// Monochrome frames pass through the lookup tables and overlays of ds (or
// of p.PresentationState) and come out as 8 bit gray. Other photometric
// interpretations pass through unchanged.
func Render(ds *dicom.Dataset, desc pixel.ImageDescriptor, r *pixel.Raster, photometric types.Photometric, frame int, p Params) (*Result, error) {
	if !photometric.IsMonochrome() {
		img, err := pixel.ImageFromRaster(r.Interleaved(), photometric)
		if err != nil {
			return nil, fmt.Errorf("render frame %d: %w", frame, err)
		}
		return &Result{Image: img}, nil
	}
	if r.Samples != 1 {
		return nil, fmt.Errorf("render frame %d: %s with %d samples per pixel", frame, photometric, r.Samples)
	}

	res := &Result{}
	ps := p.PresentationState
	var groups []OverlayGroup
	if ps != nil {
		groups = ActivatedOverlays(ps)
	} else {
		groups = ActiveOverlays(ds, p.OverlayActivationMask)
	}
	embedded := make(map[OverlayGroup]*Overlay)
	for _, g := range groups {
		if o := ExtractEmbedded(ds, g, r, desc.BitsStored, frame, &res.Diagnostics); o != nil {
			embedded[g] = o
		}
	}

	f := NewLUTFactory(StoredValueOf(desc), frame)
	if ps != nil {
		f.SetModalityLUT(ps)
		f.SetVOI(selectSoftcopyVOI(ps, ds.GetString(dicom.TagSOPInstanceUID), frame+1), 0, 0, false)
		f.SetPresentationLUT(ps)
	} else {
		shared := ds.GetNested(dicom.TagSharedFunctionalGroupsSequence)
		perFrame := ds.GetNestedAt(dicom.TagPerFrameFunctionalGroupsSequence, frame)
		f.SetModalityLUT(selectFunctionalGroup(ds, shared, perFrame, dicom.TagPixelValueTransformationSequence))
		if p.WindowWidth != 0 {
			f.SetWindow(p.WindowCenter, p.WindowWidth)
		} else {
			f.SetVOI(selectFunctionalGroup(ds, shared, perFrame, dicom.TagFrameVOILUTSequence),
				p.WindowIndex, p.VOILUTIndex, p.PreferWindow)
		}
		if p.AutoWindowing && f.AutoWindow(r) {
			c, w := f.Window()
			slog.Debug("Derived window from pixel values", "frame_index", frame, "center", c, "width", w)
		}
		f.SetPresentationLUT(ds)
	}
	lut := f.Build(OutputBits)
	res.Diagnostics = append(res.Diagnostics, f.Diagnostics()...)

	out, err := lut.Apply(r)
	if err != nil {
		return nil, fmt.Errorf("render frame %d: %w", frame, err)
	}

	for _, g := range groups {
		o := embedded[g]
		if o == nil {
			attrs := ds
			if ps != nil && ps.ContainsValue(g.Tag(dicom.TagOverlayData)) {
				attrs = ps
			}
			if o = ReadOverlay(attrs, g, frame, &res.Diagnostics); o == nil {
				continue
			}
		}
		gray := p.OverlayGray
		if ps != nil {
			v, ok := RecommendedGray(ps, g)
			if ok {
				gray = v
			} else {
				res.Diagnostics.Add("overlay", g.Tag(dicom.TagOverlayActivationLayer).String(), frame,
					"no recommended gray for overlay #%d, using %#x", g.Number(), gray)
			}
		}
		o.BurnIn(out, frame, gray>>(16-OutputBits))
	}

	for _, d := range res.Diagnostics {
		slog.Debug("Render fallback", "frame_index", frame, "stage", d.Stage, "tag", d.Tag, "msg", d.Msg)
	}
	res.Raster = out
	res.Image, err = pixel.ImageFromRaster(out, types.Monochrome2)
	if err != nil {
		return nil, fmt.Errorf("render frame %d: %w", frame, err)
	}
	return res, nil
}

// selectFunctionalGroup returns the item of tag in the per-frame group,
// else in the shared group, else the top level attributes.
func selectFunctionalGroup(ds, shared, perFrame *dicom.Dataset, tag dicom.Tag) *dicom.Dataset {
	if perFrame == nil {
		return ds
	}
	if item := perFrame.GetNested(tag); item != nil {
		return item
	}
	if item := shared.GetNested(tag); item != nil {
		return item
	}
	return ds
}

// selectSoftcopyVOI returns the first Softcopy VOI LUT item of ps that
// applies to the given instance and 1-based frame number. Items without
// references apply to every image.
func selectSoftcopyVOI(ps *dicom.Dataset, sopInstanceUID string, frameNumber int) *dicom.Dataset {
	sq := ps.GetSequence(dicom.TagSoftcopyVOILUTSequence)
	if sq == nil {
		return nil
	}
	for _, voi := range sq.Items {
		refs := voi.GetSequence(dicom.TagReferencedImageSequence)
		if refs == nil || len(refs.Items) == 0 {
			return voi
		}
		for _, ref := range refs.Items {
			if ref.GetString(dicom.TagReferencedSOPInstanceUID) != sopInstanceUID {
				continue
			}
			frames := ref.GetInts(dicom.TagReferencedFrameNumber)
			if len(frames) == 0 {
				return voi
			}
			for _, n := range frames {
				if n == frameNumber {
					return voi
				}
			}
		}
	}
	return nil
}
