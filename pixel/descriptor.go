// Package pixel locates pixel data inside a dataset and cuts it into
// per-frame byte streams.
package pixel

import (
	"github.com/caio-sobreiro/dicomframe/dicom"
	"github.com/caio-sobreiro/dicomframe/types"
)

// ImageDescriptor is the image pixel module of one object, captured once
// when the dataset is opened.
type ImageDescriptor struct {
	Rows                int
	Columns             int
	SamplesPerPixel     int
	BitsAllocated       int
	BitsStored          int
	HighBit             int
	PixelRepresentation int
	PlanarConfiguration int
	Photometric         types.Photometric
	Frames              int
	TransferSyntaxUID   string
	BigEndian           bool
	PixelDataVR         string
}

// NewImageDescriptor reads the image pixel module of ds. Absent values
// take their DICOM defaults: one sample, one frame, BitsStored equal to
// BitsAllocated.
func NewImageDescriptor(ds *dicom.Dataset, transferSyntaxUID string) ImageDescriptor {
	d := ImageDescriptor{
		Rows:                ds.GetInt(dicom.TagRows, 0),
		Columns:             ds.GetInt(dicom.TagColumns, 0),
		SamplesPerPixel:     ds.GetInt(dicom.TagSamplesPerPixel, 1),
		BitsAllocated:       ds.GetInt(dicom.TagBitsAllocated, 8),
		PixelRepresentation: ds.GetInt(dicom.TagPixelRepresentation, 0),
		PlanarConfiguration: ds.GetInt(dicom.TagPlanarConfiguration, 0),
		Photometric:         types.ParsePhotometric(ds.GetString(dicom.TagPhotometricInterpretation)),
		Frames:              ds.GetInt(dicom.TagNumberOfFrames, 1),
		TransferSyntaxUID:   transferSyntaxUID,
		BigEndian:           types.IsBigEndian(transferSyntaxUID),
	}
	d.BitsStored = ds.GetInt(dicom.TagBitsStored, d.BitsAllocated)
	d.HighBit = ds.GetInt(dicom.TagHighBit, d.BitsStored-1)
	if d.SamplesPerPixel < 1 {
		d.SamplesPerPixel = 1
	}
	if d.Frames < 1 {
		d.Frames = 1
	}
	if e, ok := ds.GetElement(dicom.TagPixelData); ok {
		d.PixelDataVR = e.VR
	}
	return d
}

// BytesPerSample is the storage size of one sample.
func (d ImageDescriptor) BytesPerSample() int {
	return (d.BitsAllocated + 7) / 8
}

// FrameLength is the byte length of one uncompressed frame.
func (d ImageDescriptor) FrameLength() int64 {
	return int64(d.Rows) * int64(d.Columns) * int64(d.SamplesPerPixel) * int64(d.BytesPerSample())
}

// Signed reports whether stored values are two's complement.
func (d ImageDescriptor) Signed() bool {
	return d.PixelRepresentation == 1
}

// Banded reports whether samples are stored colour-by-plane.
func (d ImageDescriptor) Banded() bool {
	return d.SamplesPerPixel > 1 && d.PlanarConfiguration == 1
}

// Encapsulated reports whether the transfer syntax stores pixel data as
// fragments.
func (d ImageDescriptor) Encapsulated() bool {
	return types.IsEncapsulated(d.TransferSyntaxUID)
}

// DecodedPhotometric is the photometric interpretation of the samples a
// decoder produces for this object.
func (d ImageDescriptor) DecodedPhotometric() types.Photometric {
	return d.Photometric.AfterDecompression(d.TransferSyntaxUID)
}
