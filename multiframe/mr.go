package multiframe

import (
	"strings"

	"github.com/caio-sobreiro/dicomframe/dicom"
)

// deriveMR fills the MR Image module attributes that the enhanced MR
// macros express differently.
func deriveMR(ds *dicom.Dataset) {
	setEchoTime(ds)
	setScanningSequence(ds)
	setSequenceVariant(ds)
	setScanOptions(ds)
}

func setEchoTime(ds *dicom.Dataset) {
	if te := ds.GetFloat(dicom.TagEffectiveEchoTime, 0); te != 0 {
		ds.SetFloats(dicom.TagEchoTime, dicom.VR_DS, te)
		return
	}
	ds.SetNull(dicom.TagEchoTime, dicom.VR_DS)
}

func setScanningSequence(ds *dicom.Dataset) {
	var values []string
	eps := ds.GetString(dicom.TagEchoPulseSequence)
	if eps != "GRADIENT" {
		values = append(values, "SE")
	}
	if eps != "SPIN" {
		values = append(values, "GR")
	}
	if ds.GetString(dicom.TagInversionRecovery) == "YES" {
		values = append(values, "IR")
	}
	if ds.GetString(dicom.TagEchoPlanarPulseSequence) == "YES" {
		values = append(values, "EP")
	}
	ds.SetString(dicom.TagScanningSequence, dicom.VR_CS, values...)
}

// present reports whether tag holds a value other than NONE.
func present(ds *dicom.Dataset, tag dicom.Tag) bool {
	v := ds.GetString(tag)
	return v != "" && v != "NONE"
}

func setSequenceVariant(ds *dicom.Dataset) {
	var values []string
	if ds.GetString(dicom.TagSegmentedKSpaceTraversal) != "SINGLE" {
		values = append(values, "SK")
	}
	if present(ds, dicom.TagMagnetizationTransfer) {
		values = append(values, "MTC")
	}
	if present(ds, dicom.TagSteadyStatePulseSequence) {
		if ds.GetString(dicom.TagSteadyStatePulseSequence) == "TIME_REVERSED" {
			values = append(values, "TRSS")
		} else {
			values = append(values, "SS")
		}
	}
	if present(ds, dicom.TagSpoiling) {
		values = append(values, "SP")
	}
	if present(ds, dicom.TagOversamplingPhase) {
		values = append(values, "OSP")
	}
	if len(values) == 0 {
		values = []string{"NONE"}
	}
	ds.SetString(dicom.TagSequenceVariant, dicom.VR_CS, values...)
}

func setScanOptions(ds *dicom.Dataset) {
	var values []string
	if per := ds.GetString(dicom.TagRectilinearPhaseEncodeReordering); per != "" && per != "LINEAR" {
		values = append(values, "PER")
	}
	// value 3 of Image Type, copied from Frame Type
	switch imageType := ds.GetStringAt(dicom.TagImageType, 2); {
	case imageType == "ANGIO":
		ds.SetString(dicom.TagAngioFlag, dicom.VR_CS, "Y")
	case imageType != "":
		if strings.HasPrefix(imageType, "CARD") {
			values = append(values, "CG")
		}
		if strings.HasSuffix(imageType, "RESP_GATED") {
			values = append(values, "RG")
		}
	}
	switch ds.GetString(dicom.TagPartialFourierDirection) {
	case "PHASE":
		values = append(values, "PFP")
	case "FREQUENCY":
		values = append(values, "PFF")
	}
	if present(ds, dicom.TagSpatialPresaturation) {
		values = append(values, "SP")
	}
	if strings.HasPrefix(ds.GetString(dicom.TagSpectrallySelectedSuppression), "FAT") {
		values = append(values, "FS")
	}
	if present(ds, dicom.TagFlowCompensation) {
		values = append(values, "FC")
	}
	ds.SetString(dicom.TagScanOptions, dicom.VR_CS, values...)
}
