package dicom

// File Meta Information
var (
	TagFileMetaInformationGroupLength = Tag{0x0002, 0x0000}
	TagFileMetaInformationVersion     = Tag{0x0002, 0x0001}
	TagMediaStorageSOPClassUID        = Tag{0x0002, 0x0002}
	TagMediaStorageSOPInstanceUID     = Tag{0x0002, 0x0003}
	TagTransferSyntaxUID              = Tag{0x0002, 0x0010}
	TagImplementationClassUID         = Tag{0x0002, 0x0012}
	TagImplementationVersionName      = Tag{0x0002, 0x0013}
)

// Identification and cross references
var (
	TagSpecificCharacterSet            = Tag{0x0008, 0x0005}
	TagImageType                       = Tag{0x0008, 0x0008}
	TagSOPClassUID                     = Tag{0x0008, 0x0016}
	TagSOPInstanceUID                  = Tag{0x0008, 0x0018}
	TagModality                        = Tag{0x0008, 0x0060}
	TagReferencedSeriesSequence        = Tag{0x0008, 0x1115}
	TagReferencedImageSequence         = Tag{0x0008, 0x1140}
	TagReferencedSOPClassUID           = Tag{0x0008, 0x1150}
	TagReferencedSOPInstanceUID        = Tag{0x0008, 0x1155}
	TagReferencedFrameNumber           = Tag{0x0008, 0x1160}
	TagSourceImageSequence             = Tag{0x0008, 0x2112}
	TagFrameType                       = Tag{0x0008, 0x9007}
	TagReferencedImageEvidenceSequence = Tag{0x0008, 0x9092}
	TagSourceImageEvidenceSequence     = Tag{0x0008, 0x9154}
	TagPatientName                     = Tag{0x0010, 0x0010}
	TagPatientID                       = Tag{0x0010, 0x0020}
	TagStudyInstanceUID                = Tag{0x0020, 0x000D}
	TagSeriesInstanceUID               = Tag{0x0020, 0x000E}
	TagInstanceNumber                  = Tag{0x0020, 0x0013}
	TagDimensionIndexSequence          = Tag{0x0020, 0x9222}
)

// MR acquisition
var (
	TagScanningSequence                 = Tag{0x0018, 0x0020}
	TagSequenceVariant                  = Tag{0x0018, 0x0021}
	TagScanOptions                      = Tag{0x0018, 0x0022}
	TagAngioFlag                        = Tag{0x0018, 0x0025}
	TagEchoTime                         = Tag{0x0018, 0x0081}
	TagEchoPulseSequence                = Tag{0x0018, 0x9008}
	TagInversionRecovery                = Tag{0x0018, 0x9009}
	TagFlowCompensation                 = Tag{0x0018, 0x9010}
	TagSpoiling                         = Tag{0x0018, 0x9016}
	TagSteadyStatePulseSequence         = Tag{0x0018, 0x9017}
	TagEchoPlanarPulseSequence          = Tag{0x0018, 0x9018}
	TagMagnetizationTransfer            = Tag{0x0018, 0x9020}
	TagSpectrallySelectedSuppression    = Tag{0x0018, 0x9025}
	TagSpatialPresaturation             = Tag{0x0018, 0x9027}
	TagOversamplingPhase                = Tag{0x0018, 0x9029}
	TagSegmentedKSpaceTraversal         = Tag{0x0018, 0x9033}
	TagRectilinearPhaseEncodeReordering = Tag{0x0018, 0x9034}
	TagPartialFourierDirection          = Tag{0x0018, 0x9036}
	TagEffectiveEchoTime                = Tag{0x0018, 0x9082}
)

// Image pixel module
var (
	TagSamplesPerPixel                  = Tag{0x0028, 0x0002}
	TagPhotometricInterpretation        = Tag{0x0028, 0x0004}
	TagPlanarConfiguration              = Tag{0x0028, 0x0006}
	TagNumberOfFrames                   = Tag{0x0028, 0x0008}
	TagRows                             = Tag{0x0028, 0x0010}
	TagColumns                          = Tag{0x0028, 0x0011}
	TagBitsAllocated                    = Tag{0x0028, 0x0100}
	TagBitsStored                       = Tag{0x0028, 0x0101}
	TagHighBit                          = Tag{0x0028, 0x0102}
	TagPixelRepresentation              = Tag{0x0028, 0x0103}
	TagSmallestImagePixelValue          = Tag{0x0028, 0x0106}
	TagLargestImagePixelValue           = Tag{0x0028, 0x0107}
	TagWindowCenter                     = Tag{0x0028, 0x1050}
	TagWindowWidth                      = Tag{0x0028, 0x1051}
	TagRescaleIntercept                 = Tag{0x0028, 0x1052}
	TagRescaleSlope                     = Tag{0x0028, 0x1053}
	TagLUTDescriptor                    = Tag{0x0028, 0x3002}
	TagModalityLUTSequence              = Tag{0x0028, 0x3000}
	TagLUTData                          = Tag{0x0028, 0x3006}
	TagVOILUTSequence                   = Tag{0x0028, 0x3010}
	TagSoftcopyVOILUTSequence           = Tag{0x0028, 0x3110}
	TagFrameVOILUTSequence              = Tag{0x0028, 0x9132}
	TagPixelValueTransformationSequence = Tag{0x0028, 0x9145}
	TagPixelData                        = Tag{0x7FE0, 0x0010}
)

// Presentation state and overlays
var (
	TagPresentationLUTShape             = Tag{0x2050, 0x0020}
	TagPresentationLUTSequence          = Tag{0x2050, 0x0010}
	TagGraphicLayerSequence             = Tag{0x0070, 0x0060}
	TagGraphicLayer                     = Tag{0x0070, 0x0002}
	TagRecommendedDisplayGrayscaleValue = Tag{0x0070, 0x0066}
	TagSharedFunctionalGroupsSequence   = Tag{0x5200, 0x9229}
	TagPerFrameFunctionalGroupsSequence = Tag{0x5200, 0x9230}
	TagOverlayRows                      = Tag{0x6000, 0x0010}
	TagOverlayColumns                   = Tag{0x6000, 0x0011}
	TagNumberOfFramesInOverlay          = Tag{0x6000, 0x0015}
	TagOverlayType                      = Tag{0x6000, 0x0040}
	TagOverlayOrigin                    = Tag{0x6000, 0x0050}
	TagImageFrameOrigin                 = Tag{0x6000, 0x0051}
	TagOverlayBitsAllocated             = Tag{0x6000, 0x0100}
	TagOverlayBitPosition               = Tag{0x6000, 0x0102}
	TagOverlayActivationLayer           = Tag{0x6000, 0x1001}
	TagOverlayData                      = Tag{0x6000, 0x3000}
)

// Item delimitation
var (
	TagItem                     = Tag{0xFFFE, 0xE000}
	TagItemDelimitationItem     = Tag{0xFFFE, 0xE00D}
	TagSequenceDelimitationItem = Tag{0xFFFE, 0xE0DD}
)

// dictionary holds the VR of every tag this package may meet in an
// implicit VR dataset. Overlay tags are stored for group 6000; lookups
// fold the repeating group.
var dictionary = map[Tag]string{
	TagFileMetaInformationGroupLength: VR_UL,
	TagFileMetaInformationVersion:     VR_OB,
	TagMediaStorageSOPClassUID:        VR_UI,
	TagMediaStorageSOPInstanceUID:     VR_UI,
	TagTransferSyntaxUID:              VR_UI,
	TagImplementationClassUID:         VR_UI,
	TagImplementationVersionName:      VR_SH,

	TagSpecificCharacterSet:            VR_CS,
	TagImageType:                       VR_CS,
	TagSOPClassUID:                     VR_UI,
	TagSOPInstanceUID:                  VR_UI,
	{0x0008, 0x0020}:                   VR_DA,
	{0x0008, 0x0030}:                   VR_TM,
	{0x0008, 0x0050}:                   VR_SH,
	TagModality:                        VR_CS,
	{0x0008, 0x0070}:                   VR_LO,
	{0x0008, 0x0080}:                   VR_LO,
	{0x0008, 0x0090}:                   VR_PN,
	{0x0008, 0x1030}:                   VR_LO,
	{0x0008, 0x103E}:                   VR_LO,
	TagReferencedSeriesSequence:        VR_SQ,
	TagReferencedImageSequence:         VR_SQ,
	TagReferencedSOPClassUID:           VR_UI,
	TagReferencedSOPInstanceUID:        VR_UI,
	TagReferencedFrameNumber:           VR_IS,
	TagSourceImageSequence:             VR_SQ,
	TagFrameType:                       VR_CS,
	TagReferencedImageEvidenceSequence: VR_SQ,
	TagSourceImageEvidenceSequence:     VR_SQ,
	{0x0008, 0x9124}:                   VR_SQ, // Derivation Image Sequence
	TagPatientName:                     VR_PN,
	TagPatientID:                       VR_LO,
	{0x0010, 0x0030}:                   VR_DA,
	{0x0010, 0x0040}:                   VR_CS,
	{0x0018, 0x0050}:                   VR_DS,
	TagStudyInstanceUID:                VR_UI,
	TagSeriesInstanceUID:               VR_UI,
	{0x0020, 0x0010}:                   VR_SH,
	{0x0020, 0x0011}:                   VR_IS,
	TagInstanceNumber:                  VR_IS,
	{0x0020, 0x0032}:                   VR_DS,
	{0x0020, 0x0037}:                   VR_DS,
	{0x0020, 0x0052}:                   VR_UI,
	{0x0020, 0x9111}:                   VR_SQ, // Frame Content Sequence
	{0x0020, 0x9113}:                   VR_SQ, // Plane Position Sequence
	{0x0020, 0x9116}:                   VR_SQ, // Plane Orientation Sequence
	{0x0020, 0x9157}:                   VR_UL, // Dimension Index Values
	TagDimensionIndexSequence:          VR_SQ,
	{0x0028, 0x9110}:                   VR_SQ, // Pixel Measures Sequence

	TagScanningSequence:                 VR_CS,
	TagSequenceVariant:                  VR_CS,
	TagScanOptions:                      VR_CS,
	TagAngioFlag:                        VR_CS,
	TagEchoTime:                         VR_DS,
	TagEchoPulseSequence:                VR_CS,
	TagInversionRecovery:                VR_CS,
	TagFlowCompensation:                 VR_CS,
	TagSpoiling:                         VR_CS,
	TagSteadyStatePulseSequence:         VR_CS,
	TagEchoPlanarPulseSequence:          VR_CS,
	TagMagnetizationTransfer:            VR_CS,
	TagSpectrallySelectedSuppression:    VR_CS,
	TagSpatialPresaturation:             VR_CS,
	TagOversamplingPhase:                VR_CS,
	TagSegmentedKSpaceTraversal:         VR_CS,
	TagRectilinearPhaseEncodeReordering: VR_CS,
	TagPartialFourierDirection:          VR_CS,
	TagEffectiveEchoTime:                VR_FD,
	{0x0018, 0x9114}:                    VR_SQ, // MR Echo Sequence
	{0x0018, 0x9115}:                    VR_SQ, // MR Modifier Sequence
	{0x0018, 0x9226}:                    VR_SQ, // MR Image Frame Type Sequence
	{0x0018, 0x9112}:                    VR_SQ, // MR Timing and Related Parameters Sequence
	{0x0018, 0x9125}:                    VR_SQ, // MR FOV/Geometry Sequence
	{0x0018, 0x9006}:                    VR_SQ, // MR Imaging Modifier Sequence
	{0x0018, 0x9042}:                    VR_SQ, // MR Receive Coil Sequence
	{0x0018, 0x9049}:                    VR_SQ, // MR Transmit Coil Sequence
	{0x0018, 0x9152}:                    VR_SQ, // MR Metabolite Map Sequence
	{0x0018, 0x9103}:                    VR_SQ, // MR Spectroscopy FOV/Geometry Sequence
	{0x0018, 0x9329}:                    VR_SQ, // CT Image Frame Type Sequence
	{0x0018, 0x9301}:                    VR_SQ, // CT Acquisition Type Sequence
	{0x0018, 0x9325}:                    VR_SQ, // CT Exposure Sequence
	{0x0018, 0x9751}:                    VR_SQ, // PET Frame Type Sequence

	TagSamplesPerPixel:                  VR_US,
	TagPhotometricInterpretation:        VR_CS,
	TagPlanarConfiguration:              VR_US,
	TagNumberOfFrames:                   VR_IS,
	TagRows:                             VR_US,
	TagColumns:                          VR_US,
	{0x0028, 0x0030}:                    VR_DS,
	TagBitsAllocated:                    VR_US,
	TagBitsStored:                       VR_US,
	TagHighBit:                          VR_US,
	TagPixelRepresentation:              VR_US,
	TagSmallestImagePixelValue:          VR_US,
	TagLargestImagePixelValue:           VR_US,
	TagWindowCenter:                     VR_DS,
	TagWindowWidth:                      VR_DS,
	TagRescaleIntercept:                 VR_DS,
	TagRescaleSlope:                     VR_DS,
	{0x0028, 0x1054}:                    VR_LO,
	{0x0028, 0x1056}:                    VR_CS, // VOI LUT Function
	{0x0028, 0x2110}:                    VR_CS,
	TagModalityLUTSequence:              VR_SQ,
	TagLUTDescriptor:                    VR_US,
	{0x0028, 0x3003}:                    VR_LO,
	{0x0028, 0x3004}:                    VR_LO,
	TagLUTData:                          VR_OW,
	TagVOILUTSequence:                   VR_SQ,
	TagSoftcopyVOILUTSequence:           VR_SQ,
	TagFrameVOILUTSequence:              VR_SQ,
	TagPixelValueTransformationSequence: VR_SQ,

	TagGraphicLayerSequence:             VR_SQ,
	TagGraphicLayer:                     VR_CS,
	TagRecommendedDisplayGrayscaleValue: VR_US,
	TagPresentationLUTSequence:          VR_SQ,
	TagPresentationLUTShape:             VR_CS,
	TagSharedFunctionalGroupsSequence:   VR_SQ,
	TagPerFrameFunctionalGroupsSequence: VR_SQ,

	TagOverlayRows:             VR_US,
	TagOverlayColumns:          VR_US,
	TagNumberOfFramesInOverlay: VR_IS,
	TagOverlayType:             VR_CS,
	TagOverlayOrigin:           VR_SS,
	TagImageFrameOrigin:        VR_US,
	TagOverlayBitsAllocated:    VR_US,
	TagOverlayBitPosition:      VR_US,
	TagOverlayActivationLayer:  VR_CS,
	TagOverlayData:             VR_OW,

	TagPixelData: VR_OW,
}

// LookupVR returns the dictionary VR of tag, or UN.
func LookupVR(tag Tag) string {
	if tag.Element == 0x0000 {
		return VR_UL
	}
	if tag.Group >= 0x6000 && tag.Group <= 0x601E && tag.Group%2 == 0 {
		tag.Group = 0x6000
	}
	if vr, ok := dictionary[tag]; ok {
		return vr
	}
	return VR_UN
}
