package types

// Image Storage SOP Class UIDs, DICOM Part 4 Annex B.5.
const (
	ComputedRadiographyImageStorage        = "1.2.840.10008.5.1.4.1.1.1"
	DigitalXRayImageStorageForPresentation = "1.2.840.10008.5.1.4.1.1.1.1"

	CTImageStorage                        = "1.2.840.10008.5.1.4.1.1.2"
	EnhancedCTImageStorage                = "1.2.840.10008.5.1.4.1.1.2.1"
	LegacyConvertedEnhancedCTImageStorage = "1.2.840.10008.5.1.4.1.1.2.2"

	UltrasoundMultiFrameImageStorage = "1.2.840.10008.5.1.4.1.1.3.1"
	UltrasoundImageStorage           = "1.2.840.10008.5.1.4.1.1.6.1"

	MRImageStorage                        = "1.2.840.10008.5.1.4.1.1.4"
	EnhancedMRImageStorage                = "1.2.840.10008.5.1.4.1.1.4.1"
	EnhancedMRColorImageStorage           = "1.2.840.10008.5.1.4.1.1.4.3"
	LegacyConvertedEnhancedMRImageStorage = "1.2.840.10008.5.1.4.1.1.4.4"

	NuclearMedicineImageStorage = "1.2.840.10008.5.1.4.1.1.20"

	SecondaryCaptureImageStorage                        = "1.2.840.10008.5.1.4.1.1.7"
	MultiFrameGrayscaleByteSecondaryCaptureImageStorage = "1.2.840.10008.5.1.4.1.1.7.1"
	MultiFrameGrayscaleWordSecondaryCaptureImageStorage = "1.2.840.10008.5.1.4.1.1.7.2"
	MultiFrameTrueColorSecondaryCaptureImageStorage     = "1.2.840.10008.5.1.4.1.1.7.3"

	XRayAngiographicImageStorage = "1.2.840.10008.5.1.4.1.1.12.1"
	EnhancedXAImageStorage       = "1.2.840.10008.5.1.4.1.1.12.1.1"

	PETImageStorage                        = "1.2.840.10008.5.1.4.1.1.128"
	EnhancedPETImageStorage                = "1.2.840.10008.5.1.4.1.1.130"
	LegacyConvertedEnhancedPETImageStorage = "1.2.840.10008.5.1.4.1.1.128.1"

	VLWholeSlideMicroscopyImageStorage = "1.2.840.10008.5.1.4.1.1.77.1.6"
)

// Presentation State Storage SOP Class UIDs.
const (
	GrayscaleSoftcopyPresentationStateStorage = "1.2.840.10008.5.1.4.1.1.11.1"
	ColorSoftcopyPresentationStateStorage     = "1.2.840.10008.5.1.4.1.1.11.2"
)

// SOPClassInfo provides human-readable information about a SOP Class UID
type SOPClassInfo struct {
	UID         string
	Name        string
	Category    string
	Multiframe  bool
	Description string
}

// GetSOPClassInfo returns information about a SOP Class UID
func GetSOPClassInfo(uid string) *SOPClassInfo {
	info, ok := sopClassRegistry[uid]
	if !ok {
		return &SOPClassInfo{
			UID:      uid,
			Name:     "Unknown",
			Category: "Unknown",
		}
	}
	return &info
}

// IsStorageSOPClass returns true if the UID is an image storage SOP class
func IsStorageSOPClass(uid string) bool {
	return GetSOPClassInfo(uid).Category == "Storage"
}

// IsPresentationStateSOPClass returns true for softcopy presentation states.
func IsPresentationStateSOPClass(uid string) bool {
	return GetSOPClassInfo(uid).Category == "Presentation State"
}

// legacyEquivalents maps enhanced multi-frame classes to the single-frame
// class each frame converts to.
var legacyEquivalents = map[string]string{
	EnhancedCTImageStorage:  CTImageStorage,
	EnhancedMRImageStorage:  MRImageStorage,
	EnhancedPETImageStorage: PETImageStorage,
}

// LegacySOPClassUID returns the single-frame equivalent of an enhanced
// multi-frame SOP class. The second result is false for any other class.
func LegacySOPClassUID(enhanced string) (string, bool) {
	legacy, ok := legacyEquivalents[enhanced]
	return legacy, ok
}

func storage(uid, name string, multiframe bool) SOPClassInfo {
	return SOPClassInfo{UID: uid, Name: name, Category: "Storage", Multiframe: multiframe}
}

// sopClassRegistry maps SOP Class UIDs to their information
var sopClassRegistry = map[string]SOPClassInfo{
	ComputedRadiographyImageStorage:        storage(ComputedRadiographyImageStorage, "Computed Radiography Image Storage", false),
	DigitalXRayImageStorageForPresentation: storage(DigitalXRayImageStorageForPresentation, "Digital X-Ray Image Storage - For Presentation", false),

	CTImageStorage:                        storage(CTImageStorage, "CT Image Storage", false),
	EnhancedCTImageStorage:                storage(EnhancedCTImageStorage, "Enhanced CT Image Storage", true),
	LegacyConvertedEnhancedCTImageStorage: storage(LegacyConvertedEnhancedCTImageStorage, "Legacy Converted Enhanced CT Image Storage", true),

	UltrasoundMultiFrameImageStorage: storage(UltrasoundMultiFrameImageStorage, "Ultrasound Multi-frame Image Storage", true),
	UltrasoundImageStorage:           storage(UltrasoundImageStorage, "Ultrasound Image Storage", false),

	MRImageStorage:                        storage(MRImageStorage, "MR Image Storage", false),
	EnhancedMRImageStorage:                storage(EnhancedMRImageStorage, "Enhanced MR Image Storage", true),
	EnhancedMRColorImageStorage:           storage(EnhancedMRColorImageStorage, "Enhanced MR Color Image Storage", true),
	LegacyConvertedEnhancedMRImageStorage: storage(LegacyConvertedEnhancedMRImageStorage, "Legacy Converted Enhanced MR Image Storage", true),

	NuclearMedicineImageStorage: storage(NuclearMedicineImageStorage, "Nuclear Medicine Image Storage", true),

	SecondaryCaptureImageStorage:                        storage(SecondaryCaptureImageStorage, "Secondary Capture Image Storage", false),
	MultiFrameGrayscaleByteSecondaryCaptureImageStorage: storage(MultiFrameGrayscaleByteSecondaryCaptureImageStorage, "Multi-frame Grayscale Byte Secondary Capture Image Storage", true),
	MultiFrameGrayscaleWordSecondaryCaptureImageStorage: storage(MultiFrameGrayscaleWordSecondaryCaptureImageStorage, "Multi-frame Grayscale Word Secondary Capture Image Storage", true),
	MultiFrameTrueColorSecondaryCaptureImageStorage:     storage(MultiFrameTrueColorSecondaryCaptureImageStorage, "Multi-frame True Color Secondary Capture Image Storage", true),

	XRayAngiographicImageStorage: storage(XRayAngiographicImageStorage, "X-Ray Angiographic Image Storage", true),
	EnhancedXAImageStorage:       storage(EnhancedXAImageStorage, "Enhanced XA Image Storage", true),

	PETImageStorage:                        storage(PETImageStorage, "PET Image Storage", false),
	EnhancedPETImageStorage:                storage(EnhancedPETImageStorage, "Enhanced PET Image Storage", true),
	LegacyConvertedEnhancedPETImageStorage: storage(LegacyConvertedEnhancedPETImageStorage, "Legacy Converted Enhanced PET Image Storage", true),

	VLWholeSlideMicroscopyImageStorage: storage(VLWholeSlideMicroscopyImageStorage, "VL Whole Slide Microscopy Image Storage", true),

	GrayscaleSoftcopyPresentationStateStorage: {
		UID:      GrayscaleSoftcopyPresentationStateStorage,
		Name:     "Grayscale Softcopy Presentation State Storage",
		Category: "Presentation State",
	},
	ColorSoftcopyPresentationStateStorage: {
		UID:      ColorSoftcopyPresentationStateStorage,
		Name:     "Color Softcopy Presentation State Storage",
		Category: "Presentation State",
	},
}
