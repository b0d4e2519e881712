package imaging

import "github.com/caio-sobreiro/dicomframe/dicom"

// Params selects how a frame is rendered for display.
type Params struct {
	// WindowCenter and WindowWidth override any window in the object when
	// WindowWidth is not 0.
	WindowCenter float64
	WindowWidth  float64
	// WindowIndex and VOILUTIndex pick among multiple windows or VOI LUTs.
	WindowIndex int
	VOILUTIndex int
	// PreferWindow uses window values over a VOI LUT when both exist.
	PreferWindow bool
	// AutoWindowing derives a window from the frame's stored value range
	// when the object supplies neither a window nor any LUT.
	AutoWindowing bool
	// PresentationState, when set, supplies the modality, VOI and
	// presentation LUTs and the active overlays instead of the object.
	PresentationState *dicom.Dataset
	// OverlayActivationMask enables overlay groups 6000..601E by bit.
	OverlayActivationMask int
	// OverlayGray is the 16 bit gray value burnt in for overlays.
	OverlayGray int
}

// DefaultParams returns the parameters used when the caller has no
// preference.
func DefaultParams() Params {
	return Params{
		AutoWindowing:         true,
		PreferWindow:          true,
		OverlayActivationMask: 0xf,
		OverlayGray:           0xffff,
	}
}
