package dicom

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/caio-sobreiro/dicomframe/types"
)

// VR (Value Representation) constants
const (
	VR_AE = "AE" // Application Entity
	VR_AS = "AS" // Age String
	VR_AT = "AT" // Attribute Tag
	VR_CS = "CS" // Code String
	VR_DA = "DA" // Date
	VR_DS = "DS" // Decimal String
	VR_DT = "DT" // Date Time
	VR_FL = "FL" // Floating Point Single
	VR_FD = "FD" // Floating Point Double
	VR_IS = "IS" // Integer String
	VR_LO = "LO" // Long String
	VR_LT = "LT" // Long Text
	VR_OB = "OB" // Other Byte
	VR_OD = "OD" // Other Double
	VR_OF = "OF" // Other Float
	VR_OL = "OL" // Other Long
	VR_OV = "OV" // Other Very Long
	VR_OW = "OW" // Other Word
	VR_PN = "PN" // Person Name
	VR_SH = "SH" // Short String
	VR_SL = "SL" // Signed Long
	VR_SQ = "SQ" // Sequence of Items
	VR_SS = "SS" // Signed Short
	VR_ST = "ST" // Short Text
	VR_SV = "SV" // Signed Very Long
	VR_TM = "TM" // Time
	VR_UC = "UC" // Unlimited Characters
	VR_UI = "UI" // Unique Identifier
	VR_UL = "UL" // Unsigned Long
	VR_UN = "UN" // Unknown
	VR_UR = "UR" // Universal Resource
	VR_US = "US" // Unsigned Short
	VR_UT = "UT" // Unlimited Text
	VR_UV = "UV" // Unsigned Very Long
)

// Common transfer syntax UIDs
const (
	TransferSyntaxImplicitVRLittleEndian = types.ImplicitVRLittleEndian
	TransferSyntaxExplicitVRLittleEndian = types.ExplicitVRLittleEndian
)

// Tag represents a DICOM tag (group, element)
type Tag struct {
	Group   uint16
	Element uint16
}

// String returns the tag as a string in (GGGG,EEEE) format
func (t Tag) String() string {
	return fmt.Sprintf("(%04x,%04x)", t.Group, t.Element)
}

// Uint32 returns the tag as a single GGGGEEEE value.
func (t Tag) Uint32() uint32 {
	return uint32(t.Group)<<16 | uint32(t.Element)
}

// Less orders tags by group, then element.
func (t Tag) Less(o Tag) bool {
	return t.Uint32() < o.Uint32()
}

// InGroup returns the tag moved to group+offset. Repeating groups such as
// the 60xx overlays are addressed this way.
func (t Tag) InGroup(offset uint16) Tag {
	return Tag{Group: t.Group + offset, Element: t.Element}
}

// IsPrivate reports whether the tag belongs to an odd group.
func (t Tag) IsPrivate() bool {
	return t.Group%2 == 1
}

// Element represents a DICOM data element.
//
// Value holds one of: nil (empty), string or []string for text VRs,
// []byte for OB/OW/UN and other raw values, []uint16 / []int16 / []uint32 /
// []int32 / []float32 / []float64 for binary numbers, *Sequence,
// *BulkData or *Fragments.
type Element struct {
	Tag    Tag
	VR     string
	Length uint32
	Value  interface{}
}

// Dataset represents a collection of DICOM elements
type Dataset struct {
	Elements map[Tag]*Element
	// BigEndian is the byte order of raw binary values held as []byte.
	BigEndian bool
}

// NewDataset creates a new empty dataset
func NewDataset() *Dataset {
	return &Dataset{
		Elements: make(map[Tag]*Element),
	}
}

// AddElement adds an element to the dataset
func (d *Dataset) AddElement(tag Tag, vr string, value interface{}) {
	d.Elements[tag] = &Element{
		Tag:   tag,
		VR:    vr,
		Value: value,
	}
}

// GetElement returns an element by tag
func (d *Dataset) GetElement(tag Tag) (*Element, bool) {
	if d == nil {
		return nil, false
	}
	element, exists := d.Elements[tag]
	return element, exists
}

// Contains reports whether the tag is present, even with an empty value.
func (d *Dataset) Contains(tag Tag) bool {
	_, ok := d.GetElement(tag)
	return ok
}

// ContainsValue reports whether the tag is present with a non-empty value.
func (d *Dataset) ContainsValue(tag Tag) bool {
	e, ok := d.GetElement(tag)
	return ok && !e.IsEmpty()
}

// Remove deletes the element for tag.
func (d *Dataset) Remove(tag Tag) {
	delete(d.Elements, tag)
}

// Len returns the number of elements.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Elements)
}

// Tags returns the element tags in ascending order.
func (d *Dataset) Tags() []Tag {
	tags := make([]Tag, 0, len(d.Elements))
	for tag := range d.Elements {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Less(tags[j]) })
	return tags
}

// IsEmpty reports whether the element carries no value.
func (e *Element) IsEmpty() bool {
	switch v := e.Value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(strings.TrimRight(v, "\x00")) == ""
	case []string:
		return len(v) == 0
	case []byte:
		return len(v) == 0
	case *Sequence:
		return v == nil || len(v.Items) == 0
	}
	return false
}

// GetString returns the first value of a tag as a trimmed string
func (d *Dataset) GetString(tag Tag) string {
	return d.GetStringAt(tag, 0)
}

// GetStringAt returns value index of a multi-valued tag, or "" if absent.
func (d *Dataset) GetStringAt(tag Tag, index int) string {
	values := d.GetStrings(tag)
	if index < 0 || index >= len(values) {
		return ""
	}
	return values[index]
}

// GetStrings returns a slice of string values for a tag
func (d *Dataset) GetStrings(tag Tag) []string {
	element, exists := d.GetElement(tag)
	if !exists {
		return nil
	}
	switch v := element.Value.(type) {
	case string:
		v = strings.TrimRight(v, "\x00")
		if strings.TrimSpace(v) == "" {
			return nil
		}
		// Split by backslash for multiple values
		parts := strings.Split(v, "\\")
		result := make([]string, len(parts))
		for i, part := range parts {
			result[i] = strings.TrimSpace(part)
		}
		return result
	case []string:
		return v
	case []uint16, []int16, []uint32, []int32:
		ints := d.GetInts(tag)
		result := make([]string, len(ints))
		for i, n := range ints {
			result[i] = strconv.Itoa(n)
		}
		return result
	case []float32, []float64:
		floats := d.GetFloats(tag)
		result := make([]string, len(floats))
		for i, f := range floats {
			result[i] = formatDecimal(f)
		}
		return result
	}
	return nil
}

// GetInt returns the first value of tag as an int, or def.
func (d *Dataset) GetInt(tag Tag, def int) int {
	return d.GetIntAt(tag, 0, def)
}

// GetIntAt returns value index of tag as an int, or def.
func (d *Dataset) GetIntAt(tag Tag, index, def int) int {
	values := d.GetInts(tag)
	if index < 0 || index >= len(values) {
		return def
	}
	return values[index]
}

// GetInts returns all values of an integer tag. IS and DS strings are
// parsed; unparsable entries are skipped.
func (d *Dataset) GetInts(tag Tag) []int {
	element, exists := d.GetElement(tag)
	if !exists {
		return nil
	}
	switch v := element.Value.(type) {
	case int:
		return []int{v}
	case uint16:
		return []int{int(v)}
	case uint32:
		return []int{int(v)}
	case []int:
		return v
	case []uint16:
		out := make([]int, len(v))
		for i, n := range v {
			out[i] = int(n)
		}
		return out
	case []int16:
		out := make([]int, len(v))
		for i, n := range v {
			out[i] = int(n)
		}
		return out
	case []uint32:
		out := make([]int, len(v))
		for i, n := range v {
			out[i] = int(n)
		}
		return out
	case []int32:
		out := make([]int, len(v))
		for i, n := range v {
			out[i] = int(n)
		}
		return out
	case []byte:
		return bytesToInts(element.VR, v, d.BigEndian)
	case string, []string:
		var out []int
		for _, s := range d.GetStrings(tag) {
			if n, err := strconv.Atoi(s); err == nil {
				out = append(out, n)
			} else if f, err := strconv.ParseFloat(s, 64); err == nil {
				out = append(out, int(f))
			}
		}
		return out
	}
	return nil
}

// GetFloat returns the first value of tag as a float64, or def.
func (d *Dataset) GetFloat(tag Tag, def float64) float64 {
	return d.GetFloatAt(tag, 0, def)
}

// GetFloatAt returns value index of tag as a float64, or def.
func (d *Dataset) GetFloatAt(tag Tag, index int, def float64) float64 {
	values := d.GetFloats(tag)
	if index < 0 || index >= len(values) {
		return def
	}
	return values[index]
}

// GetFloats returns all values of a numeric tag as float64.
func (d *Dataset) GetFloats(tag Tag) []float64 {
	element, exists := d.GetElement(tag)
	if !exists {
		return nil
	}
	switch v := element.Value.(type) {
	case float64:
		return []float64{v}
	case []float64:
		return v
	case []float32:
		out := make([]float64, len(v))
		for i, f := range v {
			out[i] = float64(f)
		}
		return out
	case string, []string:
		var out []float64
		for _, s := range d.GetStrings(tag) {
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				out = append(out, f)
			}
		}
		return out
	}
	ints := d.GetInts(tag)
	if ints == nil {
		return nil
	}
	out := make([]float64, len(ints))
	for i, n := range ints {
		out[i] = float64(n)
	}
	return out
}

// GetBytes returns the raw value of tag. Binary numeric slices are
// serialised in the dataset byte order.
func (d *Dataset) GetBytes(tag Tag) []byte {
	element, exists := d.GetElement(tag)
	if !exists {
		return nil
	}
	switch v := element.Value.(type) {
	case []byte:
		return v
	case string:
		return []byte(v)
	case nil, *Sequence, *BulkData, *Fragments:
		return nil
	}
	return encodeBinary(element.Value, d.order())
}

// GetSequence returns the sequence stored under tag, or nil.
func (d *Dataset) GetSequence(tag Tag) *Sequence {
	element, exists := d.GetElement(tag)
	if !exists {
		return nil
	}
	sq, _ := element.Value.(*Sequence)
	return sq
}

// GetNested returns the first item of the sequence under tag, or nil.
func (d *Dataset) GetNested(tag Tag) *Dataset {
	return d.GetNestedAt(tag, 0)
}

// GetNestedAt returns item index of the sequence under tag, or nil.
func (d *Dataset) GetNestedAt(tag Tag, index int) *Dataset {
	sq := d.GetSequence(tag)
	if sq == nil || index < 0 || index >= len(sq.Items) {
		return nil
	}
	return sq.Items[index]
}

// SetString stores one or more text values.
func (d *Dataset) SetString(tag Tag, vr string, values ...string) {
	switch len(values) {
	case 0:
		d.AddElement(tag, vr, nil)
	case 1:
		d.AddElement(tag, vr, values[0])
	default:
		d.AddElement(tag, vr, append([]string(nil), values...))
	}
}

// SetNull stores an element with an empty value.
func (d *Dataset) SetNull(tag Tag, vr string) {
	d.AddElement(tag, vr, nil)
}

// SetInts stores integer values in the representation vr expects.
func (d *Dataset) SetInts(tag Tag, vr string, values ...int) {
	switch vr {
	case VR_US:
		out := make([]uint16, len(values))
		for i, v := range values {
			out[i] = uint16(v)
		}
		d.AddElement(tag, vr, out)
	case VR_SS:
		out := make([]int16, len(values))
		for i, v := range values {
			out[i] = int16(v)
		}
		d.AddElement(tag, vr, out)
	case VR_UL:
		out := make([]uint32, len(values))
		for i, v := range values {
			out[i] = uint32(v)
		}
		d.AddElement(tag, vr, out)
	case VR_SL:
		out := make([]int32, len(values))
		for i, v := range values {
			out[i] = int32(v)
		}
		d.AddElement(tag, vr, out)
	default:
		strs := make([]string, len(values))
		for i, v := range values {
			strs[i] = strconv.Itoa(v)
		}
		d.SetString(tag, vr, strs...)
	}
}

// SetFloats stores decimal values. DS values are formatted as text.
func (d *Dataset) SetFloats(tag Tag, vr string, values ...float64) {
	switch vr {
	case VR_FD:
		d.AddElement(tag, vr, append([]float64(nil), values...))
	case VR_FL:
		out := make([]float32, len(values))
		for i, v := range values {
			out[i] = float32(v)
		}
		d.AddElement(tag, vr, out)
	default:
		strs := make([]string, len(values))
		for i, v := range values {
			strs[i] = formatDecimal(v)
		}
		d.SetString(tag, vr, strs...)
	}
}

// NewSequence replaces tag with an empty sequence and returns it.
func (d *Dataset) NewSequence(tag Tag) *Sequence {
	sq := &Sequence{}
	d.AddElement(tag, VR_SQ, sq)
	return sq
}

// Copy returns a deep copy. Byte slices, bulk data and fragment payloads
// are shared; they are never modified in place.
func (d *Dataset) Copy() *Dataset {
	if d == nil {
		return nil
	}
	out := &Dataset{Elements: make(map[Tag]*Element, len(d.Elements)), BigEndian: d.BigEndian}
	out.AddAll(d)
	return out
}

// AddAll copies every element of src into d, replacing collisions.
func (d *Dataset) AddAll(src *Dataset) {
	if src == nil {
		return
	}
	for tag, e := range src.Elements {
		d.Elements[tag] = e.copy()
	}
}

// AddSelected copies the listed tags of src that are present.
func (d *Dataset) AddSelected(src *Dataset, tags ...Tag) {
	for _, tag := range tags {
		if e, ok := src.GetElement(tag); ok {
			d.Elements[tag] = e.copy()
		}
	}
}

// AddNotSelected copies every element of src except the excluded tags.
func (d *Dataset) AddNotSelected(src *Dataset, exclude ...Tag) {
	if src == nil {
		return
	}
	skip := make(map[Tag]struct{}, len(exclude))
	for _, tag := range exclude {
		skip[tag] = struct{}{}
	}
	for tag, e := range src.Elements {
		if _, ok := skip[tag]; ok {
			continue
		}
		d.Elements[tag] = e.copy()
	}
}

func (e *Element) copy() *Element {
	c := *e
	switch v := e.Value.(type) {
	case *Sequence:
		c.Value = v.Copy()
	case []string:
		c.Value = append([]string(nil), v...)
	case *Fragments:
		frags := *v
		frags.Items = append([]Fragment(nil), v.Items...)
		c.Value = &frags
	case *BulkData:
		bd := *v
		c.Value = &bd
	}
	return &c
}

func (d *Dataset) order() binary.ByteOrder {
	if d.BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func bytesToInts(vr string, data []byte, bigEndian bool) []int {
	var order binary.ByteOrder = binary.LittleEndian
	if bigEndian {
		order = binary.BigEndian
	}
	switch vr {
	case VR_US, VR_OW:
		out := make([]int, len(data)/2)
		for i := range out {
			out[i] = int(order.Uint16(data[i*2:]))
		}
		return out
	case VR_SS:
		out := make([]int, len(data)/2)
		for i := range out {
			out[i] = int(int16(order.Uint16(data[i*2:])))
		}
		return out
	case VR_UL, VR_OL:
		out := make([]int, len(data)/4)
		for i := range out {
			out[i] = int(order.Uint32(data[i*4:]))
		}
		return out
	case VR_SL:
		out := make([]int, len(data)/4)
		for i := range out {
			out[i] = int(int32(order.Uint32(data[i*4:])))
		}
		return out
	}
	out := make([]int, len(data))
	for i, b := range data {
		out[i] = int(b)
	}
	return out
}

// formatDecimal renders a DS value, at most 16 characters.
func formatDecimal(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	for prec := 16; prec > 0; prec-- {
		s := strconv.FormatFloat(v, 'g', prec, 64)
		if len(s) <= 16 {
			return s
		}
	}
	return strconv.FormatFloat(v, 'g', 1, 64)
}
