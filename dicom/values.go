package dicom

// Sequence is the value of an SQ element.
type Sequence struct {
	Items []*Dataset
}

// Add appends an item.
func (s *Sequence) Add(item *Dataset) {
	s.Items = append(s.Items, item)
}

// Len returns the number of items.
func (s *Sequence) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Items)
}

// Copy deep-copies every item.
func (s *Sequence) Copy() *Sequence {
	if s == nil {
		return nil
	}
	out := &Sequence{Items: make([]*Dataset, len(s.Items))}
	for i, item := range s.Items {
		out.Items[i] = item.Copy()
	}
	return out
}

// BulkData references a value kept outside the dataset: a byte region of
// the file or stream identified by URI.
type BulkData struct {
	URI       string
	Offset    int64
	Length    int64
	BigEndian bool
}

// Slice returns a reference to length bytes starting offset bytes into b.
func (b *BulkData) Slice(offset, length int64) *BulkData {
	return &BulkData{
		URI:       b.URI,
		Offset:    b.Offset + offset,
		Length:    length,
		BigEndian: b.BigEndian,
	}
}

// Fragment is one item of encapsulated pixel data. Either Data holds the
// payload or Offset/Length locate it in the source. Offset is the position
// of the first payload byte, after the 8 byte item header, or -1.
type Fragment struct {
	Offset int64
	Length int64
	Data   []byte
}

// Size returns the payload length.
func (f Fragment) Size() int64 {
	if f.Data != nil {
		return int64(len(f.Data))
	}
	return f.Length
}

// InMemory reports whether the payload was loaded.
func (f Fragment) InMemory() bool {
	return f.Data != nil
}

// Fragments is the value of an encapsulated Pixel Data element. Items[0]
// is the Basic Offset Table.
type Fragments struct {
	VR        string
	BigEndian bool
	URI       string
	Items     []Fragment
}

// Len returns the number of items including the offset table.
func (f *Fragments) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Items)
}

// Add appends an in-memory fragment.
func (f *Fragments) Add(data []byte) {
	f.Items = append(f.Items, Fragment{Offset: -1, Length: int64(len(data)), Data: data})
}

// AddReference appends a fragment located in the source.
func (f *Fragments) AddReference(offset, length int64) {
	f.Items = append(f.Items, Fragment{Offset: offset, Length: length})
}
