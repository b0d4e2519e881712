package pixel

import (
	"encoding/binary"
	"reflect"
	"testing"

	"github.com/caio-sobreiro/dicomframe/errors"
)

func offsetTable(values ...uint32) []byte {
	var out []byte
	for _, v := range values {
		out = binary.LittleEndian.AppendUint32(out, v)
	}
	return out
}

func positions(t FrameOffsetTable) []int64 {
	out := make([]int64, len(t))
	for i, s := range t {
		out[i] = s.Position
	}
	return out
}

func TestResolveOffsets(t *testing.T) {
	tests := []struct {
		name      string
		table     []byte
		frames    int
		start     int64
		want      []int64
		wantDiags bool
	}{
		{
			name:   "unknown trailing entry",
			table:  offsetTable(0, 0x10, 1),
			frames: 3,
			start:  1000,
			want:   []int64{1008, 1024, -1},
		},
		{
			name:   "unknown first entry",
			table:  offsetTable(1, 0x20),
			frames: 2,
			start:  100,
			want:   []int64{108, 140},
		},
		{
			name:   "empty table",
			table:  nil,
			frames: 3,
			start:  50,
			want:   []int64{58, -1, -1},
		},
		{
			name:   "short table",
			table:  offsetTable(0),
			frames: 2,
			start:  0,
			want:   []int64{8, -1},
		},
		{
			name:   "wraparound past 4 GiB",
			table:  offsetTable(0, 0xFFFFFF00, 0x100),
			frames: 3,
			start:  0,
			want:   []int64{8, 0xFFFFFF08, 0x100000108},
		},
		{
			name:      "repeated entry",
			table:     offsetTable(0, 0x10, 0x10),
			frames:    3,
			start:     0,
			want:      []int64{8, 24, -1},
			wantDiags: true,
		},
		{
			name:      "all zero entries",
			table:     offsetTable(0, 0, 0),
			frames:    3,
			start:     10,
			want:      []int64{18, -1, -1},
			wantDiags: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, diags, err := ResolveOffsets(tt.table, tt.frames, tt.start, 0)
			if err != nil {
				t.Fatalf("ResolveOffsets() error = %v", err)
			}
			if !reflect.DeepEqual(positions(got), tt.want) {
				t.Errorf("positions = %v, want %v", positions(got), tt.want)
			}
			if (len(diags) > 0) != tt.wantDiags {
				t.Errorf("diagnostics = %v, want present %v", diags, tt.wantDiags)
			}
		})
	}
}

func TestResolveOffsets_Lengths(t *testing.T) {
	got, _, _, err := ResolveOffsets(offsetTable(0, 0x10, 1), 3, 1000, 0)
	if err != nil {
		t.Fatalf("ResolveOffsets() error = %v", err)
	}
	want := []int64{8, -1, -1}
	for i, s := range got {
		if s.Length != want[i] {
			t.Errorf("frame %d length = %d, want %d", i, s.Length, want[i])
		}
	}
}

func TestResolveOffsets_Monotonic(t *testing.T) {
	table := offsetTable(0, 0x7FFFFFF0, 0xFFFFFFF0, 0x10, 0x80000000)
	got, last, _, err := ResolveOffsets(table, 5, 0, 0)
	if err != nil {
		t.Fatalf("ResolveOffsets() error = %v", err)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Position <= got[i-1].Position {
			t.Errorf("position %d = %d not after %d", i, got[i].Position, got[i-1].Position)
		}
	}
	if last != 0x180000000 {
		t.Errorf("lastOffset = %#x, want 0x180000000", last)
	}
}

func TestResolveOffsets_Idempotent(t *testing.T) {
	table := offsetTable(0x10, 0xFFFFFFF0, 0x20, 1)
	first, firstLast, _, err := ResolveOffsets(table, 4, 200, 0x100000000)
	if err != nil {
		t.Fatalf("ResolveOffsets() error = %v", err)
	}
	second, secondLast, _, err := ResolveOffsets(table, 4, 200, 0x100000000)
	if err != nil {
		t.Fatalf("ResolveOffsets() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) || firstLast != secondLast {
		t.Errorf("second run = %v/%#x, want %v/%#x", second, secondLast, first, firstLast)
	}
	if first[0].Position != 200+0x100000010+8 {
		t.Errorf("seeded frame 0 position = %#x", first[0].Position)
	}
}

func TestResolveOffsets_BadLength(t *testing.T) {
	_, _, _, err := ResolveOffsets([]byte{0, 0, 0}, 1, 0, 0)
	if errors.CategoryOf(err) != errors.FormatInconsistency {
		t.Errorf("error = %v, want format inconsistency", err)
	}
}
