package multiframe

import (
	"fmt"
	"math/big"

	"golang.org/x/crypto/blake2b"
)

// uidRoot is the UUID derived root of DICOM PS3.5 Annex B.2.
const uidRoot = "2.25."

// HashUIDMapper derives UIDs from a keyed 128-bit BLAKE2b digest of the
// original UID. Mappers built with the same key return the same UID for
// the same input.
type HashUIDMapper struct {
	key []byte
}

// NewHashUIDMapper returns a mapper keyed with key, which may be empty
// and must not exceed 64 bytes.
func NewHashUIDMapper(key []byte) (*HashUIDMapper, error) {
	if len(key) > blake2b.Size {
		return nil, fmt.Errorf("uid mapper key is %d bytes, at most %d allowed", len(key), blake2b.Size)
	}
	return &HashUIDMapper{key: append([]byte(nil), key...)}, nil
}

// MapUID returns "2.25." followed by the decimal digest of uid. An empty
// uid maps to itself.
func (m *HashUIDMapper) MapUID(uid string) string {
	if uid == "" {
		return ""
	}
	h, err := blake2b.New(16, m.key)
	if err != nil {
		// unreachable, the key length is checked by NewHashUIDMapper
		panic(err)
	}
	h.Write([]byte(uid))
	return uidRoot + new(big.Int).SetBytes(h.Sum(nil)).String()
}
