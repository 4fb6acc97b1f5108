// Package mem implements the simulator's backing store: a fixed-size,
// byte-addressable array with big-endian word and double accessors.
package mem

import (
	"encoding/binary"

	"github.com/Farahemad1/tomasulosim/simerr"
)

// DefaultSize is the backing store size used when none is configured,
// matching the original engine's fixed 4 KiB address space.
const DefaultSize = 4096

// Memory is a flat, bounds-checked byte array.
type Memory struct {
	bytes []byte
}

// New allocates a zeroed backing store of the given size in bytes.
func New(size int) *Memory {
	if size <= 0 {
		size = DefaultSize
	}
	return &Memory{bytes: make([]byte, size)}
}

func (m *Memory) checkRange(addr uint64, size int) error {
	if addr+uint64(size) > uint64(len(m.bytes)) {
		return simerr.New(simerr.OutOfBounds,
			"address range out of bounds")
	}
	return nil
}

// LoadWord reads 4 big-endian bytes at addr and sign-extends to int64.
func (m *Memory) LoadWord(addr uint64) (int64, error) {
	if err := m.checkRange(addr, 4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(m.bytes[addr : addr+4])
	return int64(int32(v)), nil
}

// LoadDouble reads 8 big-endian bytes at addr as int64.
func (m *Memory) LoadDouble(addr uint64) (int64, error) {
	if err := m.checkRange(addr, 8); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(m.bytes[addr : addr+8])
	return int64(v), nil
}

// StoreWord writes the low 32 bits of value as 4 big-endian bytes at addr.
func (m *Memory) StoreWord(addr uint64, value int64) error {
	if err := m.checkRange(addr, 4); err != nil {
		return err
	}
	binary.BigEndian.PutUint32(m.bytes[addr:addr+4], uint32(value))
	return nil
}

// StoreDouble writes value as 8 big-endian bytes at addr.
func (m *Memory) StoreDouble(addr uint64, value int64) error {
	if err := m.checkRange(addr, 8); err != nil {
		return err
	}
	binary.BigEndian.PutUint64(m.bytes[addr:addr+8], uint64(value))
	return nil
}

// Size returns the backing store's capacity in bytes.
func (m *Memory) Size() int { return len(m.bytes) }
