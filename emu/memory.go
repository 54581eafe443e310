package emu

import "encoding/binary"

// pageBits selects a 4 KiB page granule for the sparse backing store.
const pageBits = 12

const pageSize = 1 << pageBits

// Memory is a sparse, byte-addressable memory backed by demand-allocated
// pages. Unwritten locations read as zero. All multi-byte accessors use
// little-endian byte order and accept unaligned addresses.
type Memory struct {
	pages map[uint64]*[pageSize]byte
}

// NewMemory creates an empty memory.
func NewMemory() *Memory {
	return &Memory{
		pages: make(map[uint64]*[pageSize]byte),
	}
}

// page returns the page containing addr, allocating it when needed.
func (m *Memory) page(addr uint64) *[pageSize]byte {
	index := addr >> pageBits
	p, ok := m.pages[index]
	if !ok {
		p = new([pageSize]byte)
		m.pages[index] = p
	}
	return p
}

// Read8 reads one byte.
func (m *Memory) Read8(addr uint64) uint8 {
	p, ok := m.pages[addr>>pageBits]
	if !ok {
		return 0
	}
	return p[addr&(pageSize-1)]
}

// Write8 writes one byte.
func (m *Memory) Write8(addr uint64, value uint8) {
	m.page(addr)[addr&(pageSize-1)] = value
}

// Read16 reads a little-endian 16-bit value.
func (m *Memory) Read16(addr uint64) uint16 {
	var buf [2]byte
	m.ReadBytes(addr, buf[:])
	return binary.LittleEndian.Uint16(buf[:])
}

// Write16 writes a little-endian 16-bit value.
func (m *Memory) Write16(addr uint64, value uint16) {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], value)
	m.WriteBytes(addr, buf[:])
}

// Read32 reads a little-endian 32-bit value.
func (m *Memory) Read32(addr uint64) uint32 {
	var buf [4]byte
	m.ReadBytes(addr, buf[:])
	return binary.LittleEndian.Uint32(buf[:])
}

// Write32 writes a little-endian 32-bit value.
func (m *Memory) Write32(addr uint64, value uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], value)
	m.WriteBytes(addr, buf[:])
}

// Read64 reads a little-endian 64-bit value.
func (m *Memory) Read64(addr uint64) uint64 {
	var buf [8]byte
	m.ReadBytes(addr, buf[:])
	return binary.LittleEndian.Uint64(buf[:])
}

// Write64 writes a little-endian 64-bit value.
func (m *Memory) Write64(addr uint64, value uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], value)
	m.WriteBytes(addr, buf[:])
}

// ReadBytes fills buf from consecutive addresses starting at addr.
func (m *Memory) ReadBytes(addr uint64, buf []byte) {
	for i := range buf {
		buf[i] = m.Read8(addr + uint64(i))
	}
}

// WriteBytes stores buf at consecutive addresses starting at addr.
func (m *Memory) WriteBytes(addr uint64, buf []byte) {
	for i, b := range buf {
		m.Write8(addr+uint64(i), b)
	}
}
