package guestwasm

import (
	"encoding/binary"
	"math"
)

// Core wasm value type encodings.
const (
	valI32 byte = 0x7f
	valI64 byte = 0x7e
	valF32 byte = 0x7d
)

// Section ids.
const (
	sectionType   byte = 1
	sectionImport byte = 2
	sectionFunc   byte = 3
	sectionMemory byte = 5
	sectionGlobal byte = 6
	sectionExport byte = 7
	sectionCode   byte = 10
	sectionData   byte = 11
)

// Export and import kinds.
const (
	kindFunc   byte = 0
	kindMemory byte = 2
)

const funcTypeMarker byte = 0x60

// Opcodes the builder emits.
const (
	opUnreachable    byte = 0x00
	opEnd            byte = 0x0b
	opCall           byte = 0x10
	opLocalGet       byte = 0x20
	opGlobalGet      byte = 0x23
	opGlobalSet      byte = 0x24
	opI32Const       byte = 0x41
	opI64Const       byte = 0x42
	opF32Const       byte = 0x43
	opI32Add         byte = 0x6a
	opF32Mul         byte = 0x94
	opF32ConvertI32S byte = 0xb2
)

type buffer struct {
	bytes []byte
}

func (b *buffer) appendByte(v byte) {
	b.bytes = append(b.bytes, v)
}

func (b *buffer) writeBytes(v []byte) {
	b.bytes = append(b.bytes, v...)
}

// writeU32 writes unsigned LEB128 encoding.
func (b *buffer) writeU32(v uint32) {
	for {
		byt := byte(v & 0x7F)
		v >>= 7
		if v != 0 {
			byt |= 0x80
		}
		b.appendByte(byt)
		if v == 0 {
			break
		}
	}
}

// writeI32 writes signed LEB128 encoding.
func (b *buffer) writeI32(v int32) {
	for {
		byt := byte(v & 0x7F)
		v >>= 7
		if (v == 0 && byt&0x40 == 0) || (v == -1 && byt&0x40 != 0) {
			b.appendByte(byt)
			break
		}
		b.appendByte(byt | 0x80)
	}
}

// writeI64 writes signed LEB128 encoding.
func (b *buffer) writeI64(v int64) {
	for {
		byt := byte(v & 0x7F)
		v >>= 7
		if (v == 0 && byt&0x40 == 0) || (v == -1 && byt&0x40 != 0) {
			b.appendByte(byt)
			break
		}
		b.appendByte(byt | 0x80)
	}
}

func (b *buffer) writeF32(v float32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
	b.writeBytes(buf[:])
}

func (b *buffer) writeName(s string) {
	b.writeU32(uint32(len(s)))
	b.writeBytes([]byte(s))
}

func (b *buffer) writeSection(id byte, content *buffer) {
	b.appendByte(id)
	b.writeU32(uint32(len(content.bytes)))
	b.writeBytes(content.bytes)
}
