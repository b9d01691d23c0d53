package util

import (
	"encoding/binary"
	"io"
)

// WriteVarInt writes n using Bitcoin's CompactSize encoding: a one-byte
// length discriminator followed by zero or more bytes of little-endian
// payload. Used for record and array lengths.
func WriteVarInt(w io.Writer, n uint64) error {
	if n < 0xfd {
		return BinarySerializer.PutUint8(w, uint8(n))
	}
	if n <= 0xffff {
		if err := BinarySerializer.PutUint8(w, 0xfd); err != nil {
			return err
		}
		return BinarySerializer.PutUint16(w, binary.LittleEndian, uint16(n))
	}
	if n <= 0xffffffff {
		if err := BinarySerializer.PutUint8(w, 0xfe); err != nil {
			return err
		}
		return BinarySerializer.PutUint32(w, binary.LittleEndian, uint32(n))
	}
	if err := BinarySerializer.PutUint8(w, 0xff); err != nil {
		return err
	}
	return BinarySerializer.PutUint64(w, binary.LittleEndian, n)
}

func ReadVarInt(r io.Reader) (uint64, error) {
	discriminator, err := BinarySerializer.Uint8(r)
	if err != nil {
		return 0, err
	}
	switch discriminator {
	case 0xff:
		v, err := BinarySerializer.Uint64(r, binary.LittleEndian)
		return v, err
	case 0xfe:
		v, err := BinarySerializer.Uint32(r, binary.LittleEndian)
		return uint64(v), err
	case 0xfd:
		v, err := BinarySerializer.Uint16(r, binary.LittleEndian)
		return uint64(v), err
	default:
		return uint64(discriminator), nil
	}
}

func VarIntSerializeSize(n uint64) uint32 {
	if n < 0xfd {
		return 1
	}
	if n <= 0xffff {
		return 3
	}
	if n <= 0xffffffff {
		return 5
	}
	return 9
}
