package util

import (
	"encoding/binary"
	"fmt"
	"io"
)

// WriteElements serializes a sequence of fixed-width fields in the order
// given, little-endian, using the shared binary free-list buffers. It backs
// the fixed 80-byte block header and the disk-position records.
func WriteElements(w io.Writer, elements ...interface{}) error {
	for _, element := range elements {
		if err := writeElement(w, element); err != nil {
			return err
		}
	}
	return nil
}

func writeElement(w io.Writer, element interface{}) error {
	switch e := element.(type) {
	case int32:
		return BinarySerializer.PutUint32(w, binary.LittleEndian, uint32(e))
	case *int32:
		return BinarySerializer.PutUint32(w, binary.LittleEndian, uint32(*e))
	case uint32:
		return BinarySerializer.PutUint32(w, binary.LittleEndian, e)
	case *uint32:
		return BinarySerializer.PutUint32(w, binary.LittleEndian, *e)
	case uint64:
		return BinarySerializer.PutUint64(w, binary.LittleEndian, e)
	case *uint64:
		return BinarySerializer.PutUint64(w, binary.LittleEndian, *e)
	case Hash:
		return e.Serialize(w)
	case *Hash:
		return e.Serialize(w)
	default:
		return fmt.Errorf("WriteElements: unsupported type %T", element)
	}
}

// ReadElements mirrors WriteElements; every element must be a pointer.
func ReadElements(r io.Reader, elements ...interface{}) error {
	for _, element := range elements {
		if err := readElement(r, element); err != nil {
			return err
		}
	}
	return nil
}

func readElement(r io.Reader, element interface{}) error {
	switch e := element.(type) {
	case *int32:
		v, err := BinarySerializer.Uint32(r, binary.LittleEndian)
		if err != nil {
			return err
		}
		*e = int32(v)
		return nil
	case *uint32:
		v, err := BinarySerializer.Uint32(r, binary.LittleEndian)
		if err != nil {
			return err
		}
		*e = v
		return nil
	case *uint64:
		v, err := BinarySerializer.Uint64(r, binary.LittleEndian)
		if err != nil {
			return err
		}
		*e = v
		return nil
	case *Hash:
		return e.Unserialize(r)
	default:
		return fmt.Errorf("ReadElements: unsupported type %T", element)
	}
}
