// Package npy writes NumPy .npy files (format version 1.0).
package npy

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/user/clipset/pkg/ports"
)

// WriteFloat32 writes a float32 array with the given shape to path.
func WriteFloat32(fs ports.FileSystem, path string, data []float32, shape []int) error {
	n := 1
	for _, s := range shape {
		n *= s
	}
	if n != len(data) {
		return fmt.Errorf("npy: shape %v holds %d elements, got %d", shape, n, len(data))
	}

	header, err := createHeader("<f4", shape)
	if err != nil {
		return fmt.Errorf("npy: create header: %w", err)
	}

	buf := bytes.NewBuffer(header)
	if err := binary.Write(buf, binary.LittleEndian, data); err != nil {
		return fmt.Errorf("npy: write data: %w", err)
	}

	return fs.WriteFile(path, buf.Bytes())
}

// createHeader creates a v1.0 NumPy array header for the given dtype
// descriptor and shape.
func createHeader(descr string, shape []int) ([]byte, error) {
	var dict bytes.Buffer
	dict.WriteString(fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': (", descr))
	for i, s := range shape {
		dict.WriteString(fmt.Sprintf("%d", s))
		if i < len(shape)-1 {
			dict.WriteString(", ")
		}
	}
	if len(shape) == 1 {
		dict.WriteString(",")
	}
	dict.WriteString(")}")

	dictBytes := dict.Bytes()

	// Pad the header so the data section starts on a 16-byte boundary.
	// The 10 fixed bytes are magic, version and the length prefix; the
	// final byte must be a newline.
	currentSize := len(dictBytes) + 10 + 1
	padding := (16 - (currentSize % 16)) % 16

	var header bytes.Buffer
	header.Write([]byte{0x93, 'N', 'U', 'M', 'P', 'Y', 0x01, 0x00})

	dictLen := uint16(len(dictBytes) + padding + 1)
	if err := binary.Write(&header, binary.LittleEndian, dictLen); err != nil {
		return nil, err
	}

	header.Write(dictBytes)
	header.Write(bytes.Repeat([]byte{' '}, padding))
	header.WriteByte('\n')

	return header.Bytes(), nil
}
