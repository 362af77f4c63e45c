package npy

import (
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"github.com/user/clipset/pkg/mocks"
)

func TestWriteFloat32(t *testing.T) {
	fs := mocks.NewFileSystem()
	data := []float32{1, 2, 3, 4, 5, 6}

	if err := WriteFloat32(fs, "/out/sample.npy", data, []int{2, 3}); err != nil {
		t.Fatalf("WriteFloat32() error = %v", err)
	}

	fileData, ok := fs.File("/out/sample.npy")
	if !ok {
		t.Fatal("file was not written")
	}

	// Magic string and version (NPY v1.0).
	if string(fileData[0:6]) != "\x93NUMPY" {
		t.Error("invalid magic string")
	}
	if fileData[6] != 0x01 || fileData[7] != 0x00 {
		t.Error("invalid version")
	}

	headerLen := int(binary.LittleEndian.Uint16(fileData[8:10]))
	if (10+headerLen)%16 != 0 {
		t.Errorf("data offset %d is not 16-byte aligned", 10+headerLen)
	}

	dict := string(fileData[10 : 10+headerLen])
	if !strings.Contains(dict, "'descr': '<f4'") {
		t.Errorf("dict missing float32 descr: %s", dict)
	}
	if !strings.Contains(dict, "'shape': (2, 3)") {
		t.Errorf("dict missing shape: %s", dict)
	}
	if !strings.HasSuffix(dict, "\n") {
		t.Error("header does not end with a newline")
	}

	payload := fileData[10+headerLen:]
	if len(payload) != 4*len(data) {
		t.Fatalf("payload is %d bytes, want %d", len(payload), 4*len(data))
	}
	first := math.Float32frombits(binary.LittleEndian.Uint32(payload[0:4]))
	if first != 1 {
		t.Errorf("first element = %f, want 1", first)
	}
}

func TestWriteFloat32_ShapeMismatch(t *testing.T) {
	fs := mocks.NewFileSystem()
	if err := WriteFloat32(fs, "/out.npy", []float32{1, 2, 3}, []int{2, 2}); err == nil {
		t.Fatal("WriteFloat32() accepted a mismatched shape")
	}
}

func TestWriteFloat32_1DShapeHasTrailingComma(t *testing.T) {
	fs := mocks.NewFileSystem()
	if err := WriteFloat32(fs, "/out.npy", []float32{1, 2, 3}, []int{3}); err != nil {
		t.Fatalf("WriteFloat32() error = %v", err)
	}
	fileData, _ := fs.File("/out.npy")
	headerLen := int(binary.LittleEndian.Uint16(fileData[8:10]))
	dict := string(fileData[10 : 10+headerLen])
	if !strings.Contains(dict, "'shape': (3,)") {
		t.Errorf("dict missing 1D shape with trailing comma: %s", dict)
	}
}
