package utils

import (
	"testing"

	"github.com/mogaika/sceneimport/importer"
)

func TestReaderTypedReads(t *testing.T) {
	data := []byte{
		0x01,                   // bool
		0x34, 0x12,             // u16
		0x78, 0x56, 0x34, 0x12, // u32
		0x00, 0x00, 0x80, 0x3f, // f32 = 1.0
		'a', 'b', 'c', 0x00, 'x', // string(5), NUL-truncated
	}
	r := NewReader(data)

	if v, err := r.Bool(); err != nil || v != true {
		t.Errorf("Bool() = %v, %v", v, err)
	}
	if v, err := r.Uint16(); err != nil || v != 0x1234 {
		t.Errorf("Uint16() = 0x%x, %v", v, err)
	}
	if v, err := r.Uint32(); err != nil || v != 0x12345678 {
		t.Errorf("Uint32() = 0x%x, %v", v, err)
	}
	if v, err := r.Float32(); err != nil || v != 1.0 {
		t.Errorf("Float32() = %v, %v", v, err)
	}
	if v, err := r.String(5); err != nil || v != "abc" {
		t.Errorf("String(5) = %q, %v", v, err)
	}
	if r.Remaining() != 0 {
		t.Errorf("Remaining() = %d after consuming everything", r.Remaining())
	}
}

func TestReaderTruncation(t *testing.T) {
	r := NewReader([]byte{1, 2})
	if _, err := r.Uint32(); err == nil {
		t.Fatal("Uint32() on 2-byte buffer should fail")
	} else if _, ok := err.(*importer.TruncatedBufferError); !ok {
		t.Errorf("error type = %T, want *importer.TruncatedBufferError", err)
	}
	// a failed read must not advance the cursor
	if r.Pos() != 0 {
		t.Errorf("Pos() = %d after failed read", r.Pos())
	}
	if v, err := r.Uint16(); err != nil || v != 0x0201 {
		t.Errorf("Uint16() = 0x%x, %v", v, err)
	}
}

func TestReaderArrays(t *testing.T) {
	r := NewReader([]byte{
		0x01, 0x00, 0x00, 0x00,
		0x02, 0x00, 0x00, 0x00,
		0x03, 0x00, 0x00, 0x00,
	})
	arr, err := r.Int32Array(3)
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range []int32{1, 2, 3} {
		if arr[i] != want {
			t.Errorf("arr[%d] = %d, want %d", i, arr[i], want)
		}
	}
	if _, err := r.Int32Array(1); err == nil {
		t.Error("reading past the end should fail")
	}
}
