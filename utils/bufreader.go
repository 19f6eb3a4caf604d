package utils

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/mogaika/sceneimport/importer"
)

// Reader is a sequential little-endian cursor over an in-memory buffer.
// Every read advances the position by the exact width of the value, the
// position never runs past the end of the buffer. There is no way to
// seek backwards.
type Reader struct {
	buf []byte
	pos int
}

func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

func (r *Reader) Pos() int { return r.pos }

func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.buf) {
		return nil, &importer.TruncatedBufferError{Offset: r.pos, Want: n, Have: len(r.buf) - r.pos}
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *Reader) Skip(n int) error {
	_, err := r.take(n)
	return err
}

// SkipTo moves the cursor forward to an absolute offset.
func (r *Reader) SkipTo(offset int) error {
	return r.Skip(offset - r.pos)
}

// Bytes returns a sub-slice of the underlying buffer, it is not copied.
func (r *Reader) Bytes(n int) ([]byte, error) {
	return r.take(n)
}

func (r *Reader) Uint8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) Int8() (int8, error) {
	v, err := r.Uint8()
	return int8(v), err
}

// Bool reads one byte and returns its least significant bit.
func (r *Reader) Bool() (bool, error) {
	v, err := r.Uint8()
	return v&1 != 0, err
}

func (r *Reader) Uint16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) Int16() (int16, error) {
	v, err := r.Uint16()
	return int16(v), err
}

func (r *Reader) Uint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) Int32() (int32, error) {
	v, err := r.Uint32()
	return int32(v), err
}

func (r *Reader) Uint64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *Reader) Int64() (int64, error) {
	v, err := r.Uint64()
	return int64(v), err
}

func (r *Reader) Float32() (float32, error) {
	v, err := r.Uint32()
	return math.Float32frombits(v), err
}

func (r *Reader) Float64() (float64, error) {
	v, err := r.Uint64()
	return math.Float64frombits(v), err
}

// String reads n raw bytes and truncates the result at the first NUL.
func (r *Reader) String(n int) (string, error) {
	b, err := r.take(n)
	if err != nil {
		return "", err
	}
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b), nil
}

func (r *Reader) BoolArray(n int) ([]bool, error) {
	out := make([]bool, n)
	for i := range out {
		v, err := r.Bool()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (r *Reader) Uint8Array(n int) ([]uint8, error) {
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]uint8, n)
	copy(out, b)
	return out, nil
}

func (r *Reader) Int32Array(n int) ([]int32, error) {
	out := make([]int32, n)
	for i := range out {
		v, err := r.Int32()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (r *Reader) Int64Array(n int) ([]int64, error) {
	out := make([]int64, n)
	for i := range out {
		v, err := r.Int64()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (r *Reader) Float32Array(n int) ([]float32, error) {
	out := make([]float32, n)
	for i := range out {
		v, err := r.Float32()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (r *Reader) Float64Array(n int) ([]float64, error) {
	out := make([]float64, n)
	for i := range out {
		v, err := r.Float64()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
