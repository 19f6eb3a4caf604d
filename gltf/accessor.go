package gltf

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/mogaika/sceneimport/importer"
)

// glTF componentType enum values.
const (
	compByte          = 5120
	compUnsignedByte  = 5121
	compShort         = 5122
	compUnsignedShort = 5123
	compUnsignedInt   = 5125
	compFloat         = 5126
)

func componentSize(componentType int) int {
	switch componentType {
	case compByte, compUnsignedByte:
		return 1
	case compShort, compUnsignedShort:
		return 2
	case compUnsignedInt, compFloat:
		return 4
	}
	return 0
}

func typeComponents(accessorType string) int {
	switch accessorType {
	case "SCALAR":
		return 1
	case "VEC2":
		return 2
	case "VEC3":
		return 3
	case "VEC4", "MAT2":
		return 4
	case "MAT3":
		return 9
	case "MAT4":
		return 16
	}
	return 0
}

// accessorData is a fully materialized accessor. Floats is always
// populated (normalization applied when the accessor declares it);
// UInts is additionally populated for unsigned integer component types
// so index and joint consumers avoid a float round-trip.
type accessorData struct {
	Floats []float32
	UInts  []uint32

	Count      int
	Components int
}

func (a *accessorData) scalars() int { return a.Count * a.Components }

// accessor materializes accessor i: dense decode from the bufferView
// (zeros when the accessor has none), then the sparse overlay on top.
func (pc *ParseContext) accessor(i int) (*accessorData, error) {
	v, err := pc.cache.resolve(pc.ctx, key("accessor", i), func() (interface{}, error) {
		if i < 0 || i >= len(pc.doc.Accessors) {
			return nil, importer.Structuralf(key("accessor", i), "index out of range (%d defined)", len(pc.doc.Accessors))
		}
		acc := &pc.doc.Accessors[i]

		components := typeComponents(acc.Type)
		size := componentSize(acc.ComponentType)
		if components == 0 || size == 0 {
			return nil, importer.Structuralf(key("accessor", i),
				"unknown type %q / componentType %d", acc.Type, acc.ComponentType)
		}

		data := &accessorData{Count: acc.Count, Components: components}
		n := acc.Count * components
		data.Floats = make([]float32, n)
		if isUnsignedInt(acc.ComponentType) {
			data.UInts = make([]uint32, n)
		}

		if acc.BufferView != nil {
			if err := pc.decodeDense(acc, data); err != nil {
				return nil, err
			}
		}
		if acc.Sparse != nil {
			if err := pc.applySparse(i, acc, data); err != nil {
				return nil, err
			}
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*accessorData), nil
}

func (pc *ParseContext) decodeDense(acc *Accessor, data *accessorData) error {
	view := &pc.doc.BufferViews[*acc.BufferView]
	raw, err := pc.bufferView(*acc.BufferView)
	if err != nil {
		return err
	}

	size := componentSize(acc.ComponentType)
	tight := size * data.Components

	if view.ByteStride != nil && *view.ByteStride != tight {
		return pc.decodeInterleaved(acc, *acc.BufferView, *view.ByteStride, raw, data)
	}

	end := acc.ByteOffset + data.Count*tight
	if end > len(raw) {
		return importer.Structuralf("accessor", "range [%d:%d] exceeds view size %d", acc.ByteOffset, end, len(raw))
	}
	decodeScalars(raw[acc.ByteOffset:end], acc.ComponentType, acc.Normalized, data.Floats, data.UInts)
	return nil
}

// decodeInterleaved reads an accessor whose bufferView packs several
// attributes per element. The whole interleaved region is decoded once
// into a shared scalar array keyed by (view, componentType, slice,
// count), accessors into the same region pick their lanes out of it.
func (pc *ParseContext) decodeInterleaved(acc *Accessor, viewIndex, stride int, raw []byte, data *accessorData) error {
	size := componentSize(acc.ComponentType)
	slice := acc.ByteOffset / stride
	lane := (acc.ByteOffset % stride) / size
	scalarsPerElem := stride / size

	sharedKey := fmt.Sprintf("interleaved:%d:%d:%d:%d", viewIndex, acc.ComponentType, slice, acc.Count)
	v, err := pc.cache.resolve(pc.ctx, sharedKey, func() (interface{}, error) {
		start := slice * stride
		end := start + acc.Count*stride
		if end > len(raw) {
			return nil, importer.Structuralf("accessor", "interleaved range [%d:%d] exceeds view size %d", start, end, len(raw))
		}
		shared := make([]float32, acc.Count*scalarsPerElem)
		decodeScalars(raw[start:end], acc.ComponentType, false, shared, nil)
		return shared, nil
	})
	if err != nil {
		return err
	}
	shared := v.([]float32)

	for k := 0; k < acc.Count; k++ {
		for c := 0; c < data.Components; c++ {
			raw := shared[k*scalarsPerElem+lane+c]
			if acc.Normalized {
				data.Floats[k*data.Components+c] = normalizeComponent(raw, acc.ComponentType)
			} else {
				data.Floats[k*data.Components+c] = raw
			}
			if data.UInts != nil {
				data.UInts[k*data.Components+c] = uint32(raw)
			}
		}
	}
	return nil
}

// applySparse overlays the (index, value) pairs onto the materialized
// base. Values decode with the accessor's own normalization exactly
// once, so overlay writes never double-scale.
func (pc *ParseContext) applySparse(i int, acc *Accessor, data *accessorData) error {
	sp := acc.Sparse

	indexRaw, err := pc.bufferView(sp.Indices.BufferView)
	if err != nil {
		return err
	}
	indexSize := componentSize(sp.Indices.ComponentType)
	if indexSize == 0 || !isUnsignedInt(sp.Indices.ComponentType) {
		return importer.Structuralf(key("accessor", i), "bad sparse index componentType %d", sp.Indices.ComponentType)
	}
	end := sp.Indices.ByteOffset + sp.Count*indexSize
	if end > len(indexRaw) {
		return importer.Structuralf(key("accessor", i), "sparse indices exceed view size %d", len(indexRaw))
	}
	indexFloats := make([]float32, sp.Count)
	indices := make([]uint32, sp.Count)
	decodeScalars(indexRaw[sp.Indices.ByteOffset:end], sp.Indices.ComponentType, false, indexFloats, indices)

	valueRaw, err := pc.bufferView(sp.Values.BufferView)
	if err != nil {
		return err
	}
	tight := componentSize(acc.ComponentType) * data.Components
	end = sp.Values.ByteOffset + sp.Count*tight
	if end > len(valueRaw) {
		return importer.Structuralf(key("accessor", i), "sparse values exceed view size %d", len(valueRaw))
	}
	valueFloats := make([]float32, sp.Count*data.Components)
	var valueUInts []uint32
	if data.UInts != nil {
		valueUInts = make([]uint32, sp.Count*data.Components)
	}
	decodeScalars(valueRaw[sp.Values.ByteOffset:end], acc.ComponentType, acc.Normalized, valueFloats, valueUInts)

	for k, target := range indices {
		if int(target) >= data.Count {
			return importer.Structuralf(key("accessor", i), "sparse index %d out of range %d", target, data.Count)
		}
		copy(data.Floats[int(target)*data.Components:], valueFloats[k*data.Components:(k+1)*data.Components])
		if data.UInts != nil {
			copy(data.UInts[int(target)*data.Components:], valueUInts[k*data.Components:(k+1)*data.Components])
		}
	}
	return nil
}

// decodeScalars decodes a tightly packed little-endian scalar run into
// floats (and uints for unsigned component types when the caller
// supplies the slice).
func decodeScalars(raw []byte, componentType int, normalized bool, floats []float32, uints []uint32) {
	size := componentSize(componentType)
	for k := range floats {
		off := k * size
		var f float32
		var u uint32
		switch componentType {
		case compByte:
			f = float32(int8(raw[off]))
		case compUnsignedByte:
			u = uint32(raw[off])
			f = float32(u)
		case compShort:
			f = float32(int16(binary.LittleEndian.Uint16(raw[off:])))
		case compUnsignedShort:
			u = uint32(binary.LittleEndian.Uint16(raw[off:]))
			f = float32(u)
		case compUnsignedInt:
			u = binary.LittleEndian.Uint32(raw[off:])
			f = float32(u)
		case compFloat:
			f = math.Float32frombits(binary.LittleEndian.Uint32(raw[off:]))
		}
		if normalized {
			f = normalizeComponent(f, componentType)
		}
		floats[k] = f
		if uints != nil {
			uints[k] = u
		}
	}
}

// normalizeComponent maps integer components into [0,1] (unsigned) or
// [-1,1] (signed) per the glTF normalization rules.
func normalizeComponent(v float32, componentType int) float32 {
	switch componentType {
	case compByte:
		if n := v / 127; n > -1 {
			return n
		}
		return -1
	case compUnsignedByte:
		return v / 255
	case compShort:
		if n := v / 32767; n > -1 {
			return n
		}
		return -1
	case compUnsignedShort:
		return v / 65535
	}
	return v
}

func isUnsignedInt(componentType int) bool {
	switch componentType {
	case compUnsignedByte, compUnsignedShort, compUnsignedInt:
		return true
	}
	return false
}
