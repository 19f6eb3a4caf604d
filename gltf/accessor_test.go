package gltf

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"testing"
)

func testContext(doc *Document, bin []byte) *ParseContext {
	return &ParseContext{
		ctx:   context.Background(),
		imp:   NewImporter(),
		doc:   doc,
		bin:   bin,
		cache: newResolveCache(),
	}
}

func intp(v int) *int { return &v }

func floatBytes(vals ...float32) []byte {
	var buf bytes.Buffer
	for _, v := range vals {
		binary.Write(&buf, binary.LittleEndian, math.Float32bits(v))
	}
	return buf.Bytes()
}

func TestAccessorDense(t *testing.T) {
	bin := floatBytes(
		0, 0, 0,
		1, 0, 0,
		1, 1, 0,
		0, 1, 0,
	)
	doc := &Document{
		Buffers:     []Buffer{{ByteLength: len(bin)}},
		BufferViews: []BufferView{{Buffer: 0, ByteLength: len(bin)}},
		Accessors: []Accessor{
			{BufferView: intp(0), ComponentType: compFloat, Count: 4, Type: "VEC3"},
		},
	}
	pc := testContext(doc, bin)

	data, err := pc.accessor(0)
	if err != nil {
		t.Fatal(err)
	}
	if data.Count != 4 || data.Components != 3 {
		t.Fatalf("count/components = %d/%d", data.Count, data.Components)
	}
	if data.Floats[3] != 1 || data.Floats[10] != 1 || data.Floats[11] != 0 {
		t.Errorf("floats = %v", data.Floats)
	}
	if data.UInts != nil {
		t.Error("float accessor should not materialize UInts")
	}
}

func TestAccessorSparseOverlay(t *testing.T) {
	dense := floatBytes(
		0, 0, 0,
		1, 0, 0,
		1, 1, 0,
		0, 1, 0,
	)
	// one override: element 2 becomes (9,9,9)
	indices := []byte{2, 0}
	values := floatBytes(9, 9, 9)

	bin := append(append(append([]byte{}, dense...), indices...), values...)
	doc := &Document{
		Buffers: []Buffer{{ByteLength: len(bin)}},
		BufferViews: []BufferView{
			{Buffer: 0, ByteLength: len(dense)},
			{Buffer: 0, ByteOffset: len(dense), ByteLength: len(indices)},
			{Buffer: 0, ByteOffset: len(dense) + len(indices), ByteLength: len(values)},
		},
		Accessors: []Accessor{
			{BufferView: intp(0), ComponentType: compFloat, Count: 4, Type: "VEC3",
				Sparse: &Sparse{
					Count:   1,
					Indices: SparseIndices{BufferView: 1, ComponentType: compUnsignedShort},
					Values:  SparseValues{BufferView: 2},
				}},
		},
	}
	pc := testContext(doc, bin)

	data, err := pc.accessor(0)
	if err != nil {
		t.Fatal(err)
	}
	want := []float32{0, 0, 0, 1, 0, 0, 9, 9, 9, 0, 1, 0}
	for k, v := range want {
		if data.Floats[k] != v {
			t.Fatalf("floats = %v, want %v", data.Floats, want)
		}
	}
}

func TestAccessorSparseWithoutBufferView(t *testing.T) {
	// a sparse accessor may omit the dense view, base is all zeroes
	indices := []byte{1, 0}
	values := floatBytes(5)
	bin := append(append([]byte{}, indices...), values...)

	doc := &Document{
		Buffers: []Buffer{{ByteLength: len(bin)}},
		BufferViews: []BufferView{
			{Buffer: 0, ByteLength: len(indices)},
			{Buffer: 0, ByteOffset: len(indices), ByteLength: len(values)},
		},
		Accessors: []Accessor{
			{ComponentType: compFloat, Count: 3, Type: "SCALAR",
				Sparse: &Sparse{
					Count:   1,
					Indices: SparseIndices{BufferView: 0, ComponentType: compUnsignedShort},
					Values:  SparseValues{BufferView: 1},
				}},
		},
	}
	pc := testContext(doc, bin)

	data, err := pc.accessor(0)
	if err != nil {
		t.Fatal(err)
	}
	if data.Floats[0] != 0 || data.Floats[1] != 5 || data.Floats[2] != 0 {
		t.Errorf("floats = %v", data.Floats)
	}
}

func TestAccessorNormalized(t *testing.T) {
	bin := []byte{0, 255, 51}
	doc := &Document{
		Buffers:     []Buffer{{ByteLength: len(bin)}},
		BufferViews: []BufferView{{Buffer: 0, ByteLength: len(bin)}},
		Accessors: []Accessor{
			{BufferView: intp(0), ComponentType: compUnsignedByte, Normalized: true, Count: 3, Type: "SCALAR"},
		},
	}
	pc := testContext(doc, bin)

	data, err := pc.accessor(0)
	if err != nil {
		t.Fatal(err)
	}
	if data.Floats[0] != 0 || data.Floats[1] != 1 {
		t.Errorf("floats = %v", data.Floats)
	}
	if got, want := data.Floats[2], float32(51)/255; got != want {
		t.Errorf("floats[2] = %v, want %v", got, want)
	}
	// the unsigned view keeps raw values
	if data.UInts[1] != 255 || data.UInts[2] != 51 {
		t.Errorf("uints = %v", data.UInts)
	}
}

func TestAccessorInterleaved(t *testing.T) {
	// two VEC3 attributes packed per element, stride 24
	bin := floatBytes(
		1, 2, 3 /**/, 10, 20, 30,
		4, 5, 6 /**/, 40, 50, 60,
	)
	stride := 24
	doc := &Document{
		Buffers:     []Buffer{{ByteLength: len(bin)}},
		BufferViews: []BufferView{{Buffer: 0, ByteLength: len(bin), ByteStride: &stride}},
		Accessors: []Accessor{
			{BufferView: intp(0), ComponentType: compFloat, Count: 2, Type: "VEC3"},
			{BufferView: intp(0), ByteOffset: 12, ComponentType: compFloat, Count: 2, Type: "VEC3"},
		},
	}
	pc := testContext(doc, bin)

	first, err := pc.accessor(0)
	if err != nil {
		t.Fatal(err)
	}
	second, err := pc.accessor(1)
	if err != nil {
		t.Fatal(err)
	}

	wantFirst := []float32{1, 2, 3, 4, 5, 6}
	wantSecond := []float32{10, 20, 30, 40, 50, 60}
	for k := range wantFirst {
		if first.Floats[k] != wantFirst[k] {
			t.Fatalf("first lane = %v, want %v", first.Floats, wantFirst)
		}
		if second.Floats[k] != wantSecond[k] {
			t.Fatalf("second lane = %v, want %v", second.Floats, wantSecond)
		}
	}
}

func TestAccessorRangeChecks(t *testing.T) {
	bin := floatBytes(1, 2, 3)
	doc := &Document{
		Buffers:     []Buffer{{ByteLength: len(bin)}},
		BufferViews: []BufferView{{Buffer: 0, ByteLength: len(bin)}},
		Accessors: []Accessor{
			{BufferView: intp(0), ComponentType: compFloat, Count: 2, Type: "VEC3"},
		},
	}
	pc := testContext(doc, bin)
	if _, err := pc.accessor(0); err == nil {
		t.Error("accessor past view end should fail")
	}
	if _, err := pc.accessor(5); err == nil {
		t.Error("out of range accessor index should fail")
	}
}
