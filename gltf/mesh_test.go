package gltf

import (
	"testing"
)

func TestMeshAttributePadding(t *testing.T) {
	positions := floatBytes(
		0, 0, 0, 1, 0, 0, 0, 1, 0,
		0, 0, 1, 1, 0, 1, 0, 1, 1,
	)
	normals := floatBytes(0, 0, 1, 0, 0, 1, 0, 0, 1)
	bin := append(append([]byte{}, positions...), normals...)

	doc := &Document{
		Buffers: []Buffer{{ByteLength: len(bin)}},
		BufferViews: []BufferView{
			{Buffer: 0, ByteLength: len(positions)},
			{Buffer: 0, ByteOffset: len(positions), ByteLength: len(normals)},
		},
		Accessors: []Accessor{
			{BufferView: intp(0), ComponentType: compFloat, Count: 3, Type: "VEC3"},
			{BufferView: intp(1), ComponentType: compFloat, Count: 3, Type: "VEC3"},
			{BufferView: intp(0), ByteOffset: 36, ComponentType: compFloat, Count: 3, Type: "VEC3"},
		},
		Meshes: []Mesh{{
			Primitives: []Primitive{
				// first primitive carries normals, second does not
				{Attributes: map[string]int{"POSITION": 0, "NORMAL": 1}},
				{Attributes: map[string]int{"POSITION": 2}},
			},
		}},
	}
	pc := testContext(doc, bin)

	geo, err := pc.mesh(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(geo.Positions) != 6 {
		t.Fatalf("got %d positions, want 6", len(geo.Positions))
	}
	if len(geo.Normals) != len(geo.Positions) {
		t.Fatalf("Normals has %d entries for %d positions", len(geo.Normals), len(geo.Positions))
	}
	if geo.Normals[2] != [3]float32{0, 0, 1} {
		t.Errorf("normal 2 = %v", geo.Normals[2])
	}
	// padded tail stays zero
	if geo.Normals[5] != [3]float32{} {
		t.Errorf("normal 5 = %v, want zero padding", geo.Normals[5])
	}

	if len(geo.Groups) != 2 {
		t.Fatalf("got %d groups", len(geo.Groups))
	}
	if geo.Groups[1].Start != 3 || geo.Groups[1].Count != 3 {
		t.Errorf("group 1 = %+v", geo.Groups[1])
	}
}

func TestMeshAttributePaddingLeading(t *testing.T) {
	// mirrored case: the attribute only appears on the second primitive,
	// the front half must be zero filled
	positions := floatBytes(
		0, 0, 0, 1, 0, 0, 0, 1, 0,
	)
	uvs := floatBytes(0, 0, 1, 0, 1, 1)
	bin := append(append([]byte{}, positions...), uvs...)

	doc := &Document{
		Buffers: []Buffer{{ByteLength: len(bin)}},
		BufferViews: []BufferView{
			{Buffer: 0, ByteLength: len(positions)},
			{Buffer: 0, ByteOffset: len(positions), ByteLength: len(uvs)},
		},
		Accessors: []Accessor{
			{BufferView: intp(0), ComponentType: compFloat, Count: 3, Type: "VEC3"},
			{BufferView: intp(1), ComponentType: compFloat, Count: 3, Type: "VEC2"},
		},
		Meshes: []Mesh{{
			Primitives: []Primitive{
				{Attributes: map[string]int{"POSITION": 0}},
				{Attributes: map[string]int{"POSITION": 0, "TEXCOORD_0": 1}},
			},
		}},
	}
	pc := testContext(doc, bin)

	geo, err := pc.mesh(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(geo.UVs) != 1 || len(geo.UVs[0]) != len(geo.Positions) {
		t.Fatalf("UVs[0] has %d entries for %d positions", len(geo.UVs[0]), len(geo.Positions))
	}
	if geo.UVs[0][0] != [2]float32{} {
		t.Errorf("uv 0 = %v, want zero padding", geo.UVs[0][0])
	}
	if geo.UVs[0][5] != [2]float32{1, 1} {
		t.Errorf("uv 5 = %v", geo.UVs[0][5])
	}
}
