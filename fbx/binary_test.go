package fbx

import (
	"bytes"
	"context"
	"encoding/binary"
	"io/ioutil"
	"os"
	"reflect"
	"testing"

	"github.com/mogaika/fbx"
	"github.com/mogaika/fbx/builders/bfbx73"
)

// writeFixture serializes a builder document through a tempfile, the
// writer needs a seekable target.
func writeFixture(t *testing.T, f *fbx.FBX) []byte {
	t.Helper()
	tempFile, err := ioutil.TempFile("", "fbxparse.*.fbx")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tempFile.Name())
	defer tempFile.Close()

	if err := fbx.Write(tempFile, f); err != nil {
		t.Fatal(err)
	}
	if _, err := tempFile.Seek(0, os.SEEK_SET); err != nil {
		t.Fatal(err)
	}
	data, err := ioutil.ReadAll(tempFile)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestParseBinaryRoundTrip(t *testing.T) {
	f := fbx.NewFBX(7400)
	(&f.Root).AddNodes(
		bfbx73.FBXHeaderExtension().AddNodes(
			bfbx73.FBXHeaderVersion(1003),
			bfbx73.FBXVersion(7400),
		),
		bfbx73.Objects().AddNodes(
			bfbx73.Geometry(140500, "tri\x00\x01Geometry", "Mesh").AddNodes(
				bfbx73.Vertices([]float64{0, 0, 0, 1, 0, 0, 0, 1, 0}),
				bfbx73.PolygonVertexIndex([]int32{0, 1, -3}),
			),
			bfbx73.Model(140700, "tri\x00\x01Model", "Mesh"),
		),
		bfbx73.Connections().AddNodes(
			bfbx73.C("OO", 140500, 140700),
		),
	)

	data := writeFixture(t, f)

	if !IsBinary(data) {
		t.Fatal("writer output not recognized as binary")
	}
	tree, version, err := ParseBinary(data)
	if err != nil {
		t.Fatal(err)
	}
	if version != 7400 {
		t.Errorf("version = %d, want 7400", version)
	}

	geo := tree.Get("Objects", "Geometry")
	if geo == nil {
		t.Fatal("Objects/Geometry not found")
	}
	if geo.ID() != 140500 || geo.AttrName() != "tri" || geo.AttrType() != "Mesh" {
		t.Errorf("geometry header = %d %q %q", geo.ID(), geo.AttrName(), geo.AttrType())
	}
	if got := geo.ChildFloats("Vertices"); !reflect.DeepEqual(got, []float64{0, 0, 0, 1, 0, 0, 0, 1, 0}) {
		t.Errorf("Vertices = %v", got)
	}
	if got := geo.ChildInts("PolygonVertexIndex"); !reflect.DeepEqual(got, []int32{0, 1, -3}) {
		t.Errorf("PolygonVertexIndex = %v", got)
	}

	graph := BuildConnections(tree)
	if !graph.HasEdge(140700, 140500) {
		t.Error("geometry->model connection lost")
	}
}

func TestParseBinaryRejectsGarbage(t *testing.T) {
	if _, _, err := ParseBinary([]byte("Kaydara FBX Bin")); err == nil {
		t.Error("short buffer should be rejected")
	}
	if _, _, err := ParseBinary(bytes.Repeat([]byte{0x42}, 64)); err == nil {
		t.Error("wrong magic should be rejected")
	}
}

// rawNode hand-encodes node records with the widened 64 bit headers of
// FBX >= 7.5, which the builder library does not emit.
type rawNode struct {
	name     string
	props    []interface{}
	children []*rawNode
}

func (n *rawNode) encode(start int) []byte {
	var props bytes.Buffer
	for _, p := range n.props {
		switch v := p.(type) {
		case int64:
			props.WriteByte('L')
			binary.Write(&props, binary.LittleEndian, v)
		case string:
			props.WriteByte('S')
			binary.Write(&props, binary.LittleEndian, uint32(len(v)))
			props.WriteString(v)
		case []int32:
			props.WriteByte('i')
			binary.Write(&props, binary.LittleEndian, uint32(len(v)))
			binary.Write(&props, binary.LittleEndian, uint32(0)) // no compression
			binary.Write(&props, binary.LittleEndian, uint32(len(v)*4))
			binary.Write(&props, binary.LittleEndian, v)
		case []float64:
			props.WriteByte('d')
			binary.Write(&props, binary.LittleEndian, uint32(len(v)))
			binary.Write(&props, binary.LittleEndian, uint32(0))
			binary.Write(&props, binary.LittleEndian, uint32(len(v)*8))
			binary.Write(&props, binary.LittleEndian, v)
		default:
			panic("unsupported fixture property type")
		}
	}

	headerLen := 8*3 + 1 + len(n.name)
	var childData bytes.Buffer
	childStart := start + headerLen + props.Len()
	for _, c := range n.children {
		enc := c.encode(childStart + childData.Len())
		childData.Write(enc)
	}

	var out bytes.Buffer
	end := start + headerLen + props.Len() + childData.Len()
	binary.Write(&out, binary.LittleEndian, uint64(end))
	binary.Write(&out, binary.LittleEndian, uint64(len(n.props)))
	binary.Write(&out, binary.LittleEndian, uint64(props.Len()))
	out.WriteByte(uint8(len(n.name)))
	out.WriteString(n.name)
	out.Write(props.Bytes())
	out.Write(childData.Bytes())
	return out.Bytes()
}

func encodeBigHeaderFBX(version uint32, nodes ...*rawNode) []byte {
	var out bytes.Buffer
	out.WriteString(binaryMagic)
	out.Write([]byte{0x1a, 0x00})
	binary.Write(&out, binary.LittleEndian, version)
	for _, n := range nodes {
		out.Write(n.encode(out.Len()))
	}
	// top level NULL record
	out.Write(make([]byte, 25))
	return out.Bytes()
}

func TestLoadBigHeaderTriangle(t *testing.T) {
	data := encodeBigHeaderFBX(7700,
		&rawNode{name: "Objects", children: []*rawNode{
			{name: "Geometry", props: []interface{}{int64(1000), "tri\x00\x01Geometry", "Mesh"}, children: []*rawNode{
				{name: "Vertices", props: []interface{}{[]float64{0, 0, 0, 1, 0, 0, 0, 1, 0}}},
				{name: "PolygonVertexIndex", props: []interface{}{[]int32{0, 1, -3}}},
			}},
			{name: "Model", props: []interface{}{int64(2000), "tri\x00\x01Model", "Mesh"}},
		}},
		&rawNode{name: "Connections", children: []*rawNode{
			{name: "C", props: []interface{}{"OO", int64(1000), int64(2000)}},
		}},
	)

	s, err := NewImporter().Load(context.Background(), data)
	if err != nil {
		t.Fatal(err)
	}

	if len(s.Geometries) != 1 {
		t.Fatalf("got %d geometries, want 1", len(s.Geometries))
	}
	geo := s.Geometries[0]
	if len(geo.Positions) != 3 {
		t.Errorf("got %d positions, want 3", len(geo.Positions))
	}
	if geo.Positions[2] != [3]float32{0, 1, 0} {
		t.Errorf("position 2 = %v", geo.Positions[2])
	}

	if len(s.Nodes) != 1 {
		t.Fatalf("got %d nodes, want 1", len(s.Nodes))
	}
	node := s.Nodes[0]
	if node.Name != "tri" || node.Mesh != 0 {
		t.Errorf("node = %q mesh %d", node.Name, node.Mesh)
	}
	if node.Skin != -1 {
		t.Errorf("unskinned model got skin %d", node.Skin)
	}
	if len(s.Roots) != 1 || s.Roots[0] != 0 {
		t.Errorf("roots = %v", s.Roots)
	}
}
