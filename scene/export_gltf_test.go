package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestExportGLTF(t *testing.T) {
	s := NewScene()

	mat := NewMaterial("skin")
	mat.Colors["baseColor"] = [4]float32{1, 0.5, 0.25, 1}
	mat.Colors["emissive"] = [4]float32{0.1, 0.2, 0.3, 1}
	mat.Scalars["shininess"] = 20
	mat.AlphaMode = AlphaMask
	mat.AlphaCutoff = 0.25
	s.Materials = append(s.Materials, mat)

	geo := &Geometry{
		Name: "quad",
		Positions: [][3]float32{
			{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
		},
		Indices: []uint32{0, 1, 2, 0, 2, 3},
		Groups: []MaterialGroup{
			{Start: 0, Count: 3, Material: 0},
			{Start: 3, Count: 3, Material: 0},
		},
	}
	s.Geometries = append(s.Geometries, geo)

	node := NewNode("quad")
	node.Translation = mgl32.Vec3{1, 2, 3}
	node.Scale = mgl32.Vec3{2, 2, 2}
	node.Mesh = 0
	s.Roots = append(s.Roots, s.AddNode(node))

	doc, err := ExportGLTF(s)
	if err != nil {
		t.Fatal(err)
	}

	if len(doc.Nodes) != 1 {
		t.Fatalf("got %d nodes", len(doc.Nodes))
	}
	out := doc.Nodes[0]
	if out.Translation != [3]float32{1, 2, 3} {
		t.Errorf("translation = %v", out.Translation)
	}
	if out.Rotation != [4]float32{0, 0, 0, 1} {
		t.Errorf("rotation = %v", out.Rotation)
	}
	if out.Scale != [3]float32{2, 2, 2} {
		t.Errorf("scale = %v", out.Scale)
	}
	if out.Mesh == nil || *out.Mesh != 0 {
		t.Errorf("mesh = %v", out.Mesh)
	}
	if len(doc.Scenes[0].Nodes) != 1 || doc.Scenes[0].Nodes[0] != 0 {
		t.Errorf("scene roots = %v", doc.Scenes[0].Nodes)
	}

	if len(doc.Materials) != 1 {
		t.Fatalf("got %d materials", len(doc.Materials))
	}
	outMat := doc.Materials[0]
	pbr := outMat.PBRMetallicRoughness
	if pbr.BaseColorFactor == nil || *pbr.BaseColorFactor != [4]float32{1, 0.5, 0.25, 1} {
		t.Errorf("baseColorFactor = %v", pbr.BaseColorFactor)
	}
	if pbr.MetallicFactor == nil || *pbr.MetallicFactor != 0 {
		t.Errorf("metallicFactor = %v", pbr.MetallicFactor)
	}
	// shininess 20 approximates to roughness 0.8
	if pbr.RoughnessFactor == nil || *pbr.RoughnessFactor != 0.8 {
		t.Errorf("roughnessFactor = %v", pbr.RoughnessFactor)
	}
	if outMat.AlphaCutoff == nil || *outMat.AlphaCutoff != 0.25 {
		t.Errorf("alphaCutoff = %v", outMat.AlphaCutoff)
	}
	if outMat.EmissiveFactor != [3]float32{0.1, 0.2, 0.3} {
		t.Errorf("emissiveFactor = %v", outMat.EmissiveFactor)
	}

	if len(doc.Meshes) != 1 || len(doc.Meshes[0].Primitives) != 2 {
		t.Fatalf("meshes = %d, primitives = %d", len(doc.Meshes), len(doc.Meshes[0].Primitives))
	}
	prim := doc.Meshes[0].Primitives[1]
	if prim.Material == nil || *prim.Material != 0 {
		t.Errorf("primitive material = %v", prim.Material)
	}
	if prim.Indices == nil {
		t.Error("primitive has no index accessor")
	}
}
