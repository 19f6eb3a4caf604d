package scene

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// ExportGLTF writes the scene back out as a glTF 2.0 document. Shading
// models that glTF cannot express (phong, lambert) are approximated
// with metallic-roughness PBR. Cameras, lights and animation clips are
// not exported.
func ExportGLTF(s *Scene) (*gltf.Document, error) {
	doc := gltf.NewDocument()

	textureIndex := make([]int32, len(s.Textures))
	for i, tex := range s.Textures {
		index, err := exportTexture(doc, tex)
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to export texture %q", tex.Name)
		}
		textureIndex[i] = index
	}

	for _, mat := range s.Materials {
		doc.Materials = append(doc.Materials, exportMaterial(mat, textureIndex))
	}

	meshIndex := make([]uint32, len(s.Geometries))
	for i, geo := range s.Geometries {
		meshIndex[i] = exportGeometry(doc, geo)
	}

	for _, node := range s.Nodes {
		gltfNode := &gltf.Node{
			Name:        node.Name,
			Translation: node.Translation,
			Rotation:    [4]float32{node.Rotation.V[0], node.Rotation.V[1], node.Rotation.V[2], node.Rotation.W},
			Scale:       node.Scale,
		}
		for _, child := range node.Children {
			gltfNode.Children = append(gltfNode.Children, uint32(child))
		}
		if node.Mesh >= 0 {
			gltfNode.Mesh = gltf.Index(meshIndex[node.Mesh])
		}
		if node.Skin >= 0 {
			gltfNode.Skin = gltf.Index(uint32(node.Skin))
		}
		doc.Nodes = append(doc.Nodes, gltfNode)
	}

	for _, root := range s.Roots {
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(root))
	}

	for _, skin := range s.Skins {
		doc.Skins = append(doc.Skins, exportSkin(doc, skin))
	}

	return doc, nil
}

func exportTexture(doc *gltf.Document, tex *Texture) (int32, error) {
	raw := tex.Raw
	mime := tex.MimeType
	if raw == nil {
		if tex.Image == nil {
			return -1, nil
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, tex.Image); err != nil {
			return -1, errors.Wrapf(err, "Failed to encode image")
		}
		raw = buf.Bytes()
		mime = "image/png"
	}
	if mime == "" {
		mime = "image/png"
	}

	imageIndex, err := modeler.WriteImage(doc, tex.Name, mime, bytes.NewReader(raw))
	if err != nil {
		return -1, errors.Wrapf(err, "Failed to write gltf image")
	}

	sampler := &gltf.Sampler{
		WrapS: exportWrap(tex.WrapS),
		WrapT: exportWrap(tex.WrapT),
	}
	samplerIndex := uint32(len(doc.Samplers))
	doc.Samplers = append(doc.Samplers, sampler)

	doc.Textures = append(doc.Textures, &gltf.Texture{
		Name:    tex.Name,
		Sampler: gltf.Index(samplerIndex),
		Source:  gltf.Index(imageIndex),
	})
	return int32(len(doc.Textures) - 1), nil
}

func exportWrap(mode WrapMode) gltf.WrappingMode {
	switch mode {
	case WrapClampToEdge:
		return gltf.WrapClampToEdge
	case WrapMirroredRepeat:
		return gltf.WrapMirroredRepeat
	}
	return gltf.WrapRepeat
}

func exportMaterial(mat *Material, textureIndex []int32) *gltf.Material {
	out := &gltf.Material{
		Name:        mat.Name,
		DoubleSided: mat.DoubleSided,
	}
	switch mat.AlphaMode {
	case AlphaMask:
		out.AlphaMode = gltf.AlphaMask
		out.AlphaCutoff = gltf.Float(mat.AlphaCutoff)
	case AlphaBlend:
		out.AlphaMode = gltf.AlphaBlend
	}

	pbr := &gltf.PBRMetallicRoughness{}
	base, ok := mat.Colors["baseColor"]
	if !ok {
		// phong/lambert approximation
		base, ok = mat.Colors["diffuse"]
	}
	if ok {
		color := new([4]float32)
		*color = base
		pbr.BaseColorFactor = color
	}
	if v, ok := mat.Scalars["metallic"]; ok {
		pbr.MetallicFactor = gltf.Float(v)
	} else {
		pbr.MetallicFactor = gltf.Float(0)
	}
	if v, ok := mat.Scalars["roughness"]; ok {
		pbr.RoughnessFactor = gltf.Float(v)
	} else if shininess, ok := mat.Scalars["shininess"]; ok {
		r := 1 - shininess/100
		if r < 0 {
			r = 0
		}
		pbr.RoughnessFactor = gltf.Float(r)
	}

	slotFor := func(channels ...string) *gltf.TextureInfo {
		for _, channel := range channels {
			slot, ok := mat.Textures[channel]
			if !ok || slot.Texture < 0 || int(slot.Texture) >= len(textureIndex) {
				continue
			}
			if exported := textureIndex[slot.Texture]; exported >= 0 {
				return &gltf.TextureInfo{Index: uint32(exported), TexCoord: uint32(slot.UVChannel)}
			}
		}
		return nil
	}
	pbr.BaseColorTexture = slotFor("baseColor", "diffuse")
	pbr.MetallicRoughnessTexture = slotFor("metallicRoughness")
	out.PBRMetallicRoughness = pbr

	if emissive, ok := mat.Colors["emissive"]; ok {
		out.EmissiveFactor = [3]float32{emissive[0], emissive[1], emissive[2]}
	}
	out.EmissiveTexture = slotFor("emissive")
	return out
}

func exportGeometry(doc *gltf.Document, geo *Geometry) uint32 {
	attributes := make(map[string]uint32)
	attributes["POSITION"] = modeler.WritePosition(doc, geo.Positions)
	if geo.Normals != nil {
		attributes["NORMAL"] = modeler.WriteNormal(doc, geo.Normals)
	}
	if geo.Colors != nil {
		attributes["COLOR_0"] = modeler.WriteColor(doc, geo.Colors)
	}
	for channel, uvs := range geo.UVs {
		if uvs != nil {
			attributes[fmt.Sprintf("TEXCOORD_%d", channel)] = modeler.WriteTextureCoord(doc, uvs)
		}
	}
	if geo.Joints != nil && geo.Weights != nil {
		attributes["JOINTS_0"] = modeler.WriteJoints(doc, geo.Joints)
		attributes["WEIGHTS_0"] = modeler.WriteWeights(doc, geo.Weights)
	}

	gltfMesh := &gltf.Mesh{Name: geo.Name}
	groups := geo.Groups
	if groups == nil {
		groups = []MaterialGroup{{Start: 0, Count: uint32(len(geo.Indices)), Material: -1}}
	}
	for _, group := range groups {
		primitive := &gltf.Primitive{Attributes: attributes}
		if geo.Indices != nil {
			primitive.Indices = gltf.Index(modeler.WriteIndices(doc, geo.Indices[group.Start:group.Start+group.Count]))
		}
		if group.Material >= 0 {
			primitive.Material = gltf.Index(uint32(group.Material))
		}
		gltfMesh.Primitives = append(gltfMesh.Primitives, primitive)
	}

	doc.Meshes = append(doc.Meshes, gltfMesh)
	return uint32(len(doc.Meshes) - 1)
}

func exportSkin(doc *gltf.Document, skin *Skin) *gltf.Skin {
	out := &gltf.Skin{Name: skin.Name}
	for _, joint := range skin.Joints {
		if joint != NoNode {
			out.Joints = append(out.Joints, uint32(joint))
		}
	}
	if skin.Skeleton != NoNode {
		out.Skeleton = gltf.Index(uint32(skin.Skeleton))
	}
	if len(skin.InverseBindMatrices) > 0 {
		matrices := make([][4][4]float32, len(skin.InverseBindMatrices))
		for i, m := range skin.InverseBindMatrices {
			for col := 0; col < 4; col++ {
				for row := 0; row < 4; row++ {
					matrices[i][col][row] = m[col*4+row]
				}
			}
		}
		out.InverseBindMatrices = gltf.Index(modeler.WriteAccessor(doc, gltf.TargetNone, matrices))
	}
	return out
}
