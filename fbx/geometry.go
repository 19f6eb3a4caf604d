package fbx

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/mogaika/sceneimport/importer"
	"github.com/mogaika/sceneimport/scene"
	"github.com/mogaika/sceneimport/utils"
)

// layerElement is one FBX attribute layer (normals, colors, one UV
// channel, material assignment). The mapping/reference mode pair
// decides how a polygon vertex finds its value.
type layerElement struct {
	mappingType   string
	referenceType string
	data          []float64
	indices       []int32
	dataSize      int
}

func parseLayerElement(node *Node, dataName string, dataSize int) *layerElement {
	if node == nil {
		return nil
	}
	le := &layerElement{
		mappingType:   node.ChildString("MappingInformationType", "AllSame"),
		referenceType: node.ChildString("ReferenceInformationType", "Direct"),
		data:          node.ChildFloats(dataName),
		indices:       node.ChildInts(dataName + "Index"),
		dataSize:      dataSize,
	}
	if le.indices == nil && dataName == "UV" {
		le.indices = node.ChildInts("UVIndex")
	}
	if le.data == nil {
		return nil
	}
	return le
}

// get is the single dual-mode lookup every attribute type goes
// through: pick the index per mapping type, optionally indirect it
// through the layer's own index buffer, then slice the raw buffer.
func (le *layerElement) get(polygonVertexIndex, polygonIndex, controlPointIndex int) []float64 {
	var index int
	switch le.mappingType {
	case "ByPolygonVertex":
		index = polygonVertexIndex
	case "ByPolygon":
		index = polygonIndex
	case "ByVertice", "ByVertex", "ByControlPoint":
		index = controlPointIndex
	case "AllSame":
		index = 0
	default:
		index = polygonVertexIndex
	}

	if le.referenceType == "IndexToDirect" && len(le.indices) > 0 {
		if index >= len(le.indices) {
			return nil
		}
		index = int(le.indices[index])
	}

	start := index * le.dataSize
	if start < 0 || start+le.dataSize > len(le.data) {
		return nil
	}
	return le.data[start : start+le.dataSize]
}

type boneWeight struct {
	bone   uint16
	weight float64
}

func (pc *ParseContext) parseGeometries() error {
	objects := pc.tree.Get("Objects")
	if objects == nil {
		return nil
	}
	for _, geoNode := range objects.GetAll("Geometry") {
		switch geoNode.AttrType() {
		case "Mesh", "":
		default:
			// morph "Shape" records are pulled in by their blend
			// shape channel, other geometry kinds are unsupported
			continue
		}
		if geoNode.Get("Vertices") == nil {
			continue
		}

		geo, err := pc.parseMeshGeometry(geoNode)
		if err != nil {
			return errors.Wrapf(err, "Failed to parse geometry %d (%q)", geoNode.ID(), geoNode.AttrName())
		}
		pc.out.Geometries = append(pc.out.Geometries, geo)
		pc.geometryByID[geoNode.ID()] = int32(len(pc.out.Geometries) - 1)
	}
	return nil
}

func (pc *ParseContext) parseMeshGeometry(geoNode *Node) (*scene.Geometry, error) {
	id := geoNode.ID()

	controlPoints := geoNode.ChildFloats("Vertices")
	if len(controlPoints) == 0 {
		return nil, importer.Structuralf("fbx", "geometry %d has no vertices", id)
	}
	polygonIndices := geoNode.ChildInts("PolygonVertexIndex")
	if len(polygonIndices) == 0 {
		return nil, importer.Structuralf("fbx", "geometry %d has no polygon index", id)
	}
	numControlPoints := len(controlPoints) / 3

	normalLayer := parseLayerElement(geoNode.Get("LayerElementNormal"), "Normals", 3)
	colorLayer := parseLayerElement(geoNode.Get("LayerElementColor"), "Colors", 4)
	materialLayer := parseLayerElement(geoNode.Get("LayerElementMaterial"), "Materials", 1)
	var uvLayers []*layerElement
	for _, uvNode := range geoNode.GetAll("LayerElementUV") {
		if le := parseLayerElement(uvNode, "UV", 2); le != nil {
			uvLayers = append(uvLayers, le)
		}
	}

	// geometric transform of the owning model is baked into the
	// buffers, it does not propagate to children
	geomMatrix, hasGeomMatrix := pc.geometricTransform(id)
	var geomNormalMatrix mgl64.Mat4
	if hasGeomMatrix {
		geomNormalMatrix = geomMatrix.Inv().Transpose()
	}

	weightTable := pc.buildWeightTable(id, numControlPoints)

	var morphDense [][]float64
	var morphNames []string
	if morph := pc.geometryMorphs[id]; morph != nil {
		for i := range morph.channels {
			ch := &morph.channels[i]
			morphDense = append(morphDense, ch.densify(controlPoints))
			morphNames = append(morphNames, ch.name)
		}
	}

	geo := &scene.Geometry{Name: pc.objectName(geoNode)}
	for range morphNames {
		geo.MorphTargets = append(geo.MorphTargets, scene.MorphTarget{})
	}
	for i, name := range morphNames {
		geo.MorphTargets[i].Name = name
	}
	for range uvLayers {
		geo.UVs = append(geo.UVs, nil)
	}

	var triMaterials []int32

	emitVertex := func(pv, polygon, cp int) {
		px := mgl64.Vec3{controlPoints[cp*3], controlPoints[cp*3+1], controlPoints[cp*3+2]}
		if hasGeomMatrix {
			px = mgl64.TransformCoordinate(px, geomMatrix)
		}
		geo.Positions = append(geo.Positions, [3]float32{float32(px[0]), float32(px[1]), float32(px[2])})

		if normalLayer != nil {
			if n := normalLayer.get(pv, polygon, cp); n != nil {
				nv := mgl64.Vec3{n[0], n[1], n[2]}
				if hasGeomMatrix {
					nv = mgl64.TransformNormal(nv, geomNormalMatrix)
					if nv.Len() > 0 {
						nv = nv.Normalize()
					}
				}
				geo.Normals = append(geo.Normals, [3]float32{float32(nv[0]), float32(nv[1]), float32(nv[2])})
			} else {
				geo.Normals = append(geo.Normals, [3]float32{})
			}
		}
		if colorLayer != nil {
			var c [4]float32
			if v := colorLayer.get(pv, polygon, cp); v != nil {
				c = [4]float32{float32(v[0]), float32(v[1]), float32(v[2]), float32(v[3])}
			}
			geo.Colors = append(geo.Colors, c)
		}
		for iLayer, le := range uvLayers {
			var uv [2]float32
			if v := le.get(pv, polygon, cp); v != nil {
				uv = [2]float32{float32(v[0]), float32(v[1])}
			}
			geo.UVs[iLayer] = append(geo.UVs[iLayer], uv)
		}
		if weightTable != nil {
			joints, weights := pc.capWeights(weightTable[cp])
			geo.Joints = append(geo.Joints, joints)
			geo.Weights = append(geo.Weights, weights)
		}
		for iMorph, dense := range morphDense {
			geo.MorphTargets[iMorph].Positions = append(geo.MorphTargets[iMorph].Positions,
				[3]float32{float32(dense[cp*3]), float32(dense[cp*3+1]), float32(dense[cp*3+2])})
		}
	}

	faceCPs := make([]int, 0, 8)
	facePVs := make([]int, 0, 8)
	polygon := 0

	emitFace := func() error {
		if len(faceCPs) < 3 {
			return importer.Structuralf("fbx", "geometry %d polygon %d has %d vertices", id, polygon, len(faceCPs))
		}

		var tris [][3]int
		if len(faceCPs) == 3 {
			tris = [][3]int{{0, 1, 2}}
		} else {
			pts := make([]mgl64.Vec3, len(faceCPs))
			for i, cp := range faceCPs {
				pts[i] = mgl64.Vec3{controlPoints[cp*3], controlPoints[cp*3+1], controlPoints[cp*3+2]}
			}
			tris = TriangulateFace(pts)
		}

		materialIndex := int32(0)
		if materialLayer != nil {
			if v := materialLayer.get(facePVs[0], polygon, faceCPs[0]); v != nil {
				materialIndex = int32(v[0])
			}
		}

		for _, tri := range tris {
			for _, corner := range tri {
				emitVertex(facePVs[corner], polygon, faceCPs[corner])
			}
			triMaterials = append(triMaterials, materialIndex)
		}
		return nil
	}

	for pv, raw := range polygonIndices {
		cp := int(raw)
		last := false
		if raw < 0 {
			cp = int(^raw) // bit complement marks the face end
			last = true
		}
		if cp >= numControlPoints {
			return nil, importer.Structuralf("fbx", "geometry %d references control point %d of %d", id, cp, numControlPoints)
		}
		faceCPs = append(faceCPs, cp)
		facePVs = append(facePVs, pv)
		if last {
			if err := emitFace(); err != nil {
				return nil, err
			}
			polygon++
			faceCPs = faceCPs[:0]
			facePVs = facePVs[:0]
		}
	}

	if materialLayer != nil {
		geo.Groups = buildMaterialGroups(triMaterials)
	}
	return geo, nil
}

// buildWeightTable accumulates every cluster contribution per control
// point. Bone slots are local to the geometry's skin, in cluster
// order.
func (pc *ParseContext) buildWeightTable(geoID int64, numControlPoints int) [][]boneWeight {
	skin := pc.geometrySkins[geoID]
	if skin == nil {
		return nil
	}
	table := make([][]boneWeight, numControlPoints)
	for iBone := range skin.bones {
		bone := &skin.bones[iBone]
		for i, cp := range bone.indices {
			if int(cp) >= numControlPoints || i >= len(bone.weights) {
				continue
			}
			table[cp] = append(table[cp], boneWeight{bone: uint16(iBone), weight: bone.weights[i]})
		}
	}
	return table
}

// capWeights keeps the 4 largest weights by repeated max extraction
// (strict compare, so equal weights keep first-seen order) and
// zero-pads to exactly 4 slots.
func (pc *ParseContext) capWeights(list []boneWeight) ([4]uint16, [4]float32) {
	var joints [4]uint16
	var weights [4]float32

	if len(list) > 4 {
		pc.warnf("vertex influenced by %d bones, truncated to 4", len(list))
	}

	taken := make([]bool, len(list))
	for slot := 0; slot < 4 && slot < len(list); slot++ {
		best := -1
		for i := range list {
			if taken[i] {
				continue
			}
			if best < 0 || list[i].weight > list[best].weight {
				best = i
			}
		}
		taken[best] = true
		joints[slot] = list[best].bone
		weights[slot] = float32(list[best].weight)
	}
	return joints, weights
}

func buildMaterialGroups(triMaterials []int32) []scene.MaterialGroup {
	var groups []scene.MaterialGroup
	for tri, mat := range triMaterials {
		if len(groups) > 0 && groups[len(groups)-1].Material == mat {
			groups[len(groups)-1].Count += 3
			continue
		}
		groups = append(groups, scene.MaterialGroup{
			Start:    uint32(tri * 3),
			Count:    3,
			Material: mat,
		})
	}
	if len(groups) == 1 && groups[0].Material == 0 {
		return nil
	}
	return groups
}

// geometricTransform composes the owning model's
// GeometricTranslation/Rotation/Scaling, a transform FBX applies to
// the geometry buffers only.
func (pc *ParseContext) geometricTransform(geoID int64) (mgl64.Mat4, bool) {
	for _, rel := range pc.connections.ParentsOf(geoID) {
		model := pc.objects[rel.ID]
		if model == nil || model.Name != "Model" {
			continue
		}
		props := model.Props()
		t := props.Vec3("GeometricTranslation", mgl64.Vec3{})
		r := props.Vec3("GeometricRotation", mgl64.Vec3{})
		s := props.Vec3("GeometricScaling", mgl64.Vec3{1, 1, 1})
		if t.Len() == 0 && r.Len() == 0 && s == (mgl64.Vec3{1, 1, 1}) {
			return mgl64.Ident4(), false
		}
		m := mgl64.Translate3D(t[0], t[1], t[2]).
			Mul4(utils.EulerToMat4(utils.DegToRadV3(r), utils.RotationOrderXYZ)).
			Mul4(mgl64.Scale3D(s[0], s[1], s[2]))
		return m, true
	}
	return mgl64.Ident4(), false
}
