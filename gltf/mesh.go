package gltf

import (
	"fmt"

	"github.com/mogaika/sceneimport/importer"
	"github.com/mogaika/sceneimport/scene"
)

const modeTriangles = 4

// mesh resolves mesh i into one geometry. All primitives merge into a
// single vertex buffer with per-primitive material groups; material
// slots stay document indices here and are remapped into scene indices
// during assembly.
func (pc *ParseContext) mesh(i int) (*scene.Geometry, error) {
	v, err := pc.cache.resolve(pc.ctx, key("mesh", i), func() (interface{}, error) {
		if i < 0 || i >= len(pc.doc.Meshes) {
			return nil, importer.Structuralf(key("mesh", i), "index out of range (%d defined)", len(pc.doc.Meshes))
		}
		mesh := &pc.doc.Meshes[i]

		if geo := pc.pluginMesh(i, mesh); geo != nil {
			return geo, nil
		}

		geo := &scene.Geometry{Name: mesh.Name}
		for pi := range mesh.Primitives {
			if err := pc.appendPrimitive(geo, &mesh.Primitives[pi]); err != nil {
				return nil, importer.Structuralf(key("mesh", i), "primitive %d: %v", pi, err)
			}
		}
		padAttributes(geo)
		return geo, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*scene.Geometry), nil
}

func (pc *ParseContext) appendPrimitive(geo *scene.Geometry, prim *Primitive) error {
	if prim.Mode != nil && *prim.Mode != modeTriangles {
		pc.warnf("primitive mode %d unsupported, skipped", *prim.Mode)
		return nil
	}

	posAccessor, ok := prim.Attributes["POSITION"]
	if !ok {
		pc.warnf("primitive without POSITION attribute, skipped")
		return nil
	}
	pos, err := pc.accessor(posAccessor)
	if err != nil {
		return err
	}

	vertexBase := uint32(len(geo.Positions))
	indexBase := uint32(len(geo.Indices))

	geo.Positions = append(geo.Positions, vec3s(pos)...)

	if ai, ok := prim.Attributes["NORMAL"]; ok {
		normals, err := pc.accessor(ai)
		if err != nil {
			return err
		}
		geo.Normals = appendPadded3(geo.Normals, vec3s(normals), int(vertexBase))
	}
	if ai, ok := prim.Attributes["COLOR_0"]; ok {
		colors, err := pc.accessor(ai)
		if err != nil {
			return err
		}
		geo.Colors = appendPadded4(geo.Colors, colorVec4s(colors), int(vertexBase))
	}
	for channel := 0; ; channel++ {
		ai, ok := prim.Attributes[texCoordAttr(channel)]
		if !ok {
			break
		}
		uv, err := pc.accessor(ai)
		if err != nil {
			return err
		}
		for len(geo.UVs) <= channel {
			geo.UVs = append(geo.UVs, nil)
		}
		geo.UVs[channel] = appendPadded2(geo.UVs[channel], vec2s(uv), int(vertexBase))
	}
	if ji, ok := prim.Attributes["JOINTS_0"]; ok {
		if wi, ok := prim.Attributes["WEIGHTS_0"]; ok {
			if err := pc.appendSkinAttributes(geo, ji, wi, int(vertexBase)); err != nil {
				return err
			}
		}
	}

	// indices: explicit accessor or the implicit 0..n-1 soup
	if prim.Indices != nil {
		indexData, err := pc.accessor(*prim.Indices)
		if err != nil {
			return err
		}
		for _, v := range indexData.UInts {
			geo.Indices = append(geo.Indices, vertexBase+v)
		}
	} else {
		for v := 0; v < pos.Count; v++ {
			geo.Indices = append(geo.Indices, vertexBase+uint32(v))
		}
	}

	if err := pc.appendMorphTargets(geo, prim, pos.Count, int(vertexBase)); err != nil {
		return err
	}

	material := int32(-1)
	if prim.Material != nil {
		material = int32(*prim.Material)
	}
	geo.Groups = append(geo.Groups, scene.MaterialGroup{
		Start:    indexBase,
		Count:    uint32(len(geo.Indices)) - indexBase,
		Material: material,
	})
	return nil
}

func (pc *ParseContext) appendSkinAttributes(geo *scene.Geometry, jointsAccessor, weightsAccessor, vertexBase int) error {
	joints, err := pc.accessor(jointsAccessor)
	if err != nil {
		return err
	}
	weights, err := pc.accessor(weightsAccessor)
	if err != nil {
		return err
	}
	if joints.Components != 4 || weights.Components != 4 {
		return importer.Structuralf("skin attributes", "JOINTS_0/WEIGHTS_0 must be VEC4")
	}

	for len(geo.Joints) < vertexBase {
		geo.Joints = append(geo.Joints, [4]uint16{})
		geo.Weights = append(geo.Weights, [4]float32{})
	}
	for k := 0; k < joints.Count; k++ {
		var j [4]uint16
		var w [4]float32
		for c := 0; c < 4; c++ {
			j[c] = uint16(joints.UInts[k*4+c])
			w[c] = weights.Floats[k*4+c]
		}
		geo.Joints = append(geo.Joints, j)
		geo.Weights = append(geo.Weights, w)
	}
	return nil
}

func (pc *ParseContext) appendMorphTargets(geo *scene.Geometry, prim *Primitive, vertexCount, vertexBase int) error {
	for ti, target := range prim.Targets {
		for len(geo.MorphTargets) <= ti {
			geo.MorphTargets = append(geo.MorphTargets, scene.MorphTarget{})
		}
		mt := &geo.MorphTargets[ti]

		if ai, ok := target["POSITION"]; ok {
			deltas, err := pc.accessor(ai)
			if err != nil {
				return err
			}
			mt.Positions = appendPadded3(mt.Positions, vec3s(deltas), vertexBase)
		}
		if ai, ok := target["NORMAL"]; ok {
			deltas, err := pc.accessor(ai)
			if err != nil {
				return err
			}
			mt.Normals = appendPadded3(mt.Normals, vec3s(deltas), vertexBase)
		}
	}
	return nil
}

// padAttributes extends every present attribute slice to the full
// vertex count. Front-padding in appendPadded* only covers primitives
// that precede the attribute's first appearance; a trailing primitive
// lacking the attribute would otherwise leave the slice short.
func padAttributes(geo *scene.Geometry) {
	n := len(geo.Positions)
	if geo.Normals != nil {
		geo.Normals = appendPadded3(geo.Normals, nil, n)
	}
	if geo.Colors != nil {
		geo.Colors = appendPadded4(geo.Colors, nil, n)
	}
	for channel := range geo.UVs {
		if geo.UVs[channel] != nil {
			geo.UVs[channel] = appendPadded2(geo.UVs[channel], nil, n)
		}
	}
	for len(geo.Joints) > 0 && len(geo.Joints) < n {
		geo.Joints = append(geo.Joints, [4]uint16{})
		geo.Weights = append(geo.Weights, [4]float32{})
	}
	for ti := range geo.MorphTargets {
		mt := &geo.MorphTargets[ti]
		if mt.Positions != nil {
			mt.Positions = appendPadded3(mt.Positions, nil, n)
		}
		if mt.Normals != nil {
			mt.Normals = appendPadded3(mt.Normals, nil, n)
		}
	}
}

func texCoordAttr(channel int) string {
	return fmt.Sprintf("TEXCOORD_%d", channel)
}

func vec2s(a *accessorData) [][2]float32 {
	out := make([][2]float32, a.Count)
	for i := range out {
		out[i] = [2]float32{a.Floats[i*a.Components], a.Floats[i*a.Components+1]}
	}
	return out
}

func vec3s(a *accessorData) [][3]float32 {
	out := make([][3]float32, a.Count)
	for i := range out {
		base := i * a.Components
		out[i] = [3]float32{a.Floats[base], a.Floats[base+1], a.Floats[base+2]}
	}
	return out
}

// colorVec4s expands VEC3 colors with alpha 1.
func colorVec4s(a *accessorData) [][4]float32 {
	out := make([][4]float32, a.Count)
	for i := range out {
		base := i * a.Components
		c := [4]float32{0, 0, 0, 1}
		for k := 0; k < a.Components && k < 4; k++ {
			c[k] = a.Floats[base+k]
		}
		out[i] = c
	}
	return out
}

// appendPadded* keep attribute slices aligned with Positions when an
// earlier primitive lacked the attribute.
func appendPadded2(dst [][2]float32, src [][2]float32, vertexBase int) [][2]float32 {
	for len(dst) < vertexBase {
		dst = append(dst, [2]float32{})
	}
	return append(dst, src...)
}

func appendPadded3(dst [][3]float32, src [][3]float32, vertexBase int) [][3]float32 {
	for len(dst) < vertexBase {
		dst = append(dst, [3]float32{})
	}
	return append(dst, src...)
}

func appendPadded4(dst [][4]float32, src [][4]float32, vertexBase int) [][4]float32 {
	for len(dst) < vertexBase {
		dst = append(dst, [4]float32{})
	}
	return append(dst, src...)
}
