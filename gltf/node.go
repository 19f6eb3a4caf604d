package gltf

import (
	"encoding/json"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/sceneimport/scene"
)

// assembleNodes builds the node arena synchronously, after prefetch
// resolved the heavy resources. A broken mesh or camera degrades the
// referencing node, its siblings still assemble.
func (pc *ParseContext) assembleNodes() error {
	pc.skinOfNode = make([]int, len(pc.doc.Nodes))

	for i := range pc.doc.Nodes {
		src := &pc.doc.Nodes[i]
		pc.skinOfNode[i] = -1

		var node scene.Node
		if plugged := pc.pluginNode(i, src); plugged != nil {
			node = *plugged
		} else {
			node = pc.buildNode(i, src)
		}
		pc.nodeIndex[i] = pc.out.AddNode(node)
	}

	// hierarchy second, children may appear before their parents
	for i := range pc.doc.Nodes {
		for _, child := range pc.doc.Nodes[i].Children {
			if child < 0 || child >= len(pc.doc.Nodes) {
				pc.warnf("node %d references missing child %d", i, child)
				continue
			}
			pc.out.Attach(pc.nodeIndex[i], pc.nodeIndex[child])
		}
	}

	pc.assembleRoots()
	pc.out.UpdateGlobalTransforms()
	return nil
}

func (pc *ParseContext) buildNode(i int, src *DocNode) scene.Node {
	node := scene.NewNode(src.Name)

	if len(src.Matrix) == 16 {
		for k, v := range src.Matrix {
			node.LocalTransform[k] = float32(v)
		}
		decomposeTRS(&node)
	} else {
		if len(src.Translation) == 3 {
			node.Translation = mgl32.Vec3{float32(src.Translation[0]), float32(src.Translation[1]), float32(src.Translation[2])}
		}
		if len(src.Rotation) == 4 {
			node.Rotation = mgl32.Quat{
				W: float32(src.Rotation[3]),
				V: mgl32.Vec3{float32(src.Rotation[0]), float32(src.Rotation[1]), float32(src.Rotation[2])},
			}
		}
		if len(src.Scale) == 3 {
			node.Scale = mgl32.Vec3{float32(src.Scale[0]), float32(src.Scale[1]), float32(src.Scale[2])}
		}
		node.LocalTransform = composeTRS(&node)
	}

	if src.Mesh != nil {
		if mesh, err := pc.sceneGeometry(*src.Mesh); err != nil {
			pc.warnf("node %d mesh %d failed: %v", i, *src.Mesh, err)
		} else {
			node.Mesh = mesh
		}
	}
	if src.Skin != nil {
		pc.skinOfNode[i] = *src.Skin
	}
	if src.Camera != nil {
		node.Camera = pc.sceneCamera(*src.Camera, src.Name)
	}

	for name, raw := range src.Extensions {
		if name == "KHR_lights_punctual" {
			node.Light = pc.sceneLight(raw)
			continue
		}
		if node.Extras == nil {
			node.Extras = make(map[string]interface{})
		}
		node.Extras[name] = raw
	}
	if src.Extras != nil {
		var extras interface{}
		if json.Unmarshal(src.Extras, &extras) == nil {
			if node.Extras == nil {
				node.Extras = make(map[string]interface{})
			}
			node.Extras["extras"] = extras
		}
	}
	return node
}

// assembleRoots takes the default scene's node list, or every
// parentless node when the document declares no scenes.
func (pc *ParseContext) assembleRoots() {
	sceneIndex := 0
	if pc.doc.Scene != nil {
		sceneIndex = *pc.doc.Scene
	}
	if sceneIndex >= 0 && sceneIndex < len(pc.doc.Scenes) {
		for _, n := range pc.doc.Scenes[sceneIndex].Nodes {
			if n >= 0 && n < len(pc.nodeIndex) {
				pc.out.Roots = append(pc.out.Roots, pc.nodeIndex[n])
			}
		}
		return
	}
	for _, index := range pc.nodeIndex {
		if pc.out.Node(index).Parent == scene.NoNode {
			pc.out.Roots = append(pc.out.Roots, index)
		}
	}
}

func (pc *ParseContext) sceneCamera(i int, nodeName string) int32 {
	if i < 0 || i >= len(pc.doc.Cameras) {
		pc.warnf("camera index %d out of range (%d defined)", i, len(pc.doc.Cameras))
		return -1
	}
	src := &pc.doc.Cameras[i]

	camera := &scene.Camera{Name: src.Name}
	if camera.Name == "" {
		camera.Name = nodeName
	}
	switch {
	case src.Type == "perspective" && src.Perspective != nil:
		camera.Perspective = true
		camera.YFov = float32(src.Perspective.YFov)
		camera.ZNear = float32(src.Perspective.ZNear)
		camera.ZFar = float32(floatOr(src.Perspective.ZFar, 1e6))
		camera.AspectRatio = floatOr(src.Perspective.AspectRatio, 0)
	case src.Type == "orthographic" && src.Orthographic != nil:
		camera.XMag = float32(src.Orthographic.XMag)
		camera.YMag = float32(src.Orthographic.YMag)
		camera.ZNear = float32(src.Orthographic.ZNear)
		camera.ZFar = float32(src.Orthographic.ZFar)
	default:
		pc.warnf("camera %d has type %q without matching parameters, using perspective defaults", i, src.Type)
		camera.Perspective = true
		camera.YFov = 0.8
		camera.ZNear = 0.1
		camera.ZFar = 1000
	}

	pc.out.Cameras = append(pc.out.Cameras, camera)
	return int32(len(pc.out.Cameras) - 1)
}

// sceneLight resolves a node's KHR_lights_punctual reference against
// the document-level light list.
func (pc *ParseContext) sceneLight(raw json.RawMessage) int32 {
	var ref struct {
		Light int `json:"light"`
	}
	if err := json.Unmarshal(raw, &ref); err != nil {
		pc.warnf("bad KHR_lights_punctual node payload: %v", err)
		return -1
	}

	docExt, ok := pc.doc.Extensions["KHR_lights_punctual"]
	if !ok {
		pc.warnf("node references punctual light but document defines none")
		return -1
	}
	var lights lightsPunctualExt
	if err := json.Unmarshal(docExt, &lights); err != nil {
		pc.warnf("bad KHR_lights_punctual document payload: %v", err)
		return -1
	}
	if ref.Light < 0 || ref.Light >= len(lights.Lights) {
		pc.warnf("punctual light %d out of range (%d defined)", ref.Light, len(lights.Lights))
		return -1
	}
	src := &lights.Lights[ref.Light]

	light := &scene.Light{
		Name:      src.Name,
		Color:     [3]float32{1, 1, 1},
		Intensity: floatOr(src.Intensity, 1),
		Range:     floatOr(src.Range, 0),
	}
	if len(src.Color) == 3 {
		light.Color = [3]float32{float32(src.Color[0]), float32(src.Color[1]), float32(src.Color[2])}
	}
	switch src.Type {
	case "directional":
		light.Type = scene.LightDirectional
	case "spot":
		light.Type = scene.LightSpot
		if src.Spot != nil {
			light.InnerConeAngle = floatOr(src.Spot.InnerConeAngle, 0)
			light.OuterConeAngle = floatOr(src.Spot.OuterConeAngle, 0.7853981634)
		}
	default:
		light.Type = scene.LightPoint
	}

	pc.out.Lights = append(pc.out.Lights, light)
	return int32(len(pc.out.Lights) - 1)
}

func composeTRS(n *scene.Node) mgl32.Mat4 {
	return mgl32.Translate3D(n.Translation[0], n.Translation[1], n.Translation[2]).
		Mul4(n.Rotation.Mat4()).
		Mul4(mgl32.Scale3D(n.Scale[0], n.Scale[1], n.Scale[2]))
}

// decomposeTRS extracts the animation-targetable channels from a
// matrix-form node transform. Shear is not representable and is
// dropped from the decomposition (the matrix itself stays exact).
func decomposeTRS(n *scene.Node) {
	m := n.LocalTransform
	n.Translation = mgl32.Vec3{m[12], m[13], m[14]}

	c0 := mgl32.Vec3{m[0], m[1], m[2]}
	c1 := mgl32.Vec3{m[4], m[5], m[6]}
	c2 := mgl32.Vec3{m[8], m[9], m[10]}
	n.Scale = mgl32.Vec3{c0.Len(), c1.Len(), c2.Len()}

	if n.Scale[0] == 0 || n.Scale[1] == 0 || n.Scale[2] == 0 {
		n.Rotation = mgl32.QuatIdent()
		return
	}
	rot := mgl32.Mat3FromCols(
		c0.Mul(1/n.Scale[0]),
		c1.Mul(1/n.Scale[1]),
		c2.Mul(1/n.Scale[2]),
	)
	if rot.Det() < 0 {
		n.Scale[0] = -n.Scale[0]
		rot.SetCol(0, c0.Mul(1/n.Scale[0]))
	}
	n.Rotation = mgl32.Mat4ToQuat(rot.Mat4())
}
