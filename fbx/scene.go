package fbx

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/mogaika/sceneimport/scene"
	"github.com/mogaika/sceneimport/utils"
)

// transformData is the §"Lcl" transform bundle of one model node.
// Rotations are kept in degrees the way FBX stores them.
type transformData struct {
	translation    mgl64.Vec3
	rotationOffset mgl64.Vec3
	rotationPivot  mgl64.Vec3
	scalingOffset  mgl64.Vec3
	scalingPivot   mgl64.Vec3

	rotation     mgl64.Vec3
	preRotation  mgl64.Vec3
	postRotation mgl64.Vec3

	scaling mgl64.Vec3

	rotationOrder utils.RotationOrder
	inheritType   int64
}

func readTransformData(props PropertyBag) transformData {
	return transformData{
		translation:    props.Vec3("Lcl Translation", mgl64.Vec3{}),
		rotationOffset: props.Vec3("RotationOffset", mgl64.Vec3{}),
		rotationPivot:  props.Vec3("RotationPivot", mgl64.Vec3{}),
		scalingOffset:  props.Vec3("ScalingOffset", mgl64.Vec3{}),
		scalingPivot:   props.Vec3("ScalingPivot", mgl64.Vec3{}),
		rotation:       props.Vec3("Lcl Rotation", mgl64.Vec3{}),
		preRotation:    props.Vec3("PreRotation", mgl64.Vec3{}),
		postRotation:   props.Vec3("PostRotation", mgl64.Vec3{}),
		scaling:        props.Vec3("Lcl Scaling", mgl64.Vec3{1, 1, 1}),
		rotationOrder:  utils.RotationOrder(props.Int("RotationOrder", 0)),
		inheritType:    props.Int("InheritType", 0),
	}
}

func rotM(deg mgl64.Vec3, order utils.RotationOrder) mgl64.Mat4 {
	return utils.EulerToMat4(utils.DegToRadV3(deg), order)
}

func transM(v mgl64.Vec3) mgl64.Mat4 {
	return mgl64.Translate3D(v[0], v[1], v[2])
}

// rotationMatrix is preRotation * rotation * postRotation^-1.
// Pre/post rotations always use XYZ order.
func (td *transformData) rotationMatrix() mgl64.Mat4 {
	return rotM(td.preRotation, utils.RotationOrderXYZ).
		Mul4(rotM(td.rotation, td.rotationOrder)).
		Mul4(rotM(td.postRotation, utils.RotationOrderXYZ).Inv())
}

func (td *transformData) scalingMatrix() mgl64.Mat4 {
	return mgl64.Scale3D(td.scaling[0], td.scaling[1], td.scaling[2])
}

// localMatrix composes the full FBX local transform in the fixed
// order: T * Roff * Rp * Rpre * R * Rpost^-1 * Rp^-1 * Soff * Sp * S * Sp^-1.
func (td *transformData) localMatrix() mgl64.Mat4 {
	m := transM(td.translation)
	m = m.Mul4(transM(td.rotationOffset))
	m = m.Mul4(transM(td.rotationPivot))
	m = m.Mul4(rotM(td.preRotation, utils.RotationOrderXYZ))
	m = m.Mul4(rotM(td.rotation, td.rotationOrder))
	m = m.Mul4(rotM(td.postRotation, utils.RotationOrderXYZ).Inv())
	m = m.Mul4(transM(td.rotationPivot).Inv())
	m = m.Mul4(transM(td.scalingOffset))
	m = m.Mul4(transM(td.scalingPivot))
	m = m.Mul4(td.scalingMatrix())
	m = m.Mul4(transM(td.scalingPivot).Inv())
	return m
}

// worldTransform keeps the decomposed pieces the inheritance formulas
// need from the parent.
type worldTransform struct {
	world  mgl64.Mat4
	worldR mgl64.Mat4
	localS mgl64.Mat4
}

type modelEntry struct {
	id    int64
	node  scene.NodeIndex
	td    transformData
	local mgl64.Mat4
}

func (pc *ParseContext) assembleModels() error {
	defaultMaterial := int32(-1)
	getDefaultMaterial := func() int32 {
		if defaultMaterial < 0 {
			mat := scene.NewMaterial("default")
			mat.Colors["diffuse"] = [4]float32{0.8, 0.8, 0.8, 1}
			pc.out.Materials = append(pc.out.Materials, mat)
			defaultMaterial = int32(len(pc.out.Materials) - 1)
		}
		return defaultMaterial
	}

	entries := make(map[int64]*modelEntry)

	// create nodes and attachments first, hierarchy after
	for _, id := range pc.sortedObjectIDs("Model") {
		model := pc.objects[id]
		props := model.Props()
		td := readTransformData(props)

		node := scene.NewNode(pc.objectName(model))
		node.Translation = utils.Vec3To32(td.translation)
		node.Rotation = utils.QuatTo32(
			utils.EulerToQuat(utils.DegToRadV3(td.preRotation), utils.RotationOrderXYZ).
				Mul(utils.EulerToQuat(utils.DegToRadV3(td.rotation), td.rotationOrder)).
				Mul(utils.EulerToQuat(utils.DegToRadV3(td.postRotation), utils.RotationOrderXYZ).Inverse()))

		node.Scale = utils.Vec3To32(td.scaling)

		for _, rel := range pc.connections.ChildrenOf(id) {
			child := pc.objects[rel.ID]
			if child == nil {
				continue
			}
			switch child.Name {
			case "Geometry":
				if geoIndex, ok := pc.geometryByID[rel.ID]; ok && node.Mesh < 0 {
					node.Mesh = geoIndex
				}
			case "NodeAttribute":
				pc.attachNodeAttribute(&node, model, child)
			}
		}

		if node.Mesh >= 0 {
			pc.remapMaterialGroups(&node, id, getDefaultMaterial)
		}

		index := pc.out.AddNode(node)
		pc.nodeByModel[id] = index
		entries[id] = &modelEntry{id: id, node: index, td: td, local: td.localMatrix()}
	}

	// hierarchy: a model connected to object 0 (or to no model at all)
	// is a root
	for _, id := range pc.sortedObjectIDs("Model") {
		entry := entries[id]
		parent := scene.NoNode
		for _, rel := range pc.connections.ParentsOf(id) {
			if p, ok := pc.nodeByModel[rel.ID]; ok {
				parent = p
				break
			}
		}
		if parent == scene.NoNode {
			pc.out.Roots = append(pc.out.Roots, entry.node)
		} else {
			pc.out.Attach(parent, entry.node)
		}
	}

	// world transforms root-down, one of the three inheritance
	// formulas per node
	var walk func(entry *modelEntry, parent *worldTransform)
	walk = func(entry *modelEntry, parent *worldTransform) {
		wt := composeWorld(&entry.td, entry.local, parent)
		pc.worldInfo[entry.node] = wt

		node := pc.out.Node(entry.node)
		node.LocalTransform = utils.Mat4To32(entry.local)
		node.GlobalTransform = utils.Mat4To32(wt.world)

		for _, childIndex := range node.Children {
			for _, childEntry := range entries {
				if childEntry.node == childIndex {
					walk(childEntry, wt)
					break
				}
			}
		}
	}
	for _, root := range pc.out.Roots {
		for _, entry := range entries {
			if entry.node == root {
				walk(entry, nil)
			}
		}
	}
	return nil
}

// composeWorld implements the three FBX transform inheritance types as
// explicit matrix formulas:
//
//	RrSs (0): parentR * localR * parentS * localS
//	RSrs (1): parentR * parentS * localR * localS
//	Rrs  (2): parentR * localR * (parentS / parentLocalS) * localS
//
// Translation always comes from the parent's full world matrix applied
// to the composed local position.
func composeWorld(td *transformData, local mgl64.Mat4, parent *worldTransform) *worldTransform {
	lRM := td.rotationMatrix()
	lSM := td.scalingMatrix()

	if parent == nil {
		return &worldTransform{
			world:  local,
			worldR: lRM,
			localS: lSM,
		}
	}

	parentGRM := parent.worldR
	// scale (and shear) left over after removing the parent's rotation
	parentGSM := parentGRM.Inv().Mul4(stripTranslation(parent.world))

	var globalRS mgl64.Mat4
	switch td.inheritType {
	case 0: // RrSs
		globalRS = parentGRM.Mul4(lRM).Mul4(parentGSM).Mul4(lSM)
	case 2: // Rrs
		parentGSMnoLocal := parentGSM.Mul4(parent.localS.Inv())
		globalRS = parentGRM.Mul4(lRM).Mul4(parentGSMnoLocal).Mul4(lSM)
	default: // RSrs
		globalRS = parentGRM.Mul4(parentGSM).Mul4(lRM).Mul4(lSM)
	}

	localPos := mgl64.Vec3{local[12], local[13], local[14]}
	worldPos := mgl64.TransformCoordinate(localPos, parent.world)

	world := transM(worldPos).Mul4(globalRS)
	return &worldTransform{
		world:  world,
		worldR: parentGRM.Mul4(lRM),
		localS: lSM,
	}
}

func stripTranslation(m mgl64.Mat4) mgl64.Mat4 {
	m[12], m[13], m[14] = 0, 0, 0
	return m
}

// remapMaterialGroups rewrites the geometry's local material slots
// (connection order on the model) into scene material indices.
func (pc *ParseContext) remapMaterialGroups(node *scene.Node, modelID int64, getDefaultMaterial func() int32) {
	geo := pc.out.Geometries[node.Mesh]

	var modelMaterials []int32
	for _, rel := range pc.connections.ChildrenOf(modelID) {
		if matIndex, ok := pc.materialByID[rel.ID]; ok {
			modelMaterials = append(modelMaterials, matIndex)
		}
	}

	remap := func(local int32) int32 {
		if int(local) < len(modelMaterials) && local >= 0 {
			return modelMaterials[local]
		}
		pc.warnf("model %d references material slot %d of %d, substituting default", modelID, local, len(modelMaterials))
		return getDefaultMaterial()
	}

	if geo.Groups == nil {
		if len(modelMaterials) > 0 {
			geo.Groups = []scene.MaterialGroup{{Start: 0, Count: uint32(geo.VertexCount()), Material: modelMaterials[0]}}
		}
		return
	}
	for i := range geo.Groups {
		geo.Groups[i].Material = remap(geo.Groups[i].Material)
	}
}

func (pc *ParseContext) attachNodeAttribute(node *scene.Node, model *Node, attr *Node) {
	props := attr.Props()
	switch attr.AttrType() {
	case "Camera":
		camera := &scene.Camera{
			Name:        node.Name,
			Perspective: true,
			YFov:        float32(utils.DegToRad(props.Float("FieldOfView", 45))),
			AspectRatio: float32(props.Float("FilmAspectRatio", 16.0/9.0)),
			ZNear:       float32(props.Float("NearPlane", 100) / 1000.0),
			ZFar:        float32(props.Float("FarPlane", 1000000) / 1000.0),
		}
		if !props.Has("FieldOfView") {
			pc.warnf("camera %q missing FieldOfView, using default", node.Name)
		}
		pc.out.Cameras = append(pc.out.Cameras, camera)
		node.Camera = int32(len(pc.out.Cameras) - 1)

	case "Light":
		light := &scene.Light{
			Name:      node.Name,
			Color:     [3]float32{1, 1, 1},
			Intensity: float32(props.Float("Intensity", 100) / 100.0),
		}
		if c, ok := props["Color"]; ok {
			v := c.Vec3(mgl64.Vec3{1, 1, 1})
			light.Color = [3]float32{float32(v[0]), float32(v[1]), float32(v[2])}
		} else {
			pc.warnf("light %q missing Color, using default", node.Name)
		}
		switch props.Int("LightType", 0) {
		case 1:
			light.Type = scene.LightDirectional
		case 2:
			light.Type = scene.LightSpot
			light.InnerConeAngle = float32(utils.DegToRad(props.Float("InnerAngle", 0)))
			light.OuterConeAngle = float32(utils.DegToRad(props.Float("OuterAngle", 45)))
		default:
			light.Type = scene.LightPoint
		}
		pc.out.Lights = append(pc.out.Lights, light)
		node.Light = int32(len(pc.out.Lights) - 1)
	}
}

// bindSkeletons resolves skins after the node hierarchy exists:
// inverse bind matrices come from BindPose records, falling back to
// the cluster's TransformLink, falling back to the bone's world
// transform.
func (pc *ParseContext) bindSkeletons() {
	bindPoses := pc.parseBindPoses()

	for geoID, skin := range pc.geometrySkins {
		geoIndex, ok := pc.geometryByID[geoID]
		if !ok {
			continue
		}

		out := scene.NewSkin(pc.objects[skin.skinID].AttrName())
		for _, bone := range skin.bones {
			boneNode, ok := pc.nodeByModel[bone.modelID]
			if !ok {
				pc.warnf("skin %d references missing bone model %d", skin.skinID, bone.modelID)
				boneNode = scene.NoNode
			}

			bind, ok := bindPoses[bone.modelID]
			if !ok {
				if bone.hasLink {
					bind = bone.transformLink
				} else if wt := pc.worldInfo[boneNode]; wt != nil {
					bind = wt.world
				} else {
					bind = mgl64.Ident4()
				}
			}

			out.Joints = append(out.Joints, boneNode)
			out.InverseBindMatrices = append(out.InverseBindMatrices, utils.Mat4To32(bind.Inv()))
		}
		if len(out.Joints) > 0 {
			out.Skeleton = out.Joints[0]
		}

		pc.out.Skins = append(pc.out.Skins, out)
		skinIndex := int32(len(pc.out.Skins) - 1)

		for _, nodeIndex := range pc.nodeByModel {
			if pc.out.Node(nodeIndex).Mesh == geoIndex {
				pc.out.Node(nodeIndex).Skin = skinIndex
			}
		}
	}
}

func (pc *ParseContext) parseBindPoses() map[int64]mgl64.Mat4 {
	poses := make(map[int64]mgl64.Mat4)
	objects := pc.tree.Get("Objects")
	if objects == nil {
		return poses
	}
	for _, pose := range objects.GetAll("Pose") {
		if pose.AttrType() != "BindPose" {
			continue
		}
		for _, poseNode := range pose.GetAll("PoseNode") {
			modelID := poseNode.ChildInt64("Node", 0)
			matrix := poseNode.ChildFloats("Matrix")
			if modelID == 0 || len(matrix) != 16 {
				continue
			}
			poses[modelID] = mat4FromSlice(matrix)
		}
	}
	return poses
}
