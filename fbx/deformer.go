package fbx

import (
	"github.com/go-gl/mathgl/mgl64"
)

// rawBone is one skin cluster: a bone model plus the control points it
// influences.
type rawBone struct {
	clusterID int64
	modelID   int64

	indices []int32
	weights []float64

	// bone world transform at bind time
	transformLink mgl64.Mat4
	hasLink       bool
}

type skinData struct {
	skinID int64
	bones  []rawBone
}

type morphChannel struct {
	name         string
	channelID    int64
	shapeID      int64
	indexes      []int32
	deltas       []float64
	normalDeltas []float64
	fullWeights  []float64
}

type morphData struct {
	deformerID int64
	channels   []morphChannel
}

// parseDeformers indexes skin and blend-shape deformers by the
// geometry they act on. Geometry parsing picks them up from there.
func (pc *ParseContext) parseDeformers() {
	for id, obj := range pc.objects {
		if obj.Name != "Deformer" {
			continue
		}
		switch obj.AttrType() {
		case "Skin":
			skin := pc.parseSkin(id, obj)
			if len(skin.bones) == 0 {
				continue
			}
			for _, rel := range pc.connections.ParentsOf(id) {
				if parent := pc.objects[rel.ID]; parent != nil && parent.Name == "Geometry" {
					pc.geometrySkins[rel.ID] = skin
				}
			}
		case "BlendShape":
			morph := pc.parseBlendShape(id)
			if len(morph.channels) == 0 {
				continue
			}
			for _, rel := range pc.connections.ParentsOf(id) {
				if parent := pc.objects[rel.ID]; parent != nil && parent.Name == "Geometry" {
					pc.geometryMorphs[rel.ID] = morph
				}
			}
		}
	}
}

func (pc *ParseContext) parseSkin(skinID int64, obj *Node) *skinData {
	skin := &skinData{skinID: skinID}

	for _, rel := range pc.connections.ChildrenOf(skinID) {
		cluster := pc.objects[rel.ID]
		if cluster == nil || cluster.Name != "Deformer" || cluster.AttrType() != "Cluster" {
			continue
		}

		bone := rawBone{
			clusterID: rel.ID,
			indices:   cluster.ChildInts("Indexes"),
			weights:   cluster.ChildFloats("Weights"),
		}
		if link := cluster.ChildFloats("TransformLink"); len(link) == 16 {
			bone.transformLink = mat4FromSlice(link)
			bone.hasLink = true
		}
		for _, boneRel := range pc.connections.ChildrenOf(rel.ID) {
			if model := pc.objects[boneRel.ID]; model != nil && model.Name == "Model" {
				bone.modelID = boneRel.ID
				break
			}
		}
		if bone.modelID == 0 {
			pc.warnf("skin cluster %d has no bone model, skipped", rel.ID)
			continue
		}
		skin.bones = append(skin.bones, bone)
	}
	return skin
}

func (pc *ParseContext) parseBlendShape(morphID int64) *morphData {
	morph := &morphData{deformerID: morphID}

	for _, rel := range pc.connections.ChildrenOf(morphID) {
		channelNode := pc.objects[rel.ID]
		if channelNode == nil || channelNode.Name != "Deformer" || channelNode.AttrType() != "BlendShapeChannel" {
			continue
		}

		channel := morphChannel{
			name:        channelNode.AttrName(),
			channelID:   rel.ID,
			fullWeights: channelNode.ChildFloats("FullWeights"),
		}
		for _, shapeRel := range pc.connections.ChildrenOf(rel.ID) {
			shape := pc.objects[shapeRel.ID]
			if shape == nil || shape.Name != "Geometry" {
				continue
			}
			channel.shapeID = shapeRel.ID
			channel.indexes = shape.ChildInts("Indexes")
			channel.deltas = shape.ChildFloats("Vertices")
			channel.normalDeltas = shape.ChildFloats("Normals")
			if channel.name == "" {
				channel.name = shape.AttrName()
			}
			break
		}
		if channel.shapeID == 0 {
			continue
		}
		morph.channels = append(morph.channels, channel)
	}
	return morph
}

// densify expands the sparse (index, delta) pairs into a dense
// per-control-point array, zero elsewhere. A shape without Indexes is
// an absolute full-shape target: its vertices replace the base mesh
// wholesale, so they convert to deltas against the base positions.
func (ch *morphChannel) densify(basePositions []float64) []float64 {
	dense := make([]float64, len(basePositions))
	if len(ch.indexes) == 0 {
		if len(ch.deltas) == len(basePositions) {
			for i := range dense {
				dense[i] = ch.deltas[i] - basePositions[i]
			}
		}
		return dense
	}
	for i, cp := range ch.indexes {
		if int(cp)*3+2 >= len(dense) || i*3+2 >= len(ch.deltas) {
			continue
		}
		dense[cp*3+0] = ch.deltas[i*3+0]
		dense[cp*3+1] = ch.deltas[i*3+1]
		dense[cp*3+2] = ch.deltas[i*3+2]
	}
	return dense
}

// FBX matrices are stored as 16 doubles, column major, translation in
// the last column.
func mat4FromSlice(s []float64) (m mgl64.Mat4) {
	copy(m[:], s)
	return m
}
