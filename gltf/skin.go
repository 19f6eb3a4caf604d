package gltf

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/sceneimport/scene"
)

// assembleSkins runs after the node arena exists so joints resolve to
// arena indices. A skin without an inverseBindMatrices accessor gets
// identity matrices.
func (pc *ParseContext) assembleSkins() {
	for i := range pc.doc.Skins {
		src := &pc.doc.Skins[i]

		skin := scene.NewSkin(src.Name)
		for _, joint := range src.Joints {
			if joint < 0 || joint >= len(pc.nodeIndex) {
				pc.warnf("skin %d references missing joint node %d", i, joint)
				skin.Joints = append(skin.Joints, scene.NoNode)
				continue
			}
			skin.Joints = append(skin.Joints, pc.nodeIndex[joint])
		}
		if src.Skeleton != nil && *src.Skeleton >= 0 && *src.Skeleton < len(pc.nodeIndex) {
			skin.Skeleton = pc.nodeIndex[*src.Skeleton]
		}

		skin.InverseBindMatrices = pc.inverseBindMatrices(i, src, len(skin.Joints))

		pc.out.Skins = append(pc.out.Skins, skin)
		skinIndex := int32(len(pc.out.Skins) - 1)

		for node, docSkin := range pc.skinOfNode {
			if docSkin == i {
				pc.out.Node(pc.nodeIndex[node]).Skin = skinIndex
			}
		}
	}
}

func (pc *ParseContext) inverseBindMatrices(i int, src *DocSkin, joints int) []mgl32.Mat4 {
	out := make([]mgl32.Mat4, joints)
	for k := range out {
		out[k] = mgl32.Ident4()
	}
	if src.InverseBindMatrices == nil {
		return out
	}

	data, err := pc.accessor(*src.InverseBindMatrices)
	if err != nil || data.Components != 16 {
		pc.warnf("skin %d inverse bind matrices unusable: %v", i, err)
		return out
	}
	for k := 0; k < joints && k < data.Count; k++ {
		copy(out[k][:], data.Floats[k*16:(k+1)*16])
	}
	return out
}
