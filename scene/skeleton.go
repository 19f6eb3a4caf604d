package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Skin binds a skinned mesh to its bone nodes. Joints are arena
// indices; InverseBindMatrices has the same length as Joints.
type Skin struct {
	Name string

	Joints              []NodeIndex
	InverseBindMatrices []mgl32.Mat4

	// Optional skeleton root node.
	Skeleton NodeIndex
}

func NewSkin(name string) *Skin {
	return &Skin{Name: name, Skeleton: NoNode}
}
