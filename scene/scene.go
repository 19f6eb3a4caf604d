package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// NodeIndex addresses a node inside the scene arena. Nodes never hold
// pointers to each other, so an imported scene has no reference cycles
// and can be serialized or copied freely.
type NodeIndex int32

const NoNode NodeIndex = -1

type Node struct {
	Name string

	Parent   NodeIndex
	Children []NodeIndex

	// Local transform relative to the parent. Always populated.
	LocalTransform mgl32.Mat4
	// World transform, filled in by the importers once the whole
	// hierarchy exists.
	GlobalTransform mgl32.Mat4

	// Decomposed local TRS when the source format provided one.
	// Animation tracks target these channels.
	Translation mgl32.Vec3
	Rotation    mgl32.Quat
	Scale       mgl32.Vec3

	// Attachment indices into the scene lists, -1 when absent.
	Mesh   int32
	Skin   int32
	Camera int32
	Light  int32

	// Opaque per-node userdata: unknown glTF extensions, FBX
	// user-defined properties.
	Extras map[string]interface{}
}

func NewNode(name string) Node {
	return Node{
		Name:            name,
		Parent:          NoNode,
		LocalTransform:  mgl32.Ident4(),
		GlobalTransform: mgl32.Ident4(),
		Rotation:        mgl32.QuatIdent(),
		Scale:           mgl32.Vec3{1, 1, 1},
		Mesh:            -1,
		Skin:            -1,
		Camera:          -1,
		Light:           -1,
	}
}

// Scene is the importer output: a flat node arena plus resource lists
// the nodes reference by index.
type Scene struct {
	Nodes []Node
	Roots []NodeIndex

	Geometries []*Geometry
	Materials  []*Material
	Textures   []*Texture
	Skins      []*Skin
	Clips      []*Clip
	Cameras    []*Camera
	Lights     []*Light
}

func NewScene() *Scene {
	return &Scene{}
}

func (s *Scene) AddNode(n Node) NodeIndex {
	s.Nodes = append(s.Nodes, n)
	return NodeIndex(len(s.Nodes) - 1)
}

func (s *Scene) Node(i NodeIndex) *Node {
	return &s.Nodes[i]
}

// Attach links child under parent and keeps both sides of the relation
// consistent.
func (s *Scene) Attach(parent, child NodeIndex) {
	s.Nodes[child].Parent = parent
	s.Nodes[parent].Children = append(s.Nodes[parent].Children, child)
}

// UpdateGlobalTransforms recomputes world matrices root-down. Importers
// that compose world transforms themselves (FBX inheritance modes) skip
// this and fill GlobalTransform directly.
func (s *Scene) UpdateGlobalTransforms() {
	var walk func(i NodeIndex, parent mgl32.Mat4)
	walk = func(i NodeIndex, parent mgl32.Mat4) {
		n := &s.Nodes[i]
		n.GlobalTransform = parent.Mul4(n.LocalTransform)
		for _, c := range n.Children {
			walk(c, n.GlobalTransform)
		}
	}
	for _, root := range s.Roots {
		walk(root, mgl32.Ident4())
	}
}
