package scene

// Geometry carries flattened vertex buffers. All attribute slices are
// either nil or exactly len(Positions) long. When Indices is nil the
// buffer is an already-expanded triangle soup.
type Geometry struct {
	Name string

	Positions [][3]float32
	Normals   [][3]float32
	Colors    [][4]float32
	UVs       [][][2]float32 // one slice per UV channel

	Indices []uint32

	// GPU skinning attributes, exactly 4 slots per vertex.
	Joints  [][4]uint16
	Weights [][4]float32

	MorphTargets []MorphTarget

	// Ranges mapping triangle spans to materials. Empty means the whole
	// geometry uses the owning node's first material.
	Groups []MaterialGroup
}

// MorphTarget position (and optionally normal) deltas, dense over the
// base geometry.
type MorphTarget struct {
	Name      string
	Positions [][3]float32
	Normals   [][3]float32
}

type MaterialGroup struct {
	Start    uint32 // first vertex (or index when indexed)
	Count    uint32
	Material int32
}

func (g *Geometry) VertexCount() int {
	return len(g.Positions)
}

func (g *Geometry) TriangleCount() int {
	if g.Indices != nil {
		return len(g.Indices) / 3
	}
	return len(g.Positions) / 3
}
