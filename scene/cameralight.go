package scene

// Camera parameters, one of the two projections is meaningful
// depending on Perspective.
type Camera struct {
	Name        string
	Perspective bool

	// Perspective, radians.
	YFov        float32
	AspectRatio float32

	// Orthographic half-extents.
	XMag float32
	YMag float32

	ZNear float32
	ZFar  float32
}

type LightType string

const (
	LightDirectional LightType = "directional"
	LightPoint       LightType = "point"
	LightSpot        LightType = "spot"
)

type Light struct {
	Name      string
	Type      LightType
	Color     [3]float32
	Intensity float32
	Range     float32

	// Spot cone, radians.
	InnerConeAngle float32
	OuterConeAngle float32
}
