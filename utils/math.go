package utils

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// FBX stores rotation order as an enum on the model node. SphericXYZ is
// treated as XYZ, like most importers do.
type RotationOrder int

const (
	RotationOrderXYZ RotationOrder = iota
	RotationOrderXZY
	RotationOrderYZX
	RotationOrderYXZ
	RotationOrderZXY
	RotationOrderZYX
	RotationOrderSphericXYZ
)

// input in radians
func EulerToQuat(v mgl64.Vec3, order RotationOrder) mgl64.Quat {
	switch order {
	case RotationOrderXZY:
		return mgl64.AnglesToQuat(v.X(), v.Z(), v.Y(), mgl64.XZY)
	case RotationOrderYZX:
		return mgl64.AnglesToQuat(v.Y(), v.Z(), v.X(), mgl64.YZX)
	case RotationOrderYXZ:
		return mgl64.AnglesToQuat(v.Y(), v.X(), v.Z(), mgl64.YXZ)
	case RotationOrderZXY:
		return mgl64.AnglesToQuat(v.Z(), v.X(), v.Y(), mgl64.ZXY)
	case RotationOrderZYX:
		return mgl64.AnglesToQuat(v.Z(), v.Y(), v.X(), mgl64.ZYX)
	default:
		return mgl64.AnglesToQuat(v.X(), v.Y(), v.Z(), mgl64.XYZ)
	}
}

func EulerToMat4(v mgl64.Vec3, order RotationOrder) mgl64.Mat4 {
	return EulerToQuat(v, order).Mat4()
}

func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180.0
}

func DegToRadV3(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{DegToRad(v[0]), DegToRad(v[1]), DegToRad(v[2])}
}

// NewellNormal computes a face normal stable for concave and slightly
// non-planar polygons.
func NewellNormal(points []mgl64.Vec3) mgl64.Vec3 {
	var n mgl64.Vec3
	for i, cur := range points {
		next := points[(i+1)%len(points)]
		n[0] += (cur.Y() - next.Y()) * (cur.Z() + next.Z())
		n[1] += (cur.Z() - next.Z()) * (cur.X() + next.X())
		n[2] += (cur.X() - next.X()) * (cur.Y() + next.Y())
	}
	if n.Len() < 1e-12 {
		return mgl64.Vec3{0, 0, 1}
	}
	return n.Normalize()
}

// TangentBasis derives an orthonormal tangent/bitangent pair for the
// plane with the given normal.
func TangentBasis(normal mgl64.Vec3) (tangent, bitangent mgl64.Vec3) {
	ref := mgl64.Vec3{1, 0, 0}
	if math.Abs(normal.X()) > 0.9 {
		ref = mgl64.Vec3{0, 1, 0}
	}
	tangent = normal.Cross(ref).Normalize()
	bitangent = normal.Cross(tangent).Normalize()
	return tangent, bitangent
}

func Mat4To32(m mgl64.Mat4) (r mgl32.Mat4) {
	for i, v := range m {
		r[i] = float32(v)
	}
	return r
}

func Vec3To32(v mgl64.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{float32(v[0]), float32(v[1]), float32(v[2])}
}

func QuatTo32(q mgl64.Quat) mgl32.Quat {
	return mgl32.Quat{W: float32(q.W), V: mgl32.Vec3{float32(q.V[0]), float32(q.V[1]), float32(q.V[2])}}
}

func FloatArray64to32(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}

func FloatArray32to64(in []float32) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}
