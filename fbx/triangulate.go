package fbx

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/mogaika/sceneimport/utils"
)

// TriangulateFace ear-clips a polygon of 3d points. Points are
// projected onto the face's own tangent plane first (Newell normal),
// so slightly non-planar n-gons triangulate sanely. Always returns
// exactly len(points)-2 triangles as index triples into points.
func TriangulateFace(points []mgl64.Vec3) [][3]int {
	n := len(points)
	if n < 3 {
		return nil
	}
	if n == 3 {
		return [][3]int{{0, 1, 2}}
	}

	normal := utils.NewellNormal(points)
	tangent, bitangent := utils.TangentBasis(normal)

	flat := make([][2]float64, n)
	for i, p := range points {
		flat[i] = [2]float64{p.Dot(tangent), p.Dot(bitangent)}
	}
	return earcut(flat)
}

func earcut(points [][2]float64) [][3]int {
	n := len(points)
	remaining := make([]int, n)
	for i := range remaining {
		remaining[i] = i
	}

	// winding sign of the projected polygon
	area := 0.0
	for i := 0; i < n; i++ {
		a, b := points[i], points[(i+1)%n]
		area += a[0]*b[1] - b[0]*a[1]
	}
	ccw := area >= 0

	triangles := make([][3]int, 0, n-2)
	for len(remaining) > 3 {
		clipped := false
		for i := 0; i < len(remaining); i++ {
			prev := remaining[(i+len(remaining)-1)%len(remaining)]
			cur := remaining[i]
			next := remaining[(i+1)%len(remaining)]

			if !isEar(points, remaining, prev, cur, next, ccw) {
				continue
			}
			triangles = append(triangles, [3]int{prev, cur, next})
			remaining = append(remaining[:i], remaining[i+1:]...)
			clipped = true
			break
		}
		if !clipped {
			// degenerate polygon (collinear runs, self intersection):
			// clip blindly, the triangle count contract still holds
			triangles = append(triangles, [3]int{remaining[0], remaining[1], remaining[2]})
			remaining = append(remaining[:1], remaining[2:]...)
		}
	}
	triangles = append(triangles, [3]int{remaining[0], remaining[1], remaining[2]})
	return triangles
}

func isEar(points [][2]float64, remaining []int, prev, cur, next int, ccw bool) bool {
	a, b, c := points[prev], points[cur], points[next]

	cross := (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
	if ccw {
		if cross <= 0 {
			return false
		}
	} else if cross >= 0 {
		return false
	}

	for _, idx := range remaining {
		if idx == prev || idx == cur || idx == next {
			continue
		}
		if pointInTriangle(points[idx], a, b, c) {
			return false
		}
	}
	return true
}

func pointInTriangle(p, a, b, c [2]float64) bool {
	d1 := sign(p, a, b)
	d2 := sign(p, b, c)
	d3 := sign(p, c, a)

	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}

func sign(p, a, b [2]float64) float64 {
	return (p[0]-b[0])*(a[1]-b[1]) - (a[0]-b[0])*(p[1]-b[1])
}
