package fbx

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestTriangulateConvex(t *testing.T) {
	// regular polygons of growing size
	for n := 3; n <= 12; n++ {
		points := make([]mgl64.Vec3, n)
		for i := range points {
			a := 2 * math.Pi * float64(i) / float64(n)
			points[i] = mgl64.Vec3{math.Cos(a), math.Sin(a), 0}
		}

		tris := TriangulateFace(points)
		if len(tris) != n-2 {
			t.Errorf("n=%d: got %d triangles, want %d", n, len(tris), n-2)
		}

		used := make(map[int]bool)
		for _, tri := range tris {
			for _, v := range tri {
				if v < 0 || v >= n {
					t.Fatalf("n=%d: vertex index %d out of range", n, v)
				}
				used[v] = true
			}
		}
		if len(used) != n {
			t.Errorf("n=%d: triangulation uses %d of %d vertices", n, len(used), n)
		}
	}
}

func TestTriangulateConcave(t *testing.T) {
	// an L shape, still simple
	points := []mgl64.Vec3{
		{0, 0, 0}, {2, 0, 0}, {2, 1, 0}, {1, 1, 0}, {1, 2, 0}, {0, 2, 0},
	}
	tris := TriangulateFace(points)
	if len(tris) != len(points)-2 {
		t.Fatalf("got %d triangles, want %d", len(tris), len(points)-2)
	}

	// the clipped triangles must cover the polygon's area exactly
	var area float64
	for _, tri := range tris {
		a, b, c := points[tri[0]], points[tri[1]], points[tri[2]]
		area += math.Abs((b[0]-a[0])*(c[1]-a[1])-(c[0]-a[0])*(b[1]-a[1])) / 2
	}
	if math.Abs(area-3) > 1e-9 {
		t.Errorf("triangulated area = %v, want 3", area)
	}
}

func TestTriangulateTiltedPlane(t *testing.T) {
	// same quad rotated out of the XY plane, projection must cope
	rot := mgl64.HomogRotate3D(0.7, mgl64.Vec3{1, 1, 0}.Normalize())
	points := make([]mgl64.Vec3, 0, 4)
	for _, p := range [][3]float64{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}} {
		points = append(points, mgl64.TransformCoordinate(mgl64.Vec3{p[0], p[1], p[2]}, rot))
	}
	if tris := TriangulateFace(points); len(tris) != 2 {
		t.Errorf("got %d triangles, want 2", len(tris))
	}
}
