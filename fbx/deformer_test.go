package fbx

import (
	"testing"
)

func TestDensifySparseShape(t *testing.T) {
	base := []float64{0, 0, 0, 1, 0, 0, 0, 1, 0}
	ch := morphChannel{
		indexes: []int32{2},
		deltas:  []float64{0.5, 0, 0},
	}
	dense := ch.densify(base)
	if len(dense) != len(base) {
		t.Fatalf("dense length = %d, want %d", len(dense), len(base))
	}
	want := []float64{0, 0, 0, 0, 0, 0, 0.5, 0, 0}
	for i := range want {
		if dense[i] != want[i] {
			t.Fatalf("dense = %v, want %v", dense, want)
		}
	}
}

func TestDensifyFullShape(t *testing.T) {
	// a Shape without Indexes stores absolute positions for the whole
	// mesh, densify converts them to deltas against the base
	base := []float64{0, 0, 0, 1, 0, 0, 0, 1, 0}
	ch := morphChannel{
		deltas: []float64{0, 0, 1, 1, 0, 2, 0, 1, 3},
	}
	dense := ch.densify(base)
	want := []float64{0, 0, 1, 0, 0, 2, 0, 0, 3}
	for i := range want {
		if dense[i] != want[i] {
			t.Fatalf("dense = %v, want %v", dense, want)
		}
	}
}

func TestDensifyFullShapeVertexCountMismatch(t *testing.T) {
	base := []float64{0, 0, 0, 1, 0, 0, 0, 1, 0}
	ch := morphChannel{
		deltas: []float64{0, 0, 1}, // one vertex against a three vertex base
	}
	dense := ch.densify(base)
	for i, v := range dense {
		if v != 0 {
			t.Fatalf("dense[%d] = %v, mismatched full shape must stay zero", i, v)
		}
	}
}
