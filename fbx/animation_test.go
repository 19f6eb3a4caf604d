package fbx

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/mogaika/sceneimport/scene"
)

func TestRotationTrackUnrolling(t *testing.T) {
	pc := &ParseContext{imp: NewImporter()}

	cn := &animCurveNode{
		curves: map[string]*animCurve{
			"X": {times: []float64{0, 1}, values: []float64{0, 190}},
		},
	}
	td := transformData{scaling: mgl64.Vec3{1, 1, 1}}

	track := pc.rotationTrack(cn, 0, &td)

	if len(track.Times) < 3 {
		t.Fatalf("got %d keys, unrolling a 190 degree step must insert at least one", len(track.Times))
	}
	if track.Stride != 4 {
		t.Fatalf("stride = %d, want 4", track.Stride)
	}

	for k := 1; k < len(track.Times); k++ {
		var dot float32
		for c := 0; c < 4; c++ {
			dot += track.Values[(k-1)*4+c] * track.Values[k*4+c]
		}
		if dot < 0 {
			t.Errorf("keys %d,%d have negative quaternion dot %v", k-1, k, dot)
		}
	}
}

// morphTestContext wires one geometry with a single blend-shape
// channel (id 20) under deformer 40, attached to a mesh node.
func morphTestContext() *ParseContext {
	pc := &ParseContext{
		imp:            NewImporter(),
		out:            scene.NewScene(),
		objects:        make(map[int64]*Node),
		nodeByModel:    make(map[int64]scene.NodeIndex),
		geometryByID:   make(map[int64]int32),
		geometryMorphs: make(map[int64]*morphData),
	}

	root := NewNode("")
	conns := NewNode("Connections")
	conns.AddChild(NewNode("C", "OO", int64(20), int64(40)))
	conns.AddChild(NewNode("C", "OO", int64(40), int64(10)))
	root.AddChild(conns)
	pc.connections = BuildConnections(root)

	pc.objects[40] = NewNode("Deformer", int64(40), "morph\x00\x01Deformer", "BlendShape")
	pc.geometryMorphs[10] = &morphData{channels: []morphChannel{{name: "smile", channelID: 20}}}
	pc.geometryByID[10] = 0
	pc.out.Geometries = append(pc.out.Geometries, &scene.Geometry{
		MorphTargets: []scene.MorphTarget{{Name: "smile"}},
	})

	node := scene.NewNode("head")
	node.Mesh = 0
	pc.nodeByModel[30] = pc.out.AddNode(node)
	return pc
}

func TestMorphTrackCurveChannelFallback(t *testing.T) {
	pc := morphTestContext()

	// the DeformPercent curve rides an unexpected channel name
	cn := &animCurveNode{curves: map[string]*animCurve{
		"Y": {times: []float64{0, 1}, values: []float64{0, 50}},
	}}
	track, ok := pc.morphTrack(cn, 20)
	if !ok {
		t.Fatal("track not emitted")
	}
	if track.Path != scene.PathWeights || track.Stride != 1 {
		t.Fatalf("path %q stride %d", track.Path, track.Stride)
	}
	if len(track.Times) != 2 || track.Values[1] != 0.5 {
		t.Errorf("times %v values %v, want percent scaled to 0.5", track.Times, track.Values)
	}
}

func TestMorphTrackWithoutCurves(t *testing.T) {
	pc := morphTestContext()

	if _, ok := pc.morphTrack(&animCurveNode{curves: map[string]*animCurve{}}, 20); ok {
		t.Error("curve node without curves must not emit a track")
	}
}

func TestVectorTrackCarryForward(t *testing.T) {
	pc := &ParseContext{imp: NewImporter()}

	// Y axis has no sample at t=1 and t=2, its last value carries
	cn := &animCurveNode{
		defaults: mgl64.Vec3{0, 5, 0},
		curves: map[string]*animCurve{
			"X": {times: []float64{0, 1, 2}, values: []float64{10, 20, 30}},
			"Y": {times: []float64{0}, values: []float64{7}},
		},
	}

	track := pc.vectorTrack(cn, 0, "translation")
	if len(track.Times) != 3 {
		t.Fatalf("got %d keys, want 3", len(track.Times))
	}
	wantX := []float32{10, 20, 30}
	for k := range track.Times {
		if track.Values[k*3] != wantX[k] {
			t.Errorf("key %d X = %v, want %v", k, track.Values[k*3], wantX[k])
		}
		if track.Values[k*3+1] != 7 {
			t.Errorf("key %d Y = %v, want carried 7", k, track.Values[k*3+1])
		}
		// Z never sampled, stays at the curve node default
		if track.Values[k*3+2] != 0 {
			t.Errorf("key %d Z = %v, want 0", k, track.Values[k*3+2])
		}
	}
}
