package scene

import (
	"math"
	"testing"
)

func TestTrackSampleLinear(t *testing.T) {
	track := Track{
		Path:          PathTranslation,
		Interpolation: InterpolationLinear,
		Times:         []float32{0, 1, 3},
		Values:        []float32{0, 0, 0 /**/, 10, 0, 0 /**/, 10, 20, 0},
		Stride:        3,
	}

	out := make([]float32, 3)

	track.Sample(0.5, out)
	if out[0] != 5 || out[1] != 0 {
		t.Errorf("t=0.5: %v", out)
	}
	track.Sample(2, out)
	if out[0] != 10 || out[1] != 10 {
		t.Errorf("t=2: %v", out)
	}
}

func TestTrackSampleClamping(t *testing.T) {
	track := Track{
		Path:          PathScale,
		Interpolation: InterpolationLinear,
		Times:         []float32{1, 2},
		Values:        []float32{1, 1, 1 /**/, 2, 2, 2},
		Stride:        3,
	}

	out := make([]float32, 3)
	track.Sample(-5, out)
	if out[0] != 1 {
		t.Errorf("before first key: %v", out)
	}
	track.Sample(100, out)
	if out[0] != 2 {
		t.Errorf("past last key: %v", out)
	}
}

func TestTrackSampleStep(t *testing.T) {
	track := Track{
		Path:          PathWeights,
		Interpolation: InterpolationStep,
		Times:         []float32{0, 1},
		Values:        []float32{0, 1},
		Stride:        1,
	}

	out := make([]float32, 1)
	track.Sample(0.99, out)
	if out[0] != 0 {
		t.Errorf("step must hold the left key, got %v", out[0])
	}
	track.Sample(1, out)
	if out[0] != 1 {
		t.Errorf("at key 1: %v", out[0])
	}
}

func TestTrackSampleRotationSlerp(t *testing.T) {
	// identity to 90 degrees around Z, halfway must be 45 degrees
	s, c := math.Sincos(math.Pi / 4)
	track := Track{
		Path:          PathRotation,
		Interpolation: InterpolationLinear,
		Times:         []float32{0, 1},
		Values:        []float32{0, 0, 0, 1 /**/, 0, 0, float32(s), float32(c)},
		Stride:        4,
	}

	out := make([]float32, 4)
	track.Sample(0.5, out)

	s8, c8 := math.Sincos(math.Pi / 8)
	if math.Abs(float64(out[2])-s8) > 1e-5 || math.Abs(float64(out[3])-c8) > 1e-5 {
		t.Errorf("halfway quat = %v, want z=%v w=%v", out, s8, c8)
	}

	// slerp keeps unit length
	var l float64
	for _, v := range out {
		l += float64(v * v)
	}
	if math.Abs(l-1) > 1e-5 {
		t.Errorf("quat length^2 = %v", l)
	}
}

func TestTrackSampleRotationShortestPath(t *testing.T) {
	// the same orientation with flipped sign, interpolation must not
	// swing through the long arc
	track := Track{
		Path:          PathRotation,
		Interpolation: InterpolationLinear,
		Times:         []float32{0, 1},
		Values:        []float32{0, 0, 0, 1 /**/, 0, 0, 0, -1},
		Stride:        4,
	}

	out := make([]float32, 4)
	track.Sample(0.5, out)
	if math.Abs(float64(out[3])) < 0.999 {
		t.Errorf("halfway between q and -q must stay at the orientation, got %v", out)
	}
}

func TestTrackSampleCubicSpline(t *testing.T) {
	// one scalar channel, keys (0 -> 0) and (2 -> 4), zero tangents.
	// values pack as inTangent, value, outTangent per key.
	track := Track{
		Path:          PathWeights,
		Interpolation: InterpolationCubicSpline,
		Times:         []float32{0, 2},
		Values: []float32{
			0, 0, 0, // key 0
			0, 4, 0, // key 1
		},
		Stride: 1,
	}

	out := make([]float32, 1)
	track.Sample(0, out)
	if out[0] != 0 {
		t.Errorf("at key 0: %v", out[0])
	}
	track.Sample(2, out)
	if out[0] != 4 {
		t.Errorf("at key 1: %v", out[0])
	}
	// with zero tangents hermite reduces to smoothstep, f=0.5 gives
	// exactly half the span
	track.Sample(1, out)
	if out[0] != 2 {
		t.Errorf("midpoint = %v, want 2", out[0])
	}
}

func TestTrackSampleCubicSplineTangents(t *testing.T) {
	// constant value with matching nonzero tangents bows the curve
	track := Track{
		Path:          PathTranslation,
		Interpolation: InterpolationCubicSpline,
		Times:         []float32{0, 1},
		Values: []float32{
			0, 0, 0 /**/, 0, 0, 0 /**/, 1, 0, 0, // key 0: out tangent +x
			-1, 0, 0 /**/, 0, 0, 0 /**/, 0, 0, 0, // key 1: in tangent -x
		},
		Stride: 3,
	}

	out := make([]float32, 3)
	track.Sample(0.5, out)
	// s1(0.5) = 0.125, s3(0.5) = -0.125, td = 1
	if want := float32(0.125 - (-0.125)); math.Abs(float64(out[0]-want)) > 1e-6 {
		t.Errorf("x = %v, want %v", out[0], want)
	}
}

func TestClipRecalcDuration(t *testing.T) {
	clip := Clip{Tracks: []Track{
		{Times: []float32{0, 1.5}},
		{Times: []float32{0, 4}},
		{Times: nil},
	}}
	clip.RecalcDuration()
	if clip.Duration != 4 {
		t.Errorf("duration = %v, want 4", clip.Duration)
	}
}
