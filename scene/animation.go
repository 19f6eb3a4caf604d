package scene

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

type TrackPath string

const (
	PathTranslation TrackPath = "translation"
	PathRotation    TrackPath = "rotation"
	PathScale       TrackPath = "scale"
	PathWeights     TrackPath = "weights"
)

type Interpolation string

const (
	InterpolationStep        Interpolation = "STEP"
	InterpolationLinear      Interpolation = "LINEAR"
	InterpolationCubicSpline Interpolation = "CUBICSPLINE"
)

// Track is a keyframe channel targeting one node. Values is flattened:
// Stride components per key, except CUBICSPLINE which packs
// (inTangent, value, outTangent) = 3*Stride components per key.
type Track struct {
	Node NodeIndex
	Path TrackPath

	Interpolation Interpolation
	Times         []float32
	Values        []float32
	Stride        int
}

type Clip struct {
	Name     string
	Duration float32
	Tracks   []Track
}

func (c *Clip) RecalcDuration() {
	c.Duration = 0
	for i := range c.Tracks {
		if times := c.Tracks[i].Times; len(times) != 0 {
			if end := times[len(times)-1]; end > c.Duration {
				c.Duration = end
			}
		}
	}
}

func (t *Track) KeyCount() int { return len(t.Times) }

// value returns the Stride components of key k, skipping over packed
// tangents for cubic spline tracks.
func (t *Track) value(k int) []float32 {
	if t.Interpolation == InterpolationCubicSpline {
		base := k*t.Stride*3 + t.Stride
		return t.Values[base : base+t.Stride]
	}
	return t.Values[k*t.Stride : (k+1)*t.Stride]
}

func (t *Track) inTangent(k int) []float32 {
	base := k * t.Stride * 3
	return t.Values[base : base+t.Stride]
}

func (t *Track) outTangent(k int) []float32 {
	base := k*t.Stride*3 + t.Stride*2
	return t.Values[base : base+t.Stride]
}

// Sample evaluates the track at the given time into out, which must be
// Stride long. Before the first key the first value is used, past the
// last key the last value.
func (t *Track) Sample(time float32, out []float32) {
	n := len(t.Times)
	if n == 0 {
		return
	}
	if time <= t.Times[0] {
		copy(out, t.value(0))
		return
	}
	if time >= t.Times[n-1] {
		copy(out, t.value(n-1))
		return
	}

	// first key strictly greater than time
	hi := sort.Search(n, func(i int) bool { return t.Times[i] > time })
	lo := hi - 1

	td := t.Times[hi] - t.Times[lo]
	f := (time - t.Times[lo]) / td

	switch t.Interpolation {
	case InterpolationStep:
		copy(out, t.value(lo))
	case InterpolationCubicSpline:
		t.sampleHermite(lo, hi, f, td, out)
		if t.Path == PathRotation && t.Stride == 4 {
			normalizeQuat(out)
		}
	default:
		a, b := t.value(lo), t.value(hi)
		if t.Path == PathRotation && t.Stride == 4 {
			slerpInto(a, b, f, out)
		} else {
			for i := range out {
				out[i] = a[i] + (b[i]-a[i])*f
			}
		}
	}
}

// sampleHermite applies the two-point Hermite basis over the
// normalized interval fraction, tangents scaled by the keyframe time
// delta.
func (t *Track) sampleHermite(lo, hi int, f, td float32, out []float32) {
	f2 := f * f
	f3 := f2 * f

	s0 := 2*f3 - 3*f2 + 1
	s1 := f3 - 2*f2 + f
	s2 := -2*f3 + 3*f2
	s3 := f3 - f2

	p0 := t.value(lo)
	m0 := t.outTangent(lo)
	p1 := t.value(hi)
	m1 := t.inTangent(hi)

	for i := range out {
		out[i] = s0*p0[i] + s1*m0[i]*td + s2*p1[i] + s3*m1[i]*td
	}
}

func normalizeQuat(q []float32) {
	l := float32(math.Sqrt(float64(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])))
	if l == 0 {
		q[0], q[1], q[2], q[3] = 0, 0, 0, 1
		return
	}
	for i := range q {
		q[i] /= l
	}
}

// slerpInto interpolates two xyzw quaternions.
func slerpInto(a, b []float32, f float32, out []float32) {
	qa := mgl32.Quat{W: a[3], V: mgl32.Vec3{a[0], a[1], a[2]}}
	qb := mgl32.Quat{W: b[3], V: mgl32.Vec3{b[0], b[1], b[2]}}
	if qa.Dot(qb) < 0 {
		qb = qb.Scale(-1)
	}
	q := mgl32.QuatSlerp(qa, qb, f)
	out[0], out[1], out[2], out[3] = q.V[0], q.V[1], q.V[2], q.W
}
