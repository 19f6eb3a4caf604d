package fbx

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/mogaika/sceneimport/scene"
	"github.com/mogaika/sceneimport/utils"
)

// FBX stores keyframe times in KTime units, 1/46186158000 of a second.
const ktimePerSecond = 46186158000.0

// raw keys are merged on the union of all axis timestamps, two
// timestamps closer than this collapse into one
const timeEpsilon = 1e-7

type animCurve struct {
	times  []float64 // seconds
	values []float64
}

// animCurveNode bundles the per-axis curves driving one property.
// Scalar properties (DeformPercent) use only the "X" slot.
type animCurveNode struct {
	id       int64
	curves   map[string]*animCurve
	defaults mgl64.Vec3
}

func (pc *ParseContext) parseAnimations() {
	curves := pc.parseAnimCurves()
	curveNodes := pc.parseAnimCurveNodes(curves)

	for _, stackID := range pc.sortedObjectIDs("AnimationStack") {
		stack := pc.objects[stackID]

		clip := &scene.Clip{Name: pc.objectName(stack)}
		for _, layerRel := range pc.connections.ChildrenOf(stackID) {
			layer := pc.objects[layerRel.ID]
			if layer == nil || layer.Name != "AnimationLayer" {
				continue
			}
			for _, cnRel := range pc.connections.ChildrenOf(layerRel.ID) {
				cn := curveNodes[cnRel.ID]
				if cn == nil {
					continue
				}
				pc.emitTracks(clip, cn)
			}
		}

		if len(clip.Tracks) == 0 {
			continue
		}
		clip.RecalcDuration()
		pc.out.Clips = append(pc.out.Clips, clip)
	}
}

func (pc *ParseContext) parseAnimCurves() map[int64]*animCurve {
	curves := make(map[int64]*animCurve)
	for id, obj := range pc.objects {
		if obj.Name != "AnimationCurve" {
			continue
		}
		keyTimes := Int64Slice(obj.Get("KeyTime").prop0())
		keyValues := obj.ChildFloats("KeyValueFloat")
		if len(keyTimes) == 0 || len(keyTimes) != len(keyValues) {
			if len(keyTimes) != 0 || len(keyValues) != 0 {
				pc.warnf("animation curve %d has %d times but %d values, skipped", id, len(keyTimes), len(keyValues))
			}
			continue
		}

		curve := &animCurve{
			times:  make([]float64, len(keyTimes)),
			values: keyValues,
		}
		for i, kt := range keyTimes {
			curve.times[i] = float64(kt) / ktimePerSecond
		}
		curves[id] = curve
	}
	return curves
}

func (pc *ParseContext) parseAnimCurveNodes(curves map[int64]*animCurve) map[int64]*animCurveNode {
	nodes := make(map[int64]*animCurveNode)
	for id, obj := range pc.objects {
		if obj.Name != "AnimationCurveNode" {
			continue
		}
		props := obj.Props()
		cn := &animCurveNode{
			id:     id,
			curves: make(map[string]*animCurve),
			defaults: mgl64.Vec3{
				props.Float("d|X", 0),
				props.Float("d|Y", 0),
				props.Float("d|Z", 0),
			},
		}
		for _, rel := range pc.connections.ChildrenOf(id) {
			curve := curves[rel.ID]
			if curve == nil {
				continue
			}
			switch rel.Property {
			case "d|X", "d|DeformPercent":
				cn.curves["X"] = curve
			case "d|Y":
				cn.curves["Y"] = curve
			case "d|Z":
				cn.curves["Z"] = curve
			}
		}
		if len(cn.curves) != 0 {
			nodes[id] = cn
		}
	}
	return nodes
}

// emitTracks resolves what the curve node drives (a model transform
// channel or a morph weight) and appends the resulting tracks.
func (pc *ParseContext) emitTracks(clip *scene.Clip, cn *animCurveNode) {
	for _, rel := range pc.connections.ParentsOf(cn.id) {
		target := pc.objects[rel.ID]
		if target == nil {
			continue
		}
		switch {
		case target.Name == "Model":
			nodeIndex, ok := pc.nodeByModel[rel.ID]
			if !ok {
				continue
			}
			switch rel.Property {
			case "Lcl Translation":
				clip.Tracks = append(clip.Tracks, pc.vectorTrack(cn, nodeIndex, scene.PathTranslation))
			case "Lcl Scaling":
				clip.Tracks = append(clip.Tracks, pc.vectorTrack(cn, nodeIndex, scene.PathScale))
			case "Lcl Rotation":
				td := readTransformData(target.Props())
				clip.Tracks = append(clip.Tracks, pc.rotationTrack(cn, nodeIndex, &td))
			}
		case target.Name == "Deformer" && target.AttrType() == "BlendShapeChannel":
			if track, ok := pc.morphTrack(cn, rel.ID); ok {
				clip.Tracks = append(clip.Tracks, track)
			}
		}
	}
}

// sampleAxes evaluates every axis of the curve node on the union of the
// axis timestamps, carrying the previous value forward where an axis
// has no key.
func (cn *animCurveNode) sampleAxes() (times []float64, samples []mgl64.Vec3) {
	axes := [3]*animCurve{cn.curves["X"], cn.curves["Y"], cn.curves["Z"]}

	var all []float64
	for _, c := range axes {
		if c != nil {
			all = append(all, c.times...)
		}
	}
	sort.Float64s(all)
	for _, t := range all {
		if len(times) == 0 || t-times[len(times)-1] > timeEpsilon {
			times = append(times, t)
		}
	}

	cursors := [3]curveCursor{
		{c: axes[0], value: cn.defaults[0]},
		{c: axes[1], value: cn.defaults[1]},
		{c: axes[2], value: cn.defaults[2]},
	}
	samples = make([]mgl64.Vec3, len(times))
	for i, t := range times {
		for a := 0; a < 3; a++ {
			samples[i][a] = cursors[a].advance(t)
		}
	}
	return times, samples
}

type curveCursor struct {
	c     *animCurve
	i     int
	value float64
}

func (cc *curveCursor) advance(t float64) float64 {
	if cc.c == nil {
		return cc.value
	}
	for cc.i < len(cc.c.times) && cc.c.times[cc.i] <= t+timeEpsilon {
		cc.value = cc.c.values[cc.i]
		cc.i++
	}
	return cc.value
}

func (pc *ParseContext) vectorTrack(cn *animCurveNode, node scene.NodeIndex, path scene.TrackPath) scene.Track {
	times, samples := cn.sampleAxes()

	track := scene.Track{
		Node:          node,
		Path:          path,
		Interpolation: scene.InterpolationLinear,
		Times:         make([]float32, len(times)),
		Values:        make([]float32, len(times)*3),
		Stride:        3,
	}
	for i, t := range times {
		track.Times[i] = float32(t)
		track.Values[i*3+0] = float32(samples[i][0])
		track.Values[i*3+1] = float32(samples[i][1])
		track.Values[i*3+2] = float32(samples[i][2])
	}
	return track
}

// rotationTrack converts Euler keys to quaternions. Axis steps of 180
// degrees or more are unrolled by injecting interpolated Euler
// substeps, otherwise the quaternion short path would reverse the
// turn. Pre/post rotations fold in per sample, which commutes with the
// interpolation since they are constant.
func (pc *ParseContext) rotationTrack(cn *animCurveNode, node scene.NodeIndex, td *transformData) scene.Track {
	times, samples := cn.sampleAxes()

	qPre := utils.EulerToQuat(utils.DegToRadV3(td.preRotation), utils.RotationOrderXYZ)
	qPostInv := utils.EulerToQuat(utils.DegToRadV3(td.postRotation), utils.RotationOrderXYZ).Inverse()

	var outTimes []float64
	var quats []mgl64.Quat

	var prevT float64
	var prevE mgl64.Vec3
	for i, t := range times {
		e := utils.DegToRadV3(samples[i])

		if i > 0 {
			maxDelta := 0.0
			for a := 0; a < 3; a++ {
				if d := math.Abs(e[a] - prevE[a]); d > maxDelta {
					maxDelta = d
				}
			}
			if maxDelta >= math.Pi {
				steps := int(math.Ceil(maxDelta / math.Pi))
				for s := 1; s < steps; s++ {
					f := float64(s) / float64(steps)
					eSub := prevE.Add(e.Sub(prevE).Mul(f))
					outTimes = append(outTimes, prevT+(t-prevT)*f)
					quats = append(quats, utils.EulerToQuat(eSub, td.rotationOrder))
				}
			}
		}

		outTimes = append(outTimes, t)
		quats = append(quats, utils.EulerToQuat(e, td.rotationOrder))
		prevT, prevE = t, e
	}

	track := scene.Track{
		Node:          node,
		Path:          scene.PathRotation,
		Interpolation: scene.InterpolationLinear,
		Times:         make([]float32, len(outTimes)),
		Values:        make([]float32, len(outTimes)*4),
		Stride:        4,
	}
	var prevQ mgl64.Quat
	for i, t := range outTimes {
		q := qPre.Mul(quats[i]).Mul(qPostInv)
		// keep the sign continuous so linear consumers do not flip
		if i > 0 && prevQ.Dot(q) < 0 {
			q = q.Scale(-1)
		}
		prevQ = q

		track.Times[i] = float32(t)
		track.Values[i*4+0] = float32(q.V[0])
		track.Values[i*4+1] = float32(q.V[1])
		track.Values[i*4+2] = float32(q.V[2])
		track.Values[i*4+3] = float32(q.W)
	}
	return track
}

// morphTrack maps a DeformPercent curve (0..100) onto the morph weight
// slot of the geometry the blend-shape channel belongs to.
func (pc *ParseContext) morphTrack(cn *animCurveNode, channelID int64) (scene.Track, bool) {
	geoID, channelIndex, ok := pc.findMorphChannel(channelID)
	if !ok {
		pc.warnf("animated blend-shape channel %d is not bound to any geometry", channelID)
		return scene.Track{}, false
	}

	geoIndex, ok := pc.geometryByID[geoID]
	if !ok {
		return scene.Track{}, false
	}
	node := scene.NoNode
	for _, nodeIndex := range pc.nodeByModel {
		if pc.out.Node(nodeIndex).Mesh == geoIndex {
			node = nodeIndex
			break
		}
	}
	if node == scene.NoNode {
		return scene.Track{}, false
	}

	targets := len(pc.out.Geometries[geoIndex].MorphTargets)
	if channelIndex >= targets {
		return scene.Track{}, false
	}

	curve := cn.curves["X"]
	if curve == nil {
		// some exporters attach the DeformPercent curve under another
		// channel name, take whatever the node carries
		for _, c := range cn.curves {
			curve = c
			break
		}
	}
	if curve == nil {
		pc.warnf("blend-shape channel %d has no animation curve, skipped", channelID)
		return scene.Track{}, false
	}
	track := scene.Track{
		Node:          node,
		Path:          scene.PathWeights,
		Interpolation: scene.InterpolationLinear,
		Times:         make([]float32, len(curve.times)),
		Values:        make([]float32, len(curve.times)*targets),
		Stride:        targets,
	}
	for i, t := range curve.times {
		track.Times[i] = float32(t)
		track.Values[i*targets+channelIndex] = float32(curve.values[i] / 100.0)
	}
	return track, true
}

// findMorphChannel walks channel -> blend-shape deformer -> geometry
// and returns the channel's morph target index on that geometry.
func (pc *ParseContext) findMorphChannel(channelID int64) (geoID int64, channelIndex int, ok bool) {
	for _, rel := range pc.connections.ParentsOf(channelID) {
		deformer := pc.objects[rel.ID]
		if deformer == nil || deformer.Name != "Deformer" || deformer.AttrType() != "BlendShape" {
			continue
		}
		for _, geoRel := range pc.connections.ParentsOf(rel.ID) {
			morph, found := pc.geometryMorphs[geoRel.ID]
			if !found {
				continue
			}
			for i, ch := range morph.channels {
				if ch.channelID == channelID {
					return geoRel.ID, i, true
				}
			}
		}
	}
	return 0, 0, false
}
