package gltf

import (
	"github.com/mogaika/sceneimport/scene"
)

// assembleAnimations converts every animation into a clip. Channel
// failures degrade to skipped tracks, the clip keeps its siblings.
func (pc *ParseContext) assembleAnimations() {
	for i := range pc.doc.Animations {
		src := &pc.doc.Animations[i]

		if clip := pc.pluginAnimation(i, src); clip != nil {
			pc.out.Clips = append(pc.out.Clips, clip)
			continue
		}

		clip := &scene.Clip{Name: src.Name}
		for ci := range src.Channels {
			track, err := pc.buildTrack(src, &src.Channels[ci])
			if err != nil {
				pc.warnf("animation %d channel %d failed: %v", i, ci, err)
				continue
			}
			if track != nil {
				clip.Tracks = append(clip.Tracks, *track)
			}
		}
		if len(clip.Tracks) == 0 {
			continue
		}
		clip.RecalcDuration()
		pc.out.Clips = append(pc.out.Clips, clip)
	}
}

func (pc *ParseContext) buildTrack(anim *Animation, channel *AnimationChannel) (*scene.Track, error) {
	if channel.Target.Node == nil {
		// extension-targeted channels (animation pointer) are skipped
		return nil, nil
	}
	nodeDoc := *channel.Target.Node
	if nodeDoc < 0 || nodeDoc >= len(pc.nodeIndex) {
		pc.warnf("animation channel targets missing node %d", nodeDoc)
		return nil, nil
	}
	if channel.Sampler < 0 || channel.Sampler >= len(anim.Samplers) {
		pc.warnf("animation channel references missing sampler %d", channel.Sampler)
		return nil, nil
	}
	sampler := &anim.Samplers[channel.Sampler]

	input, err := pc.accessor(sampler.Input)
	if err != nil {
		return nil, err
	}
	output, err := pc.accessor(sampler.Output)
	if err != nil {
		return nil, err
	}

	track := &scene.Track{
		Node:          pc.nodeIndex[nodeDoc],
		Interpolation: scene.InterpolationLinear,
	}
	switch sampler.Interpolation {
	case "STEP":
		track.Interpolation = scene.InterpolationStep
	case "CUBICSPLINE":
		track.Interpolation = scene.InterpolationCubicSpline
	}

	switch channel.Target.Path {
	case "translation":
		track.Path, track.Stride = scene.PathTranslation, 3
	case "rotation":
		track.Path, track.Stride = scene.PathRotation, 4
	case "scale":
		track.Path, track.Stride = scene.PathScale, 3
	case "weights":
		track.Path = scene.PathWeights
	default:
		pc.warnf("animation path %q unsupported, channel skipped", channel.Target.Path)
		return nil, nil
	}

	keys := input.Count
	if keys == 0 {
		return nil, nil
	}
	valuesPerKey := 1
	if track.Interpolation == scene.InterpolationCubicSpline {
		valuesPerKey = 3
	}

	if track.Path == scene.PathWeights {
		track.Stride = output.scalars() / (keys * valuesPerKey)
		if track.Stride == 0 {
			return nil, nil
		}
	}
	if output.scalars() < keys*valuesPerKey*track.Stride {
		pc.warnf("animation sampler output too short: %d scalars for %d keys", output.scalars(), keys)
		return nil, nil
	}

	track.Times = make([]float32, keys)
	copy(track.Times, input.Floats)
	track.Values = make([]float32, keys*valuesPerKey*track.Stride)
	copy(track.Values, output.Floats)
	return track, nil
}
