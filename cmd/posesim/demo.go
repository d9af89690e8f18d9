package main

import (
	"math"

	"github.com/Carmen-Shannon/oxy-pose/common"
	"github.com/Carmen-Shannon/oxy-pose/engine/animation"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// demoClip builds a procedural walk cycle: the hips travel forward and bob, the spine sways and
// the upper arms and legs swing in opposition.
func demoClip(name string, keys int, rate float64) *animation.Clip {
	unit := r3.Vec{X: 1, Y: 1, Z: 1}
	swing := func(angle float64) animation.Transform {
		return animation.RotationTransform(quat.Number(r3.NewRotation(angle, r3.Vec{X: 1})))
	}

	bones := []animation.BoneID{
		animation.BoneHips, animation.BoneSpine,
		animation.BoneLeftUpperArm, animation.BoneRightUpperArm,
		animation.BoneLeftUpperLeg, animation.BoneRightUpperLeg,
	}
	channels := make([]animation.Channel, len(bones))
	for i, bone := range bones {
		channels[i] = animation.Channel{Bone: bone, Keys: make([]animation.Transform, keys)}
	}
	jaw := make([]float64, keys)

	for k := range keys {
		phase := 2 * math.Pi * float64(k) / float64(max(keys, 1))
		stride := 0.5 * math.Sin(phase)

		channels[0].Keys[k] = animation.NewTransform(
			r3.Vec{Z: 1.4 * float64(k) / rate, Y: 1 + 0.03*math.Abs(math.Sin(phase))},
			common.QuatIdentity(),
			unit,
		)
		channels[1].Keys[k] = animation.RotationTransform(quat.Number(r3.NewRotation(0.1*math.Sin(phase), r3.Vec{Y: 1})))
		channels[2].Keys[k] = swing(-stride)
		channels[3].Keys[k] = swing(stride)
		channels[4].Keys[k] = swing(stride)
		channels[5].Keys[k] = swing(-stride)
		jaw[k] = common.Clamp01(0.5 + 0.5*math.Sin(2*phase))
	}

	return &animation.Clip{
		Name:        name,
		FrameRate:   rate,
		KeyCount:    keys,
		Channels:    channels,
		Blendshapes: map[animation.BlendshapeID][]float64{animation.BlendshapeJawOpen: jaw},
	}
}
