package animation

import (
	"math"

	"github.com/Carmen-Shannon/oxy-pose/common"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// rampClip builds a clip whose hips X position equals the key index, which makes
// the sampled key easy to read back from a frame.
func rampClip(name string, keys int, rate float64) *Clip {
	hips := make([]Transform, keys)
	spine := make([]Transform, keys)
	jaw := make([]float64, keys)
	for i := range keys {
		hips[i] = NewTransform(r3.Vec{X: float64(i)}, common.QuatIdentity(), r3.Vec{X: 1, Y: 1, Z: 1})
		spine[i] = RotationTransform(quat.Number(r3.NewRotation(float64(i)*math.Pi/180, r3.Vec{Y: 1})))
		jaw[i] = float64(i) / float64(max(keys, 1))
	}
	return &Clip{
		Name:      name,
		FrameRate: rate,
		KeyCount:  keys,
		Channels: []Channel{
			{Bone: BoneHips, Keys: hips},
			{Bone: BoneSpine, Keys: spine},
		},
		Blendshapes: map[BlendshapeID][]float64{BlendshapeJawOpen: jaw},
		ResetPose:   map[string]Transform{"Armature/Tail": IdentityTransform()},
	}
}

func keyOf(f *Frame) int {
	t, _ := f.Transform(BoneHips)
	return int(math.Round(t.Position.X))
}
