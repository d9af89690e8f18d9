package effect

import (
	"math"

	"github.com/Carmen-Shannon/oxy-pose/common"
	"github.com/Carmen-Shannon/oxy-pose/engine/animation"
	"github.com/Carmen-Shannon/oxy-pose/engine/model"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// lineClip builds a clip whose hips walk along +X one unit per key while the spine turns one degree per key.
func lineClip(name string, keys int, rate float64) *animation.Clip {
	hips := make([]animation.Transform, keys)
	spine := make([]animation.Transform, keys)
	for i := range keys {
		hips[i] = animation.NewTransform(r3.Vec{X: float64(i), Y: 1}, common.QuatIdentity(), r3.Vec{X: 1, Y: 1, Z: 1})
		spine[i] = animation.RotationTransform(yaw(float64(i)))
	}
	return &animation.Clip{
		Name:      name,
		FrameRate: rate,
		KeyCount:  keys,
		Channels: []animation.Channel{
			{Bone: animation.BoneHips, Keys: hips},
			{Bone: animation.BoneSpine, Keys: spine},
		},
	}
}

// posePose returns an externally driven pose with the hips at x and the spine turned by deg degrees.
func posePose(x, deg float64) *animation.Frame {
	f := animation.NewFrame(2)
	f.SetTransform(animation.BoneHips, animation.NewTransform(r3.Vec{X: x, Y: 1}, common.QuatIdentity(), r3.Vec{X: 1, Y: 1, Z: 1}))
	f.SetTransform(animation.BoneSpine, animation.RotationTransform(yaw(deg)))
	return f
}

func yaw(deg float64) quat.Number {
	return quat.Number(r3.NewRotation(deg*math.Pi/180, r3.Vec{Y: 1}))
}

func hipsX(f *animation.Frame) float64 {
	t, _ := f.Transform(animation.BoneHips)
	return t.Position.X
}

func spineRot(f *animation.Frame) quat.Number {
	t, _ := f.Transform(animation.BoneSpine)
	return t.Rotation
}

// fakeAuthority is a scripted Authority with a real queue and slot list.
type fakeAuthority struct {
	pose    *animation.Frame
	queue   []*animation.Clip
	slots   []*animation.Clip
	pool    model.SkeletonPool
	started []bool
}

func (a *fakeAuthority) StartNextClip(additive bool) bool {
	if len(a.queue) == 0 {
		return false
	}
	clip := a.queue[0]
	a.queue = a.queue[1:]
	if additive {
		a.slots = append(a.slots, clip)
	} else {
		a.slots = []*animation.Clip{clip}
	}
	a.started = append(a.started, additive)
	return true
}

func (a *fakeAuthority) AvatarPose() *animation.Frame { return a.pose }
func (a *fakeAuthority) Queue() []*animation.Clip { return a.queue }

func (a *fakeAuthority) Clip(slot int) *animation.Clip {
	if slot < 0 || slot >= len(a.slots) {
		return nil
	}
	return a.slots[slot]
}

func (a *fakeAuthority) CreateSampler() animation.ClipSampler { return animation.NewClipSampler() }

func (a *fakeAuthority) Avatar() *model.SkeletonHandle {
	if a.pool == nil {
		return nil
	}
	return a.pool.Checkout()
}

func quatNear(a, b quat.Number, tol float64) bool {
	return math.Abs(math.Abs(common.QuatDot(common.NormalizeQuat(a), common.NormalizeQuat(b)))-1) < tol
}
