package simulation

import (
	"math"

	"github.com/Carmen-Shannon/oxy-pose/common"
	"github.com/Carmen-Shannon/oxy-pose/engine/animation"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// walkClip builds a clip whose hips move one unit along +X per key and whose spine turns one degree
// per key starting at spineDeg.
func walkClip(name string, keys int, rate, spineDeg float64) *animation.Clip {
	hips := make([]animation.Transform, keys)
	spine := make([]animation.Transform, keys)
	for i := range keys {
		hips[i] = animation.NewTransform(r3.Vec{X: float64(i), Y: 1}, common.QuatIdentity(), r3.Vec{X: 1, Y: 1, Z: 1})
		spine[i] = animation.RotationTransform(yaw(spineDeg + float64(i)))
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

func yaw(deg float64) quat.Number {
	return quat.Number(r3.NewRotation(deg*math.Pi/180, r3.Vec{Y: 1}))
}

func idlePose() *animation.Frame {
	f := animation.NewFrame(2)
	f.SetTransform(animation.BoneHips, animation.NewTransform(r3.Vec{X: 100, Y: 1}, common.QuatIdentity(), r3.Vec{X: 1, Y: 1, Z: 1}))
	f.SetTransform(animation.BoneSpine, animation.RotationTransform(yaw(-60)))
	return f
}

func hipsX(f *animation.Frame) float64 {
	t, _ := f.Transform(animation.BoneHips)
	return t.Position.X
}

func spineRot(f *animation.Frame) quat.Number {
	t, _ := f.Transform(animation.BoneSpine)
	return t.Rotation
}

func quatNear(a, b quat.Number, tol float64) bool {
	return math.Abs(math.Abs(common.QuatDot(common.NormalizeQuat(a), common.NormalizeQuat(b)))-1) < tol
}

// stubInterpreter records what is written to it and serves a fixed avatar pose.
type stubInterpreter struct {
	pose  *animation.Frame
	bones int
	roots int
}

func (s *stubInterpreter) ArmaturePath() (string, bool) { return "", false }
func (s *stubInterpreter) ApplyBone(_ animation.BoneID, _ animation.Transform) { s.bones++ }
func (s *stubInterpreter) ApplyOther(b animation.SpecialBone, _ animation.Transform) {
	if b == animation.SpecialRoot {
		s.roots++
	}
}
func (s *stubInterpreter) ApplyBlendshape(_ animation.BlendshapeID, _ float64) {}
func (s *stubInterpreter) ApplyResetPose(_ string, _ animation.Transform) {}
func (s *stubInterpreter) Pose() *animation.Frame { return s.pose }

// eventLog collects sampler events in order.
type eventLog struct {
	events []string
	frames []*animation.Frame
}

func (l *eventLog) attach(s SimulationSampler) {
	s.OnQueueStart(func() { l.events = append(l.events, "queue-start") })
	s.OnQueueEnd(func() { l.events = append(l.events, "queue-end") })
	s.OnAnimationStart(func(c *animation.Clip) { l.events = append(l.events, "start:"+c.Name) })
	s.OnAnimationEnd(func(c *animation.Clip) { l.events = append(l.events, "end:"+c.Name) })
	s.OnFramePlayed(func(f *animation.Frame) { l.frames = append(l.frames, f) })
}

func (l *eventLog) count(event string) int {
	n := 0
	for _, e := range l.events {
		if e == event {
			n++
		}
	}
	return n
}

// run ticks s until it goes idle, giving up after limit ticks.
func run(s SimulationSampler, dt float64, limit int) int {
	ticks := 0
	for s.IsPlaying() && ticks < limit {
		s.Update(dt)
		ticks++
	}
	return ticks
}
