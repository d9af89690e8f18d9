package network

import (
	"math"

	"github.com/Carmen-Shannon/oxy-pose/common"
	"github.com/Carmen-Shannon/oxy-pose/engine/animation"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

func yaw(deg float64) quat.Number {
	return quat.Number(r3.NewRotation(deg*math.Pi/180, r3.Vec{Y: 1}))
}

func quatNear(a, b quat.Number, tol float64) bool {
	return math.Abs(math.Abs(common.QuatDot(common.NormalizeQuat(a), common.NormalizeQuat(b)))-1) < tol
}

// twoBoneOrder is the network order used by receiver tests.
var twoBoneOrder = []animation.BoneID{animation.BoneHips, animation.BoneSpine}

// markerPose builds a two bone pose whose hips sit at x and whose spine is turned by deg degrees.
func markerPose(session uuid.UUID, x, deg float64) *NetworkedPose {
	return &NetworkedPose{
		Session:         session,
		PositionEnabled: true,
		Bones: []BonePose{
			{Rotation: common.QuatIdentity(), Position: r3.Vec{X: x, Y: 1}, Scale: r3.Vec{X: 1, Y: 1, Z: 1}},
			{Rotation: yaw(deg), Position: r3.Vec{Y: 0.1}, Scale: r3.Vec{X: 1, Y: 1, Z: 1}},
		},
	}
}

func hipsX(f *animation.Frame) float64 {
	t, _ := f.Transform(animation.BoneHips)
	return t.Position.X
}

func spineRot(f *animation.Frame) quat.Number {
	t, _ := f.Transform(animation.BoneSpine)
	return t.Rotation
}

// receiverLog counts receiver events.
type receiverLog struct {
	starts, ends int
	frames       []*animation.Frame
}

func (l *receiverLog) attach(r PoseReceiver) {
	r.OnQueueStart(func() { l.starts++ })
	r.OnQueueEnd(func() { l.ends++ })
	r.OnFramePlayed(func(f *animation.Frame) { l.frames = append(l.frames, f) })
}
