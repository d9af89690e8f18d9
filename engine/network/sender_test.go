package network

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-pose/common"
	"github.com/Carmen-Shannon/oxy-pose/engine/animation"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

// clipOrderFrame carries the spine before the hips, the way a clip may list its channels.
func clipOrderFrame() *animation.Frame {
	f := animation.NewFrame(2)
	f.SetTransform(animation.BoneSpine, animation.NewTransform(r3.Vec{Y: 0.1}, yaw(20), r3.Vec{X: 1, Y: 1, Z: 1}))
	f.SetTransform(animation.BoneHips, animation.NewTransform(r3.Vec{X: 2, Y: 1}, yaw(5), r3.Vec{X: 1, Y: 1, Z: 1}))
	return f
}

func TestPoseSender_Sessions(t *testing.T) {
	s := NewPoseSender()
	assert.False(t, s.Active())
	assert.Equal(t, uuid.Nil, s.Session())

	first := s.StartPose()
	assert.NotEqual(t, uuid.Nil, first)
	assert.True(t, s.Active())

	s.StopPose()
	assert.False(t, s.Active())
	assert.Equal(t, uuid.Nil, s.Session())
	assert.Equal(t, first, s.LastSession())

	second := s.StartPose()
	assert.NotEqual(t, first, second)

	s.StopPose()
	s.StopPose()
	assert.Equal(t, second, s.LastSession(), "stopping twice keeps the last session")
}

func TestPoseSender_IdleSendsNothing(t *testing.T) {
	s := NewPoseSender()
	assert.Nil(t, s.GetPose(clipOrderFrame(), 0))
	assert.Empty(t, s.Encode(clipOrderFrame(), 0))
}

func TestPoseSender_ReprojectsToNetworkOrder(t *testing.T) {
	s := NewPoseSender()
	session := s.StartPose()

	pose := s.GetPose(clipOrderFrame(), 1.5)
	require.NotNil(t, pose)
	assert.Equal(t, session, pose.Session)
	assert.Equal(t, 1.5, pose.Timestamp)
	require.Len(t, pose.Bones, animation.BoneCount)

	assert.True(t, quatNear(yaw(5), pose.Bones[animation.BoneHips].Rotation, 1e-12))
	assert.Equal(t, r3.Vec{X: 2, Y: 1}, pose.Bones[animation.BoneHips].Position)
	assert.True(t, quatNear(yaw(20), pose.Bones[animation.BoneSpine].Rotation, 1e-12))

	missing := pose.Bones[animation.BoneHead]
	assert.Equal(t, common.QuatIdentity(), missing.Rotation)
	assert.Equal(t, r3.Vec{X: 1, Y: 1, Z: 1}, missing.Scale)
}

func TestPoseSender_CustomOrderAndToggles(t *testing.T) {
	s := NewPoseSender(
		WithBoneOrder(animation.BoneHips, animation.BoneSpine),
		WithSendPosition(false),
		WithSendScale(false),
	)
	s.StartPose()

	pose := s.GetPose(clipOrderFrame(), 0)
	require.Len(t, pose.Bones, 2)
	assert.False(t, pose.PositionEnabled)
	assert.True(t, pose.HasPosition(0))
	assert.False(t, pose.HasPosition(1))

	buf := s.Encode(clipOrderFrame(), 0)
	assert.Len(t, buf, 65)

	got, err := Decode(buf)
	require.NoError(t, err)
	assert.InDelta(t, 2, got.Bones[0].Position.X, 0.0005, "bone 0 position is always sent")
}

func TestPoseSender_SkipsFramesWithoutBones(t *testing.T) {
	s := NewPoseSender()
	s.StartPose()
	root := animation.IdentityTransform()
	assert.Nil(t, s.GetPose(&animation.Frame{Root: &root}, 0))
}
