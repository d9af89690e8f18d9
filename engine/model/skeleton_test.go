package model

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-pose/common"
	"github.com/Carmen-Shannon/oxy-pose/engine/animation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestNewHumanoidSkeleton_ParentsPrecedeChildren(t *testing.T) {
	s := NewHumanoidSkeleton()
	require.Len(t, s.Bones, animation.BoneCount)
	for i, b := range s.Bones {
		assert.Less(t, int(b.ParentIndex), i, b.Name)
		assert.Equal(t, i, s.Index(b.ID))
	}
	assert.Equal(t, int32(-1), s.Bones[s.Index(animation.HipsBone)].ParentIndex)
}

func TestSkeleton_GlobalMatrixWalksParents(t *testing.T) {
	s := NewHumanoidSkeleton()
	head := s.Index(animation.BoneHead)

	p := common.TransformPoint(s.GlobalMatrix(head), r3.Vec{})
	// hips 1.0 + spine 0.1 + chest 0.12 + upper chest 0.12 + neck 0.15 + head 0.1
	assert.InDelta(t, 1.59, p.Y, 1e-9)
	assert.InDelta(t, 0, p.X, 1e-9)

	s.Armature.Position = r3.Vec{X: 2}
	p = common.TransformPoint(s.GlobalMatrix(head), r3.Vec{})
	assert.InDelta(t, 2, p.X, 1e-9)
}

func TestSkeleton_ApplyKeepsAbsentComponents(t *testing.T) {
	s := NewHumanoidSkeleton()
	rot := quat.Number(r3.NewRotation(math.Pi/2, r3.Vec{Y: 1}))

	f := animation.NewFrame(1)
	f.SetTransform(animation.BoneSpine, animation.RotationTransform(rot))
	arm := animation.Transform{Position: r3.Vec{Z: 3}, HasPosition: true}
	f.Armature = &arm
	s.Apply(f)

	spine := s.Bones[s.Index(animation.BoneSpine)].LocalTransform
	assert.InDelta(t, 0.1, spine.Position.Y, 1e-12)
	assert.InDelta(t, rot.Imag, spine.Rotation.Imag, 1e-12)
	assert.InDelta(t, rot.Jmag, spine.Rotation.Jmag, 1e-12)
	assert.Equal(t, 3.0, s.Armature.Position.Z)
	assert.Equal(t, 1.0, s.Armature.Rotation.Real)

	s.Apply(nil)
}

func TestSkeletonPool_CheckoutDispose(t *testing.T) {
	pool := NewSkeletonPool(WithPrealloc(1))

	h := pool.Checkout()
	require.NotNil(t, h.Skeleton())
	assert.Equal(t, 1, pool.Outstanding())

	h.Skeleton().Bones[0].LocalTransform.Position = r3.Vec{X: 42}
	assert.Equal(t, 0.0, pool.BindPose().Bones[0].LocalTransform.Position.X)

	h.Dispose()
	h.Dispose()
	assert.Equal(t, 0, pool.Outstanding())
	assert.Nil(t, h.Skeleton())

	again := pool.Checkout()
	assert.Equal(t, 0.0, again.Skeleton().Bones[0].LocalTransform.Position.X, "reused skeletons are reset to the bind pose")
	again.Dispose()

	var nilHandle *SkeletonHandle
	assert.Nil(t, nilHandle.Skeleton())
	nilHandle.Dispose()
}

func TestSkeletonPool_CustomBindPose(t *testing.T) {
	bind := &Skeleton{
		Bones:     []Bone{{Name: "Hips", ID: animation.BoneHips, ParentIndex: -1, LocalTransform: animation.IdentityTransform()}},
		BoneIndex: map[animation.BoneID]int32{animation.BoneHips: 0},
		Armature:  animation.IdentityTransform(),
	}
	pool := NewSkeletonPool(WithBindPose(bind))
	h := pool.Checkout()
	defer h.Dispose()
	assert.Len(t, h.Skeleton().Bones, 1)
	assert.Equal(t, -1, h.Skeleton().Index(animation.BoneHead))
}
