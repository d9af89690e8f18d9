package model

import (
	"maps"
	"slices"

	"github.com/Carmen-Shannon/oxy-pose/common"
	"github.com/Carmen-Shannon/oxy-pose/engine/animation"
	"gonum.org/v1/gonum/spatial/r3"
)

// --- Skeleton Types ---

// Bone represents a single bone in a skeleton hierarchy.
type Bone struct {
	// Name is the bone's identifier (for debugging and animation targeting).
	Name string

	// ID is the humanoid bone this node carries.
	ID animation.BoneID

	// ParentIndex is the index of the parent bone (-1 for bones hanging from the armature).
	ParentIndex int32

	// LocalTransform is the bone's transform relative to its parent.
	// Updated from frames during root motion evaluation.
	LocalTransform animation.Transform
}

// Skeleton represents a bind-pose bone hierarchy hanging from an armature node.
type Skeleton struct {
	// Bones is the array of all bones in the skeleton. Parents always precede their children.
	Bones []Bone

	// BoneIndex maps humanoid bone ids to their indices for quick lookup.
	BoneIndex map[animation.BoneID]int32

	// Armature is the local transform of the armature node the hierarchy hangs from.
	Armature animation.Transform
}

// humanoidParents lists the parent of every humanoid bone, -1 for the hips.
var humanoidParents = [animation.BoneCount]animation.BoneID{
	animation.BoneHips:          -1,
	animation.BoneSpine:         animation.BoneHips,
	animation.BoneChest:         animation.BoneSpine,
	animation.BoneUpperChest:    animation.BoneChest,
	animation.BoneNeck:          animation.BoneUpperChest,
	animation.BoneHead:          animation.BoneNeck,
	animation.BoneLeftShoulder:  animation.BoneUpperChest,
	animation.BoneLeftUpperArm:  animation.BoneLeftShoulder,
	animation.BoneLeftLowerArm:  animation.BoneLeftUpperArm,
	animation.BoneLeftHand:      animation.BoneLeftLowerArm,
	animation.BoneRightShoulder: animation.BoneUpperChest,
	animation.BoneRightUpperArm: animation.BoneRightShoulder,
	animation.BoneRightLowerArm: animation.BoneRightUpperArm,
	animation.BoneRightHand:     animation.BoneRightLowerArm,
	animation.BoneLeftUpperLeg:  animation.BoneHips,
	animation.BoneLeftLowerLeg:  animation.BoneLeftUpperLeg,
	animation.BoneLeftFoot:      animation.BoneLeftLowerLeg,
	animation.BoneLeftToes:      animation.BoneLeftFoot,
	animation.BoneRightUpperLeg: animation.BoneHips,
	animation.BoneRightLowerLeg: animation.BoneRightUpperLeg,
	animation.BoneRightFoot:     animation.BoneRightLowerLeg,
	animation.BoneRightToes:     animation.BoneRightFoot,
	animation.BoneLeftEye:       animation.BoneHead,
	animation.BoneRightEye:      animation.BoneHead,
	animation.BoneJaw:           animation.BoneHead,
}

// humanoidOffsets holds the bind-pose offset of every humanoid bone from its parent, in meters.
var humanoidOffsets = [animation.BoneCount]r3.Vec{
	animation.BoneHips:          {Y: 1.0},
	animation.BoneSpine:         {Y: 0.1},
	animation.BoneChest:         {Y: 0.12},
	animation.BoneUpperChest:    {Y: 0.12},
	animation.BoneNeck:          {Y: 0.15},
	animation.BoneHead:          {Y: 0.1},
	animation.BoneLeftShoulder:  {X: 0.05, Y: 0.1},
	animation.BoneLeftUpperArm:  {X: 0.1},
	animation.BoneLeftLowerArm:  {X: 0.28},
	animation.BoneLeftHand:      {X: 0.25},
	animation.BoneRightShoulder: {X: -0.05, Y: 0.1},
	animation.BoneRightUpperArm: {X: -0.1},
	animation.BoneRightLowerArm: {X: -0.28},
	animation.BoneRightHand:     {X: -0.25},
	animation.BoneLeftUpperLeg:  {X: 0.09, Y: -0.05},
	animation.BoneLeftLowerLeg:  {Y: -0.42},
	animation.BoneLeftFoot:      {Y: -0.42},
	animation.BoneLeftToes:      {Y: -0.06, Z: 0.12},
	animation.BoneRightUpperLeg: {X: -0.09, Y: -0.05},
	animation.BoneRightLowerLeg: {Y: -0.42},
	animation.BoneRightFoot:     {Y: -0.42},
	animation.BoneRightToes:     {Y: -0.06, Z: 0.12},
	animation.BoneLeftEye:       {X: 0.03, Y: 0.07, Z: 0.08},
	animation.BoneRightEye:      {X: -0.03, Y: 0.07, Z: 0.08},
	animation.BoneJaw:           {Y: 0.02, Z: 0.03},
}

// NewHumanoidSkeleton builds the default humanoid bind pose in canonical bone order
// with an identity armature.
//
// Returns:
//   - *Skeleton: the bind-pose skeleton
func NewHumanoidSkeleton() *Skeleton {
	s := &Skeleton{
		Bones:     make([]Bone, 0, animation.BoneCount),
		BoneIndex: make(map[animation.BoneID]int32, animation.BoneCount),
		Armature:  animation.IdentityTransform(),
	}
	for _, id := range animation.CanonicalBones() {
		parent := int32(-1)
		if p := humanoidParents[id]; p >= 0 {
			parent = s.BoneIndex[p]
		}
		s.BoneIndex[id] = int32(len(s.Bones))
		s.Bones = append(s.Bones, Bone{
			Name:           id.String(),
			ID:             id,
			ParentIndex:    parent,
			LocalTransform: animation.NewTransform(humanoidOffsets[id], common.QuatIdentity(), r3.Vec{X: 1, Y: 1, Z: 1}),
		})
	}
	return s
}

// Clone returns a deep copy of the skeleton.
func (s *Skeleton) Clone() *Skeleton {
	return &Skeleton{
		Bones:     slices.Clone(s.Bones),
		BoneIndex: maps.Clone(s.BoneIndex),
		Armature:  s.Armature,
	}
}

// Index returns the index of a humanoid bone, or -1 if the skeleton does not carry it.
func (s *Skeleton) Index(bone animation.BoneID) int {
	i, ok := s.BoneIndex[bone]
	if !ok {
		return -1
	}
	return int(i)
}

// Apply writes the transforms carried by frame onto the skeleton's local transforms.
// Only components present in the frame are overwritten, so a rotation-only key keeps
// the bind-pose offset of the bone.
//
// Parameters:
//   - frame: the frame to apply, may be nil
func (s *Skeleton) Apply(frame *animation.Frame) {
	if frame == nil {
		return
	}
	for i, bone := range frame.Bones {
		idx := s.Index(bone)
		if idx < 0 {
			continue
		}
		s.Bones[idx].LocalTransform = merge(s.Bones[idx].LocalTransform, frame.Transforms[i])
	}
	if frame.Armature != nil {
		s.Armature = merge(s.Armature, *frame.Armature)
	}
}

// ArmatureMatrix returns the local-to-global matrix of the armature node.
func (s *Skeleton) ArmatureMatrix() common.Mat4 {
	return s.Armature.Matrix()
}

// GlobalMatrix walks the parent chain of bone i up to the armature and returns
// its local-to-global matrix.
//
// Parameters:
//   - i: the bone index
//
// Returns:
//   - common.Mat4: the global matrix, or the armature matrix when i is out of range
func (s *Skeleton) GlobalMatrix(i int) common.Mat4 {
	m := common.Identity()
	for i >= 0 && i < len(s.Bones) {
		m = common.Mul4(s.Bones[i].LocalTransform.Matrix(), m)
		i = int(s.Bones[i].ParentIndex)
	}
	return common.Mul4(s.ArmatureMatrix(), m)
}

// merge overlays the components present in src onto dst.
func merge(dst, src animation.Transform) animation.Transform {
	if src.HasPosition {
		dst.Position, dst.HasPosition = src.Position, true
	}
	if src.HasRotation {
		dst.Rotation, dst.HasRotation = src.Rotation, true
	}
	if src.HasScale {
		dst.Scale, dst.HasScale = src.Scale, true
	}
	return dst
}
