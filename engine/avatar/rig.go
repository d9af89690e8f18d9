package avatar

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-pose/engine/animation"
	"github.com/Carmen-Shannon/oxy-pose/engine/model"
)

// Rig is a headless PoseInterpreter that writes applied frames onto a bind-pose Skeleton.
//
// The externally driven pose returned by Pose is held apart from the applied output. It stands for
// what the host shows when no clip is playing and defaults to the bind pose; blend effects read it as
// the pose to blend from and back to.
// Reads are safe from any goroutine; writes come from the owning avatar's tick.
type Rig struct {
	mu *sync.RWMutex

	// driven is the externally driven pose. A nil Root means the root follows the applied root.
	driven *animation.Frame
	bind   *animation.Frame

	skeleton    *model.Skeleton
	root        animation.Transform
	blendshapes [animation.BlendshapeCount]float64
	armature    string
	applied     uint64
}

var _ animation.PoseInterpreter = &Rig{}

// NewRig creates a Rig posed at the given skeleton's bind pose. A nil skeleton uses the default humanoid.
//
// Parameters:
//   - skeleton: the bind pose to start from, cloned
//
// Returns:
//   - *Rig: the new rig
func NewRig(skeleton *model.Skeleton) *Rig {
	if skeleton == nil {
		skeleton = model.NewHumanoidSkeleton()
	}
	r := &Rig{
		mu:       &sync.RWMutex{},
		skeleton: skeleton.Clone(),
		root:     animation.IdentityTransform(),
		armature: "Armature",
	}
	r.bind = r.snapshot()
	r.bind.Root = nil
	r.driven = r.bind.BeginMutation()
	return r
}

// SetDrivenPose replaces the externally driven pose. A nil frame restores the bind pose.
//
// Parameters:
//   - frame: the driven pose, copied
func (r *Rig) SetDrivenPose(frame *animation.Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if frame == nil {
		r.driven = r.bind.BeginMutation()
		return
	}
	r.driven = frame.BeginMutation()
	r.driven.Source = nil
	r.driven.ResetKeys = nil
}

func (r *Rig) ArmaturePath() (string, bool) {
	return r.armature, r.armature != ""
}

func (r *Rig) ApplyBone(bone animation.BoneID, t animation.Transform) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applied++
	if i := r.skeleton.Index(bone); i >= 0 {
		r.skeleton.Bones[i].LocalTransform = overlay(r.skeleton.Bones[i].LocalTransform, t)
	}
}

func (r *Rig) ApplyOther(bone animation.SpecialBone, t animation.Transform) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch bone {
	case animation.SpecialRoot:
		r.root = overlay(r.root, t)
	case animation.SpecialArmature:
		r.skeleton.Armature = overlay(r.skeleton.Armature, t)
	}
}

func (r *Rig) ApplyBlendshape(id animation.BlendshapeID, weight float64) {
	if int(id) < 0 || int(id) >= animation.BlendshapeCount {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blendshapes[id] = weight
}

// ApplyResetPose restores the bone named by path. Paths that name no humanoid bone are ignored.
func (r *Rig) ApplyResetPose(path string, t animation.Transform) {
	bone, ok := animation.BoneByName(path)
	if !ok {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.skeleton.Index(bone); i >= 0 {
		r.skeleton.Bones[i].LocalTransform = overlay(r.skeleton.Bones[i].LocalTransform, t)
	}
}

// Pose returns a copy of the externally driven pose. Its root is the applied root unless the driven
// pose carries its own.
func (r *Rig) Pose() *animation.Frame {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f := r.driven.BeginMutation()
	if f.Root == nil {
		root := r.root
		f.Root = &root
	}
	return f
}

// Applied returns a snapshot of every bone, the root and the blendshapes written onto the rig.
func (r *Rig) Applied() *animation.Frame {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot()
}

func (r *Rig) snapshot() *animation.Frame {
	f := animation.NewFrame(len(r.skeleton.Bones))
	for _, b := range r.skeleton.Bones {
		f.Bones = append(f.Bones, b.ID)
		f.Transforms = append(f.Transforms, b.LocalTransform)
	}
	root := r.root
	f.Root = &root
	arm := r.skeleton.Armature
	f.Armature = &arm
	f.Blendshapes = r.blendshapes
	return f
}

// Root returns the transform of the root node.
func (r *Rig) Root() animation.Transform {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.root
}

// Blendshape returns the current weight of a blendshape.
func (r *Rig) Blendshape(id animation.BlendshapeID) float64 {
	if int(id) < 0 || int(id) >= animation.BlendshapeCount {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.blendshapes[id]
}

// BonesApplied returns how many bone writes the rig has received.
func (r *Rig) BonesApplied() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.applied
}

// overlay writes the components present in src over dst.
func overlay(dst, src animation.Transform) animation.Transform {
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
