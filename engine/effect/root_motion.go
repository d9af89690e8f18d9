package effect

import (
	"github.com/Carmen-Shannon/oxy-pose/common"
	"github.com/Carmen-Shannon/oxy-pose/engine/animation"
	"github.com/Carmen-Shannon/oxy-pose/engine/model"
	"gonum.org/v1/gonum/spatial/r3"
)

// RootMotionOptions selects which hips motion moves the root node and which stays in the pose.
// The four toggles are independent.
type RootMotionOptions struct {
	// TransferXZ moves the root node by the horizontal hips motion.
	TransferXZ bool

	// TransferY moves the root node by the vertical hips motion.
	TransferY bool

	// BakeXZ keeps the horizontal hips motion in the pose. When false the hips are pinned
	// horizontally to where the chain started.
	BakeXZ bool

	// BakeY keeps the vertical hips motion in the pose. When false the hips are pinned vertically.
	BakeY bool
}

// RootMotion extracts hips motion into the root node.
//
// Every composite frame, the hips are lifted through the armature of a borrowed bind-pose skeleton
// and their frame-to-frame delta is accumulated onto the root node. The root is emitted as a
// separate frame carrying only Root, outside the sample cadence. The skeleton is checked out when
// the queue starts and disposed when it ends.
type RootMotion struct {
	Base

	options   RootMotionOptions
	authority Authority
	emit      func(*animation.Frame)

	queueActive bool
	handle      *model.SkeletonHandle

	savedRoot   animation.Transform
	accumulated r3.Vec

	hasPrev   bool
	prev      r3.Vec
	hasAnchor bool
	anchor    r3.Vec
	prevClip  *animation.Clip
	prevIndex int

	pending *animation.Frame
}

var (
	_ FrameAdder    = &RootMotion{}
	_ FrameModifier = &RootMotion{}
	_ AuthorityUser = &RootMotion{}
)

// NewRootMotion creates a RootMotion effect.
//
// Parameters:
//   - options: the transfer and bake toggles
//
// Returns:
//   - *RootMotion: the effect
func NewRootMotion(options RootMotionOptions) *RootMotion {
	return &RootMotion{
		options:   options,
		authority: NopAuthority{},
		savedRoot: animation.IdentityTransform(),
	}
}

func (r *RootMotion) Name() string { return "root-motion" }

func (r *RootMotion) BindAuthority(authority Authority) {
	r.authority = authority
}

func (r *RootMotion) SetFrameAddedHandler(handler func(*animation.Frame)) {
	r.emit = handler
}

// Options returns the toggles the effect was built with.
func (r *RootMotion) Options() RootMotionOptions {
	return r.options
}

// Accumulated returns the root displacement gathered since the last revert.
func (r *RootMotion) Accumulated() r3.Vec {
	return r.accumulated
}

func (r *RootMotion) OnQueueStart() {
	r.queueActive = true
	if r.handle == nil {
		r.handle = r.authority.Avatar()
	}
	r.savedRoot = animation.IdentityTransform()
	if pose := r.authority.AvatarPose(); pose != nil && pose.Root != nil {
		r.savedRoot = *pose.Root
	}
	r.RevertOffsets()
}

func (r *RootMotion) OnQueueEnd() {
	r.RevertOffsets()
	r.handle.Dispose()
	r.handle = nil
	r.queueActive = false
}

// RevertOffsets drops the accumulated displacement and queues a root frame at the saved offset.
func (r *RootMotion) RevertOffsets() {
	r.accumulated = r3.Vec{}
	r.hasPrev = false
	r.hasAnchor = false
	r.prevClip = nil
	if r.transfers() {
		r.pending = r.rootFrame()
	}
}

func (r *RootMotion) Update(_ float64) {
	if r.pending == nil {
		return
	}
	f := r.pending
	r.pending = nil
	if r.emit != nil {
		r.emit(f)
	}
}

func (r *RootMotion) ModifyFrame(base *animation.Frame, _ []*animation.Frame, _ int) {
	if !r.queueActive {
		return
	}
	i := base.IndexOf(animation.HipsBone)
	if i < 0 || !base.Transforms[i].HasPosition {
		return
	}

	arm := animation.IdentityTransform()
	if base.Armature != nil {
		arm = *base.Armature
	}
	if sk := r.handle.Skeleton(); sk != nil {
		sk.Apply(base)
		arm = sk.Armature
	}
	armMat := arm.Matrix()
	world := common.TransformPoint(armMat, base.Transforms[i].Position)

	if base.Source != nil {
		if base.Source.Clip != r.prevClip || base.Source.Index < r.prevIndex {
			r.hasPrev = false
		}
		r.prevClip, r.prevIndex = base.Source.Clip, base.Source.Index
	}
	if !r.hasAnchor {
		r.anchor, r.hasAnchor = world, true
	}
	if !r.hasPrev {
		r.prev, r.hasPrev = world, true
	}
	delta := r3.Sub(world, r.prev)
	r.prev = world

	moved := false
	if r.options.TransferXZ && (delta.X != 0 || delta.Z != 0) {
		r.accumulated.X += delta.X
		r.accumulated.Z += delta.Z
		moved = true
	}
	if r.options.TransferY && delta.Y != 0 {
		r.accumulated.Y += delta.Y
		moved = true
	}
	if moved {
		r.pending = r.rootFrame()
	}

	if r.options.BakeXZ && r.options.BakeY {
		return
	}
	if !r.options.BakeXZ {
		world.X, world.Z = r.anchor.X, r.anchor.Z
	}
	if !r.options.BakeY {
		world.Y = r.anchor.Y
	}
	inv, ok := common.Invert4(armMat)
	if !ok {
		return
	}
	base.Transforms[i].Position = common.TransformPoint(inv, world)
}

func (r *RootMotion) transfers() bool {
	return r.options.TransferXZ || r.options.TransferY
}

func (r *RootMotion) rootFrame() *animation.Frame {
	root := r.savedRoot
	root.Position = r3.Add(r.savedRoot.PositionOrZero(), r.accumulated)
	root.HasPosition = true
	return &animation.Frame{Root: &root}
}
