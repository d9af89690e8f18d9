package simulation

import (
	"slices"

	"github.com/Carmen-Shannon/oxy-pose/engine/animation"
	"github.com/Carmen-Shannon/oxy-pose/engine/effect"
	"github.com/Carmen-Shannon/oxy-pose/engine/model"
)

// authority exposes the parts of a simulationSampler that effects are allowed to touch.
type authority struct {
	s *simulationSampler
}

var _ effect.Authority = &authority{}

func (a *authority) StartNextClip(additive bool) bool {
	return a.s.startNext(additive)
}

func (a *authority) AvatarPose() *animation.Frame {
	if a.s.interp == nil {
		return nil
	}
	return a.s.interp.Pose()
}

func (a *authority) Queue() []*animation.Clip {
	return slices.Clone(a.s.queue)
}

func (a *authority) Clip(slot int) *animation.Clip {
	if slot < 0 || slot >= len(a.s.slots) {
		return nil
	}
	return a.s.slots[slot].Clip()
}

func (a *authority) CreateSampler() animation.ClipSampler {
	return animation.NewClipSampler()
}

func (a *authority) Avatar() *model.SkeletonHandle {
	if a.s.pool == nil {
		return nil
	}
	return a.s.pool.Checkout()
}
