package effect

import (
	"math"

	"github.com/Carmen-Shannon/oxy-pose/common"
	"github.com/Carmen-Shannon/oxy-pose/engine/animation"
)

type blendDirection int

const (
	blendNone blendDirection = iota
	blendIn
	blendOut
)

// OuterBlend blends a queue's frames against the externally driven avatar pose: in from the avatar
// pose when the queue starts and back out to it before the queue ends.
//
// A blend covers the clock range [start, end] and its ratio is (clock - start) / (end - start).
// Outside [0, 1] frames pass through untouched. A blend-out requested while a blend-in is still
// running is reversed around the current clock with start' = 2*clock - end, so the weight continues
// from where it was instead of jumping.
type OuterBlend struct {
	Base

	blendDuration float64
	authority     Authority

	// clock is the sample time of the frame being emitted. It trails Update by one tick because the
	// owner samples before advancing its slots.
	clock     float64
	pendingDt float64

	direction  blendDirection
	start, end float64
}

var (
	_ FrameModifier = &OuterBlend{}
	_ AuthorityUser = &OuterBlend{}
)

// NewOuterBlend creates an OuterBlend effect.
//
// Parameters:
//   - blendDuration: the length of the blend-in and of a natural blend-out in seconds
//
// Returns:
//   - *OuterBlend: the effect
func NewOuterBlend(blendDuration float64) *OuterBlend {
	return &OuterBlend{
		blendDuration: math.Max(0, blendDuration),
		authority:     NopAuthority{},
	}
}

func (o *OuterBlend) Name() string { return "outer-blend" }

func (o *OuterBlend) BindAuthority(authority Authority) {
	o.authority = authority
}

// Clock returns the sample time of the most recent frame in seconds since the queue started.
func (o *OuterBlend) Clock() float64 {
	return o.clock
}

func (o *OuterBlend) OnQueueStart() {
	o.clock = 0
	o.pendingDt = 0
	o.direction = blendNone
	if o.blendDuration > 0 {
		o.direction, o.start, o.end = blendIn, 0, o.blendDuration
	}
}

func (o *OuterBlend) OnQueueEnd() {
	o.direction = blendNone
}

func (o *OuterBlend) OnSoftStop(delay float64) {
	length := delay
	if length <= 0 {
		length = o.blendDuration
	}
	o.beginOut(length)
}

func (o *OuterBlend) Update(dt float64) {
	o.clock += o.pendingDt
	o.pendingDt = dt
}

func (o *OuterBlend) ModifyFrame(base *animation.Frame, frames []*animation.Frame, baseSlot int) {
	if o.direction != blendOut && base.Source != nil && base.Source.Clip != nil &&
		base.Source.Clip.FrameRate > 0 && o.isLastClip(frames, baseSlot) {
		clip := base.Source.Clip
		trigger := int(math.Floor((clip.Duration() - o.blendDuration) * clip.FrameRate))
		if base.Source.Index >= trigger {
			remaining := float64(clip.KeyCount-1-base.Source.Index) / clip.FrameRate
			o.beginOut(remaining)
		}
	}

	weight, ok := o.avatarWeight()
	if !ok || weight <= 0 {
		return
	}
	pose := o.authority.AvatarPose()
	if pose == nil {
		return
	}
	BlendFrame(base, pose, weight, animation.IdentityTransform())
}

// isLastClip reports whether base comes from the only slot and nothing is queued behind it.
func (o *OuterBlend) isLastClip(frames []*animation.Frame, baseSlot int) bool {
	if len(o.authority.Queue()) > 0 {
		return false
	}
	for i, f := range frames {
		if i != baseSlot && f != nil {
			return false
		}
	}
	return true
}

// beginOut starts a blend-out of the given length at the current clock, reversing an unfinished blend-in.
func (o *OuterBlend) beginOut(length float64) {
	if o.direction == blendIn && o.clock < o.end {
		o.start = 2*o.clock - o.end
	} else {
		o.start = o.clock
	}
	o.end = o.start + length
	o.direction = blendOut
}

// avatarWeight returns the weight of the avatar pose at the current clock.
func (o *OuterBlend) avatarWeight() (float64, bool) {
	if o.direction == blendNone {
		return 0, false
	}
	ratio := 1.0
	if span := o.end - o.start; span > 0 {
		ratio = (o.clock - o.start) / span
	} else if o.clock < o.start {
		ratio = 0
	}

	switch o.direction {
	case blendIn:
		if !common.InUnitRange(ratio) {
			if ratio > 1 {
				o.direction = blendNone
			}
			return 0, false
		}
		return 1 - ratio, true
	default:
		if ratio < 0 {
			return 0, false
		}
		return math.Min(ratio, 1), true
	}
}
