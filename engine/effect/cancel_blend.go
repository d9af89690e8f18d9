package effect

import (
	"math"

	"github.com/Carmen-Shannon/oxy-pose/common"
	"github.com/Carmen-Shannon/oxy-pose/engine/animation"
)

// CancelBlend smooths out a queue that ended before its last clip finished.
//
// When the queue ends on a cut-short clip, the clip is replayed from the cut point in a throwaway
// sampler and blended toward the avatar pose over blendDuration, emitting frames through the adder
// path. If a new queue starts within staleThreshold of the cut the blend is dropped. A new queue
// starting later is instead blended in from the last cancelled pose until the window closes.
type CancelBlend struct {
	Base

	blendDuration  float64
	staleThreshold float64
	authority      Authority
	emit           func(*animation.Frame)

	queueActive bool
	last        *animation.Frame

	active   bool
	replay   animation.ClipSampler
	from     *animation.Frame
	elapsed  float64
	sinceEnd float64
}

var (
	_ FrameAdder    = &CancelBlend{}
	_ FrameModifier = &CancelBlend{}
	_ AuthorityUser = &CancelBlend{}
)

// NewCancelBlend creates a CancelBlend effect.
//
// Parameters:
//   - blendDuration: the length of the blend toward the avatar pose in seconds
//   - staleThreshold: a new queue starting sooner than this after the cut drops the blend
//
// Returns:
//   - *CancelBlend: the effect
func NewCancelBlend(blendDuration, staleThreshold float64) *CancelBlend {
	return &CancelBlend{
		blendDuration:  math.Max(0, blendDuration),
		staleThreshold: math.Max(0, staleThreshold),
		authority:      NopAuthority{},
	}
}

func (c *CancelBlend) Name() string { return "cancel-blend" }

func (c *CancelBlend) BindAuthority(authority Authority) {
	c.authority = authority
}

func (c *CancelBlend) SetFrameAddedHandler(handler func(*animation.Frame)) {
	c.emit = handler
}

// Active reports whether a cancel window is open.
func (c *CancelBlend) Active() bool {
	return c.active
}

func (c *CancelBlend) OnQueueStart() {
	c.queueActive = true
	c.last = nil
	if !c.active {
		return
	}
	if c.sinceEnd < c.staleThreshold {
		c.finish()
		return
	}
	// keep the window open, the new queue now blends in from the cancelled pose
	c.replay = nil
}

func (c *CancelBlend) OnQueueEnd() {
	c.queueActive = false
	last := c.last
	c.last = nil
	if c.blendDuration <= 0 || last == nil || last.Source == nil || last.Source.Clip == nil {
		return
	}
	clip := last.Source.Clip
	if last.Source.Index >= clip.KeyCount-1 {
		return
	}
	if c.authority.AvatarPose() == nil {
		return
	}

	c.replay = c.authority.CreateSampler()
	c.replay.PlayFromFrame(clip, last.Source.Index+1)
	c.from = last
	c.active = true
	c.elapsed = 0
	c.sinceEnd = 0
}

func (c *CancelBlend) OnFramePlayed(frame *animation.Frame) {
	if c.queueActive && frame != nil && frame.Source != nil {
		c.last = frame
	}
}

func (c *CancelBlend) Update(dt float64) {
	if !c.active {
		return
	}
	c.sinceEnd += dt
	c.elapsed += dt
	ratio := common.Clamp01(c.elapsed / c.blendDuration)

	if c.replay == nil {
		if ratio >= 1 {
			c.finish()
		}
		return
	}

	f := c.replay.Update(dt)
	if f == nil {
		f = c.from
	}
	out := f.BeginMutation()
	if pose := c.authority.AvatarPose(); pose != nil {
		BlendFrame(out, pose, ratio, animation.IdentityTransform())
	}
	c.from = out
	if ratio >= 1 {
		c.finish()
	}
	if c.emit != nil {
		c.emit(out)
	}
}

func (c *CancelBlend) ModifyFrame(base *animation.Frame, _ []*animation.Frame, _ int) {
	if !c.active || c.replay != nil || !c.queueActive || c.from == nil {
		return
	}
	ratio := common.Clamp01(c.elapsed / c.blendDuration)
	BlendFrame(base, c.from, 1-ratio, animation.IdentityTransform())
}

func (c *CancelBlend) finish() {
	c.active = false
	c.replay = nil
	c.from = nil
}
