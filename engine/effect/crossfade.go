package effect

import (
	"math"

	"github.com/Carmen-Shannon/oxy-pose/common"
	"github.com/Carmen-Shannon/oxy-pose/engine/animation"
)

// Crossfade blends each clip of a queue into the next one.
//
// When slot 0 reaches its trigger frame, floor((duration - blendDuration) * frameRate), the next
// queued clip is started additively. While two slots are active the base frame is blended toward
// the others with ratio elapsedSinceBlendStart / blendDuration, clamped to [0, 1].
type Crossfade struct {
	Base

	blendDuration float64
	authority     Authority

	triggerFrame int
	triggered    bool
	blending     bool
	elapsed      float64
}

var (
	_ FrameModifier = &Crossfade{}
	_ AuthorityUser = &Crossfade{}
)

// NewCrossfade creates a Crossfade effect.
//
// Parameters:
//   - blendDuration: the length of every crossfade in seconds
//
// Returns:
//   - *Crossfade: the effect
func NewCrossfade(blendDuration float64) *Crossfade {
	return &Crossfade{
		blendDuration: math.Max(0, blendDuration),
		authority:     NopAuthority{},
		triggerFrame:  math.MaxInt,
	}
}

func (c *Crossfade) Name() string { return "crossfade" }

func (c *Crossfade) BindAuthority(authority Authority) {
	c.authority = authority
}

// Blending reports whether a crossfade is in progress.
func (c *Crossfade) Blending() bool {
	return c.blending
}

// TriggerFrame returns the key index of slot 0 at which the next clip is started.
func (c *Crossfade) TriggerFrame() int {
	return c.triggerFrame
}

func (c *Crossfade) OnQueueStart() {
	c.blending = false
	c.elapsed = 0
}

func (c *Crossfade) OnQueueEnd() {
	c.blending = false
	c.triggered = false
	c.triggerFrame = math.MaxInt
}

func (c *Crossfade) OnAnimationStart(slot int, clip *animation.Clip) {
	if slot == 0 {
		c.arm(clip)
		return
	}
	c.blending = true
	c.elapsed = 0
}

func (c *Crossfade) OnAnimationEnd(slot int, _ *animation.Clip) {
	if c.authority.Clip(1) == nil {
		c.blending = false
	}
	if slot != 0 {
		return
	}
	// slot 0 now holds the clip that was fading in
	if next := c.authority.Clip(0); next != nil {
		c.arm(next)
	}
}

func (c *Crossfade) Update(dt float64) {
	if c.blending {
		c.elapsed += dt
	}
}

func (c *Crossfade) ModifyFrame(base *animation.Frame, frames []*animation.Frame, baseSlot int) {
	if baseSlot == 0 && !c.triggered && base.Source != nil && base.Source.Index >= c.triggerFrame {
		if len(c.authority.Queue()) > 0 && c.authority.Clip(1) == nil {
			c.triggered = true
			c.authority.StartNextClip(true)
		}
	}

	if !c.blending || len(frames) < 2 {
		return
	}
	ratio := 1.0
	if c.blendDuration > 0 {
		ratio = common.Clamp01(c.elapsed / c.blendDuration)
	}
	arm := animation.IdentityTransform()
	for i, f := range frames {
		if i == baseSlot || f == nil {
			continue
		}
		BlendFrame(base, f, ratio, arm)
	}
}

// arm precomputes the trigger frame of a clip entering slot 0.
func (c *Crossfade) arm(clip *animation.Clip) {
	c.triggered = false
	if clip == nil || clip.FrameRate <= 0 {
		c.triggerFrame = math.MaxInt
		return
	}
	c.triggerFrame = max(0, int(math.Floor((clip.Duration()-c.blendDuration)*clip.FrameRate)))
}
