package effect

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-pose/engine/animation"
	"github.com/stretchr/testify/assert"
)

// outerStep advances the effect one tick and returns the modified hips X of key index k.
func outerStep(o *OuterBlend, clip *animation.Clip, k int, dt float64) float64 {
	o.Update(dt)
	src := clip.FrameAt(k)
	base := src.BeginMutation()
	o.ModifyFrame(base, []*animation.Frame{src}, 0)
	return hipsX(base)
}

func TestOuterBlend_InPassThroughOut(t *testing.T) {
	clip := lineClip("walk", 16, 8)
	auth := &fakeAuthority{pose: posePose(10, 0)}
	o := NewOuterBlend(0.25)
	o.BindAuthority(auth)
	o.OnQueueStart()

	got := make([]float64, clip.KeyCount)
	for k := range clip.KeyCount {
		got[k] = outerStep(o, clip, k, 0.125)
	}

	assert.InDelta(t, 10.0, got[0], 1e-9, "the first frame is the avatar pose")
	assert.InDelta(t, 1+(10-1)*0.5, got[1], 1e-9)
	for k := 2; k <= 14; k++ {
		assert.Equal(t, float64(k), got[k], "key %d should be the raw sample", k)
	}
	assert.InDelta(t, 10.0, got[15], 1e-9, "the last key is fully blended out")
}

func TestOuterBlend_SoftStopReversesBlendIn(t *testing.T) {
	clip := lineClip("walk", 40, 10)
	auth := &fakeAuthority{pose: posePose(10, 0)}
	o := NewOuterBlend(1.0)
	o.BindAuthority(auth)
	o.OnQueueStart()

	outerStep(o, clip, 0, 0.25)
	before := outerStep(o, clip, 0, 0.25)
	assert.InDelta(t, 7.5, before, 1e-9)

	o.OnSoftStop(0)
	src := clip.FrameAt(0)
	base := src.BeginMutation()
	o.ModifyFrame(base, []*animation.Frame{src}, 0)
	assert.InDelta(t, before, hipsX(base), 1e-9, "reversal keeps the weight continuous")

	assert.InDelta(t, 10.0, outerStep(o, clip, 0, 0.25), 1e-9)
}

func TestOuterBlend_SoftStopAfterBlendIn(t *testing.T) {
	clip := lineClip("walk", 40, 10)
	auth := &fakeAuthority{pose: posePose(10, 0)}
	o := NewOuterBlend(0.5)
	o.BindAuthority(auth)
	o.OnQueueStart()

	for range 10 {
		outerStep(o, clip, 5, 0.25)
	}
	// clock is 2.25 here, so the blend-out covers [2.25, 4.25]
	o.OnSoftStop(2.0)
	assert.InDelta(t, 5.0+5*0.125, outerStep(o, clip, 5, 0.5), 1e-9)
	assert.InDelta(t, 5.0+5*0.375, outerStep(o, clip, 5, 0.5), 1e-9)
}

func TestOuterBlend_NoAvatarPoseMeansNoBlend(t *testing.T) {
	clip := lineClip("walk", 16, 8)
	o := NewOuterBlend(0.5)
	o.BindAuthority(&fakeAuthority{})
	o.OnQueueStart()
	assert.Equal(t, 0.0, outerStep(o, clip, 0, 0.125))
	assert.Equal(t, 1.0, outerStep(o, clip, 1, 0.125))
}

func TestOuterBlend_QueuedClipDoesNotBlendOut(t *testing.T) {
	clip := lineClip("walk", 16, 8)
	auth := &fakeAuthority{pose: posePose(10, 0), queue: []*animation.Clip{lineClip("next", 4, 8)}}
	o := NewOuterBlend(0.25)
	o.BindAuthority(auth)
	o.OnQueueStart()
	var last float64
	for k := range clip.KeyCount {
		last = outerStep(o, clip, k, 0.125)
	}
	assert.Equal(t, 15.0, last)
}
