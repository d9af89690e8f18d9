package effect

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-pose/engine/animation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCancelHarness(blend, stale float64) (*CancelBlend, *[]*animation.Frame, *fakeAuthority) {
	auth := &fakeAuthority{pose: posePose(100, 0)}
	c := NewCancelBlend(blend, stale)
	c.BindAuthority(auth)
	var emitted []*animation.Frame
	c.SetFrameAddedHandler(func(f *animation.Frame) { emitted = append(emitted, f) })
	return c, &emitted, auth
}

func TestCancelBlend_ReplaysCutClipTowardAvatarPose(t *testing.T) {
	clip := lineClip("walk", 10, 10)
	c, emitted, _ := newCancelHarness(0.5, 0.2)

	c.OnQueueStart()
	c.OnFramePlayed(clip.FrameAt(3))
	c.OnQueueEnd()
	require.True(t, c.Active())

	c.Update(0.1)
	require.Len(t, *emitted, 1)
	// key 4 blended 20% toward the avatar pose
	assert.InDelta(t, 4+(100-4)*0.2, hipsX((*emitted)[0]), 1e-9)
	assert.Equal(t, 4, (*emitted)[0].Source.Index)

	for range 4 {
		c.Update(0.1)
	}
	assert.False(t, c.Active())
	require.Len(t, *emitted, 5)
	assert.InDelta(t, 100, hipsX((*emitted)[4]), 1e-9)

	c.Update(0.1)
	assert.Len(t, *emitted, 5)
}

func TestCancelBlend_NaturalEndDoesNothing(t *testing.T) {
	clip := lineClip("walk", 10, 10)
	c, emitted, _ := newCancelHarness(0.5, 0.2)

	c.OnQueueStart()
	c.OnFramePlayed(clip.FrameAt(9))
	c.OnQueueEnd()
	c.Update(0.1)

	assert.False(t, c.Active())
	assert.Empty(t, *emitted)
}

func TestCancelBlend_SideChannelFramesAreNotTracked(t *testing.T) {
	clip := lineClip("walk", 10, 10)
	c, _, _ := newCancelHarness(0.5, 0.2)

	c.OnQueueStart()
	c.OnFramePlayed(clip.FrameAt(9))
	root := animation.IdentityTransform()
	c.OnFramePlayed(&animation.Frame{Root: &root})
	c.OnQueueEnd()
	assert.False(t, c.Active())
}

func TestCancelBlend_NoAvatarPose(t *testing.T) {
	clip := lineClip("walk", 10, 10)
	c, _, auth := newCancelHarness(0.5, 0.2)
	auth.pose = nil

	c.OnQueueStart()
	c.OnFramePlayed(clip.FrameAt(2))
	c.OnQueueEnd()
	assert.False(t, c.Active())
}

func TestCancelBlend_StaleRestartDiscards(t *testing.T) {
	clip := lineClip("walk", 10, 10)
	c, emitted, _ := newCancelHarness(0.5, 0.2)

	c.OnQueueStart()
	c.OnFramePlayed(clip.FrameAt(3))
	c.OnQueueEnd()
	c.Update(0.1)
	c.OnQueueStart()

	assert.False(t, c.Active())
	c.Update(0.1)
	assert.Len(t, *emitted, 1)
}

func TestCancelBlend_LateRestartBlendsFromCancelledPose(t *testing.T) {
	clip := lineClip("walk", 10, 10)
	c, emitted, _ := newCancelHarness(1.0, 0.2)

	c.OnQueueStart()
	c.OnFramePlayed(clip.FrameAt(3))
	c.OnQueueEnd()
	for range 3 {
		c.Update(0.1)
	}
	require.Len(t, *emitted, 3)
	cancelled := hipsX((*emitted)[2])

	c.OnQueueStart()
	require.True(t, c.Active())
	c.Update(0.1)
	assert.Len(t, *emitted, 3, "no frames are added once the new queue runs")

	src := clip.FrameAt(0)
	base := src.BeginMutation()
	c.ModifyFrame(base, []*animation.Frame{src}, 0)
	// elapsed is 0.4 so the cancelled pose still weighs 60%
	assert.InDelta(t, cancelled*0.6, hipsX(base), 1e-9)

	for range 7 {
		c.Update(0.1)
	}
	assert.False(t, c.Active())
}
