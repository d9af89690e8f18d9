package effect

import "github.com/Carmen-Shannon/oxy-pose/engine/animation"

// Effect is a pluggable frame transformation or augmentation driven by a sampler's lifecycle.
// Every effect receives lifecycle events. What it may do to frames is decided by the optional
// capabilities it implements: FrameAdder, FrameModifier and AuthorityUser.
type Effect interface {
	// Name returns a short identifier used in logs.
	Name() string

	// OnQueueStart is called when the owning sampler goes from idle to playing.
	OnQueueStart()

	// OnQueueEnd is called when the last slot retires and no clip is queued.
	OnQueueEnd()

	// OnAnimationStart is called whenever a clip starts playing in a slot.
	//
	// Parameters:
	//   - slot: the slot index the clip occupies
	//   - clip: the clip that started
	OnAnimationStart(slot int, clip *animation.Clip)

	// OnAnimationEnd is called after a slot was retired.
	//
	// Parameters:
	//   - slot: the index the slot occupied before removal
	//   - clip: the clip that ended
	OnAnimationEnd(slot int, clip *animation.Clip)

	// OnFramePlayed is called with every frame the owner emitted.
	//
	// Parameters:
	//   - frame: the emitted frame
	OnFramePlayed(frame *animation.Frame)

	// OnSoftStop is called as soon as a soft stop is requested.
	//
	// Parameters:
	//   - delay: seconds until playback is hard stopped
	OnSoftStop(delay float64)

	// Update advances the effect's own clock once per owner tick, before any slot is sampled.
	//
	// Parameters:
	//   - dt: elapsed time since the last tick in seconds
	Update(dt float64)
}

// FrameAdder is implemented by effects that emit frames outside the regular sample cadence.
type FrameAdder interface {
	Effect

	// SetFrameAddedHandler installs the callback receiving added frames.
	//
	// Parameters:
	//   - handler: the callback, never nil once registered with a Pipeline
	SetFrameAddedHandler(handler func(*animation.Frame))
}

// FrameModifier is implemented by effects that transform the composite frame before it is emitted.
type FrameModifier interface {
	Effect

	// ModifyFrame mutates base in place. base is an owned copy of frames[baseSlot].
	//
	// Parameters:
	//   - base: the frame to mutate
	//   - frames: the frames sampled this tick, one per active slot, nil where a slot produced nothing
	//   - baseSlot: the index in frames that base was copied from
	ModifyFrame(base *animation.Frame, frames []*animation.Frame, baseSlot int)
}

// AuthorityUser is implemented by effects that need to query or drive their owner.
type AuthorityUser interface {
	// BindAuthority hands the effect the owner's Authority. Called once at registration.
	BindAuthority(authority Authority)
}

// Base provides no-op lifecycle methods for embedding.
type Base struct{}

func (Base) OnQueueStart() {}
func (Base) OnQueueEnd() {}
func (Base) OnAnimationStart(_ int, _ *animation.Clip) {}
func (Base) OnAnimationEnd(_ int, _ *animation.Clip) {}
func (Base) OnFramePlayed(_ *animation.Frame) {}
func (Base) OnSoftStop(_ float64) {}
func (Base) Update(_ float64) {}
