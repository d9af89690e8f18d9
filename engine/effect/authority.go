package effect

import (
	"github.com/Carmen-Shannon/oxy-pose/engine/animation"
	"github.com/Carmen-Shannon/oxy-pose/engine/model"
)

// Authority is the narrow contract effects use to query and drive the sampler that owns them.
// Effects never see the sampler itself.
type Authority interface {
	// StartNextClip pops the next queued clip and plays it.
	//
	// Parameters:
	//   - additive: true to play it in a new concurrent slot instead of replacing the current one
	//
	// Returns:
	//   - bool: false if the queue was empty
	StartNextClip(additive bool) bool

	// AvatarPose returns the externally driven pose, or nil when none is available.
	AvatarPose() *animation.Frame

	// Queue returns the clips waiting to be played.
	Queue() []*animation.Clip

	// Clip returns the clip playing in slot, or nil when the slot does not exist.
	Clip(slot int) *animation.Clip

	// CreateSampler returns a fresh secondary ClipSampler owned by the caller.
	CreateSampler() animation.ClipSampler

	// Avatar checks out a bind-pose skeleton. The caller must Dispose the handle.
	//
	// Returns:
	//   - *model.SkeletonHandle: the handle, or nil when the owner has no skeleton pool
	Avatar() *model.SkeletonHandle
}

// NopAuthority resolves every query to nothing. Effects must treat its answers as "nothing to blend against".
type NopAuthority struct{}

var _ Authority = NopAuthority{}

func (NopAuthority) StartNextClip(_ bool) bool { return false }
func (NopAuthority) AvatarPose() *animation.Frame { return nil }
func (NopAuthority) Queue() []*animation.Clip { return nil }
func (NopAuthority) Clip(_ int) *animation.Clip { return nil }
func (NopAuthority) CreateSampler() animation.ClipSampler { return animation.NewClipSampler() }
func (NopAuthority) Avatar() *model.SkeletonHandle { return nil }
