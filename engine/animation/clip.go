package animation

import (
	"errors"
	"fmt"
	"maps"
)

// ErrInvalidClip is returned by Clip.Validate when key arrays disagree with the clip's key count.
var ErrInvalidClip = errors.New("invalid clip")

// Channel holds the keyframes of a single bone.
type Channel struct {
	// Bone is the bone this channel animates.
	Bone BoneID

	// Keys holds one transform per key index.
	Keys []Transform
}

// Clip is a fixed-rate, fixed-length sequence of per-bone keyframes plus non-animated reset transforms.
// Clips are read-only once handed to a sampler.
type Clip struct {
	// Name is the clip identifier.
	Name string

	// FrameRate is the number of keys per second.
	FrameRate float64

	// KeyCount is the number of keys in every key array.
	KeyCount int

	// Channels holds the per-bone keyframes in clip channel order.
	Channels []Channel

	// RootKeys are optional root node keys, nil when the clip does not animate the root.
	RootKeys []Transform

	// ArmatureKeys are optional armature node keys, nil when the clip does not animate the armature.
	ArmatureKeys []Transform

	// Blendshapes holds per-blendshape weight keys.
	Blendshapes map[BlendshapeID][]float64

	// ResetPose maps node paths to their single non-animated transform.
	ResetPose map[string]Transform
}

// Duration returns KeyCount / FrameRate in seconds, or 0 for a clip without a frame rate.
func (c *Clip) Duration() float64 {
	if c.FrameRate <= 0 {
		return 0
	}
	return float64(c.KeyCount) / c.FrameRate
}

// ClampIndex limits index to [0, KeyCount-1].
func (c *Clip) ClampIndex(index int) int {
	if index >= c.KeyCount {
		index = c.KeyCount - 1
	}
	if index < 0 {
		index = 0
	}
	return index
}

// Validate checks that every key array is KeyCount long and the frame rate is positive.
//
// Returns:
//   - error: an error wrapping ErrInvalidClip describing the first violation, or nil
func (c *Clip) Validate() error {
	if c.FrameRate <= 0 {
		return fmt.Errorf("%w: %q has frame rate %v", ErrInvalidClip, c.Name, c.FrameRate)
	}
	if c.KeyCount < 0 {
		return fmt.Errorf("%w: %q has negative key count", ErrInvalidClip, c.Name)
	}
	for _, ch := range c.Channels {
		if len(ch.Keys) != c.KeyCount {
			return fmt.Errorf("%w: %q channel %s has %d keys, want %d", ErrInvalidClip, c.Name, ch.Bone, len(ch.Keys), c.KeyCount)
		}
	}
	if c.RootKeys != nil && len(c.RootKeys) != c.KeyCount {
		return fmt.Errorf("%w: %q has %d root keys, want %d", ErrInvalidClip, c.Name, len(c.RootKeys), c.KeyCount)
	}
	if c.ArmatureKeys != nil && len(c.ArmatureKeys) != c.KeyCount {
		return fmt.Errorf("%w: %q has %d armature keys, want %d", ErrInvalidClip, c.Name, len(c.ArmatureKeys), c.KeyCount)
	}
	for id, keys := range c.Blendshapes {
		if len(keys) != c.KeyCount {
			return fmt.Errorf("%w: %q blendshape %s has %d keys, want %d", ErrInvalidClip, c.Name, id, len(keys), c.KeyCount)
		}
	}
	return nil
}

// FrameAt extracts the pose at a key index. The index is clamped to [0, KeyCount-1].
// Reset keys are only attached to the frame for index 0.
//
// Parameters:
//   - index: the key index to sample
//
// Returns:
//   - *Frame: the sampled frame, or nil when the clip has no keys
func (c *Clip) FrameAt(index int) *Frame {
	if c.KeyCount <= 0 {
		return nil
	}
	index = c.ClampIndex(index)

	f := NewFrame(len(c.Channels))
	for _, ch := range c.Channels {
		f.Bones = append(f.Bones, ch.Bone)
		f.Transforms = append(f.Transforms, ch.Keys[index])
	}
	for id, keys := range c.Blendshapes {
		if int(id) >= 0 && int(id) < BlendshapeCount && index < len(keys) {
			f.Blendshapes[id] = keys[index]
		}
	}
	if index < len(c.RootKeys) {
		root := c.RootKeys[index]
		f.Root = &root
	}
	if index < len(c.ArmatureKeys) {
		arm := c.ArmatureKeys[index]
		f.Armature = &arm
	}
	if index == 0 && len(c.ResetPose) > 0 {
		f.ResetKeys = maps.Clone(c.ResetPose)
	}
	f.Source = &FrameSource{Clip: c, Index: index}
	return f
}

// Channel returns the keys of bone, or nil when the clip does not animate it.
func (c *Clip) Channel(bone BoneID) []Transform {
	for _, ch := range c.Channels {
		if ch.Bone == bone {
			return ch.Keys
		}
	}
	return nil
}
