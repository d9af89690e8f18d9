package animation

import (
	"fmt"
	"maps"
	"slices"
)

// FrameSource records which clip and key index a Frame was sampled from.
type FrameSource struct {
	// Clip is the clip the frame was sampled from.
	Clip *Clip

	// Index is the key index within the clip.
	Index int
}

// Frame is one sample of a skeleton pose.
// Bones and Transforms are co-indexed and always the same length.
type Frame struct {
	// Bones lists the bones carried by this frame.
	Bones []BoneID

	// Transforms holds the transform of Bones[i] at index i.
	Transforms []Transform

	// Root is the optional root node transform.
	Root *Transform

	// Armature is the optional armature node transform.
	Armature *Transform

	// Blendshapes holds one weight per blendshape id.
	Blendshapes [BlendshapeCount]float64

	// Source is the optional provenance of the frame.
	Source *FrameSource

	// ResetKeys maps a node path to its bind-pose transform. Only populated for index 0 of a clip
	// so non-animated bones are restored before sampling.
	ResetKeys map[string]Transform
}

// NewFrame creates an empty frame with capacity for n bones.
func NewFrame(n int) *Frame {
	return &Frame{
		Bones:      make([]BoneID, 0, n),
		Transforms: make([]Transform, 0, n),
	}
}

// Len returns the number of bones carried by the frame.
func (f *Frame) Len() int {
	return len(f.Bones)
}

// Validate checks the co-indexing invariant between Bones and Transforms.
//
// Returns:
//   - error: an error if the lists differ in length
func (f *Frame) Validate() error {
	if len(f.Bones) != len(f.Transforms) {
		return fmt.Errorf("frame has %d bones but %d transforms", len(f.Bones), len(f.Transforms))
	}
	return nil
}

// IndexOf returns the position of bone in the frame, or -1 when absent.
func (f *Frame) IndexOf(bone BoneID) int {
	return slices.Index(f.Bones, bone)
}

// Transform returns the transform of bone.
//
// Parameters:
//   - bone: the bone to look up
//
// Returns:
//   - Transform: the bone's transform
//   - bool: false if the frame does not carry the bone
func (f *Frame) Transform(bone BoneID) (Transform, bool) {
	i := f.IndexOf(bone)
	if i < 0 {
		return Transform{}, false
	}
	return f.Transforms[i], true
}

// SetTransform replaces the transform of bone, appending the bone when it is not yet carried.
//
// Parameters:
//   - bone: the bone to write
//   - t: the new transform
func (f *Frame) SetTransform(bone BoneID, t Transform) {
	if i := f.IndexOf(bone); i >= 0 {
		f.Transforms[i] = t
		return
	}
	f.Bones = append(f.Bones, bone)
	f.Transforms = append(f.Transforms, t)
}

// BeginMutation returns an owned deep copy of the frame. Frames emitted by samplers are shared,
// so every effect that changes a pose must mutate the copy returned here and never the original.
//
// Returns:
//   - *Frame: a copy safe to mutate, or nil when f is nil
func (f *Frame) BeginMutation() *Frame {
	if f == nil {
		return nil
	}
	out := &Frame{
		Bones:       slices.Clone(f.Bones),
		Transforms:  slices.Clone(f.Transforms),
		Blendshapes: f.Blendshapes,
	}
	if f.Root != nil {
		root := *f.Root
		out.Root = &root
	}
	if f.Armature != nil {
		arm := *f.Armature
		out.Armature = &arm
	}
	if f.Source != nil {
		src := *f.Source
		out.Source = &src
	}
	if f.ResetKeys != nil {
		out.ResetKeys = maps.Clone(f.ResetKeys)
	}
	return out
}

// SourceTime returns the clip time of the frame's key, or -1 when the frame has no provenance.
func (f *Frame) SourceTime() float64 {
	if f.Source == nil || f.Source.Clip == nil || f.Source.Clip.FrameRate <= 0 {
		return -1
	}
	return float64(f.Source.Index) / f.Source.Clip.FrameRate
}
