package animation

import (
	"github.com/Carmen-Shannon/oxy-pose/common"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Transform is a decomposed bone transform. Each component is optional; the Has* flags
// record which components were sampled.
type Transform struct {
	// Position is the local translation.
	Position r3.Vec

	// Rotation is the local orientation quaternion.
	Rotation quat.Number

	// Scale is the local scale factor along each axis.
	Scale r3.Vec

	HasPosition, HasRotation, HasScale bool
}

// NewTransform builds a transform with all three components present.
//
// Parameters:
//   - pos: translation
//   - rot: rotation quaternion
//   - scale: scale factors
//
// Returns:
//   - Transform: the full transform
func NewTransform(pos r3.Vec, rot quat.Number, scale r3.Vec) Transform {
	return Transform{
		Position:    pos,
		Rotation:    rot,
		Scale:       scale,
		HasPosition: true,
		HasRotation: true,
		HasScale:    true,
	}
}

// IdentityTransform returns a full transform at the origin with no rotation and unit scale.
func IdentityTransform() Transform {
	return NewTransform(r3.Vec{}, common.QuatIdentity(), r3.Vec{X: 1, Y: 1, Z: 1})
}

// RotationTransform returns a transform carrying only a rotation.
func RotationTransform(rot quat.Number) Transform {
	return Transform{Rotation: rot, HasRotation: true}
}

// PositionOrZero returns the position, or the origin when absent.
func (t Transform) PositionOrZero() r3.Vec {
	if !t.HasPosition {
		return r3.Vec{}
	}
	return t.Position
}

// RotationOrIdentity returns the rotation, or the identity when absent.
func (t Transform) RotationOrIdentity() quat.Number {
	if !t.HasRotation {
		return common.QuatIdentity()
	}
	return t.Rotation
}

// ScaleOrOne returns the scale, or unit scale when absent.
func (t Transform) ScaleOrOne() r3.Vec {
	if !t.HasScale {
		return r3.Vec{X: 1, Y: 1, Z: 1}
	}
	return t.Scale
}

// Matrix returns the local-to-parent matrix of the transform, substituting defaults for absent components.
func (t Transform) Matrix() common.Mat4 {
	return common.ComposeTRS(t.PositionOrZero(), t.RotationOrIdentity(), t.ScaleOrOne())
}
