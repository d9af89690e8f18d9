package effect

import (
	"github.com/Carmen-Shannon/oxy-pose/common"
	"github.com/Carmen-Shannon/oxy-pose/engine/animation"
)

// BlendTransform interpolates a toward b. Rotation is slerped along the shortest arc, position and
// scale are lerped. Only components present in both transforms are blended; the rest keep a's value.
//
// Parameters:
//   - a: the source transform (ratio 0)
//   - b: the target transform (ratio 1)
//   - ratio: the interpolation ratio
//
// Returns:
//   - animation.Transform: the blended transform
func BlendTransform(a, b animation.Transform, ratio float64) animation.Transform {
	out := a
	if a.HasPosition && b.HasPosition {
		out.Position = common.Lerp(a.Position, b.Position, ratio)
	}
	if a.HasRotation && b.HasRotation {
		out.Rotation = common.Slerp(a.Rotation, b.Rotation, ratio)
	}
	if a.HasScale && b.HasScale {
		out.Scale = common.Lerp(a.Scale, b.Scale, ratio)
	}
	return out
}

// BlendFrame blends base toward target in place. Bones target does not carry are left alone.
//
// The hips are blended in world space: both sides are lifted through their own armature, blended,
// and brought back through the resulting armature. Blending their local translation directly
// arcs when the two armatures are rotated differently.
//
// Parameters:
//   - base: the frame to mutate, must be an owned copy
//   - target: the frame to blend toward
//   - ratio: the weight of target
//   - armature: the armature transform used for a frame that carries none
func BlendFrame(base, target *animation.Frame, ratio float64, armature animation.Transform) {
	if base == nil || target == nil {
		return
	}

	baseArm := armatureOf(base, armature)
	targetArm := armatureOf(target, armature)
	if base.Armature != nil && target.Armature != nil {
		arm := BlendTransform(*base.Armature, *target.Armature, ratio)
		base.Armature = &arm
	}
	resultArm := armatureOf(base, armature)

	for i, bone := range base.Bones {
		t, ok := target.Transform(bone)
		if !ok {
			continue
		}
		if bone == animation.HipsBone {
			base.Transforms[i] = blendWorld(base.Transforms[i], t, ratio, baseArm, targetArm, resultArm)
			continue
		}
		base.Transforms[i] = BlendTransform(base.Transforms[i], t, ratio)
	}

	if base.Root != nil && target.Root != nil {
		root := BlendTransform(*base.Root, *target.Root, ratio)
		base.Root = &root
	}
	for i := range base.Blendshapes {
		base.Blendshapes[i] += (target.Blendshapes[i] - base.Blendshapes[i]) * ratio
	}
}

func armatureOf(f *animation.Frame, fallback animation.Transform) animation.Transform {
	if f.Armature != nil {
		return *f.Armature
	}
	return fallback
}

func blendWorld(a, b animation.Transform, ratio float64, armA, armB, armOut animation.Transform) animation.Transform {
	inv, ok := common.Invert4(armOut.Matrix())
	if !ok {
		return BlendTransform(a, b, ratio)
	}

	out := a
	if a.HasPosition && b.HasPosition {
		pa := common.TransformPoint(armA.Matrix(), a.Position)
		pb := common.TransformPoint(armB.Matrix(), b.Position)
		out.Position = common.TransformPoint(inv, common.Lerp(pa, pb, ratio))
	}
	if a.HasRotation && b.HasRotation {
		qa := common.QuatMul(armA.RotationOrIdentity(), a.Rotation)
		qb := common.QuatMul(armB.RotationOrIdentity(), b.Rotation)
		world := common.Slerp(qa, qb, ratio)
		out.Rotation = common.NormalizeQuat(common.QuatMul(common.QuatInverse(armOut.RotationOrIdentity()), world))
	}
	if a.HasScale && b.HasScale {
		out.Scale = common.Lerp(a.Scale, b.Scale, ratio)
	}
	return out
}
