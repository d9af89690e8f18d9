package animation

// PoseInterpreter writes Frames onto a live skeleton. Implementations are host specific; the
// sampling core only relies on this contract.
type PoseInterpreter interface {
	// ArmaturePath returns the scene path of the armature node.
	//
	// Returns:
	//   - string: the armature path
	//   - bool: false when the host has no armature
	ArmaturePath() (string, bool)

	// ApplyBone writes a humanoid bone transform.
	//
	// Parameters:
	//   - bone: the bone to drive
	//   - t: the local transform to apply
	ApplyBone(bone BoneID, t Transform)

	// ApplyOther writes a non-humanoid node transform.
	//
	// Parameters:
	//   - bone: the special node to drive
	//   - t: the local transform to apply
	ApplyOther(bone SpecialBone, t Transform)

	// ApplyBlendshape writes a blendshape weight.
	//
	// Parameters:
	//   - id: the blendshape to drive
	//   - weight: the weight to apply
	ApplyBlendshape(id BlendshapeID, weight float64)

	// ApplyResetPose restores a non-animated node to its bind pose.
	//
	// Parameters:
	//   - path: the node path
	//   - t: the bind-pose transform
	ApplyResetPose(path string, t Transform)

	// Pose returns the externally driven pose currently on the skeleton, or nil if none is available.
	Pose() *Frame
}

// ApplyFrame writes frame onto interp: reset keys first so animated bones win, then bones,
// then the root and armature nodes, then blendshapes.
//
// Parameters:
//   - interp: the interpreter to drive, may be nil
//   - frame: the frame to apply, may be nil
func ApplyFrame(interp PoseInterpreter, frame *Frame) {
	if interp == nil || frame == nil {
		return
	}
	for path, t := range frame.ResetKeys {
		interp.ApplyResetPose(path, t)
	}
	for i, bone := range frame.Bones {
		interp.ApplyBone(bone, frame.Transforms[i])
	}
	if frame.Root != nil {
		interp.ApplyOther(SpecialRoot, *frame.Root)
	}
	if frame.Armature != nil {
		interp.ApplyOther(SpecialArmature, *frame.Armature)
	}
	for i, w := range frame.Blendshapes {
		interp.ApplyBlendshape(BlendshapeID(i), w)
	}
}
