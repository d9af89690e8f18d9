package animation

// BoneID identifies a humanoid bone. The enum order is the canonical network bone order.
type BoneID int

const (
	BoneHips BoneID = iota
	BoneSpine
	BoneChest
	BoneUpperChest
	BoneNeck
	BoneHead
	BoneLeftShoulder
	BoneLeftUpperArm
	BoneLeftLowerArm
	BoneLeftHand
	BoneRightShoulder
	BoneRightUpperArm
	BoneRightLowerArm
	BoneRightHand
	BoneLeftUpperLeg
	BoneLeftLowerLeg
	BoneLeftFoot
	BoneLeftToes
	BoneRightUpperLeg
	BoneRightLowerLeg
	BoneRightFoot
	BoneRightToes
	BoneLeftEye
	BoneRightEye
	BoneJaw

	// BoneCount is the number of humanoid bones.
	BoneCount int = iota
)

// HipsBone is the root bone of the humanoid hierarchy. It is blended in world space and drives root motion.
const HipsBone = BoneHips

var boneNames = [BoneCount]string{
	"Hips", "Spine", "Chest", "UpperChest", "Neck", "Head",
	"LeftShoulder", "LeftUpperArm", "LeftLowerArm", "LeftHand",
	"RightShoulder", "RightUpperArm", "RightLowerArm", "RightHand",
	"LeftUpperLeg", "LeftLowerLeg", "LeftFoot", "LeftToes",
	"RightUpperLeg", "RightLowerLeg", "RightFoot", "RightToes",
	"LeftEye", "RightEye", "Jaw",
}

// String returns the bone's humanoid name.
func (b BoneID) String() string {
	if !b.Valid() {
		return "Unknown"
	}
	return boneNames[b]
}

// Valid reports whether b names a bone of the closed humanoid set.
func (b BoneID) Valid() bool {
	return b >= 0 && int(b) < BoneCount
}

// BoneByName resolves a humanoid bone name.
//
// Parameters:
//   - name: the humanoid bone name (e.g. "LeftUpperArm")
//
// Returns:
//   - BoneID: the bone
//   - bool: false if the name is unknown
func BoneByName(name string) (BoneID, bool) {
	for i, n := range boneNames {
		if n == name {
			return BoneID(i), true
		}
	}
	return 0, false
}

// CanonicalBones returns every humanoid bone in canonical network order.
//
// Returns:
//   - []BoneID: a fresh slice of all bones ordered by id
func CanonicalBones() []BoneID {
	out := make([]BoneID, BoneCount)
	for i := range out {
		out[i] = BoneID(i)
	}
	return out
}

// BlendshapeID identifies a facial blendshape weight.
type BlendshapeID int

const (
	BlendshapeEyeBlinkLeft BlendshapeID = iota
	BlendshapeEyeBlinkRight
	BlendshapeEyeWideLeft
	BlendshapeEyeWideRight
	BlendshapeBrowInnerUp
	BlendshapeBrowDownLeft
	BlendshapeBrowDownRight
	BlendshapeJawOpen
	BlendshapeMouthClose
	BlendshapeMouthSmileLeft
	BlendshapeMouthSmileRight
	BlendshapeMouthFunnel
	BlendshapeMouthPucker
	BlendshapeCheekPuff

	// BlendshapeCount is the number of blendshape weights carried by a Frame.
	BlendshapeCount int = iota
)

var blendshapeNames = [BlendshapeCount]string{
	"eyeBlinkLeft", "eyeBlinkRight", "eyeWideLeft", "eyeWideRight",
	"browInnerUp", "browDownLeft", "browDownRight",
	"jawOpen", "mouthClose", "mouthSmileLeft", "mouthSmileRight",
	"mouthFunnel", "mouthPucker", "cheekPuff",
}

// String returns the blendshape's name.
func (b BlendshapeID) String() string {
	if b < 0 || int(b) >= BlendshapeCount {
		return "unknown"
	}
	return blendshapeNames[b]
}

// BlendshapeByName resolves a blendshape name.
func BlendshapeByName(name string) (BlendshapeID, bool) {
	for i, n := range blendshapeNames {
		if n == name {
			return BlendshapeID(i), true
		}
	}
	return 0, false
}

// SpecialBone identifies a non-humanoid node a pose interpreter can be asked to drive.
type SpecialBone int

const (
	// SpecialRoot is the root node that receives transferred root motion.
	SpecialRoot SpecialBone = iota
	// SpecialArmature is the armature node the humanoid hierarchy hangs from.
	SpecialArmature
)
