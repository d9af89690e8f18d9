package animation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestFrame_BeginMutationIsDeep(t *testing.T) {
	clip := rampClip("ramp", 3, 10)
	src := clip.FrameAt(0)
	root := IdentityTransform()
	src.Root = &root

	cp := src.BeginMutation()
	cp.Transforms[0].Position = r3.Vec{X: 99}
	cp.Root.Position = r3.Vec{Y: 5}
	cp.ResetKeys["Armature/Tail"] = Transform{}
	cp.Blendshapes[BlendshapeJawOpen] = 1
	cp.SetTransform(BoneHead, IdentityTransform())

	assert.Equal(t, 0.0, src.Transforms[0].Position.X)
	assert.Equal(t, 0.0, src.Root.Position.Y)
	assert.True(t, src.ResetKeys["Armature/Tail"].HasRotation)
	assert.Equal(t, 0.0, src.Blendshapes[BlendshapeJawOpen])
	assert.Equal(t, -1, src.IndexOf(BoneHead))
	assert.Same(t, src.Source.Clip, cp.Source.Clip)

	var nilFrame *Frame
	assert.Nil(t, nilFrame.BeginMutation())
}

func TestFrame_ValidateCoIndexing(t *testing.T) {
	f := NewFrame(2)
	f.SetTransform(BoneHips, IdentityTransform())
	require.NoError(t, f.Validate())

	f.Bones = append(f.Bones, BoneHead)
	assert.Error(t, f.Validate())
}

func TestClip_ValidateAndClamp(t *testing.T) {
	clip := rampClip("ramp", 4, 10)
	require.NoError(t, clip.Validate())
	assert.Equal(t, 0.4, clip.Duration())
	assert.Equal(t, 0, clip.ClampIndex(-2))
	assert.Equal(t, 3, clip.ClampIndex(10))
	assert.Equal(t, 3, keyOf(clip.FrameAt(99)))

	clip.Channels[1].Keys = clip.Channels[1].Keys[:2]
	assert.ErrorIs(t, clip.Validate(), ErrInvalidClip)

	assert.ErrorIs(t, (&Clip{Name: "bad"}).Validate(), ErrInvalidClip)
	assert.Nil(t, (&Clip{FrameRate: 10}).FrameAt(0))
}

type recordingInterpreter struct {
	calls []string
}

func (r *recordingInterpreter) ArmaturePath() (string, bool) { return "Armature", true }
func (r *recordingInterpreter) ApplyBone(bone BoneID, _ Transform) {
	r.calls = append(r.calls, "bone:"+bone.String())
}
func (r *recordingInterpreter) ApplyOther(bone SpecialBone, _ Transform) {
	r.calls = append(r.calls, fmt.Sprintf("other:%d", bone))
}
func (r *recordingInterpreter) ApplyBlendshape(id BlendshapeID, w float64) {
	if w != 0 {
		r.calls = append(r.calls, "shape:"+id.String())
	}
}
func (r *recordingInterpreter) ApplyResetPose(path string, _ Transform) {
	r.calls = append(r.calls, "reset:"+path)
}
func (r *recordingInterpreter) Pose() *Frame { return nil }

func TestApplyFrame_Order(t *testing.T) {
	clip := rampClip("ramp", 3, 10)
	f := clip.FrameAt(0)
	root := IdentityTransform()
	f.Root = &root
	f.Blendshapes[BlendshapeJawOpen] = 0.5

	rec := &recordingInterpreter{}
	ApplyFrame(rec, f)
	assert.Equal(t, []string{
		"reset:Armature/Tail",
		"bone:Hips",
		"bone:Spine",
		"other:0",
		"shape:jawOpen",
	}, rec.calls)

	ApplyFrame(nil, f)
	ApplyFrame(rec, nil)
}

func TestBoneNames(t *testing.T) {
	b, ok := BoneByName("LeftUpperArm")
	require.True(t, ok)
	assert.Equal(t, BoneLeftUpperArm, b)
	assert.Equal(t, "Hips", HipsBone.String())
	assert.Len(t, CanonicalBones(), BoneCount)
	_, ok = BoneByName("Tail")
	assert.False(t, ok)

	s, ok := BlendshapeByName("jawOpen")
	require.True(t, ok)
	assert.Equal(t, BlendshapeJawOpen, s)
}
