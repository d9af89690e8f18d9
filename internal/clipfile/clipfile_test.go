package clipfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-pose/engine/animation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

const waveYAML = `
name: wave
frameRate: 30
keyCount: 2
channels:
  - bone: Hips
    keys:
      - {p: [0, 1, 0], r: [0, 0, 0, 1], s: [1, 1, 1]}
      - {p: [0.5, 1, 0], r: [0, 0, 0, 1], s: [1, 1, 1]}
  - bone: RightUpperArm
    keys:
      - {r: [0, 0, 0.7071, 0.7071]}
      - {r: [0, 0, 0, 1]}
root:
  - {p: [0, 0, 0]}
  - {p: [0, 0, 1]}
blendshapes:
  jawOpen: [0, 0.5]
resetPose:
  Armature/Hips/Spine: {p: [0, 0.1, 0]}
`

func TestDecode_YAML(t *testing.T) {
	clip, err := Decode([]byte(waveYAML), FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, "wave", clip.Name)
	assert.Equal(t, 30.0, clip.FrameRate)
	assert.Equal(t, 2, clip.KeyCount)
	require.Len(t, clip.Channels, 2)
	assert.Equal(t, animation.BoneHips, clip.Channels[0].Bone)
	assert.Equal(t, animation.BoneRightUpperArm, clip.Channels[1].Bone)

	hips := clip.Channels[0].Keys[1]
	assert.True(t, hips.HasPosition && hips.HasRotation && hips.HasScale)
	assert.Equal(t, r3.Vec{X: 0.5, Y: 1}, hips.Position)

	arm := clip.Channels[1].Keys[0]
	assert.False(t, arm.HasPosition)
	assert.False(t, arm.HasScale)
	assert.Equal(t, quat.Number{Real: 0.7071, Kmag: 0.7071}, arm.Rotation, "rotation is stored x, y, z, w")

	require.Len(t, clip.RootKeys, 2)
	assert.Equal(t, 1.0, clip.RootKeys[1].Position.Z)
	assert.Equal(t, []float64{0, 0.5}, clip.Blendshapes[animation.BlendshapeJawOpen])
	assert.Equal(t, 0.1, clip.ResetPose["Armature/Hips/Spine"].Position.Y)
	assert.Nil(t, clip.ArmatureKeys)
}

func TestEncode_MsgpackPreservesClip(t *testing.T) {
	clip, err := Decode([]byte(waveYAML), FormatYAML)
	require.NoError(t, err)

	data, err := Encode(clip, FormatMsgpack)
	require.NoError(t, err)
	back, err := Decode(data, FormatMsgpack)
	require.NoError(t, err)
	assert.Equal(t, clip, back)
}

func TestDecode_Rejects(t *testing.T) {
	cases := map[string]struct {
		body string
		err  error
	}{
		"unknown bone": {
			body: "name: x\nframeRate: 10\nkeyCount: 1\nchannels:\n  - bone: Tail\n    keys: [{r: [0, 0, 0, 1]}]\n",
			err:  ErrInvalidDocument,
		},
		"short rotation": {
			body: "name: x\nframeRate: 10\nkeyCount: 1\nchannels:\n  - bone: Hips\n    keys: [{r: [0, 0, 1]}]\n",
			err:  ErrInvalidDocument,
		},
		"unknown blendshape": {
			body: "name: x\nframeRate: 10\nkeyCount: 1\nchannels: []\nblendshapes:\n  frown: [1]\n",
			err:  ErrInvalidDocument,
		},
		"key count mismatch": {
			body: "name: x\nframeRate: 10\nkeyCount: 2\nchannels:\n  - bone: Hips\n    keys: [{r: [0, 0, 0, 1]}]\n",
			err:  animation.ErrInvalidClip,
		},
		"zero frame rate": {
			body: "name: x\nframeRate: 0\nkeyCount: 0\nchannels: []\n",
			err:  animation.ErrInvalidClip,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(tc.body), FormatYAML)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestDecode_MalformedInput(t *testing.T) {
	_, err := Decode([]byte("name: [unterminated"), FormatYAML)
	assert.Error(t, err)
	_, err = Decode([]byte{0xc1}, FormatMsgpack)
	assert.Error(t, err)
	_, err = Decode(nil, Format(9))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestFormatForPath(t *testing.T) {
	for path, want := range map[string]Format{
		"a.yaml": FormatYAML, "b.YML": FormatYAML, "c.msgpack": FormatMsgpack, "d.mpk": FormatMsgpack,
		"e.gltf": FormatGLTF, "f.GLB": FormatGLTF,
	} {
		got, err := FormatForPath(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}
	_, err := FormatForPath("clip.json")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestSaveAndLoad(t *testing.T) {
	clip, err := Decode([]byte(waveYAML), FormatYAML)
	require.NoError(t, err)
	dir := t.TempDir()

	for _, name := range []string{"wave.yaml", "wave.msgpack"} {
		path := filepath.Join(dir, name)
		require.NoError(t, Save(path, clip))
		loaded, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, clip, loaded, name)
	}

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
	assert.ErrorIs(t, Save(filepath.Join(dir, "wave.txt"), clip), ErrUnknownFormat)
}

func TestLibrary_ResolvesAndCaches(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wave.yaml"), []byte(waveYAML), 0644))
	lib := NewLibrary(dir)

	first, err := lib.Clip("wave")
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(dir, "wave.yaml")))
	second, err := lib.Clip("wave")
	require.NoError(t, err)
	assert.Same(t, first, second, "decoded clips are cached")

	_, err = lib.Clip("idle")
	assert.ErrorIs(t, err, ErrClipNotFound)
	_, err = lib.Clip("idle.msgpack")
	assert.ErrorIs(t, err, ErrClipNotFound)

	custom := &animation.Clip{Name: "custom", FrameRate: 10}
	lib.Put("custom", custom)
	got, err := lib.Clip("custom")
	require.NoError(t, err)
	assert.Same(t, custom, got)
}

func TestLibrary_LoadsByFileName(t *testing.T) {
	dir := t.TempDir()
	clip, err := Decode([]byte(waveYAML), FormatYAML)
	require.NoError(t, err)
	require.NoError(t, Save(filepath.Join(dir, "wave.mpk"), clip))

	got, err := NewLibrary(dir).Clip("wave.mpk")
	require.NoError(t, err)
	assert.Equal(t, "wave", got.Name)
}
