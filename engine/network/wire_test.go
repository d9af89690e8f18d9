package network

import (
	"encoding/binary"
	"testing"

	"github.com/Carmen-Shannon/oxy-pose/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

func twoBonePose(position, scale bool) *NetworkedPose {
	return &NetworkedPose{
		Session:         uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
		PositionEnabled: position,
		ScaleEnabled:    scale,
		Bones: []BonePose{
			{Rotation: yaw(30), Position: r3.Vec{X: 0.25, Y: 1.02, Z: -3.5}, Scale: r3.Vec{X: 1, Y: 1, Z: 1}},
			{Rotation: yaw(-75), Position: r3.Vec{Y: 0.1}, Scale: r3.Vec{X: 0.5, Y: 2, Z: 1}},
		},
	}
}

func TestEncode_TwoBoneSize(t *testing.T) {
	pose := twoBonePose(false, false)
	buf := Encode(pose)

	guid := pose.Session.String()
	// uvarint length prefix, guid, bone count, two flags, two rotations, bone 0 position
	want := 1 + len(guid) + 4 + 1 + 1 + 2*8 + 6
	assert.Len(t, buf, want)
	assert.Equal(t, 65, want)
	assert.Equal(t, want, EncodedSize(pose))

	assert.Equal(t, byte(len(guid)), buf[0])
	assert.Equal(t, guid, string(buf[1:1+len(guid)]))
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(buf[1+len(guid):]))
}

func TestEncode_SizeGrowsWithToggles(t *testing.T) {
	base := len(Encode(twoBonePose(false, false)))
	assert.Equal(t, base+6, len(Encode(twoBonePose(true, false))), "only bone 1 gains a position")
	assert.Equal(t, base+12, len(Encode(twoBonePose(false, true))), "both bones gain a scale")
	assert.Equal(t, base+18, len(Encode(twoBonePose(true, true))))
}

func TestDecode_RoundTrip(t *testing.T) {
	pose := twoBonePose(true, true)
	got, err := Decode(Encode(pose))
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, pose.Session, got.Session)
	assert.True(t, got.PositionEnabled)
	assert.True(t, got.ScaleEnabled)
	require.Len(t, got.Bones, 2)
	for i := range pose.Bones {
		want, have := pose.Bones[i], got.Bones[i]
		assert.InDelta(t, want.Rotation.Real, have.Rotation.Real, 0.0005)
		assert.InDelta(t, want.Rotation.Jmag, have.Rotation.Jmag, 0.0005)
		assert.InDelta(t, want.Position.X, have.Position.X, 0.0005)
		assert.InDelta(t, want.Position.Z, have.Position.Z, 0.0005)
		assert.InDelta(t, want.Scale.X, have.Scale.X, 0.0005)
		assert.InDelta(t, want.Scale.Y, have.Scale.Y, 0.0005)
	}
}

func TestDecode_AbsentComponentsDefault(t *testing.T) {
	got, err := Decode(Encode(twoBonePose(false, false)))
	require.NoError(t, err)

	assert.InDelta(t, -3.5, got.Bones[0].Position.Z, 0.0005, "bone 0 always carries its position")
	assert.Equal(t, r3.Vec{}, got.Bones[1].Position)
	assert.Equal(t, r3.Vec{X: 1, Y: 1, Z: 1}, got.Bones[1].Scale)
}

func TestDecode_RotationComponentOrder(t *testing.T) {
	pose := &NetworkedPose{
		Session: uuid.New(),
		Bones:   []BonePose{{Rotation: quat.Number{Real: 0.4, Imag: 0.1, Jmag: 0.2, Kmag: 0.3}}},
	}
	buf := Encode(pose)
	off := 1 + 36 + 6
	for i, want := range []float64{0.1, 0.2, 0.3, 0.4} {
		q := int16(binary.LittleEndian.Uint16(buf[off+2*i:]))
		assert.Equal(t, common.Quantize(want), q, "component %d", i)
	}
}

func TestDecode_EmptyIsNoPose(t *testing.T) {
	got, err := Decode(nil)
	assert.NoError(t, err)
	assert.Nil(t, got)

	got, err = Decode([]byte{})
	assert.NoError(t, err)
	assert.Nil(t, got)

	assert.Empty(t, Encode(nil))
}

func TestDecode_InvalidSession(t *testing.T) {
	buf := binary.AppendUvarint(nil, 3)
	buf = append(buf, "abc"...)
	buf = binary.LittleEndian.AppendUint32(buf, 0)
	buf = append(buf, 0, 0)

	got, err := Decode(buf)
	assert.ErrorIs(t, err, ErrInvalidSession)
	assert.Nil(t, got)
}

func TestDecode_EveryPrefixIsTruncated(t *testing.T) {
	buf := Encode(twoBonePose(true, true))
	for n := 1; n < len(buf); n++ {
		got, err := Decode(buf[:n])
		assert.ErrorIs(t, err, ErrTruncated, "prefix of %d bytes", n)
		assert.Nil(t, got)
	}
}

func TestDecode_BoneCountLargerThanPayload(t *testing.T) {
	buf := Encode(twoBonePose(false, false))
	off := 1 + 36
	binary.LittleEndian.PutUint32(buf[off:], 1<<20)
	_, err := Decode(buf)
	assert.ErrorIs(t, err, ErrTruncated)

	binary.LittleEndian.PutUint32(buf[off:], uint32(0xFFFFFFFF))
	_, err = Decode(buf)
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestEncode_Saturates(t *testing.T) {
	pose := &NetworkedPose{
		Session: uuid.New(),
		Bones:   []BonePose{{Rotation: common.QuatIdentity(), Position: r3.Vec{X: 100, Y: -100}}},
	}
	got, err := Decode(Encode(pose))
	require.NoError(t, err)
	assert.InDelta(t, common.QuantizeLimit, got.Bones[0].Position.X, 1e-9)
	assert.InDelta(t, -common.QuantizeLimit, got.Bones[0].Position.Y, 1e-9)
}
