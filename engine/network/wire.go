package network

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-pose/common"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrInvalidSession is returned by Decode when the session GUID cannot be parsed.
	ErrInvalidSession = errors.New("network: invalid session id")

	// ErrTruncated is returned by Decode when the payload ends before the pose does.
	ErrTruncated = errors.New("network: truncated pose payload")
)

const (
	rotationBytes = 4 * 2
	vectorBytes   = 3 * 2
)

// BonePose is the wire representation of one bone.
type BonePose struct {
	Rotation quat.Number
	Position r3.Vec
	Scale    r3.Vec
}

// NetworkedPose is one session-tagged pose sample.
//
// Bone 0 always carries a position. Other bones carry one only when PositionEnabled is set, and every
// bone carries a scale only when ScaleEnabled is set.
type NetworkedPose struct {
	// Session identifies the playback instance the pose belongs to.
	Session uuid.UUID

	// Timestamp is the sender time in seconds. It travels beside the payload, not inside it.
	Timestamp float64

	PositionEnabled bool
	ScaleEnabled    bool

	// Bones holds one entry per bone in the sender's network bone order.
	Bones []BonePose
}

// HasPosition reports whether bone i of the pose carries a position on the wire.
func (p *NetworkedPose) HasPosition(i int) bool {
	return i == 0 || p.PositionEnabled
}

// EncodedSize returns the number of bytes Encode produces for pose.
//
// Parameters:
//   - pose: the pose to measure, may be nil
//
// Returns:
//   - int: the payload length
func EncodedSize(pose *NetworkedPose) int {
	if pose == nil {
		return 0
	}
	id := pose.Session.String()
	n := uvarintLen(uint64(len(id))) + len(id) + 4 + 1 + 1
	for i := range pose.Bones {
		n += rotationBytes
		if pose.HasPosition(i) {
			n += vectorBytes
		}
		if pose.ScaleEnabled {
			n += vectorBytes
		}
	}
	return n
}

// Encode serializes pose. A nil pose encodes to an empty payload, the explicit "no pose" signal.
//
// Layout, little endian: uvarint GUID length, GUID string, int32 bone count, position flag, scale flag,
// then per bone int16 rotation x y z w, int16 position x y z when present and int16 scale x y z when
// enabled. Components are quantized with common.Quantize.
//
// Parameters:
//   - pose: the pose to serialize
//
// Returns:
//   - []byte: the payload
func Encode(pose *NetworkedPose) []byte {
	if pose == nil {
		return []byte{}
	}
	buf := make([]byte, 0, EncodedSize(pose))

	id := pose.Session.String()
	buf = binary.AppendUvarint(buf, uint64(len(id)))
	buf = append(buf, id...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(int32(len(pose.Bones))))
	buf = appendBool(buf, pose.PositionEnabled)
	buf = appendBool(buf, pose.ScaleEnabled)

	for i, b := range pose.Bones {
		buf = appendComponents(buf, b.Rotation.Imag, b.Rotation.Jmag, b.Rotation.Kmag, b.Rotation.Real)
		if pose.HasPosition(i) {
			buf = appendComponents(buf, b.Position.X, b.Position.Y, b.Position.Z)
		}
		if pose.ScaleEnabled {
			buf = appendComponents(buf, b.Scale.X, b.Scale.Y, b.Scale.Z)
		}
	}
	return buf
}

// Decode parses a payload produced by Encode. An empty payload decodes to a nil pose and no error.
// Bones without a position on the wire decode at the origin and bones without a scale decode at unit
// scale. The returned pose has a zero Timestamp.
//
// Parameters:
//   - data: the payload
//
// Returns:
//   - *NetworkedPose: the pose, or nil for the "no pose" signal or on error
//   - error: ErrInvalidSession or ErrTruncated wrapped with detail, or nil
func Decode(data []byte) (*NetworkedPose, error) {
	if len(data) == 0 {
		return nil, nil
	}
	r := &reader{data: data}

	idLen, err := r.uvarint()
	if err != nil {
		return nil, err
	}
	raw, err := r.bytes(idLen)
	if err != nil {
		return nil, fmt.Errorf("%w: session id", err)
	}
	session, err := uuid.Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	count, err := r.uint32()
	if err != nil {
		return nil, fmt.Errorf("%w: bone count", err)
	}
	if int32(count) < 0 {
		return nil, fmt.Errorf("%w: negative bone count %d", ErrTruncated, int32(count))
	}
	posEnabled, err := r.bool()
	if err != nil {
		return nil, err
	}
	scaleEnabled, err := r.bool()
	if err != nil {
		return nil, err
	}

	pose := &NetworkedPose{
		Session:         session,
		PositionEnabled: posEnabled,
		ScaleEnabled:    scaleEnabled,
	}
	// every bone carries at least a rotation, so a count larger than that is a lie
	if int(count) > r.remaining()/rotationBytes {
		return nil, fmt.Errorf("%w: %d bones in %d bytes", ErrTruncated, count, r.remaining())
	}
	pose.Bones = make([]BonePose, count)

	for i := range pose.Bones {
		var c [4]float64
		if err := r.components(c[:4]); err != nil {
			return nil, fmt.Errorf("%w: bone %d rotation", err, i)
		}
		b := BonePose{
			Rotation: quat.Number{Real: c[3], Imag: c[0], Jmag: c[1], Kmag: c[2]},
			Scale:    r3.Vec{X: 1, Y: 1, Z: 1},
		}
		if pose.HasPosition(i) {
			if err := r.components(c[:3]); err != nil {
				return nil, fmt.Errorf("%w: bone %d position", err, i)
			}
			b.Position = r3.Vec{X: c[0], Y: c[1], Z: c[2]}
		}
		if scaleEnabled {
			if err := r.components(c[:3]); err != nil {
				return nil, fmt.Errorf("%w: bone %d scale", err, i)
			}
			b.Scale = r3.Vec{X: c[0], Y: c[1], Z: c[2]}
		}
		pose.Bones[i] = b
	}
	return pose, nil
}

func appendBool(buf []byte, v bool) []byte {
	if v {
		return append(buf, 1)
	}
	return append(buf, 0)
}

func appendComponents(buf []byte, values ...float64) []byte {
	for _, v := range values {
		buf = binary.LittleEndian.AppendUint16(buf, uint16(common.Quantize(v)))
	}
	return buf
}

func uvarintLen(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}

// reader walks a payload and reports ErrTruncated on every short read.
type reader struct {
	data []byte
	off  int
}

func (r *reader) remaining() int {
	return len(r.data) - r.off
}

func (r *reader) uvarint() (int, error) {
	v, n := binary.Uvarint(r.data[r.off:])
	if n <= 0 {
		return 0, fmt.Errorf("%w: session id length", ErrTruncated)
	}
	r.off += n
	if v > uint64(r.remaining()) {
		return 0, fmt.Errorf("%w: session id of %d bytes", ErrTruncated, v)
	}
	return int(v), nil
}

func (r *reader) bytes(n int) ([]byte, error) {
	if r.remaining() < n {
		return nil, ErrTruncated
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *reader) uint32() (uint32, error) {
	b, err := r.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *reader) bool() (bool, error) {
	b, err := r.bytes(1)
	if err != nil {
		return false, fmt.Errorf("%w: flags", err)
	}
	return b[0] != 0, nil
}

func (r *reader) components(out []float64) error {
	b, err := r.bytes(2 * len(out))
	if err != nil {
		return err
	}
	for i := range out {
		out[i] = common.Dequantize(int16(binary.LittleEndian.Uint16(b[2*i:])))
	}
	return nil
}
