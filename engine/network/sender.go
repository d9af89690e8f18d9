package network

import (
	"slices"

	"github.com/Carmen-Shannon/oxy-pose/common"
	"github.com/Carmen-Shannon/oxy-pose/engine/animation"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"
)

// poseSender is the implementation of the PoseSender interface.
type poseSender struct {
	boneOrder    []animation.BoneID
	sendPosition bool
	sendScale    bool

	session     uuid.UUID
	lastSession uuid.UUID
	active      bool
}

// PoseSender turns emitted frames into session-tagged NetworkedPoses in a fixed network bone order.
type PoseSender interface {
	// StartPose begins a new session and returns its id.
	StartPose() uuid.UUID

	// StopPose ends the current session, remembering it as the last one.
	StopPose()

	// Active reports whether a session is running.
	Active() bool

	// Session returns the current session id, or uuid.Nil when idle.
	Session() uuid.UUID

	// LastSession returns the id of the most recently stopped session.
	LastSession() uuid.UUID

	// BoneOrder returns the network bone order.
	BoneOrder() []animation.BoneID

	// GetPose reprojects frame into network bone order. Bones the frame does not carry are sent at
	// identity, and bone 0 always carries its position.
	//
	// Parameters:
	//   - frame: the frame to send
	//   - timestamp: the sender time of the frame in seconds
	//
	// Returns:
	//   - *NetworkedPose: the pose, or nil when idle or when frame carries no bones
	GetPose(frame *animation.Frame, timestamp float64) *NetworkedPose

	// Encode is GetPose followed by Encode. It returns an empty payload when GetPose returns nil.
	//
	// Parameters:
	//   - frame: the frame to send
	//   - timestamp: the sender time of the frame in seconds
	//
	// Returns:
	//   - []byte: the wire payload
	Encode(frame *animation.Frame, timestamp float64) []byte
}

var _ PoseSender = &poseSender{}

// NewPoseSender creates an idle PoseSender. Bones are sent in canonical order with positions for bone 0
// only and no scale unless configured otherwise.
//
// Parameters:
//   - options: variadic list of PoseSenderBuilderOption functions
//
// Returns:
//   - PoseSender: the new sender
func NewPoseSender(options ...PoseSenderBuilderOption) PoseSender {
	s := &poseSender{
		boneOrder: animation.CanonicalBones(),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *poseSender) StartPose() uuid.UUID {
	s.session = uuid.New()
	s.active = true
	return s.session
}

func (s *poseSender) StopPose() {
	if !s.active {
		return
	}
	s.lastSession = s.session
	s.session = uuid.Nil
	s.active = false
}

func (s *poseSender) Active() bool {
	return s.active
}

func (s *poseSender) Session() uuid.UUID {
	return s.session
}

func (s *poseSender) LastSession() uuid.UUID {
	return s.lastSession
}

func (s *poseSender) BoneOrder() []animation.BoneID {
	return slices.Clone(s.boneOrder)
}

func (s *poseSender) GetPose(frame *animation.Frame, timestamp float64) *NetworkedPose {
	if !s.active || frame == nil || frame.Len() == 0 {
		return nil
	}
	pose := &NetworkedPose{
		Session:         s.session,
		Timestamp:       timestamp,
		PositionEnabled: s.sendPosition,
		ScaleEnabled:    s.sendScale,
		Bones:           make([]BonePose, len(s.boneOrder)),
	}
	for i, bone := range s.boneOrder {
		b := BonePose{Rotation: common.QuatIdentity(), Scale: r3.Vec{X: 1, Y: 1, Z: 1}}
		if t, ok := frame.Transform(bone); ok {
			b.Rotation = t.RotationOrIdentity()
			b.Position = t.PositionOrZero()
			b.Scale = t.ScaleOrOne()
		}
		pose.Bones[i] = b
	}
	return pose
}

func (s *poseSender) Encode(frame *animation.Frame, timestamp float64) []byte {
	return Encode(s.GetPose(frame, timestamp))
}
