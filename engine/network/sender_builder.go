package network

import (
	"slices"

	"github.com/Carmen-Shannon/oxy-pose/engine/animation"
)

// PoseSenderBuilderOption is a functional option for configuring a PoseSender via NewPoseSender.
type PoseSenderBuilderOption func(*poseSender)

// WithSendPosition sets whether bones other than bone 0 carry their position.
//
// Parameters:
//   - enabled: true to send every position
//
// Returns:
//   - PoseSenderBuilderOption: a function that applies the position option to a sender
func WithSendPosition(enabled bool) PoseSenderBuilderOption {
	return func(s *poseSender) {
		s.sendPosition = enabled
	}
}

// WithSendScale sets whether bones carry their scale.
//
// Parameters:
//   - enabled: true to send scale
//
// Returns:
//   - PoseSenderBuilderOption: a function that applies the scale option to a sender
func WithSendScale(enabled bool) PoseSenderBuilderOption {
	return func(s *poseSender) {
		s.sendScale = enabled
	}
}

// WithBoneOrder sets the network bone order. Sender and receiver must agree on it. An empty order is ignored.
//
// Parameters:
//   - bones: the bones to send, bone 0 first
//
// Returns:
//   - PoseSenderBuilderOption: a function that applies the bone order option to a sender
func WithBoneOrder(bones ...animation.BoneID) PoseSenderBuilderOption {
	return func(s *poseSender) {
		if len(bones) > 0 {
			s.boneOrder = slices.Clone(bones)
		}
	}
}
