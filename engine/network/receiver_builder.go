package network

import (
	"slices"

	"github.com/Carmen-Shannon/oxy-pose/engine/animation"
	"go.uber.org/zap"
)

// PoseReceiverBuilderOption is a functional option for configuring a PoseReceiver via NewPoseReceiver.
type PoseReceiverBuilderOption func(*poseReceiver)

// WithTargetDepth sets how many poses are buffered before playback starts and below which the receiver
// counts as draining.
//
// Parameters:
//   - depth: the target buffer depth, at least 1
//
// Returns:
//   - PoseReceiverBuilderOption: a function that applies the depth option to a receiver
func WithTargetDepth(depth int) PoseReceiverBuilderOption {
	return func(r *poseReceiver) {
		r.targetDepth = max(depth, 1)
	}
}

// WithMaxWait sets how long, in seconds, a draining receiver waits for a new pose before ending the stream.
//
// Parameters:
//   - seconds: the max wait
//
// Returns:
//   - PoseReceiverBuilderOption: a function that applies the max wait option to a receiver
func WithMaxWait(seconds float64) PoseReceiverBuilderOption {
	return func(r *poseReceiver) {
		if seconds > 0 {
			r.maxWait = seconds
		}
	}
}

// WithSmoothing sets the share of the distance to the current pose covered each tick. The ratio is applied
// per tick and does not scale with dt.
//
// Parameters:
//   - ratio: the smoothing ratio in (0, 1]
//
// Returns:
//   - PoseReceiverBuilderOption: a function that applies the smoothing option to a receiver
func WithSmoothing(ratio float64) PoseReceiverBuilderOption {
	return func(r *poseReceiver) {
		if ratio > 0 && ratio <= 1 {
			r.smoothing = ratio
		}
	}
}

// WithReceivePosition sets whether positions of bones other than bone 0 are applied when the sender sends them.
//
// Parameters:
//   - enabled: true to apply every position
//
// Returns:
//   - PoseReceiverBuilderOption: a function that applies the position option to a receiver
func WithReceivePosition(enabled bool) PoseReceiverBuilderOption {
	return func(r *poseReceiver) {
		r.usePosition = enabled
	}
}

// WithReceiveScale sets whether scales are applied when the sender sends them.
//
// Parameters:
//   - enabled: true to apply scale
//
// Returns:
//   - PoseReceiverBuilderOption: a function that applies the scale option to a receiver
func WithReceiveScale(enabled bool) PoseReceiverBuilderOption {
	return func(r *poseReceiver) {
		r.useScale = enabled
	}
}

// WithShortStreams sets whether a session that never reaches the target depth starts playing once it has
// warmed up for longer than the max wait. Off by default: such a session keeps waiting.
//
// Parameters:
//   - enabled: true to play short streams
//
// Returns:
//   - PoseReceiverBuilderOption: a function that applies the short stream option to a receiver
func WithShortStreams(enabled bool) PoseReceiverBuilderOption {
	return func(r *poseReceiver) {
		r.playShort = enabled
	}
}

// WithReceiveBoneOrder sets the network bone order. It must match the sender's.
//
// Parameters:
//   - bones: the bones in network order
//
// Returns:
//   - PoseReceiverBuilderOption: a function that applies the bone order option to a receiver
func WithReceiveBoneOrder(bones ...animation.BoneID) PoseReceiverBuilderOption {
	return func(r *poseReceiver) {
		if len(bones) > 0 {
			r.boneOrder = slices.Clone(bones)
		}
	}
}

// WithLogger sets the logger for the receiver.
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - PoseReceiverBuilderOption: a function that applies the logger option to a receiver
func WithLogger(logger *zap.Logger) PoseReceiverBuilderOption {
	return func(r *poseReceiver) {
		if logger != nil {
			r.logger = logger
		}
	}
}
