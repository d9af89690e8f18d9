package avatar

import (
	"github.com/Carmen-Shannon/oxy-pose/engine/network"
	"github.com/Carmen-Shannon/oxy-pose/engine/simulation"
	"go.uber.org/zap"
)

// AvatarBuilderOption is a functional option for configuring an Avatar during construction.
type AvatarBuilderOption func(*avatar)

// WithID sets the ID of the Avatar.
//
// Parameters:
//   - id: unique identifier for the Avatar
//
// Returns:
//   - AvatarBuilderOption: functional option to set the ID
func WithID(id uint64) AvatarBuilderOption {
	return func(a *avatar) {
		a.id = id
	}
}

// WithName sets the display name of the Avatar.
//
// Parameters:
//   - name: the display name
//
// Returns:
//   - AvatarBuilderOption: functional option to set the name
func WithName(name string) AvatarBuilderOption {
	return func(a *avatar) {
		a.name = name
	}
}

// WithEnabled sets whether the Avatar is ticked.
//
// Parameters:
//   - enabled: true to tick the avatar, false to skip it
//
// Returns:
//   - AvatarBuilderOption: functional option to set the Enabled state
func WithEnabled(enabled bool) AvatarBuilderOption {
	return func(a *avatar) {
		a.enabled.Store(enabled)
	}
}

// WithRig sets the rig frames are written to. Defaults to a humanoid bind pose.
//
// Parameters:
//   - rig: the rig
//
// Returns:
//   - AvatarBuilderOption: functional option to set the rig
func WithRig(rig *Rig) AvatarBuilderOption {
	return func(a *avatar) {
		a.rig = rig
	}
}

// WithLocalPlayback gives the Avatar a SimulationSampler that writes onto its rig.
//
// Parameters:
//   - options: options forwarded to simulation.NewSimulationSampler
//
// Returns:
//   - AvatarBuilderOption: functional option to enable local playback
func WithLocalPlayback(options ...simulation.SimulationSamplerBuilderOption) AvatarBuilderOption {
	return func(a *avatar) {
		a.local = true
		a.samplerOpts = append(a.samplerOpts, options...)
	}
}

// WithSampler gives the Avatar an already built SimulationSampler. The caller is responsible for
// pointing it at a pose interpreter.
//
// Parameters:
//   - sampler: the sampler
//
// Returns:
//   - AvatarBuilderOption: functional option to set the sampler
func WithSampler(sampler simulation.SimulationSampler) AvatarBuilderOption {
	return func(a *avatar) {
		a.sampler = sampler
	}
}

// WithSender mirrors the Avatar's local frames through sender.
//
// Parameters:
//   - sender: the pose sender
//
// Returns:
//   - AvatarBuilderOption: functional option to set the sender
func WithSender(sender network.PoseSender) AvatarBuilderOption {
	return func(a *avatar) {
		a.sender = sender
	}
}

// WithReceiver plays delivered payloads through receiver onto the Avatar's rig.
//
// Parameters:
//   - receiver: the pose receiver
//
// Returns:
//   - AvatarBuilderOption: functional option to set the receiver
func WithReceiver(receiver network.PoseReceiver) AvatarBuilderOption {
	return func(a *avatar) {
		a.receiver = receiver
	}
}

// WithLogger sets the logger for the Avatar and the sampler it builds.
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - AvatarBuilderOption: functional option to set the logger
func WithLogger(logger *zap.Logger) AvatarBuilderOption {
	return func(a *avatar) {
		if logger != nil {
			a.logger = logger
		}
	}
}
