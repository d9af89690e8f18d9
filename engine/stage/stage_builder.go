package stage

import (
	"github.com/Carmen-Shannon/oxy-pose/engine/avatar"
	"go.uber.org/zap"
)

// StageBuilderOption is a functional option for configuring a Stage.
// Use the With* functions to create options.
type StageBuilderOption func(s *stage)

// WithAvatars adds initial avatars to the stage.
// Avatars without IDs will be assigned new IDs.
//
// Parameters:
//   - avatars: the avatars to add
//
// Returns:
//   - StageBuilderOption: option function to apply
func WithAvatars(avatars ...avatar.Avatar) StageBuilderOption {
	return func(s *stage) {
		for _, a := range avatars {
			s.add(a)
		}
	}
}

// WithWorkers sets the number of worker goroutines avatars are ticked on. Defaults to runtime.NumCPU()-1.
//
// Parameters:
//   - n: the number of workers (minimum 1)
//
// Returns:
//   - StageBuilderOption: option function to apply
func WithWorkers(n int) StageBuilderOption {
	return func(s *stage) {
		if n < 1 {
			n = 1
		}
		s.tickWorkers = n
	}
}

// WithPacketSink sets the function every outgoing payload is passed to.
//
// Parameters:
//   - sink: the packet sink
//
// Returns:
//   - StageBuilderOption: option function to apply
func WithPacketSink(sink func(avatar.Packet)) StageBuilderOption {
	return func(s *stage) {
		s.sink = sink
	}
}

// WithLogger sets the logger for the stage.
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - StageBuilderOption: option function to apply
func WithLogger(logger *zap.Logger) StageBuilderOption {
	return func(s *stage) {
		if logger != nil {
			s.logger = logger
		}
	}
}
