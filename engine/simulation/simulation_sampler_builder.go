package simulation

import (
	"github.com/Carmen-Shannon/oxy-pose/engine/animation"
	"github.com/Carmen-Shannon/oxy-pose/engine/effect"
	"github.com/Carmen-Shannon/oxy-pose/engine/model"
	"go.uber.org/zap"
)

// SimulationSamplerBuilderOption is a functional option for configuring a SimulationSampler via NewSimulationSampler.
type SimulationSamplerBuilderOption func(*simulationSampler)

// WithEffects registers effects on the sampler's pipeline, in modify order.
//
// Parameters:
//   - effects: the effects to register
//
// Returns:
//   - SimulationSamplerBuilderOption: a function that applies the effects option to a sampler
func WithEffects(effects ...effect.Effect) SimulationSamplerBuilderOption {
	return func(s *simulationSampler) {
		s.effects = append(s.effects, effects...)
	}
}

// WithPoseInterpreter sets the interpreter emitted frames are written to. Its Pose is also the
// avatar pose effects blend against.
//
// Parameters:
//   - interp: the pose interpreter
//
// Returns:
//   - SimulationSamplerBuilderOption: a function that applies the interpreter option to a sampler
func WithPoseInterpreter(interp animation.PoseInterpreter) SimulationSamplerBuilderOption {
	return func(s *simulationSampler) {
		s.interp = interp
	}
}

// WithSkeletonPool sets the pool bind-pose skeletons are checked out from.
//
// Parameters:
//   - pool: the skeleton pool
//
// Returns:
//   - SimulationSamplerBuilderOption: a function that applies the pool option to a sampler
func WithSkeletonPool(pool model.SkeletonPool) SimulationSamplerBuilderOption {
	return func(s *simulationSampler) {
		s.pool = pool
	}
}

// WithLogger sets the logger for the sampler and its pipeline.
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - SimulationSamplerBuilderOption: a function that applies the logger option to a sampler
func WithLogger(logger *zap.Logger) SimulationSamplerBuilderOption {
	return func(s *simulationSampler) {
		if logger != nil {
			s.logger = logger
		}
	}
}
