package effect

import "go.uber.org/zap"

// PipelineBuilderOption is a functional option for configuring a Pipeline via NewPipeline.
type PipelineBuilderOption func(*pipeline)

// WithAuthority sets the Authority bound to every AuthorityUser on registration.
//
// Parameters:
//   - authority: the owner's authority bridge
//
// Returns:
//   - PipelineBuilderOption: a function that applies the authority option to a pipeline
func WithAuthority(authority Authority) PipelineBuilderOption {
	return func(p *pipeline) {
		if authority != nil {
			p.authority = authority
		}
	}
}

// WithLogger sets the logger used to report registration problems.
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - PipelineBuilderOption: a function that applies the logger option to a pipeline
func WithLogger(logger *zap.Logger) PipelineBuilderOption {
	return func(p *pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithEffects registers effects as soon as the pipeline is built.
//
// Parameters:
//   - effects: the effects to register, in modify order
//
// Returns:
//   - PipelineBuilderOption: a function that registers the effects on a pipeline
func WithEffects(effects ...Effect) PipelineBuilderOption {
	return func(p *pipeline) {
		p.pendingEffects = append(p.pendingEffects, effects...)
	}
}
