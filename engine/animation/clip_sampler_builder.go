package animation

// ClipSamplerBuilderOption is a functional option for configuring a ClipSampler during construction.
type ClipSamplerBuilderOption func(*clipSampler)

// WithMain marks the sampler as the cadence reference of its owner.
//
// Parameters:
//   - main: true if the sampler drives cadence
//
// Returns:
//   - ClipSamplerBuilderOption: a function that applies the main option to a sampler
func WithMain(main bool) ClipSamplerBuilderOption {
	return func(s *clipSampler) {
		s.isMain = main
	}
}
