package model

// SkeletonPoolBuilderOption is a functional option for configuring a SkeletonPool via NewSkeletonPool.
type SkeletonPoolBuilderOption func(*skeletonPool)

// WithBindPose is an option builder that sets the template skeleton handed out by the pool.
//
// Parameters:
//   - skeleton: the bind pose to copy on checkout
//
// Returns:
//   - SkeletonPoolBuilderOption: a function that applies the bind pose option to a pool
func WithBindPose(skeleton *Skeleton) SkeletonPoolBuilderOption {
	return func(p *skeletonPool) {
		p.bindPose = skeleton
	}
}

// WithPrealloc is an option builder that fills the pool's free list up front.
//
// Parameters:
//   - n: the number of skeletons to allocate ahead of the first checkout
//
// Returns:
//   - SkeletonPoolBuilderOption: a function that applies the prealloc option to a pool
func WithPrealloc(n int) SkeletonPoolBuilderOption {
	return func(p *skeletonPool) {
		if p.bindPose == nil {
			p.bindPose = NewHumanoidSkeleton()
		}
		for range n {
			p.free = append(p.free, p.bindPose.Clone())
		}
	}
}
