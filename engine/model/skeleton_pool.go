package model

import "sync"

// skeletonPool is the implementation of the SkeletonPool interface.
type skeletonPool struct {
	mu          sync.Mutex
	bindPose    *Skeleton
	free        []*Skeleton
	outstanding int
}

// SkeletonPool hands out scratch copies of a bind-pose skeleton.
// Every checked-out handle must be disposed by its holder; the pool never reclaims a handle on its own.
type SkeletonPool interface {
	// Checkout borrows a skeleton reset to the bind pose.
	//
	// Returns:
	//   - *SkeletonHandle: the handle owning the borrowed skeleton
	Checkout() *SkeletonHandle

	// Outstanding reports how many handles are checked out and not yet disposed.
	//
	// Returns:
	//   - int: the number of live handles
	Outstanding() int

	// BindPose returns the pool's template skeleton. Callers must not mutate it.
	//
	// Returns:
	//   - *Skeleton: the bind pose
	BindPose() *Skeleton
}

var _ SkeletonPool = &skeletonPool{}

// NewSkeletonPool creates a new SkeletonPool. Without options the pool serves the default humanoid bind pose.
//
// Parameters:
//   - options: variadic list of SkeletonPoolBuilderOption functions
//
// Returns:
//   - SkeletonPool: the new pool
func NewSkeletonPool(options ...SkeletonPoolBuilderOption) SkeletonPool {
	p := &skeletonPool{}
	for _, opt := range options {
		opt(p)
	}
	if p.bindPose == nil {
		p.bindPose = NewHumanoidSkeleton()
	}
	return p
}

func (p *skeletonPool) Checkout() *SkeletonHandle {
	p.mu.Lock()
	defer p.mu.Unlock()

	var s *Skeleton
	if n := len(p.free); n > 0 {
		s = p.free[n-1]
		p.free = p.free[:n-1]
		copy(s.Bones, p.bindPose.Bones)
		s.Armature = p.bindPose.Armature
	} else {
		s = p.bindPose.Clone()
	}
	p.outstanding++
	return &SkeletonHandle{pool: p, skeleton: s}
}

func (p *skeletonPool) Outstanding() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.outstanding
}

func (p *skeletonPool) BindPose() *Skeleton {
	return p.bindPose
}

func (p *skeletonPool) release(s *Skeleton) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.outstanding--
	p.free = append(p.free, s)
}

// SkeletonHandle owns a skeleton borrowed from a SkeletonPool until Dispose is called.
// A nil handle is valid and owns nothing.
type SkeletonHandle struct {
	pool     *skeletonPool
	skeleton *Skeleton
}

// Skeleton returns the borrowed skeleton, or nil once the handle was disposed.
func (h *SkeletonHandle) Skeleton() *Skeleton {
	if h == nil {
		return nil
	}
	return h.skeleton
}

// Dispose returns the skeleton to its pool. Disposing twice is a no-op.
func (h *SkeletonHandle) Dispose() {
	if h == nil || h.skeleton == nil {
		return
	}
	s := h.skeleton
	h.skeleton = nil
	h.pool.release(s)
}
