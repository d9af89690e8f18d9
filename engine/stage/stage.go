package stage

import (
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-pose/engine/avatar"
	"go.uber.org/zap"
)

// Stage owns a registry of Avatars and ticks them once per host frame. Avatars are ticked in parallel on
// a worker pool; each avatar is only ever touched by one worker per frame. Payloads produced by the tick
// are routed to subscribed avatars and handed to the packet sink after every avatar has finished.
// Thread-safe for concurrent access.
type Stage interface {
	// Name returns the stage's identifier.
	Name() string

	// Count returns the number of registered avatars.
	//
	// Returns:
	//   - int: the avatar count
	Count() int

	// Add registers an avatar, assigning it an ID when it has none.
	//
	// Parameters:
	//   - a: the avatar to add
	//
	// Returns:
	//   - uint64: the avatar's ID
	Add(a avatar.Avatar) uint64

	// Get returns the avatar with the given ID, or nil.
	//
	// Parameters:
	//   - id: the avatar ID
	//
	// Returns:
	//   - avatar.Avatar: the avatar or nil
	Get(id uint64) avatar.Avatar

	// Remove unregisters an avatar and every route touching it.
	//
	// Parameters:
	//   - id: the avatar ID
	Remove(id uint64)

	// IDs returns the registered avatar IDs in ascending order.
	IDs() []uint64

	// Route forwards every payload produced by avatar from to avatar to.
	//
	// Parameters:
	//   - from: the sending avatar ID
	//   - to: the receiving avatar ID
	Route(from, to uint64)

	// Deliver hands a payload to an avatar's receiver.
	//
	// Parameters:
	//   - id: the receiving avatar ID
	//   - data: the wire payload
	//   - timestamp: the sender time of the payload in seconds
	//
	// Returns:
	//   - bool: false when no avatar has the ID
	Deliver(id uint64, data []byte, timestamp float64) bool

	// SetPacketSink sets the function every outgoing payload is passed to after a frame. Pass nil to detach.
	//
	// Parameters:
	//   - sink: the packet sink
	SetPacketSink(sink func(avatar.Packet))

	// Update ticks every avatar by dt, waits for all of them, then routes the produced payloads.
	//
	// Parameters:
	//   - dt: elapsed time since the last update in seconds
	//
	// Returns:
	//   - []avatar.Packet: the payloads produced this frame, ordered by avatar ID
	Update(dt float64) []avatar.Packet

	// Close stops the stage's workers. The stage must not be updated afterwards.
	Close()
}

type stage struct {
	mu *sync.RWMutex

	name   string
	logger *zap.Logger

	registry map[uint64]avatar.Avatar
	nextID   uint64
	routes   map[uint64][]uint64
	sink     func(avatar.Packet)

	// tickPool runs avatar ticks. Workers persist across frames.
	tickPool    worker.DynamicWorkerPool
	tickWorkers int
}

var _ Stage = &stage{}

// NewStage creates an empty Stage.
//
// Parameters:
//   - name: the name of the stage
//   - options: functional options to further configure the stage
//
// Returns:
//   - Stage: the newly created stage
func NewStage(name string, options ...StageBuilderOption) Stage {
	s := &stage{
		mu:          &sync.RWMutex{},
		name:        name,
		logger:      zap.NewNop(),
		registry:    make(map[uint64]avatar.Avatar),
		nextID:      1,
		routes:      make(map[uint64][]uint64),
		tickWorkers: max(runtime.NumCPU()-1, 1),
	}

	for _, option := range options {
		option(s)
	}

	// created after options so WithWorkers can override the default
	s.tickPool = worker.NewDynamicWorkerPool(s.tickWorkers, 256, 1*time.Second)
	return s
}

func (s *stage) Name() string {
	return s.name
}

func (s *stage) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.registry)
}

func (s *stage) Add(a avatar.Avatar) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(a)
}

// add registers a while s.mu is held.
func (s *stage) add(a avatar.Avatar) uint64 {
	if a.ID() == 0 {
		a.SetID(atomic.AddUint64(&s.nextID, 1) - 1)
	}
	if _, exists := s.registry[a.ID()]; exists {
		s.logger.Warn("replacing avatar with duplicate id", zap.Uint64("avatar", a.ID()))
	}
	s.registry[a.ID()] = a
	return a.ID()
}

func (s *stage) Get(id uint64) avatar.Avatar {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry[id]
}

func (s *stage) Remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.registry[id]; !exists {
		return
	}
	delete(s.registry, id)
	delete(s.routes, id)
	for from, targets := range s.routes {
		s.routes[from] = slices.DeleteFunc(targets, func(t uint64) bool { return t == id })
	}
}

func (s *stage) IDs() []uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]uint64, 0, len(s.registry))
	for id := range s.registry {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (s *stage) Route(from, to uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Contains(s.routes[from], to) {
		return
	}
	s.routes[from] = append(s.routes[from], to)
}

func (s *stage) Deliver(id uint64, data []byte, timestamp float64) bool {
	a := s.Get(id)
	if a == nil {
		return false
	}
	a.Deliver(data, timestamp)
	return true
}

func (s *stage) SetPacketSink(sink func(avatar.Packet)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink = sink
}

func (s *stage) Update(dt float64) []avatar.Packet {
	s.mu.RLock()
	avatars := make([]avatar.Avatar, 0, len(s.registry))
	for _, a := range s.registry {
		if a.Enabled() {
			avatars = append(avatars, a)
		}
	}
	sink := s.sink
	s.mu.RUnlock()

	slices.SortFunc(avatars, func(a, b avatar.Avatar) int {
		switch {
		case a.ID() < b.ID():
			return -1
		case a.ID() > b.ID():
			return 1
		}
		return 0
	})

	// A WaitGroup is the per-frame barrier; pool.Wait only returns once workers go idle.
	results := make([][]avatar.Packet, len(avatars))
	var wg sync.WaitGroup
	for i, a := range avatars {
		wg.Add(1)
		s.tickPool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				results[i] = a.Tick(dt)
				return nil, nil
			},
		})
	}
	wg.Wait()

	var packets []avatar.Packet
	for _, r := range results {
		packets = append(packets, r...)
	}
	if len(packets) == 0 {
		return nil
	}

	s.mu.RLock()
	for _, p := range packets {
		for _, to := range s.routes[p.Avatar] {
			if target := s.registry[to]; target != nil {
				target.Deliver(p.Data, p.Timestamp)
			}
		}
	}
	s.mu.RUnlock()

	if sink != nil {
		for _, p := range packets {
			sink(p)
		}
	}
	return packets
}

func (s *stage) Close() {
	s.tickPool.Stop()
}
