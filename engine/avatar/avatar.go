package avatar

import (
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-pose/engine/animation"
	"github.com/Carmen-Shannon/oxy-pose/engine/network"
	"github.com/Carmen-Shannon/oxy-pose/engine/simulation"
	"go.uber.org/zap"
)

// Packet is one outgoing pose payload produced by an avatar's tick.
type Packet struct {
	// Avatar is the id of the sending avatar.
	Avatar uint64

	// Timestamp is the sender clock in seconds when the payload was produced.
	Timestamp float64

	// Data is the wire payload. An empty payload ends the sender's session.
	Data []byte
}

type inbound struct {
	data      []byte
	timestamp float64
}

type avatar struct {
	id      uint64
	name    string
	enabled atomic.Bool
	logger  *zap.Logger

	rig         *Rig
	local       bool
	samplerOpts []simulation.SimulationSamplerBuilderOption

	sampler  simulation.SimulationSampler
	sender   network.PoseSender
	receiver network.PoseReceiver

	// clock is the avatar's own time, advanced by Tick.
	clock  float64
	outbox []Packet
	last   *animation.Frame

	inboxMu *sync.Mutex
	inbox   []inbound
}

// Avatar is one pose stream: a local SimulationSampler whose frames may be mirrored by a PoseSender, a
// remote PoseReceiver fed with delivered payloads, or both.
//
// Tick must only be called from one goroutine at a time. Deliver is safe from any goroutine; payloads
// are buffered until the next Tick.
type Avatar interface {
	// ID returns the avatar's unique identifier.
	//
	// Returns:
	//   - uint64: the avatar ID
	ID() uint64

	// SetID sets the avatar's unique identifier.
	//
	// Parameters:
	//   - id: the ID to assign
	SetID(id uint64)

	// Name returns the avatar's display name.
	Name() string

	// Enabled returns whether Tick advances the avatar.
	//
	// Returns:
	//   - bool: true if enabled
	Enabled() bool

	// SetEnabled sets whether Tick advances the avatar.
	//
	// Parameters:
	//   - enabled: true to enable
	SetEnabled(enabled bool)

	// Rig returns the interpreter frames are written to.
	Rig() *Rig

	// Sampler returns the local sampler, or nil for a remote-only avatar.
	Sampler() simulation.SimulationSampler

	// Sender returns the pose sender, or nil when the avatar does not mirror its frames.
	Sender() network.PoseSender

	// Receiver returns the pose receiver, or nil for a local-only avatar.
	Receiver() network.PoseReceiver

	// Clock returns the avatar time in seconds.
	Clock() float64

	// LastFrame returns the most recently applied frame, or nil.
	LastFrame() *animation.Frame

	// Deliver buffers a payload for the receiver. Avatars without a receiver drop it.
	//
	// Parameters:
	//   - data: the wire payload
	//   - timestamp: the sender time of the payload in seconds
	Deliver(data []byte, timestamp float64)

	// Tick advances the avatar by dt: delivered payloads are fed to the receiver, the sampler and receiver
	// are updated, and every payload the sender produced is returned.
	//
	// Parameters:
	//   - dt: elapsed time since the last tick in seconds
	//
	// Returns:
	//   - []Packet: outgoing payloads in production order
	Tick(dt float64) []Packet
}

var _ Avatar = &avatar{}

// NewAvatar creates an enabled Avatar configured with the given options. When both a sampler and a sender
// are configured, the sender starts a session on every sampler queue-start, encodes every played frame
// that carries bones, and ends the session on queue-end.
//
// Parameters:
//   - options: functional options to configure the avatar
//
// Returns:
//   - Avatar: the newly created avatar
func NewAvatar(options ...AvatarBuilderOption) Avatar {
	a := &avatar{
		logger:  zap.NewNop(),
		inboxMu: &sync.Mutex{},
	}
	a.enabled.Store(true)
	for _, option := range options {
		option(a)
	}
	if a.rig == nil {
		a.rig = NewRig(nil)
	}
	if a.local && a.sampler == nil {
		opts := append([]simulation.SimulationSamplerBuilderOption{
			simulation.WithPoseInterpreter(a.rig),
			simulation.WithLogger(a.logger),
		}, a.samplerOpts...)
		a.sampler = simulation.NewSimulationSampler(opts...)
	}

	if a.sampler != nil {
		a.sampler.OnFramePlayed(a.framePlayed)
		if a.sender != nil {
			a.sampler.OnQueueStart(func() {
				session := a.sender.StartPose()
				a.logger.Debug("pose session started", zap.Uint64("avatar", a.id), zap.Stringer("session", session))
			})
			a.sampler.OnQueueEnd(func() {
				a.sender.StopPose()
				a.outbox = append(a.outbox, Packet{Avatar: a.id, Timestamp: a.clock, Data: []byte{}})
			})
		}
	}
	return a
}

func (a *avatar) ID() uint64 {
	return a.id
}

func (a *avatar) SetID(id uint64) {
	a.id = id
}

func (a *avatar) Name() string {
	return a.name
}

func (a *avatar) Enabled() bool {
	return a.enabled.Load()
}

func (a *avatar) SetEnabled(enabled bool) {
	a.enabled.Store(enabled)
}

func (a *avatar) Rig() *Rig {
	return a.rig
}

func (a *avatar) Sampler() simulation.SimulationSampler {
	return a.sampler
}

func (a *avatar) Sender() network.PoseSender {
	return a.sender
}

func (a *avatar) Receiver() network.PoseReceiver {
	return a.receiver
}

func (a *avatar) Clock() float64 {
	return a.clock
}

func (a *avatar) LastFrame() *animation.Frame {
	return a.last
}

func (a *avatar) Deliver(data []byte, timestamp float64) {
	if a.receiver == nil {
		return
	}
	a.inboxMu.Lock()
	defer a.inboxMu.Unlock()
	a.inbox = append(a.inbox, inbound{data: data, timestamp: timestamp})
}

func (a *avatar) Tick(dt float64) []Packet {
	if !a.Enabled() {
		return nil
	}
	a.clock += dt

	if a.receiver != nil {
		a.inboxMu.Lock()
		pending := a.inbox
		a.inbox = nil
		a.inboxMu.Unlock()
		for _, in := range pending {
			a.receiver.ApplyBytes(in.data, in.timestamp)
		}
	}

	if a.sampler != nil {
		a.sampler.Update(dt)
	}
	if a.receiver != nil {
		if f := a.receiver.Update(dt); f != nil {
			animation.ApplyFrame(a.rig, f)
			a.last = f
		}
	}

	out := a.outbox
	a.outbox = nil
	return out
}

// framePlayed records a sampler frame and mirrors it through the sender.
func (a *avatar) framePlayed(frame *animation.Frame) {
	a.last = frame
	if a.sender == nil || !a.sender.Active() {
		return
	}
	// root-only side-channel frames have nothing to mirror
	if data := a.sender.Encode(frame, a.clock); len(data) > 0 {
		a.outbox = append(a.outbox, Packet{Avatar: a.id, Timestamp: a.clock, Data: data})
	}
}
