package network

import (
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-pose/common"
	"github.com/Carmen-Shannon/oxy-pose/engine/animation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReceiverState is the playback state of a PoseReceiver.
type ReceiverState int

const (
	// Stopped means no session is playing.
	Stopped ReceiverState = iota

	// WarmingUp means a session started but nothing has been presented yet.
	WarmingUp

	// Playing means poses are presented and the buffer holds at least the target depth.
	Playing

	// Draining means poses are presented but the buffer is below the target depth.
	Draining
)

func (s ReceiverState) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case WarmingUp:
		return "warming-up"
	case Playing:
		return "playing"
	case Draining:
		return "draining"
	}
	return fmt.Sprintf("ReceiverState(%d)", int(s))
}

const (
	defaultTargetDepth = 3
	defaultMaxWait     = 0.5
	defaultSmoothing   = 0.5
)

// poseReceiver is the implementation of the PoseReceiver interface.
type poseReceiver struct {
	logger *zap.Logger

	boneOrder   []animation.BoneID
	targetDepth int
	maxWait     float64
	smoothing   float64
	usePosition bool
	useScale    bool
	playShort   bool

	session     uuid.UUID
	lastSession uuid.UUID
	running     bool
	started     bool

	queue        []*NetworkedPose
	current      *NetworkedPose
	previous     *animation.Frame
	clock        float64
	startOffset  float64
	sinceAdvance float64
	warmup       float64

	// presented is the timestamp of the newest pose already shown in this session
	presented    float64
	hasPresented bool

	onQueueStart  []func()
	onQueueEnd    []func()
	onFramePlayed []func(*animation.Frame)
}

// PoseReceiver is a jitter buffer that reconstructs a smooth Frame stream from timestamped
// NetworkedPoses delivered in any order.
//
// Poses are buffered until the target depth is reached, then presented on the sender's timeline shifted
// by the warm-up delay. Every tick moves the previously emitted frame toward the current pose by a fixed
// smoothing ratio. The stream ends when the buffer runs dry at a presentation time, when no pose has been
// presented for the max wait, or on an explicit stop.
type PoseReceiver interface {
	// ApplyPose feeds one pose. A nil pose stops the current session and marks it stale. The receiver
	// takes ownership of pose and stamps it with timestamp.
	//
	// Parameters:
	//   - pose: the pose, or nil to stop
	//   - timestamp: the sender time of the pose in seconds
	ApplyPose(pose *NetworkedPose, timestamp float64)

	// ApplyBytes decodes payload and feeds it. Undecodable payloads are logged and dropped.
	//
	// Parameters:
	//   - payload: the wire payload
	//   - timestamp: the sender time of the pose in seconds
	ApplyBytes(payload []byte, timestamp float64)

	// Update advances playback by dt and returns the frame to present, or nil.
	//
	// Parameters:
	//   - dt: elapsed time since the last update in seconds
	//
	// Returns:
	//   - *animation.Frame: the synthesized frame, or nil when nothing is presented this tick
	Update(dt float64) *animation.Frame

	// State returns the current playback state.
	State() ReceiverState

	// Depth returns the number of buffered poses not yet presented.
	Depth() int

	// Session returns the session being played, or uuid.Nil.
	Session() uuid.UUID

	// OnQueueStart registers a listener fired when the first pose of a stream is presented.
	OnQueueStart(fn func())

	// OnQueueEnd registers a listener fired when a presented stream ends.
	OnQueueEnd(fn func())

	// OnFramePlayed registers a listener fired with every synthesized frame.
	OnFramePlayed(fn func(*animation.Frame))
}

var _ PoseReceiver = &poseReceiver{}

// NewPoseReceiver creates an idle PoseReceiver.
//
// Parameters:
//   - options: variadic list of PoseReceiverBuilderOption functions
//
// Returns:
//   - PoseReceiver: the new receiver
func NewPoseReceiver(options ...PoseReceiverBuilderOption) PoseReceiver {
	r := &poseReceiver{
		logger:      zap.NewNop(),
		boneOrder:   animation.CanonicalBones(),
		targetDepth: defaultTargetDepth,
		maxWait:     defaultMaxWait,
		smoothing:   defaultSmoothing,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

func (r *poseReceiver) ApplyPose(pose *NetworkedPose, timestamp float64) {
	if pose == nil {
		if r.session != uuid.Nil {
			r.lastSession = r.session
		}
		r.session = uuid.Nil
		r.finish()
		return
	}
	if pose.Session == uuid.Nil || pose.Session == r.lastSession {
		r.logger.Debug("dropping stale pose", zap.Stringer("session", pose.Session))
		return
	}

	if pose.Session != r.session {
		if r.session != uuid.Nil {
			r.lastSession = r.session
		}
		r.finish()
		r.reset(pose.Session)
	} else if r.hasPresented && timestamp <= r.presented {
		r.logger.Debug("dropping late pose", zap.Float64("timestamp", timestamp))
		return
	} else if !r.running {
		// the same session resumes after running dry
		r.resume()
	}
	pose.Timestamp = timestamp
	i, _ := slices.BinarySearchFunc(r.queue, timestamp, func(p *NetworkedPose, ts float64) int {
		switch {
		case p.Timestamp < ts:
			return -1
		case p.Timestamp > ts:
			return 1
		}
		return 0
	})
	r.queue = slices.Insert(r.queue, i, pose)
}

func (r *poseReceiver) ApplyBytes(payload []byte, timestamp float64) {
	pose, err := Decode(payload)
	if err != nil {
		r.logger.Debug("dropping undecodable pose", zap.Error(err), zap.Int("bytes", len(payload)))
		return
	}
	r.ApplyPose(pose, timestamp)
}

func (r *poseReceiver) Update(dt float64) *animation.Frame {
	if !r.running {
		return nil
	}
	r.clock += dt
	r.sinceAdvance += dt

	if len(r.queue) < r.targetDepth {
		if r.current != nil && r.sinceAdvance > r.maxWait {
			r.finish()
			return nil
		}
		if r.current == nil {
			r.warmup += dt
			if !r.playShort || len(r.queue) == 0 || r.warmup <= r.maxWait {
				return nil
			}
		}
	}

	if r.current == nil || r.clock >= r.current.Timestamp+r.startOffset {
		if len(r.queue) == 0 {
			r.finish()
			return nil
		}
		r.advance()
	}

	out := r.interpolate()
	r.previous = out
	for _, fn := range r.onFramePlayed {
		fn(out)
	}
	return out
}

func (r *poseReceiver) State() ReceiverState {
	switch {
	case !r.running:
		return Stopped
	case r.current == nil:
		return WarmingUp
	case len(r.queue) < r.targetDepth:
		return Draining
	}
	return Playing
}

func (r *poseReceiver) Depth() int {
	return len(r.queue)
}

func (r *poseReceiver) Session() uuid.UUID {
	return r.session
}

func (r *poseReceiver) OnQueueStart(fn func()) {
	r.onQueueStart = append(r.onQueueStart, fn)
}

func (r *poseReceiver) OnQueueEnd(fn func()) {
	r.onQueueEnd = append(r.onQueueEnd, fn)
}

func (r *poseReceiver) OnFramePlayed(fn func(*animation.Frame)) {
	r.onFramePlayed = append(r.onFramePlayed, fn)
}

// reset drops all buffering state and starts warming up a new session.
func (r *poseReceiver) reset(session uuid.UUID) {
	r.session = session
	r.presented, r.hasPresented = 0, false
	r.resume()
}

// resume starts warming up again without forgetting what was already presented.
func (r *poseReceiver) resume() {
	r.queue = r.queue[:0]
	r.current = nil
	r.previous = nil
	r.clock = 0
	r.startOffset = 0
	r.sinceAdvance = 0
	r.warmup = 0
	r.running = true
	r.started = false
}

// finish stops playback, firing queue-end when the stream had been presented.
func (r *poseReceiver) finish() {
	wasStarted := r.started
	r.running = false
	r.started = false
	r.queue = r.queue[:0]
	r.current = nil
	if wasStarted {
		r.logger.Debug("pose stream ended", zap.Stringer("session", r.session))
		for _, fn := range r.onQueueEnd {
			fn()
		}
	}
}

// advance presents the next buffered pose. The first pose of a stream anchors the sender timeline to the
// receiver clock.
func (r *poseReceiver) advance() {
	next := r.queue[0]
	r.queue = slices.Delete(r.queue, 0, 1)
	if r.current == nil {
		r.startOffset = r.clock - next.Timestamp
	}
	r.current = next
	r.presented, r.hasPresented = next.Timestamp, true
	r.sinceAdvance = 0

	if !r.started {
		r.started = true
		r.logger.Debug("pose stream started",
			zap.Stringer("session", r.session),
			zap.Float64("warmup", r.warmup),
		)
		for _, fn := range r.onQueueStart {
			fn()
		}
	}
}

// interpolate moves the previously emitted frame toward the current pose by the smoothing ratio.
func (r *poseReceiver) interpolate() *animation.Frame {
	n := min(len(r.boneOrder), len(r.current.Bones))
	out := animation.NewFrame(n)
	for i := range n {
		target := r.current.Bones[i]
		t := animation.RotationTransform(common.NormalizeQuat(target.Rotation))
		if i == 0 || r.usePosition && r.current.PositionEnabled {
			t.Position, t.HasPosition = target.Position, true
		}
		if r.useScale && r.current.ScaleEnabled {
			t.Scale, t.HasScale = target.Scale, true
		}

		if r.previous != nil && i < r.previous.Len() && r.previous.Bones[i] == r.boneOrder[i] {
			prev := r.previous.Transforms[i]
			t.Rotation = common.Slerp(prev.RotationOrIdentity(), t.Rotation, r.smoothing)
			if t.HasPosition && prev.HasPosition {
				t.Position = common.Lerp(prev.Position, t.Position, r.smoothing)
			}
			if t.HasScale && prev.HasScale {
				t.Scale = common.Lerp(prev.Scale, t.Scale, r.smoothing)
			}
		}
		out.Bones = append(out.Bones, r.boneOrder[i])
		out.Transforms = append(out.Transforms, t)
	}
	return out
}
