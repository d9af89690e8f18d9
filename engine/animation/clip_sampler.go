package animation

import "math"

// frameEpsilon absorbs float accumulation error when converting elapsed time to a key index,
// so that n additions of 1/rate land on key n rather than n-1.
const frameEpsilon = 1e-9

// clipSampler is the implementation of the ClipSampler interface.
type clipSampler struct {
	clip        *Clip
	frameIndex  int
	elapsedTime float64
	ended       bool
	isMain      bool

	sampled   bool
	lastFrame *Frame
}

// ClipSampler is a stateful cursor that advances a single Clip by elapsed time and emits Frames.
//
// A ClipSampler is created idle (Ended reports true) and becomes active with Play. It is mutated
// only by its own Play and Update calls and may be reused by calling Play again after it ends.
//
// A "main" sampler drives the cadence of its owner: when its key index does not advance between
// two updates it emits nil so callers can skip redundant work. A non-main sampler re-emits the
// previous frame instead, so it can always be blended against.
type ClipSampler interface {
	// Play starts the clip from its first key.
	//
	// Parameters:
	//   - clip: the clip to play
	Play(clip *Clip)

	// PlayFromFrame starts the clip at the given key index.
	//
	// Parameters:
	//   - clip: the clip to play
	//   - frame: the key index to start from
	PlayFromFrame(clip *Clip, frame int)

	// PlayFromTime starts the clip at the given clip time in seconds.
	//
	// Parameters:
	//   - clip: the clip to play
	//   - t: the clip time to start from
	PlayFromTime(clip *Clip, t float64)

	// Update samples the clip at the current elapsed time and then advances elapsed time by dt.
	//
	// Parameters:
	//   - dt: elapsed time since the last update in seconds
	//
	// Returns:
	//   - *Frame: the sampled frame, the previous frame for a non-main sampler that did not advance,
	//     or nil when the clip ended or a main sampler did not advance
	Update(dt float64) *Frame

	// Stop ends playback immediately.
	Stop()

	// Ended reports whether the sampler is idle.
	//
	// Returns:
	//   - bool: true once the clip ran past its last key, Stop was called, or before the first Play
	Ended() bool

	// Clip returns the clip being played, or nil before the first Play.
	Clip() *Clip

	// FrameIndex returns the key index of the most recent sample.
	FrameIndex() int

	// ElapsedTime returns the clip time of the next sample in seconds.
	ElapsedTime() float64

	// IsMain reports whether the sampler drives cadence.
	IsMain() bool

	// SetMain marks the sampler as the cadence reference.
	//
	// Parameters:
	//   - main: true to make this the main sampler
	SetMain(main bool)
}

var _ ClipSampler = &clipSampler{}

// NewClipSampler creates an idle ClipSampler.
//
// Parameters:
//   - options: variadic list of ClipSamplerBuilderOption functions
//
// Returns:
//   - ClipSampler: the idle sampler
func NewClipSampler(options ...ClipSamplerBuilderOption) ClipSampler {
	s := &clipSampler{
		ended: true,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *clipSampler) Play(clip *Clip) {
	s.PlayFromFrame(clip, 0)
}

func (s *clipSampler) PlayFromFrame(clip *Clip, frame int) {
	s.clip = clip
	s.frameIndex = frame
	s.elapsedTime = 0
	if clip != nil && clip.FrameRate > 0 {
		s.elapsedTime = float64(frame) / clip.FrameRate
	}
	s.ended = clip == nil
	s.sampled = false
	s.lastFrame = nil
}

func (s *clipSampler) PlayFromTime(clip *Clip, t float64) {
	s.PlayFromFrame(clip, 0)
	s.elapsedTime = math.Max(0, t)
	if clip != nil {
		s.frameIndex = int(math.Floor(s.elapsedTime*clip.FrameRate + frameEpsilon))
	}
}

func (s *clipSampler) Update(dt float64) *Frame {
	defer func() { s.elapsedTime += dt }()

	if s.ended || s.clip == nil {
		return nil
	}

	frame := int(math.Floor(s.elapsedTime*s.clip.FrameRate + frameEpsilon))
	if frame < 0 {
		frame = 0
	}
	if frame >= s.clip.KeyCount {
		s.ended = true
		return nil
	}

	if !s.sampled || frame > s.frameIndex {
		s.sampled = true
		s.frameIndex = frame
		s.lastFrame = s.clip.FrameAt(frame)
		return s.lastFrame
	}

	if s.isMain {
		return nil
	}
	return s.lastFrame
}

func (s *clipSampler) Stop() {
	s.ended = true
}

func (s *clipSampler) Ended() bool {
	return s.ended
}

func (s *clipSampler) Clip() *Clip {
	return s.clip
}

func (s *clipSampler) FrameIndex() int {
	return s.frameIndex
}

func (s *clipSampler) ElapsedTime() float64 {
	return s.elapsedTime
}

func (s *clipSampler) IsMain() bool {
	return s.isMain
}

func (s *clipSampler) SetMain(main bool) {
	s.isMain = main
}
