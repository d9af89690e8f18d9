package simulation

import (
	"slices"

	"github.com/Carmen-Shannon/oxy-pose/engine/animation"
	"github.com/Carmen-Shannon/oxy-pose/engine/effect"
	"github.com/Carmen-Shannon/oxy-pose/engine/model"
	"go.uber.org/zap"
)

// simulationSampler is the implementation of the SimulationSampler interface.
type simulationSampler struct {
	logger   *zap.Logger
	pipeline effect.Pipeline
	interp   animation.PoseInterpreter
	pool     model.SkeletonPool

	effects []effect.Effect

	// slots holds the active samplers. Slot 0 is the main sampler and drives cadence.
	slots []animation.ClipSampler
	spare animation.ClipSampler
	queue []*animation.Clip

	playEnabled bool
	queueActive bool

	softStopArmed     bool
	softStopRemaining float64

	onQueueStart     []func()
	onQueueEnd       []func()
	onAnimationStart []func(*animation.Clip)
	onAnimationEnd   []func(*animation.Clip)
	onFramePlayed    []func(*animation.Frame)
}

// SimulationSampler plays a queue of clips through a set of concurrently active ClipSamplers and
// an effect pipeline, emitting one composite Frame per advanced main key.
//
// The sampler is single-threaded: every method must be called from the goroutine that drives
// Update. Listeners and effects may call back into the sampler (Play, Stop, Add) while an event is
// being delivered; the current slot bookkeeping always completes before the sampler looks at what
// is left.
type SimulationSampler interface {
	// Add enqueues a clip, playing it immediately when the sampler is idle.
	//
	// Parameters:
	//   - clip: the clip to enqueue
	Add(clip *animation.Clip)

	// PlayRange enqueues clips in order.
	//
	// Parameters:
	//   - clips: the clips to enqueue
	//   - stopCurrent: true to stop the current playback and drop the queue first
	PlayRange(clips []*animation.Clip, stopCurrent bool)

	// Play stops the current playback and plays clip next.
	//
	// Parameters:
	//   - clip: the clip to play
	Play(clip *animation.Clip)

	// Stop clears the queue and ends every slot. The main slot retires on the next Update.
	Stop()

	// SoftStop notifies effects right away and hard stops after delay seconds of playback.
	//
	// Parameters:
	//   - delay: seconds until Stop
	SoftStop(delay float64)

	// Pause suspends Update until Resume.
	Pause()

	// Resume re-enables Update.
	Resume()

	// Update advances the effects and every slot by dt and emits the composite frame.
	//
	// Parameters:
	//   - dt: elapsed time since the last update in seconds
	Update(dt float64)

	// ActiveCount returns the number of active slots.
	ActiveCount() int

	// QueueLength returns the number of clips waiting to be played.
	QueueLength() int

	// IsPlaying reports whether at least one slot is active.
	IsPlaying() bool

	// Pipeline returns the sampler's effect pipeline.
	Pipeline() effect.Pipeline

	// OnQueueStart registers a listener fired when the sampler goes from idle to playing.
	OnQueueStart(fn func())

	// OnQueueEnd registers a listener fired when the last slot retired and nothing is queued.
	OnQueueEnd(fn func())

	// OnAnimationStart registers a listener fired whenever a clip starts in any slot.
	OnAnimationStart(fn func(*animation.Clip))

	// OnAnimationEnd registers a listener fired whenever a slot retires.
	OnAnimationEnd(fn func(*animation.Clip))

	// OnFramePlayed registers a listener fired with every emitted frame.
	OnFramePlayed(fn func(*animation.Frame))
}

var _ SimulationSampler = &simulationSampler{}

// NewSimulationSampler creates an idle SimulationSampler.
//
// Parameters:
//   - options: variadic list of SimulationSamplerBuilderOption functions
//
// Returns:
//   - SimulationSampler: the new sampler
func NewSimulationSampler(options ...SimulationSamplerBuilderOption) SimulationSampler {
	s := &simulationSampler{
		logger:      zap.NewNop(),
		playEnabled: true,
	}
	for _, opt := range options {
		opt(s)
	}

	s.pipeline = effect.NewPipeline(
		effect.WithAuthority(&authority{s: s}),
		effect.WithLogger(s.logger),
		effect.WithEffects(s.effects...),
	)
	s.pipeline.SetOutputHandler(s.emit)
	return s
}

func (s *simulationSampler) Add(clip *animation.Clip) {
	if clip == nil {
		return
	}
	if err := clip.Validate(); err != nil {
		s.logger.Warn("dropping invalid clip", zap.Error(err))
		return
	}
	s.queue = append(s.queue, clip)
	if len(s.slots) == 0 {
		s.startNext(false)
	}
}

func (s *simulationSampler) PlayRange(clips []*animation.Clip, stopCurrent bool) {
	if stopCurrent {
		s.Stop()
	}
	for _, clip := range clips {
		s.Add(clip)
	}
}

func (s *simulationSampler) Play(clip *animation.Clip) {
	s.PlayRange([]*animation.Clip{clip}, true)
}

func (s *simulationSampler) Stop() {
	s.queue = s.queue[:0]
	s.softStopArmed = false
	for i := len(s.slots) - 1; i >= 1; i-- {
		if i < len(s.slots) {
			s.removeSlot(i)
		}
	}
	if len(s.slots) > 0 {
		s.slots[0].Stop()
	}
}

func (s *simulationSampler) SoftStop(delay float64) {
	if len(s.slots) == 0 {
		return
	}
	s.softStopArmed = true
	s.softStopRemaining = delay
	s.pipeline.SoftStop(delay)
}

func (s *simulationSampler) Pause() {
	s.playEnabled = false
}

func (s *simulationSampler) Resume() {
	s.playEnabled = true
}

func (s *simulationSampler) Update(dt float64) {
	if !s.playEnabled {
		return
	}
	s.pipeline.Update(dt)

	if s.softStopArmed {
		s.softStopRemaining -= dt
		if s.softStopRemaining <= 0 {
			s.Stop()
		}
	}
	if len(s.slots) == 0 {
		return
	}

	// slot 0 first; a promoted slot may already be ended this same tick
	var main *animation.Frame
	for len(s.slots) > 0 {
		main = s.slots[0].Update(dt)
		if !s.slots[0].Ended() {
			break
		}
		main = nil
		s.retire(0)
	}
	if len(s.slots) == 0 {
		return
	}

	n := len(s.slots)
	frames := make([]*animation.Frame, n)
	frames[0] = main
	for i := n - 1; i >= 1; i-- {
		if i >= len(s.slots) {
			continue
		}
		f := s.slots[i].Update(dt)
		if s.slots[i].Ended() {
			s.retire(i)
			continue
		}
		frames[i] = f
	}

	if main == nil {
		return
	}
	if out := s.pipeline.ModifyFrame(frames); out != nil {
		s.emit(out)
	}
}

func (s *simulationSampler) ActiveCount() int {
	return len(s.slots)
}

func (s *simulationSampler) QueueLength() int {
	return len(s.queue)
}

func (s *simulationSampler) IsPlaying() bool {
	return len(s.slots) > 0
}

func (s *simulationSampler) Pipeline() effect.Pipeline {
	return s.pipeline
}

func (s *simulationSampler) OnQueueStart(fn func()) {
	s.onQueueStart = append(s.onQueueStart, fn)
}

func (s *simulationSampler) OnQueueEnd(fn func()) {
	s.onQueueEnd = append(s.onQueueEnd, fn)
}

func (s *simulationSampler) OnAnimationStart(fn func(*animation.Clip)) {
	s.onAnimationStart = append(s.onAnimationStart, fn)
}

func (s *simulationSampler) OnAnimationEnd(fn func(*animation.Clip)) {
	s.onAnimationEnd = append(s.onAnimationEnd, fn)
}

func (s *simulationSampler) OnFramePlayed(fn func(*animation.Frame)) {
	s.onFramePlayed = append(s.onFramePlayed, fn)
}

// startNext pops the queue head and plays it.
func (s *simulationSampler) startNext(additive bool) bool {
	if len(s.queue) == 0 {
		return false
	}
	clip := s.queue[0]
	s.queue = s.queue[1:]
	s.play(clip, additive)
	return true
}

// play is the single place a clip starts. It creates or reuses slot 0 when idle, appends a slot
// when additive, and always pairs the start with an animation-start event.
func (s *simulationSampler) play(clip *animation.Clip, additive bool) {
	slot := 0
	switch {
	case len(s.slots) == 0:
		sampler := s.spare
		s.spare = nil
		if sampler == nil {
			sampler = animation.NewClipSampler()
		}
		sampler.SetMain(true)
		sampler.Play(clip)
		s.slots = append(s.slots, sampler)
	case additive:
		sampler := animation.NewClipSampler()
		sampler.Play(clip)
		s.slots = append(s.slots, sampler)
		slot = len(s.slots) - 1
	default:
		// replacing the main clip ends it first so effects see the pair
		old := s.slots[0].Clip()
		s.slots[0].Play(clip)
		s.fireAnimationEnd(0, old)
	}

	if !s.queueActive {
		s.queueActive = true
		s.pipeline.QueueStart()
		for _, fn := range s.onQueueStart {
			fn()
		}
	}
	s.pipeline.AnimationStart(slot, clip)
	for _, fn := range s.onAnimationStart {
		fn(clip)
	}
}

// retire removes an ended slot. The sole slot is replaced by the next queued clip, or the queue ends.
func (s *simulationSampler) retire(i int) {
	if len(s.slots) > 1 {
		s.removeSlot(i)
		return
	}

	sampler := s.slots[0]
	s.slots = s.slots[:0]
	s.spare = sampler
	s.fireAnimationEnd(0, sampler.Clip())

	// a listener may already have started something
	if len(s.slots) > 0 {
		return
	}
	if s.startNext(false) {
		return
	}
	if s.queueActive {
		s.queueActive = false
		s.softStopArmed = false
		s.pipeline.QueueEnd()
		for _, fn := range s.onQueueEnd {
			fn()
		}
	}
}

// removeSlot drops slot i of several and fires its animation-end. Removing slot 0 promotes slot 1.
func (s *simulationSampler) removeSlot(i int) {
	clip := s.slots[i].Clip()
	s.slots = slices.Delete(s.slots, i, i+1)
	if i == 0 && len(s.slots) > 0 {
		s.slots[0].SetMain(true)
	}
	s.fireAnimationEnd(i, clip)
}

func (s *simulationSampler) fireAnimationEnd(slot int, clip *animation.Clip) {
	s.pipeline.AnimationEnd(slot, clip)
	for _, fn := range s.onAnimationEnd {
		fn(clip)
	}
}

// emit delivers a composite or side-channel frame.
func (s *simulationSampler) emit(frame *animation.Frame) {
	animation.ApplyFrame(s.interp, frame)
	for _, fn := range s.onFramePlayed {
		fn(frame)
	}
	s.pipeline.FramePlayed(frame)
}
