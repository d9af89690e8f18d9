package effect

import (
	"github.com/Carmen-Shannon/oxy-pose/engine/animation"
	"go.uber.org/zap"
)

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	logger    *zap.Logger
	authority Authority

	effects        []Effect
	modifiers      []FrameModifier
	output         func(*animation.Frame)
	pendingEffects []Effect
}

// Pipeline owns an ordered set of effects, fans lifecycle events out to them and runs the
// modify chain over every composite frame.
//
// Capabilities are resolved once in Register. Modifiers run in registration order, each one
// receiving the output of the previous. Frames added by a FrameAdder run through the same
// modify chain and are then forwarded to the output handler.
type Pipeline interface {
	// Register adds effects to the pipeline. An effect with neither the adder nor the modifier
	// capability is logged as an error and kept for lifecycle events only.
	//
	// Parameters:
	//   - effects: the effects to add, in modify order
	Register(effects ...Effect)

	// SetOutputHandler installs the callback receiving frames added outside the sample cadence.
	//
	// Parameters:
	//   - handler: the callback, may be nil to drop added frames
	SetOutputHandler(handler func(*animation.Frame))

	// ModifyFrame copies the first non-nil frame and runs every modifier over the copy.
	//
	// Parameters:
	//   - frames: the frames sampled this tick, one per active slot
	//
	// Returns:
	//   - *animation.Frame: the composite frame, or nil when every entry is nil
	ModifyFrame(frames []*animation.Frame) *animation.Frame

	// Effects returns the registered effects in registration order.
	Effects() []Effect

	QueueStart()
	QueueEnd()
	AnimationStart(slot int, clip *animation.Clip)
	AnimationEnd(slot int, clip *animation.Clip)
	FramePlayed(frame *animation.Frame)
	SoftStop(delay float64)
	Update(dt float64)
}

var _ Pipeline = &pipeline{}

// NewPipeline creates an empty Pipeline. Without WithAuthority effects are bound to a NopAuthority.
//
// Parameters:
//   - options: variadic list of PipelineBuilderOption functions
//
// Returns:
//   - Pipeline: the new pipeline
func NewPipeline(options ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		logger:    zap.NewNop(),
		authority: NopAuthority{},
	}
	for _, opt := range options {
		opt(p)
	}
	// Registration waits for every option so authority and logger are in place.
	p.Register(p.pendingEffects...)
	p.pendingEffects = nil
	return p
}

func (p *pipeline) Register(effects ...Effect) {
	for _, e := range effects {
		if e == nil {
			continue
		}
		p.effects = append(p.effects, e)

		adder, isAdder := e.(FrameAdder)
		modifier, isModifier := e.(FrameModifier)
		if !isAdder && !isModifier {
			p.logger.Error("effect neither adds nor modifies frames, it will only receive lifecycle events",
				zap.String("effect", e.Name()))
		}
		if isAdder {
			adder.SetFrameAddedHandler(p.frameAdded)
		}
		if isModifier {
			p.modifiers = append(p.modifiers, modifier)
		}
		if user, ok := e.(AuthorityUser); ok {
			user.BindAuthority(p.authority)
		}
	}
}

func (p *pipeline) SetOutputHandler(handler func(*animation.Frame)) {
	p.output = handler
}

func (p *pipeline) frameAdded(frame *animation.Frame) {
	out := p.ModifyFrame([]*animation.Frame{frame})
	if out != nil && p.output != nil {
		p.output(out)
	}
}

func (p *pipeline) ModifyFrame(frames []*animation.Frame) *animation.Frame {
	baseSlot := -1
	for i, f := range frames {
		if f != nil {
			baseSlot = i
			break
		}
	}
	if baseSlot < 0 {
		return nil
	}

	base := frames[baseSlot].BeginMutation()
	for _, m := range p.modifiers {
		m.ModifyFrame(base, frames, baseSlot)
	}
	return base
}

func (p *pipeline) Effects() []Effect {
	return p.effects
}

func (p *pipeline) QueueStart() {
	for _, e := range p.effects {
		e.OnQueueStart()
	}
}

func (p *pipeline) QueueEnd() {
	for _, e := range p.effects {
		e.OnQueueEnd()
	}
}

func (p *pipeline) AnimationStart(slot int, clip *animation.Clip) {
	for _, e := range p.effects {
		e.OnAnimationStart(slot, clip)
	}
}

func (p *pipeline) AnimationEnd(slot int, clip *animation.Clip) {
	for _, e := range p.effects {
		e.OnAnimationEnd(slot, clip)
	}
}

func (p *pipeline) FramePlayed(frame *animation.Frame) {
	for _, e := range p.effects {
		e.OnFramePlayed(frame)
	}
}

func (p *pipeline) SoftStop(delay float64) {
	for _, e := range p.effects {
		e.OnSoftStop(delay)
	}
}

func (p *pipeline) Update(dt float64) {
	for _, e := range p.effects {
		e.Update(dt)
	}
}
