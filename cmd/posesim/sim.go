package main

import (
	"context"
	"fmt"

	"github.com/Carmen-Shannon/oxy-pose/engine"
	"github.com/Carmen-Shannon/oxy-pose/engine/animation"
	"github.com/Carmen-Shannon/oxy-pose/engine/avatar"
	"github.com/Carmen-Shannon/oxy-pose/engine/effect"
	"github.com/Carmen-Shannon/oxy-pose/engine/network"
	"github.com/Carmen-Shannon/oxy-pose/engine/profiler"
	"github.com/Carmen-Shannon/oxy-pose/engine/simulation"
	"github.com/Carmen-Shannon/oxy-pose/engine/stage"
	"github.com/Carmen-Shannon/oxy-pose/internal/clipfile"
	"github.com/Carmen-Shannon/oxy-pose/internal/config"
	"go.uber.org/zap"
)

// summary reports what a simulation produced.
type summary struct {
	Ticks        uint64
	Packets      int
	Bytes        int
	Stops        int
	RemoteBones  uint64
	RemoteStates []network.ReceiverState
}

// pair is one local avatar and, when loopback is enabled, the remote mirroring it.
type pair struct {
	local  avatar.Avatar
	remote avatar.Avatar
}

// resolveClips loads the configured clips, falling back to the procedural walk when none are named.
func resolveClips(cfg config.Config, lib *clipfile.Library) ([]*animation.Clip, error) {
	if len(cfg.Sampler.Clips) == 0 {
		return []*animation.Clip{demoClip("walk", 60, 30)}, nil
	}
	clips := make([]*animation.Clip, 0, len(cfg.Sampler.Clips))
	for _, name := range cfg.Sampler.Clips {
		clip, err := lib.Clip(name)
		if err != nil {
			return nil, fmt.Errorf("loading clip %q: %w", name, err)
		}
		clips = append(clips, clip)
	}
	return clips, nil
}

// effectsFor builds a fresh effect chain for one local avatar. Effects hold per-avatar state and are
// never shared.
func effectsFor(cfg config.BlendConfig) []effect.Effect {
	var effects []effect.Effect
	if cfg.Crossfade > 0 {
		effects = append(effects, effect.NewCrossfade(cfg.Crossfade))
	}
	if cfg.Outer > 0 {
		effects = append(effects, effect.NewOuterBlend(cfg.Outer))
	}
	if cfg.Cancel > 0 {
		effects = append(effects, effect.NewCancelBlend(cfg.Cancel, cfg.CancelStale))
	}
	if cfg.RootMotion {
		effects = append(effects, effect.NewRootMotion(effect.RootMotionOptions{
			TransferXZ: cfg.RootTransferXZ,
			TransferY:  cfg.RootTransferY,
			BakeXZ:     cfg.RootBakeXZ,
			BakeY:      cfg.RootBakeY,
		}))
	}
	return effects
}

// buildStage creates the local avatars, their loopback remotes and the stage that routes between them.
func buildStage(cfg config.Config, logger *zap.Logger) (stage.Stage, []pair) {
	var opts []stage.StageBuilderOption
	if cfg.Engine.Workers > 0 {
		opts = append(opts, stage.WithWorkers(cfg.Engine.Workers))
	}
	opts = append(opts, stage.WithLogger(logger.Named("stage")))
	s := stage.NewStage("posesim", opts...)

	pairs := make([]pair, 0, cfg.Engine.Avatars)
	for i := range cfg.Engine.Avatars {
		sender := network.NewPoseSender(
			network.WithSendPosition(cfg.Network.SendPosition),
			network.WithSendScale(cfg.Network.SendScale),
		)
		local := avatar.NewAvatar(
			avatar.WithName(fmt.Sprintf("local-%d", i)),
			avatar.WithLogger(logger.Named("avatar")),
			avatar.WithSender(sender),
			avatar.WithLocalPlayback(simulation.WithEffects(effectsFor(cfg.Blend)...)),
		)
		p := pair{local: local}
		s.Add(local)

		if cfg.Network.Loopback {
			receiver := network.NewPoseReceiver(
				network.WithTargetDepth(cfg.Network.TargetDepth),
				network.WithMaxWait(cfg.Network.MaxWait),
				network.WithSmoothing(cfg.Network.Smoothing),
				network.WithShortStreams(cfg.Network.ShortStreams),
				network.WithReceivePosition(cfg.Network.SendPosition),
				network.WithReceiveScale(cfg.Network.SendScale),
				network.WithLogger(logger.Named("receiver")),
			)
			p.remote = avatar.NewAvatar(
				avatar.WithName(fmt.Sprintf("remote-%d", i)),
				avatar.WithLogger(logger.Named("avatar")),
				avatar.WithReceiver(receiver),
			)
			s.Add(p.remote)
			s.Route(local.ID(), p.remote.ID())
		}
		pairs = append(pairs, p)
	}
	return s, pairs
}

// simulate plays clips on every local avatar for the configured duration and reports the outcome.
func simulate(ctx context.Context, cfg config.Config, clips []*animation.Clip, logger *zap.Logger) (summary, error) {
	s, pairs := buildStage(cfg, logger)
	defer s.Close()

	var out summary
	s.SetPacketSink(func(p avatar.Packet) {
		out.Packets++
		out.Bytes += len(p.Data)
		if len(p.Data) == 0 {
			out.Stops++
		}
	})

	for _, p := range pairs {
		for range cfg.Sampler.Loops {
			for _, clip := range clips {
				p.local.Sampler().Add(clip)
			}
		}
	}

	e := engine.NewEngine(
		engine.WithStage(s),
		engine.WithTickRate(cfg.Engine.TickRate),
		engine.WithFixedDelta(cfg.Engine.FixedDelta),
		engine.WithLogger(logger.Named("engine")),
		engine.WithProfiling(cfg.Engine.Profiling),
		engine.WithProfiler(profiler.NewProfiler(
			profiler.WithInterval(cfg.Engine.ProfileInterval),
			profiler.WithLogger(logger.Named("profiler")),
		)),
	)

	if cfg.Engine.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Engine.Duration)
		defer cancel()
	}
	if err := e.Run(ctx); err != nil {
		return out, err
	}

	out.Ticks = e.Ticks()
	for _, p := range pairs {
		if p.remote == nil {
			continue
		}
		out.RemoteBones += p.remote.Rig().BonesApplied()
		out.RemoteStates = append(out.RemoteStates, p.remote.Receiver().State())
	}
	return out, nil
}
