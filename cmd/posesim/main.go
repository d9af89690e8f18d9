// Package main provides the posesim CLI.
//
// posesim plays animation clips on simulated local avatars, mirrors every played frame through the
// pose wire format and, with loopback enabled, replays the stream through a jitter buffer onto a
// remote avatar.
//
// Usage:
//
//	posesim run [--config file] [--clip name ...] [options]
//	posesim clip --out walk.yaml [--keys n] [--rate fps]
package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/Carmen-Shannon/oxy-pose/internal/clipfile"
	"github.com/Carmen-Shannon/oxy-pose/internal/config"
	"github.com/Carmen-Shannon/oxy-pose/internal/logging"
)

func main() {
	app := &cli.App{
		Name:           "posesim",
		Usage:          "Skeletal clip playback and pose streaming simulator",
		ExitErrHandler: exitErrHandler,
		Commands: []*cli.Command{
			runCommand(),
			clipCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		os.Exit(1)
	}
}

// exitErrHandler preserves exit codes from cli.Exit and prints every other error.
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}
	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		if msg := exitCoder.Error(); msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Play clips on simulated avatars and stream them through the wire format",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "JSON or YAML config file"},
			&cli.StringFlag{Name: "log-level", Usage: "Override logLevel"},
			&cli.StringSliceFlag{Name: "clip", Usage: "Clip name or file to queue (repeatable)"},
			&cli.StringFlag{Name: "clip-dir", Value: ".", Usage: "Directory clip names are resolved in"},
			&cli.DurationFlag{Name: "duration", Usage: "Override engine.duration"},
			&cli.IntFlag{Name: "avatars", Usage: "Override engine.avatars"},
			&cli.Float64Flag{Name: "tick-rate", Usage: "Override engine.tickRate"},
			&cli.BoolFlag{Name: "profile", Usage: "Enable the profiler"},
			&cli.BoolFlag{Name: "no-loopback", Usage: "Do not mirror locals onto remote avatars"},
		},
		Action: runAction,
	}
}

func runAction(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	applyFlags(c, &cfg)
	if err := cfg.Validate(); err != nil {
		return cli.Exit(err.Error(), 2)
	}

	logger, err := logging.New(cfg.LogLevel, os.Stderr)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	defer func() { _ = logger.Sync() }()

	clips, err := resolveClips(cfg, clipfile.NewLibrary(c.String("clip-dir")))
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("simulation starting",
		zap.Int("avatars", cfg.Engine.Avatars),
		zap.Int("clips", len(clips)),
		zap.Float64("tickRate", cfg.Engine.TickRate),
		zap.Duration("duration", cfg.Engine.Duration),
		zap.Bool("loopback", cfg.Network.Loopback),
	)
	result, err := simulate(ctx, cfg, clips, logger)
	if err != nil {
		return err
	}

	states := make([]string, len(result.RemoteStates))
	for i, s := range result.RemoteStates {
		states[i] = s.String()
	}
	logger.Info("simulation finished",
		zap.Uint64("ticks", result.Ticks),
		zap.Int("packets", result.Packets),
		zap.Int("bytes", result.Bytes),
		zap.Int("stops", result.Stops),
		zap.Uint64("remoteBones", result.RemoteBones),
		zap.Strings("remoteStates", states),
	)
	return nil
}

// applyFlags overlays explicitly set flags onto cfg.
func applyFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("clip") {
		cfg.Sampler.Clips = c.StringSlice("clip")
	}
	if c.IsSet("duration") {
		cfg.Engine.Duration = c.Duration("duration")
	}
	if c.IsSet("avatars") {
		cfg.Engine.Avatars = c.Int("avatars")
	}
	if c.IsSet("tick-rate") {
		cfg.Engine.TickRate = c.Float64("tick-rate")
	}
	if c.IsSet("profile") {
		cfg.Engine.Profiling = c.Bool("profile")
	}
	if c.Bool("no-loopback") {
		cfg.Network.Loopback = false
	}
}

func clipCommand() *cli.Command {
	return &cli.Command{
		Name:  "clip",
		Usage: "Write the procedural walk clip as a YAML or msgpack fixture",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Required: true, Usage: "Output file (.yaml, .yml, .msgpack, .mpk)"},
			&cli.IntFlag{Name: "keys", Value: 60, Usage: "Number of keys"},
			&cli.Float64Flag{Name: "rate", Value: 30, Usage: "Keys per second"},
		},
		Action: func(c *cli.Context) error {
			keys, rate := c.Int("keys"), c.Float64("rate")
			if keys < 1 || rate <= 0 {
				return cli.Exit("--keys must be positive and --rate greater than zero", 2)
			}
			out := c.String("out")
			name := filepath.Base(out)
			name = name[:len(name)-len(filepath.Ext(name))]
			if err := clipfile.Save(out, demoClip(name, keys, rate)); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			return nil
		},
	}
}
