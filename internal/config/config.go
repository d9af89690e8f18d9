package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. POSESIM_NETWORK_TARGETDEPTH.
const EnvPrefix = "POSESIM"

// ErrInvalidConfig wraps every validation failure returned by Load.
var ErrInvalidConfig = errors.New("invalid config")

// BlendConfig holds effect blend windows in seconds.
type BlendConfig struct {
	Crossfade      float64 `json:"crossfade" mapstructure:"crossfade"`
	Outer          float64 `json:"outer" mapstructure:"outer"`
	Cancel         float64 `json:"cancel" mapstructure:"cancel"`
	CancelStale    float64 `json:"cancelStale" mapstructure:"cancelStale"`
	SoftStopDelay  float64 `json:"softStopDelay" mapstructure:"softStopDelay"`
	RootMotion     bool    `json:"rootMotion" mapstructure:"rootMotion"`
	RootTransferXZ bool    `json:"rootTransferXZ" mapstructure:"rootTransferXZ"`
	RootTransferY  bool    `json:"rootTransferY" mapstructure:"rootTransferY"`
	RootBakeXZ     bool    `json:"rootBakeXZ" mapstructure:"rootBakeXZ"`
	RootBakeY      bool    `json:"rootBakeY" mapstructure:"rootBakeY"`
}

// SamplerConfig holds local playback settings.
type SamplerConfig struct {
	// Clips lists clip fixture files played in order.
	Clips []string `json:"clips" mapstructure:"clips"`

	// Loops is how many times the clip list is queued.
	Loops int `json:"loops" mapstructure:"loops"`
}

// NetworkConfig holds sender and jitter buffer settings.
type NetworkConfig struct {
	TargetDepth  int     `json:"targetDepth" mapstructure:"targetDepth"`
	MaxWait      float64 `json:"maxWait" mapstructure:"maxWait"`
	Smoothing    float64 `json:"smoothing" mapstructure:"smoothing"`
	SendPosition bool    `json:"sendPosition" mapstructure:"sendPosition"`
	SendScale    bool    `json:"sendScale" mapstructure:"sendScale"`
	ShortStreams bool    `json:"shortStreams" mapstructure:"shortStreams"`
	Loopback     bool    `json:"loopback" mapstructure:"loopback"`
}

// EngineConfig holds host loop settings.
type EngineConfig struct {
	TickRate        float64       `json:"tickRate" mapstructure:"tickRate"`
	Workers         int           `json:"workers" mapstructure:"workers"`
	Avatars         int           `json:"avatars" mapstructure:"avatars"`
	FixedDelta      bool          `json:"fixedDelta" mapstructure:"fixedDelta"`
	Duration        time.Duration `json:"duration" mapstructure:"duration"`
	Profiling       bool          `json:"profiling" mapstructure:"profiling"`
	ProfileInterval time.Duration `json:"profileInterval" mapstructure:"profileInterval"`
}

// Config is the full posesim configuration.
type Config struct {
	LogLevel string        `json:"logLevel" mapstructure:"logLevel"`
	Sampler  SamplerConfig `json:"sampler" mapstructure:"sampler"`
	Blend    BlendConfig   `json:"blend" mapstructure:"blend"`
	Network  NetworkConfig `json:"network" mapstructure:"network"`
	Engine   EngineConfig  `json:"engine" mapstructure:"engine"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logLevel", "info")

	v.SetDefault("sampler.clips", []string{})
	v.SetDefault("sampler.loops", 1)

	v.SetDefault("blend.crossfade", 0.25)
	v.SetDefault("blend.outer", 0.3)
	v.SetDefault("blend.cancel", 0.3)
	v.SetDefault("blend.cancelStale", 0.1)
	v.SetDefault("blend.softStopDelay", 0.0)
	v.SetDefault("blend.rootMotion", false)
	v.SetDefault("blend.rootTransferXZ", true)
	v.SetDefault("blend.rootTransferY", false)
	v.SetDefault("blend.rootBakeXZ", false)
	v.SetDefault("blend.rootBakeY", true)

	v.SetDefault("network.targetDepth", 3)
	v.SetDefault("network.maxWait", 0.5)
	v.SetDefault("network.smoothing", 0.5)
	v.SetDefault("network.sendPosition", false)
	v.SetDefault("network.sendScale", false)
	v.SetDefault("network.shortStreams", false)
	v.SetDefault("network.loopback", true)

	v.SetDefault("engine.tickRate", 60.0)
	v.SetDefault("engine.workers", 0)
	v.SetDefault("engine.avatars", 1)
	v.SetDefault("engine.fixedDelta", false)
	v.SetDefault("engine.duration", "5s")
	v.SetDefault("engine.profiling", false)
	v.SetDefault("engine.profileInterval", "1s")
}

// Load reads configuration from an optional JSON or YAML file, applies environment overrides and defaults,
// and validates the result. An empty path loads defaults and environment only.
//
// Parameters:
//   - path: the config file path, or empty
//
// Returns:
//   - Config: the loaded configuration
//   - error: error if the file cannot be read or a value is out of range
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("error decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every value is within the range its consumer accepts.
//
// Returns:
//   - error: an ErrInvalidConfig wrapped error naming the first bad key, or nil
func (c Config) Validate() error {
	switch {
	case c.Engine.TickRate <= 0:
		return fmt.Errorf("%w: engine.tickRate must be positive", ErrInvalidConfig)
	case c.Engine.Workers < 0:
		return fmt.Errorf("%w: engine.workers must not be negative", ErrInvalidConfig)
	case c.Engine.Avatars < 1:
		return fmt.Errorf("%w: engine.avatars must be at least 1", ErrInvalidConfig)
	case c.Network.TargetDepth < 1:
		return fmt.Errorf("%w: network.targetDepth must be at least 1", ErrInvalidConfig)
	case c.Network.MaxWait < 0:
		return fmt.Errorf("%w: network.maxWait must not be negative", ErrInvalidConfig)
	case c.Network.Smoothing <= 0 || c.Network.Smoothing > 1:
		return fmt.Errorf("%w: network.smoothing must be in (0, 1]", ErrInvalidConfig)
	case c.Blend.Crossfade < 0 || c.Blend.Outer < 0 || c.Blend.Cancel < 0 || c.Blend.CancelStale < 0:
		return fmt.Errorf("%w: blend durations must not be negative", ErrInvalidConfig)
	case c.Sampler.Loops < 1:
		return fmt.Errorf("%w: sampler.loops must be at least 1", ErrInvalidConfig)
	}
	return nil
}
