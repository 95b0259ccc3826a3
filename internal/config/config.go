package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the full commander configuration.
type Config struct {
	LogLevel string
	LogFile  string

	Link      LinkConfig
	Commander CommanderConfig
	API       APIConfig
}

// LinkConfig configures the MAVLink endpoint.
type LinkConfig struct {
	Address  string
	SystemID int
}

// CommanderConfig configures the setpoint cadence and warm-up.
type CommanderConfig struct {
	Period      time.Duration
	WarmupTicks int
	Takeoff     TakeoffConfig
}

// TakeoffConfig is the initial setpoint streamed before any external target
// arrives. Position is NED, yaw is radians.
type TakeoffConfig struct {
	X   float64
	Y   float64
	Z   float64
	Yaw float64
}

// APIConfig configures the target-pose HTTP listener.
type APIConfig struct {
	Listen string
}

// Load reads configuration from an optional offboardctl.yaml in configDir and
// sets default values. A missing config file is not an error; every key has a
// default.
func Load(configDir string) (Config, error) {
	v := viper.New()

	v.SetDefault("logLevel", "info")
	v.SetDefault("logFile", "")

	v.SetDefault("link.address", "127.0.0.1:14550")
	v.SetDefault("link.systemID", 10)

	v.SetDefault("commander.period", "33ms")
	v.SetDefault("commander.warmupTicks", 10)
	v.SetDefault("commander.takeoff.x", 0.0)
	v.SetDefault("commander.takeoff.y", 0.0)
	v.SetDefault("commander.takeoff.z", -1.0)
	v.SetDefault("commander.takeoff.yaw", -3.14)

	v.SetDefault("api.listen", ":8089")

	v.SetConfigName("offboardctl")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := Config{
		LogLevel: v.GetString("logLevel"),
		LogFile:  v.GetString("logFile"),
		Link: LinkConfig{
			Address:  v.GetString("link.address"),
			SystemID: v.GetInt("link.systemID"),
		},
		Commander: CommanderConfig{
			Period:      v.GetDuration("commander.period"),
			WarmupTicks: v.GetInt("commander.warmupTicks"),
			Takeoff: TakeoffConfig{
				X:   v.GetFloat64("commander.takeoff.x"),
				Y:   v.GetFloat64("commander.takeoff.y"),
				Z:   v.GetFloat64("commander.takeoff.z"),
				Yaw: v.GetFloat64("commander.takeoff.yaw"),
			},
		},
		API: APIConfig{
			Listen: v.GetString("api.listen"),
		},
	}

	if cfg.Commander.Period <= 0 {
		return Config{}, fmt.Errorf("commander.period must be positive, got %v", cfg.Commander.Period)
	}
	if cfg.Commander.WarmupTicks < 0 {
		return Config{}, fmt.Errorf("commander.warmupTicks must not be negative, got %d", cfg.Commander.WarmupTicks)
	}

	return cfg, nil
}
