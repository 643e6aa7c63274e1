// Package config handles skeletool configuration loading and management.
package config

import "fmt"

// FileName is the config file looked up in the working and config directories.
const FileName = "skeletool.yaml"

// Config holds all tool settings.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Playback PlaybackConfig `yaml:"playback"`
	Store    StoreConfig    `yaml:"store"`
	Preview  PreviewConfig  `yaml:"preview"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// PlaybackConfig controls how animations are sampled and authored.
type PlaybackConfig struct {
	FPS                 int     `yaml:"fps"`                   // samples per second for sample/blend/bench
	DefaultStepDuration float32 `yaml:"default_step_duration"` // seconds, for steps created by the tool
	Repeat              bool    `yaml:"repeat"`                // play sampled animations in a loop
}

// StoreConfig selects where the skeleton library lives.
type StoreConfig struct {
	AppName string `yaml:"app_name"` // per-user data directory name
}

// PreviewConfig is the debug rendering configuration handed to previewers.
type PreviewConfig struct {
	ShowBones  bool    `yaml:"show_bones"`
	ShowMeshes bool    `yaml:"show_meshes"`
	BoneSize   float32 `yaml:"bone_size"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
		Playback: PlaybackConfig{
			FPS:                 30,
			DefaultStepDuration: 0.5,
			Repeat:              true,
		},
		Store: StoreConfig{
			AppName: "boneanim",
		},
		Preview: PreviewConfig{
			ShowBones:  true,
			ShowMeshes: true,
			BoneSize:   0.05,
		},
	}
}

// Validate reports settings that would make the tool misbehave.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unknown level %q", c.Logging.Level)
	}
	if c.Playback.FPS <= 0 {
		return fmt.Errorf("playback.fps: must be positive, got %d", c.Playback.FPS)
	}
	if !(c.Playback.DefaultStepDuration > 0) {
		return fmt.Errorf("playback.default_step_duration: must be positive, got %v", c.Playback.DefaultStepDuration)
	}
	if c.Store.AppName == "" {
		return fmt.Errorf("store.app_name: must not be empty")
	}
	return nil
}
