package config

import "flag"

var (
	flagConfig = flag.String("config", "", "Path to config file")
	flagDebug  = flag.Bool("debug", false, "Enable debug logging")
	flagFPS    = flag.Int("fps", 0, "Sampling rate for sample, blend and bench")
	flagApp    = flag.String("app", "", "Application name of the skeleton library")
)

// ParseFlags parses the global command-line flags. Call this early in main();
// flag.Args() then holds the subcommand and its arguments.
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagFPS > 0 {
		cfg.Playback.FPS = *flagFPS
	}
	if *flagApp != "" {
		cfg.Store.AppName = *flagApp
	}
}
