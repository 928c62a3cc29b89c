package config

import (
	"flag"
	"fmt"
	"strings"
)

// PathFromArgs finds a -config value in args without parsing the rest, so
// the file can be loaded before the flags that override it are registered.
func PathFromArgs(args []string) string {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}
		name := strings.TrimLeft(arg, "-")
		if name == arg {
			continue
		}
		if value, ok := strings.CutPrefix(name, "config="); ok {
			return value
		}
		if name == "config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// RegisterFlags binds cfg's fields to fs, using the current values as defaults.
func RegisterFlags(fs *flag.FlagSet, cfg *Config) {
	fs.String("config", "", "YAML configuration file; also configurable via "+EnvConfigFile)
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "inactivity period before the screensaver starts; also configurable via "+EnvTimeout)
	fs.DurationVar(&cfg.TickPeriod, "tick", cfg.TickPeriod, "animation frame period; also configurable via "+EnvTickPeriod)
	fs.IntVar(&cfg.Speed, "speed", cfg.Speed, "logo movement per frame in pixels; also configurable via "+EnvSpeed)
	fs.DurationVar(&cfg.AcquireTimeout, "acquire-timeout", cfg.AcquireTimeout, "how long a session waits for the display; also configurable via "+EnvAcquireTimeout)
	fs.IntVar(&cfg.Framebuffer, "fb", cfg.Framebuffer, "framebuffer index (/dev/fbN); also configurable via "+EnvFramebuffer)
	fs.StringVar(&cfg.InputDir, "input-dir", cfg.InputDir, "evdev device directory; also configurable via "+EnvInputDir)
	fs.StringVar(&cfg.LockPath, "lock", cfg.LockPath, "device node lock file; also configurable via "+EnvLockPath)
	fs.StringVar(&cfg.GPIOChip, "gpio-chip", cfg.GPIOChip, "GPIO chip for button input; also configurable via "+EnvGPIOChip)
	fs.Func("gpio-lines", "comma separated GPIO line offsets treated as input; also configurable via "+EnvGPIOLines, func(raw string) error {
		lines, err := ParseLines(raw)
		if err != nil {
			return err
		}
		cfg.GPIOLines = lines
		return nil
	})
	fs.StringVar(&cfg.LogoFile, "logo", cfg.LogoFile, "YAML logo definition replacing the built-in one; also configurable via "+EnvLogoFile)
	fs.BoolVar(&cfg.ExitOnF4, "exit-on-f4", cfg.ExitOnF4, "stop the screensaver when F4 is pressed on any keyboard")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "enable debug logging to ./screensaver-debug.log; also configurable via "+EnvDebug)
	fs.StringVar(&cfg.StdioLog, "stdio-log", cfg.StdioLog, "redirect stdout+stderr (including panics) to this file; also configurable via "+EnvStdioLog)
}

// FromArgs loads the file named by -config (or SCREENSAVER_CONFIG), applies
// the environment and then parses args into the result.
func FromArgs(fs *flag.FlagSet, args []string) (Config, error) {
	cfg, err := Load(PathFromArgs(args))
	if err != nil {
		return cfg, err
	}
	RegisterFlags(fs, &cfg)
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
