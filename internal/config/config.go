// Package config holds the screensaver's runtime parameters. Values come from
// defaults, then an optional YAML file, then SCREENSAVER_* environment
// variables; the binaries apply command-line flags last.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvConfigFile     = "SCREENSAVER_CONFIG"
	EnvTimeout        = "SCREENSAVER_TIMEOUT"
	EnvTickPeriod     = "SCREENSAVER_TICK"
	EnvSpeed          = "SCREENSAVER_SPEED"
	EnvFramebuffer    = "SCREENSAVER_FB"
	EnvInputDir       = "SCREENSAVER_INPUT_DIR"
	EnvLockPath       = "SCREENSAVER_LOCK"
	EnvGPIOChip       = "SCREENSAVER_GPIO_CHIP"
	EnvGPIOLines      = "SCREENSAVER_GPIO_LINES"
	EnvLogoFile       = "SCREENSAVER_LOGO"
	EnvDebug          = "SCREENSAVER_DEBUG"
	EnvStdioLog       = "SCREENSAVER_STDIO_LOG"
	EnvAcquireTimeout = "SCREENSAVER_ACQUIRE_TIMEOUT"
)

type Config struct {
	// Timeout is the inactivity period after which a session starts.
	Timeout        time.Duration `yaml:"timeout"`
	TickPeriod     time.Duration `yaml:"tick_period"`
	Speed          int           `yaml:"speed"` // logical pixels per tick
	FootprintWidth int           `yaml:"footprint_width"`
	Width          int           `yaml:"width"`
	Height         int           `yaml:"height"`
	AcquireTimeout time.Duration `yaml:"acquire_timeout"`

	Framebuffer int    `yaml:"framebuffer"`
	InputDir    string `yaml:"input_dir"`
	LockPath    string `yaml:"lock_path"`
	GPIOChip    string `yaml:"gpio_chip"`
	GPIOLines   []int  `yaml:"gpio_lines"`
	LogoFile    string `yaml:"logo_file"`

	// ExitOnF4 lets an F4 key press stop the process.
	ExitOnF4 bool   `yaml:"exit_on_f4"`
	Debug    bool   `yaml:"debug"`
	StdioLog string `yaml:"stdio_log"`
}

func Default() Config {
	return Config{
		Timeout:        15 * time.Second,
		TickPeriod:     100 * time.Millisecond,
		Speed:          10,
		FootprintWidth: 220,
		Width:          480,
		Height:         272,
		AcquireTimeout: time.Second,
		Framebuffer:    0,
		InputDir:       "/dev/input",
		LockPath:       filepath.Join(os.TempDir(), "myscreensaver.lock"),
		GPIOChip:       "gpiochip0",
	}
}

// LoadFile overlays the YAML file at path onto cfg. Keys missing from the
// file keep their current value.
func LoadFile(cfg Config, path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// FromEnv overlays SCREENSAVER_* variables onto cfg.
func FromEnv(cfg Config) (Config, error) {
	var errs []error
	duration := func(key string, dst *time.Duration) {
		if raw := os.Getenv(key); raw != "" {
			d, err := time.ParseDuration(raw)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s must be a duration (got %q): %w", key, raw, err))
				return
			}
			*dst = d
		}
	}
	integer := func(key string, dst *int) {
		if raw := os.Getenv(key); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s must be an integer (got %q): %w", key, raw, err))
				return
			}
			*dst = n
		}
	}
	str := func(key string, dst *string) {
		if raw := os.Getenv(key); raw != "" {
			*dst = raw
		}
	}

	duration(EnvTimeout, &cfg.Timeout)
	duration(EnvTickPeriod, &cfg.TickPeriod)
	duration(EnvAcquireTimeout, &cfg.AcquireTimeout)
	integer(EnvSpeed, &cfg.Speed)
	integer(EnvFramebuffer, &cfg.Framebuffer)
	str(EnvInputDir, &cfg.InputDir)
	str(EnvLockPath, &cfg.LockPath)
	str(EnvGPIOChip, &cfg.GPIOChip)
	str(EnvLogoFile, &cfg.LogoFile)
	str(EnvStdioLog, &cfg.StdioLog)

	if raw := os.Getenv(EnvGPIOLines); raw != "" {
		lines, err := ParseLines(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvGPIOLines, err))
		} else {
			cfg.GPIOLines = lines
		}
	}
	if raw := os.Getenv(EnvDebug); raw != "" {
		debug, err := strconv.ParseBool(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s must be a boolean (got %q): %w", EnvDebug, raw, err))
		} else {
			cfg.Debug = debug
		}
	}
	return cfg, errors.Join(errs...)
}

// Load builds the configuration from defaults, the file named by
// SCREENSAVER_CONFIG (or path, when not empty) and the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		var err error
		if cfg, err = LoadFile(cfg, path); err != nil {
			return cfg, err
		}
	}
	return FromEnv(cfg)
}

// ParseLines parses a comma separated list of GPIO line offsets.
func ParseLines(raw string) ([]int, error) {
	var lines []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid line offset %q", part)
		}
		lines = append(lines, n)
	}
	return lines, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive (got %v)", c.Timeout))
	}
	if c.TickPeriod <= 0 {
		errs = append(errs, fmt.Errorf("tick period must be positive (got %v)", c.TickPeriod))
	}
	if c.Speed <= 0 {
		errs = append(errs, fmt.Errorf("speed must be positive (got %d)", c.Speed))
	}
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("canvas %dx%d must be positive", c.Width, c.Height))
	}
	if c.FootprintWidth <= 0 || c.FootprintWidth >= c.Width {
		errs = append(errs, fmt.Errorf("footprint width %d must be positive and below the canvas width", c.FootprintWidth))
	}
	if c.AcquireTimeout <= 0 {
		errs = append(errs, fmt.Errorf("acquire timeout must be positive (got %v)", c.AcquireTimeout))
	}
	if c.Framebuffer < 0 {
		errs = append(errs, fmt.Errorf("framebuffer index must not be negative (got %d)", c.Framebuffer))
	}
	return errors.Join(errs...)
}
