// Package app provides application-level configuration and initialization.
package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/lazyvibe/codescan/internal/capture/device"
	"github.com/lazyvibe/codescan/internal/model"
	"github.com/lazyvibe/codescan/internal/scanning"
	"github.com/lazyvibe/codescan/pkg/utils"
)

// EnvPrefix prefixes every environment override, e.g. CODESCAN_DEVICE.
const EnvPrefix = "CODESCAN"

// Config holds the application configuration.
type Config struct {
	// Device is the capture driver to use: "zbar" or "spool".
	Device string `mapstructure:"device" json:"device"`
	// ZbarPath is the full path to the zbarcam executable.
	ZbarPath string `mapstructure:"zbar_path" json:"zbar_path,omitempty"`
	// ZbarArgs are extra zbarcam arguments, shell-quoted.
	ZbarArgs string `mapstructure:"zbar_args" json:"zbar_args,omitempty"`
	// VideoDevice is the camera node zbarcam reads.
	VideoDevice string `mapstructure:"video_device" json:"video_device"`
	// SpoolDir is the directory the spool driver watches.
	SpoolDir string `mapstructure:"spool_dir" json:"spool_dir,omitempty"`
	// Facing selects the camera.
	Facing model.Facing `mapstructure:"facing" json:"facing"`
	// Symbologies lists the code types to report.
	Symbologies []string `mapstructure:"symbologies" json:"symbologies"`
	// FrameRate caps analyzed frames per second; 0 disables pacing.
	FrameRate float64 `mapstructure:"frame_rate" json:"frame_rate"`
	// Accept is a regular expression the whole payload must match. Empty
	// accepts all.
	Accept string `mapstructure:"accept" json:"accept,omitempty"`
	// Feedback configures success feedback.
	Feedback model.FeedbackConfig `mapstructure:"feedback" json:"feedback"`
	// ServeAddr enables the websocket state feed when set.
	ServeAddr string `mapstructure:"serve_addr" json:"serve_addr,omitempty"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level" json:"log_level"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Device:      "zbar",
		VideoDevice: DefaultVideoDevice(),
		Facing:      model.FacingBack,
		Symbologies: []string{string(model.SymbologyQR)},
		FrameRate:   0,
		Feedback: model.FeedbackConfig{
			Beep: true,
		},
		LogLevel: "info",
	}
}

// ConfigPath returns the path to the config file.
func ConfigPath(configDir string) string {
	return filepath.Join(configDir, "config.json")
}

// DefaultConfigDir returns the codescan configuration directory.
func DefaultConfigDir() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "codescan"), nil
}

func newViper(configDir string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(ConfigPath(configDir))
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := DefaultConfig()
	v.SetDefault("device", def.Device)
	v.SetDefault("zbar_path", def.ZbarPath)
	v.SetDefault("zbar_args", def.ZbarArgs)
	v.SetDefault("video_device", def.VideoDevice)
	v.SetDefault("spool_dir", def.SpoolDir)
	v.SetDefault("facing", string(def.Facing))
	v.SetDefault("symbologies", def.Symbologies)
	v.SetDefault("frame_rate", def.FrameRate)
	v.SetDefault("accept", def.Accept)
	v.SetDefault("feedback.desktop", def.Feedback.Desktop)
	v.SetDefault("feedback.beep", def.Feedback.Beep)
	v.SetDefault("feedback.webhook_url", def.Feedback.WebhookURL)
	v.SetDefault("serve_addr", def.ServeAddr)
	v.SetDefault("log_level", def.LogLevel)
	return v
}

// LoadConfig loads the configuration from disk and the environment. A
// missing file yields the defaults.
func LoadConfig(configDir string) (*Config, error) {
	v := newViper(configDir)

	if _, err := os.Stat(ConfigPath(configDir)); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.Symbologies = utils.FlattenList(cfg.Symbologies)
	cfg.SpoolDir = utils.ExpandPath(cfg.SpoolDir)
	cfg.ZbarPath = utils.ExpandPath(cfg.ZbarPath)
	return &cfg, nil
}

// SaveConfig saves the configuration to disk.
func SaveConfig(configDir string, config *Config) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(ConfigPath(configDir), data, 0644)
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	var errs []error
	if c.Device == "" {
		errs = append(errs, errors.New("device must be set"))
	}
	if c.Facing != model.FacingBack && c.Facing != model.FacingFront {
		errs = append(errs, fmt.Errorf("facing must be %q or %q", model.FacingBack, model.FacingFront))
	}
	if c.FrameRate < 0 {
		errs = append(errs, errors.New("frame_rate must not be negative"))
	}
	if _, err := c.SymbologySet(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Predicate(); err != nil {
		errs = append(errs, err)
	}
	if _, err := utils.ParseArgs(c.ZbarArgs); err != nil {
		errs = append(errs, fmt.Errorf("zbar_args: %w", err))
	}
	return errors.Join(errs...)
}

// SymbologySet parses Symbologies. Unknown names are an error.
func (c *Config) SymbologySet() (model.SymbologySet, error) {
	if len(c.Symbologies) == 0 {
		return nil, errors.New("at least one symbology is required")
	}
	syms := make([]model.Symbology, 0, len(c.Symbologies))
	for _, name := range c.Symbologies {
		sym, ok := model.ParseSymbology(name)
		if !ok {
			return nil, fmt.Errorf("unknown symbology %q", name)
		}
		syms = append(syms, sym)
	}
	return model.NewSymbologySet(syms...), nil
}

// Predicate builds the validity predicate from Accept.
func (c *Config) Predicate() (model.ValidityPredicate, error) {
	return scanning.MatchRegexp(c.Accept)
}

// DeviceConfig returns the capture device configuration.
func (c *Config) DeviceConfig() (device.Config, error) {
	args, err := utils.ParseArgs(c.ZbarArgs)
	if err != nil {
		return device.Config{}, fmt.Errorf("zbar_args: %w", err)
	}
	zbar := c.ZbarPath
	if zbar == "" {
		zbar = DetectZbarPath()
	}
	return device.Config{
		ZbarPath:    zbar,
		ZbarArgs:    args,
		VideoDevice: c.VideoDevice,
		SpoolDir:    c.SpoolDir,
	}, nil
}

// DefaultVideoDevice returns the platform's usual first camera node.
func DefaultVideoDevice() string {
	if runtime.GOOS == "linux" {
		return "/dev/video0"
	}
	return ""
}

// DetectZbarPath attempts to find the zbarcam executable.
func DetectZbarPath() string {
	if path, err := exec.LookPath("zbarcam"); err == nil {
		return path
	}

	var candidates []string
	switch runtime.GOOS {
	case "darwin":
		candidates = append(candidates,
			"/opt/homebrew/bin/zbarcam",
			"/usr/local/bin/zbarcam",
		)
	case "linux":
		home, _ := os.UserHomeDir()
		candidates = append(candidates,
			"/usr/local/bin/zbarcam",
			"/usr/bin/zbarcam",
			filepath.Join(home, ".local/bin/zbarcam"),
		)
	case "windows":
		candidates = append(candidates,
			`C:\Program Files (x86)\ZBar\bin\zbarcam.exe`,
			`C:\Program Files\ZBar\bin\zbarcam.exe`,
		)
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}
