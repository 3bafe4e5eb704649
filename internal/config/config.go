// Package config loads sheetdesk settings from config.yaml, SHEETDESK_* environment
// variables and built-in defaults, in increasing order of precedence: defaults,
// file, environment. Command-line flags are applied on top by the CLI.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"sheetdesk/internal/sheet"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"
	envPrefix      = "SHEETDESK"

	KeyWorkspace    = "workspace"
	KeyActor        = "actor"
	KeyMaxSnapshots = "history.max_snapshots"
	KeyDebounceMS   = "history.debounce_ms"
	KeyPlatform     = "keys.platform"
	KeyLogLevel     = "log.level"
	KeyLogFile      = "log.file"
)

const defaultConfigYAML = `# sheetdesk configuration

# Workspace (tenant) used when --workspace/--dir are not given.
workspace: default

# User id edits are attributed to (overridable by --actor).
# actor:

history:
  # Undo steps kept per open sheet.
  max_snapshots: 100
  # Typing pauses shorter than this are merged into one undo step.
  debounce_ms: 300

keys:
  # auto | mac | pc
  platform: auto

log:
  # debug | info | warn | error
  level: info
  # Defaults to sheetdesk.log in the config directory.
  # file:
`

type History struct {
	MaxSnapshots int `mapstructure:"max_snapshots" json:"maxSnapshots" yaml:"max_snapshots"`
	DebounceMS   int `mapstructure:"debounce_ms" json:"debounceMs" yaml:"debounce_ms"`
}

type Keys struct {
	Platform string `mapstructure:"platform" json:"platform" yaml:"platform"`
}

type Log struct {
	Level string `mapstructure:"level" json:"level" yaml:"level"`
	File  string `mapstructure:"file" json:"file" yaml:"file"`
}

type Config struct {
	Workspace string  `mapstructure:"workspace" json:"workspace" yaml:"workspace"`
	Actor     string  `mapstructure:"actor" json:"actor,omitempty" yaml:"actor,omitempty"`
	History   History `mapstructure:"history" json:"history" yaml:"history"`
	Keys      Keys    `mapstructure:"keys" json:"keys" yaml:"keys"`
	Log       Log     `mapstructure:"log" json:"log" yaml:"log"`

	// Dir and File record where the settings came from; File is empty when no
	// config.yaml was read.
	Dir  string `mapstructure:"-" json:"dir" yaml:"dir"`
	File string `mapstructure:"-" json:"file,omitempty" yaml:"file,omitempty"`
}

var (
	ErrMaxSnapshotsInvalid = errors.New("history.max_snapshots must be positive")
	ErrDebounceInvalid     = errors.New("history.debounce_ms must not be negative")
	ErrLogLevelUnknown     = errors.New("unknown log.level (expected debug|info|warn|error)")
)

// Load reads config.yaml from dir, writing a commented default file on first
// run. A missing file is not an error.
func Load(dir string) (*Config, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(dir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := newViper(dir)
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Dir = dir
	cfg.File = v.ConfigFileUsed()
	if strings.TrimSpace(cfg.Log.File) == "" {
		cfg.Log.File = filepath.Join(dir, "sheetdesk.log")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func newViper(dir string) *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyWorkspace, "default")
	v.SetDefault(KeyActor, "")
	v.SetDefault(KeyMaxSnapshots, sheet.DefaultMaxSnapshots)
	v.SetDefault(KeyDebounceMS, int(sheet.DefaultDebounce/time.Millisecond))
	v.SetDefault(KeyPlatform, "auto")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFile, "")

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(dir)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func ensureDefaultConfigFile(dir string) error {
	path := filepath.Join(dir, configFileExt)
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

// Validate checks the settings and returns one of this package's sentinel errors.
func (c Config) Validate() error {
	if c.History.MaxSnapshots <= 0 {
		return ErrMaxSnapshotsInvalid
	}
	if c.History.DebounceMS < 0 {
		return ErrDebounceInvalid
	}
	if _, err := sheet.ParsePlatform(c.Keys.Platform); err != nil {
		return err
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// Limits converts the history settings for sheet controllers.
func (c Config) Limits() sheet.Limits {
	return sheet.Limits{
		MaxSnapshots: c.History.MaxSnapshots,
		Debounce:     time.Duration(c.History.DebounceMS) * time.Millisecond,
	}
}

func (c Config) Platform() sheet.Platform {
	p, err := sheet.ParsePlatform(c.Keys.Platform)
	if err != nil {
		return sheet.DetectPlatform()
	}
	return p
}

func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrLogLevelUnknown, s)
	}
}
