// Package config loads the application configuration from defaults, an
// optional YAML file, FLASHMIND_ environment variables and command-line
// flags, later layers overriding earlier ones.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment override. A double underscore
// separates levels: FLASHMIND_HTTP__PORT sets http.port.
const EnvPrefix = "FLASHMIND_"

// DefaultFile is read when present; naming another file with --config
// makes it required.
const DefaultFile = "flashmind.yaml"

// Storage backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Generator providers.
const (
	ProviderGemini = "gemini"
	ProviderStatic = "static"
)

// Log formats.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// Config represents the application configuration.
type Config struct {
	Log       LogConfig       `koanf:"log"`
	HTTP      HTTPConfig      `koanf:"http"`
	Storage   StorageConfig   `koanf:"storage"`
	Generator GeneratorConfig `koanf:"generator"`
	Sources   SourcesConfig   `koanf:"sources"`
}

// Validate validates every section.
func (c *Config) Validate() error {
	for name, section := range map[string]validation.Validatable{
		"log":       &c.Log,
		"http":      &c.HTTP,
		"storage":   &c.Storage,
		"generator": &c.Generator,
		"sources":   &c.Sources,
	} {
		if err := section.Validate(); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Validate validates the logging configuration.
func (c *LogConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Level, validation.Required, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.Format, validation.Required, validation.In(FormatJSON, FormatText)),
	)
}

// SlogLevel returns the configured level.
func (c *LogConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `koanf:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StorageConfig selects where the document is kept.
type StorageConfig struct {
	Backend   string `koanf:"backend"`
	Path      string `koanf:"path"`
	ExportDir string `koanf:"export_dir"`
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required, validation.In(BackendJSON, BackendSQLite)),
		validation.Field(&c.Path, validation.Required),
	)
}

// GeneratorConfig holds content generator configuration. An empty APIKey
// falls back to GEMINI_API_KEY.
type GeneratorConfig struct {
	Provider string `koanf:"provider"`
	APIKey   string `koanf:"api_key"`
	Model    string `koanf:"model"`
}

// Validate validates the generator configuration.
func (c *GeneratorConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Provider, validation.Required, validation.In(ProviderGemini, ProviderStatic)),
	)
}

// SourcesConfig holds markdown import configuration.
type SourcesConfig struct {
	ReposDir string         `koanf:"repos_dir"`
	Watch    bool           `koanf:"watch"`
	Debounce time.Duration  `koanf:"debounce"`
	Paths    []SourceConfig `koanf:"paths"`
}

// Validate validates the sources configuration.
func (c *SourcesConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ReposDir, validation.Required),
		validation.Field(&c.Debounce, validation.Min(time.Duration(0))),
		validation.Field(&c.Paths),
	)
}

// SourceConfig binds a markdown directory, file or git URL to a deck.
type SourceConfig struct {
	Deck string `koanf:"deck"`
	Path string `koanf:"path"`
}

// Validate validates one source.
func (c SourceConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Deck, validation.Required),
		validation.Field(&c.Path, validation.Required),
	)
}

// Default returns a new Config with sensible default values.
func Default() *Config {
	return &Config{
		Log:  LogConfig{Level: "info", Format: FormatText},
		HTTP: HTTPConfig{Port: 8080},
		Storage: StorageConfig{
			Backend:   BackendJSON,
			Path:      "flashmind.json",
			ExportDir: ".",
		},
		Generator: GeneratorConfig{Provider: ProviderGemini},
		Sources: SourcesConfig{
			ReposDir: "repos",
			Watch:    true,
			Debounce: 500 * time.Millisecond,
		},
	}
}

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"log-level":  "log.level",
	"log-format": "log.format",
	"port":       "http.port",
	"backend":    "storage.backend",
	"data":       "storage.path",
	"export-dir": "storage.export_dir",
	"generator":  "generator.provider",
	"model":      "generator.model",
	"repos-dir":  "sources.repos_dir",
	"watch":      "sources.watch",
}

// RegisterFlags adds the configuration flags to fs. Flag defaults are only
// for help output; unset flags never override other layers.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.StringP("config", "c", DefaultFile, "path to config file")
	fs.String("log-level", d.Log.Level, "log level (debug, info, warn, error)")
	fs.String("log-format", d.Log.Format, "log format (json, text)")
	fs.IntP("port", "p", d.HTTP.Port, "HTTP port")
	fs.String("backend", d.Storage.Backend, "storage backend (json, sqlite)")
	fs.String("data", d.Storage.Path, "path of the data file")
	fs.String("export-dir", d.Storage.ExportDir, "directory for backups")
	fs.String("generator", d.Generator.Provider, "card generator (gemini, static)")
	fs.String("model", d.Generator.Model, "generator model")
	fs.String("repos-dir", d.Sources.ReposDir, "directory for cloned git sources")
	fs.Bool("watch", d.Sources.Watch, "re-import configured sources when they change")
}

// Load builds the configuration from defaults, the config file named by
// the "config" flag, the environment and the flags set on fs, then
// validates it.
func Load(fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	path := DefaultFile
	explicit := false
	if f := fs.Lookup("config"); f != nil {
		path, explicit = f.Value.String(), f.Changed
	}
	if _, err := os.Stat(path); err == nil || explicit {
		if err := k.Load(file.Provider(path), kyaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := k.Load(posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, any) {
		key, ok := flagKeys[f.Name]
		if !ok || !f.Changed {
			return "", nil
		}
		return key, posflag.FlagVal(fs, f)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to read flags: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Generator.APIKey == "" {
		cfg.Generator.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// envKey turns FLASHMIND_STORAGE__EXPORT_DIR into storage.export_dir.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}
