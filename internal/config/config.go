// Package config loads ls-exoplanets settings from defaults, an optional
// YAML file, a .env file, environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/litescript/ls-exoplanets/internal/astro"
	"github.com/litescript/ls-exoplanets/internal/camera"
	"github.com/litescript/ls-exoplanets/internal/catalog"
	"github.com/litescript/ls-exoplanets/internal/projector"
)

// EnvPrefix is prepended to environment variable names, e.g. LSEXO_VIEW_UNIT.
const EnvPrefix = "LSEXO"

// FileName is the config file base name searched for on disk.
const FileName = "ls-exoplanets"

// Keys.
const (
	KeyCatalogPath        = "catalog.path"
	KeyCatalogURL         = "catalog.url"
	KeyCatalogTable       = "catalog.table"
	KeyCatalogTimeout     = "catalog.timeout"
	KeyViewUnit           = "view.unit"
	KeyViewColorMode      = "view.color_mode"
	KeyViewTeffFilter     = "view.stellar_teff_filter"
	KeyCameraBase         = "camera.base_distance"
	KeyCameraMaxRange     = "camera.max_range"
	KeyCameraZoom         = "camera.zoom_factor"
	KeyModelPath          = "model.path"
	KeyServerAddr         = "server.addr"
	KeyServerRateLimit    = "server.rate_limit"
	KeyServerBurst        = "server.burst"
	KeyServerPushInterval = "server.push_interval"
	KeyLogLevel           = "log.level"
)

// Config is the resolved application configuration.
type Config struct {
	Catalog CatalogConfig
	View    ViewConfig
	Camera  camera.Config
	Model   ModelConfig
	Server  ServerConfig
	Log     LogConfig

	// File is the config file that was read, if any.
	File string
}

// CatalogConfig selects where planets come from.
type CatalogConfig struct {
	Path    string
	URL     string
	Table   string
	Timeout time.Duration
}

// ViewConfig holds the initial projection settings.
type ViewConfig struct {
	Unit              astro.Unit
	ColorMode         projector.ColorMode
	StellarTeffFilter bool
}

// Policy returns the projector policy for this view.
func (v ViewConfig) Policy() projector.Policy {
	return projector.Policy{StellarTempFilter: v.StellarTeffFilter, ColorMode: v.ColorMode}
}

// ModelConfig locates the classifier.
type ModelConfig struct {
	Path string
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr         string
	RateLimit    float64 // requests per second per client IP
	Burst        int
	PushInterval time.Duration
}

// LogConfig configures logging.
type LogConfig struct {
	Level string
}

// Loader wraps a viper instance with the application's defaults.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader with defaults and environment binding.
func NewLoader() *Loader {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v}
}

// SetDefaults registers every key's default on v.
func SetDefaults(v *viper.Viper) {
	cam := camera.DefaultConfig()

	v.SetDefault(KeyCatalogPath, "exoplanets_visual.csv")
	v.SetDefault(KeyCatalogURL, catalog.DefaultArchiveURL)
	v.SetDefault(KeyCatalogTable, catalog.DefaultTable)
	v.SetDefault(KeyCatalogTimeout, catalog.DefaultTimeout)
	v.SetDefault(KeyViewUnit, astro.Parsec.Label())
	v.SetDefault(KeyViewColorMode, projector.ColorByTemperature.String())
	v.SetDefault(KeyViewTeffFilter, false)
	v.SetDefault(KeyCameraBase, cam.BaseDistance)
	v.SetDefault(KeyCameraMaxRange, cam.MaxRange)
	v.SetDefault(KeyCameraZoom, cam.ZoomFactor)
	v.SetDefault(KeyModelPath, "")
	v.SetDefault(KeyServerAddr, "127.0.0.1:5001")
	v.SetDefault(KeyServerRateLimit, 10.0)
	v.SetDefault(KeyServerBurst, 20)
	v.SetDefault(KeyServerPushInterval, 10*time.Second)
	v.SetDefault(KeyLogLevel, "info")
}

// Viper exposes the underlying instance so callers can bind flags.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// LoadEnvFile loads KEY=value pairs from path into the process
// environment without overriding variables that are already set.
// A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// Load reads configFile, or searches the default locations when it is
// empty, and resolves the final configuration.
func (l *Loader) Load(configFile string) (*Config, error) {
	v := l.v

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", FileName))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	unit, err := astro.ParseUnit(v.GetString(KeyViewUnit))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", KeyViewUnit, err)
	}
	mode, err := projector.ParseColorMode(v.GetString(KeyViewColorMode))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", KeyViewColorMode, err)
	}

	cfg := &Config{
		Catalog: CatalogConfig{
			Path:    v.GetString(KeyCatalogPath),
			URL:     v.GetString(KeyCatalogURL),
			Table:   v.GetString(KeyCatalogTable),
			Timeout: v.GetDuration(KeyCatalogTimeout),
		},
		View: ViewConfig{
			Unit:              unit,
			ColorMode:         mode,
			StellarTeffFilter: v.GetBool(KeyViewTeffFilter),
		},
		Camera: camera.Config{
			BaseDistance: v.GetFloat64(KeyCameraBase),
			MaxRange:     v.GetFloat64(KeyCameraMaxRange),
			ZoomFactor:   v.GetFloat64(KeyCameraZoom),
		},
		Model: ModelConfig{
			Path: v.GetString(KeyModelPath),
		},
		Server: ServerConfig{
			Addr:         v.GetString(KeyServerAddr),
			RateLimit:    v.GetFloat64(KeyServerRateLimit),
			Burst:        v.GetInt(KeyServerBurst),
			PushInterval: v.GetDuration(KeyServerPushInterval),
		},
		Log: LogConfig{
			Level: v.GetString(KeyLogLevel),
		},
		File: v.ConfigFileUsed(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings that would make the app misbehave.
func (c *Config) Validate() error {
	if c.Camera.BaseDistance <= 0 || c.Camera.MaxRange <= 0 || c.Camera.ZoomFactor <= 0 {
		return fmt.Errorf("camera distances must be positive: %+v", c.Camera)
	}
	if c.Catalog.Timeout <= 0 {
		return fmt.Errorf("%s must be positive, got %v", KeyCatalogTimeout, c.Catalog.Timeout)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("%s must not be negative", KeyServerRateLimit)
	}
	if c.Server.RateLimit > 0 && c.Server.Burst < 1 {
		return fmt.Errorf("%s must be at least 1 when rate limiting", KeyServerBurst)
	}
	if c.Server.PushInterval <= 0 {
		return fmt.Errorf("%s must be positive, got %v", KeyServerPushInterval, c.Server.PushInterval)
	}
	return nil
}
