// Package config loads darkroom settings from .env files, the environment
// and command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	// Renderer
	GPU          bool `mapstructure:"DARKROOM_GPU"`
	PreviewMax   int  `mapstructure:"DARKROOM_PREVIEW_MAX" validate:"gte=64,lte=16384"`
	PreviewDebug bool `mapstructure:"PREVIEW_DEBUG"`

	// Export
	JPEGQuality   int `mapstructure:"DARKROOM_JPEG_QUALITY" validate:"gte=1,lte=100"`
	ExportWorkers int `mapstructure:"DARKROOM_EXPORT_WORKERS" validate:"gte=1,lte=64"`

	CullPadding float64 `mapstructure:"DARKROOM_CULL_PADDING" validate:"gte=0"`
	LogLevel    string  `mapstructure:"DARKROOM_LOG_LEVEL" validate:"oneof=debug info warn error"`
}

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"gpu":          "DARKROOM_GPU",
	"preview-max":  "DARKROOM_PREVIEW_MAX",
	"jpeg-quality": "DARKROOM_JPEG_QUALITY",
	"workers":      "DARKROOM_EXPORT_WORKERS",
	"cull-padding": "DARKROOM_CULL_PADDING",
	"log-level":    "DARKROOM_LOG_LEVEL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("DARKROOM_GPU", true)
	v.SetDefault("DARKROOM_PREVIEW_MAX", 1024)
	v.SetDefault("DARKROOM_JPEG_QUALITY", 92)
	v.SetDefault("DARKROOM_EXPORT_WORKERS", 2)
	v.SetDefault("DARKROOM_CULL_PADDING", 200)
	v.SetDefault("DARKROOM_LOG_LEVEL", "warn")
	v.SetDefault("PREVIEW_DEBUG", false)
}

// AddFlags registers the config flags on fs.
func AddFlags(fs *pflag.FlagSet) {
	fs.Bool("gpu", true, "render previews and exports on the GPU engine")
	fs.Int("preview-max", 1024, "longest side of preview renders")
	fs.Int("jpeg-quality", 92, "JPEG export quality (1-100)")
	fs.Int("workers", 2, "parallel batch export workers")
	fs.Float64("cull-padding", 200, "viewport culling padding in world units")
	fs.String("log-level", "warn", "log level: debug, info, warn, error")
}

// bindEnv binds every mapstructure tag of Config as an environment key.
func bindEnv(v *viper.Viper, c Config) {
	typ := reflect.TypeOf(c)
	for i := 0; i < typ.NumField(); i++ {
		if tag := typ.Field(i).Tag.Get("mapstructure"); tag != "" {
			_ = v.BindEnv(tag)
		}
	}
}

// Options controls Load.
type Options struct {
	// EnvFile is loaded before reading the environment; a missing file is
	// not an error. Empty means ".env".
	EnvFile string
	// Flags, if set, override environment values for flags the user set.
	Flags *pflag.FlagSet
}

// Load builds the configuration: defaults, then .env, then the
// environment, then explicitly set flags.
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	v := viper.New()
	bindEnv(v, Config{})
	v.AutomaticEnv()
	setDefaults(v)

	if opts.Flags != nil {
		for name, key := range flagKeys {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	cfg := Config{}
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}
