// Package conf loads the aggregate configuration from file, environment and
// defaults.
package conf

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/bk-med/kanban/internal/log"
	"github.com/bk-med/kanban/internal/metrics"
	"github.com/bk-med/kanban/internal/notify"
	"github.com/bk-med/kanban/internal/pkg/xcache"
	"github.com/bk-med/kanban/internal/server"
	"github.com/bk-med/kanban/internal/server/biz"
	"github.com/bk-med/kanban/internal/server/duescan"
	"github.com/bk-med/kanban/internal/store"
)

// Config aggregates every component configuration. Keys follow the conf
// tags, environment variables follow KANBAN_SECTION_KEY.
type Config struct {
	APIServer server.Config  `conf:"server" yaml:"server" json:"server"`
	DB        store.Config   `conf:"db" yaml:"db" json:"db"`
	Log       log.Config     `conf:"log" yaml:"log" json:"log"`
	Cache     xcache.Config  `conf:"cache" yaml:"cache" json:"cache"`
	Auth      biz.AuthConfig `conf:"auth" yaml:"auth" json:"auth"`
	Notify    notify.Config  `conf:"notify" yaml:"notify" json:"notify"`
	DueScan   duescan.Config `conf:"duescan" yaml:"duescan" json:"duescan"`
	Metrics   metrics.Config `conf:"metrics" yaml:"metrics" json:"metrics"`
}

// Default returns the configuration used when file and environment provide
// nothing.
func Default() Config {
	return Config{
		APIServer: server.Config{
			Port:           8090,
			Name:           "kanban",
			Host:           "0.0.0.0",
			ReadTimeout:    30 * time.Second,
			RequestTimeout: 30 * time.Second,
		},
		DB: store.Config{
			Dialect: "sqlite",
			DSN:     "kanban.db",
		},
		Log: log.DefaultConfig(),
		Cache: xcache.Config{
			Mode: xcache.ModeMemory,
		},
		Notify: notify.Config{
			Sender: "log",
		},
		DueScan: duescan.Config{
			CRON: "0 0 8 * * *",
		},
	}
}

// Load reads kanban.yml and the KANBAN_ environment on top of the defaults.
func Load() (Config, error) {
	v := viper.New()

	v.SetConfigName("kanban")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/kanban")

	// Automatic env resolution only covers keys viper already knows, so the
	// defaults are registered first.
	if err := seedDefaults(v); err != nil {
		return Config{}, err
	}

	v.SetEnvPrefix("KANBAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config

	err := v.Unmarshal(&config, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "conf"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	})
	if err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := mergo.Merge(&config, Default()); err != nil {
		return Config{}, fmt.Errorf("failed to apply config defaults: %w", err)
	}

	return config, nil
}

func seedDefaults(v *viper.Viper) error {
	raw, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("failed to marshal config defaults: %w", err)
	}

	defaults := map[string]any{}
	if err := yaml.Unmarshal(raw, &defaults); err != nil {
		return fmt.Errorf("failed to unmarshal config defaults: %w", err)
	}

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	return nil
}

// Sections explode the aggregate into per-component configurations for
// dependency injection.
//
//nolint:gochecknoglobals // fx provider list.
var Sections = []any{
	func(cfg Config) server.Config { return cfg.APIServer },
	func(cfg Config) store.Config { return cfg.DB },
	func(cfg Config) log.Config { return cfg.Log },
	func(cfg Config) xcache.Config { return cfg.Cache },
	func(cfg Config) biz.AuthConfig { return cfg.Auth },
	func(cfg Config) notify.Config { return cfg.Notify },
	func(cfg Config) duescan.Config { return cfg.DueScan },
	func(cfg Config) metrics.Config { return cfg.Metrics },
}
