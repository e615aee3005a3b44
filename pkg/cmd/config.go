package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/Sternrassler/boxnow-labels/pkg/client"
	"github.com/Sternrassler/boxnow-labels/pkg/lock"
	"github.com/Sternrassler/boxnow-labels/pkg/pagination"
)

type apiConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type authConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
}

type listingConfig struct {
	PageTimeout time.Duration `mapstructure:"page_timeout"`
}

type outputConfig struct {
	Root string `mapstructure:"root"`
}

type lockConfig struct {
	RedisAddr string        `mapstructure:"redis_addr"`
	RedisDB   int           `mapstructure:"redis_db"`
	TTL       time.Duration `mapstructure:"ttl"`
}

type logConfig struct {
	Level      string `mapstructure:"level"`
	Pretty     bool   `mapstructure:"pretty"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type metricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

type appConfig struct {
	API     apiConfig     `mapstructure:"api"`
	Auth    authConfig    `mapstructure:"auth"`
	Listing listingConfig `mapstructure:"listing"`
	Output  outputConfig  `mapstructure:"output"`
	Lock    lockConfig    `mapstructure:"lock"`
	Log     logConfig     `mapstructure:"log"`
	Metrics metricsConfig `mapstructure:"metrics"`
}

// loadConfig loads the application configuration from the optional config
// file and BOXNOW_* environment variables, then applies flag overrides.
func loadConfig(arg *args) (*appConfig, error) {
	v := viper.NewWithOptions(viper.ExperimentalBindStruct())

	setDefaults(v)

	if arg.ConfigPath != "" {
		v.SetConfigFile(arg.ConfigPath)

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg appConfig

	v.SetEnvPrefix("BOXNOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if arg.ClientID != "" {
		cfg.Auth.ClientID = arg.ClientID
	}
	if arg.ClientSecret != "" {
		cfg.Auth.ClientSecret = arg.ClientSecret
	}
	if arg.LogLevel != "" {
		cfg.Log.Level = arg.LogLevel
	}
	if arg.LogPretty {
		cfg.Log.Pretty = true
	}

	log.Debug().
		Str("base_url", cfg.API.BaseURL).
		Str("output_root", cfg.Output.Root).
		Bool("redis_lock", cfg.Lock.RedisAddr != "").
		Msg("Config loaded")

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	api := client.DefaultConfig()
	v.SetDefault("api.base_url", api.BaseURL)
	v.SetDefault("api.user_agent", api.UserAgent)
	v.SetDefault("api.timeout", api.Timeout)

	v.SetDefault("listing.page_timeout", pagination.DefaultConfig().Timeout)

	v.SetDefault("lock.ttl", lock.DefaultTTL)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
}

func (c *appConfig) clientConfig() client.Config {
	return client.Config{
		BaseURL:   c.API.BaseURL,
		UserAgent: c.API.UserAgent,
		Timeout:   c.API.Timeout,
	}
}
