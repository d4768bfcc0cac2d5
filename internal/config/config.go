// Package config loads the replayd configuration from a YAML file and
// REPLAYD_* environment variables, with sensible defaults for every key.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Store   StoreConfig   `mapstructure:"store"`
	Observe ObserveConfig `mapstructure:"observe"`
	Chaos   ChaosConfig   `mapstructure:"chaos"`
	Log     LogConfig     `mapstructure:"log"`
}

type StoreConfig struct {
	Path string `mapstructure:"path"`
}

type ObserveConfig struct {
	Port        int    `mapstructure:"port"`
	MetricsPort int    `mapstructure:"metrics_port"`
	Target      string `mapstructure:"target"`
}

type ChaosConfig struct {
	Level     string `mapstructure:"level"`
	TargetURL string `mapstructure:"target_url"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads config.yaml from the working directory or ./configs, applies
// REPLAYD_* environment overrides (e.g. REPLAYD_OBSERVE_PORT), and falls
// back to defaults when no file exists.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	v.SetEnvPrefix("replayd")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.path", "chaos-capture.db")
	v.SetDefault("observe.port", 8080)
	v.SetDefault("observe.metrics_port", 9090)
	v.SetDefault("observe.target", "")
	v.SetDefault("chaos.level", "moderate")
	v.SetDefault("chaos.target_url", "http://localhost:8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}
