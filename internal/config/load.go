package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Load returns the typed, validated configuration from the global viper
// instance populated by Init.
func Load() (*Config, error) {
	return unmarshalConfig(viper.GetViper())
}

// LoadFromPath reads and validates configuration from a specific file path,
// independent of the global configuration.
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()
	configure(v)
	v.SetConfigFile(expandHome(path))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config from %s; %w", path, err)
	}

	return unmarshalConfig(v)
}

// unmarshalConfig converts viper config to typed Config struct.
func unmarshalConfig(v *viper.Viper) (*Config, error) {
	cfg := &Config{}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config; %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
