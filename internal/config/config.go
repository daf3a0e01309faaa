// Package config loads statusmirror configuration from YAML files and
// STATUSMIRROR_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variable overrides.
const EnvPrefix = "STATUSMIRROR"

// configFilePath stores the path to the loaded config file
var configFilePath string

// Init initializes the global configuration.
// When explicitPath is set only that file is read. Otherwise configuration
// files are searched in priority order:
//  1. Directory specified by STATUSMIRROR_CONFIG_DIR environment variable
//  2. ~/.config/statusmirror/
//  3. Current working directory (.)
//
// If no config file is found, defaults and environment variables are used.
// If a config file exists but is invalid or unreadable, Init returns an error.
func Init(explicitPath string) error {
	configure(viper.GetViper())

	if explicitPath != "" {
		viper.SetConfigFile(expandHome(explicitPath))
	} else {
		addSearchPaths(viper.GetViper())
	}

	err := viper.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && explicitPath == "" {
			configFilePath = ""
			return nil
		}
		return fmt.Errorf("failed to read config; %w", err)
	}

	configFilePath = viper.ConfigFileUsed()
	slog.Info("config initialized", "file", configFilePath)

	return nil
}

// configure applies naming, environment binding and defaults to v.
func configure(v *viper.Viper) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
}

func addSearchPaths(v *viper.Viper) {
	if envPath := os.Getenv(EnvPrefix + "_CONFIG_DIR"); envPath != "" {
		v.AddConfigPath(envPath)
	}
	if dir := ConfigDir(); dir != "" {
		v.AddConfigPath(dir)
	}
	v.AddConfigPath(".")
}

// ConfigFilePath returns the path to the loaded config file,
// or empty string if using defaults only.
func ConfigFilePath() string {
	return configFilePath
}

// Reset clears the configuration state for testing purposes.
func Reset() {
	viper.Reset()
	configFilePath = ""
}

// GetString returns the string value for the given key.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns the integer value for the given key.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns the boolean value for the given key.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// Set sets a value for the given key, overriding defaults and config file values.
// Primarily used for testing.
func Set(key string, value any) {
	viper.Set(key, value)
}

// GetPath returns the string value for the given key with ~ expanded to $HOME.
func GetPath(key string) string {
	return expandHome(viper.GetString(key))
}

// GetAllSettings returns all configuration settings as a map.
func GetAllSettings() map[string]any {
	return viper.AllSettings()
}

// ExpandPath expands a leading ~ in path to the user's home directory.
func ExpandPath(path string) string {
	return expandHome(path)
}

// expandHome expands a leading ~ in path to the user's home directory.
// Only expands "~" alone or "~/..." patterns. Patterns like "~user" are not expanded.
func expandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}

	if len(path) > 1 && path[1] != '/' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if len(path) == 1 {
		return home
	}

	return filepath.Join(home, path[2:])
}
