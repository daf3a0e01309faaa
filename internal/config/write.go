package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Write writes the configuration to the specified path.
// The directory is created with 0700 permissions and the file written with
// 0600 because it may carry credentials. An existing file is not overwritten
// unless force is set.
func Write(cfg *Config, path string, force bool) error {
	path = expandHome(path)

	if !force && ConfigExistsAt(path) {
		return fmt.Errorf("config file %s already exists; use --force to overwrite", path)
	}

	// Ensure directory exists with proper permissions
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory %s; %w", dir, err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config; %w", err)
	}

	// Add header comment
	header := fmt.Sprintf("# statusmirror configuration\n# Generated: %s\n# Secrets are read from the *_env variables; changes apply on restart\n\n",
		time.Now().Format(time.RFC3339))
	content := []byte(header)
	content = append(content, data...)

	// Write file with secure permissions
	if err := os.WriteFile(path, content, 0600); err != nil {
		return fmt.Errorf("failed to write config file %s; %w", path, err)
	}

	return nil
}
