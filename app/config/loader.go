package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader handles loading and validation of channel configurations
type Loader struct {
	channelsDir string
}

// NewLoader creates a new configuration loader
func NewLoader(channelsDir string) *Loader {
	return &Loader{channelsDir: channelsDir}
}

// LoadAll loads all YAML configuration files from the channels directory
func (l *Loader) LoadAll() (map[string]*ChannelConfig, error) {
	configs := make(map[string]*ChannelConfig)

	// Check if channels directory exists
	if _, err := os.Stat(l.channelsDir); os.IsNotExist(err) {
		return configs, nil // Return empty map if directory doesn't exist
	}

	files, err := filepath.Glob(filepath.Join(l.channelsDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YAML files: %w", err)
	}

	// Also check for .yml extension
	ymlFiles, err := filepath.Glob(filepath.Join(l.channelsDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YML files: %w", err)
	}
	files = append(files, ymlFiles...)

	for _, file := range files {
		config, err := l.loadFile(file)
		if err != nil {
			return nil, fmt.Errorf("error loading %s: %w", file, err)
		}

		if err := l.validate(config); err != nil {
			return nil, fmt.Errorf("invalid config %s: %w", file, err)
		}

		configs[file] = config
		slog.Debug("Loaded channel configuration", "file", file, "source", config.Channel.Source, "account", config.Channel.Account)
	}

	return configs, nil
}

// loadFile loads a single YAML configuration file
func (l *Loader) loadFile(path string) (*ChannelConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var config ChannelConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Set defaults
	l.setDefaults(&config)

	return &config, nil
}

// setDefaults applies default values to configuration
func (l *Loader) setDefaults(config *ChannelConfig) {
	if config.Settings.Timeout == 0 {
		config.Settings.Timeout = 30 // seconds
	}
}

// validate validates the configuration
func (l *Loader) validate(config *ChannelConfig) error {
	source := strings.ToLower(strings.TrimSpace(config.Channel.Source))

	switch source {
	case "youtube":
		if config.Channel.Account == "" {
			return fmt.Errorf("youtube channel requires an account handle")
		}
	case "rss":
		if config.Channel.FeedURL == "" {
			return fmt.Errorf("rss channel requires a feed_url")
		}
		if config.Channel.Account == "" {
			return fmt.Errorf("rss channel requires an account name")
		}
	case "":
		return fmt.Errorf("channel source is required")
	default:
		return fmt.Errorf("unsupported channel source: %s", config.Channel.Source)
	}

	if config.Settings.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}

	return nil
}
