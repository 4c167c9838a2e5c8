// Package config provides configuration management for Pagewright using
// Viper for flexible configuration loading from files, environment variables,
// and command-line flags.
//
// The configuration system supports YAML files, environment variable
// overrides with PAGEWRIGHT_ prefix, and validation. It manages server
// settings, component definition paths, document storage, and
// development-specific options like hot reload of component definitions.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Components  ComponentsConfig  `yaml:"components" mapstructure:"components"`
	Storage     StorageConfig     `yaml:"storage" mapstructure:"storage"`
	Preview     PreviewConfig     `yaml:"preview" mapstructure:"preview"`
	Development DevelopmentConfig `yaml:"development" mapstructure:"development"`
}

type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	Host           string   `yaml:"host" mapstructure:"host"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	Environment    string   `yaml:"environment" mapstructure:"environment"`
}

type ComponentsConfig struct {
	// DefinitionPaths lists directories scanned for component definition YAML
	DefinitionPaths []string `yaml:"definition_paths" mapstructure:"definition_paths"`
}

type StorageConfig struct {
	// Path is the SQLite database file, ":memory:" for ephemeral storage
	Path string `yaml:"path" mapstructure:"path"`
	// SiteID scopes pages within the database
	SiteID string `yaml:"site_id" mapstructure:"site_id"`
}

type PreviewConfig struct {
	// Breakpoint is the default preview breakpoint
	Breakpoint string `yaml:"breakpoint" mapstructure:"breakpoint"`
	// Title is the preview page title
	Title string `yaml:"title" mapstructure:"title"`
}

type DevelopmentConfig struct {
	// HotReload reloads component definitions when their files change
	HotReload bool `yaml:"hot_reload" mapstructure:"hot_reload"`
	// DebounceMs is the file watcher debounce window in milliseconds
	DebounceMs int `yaml:"debounce_ms" mapstructure:"debounce_ms"`
}

func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Apply defaults for definition paths only if not explicitly set
	if !viper.IsSet("components.definition_paths") && len(config.Components.DefinitionPaths) == 0 {
		config.Components.DefinitionPaths = []string{"./components"}
	}

	// Handle definition_paths set via viper (workaround for viper slice handling)
	if viper.IsSet("components.definition_paths") && len(config.Components.DefinitionPaths) == 0 {
		paths := viper.GetStringSlice("components.definition_paths")
		if len(paths) > 0 {
			config.Components.DefinitionPaths = paths
		}
	}

	// Handle development settings set via viper (workaround for viper bool handling)
	if viper.IsSet("development.hot_reload") {
		config.Development.HotReload = viper.GetBool("development.hot_reload")
	} else {
		config.Development.HotReload = true
	}
	if config.Development.DebounceMs <= 0 {
		config.Development.DebounceMs = 300
	}

	if config.Server.Host == "" {
		config.Server.Host = "localhost"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}

	if config.Storage.Path == "" {
		config.Storage.Path = ".pagewright/pages.db"
	}
	if config.Storage.SiteID == "" {
		config.Storage.SiteID = "default"
	}

	if config.Preview.Breakpoint == "" {
		config.Preview.Breakpoint = "desktop"
	}
	if config.Preview.Title == "" {
		config.Preview.Title = "Pagewright Preview"
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// validateConfig validates configuration values for security and correctness
func validateConfig(config *Config) error {
	if err := validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := validateComponentsConfig(&config.Components); err != nil {
		return fmt.Errorf("components config: %w", err)
	}
	if err := validateStorageConfig(&config.Storage); err != nil {
		return fmt.Errorf("storage config: %w", err)
	}
	switch config.Preview.Breakpoint {
	case "mobile", "tablet", "desktop":
	default:
		return fmt.Errorf("preview config: unknown breakpoint %q", config.Preview.Breakpoint)
	}
	return nil
}

// validateServerConfig validates server configuration values
func validateServerConfig(config *ServerConfig) error {
	// Validate port range (allow 0 for system-assigned ports in testing)
	if config.Port < 0 || config.Port > 65535 {
		return fmt.Errorf("port %d is not in valid range 0-65535", config.Port)
	}

	if config.Host != "" {
		// Basic validation - no dangerous characters
		dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\"}
		for _, char := range dangerousChars {
			if strings.Contains(config.Host, char) {
				return fmt.Errorf("host contains dangerous character: %s", char)
			}
		}
	}

	return nil
}

// validateComponentsConfig validates components configuration values
func validateComponentsConfig(config *ComponentsConfig) error {
	for _, path := range config.DefinitionPaths {
		if err := validatePath(path); err != nil {
			return fmt.Errorf("invalid definition path '%s': %w", path, err)
		}
	}
	return nil
}

// validateStorageConfig validates storage configuration values
func validateStorageConfig(config *StorageConfig) error {
	if config.Path == ":memory:" {
		return nil
	}
	return validatePath(config.Path)
}

// validatePath validates a file path for security
func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}

	cleanPath := filepath.Clean(path)

	// Reject path traversal attempts
	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path contains traversal: %s", path)
	}

	// Reject dangerous characters
	dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'"}
	for _, char := range dangerousChars {
		if strings.Contains(cleanPath, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}

	return nil
}
