package sources

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Override is the YAML shape of a per-source override file. Only the fields
// present in the file are applied; a missing file means built-in defaults.
type Override struct {
	Enabled         *bool `yaml:"enabled"`
	RefreshInterval int   `yaml:"refresh_interval"` // seconds
	MaxItems        int   `yaml:"max_items"`
	Timeout         int   `yaml:"timeout"` // seconds
}

// ConfigCache loads and caches per-source override files from the sources
// directory. Files are named <source-name>.yml.
type ConfigCache struct {
	sourcesDir string
	cache      map[string]*Override
	mu         sync.RWMutex
}

func NewConfigCache(sourcesDir string) *ConfigCache {
	return &ConfigCache{
		sourcesDir: sourcesDir,
		cache:      make(map[string]*Override),
	}
}

// Run loads every override file in the sources directory. A missing
// directory is not an error: all sources then run with built-in defaults.
func (cc *ConfigCache) Run() error {
	if _, err := os.Stat(cc.sourcesDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(cc.sourcesDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		fileName := filepath.Base(file)
		sourceName := fileName[:len(fileName)-len(".yml")]

		override, err := cc.loadFile(file)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		cc.mu.Lock()
		cc.cache[sourceName] = override
		cc.mu.Unlock()

		slog.Debug("Source override loaded", "source", sourceName,
			"enabled", override.Enabled == nil || *override.Enabled,
			"refresh_interval", override.RefreshInterval)
	}

	return nil
}

// Reload re-reads the sources directory, replacing the cached overrides.
func (cc *ConfigCache) Reload() error {
	cc.mu.Lock()
	cc.cache = make(map[string]*Override)
	cc.mu.Unlock()
	return cc.Run()
}

// Get returns the override for a source, or nil when none exists.
func (cc *ConfigCache) Get(sourceName string) *Override {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return cc.cache[sourceName]
}

// Apply mutates a source config view with the cached override, if any.
func (cc *ConfigCache) Apply(cfg *Config) {
	override := cc.Get(cfg.Name)
	if override == nil {
		return
	}
	if override.Enabled != nil {
		cfg.Enabled = *override.Enabled
	}
	if override.RefreshInterval > 0 {
		cfg.RefreshInterval = time.Duration(override.RefreshInterval) * time.Second
	}
	if override.MaxItems > 0 {
		cfg.MaxItems = override.MaxItems
	}
	if override.Timeout > 0 {
		cfg.Timeout = time.Duration(override.Timeout) * time.Second
	}
}

func (cc *ConfigCache) loadFile(path string) (*Override, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var override Override
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if override.RefreshInterval < 0 {
		return nil, fmt.Errorf("refresh_interval must be non-negative")
	}
	if override.MaxItems < 0 {
		return nil, fmt.Errorf("max_items must be non-negative")
	}
	if override.Timeout < 0 {
		return nil, fmt.Errorf("timeout must be non-negative")
	}

	return &override, nil
}
