package cfg

import (
	"testing"
)

func TestGetVersion(t *testing.T) {
	// Test default version
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}

	version := GetVersion()
	if version != "dev" && version != "unknown" {
		// This is fine, version could be set at build time
		t.Logf("Version: %s", version)
	}
}

func TestConfigFields(t *testing.T) {
	cfg := &Cfg{
		DBPath:            "./test.db",
		SourcesDir:        "./sources",
		Port:              "8080",
		WorkerCount:       3,
		SchedulerInterval: 900,
		SourceTimeout:     30,
		MaxItemsPerSource: 50,
		APIAccessKey:      "test-key",
		GitHubToken:       "gh-token",
		ProductHuntToken:  "ph-token",
		UserAgent:         "Test Agent",
		Timezone:          "UTC",
		Debug:             true,
		Version:           "test-version",
	}

	if cfg.DBPath != "./test.db" {
		t.Errorf("Expected db path './test.db', got '%s'", cfg.DBPath)
	}
	if cfg.SourcesDir != "./sources" {
		t.Errorf("Expected sources dir './sources', got '%s'", cfg.SourcesDir)
	}
	if cfg.Port != "8080" {
		t.Errorf("Expected port '8080', got '%s'", cfg.Port)
	}
	if cfg.WorkerCount != 3 {
		t.Errorf("Expected worker count 3, got %d", cfg.WorkerCount)
	}
	if cfg.SchedulerInterval != 900 {
		t.Errorf("Expected scheduler interval 900, got %d", cfg.SchedulerInterval)
	}
	if cfg.SourceTimeout != 30 {
		t.Errorf("Expected source timeout 30, got %d", cfg.SourceTimeout)
	}
	if cfg.MaxItemsPerSource != 50 {
		t.Errorf("Expected max items 50, got %d", cfg.MaxItemsPerSource)
	}
	if cfg.APIAccessKey != "test-key" {
		t.Errorf("Expected API key 'test-key', got '%s'", cfg.APIAccessKey)
	}
	if cfg.GitHubToken != "gh-token" {
		t.Errorf("Expected GitHub token 'gh-token', got '%s'", cfg.GitHubToken)
	}
	if cfg.ProductHuntToken != "ph-token" {
		t.Errorf("Expected Product Hunt token 'ph-token', got '%s'", cfg.ProductHuntToken)
	}
	if cfg.UserAgent != "Test Agent" {
		t.Errorf("Expected user agent 'Test Agent', got '%s'", cfg.UserAgent)
	}
	if cfg.Timezone != "UTC" {
		t.Errorf("Expected timezone 'UTC', got '%s'", cfg.Timezone)
	}
	if !cfg.Debug {
		t.Error("Expected debug to be enabled")
	}
	if cfg.Version != "test-version" {
		t.Errorf("Expected version 'test-version', got '%s'", cfg.Version)
	}
}

func TestSetAndGet(t *testing.T) {
	original := globalCfg
	defer func() { globalCfg = original }()

	cfg := &Cfg{Port: "9090"}
	Set(cfg)

	if Get() != cfg {
		t.Error("Expected Get to return the configuration passed to Set")
	}
	if Get().Port != "9090" {
		t.Errorf("Expected port '9090', got '%s'", Get().Port)
	}
}

func TestApplyTimezone(t *testing.T) {
	if err := applyTimezone("UTC"); err != nil {
		t.Errorf("Expected UTC to be valid, got %v", err)
	}
	if err := applyTimezone(""); err != nil {
		t.Errorf("Expected empty timezone to be a no-op, got %v", err)
	}
	if err := applyTimezone("Not/AZone"); err == nil {
		t.Error("Expected error for an invalid timezone")
	}
}
