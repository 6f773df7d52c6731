package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	apperrors "vroot/internal/errors"
)

func TestGetDefaultConfig(t *testing.T) {
	config := getDefaultConfig()

	if config.Sources.Card.Enabled {
		t.Error("Expected card source to be disabled by default")
	}
	if len(config.Sources.Partitions) != 0 {
		t.Errorf("Expected no partitions by default, got %d", len(config.Sources.Partitions))
	}
	if !config.Sources.MassStorage.Enabled {
		t.Error("Expected mass storage to be enabled by default")
	}
	if config.Sources.MassStorage.MountInfoPath != "/proc/self/mountinfo" {
		t.Errorf("Unexpected mountinfo path '%s'", config.Sources.MassStorage.MountInfoPath)
	}
	if len(config.Sources.MassStorage.FSTypes) == 0 {
		t.Error("Expected removable filesystem types to be populated")
	}
	if !config.Sources.Optical.Enabled {
		t.Error("Expected optical source to be enabled by default")
	}
	if config.Sources.Network.Enabled {
		t.Error("Expected network shares to be disabled by default")
	}
	if config.Sources.Network.DialTimeoutSeconds != 5 {
		t.Errorf("Expected default dial timeout 5, got %d", config.Sources.Network.DialTimeoutSeconds)
	}
	if config.Locations.ShowHidden {
		t.Error("Expected ShowHidden to be false by default")
	}
	if config.Watcher.IntervalSeconds != 2 {
		t.Errorf("Expected default watcher interval 2, got %d", config.Watcher.IntervalSeconds)
	}
	if config.Log.Level != "warn" {
		t.Errorf("Expected default log level 'warn', got '%s'", config.Log.Level)
	}
}

func TestMergeConfigs(t *testing.T) {
	defaultConfig := getDefaultConfig()
	fileConfig := &Config{
		Sources: SourcesConfig{
			Card: CardConfig{Enabled: true, Path: "/mnt/sdcard"},
			Partitions: []PartitionConfig{
				{Name: "games", Path: "/srv/games", ReadOnly: true},
			},
			MassStorage: MassStorageConfig{Enabled: false},
			Network: NetworkConfig{
				Enabled: true,
				Shares:  []ShareConfig{{Name: "nas", Host: "nas.local", Share: "media"}},
			},
		},
		Locations: LocationsConfig{ShowHidden: true, ExtraHidden: []string{"NAS*"}},
		Watcher:   WatcherConfig{IntervalSeconds: 10},
		Log:       LogConfig{Level: "debug"},
	}

	mergeConfigs(defaultConfig, fileConfig)

	if !defaultConfig.Sources.Card.Enabled || defaultConfig.Sources.Card.Path != "/mnt/sdcard" {
		t.Errorf("Card config not merged: %+v", defaultConfig.Sources.Card)
	}
	if len(defaultConfig.Sources.Partitions) != 1 || !defaultConfig.Sources.Partitions[0].ReadOnly {
		t.Errorf("Partitions not merged: %+v", defaultConfig.Sources.Partitions)
	}
	if defaultConfig.Sources.MassStorage.Enabled {
		t.Error("Expected merged mass storage to be disabled")
	}
	// Unset slices keep their defaults
	if len(defaultConfig.Sources.MassStorage.MountGlobs) == 0 {
		t.Error("Mount globs should keep defaults when unset in file")
	}
	if defaultConfig.Sources.Network.DialTimeoutSeconds != 5 {
		t.Errorf("Dial timeout should keep default, got %d", defaultConfig.Sources.Network.DialTimeoutSeconds)
	}
	if len(defaultConfig.Sources.Network.Shares) != 1 {
		t.Errorf("Shares not merged: %+v", defaultConfig.Sources.Network.Shares)
	}
	if !defaultConfig.Locations.ShowHidden || defaultConfig.Locations.ExtraHidden[0] != "NAS*" {
		t.Errorf("Locations not merged: %+v", defaultConfig.Locations)
	}
	if defaultConfig.Watcher.IntervalSeconds != 10 {
		t.Errorf("Expected merged interval 10, got %d", defaultConfig.Watcher.IntervalSeconds)
	}
	if len(defaultConfig.Watcher.Roots) != 2 {
		t.Errorf("Watcher roots should keep defaults, got %v", defaultConfig.Watcher.Roots)
	}
	if defaultConfig.Log.Level != "debug" {
		t.Errorf("Expected merged level 'debug', got '%s'", defaultConfig.Log.Level)
	}
}

func TestManagerInterface(t *testing.T) {
	var manager ManagerInterface = NewManagerAt("/tmp/test_config.json")
	if manager == nil {
		t.Error("Manager should implement ManagerInterface")
	}
}

func TestNewManagerAtEmptyFallsBack(t *testing.T) {
	m := NewManagerAt("")
	if m.Path() != getConfigPath() {
		t.Errorf("Expected default path %q, got %q", getConfigPath(), m.Path())
	}
}

func TestGetConfigPath(t *testing.T) {
	path := getConfigPath()

	if path == "" {
		t.Error("Config path should not be empty")
	}
	if !strings.HasSuffix(path, "config.json") {
		t.Errorf("Config path should end with 'config.json', got '%s'", path)
	}
}

func TestManagerLoadNonExistentFile(t *testing.T) {
	manager := NewManagerAt("/non/existent/path/config.json")

	config, err := manager.Load()
	if err != nil {
		t.Errorf("Load should not return error for non-existent file, got: %v", err)
	}
	if config == nil {
		t.Fatal("Load should return default config for non-existent file")
	}
	if !config.Sources.MassStorage.Enabled {
		t.Error("Should return default config")
	}
}

func TestManagerLoadInvalidJSON(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(configPath, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := NewManagerAt(configPath).Load()
	if err == nil {
		t.Fatal("expected parse error")
	}
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Type != apperrors.ErrorTypeConfig {
		t.Errorf("expected config AppError, got %v", err)
	}
}

func TestManagerSaveAndLoad(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "test_config.json")
	manager := NewManagerAt(configPath)

	testConfig := getDefaultConfig()
	testConfig.Sources.Card = CardConfig{Enabled: true, Path: "/mnt/card"}
	testConfig.Sources.Partitions = []PartitionConfig{{Name: "Album", Path: "/srv/album"}}
	testConfig.Locations.ShowHidden = true

	if err := manager.Save(testConfig); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("Config file was not created")
	}

	loadedConfig, err := manager.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loadedConfig.Sources.Card.Path != "/mnt/card" {
		t.Errorf("Expected card path '/mnt/card', got '%s'", loadedConfig.Sources.Card.Path)
	}
	if len(loadedConfig.Sources.Partitions) != 1 || loadedConfig.Sources.Partitions[0].Name != "Album" {
		t.Errorf("Partitions not round-tripped: %+v", loadedConfig.Sources.Partitions)
	}
	if !loadedConfig.Locations.ShowHidden {
		t.Error("Expected loaded ShowHidden to be true")
	}
}
