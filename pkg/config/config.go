/*
Package config manages TOML config for wordgraph services.
*/
package config

import (
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/bastiangx/wordgraph/internal/utils"
)

// Config holds the entire config structure
type Config struct {
	Index  IndexConfig  `toml:"index"`
	Query  QueryConfig  `toml:"query"`
	Shards ShardsConfig `toml:"shards"`
	Server ServerConfig `toml:"server"`
}

// IndexConfig bounds the in-memory aggregate.
type IndexConfig struct {
	// Capacity is the maximum number of simultaneously loaded shards.
	// It should comfortably exceed the shards touched in one typing session.
	Capacity int   `toml:"capacity"`
	Prewarm  []int `toml:"prewarm"`
}

// QueryConfig holds suggestion ranking options.
type QueryConfig struct {
	DefaultLimit   int  `toml:"default_limit"`
	MaxLimit       int  `toml:"max_limit"`
	MinWeight      int  `toml:"min_weight"`
	PrefixFallback bool `toml:"prefix_fallback"`
}

// ShardsConfig describes where the published artifacts live.
type ShardsConfig struct {
	Dir            string `toml:"dir"`
	Total          int    `toml:"total"`
	PartitionTable string `toml:"partition_table"`
}

// ServerConfig has IPC server related options.
type ServerConfig struct {
	MaxTextLen int `toml:"max_text_len"`
}

// GetConfigDir returns the config directory with fallback priority:
// 1. ~/.config/
// 2. ~/Library/Application Support/ (macOS)
// 3. Current executable dir
// 4. builtin defaults
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		execDir, execErr := utils.GetExecutableDir()
		if execErr != nil {
			return "", execErr
		}
		return execDir, nil
	}
	primaryPath := filepath.Join(homeDir, ".config", "wordgraph")
	if result := utils.CheckDirStatus(primaryPath); result.Writable {
		return primaryPath, nil
	}
	// Not conventional, fallback from ~/.config if not writable
	macOSPath := filepath.Join(homeDir, "Library", "Application Support", "wordgraph")
	if result := utils.CheckDirStatus(macOSPath); result.Writable {
		return macOSPath, nil
	}
	execDir, err := utils.GetExecutableDir()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return execDir, nil
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/wordgraph/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	var config *Config
	var err error

	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err = LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}

	config, err = InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Index: IndexConfig{
			Capacity: 8,
		},
		Query: QueryConfig{
			DefaultLimit:   10,
			MaxLimit:       64,
			MinWeight:      0,
			PrefixFallback: true,
		},
		Shards: ShardsConfig{
			Dir:   "data/",
			Total: 70,
		},
		Server: ServerConfig{
			MaxTextLen: 256,
		},
	}
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		log.Warnf("Failed to load config from %s: %v. Using built-in defaults...", configPath, err)
		return DefaultConfig(), nil
	}
	return config, nil
}

// LoadConfig loads from a TOML file
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	return config, nil
}

// tryPartialParse salvages valid sections from a broken TOML file
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if indexSection, ok := utils.ExtractSection(tempConfig, "index"); ok {
		extractIndexConfig(indexSection, &config.Index)
	}
	if querySection, ok := utils.ExtractSection(tempConfig, "query"); ok {
		extractQueryConfig(querySection, &config.Query)
	}
	if shardsSection, ok := utils.ExtractSection(tempConfig, "shards"); ok {
		extractShardsConfig(shardsSection, &config.Shards)
	}
	if serverSection, ok := utils.ExtractSection(tempConfig, "server"); ok {
		extractServerConfig(serverSection, &config.Server)
	}
	return config, nil
}

// extractIndexConfig extracts index configuration from a map
func extractIndexConfig(data map[string]any, index *IndexConfig) {
	if val, ok := utils.ExtractInt64(data, "capacity"); ok {
		index.Capacity = val
	}
	if val, ok := utils.ExtractIntSlice(data, "prewarm"); ok {
		index.Prewarm = val
	}
}

// extractQueryConfig extracts query configuration from a map
func extractQueryConfig(data map[string]any, query *QueryConfig) {
	if val, ok := utils.ExtractInt64(data, "default_limit"); ok {
		query.DefaultLimit = val
	}
	if val, ok := utils.ExtractInt64(data, "max_limit"); ok {
		query.MaxLimit = val
	}
	if val, ok := utils.ExtractInt64(data, "min_weight"); ok {
		query.MinWeight = val
	}
	if val, ok := utils.ExtractBool(data, "prefix_fallback"); ok {
		query.PrefixFallback = val
	}
}

// extractShardsConfig extracts shard location config from a map
func extractShardsConfig(data map[string]any, shards *ShardsConfig) {
	if val, ok := utils.ExtractString(data, "dir"); ok {
		shards.Dir = val
	}
	if val, ok := utils.ExtractInt64(data, "total"); ok {
		shards.Total = val
	}
	if val, ok := utils.ExtractString(data, "partition_table"); ok {
		shards.PartitionTable = val
	}
}

// extractServerConfig extracts IPC server config from a map
func extractServerConfig(data map[string]any, server *ServerConfig) {
	if val, ok := utils.ExtractInt64(data, "max_text_len"); ok {
		server.MaxTextLen = val
	}
}

// RebuildConfigFile force creates a new config.toml at default
func RebuildConfigFile() error {
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		return err
	}
	configDir := filepath.Dir(defaultPath)
	if err := utils.EnsureDir(configDir); err != nil {
		return err
	}
	config := DefaultConfig()
	return utils.SaveTOMLFile(config, defaultPath)
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}

// Update changes index/query values and saves to file
func (c *Config) Update(configPath string, capacity, defaultLimit, minWeight *int) error {
	if capacity != nil {
		c.Index.Capacity = *capacity
	}
	if defaultLimit != nil {
		c.Query.DefaultLimit = *defaultLimit
	}
	if minWeight != nil {
		c.Query.MinWeight = *minWeight
	}
	return SaveConfig(c, configPath)
}
