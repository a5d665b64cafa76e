package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 8, cfg.Index.Capacity)
	assert.Empty(t, cfg.Index.Prewarm)
	assert.Equal(t, 10, cfg.Query.DefaultLimit)
	assert.Equal(t, 64, cfg.Query.MaxLimit)
	assert.Equal(t, 0, cfg.Query.MinWeight)
	assert.True(t, cfg.Query.PrefixFallback)
	assert.Equal(t, "data/", cfg.Shards.Dir)
	assert.Equal(t, 70, cfg.Shards.Total)
	assert.Equal(t, 256, cfg.Server.MaxTextLen)
}

func TestLoadConfigFullFile(t *testing.T) {
	path := writeConfig(t, `
[index]
capacity = 16
prewarm = [0, 3, 69]

[query]
default_limit = 5
max_limit = 32
min_weight = 2
prefix_fallback = false

[shards]
dir = "/var/lib/wordgraph"
total = 128
partition_table = "table.bin"

[server]
max_text_len = 512
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 16, cfg.Index.Capacity)
	assert.Equal(t, []int{0, 3, 69}, cfg.Index.Prewarm)
	assert.Equal(t, 5, cfg.Query.DefaultLimit)
	assert.Equal(t, 32, cfg.Query.MaxLimit)
	assert.Equal(t, 2, cfg.Query.MinWeight)
	assert.False(t, cfg.Query.PrefixFallback)
	assert.Equal(t, "/var/lib/wordgraph", cfg.Shards.Dir)
	assert.Equal(t, 128, cfg.Shards.Total)
	assert.Equal(t, "table.bin", cfg.Shards.PartitionTable)
	assert.Equal(t, 512, cfg.Server.MaxTextLen)
}

func TestLoadConfigMissingSectionsKeepDefaults(t *testing.T) {
	path := writeConfig(t, `
[query]
default_limit = 3
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Query.DefaultLimit)
	assert.Equal(t, 8, cfg.Index.Capacity, "untouched sections keep defaults")
	assert.Equal(t, 64, cfg.Query.MaxLimit)
}

func TestLoadConfigPartialRecovery(t *testing.T) {
	// capacity has the wrong type; the query section is still salvaged.
	path := writeConfig(t, `
[index]
capacity = "many"

[query]
default_limit = 7
min_weight = 1
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Index.Capacity, "bad value falls back to default")
	assert.Equal(t, 7, cfg.Query.DefaultLimit)
	assert.Equal(t, 1, cfg.Query.MinWeight)
}

func TestLoadConfigUnparseableFallsBackToDefaults(t *testing.T) {
	path := writeConfig(t, "not toml at all [[[")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestInitConfigCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg, err := InitConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.FileExists(t, path)

	// Second call reads the file it just wrote.
	again, err := InitConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Index.Capacity, again.Index.Capacity)
	assert.Equal(t, cfg.Query, again.Query)
	assert.Equal(t, cfg.Shards, again.Shards)
	assert.Equal(t, cfg.Server, again.Server)
}

func TestSaveConfigRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := DefaultConfig()
	cfg.Index.Capacity = 3
	cfg.Index.Prewarm = []int{1, 2}
	cfg.Shards.Dir = "shards/"
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestUpdatePersistsChangedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := DefaultConfig()

	capacity, minWeight := 4, 2
	require.NoError(t, cfg.Update(path, &capacity, nil, &minWeight))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 4, loaded.Index.Capacity)
	assert.Equal(t, 10, loaded.Query.DefaultLimit, "nil fields untouched")
	assert.Equal(t, 2, loaded.Query.MinWeight)
}

func TestLoadConfigWithPriorityCustomPath(t *testing.T) {
	path := writeConfig(t, `
[index]
capacity = 12
`)

	cfg, used, err := LoadConfigWithPriority(path)
	require.NoError(t, err)
	assert.Equal(t, path, used)
	assert.Equal(t, 12, cfg.Index.Capacity)
}
