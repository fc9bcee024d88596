package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ".", cfg.Root)
	assert.Equal(t, filepath.Join("db", "store.sqlite"), cfg.DatabasePath)
	assert.Equal(t, filepath.Join("data", "to_load"), cfg.IntakeDir)
	assert.Equal(t, filepath.Join("data", "loaded"), cfg.ArchiveDir)
	assert.Equal(t, "Sales_*.csv", cfg.IntakePattern)
	assert.Equal(t, 1, cfg.MaxOpenConns)
	assert.False(t, cfg.Create)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().DatabasePath, cfg.DatabasePath)
}

func TestLoadYAMLAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "storedb.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
root: /srv/store
data_dir: input
create: true
log_level: debug
kafka_brokers: [a:9092]
`), 0o644))

	t.Setenv("STOREDB_LOG_LEVEL", "warn")
	t.Setenv("STOREDB_KAFKA_BROKERS", "b:9092, c:9092")
	t.Setenv("STOREDB_MAX_OPEN_CONNS", "2")
	t.Setenv("STOREDB_KAFKA_COMPRESSION", "snappy")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/store", cfg.Root)
	assert.True(t, cfg.Create)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, []string{"b:9092", "c:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 2, cfg.MaxOpenConns)
	assert.Equal(t, "snappy", cfg.KafkaCompression)
	// derived from the overridden data_dir
	assert.Equal(t, filepath.Join("input", "to_load"), cfg.IntakeDir)
	assert.Equal(t, filepath.Join("/srv/store", "input", "products.csv"), cfg.ReferenceFile(cfg.ProductsFile))
	assert.Equal(t, filepath.Join("/srv/store", "db", "store.sqlite"), cfg.DatabaseFile())
}

func TestLoadRejectsBadEnv(t *testing.T) {
	t.Setenv("STOREDB_CREATE", "perhaps")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "perhaps")
}

func TestLoadEmptyEnvKeepsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storedb.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\nkafka_topic: sales\n"), 0o644))

	t.Setenv("STOREDB_LOG_LEVEL", "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "sales", cfg.KafkaTopic)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("root: [unterminated"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestResolveKeepsAbsolutePaths(t *testing.T) {
	cfg := Default()
	cfg.Root = "/srv/store"
	assert.Equal(t, "/tmp/x", cfg.Resolve("/tmp/x"))
	assert.Equal(t, "", cfg.Resolve(""))
	assert.Equal(t, filepath.Join("/srv/store", "data", "to_load"), cfg.Intake())
}
