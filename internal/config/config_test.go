package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webindexer/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(config.New(), "")
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Crawl.MaxDepth)
	assert.Equal(t, 32, cfg.Crawl.Workers)
	assert.Equal(t, "bfs", cfg.Crawl.Strategy)
	assert.Equal(t, 15*time.Second, cfg.Crawl.RequestTimeout)
	assert.Equal(t, 5*time.Second, cfg.Crawl.RobotsTimeout)
	assert.Equal(t, 1, cfg.Crawl.Retry.MaxAttempts)
	assert.Equal(t, "off", cfg.Crawl.Revisit.Mode)
	assert.Contains(t, cfg.Crawl.BlockedDomains, "facebook.com")
	assert.Equal(t, config.StoreMemory, cfg.Store.Driver)
	assert.Equal(t, "web_indexer", cfg.Store.Elasticsearch.Index)
	assert.Equal(t, 20, cfg.Search.Limit)
	assert.Equal(t, ":2112", cfg.Metrics.Addr)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "webindexer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
crawl:
  seeds:
    - https://example.com/
  max_depth: 4
  strategy: mixed30
  retry:
    max_attempts: 3
    backoff: 2s
store:
  driver: elasticsearch
  elasticsearch:
    addresses: ["http://es:9200"]
search:
  session_ttl: 30s
`), 0o600))

	t.Setenv("WEBINDEXER_CRAWL_WORKERS", "7")
	t.Setenv("WEBINDEXER_LOG_LEVEL", "debug")

	cfg, err := config.Load(config.New(), path)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://example.com/"}, cfg.Crawl.Seeds)
	assert.Equal(t, 4, cfg.Crawl.MaxDepth)
	assert.Equal(t, 7, cfg.Crawl.Workers)
	assert.Equal(t, "mixed30", cfg.Crawl.Strategy)
	assert.Equal(t, 3, cfg.Crawl.Retry.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Crawl.Retry.Backoff)
	assert.Equal(t, config.StoreElasticsearch, cfg.Store.Driver)
	assert.Equal(t, []string{"http://es:9200"}, cfg.Store.Elasticsearch.Addresses)
	assert.Equal(t, 30*time.Second, cfg.Search.SessionTTL)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("WEBINDEXER_CRAWL_STRATEGY", "random")
	t.Setenv("WEBINDEXER_STORE_DRIVER", "mongo")

	_, err := config.Load(config.New(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "random")
	assert.Contains(t, err.Error(), "store.mongo.uri")

	_, err = config.Load(config.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
