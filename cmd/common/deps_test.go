package common

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"webindexer/internal/config"
	"webindexer/internal/revisit"
	"webindexer/internal/storage"
)

func TestOpenStore_Memory(t *testing.T) {
	store, err := OpenStore(context.Background(), config.StoreConfig{Driver: config.StoreMemory}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &storage.Memory{}, store)
}

func TestOpenGuard(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()

	t.Run("off", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Crawl.Revisit.Mode = revisit.ModeOff
		guard, closeFn, err := OpenGuard(ctx, cfg, store, zap.NewNop())
		require.NoError(t, err)
		assert.Nil(t, guard)
		assert.NoError(t, closeFn())
	})

	t.Run("indexed", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Crawl.Revisit.Mode = revisit.ModeIndexed
		guard, _, err := OpenGuard(ctx, cfg, store, zap.NewNop())
		require.NoError(t, err)
		assert.NotNil(t, guard)
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := &config.Config{}
		cfg.Crawl.Revisit.Mode = revisit.ModeRedis
		cfg.Crawl.Revisit.After = time.Hour
		cfg.Redis.Addr = mr.Addr()

		guard, closeFn, err := OpenGuard(ctx, cfg, store, zap.NewNop())
		require.NoError(t, err)
		require.NotNil(t, guard)
		require.NoError(t, guard.Mark(ctx, "https://example.com/"))
		recent, err := guard.Recent(ctx, "https://example.com/")
		require.NoError(t, err)
		assert.True(t, recent)
		assert.NoError(t, closeFn())
	})

	t.Run("redis unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		cfg := &config.Config{}
		cfg.Crawl.Revisit.Mode = revisit.ModeRedis
		cfg.Redis.Addr = addr
		_, _, err := OpenGuard(ctx, cfg, store, zap.NewNop())
		assert.Error(t, err)
	})
}

func TestBindFlags_UnknownFlag(t *testing.T) {
	cmd := &cobra.Command{Use: "x"}
	cmd.Flags().Int("depth", 2, "")
	v := config.New()

	require.NoError(t, BindFlags(v, cmd, map[string]string{"depth": "crawl.max_depth"}))
	require.NoError(t, cmd.Flags().Set("depth", "5"))
	assert.Equal(t, 5, v.GetInt("crawl.max_depth"))

	assert.Error(t, BindFlags(v, cmd, map[string]string{"missing": "x"}))
}
