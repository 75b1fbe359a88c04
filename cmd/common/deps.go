// Package common wires configuration into the concrete stores, guards and
// loggers the commands share.
package common

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"webindexer/internal/config"
	"webindexer/internal/logging"
	"webindexer/internal/revisit"
	"webindexer/internal/storage"
)

// BindFlags maps flag names to viper keys so flags override file and env.
func BindFlags(v *viper.Viper, cmd *cobra.Command, keys map[string]string) error {
	for flag, key := range keys {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			f = cmd.PersistentFlags().Lookup(flag)
		}
		if f == nil {
			return fmt.Errorf("unknown flag %q", flag)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	return nil
}

// Setup loads configuration and builds the logger.
func Setup(v *viper.Viper, path string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(v, path)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// OpenStore connects the configured document store.
func OpenStore(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (storage.Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case config.StoreMongo:
		return storage.NewMongo(ctx, storage.MongoOptions{
			URI:        cfg.Mongo.URI,
			Database:   cfg.Mongo.Database,
			Collection: cfg.Mongo.Collection,
			Reset:      cfg.Mongo.Reset,
			Logger:     logger,
		})
	case config.StoreElasticsearch:
		client, err := storage.NewElasticClient(storage.ElasticConfig{
			Addresses: cfg.Elasticsearch.Addresses,
			Username:  cfg.Elasticsearch.Username,
			Password:  cfg.Elasticsearch.Password,
		})
		if err != nil {
			return nil, err
		}
		return storage.NewElastic(ctx, client, cfg.Elasticsearch.Index, logger)
	default:
		logger.Warn("using in-memory store, documents are lost on exit")
		return storage.NewMemory(), nil
	}
}

// OpenGuard returns the configured revisit guard, or nil when revisiting is
// off. The returned close func is never nil.
func OpenGuard(ctx context.Context, cfg *config.Config, store storage.Store, logger *zap.Logger) (revisit.Guard, func() error, error) {
	noop := func() error { return nil }

	mode, err := revisit.ParseMode(cfg.Crawl.Revisit.Mode)
	if err != nil {
		return nil, noop, err
	}
	switch mode {
	case revisit.ModeRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, noop, fmt.Errorf("redis ping %s: %w", cfg.Redis.Addr, err)
		}
		logger.Info("revisit guard enabled",
			zap.String("mode", mode), zap.Duration("after", cfg.Crawl.Revisit.After))
		return revisit.NewRedis(client, cfg.Crawl.Revisit.After), client.Close, nil
	case revisit.ModeIndexed:
		logger.Info("revisit guard enabled", zap.String("mode", mode))
		return revisit.NewIndexed(store), noop, nil
	default:
		return nil, noop, nil
	}
}
