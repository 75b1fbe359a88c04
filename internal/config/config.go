// Package config loads settings from an optional config file, a .env file and
// WEBINDEXER_* environment variables, in increasing priority; command-line
// flags bound onto the same viper instance win over all of them.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"webindexer/internal/frontier"
	"webindexer/internal/revisit"
)

const EnvPrefix = "WEBINDEXER"

const (
	StoreMemory        = "memory"
	StoreMongo         = "mongo"
	StoreElasticsearch = "elasticsearch"
)

type Config struct {
	Crawl   CrawlConfig   `mapstructure:"crawl"`
	Store   StoreConfig   `mapstructure:"store"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Search  SearchConfig  `mapstructure:"search"`
	Server  ServerConfig  `mapstructure:"server"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Log     LogConfig     `mapstructure:"log"`
}

type CrawlConfig struct {
	Seeds          []string      `mapstructure:"seeds"`
	MaxDepth       int           `mapstructure:"max_depth"`
	Workers        int           `mapstructure:"workers"`
	MaxPages       int           `mapstructure:"max_pages"`
	Strategy       string        `mapstructure:"strategy"`
	UserAgent      string        `mapstructure:"user_agent"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	RobotsTimeout  time.Duration `mapstructure:"robots_timeout"`
	MaxPerHost     float64       `mapstructure:"max_per_host"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
	ShutdownGrace  time.Duration `mapstructure:"shutdown_grace"`
	BlockedDomains []string      `mapstructure:"blocked_domains"`
	Retry          RetryConfig   `mapstructure:"retry"`
	Revisit        RevisitConfig `mapstructure:"revisit"`
}

type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	Backoff     time.Duration `mapstructure:"backoff"`
}

type RevisitConfig struct {
	Mode  string        `mapstructure:"mode"`
	After time.Duration `mapstructure:"after"`
}

type StoreConfig struct {
	Driver        string              `mapstructure:"driver"`
	Mongo         MongoConfig         `mapstructure:"mongo"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
}

type MongoConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
	Reset      bool   `mapstructure:"reset"`
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Index     string   `mapstructure:"index"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type SearchConfig struct {
	SessionTTL time.Duration `mapstructure:"session_ttl"`
	Limit      int           `mapstructure:"limit"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("crawl.seeds", []string{})
	v.SetDefault("crawl.max_depth", 2)
	v.SetDefault("crawl.workers", 32)
	v.SetDefault("crawl.max_pages", 0)
	v.SetDefault("crawl.strategy", "bfs")
	v.SetDefault("crawl.user_agent", "webindexer/1.0")
	v.SetDefault("crawl.request_timeout", 15*time.Second)
	v.SetDefault("crawl.robots_timeout", 5*time.Second)
	v.SetDefault("crawl.max_per_host", 2.0)
	v.SetDefault("crawl.max_body_bytes", 1<<20)
	v.SetDefault("crawl.shutdown_grace", 10*time.Second)
	v.SetDefault("crawl.blocked_domains", frontier.DefaultBlockedDomains)
	v.SetDefault("crawl.retry.max_attempts", 1)
	v.SetDefault("crawl.retry.backoff", 500*time.Millisecond)
	v.SetDefault("crawl.revisit.mode", revisit.ModeOff)
	v.SetDefault("crawl.revisit.after", 48*time.Hour)

	v.SetDefault("store.driver", StoreMemory)
	v.SetDefault("store.mongo.uri", "")
	v.SetDefault("store.mongo.database", "webCrawlerArchive")
	v.SetDefault("store.mongo.collection", "webpages")
	v.SetDefault("store.mongo.reset", false)
	v.SetDefault("store.elasticsearch.addresses", []string{"http://localhost:9200"})
	v.SetDefault("store.elasticsearch.index", "web_indexer")
	v.SetDefault("store.elasticsearch.username", "")
	v.SetDefault("store.elasticsearch.password", "")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("search.session_ttl", 5*time.Minute)
	v.SetDefault("search.limit", 20)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("metrics.addr", ":2112")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
}

// New returns a viper instance with defaults and environment binding in
// place. Callers bind flags onto it before Load.
func New() *viper.Viper {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional config file at path and decodes v into a Config.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings that would only fail later, mid-run.
func (c *Config) Validate() error {
	var errs []error
	if _, err := frontier.ParseStrategy(c.Crawl.Strategy); err != nil {
		errs = append(errs, err)
	}
	if _, err := revisit.ParseMode(c.Crawl.Revisit.Mode); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Store.Driver) {
	case StoreMemory, StoreMongo, StoreElasticsearch:
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.Store.Driver))
	}
	if strings.EqualFold(c.Store.Driver, StoreMongo) && c.Store.Mongo.URI == "" {
		errs = append(errs, errors.New("store.mongo.uri is required for the mongo driver"))
	}
	if c.Search.Limit <= 0 {
		errs = append(errs, errors.New("search.limit must be positive"))
	}
	return errors.Join(errs...)
}
