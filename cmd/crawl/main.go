package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"webindexer/cmd/common"
	"webindexer/internal/config"
	"webindexer/internal/crawler"
	"webindexer/internal/frontier"
	"webindexer/internal/hostman"
	"webindexer/internal/metrics"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.New()
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "crawl [seed-url...]",
		Short: "Crawl the web from seed URLs into the document store",
		Long: `Crawl fetches pages breadth-first (or per --strategy) from the seed URLs,
obeying robots.txt and a per-host request rate, and writes extracted text to
the configured document store.

Examples:
  crawl --depth 2 https://www.cc.gatech.edu/
  crawl --store elasticsearch --workers 64 --seed https://go.dev/ --seed https://pkg.go.dev/`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), v, cfgFile, args)
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
	f.StringSlice("seed", nil, "initial URL to start crawling from (repeatable)")
	f.Int("depth", 2, "link depth to follow from each seed; 0 fetches seeds only")
	f.Int("workers", 32, "number of parallel fetchers")
	f.Int("max-pages", 0, "stop after N stored pages (0 = no limit)")
	f.String("strategy", "bfs", "frontier order: bfs, dfs or mixedNN")
	f.Float64("max-per-host", 2.0, "max requests/sec to one host (0 = unlimited)")
	f.String("user-agent", "webindexer/1.0", "HTTP User-Agent string")
	f.Duration("robots-timeout", 5*time.Second, "robots.txt fetch timeout")
	f.String("store", "memory", "document store: memory, mongo or elasticsearch")
	f.String("revisit", "off", "skip recently crawled URLs: off, redis or indexed")

	if err := common.BindFlags(v, cmd, map[string]string{
		"seed":           "crawl.seeds",
		"depth":          "crawl.max_depth",
		"workers":        "crawl.workers",
		"max-pages":      "crawl.max_pages",
		"strategy":       "crawl.strategy",
		"max-per-host":   "crawl.max_per_host",
		"user-agent":     "crawl.user_agent",
		"robots-timeout": "crawl.robots_timeout",
		"store":          "store.driver",
		"revisit":        "crawl.revisit.mode",
	}); err != nil {
		panic(err)
	}
	return cmd
}

func run(ctx context.Context, v *viper.Viper, cfgFile string, args []string) error {
	cfg, logger, err := common.Setup(v, cfgFile)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	seeds := append(append([]string{}, cfg.Crawl.Seeds...), args...)
	if len(seeds) == 0 {
		return errors.New("no seed URLs: pass them as arguments or with --seed")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := common.OpenStore(ctx, cfg.Store, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			logger.Warn("close store", zap.Error(err))
		}
	}()

	guard, closeGuard, err := common.OpenGuard(ctx, cfg, store, logger)
	if err != nil {
		return err
	}
	defer func() { _ = closeGuard() }()

	m := metrics.New(prometheus.DefaultRegisterer)
	metricsSrv := serveMetrics(cfg.Metrics.Addr, logger)
	defer func() {
		if metricsSrv != nil {
			_ = metricsSrv.Close()
		}
	}()

	strategy, err := frontier.ParseStrategy(cfg.Crawl.Strategy)
	if err != nil {
		return err
	}

	client := &http.Client{}
	hosts := hostman.New(hostman.Options{
		UserAgent:       cfg.Crawl.UserAgent,
		RequestsPerHost: cfg.Crawl.MaxPerHost,
		RobotsTimeout:   cfg.Crawl.RobotsTimeout,
		Client:          client,
		Logger:          logger,
	})

	engine, err := crawler.New(crawler.Deps{
		Store:   store,
		Hosts:   hosts,
		Client:  client,
		Guard:   guard,
		Metrics: m,
		Logger:  logger,
	}, crawler.Options{
		UserAgent:      cfg.Crawl.UserAgent,
		RequestTimeout: cfg.Crawl.RequestTimeout,
		MaxBodyBytes:   cfg.Crawl.MaxBodyBytes,
		Strategy:       strategy,
		Blocklist:      frontier.NewBlocklist(cfg.Crawl.BlockedDomains),
		Retry: crawler.RetryPolicy{
			MaxAttempts: cfg.Crawl.Retry.MaxAttempts,
			Backoff:     cfg.Crawl.Retry.Backoff,
			MaxBackoff:  30 * time.Second,
		},
		ShutdownGrace: cfg.Crawl.ShutdownGrace,
		MaxPages:      cfg.Crawl.MaxPages,
	})
	if err != nil {
		return err
	}

	stats, err := engine.Run(ctx, seeds, cfg.Crawl.MaxDepth, cfg.Crawl.Workers)
	if err != nil {
		return err
	}

	fmt.Println("------- FINAL STATS -------")
	fmt.Printf("Run       : %s\n", stats.RunID)
	fmt.Printf("Accepted  : %d URLs\n", stats.Accepted)
	fmt.Printf("Stored    : %d pages\n", stats.Stored)
	fmt.Printf("Failed    : %d\n", stats.Failed)
	fmt.Printf("Disallowed: %d\n", stats.Disallowed)
	fmt.Printf("Skipped   : %d\n", stats.Skipped)
	fmt.Printf("StoreErrs : %d\n", len(stats.StoreErrors))
	fmt.Printf("Took      : %s\n", stats.Duration.Round(time.Millisecond))
	if stats.Cancelled {
		fmt.Println("(interrupted)")
	}
	return nil
}

// serveMetrics exposes /metrics on addr in the background; "" disables it.
func serveMetrics(addr string, logger *zap.Logger) *http.Server {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server", zap.Error(err))
		}
	}()
	logger.Info("metrics listening", zap.String("addr", addr+"/metrics"))
	return srv
}
