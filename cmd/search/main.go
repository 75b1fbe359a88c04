package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"webindexer/cmd/common"
	"webindexer/internal/api"
	"webindexer/internal/config"
	"webindexer/internal/metrics"
	"webindexer/internal/ranking"
	"webindexer/internal/storage"
)

const urlColumnWidth = 80

// A new process starts with an empty memory store, so there is nothing to rank.
var errMemoryStore = errors.New("search needs a persistent store: use --store mongo|elasticsearch or set store.driver")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.New()
	var cfgFile string

	root := &cobra.Command{
		Use:   "search [query...]",
		Short: "Rank crawled documents against a query with BM25",
		Long: `Search scores every stored document against the query with BM25 and prints
the best matches.

Examples:
  search "distributed systems"
  search -n 5 --store elasticsearch golang concurrency
  search serve --addr :8080`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			query, _ := cmd.Flags().GetString("query")
			if query == "" {
				query = strings.Join(args, " ")
			}
			return runQuery(cmd.Context(), cmd.OutOrStdout(), v, cfgFile, query)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
	pf.String("store", "", "document store: mongo or elasticsearch (default from config)")
	root.Flags().StringP("query", "q", "", "query text (defaults to the positional arguments)")
	root.Flags().IntP("limit", "n", 20, "maximum number of results")

	if err := common.BindFlags(v, root, map[string]string{
		"store": "store.driver",
		"limit": "search.limit",
	}); err != nil {
		panic(err)
	}

	root.AddCommand(newServeCmd(v, &cfgFile))
	return root
}

func newServeCmd(v *viper.Viper, cfgFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the search HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), v, *cfgFile)
		},
	}
	cmd.Flags().String("addr", ":8080", "listen address")
	cmd.Flags().Duration("session-ttl", 5*time.Minute, "how long a ranking snapshot is reused")
	if err := common.BindFlags(v, cmd, map[string]string{
		"addr":        "server.addr",
		"session-ttl": "search.session_ttl",
	}); err != nil {
		panic(err)
	}
	return cmd
}

func runQuery(ctx context.Context, out io.Writer, v *viper.Viper, cfgFile, query string) error {
	cfg, logger, err := common.Setup(v, cfgFile)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	if err := checkStore(cfg.Store); err != nil {
		return err
	}

	store, err := common.OpenStore(ctx, cfg.Store, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closeStore(store, logger)

	results, err := ranking.NewSearcher(store, 0, logger).Search(ctx, query, cfg.Search.Limit)
	if err != nil {
		return err
	}
	renderResults(out, results, query)
	return nil
}

func runServe(ctx context.Context, v *viper.Viper, cfgFile string) error {
	cfg, logger, err := common.Setup(v, cfgFile)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	if err := checkStore(cfg.Store); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := common.OpenStore(ctx, cfg.Store, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closeStore(store, logger)

	searcher := ranking.NewSearcher(store, cfg.Search.SessionTTL, logger)
	srv := api.NewServer(api.Options{
		Addr:         cfg.Server.Addr,
		DefaultLimit: cfg.Search.Limit,
		Gatherer:     prometheus.DefaultGatherer,
	}, searcher, metrics.New(prometheus.DefaultRegisterer), logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down search api")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return <-errCh
}

func checkStore(cfg config.StoreConfig) error {
	if cfg.Driver == "" || strings.EqualFold(cfg.Driver, config.StoreMemory) {
		return errMemoryStore
	}
	return nil
}

func closeStore(store storage.Store, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.Close(ctx); err != nil {
		logger.Warn("close store", zap.Error(err))
	}
}

// renderResults prints the ranked hits as a table.
func renderResults(out io.Writer, results []ranking.Result, query string) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMax: 4},
		{Number: 2, WidthMax: urlColumnWidth},
	})
	t.AppendHeader(table.Row{"#", "URL", "Score"})
	for i, r := range results {
		t.AppendRow(table.Row{i + 1, r.URL, fmt.Sprintf("%.4f", r.Score)})
	}
	t.AppendFooter(table.Row{"Total", len(results), fmt.Sprintf("Query: %s", query)})

	fmt.Fprintf(out, "\nSearch Results:\n")
	t.Render()
}
