package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/samvad-hq/completion-bench/internal/bench"
	"github.com/samvad-hq/completion-bench/internal/config"
	"github.com/samvad-hq/completion-bench/internal/logger"
	"github.com/samvad-hq/completion-bench/internal/storage"
	"github.com/samvad-hq/completion-bench/pkg/httpclient"
	"github.com/samvad-hq/completion-bench/pkg/publishers"
	"go.uber.org/zap"
)

// Bench wires the shared HTTP client, the runner, result storage and report
// publishers for a single benchmark run.
type Bench struct {
	cfg        *config.Config
	client     *httpclient.RestyClient
	opener     httpclient.StreamOpener
	strategies []bench.Strategy
	runner     *bench.Runner
	fanout     *publishers.Fanout
	store      storage.Store
	log        logger.Logger
}

// Option customizes a Bench.
type Option func(*benchOptions)

type benchOptions struct {
	sugar     *zap.SugaredLogger
	benchTime string
}

// WithSugaredLogger routes the HTTP client's internal logging to sugar.
func WithSugaredLogger(sugar *zap.SugaredLogger) Option {
	return func(o *benchOptions) { o.sugar = sugar }
}

// WithBenchTime overrides the configured per-strategy bench time, e.g. "50x".
func WithBenchTime(v string) Option {
	return func(o *benchOptions) { o.benchTime = v }
}

// NewBench builds a benchmark runtime from config.
func NewBench(ctx context.Context, cfg *config.Config, log logger.Logger, opts ...Option) (*Bench, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	o := benchOptions{benchTime: cfg.BenchTime.String()}
	for _, opt := range opts {
		opt(&o)
	}

	stats := &bench.ConnStats{}
	clientOpts := []httpclient.Option{
		httpclient.WithTimeout(cfg.RequestTimeout),
		httpclient.WithTrace(stats.Observe),
	}
	if o.sugar != nil {
		clientOpts = append(clientOpts, httpclient.WithLogger(o.sugar))
	}
	client := httpclient.NewRestyClient(clientOpts...)

	fanout, err := buildFanout(ctx, cfg, log)
	if err != nil {
		client.Close()
		return nil, err
	}

	storeOpts := storage.Options{
		ResultTTL:       cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	}
	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storeOpts)
	if err != nil {
		client.Close()
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"result_ttl_seconds":       int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	return &Bench{
		cfg:        cfg,
		client:     client,
		opener:     client,
		strategies: bench.DefaultStrategies(client, cfg.TargetURL, cfg.BenchSink),
		runner:     bench.NewRunner(o.benchTime, cfg.TargetURL, stats, log),
		fanout:     fanout,
		store:      store,
		log:        log,
	}, nil
}

func buildFanout(ctx context.Context, cfg *config.Config, log logger.Logger) (*publishers.Fanout, error) {
	if strings.TrimSpace(cfg.PublishersFile) == "" {
		return publishers.NewFanout(nil), nil
	}

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabled := publisherReg.Enabled()

	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, pubCfg := range enabled {
		summaries = append(summaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubClients), nil
}

// Run measures every strategy once, prints the table to out, then stores and
// publishes the results. Resources are released before returning.
func (b *Bench) Run(ctx context.Context, out io.Writer) error {
	if b == nil || b.runner == nil {
		return fmt.Errorf("bench is not initialized")
	}
	defer b.close()

	runID := uuid.NewString()
	b.log.InfoObj("benchmark run starting", "run_meta", map[string]any{
		"run_id":     runID,
		"target":     b.cfg.TargetURL,
		"sink":       b.cfg.BenchSink,
		"strategies": len(b.strategies),
	})

	if err := b.preflight(ctx); err != nil {
		return err
	}

	results, runErr := b.runner.Run(ctx, runID, b.strategies)

	if len(results) > 0 {
		if err := bench.WriteTable(out, results); err != nil {
			return fmt.Errorf("write results: %w", err)
		}
	}

	for _, res := range results {
		if err := b.store.SaveResult(res); err != nil {
			b.log.ErrorObj("store result failed", "error", err)
		}
		if _, err := b.fanout.Publish(ctx, publishers.NewEvent(res)); err != nil {
			b.log.WarnObj("publish result failed", "publish_error", map[string]any{
				"strategy": res.Strategy,
				"error":    err.Error(),
			})
		}
	}

	b.log.InfoObj("benchmark run completed", "run_meta", map[string]any{
		"run_id":    runID,
		"succeeded": len(results),
		"failed":    len(b.strategies) - len(results),
	})
	return runErr
}

// preflight opens the target once before measuring. It warms the connection
// pool and fails fast when the target does not serve a book listing.
func (b *Bench) preflight(ctx context.Context) error {
	resp, err := b.opener.Open(ctx, b.cfg.TargetURL)
	if err != nil {
		return fmt.Errorf("preflight: %w", err)
	}
	defer resp.Close()

	if err := resp.EnsureSuccess(); err != nil {
		return fmt.Errorf("preflight: %w", err)
	}
	books, err := httpclient.DecodeBooks(resp.Body())
	if err != nil {
		return fmt.Errorf("preflight: %w", err)
	}

	b.log.InfoObj("target preflight ok", "target_meta", map[string]any{
		"target":       b.cfg.TargetURL,
		"content_type": resp.Header("Content-Type"),
		"books":        len(books),
	})
	return nil
}

// close releases the client, publishers and store, logging any errors encountered.
func (b *Bench) close() {
	b.client.Close()
	if err := errors.Join(b.fanout.Close(), b.store.Close()); err != nil {
		b.log.ErrorObj("bench teardown failed", "error", err)
	}
}
