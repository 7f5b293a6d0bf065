package bench

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/samvad-hq/completion-bench/internal/domain"
	"github.com/samvad-hq/completion-bench/internal/logger"
)

var initTesting sync.Once

// setBenchTime configures the duration (or "Nx" iteration count) testing.Benchmark targets.
func setBenchTime(v string) error {
	initTesting.Do(testing.Init)
	if v == "" {
		return nil
	}
	if err := flag.Set("test.benchtime", v); err != nil {
		return fmt.Errorf("set bench time %q: %w", v, err)
	}
	return nil
}

// Runner measures strategies one after another.
type Runner struct {
	benchTime string
	target    string
	stats     *ConnStats
	log       logger.Logger
	now       func() time.Time
}

// NewRunner builds a runner. benchTime accepts a duration ("1s") or an iteration count ("100x").
// stats may be nil when the client is not tracing.
func NewRunner(benchTime, target string, stats *ConnStats, log logger.Logger) *Runner {
	if log == nil {
		log = &logger.NopLogger{}
	}
	return &Runner{
		benchTime: benchTime,
		target:    target,
		stats:     stats,
		log:       log,
		now:       time.Now,
	}
}

// Run measures every strategy. A failing strategy is skipped; its error is
// returned joined with the others once all strategies ran.
func (r *Runner) Run(ctx context.Context, runID string, strategies []Strategy) ([]domain.RunResult, error) {
	if len(strategies) == 0 {
		return nil, fmt.Errorf("no strategies to run")
	}
	if err := setBenchTime(r.benchTime); err != nil {
		return nil, err
	}

	results := make([]domain.RunResult, 0, len(strategies))
	var errs []error
	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		res, err := r.runOne(ctx, runID, s)
		if err != nil {
			errs = append(errs, fmt.Errorf("strategy %s: %w", s.Name, err))
			r.log.ErrorObj("strategy failed", "strategy_error", map[string]any{
				"strategy": s.Name,
				"error":    err.Error(),
			})
			continue
		}
		r.log.InfoObj("strategy measured", "strategy_result", res)
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

func (r *Runner) runOne(ctx context.Context, runID string, s Strategy) (domain.RunResult, error) {
	if s.Fn == nil {
		return domain.RunResult{}, fmt.Errorf("strategy has no function")
	}
	if r.stats != nil {
		r.stats.Reset()
	}

	started := r.now().UTC()
	var failErr error
	br := testing.Benchmark(func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			if err := s.Fn(ctx); err != nil {
				failErr = err
				b.FailNow()
			}
		}
	})
	if failErr != nil {
		return domain.RunResult{}, failErr
	}
	if br.N == 0 {
		return domain.RunResult{}, fmt.Errorf("benchmark produced no iterations")
	}

	res := domain.RunResult{
		RunID:       runID,
		Strategy:    s.Name,
		Sink:        string(s.Sink),
		Target:      r.target,
		Iterations:  br.N,
		NsPerOp:     br.NsPerOp(),
		BytesPerOp:  br.AllocedBytesPerOp(),
		AllocsPerOp: br.AllocsPerOp(),
		StartedAt:   started,
	}
	if r.stats != nil {
		snap := r.stats.Snapshot()
		res.Requests = snap.Requests
		res.ConnReused = snap.Reused
		res.ServerNsPerReq = snap.MeanServerTime.Nanoseconds()
		res.TotalNsPerReq = snap.MeanTotalTime.Nanoseconds()
	}
	return res, nil
}
