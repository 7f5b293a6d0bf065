package app

import (
	"context"
	"fmt"

	"github.com/samvad-hq/completion-bench/internal/config"
	"github.com/samvad-hq/completion-bench/internal/logger"
	"github.com/samvad-hq/completion-bench/internal/sampleapi"
)

// SampleAPI is the runtime serving the /books listing the benchmark targets.
type SampleAPI struct {
	server *sampleapi.Server
	log    logger.Logger
}

// NewSampleAPI builds the sample API runtime from config.
func NewSampleAPI(cfg *config.Config, log logger.Logger) (*SampleAPI, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}

	log.InfoObj("sample api configured", "sample_api_config", map[string]any{
		"listen_addr": cfg.ListenAddr,
		"book_count":  cfg.BookCount,
	})
	return &SampleAPI{
		server: sampleapi.NewServer(cfg.ListenAddr, cfg.BookCount, log),
		log:    log,
	}, nil
}

// Run serves until the context is cancelled.
func (s *SampleAPI) Run(ctx context.Context) error {
	if s == nil || s.server == nil {
		return fmt.Errorf("sample api is not initialized")
	}
	return s.server.Run(ctx)
}
