package server

import (
	"context"
	"time"

	"github.com/gear6io/metastore/pkg/errors"
	"github.com/gear6io/metastore/server/catalog"
	"github.com/gear6io/metastore/server/config"
	"github.com/gear6io/metastore/server/protocols/http"
	"github.com/gear6io/metastore/server/shared"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	// Metadata store implementations register themselves by name.
	_ "github.com/gear6io/metastore/server/metadata/memory"
	_ "github.com/gear6io/metastore/server/metadata/registry"
)

// Package-specific error codes for the server
var (
	ServerCreateFailed   = errors.MustNewCode("server.create_failed")
	ServerShutdownFailed = errors.MustNewCode("server.shutdown_failed")
)

// shutdownTimeout bounds the wait for in-flight requests.
const shutdownTimeout = 30 * time.Second

// Server owns the catalog handler, its worker pool and the RPC facade.
type Server struct {
	config    *config.Config
	logger    zerolog.Logger
	handler   *catalog.Handler
	pool      *catalog.WorkerPool
	rpc       *http.Server
	startTime time.Time
}

// New opens the metadata store and warehouse and builds the RPC facade.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	handler, err := catalog.New(ctx, cfg, logger)
	if err != nil {
		return nil, errors.New(ServerCreateFailed, "failed to create catalog handler", err)
	}

	pool := catalog.NewWorkerPool(cfg.Server.MinWorkers, cfg.Server.QueueSize, logger)
	return &Server{
		config:    cfg,
		logger:    logger.With().Str("component", "server").Logger(),
		handler:   handler,
		pool:      pool,
		rpc:       http.NewServer(cfg.Server, handler, pool, logger),
		startTime: time.Now(),
	}, nil
}

// Run serves requests until ctx is cancelled or the listener fails, then
// shuts everything down.
func (s *Server) Run(ctx context.Context) error {
	if err := s.pool.Start(); err != nil {
		return err
	}

	s.logger.Info().
		Str("address", s.rpc.Addr()).
		Str("store", s.config.Store.Impl).
		Str("warehouse", s.handler.Warehouse().Root().String()).
		Int("workers", s.config.Server.MinWorkers).
		Msg("Starting metastore")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(s.rpc.Start)
	g.Go(func() error {
		<-gctx.Done()
		return s.Shutdown()
	})
	return g.Wait()
}

// Shutdown stops the facade first, then the workers, then the catalog and
// its warehouse, so no request ever sees a closed session.
func (s *Server) Shutdown() error {
	s.logger.Info().Msg("Shutting down metastore")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var failed error
	if err := s.rpc.Shutdown(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Error stopping RPC server")
		failed = err
	}
	if err := s.pool.Stop(); err != nil && !errors.HasCode(err, catalog.WorkerPoolNotRunning) {
		s.logger.Error().Err(err).Msg("Error stopping worker pool")
		failed = err
	}
	for _, c := range []shared.Component{s.handler, s.handler.Warehouse()} {
		if err := c.Shutdown(ctx); err != nil {
			s.logger.Error().Err(err).Str("component", c.Name()).Msg("Error shutting down component")
			failed = err
		}
	}
	if failed != nil {
		return errors.New(ServerShutdownFailed, "metastore did not shut down cleanly", failed)
	}
	s.logger.Info().Dur("uptime", time.Since(s.startTime)).Msg("Metastore stopped")
	return nil
}

// GetStatus returns the server status
func (s *Server) GetStatus() map[string]interface{} {
	return map[string]interface{}{
		"uptime":     time.Since(s.startTime).String(),
		"start_time": s.startTime,
		"status":     s.handler.GetStatus(),
		"address":    s.rpc.Addr(),
		"pool":       s.pool.GetStats(),
	}
}
