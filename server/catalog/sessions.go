package catalog

import (
	"context"
	"strconv"
	"sync"

	"github.com/gear6io/metastore/pkg/errors"
	"github.com/gear6io/metastore/server/metadata"
	"github.com/gear6io/metastore/server/metrics"
	"github.com/gear6io/metastore/server/types"
	"github.com/rs/zerolog"
)

type workerKey struct{}

// WithWorker binds ctx to worker id. Every call made with the returned
// context runs on that worker's metadata session.
func WithWorker(ctx context.Context, id int) context.Context {
	return context.WithValue(ctx, workerKey{}, id)
}

// WorkerFromContext returns the worker bound to ctx. Calls without a
// worker run on worker 0.
func WorkerFromContext(ctx context.Context) int {
	if id, ok := ctx.Value(workerKey{}).(int); ok {
		return id
	}
	return 0
}

// SessionPool pins one metadata session to each worker. A worker owns its
// entry; the pool lock only guards the map.
type SessionPool struct {
	backend  metadata.Backend
	mu       sync.Mutex
	sessions map[int]metadata.RawStore
	logger   zerolog.Logger
}

func NewSessionPool(backend metadata.Backend, logger zerolog.Logger) *SessionPool {
	return &SessionPool{
		backend:  backend,
		sessions: make(map[int]metadata.RawStore),
		logger:   logger.With().Str("component", "sessions").Logger(),
	}
}

// Get returns the session of worker, opening it on first use.
func (p *SessionPool) Get(ctx context.Context, worker int) (metadata.RawStore, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if ms, ok := p.sessions[worker]; ok {
		return ms, nil
	}
	ms, err := p.backend.NewSession(ctx)
	if err != nil {
		cause := errors.New(CatalogSessionOpenFailed, "backend refused a new session", err).
			AddContext("impl", p.backend.Name()).
			AddContext("worker_id", strconv.Itoa(worker))
		return nil, types.NewSystemFailure(cause, "unable to open %s store session", p.backend.Name())
	}
	p.logger.Info().
		Int("worker_id", worker).
		Str("session", ms.ID()).
		Str("impl", p.backend.Name()).
		Msg("Opened metadata store session")
	p.sessions[worker] = ms
	metrics.SessionsOpen.Inc()
	return ms, nil
}

// Len returns the number of open sessions.
func (p *SessionPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sessions)
}

// Shutdown shuts down every session and forgets it.
func (p *SessionPool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var first error
	for worker, ms := range p.sessions {
		if err := ms.Shutdown(ctx); err != nil {
			p.logger.Error().Err(err).Int("worker_id", worker).Msg("Unable to shut down metadata store session")
			if first == nil {
				first = err
			}
		}
		delete(p.sessions, worker)
		metrics.SessionsOpen.Dec()
	}
	return first
}
