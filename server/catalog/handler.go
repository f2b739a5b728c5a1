// Package catalog implements the catalog operations: validation,
// transactional mutation of the metadata store, and reconciliation of the
// warehouse directories with the outcome of each transaction.
package catalog

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gear6io/metastore/pkg/errors"
	"github.com/gear6io/metastore/server/config"
	"github.com/gear6io/metastore/server/metadata"
	"github.com/gear6io/metastore/server/metrics"
	"github.com/gear6io/metastore/server/schema"
	"github.com/gear6io/metastore/server/types"
	"github.com/gear6io/metastore/server/warehouse"
	"github.com/rs/zerolog"
)

// ComponentType defines the catalog component type identifier
const ComponentType = "catalog"

// Version is reported by get_version.
const Version = "3.0"

// Service status values reported by get_status.
const (
	StatusAlive    = "ALIVE"
	StatusStopping = "STOPPING"
)

// Options wires a Handler. Alter and Schema are optional.
type Options struct {
	Config    *config.Config
	Backend   metadata.Backend
	Warehouse *warehouse.Warehouse
	Alter     AlterHandler
	Schema    *schema.Registry
	Logger    zerolog.Logger
}

// Handler serves every catalog operation. It is safe for concurrent use as
// long as concurrent calls carry different workers (see WithWorker).
type Handler struct {
	cfg      *config.Config
	sessions *SessionPool
	wh       *warehouse.Warehouse
	alter    AlterHandler
	schema   *schema.Registry
	logger   zerolog.Logger

	// backend is set when the handler opened the store itself.
	backend metadata.Backend

	bootstrap    sync.Once
	bootstrapErr atomic.Pointer[error]
	stopping     atomic.Bool
}

func NewHandler(opts Options) (*Handler, error) {
	if opts.Config == nil || opts.Backend == nil || opts.Warehouse == nil {
		return nil, errors.New(CatalogMissingOption, "config, backend and warehouse are required", nil)
	}
	logger := opts.Logger.With().Str("component", ComponentType).Logger()

	alter := opts.Alter
	if alter == nil {
		var err error
		if alter, err = NewAlterHandler(opts.Config.Catalog.AlterImpl, logger); err != nil {
			return nil, err
		}
	}
	deriver := opts.Schema
	if deriver == nil {
		deriver = schema.NewRegistry()
	}

	return &Handler{
		cfg:      opts.Config,
		sessions: NewSessionPool(opts.Backend, logger),
		wh:       opts.Warehouse,
		alter:    alter,
		schema:   deriver,
		logger:   logger,
	}, nil
}

// getMS returns the session of the calling worker. The first call of the
// handler's lifetime also makes the one attempt at creating the default
// database.
func (h *Handler) getMS(ctx context.Context) (metadata.RawStore, error) {
	if h.stopping.Load() {
		return nil, errors.New(CatalogShuttingDown, "catalog is shutting down", nil)
	}
	ms, err := h.sessions.Get(ctx, WorkerFromContext(ctx))
	if err != nil {
		return nil, err
	}
	h.bootstrap.Do(func() {
		if err := h.createDefaultDB(ctx, ms); err != nil {
			h.bootstrapErr.Store(&err)
		}
	})
	return ms, nil
}

func (h *Handler) createDefaultDB(ctx context.Context, ms metadata.RawStore) error {
	if !h.cfg.Catalog.CheckForDefaultDb {
		return nil
	}
	_, err := ms.GetDatabase(ctx, types.DefaultDatabaseName)
	if err == nil {
		return nil
	}
	if !types.IsNoSuchObject(err) {
		h.logger.Error().Err(err).Msg("Unable to look up the default database")
		return err
	}

	db := &types.Database{
		Name:        types.DefaultDatabaseName,
		LocationURI: h.wh.DefaultDatabasePath(types.DefaultDatabaseName).String(),
	}
	if err := ms.CreateDatabase(ctx, db); err != nil && !types.IsAlreadyExists(err) {
		h.logger.Error().Err(err).Msg("Unable to create the default database")
		return errors.New(CatalogBootstrapFailed, "unable to create the default database", err)
	}
	h.logger.Info().Str("location", db.LocationURI).Msg("Created default database")
	return nil
}

// BootstrapErr reports the outcome of the default database check; nil
// until the first call has been served.
func (h *Handler) BootstrapErr() error {
	if err := h.bootstrapErr.Load(); err != nil {
		return *err
	}
	return nil
}

// start logs the call and returns the function that records its outcome.
func (h *Handler) start(ctx context.Context, op, db, tbl string) func(*error) {
	began := time.Now()
	metrics.CatalogCalls.WithLabelValues(op).Inc()

	ev := h.logger.Info().Int("worker_id", WorkerFromContext(ctx)).Str("op", op)
	if db != "" {
		ev = ev.Str("db", db)
	}
	if tbl != "" {
		ev = ev.Str("table", tbl)
	}
	ev.Msg("Catalog call")

	return func(errp *error) {
		metrics.CatalogDuration.WithLabelValues(op).Observe(time.Since(began).Seconds())
		if errp == nil || *errp == nil {
			return
		}
		kind := types.KindOf(*errp)
		metrics.CatalogErrors.WithLabelValues(op, string(kind)).Inc()
		if kind == types.KindSystemFailure {
			h.logger.Error().Err(*errp).Str("op", op).Msg("Catalog call failed")
		} else {
			h.logger.Debug().Err(*errp).Str("op", op).Msg("Catalog call rejected")
		}
	}
}

// txn is one transactional mutation: the session, whether it committed,
// and the directories this call created.
type txn struct {
	h         *Handler
	ctx       context.Context
	ms        metadata.RawStore
	committed bool
	madeDirs  []warehouse.Path
}

func (h *Handler) begin(ctx context.Context, ms metadata.RawStore) (*txn, error) {
	if err := ms.OpenTransaction(ctx); err != nil {
		return nil, err
	}
	return &txn{h: h, ctx: ctx, ms: ms}, nil
}

// mkdirIfAbsent creates p unless it already is a directory and remembers
// that this call created it.
func (t *txn) mkdirIfAbsent(p warehouse.Path) error {
	isDir, err := t.h.wh.IsDir(t.ctx, p)
	if err != nil {
		return err
	}
	if isDir {
		return nil
	}
	if err := t.h.wh.MakeDirectories(t.ctx, p); err != nil {
		return types.NewSystemFailure(err, "%s is not a directory or unable to create one", p)
	}
	t.madeDirs = append(t.madeDirs, p)
	return nil
}

func (t *txn) commit() error {
	if err := t.ms.CommitTransaction(t.ctx); err != nil {
		return err
	}
	t.committed = true
	return nil
}

// finish rolls back an uncommitted transaction and removes the directories
// it created. Failures here are logged; the caller reports its own error.
func (t *txn) finish() {
	if t.committed {
		return
	}
	if err := t.ms.RollbackTransaction(t.ctx); err != nil {
		t.h.logger.Error().Err(err).Str("session", t.ms.ID()).Msg("Rollback failed")
	}
	for _, p := range t.madeDirs {
		if err := t.h.wh.DeleteDir(t.ctx, p); err != nil {
			metrics.CompensationFailures.Inc()
			t.h.logger.Warn().Err(err).Str("path", p.String()).Msg("Unable to remove directory created by failed call")
		}
	}
}

// deleteData removes the directory of a dropped entity after its
// transaction committed. The drop already succeeded, so failures are only
// logged.
func (h *Handler) deleteData(ctx context.Context, location string) {
	p, err := h.wh.Resolve(location)
	if err == nil {
		err = h.wh.DeleteDir(ctx, p)
	}
	if err != nil {
		metrics.DirectoryDeletes.WithLabelValues("failed").Inc()
		h.logger.Warn().Err(err).Str("location", location).Msg("Unable to delete data of dropped entity")
		return
	}
	metrics.DirectoryDeletes.WithLabelValues("deleted").Inc()
}

// GetVersion returns the catalog protocol version.
func (h *Handler) GetVersion() string {
	return Version
}

// GetStatus reports ALIVE until Shutdown starts.
func (h *Handler) GetStatus() string {
	if h.stopping.Load() {
		return StatusStopping
	}
	return StatusAlive
}

// Warehouse returns the warehouse the handler places data in.
func (h *Handler) Warehouse() *warehouse.Warehouse {
	return h.wh
}

// Sessions returns the number of worker sessions opened so far.
func (h *Handler) Sessions() int {
	return h.sessions.Len()
}

// Name returns the component type identifier
func (h *Handler) Name() string {
	return ComponentType
}

// Shutdown rejects new calls and shuts down every worker session.
func (h *Handler) Shutdown(ctx context.Context) error {
	h.stopping.Store(true)
	h.logger.Info().Msg("Shutting down the metadata store sessions")
	err := h.sessions.Shutdown(ctx)
	if h.backend != nil {
		if cerr := h.backend.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
