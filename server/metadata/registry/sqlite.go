package registry

import (
	"context"
	"database/sql"
	stderrors "errors"
	"os"
	"path/filepath"
	"time"

	"github.com/gear6io/metastore/pkg/errors"
	"github.com/gear6io/metastore/server/config"
	"github.com/gear6io/metastore/server/metadata"
	"github.com/gear6io/metastore/utils"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// Name is the implementation identifier of the sqlite store
const Name = config.STORE_SQLITE

func init() {
	metadata.Register(Name, func(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (metadata.Backend, error) {
		return Open(ctx, cfg.Store.Path, logger)
	})
}

// Store is the sqlite backed metadata store. Sessions share its connection
// pool; write transactions take the database lock on begin.
type Store struct {
	db       *bun.DB
	dbPath   string
	migrator *BunMigrationManager
	logger   zerolog.Logger
}

// Open opens (creating if needed) the database at dbPath and migrates it
// to the latest schema.
func Open(ctx context.Context, dbPath string, logger zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, errors.New(RegistryOpenFailed, "failed to create SQLite directory", err).AddContext("path", dbPath)
	}

	dsn := "file:" + dbPath + "?_foreign_keys=on&_busy_timeout=10000&_txlock=immediate"
	sqldb, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.New(RegistryOpenFailed, "failed to open SQLite database", err).AddContext("path", dbPath)
	}

	store := NewStore(bun.NewDB(sqldb, sqlitedialect.New()), logger)
	store.dbPath = dbPath

	if err := store.migrator.MigrateToLatest(ctx); err != nil {
		store.db.Close()
		return nil, err
	}
	if err := store.migrator.VerifySchema(ctx); err != nil {
		store.db.Close()
		return nil, err
	}
	return store, nil
}

// NewStore wraps an already opened database without migrating it.
func NewStore(db *bun.DB, logger zerolog.Logger) *Store {
	logger = logger.With().Str("component", "sqlite-store").Logger()
	return &Store{
		db:       db,
		migrator: NewBunMigrationManager(db, logger),
		logger:   logger,
	}
}

func (sm *Store) Name() string {
	return Name
}

// NewSession returns a session with no transaction open.
func (sm *Store) NewSession(ctx context.Context) (metadata.RawStore, error) {
	s := &Session{store: sm, id: utils.GenerateULIDString()}
	sm.logger.Debug().Str("session", s.id).Msg("Opened session")
	return s, nil
}

// Migrations exposes the schema migration manager
func (sm *Store) Migrations() *BunMigrationManager {
	return sm.migrator
}

// Close closes the database connection
func (sm *Store) Close() error {
	if sm.db != nil {
		return sm.db.Close()
	}
	return nil
}

// Session is a RawStore over a Store.
type Session struct {
	store  *Store
	id     string
	tx     bun.Tx
	depth  int
	closed bool
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) idb() bun.IDB {
	if s.depth > 0 {
		return s.tx
	}
	return s.store.db
}

func (s *Session) check() error {
	if s.closed {
		return errors.New(metadata.MetadataSessionClosed, "session is closed", nil).AddContext("session", s.id)
	}
	return nil
}

// atomic runs fn inside the open transaction or, when none is open, in a
// transaction of its own.
func (s *Session) atomic(ctx context.Context, fn func(idb bun.IDB) error) error {
	if err := s.check(); err != nil {
		return err
	}
	if s.depth > 0 {
		return fn(s.tx)
	}
	return s.store.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(tx)
	})
}

func (s *Session) OpenTransaction(ctx context.Context) error {
	if err := s.check(); err != nil {
		return err
	}
	if s.depth == 0 {
		tx, err := s.store.db.BeginTx(ctx, nil)
		if err != nil {
			return errors.New(RegistryTransactionFailed, "failed to begin transaction", err).AddContext("session", s.id)
		}
		s.tx = tx
	}
	s.depth++
	return nil
}

func (s *Session) CommitTransaction(ctx context.Context) error {
	if s.depth == 0 {
		return errors.New(metadata.MetadataNoTransaction, "commit without an open transaction", nil).AddContext("session", s.id)
	}
	s.depth--
	if s.depth > 0 {
		return nil
	}
	if err := s.tx.Commit(); err != nil {
		return errors.New(metadata.MetadataCommitFailed, "failed to commit transaction", err).AddContext("session", s.id)
	}
	return nil
}

func (s *Session) RollbackTransaction(ctx context.Context) error {
	if s.depth == 0 {
		return nil
	}
	s.depth = 0
	if err := s.tx.Rollback(); err != nil && !stderrors.Is(err, sql.ErrTxDone) {
		return errors.New(RegistryTransactionFailed, "failed to roll back transaction", err).AddContext("session", s.id)
	}
	return nil
}

func (s *Session) IsActiveTransaction() bool {
	return s.depth > 0
}

func (s *Session) Shutdown(ctx context.Context) error {
	err := s.RollbackTransaction(ctx)
	s.closed = true
	return err
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if !stderrors.As(err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

func isNoRows(err error) bool {
	return stderrors.Is(err, sql.ErrNoRows)
}

func queryFailed(err error, what string) error {
	return errors.New(RegistryQueryFailed, "failed to "+what, err)
}

func now() time.Time {
	return time.Now().UTC()
}
