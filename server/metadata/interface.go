package metadata

import (
	"context"

	"github.com/gear6io/metastore/server/types"
)

// RawStore is one session against the transactional metadata store. A
// session is owned by a single worker and is never shared.
//
// Transactions nest: OpenTransaction increments a depth counter and only
// the outermost CommitTransaction makes changes durable. A rollback at any
// depth aborts the whole transaction; later rollbacks are no-ops. Calls made
// outside a transaction commit individually.
//
// Reads report absence with a types.NoSuchObject coded error and duplicates
// with types.AlreadyExists. Any other failure is types.SystemFailure.
type RawStore interface {
	OpenTransaction(ctx context.Context) error
	CommitTransaction(ctx context.Context) error
	RollbackTransaction(ctx context.Context) error
	IsActiveTransaction() bool

	CreateDatabase(ctx context.Context, db *types.Database) error
	GetDatabase(ctx context.Context, name string) (*types.Database, error)
	DropDatabase(ctx context.Context, name string) error
	ListDatabases(ctx context.Context) ([]string, error)

	CreateType(ctx context.Context, t *types.Type) error
	GetType(ctx context.Context, name string) (*types.Type, error)
	DropType(ctx context.Context, name string) error

	CreateTable(ctx context.Context, tbl *types.Table) error
	GetTable(ctx context.Context, dbName, tableName string) (*types.Table, error)
	DropTable(ctx context.Context, dbName, tableName string) error
	ListTables(ctx context.Context, dbName, pattern string) ([]string, error)
	AlterTable(ctx context.Context, dbName, tableName string, newTable *types.Table) error

	AddPartition(ctx context.Context, part *types.Partition) error
	GetPartition(ctx context.Context, dbName, tableName string, values []string) (*types.Partition, error)
	DropPartition(ctx context.Context, dbName, tableName string, values []string) error
	// ListPartitions returns at most max partitions ordered by name; max < 0
	// means no limit.
	ListPartitions(ctx context.Context, dbName, tableName string, max int) ([]*types.Partition, error)
	ListPartitionNames(ctx context.Context, dbName, tableName string, max int) ([]string, error)
	AlterPartition(ctx context.Context, dbName, tableName string, newPart *types.Partition) error

	// ID identifies the session in logs.
	ID() string
	// Shutdown rolls back any open transaction and releases the session.
	Shutdown(ctx context.Context) error
}

// Backend owns the shared state behind every session of one store
// implementation, such as a connection pool.
type Backend interface {
	Name() string
	NewSession(ctx context.Context) (RawStore, error)
	Close() error
}
