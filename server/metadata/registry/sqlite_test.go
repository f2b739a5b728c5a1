package registry

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gear6io/metastore/pkg/errors"
	"github.com/gear6io/metastore/server/config"
	"github.com/gear6io/metastore/server/metadata"
	"github.com/gear6io/metastore/server/metadata/storetest"
	"github.com/gear6io/metastore/server/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "catalog.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) (metadata.RawStore, metadata.RawStore) {
		store := openTestStore(t)
		a, err := store.NewSession(context.Background())
		require.NoError(t, err)
		b, err := store.NewSession(context.Background())
		require.NoError(t, err)
		return a, b
	})
}

func TestSQLiteStoreRegistered(t *testing.T) {
	cfg := config.LoadDefaultConfig()
	cfg.Store.Impl = Name
	cfg.Store.Path = filepath.Join(t.TempDir(), "nested", "metastore.db")

	b, err := metadata.Open(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer b.Close()
	assert.Equal(t, "sqlite", b.Name())
	assert.FileExists(t, cfg.Store.Path)
}

func TestMigrationsAppliedOnce(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "catalog.db")

	store, err := Open(ctx, dbPath, zerolog.Nop())
	require.NoError(t, err)
	ms, err := store.NewSession(ctx)
	require.NoError(t, err)
	require.NoError(t, ms.CreateDatabase(ctx, &types.Database{Name: "survivor"}))
	require.NoError(t, store.Close())

	reopened, err := Open(ctx, dbPath, zerolog.Nop())
	require.NoError(t, err)
	defer reopened.Close()

	status, err := reopened.Migrations().GetMigrationStatus(ctx)
	require.NoError(t, err)
	require.Len(t, status, 1)
	assert.Equal(t, 1, status[0].Version)
	assert.Equal(t, "applied", status[0].Status)

	version, err := reopened.Migrations().GetCurrentVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, version)

	ms, err = reopened.NewSession(ctx)
	require.NoError(t, err)
	_, err = ms.GetDatabase(ctx, "survivor")
	assert.NoError(t, err)
}

func TestCascadingDeletes(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	ms, err := store.NewSession(ctx)
	require.NoError(t, err)

	require.NoError(t, ms.CreateDatabase(ctx, &types.Database{Name: "d1"}))
	require.NoError(t, ms.CreateTable(ctx, storetest.Table("d1", "t1")))
	require.NoError(t, ms.AddPartition(ctx, storetest.Partition("d1", "t1", "2024-01-01")))
	require.NoError(t, ms.DropDatabase(ctx, "d1"))

	count, err := store.db.NewSelect().Table("partitions").Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	sqldb, mock, err := sqlmock.New()
	require.NoError(t, err)
	store := NewStore(bun.NewDB(sqldb, sqlitedialect.New()), zerolog.Nop())
	t.Cleanup(func() { store.Close() })
	return store, mock
}

func TestCommitFailure(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)
	ms, err := store.NewSession(ctx)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(stderrors.New("disk I/O error"))

	require.NoError(t, ms.OpenTransaction(ctx))
	err = ms.CommitTransaction(ctx)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, metadata.MetadataCommitFailed))
	assert.True(t, types.IsSystemFailure(err))
	assert.False(t, ms.IsActiveTransaction())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryFailureIsSystemFailure(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)
	ms, err := store.NewSession(ctx)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT").WillReturnError(stderrors.New("database is locked"))

	_, err = ms.GetDatabase(ctx, "d1")
	require.Error(t, err)
	assert.True(t, types.IsSystemFailure(err))
	assert.True(t, errors.HasCode(err, RegistryQueryFailed))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClosedSession(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	ms, err := store.NewSession(ctx)
	require.NoError(t, err)

	require.NoError(t, ms.OpenTransaction(ctx))
	require.NoError(t, ms.Shutdown(ctx))
	err = ms.CreateDatabase(ctx, &types.Database{Name: "late"})
	assert.True(t, errors.HasCode(err, metadata.MetadataSessionClosed))
}
