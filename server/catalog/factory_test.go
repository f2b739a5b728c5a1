package catalog

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gear6io/metastore/pkg/errors"
	"github.com/gear6io/metastore/server/config"
	"github.com/gear6io/metastore/server/metadata"
	_ "github.com/gear6io/metastore/server/metadata/registry"
	"github.com/gear6io/metastore/server/types"
	"github.com/johannesboyne/gofakes3"
	"github.com/johannesboyne/gofakes3/backend/s3mem"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWarehouse(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		wh, err := NewWarehouse(ctx, &config.WarehouseConfig{Dir: "/wh", FileSystem: config.FS_MEMORY}, zerolog.Nop())
		require.NoError(t, err)
		assert.Equal(t, "file:///wh", wh.Root().String())
	})

	t.Run("local", func(t *testing.T) {
		dir := t.TempDir()
		wh, err := NewWarehouse(ctx, &config.WarehouseConfig{Dir: dir, FileSystem: config.FS_LOCAL}, zerolog.Nop())
		require.NoError(t, err)
		require.NoError(t, wh.MakeDirectories(ctx, wh.DefaultDatabasePath("d1")))
		assert.DirExists(t, filepath.Join(dir, "d1"))
	})

	t.Run("s3", func(t *testing.T) {
		ts := httptest.NewServer(gofakes3.New(s3mem.New()).Server())
		t.Cleanup(ts.Close)

		wh, err := NewWarehouse(ctx, &config.WarehouseConfig{
			Dir:        "s3://lake/wh",
			FileSystem: config.FS_S3,
			S3: config.S3Config{
				Endpoint:     strings.TrimPrefix(ts.URL, "http://"),
				AccessKey:    "test",
				SecretKey:    "test",
				Region:       "us-east-1",
				PathStyle:    true,
				CreateBucket: true,
			},
		}, zerolog.Nop())
		require.NoError(t, err)

		p := wh.DefaultTablePath("d1", "t1")
		require.NoError(t, wh.MakeDirectories(ctx, p))
		ok, err := wh.IsDir(ctx, p)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := NewWarehouse(ctx, &config.WarehouseConfig{Dir: "/wh", FileSystem: "tape"}, zerolog.Nop())
		assert.True(t, errors.HasCode(err, CatalogUnknownFileSystem))
	})
}

func TestNewWithMemoryStore(t *testing.T) {
	ctx := context.Background()
	cfg := config.LoadDefaultConfig()
	cfg.Store.Impl = config.STORE_MEMORY
	cfg.Warehouse.Dir = "/wh"
	cfg.Warehouse.FileSystem = config.FS_MEMORY

	h, err := New(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { h.Shutdown(ctx) })

	db, err := h.GetDatabase(ctx, types.DefaultDatabaseName)
	require.NoError(t, err)
	assert.Equal(t, "file:///wh", db.LocationURI)
}

func TestNewUnknownStore(t *testing.T) {
	cfg := config.LoadDefaultConfig()
	cfg.Store.Impl = "nope"
	_, err := New(context.Background(), cfg, zerolog.Nop())
	assert.True(t, errors.HasCode(err, metadata.MetadataUnknownStore))
}

// TestSQLiteCatalog runs a full database/table/partition lifecycle against
// the SQLite store and a local warehouse.
func TestSQLiteCatalog(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := config.LoadDefaultConfig()
	cfg.Store.Impl = config.STORE_SQLITE
	cfg.Store.Path = filepath.Join(dir, "catalog.db")
	cfg.Warehouse.Dir = filepath.Join(dir, "warehouse")
	cfg.Warehouse.FileSystem = config.FS_LOCAL

	h, err := New(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { h.Shutdown(ctx) })

	require.NoError(t, h.CreateDatabase(ctx, "sales", ""))
	require.NoError(t, h.CreateTable(ctx, newTable("sales", "orders")))
	part, err := h.AppendPartition(ctx, "sales", "orders", []string{"2024-01-01"})
	require.NoError(t, err)
	assert.DirExists(t, filepath.Join(cfg.Warehouse.Dir, "sales", "orders", "ds=2024-01-01"))

	got, err := h.GetPartitionByName(ctx, "sales", "orders", "ds=2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, part.Sd.Location, got.Sd.Location)

	n, err := h.AddPartitions(ctx, []*types.Partition{
		{DBName: "sales", TableName: "orders", Values: []string{"2024-01-02"}},
		{DBName: "sales", TableName: "orders", Values: []string{"2024-01-01"}},
	})
	assert.True(t, types.IsAlreadyExists(err), "%v", err)
	assert.Zero(t, n)
	names, err := h.GetPartitionNames(ctx, "sales", "orders", -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"ds=2024-01-01"}, names)

	require.NoError(t, h.AlterTable(ctx, "sales", "orders", newTable("sales", "orders_v2")))
	assert.NoDirExists(t, filepath.Join(cfg.Warehouse.Dir, "sales", "orders"))
	moved, err := h.GetPartition(ctx, "sales", "orders_v2", []string{"2024-01-01"})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(moved.Sd.Location, "/sales/orders_v2/ds=2024-01-01"), moved.Sd.Location)

	require.NoError(t, h.DropTable(ctx, "sales", "orders_v2", true))
	_, err = os.Stat(filepath.Join(cfg.Warehouse.Dir, "sales", "orders_v2"))
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, h.DropDatabase(ctx, "sales"))
	_, err = h.GetDatabase(ctx, "sales")
	assert.True(t, types.IsNoSuchObject(err))
}
