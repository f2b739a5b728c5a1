package warehouse_test

import (
	"context"
	"testing"

	"github.com/gear6io/metastore/server/storage/memory"
	"github.com/gear6io/metastore/server/types"
	"github.com/gear6io/metastore/server/warehouse"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWarehouse(t *testing.T, root string) (*warehouse.Warehouse, *memory.MemoryStorage) {
	t.Helper()
	fs := memory.NewMemoryStorage("file", "s3")
	wh, err := warehouse.New(root, zerolog.Nop(), fs)
	require.NoError(t, err)
	return wh, fs
}

func TestDefaultPaths(t *testing.T) {
	wh, _ := newWarehouse(t, "/wh")

	assert.Equal(t, "file:///wh", wh.Root().String())
	assert.Equal(t, "file:///wh", wh.DefaultDatabasePath("DEFAULT").String())
	assert.Equal(t, "file:///wh/d1", wh.DefaultDatabasePath("D1").String())
	assert.Equal(t, "file:///wh/d1/t1", wh.DefaultTablePath("d1", "T1").String())

	part, err := wh.DefaultPartitionPath("file:///wh/d1/t1", []string{"ds"}, []string{"2024-01-01"})
	require.NoError(t, err)
	assert.Equal(t, "file:///wh/d1/t1/ds=2024-01-01", part.String())

	_, err = wh.DefaultPartitionPath("file:///wh/d1/t1", []string{"ds", "hr"}, []string{"2024-01-01"})
	assert.True(t, types.IsInvalidObject(err))
}

func TestResolve(t *testing.T) {
	wh, _ := newWarehouse(t, "s3://bucket/warehouse")

	tests := []struct {
		in   string
		want string
	}{
		{"s3://other/x/y", "s3://other/x/y"},
		{"/abs/loc", "s3://bucket/abs/loc"},
		{"rel/loc", "s3://bucket/warehouse/rel/loc"},
		{"file:/tmp/ext", "file:///tmp/ext"},
		{"s3://bucket/a/../b/", "s3://bucket/b"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := wh.Qualify(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := wh.Qualify("hdfs://nn/x")
	assert.True(t, types.IsInvalidObject(err))
	_, err = wh.Qualify("")
	assert.True(t, types.IsInvalidObject(err))
}

func TestNewRequiresFileSystemForRoot(t *testing.T) {
	_, err := warehouse.New("s3://bucket/wh", zerolog.Nop(), memory.NewMemoryStorage("file"))
	assert.Error(t, err)

	wh, err := warehouse.New("relative/wh", zerolog.Nop(), memory.NewMemoryStorage("file"))
	require.NoError(t, err)
	assert.True(t, wh.Root().IsQualified())
}

func TestDirectoryOperations(t *testing.T) {
	ctx := context.Background()
	wh, fs := newWarehouse(t, "/wh")
	tbl := wh.DefaultTablePath("d1", "t1")

	ok, err := wh.IsDir(ctx, tbl)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, wh.MakeDirectories(ctx, tbl.Join("ds=1")))
	ok, err = wh.IsDir(ctx, tbl)
	require.NoError(t, err)
	assert.True(t, ok)

	dst := wh.DefaultTablePath("d1", "t2")
	require.NoError(t, wh.Rename(ctx, tbl, dst))
	ok, err = wh.Exists(ctx, dst.Join("ds=1"))
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, wh.DeleteDir(ctx, dst))
	require.NoError(t, wh.DeleteDir(ctx, dst), "deleting a missing directory is a no-op")
	assert.Equal(t, []string{"/", "/wh", "/wh/d1"}, fs.Dirs())
}

func TestRenameAcrossFileSystems(t *testing.T) {
	ctx := context.Background()
	local := memory.NewMemoryStorage("file")
	remote := memory.NewMemoryStorage("s3")
	wh, err := warehouse.New("/wh", zerolog.Nop(), local, remote)
	require.NoError(t, err)

	src, _ := wh.Resolve("/wh/t1")
	dst, _ := wh.Resolve("s3://bucket/t1")
	assert.False(t, wh.SameFileSystem(src, dst))
	assert.Error(t, wh.Rename(ctx, src, dst))
}

func TestMakeDirectoriesFailure(t *testing.T) {
	ctx := context.Background()
	wh, fs := newWarehouse(t, "/wh")
	bad := wh.DefaultTablePath("d1", "bad")
	fs.FailOn("mkdir", bad)

	err := wh.MakeDirectories(ctx, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unable to create directory")
}
