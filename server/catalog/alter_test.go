package catalog

import (
	"bytes"
	"context"
	"testing"

	"github.com/gear6io/metastore/pkg/errors"
	"github.com/gear6io/metastore/server/config"
	"github.com/gear6io/metastore/server/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenameMovesManagedTableData(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	setupTable(t, env, "d1", "t1")
	for _, ds := range []string{"a", "b"} {
		_, err := env.h.AppendPartition(ctx, "d1", "t1", []string{ds})
		require.NoError(t, err)
	}
	_, err := env.h.AddPartition(ctx, &types.Partition{
		DBName: "d1", TableName: "t1", Values: []string{"c"},
		Sd: &types.StorageDescriptor{Location: "/elsewhere/c"},
	})
	require.NoError(t, err)

	require.NoError(t, env.h.AlterTable(ctx, "d1", "t1", newTable("d1", "t2")))

	_, err = env.h.GetTable(ctx, "d1", "t1")
	assert.True(t, types.IsNoSuchObject(err))
	tbl, err := env.h.GetTable(ctx, "d1", "t2")
	require.NoError(t, err)
	assert.Equal(t, "file:///wh/d1/t2", tbl.Location())
	assert.NotEmpty(t, tbl.Parameters[types.DDLTimeKey])

	assert.False(t, env.isDir(t, "/wh/d1/t1"))
	assert.True(t, env.isDir(t, "/wh/d1/t2/ds=a"))
	assert.True(t, env.isDir(t, "/wh/d1/t2/ds=b"))

	parts, err := env.h.GetPartitions(ctx, "d1", "t2", -1)
	require.NoError(t, err)
	require.Len(t, parts, 3)
	assert.Equal(t, "file:///wh/d1/t2/ds=a", parts[0].Sd.Location)
	assert.Equal(t, "file:///wh/d1/t2/ds=b", parts[1].Sd.Location)
	assert.Equal(t, "file:///elsewhere/c", parts[2].Sd.Location, "partitions outside the table stay put")
}

func TestRenameRejectsExistingDestination(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	setupTable(t, env, "d1", "t1")
	require.NoError(t, env.wh.MakeDirectories(ctx, mustResolve(t, env, "/wh/d1/t2")))

	err := env.h.AlterTable(ctx, "d1", "t1", newTable("d1", "t2"))
	assert.True(t, types.IsInvalidOperation(err), "%v", err)

	tbl, err := env.h.GetTable(ctx, "d1", "t1")
	require.NoError(t, err)
	assert.Equal(t, "file:///wh/d1/t1", tbl.Location())
	assert.True(t, env.isDir(t, "/wh/d1/t1"))
}

func TestRenameMovesDataBackWhenCommitFails(t *testing.T) {
	ctx := context.Background()
	backend := newFaultyBackend(t)
	env := newTestEnv(t, func(o *Options) { o.Backend = backend })
	setupTable(t, env, "d1", "t1")

	backend.store.commitErr = types.NewSystemFailure(nil, "commit lost")
	err := env.h.AlterTable(ctx, "d1", "t1", newTable("d1", "t2"))
	assert.True(t, types.IsInvalidOperation(err), "%v", err)

	assert.True(t, env.isDir(t, "/wh/d1/t1"))
	assert.False(t, env.isDir(t, "/wh/d1/t2"))
}

func TestAlterLogsFailedRollback(t *testing.T) {
	for _, impl := range []string{config.ALTER_RENAME_MOVE, config.ALTER_METADATA_ONLY} {
		t.Run(impl, func(t *testing.T) {
			ctx := context.Background()
			var logs bytes.Buffer
			backend := newFaultyBackend(t)
			env := newTestEnv(t, func(o *Options) {
				o.Backend = backend
				o.Logger = zerolog.New(&logs)
				o.Config.Catalog.AlterImpl = impl
			})
			setupTable(t, env, "d1", "t1")

			backend.store.commitErr = types.NewSystemFailure(nil, "commit lost")
			backend.store.rollbackErr = types.NewSystemFailure(nil, "connection reset")
			err := env.h.AlterTable(ctx, "d1", "t1", newTable("d1", "t2"))
			assert.True(t, types.IsInvalidOperation(err), "%v", err)

			assert.Contains(t, logs.String(), "Rollback failed")
			assert.Contains(t, logs.String(), "connection reset")
			assert.Contains(t, logs.String(), `"alter":"`+impl+`"`)
		})
	}
}

func TestRenameKeepsExternalData(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	setupDatabase(t, env, "d1")
	ext := newTable("d1", "ext")
	ext.TableType = types.ExternalTable
	ext.Sd.Location = "/landing/ext"
	require.NoError(t, env.h.CreateTable(ctx, ext))

	renamed := newTable("d1", "ext2")
	renamed.TableType = types.ExternalTable
	require.NoError(t, env.h.AlterTable(ctx, "d1", "ext", renamed))

	tbl, err := env.h.GetTable(ctx, "d1", "ext2")
	require.NoError(t, err)
	assert.Equal(t, "file:///landing/ext", tbl.Location())
	assert.True(t, env.isDir(t, "/landing/ext"))
}

func TestMetadataOnlyAlterKeepsLocation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, func(o *Options) { o.Config.Catalog.AlterImpl = config.ALTER_METADATA_ONLY })
	setupTable(t, env, "d1", "t1")
	_, ok := env.h.alter.(*MetadataOnlyAlter)
	require.True(t, ok)

	require.NoError(t, env.h.AlterTable(ctx, "d1", "t1", newTable("d1", "t2")))

	tbl, err := env.h.GetTable(ctx, "d1", "t2")
	require.NoError(t, err)
	assert.Equal(t, "file:///wh/d1/t1", tbl.Location())
	assert.True(t, env.isDir(t, "/wh/d1/t1"))
	assert.False(t, env.isDir(t, "/wh/d1/t2"))
}

func TestAlterTableErrors(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	setupTable(t, env, "d1", "t1")

	err := env.h.AlterTable(ctx, "d1", "missing", newTable("d1", "missing"))
	assert.True(t, types.IsInvalidOperation(err))

	err = env.h.AlterTable(ctx, "d1", "t1", nil)
	assert.True(t, types.IsInvalidOperation(err))

	bad := newTable("d1", "t1")
	bad.Sd.Cols = append(bad.Sd.Cols, types.FieldSchema{Name: "bad name", Type: "int"})
	err = env.h.AlterTable(ctx, "d1", "t1", bad)
	assert.True(t, types.IsInvalidOperation(err))

	rekeyed := newTable("d1", "t1")
	rekeyed.PartitionKeys = []types.FieldSchema{{Name: "hr", Type: "int"}}
	err = env.h.AlterTable(ctx, "d1", "t1", rekeyed)
	assert.True(t, types.IsInvalidOperation(err))

	setupTable(t, env, "d1", "t2")
	err = env.h.AlterTable(ctx, "d1", "t1", newTable("d1", "t2"))
	assert.True(t, types.IsInvalidOperation(err), "taken destination: %v", err)
}

func TestAlterTableInPlace(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	setupTable(t, env, "d1", "t1")

	changed := newTable("d1", "t1")
	changed.Owner = "etl"
	changed.Sd.Cols = append(changed.Sd.Cols, types.FieldSchema{Name: "extra", Type: "int"})
	require.NoError(t, env.h.AlterTable(ctx, "d1", "t1", changed))

	tbl, err := env.h.GetTable(ctx, "d1", "t1")
	require.NoError(t, err)
	assert.Equal(t, "etl", tbl.Owner)
	assert.Len(t, tbl.Sd.Cols, 3)
	assert.Equal(t, "file:///wh/d1/t1", tbl.Location())
}

func TestAlterPartition(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	setupTable(t, env, "d1", "t1")
	part, err := env.h.AppendPartition(ctx, "d1", "t1", []string{"a"})
	require.NoError(t, err)

	changed := part.Clone()
	changed.Parameters = map[string]string{"numFiles": "3"}
	changed.Sd.Location = "/moved/a"
	require.NoError(t, env.h.AlterPartition(ctx, "d1", "t1", changed))

	got, err := env.h.GetPartition(ctx, "d1", "t1", []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, "3", got.Parameters["numFiles"])
	assert.NotEmpty(t, got.Parameters[types.DDLTimeKey])
	assert.Equal(t, "file:///moved/a", got.Sd.Location)

	missing := part.Clone()
	missing.Values = []string{"zzz"}
	err = env.h.AlterPartition(ctx, "d1", "t1", missing)
	assert.True(t, types.IsInvalidOperation(err), "%v", err)

	noSd := part.Clone()
	noSd.Sd = nil
	err = env.h.AlterPartition(ctx, "d1", "t1", noSd)
	assert.True(t, types.IsInvalidOperation(err))

	err = env.h.AlterPartition(ctx, "d1", "t1", nil)
	assert.True(t, types.IsInvalidOperation(err))
}

func TestRegisterAlterHandler(t *testing.T) {
	RegisterAlterHandler("test-noop", func(zerolog.Logger) AlterHandler { return &MetadataOnlyAlter{} })
	h, err := NewAlterHandler("test-noop", zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &MetadataOnlyAlter{}, h)

	_, err = NewAlterHandler("nope", zerolog.Nop())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, CatalogUnknownAlterImpl))
	assert.Contains(t, errors.GetContext(err)["registered"], config.ALTER_RENAME_MOVE)
}
