// Package storetest holds the behavioural contract every metadata.RawStore
// implementation must satisfy.
package storetest

import (
	"context"
	"testing"

	"github.com/gear6io/metastore/server/metadata"
	"github.com/gear6io/metastore/server/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns two independent sessions over one fresh backend.
type Factory func(t *testing.T) (metadata.RawStore, metadata.RawStore)

func Table(db, name string) *types.Table {
	return &types.Table{
		DBName:    db,
		TableName: name,
		Sd: &types.StorageDescriptor{
			Location:  "file:///wh/" + db + "/" + name,
			Cols:      []types.FieldSchema{{Name: "id", Type: "bigint"}, {Name: "payload", Type: "string"}},
			SerdeInfo: types.SerDeInfo{SerializationLib: "org.apache.hadoop.hive.serde2.lazy.LazySimpleSerDe"},
		},
		PartitionKeys: []types.FieldSchema{{Name: "ds", Type: "string"}},
		Parameters:    map[string]string{"owner": "etl"},
		TableType:     types.ManagedTable,
		CreateTime:    1700000000,
	}
}

func Partition(db, table string, values ...string) *types.Partition {
	return &types.Partition{
		DBName:     db,
		TableName:  table,
		Values:     values,
		Sd:         &types.StorageDescriptor{Location: "file:///wh/" + db + "/" + table + "/ds=" + values[0]},
		Parameters: map[string]string{types.DDLTimeKey: "1700000000"},
	}
}

// Run executes the contract against the store produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("Databases", func(t *testing.T) { testDatabases(t, newStore) })
	t.Run("Types", func(t *testing.T) { testTypes(t, newStore) })
	t.Run("Tables", func(t *testing.T) { testTables(t, newStore) })
	t.Run("AlterTable", func(t *testing.T) { testAlterTable(t, newStore) })
	t.Run("Partitions", func(t *testing.T) { testPartitions(t, newStore) })
	t.Run("Transactions", func(t *testing.T) { testTransactions(t, newStore) })
	t.Run("NestedTransactions", func(t *testing.T) { testNestedTransactions(t, newStore) })
	t.Run("Isolation", func(t *testing.T) { testIsolation(t, newStore) })
}

func testDatabases(t *testing.T, newStore Factory) {
	ctx := context.Background()
	ms, _ := newStore(t)

	require.NoError(t, ms.CreateDatabase(ctx, &types.Database{Name: "Sales", Description: "d", LocationURI: "file:///wh/sales"}))
	err := ms.CreateDatabase(ctx, &types.Database{Name: "sales"})
	assert.True(t, types.IsAlreadyExists(err), "duplicate names differ only in case: %v", err)

	db, err := ms.GetDatabase(ctx, "SALES")
	require.NoError(t, err)
	assert.Equal(t, "sales", db.Name)
	assert.Equal(t, "file:///wh/sales", db.LocationURI)

	_, err = ms.GetDatabase(ctx, "missing")
	assert.True(t, types.IsNoSuchObject(err))

	require.NoError(t, ms.CreateDatabase(ctx, &types.Database{Name: "hr"}))
	names, err := ms.ListDatabases(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"hr", "sales"}, names)

	require.NoError(t, ms.CreateTable(ctx, Table("hr", "people")))
	require.NoError(t, ms.DropDatabase(ctx, "hr"))
	_, err = ms.GetTable(ctx, "hr", "people")
	assert.True(t, types.IsNoSuchObject(err), "tables go with their database")
	assert.True(t, types.IsNoSuchObject(ms.DropDatabase(ctx, "hr")))
}

func testTypes(t *testing.T, newStore Factory) {
	ctx := context.Background()
	ms, _ := newStore(t)

	typ := &types.Type{Name: "point", Fields: []types.FieldSchema{{Name: "x", Type: "double"}, {Name: "y", Type: "double"}}}
	require.NoError(t, ms.CreateType(ctx, typ))
	assert.True(t, types.IsAlreadyExists(ms.CreateType(ctx, typ)))

	got, err := ms.GetType(ctx, "point")
	require.NoError(t, err)
	assert.Equal(t, typ, got)

	require.NoError(t, ms.DropType(ctx, "point"))
	_, err = ms.GetType(ctx, "point")
	assert.True(t, types.IsNoSuchObject(err))
	assert.True(t, types.IsNoSuchObject(ms.DropType(ctx, "point")))
}

func testTables(t *testing.T, newStore Factory) {
	ctx := context.Background()
	ms, _ := newStore(t)
	require.NoError(t, ms.CreateDatabase(ctx, &types.Database{Name: "d1"}))

	err := ms.CreateTable(ctx, Table("nodb", "t1"))
	assert.True(t, types.IsInvalidObject(err), "table needs its database: %v", err)

	tbl := Table("d1", "T1")
	require.NoError(t, ms.CreateTable(ctx, tbl))
	assert.True(t, types.IsAlreadyExists(ms.CreateTable(ctx, Table("d1", "t1"))))

	got, err := ms.GetTable(ctx, "D1", "t1")
	require.NoError(t, err)
	assert.Equal(t, "d1", got.DBName)
	assert.Equal(t, "t1", got.TableName)
	assert.Equal(t, tbl.Sd, got.Sd)
	assert.Equal(t, tbl.PartitionKeys, got.PartitionKeys)
	assert.Equal(t, tbl.Parameters, got.Parameters)
	assert.Equal(t, tbl.CreateTime, got.CreateTime)
	assert.Equal(t, types.ManagedTable, got.TableType)

	got.Parameters["owner"] = "changed"
	again, err := ms.GetTable(ctx, "d1", "t1")
	require.NoError(t, err)
	assert.Equal(t, "etl", again.Parameters["owner"], "returned records are copies")

	for _, n := range []string{"orders", "order_items", "customers"} {
		require.NoError(t, ms.CreateTable(ctx, Table("d1", n)))
	}
	names, err := ms.ListTables(ctx, "d1", "order*")
	require.NoError(t, err)
	assert.Equal(t, []string{"order_items", "orders"}, names)
	names, err = ms.ListTables(ctx, "d1", "t1|cust*")
	require.NoError(t, err)
	assert.Equal(t, []string{"customers", "t1"}, names)

	require.NoError(t, ms.DropTable(ctx, "d1", "t1"))
	_, err = ms.GetTable(ctx, "d1", "t1")
	assert.True(t, types.IsNoSuchObject(err))
	assert.True(t, types.IsNoSuchObject(ms.DropTable(ctx, "d1", "t1")))
}

func testAlterTable(t *testing.T, newStore Factory) {
	ctx := context.Background()
	ms, _ := newStore(t)
	require.NoError(t, ms.CreateDatabase(ctx, &types.Database{Name: "d1"}))
	require.NoError(t, ms.CreateTable(ctx, Table("d1", "old")))
	require.NoError(t, ms.CreateTable(ctx, Table("d1", "taken")))
	require.NoError(t, ms.AddPartition(ctx, Partition("d1", "old", "2024-01-01")))

	renamed := Table("d1", "taken")
	assert.True(t, types.IsAlreadyExists(ms.AlterTable(ctx, "d1", "old", renamed)))
	assert.True(t, types.IsInvalidObject(ms.AlterTable(ctx, "d1", "ghost", Table("d1", "ghost"))))

	renamed = Table("d1", "new")
	renamed.Parameters["owner"] = "ops"
	require.NoError(t, ms.AlterTable(ctx, "d1", "old", renamed))

	_, err := ms.GetTable(ctx, "d1", "old")
	assert.True(t, types.IsNoSuchObject(err))
	got, err := ms.GetTable(ctx, "d1", "new")
	require.NoError(t, err)
	assert.Equal(t, "ops", got.Parameters["owner"])

	part, err := ms.GetPartition(ctx, "d1", "new", []string{"2024-01-01"})
	require.NoError(t, err, "partitions follow a renamed table")
	assert.Equal(t, "new", part.TableName)
}

func testPartitions(t *testing.T, newStore Factory) {
	ctx := context.Background()
	ms, _ := newStore(t)
	require.NoError(t, ms.CreateDatabase(ctx, &types.Database{Name: "d1"}))
	require.NoError(t, ms.CreateTable(ctx, Table("d1", "t1")))

	assert.True(t, types.IsInvalidObject(ms.AddPartition(ctx, Partition("d1", "nope", "x"))))
	assert.True(t, types.IsInvalidObject(ms.AddPartition(ctx, Partition("d1", "t1", "a", "b"))))

	for _, ds := range []string{"2024-01-03", "2024-01-01", "2024-01-02"} {
		require.NoError(t, ms.AddPartition(ctx, Partition("d1", "t1", ds)))
	}
	assert.True(t, types.IsAlreadyExists(ms.AddPartition(ctx, Partition("d1", "t1", "2024-01-01"))))

	p, err := ms.GetPartition(ctx, "d1", "t1", []string{"2024-01-02"})
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-02"}, p.Values)
	assert.Equal(t, "file:///wh/d1/t1/ds=2024-01-02", p.Sd.Location)
	assert.Equal(t, "1700000000", p.Parameters[types.DDLTimeKey])

	_, err = ms.GetPartition(ctx, "d1", "t1", []string{"2030-01-01"})
	assert.True(t, types.IsNoSuchObject(err))
	_, err = ms.GetPartition(ctx, "d1", "missing", []string{"2030-01-01"})
	assert.True(t, types.IsNoSuchObject(err))

	names, err := ms.ListPartitionNames(ctx, "d1", "t1", -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"ds=2024-01-01", "ds=2024-01-02", "ds=2024-01-03"}, names)
	names, err = ms.ListPartitionNames(ctx, "d1", "t1", 2)
	require.NoError(t, err)
	assert.Len(t, names, 2)

	parts, err := ms.ListPartitions(ctx, "d1", "t1", 1)
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Equal(t, []string{"2024-01-01"}, parts[0].Values)

	alt := Partition("d1", "t1", "2024-01-01")
	alt.Parameters["note"] = "compacted"
	require.NoError(t, ms.AlterPartition(ctx, "d1", "t1", alt))
	p, err = ms.GetPartition(ctx, "d1", "t1", []string{"2024-01-01"})
	require.NoError(t, err)
	assert.Equal(t, "compacted", p.Parameters["note"])
	assert.True(t, types.IsInvalidObject(ms.AlterPartition(ctx, "d1", "t1", Partition("d1", "t1", "1999-01-01"))))

	require.NoError(t, ms.DropPartition(ctx, "d1", "t1", []string{"2024-01-01"}))
	assert.True(t, types.IsNoSuchObject(ms.DropPartition(ctx, "d1", "t1", []string{"2024-01-01"})))

	require.NoError(t, ms.DropTable(ctx, "d1", "t1"))
	require.NoError(t, ms.CreateTable(ctx, Table("d1", "t1")))
	names, err = ms.ListPartitionNames(ctx, "d1", "t1", -1)
	require.NoError(t, err)
	assert.Empty(t, names, "partitions go with their table")
}

func testTransactions(t *testing.T, newStore Factory) {
	ctx := context.Background()
	ms, _ := newStore(t)

	assert.Error(t, ms.CommitTransaction(ctx), "commit without open")
	assert.NoError(t, ms.RollbackTransaction(ctx), "rollback without open is a no-op")

	require.NoError(t, ms.OpenTransaction(ctx))
	assert.True(t, ms.IsActiveTransaction())
	require.NoError(t, ms.CreateDatabase(ctx, &types.Database{Name: "kept"}))
	require.NoError(t, ms.CommitTransaction(ctx))
	assert.False(t, ms.IsActiveTransaction())

	require.NoError(t, ms.OpenTransaction(ctx))
	require.NoError(t, ms.CreateDatabase(ctx, &types.Database{Name: "dropped"}))
	_, err := ms.GetDatabase(ctx, "dropped")
	require.NoError(t, err, "reads see the open transaction")
	require.NoError(t, ms.RollbackTransaction(ctx))

	_, err = ms.GetDatabase(ctx, "dropped")
	assert.True(t, types.IsNoSuchObject(err))
	_, err = ms.GetDatabase(ctx, "kept")
	assert.NoError(t, err)
}

func testNestedTransactions(t *testing.T, newStore Factory) {
	ctx := context.Background()
	ms, _ := newStore(t)

	require.NoError(t, ms.OpenTransaction(ctx))
	require.NoError(t, ms.CreateDatabase(ctx, &types.Database{Name: "outer"}))
	require.NoError(t, ms.OpenTransaction(ctx))
	require.NoError(t, ms.CreateDatabase(ctx, &types.Database{Name: "inner"}))
	require.NoError(t, ms.CommitTransaction(ctx))
	assert.True(t, ms.IsActiveTransaction(), "inner commit leaves the outer open")
	require.NoError(t, ms.RollbackTransaction(ctx))
	assert.False(t, ms.IsActiveTransaction())

	names, err := ms.ListDatabases(ctx)
	require.NoError(t, err)
	assert.Empty(t, names, "outer rollback discards the inner commit")

	require.NoError(t, ms.OpenTransaction(ctx))
	require.NoError(t, ms.OpenTransaction(ctx))
	require.NoError(t, ms.CreateDatabase(ctx, &types.Database{Name: "x"}))
	require.NoError(t, ms.RollbackTransaction(ctx))
	assert.False(t, ms.IsActiveTransaction(), "inner rollback aborts everything")
	require.NoError(t, ms.RollbackTransaction(ctx))
	_, err = ms.GetDatabase(ctx, "x")
	assert.True(t, types.IsNoSuchObject(err))
}

func testIsolation(t *testing.T, newStore Factory) {
	ctx := context.Background()
	a, b := newStore(t)

	require.NoError(t, a.CreateDatabase(ctx, &types.Database{Name: "shared"}))
	_, err := b.GetDatabase(ctx, "shared")
	require.NoError(t, err, "autocommitted writes are visible to other sessions")

	require.NoError(t, a.OpenTransaction(ctx))
	require.NoError(t, a.CreateDatabase(ctx, &types.Database{Name: "pending"}))
	require.NoError(t, a.CommitTransaction(ctx))

	_, err = b.GetDatabase(ctx, "pending")
	require.NoError(t, err)

	require.NoError(t, a.Shutdown(ctx))
	require.NoError(t, b.Shutdown(ctx))
}
