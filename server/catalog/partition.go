package catalog

import (
	"context"
	"strconv"
	"strings"

	"github.com/gear6io/metastore/server/metadata"
	"github.com/gear6io/metastore/server/types"
	"github.com/gear6io/metastore/server/warehouse"
)

// partitionTable loads the table a new partition belongs to.
func partitionTable(ctx context.Context, ms metadata.RawStore, dbName, tableName string) (*types.Table, error) {
	tbl, err := ms.GetTable(ctx, dbName, tableName)
	if types.IsNoSuchObject(err) {
		return nil, types.NewInvalidObject("unable to add partition because table or database do not exist")
	}
	if err != nil {
		return nil, err
	}
	if tbl.Sd == nil || tbl.IsView() {
		return nil, types.NewInvalidObject("table %s.%s cannot hold partitions", dbName, tableName)
	}
	return tbl, nil
}

func rejectExisting(ctx context.Context, ms metadata.RawStore, part *types.Partition) error {
	_, err := ms.GetPartition(ctx, part.DBName, part.TableName, part.Values)
	if err == nil {
		return types.NewAlreadyExists("partition %v of %s.%s already exists", part.Values, part.DBName, part.TableName)
	}
	if types.IsNoSuchObject(err) {
		return nil
	}
	return err
}

// storePartition runs the shared tail of every partition create: directory,
// timestamps, store insert and commit, all inside its own (possibly nested)
// transaction.
func (h *Handler) storePartition(ctx context.Context, tx *txn, part *types.Partition, location warehouse.Path) error {
	part.Sd.Location = location.String()
	if err := tx.mkdirIfAbsent(location); err != nil {
		return err
	}

	now := nowSeconds()
	part.CreateTime = now
	part.SetParameter(types.DDLTimeKey, strconv.FormatInt(now, 10))

	if err := tx.ms.AddPartition(ctx, part); err != nil {
		return err
	}
	return tx.commit()
}

// AppendPartition creates the partition with the given values at its
// default location, inheriting the table's storage descriptor.
func (h *Handler) AppendPartition(ctx context.Context, dbName, tableName string, values []string) (part *types.Partition, err error) {
	defer h.start(ctx, "append_partition", dbName, tableName)(&err)
	h.logger.Debug().Strs("values", values).Msg("Appending partition")

	ms, err := h.getMS(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := h.begin(ctx, ms)
	if err != nil {
		return nil, err
	}
	defer tx.finish()

	tbl, err := partitionTable(ctx, ms, dbName, tableName)
	if err != nil {
		return nil, err
	}
	part = &types.Partition{
		DBName:    dbName,
		TableName: tableName,
		Values:    append([]string(nil), values...),
		Sd:        tbl.Sd.Clone(),
	}
	location, err := h.wh.DefaultPartitionPath(tbl.Sd.Location, tbl.PartitionKeyNames(), values)
	if err != nil {
		return nil, err
	}
	if err := rejectExisting(ctx, ms, part); err != nil {
		return nil, err
	}
	if err := h.storePartition(ctx, tx, part, location); err != nil {
		return nil, err
	}
	return part, nil
}

func (h *Handler) addPartition(ctx context.Context, ms metadata.RawStore, part *types.Partition) (*types.Partition, error) {
	if part == nil {
		return nil, types.NewInvalidObject("partition definition is missing")
	}
	part = part.Clone()

	tx, err := h.begin(ctx, ms)
	if err != nil {
		return nil, err
	}
	defer tx.finish()

	if err := rejectExisting(ctx, ms, part); err != nil {
		return nil, err
	}
	tbl, err := partitionTable(ctx, ms, part.DBName, part.TableName)
	if err != nil {
		return nil, err
	}
	if part.Sd == nil {
		part.Sd = tbl.Sd.Clone()
		part.Sd.Location = ""
	}

	var location warehouse.Path
	if part.Sd.Location == "" {
		location, err = h.wh.DefaultPartitionPath(tbl.Sd.Location, tbl.PartitionKeyNames(), part.Values)
	} else {
		location, err = h.wh.Resolve(part.Sd.Location)
	}
	if err != nil {
		return nil, err
	}
	if err := h.storePartition(ctx, tx, part, location); err != nil {
		return nil, err
	}
	return part, nil
}

// AddPartition creates part. An explicit location is qualified and kept,
// otherwise the partition lives under its table.
func (h *Handler) AddPartition(ctx context.Context, part *types.Partition) (added *types.Partition, err error) {
	if part == nil {
		return nil, types.NewInvalidObject("partition definition is missing")
	}
	defer h.start(ctx, "add_partition", part.DBName, part.TableName)(&err)

	ms, err := h.getMS(ctx)
	if err != nil {
		return nil, err
	}
	return h.addPartition(ctx, ms, part)
}

// AddPartitions adds every partition in one transaction: all of them are
// recorded or none is. Directories created before a failing element are
// left behind.
func (h *Handler) AddPartitions(ctx context.Context, parts []*types.Partition) (n int, err error) {
	if len(parts) == 0 {
		return 0, nil
	}
	var dbName, tableName string
	if parts[0] != nil {
		dbName, tableName = parts[0].DBName, parts[0].TableName
	}
	defer h.start(ctx, "add_partitions", dbName, tableName)(&err)

	ms, err := h.getMS(ctx)
	if err != nil {
		return 0, err
	}
	tx, err := h.begin(ctx, ms)
	if err != nil {
		return 0, err
	}
	defer tx.finish()

	for _, part := range parts {
		if _, err := h.addPartition(ctx, ms, part); err != nil {
			return 0, err
		}
	}
	if err := tx.commit(); err != nil {
		return 0, err
	}
	return len(parts), nil
}

// DropPartition removes a partition. With deleteData its directory is
// deleted after commit unless the table is external.
func (h *Handler) DropPartition(ctx context.Context, dbName, tableName string, values []string, deleteData bool) (dropped bool, err error) {
	defer h.start(ctx, "drop_partition", dbName, tableName)(&err)
	h.logger.Info().Strs("values", values).Msg("Dropping partition")

	ms, err := h.getMS(ctx)
	if err != nil {
		return false, err
	}
	tx, err := h.begin(ctx, ms)
	if err != nil {
		return false, err
	}
	defer tx.finish()

	part, err := ms.GetPartition(ctx, dbName, tableName, values)
	if err != nil {
		return false, err
	}
	if part.Sd == nil || part.Sd.Location == "" {
		return false, types.NewSystemFailure(nil, "partition metadata is corrupted")
	}
	if err := ms.DropPartition(ctx, dbName, tableName, values); err != nil {
		return false, err
	}
	if err := tx.commit(); err != nil {
		return false, err
	}

	if deleteData {
		tbl, err := ms.GetTable(ctx, dbName, tableName)
		if err != nil {
			h.logger.Warn().Err(err).Msg("Unable to load table after dropping partition, keeping its data")
		} else if !tbl.IsExternal() {
			h.deleteData(ctx, part.Sd.Location)
		}
	}
	return true, nil
}

func (h *Handler) GetPartition(ctx context.Context, dbName, tableName string, values []string) (part *types.Partition, err error) {
	defer h.start(ctx, "get_partition", dbName, tableName)(&err)

	ms, err := h.getMS(ctx)
	if err != nil {
		return nil, err
	}
	return ms.GetPartition(ctx, dbName, tableName, values)
}

// GetPartitions returns at most max partitions; max < 0 returns all.
func (h *Handler) GetPartitions(ctx context.Context, dbName, tableName string, max int) (parts []*types.Partition, err error) {
	defer h.start(ctx, "get_partitions", dbName, tableName)(&err)

	ms, err := h.getMS(ctx)
	if err != nil {
		return nil, err
	}
	return ms.ListPartitions(ctx, dbName, tableName, max)
}

func (h *Handler) GetPartitionNames(ctx context.Context, dbName, tableName string, max int) (names []string, err error) {
	defer h.start(ctx, "get_partition_names", dbName, tableName)(&err)

	ms, err := h.getMS(ctx)
	if err != nil {
		return nil, err
	}
	return ms.ListPartitionNames(ctx, dbName, tableName, max)
}

// GetPartitionByName decodes name ("k1=v1/k2=v2"), orders the values by
// the table's partition keys and looks the partition up.
func (h *Handler) GetPartitionByName(ctx context.Context, dbName, tableName, name string) (part *types.Partition, err error) {
	defer h.start(ctx, "get_partition_by_name", dbName, tableName)(&err)

	spec, err := warehouse.MakeSpecFromName(name)
	if err != nil {
		return nil, err
	}

	ms, err := h.getMS(ctx)
	if err != nil {
		return nil, err
	}
	tbl, err := ms.GetTable(ctx, dbName, tableName)
	if err != nil {
		return nil, err
	}

	values := make([]string, 0, len(tbl.PartitionKeys))
	for _, key := range tbl.PartitionKeys {
		v, ok := spec.Get(strings.ToLower(key.Name))
		if !ok {
			return nil, types.NewNoSuchObject("incomplete partition name - missing %s", key.Name)
		}
		values = append(values, v)
	}
	return ms.GetPartition(ctx, dbName, tableName, values)
}

// AlterPartition stamps the DDL time and hands the change to the alter
// strategy. Any failure is reported as an invalid operation.
func (h *Handler) AlterPartition(ctx context.Context, dbName, tableName string, newPart *types.Partition) (err error) {
	defer h.start(ctx, "alter_partition", dbName, tableName)(&err)

	if newPart == nil {
		return types.NewInvalidOperation("new partition is invalid")
	}
	h.logger.Info().Strs("values", newPart.Values).Msg("Altering partition")
	newPart = newPart.Clone()
	newPart.SetParameter(types.DDLTimeKey, strconv.FormatInt(nowSeconds(), 10))

	ms, err := h.getMS(ctx)
	if err != nil {
		return err
	}
	if err := h.alter.AlterPartition(ctx, ms, h.wh, dbName, tableName, newPart); err != nil {
		if types.IsInvalidOperation(err) {
			return err
		}
		return types.NewInvalidOperation("alter is not possible").WithCause(err)
	}
	return nil
}
