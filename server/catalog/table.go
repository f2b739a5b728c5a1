package catalog

import (
	"context"
	"strconv"
	"time"

	"github.com/gear6io/metastore/server/metadata"
	"github.com/gear6io/metastore/server/types"
	"github.com/gear6io/metastore/server/warehouse"
)

func nowSeconds() int64 {
	return time.Now().Unix()
}

func validateTable(tbl *types.Table) error {
	if tbl == nil {
		return types.NewInvalidObject("table definition is missing")
	}
	if tbl.Sd == nil {
		return types.NewInvalidObject("table %s has no storage descriptor", tbl.TableName)
	}
	if !types.ValidateName(tbl.TableName) ||
		!types.ValidateColNames(tbl.Sd.Cols) ||
		!types.ValidateColNames(tbl.PartitionKeys) {
		return types.NewInvalidObject("%s is not a valid object name", tbl.TableName)
	}
	if key := types.PartitionKeyCollision(tbl.Sd.Cols, tbl.PartitionKeys); key != "" {
		return types.NewInvalidObject("partition key %s of %s is also a column", key, tbl.TableName)
	}
	return nil
}

// exists maps a missing table to false. It is a plain read: a concurrent
// create can still win the race, which the store then reports as a duplicate.
func exists(ctx context.Context, ms metadata.RawStore, dbName, tableName string) (bool, error) {
	_, err := ms.GetTable(ctx, dbName, tableName)
	if types.IsNoSuchObject(err) {
		return false, nil
	}
	return err == nil, err
}

// CreateTable records tbl and creates its directory. Views get no location;
// an explicit location is honoured for external tables only.
func (h *Handler) CreateTable(ctx context.Context, tbl *types.Table) (err error) {
	if tbl == nil {
		return validateTable(tbl)
	}
	defer h.start(ctx, "create_table", tbl.DBName, tbl.TableName)(&err)

	if err := validateTable(tbl); err != nil {
		return err
	}
	tbl = tbl.Clone()

	ms, err := h.getMS(ctx)
	if err != nil {
		return err
	}
	tx, err := h.begin(ctx, ms)
	if err != nil {
		return err
	}
	defer tx.finish()

	if _, err := ms.GetDatabase(ctx, tbl.DBName); err != nil {
		if types.IsNoSuchObject(err) {
			return types.NewInvalidObject("database %s does not exist", tbl.DBName)
		}
		return err
	}

	var tblPath *warehouse.Path
	if tbl.IsView() {
		tbl.Sd.Location = ""
	} else {
		p := h.wh.DefaultTablePath(tbl.DBName, tbl.TableName)
		if tbl.Sd.Location != "" {
			if tbl.IsExternal() {
				if p, err = h.wh.Resolve(tbl.Sd.Location); err != nil {
					return err
				}
			} else {
				h.logger.Warn().
					Str("location", tbl.Sd.Location).
					Str("table", tbl.DBName+"."+tbl.TableName).
					Msg("Location specified for non-external table, using the default location")
			}
		}
		tbl.Sd.Location = p.String()
		tblPath = &p
	}

	found, err := exists(ctx, ms, tbl.DBName, tbl.TableName)
	if err != nil {
		return err
	}
	if found {
		return types.NewAlreadyExists("table %s already exists", tbl.TableName)
	}

	if tblPath != nil {
		if err := tx.mkdirIfAbsent(*tblPath); err != nil {
			return err
		}
	}

	now := nowSeconds()
	tbl.CreateTime = now
	tbl.SetParameter(types.DDLTimeKey, strconv.FormatInt(now, 10))

	if err := ms.CreateTable(ctx, tbl); err != nil {
		return err
	}
	return tx.commit()
}

func (h *Handler) GetTable(ctx context.Context, dbName, tableName string) (tbl *types.Table, err error) {
	defer h.start(ctx, "get_table", dbName, tableName)(&err)

	ms, err := h.getMS(ctx)
	if err != nil {
		return nil, err
	}
	return ms.GetTable(ctx, dbName, tableName)
}

// IsTableExists reports whether the table exists.
func (h *Handler) IsTableExists(ctx context.Context, dbName, tableName string) (found bool, err error) {
	defer h.start(ctx, "is_table_exists", dbName, tableName)(&err)

	ms, err := h.getMS(ctx)
	if err != nil {
		return false, err
	}
	return exists(ctx, ms, dbName, tableName)
}

// DropTable removes the table and its partitions. With deleteData the
// directory of a managed table is deleted once the drop committed.
func (h *Handler) DropTable(ctx context.Context, dbName, tableName string, deleteData bool) (err error) {
	defer h.start(ctx, "drop_table", dbName, tableName)(&err)

	ms, err := h.getMS(ctx)
	if err != nil {
		return err
	}
	tx, err := h.begin(ctx, ms)
	if err != nil {
		return err
	}
	defer tx.finish()

	tbl, err := ms.GetTable(ctx, dbName, tableName)
	if err != nil {
		return err
	}
	if tbl.Sd == nil {
		return types.NewSystemFailure(nil, "table metadata is corrupted")
	}
	external := tbl.IsExternal()
	location := tbl.Sd.Location

	if err := ms.DropTable(ctx, dbName, tableName); err != nil {
		return err
	}
	if err := tx.commit(); err != nil {
		return err
	}

	if deleteData && location != "" && !external {
		h.deleteData(ctx, location)
	}
	return nil
}

// GetTables lists the tables of dbName matching pattern.
func (h *Handler) GetTables(ctx context.Context, dbName, pattern string) (names []string, err error) {
	defer h.start(ctx, "get_tables", dbName, "")(&err)

	ms, err := h.getMS(ctx)
	if err != nil {
		return nil, err
	}
	return ms.ListTables(ctx, dbName, pattern)
}

// AlterTable stamps the DDL time and hands the change to the configured
// alter strategy. Any failure is reported as an invalid operation.
func (h *Handler) AlterTable(ctx context.Context, dbName, tableName string, newTable *types.Table) (err error) {
	defer h.start(ctx, "alter_table", dbName, tableName)(&err)

	if newTable == nil {
		return types.NewInvalidOperation("new table is invalid")
	}
	newTable = newTable.Clone()
	newTable.SetParameter(types.DDLTimeKey, strconv.FormatInt(nowSeconds(), 10))

	ms, err := h.getMS(ctx)
	if err != nil {
		return err
	}
	if err := h.alter.AlterTable(ctx, ms, h.wh, dbName, tableName, newTable); err != nil {
		if types.IsInvalidOperation(err) {
			return err
		}
		return types.NewInvalidOperation("alter is not possible").WithCause(err)
	}
	return nil
}
