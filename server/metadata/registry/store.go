package registry

import (
	"context"
	"strings"

	"github.com/gear6io/metastore/server/metadata/registry/regtypes"
	"github.com/gear6io/metastore/server/types"
	"github.com/gear6io/metastore/server/warehouse"
	"github.com/uptrace/bun"
)

func lookupDatabase(ctx context.Context, idb bun.IDB, name string) (*regtypes.Database, error) {
	row := new(regtypes.Database)
	err := idb.NewSelect().Model(row).Where("name = ?", strings.ToLower(name)).Limit(1).Scan(ctx)
	if isNoRows(err) {
		return nil, types.NewNoSuchObject("database %s does not exist", name)
	}
	if err != nil {
		return nil, queryFailed(err, "load database")
	}
	return row, nil
}

func lookupTable(ctx context.Context, idb bun.IDB, dbName, tableName string) (*regtypes.Table, error) {
	row := new(regtypes.Table)
	err := idb.NewSelect().Model(row).
		Where("database_id = (SELECT id FROM databases WHERE name = ?)", strings.ToLower(dbName)).
		Where("name = ?", strings.ToLower(tableName)).
		Limit(1).
		Scan(ctx)
	if isNoRows(err) {
		return nil, types.NewNoSuchObject("table %s.%s does not exist", dbName, tableName)
	}
	if err != nil {
		return nil, queryFailed(err, "load table")
	}
	return row, nil
}

// partitionName derives the stored name of a partition of row from its values.
func partitionName(row *regtypes.Table, values []string) (string, error) {
	var keys []types.FieldSchema
	if err := decode(row.PartitionKeys, &keys); err != nil {
		return "", err
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.Name
	}
	return warehouse.MakePartName(names, values)
}

func (s *Session) CreateDatabase(ctx context.Context, db *types.Database) error {
	return s.atomic(ctx, func(idb bun.IDB) error {
		row := &regtypes.Database{
			Name:        strings.ToLower(db.Name),
			Description: db.Description,
			LocationURI: db.LocationURI,
		}
		row.Touch(now())
		if _, err := idb.NewInsert().Model(row).Exec(ctx); err != nil {
			if isUniqueViolation(err) {
				return types.NewAlreadyExists("database %s already exists", db.Name)
			}
			return queryFailed(err, "insert database")
		}
		return nil
	})
}

func (s *Session) GetDatabase(ctx context.Context, name string) (*types.Database, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	row, err := lookupDatabase(ctx, s.idb(), name)
	if err != nil {
		return nil, err
	}
	return fromDatabaseRow(row), nil
}

func (s *Session) DropDatabase(ctx context.Context, name string) error {
	return s.atomic(ctx, func(idb bun.IDB) error {
		res, err := idb.NewDelete().Model((*regtypes.Database)(nil)).Where("name = ?", strings.ToLower(name)).Exec(ctx)
		if err != nil {
			return queryFailed(err, "delete database")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return types.NewNoSuchObject("database %s does not exist", name)
		}
		return nil
	})
}

func (s *Session) ListDatabases(ctx context.Context) ([]string, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	var names []string
	if err := s.idb().NewSelect().Model((*regtypes.Database)(nil)).Column("name").Order("name ASC").Scan(ctx, &names); err != nil {
		return nil, queryFailed(err, "list databases")
	}
	return names, nil
}

func (s *Session) CreateType(ctx context.Context, t *types.Type) error {
	return s.atomic(ctx, func(idb bun.IDB) error {
		row, err := toTypeRow(t)
		if err != nil {
			return err
		}
		row.Touch(now())
		if _, err := idb.NewInsert().Model(row).Exec(ctx); err != nil {
			if isUniqueViolation(err) {
				return types.NewAlreadyExists("type %s already exists", t.Name)
			}
			return queryFailed(err, "insert type")
		}
		return nil
	})
}

func (s *Session) GetType(ctx context.Context, name string) (*types.Type, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	row := new(regtypes.CatalogType)
	err := s.idb().NewSelect().Model(row).Where("name = ?", name).Limit(1).Scan(ctx)
	if isNoRows(err) {
		return nil, types.NewNoSuchObject("type %s does not exist", name)
	}
	if err != nil {
		return nil, queryFailed(err, "load type")
	}
	return fromTypeRow(row)
}

func (s *Session) DropType(ctx context.Context, name string) error {
	return s.atomic(ctx, func(idb bun.IDB) error {
		res, err := idb.NewDelete().Model((*regtypes.CatalogType)(nil)).Where("name = ?", name).Exec(ctx)
		if err != nil {
			return queryFailed(err, "delete type")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return types.NewNoSuchObject("type %s does not exist", name)
		}
		return nil
	})
}

func (s *Session) CreateTable(ctx context.Context, tbl *types.Table) error {
	return s.atomic(ctx, func(idb bun.IDB) error {
		db, err := lookupDatabase(ctx, idb, tbl.DBName)
		if types.IsNoSuchObject(err) {
			return types.NewInvalidObject("database %s does not exist", tbl.DBName)
		}
		if err != nil {
			return err
		}
		row, err := toTableRow(tbl, db.ID)
		if err != nil {
			return err
		}
		row.Touch(now())
		if _, err := idb.NewInsert().Model(row).Exec(ctx); err != nil {
			if isUniqueViolation(err) {
				return types.NewAlreadyExists("table %s.%s already exists", tbl.DBName, tbl.TableName)
			}
			return queryFailed(err, "insert table")
		}
		return nil
	})
}

func (s *Session) GetTable(ctx context.Context, dbName, tableName string) (*types.Table, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	row, err := lookupTable(ctx, s.idb(), dbName, tableName)
	if err != nil {
		return nil, err
	}
	return fromTableRow(row, strings.ToLower(dbName))
}

func (s *Session) DropTable(ctx context.Context, dbName, tableName string) error {
	return s.atomic(ctx, func(idb bun.IDB) error {
		row, err := lookupTable(ctx, idb, dbName, tableName)
		if err != nil {
			return err
		}
		if _, err := idb.NewDelete().Model(row).WherePK().Exec(ctx); err != nil {
			return queryFailed(err, "delete table")
		}
		return nil
	})
}

func (s *Session) ListTables(ctx context.Context, dbName, pattern string) ([]string, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	var names []string
	err := s.idb().NewSelect().Model((*regtypes.Table)(nil)).
		Column("name").
		Where("database_id = (SELECT id FROM databases WHERE name = ?)", strings.ToLower(dbName)).
		Scan(ctx, &names)
	if err != nil {
		return nil, queryFailed(err, "list tables")
	}
	return types.FilterNames(names, pattern)
}

func (s *Session) AlterTable(ctx context.Context, dbName, tableName string, newTable *types.Table) error {
	return s.atomic(ctx, func(idb bun.IDB) error {
		old, err := lookupTable(ctx, idb, dbName, tableName)
		if types.IsNoSuchObject(err) {
			return types.NewInvalidObject("table %s.%s does not exist", dbName, tableName)
		}
		if err != nil {
			return err
		}

		databaseID := old.DatabaseID
		if !strings.EqualFold(newTable.DBName, dbName) {
			db, err := lookupDatabase(ctx, idb, newTable.DBName)
			if types.IsNoSuchObject(err) {
				return types.NewInvalidObject("database %s does not exist", newTable.DBName)
			}
			if err != nil {
				return err
			}
			databaseID = db.ID
		}

		row, err := toTableRow(newTable, databaseID)
		if err != nil {
			return err
		}
		row.ID = old.ID
		row.CreatedAt = old.CreatedAt
		row.Touch(now())
		if _, err := idb.NewUpdate().Model(row).WherePK().Exec(ctx); err != nil {
			if isUniqueViolation(err) {
				return types.NewAlreadyExists("table %s.%s already exists", newTable.DBName, newTable.TableName)
			}
			return queryFailed(err, "update table")
		}
		return nil
	})
}

func (s *Session) AddPartition(ctx context.Context, part *types.Partition) error {
	return s.atomic(ctx, func(idb bun.IDB) error {
		tbl, err := lookupTable(ctx, idb, part.DBName, part.TableName)
		if types.IsNoSuchObject(err) {
			return types.NewInvalidObject("partition does not have a valid table %s.%s", part.DBName, part.TableName)
		}
		if err != nil {
			return err
		}
		name, err := partitionName(tbl, part.Values)
		if err != nil {
			return err
		}
		row, err := toPartitionRow(part, tbl.ID, name)
		if err != nil {
			return err
		}
		row.Touch(now())
		if _, err := idb.NewInsert().Model(row).Exec(ctx); err != nil {
			if isUniqueViolation(err) {
				return types.NewAlreadyExists("partition %s of %s.%s already exists", name, part.DBName, part.TableName)
			}
			return queryFailed(err, "insert partition")
		}
		return nil
	})
}

func lookupPartition(ctx context.Context, idb bun.IDB, dbName, tableName string, values []string) (*regtypes.Partition, error) {
	tbl, err := lookupTable(ctx, idb, dbName, tableName)
	if err != nil {
		return nil, err
	}
	name, err := partitionName(tbl, values)
	if err != nil {
		return nil, types.NewNoSuchObject("partition %v of %s.%s does not exist", values, dbName, tableName).WithCause(err)
	}
	row := new(regtypes.Partition)
	err = idb.NewSelect().Model(row).Where("table_id = ?", tbl.ID).Where("part_name = ?", name).Limit(1).Scan(ctx)
	if isNoRows(err) {
		return nil, types.NewNoSuchObject("partition %s of %s.%s does not exist", name, dbName, tableName)
	}
	if err != nil {
		return nil, queryFailed(err, "load partition")
	}
	return row, nil
}

func (s *Session) GetPartition(ctx context.Context, dbName, tableName string, values []string) (*types.Partition, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	row, err := lookupPartition(ctx, s.idb(), dbName, tableName, values)
	if err != nil {
		return nil, err
	}
	return fromPartitionRow(row, strings.ToLower(dbName), strings.ToLower(tableName))
}

func (s *Session) DropPartition(ctx context.Context, dbName, tableName string, values []string) error {
	return s.atomic(ctx, func(idb bun.IDB) error {
		row, err := lookupPartition(ctx, idb, dbName, tableName, values)
		if err != nil {
			return err
		}
		if _, err := idb.NewDelete().Model(row).WherePK().Exec(ctx); err != nil {
			return queryFailed(err, "delete partition")
		}
		return nil
	})
}

func (s *Session) partitionQuery(ctx context.Context, dbName, tableName string, max int) (*bun.SelectQuery, bool, error) {
	tbl, err := lookupTable(ctx, s.idb(), dbName, tableName)
	if types.IsNoSuchObject(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	q := s.idb().NewSelect().Model((*regtypes.Partition)(nil)).Where("table_id = ?", tbl.ID).Order("part_name ASC")
	if max >= 0 {
		q = q.Limit(max)
	}
	return q, true, nil
}

func (s *Session) ListPartitions(ctx context.Context, dbName, tableName string, max int) ([]*types.Partition, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	if max == 0 {
		return []*types.Partition{}, nil
	}
	q, ok, err := s.partitionQuery(ctx, dbName, tableName, max)
	if err != nil || !ok {
		return []*types.Partition{}, err
	}
	var rows []regtypes.Partition
	if err := q.Model(&rows).Scan(ctx); err != nil {
		return nil, queryFailed(err, "list partitions")
	}
	out := make([]*types.Partition, 0, len(rows))
	for i := range rows {
		p, err := fromPartitionRow(&rows[i], strings.ToLower(dbName), strings.ToLower(tableName))
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *Session) ListPartitionNames(ctx context.Context, dbName, tableName string, max int) ([]string, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	if max == 0 {
		return []string{}, nil
	}
	q, ok, err := s.partitionQuery(ctx, dbName, tableName, max)
	if err != nil || !ok {
		return []string{}, err
	}
	var names []string
	if err := q.Column("part_name").Scan(ctx, &names); err != nil {
		return nil, queryFailed(err, "list partition names")
	}
	return names, nil
}

func (s *Session) AlterPartition(ctx context.Context, dbName, tableName string, newPart *types.Partition) error {
	return s.atomic(ctx, func(idb bun.IDB) error {
		old, err := lookupPartition(ctx, idb, dbName, tableName, newPart.Values)
		if err != nil {
			return types.NewInvalidObject("partition does not exist").WithCause(err)
		}
		row, err := toPartitionRow(newPart, old.TableID, old.PartName)
		if err != nil {
			return err
		}
		row.ID = old.ID
		row.CreatedAt = old.CreatedAt
		row.Touch(now())
		if _, err := idb.NewUpdate().Model(row).WherePK().Exec(ctx); err != nil {
			return queryFailed(err, "update partition")
		}
		return nil
	})
}
