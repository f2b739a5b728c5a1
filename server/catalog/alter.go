package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/gear6io/metastore/pkg/errors"
	"github.com/gear6io/metastore/server/config"
	"github.com/gear6io/metastore/server/metadata"
	"github.com/gear6io/metastore/server/types"
	"github.com/gear6io/metastore/server/warehouse"
	"github.com/rs/zerolog"
)

// AlterHandler applies a new table or partition definition. Implementations
// own validation and the store mutation.
type AlterHandler interface {
	AlterTable(ctx context.Context, ms metadata.RawStore, wh *warehouse.Warehouse, dbName, tableName string, newTable *types.Table) error
	AlterPartition(ctx context.Context, ms metadata.RawStore, wh *warehouse.Warehouse, dbName, tableName string, newPart *types.Partition) error
}

// AlterFactory builds an AlterHandler.
type AlterFactory func(logger zerolog.Logger) AlterHandler

var (
	alterMu       sync.RWMutex
	alterHandlers = map[string]AlterFactory{}
)

func init() {
	RegisterAlterHandler(config.ALTER_RENAME_MOVE, func(logger zerolog.Logger) AlterHandler {
		return &RenameMoveAlter{logger: logger.With().Str("alter", config.ALTER_RENAME_MOVE).Logger()}
	})
	RegisterAlterHandler(config.ALTER_METADATA_ONLY, func(logger zerolog.Logger) AlterHandler {
		return &MetadataOnlyAlter{logger: logger.With().Str("alter", config.ALTER_METADATA_ONLY).Logger()}
	})
}

// RegisterAlterHandler makes an alter strategy available under name.
func RegisterAlterHandler(name string, f AlterFactory) {
	alterMu.Lock()
	defer alterMu.Unlock()
	alterHandlers[name] = f
}

// NewAlterHandler builds the strategy registered under name.
func NewAlterHandler(name string, logger zerolog.Logger) (AlterHandler, error) {
	alterMu.RLock()
	f, ok := alterHandlers[name]
	names := make([]string, 0, len(alterHandlers))
	for n := range alterHandlers {
		names = append(names, n)
	}
	alterMu.RUnlock()

	if !ok {
		sort.Strings(names)
		return nil, errors.New(CatalogUnknownAlterImpl, "unknown alter implementation", nil).
			AddContext("impl", name).
			AddContext("registered", strings.Join(names, ","))
	}
	return f(logger), nil
}

func validateNewTable(newTable *types.Table) error {
	if newTable == nil || !types.ValidateName(newTable.TableName) {
		return types.NewInvalidOperation("new table is invalid")
	}
	if newTable.Sd == nil || !types.ValidateColNames(newTable.Sd.Cols) {
		return types.NewInvalidOperation("invalid column names in new table %s", newTable.TableName)
	}
	return nil
}

func samePartitionKeys(a, b []types.FieldSchema) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(a[i].Name, b[i].Name) || !strings.EqualFold(a[i].Type, b[i].Type) {
			return false
		}
	}
	return true
}

// loadForAlter validates newTable against the stored table and fills in
// the identity and location fields a client may leave empty.
func loadForAlter(ctx context.Context, ms metadata.RawStore, dbName, tableName string, newTable *types.Table) (*types.Table, error) {
	if err := validateNewTable(newTable); err != nil {
		return nil, err
	}
	old, err := ms.GetTable(ctx, dbName, tableName)
	if err != nil {
		return nil, types.NewInvalidOperation("table %s.%s doesn't exist", dbName, tableName).WithCause(err)
	}
	if !samePartitionKeys(old.PartitionKeys, newTable.PartitionKeys) {
		return nil, types.NewInvalidOperation("partition keys can not be changed")
	}
	if newTable.DBName == "" {
		newTable.DBName = dbName
	}
	return old, nil
}

// rollback aborts the alter transaction. The caller reports its own error,
// so a failed rollback is only logged.
func rollback(ctx context.Context, ms metadata.RawStore, logger zerolog.Logger) {
	if err := ms.RollbackTransaction(ctx); err != nil {
		logger.Error().Err(err).Str("session", ms.ID()).Msg("Rollback failed")
	}
}

// MetadataOnlyAlter rewrites the stored definition and never touches the
// filesystem.
type MetadataOnlyAlter struct {
	logger zerolog.Logger
}

func (a *MetadataOnlyAlter) AlterTable(ctx context.Context, ms metadata.RawStore, wh *warehouse.Warehouse, dbName, tableName string, newTable *types.Table) error {
	if err := ms.OpenTransaction(ctx); err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			rollback(ctx, ms, a.logger)
		}
	}()

	old, err := loadForAlter(ctx, ms, dbName, tableName, newTable)
	if err != nil {
		return err
	}
	if err := qualifyTableLocation(wh, old, newTable); err != nil {
		return err
	}
	if err := ms.AlterTable(ctx, dbName, tableName, newTable); err != nil {
		return err
	}
	if err := ms.CommitTransaction(ctx); err != nil {
		return err
	}
	committed = true
	return nil
}

func (a *MetadataOnlyAlter) AlterPartition(ctx context.Context, ms metadata.RawStore, wh *warehouse.Warehouse, dbName, tableName string, newPart *types.Partition) error {
	return alterPartition(ctx, ms, wh, dbName, tableName, newPart)
}

// qualifyTableLocation keeps the stored location when newTable has none.
func qualifyTableLocation(wh *warehouse.Warehouse, old, newTable *types.Table) error {
	if newTable.IsView() {
		newTable.Sd.Location = ""
		return nil
	}
	if newTable.Sd.Location == "" {
		newTable.Sd.Location = old.Location()
		return nil
	}
	loc, err := wh.Qualify(newTable.Sd.Location)
	if err != nil {
		return err
	}
	newTable.Sd.Location = loc
	return nil
}

func alterPartition(ctx context.Context, ms metadata.RawStore, wh *warehouse.Warehouse, dbName, tableName string, newPart *types.Partition) error {
	if newPart.Sd == nil {
		return types.NewInvalidOperation("new partition has no storage descriptor")
	}
	if newPart.Sd.Location != "" {
		loc, err := wh.Qualify(newPart.Sd.Location)
		if err != nil {
			return err
		}
		newPart.Sd.Location = loc
	}
	if newPart.DBName == "" {
		newPart.DBName = dbName
	}
	if newPart.TableName == "" {
		newPart.TableName = tableName
	}
	return ms.AlterPartition(ctx, dbName, tableName, newPart)
}

// RenameMoveAlter moves the directory of a renamed managed table to its new
// default location and rewrites the locations of the partitions below it.
type RenameMoveAlter struct {
	logger zerolog.Logger
}

func (a *RenameMoveAlter) AlterPartition(ctx context.Context, ms metadata.RawStore, wh *warehouse.Warehouse, dbName, tableName string, newPart *types.Partition) error {
	return alterPartition(ctx, ms, wh, dbName, tableName, newPart)
}

func (a *RenameMoveAlter) AlterTable(ctx context.Context, ms metadata.RawStore, wh *warehouse.Warehouse, dbName, tableName string, newTable *types.Table) error {
	if err := ms.OpenTransaction(ctx); err != nil {
		return err
	}
	committed := false
	var moved *[2]warehouse.Path
	defer func() {
		if committed {
			return
		}
		rollback(ctx, ms, a.logger)
		if moved != nil {
			if err := wh.Rename(ctx, moved[1], moved[0]); err != nil {
				a.logger.Error().Err(err).
					Str("src", moved[1].String()).
					Str("dst", moved[0].String()).
					Msg("Unable to move table data back after failed alter")
			}
		}
	}()

	old, err := loadForAlter(ctx, ms, dbName, tableName, newTable)
	if err != nil {
		return err
	}

	rename := !strings.EqualFold(dbName, newTable.DBName) || !strings.EqualFold(tableName, newTable.TableName)
	oldLoc := old.Location()
	moveData := rename && !old.IsExternal() && !old.IsView() && oldLoc != "" &&
		(newTable.Sd.Location == "" || newTable.Sd.Location == oldLoc)
	if !moveData {
		if err := qualifyTableLocation(wh, old, newTable); err != nil {
			return err
		}
		if err := ms.AlterTable(ctx, dbName, tableName, newTable); err != nil {
			return err
		}
		if err := ms.CommitTransaction(ctx); err != nil {
			return err
		}
		committed = true
		return nil
	}

	src, err := wh.Resolve(oldLoc)
	if err != nil {
		return err
	}
	dst := wh.DefaultTablePath(newTable.DBName, newTable.TableName)
	if !wh.SameFileSystem(src, dst) {
		return types.NewInvalidOperation("table new location %s is on a different file system than the old location %s", dst, src)
	}
	taken, err := wh.Exists(ctx, dst)
	if err != nil {
		return err
	}
	if taken {
		return types.NewInvalidOperation("new location for this table %s.%s already exists: %s", newTable.DBName, newTable.TableName, dst)
	}
	newTable.Sd.Location = dst.String()

	parts, err := ms.ListPartitions(ctx, dbName, tableName, -1)
	if err != nil {
		return err
	}
	for _, p := range parts {
		if p.Sd == nil || p.Sd.Location == "" {
			continue
		}
		loc, err := wh.Resolve(p.Sd.Location)
		if err != nil || !loc.IsUnder(src) {
			continue
		}
		p.Sd.Location = dst.Join(strings.TrimPrefix(loc.Path, src.Path)).String()
		if err := ms.AlterPartition(ctx, dbName, tableName, p); err != nil {
			return err
		}
	}

	if err := ms.AlterTable(ctx, dbName, tableName, newTable); err != nil {
		return err
	}

	srcExists, err := wh.Exists(ctx, src)
	if err != nil {
		return err
	}
	if srcExists {
		if err := wh.Rename(ctx, src, dst); err != nil {
			return err
		}
		moved = &[2]warehouse.Path{src, dst}
	}

	if err := ms.CommitTransaction(ctx); err != nil {
		return err
	}
	committed = true
	a.logger.Info().Str("src", src.String()).Str("dst", dst.String()).Msg("Moved table data")
	return nil
}
