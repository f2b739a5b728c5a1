package warehouse

import "github.com/gear6io/metastore/pkg/errors"

var (
	WarehouseInvalidRoot     = errors.MustNewCode("warehouse.invalid_root")
	WarehouseNoFileSystem    = errors.MustNewCode("warehouse.no_filesystem")
	WarehouseInvalidPath     = errors.MustNewCode("warehouse.invalid_path")
	WarehouseMkdirFailed     = errors.MustNewCode("warehouse.mkdir_failed")
	WarehouseDeleteFailed    = errors.MustNewCode("warehouse.delete_failed")
	WarehouseRenameFailed    = errors.MustNewCode("warehouse.rename_failed")
	WarehouseStatFailed      = errors.MustNewCode("warehouse.stat_failed")
	WarehouseCrossFileSystem = errors.MustNewCode("warehouse.cross_filesystem")
)
