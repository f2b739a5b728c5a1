package catalog

import "github.com/gear6io/metastore/pkg/errors"

// Catalog-specific error codes
var (
	CatalogUnknownAlterImpl  = errors.MustNewCode("catalog.unknown_alter_impl")
	CatalogMissingOption     = errors.MustNewCode("catalog.missing_option")
	CatalogSessionOpenFailed = errors.MustNewCode("catalog.session_open_failed")
	CatalogBootstrapFailed   = errors.MustNewCode("catalog.bootstrap_failed")
	CatalogShuttingDown      = errors.MustNewCode("catalog.shutting_down")
	CatalogUnknownFileSystem = errors.MustNewCode("catalog.unknown_filesystem")
)
