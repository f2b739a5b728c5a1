package registry

import "github.com/gear6io/metastore/pkg/errors"

// Package-specific error codes for registry operations
var (
	RegistryOpenFailed         = errors.MustNewCode("registry.open_failed")
	RegistryMigrationFailed    = errors.MustNewCode("registry.migration_failed")
	RegistrySchemaVerification = errors.MustNewCode("registry.schema_verification_failed")
	RegistryQueryFailed        = errors.MustNewCode("registry.query_failed")
	RegistryTransactionFailed  = errors.MustNewCode("registry.transaction_failed")
)
