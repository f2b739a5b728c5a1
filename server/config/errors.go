package config

import "github.com/gear6io/metastore/pkg/errors"

// Config-specific error codes
var (
	ErrConfigFileReadFailed    = errors.MustNewCode("config.file_read_failed")
	ErrConfigFileParseFailed   = errors.MustNewCode("config.file_parse_failed")
	ErrConfigValidationFailed  = errors.MustNewCode("config.validation_failed")
	ErrConfigFileMarshalFailed = errors.MustNewCode("config.file_marshal_failed")
	ErrConfigFileWriteFailed   = errors.MustNewCode("config.file_write_failed")
	ErrInvalidPort             = errors.MustNewCode("config.invalid_port")
	ErrInvalidWorkers          = errors.MustNewCode("config.invalid_workers")
	ErrStoreImplRequired       = errors.MustNewCode("config.store_impl_required")
	ErrStorePathRequired       = errors.MustNewCode("config.store_path_required")
	ErrWarehouseDirRequired    = errors.MustNewCode("config.warehouse_dir_required")
	ErrUnknownFileSystem       = errors.MustNewCode("config.unknown_filesystem")
	ErrS3EndpointRequired      = errors.MustNewCode("config.s3_endpoint_required")

	// Logging-specific error codes
	ErrLogDirectoryCreationFailed = errors.MustNewCode("config.log_directory_creation_failed")
	ErrLogFilePathRequired        = errors.MustNewCode("config.log_file_path_required")
	ErrLogCleanupFailed           = errors.MustNewCode("config.log_cleanup_failed")
	ErrLogFileWriterSetupFailed   = errors.MustNewCode("config.log_file_writer_setup_failed")
)
