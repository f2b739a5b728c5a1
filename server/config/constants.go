package config

const (
	// DEFAULT_SERVER_PORT is the catalog RPC port
	DEFAULT_SERVER_PORT = 9083

	// DEFAULT_SERVER_ADDRESS is the bind address of the RPC facade
	DEFAULT_SERVER_ADDRESS = "0.0.0.0"

	// DEFAULT_MIN_WORKERS is the size of the request worker pool
	DEFAULT_MIN_WORKERS = 200

	// DEFAULT_QUEUE_SIZE bounds requests waiting for a free worker
	DEFAULT_QUEUE_SIZE = 1024
)

// Store implementation identifiers
const (
	STORE_SQLITE = "sqlite"
	STORE_MEMORY = "memory"
)

// Alter strategy identifiers
const (
	ALTER_RENAME_MOVE   = "rename-move"
	ALTER_METADATA_ONLY = "metadata-only"
)

// Filesystem identifiers available to the warehouse
const (
	FS_LOCAL  = "local"
	FS_S3     = "s3"
	FS_MEMORY = "memory"
)

// Built-in configuration keys served by get_config_value
const (
	KeyWarehouseDir      = "hive.metastore.warehouse.dir"
	KeyRawStoreImpl      = "hive.metastore.rawstore.impl"
	KeyAlterImpl         = "hive.metastore.alter.impl"
	KeyCheckForDefaultDb = "hive.metastore.checkForDefaultDb"
	KeyServerPort        = "hive.metastore.port"
	KeyMinWorkerThreads  = "hive.metastore.server.min.threads"
	KeyConnectionURL     = "javax.jdo.option.ConnectionURL"
)

// Port validation constants
const (
	MIN_PORT = 1
	MAX_PORT = 65535
)

// IsValidPort checks if a port number is within valid range
func IsValidPort(port int) bool {
	return port >= MIN_PORT && port <= MAX_PORT
}
