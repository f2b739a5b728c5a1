package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/gear6io/metastore/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config represents the server configuration
type Config struct {
	Log        LogConfig         `yaml:"log"`
	Server     ServerConfig      `yaml:"server"`
	Store      StoreConfig       `yaml:"store"`
	Warehouse  WarehouseConfig   `yaml:"warehouse"`
	Catalog    CatalogConfig     `yaml:"catalog"`
	Properties map[string]string `yaml:"properties"` // served by get_config_value
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`      // "json" or "console"
	FilePath   string `yaml:"file_path"`   // Path to log file
	Console    bool   `yaml:"console"`     // Whether to log to console
	MaxSize    int    `yaml:"max_size"`    // Max file size in MB
	MaxBackups int    `yaml:"max_backups"` // Max number of backup files
	MaxAge     int    `yaml:"max_age"`     // Max age in days
	Cleanup    bool   `yaml:"cleanup"`     // Whether to cleanup log file on startup
}

// ServerConfig configures the RPC facade and its worker pool
type ServerConfig struct {
	Address    string `yaml:"address"`
	Port       int    `yaml:"port"`
	MinWorkers int    `yaml:"min_workers"`
	QueueSize  int    `yaml:"queue_size"`
}

// StoreConfig selects the metadata store implementation
type StoreConfig struct {
	Impl string `yaml:"impl"`
	Path string `yaml:"path"` // sqlite database file
}

// WarehouseConfig roots every default location
type WarehouseConfig struct {
	Dir        string   `yaml:"dir"`
	FileSystem string   `yaml:"filesystem"`
	S3         S3Config `yaml:"s3"`
}

// S3Config holds the object store connection for s3:// warehouses
type S3Config struct {
	Endpoint     string `yaml:"endpoint"`
	AccessKey    string `yaml:"access_key"`
	SecretKey    string `yaml:"secret_key"`
	Region       string `yaml:"region"`
	UseSSL       bool   `yaml:"use_ssl"`
	PathStyle    bool   `yaml:"path_style"`
	CreateBucket bool   `yaml:"create_bucket"`
}

// CatalogConfig tunes orchestrator behaviour
type CatalogConfig struct {
	AlterImpl         string `yaml:"alter_impl"`
	CheckForDefaultDb bool   `yaml:"check_for_default_db"`
}

// LoadDefaultConfig returns a default configuration
func LoadDefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:      "info",
			Format:     "console",
			FilePath:   "logs/metastore.log",
			Console:    true,
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
			Cleanup:    false,
		},
		Server: ServerConfig{
			Address:    DEFAULT_SERVER_ADDRESS,
			Port:       DEFAULT_SERVER_PORT,
			MinWorkers: DEFAULT_MIN_WORKERS,
			QueueSize:  DEFAULT_QUEUE_SIZE,
		},
		Store: StoreConfig{
			Impl: STORE_SQLITE,
			Path: "./data/metastore.db",
		},
		Warehouse: WarehouseConfig{
			Dir:        "./data/warehouse",
			FileSystem: FS_LOCAL,
		},
		Catalog: CatalogConfig{
			AlterImpl:         ALTER_RENAME_MOVE,
			CheckForDefaultDb: true,
		},
		Properties: map[string]string{},
	}
}

// LoadConfig loads configuration from a file on top of the defaults
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.New(ErrConfigFileReadFailed, "failed to read config file", err).AddContext("file", filename)
	}

	config := LoadDefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.New(ErrConfigFileParseFailed, "failed to parse config file", err).AddContext("file", filename)
	}

	if err := config.Validate(); err != nil {
		return nil, errors.New(ErrConfigValidationFailed, "configuration validation failed", err)
	}

	return config, nil
}

// SaveConfig saves configuration to a file
func SaveConfig(config *Config, filename string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return errors.New(ErrConfigFileMarshalFailed, "failed to marshal config", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return errors.New(ErrConfigFileWriteFailed, "failed to write config file", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if !IsValidPort(c.Server.Port) {
		return errors.New(ErrInvalidPort, "server port out of range", nil).AddContext("port", strconv.Itoa(c.Server.Port))
	}
	if c.Server.MinWorkers <= 0 {
		return errors.New(ErrInvalidWorkers, "min_workers must be positive", nil).AddContext("min_workers", strconv.Itoa(c.Server.MinWorkers))
	}
	if c.Store.Impl == "" {
		return errors.New(ErrStoreImplRequired, "store impl is required", nil)
	}
	if c.Store.Impl == STORE_SQLITE && c.Store.Path == "" {
		return errors.New(ErrStorePathRequired, "store path is required for the sqlite store", nil)
	}
	return c.Warehouse.Validate()
}

// Validate validates the warehouse configuration
func (w *WarehouseConfig) Validate() error {
	if w.Dir == "" {
		return errors.New(ErrWarehouseDirRequired, "warehouse dir is required", nil)
	}
	switch w.FileSystem {
	case FS_LOCAL, FS_MEMORY:
	case FS_S3:
		if w.S3.Endpoint == "" {
			return errors.New(ErrS3EndpointRequired, "s3 endpoint is required for the s3 filesystem", nil)
		}
	default:
		return errors.New(ErrUnknownFileSystem, "unknown warehouse filesystem", nil).AddContext("filesystem", w.FileSystem)
	}
	return nil
}

// GetServerAddress returns host:port of the RPC facade
func (c *Config) GetServerAddress() string {
	return c.Server.Address + ":" + strconv.Itoa(c.Server.Port)
}

// Lookup resolves a configuration key. Built-in keys map onto the typed
// sections; anything else is read from Properties.
func (c *Config) Lookup(name string) (string, bool) {
	switch name {
	case KeyWarehouseDir:
		return c.Warehouse.Dir, true
	case KeyRawStoreImpl:
		return c.Store.Impl, true
	case KeyAlterImpl:
		return c.Catalog.AlterImpl, true
	case KeyCheckForDefaultDb:
		return strconv.FormatBool(c.Catalog.CheckForDefaultDb), true
	case KeyServerPort:
		return strconv.Itoa(c.Server.Port), true
	case KeyMinWorkerThreads:
		return strconv.Itoa(c.Server.MinWorkers), true
	case KeyConnectionURL:
		if c.Store.Impl == STORE_SQLITE {
			return "sqlite://" + c.Store.Path, true
		}
		return c.Store.Impl + "://", true
	}
	v, ok := c.Properties[name]
	return v, ok
}

// Get returns the value of name or def when it is unset.
func (c *Config) Get(name, def string) string {
	if v, ok := c.Lookup(name); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return def
}
