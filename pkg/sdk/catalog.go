package sdk

import (
	"context"

	"github.com/gear6io/metastore/server/types"
)

// request mirrors the server's operation arguments.
type request struct {
	DB         string             `json:"db,omitempty"`
	Table      string             `json:"table,omitempty"`
	Name       string             `json:"name,omitempty"`
	Location   string             `json:"location,omitempty"`
	Pattern    string             `json:"pattern,omitempty"`
	PartName   string             `json:"part_name,omitempty"`
	Default    string             `json:"default,omitempty"`
	Values     []string           `json:"values,omitempty"`
	DeleteData bool               `json:"delete_data,omitempty"`
	Max        *int               `json:"max,omitempty"`
	TableDef   *types.Table       `json:"table_def,omitempty"`
	Partition  *types.Partition   `json:"partition,omitempty"`
	Partitions []*types.Partition `json:"partitions,omitempty"`
	UserType   *types.Type        `json:"type,omitempty"`
}

// Databases

func (c *Client) CreateDatabase(ctx context.Context, name, location string) error {
	return c.call(ctx, "create_database", &request{Name: name, Location: location}, nil)
}

func (c *Client) GetDatabase(ctx context.Context, name string) (*types.Database, error) {
	var db types.Database
	if err := c.call(ctx, "get_database", &request{Name: name}, &db); err != nil {
		return nil, err
	}
	return &db, nil
}

func (c *Client) DropDatabase(ctx context.Context, name string) error {
	return c.call(ctx, "drop_database", &request{Name: name}, nil)
}

func (c *Client) GetDatabases(ctx context.Context) ([]string, error) {
	var names []string
	err := c.call(ctx, "get_databases", &request{}, &names)
	return names, err
}

// Types

func (c *Client) CreateType(ctx context.Context, t *types.Type) error {
	return c.call(ctx, "create_type", &request{UserType: t}, nil)
}

func (c *Client) GetType(ctx context.Context, name string) (*types.Type, error) {
	var t types.Type
	if err := c.call(ctx, "get_type", &request{Name: name}, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) DropType(ctx context.Context, name string) error {
	return c.call(ctx, "drop_type", &request{Name: name}, nil)
}

// Tables

func (c *Client) CreateTable(ctx context.Context, tbl *types.Table) error {
	return c.call(ctx, "create_table", &request{TableDef: tbl}, nil)
}

func (c *Client) GetTable(ctx context.Context, db, table string) (*types.Table, error) {
	var tbl types.Table
	if err := c.call(ctx, "get_table", &request{DB: db, Table: table}, &tbl); err != nil {
		return nil, err
	}
	return &tbl, nil
}

func (c *Client) IsTableExists(ctx context.Context, db, table string) (bool, error) {
	var found bool
	err := c.call(ctx, "is_table_exists", &request{DB: db, Table: table}, &found)
	return found, err
}

func (c *Client) DropTable(ctx context.Context, db, table string, deleteData bool) error {
	return c.call(ctx, "drop_table", &request{DB: db, Table: table, DeleteData: deleteData}, nil)
}

// GetTables lists the tables of db matching pattern ("" or "*" for all).
func (c *Client) GetTables(ctx context.Context, db, pattern string) ([]string, error) {
	var names []string
	err := c.call(ctx, "get_tables", &request{DB: db, Pattern: pattern}, &names)
	return names, err
}

func (c *Client) AlterTable(ctx context.Context, db, table string, newTable *types.Table) error {
	return c.call(ctx, "alter_table", &request{DB: db, Table: table, TableDef: newTable}, nil)
}

func (c *Client) GetFields(ctx context.Context, db, table string) ([]types.FieldSchema, error) {
	var fields []types.FieldSchema
	err := c.call(ctx, "get_fields", &request{DB: db, Table: table}, &fields)
	return fields, err
}

func (c *Client) GetSchema(ctx context.Context, db, table string) ([]types.FieldSchema, error) {
	var fields []types.FieldSchema
	err := c.call(ctx, "get_schema", &request{DB: db, Table: table}, &fields)
	return fields, err
}

// Partitions

func (c *Client) AppendPartition(ctx context.Context, db, table string, values []string) (*types.Partition, error) {
	var p types.Partition
	if err := c.call(ctx, "append_partition", &request{DB: db, Table: table, Values: values}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) AddPartition(ctx context.Context, part *types.Partition) (*types.Partition, error) {
	var p types.Partition
	if err := c.call(ctx, "add_partition", &request{Partition: part}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// AddPartitions adds every partition or none and returns how many were added.
func (c *Client) AddPartitions(ctx context.Context, parts []*types.Partition) (int, error) {
	var n int
	err := c.call(ctx, "add_partitions", &request{Partitions: parts}, &n)
	return n, err
}

func (c *Client) DropPartition(ctx context.Context, db, table string, values []string, deleteData bool) (bool, error) {
	var dropped bool
	err := c.call(ctx, "drop_partition", &request{DB: db, Table: table, Values: values, DeleteData: deleteData}, &dropped)
	return dropped, err
}

func (c *Client) GetPartition(ctx context.Context, db, table string, values []string) (*types.Partition, error) {
	var p types.Partition
	if err := c.call(ctx, "get_partition", &request{DB: db, Table: table, Values: values}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) GetPartitionByName(ctx context.Context, db, table, name string) (*types.Partition, error) {
	var p types.Partition
	if err := c.call(ctx, "get_partition_by_name", &request{DB: db, Table: table, PartName: name}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPartitions returns at most max partitions; max < 0 returns all.
func (c *Client) GetPartitions(ctx context.Context, db, table string, max int) ([]*types.Partition, error) {
	var parts []*types.Partition
	err := c.call(ctx, "get_partitions", &request{DB: db, Table: table, Max: &max}, &parts)
	return parts, err
}

func (c *Client) GetPartitionNames(ctx context.Context, db, table string, max int) ([]string, error) {
	var names []string
	err := c.call(ctx, "get_partition_names", &request{DB: db, Table: table, Max: &max}, &names)
	return names, err
}

func (c *Client) AlterPartition(ctx context.Context, db, table string, newPart *types.Partition) error {
	return c.call(ctx, "alter_partition", &request{DB: db, Table: table, Partition: newPart}, nil)
}

// Service

func (c *Client) GetConfigValue(ctx context.Context, name, def string) (string, error) {
	var v string
	err := c.call(ctx, "get_config_value", &request{Name: name, Default: def}, &v)
	return v, err
}

func (c *Client) GetVersion(ctx context.Context) (string, error) {
	var v string
	err := c.call(ctx, "get_version", &request{}, &v)
	return v, err
}

func (c *Client) GetStatus(ctx context.Context) (string, error) {
	var v string
	err := c.call(ctx, "get_status", &request{}, &v)
	return v, err
}
