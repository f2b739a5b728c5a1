package http

import (
	"context"
	"sort"

	"github.com/gear6io/metastore/server/catalog"
	"github.com/gear6io/metastore/server/types"
)

// Request carries the arguments of every catalog operation. Each
// operation reads only the fields it needs.
type Request struct {
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

// Response wraps the result of a successful operation.
type Response struct {
	Result interface{} `json:"result"`
}

// ErrorBody is the payload of every failed operation.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type operation func(ctx context.Context, h *catalog.Handler, req *Request) (interface{}, error)

func (r *Request) limit() int {
	if r.Max == nil {
		return -1
	}
	return *r.Max
}

// operations maps the RPC verb to the handler call serving it.
var operations = map[string]operation{
	"create_database": func(ctx context.Context, h *catalog.Handler, r *Request) (interface{}, error) {
		return true, h.CreateDatabase(ctx, r.Name, r.Location)
	},
	"get_database": func(ctx context.Context, h *catalog.Handler, r *Request) (interface{}, error) {
		return h.GetDatabase(ctx, r.Name)
	},
	"drop_database": func(ctx context.Context, h *catalog.Handler, r *Request) (interface{}, error) {
		return true, h.DropDatabase(ctx, r.Name)
	},
	"get_databases": func(ctx context.Context, h *catalog.Handler, r *Request) (interface{}, error) {
		return h.GetDatabases(ctx)
	},

	"create_type": func(ctx context.Context, h *catalog.Handler, r *Request) (interface{}, error) {
		return true, h.CreateType(ctx, r.UserType)
	},
	"get_type": func(ctx context.Context, h *catalog.Handler, r *Request) (interface{}, error) {
		return h.GetType(ctx, r.Name)
	},
	"drop_type": func(ctx context.Context, h *catalog.Handler, r *Request) (interface{}, error) {
		return true, h.DropType(ctx, r.Name)
	},

	"create_table": func(ctx context.Context, h *catalog.Handler, r *Request) (interface{}, error) {
		return true, h.CreateTable(ctx, r.TableDef)
	},
	"get_table": func(ctx context.Context, h *catalog.Handler, r *Request) (interface{}, error) {
		return h.GetTable(ctx, r.DB, r.Table)
	},
	"is_table_exists": func(ctx context.Context, h *catalog.Handler, r *Request) (interface{}, error) {
		return h.IsTableExists(ctx, r.DB, r.Table)
	},
	"drop_table": func(ctx context.Context, h *catalog.Handler, r *Request) (interface{}, error) {
		return true, h.DropTable(ctx, r.DB, r.Table, r.DeleteData)
	},
	"get_tables": func(ctx context.Context, h *catalog.Handler, r *Request) (interface{}, error) {
		return h.GetTables(ctx, r.DB, r.Pattern)
	},
	"alter_table": func(ctx context.Context, h *catalog.Handler, r *Request) (interface{}, error) {
		return true, h.AlterTable(ctx, r.DB, r.Table, r.TableDef)
	},
	"get_fields": func(ctx context.Context, h *catalog.Handler, r *Request) (interface{}, error) {
		return h.GetFields(ctx, r.DB, r.Table)
	},
	"get_schema": func(ctx context.Context, h *catalog.Handler, r *Request) (interface{}, error) {
		return h.GetSchema(ctx, r.DB, r.Table)
	},

	"append_partition": func(ctx context.Context, h *catalog.Handler, r *Request) (interface{}, error) {
		return h.AppendPartition(ctx, r.DB, r.Table, r.Values)
	},
	"add_partition": func(ctx context.Context, h *catalog.Handler, r *Request) (interface{}, error) {
		return h.AddPartition(ctx, r.Partition)
	},
	"add_partitions": func(ctx context.Context, h *catalog.Handler, r *Request) (interface{}, error) {
		return h.AddPartitions(ctx, r.Partitions)
	},
	"drop_partition": func(ctx context.Context, h *catalog.Handler, r *Request) (interface{}, error) {
		return h.DropPartition(ctx, r.DB, r.Table, r.Values, r.DeleteData)
	},
	"get_partition": func(ctx context.Context, h *catalog.Handler, r *Request) (interface{}, error) {
		return h.GetPartition(ctx, r.DB, r.Table, r.Values)
	},
	"get_partition_by_name": func(ctx context.Context, h *catalog.Handler, r *Request) (interface{}, error) {
		return h.GetPartitionByName(ctx, r.DB, r.Table, r.PartName)
	},
	"get_partitions": func(ctx context.Context, h *catalog.Handler, r *Request) (interface{}, error) {
		return h.GetPartitions(ctx, r.DB, r.Table, r.limit())
	},
	"get_partition_names": func(ctx context.Context, h *catalog.Handler, r *Request) (interface{}, error) {
		return h.GetPartitionNames(ctx, r.DB, r.Table, r.limit())
	},
	"alter_partition": func(ctx context.Context, h *catalog.Handler, r *Request) (interface{}, error) {
		return true, h.AlterPartition(ctx, r.DB, r.Table, r.Partition)
	},

	"get_config_value": func(ctx context.Context, h *catalog.Handler, r *Request) (interface{}, error) {
		return h.GetConfigValue(ctx, r.Name, r.Default)
	},
	"get_version": func(ctx context.Context, h *catalog.Handler, r *Request) (interface{}, error) {
		return h.GetVersion(), nil
	},
	"get_status": func(ctx context.Context, h *catalog.Handler, r *Request) (interface{}, error) {
		return h.GetStatus(), nil
	},
}

// Operations returns the sorted names of every RPC verb.
func Operations() []string {
	names := make([]string, 0, len(operations))
	for name := range operations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
