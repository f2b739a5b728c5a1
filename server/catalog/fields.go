package catalog

import (
	"context"
	"strings"

	"github.com/gear6io/metastore/server/types"
)

// baseTableName drops any ".field" suffix a client appends to name a
// nested column.
func baseTableName(name string) string {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return name
}

func (h *Handler) fields(ctx context.Context, dbName, tableName string) (*types.Table, []types.FieldSchema, error) {
	ms, err := h.getMS(ctx)
	if err != nil {
		return nil, nil, err
	}
	tbl, err := ms.GetTable(ctx, dbName, baseTableName(tableName))
	if err != nil {
		return nil, nil, err
	}
	fields, err := h.schema.Fields(tbl)
	if err != nil {
		return nil, nil, types.NewSystemFailure(err, "unable to derive the columns of %s.%s", dbName, tableName)
	}
	return tbl, fields, nil
}

// GetFields returns the columns of a table, asking the schema deriver when
// the serialization library owns the schema.
func (h *Handler) GetFields(ctx context.Context, dbName, tableName string) (fields []types.FieldSchema, err error) {
	defer h.start(ctx, "get_fields", dbName, tableName)(&err)

	_, fields, err = h.fields(ctx, dbName, tableName)
	return fields, err
}

// GetSchema returns the columns followed by the partition keys.
func (h *Handler) GetSchema(ctx context.Context, dbName, tableName string) (fields []types.FieldSchema, err error) {
	defer h.start(ctx, "get_schema", dbName, tableName)(&err)

	tbl, fields, err := h.fields(ctx, dbName, tableName)
	if err != nil {
		return nil, err
	}
	return append(fields, tbl.PartitionKeys...), nil
}
