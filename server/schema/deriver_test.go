package schema

import (
	"testing"

	"github.com/gear6io/metastore/pkg/errors"
	"github.com/gear6io/metastore/server/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eventsSchema = `{
  "type": "record",
  "name": "Event",
  "fields": [
    {"name": "ID", "type": "long", "doc": "event id"},
    {"name": "kind", "type": {"type": "enum", "name": "Kind", "symbols": ["A", "B"]}},
    {"name": "note", "type": ["null", "string"], "default": null},
    {"name": "tags", "type": {"type": "array", "items": "string"}},
    {"name": "attrs", "type": {"type": "map", "values": "int"}},
    {"name": "day", "type": {"type": "int", "logicalType": "date"}},
    {"name": "amount", "type": {"type": "bytes", "logicalType": "decimal", "precision": 10, "scale": 2}},
    {"name": "origin", "type": {"type": "record", "name": "Origin", "fields": [{"name": "host", "type": "string"}]}},
    {"name": "either", "type": ["int", "string"]}
  ]
}`

func avroTable(params map[string]string) *types.Table {
	return &types.Table{
		DBName:    "d1",
		TableName: "events",
		Sd: &types.StorageDescriptor{
			SerdeInfo: types.SerDeInfo{SerializationLib: AvroSerDe, Parameters: params},
		},
	}
}

func TestNativeLibrariesReturnStoredColumns(t *testing.T) {
	r := NewRegistry()
	cols := []types.FieldSchema{{Name: "a", Type: "int"}, {Name: "b", Type: "string"}}

	for _, lib := range []string{"", LazySimpleSerDe, ColumnarSerDe, DynamicSerDe, MetadataTypedColumnsetSerDe} {
		t.Run(lib, func(t *testing.T) {
			tbl := &types.Table{Sd: &types.StorageDescriptor{Cols: cols, SerdeInfo: types.SerDeInfo{SerializationLib: lib}}}
			got, err := r.Fields(tbl)
			require.NoError(t, err)
			assert.Equal(t, cols, got)
		})
	}
}

func TestAvroDeriver(t *testing.T) {
	r := NewRegistry()
	fields, err := r.Fields(avroTable(map[string]string{AvroSchemaLiteral: eventsSchema}))
	require.NoError(t, err)

	want := []types.FieldSchema{
		{Name: "id", Type: "bigint", Comment: "event id"},
		{Name: "kind", Type: "string"},
		{Name: "note", Type: "string"},
		{Name: "tags", Type: "array<string>"},
		{Name: "attrs", Type: "map<string,int>"},
		{Name: "day", Type: "date"},
		{Name: "amount", Type: "decimal(10,2)"},
		{Name: "origin", Type: "struct<host:string>"},
		{Name: "either", Type: "uniontype<int,string>"},
	}
	assert.Equal(t, want, fields)
}

func TestAvroLiteralFromTableParameters(t *testing.T) {
	tbl := avroTable(nil)
	tbl.Parameters = map[string]string{AvroSchemaLiteral: `{"type":"record","name":"r","fields":[{"name":"x","type":"double"}]}`}

	fields, err := NewRegistry().Fields(tbl)
	require.NoError(t, err)
	assert.Equal(t, []types.FieldSchema{{Name: "x", Type: "double"}}, fields)
}

func TestDeriveFailures(t *testing.T) {
	r := NewRegistry()

	_, err := r.Fields(&types.Table{DBName: "d1", TableName: "t1"})
	assert.True(t, errors.HasCode(err, SchemaMissingDescriptor))

	_, err = r.Fields(avroTable(nil))
	assert.True(t, errors.HasCode(err, SchemaMissingLiteral))

	_, err = r.Fields(avroTable(map[string]string{AvroSchemaLiteral: `{"type":`}))
	assert.True(t, errors.HasCode(err, SchemaInvalidLiteral))

	_, err = r.Fields(avroTable(map[string]string{AvroSchemaLiteral: `"string"`}))
	assert.True(t, errors.HasCode(err, SchemaInvalidLiteral))

	tbl := &types.Table{Sd: &types.StorageDescriptor{SerdeInfo: types.SerDeInfo{SerializationLib: "com.example.CustomSerDe"}}}
	_, err = r.Fields(tbl)
	assert.True(t, errors.HasCode(err, SchemaUnsupportedSerde))
}

func TestRegisterCustomDeriver(t *testing.T) {
	r := NewRegistry()
	r.Register("com.example.CustomSerDe", DeriverFunc(func(tbl *types.Table) ([]types.FieldSchema, error) {
		return []types.FieldSchema{{Name: "blob", Type: "binary"}}, nil
	}))
	assert.Equal(t, []string{"com.example.CustomSerDe", AvroSerDe}, r.Libraries())

	tbl := &types.Table{Sd: &types.StorageDescriptor{SerdeInfo: types.SerDeInfo{SerializationLib: "com.example.CustomSerDe"}}}
	fields, err := r.Fields(tbl)
	require.NoError(t, err)
	assert.Equal(t, "blob", fields[0].Name)
}
