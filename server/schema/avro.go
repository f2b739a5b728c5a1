package schema

import (
	"fmt"
	"strings"

	"github.com/gear6io/metastore/pkg/errors"
	"github.com/gear6io/metastore/server/types"
	"github.com/hamba/avro/v2"
)

const (
	// AvroSerDe is the serialization library whose columns come from an
	// embedded avro schema.
	AvroSerDe = "org.apache.hadoop.hive.serde2.avro.AvroSerDe"
	// AvroSchemaLiteral holds the avro schema JSON in serde or table parameters.
	AvroSchemaLiteral = "avro.schema.literal"
)

// AvroDeriver maps the top-level record of an avro schema to Hive columns.
type AvroDeriver struct{}

func NewAvroDeriver() *AvroDeriver {
	return &AvroDeriver{}
}

func (d *AvroDeriver) literal(tbl *types.Table) (string, bool) {
	if tbl.Sd != nil {
		if lit, ok := tbl.Sd.SerdeInfo.Parameters[AvroSchemaLiteral]; ok && lit != "" {
			return lit, true
		}
	}
	lit, ok := tbl.Parameters[AvroSchemaLiteral]
	return lit, ok && lit != ""
}

func (d *AvroDeriver) Fields(tbl *types.Table) ([]types.FieldSchema, error) {
	lit, ok := d.literal(tbl)
	if !ok {
		return nil, errors.Newf(SchemaMissingLiteral, "table %s.%s has no %s", tbl.DBName, tbl.TableName, AvroSchemaLiteral)
	}
	s, err := avro.Parse(lit)
	if err != nil {
		return nil, errors.New(SchemaInvalidLiteral, "failed to parse avro schema", err).
			AddContext("table", tbl.DBName+"."+tbl.TableName)
	}
	rec, ok := s.(*avro.RecordSchema)
	if !ok {
		return nil, errors.Newf(SchemaInvalidLiteral, "avro schema of %s.%s is a %s, not a record", tbl.DBName, tbl.TableName, s.Type())
	}

	fields := make([]types.FieldSchema, 0, len(rec.Fields()))
	for _, f := range rec.Fields() {
		typ, err := hiveType(f.Type())
		if err != nil {
			return nil, err.AddContext("field", f.Name())
		}
		fields = append(fields, types.FieldSchema{Name: strings.ToLower(f.Name()), Type: typ, Comment: f.Doc()})
	}
	return fields, nil
}

// hiveType renders s as a Hive type string.
func hiveType(s avro.Schema) (string, *errors.Error) {
	switch t := s.(type) {
	case *avro.PrimitiveSchema:
		if l := t.Logical(); l != nil {
			if typ, ok := logicalType(l); ok {
				return typ, nil
			}
		}
		return primitiveType(t.Type())
	case *avro.FixedSchema:
		if l := t.Logical(); l != nil {
			if typ, ok := logicalType(l); ok {
				return typ, nil
			}
		}
		return "binary", nil
	case *avro.EnumSchema:
		return "string", nil
	case *avro.ArraySchema:
		item, err := hiveType(t.Items())
		if err != nil {
			return "", err
		}
		return "array<" + item + ">", nil
	case *avro.MapSchema:
		val, err := hiveType(t.Values())
		if err != nil {
			return "", err
		}
		return "map<string," + val + ">", nil
	case *avro.RecordSchema:
		parts := make([]string, 0, len(t.Fields()))
		for _, f := range t.Fields() {
			typ, err := hiveType(f.Type())
			if err != nil {
				return "", err
			}
			parts = append(parts, strings.ToLower(f.Name())+":"+typ)
		}
		return "struct<" + strings.Join(parts, ",") + ">", nil
	case *avro.UnionSchema:
		return unionType(t)
	case *avro.RefSchema:
		return hiveType(t.Schema())
	}
	return "", errors.Newf(SchemaUnsupportedAvroType, "unsupported avro type %s", s.Type())
}

func primitiveType(t avro.Type) (string, *errors.Error) {
	switch t {
	case avro.Boolean:
		return "boolean", nil
	case avro.Int:
		return "int", nil
	case avro.Long:
		return "bigint", nil
	case avro.Float:
		return "float", nil
	case avro.Double:
		return "double", nil
	case avro.Bytes:
		return "binary", nil
	case avro.String:
		return "string", nil
	case avro.Null:
		return "void", nil
	}
	return "", errors.Newf(SchemaUnsupportedAvroType, "unsupported avro type %s", t)
}

func logicalType(l avro.LogicalSchema) (string, bool) {
	switch l.Type() {
	case avro.Date:
		return "date", true
	case avro.TimestampMillis, avro.TimestampMicros:
		return "timestamp", true
	case avro.Decimal:
		if dec, ok := l.(*avro.DecimalLogicalSchema); ok {
			return fmt.Sprintf("decimal(%d,%d)", dec.Precision(), dec.Scale()), true
		}
	}
	return "", false
}

// unionType collapses ["null", T] to T; other unions become uniontype<...>.
func unionType(u *avro.UnionSchema) (string, *errors.Error) {
	var members []avro.Schema
	for _, m := range u.Types() {
		if m.Type() != avro.Null {
			members = append(members, m)
		}
	}
	if len(members) == 1 {
		return hiveType(members[0])
	}
	parts := make([]string, 0, len(members))
	for _, m := range members {
		typ, err := hiveType(m)
		if err != nil {
			return "", err
		}
		parts = append(parts, typ)
	}
	return "uniontype<" + strings.Join(parts, ",") + ">", nil
}
