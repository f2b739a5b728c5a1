package registry

import (
	"encoding/json"
	"strings"

	"github.com/gear6io/metastore/server/metadata/registry/regtypes"
	"github.com/gear6io/metastore/server/types"
)

func encode(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", types.NewSystemFailure(err, "failed to encode catalog record")
	}
	return string(b), nil
}

func decode(s string, v interface{}) error {
	if s == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(s), v); err != nil {
		return types.NewSystemFailure(err, "failed to decode catalog record")
	}
	return nil
}

func encodeSd(sd *types.StorageDescriptor) (string, error) {
	if sd == nil {
		return "", nil
	}
	return encode(sd)
}

func decodeSd(s string) (*types.StorageDescriptor, error) {
	if s == "" {
		return nil, nil
	}
	sd := &types.StorageDescriptor{}
	if err := decode(s, sd); err != nil {
		return nil, err
	}
	return sd, nil
}

func toTableRow(tbl *types.Table, databaseID int64) (*regtypes.Table, error) {
	sd, err := encodeSd(tbl.Sd)
	if err != nil {
		return nil, err
	}
	keys, err := encode(nonNilFields(tbl.PartitionKeys))
	if err != nil {
		return nil, err
	}
	params, err := encode(nonNilParams(tbl.Parameters))
	if err != nil {
		return nil, err
	}
	return &regtypes.Table{
		DatabaseID:       databaseID,
		Name:             strings.ToLower(tbl.TableName),
		TableType:        string(tbl.TableType),
		Owner:            tbl.Owner,
		CreateTime:       tbl.CreateTime,
		LastAccessTime:   tbl.LastAccessTime,
		Retention:        tbl.Retention,
		Location:         tbl.Location(),
		StorageDesc:      sd,
		PartitionKeys:    keys,
		Parameters:       params,
		ViewOriginalText: tbl.ViewOriginalText,
		ViewExpandedText: tbl.ViewExpandedText,
	}, nil
}

func fromTableRow(row *regtypes.Table, dbName string) (*types.Table, error) {
	tbl := &types.Table{
		DBName:           dbName,
		TableName:        row.Name,
		Owner:            row.Owner,
		CreateTime:       row.CreateTime,
		LastAccessTime:   row.LastAccessTime,
		Retention:        row.Retention,
		ViewOriginalText: row.ViewOriginalText,
		ViewExpandedText: row.ViewExpandedText,
		TableType:        types.TableType(row.TableType),
	}
	var err error
	if tbl.Sd, err = decodeSd(row.StorageDesc); err != nil {
		return nil, err
	}
	if err := decode(row.PartitionKeys, &tbl.PartitionKeys); err != nil {
		return nil, err
	}
	if err := decode(row.Parameters, &tbl.Parameters); err != nil {
		return nil, err
	}
	if len(tbl.PartitionKeys) == 0 {
		tbl.PartitionKeys = nil
	}
	if len(tbl.Parameters) == 0 {
		tbl.Parameters = nil
	}
	return tbl, nil
}

func toPartitionRow(part *types.Partition, tableID int64, partName string) (*regtypes.Partition, error) {
	sd, err := encodeSd(part.Sd)
	if err != nil {
		return nil, err
	}
	values, err := encode(part.Values)
	if err != nil {
		return nil, err
	}
	params, err := encode(nonNilParams(part.Parameters))
	if err != nil {
		return nil, err
	}
	return &regtypes.Partition{
		TableID:        tableID,
		PartName:       partName,
		Values:         values,
		CreateTime:     part.CreateTime,
		LastAccessTime: part.LastAccessTime,
		Location:       part.Location(),
		StorageDesc:    sd,
		Parameters:     params,
	}, nil
}

func fromPartitionRow(row *regtypes.Partition, dbName, tableName string) (*types.Partition, error) {
	part := &types.Partition{
		DBName:         dbName,
		TableName:      tableName,
		CreateTime:     row.CreateTime,
		LastAccessTime: row.LastAccessTime,
	}
	var err error
	if part.Sd, err = decodeSd(row.StorageDesc); err != nil {
		return nil, err
	}
	if err := decode(row.Values, &part.Values); err != nil {
		return nil, err
	}
	if err := decode(row.Parameters, &part.Parameters); err != nil {
		return nil, err
	}
	if len(part.Parameters) == 0 {
		part.Parameters = nil
	}
	return part, nil
}

func toTypeRow(t *types.Type) (*regtypes.CatalogType, error) {
	fields, err := encode(nonNilFields(t.Fields))
	if err != nil {
		return nil, err
	}
	return &regtypes.CatalogType{Name: t.Name, Type1: t.Type1, Type2: t.Type2, Fields: fields}, nil
}

func fromTypeRow(row *regtypes.CatalogType) (*types.Type, error) {
	t := &types.Type{Name: row.Name, Type1: row.Type1, Type2: row.Type2}
	if err := decode(row.Fields, &t.Fields); err != nil {
		return nil, err
	}
	if len(t.Fields) == 0 {
		t.Fields = nil
	}
	return t, nil
}

func fromDatabaseRow(row *regtypes.Database) *types.Database {
	return &types.Database{Name: row.Name, Description: row.Description, LocationURI: row.LocationURI}
}

func nonNilFields(f []types.FieldSchema) []types.FieldSchema {
	if f == nil {
		return []types.FieldSchema{}
	}
	return f
}

func nonNilParams(p map[string]string) map[string]string {
	if p == nil {
		return map[string]string{}
	}
	return p
}
