package types

import (
	"strings"
)

// TableType tags how the catalog treats a table's directory.
type TableType string

const (
	ManagedTable  TableType = "MANAGED_TABLE"
	ExternalTable TableType = "EXTERNAL_TABLE"
	VirtualView   TableType = "VIRTUAL_VIEW"
)

const (
	// DefaultDatabaseName is reserved and can never be dropped.
	DefaultDatabaseName = "default"

	// DDLTimeKey is stamped into table and partition parameters on every
	// create or alter, in unix seconds.
	DDLTimeKey = "transient_lastDdlTime"

	// ExternalKey marks a table as external when its value is "TRUE".
	ExternalKey = "EXTERNAL"
)

// FieldSchema describes one column or partition key.
type FieldSchema struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Comment string `json:"comment,omitempty"`
}

// SerDeInfo names the serialization library that reads and writes the data.
type SerDeInfo struct {
	Name             string            `json:"name,omitempty"`
	SerializationLib string            `json:"serialization_lib,omitempty"`
	Parameters       map[string]string `json:"parameters,omitempty"`
}

// StorageDescriptor is the physical layout shared by tables and partitions.
type StorageDescriptor struct {
	Cols         []FieldSchema     `json:"cols"`
	Location     string            `json:"location,omitempty"`
	InputFormat  string            `json:"input_format,omitempty"`
	OutputFormat string            `json:"output_format,omitempty"`
	Compressed   bool              `json:"compressed,omitempty"`
	NumBuckets   int32             `json:"num_buckets,omitempty"`
	SerdeInfo    SerDeInfo         `json:"serde_info"`
	BucketCols   []string          `json:"bucket_cols,omitempty"`
	Parameters   map[string]string `json:"parameters,omitempty"`
}

type Database struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	LocationURI string `json:"location_uri,omitempty"`
}

type Table struct {
	DBName           string             `json:"db_name"`
	TableName        string             `json:"table_name"`
	Owner            string             `json:"owner,omitempty"`
	CreateTime       int64              `json:"create_time"`
	LastAccessTime   int64              `json:"last_access_time"`
	Retention        int32              `json:"retention,omitempty"`
	Sd               *StorageDescriptor `json:"sd,omitempty"`
	PartitionKeys    []FieldSchema      `json:"partition_keys,omitempty"`
	Parameters       map[string]string  `json:"parameters,omitempty"`
	ViewOriginalText string             `json:"view_original_text,omitempty"`
	ViewExpandedText string             `json:"view_expanded_text,omitempty"`
	TableType        TableType          `json:"table_type,omitempty"`
}

type Partition struct {
	Values         []string           `json:"values"`
	DBName         string             `json:"db_name"`
	TableName      string             `json:"table_name"`
	CreateTime     int64              `json:"create_time"`
	LastAccessTime int64              `json:"last_access_time"`
	Sd             *StorageDescriptor `json:"sd,omitempty"`
	Parameters     map[string]string  `json:"parameters,omitempty"`
}

// Type is a named user type with its field list.
type Type struct {
	Name   string        `json:"name"`
	Type1  string        `json:"type1,omitempty"`
	Type2  string        `json:"type2,omitempty"`
	Fields []FieldSchema `json:"fields,omitempty"`
}

// IsExternal reports whether the catalog must leave the table's data alone.
func (t *Table) IsExternal() bool {
	if t == nil {
		return false
	}
	if t.TableType == ExternalTable {
		return true
	}
	return strings.EqualFold(t.Parameters[ExternalKey], "TRUE")
}

// IsView reports whether the table is a virtual view with no directory.
func (t *Table) IsView() bool {
	return t != nil && t.TableType == VirtualView
}

// Location returns the storage location or "" when there is none.
func (t *Table) Location() string {
	if t == nil || t.Sd == nil {
		return ""
	}
	return t.Sd.Location
}

// SetParameter initialises the map on first use.
func (t *Table) SetParameter(key, value string) {
	if t.Parameters == nil {
		t.Parameters = make(map[string]string)
	}
	t.Parameters[key] = value
}

func (p *Partition) SetParameter(key, value string) {
	if p.Parameters == nil {
		p.Parameters = make(map[string]string)
	}
	p.Parameters[key] = value
}

func (p *Partition) Location() string {
	if p == nil || p.Sd == nil {
		return ""
	}
	return p.Sd.Location
}

// PartitionKeyNames returns the table's partition key names in order.
func (t *Table) PartitionKeyNames() []string {
	names := make([]string, len(t.PartitionKeys))
	for i, k := range t.PartitionKeys {
		names[i] = k.Name
	}
	return names
}
