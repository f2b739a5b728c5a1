package regtypes

import (
	"time"

	"github.com/uptrace/bun"
)

// TimeAuditable provides common timestamp fields for all auditable entities
type TimeAuditable struct {
	CreatedAt time.Time `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,notnull" json:"updatedAt"`
}

// Touch stamps both timestamps on insert and UpdatedAt afterwards.
func (t *TimeAuditable) Touch(now time.Time) {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
}

// Database represents the databases table
type Database struct {
	bun.BaseModel `bun:"table:databases"`
	TimeAuditable

	ID          int64  `bun:"id,pk,autoincrement" json:"id"`
	Name        string `bun:"name,notnull,unique" json:"name"`
	Description string `bun:"description" json:"description"`
	LocationURI string `bun:"location_uri" json:"location_uri"`
}

// CatalogType represents the catalog_types table of named user types
type CatalogType struct {
	bun.BaseModel `bun:"table:catalog_types"`
	TimeAuditable

	ID     int64  `bun:"id,pk,autoincrement" json:"id"`
	Name   string `bun:"name,notnull,unique" json:"name"`
	Type1  string `bun:"type1" json:"type1"`
	Type2  string `bun:"type2" json:"type2"`
	Fields string `bun:"fields,notnull,default:'[]'" json:"fields"`
}

// Table represents the tables table. Structured columns are JSON documents.
type Table struct {
	bun.BaseModel `bun:"table:tables"`
	TimeAuditable

	ID               int64  `bun:"id,pk,autoincrement" json:"id"`
	DatabaseID       int64  `bun:"database_id,notnull" json:"database_id"`
	Name             string `bun:"name,notnull" json:"name"`
	TableType        string `bun:"table_type,notnull" json:"table_type"`
	Owner            string `bun:"owner" json:"owner"`
	CreateTime       int64  `bun:"create_time,notnull,default:0" json:"create_time"`
	LastAccessTime   int64  `bun:"last_access_time,notnull,default:0" json:"last_access_time"`
	Retention        int32  `bun:"retention,notnull,default:0" json:"retention"`
	Location         string `bun:"location" json:"location"`
	StorageDesc      string `bun:"storage_desc" json:"storage_desc"`
	PartitionKeys    string `bun:"partition_keys,notnull,default:'[]'" json:"partition_keys"`
	Parameters       string `bun:"parameters,notnull,default:'{}'" json:"parameters"`
	ViewOriginalText string `bun:"view_original_text" json:"view_original_text"`
	ViewExpandedText string `bun:"view_expanded_text" json:"view_expanded_text"`
}

// Partition represents the partitions table. PartName is the escaped
// "k1=v1/k2=v2" directory name and is unique per table.
type Partition struct {
	bun.BaseModel `bun:"table:partitions"`
	TimeAuditable

	ID             int64  `bun:"id,pk,autoincrement" json:"id"`
	TableID        int64  `bun:"table_id,notnull" json:"table_id"`
	PartName       string `bun:"part_name,notnull" json:"part_name"`
	Values         string `bun:"part_values,notnull" json:"values"`
	CreateTime     int64  `bun:"create_time,notnull,default:0" json:"create_time"`
	LastAccessTime int64  `bun:"last_access_time,notnull,default:0" json:"last_access_time"`
	Location       string `bun:"location" json:"location"`
	StorageDesc    string `bun:"storage_desc" json:"storage_desc"`
	Parameters     string `bun:"parameters,notnull,default:'{}'" json:"parameters"`
}
