package migrations

import (
	"context"

	"github.com/gear6io/metastore/pkg/errors"
	"github.com/gear6io/metastore/server/metadata/registry/regtypes"
	"github.com/uptrace/bun"
)

// Package-specific error codes for migrations
var (
	MigrationTableCreationFailed = errors.MustNewCode("migrations.table_creation_failed")
	MigrationIndexCreationFailed = errors.MustNewCode("migrations.index_creation_failed")
)

// Migration001 creates the catalog schema
type Migration001 struct{}

func (m *Migration001) Version() int {
	return 1
}

func (m *Migration001) Name() string {
	return "initial_catalog_schema"
}

func (m *Migration001) Description() string {
	return "Databases, tables, partitions and user types with cascading foreign keys"
}

// Up runs the migration
func (m *Migration001) Up(ctx context.Context, tx bun.Tx) error {
	if _, err := tx.NewCreateTable().
		Model((*regtypes.Database)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return errors.New(MigrationTableCreationFailed, "failed to create databases table", err)
	}

	if _, err := tx.NewCreateTable().
		Model((*regtypes.CatalogType)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return errors.New(MigrationTableCreationFailed, "failed to create catalog_types table", err)
	}

	if _, err := tx.NewCreateTable().
		Model((*regtypes.Table)(nil)).
		ForeignKey(`("database_id") REFERENCES "databases" ("id") ON DELETE CASCADE`).
		IfNotExists().
		Exec(ctx); err != nil {
		return errors.New(MigrationTableCreationFailed, "failed to create tables table", err)
	}

	if _, err := tx.NewCreateTable().
		Model((*regtypes.Partition)(nil)).
		ForeignKey(`("table_id") REFERENCES "tables" ("id") ON DELETE CASCADE`).
		IfNotExists().
		Exec(ctx); err != nil {
		return errors.New(MigrationTableCreationFailed, "failed to create partitions table", err)
	}

	indexes := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_tables_database_name ON tables(database_id, name)`,
		`CREATE INDEX IF NOT EXISTS idx_tables_type ON tables(table_type)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_partitions_table_name ON partitions(table_id, part_name)`,
	}
	for _, stmt := range indexes {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return errors.New(MigrationIndexCreationFailed, "failed to create index", err).AddContext("statement", stmt)
		}
	}

	return nil
}
