package registry

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strconv"
	"time"

	"github.com/gear6io/metastore/pkg/errors"
	"github.com/gear6io/metastore/server/metadata/registry/migrations"
	"github.com/rs/zerolog"
	"github.com/uptrace/bun"
)

// Migration interface that all migration files must implement
type Migration interface {
	Version() int
	Name() string
	Description() string
	Up(ctx context.Context, tx bun.Tx) error
}

// MigrationStatus represents the status of a migration
type MigrationStatus struct {
	Version     int    `json:"version"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
	AppliedAt   string `json:"applied_at"`
}

// BunMigrationManager applies the catalog schema migrations
type BunMigrationManager struct {
	db         *bun.DB
	migrations []Migration
	logger     zerolog.Logger
}

func NewBunMigrationManager(db *bun.DB, logger zerolog.Logger) *BunMigrationManager {
	return &BunMigrationManager{
		db: db,
		migrations: []Migration{
			&migrations.Migration001{},
		},
		logger: logger.With().Str("component", "migrations").Logger(),
	}
}

// MigrateToLatest runs all pending migrations in one transaction: either
// every pending migration is applied or none is.
func (bmm *BunMigrationManager) MigrateToLatest(ctx context.Context) error {
	currentVersion, err := bmm.GetCurrentVersion(ctx)
	if err != nil {
		return errors.New(RegistryMigrationFailed, "failed to get current version", err)
	}

	var pending []Migration
	for _, m := range bmm.migrations {
		if m.Version() > currentVersion {
			pending = append(pending, m)
		}
	}
	if len(pending) == 0 {
		bmm.logger.Debug().Int("version", currentVersion).Msg("No pending migrations")
		return nil
	}

	tx, err := bmm.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.New(RegistryMigrationFailed, "failed to begin transaction for migrations", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !stderrors.Is(rbErr, sql.ErrTxDone) {
			bmm.logger.Warn().Err(rbErr).Msg("Failed to roll back migration transaction")
		}
	}()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, m := range pending {
		bmm.logger.Info().Int("version", m.Version()).Str("name", m.Name()).Msg("Running migration")
		if err := m.Up(ctx, tx); err != nil {
			return errors.New(RegistryMigrationFailed, "migration failed", err).
				AddContext("version", strconv.Itoa(m.Version())).
				AddContext("name", m.Name())
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO bun_migrations (version, name, applied_at) VALUES (?, ?, ?)`,
			m.Version(), m.Name(), now,
		); err != nil {
			return errors.New(RegistryMigrationFailed, "failed to record migration", err).
				AddContext("version", strconv.Itoa(m.Version()))
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.New(RegistryMigrationFailed, "failed to commit migrations", err)
	}
	bmm.logger.Info().Int("applied", len(pending)).Msg("Migrations completed")
	return nil
}

// GetCurrentVersion returns the current migration version
func (bmm *BunMigrationManager) GetCurrentVersion(ctx context.Context) (int, error) {
	exists, err := bmm.tableExists(ctx, "bun_migrations")
	if err != nil {
		return 0, errors.New(RegistryMigrationFailed, "failed to check migrations table", err)
	}
	if !exists {
		if err := bmm.createMigrationsTable(ctx); err != nil {
			return 0, errors.New(RegistryMigrationFailed, "failed to create migrations table", err)
		}
		return 0, nil
	}

	var version int
	err = bmm.db.NewSelect().
		Column("version").
		Table("bun_migrations").
		Order("version DESC").
		Limit(1).
		Scan(ctx, &version)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, errors.New(RegistryMigrationFailed, "failed to get current version", err)
	}
	return version, nil
}

func (bmm *BunMigrationManager) createMigrationsTable(ctx context.Context) error {
	_, err := bmm.db.NewCreateTable().
		Model(&struct {
			bun.BaseModel `bun:"table:bun_migrations"`
			Version       int    `bun:"version,pk,type:integer"`
			Name          string `bun:"name,type:text,notnull"`
			AppliedAt     string `bun:"applied_at,type:text,notnull"`
		}{}).
		IfNotExists().
		Exec(ctx)
	return err
}

// GetMigrationStatus returns migration status
func (bmm *BunMigrationManager) GetMigrationStatus(ctx context.Context) ([]MigrationStatus, error) {
	exists, err := bmm.tableExists(ctx, "bun_migrations")
	if err != nil {
		return nil, errors.New(RegistryMigrationFailed, "failed to check migrations table", err)
	}
	if !exists {
		return []MigrationStatus{}, nil
	}

	var applied []struct {
		Version   int    `bun:"version"`
		Name      string `bun:"name"`
		AppliedAt string `bun:"applied_at"`
	}
	err = bmm.db.NewSelect().
		Table("bun_migrations").
		Column("version", "name", "applied_at").
		Order("version ASC").
		Scan(ctx, &applied)
	if err != nil {
		return nil, errors.New(RegistryMigrationFailed, "failed to query migrations", err)
	}

	descriptions := make(map[int]string, len(bmm.migrations))
	for _, m := range bmm.migrations {
		descriptions[m.Version()] = m.Description()
	}

	status := make([]MigrationStatus, len(applied))
	for i, m := range applied {
		status[i] = MigrationStatus{
			Version:     m.Version,
			Name:        m.Name,
			Description: descriptions[m.Version],
			Status:      "applied",
			AppliedAt:   m.AppliedAt,
		}
	}
	return status, nil
}

// VerifySchema checks that every catalog table exists
func (bmm *BunMigrationManager) VerifySchema(ctx context.Context) error {
	for _, name := range []string{"bun_migrations", "databases", "catalog_types", "tables", "partitions"} {
		exists, err := bmm.tableExists(ctx, name)
		if err != nil {
			return errors.New(RegistrySchemaVerification, "failed to verify table", err).AddContext("table", name)
		}
		if !exists {
			return errors.New(RegistrySchemaVerification, "expected table does not exist", nil).AddContext("table", name)
		}
	}
	return nil
}

func (bmm *BunMigrationManager) tableExists(ctx context.Context, tableName string) (bool, error) {
	var exists int
	err := bmm.db.NewRaw("SELECT 1 FROM sqlite_master WHERE type='table' AND name=?", tableName).Scan(ctx, &exists)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
