package catalog

import (
	"context"
	"strings"

	"github.com/gear6io/metastore/server/metadata"
	"github.com/gear6io/metastore/server/types"
	"github.com/gear6io/metastore/server/warehouse"
)

// CreateDatabase records a database and creates its directory. An empty
// location places it under the warehouse root.
func (h *Handler) CreateDatabase(ctx context.Context, name, location string) (err error) {
	defer h.start(ctx, "create_database", name, "")(&err)

	if !types.ValidateName(name) {
		return types.NewInvalidObject("%s is not a valid database name", name)
	}
	var dbPath warehouse.Path
	if location == "" {
		dbPath = h.wh.DefaultDatabasePath(name)
	} else if dbPath, err = h.wh.Resolve(location); err != nil {
		return err
	}

	ms, err := h.getMS(ctx)
	if err != nil {
		return err
	}
	tx, err := h.begin(ctx, ms)
	if err != nil {
		return err
	}
	defer tx.finish()

	if err := tx.mkdirIfAbsent(dbPath); err != nil {
		return err
	}
	if err := ms.CreateDatabase(ctx, &types.Database{Name: name, LocationURI: dbPath.String()}); err != nil {
		return err
	}
	return tx.commit()
}

func (h *Handler) GetDatabase(ctx context.Context, name string) (db *types.Database, err error) {
	defer h.start(ctx, "get_database", name, "")(&err)

	ms, err := h.getMS(ctx)
	if err != nil {
		return nil, err
	}
	return ms.GetDatabase(ctx, name)
}

// DropDatabase removes a database with its tables and partitions, then
// deletes its directory. The default database cannot be dropped.
func (h *Handler) DropDatabase(ctx context.Context, name string) (err error) {
	defer h.start(ctx, "drop_database", name, "")(&err)

	if strings.EqualFold(name, types.DefaultDatabaseName) {
		return types.NewInvalidOperation("can't drop default database")
	}

	ms, err := h.getMS(ctx)
	if err != nil {
		return err
	}
	tx, err := h.begin(ctx, ms)
	if err != nil {
		return err
	}
	defer tx.finish()

	if _, err := ms.GetDatabase(ctx, name); err != nil {
		return err
	}
	dirs, err := h.databaseDataDirs(ctx, ms, name)
	if err != nil {
		return err
	}
	if err := ms.DropDatabase(ctx, name); err != nil {
		return err
	}
	if err := tx.commit(); err != nil {
		return err
	}

	for _, p := range dirs {
		h.deleteData(ctx, p.String())
	}
	return nil
}

// databaseDataDirs returns the directories a drop of database name may
// remove. The only candidate is the database's default directory, and never
// one holding the warehouse root. When external table or partition data
// lives below it, only the managed table directories there are returned.
func (h *Handler) databaseDataDirs(ctx context.Context, ms metadata.RawStore, name string) ([]warehouse.Path, error) {
	target := h.wh.DefaultDatabasePath(name)
	if h.wh.Root().IsUnder(target) {
		h.logger.Warn().Str("location", target.String()).Msg("Database directory holds the warehouse root, keeping its data")
		return nil, nil
	}

	tables, err := ms.ListTables(ctx, name, "*")
	if err != nil {
		return nil, err
	}

	var managed, external []warehouse.Path
	track := func(location string, isExternal bool) {
		if location == "" {
			return
		}
		p, err := h.wh.Resolve(location)
		if err != nil {
			// Unresolvable external data still pins the database directory.
			if isExternal {
				external = append(external, target)
			}
			return
		}
		if !p.IsUnder(target) {
			return
		}
		if isExternal {
			external = append(external, p)
		} else {
			managed = append(managed, p)
		}
	}

	for _, tn := range tables {
		tbl, err := ms.GetTable(ctx, name, tn)
		if err != nil {
			return nil, err
		}
		if tbl.IsView() {
			continue
		}
		track(tbl.Location(), tbl.IsExternal())
		if len(tbl.PartitionKeys) == 0 {
			continue
		}
		parts, err := ms.ListPartitions(ctx, name, tn, -1)
		if err != nil {
			return nil, err
		}
		for _, part := range parts {
			track(part.Location(), tbl.IsExternal())
		}
	}

	if len(external) == 0 {
		return []warehouse.Path{target}, nil
	}

	var dirs []warehouse.Path
	for _, m := range managed {
		if pinned(m, external) || covered(m, managed) {
			continue
		}
		dirs = append(dirs, m)
	}
	h.logger.Info().
		Str("location", target.String()).
		Int("external", len(external)).
		Msg("Database directory holds external data, deleting managed table directories only")
	return dirs, nil
}

// covered reports whether p lies strictly below another of dirs.
func covered(p warehouse.Path, dirs []warehouse.Path) bool {
	for _, d := range dirs {
		if d != p && p.IsUnder(d) {
			return true
		}
	}
	return false
}

// pinned reports whether p is, or contains, any of the external paths.
func pinned(p warehouse.Path, external []warehouse.Path) bool {
	for _, e := range external {
		if e.IsUnder(p) {
			return true
		}
	}
	return false
}

func (h *Handler) GetDatabases(ctx context.Context) (names []string, err error) {
	defer h.start(ctx, "get_databases", "", "")(&err)

	ms, err := h.getMS(ctx)
	if err != nil {
		return nil, err
	}
	return ms.ListDatabases(ctx)
}
