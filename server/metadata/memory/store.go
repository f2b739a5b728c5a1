package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/gear6io/metastore/pkg/errors"
	"github.com/gear6io/metastore/server/config"
	"github.com/gear6io/metastore/server/metadata"
	"github.com/gear6io/metastore/server/types"
	"github.com/gear6io/metastore/utils"
	"github.com/rs/zerolog"
)

// Name is the implementation identifier of the in-memory store
const Name = config.STORE_MEMORY

func init() {
	metadata.Register(Name, func(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (metadata.Backend, error) {
		return NewBackend(logger), nil
	})
}

// Backend holds the committed catalog in memory. Transactions are
// serialised: a session holds txMu from its outermost open until commit or
// rollback and works on a private copy of the committed state.
type Backend struct {
	txMu      sync.Mutex
	mu        sync.RWMutex
	committed *state
	logger    zerolog.Logger
}

func NewBackend(logger zerolog.Logger) *Backend {
	return &Backend{
		committed: newState(),
		logger:    logger.With().Str("component", "memory-store").Logger(),
	}
}

func (b *Backend) Name() string {
	return Name
}

func (b *Backend) NewSession(ctx context.Context) (metadata.RawStore, error) {
	s := &Session{backend: b, id: utils.GenerateULIDString()}
	b.logger.Debug().Str("session", s.id).Msg("Opened session")
	return s, nil
}

func (b *Backend) Close() error {
	return nil
}

// Session is a RawStore over a Backend.
type Session struct {
	backend *Backend
	id      string
	depth   int
	work    *state
	closed  bool
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) OpenTransaction(ctx context.Context) error {
	if s.closed {
		return errors.New(metadata.MetadataSessionClosed, "session is closed", nil)
	}
	if s.depth == 0 {
		s.backend.txMu.Lock()
		s.backend.mu.RLock()
		s.work = s.backend.committed.clone()
		s.backend.mu.RUnlock()
	}
	s.depth++
	return nil
}

func (s *Session) CommitTransaction(ctx context.Context) error {
	if s.depth == 0 {
		return errors.New(metadata.MetadataNoTransaction, "commit without an open transaction", nil)
	}
	s.depth--
	if s.depth > 0 {
		return nil
	}
	s.backend.mu.Lock()
	s.backend.committed = s.work
	s.backend.mu.Unlock()
	s.work = nil
	s.backend.txMu.Unlock()
	return nil
}

func (s *Session) RollbackTransaction(ctx context.Context) error {
	if s.depth == 0 {
		return nil
	}
	s.depth = 0
	s.work = nil
	s.backend.txMu.Unlock()
	return nil
}

func (s *Session) IsActiveTransaction() bool {
	return s.depth > 0
}

func (s *Session) Shutdown(ctx context.Context) error {
	err := s.RollbackTransaction(ctx)
	s.closed = true
	return err
}

func (s *Session) read(fn func(st *state) error) error {
	if s.closed {
		return errors.New(metadata.MetadataSessionClosed, "session is closed", nil)
	}
	if s.depth > 0 {
		return fn(s.work)
	}
	s.backend.mu.RLock()
	defer s.backend.mu.RUnlock()
	return fn(s.backend.committed)
}

// write applies fn inside the open transaction, or commits it alone.
// fn must validate before it mutates.
func (s *Session) write(fn func(st *state) error) error {
	if s.closed {
		return errors.New(metadata.MetadataSessionClosed, "session is closed", nil)
	}
	if s.depth > 0 {
		return fn(s.work)
	}
	s.backend.txMu.Lock()
	defer s.backend.txMu.Unlock()
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	return fn(s.backend.committed)
}

func (s *Session) CreateDatabase(ctx context.Context, db *types.Database) error {
	return s.write(func(st *state) error {
		key := strings.ToLower(db.Name)
		if _, ok := st.databases[key]; ok {
			return types.NewAlreadyExists("database %s already exists", db.Name)
		}
		rec := db.Clone()
		rec.Name = key
		st.databases[key] = rec
		return nil
	})
}

func (s *Session) GetDatabase(ctx context.Context, name string) (*types.Database, error) {
	var out *types.Database
	err := s.read(func(st *state) error {
		db, ok := st.databases[strings.ToLower(name)]
		if !ok {
			return types.NewNoSuchObject("database %s does not exist", name)
		}
		out = db.Clone()
		return nil
	})
	return out, err
}

func (s *Session) DropDatabase(ctx context.Context, name string) error {
	return s.write(func(st *state) error {
		key := strings.ToLower(name)
		if _, ok := st.databases[key]; !ok {
			return types.NewNoSuchObject("database %s does not exist", name)
		}
		for tk := range st.tables {
			if strings.HasPrefix(tk, key+".") {
				st.dropTable(tk)
			}
		}
		delete(st.databases, key)
		return nil
	})
}

func (s *Session) ListDatabases(ctx context.Context) ([]string, error) {
	var out []string
	err := s.read(func(st *state) error {
		out = sortedKeys(st.databases)
		return nil
	})
	return out, err
}

func (s *Session) CreateType(ctx context.Context, t *types.Type) error {
	return s.write(func(st *state) error {
		if _, ok := st.types[t.Name]; ok {
			return types.NewAlreadyExists("type %s already exists", t.Name)
		}
		st.types[t.Name] = t.Clone()
		return nil
	})
}

func (s *Session) GetType(ctx context.Context, name string) (*types.Type, error) {
	var out *types.Type
	err := s.read(func(st *state) error {
		t, ok := st.types[name]
		if !ok {
			return types.NewNoSuchObject("type %s does not exist", name)
		}
		out = t.Clone()
		return nil
	})
	return out, err
}

func (s *Session) DropType(ctx context.Context, name string) error {
	return s.write(func(st *state) error {
		if _, ok := st.types[name]; !ok {
			return types.NewNoSuchObject("type %s does not exist", name)
		}
		delete(st.types, name)
		return nil
	})
}

func (s *Session) CreateTable(ctx context.Context, tbl *types.Table) error {
	return s.write(func(st *state) error {
		if _, ok := st.databases[strings.ToLower(tbl.DBName)]; !ok {
			return types.NewInvalidObject("database %s does not exist", tbl.DBName)
		}
		key := tableKey(tbl.DBName, tbl.TableName)
		if _, ok := st.tables[key]; ok {
			return types.NewAlreadyExists("table %s.%s already exists", tbl.DBName, tbl.TableName)
		}
		rec := tbl.Clone()
		rec.DBName = strings.ToLower(tbl.DBName)
		rec.TableName = strings.ToLower(tbl.TableName)
		st.tables[key] = rec
		return nil
	})
}

func (s *Session) GetTable(ctx context.Context, dbName, tableName string) (*types.Table, error) {
	var out *types.Table
	err := s.read(func(st *state) error {
		t, ok := st.table(dbName, tableName)
		if !ok {
			return types.NewNoSuchObject("table %s.%s does not exist", dbName, tableName)
		}
		out = t.Clone()
		return nil
	})
	return out, err
}

func (s *Session) DropTable(ctx context.Context, dbName, tableName string) error {
	return s.write(func(st *state) error {
		key := tableKey(dbName, tableName)
		if _, ok := st.tables[key]; !ok {
			return types.NewNoSuchObject("table %s.%s does not exist", dbName, tableName)
		}
		st.dropTable(key)
		return nil
	})
}

func (s *Session) ListTables(ctx context.Context, dbName, pattern string) ([]string, error) {
	var out []string
	err := s.read(func(st *state) error {
		var names []string
		for _, t := range st.tables {
			if strings.EqualFold(t.DBName, dbName) {
				names = append(names, t.TableName)
			}
		}
		var err error
		out, err = types.FilterNames(names, pattern)
		return err
	})
	return out, err
}

func (s *Session) AlterTable(ctx context.Context, dbName, tableName string, newTable *types.Table) error {
	return s.write(func(st *state) error {
		oldKey := tableKey(dbName, tableName)
		if _, ok := st.tables[oldKey]; !ok {
			return types.NewInvalidObject("table %s.%s does not exist", dbName, tableName)
		}
		newKey := tableKey(newTable.DBName, newTable.TableName)
		if newKey != oldKey {
			if _, ok := st.databases[strings.ToLower(newTable.DBName)]; !ok {
				return types.NewInvalidObject("database %s does not exist", newTable.DBName)
			}
			if _, ok := st.tables[newKey]; ok {
				return types.NewAlreadyExists("table %s.%s already exists", newTable.DBName, newTable.TableName)
			}
		}

		rec := newTable.Clone()
		rec.DBName = strings.ToLower(newTable.DBName)
		rec.TableName = strings.ToLower(newTable.TableName)
		parts := st.partitions[oldKey]
		delete(st.tables, oldKey)
		delete(st.partitions, oldKey)
		st.tables[newKey] = rec
		if parts != nil {
			for _, p := range parts {
				p.DBName, p.TableName = rec.DBName, rec.TableName
			}
			st.partitions[newKey] = parts
		}
		return nil
	})
}

func (s *Session) AddPartition(ctx context.Context, part *types.Partition) error {
	return s.write(func(st *state) error {
		tbl, ok := st.table(part.DBName, part.TableName)
		if !ok {
			return types.NewInvalidObject("partition does not have a valid table %s.%s", part.DBName, part.TableName)
		}
		name, err := st.partName(tbl, part.Values)
		if err != nil {
			return err
		}
		key := tableKey(part.DBName, part.TableName)
		if st.partitions[key] == nil {
			st.partitions[key] = make(map[string]*types.Partition)
		}
		if _, ok := st.partitions[key][name]; ok {
			return types.NewAlreadyExists("partition %s of %s.%s already exists", name, part.DBName, part.TableName)
		}
		rec := part.Clone()
		rec.DBName, rec.TableName = tbl.DBName, tbl.TableName
		st.partitions[key][name] = rec
		return nil
	})
}

func (s *Session) lookupPartition(st *state, dbName, tableName string, values []string) (string, *types.Partition, error) {
	tbl, ok := st.table(dbName, tableName)
	if !ok {
		return "", nil, types.NewNoSuchObject("table %s.%s does not exist", dbName, tableName)
	}
	name, err := st.partName(tbl, values)
	if err != nil {
		return "", nil, types.NewNoSuchObject("partition %v of %s.%s does not exist", values, dbName, tableName).WithCause(err)
	}
	p, ok := st.partitions[tableKey(dbName, tableName)][name]
	if !ok {
		return name, nil, types.NewNoSuchObject("partition %s of %s.%s does not exist", name, dbName, tableName)
	}
	return name, p, nil
}

func (s *Session) GetPartition(ctx context.Context, dbName, tableName string, values []string) (*types.Partition, error) {
	var out *types.Partition
	err := s.read(func(st *state) error {
		_, p, err := s.lookupPartition(st, dbName, tableName, values)
		if err != nil {
			return err
		}
		out = p.Clone()
		return nil
	})
	return out, err
}

func (s *Session) DropPartition(ctx context.Context, dbName, tableName string, values []string) error {
	return s.write(func(st *state) error {
		name, _, err := s.lookupPartition(st, dbName, tableName, values)
		if err != nil {
			return err
		}
		delete(st.partitions[tableKey(dbName, tableName)], name)
		return nil
	})
}

func (s *Session) ListPartitions(ctx context.Context, dbName, tableName string, max int) ([]*types.Partition, error) {
	var out []*types.Partition
	err := s.read(func(st *state) error {
		parts := st.partitions[tableKey(dbName, tableName)]
		names := sortedKeys(parts)
		names = names[:limit(len(names), max)]
		out = make([]*types.Partition, 0, len(names))
		for _, n := range names {
			out = append(out, parts[n].Clone())
		}
		return nil
	})
	return out, err
}

func (s *Session) ListPartitionNames(ctx context.Context, dbName, tableName string, max int) ([]string, error) {
	var out []string
	err := s.read(func(st *state) error {
		names := sortedKeys(st.partitions[tableKey(dbName, tableName)])
		out = names[:limit(len(names), max)]
		return nil
	})
	return out, err
}

func (s *Session) AlterPartition(ctx context.Context, dbName, tableName string, newPart *types.Partition) error {
	return s.write(func(st *state) error {
		name, _, err := s.lookupPartition(st, dbName, tableName, newPart.Values)
		if err != nil {
			return types.NewInvalidObject("partition does not exist").WithCause(err)
		}
		key := tableKey(dbName, tableName)
		rec := newPart.Clone()
		old := st.partitions[key][name]
		rec.DBName, rec.TableName = old.DBName, old.TableName
		st.partitions[key][name] = rec
		return nil
	})
}
