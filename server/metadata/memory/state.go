package memory

import (
	"sort"
	"strings"

	"github.com/gear6io/metastore/server/types"
	"github.com/gear6io/metastore/server/warehouse"
)

// state is one consistent snapshot of the catalog.
type state struct {
	databases  map[string]*types.Database
	types      map[string]*types.Type
	tables     map[string]*types.Table
	partitions map[string]map[string]*types.Partition
}

func newState() *state {
	return &state{
		databases:  make(map[string]*types.Database),
		types:      make(map[string]*types.Type),
		tables:     make(map[string]*types.Table),
		partitions: make(map[string]map[string]*types.Partition),
	}
}

func (s *state) clone() *state {
	out := newState()
	for k, v := range s.databases {
		out.databases[k] = v.Clone()
	}
	for k, v := range s.types {
		out.types[k] = v.Clone()
	}
	for k, v := range s.tables {
		out.tables[k] = v.Clone()
	}
	for k, parts := range s.partitions {
		cp := make(map[string]*types.Partition, len(parts))
		for name, p := range parts {
			cp[name] = p.Clone()
		}
		out.partitions[k] = cp
	}
	return out
}

func tableKey(dbName, tableName string) string {
	return strings.ToLower(dbName) + "." + strings.ToLower(tableName)
}

func (s *state) table(dbName, tableName string) (*types.Table, bool) {
	t, ok := s.tables[tableKey(dbName, tableName)]
	return t, ok
}

func (s *state) partName(tbl *types.Table, values []string) (string, error) {
	return warehouse.MakePartName(tbl.PartitionKeyNames(), values)
}

func (s *state) dropTable(key string) {
	delete(s.tables, key)
	delete(s.partitions, key)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func limit(n, max int) int {
	if max >= 0 && max < n {
		return max
	}
	return n
}
