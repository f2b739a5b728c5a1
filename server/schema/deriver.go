// Package schema derives the column list of a table from its
// serialization library.
package schema

import (
	"sort"
	"sync"

	"github.com/gear6io/metastore/pkg/errors"
	"github.com/gear6io/metastore/server/types"
)

// Serialization libraries whose columns are exactly the stored ones.
const (
	MetadataTypedColumnsetSerDe = "org.apache.hadoop.hive.serde.thrift.columnsetSerDe"
	LazySimpleSerDe             = "org.apache.hadoop.hive.serde2.lazy.LazySimpleSerDe"
	ColumnarSerDe               = "org.apache.hadoop.hive.serde2.columnar.ColumnarSerDe"
	DynamicSerDe                = "org.apache.hadoop.hive.serde2.dynamic_type.DynamicSerDe"
	MetadataTypedColumnsetLib   = "org.apache.hadoop.hive.serde2.MetadataTypedColumnsetSerDe"
)

// Deriver produces the columns of a table whose serde owns its schema.
type Deriver interface {
	Fields(tbl *types.Table) ([]types.FieldSchema, error)
}

// DeriverFunc adapts a function to Deriver
type DeriverFunc func(tbl *types.Table) ([]types.FieldSchema, error)

func (f DeriverFunc) Fields(tbl *types.Table) ([]types.FieldSchema, error) {
	return f(tbl)
}

// Registry maps serialization library class names to derivers.
type Registry struct {
	mu       sync.RWMutex
	native   map[string]bool
	derivers map[string]Deriver
}

// NewRegistry returns a registry that knows the native libraries and the
// avro serde.
func NewRegistry() *Registry {
	r := &Registry{
		native:   make(map[string]bool),
		derivers: make(map[string]Deriver),
	}
	for _, lib := range []string{MetadataTypedColumnsetSerDe, MetadataTypedColumnsetLib, LazySimpleSerDe, ColumnarSerDe, DynamicSerDe} {
		r.native[lib] = true
	}
	r.Register(AvroSerDe, NewAvroDeriver())
	return r
}

// Register installs d for lib, replacing any previous deriver.
func (r *Registry) Register(lib string, d Deriver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.native, lib)
	r.derivers[lib] = d
}

// IsNative reports whether lib stores its columns in the descriptor. The
// empty library is native.
func (r *Registry) IsNative(lib string) bool {
	if lib == "" {
		return true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.native[lib]
}

// Libraries lists the non-native libraries with a deriver.
func (r *Registry) Libraries() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	libs := make([]string, 0, len(r.derivers))
	for lib := range r.derivers {
		libs = append(libs, lib)
	}
	sort.Strings(libs)
	return libs
}

// Fields returns the columns of tbl: the stored ones for native libraries,
// otherwise those reported by the library's deriver.
func (r *Registry) Fields(tbl *types.Table) ([]types.FieldSchema, error) {
	if tbl.Sd == nil {
		return nil, errors.Newf(SchemaMissingDescriptor, "table %s.%s has no storage descriptor", tbl.DBName, tbl.TableName)
	}
	lib := tbl.Sd.SerdeInfo.SerializationLib
	if r.IsNative(lib) {
		return append([]types.FieldSchema(nil), tbl.Sd.Cols...), nil
	}

	r.mu.RLock()
	d, ok := r.derivers[lib]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.Newf(SchemaUnsupportedSerde, "no schema deriver for serialization library %s", lib).
			AddContext("table", tbl.DBName+"."+tbl.TableName)
	}
	return d.Fields(tbl)
}
