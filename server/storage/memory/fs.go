package memory

import (
	"context"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/gear6io/metastore/pkg/errors"
	"github.com/gear6io/metastore/server/warehouse"
)

var (
	MemoryDirNotFound = errors.MustNewCode("memory.dir_not_found")
	MemoryDirNotEmpty = errors.MustNewCode("memory.dir_not_empty")
	MemoryInjected    = errors.MustNewCode("memory.injected_failure")
)

// Type is the storage type identifier for in-memory directories
const Type = "MEMORY"

// MemoryStorage keeps a directory tree in memory. Failures can be injected
// per path to exercise compensation paths.
type MemoryStorage struct {
	schemes []string
	dirs    map[string]struct{}
	failOn  map[string]map[string]struct{}
	mu      sync.RWMutex
}

// NewMemoryStorage serves the given schemes, "mem" when none are given.
func NewMemoryStorage(schemes ...string) *MemoryStorage {
	if len(schemes) == 0 {
		schemes = []string{"mem"}
	}
	return &MemoryStorage{
		schemes: schemes,
		dirs:    make(map[string]struct{}),
		failOn:  make(map[string]map[string]struct{}),
	}
}

// GetStorageType returns the storage type identifier
func (m *MemoryStorage) GetStorageType() string {
	return Type
}

func (m *MemoryStorage) Schemes() []string {
	return m.schemes
}

func key(p warehouse.Path) string {
	return p.Authority + p.Path
}

// FailOn makes op ("mkdir", "delete", "rename", "stat") fail for p.
func (m *MemoryStorage) FailOn(op string, p warehouse.Path) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn[op] == nil {
		m.failOn[op] = make(map[string]struct{})
	}
	m.failOn[op][key(p)] = struct{}{}
}

func (m *MemoryStorage) injected(op string, p warehouse.Path) error {
	if _, ok := m.failOn[op][key(p)]; ok {
		return errors.New(MemoryInjected, "injected "+op+" failure", nil).AddContext("path", p.String())
	}
	return nil
}

func (m *MemoryStorage) IsDir(ctx context.Context, p warehouse.Path) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.injected("stat", p); err != nil {
		return false, err
	}
	_, ok := m.dirs[key(p)]
	return ok, nil
}

func (m *MemoryStorage) Exists(ctx context.Context, p warehouse.Path) (bool, error) {
	return m.IsDir(ctx, p)
}

func (m *MemoryStorage) MkdirAll(ctx context.Context, p warehouse.Path) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected("mkdir", p); err != nil {
		return err
	}
	for dir := p.Path; ; dir = path.Dir(dir) {
		m.dirs[p.Authority+dir] = struct{}{}
		if dir == "/" || dir == "." {
			break
		}
	}
	return nil
}

func (m *MemoryStorage) children(k string) []string {
	var out []string
	prefix := strings.TrimSuffix(k, "/") + "/"
	for d := range m.dirs {
		if strings.HasPrefix(d, prefix) {
			out = append(out, d)
		}
	}
	return out
}

func (m *MemoryStorage) Delete(ctx context.Context, p warehouse.Path, recursive bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected("delete", p); err != nil {
		return err
	}
	k := key(p)
	if _, ok := m.dirs[k]; !ok {
		return errors.New(MemoryDirNotFound, "directory does not exist", nil).AddContext("path", p.String())
	}
	children := m.children(k)
	if len(children) > 0 && !recursive {
		return errors.New(MemoryDirNotEmpty, "directory is not empty", nil).AddContext("path", p.String())
	}
	for _, c := range children {
		delete(m.dirs, c)
	}
	delete(m.dirs, k)
	return nil
}

func (m *MemoryStorage) Rename(ctx context.Context, src, dst warehouse.Path) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected("rename", src); err != nil {
		return err
	}
	sk := key(src)
	if _, ok := m.dirs[sk]; !ok {
		return errors.New(MemoryDirNotFound, "directory does not exist", nil).AddContext("path", src.String())
	}
	moved := append(m.children(sk), sk)
	dk := key(dst)
	for _, old := range moved {
		delete(m.dirs, old)
		m.dirs[dk+strings.TrimPrefix(old, sk)] = struct{}{}
	}
	for dir := path.Dir(dst.Path); dir != "/" && dir != "."; dir = path.Dir(dir) {
		m.dirs[dst.Authority+dir] = struct{}{}
	}
	return nil
}

// Dirs lists every directory, sorted. Useful in tests.
func (m *MemoryStorage) Dirs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.dirs))
	for d := range m.dirs {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
