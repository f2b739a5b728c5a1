package warehouse

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/gear6io/metastore/pkg/errors"
	"github.com/gear6io/metastore/server/types"
	"github.com/rs/zerolog"
)

// ComponentType defines the warehouse component type identifier
const ComponentType = "warehouse"

// Warehouse derives canonical locations for catalog entities and performs
// directory side effects on the filesystem owning each location.
type Warehouse struct {
	root        Path
	filesystems map[string]FileSystem
	logger      zerolog.Logger
}

// New creates a warehouse rooted at root. A root without a scheme is a
// local directory and is made absolute.
func New(root string, logger zerolog.Logger, filesystems ...FileSystem) (*Warehouse, error) {
	p, err := ParsePath(root)
	if err != nil {
		return nil, errors.New(WarehouseInvalidRoot, "invalid warehouse root", err).AddContext("root", root)
	}
	if p.Scheme == "" {
		abs, err := filepath.Abs(p.Path)
		if err != nil {
			return nil, errors.New(WarehouseInvalidRoot, "cannot resolve warehouse root", err).AddContext("root", root)
		}
		p = Path{Scheme: "file", Path: filepath.ToSlash(abs)}
	}

	w := &Warehouse{
		root:        p,
		filesystems: make(map[string]FileSystem),
		logger:      logger.With().Str("component", ComponentType).Logger(),
	}
	for _, fs := range filesystems {
		for _, scheme := range fs.Schemes() {
			w.filesystems[strings.ToLower(scheme)] = fs
		}
	}
	if _, ok := w.filesystems[p.Scheme]; !ok {
		return nil, errors.New(WarehouseNoFileSystem, "no filesystem registered for warehouse root", nil).
			AddContext("root", p.String()).
			AddContext("scheme", p.Scheme)
	}
	return w, nil
}

// Root returns the qualified warehouse root.
func (w *Warehouse) Root() Path {
	return w.root
}

// DefaultDatabasePath is the root itself for the default database and
// root/<name> for every other one.
func (w *Warehouse) DefaultDatabasePath(name string) Path {
	if strings.EqualFold(name, types.DefaultDatabaseName) {
		return w.root
	}
	return w.root.Join(strings.ToLower(name))
}

func (w *Warehouse) DefaultTablePath(dbName, tableName string) Path {
	return w.DefaultDatabasePath(dbName).Join(strings.ToLower(tableName))
}

// DefaultPartitionPath places a partition directory under its table.
func (w *Warehouse) DefaultPartitionPath(tableLocation string, keys, values []string) (Path, error) {
	name, err := MakePartName(keys, values)
	if err != nil {
		return Path{}, err
	}
	tbl, err := w.Resolve(tableLocation)
	if err != nil {
		return Path{}, err
	}
	return tbl.Join(name), nil
}

// Resolve turns a user supplied location into an absolute, scheme qualified
// path. Missing scheme and authority are taken from the root and relative
// paths are resolved against the root.
func (w *Warehouse) Resolve(location string) (Path, error) {
	p, err := ParsePath(location)
	if err != nil {
		return Path{}, types.NewInvalidObject("invalid location %q", location).WithCause(err)
	}
	if p.Scheme == "" {
		p.Scheme, p.Authority = w.root.Scheme, w.root.Authority
		if !p.IsAbs() {
			p.Path = w.root.Join(p.Path).Path
		}
	}
	if _, ok := w.filesystems[p.Scheme]; !ok {
		return Path{}, types.NewInvalidObject("no filesystem available for location %q", location)
	}
	return p, nil
}

// Qualify is Resolve rendered as a string.
func (w *Warehouse) Qualify(location string) (string, error) {
	p, err := w.Resolve(location)
	if err != nil {
		return "", err
	}
	return p.String(), nil
}

func (w *Warehouse) fs(p Path) (FileSystem, error) {
	fs, ok := w.filesystems[p.Scheme]
	if !ok {
		return nil, errors.New(WarehouseNoFileSystem, "no filesystem registered for scheme", nil).AddContext("path", p.String())
	}
	return fs, nil
}

// SameFileSystem reports whether a and b are served by one filesystem and
// authority, which is required for a rename.
func (w *Warehouse) SameFileSystem(a, b Path) bool {
	fa, errA := w.fs(a)
	fb, errB := w.fs(b)
	return errA == nil && errB == nil && fa == fb && a.Authority == b.Authority
}

func (w *Warehouse) IsDir(ctx context.Context, p Path) (bool, error) {
	fs, err := w.fs(p)
	if err != nil {
		return false, err
	}
	ok, err := fs.IsDir(ctx, p)
	if err != nil {
		return false, errors.New(WarehouseStatFailed, "unable to stat location", err).AddContext("path", p.String())
	}
	return ok, nil
}

func (w *Warehouse) Exists(ctx context.Context, p Path) (bool, error) {
	fs, err := w.fs(p)
	if err != nil {
		return false, err
	}
	ok, err := fs.Exists(ctx, p)
	if err != nil {
		return false, errors.New(WarehouseStatFailed, "unable to stat location", err).AddContext("path", p.String())
	}
	return ok, nil
}

// MakeDirectories creates p and all missing parents.
func (w *Warehouse) MakeDirectories(ctx context.Context, p Path) error {
	fs, err := w.fs(p)
	if err != nil {
		return err
	}
	if err := fs.MkdirAll(ctx, p); err != nil {
		return errors.New(WarehouseMkdirFailed, "unable to create directory", err).AddContext("path", p.String())
	}
	w.logger.Debug().Str("path", p.String()).Msg("Created directory")
	return nil
}

// DeleteDir removes p recursively. A missing directory is not an error.
func (w *Warehouse) DeleteDir(ctx context.Context, p Path) error {
	fs, err := w.fs(p)
	if err != nil {
		return err
	}
	exists, err := fs.Exists(ctx, p)
	if err != nil {
		return errors.New(WarehouseDeleteFailed, "unable to stat directory before delete", err).AddContext("path", p.String())
	}
	if !exists {
		return nil
	}
	if err := fs.Delete(ctx, p, true); err != nil {
		return errors.New(WarehouseDeleteFailed, "unable to delete directory", err).AddContext("path", p.String())
	}
	w.logger.Info().Str("path", p.String()).Msg("Deleted directory")
	return nil
}

// Rename moves src to dst. Both must live on the same filesystem.
func (w *Warehouse) Rename(ctx context.Context, src, dst Path) error {
	if !w.SameFileSystem(src, dst) {
		return errors.New(WarehouseCrossFileSystem, "source and destination are on different filesystems", nil).
			AddContext("src", src.String()).
			AddContext("dst", dst.String())
	}
	fs, _ := w.fs(src)
	if err := fs.Rename(ctx, src, dst); err != nil {
		return errors.New(WarehouseRenameFailed, "unable to rename directory", err).
			AddContext("src", src.String()).
			AddContext("dst", dst.String())
	}
	return nil
}

// Name returns the component type identifier
func (w *Warehouse) Name() string {
	return ComponentType
}

// Shutdown is a no-op: filesystems hold no warehouse owned state.
func (w *Warehouse) Shutdown(ctx context.Context) error {
	return nil
}
