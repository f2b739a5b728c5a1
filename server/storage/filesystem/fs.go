package filesystem

import (
	"context"
	"os"
	"path/filepath"

	"github.com/gear6io/metastore/pkg/errors"
	"github.com/gear6io/metastore/server/warehouse"
)

var (
	FileStorageNotDirectory = errors.MustNewCode("filesystem.not_directory")
	FileStorageNotEmpty     = errors.MustNewCode("filesystem.not_empty")
)

// Type is the storage type identifier for the local filesystem
const Type = "FILESYSTEM"

// FileStorage serves "file" locations from the local disk.
type FileStorage struct {
	perm os.FileMode
}

func NewFileStorage() *FileStorage {
	return &FileStorage{perm: 0755}
}

// GetStorageType returns the storage type identifier
func (fs *FileStorage) GetStorageType() string {
	return Type
}

func (fs *FileStorage) Schemes() []string {
	return []string{"file"}
}

func local(p warehouse.Path) string {
	return filepath.FromSlash(p.Path)
}

func (fs *FileStorage) IsDir(ctx context.Context, p warehouse.Path) (bool, error) {
	info, err := os.Stat(local(p))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

func (fs *FileStorage) Exists(ctx context.Context, p warehouse.Path) (bool, error) {
	_, err := os.Stat(local(p))
	if os.IsNotExist(err) {
		return false, nil
	}
	return err == nil, err
}

func (fs *FileStorage) MkdirAll(ctx context.Context, p warehouse.Path) error {
	if err := os.MkdirAll(local(p), fs.perm); err != nil {
		return err
	}
	info, err := os.Stat(local(p))
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return errors.New(FileStorageNotDirectory, "path exists and is not a directory", nil).AddContext("path", p.Path)
	}
	return nil
}

func (fs *FileStorage) Delete(ctx context.Context, p warehouse.Path, recursive bool) error {
	if recursive {
		return os.RemoveAll(local(p))
	}
	entries, err := os.ReadDir(local(p))
	if err == nil && len(entries) > 0 {
		return errors.New(FileStorageNotEmpty, "directory is not empty", nil).AddContext("path", p.Path)
	}
	return os.Remove(local(p))
}

func (fs *FileStorage) Rename(ctx context.Context, src, dst warehouse.Path) error {
	if err := os.MkdirAll(filepath.Dir(local(dst)), fs.perm); err != nil {
		return err
	}
	return os.Rename(local(src), local(dst))
}
