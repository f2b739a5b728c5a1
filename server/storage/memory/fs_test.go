package memory

import (
	"context"
	"testing"

	"github.com/gear6io/metastore/server/warehouse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func p(s string) warehouse.Path {
	return warehouse.Path{Scheme: "mem", Path: s}
}

func TestMemoryStorageMkdirAll(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStorage()
	assert.Equal(t, "MEMORY", m.GetStorageType())
	assert.Equal(t, []string{"mem"}, m.Schemes())

	require.NoError(t, m.MkdirAll(ctx, p("/wh/d1/t1")))
	assert.Equal(t, []string{"/", "/wh", "/wh/d1", "/wh/d1/t1"}, m.Dirs())

	ok, err := m.IsDir(ctx, p("/wh/d1"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryStorageDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStorage()
	require.NoError(t, m.MkdirAll(ctx, p("/wh/t1/ds=1")))
	require.NoError(t, m.MkdirAll(ctx, p("/wh/t10")))

	assert.Error(t, m.Delete(ctx, p("/wh/t1"), false))
	require.NoError(t, m.Delete(ctx, p("/wh/t1"), true))
	assert.Equal(t, []string{"/", "/wh", "/wh/t10"}, m.Dirs())

	assert.Error(t, m.Delete(ctx, p("/wh/missing"), true))
}

func TestMemoryStorageRename(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStorage()
	require.NoError(t, m.MkdirAll(ctx, p("/wh/d1/old/ds=1")))

	require.NoError(t, m.Rename(ctx, p("/wh/d1/old"), p("/wh/d2/new")))
	assert.Equal(t, []string{"/", "/wh", "/wh/d1", "/wh/d2", "/wh/d2/new", "/wh/d2/new/ds=1"}, m.Dirs())
}

func TestMemoryStorageFailOn(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStorage("file")
	m.FailOn("mkdir", p("/wh/bad"))
	m.FailOn("stat", p("/wh/unknown"))

	assert.Error(t, m.MkdirAll(ctx, p("/wh/bad")))
	_, err := m.IsDir(ctx, p("/wh/unknown"))
	assert.Error(t, err)
	require.NoError(t, m.MkdirAll(ctx, p("/wh/good")))
}
