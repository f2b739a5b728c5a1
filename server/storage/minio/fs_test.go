package minio

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gear6io/metastore/server/warehouse"
	"github.com/johannesboyne/gofakes3"
	"github.com/johannesboyne/gofakes3/backend/s3mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFS(t *testing.T) *FileSystem {
	t.Helper()
	faker := gofakes3.New(s3mem.New())
	ts := httptest.NewServer(faker.Server())
	t.Cleanup(ts.Close)

	fs, err := NewS3FileSystem(Config{
		Endpoint:     strings.TrimPrefix(ts.URL, "http://"),
		AccessKey:    "test",
		SecretKey:    "test",
		Region:       "us-east-1",
		PathStyle:    true,
		CreateBucket: true,
	})
	require.NoError(t, err)
	return fs
}

func s3(t *testing.T, loc string) warehouse.Path {
	t.Helper()
	p, err := warehouse.ParsePath(loc)
	require.NoError(t, err)
	return p
}

func TestS3Directories(t *testing.T) {
	ctx := context.Background()
	fs := newTestFS(t)
	assert.Equal(t, "S3", fs.GetStorageType())

	tbl := s3(t, "s3://warehouse/d1/t1")
	ok, err := fs.IsDir(ctx, tbl)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, fs.MkdirAll(ctx, tbl))
	require.NoError(t, fs.MkdirAll(ctx, tbl.Join("ds=1")))

	ok, err = fs.IsDir(ctx, tbl)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = fs.IsDir(ctx, s3(t, "s3://warehouse/d1"))
	require.NoError(t, err)
	assert.True(t, ok, "a prefix with objects below it is a directory")

	ok, err = fs.Exists(ctx, s3(t, "s3://warehouse/d1/t2"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestS3DeleteAndRename(t *testing.T) {
	ctx := context.Background()
	fs := newTestFS(t)
	src := s3(t, "s3://warehouse/d1/old")
	dst := s3(t, "s3://warehouse/d1/new")
	require.NoError(t, fs.MkdirAll(ctx, src))
	require.NoError(t, fs.MkdirAll(ctx, src.Join("ds=1")))

	assert.Error(t, fs.Delete(ctx, src, false))

	require.NoError(t, fs.Rename(ctx, src, dst))
	ok, err := fs.IsDir(ctx, dst.Join("ds=1"))
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = fs.IsDir(ctx, src)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, fs.Delete(ctx, dst, true))
	ok, err = fs.IsDir(ctx, dst)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestS3RequiresBucket(t *testing.T) {
	fs := newTestFS(t)
	err := fs.MkdirAll(context.Background(), warehouse.Path{Scheme: "s3", Path: "/x"})
	assert.Error(t, err)
}
