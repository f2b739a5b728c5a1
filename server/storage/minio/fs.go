package minio

import (
	"bytes"
	"context"
	"strings"

	"github.com/gear6io/metastore/pkg/errors"
	"github.com/gear6io/metastore/server/warehouse"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var (
	MinioSetupFailed = errors.MustNewCode("minio.setup_failed")
	MinioNotEmpty    = errors.MustNewCode("minio.not_empty")
	MinioNoBucket    = errors.MustNewCode("minio.no_bucket")
)

// Type is the storage type identifier for S3 compatible object stores
const Type = "S3"

// Config holds the connection settings of an S3 compatible endpoint.
type Config struct {
	Endpoint     string `yaml:"endpoint"`
	AccessKey    string `yaml:"access_key"`
	SecretKey    string `yaml:"secret_key"`
	Region       string `yaml:"region"`
	UseSSL       bool   `yaml:"use_ssl"`
	PathStyle    bool   `yaml:"path_style"`
	CreateBucket bool   `yaml:"create_bucket"`
}

// FileSystem maps warehouse directories onto an object store. The bucket
// is the location authority; a directory exists when its zero byte marker
// object "<key>/" exists or any object lives below it.
type FileSystem struct {
	client *minio.Client
	cfg    Config
}

// NewS3FileSystem connects to the configured endpoint.
func NewS3FileSystem(cfg Config) (*FileSystem, error) {
	opts := &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	}
	if cfg.PathStyle {
		opts.BucketLookup = minio.BucketLookupPath
	}
	client, err := minio.New(cfg.Endpoint, opts)
	if err != nil {
		return nil, errors.New(MinioSetupFailed, "failed to create s3 client", err).AddContext("endpoint", cfg.Endpoint)
	}
	return &FileSystem{client: client, cfg: cfg}, nil
}

// GetStorageType returns the storage type identifier
func (fs *FileSystem) GetStorageType() string {
	return Type
}

func (fs *FileSystem) Schemes() []string {
	return []string{"s3", "s3a"}
}

func objectKey(p warehouse.Path) string {
	return strings.TrimPrefix(p.Path, "/")
}

func dirMarker(p warehouse.Path) string {
	k := objectKey(p)
	if k == "" {
		return ""
	}
	return k + "/"
}

func (fs *FileSystem) bucket(ctx context.Context, p warehouse.Path) (string, error) {
	if p.Authority == "" {
		return "", errors.New(MinioNoBucket, "s3 location has no bucket", nil).AddContext("path", p.String())
	}
	return p.Authority, nil
}

// EnsureBucket creates the bucket of p when it is missing.
func (fs *FileSystem) EnsureBucket(ctx context.Context, p warehouse.Path) error {
	bucket, err := fs.bucket(ctx, p)
	if err != nil {
		return err
	}
	ok, err := fs.client.BucketExists(ctx, bucket)
	if err != nil {
		return errors.New(MinioSetupFailed, "failed to check bucket", err).AddContext("bucket", bucket)
	}
	if ok {
		return nil
	}
	if err := fs.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: fs.cfg.Region}); err != nil {
		return errors.New(MinioSetupFailed, "failed to create bucket", err).AddContext("bucket", bucket)
	}
	return nil
}

func (fs *FileSystem) IsDir(ctx context.Context, p warehouse.Path) (bool, error) {
	bucket, err := fs.bucket(ctx, p)
	if err != nil {
		return false, err
	}
	marker := dirMarker(p)
	if marker == "" {
		return fs.client.BucketExists(ctx, bucket)
	}

	lctx, cancel := context.WithCancel(ctx)
	defer cancel()
	for obj := range fs.client.ListObjects(lctx, bucket, minio.ListObjectsOptions{Prefix: marker, MaxKeys: 1}) {
		if obj.Err != nil {
			if minio.ToErrorResponse(obj.Err).Code == "NoSuchBucket" {
				return false, nil
			}
			return false, obj.Err
		}
		return true, nil
	}
	return false, nil
}

func (fs *FileSystem) Exists(ctx context.Context, p warehouse.Path) (bool, error) {
	ok, err := fs.IsDir(ctx, p)
	if err != nil || ok {
		return ok, err
	}
	bucket, _ := fs.bucket(ctx, p)
	if _, err := fs.client.StatObject(ctx, bucket, objectKey(p), minio.StatObjectOptions{}); err != nil {
		code := minio.ToErrorResponse(err).Code
		if code == "NoSuchKey" || code == "NoSuchBucket" {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// MkdirAll writes the directory marker. Object stores have no real
// parents, so intermediate markers are not written.
func (fs *FileSystem) MkdirAll(ctx context.Context, p warehouse.Path) error {
	bucket, err := fs.bucket(ctx, p)
	if err != nil {
		return err
	}
	if fs.cfg.CreateBucket {
		if err := fs.EnsureBucket(ctx, p); err != nil {
			return err
		}
	}
	marker := dirMarker(p)
	if marker == "" {
		return nil
	}
	_, err = fs.client.PutObject(ctx, bucket, marker, bytes.NewReader(nil), 0, minio.PutObjectOptions{ContentType: "application/x-directory"})
	return err
}

func (fs *FileSystem) list(ctx context.Context, bucket, prefix string) ([]string, error) {
	var keys []string
	for obj := range fs.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

func (fs *FileSystem) Delete(ctx context.Context, p warehouse.Path, recursive bool) error {
	bucket, err := fs.bucket(ctx, p)
	if err != nil {
		return err
	}
	marker := dirMarker(p)
	keys, err := fs.list(ctx, bucket, marker)
	if err != nil {
		return err
	}
	if !recursive {
		for _, k := range keys {
			if k != marker {
				return errors.New(MinioNotEmpty, "directory is not empty", nil).AddContext("path", p.String())
			}
		}
	}
	for _, k := range keys {
		if err := fs.client.RemoveObject(ctx, bucket, k, minio.RemoveObjectOptions{}); err != nil {
			return err
		}
	}
	return nil
}

// Rename copies every object below src to dst and then removes the
// originals. It is not atomic.
func (fs *FileSystem) Rename(ctx context.Context, src, dst warehouse.Path) error {
	bucket, err := fs.bucket(ctx, src)
	if err != nil {
		return err
	}
	dstBucket, err := fs.bucket(ctx, dst)
	if err != nil {
		return err
	}
	srcPrefix, dstPrefix := dirMarker(src), dirMarker(dst)
	keys, err := fs.list(ctx, bucket, srcPrefix)
	if err != nil {
		return err
	}
	for _, k := range keys {
		_, err := fs.client.CopyObject(ctx,
			minio.CopyDestOptions{Bucket: dstBucket, Object: dstPrefix + strings.TrimPrefix(k, srcPrefix)},
			minio.CopySrcOptions{Bucket: bucket, Object: k},
		)
		if err != nil {
			return err
		}
	}
	for _, k := range keys {
		if err := fs.client.RemoveObject(ctx, bucket, k, minio.RemoveObjectOptions{}); err != nil {
			return err
		}
	}
	return nil
}
