// Package minio stores the result cache as a single object in an S3
// compatible bucket.
package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fwojciec/docpipe"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// DefaultObject is the object name used when none is configured.
const DefaultObject = "results.json"

// Ensure ResultCache implements docpipe.ResultCache at compile time.
var _ docpipe.ResultCache = (*ResultCache)(nil)

// Config holds S3/MinIO client configuration.
type Config struct {
	Endpoint        string
	Bucket          string
	Object          string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
}

// ResultCache implements docpipe.ResultCache on top of one object. Each
// save uploads the whole array, so readers see either the previous or the
// new object and never a partial one.
type ResultCache struct {
	client *minio.Client
	bucket string
	object string

	// mu serializes load-merge-save cycles within one process.
	mu sync.Mutex
}

// NewResultCache creates a ResultCache for the configured bucket and object.
func NewResultCache(config Config) (*ResultCache, error) {
	if config.Endpoint == "" {
		return nil, docpipe.Errorf(docpipe.EINVALID, "endpoint is required")
	}
	if config.Bucket == "" {
		return nil, docpipe.Errorf(docpipe.EINVALID, "bucket is required")
	}
	object := config.Object
	if object == "" {
		object = DefaultObject
	}

	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKeyID, config.SecretAccessKey, ""),
		Secure: config.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &ResultCache{client: client, bucket: config.Bucket, object: object}, nil
}

// Location returns the bucket and object holding the cache.
func (c *ResultCache) Location() string {
	return "s3://" + c.bucket + "/" + c.object
}

// EnsureBucket creates the bucket if it doesn't exist.
func (c *ResultCache) EnsureBucket(ctx context.Context) error {
	exists, err := c.client.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := c.client.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Load reads the cache object. A missing object yields an empty map.
func (c *ResultCache) Load(ctx context.Context) (map[int64]*docpipe.CacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx)
}

// MergeAndSave overlays entries on the stored cache and uploads the union.
func (c *ResultCache) MergeAndSave(ctx context.Context, entries map[int64]*docpipe.CacheEntry) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	existing, err := c.load(ctx)
	if err != nil {
		return 0, err
	}
	docpipe.MergeCacheEntries(existing, entries)

	if err := c.save(ctx, existing); err != nil {
		return 0, err
	}
	return len(existing), nil
}

// Invalidate removes entries for ids and uploads the remainder if any were
// present.
func (c *ResultCache) Invalidate(ctx context.Context, ids []int64) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	existing, err := c.load(ctx)
	if err != nil {
		return 0, err
	}

	var removed int
	for _, id := range ids {
		if _, ok := existing[id]; ok {
			delete(existing, id)
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}
	if err := c.save(ctx, existing); err != nil {
		return 0, err
	}
	return removed, nil
}

func (c *ResultCache) load(ctx context.Context) (map[int64]*docpipe.CacheEntry, error) {
	object, err := c.client.GetObject(ctx, c.bucket, c.object, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get result cache: %w", err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if isNotFound(err) {
		return make(map[int64]*docpipe.CacheEntry), nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read result cache: %w", err)
	}

	entries, err := docpipe.DecodeCacheEntries(data)
	if err != nil {
		return nil, docpipe.Errorf(docpipe.ECORRUPT, "result cache %s: %s", c.Location(), docpipe.ErrorDetail(err))
	}
	return entries, nil
}

func (c *ResultCache) save(ctx context.Context, entries map[int64]*docpipe.CacheEntry) error {
	data, err := docpipe.EncodeCacheEntries(entries)
	if err != nil {
		return err
	}

	_, err = c.client.PutObject(ctx, c.bucket, c.object, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to put result cache: %w", err)
	}
	return nil
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NoSuchObject"
}
