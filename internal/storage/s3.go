package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/mferrera/ert/internal/config"
)

// S3Backend stores records in an S3-compatible object store via minio-go.
// Object PUTs are atomic on the server side; metadata upserts are
// serialized with an in-process lock per backend, which is sufficient
// because concurrent transmissions share one backend handle.
type S3Backend struct {
	client    *minio.Client
	bucket    string
	urlExpiry time.Duration

	metaMu sync.Mutex
}

// NewS3Backend builds a backend from s3 configuration and ensures the
// bucket exists.
func NewS3Backend(cfg config.S3) (*S3Backend, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, errors.New("s3 endpoint must be set")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, errors.New("s3 credentials must be set")
	}

	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL
	if u, err := url.Parse(cfg.Endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		if u.Scheme == "https" {
			useSSL = true
		}
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}

	backend := &S3Backend{
		client:    client,
		bucket:    cfg.Bucket,
		urlExpiry: time.Duration(cfg.URLExpirySeconds) * time.Second,
	}
	if err := backend.ensureBucket(context.Background()); err != nil {
		return nil, err
	}
	return backend, nil
}

func (b *S3Backend) ensureBucket(ctx context.Context) error {
	exists, err := b.client.BucketExists(ctx, b.bucket)
	if err != nil {
		return classifyS3Error("check bucket", err)
	}
	if exists {
		return nil
	}
	if err := b.client.MakeBucket(ctx, b.bucket, minio.MakeBucketOptions{}); err != nil {
		return classifyS3Error("create bucket", err)
	}
	return nil
}

func (b *S3Backend) Put(ctx context.Context, key Key, data []byte) error {
	_, err := b.client.PutObject(ctx, b.bucket, key.objectPath(), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return classifyS3Error(fmt.Sprintf("put record %s", key), err)
	}
	return nil
}

func (b *S3Backend) Get(ctx context.Context, key Key) ([]byte, error) {
	return b.getObject(ctx, key.objectPath(), fmt.Sprintf("record %s", key))
}

func (b *S3Backend) URL(ctx context.Context, key Key) (string, error) {
	// Presigning does not touch the object, so probe for existence first
	// to honor the resolve-before-transmit contract.
	if _, err := b.client.StatObject(ctx, b.bucket, key.objectPath(), minio.StatObjectOptions{}); err != nil {
		return "", classifyS3Error(fmt.Sprintf("record %s", key), err)
	}
	u, err := b.client.PresignedGetObject(ctx, b.bucket, key.objectPath(), b.urlExpiry, nil)
	if err != nil {
		return "", classifyS3Error(fmt.Sprintf("presign record %s", key), err)
	}
	return u.String(), nil
}

func (b *S3Backend) PutMetadata(ctx context.Context, key MetaKey, meta Metadata) error {
	return b.UpdateMetadata(ctx, key, func(Metadata) Metadata { return meta })
}

func (b *S3Backend) GetMetadata(ctx context.Context, key MetaKey) (Metadata, error) {
	data, err := b.getObject(ctx, key.metaPath(), fmt.Sprintf("metadata %s", key))
	if err != nil {
		return Metadata{}, err
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return Metadata{}, fmt.Errorf("decode metadata %s: %w", key, err)
	}
	return meta, nil
}

func (b *S3Backend) UpdateMetadata(ctx context.Context, key MetaKey, update func(Metadata) Metadata) error {
	b.metaMu.Lock()
	defer b.metaMu.Unlock()

	current, err := b.GetMetadata(ctx, key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	payload, err := json.Marshal(update(current))
	if err != nil {
		return fmt.Errorf("encode metadata %s: %w", key, err)
	}
	_, err = b.client.PutObject(ctx, b.bucket, key.metaPath(), bytes.NewReader(payload), int64(len(payload)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return classifyS3Error(fmt.Sprintf("put metadata %s", key), err)
	}
	return nil
}

func (b *S3Backend) ListMeta(ctx context.Context, experiment string) ([]MetaKey, error) {
	prefix := "experiments/"
	if experiment != "" {
		prefix += experiment + "/"
	}

	var keys []MetaKey
	for obj := range b.client.ListObjects(ctx, b.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, classifyS3Error("list metadata", obj.Err)
		}
		if !strings.HasSuffix(obj.Key, metaSuffix) {
			continue
		}
		rel := strings.TrimPrefix(obj.Key, "experiments/")
		parts := strings.Split(rel, "/")
		if len(parts) != 2 {
			continue
		}
		keys = append(keys, MetaKey{
			Experiment: parts[0],
			Name:       strings.TrimSuffix(parts[1], metaSuffix),
		})
	}
	return keys, nil
}

func (b *S3Backend) Delete(ctx context.Context, experiment string) error {
	if strings.TrimSpace(experiment) == "" {
		return errors.New("delete requires an experiment prefix")
	}
	prefix := "experiments/" + experiment + "/"
	for obj := range b.client.ListObjects(ctx, b.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return classifyS3Error("list for delete", obj.Err)
		}
		if err := b.client.RemoveObject(ctx, b.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return classifyS3Error(fmt.Sprintf("delete %s", obj.Key), err)
		}
	}
	return nil
}

func (b *S3Backend) Close() error { return nil }

func (b *S3Backend) getObject(ctx context.Context, objectPath, what string) ([]byte, error) {
	obj, err := b.client.GetObject(ctx, b.bucket, objectPath, minio.GetObjectOptions{})
	if err != nil {
		return nil, classifyS3Error(what, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, classifyS3Error(what, err)
	}
	return data, nil
}

func classifyS3Error(what string, err error) error {
	if err == nil {
		return nil
	}
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		switch resp.Code {
		case "NoSuchKey", "NoSuchBucket":
			return fmt.Errorf("%w: %s", ErrNotFound, what)
		}
	}
	return fmt.Errorf("%s: %w", what, err)
}
