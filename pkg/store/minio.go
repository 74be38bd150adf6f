// Copyright 2025 The fawa Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioConfig holds the connection settings for a MinIO-backed store.
type MinioConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	Prefix          string
	UseSSL          bool
}

// MinioBackend implements Backend with one object per key.
type MinioBackend struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewMinioBackend connects to MinIO and ensures the bucket exists.
func NewMinioBackend(cfg MinioConfig) (*MinioBackend, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("check MinIO bucket %q: %w", cfg.BucketName, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create MinIO bucket %q: %w", cfg.BucketName, err)
		}
	}

	return &MinioBackend{client: client, bucket: cfg.BucketName, prefix: cfg.Prefix}, nil
}

func (m *MinioBackend) objectName(key string) string {
	if m.prefix == "" {
		return key
	}
	return m.prefix + "/" + key
}

func (m *MinioBackend) Put(ctx context.Context, key string, value []byte) error {
	_, err := m.client.PutObject(ctx, m.bucket, m.objectName(key),
		bytes.NewReader(value), int64(len(value)), minio.PutObjectOptions{
			ContentType: "application/json",
		})
	if err != nil {
		var resp minio.ErrorResponse
		if errors.As(err, &resp) && strings.Contains(resp.Code, "QuotaExceeded") {
			return fmt.Errorf("%w: %v", ErrCapacity, err)
		}
		return fmt.Errorf("minio put: %w", err)
	}
	return nil
}

func (m *MinioBackend) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, m.objectName(key), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("minio get: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		var resp minio.ErrorResponse
		if errors.As(err, &resp) && resp.Code == "NoSuchKey" {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("minio read: %w", err)
	}
	return data, nil
}

func (m *MinioBackend) Delete(ctx context.Context, key string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, m.objectName(key), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("minio delete: %w", err)
	}
	return nil
}

func (m *MinioBackend) Keys(ctx context.Context) ([]string, error) {
	opts := minio.ListObjectsOptions{}
	trim := ""
	if m.prefix != "" {
		opts.Prefix = m.prefix + "/"
		trim = m.prefix + "/"
	}

	var keys []string
	for object := range m.client.ListObjects(ctx, m.bucket, opts) {
		if object.Err != nil {
			return nil, object.Err
		}
		keys = append(keys, strings.TrimPrefix(object.Key, trim))
	}
	return keys, nil
}

func (m *MinioBackend) Close() error {
	return nil
}
