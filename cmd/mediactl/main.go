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

// mediactl is the local operational surface of the media subsystem:
// upload files, resolve content ids, inspect usage and wipe the store.
package main

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/fawa-io/mediavault/pkg/codec"
	"github.com/fawa-io/mediavault/pkg/config"
	"github.com/fawa-io/mediavault/pkg/fwlog"
	"github.com/fawa-io/mediavault/pkg/media"
	"github.com/fawa-io/mediavault/pkg/planner"
	"github.com/fawa-io/mediavault/pkg/store"
)

func main() {
	if err := config.InitConfig(); err != nil {
		fwlog.Fatalf("Failed to initialize configuration: %v", err)
	}

	cfg := config.Get()

	logLevel, err := fwlog.ParseLevel(cfg.LogLevel)
	if err != nil {
		fwlog.Warnf("Invalid initial log level '%s': %v. Using default.", cfg.LogLevel, err)
	}
	fwlog.SetLevel(logLevel)

	backend, err := openBackend(cfg)
	if err != nil {
		fwlog.Fatalf("Failed to open %s backend: %v", cfg.Backend, err)
	}

	cs := store.NewContentStore(backend, store.Options{
		SoftCeilingBytes: cfg.SoftCeilingBytes,
		MaxRecords:       cfg.MaxRecords,
	})
	pl := planner.New(codec.NewRasterCodec(), nil)

	svc, err := media.NewService(cs, pl, media.Config{
		MaxUploadBytes:     cfg.MaxUploadBytes,
		CompressOverBytes:  cfg.CompressOverBytes,
		CompressionProfile: cfg.CompressionProfile,
		CacheCapacity:      cfg.CacheCapacity,
	})
	if err != nil {
		fwlog.Fatalf("Failed to build media service: %v", err)
	}
	defer func() {
		if err := svc.Close(); err != nil {
			fwlog.Errorf("Error closing media service: %v", err)
		}
	}()

	if err := run(svc, pflag.Args()); err != nil {
		fwlog.Fatalf("%v", err)
	}
}

func run(svc *media.Service, args []string) error {
	ctx := context.Background()

	if len(args) == 0 {
		return fmt.Errorf("usage: mediactl <upload FILE | url ID | stats | wipe>")
	}

	switch args[0] {
	case "upload":
		if len(args) != 2 {
			return fmt.Errorf("usage: mediactl upload FILE")
		}
		data, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[1], err)
		}
		id, err := svc.Upload(ctx, media.Upload{
			FileName: filepath.Base(args[1]),
			MIMEType: mime.TypeByExtension(filepath.Ext(args[1])),
			Data:     data,
		})
		if err != nil {
			return fmt.Errorf("upload %s: %w", args[1], err)
		}
		fmt.Println(id)

	case "url":
		if len(args) != 2 {
			return fmt.Errorf("usage: mediactl url ID")
		}
		url := svc.MediaURL(ctx, args[1])
		if url == "" {
			return fmt.Errorf("no record for id %s", args[1])
		}
		fmt.Println(url)

	case "stats":
		stats, err := svc.Stats(ctx)
		if err != nil {
			return fmt.Errorf("read stats: %w", err)
		}
		fmt.Printf("records: %d\nused bytes: %d\ncached handles: %d\n",
			stats.RecordCount, stats.UsedBytes, stats.CachedItems)

	case "wipe":
		if err := svc.Wipe(ctx); err != nil {
			return fmt.Errorf("wipe store: %w", err)
		}
		fwlog.Info("Store wiped")

	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
	return nil
}

func openBackend(cfg config.Config) (store.Backend, error) {
	switch cfg.Backend {
	case "", "fs":
		return store.NewFSBackend(cfg.DataDir, 0)
	case "dragonfly":
		return store.NewDragonflyBackend(cfg.DragonflyAddr, cfg.Namespace)
	case "minio":
		return store.NewMinioBackend(store.MinioConfig{
			Endpoint:        cfg.MinioEndpoint,
			AccessKeyID:     cfg.MinioAccessKeyID,
			SecretAccessKey: cfg.MinioSecretAccessKey,
			BucketName:      cfg.MinioBucketName,
			Prefix:          cfg.Namespace,
			UseSSL:          cfg.MinioUseSSL,
		})
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
