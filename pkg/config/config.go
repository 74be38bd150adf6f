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

package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/fawa-io/mediavault/pkg/fwlog"
)

// Config holds every externally tunable knob of the media subsystem.
type Config struct {
	LogLevel string `mapstructure:"logLevel"`

	// Backend selects the durable medium: "fs", "dragonfly" or "minio".
	Backend   string `mapstructure:"backend"`
	DataDir   string `mapstructure:"dataDir"`
	Namespace string `mapstructure:"namespace"`

	DragonflyAddr string `mapstructure:"dragonflyAddr"`

	MinioEndpoint        string `mapstructure:"minioEndpoint"`
	MinioAccessKeyID     string `mapstructure:"minioAccessKeyID"`
	MinioSecretAccessKey string `mapstructure:"minioSecretAccessKey"`
	MinioBucketName      string `mapstructure:"minioBucketName"`
	MinioUseSSL          bool   `mapstructure:"minioUseSSL"`

	SoftCeilingBytes int64 `mapstructure:"softCeilingBytes"`
	MaxRecords       int   `mapstructure:"maxRecords"`

	CacheCapacity int `mapstructure:"cacheCapacity"`

	MaxUploadBytes     int    `mapstructure:"maxUploadBytes"`
	CompressOverBytes  int    `mapstructure:"compressOverBytes"`
	CompressionProfile string `mapstructure:"compressionProfile"`
}

var (
	once sync.Once

	mu sync.RWMutex

	config Config
)

func InitConfig() error {
	var initErr error
	once.Do(func() {
		initErr = LoadAndWatch()
	})
	return initErr
}

func Get() Config {
	mu.RLock()
	defer mu.RUnlock()
	return config
}

func LoadAndWatch() error {
	pflag.String("backend", "", "Durable store backend: fs, dragonfly or minio.")
	pflag.String("dataDir", "", "Directory for the fs backend.")
	pflag.String("dragonflyAddr", "", "Dragonfly/Redis address (e.g., 'localhost:6379').")
	pflag.String("logLevel", "", "Log level: debug, info, warn, error or fatal.")
	pflag.Parse()

	if err := viper.BindPFlags(pflag.CommandLine); err != nil {
		return fmt.Errorf("failed to bind pflags: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/mediavault/")

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			fwlog.Infof("Config file not found.")
		} else {
			return fmt.Errorf("fatal error config file: %w", err)
		}
	}

	viper.SetDefault("logLevel", "info")
	viper.SetDefault("backend", "fs")
	viper.SetDefault("dataDir", "./mediavault-data")
	viper.SetDefault("namespace", "media")
	viper.SetDefault("dragonflyAddr", "localhost:6379")
	viper.SetDefault("softCeilingBytes", 4<<20)
	viper.SetDefault("maxRecords", 20)
	viper.SetDefault("cacheCapacity", 50)
	viper.SetDefault("maxUploadBytes", 10<<20)
	viper.SetDefault("compressOverBytes", 500<<10)
	viper.SetDefault("compressionProfile", "standard")

	mu.Lock()
	if err := viper.Unmarshal(&config); err != nil {
		mu.Unlock()
		return fmt.Errorf("the initial configuration cannot be decoded into the struct: %w", err)
	}
	mu.Unlock()

	viper.OnConfigChange(func(e fsnotify.Event) {
		fwlog.Infof("Config file %s changed, reloading...", e.Name)

		mu.Lock()
		defer mu.Unlock()

		if err := viper.Unmarshal(&config); err != nil {
			fwlog.Errorf("Error while reloading config: %v", err)
			return
		}

		newLogLevel, err := fwlog.ParseLevel(config.LogLevel)
		if err != nil {
			fwlog.Warnf("New log level in config is invalid: %v. Keeping previous level.", err)
		} else {
			fwlog.SetLevel(newLogLevel)
			fwlog.Infof("Log level reloaded successfully to: %s", config.LogLevel)
		}
	})
	viper.WatchConfig()

	return nil
}
