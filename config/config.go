// Copyright 2025 Poiesic Systems
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
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all runtime configuration for the sift services.
type Config struct {
	// Structured store
	DBPath string `yaml:"db_path"`

	// Task queue
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	// Object store for large blobs
	MinioEndpoint  string `yaml:"minio_endpoint"`
	MinioAccessKey string `yaml:"minio_access_key"`
	MinioSecretKey string `yaml:"minio_secret_key"`
	MinioBucket    string `yaml:"minio_bucket"`
	MinioUseSSL    bool   `yaml:"minio_use_ssl"`

	// Extraction services
	TikaURL string `yaml:"tika_url"`
	OCRURL  string `yaml:"ocr_url"`
	NERURL  string `yaml:"ner_url"`

	// Search backend
	SearchURL string `yaml:"search_url"`

	// Logging
	LogFile  string `yaml:"log_file"`
	LogLevel string `yaml:"log_level"`
}

// Defaults returns a configuration usable for local work with stock
// services on their conventional ports.
func Defaults() Config {
	return Config{
		DBPath:         "./sift-db",
		RedisAddr:      "localhost:6379",
		MinioEndpoint:  "localhost:9000",
		MinioAccessKey: "minioadmin",
		MinioSecretKey: "minioadmin",
		MinioBucket:    "sift",
		TikaURL:        "http://localhost:9998",
		OCRURL:         "http://localhost:8870",
		NERURL:         "http://localhost:8871",
		SearchURL:      "http://localhost:8860",
		LogFile:        "/tmp/sift.log",
		LogLevel:       "info",
	}
}

// Load builds a Config from defaults, an optional YAML file, and
// SIFT_* environment overrides, in that order of precedence. A missing
// file is ignored when path is empty; a named file that does not exist
// is an error.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnv(&cfg)

	if _, err := ParseLevel(cfg.LogLevel); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	setEnv(&cfg.DBPath, "SIFT_DB_PATH")
	setEnv(&cfg.RedisAddr, "SIFT_REDIS_ADDR")
	setEnv(&cfg.RedisPassword, "SIFT_REDIS_PASSWORD")
	setEnv(&cfg.MinioEndpoint, "SIFT_MINIO_ENDPOINT")
	setEnv(&cfg.MinioAccessKey, "SIFT_MINIO_ACCESS_KEY")
	setEnv(&cfg.MinioSecretKey, "SIFT_MINIO_SECRET_KEY")
	setEnv(&cfg.MinioBucket, "SIFT_MINIO_BUCKET")
	setEnv(&cfg.TikaURL, "SIFT_TIKA_URL")
	setEnv(&cfg.OCRURL, "SIFT_OCR_URL")
	setEnv(&cfg.NERURL, "SIFT_NER_URL")
	setEnv(&cfg.SearchURL, "SIFT_SEARCH_URL")
	setEnv(&cfg.LogFile, "SIFT_LOG_FILE")
	setEnv(&cfg.LogLevel, "SIFT_LOG_LEVEL")
	if val := os.Getenv("SIFT_MINIO_USE_SSL"); val != "" {
		cfg.MinioUseSSL = val == "true" || val == "1"
	}
}

func setEnv(dst *string, key string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

// ParseLevel maps a level name to its slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", s)
	}
}
