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

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/sift/config"
	"github.com/poiesic/sift/content"
	"github.com/poiesic/sift/core"
	"github.com/poiesic/sift/executor"
	"github.com/poiesic/sift/extract"
	"github.com/poiesic/sift/index"
	"github.com/poiesic/sift/objectstore"
	"github.com/poiesic/sift/pipeline"
	"github.com/poiesic/sift/planner"
	"github.com/poiesic/sift/queue"
	"github.com/poiesic/sift/services"
	"github.com/poiesic/sift/storage"
	"github.com/poiesic/sift/storage/badger"
	"github.com/poiesic/sift/vfs"
	"github.com/urfave/cli/v2"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:  "sift",
		Usage: "Ingestion and indexing pipeline for investigator datasets",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "Prepare the structured store and object-store bucket",
				Action: migrateCommand,
			},
			{
				Name:      "add-dataset",
				Usage:     "Register a dataset root and enqueue its first scan",
				ArgsUsage: "<name> <path>",
				Action:    addDatasetCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "owner",
						Usage: "Investigator who owns the dataset",
						Value: "unknown",
					},
				},
			},
			{
				Name:      "worker",
				Usage:     "Run a worker for one task class (light, heavy, ocr, index)",
				ArgsUsage: "<class>",
				Action:    workerCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Concurrent tasks per worker process",
						Value: 4,
					},
				},
			},
			{
				Name:  "version",
				Usage: "Print the build version",
				Action: func(c *cli.Context) error {
					fmt.Println(version)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func migrateCommand(c *cli.Context) error {
	ctx := context.Background()

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	// Opening the backend creates the directory and runs badger's own
	// recovery; NewMinioStore ensures the bucket.
	backend, err := badger.OpenBackend(cfg.DBPath, false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	if _, err := objectstore.NewMinioStore(ctx, objectstore.MinioConfig{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		UseSSL:    cfg.MinioUseSSL,
	}); err != nil {
		return fmt.Errorf("failed to prepare object store: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Database: %s\n", cfg.DBPath)
	fmt.Fprintf(os.Stderr, "Bucket:   %s on %s\n", cfg.MinioBucket, cfg.MinioEndpoint)
	return nil
}

func addDatasetCommand(c *cli.Context) error {
	ctx := context.Background()

	if c.NArg() != 2 {
		return fmt.Errorf("usage: sift add-dataset <name> <path>")
	}
	name := c.Args().Get(0)
	root, err := filepath.Abs(c.Args().Get(1))
	if err != nil {
		return fmt.Errorf("invalid dataset path: %w", err)
	}
	if info, err := os.Stat(root); err != nil {
		return fmt.Errorf("dataset path: %w", err)
	} else if !info.IsDir() {
		return fmt.Errorf("dataset path %s is not a directory", root)
	}

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	db, backend, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer backend.Close()
	defer db.Close()

	if _, err := db.GetDatasetByName(ctx, name); err == nil {
		return fmt.Errorf("dataset %q already exists", name)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	q, err := queue.NewRedisQueue(ctx, queue.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to task broker: %w", err)
	}
	defer q.Close()

	ds := &core.Dataset{
		ID:         uuid.NewString(),
		Name:       name,
		SourceKind: "disk",
		Root:       root,
		Owner:      c.String("owner"),
		CreatedAt:  time.Now().UTC(),
	}
	if err := db.PutDataset(ctx, ds); err != nil {
		return fmt.Errorf("failed to register dataset: %w", err)
	}

	service, err := pipeline.NewService(pipeline.Components{Store: db, Queue: q})
	if err != nil {
		return err
	}
	if err := service.StartScan(ctx, ds.ID); err != nil {
		return fmt.Errorf("failed to enqueue scan: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Dataset: %s (%s)\n", ds.Name, ds.ID)
	fmt.Fprintf(os.Stderr, "Root:    %s\n", ds.Root)
	return nil
}

func workerCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: sift worker <class>")
	}
	class, err := parseClass(c.Args().Get(0))
	if err != nil {
		return err
	}

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	level, err := config.ParseLevel(c.String("log-level"))
	if err != nil {
		return err
	}
	logger, cleanup := config.SetupLogger(cfg.LogFile, level)
	defer cleanup()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	service, shutdown, err := buildService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer shutdown()

	worker, err := service.Worker(class, queue.WithPoolSize(c.Int("pool-size")))
	if err != nil {
		return err
	}
	defer worker.Close()

	logger.Info("worker starting", "class", class, "pool_size", c.Int("pool-size"))
	return worker.Run(ctx)
}

func parseClass(name string) (queue.Class, error) {
	for _, class := range queue.Classes {
		if string(class) == name {
			return class, nil
		}
	}
	return "", fmt.Errorf("unknown worker class %q: must be one of light, heavy, ocr, index", name)
}

func openStore(cfg config.Config) (storage.Store, *badger.Backend, error) {
	backend, err := badger.OpenBackend(cfg.DBPath, false)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	db, err := badger.NewStore(backend)
	if err != nil {
		backend.Close()
		return nil, nil, fmt.Errorf("failed to create store: %w", err)
	}
	return db, backend, nil
}

// buildService wires every pipeline component against the configured
// external services. The returned shutdown function closes them in
// reverse dependency order.
func buildService(ctx context.Context, cfg config.Config, logger *slog.Logger) (*pipeline.Service, func(), error) {
	db, backend, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	closers := []func(){func() { backend.Close() }, func() { db.Close() }}
	shutdown := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	objects, err := objectstore.NewMinioStore(ctx, objectstore.MinioConfig{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		UseSSL:    cfg.MinioUseSSL,
	})
	if err != nil {
		shutdown()
		return nil, nil, fmt.Errorf("failed to connect to object store: %w", err)
	}

	contentStore, err := content.NewStore(db, objects, content.WithLogger(logger))
	if err != nil {
		shutdown()
		return nil, nil, err
	}

	registrar, err := vfs.NewRegistrar(contentStore, db, vfs.WithLogger(logger))
	if err != nil {
		shutdown()
		return nil, nil, err
	}

	q, err := queue.NewRedisQueue(ctx, queue.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		shutdown()
		return nil, nil, fmt.Errorf("failed to connect to task broker: %w", err)
	}
	closers = append(closers, func() { q.Close() })

	parser, err := services.NewHTTPMetadataService(cfg.TikaURL, nil)
	if err != nil {
		shutdown()
		return nil, nil, err
	}
	ocr, err := services.NewHTTPOCRService(cfg.OCRURL, nil)
	if err != nil {
		shutdown()
		return nil, nil, err
	}
	ner, err := services.NewHTTPEntityService(cfg.NERURL, nil)
	if err != nil {
		shutdown()
		return nil, nil, err
	}

	router, err := extract.NewRouter(db, extract.WithLogger(logger))
	if err != nil {
		shutdown()
		return nil, nil, err
	}
	router.Register(extract.NewTextExtractor(db), core.KindText)
	router.Register(extract.NewMetadataExtractor(db, parser),
		core.KindPDF, core.KindDoc, core.KindXLS, core.KindPPT, core.KindHTML,
		core.KindAudio, core.KindVideo, core.KindOther)
	router.Register(extract.NewImageExtractor(db, q), core.KindImage)
	archiver, err := extract.NewArchiveExtractor(db, registrar)
	if err != nil {
		shutdown()
		return nil, nil, err
	}
	router.Register(archiver, core.KindArchive)
	mailer, err := extract.NewEmailExtractor(db, registrar)
	if err != nil {
		shutdown()
		return nil, nil, err
	}
	router.Register(mailer, core.KindEmail)

	exec, err := executor.NewExecutor(db, contentStore, router, executor.WithLogger(logger))
	if err != nil {
		shutdown()
		return nil, nil, err
	}
	closers = append(closers, exec.Close)

	p, err := planner.NewPlanner(db, planner.WithLogger(logger))
	if err != nil {
		shutdown()
		return nil, nil, err
	}

	search, err := index.NewHTTPSearchStore(cfg.SearchURL, nil)
	if err != nil {
		shutdown()
		return nil, nil, err
	}
	indexer, err := index.NewIndexer(db, search,
		index.WithLogger(logger), index.WithEntityService(ner))
	if err != nil {
		shutdown()
		return nil, nil, err
	}

	service, err := pipeline.NewService(pipeline.Components{
		Store:     db,
		Content:   contentStore,
		Registrar: registrar,
		Planner:   p,
		Executor:  exec,
		Indexer:   indexer,
		OCR:       extract.NewOCRProcessor(contentStore, db, ocr),
		Queue:     q,
	}, pipeline.WithLogger(logger))
	if err != nil {
		shutdown()
		return nil, nil, err
	}

	return service, shutdown, nil
}

func setupLogger(c *cli.Context) error {
	level, err := config.ParseLevel(c.String("log-level"))
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
