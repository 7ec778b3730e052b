// Command seed loads a YAML fixture file into the configured project store.
//
//	seed -file fixtures/projects.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/alanyang/construction-hub/internal/config"
	"github.com/alanyang/construction-hub/internal/seed"
	projectsvc "github.com/alanyang/construction-hub/internal/service/project"
	"github.com/alanyang/construction-hub/internal/wire"
)

func main() {
	file := flag.String("file", "", "YAML seed file (defaults to SEED_FILE)")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := run(context.Background(), *file); err != nil {
		slog.Error("seeding failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, path string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if path == "" {
		path = cfg.App.SeedFile
	}
	if path == "" {
		return errors.New("no seed file given; pass -file or set SEED_FILE")
	}

	backends, closers, err := wire.OpenBackends(ctx, cfg)
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()
	if err != nil {
		return err
	}

	opts := []projectsvc.Option{projectsvc.WithEventBus(backends.Bus)}
	if backends.Cache != nil {
		// Updated records must not be served stale by a shared redis cache.
		opts = append(opts, projectsvc.WithCache(backends.Cache, cfg.Cache.TTL))
	}
	svc := projectsvc.NewService(backends.Store, opts...)
	res, err := seed.LoadFile(ctx, path, svc)
	if err != nil {
		return err
	}
	slog.Info("seed complete", "file", path, "created", res.Created, "updated", res.Updated, "skipped", res.Skipped)
	return nil
}
