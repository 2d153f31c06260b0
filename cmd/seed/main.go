package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/earthnet/frame-survey/internal/app"
	"github.com/earthnet/frame-survey/internal/clients/pinata"
	"github.com/earthnet/frame-survey/internal/clients/redis"
	"github.com/earthnet/frame-survey/internal/modules/survey/setup"
	"github.com/earthnet/frame-survey/internal/services"
)

func main() {
	var (
		file string
		pin  bool
	)
	flag.StringVar(&file, "file", "", "survey definition (YAML)")
	flag.BoolVar(&pin, "pin", false, "pin question images that have no image_ipfs_hash")
	flag.Parse()

	if file == "" {
		fmt.Fprintln(os.Stderr, "usage: seed -file survey.yaml [-pin]")
		os.Exit(2)
	}
	if err := run(context.Background(), file, pin); err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, file string, pin bool) error {
	def, err := setup.Load(file)
	if err != nil {
		return fmt.Errorf("load definition: %w", err)
	}

	a, err := app.Open()
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	deps := setup.Deps{
		DB:         a.DB.DB(),
		Log:        a.Log,
		Tasks:      a.Repos.Tasks,
		Categories: a.Repos.Categories,
		Questions:  a.Repos.Questions,
		Clusters:   a.Repos.Clusters,
	}
	if pin {
		p, err := pinata.New(a.Log, a.Cfg.Pinata)
		if err != nil {
			return fmt.Errorf("init pinata: %w", err)
		}
		deps.Pinner = p
	}
	// The server's stats snapshots live in Redis when it is configured; a
	// memory cache belongs to the server process and expires on its own.
	if a.Cfg.Redis.Addr != "" {
		cache, err := redis.NewBlobCache(a.Log, a.Cfg.Redis)
		if err != nil {
			return fmt.Errorf("init redis: %w", err)
		}
		defer cache.Close()
		deps.QuestionsChanged = func(ctx context.Context, taskID uint) error {
			return services.InvalidateStats(ctx, cache, taskID)
		}
	}

	task, err := setup.Apply(ctx, deps, def, setup.Options{
		PinImages: pin,
		BaseDir:   filepath.Dir(file),
	})
	if err != nil {
		a.Log.Error("seed failed", "file", file, "error", err)
		return err
	}
	fmt.Printf("created task %d (%s) with %d questions\n", task.ID, task.Title, len(def.Questions))
	return nil
}
