package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/selivandex/rally-radar/internal/adapters/config"
	"github.com/selivandex/rally-radar/internal/app"
	"github.com/selivandex/rally-radar/internal/predictions"
	"github.com/selivandex/rally-radar/pkg/logger"
)

func main() {
	id := flag.String("id", "", "Prediction ID to build an options recommendation for")
	timeout := flag.Duration("timeout", 2*time.Minute, "Overall timeout")
	flag.Parse()

	if *id == "" {
		fmt.Fprintln(os.Stderr, "Usage: recommend -id <prediction-id>")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pipeline, err := app.New(ctx, cfg, app.Options{SkipSinks: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize pipeline: %v\n", err)
		os.Exit(1)
	}
	defer pipeline.Close()

	rec, err := pipeline.Store.Get(ctx, *id)
	if errors.Is(err, predictions.ErrNotFound) {
		fmt.Fprintf(os.Stderr, "Prediction %s not found\n", *id)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load prediction: %v\n", err)
		os.Exit(1)
	}

	out := pipeline.Recommender.Recommend(ctx, rec)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode recommendation: %v\n", err)
		os.Exit(1)
	}
}
