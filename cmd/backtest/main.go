package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/selivandex/rally-radar/internal/adapters/config"
	"github.com/selivandex/rally-radar/internal/app"
	"github.com/selivandex/rally-radar/pkg/logger"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "Score due predictions without persisting outcomes or notifying")
	flag.Parse()

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

	ctx := context.Background()

	pipeline, err := app.New(ctx, cfg, app.Options{SkipSinks: *dryRun})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize pipeline: %v\n", err)
		os.Exit(1)
	}
	defer pipeline.Close()

	if *dryRun {
		if err := preview(ctx, pipeline); err != nil {
			fmt.Fprintf(os.Stderr, "Dry run failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	summary, err := pipeline.Evaluator.RunPending(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Backtest failed: %v\n", err)
		os.Exit(1)
	}

	if summary.LockHeld {
		fmt.Println("Another backtest pass is running, nothing to do")
		return
	}

	fmt.Println("=== Backtest Results ===")
	fmt.Printf("Pending:           %d\n", summary.Pending)
	fmt.Printf("Evaluated:         %d\n", summary.Evaluated)
	fmt.Printf("Still in window:   %d\n", summary.Waiting)
	fmt.Printf("Already completed: %d\n", summary.AlreadyCompleted)
	fmt.Printf("Errors:            %d\n", summary.Errors)
	for outcome, n := range summary.Outcomes {
		fmt.Printf("  %-8s %d\n", outcome, n)
	}
}

func preview(ctx context.Context, pipeline *app.App) error {
	pending, err := pipeline.Repo.ListPending(ctx)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	fmt.Printf("=== Dry Run: %d pending ===\n", len(pending))
	for _, rec := range pending {
		ev, ready := pipeline.Evaluator.EvaluateRecord(ctx, rec, now)
		if !ready {
			fmt.Printf("%s %-8s waiting (window %s)\n", rec.ID, rec.Sector, rec.EvaluationWindow)
			continue
		}
		line := fmt.Sprintf("%s %-8s %-8s %s (%d priced)", rec.ID, rec.Sector, ev.Outcome, ev.Performance, ev.PricedTickers)
		if ev.Err != nil {
			line += " error: " + ev.Err.Error()
		}
		fmt.Println(line)
	}
	return nil
}
