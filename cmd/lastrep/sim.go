package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"

	"go.uber.org/zap"

	"github.com/nathoo/lastrep/config"
	"github.com/nathoo/lastrep/ledger"
	"github.com/nathoo/lastrep/logging"
	"github.com/nathoo/lastrep/sim"
)

func runSim(cfg config.Config, args []string) {
	opts := sim.Options{
		Runs:    100,
		Seed:    cfg.Seed,
		Policy:  sim.PolicyRandom,
		Workers: cfg.SimWorkers,
	}
	ledgerPath := cfg.Ledger
	useLedger := true
	history := 0
	var contentDir string

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--runs":
			opts.Runs = int(parseInt(args, &i))
		case "--seed":
			opts.Seed = parseInt(args, &i)
		case "--workers":
			opts.Workers = int(parseInt(args, &i))
		case "--policy":
			opts.Policy = sim.Policy(flagValue(args, &i))
		case "--ledger":
			ledgerPath = flagValue(args, &i)
		case "--no-ledger":
			useLedger = false
		case "--history":
			history = int(parseInt(args, &i))
		case "--content":
			contentDir = flagValue(args, &i)
		case "-h", "--help":
			fmt.Println(usage)
			return
		default:
			config.Exitf("Unknown sim argument %q\n%s", args[i], usage)
		}
	}

	logger, err := logging.New(logging.Config{
		Level:    cfg.LogLevel,
		Encoding: cfg.LogEncoding,
	})
	if err != nil {
		config.Exitf("Error creating logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if history > 0 {
		printHistory(ctx, ledgerPath, history)
		return
	}

	if opts.Seed == 0 {
		seed, err := cfg.ResolveSeed()
		if err != nil {
			config.Exitf("Error choosing seed: %v", err)
		}
		opts.Seed = seed
	}

	graph := loadGraph(contentDir, logger)
	batch, err := sim.Run(ctx, graph, opts, logger)
	if err != nil {
		config.Exitf("Simulation failed: %v", err)
	}

	fmt.Printf("batch %s | seed %d | policy %s\n", batch.ID, opts.Seed, opts.Policy)
	fmt.Println(sim.Summarize(batch.Results).Table())

	if !useLedger {
		return
	}
	l, err := ledger.Open(ctx, ledgerPath)
	if err != nil {
		config.Exitf("Error opening ledger: %v", err)
	}
	defer l.Close()
	if err := l.Record(ctx, graph, batch); err != nil {
		config.Exitf("Error recording batch: %v", err)
	}
	logger.Info("batch recorded", zap.String("ledger", ledgerPath), zap.String("batch", batch.ID))
}

func printHistory(ctx context.Context, path string, limit int) {
	l, err := ledger.Open(ctx, path)
	if err != nil {
		config.Exitf("Error opening ledger: %v", err)
	}
	defer l.Close()

	batches, err := l.Batches(ctx, limit)
	if err != nil {
		config.Exitf("Error reading ledger: %v", err)
	}
	for _, b := range batches {
		fmt.Printf("%s  %s  %s v%s  runs=%d seed=%d policy=%s\n",
			b.CreatedAt.Format("2006-01-02 15:04:05"), b.ID, b.Game, b.Version, b.Runs, b.Seed, b.Policy)

		ids := make([]string, 0, len(b.Endings))
		for id := range b.Endings {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			name := id
			if name == "" {
				name = "(unfinished)"
			}
			fmt.Printf("    %-24s %d\n", name, b.Endings[id])
		}
	}
}
