// Package sim plays many seasons unattended with a simple choice policy.
// Runs are independent: each has its own engine and game RNG and shares
// only the read-only scene graph, so they execute in parallel.
package sim

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nathoo/lastrep/engine"
	"github.com/nathoo/lastrep/engine/rng"
	"github.com/nathoo/lastrep/engine/state"
	"github.com/nathoo/lastrep/types"
)

var (
	// ErrNoRuns is returned when a batch asks for fewer than one run.
	ErrNoRuns = errors.New("sim: runs must be at least 1")

	// ErrUnknownPolicy is returned for a policy name outside the known set.
	ErrUnknownPolicy = errors.New("sim: unknown policy")
)

// DefaultMaxSteps caps a single run. Assess choices take no time, so a
// random policy can in principle circle forever.
const DefaultMaxSteps = 500

// policySalt separates the policy stream from the game stream of the
// same run.
const policySalt = 0x5eed

// Options configures a batch.
type Options struct {
	Runs     int
	Seed     int64 // run i plays seed Seed+i
	Policy   Policy
	Workers  int // defaults to 1
	MaxSteps int // defaults to DefaultMaxSteps
}

// Result is one finished run.
type Result struct {
	RunID     string
	Index     int
	Seed      int64
	Policy    Policy
	Ending    string // empty when Truncated
	Truncated bool
	Turns     int
	Stats     types.Stats
	Keys      []string
	Elapsed   time.Duration
}

// Batch is the output of Run.
type Batch struct {
	ID      string
	Options Options
	Results []Result // ordered by Index
}

// Run plays opts.Runs seasons on graph. Results depend only on the graph,
// the seed and the policy; the worker count changes nothing but speed.
// Cancelling ctx stops the batch between runs.
func Run(ctx context.Context, graph *state.Graph, opts Options, logger *zap.Logger) (*Batch, error) {
	if opts.Runs < 1 {
		return nil, ErrNoRuns
	}
	if graph == nil {
		return nil, engine.ErrNilGraph
	}
	choose, err := opts.Policy.chooser()
	if err != nil {
		return nil, err
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.MaxSteps < 1 {
		opts.MaxSteps = DefaultMaxSteps
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	batch := &Batch{
		ID:      uuid.NewString(),
		Options: opts,
		Results: make([]Result, opts.Runs),
	}
	logger = logger.With(zap.String("batch", batch.ID))
	logger.Info("simulation started",
		zap.Int("runs", opts.Runs),
		zap.Int64("seed", opts.Seed),
		zap.String("policy", string(opts.Policy)),
		zap.Int("workers", opts.Workers),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i := 0; i < opts.Runs; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := playOne(graph, opts, i, choose)
			if err != nil {
				return fmt.Errorf("run %d: %w", i, err)
			}
			batch.Results[i] = res
			logger.Debug("run finished",
				zap.Int("index", i),
				zap.String("ending", res.Ending),
				zap.Int("turns", res.Turns),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.Info("simulation finished", zap.Int("runs", opts.Runs))
	return batch, nil
}

// playOne plays run i to an ending or to the step cap.
func playOne(graph *state.Graph, opts Options, i int, choose chooser) (Result, error) {
	start := time.Now()
	seed := opts.Seed + int64(i)

	e, err := engine.New(graph, seed, nil)
	if err != nil {
		return Result{}, err
	}
	pr := rng.New(seed ^ policySalt)

	for step := 0; step < opts.MaxSteps && !e.Ended(); step++ {
		scene := e.Scene()
		if len(scene.Choices) == 0 {
			break
		}
		ch := choose(scene.Choices, e.Snapshot().Stats, pr)
		e.Step(ch.Key)
	}

	snap := e.Snapshot()
	return Result{
		RunID:     uuid.NewString(),
		Index:     i,
		Seed:      seed,
		Policy:    opts.Policy,
		Ending:    snap.Ending,
		Truncated: !snap.Ended,
		Turns:     snap.Turn,
		Stats:     snap.Stats,
		Keys:      snap.Keys,
		Elapsed:   time.Since(start),
	}, nil
}
