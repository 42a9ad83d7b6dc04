package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/ndetsrc/internal/config"
	"github.com/roach88/ndetsrc/internal/engine"
	"github.com/roach88/ndetsrc/internal/store"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	Database string
	Events   int64
	Workers  int

	// RunIDs allows overriding the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs engine.RunIDGenerator
}

// GenerateResult is the JSON payload of the generate command.
type GenerateResult struct {
	RunID      string `json:"run_id"`
	Name       string `json:"name"`
	Database   string `json:"database"`
	Events     int64  `json:"events"`
	Vertices   int64  `json:"vertices"`
	ConfigHash string `json:"config_hash"`
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	return newGenerateCommand(&GenerateOptions{RootOptions: rootOpts})
}

func newGenerateCommand(opts *GenerateOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <config>",
		Short: "Generate primary vertices into a SQLite database",
		Long: `Build the source described by a run configuration and generate events
with a pool of workers. Every event's primary vertices are written to the
database under a new run ID.

Workers share one source and draw from it one event at a time; a single
writer drains the finished events into the database in generation order.

Example:
  ndetsrc generate --db ./vertices.db runs/co60.yaml
  ndetsrc generate --db ./vertices.db runs/beam.cue --events 100000 --workers 8`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().Int64VarP(&opts.Events, "events", "n", 0, "number of events (default: from config)")
	cmd.Flags().IntVarP(&opts.Workers, "workers", "w", 0, "number of worker goroutines (default: from config)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runGenerate(opts *GenerateOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	cfg, err := config.Load(path)
	if err != nil {
		return formatter.Fail(ExitCommandError, "invalid config", err)
	}
	if opts.Events > 0 {
		cfg.Events = opts.Events
	}
	if opts.Workers > 0 {
		cfg.Workers = opts.Workers
	}

	eng, err := config.Build(cfg)
	if err != nil {
		return formatter.Fail(ExitCommandError, "invalid source", err)
	}
	hash, err := config.Hash(cfg)
	if err != nil {
		return formatter.Fail(ExitCommandError, "invalid config", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	runIDs := opts.RunIDs
	if runIDs == nil {
		runIDs = engine.UUIDv7Generator{}
	}
	runID := runIDs.Generate()

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, stopping generation", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	run := store.Run{
		ID:              runID,
		Name:            cfg.Name,
		SourceType:      eng.SourceType(),
		Seed:            cfg.Seed,
		EventsRequested: cfg.Events,
		ConfigHash:      hash,
	}
	if err := st.BeginRun(ctx, run, cfg); err != nil {
		return formatter.Fail(ExitCommandError, "failed to record run", err)
	}
	slog.Info("generation starting", "run", runID, "events", cfg.Events, "workers", cfg.Workers, "db", opts.Database)

	generated, genErr := generate(ctx, eng, st.Sink(ctx, runID), cfg.Events, cfg.Workers)

	status := store.RunComplete
	if genErr != nil {
		status = store.RunFailed
	}
	// The run row is finalised even when ctx was cancelled.
	if err := st.FinishRun(context.WithoutCancel(ctx), runID, generated, status); err != nil {
		return formatter.Fail(ExitFailure, "failed to finish run", err)
	}
	if genErr != nil {
		slog.Error("generation failed", "run", runID, "generated", generated, "error", genErr)
		return formatter.Fail(ExitFailure, "generation failed", genErr)
	}

	vertices, err := st.CountVertices(ctx, runID, "")
	if err != nil {
		return formatter.Fail(ExitFailure, "failed to count vertices", err)
	}
	slog.Info("generation finished", "run", runID, "events", generated, "vertices", vertices)

	text := fmt.Sprintf("run %s: %d events, %d vertices written to %s\n", runID, generated, vertices, opts.Database)
	return formatter.Success(text, GenerateResult{
		RunID:      runID,
		Name:       cfg.Name,
		Database:   opts.Database,
		Events:     generated,
		Vertices:   vertices,
		ConfigHash: hash,
	})
}

// generate runs workers goroutines that share eng until events have been
// generated, the first error, or ctx is done. Events pass through a
// QueueSink so sink sees a single writer. It returns the number of events
// the sink accepted.
func generate(ctx context.Context, eng *engine.Engine, sink engine.EventSink, events int64, workers int) (int64, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	counter := &countingSink{next: sink}
	queue := engine.NewQueueSink(counter)
	writerDone := make(chan error, 1)
	go func() { writerDone <- queue.Run(ctx) }()

	var (
		claimed  atomic.Int64
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for ctx.Err() == nil && claimed.Add(1) <= events {
				if _, err := eng.GeneratePrimaries(queue); err != nil {
					fail(fmt.Errorf("worker %d: %w", worker, err))
					return
				}
			}
		}(w)
	}
	wg.Wait()
	queue.Close()

	// A writer failure closes the queue, so it outranks the worker errors
	// it causes.
	if err := <-writerDone; err != nil && !errors.Is(err, context.Canceled) {
		firstErr = fmt.Errorf("writer: %w", err)
	}
	if firstErr == nil && ctx.Err() != nil {
		firstErr = ctx.Err()
	}
	return counter.n.Load(), firstErr
}

// countingSink counts events accepted by the downstream sink.
type countingSink struct {
	next engine.EventSink
	n    atomic.Int64
}

func (c *countingSink) AddPrimaries(eventID int64, vertices []engine.PrimaryVertex) error {
	if err := c.next.AddPrimaries(eventID, vertices); err != nil {
		return err
	}
	c.n.Add(1)
	return nil
}
