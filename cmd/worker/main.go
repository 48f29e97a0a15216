// Command worker drives one rank>0 fuzzing process: it forwards the
// target harness argv to the instrumentation initializer, then runs
// the epoch loop that uploads the local graph, merges the broadcast
// global graph, and refreshes the partition assignment.
package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/shouc/distfuzz/pkg/cluster"
	"github.com/shouc/distfuzz/pkg/config"
	"github.com/shouc/distfuzz/pkg/corpus"
	"github.com/shouc/distfuzz/pkg/feedback"
	"github.com/shouc/distfuzz/pkg/logging"
	"github.com/shouc/distfuzz/pkg/metrics"
	"github.com/shouc/distfuzz/pkg/objective"
	"github.com/shouc/distfuzz/pkg/transport"
)

func main() {
	configPath := flag.String("config", "", "path to the cluster config YAML")
	flag.Parse()

	harnessArgv := flag.Args()
	if len(harnessArgv) == 0 {
		fmt.Fprintln(os.Stderr, "worker: one positional argument is required: target-harness argv")
		os.Exit(1)
	}

	logger := logging.NewDefaultLogger()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Error("worker: config error", logging.Error(err))
		os.Exit(1)
	}
	if cfg.Rank <= 0 {
		logger.Error("worker: rank must be > 0", logging.Rank(cfg.Rank))
		os.Exit(1)
	}
	logger = logging.ForRank(logger, cfg.Rank)

	t, err := buildTransport(cfg)
	if err != nil {
		logger.Error("worker: transport init failed", logging.Error(err))
		os.Exit(1)
	}
	defer t.Close()

	store, err := buildCorpusStore(context.Background(), cfg)
	if err != nil {
		logger.Error("worker: corpus init failed", logging.Error(err))
		os.Exit(1)
	}

	objectives, err := buildObjectiveStore(context.Background(), cfg)
	if err != nil {
		logger.Error("worker: objective store init failed", logging.Error(err))
		os.Exit(1)
	}
	defer objectives.Close()

	registry := metrics.NewRegistry()
	worker := cluster.NewWorker(cfg.Rank, cfg.WorldSize, t, logger)
	worker.SetMetrics(registry)

	hook := feedback.NewHook(worker.Context(), t, logger)
	hook.SetMetrics(registry)

	if err := initHarness(harnessArgv); err != nil {
		logger.Error("worker: harness init failed", logging.Error(err))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("worker: shutting down")
		cancel()
	}()

	if err := runEpochs(ctx, worker, hook, store, objectives, registry, logger); err != nil && ctx.Err() == nil {
		logger.Error("worker: epoch loop exited", logging.Error(err))
		os.Exit(1)
	}
}

// runEpochs drives reconciliation at a fixed cadence. The real fuzzing
// loop (EpochSize iterations of the target harness, each calling
// hook.OnExecutionFinished/OnTestcaseFound) lives outside this module;
// this loop stands in for "EpochSize iterations have elapsed" with a
// wall-clock tick, since the harness and its instrumentation are out of
// scope here.
func runEpochs(ctx context.Context, w *cluster.Worker, hook *feedback.Hook, store corpus.Store, objectives objective.Store, registry *metrics.Registry, logger logging.Logger) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	seenObjectives := make(map[string]bool)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			testcases, err := w.RunEpoch(ctx)
			if err != nil {
				return err
			}
			for _, tc := range testcases {
				sum := sha256.Sum256(tc)
				digest := hex.EncodeToString(sum[:])
				if err := store.Put(ctx, digest, tc); err != nil {
					logger.Error("worker: failed to archive routed testcase", logging.Error(err))
				}
			}
			registry.RecordCoverageRatio(hook.CoverageRatio(w.Graph()))

			recorded, err := objectives.List(ctx)
			if err != nil {
				logger.Error("worker: failed to list objectives", logging.Error(err))
				continue
			}
			for _, o := range recorded {
				if seenObjectives[o.Digest] {
					continue
				}
				seenObjectives[o.Digest] = true
				registry.RecordObjective(string(o.Kind))
			}
		}
	}
}

// initHarness forwards argv to the instrumentation initializer. The
// harness's own execution loop, coverage bitmap, and edge-trace array
// are produced by that process and consumed through the feedback hook;
// neither is implemented here.
func initHarness(argv []string) error {
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Env = os.Environ()
	return cmd.Start()
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Config{}, fmt.Errorf("worker: -config is required")
	}
	return config.Load(path)
}

func buildTransport(cfg config.Config) (transport.Transport, error) {
	if cfg.Backend == config.BackendLocal {
		return nil, fmt.Errorf("worker: backend %q only supports in-process runs; use -tags zmq or -tags nng for a standalone worker process", cfg.Backend)
	}
	return transport.Build(cfg.Rank, string(cfg.Backend), cfg.Addresses)
}

func buildObjectiveStore(ctx context.Context, cfg config.Config) (objective.Store, error) {
	if !cfg.Objective.Enabled {
		return objective.NewMemoryStore(), nil
	}
	return objective.NewPGStore(ctx, cfg.Objective.PostgresDSN)
}

func buildCorpusStore(ctx context.Context, cfg config.Config) (corpus.Store, error) {
	switch cfg.Corpus.Backend {
	case "s3":
		return corpus.NewS3Store(ctx, cfg.Corpus.Region, cfg.Corpus.Bucket, cfg.Corpus.Prefix)
	default:
		dir := cfg.Corpus.Directory
		if dir == "" {
			dir = "./corpus"
		}
		return corpus.NewFSStore(dir)
	}
}
