// Copyright 2025 Tom Barlow
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

// Command direclawd is the orchestration engine daemon: it claims
// messages from the durable queue, resolves and runs workflows, and
// drives the schedule runner, all under a single-instance flock.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmuso/direclaw-sub003/internal/direclaw/config"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/daemon"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/diagnostics"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/fsatomic"
	direclawlog "github.com/dmuso/direclaw-sub003/internal/direclaw/log"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/orderkey"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/provider"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/queue"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/runstore"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/scheduler"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/selector"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/supervisor"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/workflow"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	var (
		stateRoot   = flag.String("state-root", "", "Engine state root directory (default: $HOME/.direclaw)")
		configPath  = flag.String("config", "", "Path to the global config file (default: $HOME/.direclaw.yaml)")
		workerCount = flag.Int("workers", 2, "Number of concurrent queue workers")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("direclawd %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	logger := direclawlog.New(direclawlog.FromEnv())
	slog.SetDefault(logger)

	root := *stateRoot
	if root == "" {
		defaultRoot, err := fsatomic.DefaultRoot()
		if err != nil {
			logger.Error("failed to resolve default state root", "error", err)
			os.Exit(1)
		}
		root = defaultRoot
	}
	paths := fsatomic.New(root)
	if err := fsatomic.Bootstrap(paths); err != nil {
		logger.Error("failed to bootstrap state directories", "error", err)
		os.Exit(1)
	}

	globalPath := *configPath
	if globalPath == "" {
		defaultPath, err := config.DefaultGlobalConfigPath()
		if err != nil {
			logger.Error("failed to resolve default config path", "error", err)
			os.Exit(1)
		}
		globalPath = defaultPath
	}
	globalCfg, err := config.LoadGlobalConfig(globalPath)
	if err != nil {
		logger.Error("failed to load global config", "error", err)
		os.Exit(1)
	}

	registry, err := daemon.BuildRegistry(globalCfg)
	if err != nil {
		logger.Error("failed to build orchestrator registry", "error", err)
		os.Exit(1)
	}

	lock := supervisor.NewLock(paths.SupervisorLock())
	if err := lock.Acquire(); err != nil {
		logger.Error("failed to acquire single-instance lock", "error", err)
		os.Exit(1)
	}
	defer lock.Release()

	recovered, err := queue.New(paths).RecoverOnStartup()
	if err != nil {
		logger.Error("failed to recover in-flight queue messages", "error", err)
		os.Exit(1)
	}
	if recovered > 0 {
		logger.Info("recovered in-flight messages from a prior crash", "count", recovered)
	}

	runs := runstore.New(paths)
	diag := diagnostics.New(paths)
	invoker := provider.New()
	engine := workflow.New(invoker, runs, paths, logger)
	sched := orderkey.New(orderkey.DefaultMaxConcurrency, orderkey.DefaultMinPollInterval, orderkey.DefaultMaxPollInterval)
	q := queue.New(paths)

	workers := make([]supervisor.Worker, 0, *workerCount+len(registry.Orchestrators))
	for i := 0; i < *workerCount; i++ {
		id := fmt.Sprintf("queue-worker-%d", i)
		matcher, errs := selector.NewLexicalMatcher(nil)
		for _, mErr := range errs {
			logger.Warn("dropped invalid lexical rule", "error", mErr)
		}
		resolver := selector.NewResolver(matcher, invoker, logger, 0)
		w := daemon.NewWorker(id, q, sched, registry, runs, engine, resolver, diag, logger)
		workers = append(workers, supervisor.Worker{ID: id, Run: w.Run})
	}

	scheduleStore := scheduler.New(paths)
	for orchestratorID := range registry.Orchestrators {
		trigger := scheduler.NewTrigger(paths, orchestratorID)
		runner := scheduler.NewRunner(scheduleStore, trigger, runs, logger)
		workers = append(workers, supervisor.Worker{ID: "scheduler:" + orchestratorID, Run: runner.Run})
	}

	sup := supervisor.New(logger)
	go persistSupervisorState(paths, sup)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() { errCh <- sup.Run(ctx, os.Getpid(), workers) }()

	select {
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", "signal", sig.String())
		cancel()
		if err := <-errCh; err != nil {
			logger.Error("error during shutdown", "error", err)
		}
	case err := <-errCh:
		if err != nil {
			logger.Error("daemon exited with error", "error", err)
			os.Exit(1)
		}
	}
}

// persistSupervisorState writes the supervisor's health snapshot to
// daemon/runtime.json every few seconds so `direclaw status` can read
// it without an RPC channel.
func persistSupervisorState(paths fsatomic.Paths, sup *supervisor.Supervisor) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		body, err := json.MarshalIndent(sup.Snapshot(), "", "  ")
		if err != nil {
			continue
		}
		_ = fsatomic.WriteFile(paths.SupervisorState(), body, 0o644)
	}
}
