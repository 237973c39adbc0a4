package main

import (
	"context"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docintake/internal/app"
	"github.com/joseph-ayodele/docintake/internal/async"
	"github.com/joseph-ayodele/docintake/internal/common"
	"github.com/joseph-ayodele/docintake/internal/ingest"
	"github.com/joseph-ayodele/docintake/internal/repository"
	"github.com/joseph-ayodele/docintake/internal/server"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the local trigger queue and the gRPC health service",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialise", "error", err)
		return err
	}
	defer a.Close()

	queue := async.NewProcessorQueue(a.Processor, logger,
		async.WithWorkers(cfg.Queue.Workers),
		async.WithQueueSize(cfg.Queue.Size),
		async.WithProcessTimeout(cfg.Queue.ProcessTimeout),
	)
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		queue.Shutdown(sctx)
	}()

	// the s3 backend is triggered by bucket notifications; fs needs a local trigger
	localFS := cfg.Storage.Backend == common.BackendFS
	var notifier ingest.Notifier
	if localFS && !cfg.Storage.WatchUploads {
		notifier = queue
	}

	deps := server.Deps{
		Uploader:  a.NewUploader(notifier),
		WorkItems: a.WorkItems,
		Exporter:  a.Exporter,
		Processor: a.Processor,
		Queue:     queue,
		Files:     a.Store,
		Signer:    a.Signer,
		Metrics:   a.Metrics,
		Logger:    logger,
	}
	if a.Jobs != nil {
		deps.Jobs = a.Jobs
	}
	if a.DB != nil {
		deps.Ping = func(ctx context.Context) error {
			return repository.HealthCheck(ctx, a.DB, 2*time.Second, logger)
		}
	}

	var wg sync.WaitGroup
	errCh := make(chan error, 3)
	run := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				logger.Error("component stopped", "component", name, "error", err)
				errCh <- err
				stop()
			}
		}()
	}

	run("http", func() error {
		return server.ServeHTTP(ctx, cfg.Server.HTTPAddr, server.NewRouter(deps), shutdownTimeout, logger)
	})
	if cfg.Server.GRPCAddr != "" {
		srv, hs := server.NewGRPCServer()
		run("grpc", func() error { return server.ServeGRPC(ctx, cfg.Server.GRPCAddr, srv, hs, logger) })
	}
	if localFS && cfg.Storage.WatchUploads {
		w := ingest.NewWatcher(ingest.WatchConfig{
			Root:     filepath.Join(cfg.Storage.FSRoot, cfg.Storage.ImageBucket),
			Bucket:   cfg.Storage.ImageBucket,
			Debounce: 500 * time.Millisecond,
		}, queue, logger)
		run("watcher", func() error { return w.Run(ctx) })
	}

	logger.Info("docintake started", "backend", cfg.Storage.Backend, "http_addr", cfg.Server.HTTPAddr, "job_log", a.Jobs != nil)
	<-ctx.Done()
	wg.Wait()
	close(errCh)
	logger.Info("docintake stopped")
	return <-errCh
}
