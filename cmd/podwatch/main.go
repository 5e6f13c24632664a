package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abulimen/pnode-watch/internal/alerts"
	"github.com/abulimen/pnode-watch/internal/config"
	"github.com/abulimen/pnode-watch/internal/credits"
	"github.com/abulimen/pnode-watch/internal/geo"
	"github.com/abulimen/pnode-watch/internal/poller"
	"github.com/abulimen/pnode-watch/internal/scheduler"
	"github.com/abulimen/pnode-watch/internal/seeds"
	"github.com/abulimen/pnode-watch/internal/server"
	"github.com/abulimen/pnode-watch/internal/storage"
)

func main() {
	pollOnce := flag.Bool("poll-once", false, "Run one poll cycle immediately and exit (for testing purposes)")
	flag.Parse()

	log.Println("Starting pNode Watch...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// The interactive path can serve without a store, so a storage failure
	// degrades the batch path instead of killing the process.
	store, err := storage.New(cfg.DatabasePath)
	if err != nil {
		log.Printf("Failed to initialize storage, batch path disabled: %v", err)
		store = nil
	} else {
		defer store.Close()
	}

	geoResolver, err := geo.NewResolver(cfg.GeoDBPath)
	if err != nil {
		log.Printf("GeoIP enrichment disabled: %v", err)
	}
	defer geoResolver.Close()

	interactiveCoord := seeds.NewCoordinator(seeds.NewClient(cfg.InteractiveTimeout), cfg.SeedNodes)
	batchCoord := seeds.NewCoordinator(seeds.NewClient(cfg.BatchTimeout), cfg.SeedNodes)
	creditsClient := credits.NewClient(cfg.CreditsEndpoint, cfg.CreditsTimeout)

	p := poller.New(
		interactiveCoord,
		batchCoord,
		creditsClient,
		geoResolver,
		store,
		alerts.NewStatusDiffer(),
		cfg.LatestVersion,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *pollOnce {
		log.Println("Poll-once mode enabled - running a single cycle...")
		if store == nil {
			log.Fatal("Cannot run a poll cycle without storage")
		}
		result, err := p.RunCycle(ctx)
		if err != nil {
			log.Fatalf("Poll cycle failed: %v", err)
		}
		log.Printf("Poll cycle complete: snapshot %d with %d nodes", result.SnapshotID, result.Nodes)
		return
	}

	var sched *scheduler.Scheduler
	if store != nil && cfg.PollInterval > 0 {
		sched = scheduler.New(p, store, scheduler.SchedulerConfig{
			PollInterval:  cfg.PollInterval,
			RetentionDays: cfg.RetentionDays,
		})
		if err := sched.Start(ctx); err != nil {
			log.Fatalf("Failed to start scheduler: %v", err)
		}
	}

	srv := server.New(cfg, p, store)
	go func() {
		if err := srv.Start(cfg.ListenAddr); err != nil {
			log.Printf("HTTP server stopped: %v", err)
		}
	}()

	log.Printf("pNode Watch is running on %s. Press Ctrl+C to stop.", cfg.ListenAddr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Received shutdown signal")
	if sched != nil {
		sched.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("pNode Watch stopped")
}
