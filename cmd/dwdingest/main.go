package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/smukkama/dwd-ingest/internal/dwd"
	"github.com/smukkama/dwd-ingest/internal/ingest"
	"github.com/smukkama/dwd-ingest/internal/queue"
	"github.com/smukkama/dwd-ingest/internal/scheduler"
	"github.com/smukkama/dwd-ingest/internal/sink"
	"github.com/smukkama/dwd-ingest/internal/station"
	"github.com/smukkama/dwd-ingest/pkg/config"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: %s <init|historical|tracking|watch> [flags]

Modes:
  init        one-time backfill: reference means + recent 10-minute data
  historical  full-history backfill from the archived 10-minute files
  tracking    single near-real-time pass over the latest published data
  watch       run tracking passes on a fixed cadence in-process

Flags:
  -config path   YAML configuration file (default "config.yaml")
`, os.Args[0])
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	mode := os.Args[1]

	fs := flag.NewFlagSet(mode, flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "path to YAML config file")
	fs.Parse(os.Args[2:])

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	stations, err := station.Load(cfg.Stations)
	if err != nil {
		log.Fatalf("Invalid station configuration: %v", err)
	}
	log.Printf("Configured %d stations", len(stations))

	ctx := context.Background()

	writer, err := buildSink(cfg)
	if err != nil {
		log.Fatalf("Failed to create sink: %v", err)
	}
	defer writer.Close()

	if err := writer.Ping(ctx); err != nil {
		log.Fatalf("Sink unreachable: %v", err)
	}

	// Keep the interface nil when the stream is disabled; a typed nil
	// publisher would defeat the runner's nil check.
	var stream ingest.PointStream
	if cfg.Kafka.Enabled() {
		publisher := queue.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer publisher.Close()
		stream = publisher
		log.Printf("Point stream enabled (topic %s)", cfg.Kafka.Topic)
	}

	client := dwd.NewClient(dwd.BaseURL, &http.Client{Timeout: 60 * time.Second})

	switch mode {
	case "init":
		runOnce(ctx, ingest.ModeInit, stations, dwd.InitSources(client), writer, stream, dwd.Window{})
	case "historical":
		runOnce(ctx, ingest.ModeHistorical, stations, dwd.HistoricalSources(client), writer, stream, dwd.Window{})
	case "tracking":
		window := dwd.TrailingWindow(time.Now().UTC(), cfg.Tracking.Window)
		runOnce(ctx, ingest.ModeTracking, stations, dwd.TrackingSources(client), writer, stream, window)
	case "watch":
		watch(cfg, stations, writer, stream)
	default:
		usage()
	}
}

// runOnce performs a single run and exits non-zero on sink failure.
func runOnce(ctx context.Context, mode ingest.Mode, stations []station.Station, sources []dwd.Source, writer sink.Writer, stream ingest.PointStream, window dwd.Window) {
	runner := ingest.NewRunner(mode, stations, sources, writer, stream, window)
	if _, err := runner.Run(ctx); err != nil {
		log.Fatalf("Run failed: %v", err)
	}
}

// watch runs tracking passes in-process on the configured cadence. Each
// pass gets fresh sources and a fresh trailing window.
func watch(cfg *config.Config, stations []station.Station, writer sink.Writer, stream ingest.PointStream) {
	pass := func(ctx context.Context) error {
		client := dwd.NewClient(dwd.BaseURL, &http.Client{Timeout: 60 * time.Second})
		window := dwd.TrailingWindow(time.Now().UTC(), cfg.Tracking.Window)
		runner := ingest.NewRunner(ingest.ModeTracking, stations, dwd.TrackingSources(client), writer, stream, window)
		_, err := runner.Run(ctx)
		return err
	}

	sched := scheduler.New(cfg.Tracking.Window, pass)
	if err := sched.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer sched.Stop()
	log.Printf("Watch mode: tracking every %s, Ctrl+C to stop", cfg.Tracking.Window)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Println("Shutting down")
}

func buildSink(cfg *config.Config) (sink.Writer, error) {
	switch cfg.Sink.Backend {
	case "postgres":
		writer, err := sink.NewPostgresWriter(cfg.Postgres.ConnectionString(), cfg.Sink.BatchSize)
		if err != nil {
			return nil, err
		}
		if err := writer.RunMigrations(cfg.Postgres.MigrationsDir); err != nil {
			writer.Close()
			return nil, err
		}
		return writer, nil
	default:
		return sink.NewInfluxWriter(cfg.Influx, cfg.Sink.BatchSize), nil
	}
}
