package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/downfa11-org/go-lake/pkg/disk"
	"github.com/downfa11-org/go-lake/pkg/ingest"
	"github.com/downfa11-org/go-lake/pkg/metrics"
	"github.com/downfa11-org/go-lake/pkg/source"
	"github.com/downfa11-org/go-lake/util"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "poll the record source and publish batches until the timeout",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "source-url", Usage: "record source endpoint"},
			&cli.DurationFlag{Name: "timeout", Usage: "how long to keep polling"},
			&cli.IntFlag{Name: "flush-threshold", Usage: "buffered records that trigger a flush"},
			&cli.IntFlag{Name: "batch-size", Usage: "records requested per fetch"},
			&cli.BoolFlag{Name: "no-watcher", Usage: "do not compact the landing zone"},
		},
		Action: runIngest,
	}
}

func runIngest(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err, 1)
	}
	if cfg.SourceURL == "" {
		return cli.Exit(fmt.Sprintf("%v: set RECORD_SOURCE_URL", source.ErrSourceConfig), 1)
	}

	lake, err := disk.OpenLake(cfg.DataLakePath)
	if err != nil {
		return cli.Exit(err, 1)
	}
	if n, err := lake.SweepStaging(cfg.StagingMaxAge); err != nil {
		util.Warn("Staging sweep failed: %v", err)
	} else if n > 0 {
		util.Info("Removed %d stale staging files", n)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("🚀 Ingesting into %s (dataset %q)\n", lake.LandingDir, cfg.Dataset)
	fmt.Printf("🧹 Watcher: %v | 📊 Exporter: %v\n", cfg.EnableWatcher, cfg.EnableExporter)

	if cfg.EnableExporter {
		metrics.StartMetricsServer(cfg.ExporterPort)
	}
	go lake.RunStagingSweeper(ctx, cfg.StagingMaxAge/2, cfg.StagingMaxAge)

	var watcher *disk.Watcher
	if cfg.EnableWatcher {
		notifier, err := disk.NewFSNotifier(lake.LandingDir)
		if err != nil {
			return cli.Exit(err, 1)
		}
		compactor := disk.NewCompactor(lake, cfg.Dataset, disk.WithCompactorCompression(cfg.Compression))
		watcher = disk.NewWatcher(notifier, compactor, cfg.CompactionThreshold, util.Logger())
		watcher.Start()
	}

	fetcher := source.NewRetrier(
		source.NewHTTPClient(cfg.SourceURL, cfg.SourceTimeout),
		cfg.RetryMaxAttempts,
		cfg.RetryUnit,
	)
	writer := disk.NewWriter(lake, cfg.Dataset, disk.WithCompression(cfg.Compression))
	loop := ingest.NewLoop(fetcher, writer, ingest.Options{
		BatchSize:      cfg.BatchSize,
		FlushThreshold: cfg.FlushThreshold,
		Timeout:        cfg.RunTimeout,
		PollingCadence: cfg.PollingCadence,
	}, util.Logger())

	if err := loop.Run(ctx); err != nil {
		util.Error("Ingestion finished with unpublished records: %v", err)
	}
	if watcher != nil {
		if err := watcher.Stop(); err != nil {
			util.Warn("Watcher stop: %v", err)
		}
	}
	util.Info("Ingestion stopped")
	return nil
}

func compactCommand() *cli.Command {
	return &cli.Command{
		Name:  "compact",
		Usage: "compact the landing zone once, regardless of the threshold",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return cli.Exit(err, 1)
			}
			lake, err := disk.OpenLake(cfg.DataLakePath)
			if err != nil {
				return cli.Exit(err, 1)
			}

			res, err := disk.NewCompactor(lake, cfg.Dataset, disk.WithCompactorCompression(cfg.Compression)).Compact(lake.LandingDir)
			switch {
			case res == nil && err == nil:
				fmt.Println("Nothing to compact.")
				return nil
			case res == nil:
				return cli.Exit(err, 1)
			}
			fmt.Printf("✅ %d files -> %s (%s rows, %s)\n",
				len(res.Inputs), res.Output.Name, humanize.Comma(res.Rows), humanize.Bytes(uint64(res.Output.SizeBytes)))
			if errors.Is(err, disk.ErrPartialDeletion) {
				fmt.Printf("⚠️ %d originals could not be deleted: %v\n", len(res.Leftover), res.Leftover)
			}
			return nil
		},
	}
}

func statsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "print file, row and size totals of the landing zone",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return cli.Exit(err, 1)
			}
			lake, err := disk.OpenLake(cfg.DataLakePath)
			if err != nil {
				return cli.Exit(err, 1)
			}

			start := time.Now()
			s, err := lake.Stats()
			if err != nil {
				return cli.Exit(err, 1)
			}
			fmt.Printf("Landing:   %s\n", lake.LandingDir)
			fmt.Printf("Files:     %d (%d compacted)\n", s.Files, s.CompactedFiles)
			fmt.Printf("Rows:      %s\n", humanize.Comma(s.Rows))
			fmt.Printf("Size:      %s\n", humanize.Bytes(uint64(s.Bytes)))
			fmt.Printf("Staging:   %d files\n", s.StagingFiles)
			fmt.Printf("Scanned in %s\n", time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
}

func truncateCommand() *cli.Command {
	return &cli.Command{
		Name:  "truncate",
		Usage: "delete every landing and staging file",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "yes", Usage: "confirm deletion"},
		},
		Action: func(c *cli.Context) error {
			if !c.Bool("yes") {
				return cli.Exit("refusing to truncate without --yes", 1)
			}
			cfg, err := loadConfig(c)
			if err != nil {
				return cli.Exit(err, 1)
			}
			lake, err := disk.OpenLake(cfg.DataLakePath)
			if err != nil {
				return cli.Exit(err, 1)
			}
			if err := lake.Truncate(); err != nil {
				return cli.Exit(err, 1)
			}
			fmt.Printf("🗑️ Truncated %s\n", lake.Root)
			return nil
		},
	}
}
