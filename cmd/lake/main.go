package main

import (
	"fmt"
	"os"

	"github.com/downfa11-org/go-lake/pkg/config"
	"github.com/downfa11-org/go-lake/util"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "lake",
		Usage: "ingest record batches into a parquet data lake and keep it compacted",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML or JSON config file", EnvVars: []string{"CONFIG_PATH"}},
			&cli.StringFlag{Name: "data-lake", Usage: "data lake root directory"},
			&cli.StringFlag{Name: "dataset", Usage: "dataset name used in file names"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
		},
		Commands: []*cli.Command{
			runCommand(),
			compactCommand(),
			statsCommand(),
			truncateCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

// loadConfig merges file, environment and explicitly set flags, in that order.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("data-lake") {
		cfg.DataLakePath = c.String("data-lake")
	}
	if c.IsSet("dataset") {
		cfg.Dataset = c.String("dataset")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = util.ParseLogLevel(c.String("log-level"))
	}
	if c.IsSet("source-url") {
		cfg.SourceURL = c.String("source-url")
	}
	if c.IsSet("timeout") {
		cfg.RunTimeout = c.Duration("timeout")
	}
	if c.IsSet("flush-threshold") {
		cfg.FlushThreshold = c.Int("flush-threshold")
	}
	if c.IsSet("batch-size") {
		cfg.BatchSize = c.Int("batch-size")
	}
	if c.IsSet("no-watcher") {
		cfg.EnableWatcher = !c.Bool("no-watcher")
	}
	cfg.Normalize()

	util.SetLevel(cfg.LogLevel)
	util.SetFormat(cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
