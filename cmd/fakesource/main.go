package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/downfa11-org/go-lake/pkg/source"
	"github.com/downfa11-org/go-lake/util"
	"github.com/urfave/cli/v2"
	"github.com/valyala/fasthttp"
)

func main() {
	app := &cli.App{
		Name:  "fakesource",
		Usage: "serve synthetic record batches over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Value: ":8000", Usage: "listen address"},
			&cli.Uint64Flag{Name: "seed", Usage: "random seed (default: current time)"},
		},
		Action: serve,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func serve(c *cli.Context) error {
	seed := c.Uint64("seed")
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	srv := &fasthttp.Server{
		Handler:      source.NewGeneratorHandler(source.NewGenerator(seed)),
		Name:         "fakesource",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.ShutdownWithContext(shutdownCtx); err != nil {
			util.Warn("Shutdown: %v", err)
		}
	}()

	util.Info("Serving synthetic records on %s/records", c.String("addr"))
	return srv.ListenAndServe(c.String("addr"))
}
