package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/theohartsook/go-forth-and-measure/cmd/gfam/app"
)

const (
	exitOK          = 0
	exitFailure     = 1
	exitUsage       = 2
	exitInterrupted = 130 // 128 + SIGINT, what a shell reports for ^C
)

const usage = `usage: gfam -c config.yaml

Extracts frames and GPMF telemetry from a GoPro video, conditions the telemetry
and tags every kept frame with position and orientation for Pix4D or
RealityCapture.

`

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var logLevel slog.LevelVar
	logger := slog.New(slog.NewTextHandler(stdout, &slog.HandlerOptions{Level: &logLevel}))

	flags := flag.NewFlagSet("gfam", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprint(flags.Output(), usage)
		flags.PrintDefaults()
	}

	var configPath string
	flags.StringVar(&configPath, "c", "", "Path to the YAML configuration file")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if configPath == "" {
		logger.Error("no configuration file provided")
		flags.Usage()
		return exitUsage
	}

	config, err := app.LoadConfig(configPath)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to load configuration file: %s", err.Error()), slog.String("path", configPath))
		return exitFailure
	}

	logLevel.Set(config.Settings.Level())

	if err = app.Run(ctx, config, logger); err != nil {
		if ctx.Err() != nil {
			logger.Warn("Run interrupted, frames tagged so far are kept", slog.String("error", err.Error()))
			return exitInterrupted
		}
		logger.Error(err.Error())
		return exitFailure
	}

	return exitOK
}
