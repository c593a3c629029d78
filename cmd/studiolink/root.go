// Package studiolink is the CLI entry point: flag parsing, logger setup,
// and handing off to pkg/launcher for the actual broker/HTTP/MCP wiring.
package studiolink

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/flarecore/studiolink/pkg/broker"
	"github.com/flarecore/studiolink/pkg/config"
	"github.com/flarecore/studiolink/pkg/launcher"
)

// version is studiolink's own version string, taken from broker.Version so
// the CLI and the broker always report the same value.
const version = broker.Version

// Execute parses CLI flags, sets up logging, and runs the broker until the
// process receives SIGINT/SIGTERM or the assistant closes stdio.
func Execute() error {
	cfg, err := config.LoadFile(config.Defaults())
	if err != nil {
		return fmt.Errorf("loading config file: %w", err)
	}
	cfg, err = config.ParseFlags(os.Args[1:], cfg, version)
	if err != nil {
		return err
	}

	log := newLogger(cfg)
	log.WithFields(logrus.Fields{
		"version": version,
		"port":    cfg.Port,
	}).Info("studiolink starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go config.Watch(ctx.Done(), log)

	return launcher.RunStudio(ctx, cfg.Port, log)
}

// newLogger builds the broker-wide logger. Logging goes to stderr only —
// stdout is reserved for the MCP JSON-RPC stream, matching the original
// tracing_subscriber setup this repository is grounded on.
func newLogger(cfg config.Config) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{
		DisableColors: true,
		FullTimestamp: true,
	})

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}
