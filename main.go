// Package main implements the main entry point for a CHIP-8 emulator
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/retroenv/retrochip8/internal/cli"
	"github.com/retroenv/retrochip8/internal/config"
	"github.com/retroenv/retrochip8/internal/machine"
	"github.com/retroenv/retrochip8/internal/options"
	"github.com/retroenv/retrochip8/internal/pipeline"
	"github.com/retroenv/retrochip8/internal/screen"
	"github.com/retroenv/retrochip8/internal/terminal"
	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/log"
)

// memory rows printed around the program counter after a headless run
const memoryRows = 16

var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	ctx := app.Context()

	opts, err := cli.ParseFlags()
	if err != nil {
		logger := config.CreateLogger(opts.Debug, opts.Quiet)
		var usageErr *cli.UsageError
		if errors.As(err, &usageErr) {
			pipeline.PrintBanner(logger, opts, version, commit, date)
			usageErr.ShowUsage()
		} else {
			logger.Fatal(err.Error())
		}
		os.Exit(1)
	}

	logger := config.CreateLogger(opts.Debug, opts.Quiet)
	pipeline.PrintBanner(logger, opts, version, commit, date)

	if err := run(ctx, logger, opts); err != nil {
		// Handle context cancellation (Ctrl+C or Escape) gracefully
		if errors.Is(err, context.Canceled) {
			logger.Info("Emulation stopped")
			return
		}
		logger.Error("Emulation failed", log.Err(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *log.Logger, opts options.Program) error {
	p := pipeline.New(logger)
	cfg := config.CreateMachineConfig(opts)

	if opts.Headless {
		return runHeadless(ctx, logger, p, opts, cfg)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	termOpts := terminal.Options{
		KeyHold: opts.KeyHold,
		Inspect: opts.Inspect,
	}
	frontend, err := terminal.New(logger, os.Stdin, os.Stdout, termOpts, cancel)
	if err != nil {
		return fmt.Errorf("initializing terminal: %w", err)
	}
	defer frontend.Close()

	_, err = p.Execute(ctx, opts, cfg, frontend)
	return err
}

func runHeadless(ctx context.Context, logger *log.Logger, p *pipeline.Pipeline,
	opts options.Program, cfg machine.Config) error {

	writer := screen.NewWriter(os.Stdout)

	m, err := p.Execute(ctx, opts, cfg, writer)
	if m == nil {
		return err
	}

	if flushErr := writer.Flush(); flushErr != nil {
		return flushErr
	}
	fmt.Print(screen.Registers(m.State()))
	if opts.Inspect {
		memory, memErr := screen.Memory(m.State(), memoryRows)
		if memErr != nil {
			return memErr
		}
		fmt.Print(screen.Stack(m.State()) + memory)
	}

	logger.Info("Headless run finished",
		log.Int("frames", int(m.Frames())),
		log.Int("tones", writer.Beeps()))
	return err
}
