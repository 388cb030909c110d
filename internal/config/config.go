// Package config handles application configuration and setup
package config

import (
	"time"

	"github.com/retroenv/retrochip8/internal/machine"
	"github.com/retroenv/retrochip8/internal/options"
	"github.com/retroenv/retrogolib/log"
)

// CreateLogger creates a logger with appropriate settings
func CreateLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	if debug {
		cfg.Level = log.DebugLevel
	} else if quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}

// CreateMachineConfig maps the program options to the machine configuration.
func CreateMachineConfig(opts options.Program) machine.Config {
	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	return machine.Config{
		CyclesPerFrame: opts.CyclesPerFrame,
		FrameRate:      opts.FrameRate,
		Seed:           seed,
		Trace:          opts.Trace,
	}
}
