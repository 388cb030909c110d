// Package pipeline orchestrates the emulation workflow stages.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/retroenv/retrochip8/internal/detector"
	"github.com/retroenv/retrochip8/internal/loader"
	"github.com/retroenv/retrochip8/internal/machine"
	"github.com/retroenv/retrochip8/internal/options"
	"github.com/retroenv/retrogolib/arch"
	"github.com/retroenv/retrogolib/log"
)

// Pipeline orchestrates the complete emulation workflow.
type Pipeline struct {
	logger   *log.Logger
	detector *detector.Detector
	loader   *loader.Loader
}

// New creates a new emulation pipeline.
func New(logger *log.Logger) *Pipeline {
	return &Pipeline{
		logger:   logger,
		detector: detector.New(logger),
		loader:   loader.New(),
	}
}

// Execute runs the complete emulation pipeline. In headless mode the
// configured number of frames is executed as fast as possible, otherwise the
// machine runs in real time until the context is cancelled.
// The machine is returned to allow inspecting its final state.
func (p *Pipeline) Execute(ctx context.Context, opts options.Program, cfg machine.Config,
	frontend machine.Frontend) (*machine.Machine, error) {

	m, err := p.Prepare(opts, cfg, frontend)
	if err != nil {
		return nil, err
	}

	if opts.Headless {
		if err := m.RunFrames(ctx, opts.Frames); err != nil {
			return m, fmt.Errorf("emulating: %w", err)
		}
		return m, nil
	}

	if err := m.Run(ctx); err != nil {
		return m, fmt.Errorf("emulating: %w", err)
	}
	return m, nil
}

// Prepare detects the system, loads the ROM and returns a machine with the
// program loaded that is ready to run.
func (p *Pipeline) Prepare(opts options.Program, cfg machine.Config, frontend machine.Frontend) (*machine.Machine, error) {
	system, err := p.detector.Detect(opts)
	if err != nil {
		return nil, fmt.Errorf("detecting system: %w", err)
	}

	program, err := p.loader.Load(opts)
	if err != nil {
		return nil, fmt.Errorf("loading ROM: %w", err)
	}

	return p.PrepareWithProgram(program, opts, cfg, frontend, system)
}

// PrepareWithProgram creates the machine for an already loaded program.
// This is useful for testing and programmatic usage where the program is already in memory.
func (p *Pipeline) PrepareWithProgram(program []byte, opts options.Program, cfg machine.Config,
	frontend machine.Frontend, system arch.System) (*machine.Machine, error) {

	if system != arch.CHIP8System {
		return nil, fmt.Errorf("unsupported system '%s'", system)
	}

	m, err := machine.New(p.logger, cfg, frontend)
	if err != nil {
		return nil, fmt.Errorf("creating machine: %w", err)
	}
	if err := m.Load(program); err != nil {
		return nil, err
	}

	p.printInfo(opts, cfg, len(program))
	return m, nil
}

// printInfo prints information about the ROM being run.
func (p *Pipeline) printInfo(opts options.Program, cfg machine.Config, size int) {
	if opts.Quiet {
		return
	}

	p.logger.Info("Running Chip-8 ROM",
		log.String("file", opts.Input),
		log.Int("size", size),
		log.Int("cycles", cfg.CyclesPerFrame),
		log.Int("hz", cfg.FrameRate),
	)
	if opts.Headless {
		p.logger.Info("Headless mode", log.Int("frames", opts.Frames))
	}
}

// PrintBanner prints application version information.
func PrintBanner(logger *log.Logger, opts options.Program, version, commit, date string) {
	if opts.Quiet {
		return
	}

	versionString := version
	if commit != "" {
		if len(commit) > 7 {
			commit = commit[:7]
		}
		versionString += fmt.Sprintf(" (%s)", commit)
	}

	logger.Info("retrochip8", log.String("version", versionString))

	if date != "" && !strings.Contains(date, "unknown") {
		logger.Info("Build", log.String("date", date))
	}
}
