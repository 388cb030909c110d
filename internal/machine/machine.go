// Package machine drives the CHIP-8 execution engine in frames and connects it
// to the display, speaker and keypad of a frontend.
package machine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/retroenv/retrochip8/internal/chip8"
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrogolib/set"
)

// Config contains the machine timing and execution settings.
type Config struct {
	CyclesPerFrame int    // instructions executed per frame
	FrameRate      int    // frames per second, also the timer rate
	Seed           uint64 // random number generator seed
	Trace          bool   // log every executed instruction
}

// Display renders the framebuffer.
type Display interface {
	Render(fb *chip8.Framebuffer) error
}

// Speaker plays the buzzer tone while the sound timer is active.
type Speaker interface {
	SetTone(on bool)
}

// Keypad reports the current state of the 16 keys.
type Keypad interface {
	PollKeys(keys *[chip8.NumKeys]bool)
}

// Inspector shows the machine state. Frontends that implement it are passed
// the state after every frame.
type Inspector interface {
	Inspect(state *chip8.State) error
}

// Frontend combines all host interfaces that the machine uses.
type Frontend interface {
	Display
	Speaker
	Keypad
}

// Machine runs a CHIP-8 program frame by frame.
type Machine struct {
	logger   *log.Logger
	cfg      Config
	frontend Frontend

	state *chip8.State
	cpu   *chip8.CPU

	keys     [chip8.NumKeys]bool
	frames   uint64
	reported set.Set[uint16] // program counters that a diagnostic was logged for
}

// New returns a new machine for the given configuration and frontend.
func New(logger *log.Logger, cfg Config, frontend Frontend) (*Machine, error) {
	if cfg.CyclesPerFrame < 1 {
		return nil, fmt.Errorf("invalid cycles per frame %d", cfg.CyclesPerFrame)
	}
	if cfg.FrameRate < 1 {
		return nil, fmt.Errorf("invalid frame rate %d", cfg.FrameRate)
	}

	state := chip8.NewState()
	cpu := chip8.New(state,
		chip8.WithLogger(logger),
		chip8.WithTrace(cfg.Trace),
		chip8.WithSeed(cfg.Seed),
	)

	return &Machine{
		logger:   logger,
		cfg:      cfg,
		frontend: frontend,
		state:    state,
		cpu:      cpu,
		reported: set.New[uint16](),
	}, nil
}

// Load resets the machine and loads the program into memory.
func (m *Machine) Load(program []byte) error {
	m.state.Reset()
	if err := m.state.LoadProgram(program); err != nil {
		return fmt.Errorf("loading program: %w", err)
	}
	m.frames = 0
	m.keys = [chip8.NumKeys]bool{}
	m.reported = set.New[uint16]()
	return nil
}

// State returns the virtual machine state.
func (m *Machine) State() *chip8.State {
	return m.state
}

// Frames returns the number of frames that have been executed since the last load.
func (m *Machine) Frames() uint64 {
	return m.frames
}

// Frame executes a single frame: the keypad is polled, the configured number
// of instructions is executed, the timers are decremented once and the
// display is rendered if it changed. Frontends implementing Inspector are
// passed the state at the end of every frame.
// Instruction errors do not stop the machine: they are logged once per
// program counter, the rest of the frame is skipped and the failed
// instruction is retried in the next frame.
func (m *Machine) Frame() error {
	m.frontend.PollKeys(&m.keys)
	m.state.SetKeys(m.keys)

	redraw := m.frames == 0
	for range m.cfg.CyclesPerFrame {
		pc := m.state.PC()
		if err := m.cpu.Step(); err != nil {
			m.reportError(pc, err)
			break
		}
		if m.state.DisplayFlag() {
			redraw = true
		}
	}

	m.cpu.TickTimers()
	m.frontend.SetTone(m.state.SoundFlag())
	m.frames++

	if redraw {
		if err := m.frontend.Render(m.state.Display()); err != nil {
			return fmt.Errorf("rendering frame: %w", err)
		}
	}

	if inspector, ok := m.frontend.(Inspector); ok {
		if err := inspector.Inspect(m.state); err != nil {
			return fmt.Errorf("inspecting state: %w", err)
		}
	}
	return nil
}

// Run executes frames at the configured frame rate until the context is done.
func (m *Machine) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(m.cfg.FrameRate))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("running machine: %w", ctx.Err())
		case <-ticker.C:
			if err := m.Frame(); err != nil {
				return err
			}
		}
	}
}

// RunFrames executes the given number of frames without any delay between
// them, which is used for headless execution.
func (m *Machine) RunFrames(ctx context.Context, frames int) error {
	for range frames {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("running machine: %w", err)
		}
		if err := m.Frame(); err != nil {
			return err
		}
	}
	return nil
}

func (m *Machine) reportError(pc uint16, err error) {
	if m.reported.Contains(pc) {
		return
	}
	m.reported.Add(pc)

	msg := "Instruction execution failed"
	switch {
	case errors.Is(err, chip8.ErrUnknownInstruction):
		msg = "Unknown instruction"
	case errors.Is(err, chip8.ErrStackOverflow), errors.Is(err, chip8.ErrStackUnderflow):
		msg = "Stack error"
	case errors.Is(err, chip8.ErrAddressOutOfRange):
		msg = "Memory access out of range"
	}
	m.logger.Warn(msg,
		log.Hex("pc", pc),
		log.Err(err))
}
