// Package options contains the program options.
package options

import "time"

// Default option values.
const (
	DefaultCyclesPerFrame = 11
	DefaultFrameRate      = 60
	DefaultKeyHold        = 150 * time.Millisecond
	DefaultHeadlessFrames = 600
)

// Parameters contains file path options.
type Parameters struct {
	Input  string `flag:"i" usage:"input ROM file"`
	System string `flag:"s" usage:"target system: chip8 (default: auto-detect)"`
}

// Flags contains behavior options.
type Flags struct {
	CyclesPerFrame int           `flag:"cycles" usage:"instructions executed per frame" default:"11"`
	FrameRate      int           `flag:"hz" usage:"frames per second, timers tick once per frame" default:"60"`
	Frames         int           `flag:"frames" usage:"number of frames to run in headless mode" default:"600"`
	KeyHold        time.Duration `flag:"hold" usage:"how long a key stays pressed after a terminal key event" default:"150ms"`
	Seed           uint64        `flag:"seed" usage:"seed of the random number generator, 0 for a random seed"`
	Headless       bool          `flag:"headless" usage:"run without terminal frontend and print the final screen"`
	Inspect        bool          `flag:"inspect" usage:"show registers, call stack and memory next to the display"`
	Trace          bool          `flag:"trace" usage:"log every executed instruction"`
	Debug          bool          `flag:"debug" usage:"enable debug logging"`
	Quiet          bool          `flag:"q" usage:"quiet mode"`
}

// Program options of the emulator.
type Program struct {
	Parameters
	Flags
}

// NewProgram returns program options initialized with the default values.
func NewProgram() Program {
	return Program{
		Flags: Flags{
			CyclesPerFrame: DefaultCyclesPerFrame,
			FrameRate:      DefaultFrameRate,
			Frames:         DefaultHeadlessFrames,
			KeyHold:        DefaultKeyHold,
		},
	}
}
