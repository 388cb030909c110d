// Package cli handles command line interface logic
package cli

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/retroenv/retrochip8/internal/options"
)

// ParseFlags parses command line flags and returns the program options.
func ParseFlags() (options.Program, error) {
	flags := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	opts := options.NewProgram()
	readOptionFlags(flags, &opts)

	err := flags.Parse(os.Args[1:])
	args := flags.Args()
	if err != nil || (len(args) == 0 && opts.Input == "") {
		return opts, &UsageError{flags: flags}
	}

	if err := validateArgs(args); err != nil {
		return opts, err
	}

	if len(args) > 0 {
		opts.Input = args[0]
	}

	if err := normalizeOptions(&opts); err != nil {
		return opts, err
	}

	return opts, nil
}

// UsageError represents an error that should show usage information
type UsageError struct {
	flags *flag.FlagSet
	msg   string
}

func (e *UsageError) Error() string {
	return e.msg
}

// ShowUsage prints the usage information including all flag defaults.
func (e *UsageError) ShowUsage() {
	fmt.Printf("usage: retrochip8 [options] <ROM file to run>\n\n")
	if e.flags != nil {
		e.flags.PrintDefaults()
	}
	fmt.Println()
	fmt.Println("keypad:  1 2 3 4      1 2 3 C")
	fmt.Println("         q w e r  ->  4 5 6 D")
	fmt.Println("         a s d f      7 8 9 E")
	fmt.Println("         z x c v      A 0 B F")
	fmt.Println("press Esc to quit")
}

// validateArgs checks if arguments are in correct order
func validateArgs(args []string) error {
	for i, arg := range args {
		if i > 0 && strings.HasPrefix(arg, "-") {
			return &UsageError{
				msg: fmt.Sprintf("Potential argument %s found after ROM file, please pass the ROM file as last argument", arg),
			}
		}
	}
	if len(args) > 1 {
		return &UsageError{
			msg: fmt.Sprintf("only one ROM file can be run, got %d", len(args)),
		}
	}
	return nil
}

// normalizeOptions normalizes and validates option values
func normalizeOptions(opts *options.Program) error {
	opts.System = strings.ToLower(opts.System)

	switch {
	case opts.CyclesPerFrame < 1:
		return fmt.Errorf("invalid cycles per frame %d: must be at least 1", opts.CyclesPerFrame)
	case opts.FrameRate < 1 || opts.FrameRate > 1000:
		return fmt.Errorf("invalid frame rate %d: must be between 1 and 1000", opts.FrameRate)
	case opts.Headless && opts.Frames < 1:
		return fmt.Errorf("invalid frame count %d: must be at least 1", opts.Frames)
	case opts.KeyHold < 0:
		return fmt.Errorf("invalid key hold duration %s", opts.KeyHold)
	}

	// tracing logs at debug level and would be filtered otherwise
	if opts.Trace {
		opts.Debug = true
		opts.Quiet = false
	}
	return nil
}

func readOptionFlags(flags *flag.FlagSet, opts *options.Program) {
	flags.StringVar(&opts.Input, "i", "", "name of the input ROM file")
	flags.StringVar(&opts.System, "s", "", "system to emulate (chip8) - if not auto-detected from file extension")
	flags.IntVar(&opts.CyclesPerFrame, "cycles", opts.CyclesPerFrame, "instructions executed per frame")
	flags.IntVar(&opts.FrameRate, "hz", opts.FrameRate, "frames per second, the timers tick once per frame")
	flags.IntVar(&opts.Frames, "frames", opts.Frames, "number of frames to run in headless mode")
	flags.DurationVar(&opts.KeyHold, "hold", opts.KeyHold, "how long a key stays pressed after a terminal key event")
	flags.Uint64Var(&opts.Seed, "seed", 0, "seed of the random number generator, 0 for a random seed")
	flags.BoolVar(&opts.Headless, "headless", false, "run without terminal frontend and print the final screen")
	flags.BoolVar(&opts.Inspect, "inspect", false, "show registers, call stack and memory next to the display")
	flags.BoolVar(&opts.Trace, "trace", false, "log every executed instruction")
	flags.BoolVar(&opts.Debug, "debug", false, "enable debugging options for extended logging")
	flags.BoolVar(&opts.Quiet, "q", false, "perform operations quietly")
}
