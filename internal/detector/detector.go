// Package detector handles system architecture detection.
package detector

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/retroenv/retrochip8/internal/options"
	"github.com/retroenv/retrogolib/arch"
	"github.com/retroenv/retrogolib/log"
)

// Detector handles system architecture detection from file extensions and options.
type Detector struct {
	logger *log.Logger
}

// New creates a new system detector.
func New(logger *log.Logger) *Detector {
	return &Detector{
		logger: logger,
	}
}

// Detect determines the system architecture from options or file auto-detection.
// An explicitly specified system has to be supported by the emulator, otherwise
// the system is detected from the input filename extension.
func (d *Detector) Detect(opts options.Program) (arch.System, error) {
	if opts.System != "" {
		system, _ := arch.SystemFromString(opts.System)
		if system == "" {
			return "", fmt.Errorf("unknown system '%s'", opts.System)
		}
		if system != arch.CHIP8System {
			return "", fmt.Errorf("unsupported system '%s', only chip8 can be emulated", opts.System)
		}
		return system, nil
	}

	system := d.detectFromFile(opts.Input)
	d.logger.Debug("Auto-detected system",
		log.Stringer("system", system),
		log.String("file", opts.Input))
	return system, nil
}

// detectFromFile determines the system type based on file extension.
// CHIP-8 ROMs have no header, unknown extensions are treated as CHIP-8 programs.
func (d *Detector) detectFromFile(filename string) arch.System {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".ch8", ".c8", ".rom":
	default:
		d.logger.Debug("Unknown ROM file extension, assuming CHIP-8 program",
			log.String("extension", ext))
	}
	return arch.CHIP8System
}
