// Package chip8 implements the CHIP-8 virtual machine core.
//
// # Architecture Overview
//
// CHIP-8 is an interpreted programming language from the 1970s designed for simple games.
// The virtual machine consists of:
//   - 4KB of byte addressable memory
//   - 16 general-purpose 8-bit registers (V0-VF), VF doubles as flag register
//   - a 16-bit index register I
//   - a 16 entry call stack with stack pointer
//   - delay and sound timers that count down at 60Hz
//   - a 64x32 monochrome framebuffer
//   - a 16 key hexadecimal keypad
//
// # Memory Layout
//
//	0x000-0x04F: Built-in hexadecimal font (16 glyphs, 5 bytes each)
//	0x050-0x1FF: Unused interpreter area
//	0x200-0xFFF: Program space (3584 bytes)
//
// # Execution Model
//
// State holds all architectural state. CPU operates on a State and executes exactly one
// instruction per Step call. Timers are decremented by TickTimers, which the driver calls at
// a fixed 60Hz rate independent of the number of instructions executed per frame.
//
// Step never panics on malformed programs. Conditions that would corrupt memory or the stack
// are returned as errors that wrap one of the package error values and leave the state
// unchanged, the program counter included.
//
// # Usage Example
//
//	state := chip8.NewState()
//	if err := state.LoadProgram(rom); err != nil {
//		return fmt.Errorf("loading program: %w", err)
//	}
//	cpu := chip8.New(state)
//	for range cyclesPerFrame {
//		if err := cpu.Step(); err != nil {
//			logger.Warn("Execution failed", log.Err(err))
//		}
//	}
//	cpu.TickTimers()
package chip8
