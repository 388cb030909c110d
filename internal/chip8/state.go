package chip8

import "fmt"

// State contains the complete architectural state of the virtual machine.
// It is a plain data holder, all instruction semantics are implemented by CPU.
type State struct {
	memory [MemorySize]byte
	stack  [StackDepth]uint16

	v  [NumRegisters]byte
	i  uint16
	dt byte
	st byte
	pc uint16
	sp uint8

	display Framebuffer
	keys    [NumKeys]bool

	displayFlag bool
	soundFlag   bool
}

// NewState returns a new state that is reset and ready to load a program.
func NewState() *State {
	s := &State{}
	s.Reset()
	return s
}

// Reset restores the power-on state: the font is copied into memory, all other memory,
// registers, timers, the stack, the framebuffer and the key state are zeroed and the
// program counter points to the program start.
func (s *State) Reset() {
	*s = State{}
	copy(s.memory[FontStart:], Font[:])
	s.pc = ProgramStart
}

// LoadProgram copies the program into memory starting at ProgramStart.
// The state is not modified if the program does not fit into memory.
// Registers and the program counter are not changed.
func (s *State) LoadProgram(program []byte) error {
	if len(program) > MaxProgramSize {
		return fmt.Errorf("%w: %d bytes, maximum is %d", ErrCapacityExceeded, len(program), MaxProgramSize)
	}
	copy(s.memory[ProgramStart:], program)
	return nil
}

// Memory returns the value at the given memory address.
// Addresses beyond the memory size wrap around.
func (s *State) Memory(address uint16) byte {
	return s.memory[address%MemorySize]
}

// MemoryRange returns a copy of count bytes of memory starting at address.
func (s *State) MemoryRange(address uint16, count int) ([]byte, error) {
	if err := checkRange(address, count); err != nil {
		return nil, fmt.Errorf("reading %d bytes at $%04X: %w", count, address, err)
	}
	data := make([]byte, count)
	copy(data, s.memory[address:])
	return data, nil
}

// V returns the value of the general-purpose register with the given index 0-F.
func (s *State) V(register int) byte {
	return s.v[register]
}

// Registers returns a copy of all general-purpose registers.
func (s *State) Registers() [NumRegisters]byte {
	return s.v
}

// I returns the index register.
func (s *State) I() uint16 {
	return s.i
}

// PC returns the program counter.
func (s *State) PC() uint16 {
	return s.pc
}

// SP returns the stack pointer.
func (s *State) SP() uint8 {
	return s.sp
}

// Stack returns a copy of the call stack.
func (s *State) Stack() [StackDepth]uint16 {
	return s.stack
}

// DelayTimer returns the delay timer.
func (s *State) DelayTimer() byte {
	return s.dt
}

// SoundTimer returns the sound timer.
func (s *State) SoundTimer() byte {
	return s.st
}

// Display returns the framebuffer. The returned buffer must not be modified.
func (s *State) Display() *Framebuffer {
	return &s.display
}

// DisplayFlag returns whether the last executed instruction changed the framebuffer.
func (s *State) DisplayFlag() bool {
	return s.displayFlag
}

// SoundFlag returns whether a tone should be playing.
func (s *State) SoundFlag() bool {
	return s.soundFlag
}

// Key returns whether the key with the given index is pressed.
func (s *State) Key(key int) bool {
	return s.keys[key]
}

// SetKey sets the pressed state of a single key.
func (s *State) SetKey(key int, pressed bool) {
	s.keys[key] = pressed
}

// SetKeys replaces the complete key state.
func (s *State) SetKeys(keys [NumKeys]bool) {
	s.keys = keys
}
