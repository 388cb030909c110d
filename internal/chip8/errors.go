package chip8

import "errors"

var (
	// ErrCapacityExceeded is returned when a program does not fit into program memory.
	ErrCapacityExceeded = errors.New("program exceeds available memory")

	// ErrUnknownInstruction is returned for an opcode that is not part of the instruction set.
	ErrUnknownInstruction = errors.New("unknown instruction")

	// ErrStackOverflow is returned for a subroutine call with a full call stack.
	ErrStackOverflow = errors.New("stack overflow")

	// ErrStackUnderflow is returned for a subroutine return with an empty call stack.
	ErrStackUnderflow = errors.New("stack underflow")

	// ErrAddressOutOfRange is returned when an instruction fetch or a data access
	// falls outside of the valid memory range.
	ErrAddressOutOfRange = errors.New("address out of range")

	// ErrInvalidKey is returned when a key instruction references a key beyond 0xF.
	ErrInvalidKey = errors.New("invalid key")
)
