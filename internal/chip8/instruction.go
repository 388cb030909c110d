package chip8

import (
	"fmt"

	chip8cpu "github.com/retroenv/retrogolib/arch/cpu/chip8"
)

// Op identifies one instruction pattern of the instruction set.
type Op uint8

// Instruction patterns, named after the opcode they decode from.
const (
	OpUnknown          Op = iota
	OpCls                 // 00E0
	OpRet                 // 00EE
	OpJump                // 1nnn
	OpCall                // 2nnn
	OpSkipEqualByte       // 3xkk
	OpSkipNotEqualByte    // 4xkk
	OpSkipEqualReg        // 5xy0
	OpLoadByte            // 6xkk
	OpAddByte             // 7xkk
	OpLoadReg             // 8xy0
	OpOr                  // 8xy1
	OpAnd                 // 8xy2
	OpXor                 // 8xy3
	OpAddReg              // 8xy4
	OpSub                 // 8xy5
	OpShr                 // 8xy6
	OpSubn                // 8xy7
	OpShl                 // 8xyE
	OpSkipNotEqualReg     // 9xy0
	OpLoadIndex           // Annn
	OpJumpV0              // Bnnn
	OpRandom              // Cxkk
	OpDraw                // Dxyn
	OpSkipKey             // Ex9E
	OpSkipNotKey          // ExA1
	OpLoadDelay           // Fx07
	OpWaitKey             // Fx0A
	OpSetDelay            // Fx15
	OpSetSound            // Fx18
	OpAddIndex            // Fx1E
	OpLoadFont            // Fx29
	OpStoreBCD            // Fx33
	OpStoreRegisters      // Fx55
	OpLoadRegisters       // Fx65
)

// instructions maps every pattern to its instruction definition of the CPU description.
// opcodeOps maps the opcode patterns of the CPU description table to the
// instruction patterns.
var opcodeOps = map[chip8cpu.OpcodeInfo]Op{
	chip8cpu.Opcode00E0: OpCls,
	chip8cpu.Opcode00EE: OpRet,
	chip8cpu.Opcode1000: OpJump,
	chip8cpu.Opcode2000: OpCall,
	chip8cpu.Opcode3000: OpSkipEqualByte,
	chip8cpu.Opcode4000: OpSkipNotEqualByte,
	chip8cpu.Opcode5000: OpSkipEqualReg,
	chip8cpu.Opcode6000: OpLoadByte,
	chip8cpu.Opcode7000: OpAddByte,
	chip8cpu.Opcode8000: OpLoadReg,
	chip8cpu.Opcode8001: OpOr,
	chip8cpu.Opcode8002: OpAnd,
	chip8cpu.Opcode8003: OpXor,
	chip8cpu.Opcode8004: OpAddReg,
	chip8cpu.Opcode8005: OpSub,
	chip8cpu.Opcode8006: OpShr,
	chip8cpu.Opcode8007: OpSubn,
	chip8cpu.Opcode800E: OpShl,
	chip8cpu.Opcode9000: OpSkipNotEqualReg,
	chip8cpu.OpcodeA000: OpLoadIndex,
	chip8cpu.OpcodeB000: OpJumpV0,
	chip8cpu.OpcodeC000: OpRandom,
	chip8cpu.OpcodeD000: OpDraw,
	chip8cpu.OpcodeE09E: OpSkipKey,
	chip8cpu.OpcodeE0A1: OpSkipNotKey,
	chip8cpu.OpcodeF007: OpLoadDelay,
	chip8cpu.OpcodeF00A: OpWaitKey,
	chip8cpu.OpcodeF015: OpSetDelay,
	chip8cpu.OpcodeF018: OpSetSound,
	chip8cpu.OpcodeF01E: OpAddIndex,
	chip8cpu.OpcodeF029: OpLoadFont,
	chip8cpu.OpcodeF033: OpStoreBCD,
	chip8cpu.OpcodeF055: OpStoreRegisters,
	chip8cpu.OpcodeF065: OpLoadRegisters,
}

// opcodePattern is one entry of the decoding table.
type opcodePattern struct {
	value uint16
	mask  uint16
	op    Op
}

// patterns holds the decoding patterns indexed by the high nibble of the
// instruction word, instructions the CPU description of every pattern.
var patterns, instructions = buildDecodeTables()

func buildDecodeTables() ([16][]opcodePattern, map[Op]*chip8cpu.Instruction) {
	var table [16][]opcodePattern
	definitions := make(map[Op]*chip8cpu.Instruction, len(opcodeOps))

	for nibble, opcodes := range chip8cpu.Opcodes {
		for _, opcode := range opcodes {
			op, ok := opcodeOps[opcode.Info]
			if !ok {
				continue
			}

			mask := opcode.Info.Mask
			// register comparisons 5xyN and 9xyN ignore the low nibble
			if op == OpSkipEqualReg || op == OpSkipNotEqualReg {
				mask &^= 0x000F
			}

			table[nibble] = append(table[nibble], opcodePattern{
				value: opcode.Info.Value,
				mask:  mask,
				op:    op,
			})
			definitions[op] = opcode.Instruction
		}
	}
	return table, definitions
}

// Instruction is a decoded instruction word. Op selects the behavior, the remaining
// fields carry the operands extracted from the word.
type Instruction struct {
	Op     Op
	Opcode uint16 // the raw instruction word

	X   uint8  // register index, bits 8-11
	Y   uint8  // register index, bits 4-7
	N   uint8  // nibble, bits 0-3
	KK  byte   // byte, bits 0-7
	NNN uint16 // address, bits 0-11
}

// Decode extracts the operand fields of an instruction word and identifies its pattern.
// Words that do not match any pattern decode to OpUnknown.
func Decode(opcode uint16) Instruction {
	ins := Instruction{
		Opcode: opcode,
		X:      uint8(opcode & 0x0F00 >> 8),
		Y:      uint8(opcode & 0x00F0 >> 4),
		N:      uint8(opcode & 0x000F),
		KK:     byte(opcode & 0x00FF),
		NNN:    opcode & 0x0FFF,
	}
	ins.Op = decodeOp(opcode)
	return ins
}

func decodeOp(opcode uint16) Op {
	for _, pattern := range patterns[opcode>>12] {
		if opcode&pattern.mask == pattern.value {
			return pattern.op
		}
	}
	return OpUnknown
}

// Name returns the instruction mnemonic or an empty string for unknown instructions.
func (ins Instruction) Name() string {
	def, ok := instructions[ins.Op]
	if !ok {
		return ""
	}
	return def.Name
}

// IsSkip returns true if the instruction conditionally skips the next instruction.
func (ins Instruction) IsSkip() bool {
	name := ins.Name()
	if name == "" {
		return false
	}
	return chip8cpu.SkipInstructions.Contains(name)
}

// String returns the instruction in assembly notation.
func (ins Instruction) String() string {
	name := ins.Name()
	if name == "" {
		return fmt.Sprintf(".word $%04X", ins.Opcode)
	}
	if params := ins.params(); params != "" {
		return name + " " + params
	}
	return name
}

// params formats the operands of the instruction.
func (ins Instruction) params() string {
	switch ins.Op {
	case OpJump, OpCall:
		return fmt.Sprintf("$%03X", ins.NNN)
	case OpJumpV0:
		return fmt.Sprintf("V0, $%03X", ins.NNN)
	case OpLoadIndex:
		return fmt.Sprintf("I, $%03X", ins.NNN)
	case OpSkipEqualByte, OpSkipNotEqualByte, OpLoadByte, OpAddByte, OpRandom:
		return fmt.Sprintf("V%X, $%02X", ins.X, ins.KK)
	case OpSkipEqualReg, OpSkipNotEqualReg, OpLoadReg, OpOr, OpAnd, OpXor, OpAddReg, OpSub, OpSubn:
		return fmt.Sprintf("V%X, V%X", ins.X, ins.Y)
	case OpShr, OpShl, OpSkipKey, OpSkipNotKey:
		return fmt.Sprintf("V%X", ins.X)
	case OpDraw:
		return fmt.Sprintf("V%X, V%X, $%X", ins.X, ins.Y, ins.N)
	case OpLoadDelay:
		return fmt.Sprintf("V%X, DT", ins.X)
	case OpWaitKey:
		return fmt.Sprintf("V%X, K", ins.X)
	case OpSetDelay:
		return fmt.Sprintf("DT, V%X", ins.X)
	case OpSetSound:
		return fmt.Sprintf("ST, V%X", ins.X)
	case OpAddIndex:
		return fmt.Sprintf("I, V%X", ins.X)
	case OpLoadFont:
		return fmt.Sprintf("F, V%X", ins.X)
	case OpStoreBCD:
		return fmt.Sprintf("B, V%X", ins.X)
	case OpStoreRegisters:
		return fmt.Sprintf("[I], V%X", ins.X)
	case OpLoadRegisters:
		return fmt.Sprintf("V%X, [I]", ins.X)
	default:
		return ""
	}
}
