package chip8

import (
	"fmt"
	"math/rand/v2"

	"github.com/retroenv/retrogolib/log"
)

// CPU is the execution engine that fetches, decodes and executes instructions
// operating on a State.
type CPU struct {
	state  *State
	logger *log.Logger
	random func() byte
	trace  bool
}

// Option configures a CPU.
type Option func(*CPU)

// WithLogger sets the logger that is used for instruction tracing.
func WithLogger(logger *log.Logger) Option {
	return func(c *CPU) {
		c.logger = logger
	}
}

// WithTrace enables logging of every executed instruction at debug level.
func WithTrace(trace bool) Option {
	return func(c *CPU) {
		c.trace = trace
	}
}

// WithSeed makes the random number instruction deterministic for the given seed.
func WithSeed(seed uint64) Option {
	return func(c *CPU) {
		rng := rand.New(rand.NewPCG(seed, seed))
		c.random = func() byte {
			return byte(rng.UintN(256))
		}
	}
}

// WithRandom sets the source of random bytes used by the random number instruction.
func WithRandom(random func() byte) Option {
	return func(c *CPU) {
		c.random = random
	}
}

// New returns a new CPU operating on the given state.
func New(state *State, options ...Option) *CPU {
	c := &CPU{
		state: state,
		random: func() byte {
			return byte(rand.UintN(256))
		},
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// State returns the state that the CPU operates on.
func (c *CPU) State() *State {
	return c.state
}

// Fetch reads and decodes the instruction at the program counter without executing it.
func (c *CPU) Fetch() (Instruction, error) {
	s := c.state
	pc := s.pc
	if pc < ProgramStart || pc > LastFetchAddress {
		return Instruction{}, fmt.Errorf("fetching instruction at $%04X: %w", pc, ErrAddressOutOfRange)
	}

	opcode := uint16(s.memory[pc])<<8 | uint16(s.memory[pc+1])
	return Decode(opcode), nil
}

// Step executes exactly one instruction. The display and sound flags are cleared before
// the instruction is fetched. If the instruction can not be executed, an error is
// returned and the state remains unchanged apart from the cleared flags.
func (c *CPU) Step() error {
	s := c.state
	s.displayFlag = false
	s.soundFlag = false

	ins, err := c.Fetch()
	if err != nil {
		return err
	}

	if c.trace && c.logger != nil {
		c.logger.Debug("Executing instruction",
			log.Hex("pc", s.pc),
			log.Hex("opcode", ins.Opcode),
			log.String("instruction", ins.String()),
			log.Bool("skip", ins.IsSkip()))
	}

	if err := c.execute(ins); err != nil {
		return fmt.Errorf("executing $%04X at $%04X: %w", ins.Opcode, s.pc, err)
	}
	return nil
}

// TickTimers decrements the delay and sound timers. It is meant to be called at a fixed
// rate of 60Hz, independent of the number of executed instructions. While the sound timer
// is active the sound flag is set.
func (c *CPU) TickTimers() {
	s := c.state
	if s.dt > 0 {
		s.dt--
	}
	if s.st > 0 {
		s.soundFlag = true
		s.st--
	}
}

// execute dispatches a decoded instruction to its implementation.
//
//nolint:cyclop,funlen // the instruction set dispatch is one flat switch
func (c *CPU) execute(ins Instruction) error {
	s := c.state
	vx := s.v[ins.X]
	vy := s.v[ins.Y]

	switch ins.Op {
	case OpCls:
		s.display.Clear()
		s.displayFlag = true

	case OpRet:
		if s.sp == 0 {
			return ErrStackUnderflow
		}
		s.sp--
		s.pc = s.stack[s.sp] + opcodeSize
		return nil

	case OpJump:
		s.pc = ins.NNN
		return nil

	case OpCall:
		if int(s.sp) >= StackDepth {
			return ErrStackOverflow
		}
		s.stack[s.sp] = s.pc
		s.sp++
		s.pc = ins.NNN
		return nil

	case OpSkipEqualByte:
		c.skipIf(vx == ins.KK)
	case OpSkipNotEqualByte:
		c.skipIf(vx != ins.KK)
	case OpSkipEqualReg:
		c.skipIf(vx == vy)
	case OpSkipNotEqualReg:
		c.skipIf(vx != vy)

	case OpLoadByte:
		s.v[ins.X] = ins.KK
	case OpAddByte:
		s.v[ins.X] = vx + ins.KK

	case OpLoadReg, OpOr, OpAnd, OpXor, OpAddReg, OpSub, OpShr, OpSubn, OpShl:
		c.executeALU(ins.Op, ins.X, vx, vy)

	case OpLoadIndex:
		s.i = ins.NNN

	case OpJumpV0:
		s.pc = ins.NNN + uint16(s.v[0])
		return nil

	case OpRandom:
		s.v[ins.X] = c.random() & ins.KK

	case OpDraw:
		if err := c.draw(vx, vy, ins.N); err != nil {
			return err
		}

	case OpSkipKey, OpSkipNotKey:
		if vx >= NumKeys {
			return fmt.Errorf("%w: $%02X", ErrInvalidKey, vx)
		}
		c.skipIf(s.keys[vx] == (ins.Op == OpSkipKey))

	case OpWaitKey:
		// the instruction is repeated until a key is pressed
		for _, pressed := range s.keys {
			if pressed {
				s.pc += opcodeSize
				break
			}
		}
		return nil

	case OpLoadDelay:
		s.v[ins.X] = s.dt
	case OpSetDelay:
		s.dt = vx
	case OpSetSound:
		s.st = vx
	case OpAddIndex:
		s.i += uint16(vx)
	case OpLoadFont:
		s.i = FontStart + uint16(vx)*GlyphSize

	case OpStoreBCD, OpStoreRegisters, OpLoadRegisters:
		if err := c.transfer(ins.Op, ins.X, vx); err != nil {
			return err
		}

	default:
		return ErrUnknownInstruction
	}

	s.pc += opcodeSize
	return nil
}

// skipIf skips the next instruction if the condition is true.
func (c *CPU) skipIf(condition bool) {
	if condition {
		c.state.pc += opcodeSize
	}
}

// executeALU executes the register arithmetic instructions 8xyN. Flag results are written
// to VF after the result, so a flag overwrites a result targeting VF.
func (c *CPU) executeALU(op Op, x uint8, vx, vy byte) {
	s := c.state
	var flag byte

	switch op {
	case OpLoadReg:
		s.v[x] = vy
		return
	case OpOr:
		s.v[x] = vx | vy
		return
	case OpAnd:
		s.v[x] = vx & vy
		return
	case OpXor:
		s.v[x] = vx ^ vy
		return

	case OpAddReg:
		sum := uint16(vx) + uint16(vy)
		if sum > 0xFF {
			flag = 1
		}
		s.v[x] = byte(sum)

	case OpSub:
		if vx >= vy {
			flag = 1
		}
		s.v[x] = vx - vy

	case OpSubn:
		if vy >= vx {
			flag = 1
		}
		s.v[x] = vy - vx

	case OpShr:
		flag = vx & 0x01
		s.v[x] = vx >> 1

	case OpShl:
		flag = vx >> 7
		s.v[x] = vx << 1

	default:
		return
	}

	s.v[FlagRegister] = flag
}

// draw XORs an n rows high sprite from memory at I onto the framebuffer at (x, y).
// Pixels beyond the right and bottom edge are clipped. VF is set to 1 if any set pixel
// was turned off.
func (c *CPU) draw(x, y byte, n uint8) error {
	s := c.state
	if err := checkRange(s.i, int(n)); err != nil {
		return fmt.Errorf("reading %d sprite bytes at $%04X: %w", n, s.i, err)
	}

	var collision byte
	clipped := 0
	for row := range int(n) {
		data := s.memory[int(s.i)+row]
		py := int(y) + row

		for col := range 8 {
			if data&(0x80>>col) == 0 {
				continue
			}
			px := int(x) + col
			if px >= DisplayWidth || py >= DisplayHeight {
				clipped++
				continue
			}

			index := px + py*DisplayWidth
			if s.display[index] == 1 {
				collision = 1
			}
			s.display[index] ^= 1
		}
	}

	if clipped > 0 && c.logger != nil {
		c.logger.Debug("Sprite clipped at display edge",
			log.Hex("pc", s.pc),
			log.Int("x", int(x)),
			log.Int("y", int(y)),
			log.Int("pixels", clipped))
	}

	s.v[FlagRegister] = collision
	s.displayFlag = true
	return nil
}

// transfer executes the instructions that move data between registers and memory at I.
// The complete memory range is validated before anything is written.
func (c *CPU) transfer(op Op, x uint8, vx byte) error {
	s := c.state
	count := int(x)
	if op == OpStoreBCD {
		count = 3
	}
	if err := checkRange(s.i, count); err != nil {
		return fmt.Errorf("accessing %d bytes at $%04X: %w", count, s.i, err)
	}

	switch op {
	case OpStoreBCD:
		s.memory[s.i] = vx / 100
		s.memory[s.i+1] = vx % 100 / 10
		s.memory[s.i+2] = vx % 10

	case OpStoreRegisters:
		copy(s.memory[s.i:], s.v[:count])

	case OpLoadRegisters:
		copy(s.v[:count], s.memory[s.i:int(s.i)+count])
	}
	return nil
}
