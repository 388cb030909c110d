// Package screen renders the CHIP-8 framebuffer and machine state as text.
package screen

import (
	"fmt"
	"io"
	"strings"

	"github.com/retroenv/retrochip8/internal/chip8"
)

// Half block characters, indexed by top pixel | bottom pixel << 1.
var blocks = [4]rune{' ', '▀', '▄', '█'}

// Rows is the number of text rows that a rendered framebuffer occupies.
const Rows = chip8.DisplayHeight / 2

// Render returns the framebuffer as text. Every text row combines two pixel
// rows using half block characters, every row is terminated by a newline.
func Render(fb *chip8.Framebuffer) string {
	return RenderLines(fb, "\n")
}

// RenderLines returns the framebuffer as text with every row terminated by
// the given line ending.
func RenderLines(fb *chip8.Framebuffer, lineEnding string) string {
	var sb strings.Builder
	sb.Grow(Rows * (chip8.DisplayWidth*3 + len(lineEnding)))

	for y := 0; y < chip8.DisplayHeight; y += 2 {
		for x := range chip8.DisplayWidth {
			index := fb.Pixel(x, y)&1 | fb.Pixel(x, y+1)&1<<1
			sb.WriteRune(blocks[index])
		}
		sb.WriteString(lineEnding)
	}
	return sb.String()
}

// Registers returns a dump of the CPU registers, the timers and the
// active part of the call stack.
func Registers(state *chip8.State) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "PC: $%04X  I: $%04X  SP: %d  DT: $%02X  ST: $%02X\n",
		state.PC(), state.I(), state.SP(), state.DelayTimer(), state.SoundTimer())

	registers := state.Registers()
	for row := range 2 {
		for col := range 8 {
			register := row*8 + col
			if col > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "V%X: $%02X", register, registers[register])
		}
		sb.WriteByte('\n')
	}

	stack := state.Stack()
	sb.WriteString("Stack:")
	for _, address := range stack[:state.SP()] {
		fmt.Fprintf(&sb, " $%04X", address)
	}
	sb.WriteByte('\n')
	return sb.String()
}

// Stack returns all call stack slots, the slot that the stack pointer
// refers to is marked with '>'.
func Stack(state *chip8.State) string {
	var sb strings.Builder
	sb.WriteString("Stack slots:\n")

	stack := state.Stack()
	sp := int(state.SP())
	for row := range 2 {
		for col := range chip8.StackDepth / 2 {
			slot := row*chip8.StackDepth/2 + col
			marker := ' '
			if slot == sp {
				marker = '>'
			}
			if col > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "%c%X:$%03X", marker, slot, stack[slot])
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// MemoryRowSize is the number of bytes shown per row of a memory dump.
const MemoryRowSize = 8

// Memory returns a hex dump of the given number of memory rows around the
// program counter. The byte at the program counter is marked with '>'.
func Memory(state *chip8.State, rows int) (string, error) {
	const totalRows = chip8.MemorySize / MemoryRowSize
	rows = max(1, min(rows, totalRows))

	pc := int(state.PC())
	first := pc/MemoryRowSize - rows/2
	first = max(0, min(first, totalRows-rows))

	var sb strings.Builder
	for row := first; row < first+rows; row++ {
		address := row * MemoryRowSize
		data, err := state.MemoryRange(uint16(address), MemoryRowSize)
		if err != nil {
			return "", fmt.Errorf("dumping memory row $%03X: %w", address, err)
		}

		fmt.Fprintf(&sb, "$%03X:", address)
		for i, value := range data {
			marker := ' '
			if address+i == pc {
				marker = '>'
			}
			fmt.Fprintf(&sb, "%c%02X", marker, value)
		}
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

// Writer is a frontend without input that keeps the last rendered frame and
// writes it to an io.Writer on Flush. It is used for headless execution.
type Writer struct {
	w       io.Writer
	frame   chip8.Framebuffer
	renders int
	beeps   int
	tone    bool
}

// NewWriter returns a new headless frontend writing to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Render stores a copy of the framebuffer.
func (w *Writer) Render(fb *chip8.Framebuffer) error {
	w.frame = *fb
	w.renders++
	return nil
}

// SetTone counts the started tones.
func (w *Writer) SetTone(on bool) {
	if on && !w.tone {
		w.beeps++
	}
	w.tone = on
}

// PollKeys reports all keys as released.
func (w *Writer) PollKeys(keys *[chip8.NumKeys]bool) {
	*keys = [chip8.NumKeys]bool{}
}

// Renders returns the number of rendered frames.
func (w *Writer) Renders() int {
	return w.renders
}

// Beeps returns the number of tones that were started.
func (w *Writer) Beeps() int {
	return w.beeps
}

// Flush writes the last rendered frame surrounded by a border.
func (w *Writer) Flush() error {
	border := "+" + strings.Repeat("-", chip8.DisplayWidth) + "+\n"

	var sb strings.Builder
	sb.WriteString(border)
	for line := range strings.Lines(Render(&w.frame)) {
		sb.WriteString("|")
		sb.WriteString(strings.TrimSuffix(line, "\n"))
		sb.WriteString("|\n")
	}
	sb.WriteString(border)

	if _, err := io.WriteString(w.w, sb.String()); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}
