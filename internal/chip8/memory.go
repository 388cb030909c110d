package chip8

// CHIP-8 memory and device layout constants.
const (
	// MemorySize is the size of the addressable memory in bytes.
	MemorySize = 0x1000

	// ProgramStart is the memory address where programs are loaded and execution begins.
	ProgramStart = 0x200

	// MaxProgramSize is the largest program that fits into memory starting at ProgramStart.
	MaxProgramSize = MemorySize - ProgramStart

	// LastFetchAddress is the highest address an instruction can be fetched from,
	// as an instruction consists of 2 bytes.
	LastFetchAddress = MemorySize - opcodeSize

	// FontStart is the memory address of the built-in hexadecimal font.
	FontStart = 0x000

	// GlyphSize is the number of bytes of one font glyph.
	GlyphSize = 5

	// DisplayWidth is the framebuffer width in pixels.
	DisplayWidth = 64

	// DisplayHeight is the framebuffer height in pixels.
	DisplayHeight = 32

	// NumRegisters is the number of general-purpose registers.
	NumRegisters = 16

	// StackDepth is the number of return addresses the call stack can hold.
	StackDepth = 16

	// NumKeys is the number of keys on the hexadecimal keypad.
	NumKeys = 16

	// FlagRegister is the index of VF, used as flag output by several instructions.
	FlagRegister = 0xF
)

// opcodeSize is the size of CHIP-8 instructions in bytes.
const opcodeSize = 2

// Font contains the built-in glyphs for the hexadecimal digits 0-F.
// Each glyph is 5 rows of 8 pixel wide sprite data, only the upper nibble is used.
var Font = [16 * GlyphSize]byte{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// Framebuffer is the 64x32 monochrome display, stored row-major with one byte per pixel
// holding 0 or 1. The pixel at (x, y) is at index x + y*DisplayWidth.
type Framebuffer [DisplayWidth * DisplayHeight]byte

// Pixel returns the pixel value at the given coordinates.
func (fb *Framebuffer) Pixel(x, y int) byte {
	return fb[x+y*DisplayWidth]
}

// Clear turns off all pixels.
func (fb *Framebuffer) Clear() {
	*fb = Framebuffer{}
}

// checkRange returns an error if the count bytes starting at address do not fit into memory.
// An address past the end of memory is out of range even for an empty access.
func checkRange(address uint16, count int) error {
	if int(address)+count > MemorySize {
		return ErrAddressOutOfRange
	}
	return nil
}
