// Package terminal implements an interactive CHIP-8 frontend on an ANSI
// terminal: frames are drawn with half block characters, keyboard input is
// read from the raw mode terminal and the tone is played with the bell.
package terminal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/retroenv/retrochip8/internal/chip8"
	"github.com/retroenv/retrochip8/internal/screen"
	"github.com/retroenv/retrogolib/log"
	"golang.org/x/term"
)

// ErrNotTerminal is returned when the input or output is not a terminal.
var ErrNotTerminal = errors.New("not a terminal, use headless mode instead")

const (
	escape = 0x1b
	ctrlC  = 0x03
	bell   = "\a"

	clearScreen = "\x1b[2J"
	cursorHome  = "\x1b[H"
	hideCursor  = "\x1b[?25l"
	showCursor  = "\x1b[?25h"
	clearLine   = "\x1b[K"
)

// minimum terminal size to show the display and the status line
const (
	minColumns = chip8.DisplayWidth
	minRows    = screen.Rows + 1
)

// inspector layout below the status line
const (
	memoryRows    = 8
	inspectorRow  = minRows + 2 // 1 based row of the first inspector line
	inspectorRows = 4 + 3 + memoryRows
)

// Options configures the terminal frontend.
type Options struct {
	KeyHold time.Duration // how long a key stays pressed after a key event
	Inspect bool          // show registers, stack and memory below the display
}

const readerStopTimeout = 500 * time.Millisecond

// Terminal is a frontend using the terminal for input and output.
type Terminal struct {
	logger *log.Logger
	in     *os.File
	out    io.Writer
	cancel context.CancelFunc
	keypad *Keypad

	restoreMode    func()
	restoreTimeout func()

	done chan struct{}
	wg   sync.WaitGroup

	inspect   bool
	minRows   int
	tone      bool
	tooSmall  bool
	status    string
	closeOnce sync.Once
}

// New switches the input terminal to raw mode and starts reading keyboard
// input. Escape and Ctrl-C call the cancel function. Close has to be called
// to restore the terminal.
func New(logger *log.Logger, in, out *os.File, opts Options, cancel context.CancelFunc) (*Terminal, error) {
	if !term.IsTerminal(int(in.Fd())) || !term.IsTerminal(int(out.Fd())) {
		return nil, ErrNotTerminal
	}

	oldState, err := term.MakeRaw(int(in.Fd()))
	if err != nil {
		return nil, fmt.Errorf("setting raw mode: %w", err)
	}
	restoreMode := func() {
		_ = term.Restore(int(in.Fd()), oldState)
	}

	restoreTimeout, err := setReadTimeout(in.Fd())
	if err != nil {
		restoreMode()
		return nil, fmt.Errorf("setting read timeout: %w", err)
	}

	t := newTerminal(logger, in, out, opts, cancel)
	t.restoreMode = restoreMode
	t.restoreTimeout = restoreTimeout

	if _, err := io.WriteString(out, hideCursor+clearScreen); err != nil {
		t.Close()
		return nil, fmt.Errorf("initializing screen: %w", err)
	}

	t.wg.Add(1)
	go t.readInput()
	return t, nil
}

func newTerminal(logger *log.Logger, in *os.File, out io.Writer, opts Options, cancel context.CancelFunc) *Terminal {
	t := &Terminal{
		logger:         logger,
		in:             in,
		out:            out,
		cancel:         cancel,
		keypad:         NewKeypad(opts.KeyHold),
		restoreMode:    func() {},
		restoreTimeout: func() {},
		done:           make(chan struct{}),
		inspect:        opts.Inspect,
		minRows:        minRows,
		status:         "1234/QWER/ASDF/ZXCV: keypad  Esc: quit",
	}
	if opts.Inspect {
		t.minRows = inspectorRow + inspectorRows
	}
	return t
}

// Close stops reading input and restores the terminal state.
func (t *Terminal) Close() {
	t.closeOnce.Do(func() {
		close(t.done)
		t.waitForReader()

		_, _ = io.WriteString(t.out, showCursor+"\r\n")
		t.restoreTimeout()
		t.restoreMode()
	})
}

// Render draws the framebuffer at the top left of the terminal.
func (t *Terminal) Render(fb *chip8.Framebuffer) error {
	if t.checkSize() {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(cursorHome)
	sb.WriteString(screen.RenderLines(fb, "\r\n"))
	sb.WriteString(t.status)

	if _, err := io.WriteString(t.out, sb.String()); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// Inspect draws the registers, the call stack and the memory around the
// program counter below the display when the inspector is enabled.
func (t *Terminal) Inspect(state *chip8.State) error {
	if !t.inspect || t.checkSize() {
		return nil
	}

	memory, err := screen.Memory(state, memoryRows)
	if err != nil {
		return err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "\x1b[%d;1H", inspectorRow)
	dump := screen.Registers(state) + screen.Stack(state) + memory
	for line := range strings.Lines(dump) {
		sb.WriteString(strings.TrimSuffix(line, "\n"))
		sb.WriteString(clearLine + "\r\n")
	}

	if _, err := io.WriteString(t.out, sb.String()); err != nil {
		return fmt.Errorf("writing inspector: %w", err)
	}
	return nil
}

// SetTone rings the terminal bell when a tone starts.
func (t *Terminal) SetTone(on bool) {
	if on && !t.tone {
		_, _ = io.WriteString(t.out, bell)
	}
	t.tone = on
}

// PollKeys sets the state of all keypad keys.
func (t *Terminal) PollKeys(keys *[chip8.NumKeys]bool) {
	t.keypad.PollKeys(keys)
}

// checkSize returns whether the terminal is too small to show the display.
// A message is shown once when the terminal becomes too small.
func (t *Terminal) checkSize() bool {
	f, ok := t.out.(*os.File)
	if !ok {
		return false
	}
	width, height, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return false
	}

	tooSmall := width < minColumns || height < t.minRows
	if tooSmall && !t.tooSmall {
		msg := fmt.Sprintf("terminal too small: %dx%d, need %dx%d", width, height, minColumns, t.minRows)
		_, _ = io.WriteString(t.out, clearScreen+cursorHome+msg)
	}
	if !tooSmall && t.tooSmall {
		_, _ = io.WriteString(t.out, clearScreen)
	}
	t.tooSmall = tooSmall
	return tooSmall
}

// waitForReader waits until the input reader returned. Reads without a read
// timeout can block until the next key press, the wait is limited for them.
func (t *Terminal) waitForReader() {
	stopped := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(readerStopTimeout):
	}
}

func (t *Terminal) readInput() {
	defer t.wg.Done()

	buf := make([]byte, 64)
	for {
		select {
		case <-t.done:
			return
		default:
		}

		n, err := t.in.Read(buf)
		if n > 0 {
			t.handleInput(buf[:n])
		}
		if err != nil && !errors.Is(err, io.EOF) {
			t.logger.Error("Reading terminal input failed", log.Err(err))
			t.cancel()
			return
		}
	}
}

// handleInput processes the bytes of one read. Escape sequences of special
// keys arrive in a single read and are ignored, a single escape quits.
func (t *Terminal) handleInput(data []byte) {
	for i := 0; i < len(data); i++ {
		char := data[i]
		switch char {
		case ctrlC:
			t.cancel()
			return

		case escape:
			if i == len(data)-1 {
				t.cancel()
			}
			return

		default:
			if key, ok := MapKey(char); ok {
				t.keypad.Press(key)
			}
		}
	}
}
