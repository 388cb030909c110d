package terminal

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/retroenv/retrochip8/internal/chip8"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

func TestMapKey(t *testing.T) {
	tests := []struct {
		char byte
		key  int
		ok   bool
	}{
		{char: '1', key: 0x1, ok: true},
		{char: '4', key: 0xC, ok: true},
		{char: 'q', key: 0x4, ok: true},
		{char: 'R', key: 0xD, ok: true},
		{char: 'a', key: 0x7, ok: true},
		{char: 'f', key: 0xE, ok: true},
		{char: 'z', key: 0xA, ok: true},
		{char: 'X', key: 0x0, ok: true},
		{char: 'c', key: 0xB, ok: true},
		{char: 'v', key: 0xF, ok: true},
		{char: '5', ok: false},
		{char: ' ', ok: false},
	}

	for _, tt := range tests {
		t.Run(string(tt.char), func(t *testing.T) {
			key, ok := MapKey(tt.char)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.key, key)
			}
		})
	}
}

func TestMapKey_AllKeysMapped(t *testing.T) {
	var mapped [chip8.NumKeys]bool
	for _, key := range keyMap {
		mapped[key] = true
	}
	for key, ok := range mapped {
		assert.True(t, ok, "key %X not mapped", key)
	}
}

func TestKeypad_Hold(t *testing.T) {
	now := time.Unix(1000, 0)
	k := NewKeypad(100 * time.Millisecond)
	k.now = func() time.Time { return now }

	var keys [chip8.NumKeys]bool
	k.PollKeys(&keys)
	assert.Equal(t, [chip8.NumKeys]bool{}, keys)

	k.Press(0xA)
	k.Press(chip8.NumKeys) // ignored
	k.Press(-1)            // ignored
	k.PollKeys(&keys)
	assert.True(t, keys[0xA])

	now = now.Add(100 * time.Millisecond)
	k.PollKeys(&keys)
	assert.True(t, keys[0xA])

	// key repeat extends the hold
	k.Press(0xA)
	now = now.Add(60 * time.Millisecond)
	k.PollKeys(&keys)
	assert.True(t, keys[0xA])

	now = now.Add(60 * time.Millisecond)
	k.PollKeys(&keys)
	assert.False(t, keys[0xA])
}

func newTestTerminal(t *testing.T, out *bytes.Buffer) (*Terminal, *int) {
	t.Helper()
	return newTestTerminalWithOptions(t, out, Options{KeyHold: time.Hour})
}

func newTestTerminalWithOptions(t *testing.T, out *bytes.Buffer, opts Options) (*Terminal, *int) {
	t.Helper()
	cancelled := 0
	cancel := func() { cancelled++ }
	term := newTerminal(log.NewTestLogger(t), nil, out, opts, cancel)
	return term, &cancelled
}

func TestTerminal_HandleInput(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantKeys  []int
		cancelled int
	}{
		{name: "keys", input: "1qZv", wantKeys: []int{0x1, 0x4, 0xA, 0xF}},
		{name: "unmapped keys", input: "9p "},
		{name: "ctrl-c", input: "w\x03s", wantKeys: []int{0x5}, cancelled: 1},
		{name: "escape", input: "\x1b", cancelled: 1},
		{name: "escape sequence", input: "\x1b[A"},
		{name: "key before escape sequence", input: "e\x1b[B", wantKeys: []int{0x6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			term, cancelled := newTestTerminal(t, &out)

			term.handleInput([]byte(tt.input))
			assert.Equal(t, tt.cancelled, *cancelled)

			var want, keys [chip8.NumKeys]bool
			for _, key := range tt.wantKeys {
				want[key] = true
			}
			term.PollKeys(&keys)
			assert.Equal(t, want, keys)
		})
	}
}

func TestTerminal_Render(t *testing.T) {
	var out bytes.Buffer
	term, _ := newTestTerminal(t, &out)

	var fb chip8.Framebuffer
	fb[0] = 1
	assert.NoError(t, term.Render(&fb))

	output := out.String()
	assert.True(t, strings.HasPrefix(output, cursorHome+"▀"))
	assert.Equal(t, 16, strings.Count(output, "\r\n"))
	assert.True(t, strings.HasSuffix(output, term.status))
}

func TestTerminal_Inspect(t *testing.T) {
	state := chip8.NewState()
	// ld V3, $C5; call $206; ...; ld I, $123
	assert.NoError(t, state.LoadProgram([]byte{0x63, 0xC5, 0x22, 0x06, 0x00, 0x00, 0xA1, 0x23}))
	cpu := chip8.New(state)
	for range 3 {
		assert.NoError(t, cpu.Step())
	}

	var out bytes.Buffer
	term, _ := newTestTerminal(t, &out)
	assert.NoError(t, term.Inspect(state))
	assert.Equal(t, "", out.String())
	assert.Equal(t, minRows, term.minRows)

	term, _ = newTestTerminalWithOptions(t, &out, Options{Inspect: true})
	assert.Equal(t, inspectorRow+inspectorRows, term.minRows)
	assert.NoError(t, term.Inspect(state))

	output := out.String()
	assert.True(t, strings.HasPrefix(output, "\x1b[19;1HPC: $0208  I: $0123  SP: 1"))
	assert.Equal(t, inspectorRows, strings.Count(output, clearLine+"\r\n"))
	assert.Contains(t, output, "V3: $C5")
	assert.Contains(t, output, " 0:$202 >1:$000")
	assert.Contains(t, output, "$200: 63 C5 22 06 00 00 A1 23")
	assert.Contains(t, output, "$208:>00 00")
}

func TestTerminal_SetTone(t *testing.T) {
	var out bytes.Buffer
	term, _ := newTestTerminal(t, &out)

	term.SetTone(true)
	term.SetTone(true)
	term.SetTone(false)
	term.SetTone(true)
	assert.Equal(t, bell+bell, out.String())
}

func TestTerminal_Close(t *testing.T) {
	var out bytes.Buffer
	term, _ := newTestTerminal(t, &out)

	restored := 0
	term.restoreMode = func() { restored++ }
	term.restoreTimeout = func() { restored++ }

	term.Close()
	term.Close()
	assert.Equal(t, 2, restored)
	assert.Equal(t, showCursor+"\r\n", out.String())
}

func TestNew_NotTerminal(t *testing.T) {
	file, err := os.CreateTemp(t.TempDir(), "input")
	assert.NoError(t, err)
	defer func() { _ = file.Close() }()

	_, err = New(log.NewTestLogger(t), file, file, Options{KeyHold: time.Second}, func() {})
	assert.True(t, errors.Is(err, ErrNotTerminal))
}
