package machine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/retroenv/retrochip8/internal/chip8"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

type fakeFrontend struct {
	keys      [chip8.NumKeys]bool
	tones     []bool
	renders   int
	lastFrame chip8.Framebuffer
	renderErr error
}

func (f *fakeFrontend) Render(fb *chip8.Framebuffer) error {
	f.renders++
	f.lastFrame = *fb
	return f.renderErr
}

func (f *fakeFrontend) SetTone(on bool) {
	f.tones = append(f.tones, on)
}

func (f *fakeFrontend) PollKeys(keys *[chip8.NumKeys]bool) {
	*keys = f.keys
}

type inspectingFrontend struct {
	fakeFrontend
	pcs        []uint16
	inspectErr error
}

func (f *inspectingFrontend) Inspect(state *chip8.State) error {
	f.pcs = append(f.pcs, state.PC())
	return f.inspectErr
}

func newTestMachine(t *testing.T, frontend Frontend, program ...byte) *Machine {
	t.Helper()
	cfg := Config{
		CyclesPerFrame: 11,
		FrameRate:      60,
		Seed:           1,
	}
	m, err := New(log.NewTestLogger(t), cfg, frontend)
	assert.NoError(t, err)
	assert.NoError(t, m.Load(program))
	return m
}

func litPixels(fb chip8.Framebuffer) int {
	count := 0
	for _, pixel := range fb {
		if pixel != 0 {
			count++
		}
	}
	return count
}

func TestNew(t *testing.T) {
	logger := log.NewTestLogger(t)
	frontend := &fakeFrontend{}

	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "valid", cfg: Config{CyclesPerFrame: 11, FrameRate: 60}},
		{name: "no cycles", cfg: Config{CyclesPerFrame: 0, FrameRate: 60}, wantErr: "cycles per frame"},
		{name: "no frame rate", cfg: Config{CyclesPerFrame: 11, FrameRate: 0}, wantErr: "frame rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := New(logger, tt.cfg, frontend)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, m)
			assert.Equal(t, uint16(chip8.ProgramStart), m.State().PC())
		})
	}
}

func TestMachine_Load(t *testing.T) {
	frontend := &fakeFrontend{}
	m := newTestMachine(t, frontend, 0x60, 0x05)
	assert.Equal(t, byte(0x60), m.State().Memory(chip8.ProgramStart))

	assert.NoError(t, m.RunFrames(context.Background(), 2))
	assert.Equal(t, uint64(2), m.Frames())

	err := m.Load(make([]byte, chip8.MaxProgramSize+1))
	assert.True(t, errors.Is(err, chip8.ErrCapacityExceeded))

	assert.NoError(t, m.Load([]byte{0x61, 0x07}))
	assert.Equal(t, uint64(0), m.Frames())
	assert.Equal(t, byte(0x61), m.State().Memory(chip8.ProgramStart))
	assert.Equal(t, byte(0), m.State().V(0))
}

func TestMachine_FrameRendersOnlyOnChange(t *testing.T) {
	frontend := &fakeFrontend{}
	// ld I, $000; drw V0, V0, $5; jp $204
	m := newTestMachine(t, frontend, 0xA0, 0x00, 0xD0, 0x05, 0x12, 0x04)

	assert.NoError(t, m.Frame())
	assert.Equal(t, 1, frontend.renders)
	assert.Equal(t, 14, litPixels(frontend.lastFrame))

	assert.NoError(t, m.Frame())
	assert.Equal(t, 1, frontend.renders)
	assert.Equal(t, uint16(0x204), m.State().PC())
}

func TestMachine_FirstFrameAlwaysRenders(t *testing.T) {
	frontend := &fakeFrontend{}
	m := newTestMachine(t, frontend, 0x12, 0x00) // jp $200

	assert.NoError(t, m.Frame())
	assert.Equal(t, 1, frontend.renders)
	assert.Equal(t, 0, litPixels(frontend.lastFrame))
}

func TestMachine_SoundTimer(t *testing.T) {
	frontend := &fakeFrontend{}
	// ld V0, $05; ld ST, V0; jp $204
	m := newTestMachine(t, frontend, 0x60, 0x05, 0xF0, 0x18, 0x12, 0x04)

	assert.NoError(t, m.RunFrames(context.Background(), 7))
	assert.Equal(t, []bool{true, true, true, true, true, false, false}, frontend.tones)
	assert.Equal(t, byte(0), m.State().SoundTimer())
}

func TestMachine_DelayTimerOncePerFrame(t *testing.T) {
	frontend := &fakeFrontend{}
	// ld V0, $10; ld DT, V0; jp $204
	m := newTestMachine(t, frontend, 0x60, 0x10, 0xF0, 0x15, 0x12, 0x04)

	assert.NoError(t, m.RunFrames(context.Background(), 4))
	assert.Equal(t, byte(0x10-4), m.State().DelayTimer())
}

func TestMachine_Keypad(t *testing.T) {
	// ld V0, $05; skp V0; jp $202; ld V1, $01; jp $208
	program := []byte{0x60, 0x05, 0xE0, 0x9E, 0x12, 0x02, 0x61, 0x01, 0x12, 0x08}

	t.Run("key released", func(t *testing.T) {
		frontend := &fakeFrontend{}
		m := newTestMachine(t, frontend, program...)
		assert.NoError(t, m.Frame())
		assert.Equal(t, byte(0), m.State().V(1))
		assert.False(t, m.State().Key(5))
	})

	t.Run("key pressed", func(t *testing.T) {
		frontend := &fakeFrontend{}
		frontend.keys[5] = true
		m := newTestMachine(t, frontend, program...)
		assert.NoError(t, m.Frame())
		assert.Equal(t, byte(1), m.State().V(1))
		assert.True(t, m.State().Key(5))
	})
}

func TestMachine_ErrorsDoNotStopExecution(t *testing.T) {
	frontend := &fakeFrontend{}
	// ret with an empty stack
	m := newTestMachine(t, frontend, 0x00, 0xEE)

	assert.NoError(t, m.RunFrames(context.Background(), 3))
	assert.Equal(t, uint64(3), m.Frames())
	assert.Equal(t, uint16(chip8.ProgramStart), m.State().PC())
	assert.True(t, m.reported.Contains(chip8.ProgramStart))
	assert.Equal(t, 3, len(frontend.tones))
}

func TestMachine_RenderError(t *testing.T) {
	frontend := &fakeFrontend{renderErr: errors.New("broken pipe")}
	m := newTestMachine(t, frontend, 0x12, 0x00)

	err := m.Frame()
	assert.ErrorContains(t, err, "broken pipe")

	err = m.RunFrames(context.Background(), 5)
	assert.NoError(t, err)
}

func TestMachine_Inspector(t *testing.T) {
	frontend := &inspectingFrontend{}
	// ld V0, $01; jp $202
	m := newTestMachine(t, frontend, 0x60, 0x01, 0x12, 0x02)

	assert.NoError(t, m.RunFrames(context.Background(), 3))
	assert.Equal(t, []uint16{0x202, 0x202, 0x202}, frontend.pcs)
	assert.Equal(t, 1, frontend.renders)

	frontend.inspectErr = errors.New("broken pipe")
	err := m.Frame()
	assert.ErrorContains(t, err, "inspecting state")
	assert.Len(t, frontend.pcs, 4)
}

func TestMachine_RunFramesCancelled(t *testing.T) {
	frontend := &fakeFrontend{}
	m := newTestMachine(t, frontend, 0x12, 0x00)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.RunFrames(ctx, 10)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, uint64(0), m.Frames())
}

func TestMachine_Run(t *testing.T) {
	frontend := &fakeFrontend{}
	cfg := Config{CyclesPerFrame: 1, FrameRate: 1000}
	m, err := New(log.NewTestLogger(t), cfg, frontend)
	assert.NoError(t, err)
	assert.NoError(t, m.Load([]byte{0x12, 0x00}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err = m.Run(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.True(t, m.Frames() > 0)
}
