package terminal

import (
	"sync"
	"time"

	"github.com/retroenv/retrochip8/internal/chip8"
)

// keyMap maps the left block of a QWERTY keyboard to the hexadecimal keypad:
//
//	1 2 3 4      1 2 3 C
//	Q W E R  ->  4 5 6 D
//	A S D F      7 8 9 E
//	Z X C V      A 0 B F
var keyMap = map[byte]int{
	'1': 0x1, '2': 0x2, '3': 0x3, '4': 0xC,
	'q': 0x4, 'w': 0x5, 'e': 0x6, 'r': 0xD,
	'a': 0x7, 's': 0x8, 'd': 0x9, 'f': 0xE,
	'z': 0xA, 'x': 0x0, 'c': 0xB, 'v': 0xF,
}

// MapKey returns the keypad key for a keyboard character.
func MapKey(char byte) (int, bool) {
	if char >= 'A' && char <= 'Z' {
		char += 'a' - 'A'
	}
	key, ok := keyMap[char]
	return key, ok
}

// Keypad emulates key releases for an input that only reports key presses.
// A pressed key stays down for the hold duration after its last press,
// repeated presses by the terminal key repeat extend it.
type Keypad struct {
	mu      sync.Mutex
	hold    time.Duration
	now     func() time.Time
	pressed [chip8.NumKeys]time.Time
}

// NewKeypad returns a keypad that holds every pressed key for the given duration.
func NewKeypad(hold time.Duration) *Keypad {
	return &Keypad{
		hold: hold,
		now:  time.Now,
	}
}

// Press marks the key as pressed.
func (k *Keypad) Press(key int) {
	if key < 0 || key >= chip8.NumKeys {
		return
	}

	k.mu.Lock()
	k.pressed[key] = k.now()
	k.mu.Unlock()
}

// PollKeys sets the state of all keys.
func (k *Keypad) PollKeys(keys *[chip8.NumKeys]bool) {
	k.mu.Lock()
	defer k.mu.Unlock()

	now := k.now()
	for i, pressed := range k.pressed {
		keys[i] = !pressed.IsZero() && now.Sub(pressed) <= k.hold
	}
}
