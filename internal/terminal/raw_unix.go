//go:build !windows

package terminal

import (
	"github.com/pkg/errors"
	"github.com/pkg/term/termios"
	"golang.org/x/sys/unix"
)

// readTimeout is the read timeout in tenths of a second, it limits how long
// a read of the input blocks so that the reader can be stopped.
const readTimeout = 1

// setReadTimeout makes reads of the raw mode terminal return after the
// read timeout even when no input is available.
func setReadTimeout(fd uintptr) (func(), error) {
	var tios unix.Termios
	if err := termios.Tcgetattr(fd, &tios); err != nil {
		return nil, errors.Wrap(err, "Tcgetattr failed")
	}

	a := tios
	a.Cc[unix.VMIN] = 0
	a.Cc[unix.VTIME] = readTimeout
	if err := termios.Tcsetattr(fd, termios.TCSANOW, &a); err != nil {
		_ = termios.Tcsetattr(fd, termios.TCSANOW, &tios)
		return nil, errors.Wrap(err, "Tcsetattr failed")
	}

	return func() {
		_ = termios.Tcsetattr(fd, termios.TCSANOW, &tios)
	}, nil
}
