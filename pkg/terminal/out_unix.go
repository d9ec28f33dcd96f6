//go:build unix

package terminal

import (
	"os"

	"golang.org/x/sys/unix"
)

func windowSize() (rows, cols int, ok bool) {
	ws, err := unix.IoctlGetWinsize(int(os.Stdout.Fd()), unix.TIOCGWINSZ)
	if err != nil {
		return 0, 0, false
	}
	return int(ws.Row), int(ws.Col), true
}
