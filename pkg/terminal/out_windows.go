package terminal

import (
	"os"

	"golang.org/x/sys/windows"
)

func windowSize() (rows, cols int, ok bool) {
	var info windows.ConsoleScreenBufferInfo
	if err := windows.GetConsoleScreenBufferInfo(windows.Handle(os.Stdout.Fd()), &info); err != nil {
		return 0, 0, false
	}
	w := info.Window
	return int(w.Bottom-w.Top) + 1, int(w.Right-w.Left) + 1, true
}
