package terminal

import (
	"bufio"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/go-delve/dbgcore/pkg/config"
)

// transcriptFile is the file output is copied to by the transcript command.
type transcriptFile struct {
	buf  *bufio.Writer
	file io.Closer

	// fileOnly suppresses the output to the terminal.
	fileOnly bool
}

// transcriptWriter is the output of the terminal: command output goes to
// the paging writer and is copied to the transcript, if one is open.
type transcriptWriter struct {
	pw *pagingWriter
	tr *transcriptFile
}

func (w *transcriptWriter) Write(p []byte) (int, error) {
	if w.tr == nil {
		return w.pw.Write(p)
	}
	if !w.tr.fileOnly {
		if n, err := w.pw.Write(p); err != nil {
			return n, err
		}
	}
	return w.tr.buf.Write(p)
}

// Echo copies str to the transcript without displaying it. Commands typed
// by the user are recorded this way.
func (w *transcriptWriter) Echo(str string) {
	if w.tr != nil {
		w.tr.buf.WriteString(str)
	}
}

func (w *transcriptWriter) Flush() {
	if w.tr != nil {
		w.tr.buf.Flush()
	}
}

// TranscribeTo copies all further output to fh, closing the previous
// transcript.
func (w *transcriptWriter) TranscribeTo(fh io.WriteCloser, fileOnly bool) error {
	err := w.CloseTranscript()
	w.tr = &transcriptFile{buf: bufio.NewWriter(fh), file: fh, fileOnly: fileOnly}
	return err
}

func (w *transcriptWriter) CloseTranscript() error {
	tr := w.tr
	if tr == nil {
		return nil
	}
	w.tr = nil
	err := tr.buf.Flush()
	if cerr := tr.file.Close(); err == nil {
		err = cerr
	}
	return err
}

// pagingWriter writes to w. Once PageMaybe is called output is held back
// until it either ends (Reset) or no longer fits the window, in which case
// it is sent to a pager.
type pagingWriter struct {
	w io.Writer

	holding bool
	pending []byte
	rows    int
	cols    int

	pager   *exec.Cmd
	pagerIn io.WriteCloser
	cancel  func()
}

func (w *pagingWriter) Write(p []byte) (int, error) {
	if w.pagerIn != nil {
		n, err := w.pagerIn.Write(p)
		if err != nil && w.cancel != nil {
			// The pager was quit, stop producing output.
			w.cancel()
			w.cancel = nil
		}
		return n, err
	}
	if !w.holding {
		return w.w.Write(p)
	}
	w.pending = append(w.pending, p...)
	if !w.overflows() {
		return len(p), nil
	}
	w.holding = false
	if pager, in := startPager(); pager != nil {
		io.WriteString(w.w, "Sending output to pager...\n")
		w.pager, w.pagerIn = pager, in
		_, err := in.Write(w.pending)
		w.pending = nil
		return len(p), err
	}
	_, err := w.w.Write(w.pending)
	w.pending = nil
	return len(p), err
}

// overflows reports whether the held back output takes more rows than the
// window has.
func (w *pagingWriter) overflows() bool {
	rows, col := 0, 0
	for _, ch := range w.pending {
		if ch == '\n' || col >= w.cols {
			rows++
			col = 0
			if rows >= w.rows {
				return true
			}
			if ch == '\n' {
				continue
			}
		}
		col++
	}
	return false
}

func startPager() (*exec.Cmd, io.WriteCloser) {
	argv := config.SplitQuotedFields(pagerCommand(), '\'')
	if len(argv) == 0 {
		return nil, nil
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	in, err := cmd.StdinPipe()
	if err != nil {
		return nil, nil
	}
	if err := cmd.Start(); err != nil {
		return nil, nil
	}
	return cmd, in
}

// PageMaybe starts holding back output, to be sent to a pager if it turns
// out to be longer than the window. Cancel is called when writing to the
// pager fails.
func (w *pagingWriter) PageMaybe(cancel func()) {
	if w.holding || w.pagerIn != nil {
		return
	}
	if os.Getenv("DBGCORE_PAGER") == "" {
		f, ok := w.w.(*os.File)
		if !ok || !isatty.IsTerminal(f.Fd()) || strings.EqualFold(os.Getenv("TERM"), "dumb") {
			return
		}
	}
	rows, cols, ok := windowSize()
	if !ok || rows <= 0 || cols <= 0 {
		return
	}
	w.rows, w.cols = rows, cols
	w.holding = true
	w.cancel = cancel
}

// Reset writes out any held back output and waits for the pager to exit.
func (w *pagingWriter) Reset() {
	if w.holding {
		w.w.Write(w.pending)
	}
	w.holding = false
	w.pending = nil
	w.cancel = nil
	if w.pager != nil {
		w.pagerIn.Close()
		w.pager.Wait()
		w.pager, w.pagerIn = nil, nil
	}
}

func pagerCommand() string {
	if pager := os.Getenv("DBGCORE_PAGER"); pager != "" {
		return pager
	}
	if pager := os.Getenv("PAGER"); pager != "" {
		return pager
	}
	return "more"
}
