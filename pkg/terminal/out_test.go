package terminal

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
)

func TestPagingWriterShortOutput(t *testing.T) {
	out := new(bytes.Buffer)
	pw := &pagingWriter{w: out, holding: true, rows: 3, cols: 10}
	pw.Write([]byte("one\ntwo\n"))
	if out.Len() != 0 {
		t.Errorf("output written while held back: %q", out)
	}
	pw.Reset()
	if out.String() != "one\ntwo\n" {
		t.Errorf("after Reset: %q", out)
	}
	pw.Write([]byte("three\n"))
	if out.String() != "one\ntwo\nthree\n" {
		t.Errorf("after Reset output is not direct: %q", out)
	}
}

func TestPagingWriterOverflow(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("pager needs a shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("no sh")
	}
	path := filepath.Join(t.TempDir(), "paged")
	t.Setenv("DBGCORE_PAGER", "sh -c 'cat > "+path+"'")

	out := new(bytes.Buffer)
	// Long lines wrap, 25 characters take three rows of 10.
	pw := &pagingWriter{w: out, holding: true, rows: 4, cols: 10}
	pw.Write([]byte("1234567890123456789012345\n"))
	if out.Len() != 0 {
		t.Fatalf("paged too early: %q", out)
	}
	pw.Write([]byte("last\n"))
	pw.Reset()
	if out.String() != "Sending output to pager...\n" {
		t.Errorf("output: %q", out)
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(buf) != "1234567890123456789012345\nlast\n" {
		t.Errorf("paged: %q", buf)
	}
}

func TestTranscriptFileOnly(t *testing.T) {
	out := new(bytes.Buffer)
	w := &transcriptWriter{pw: &pagingWriter{w: out}}
	path := filepath.Join(t.TempDir(), "transcript")
	fh, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.TranscribeTo(fh, true); err != nil {
		t.Fatal(err)
	}
	w.Echo("(dbgcore) print $pc\n")
	w.Write([]byte("$pc = 0x401000\n"))
	if err := w.CloseTranscript(); err != nil {
		t.Fatal(err)
	}
	w.Write([]byte("after\n"))

	if out.String() != "after\n" {
		t.Errorf("terminal output: %q", out)
	}
	buf, _ := os.ReadFile(path)
	if string(buf) != "(dbgcore) print $pc\n$pc = 0x401000\n" {
		t.Errorf("transcript: %q", buf)
	}
}
