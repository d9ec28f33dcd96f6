package terminal

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/go-delve/liner"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/go-delve/dbgcore/pkg/config"
	"github.com/go-delve/dbgcore/pkg/gdbarch"
	"github.com/go-delve/dbgcore/pkg/logflags"
	"github.com/go-delve/dbgcore/pkg/session"
	"github.com/go-delve/dbgcore/pkg/terminal/starbind"
)

const (
	historyFile                 string = ".dbgcore_history"
	terminalHighlightEscapeCode string = "\033[%2dm"
	terminalResetEscapeCode     string = "\033[0m"
)

const (
	ansiRed    = 31
	ansiGreen  = 32
	ansiYellow = 33
	ansiBlue   = 34
)

// Term represents the terminal running dbgcore.
type Term struct {
	sess     *session.Session
	conf     *config.Config
	prompt   string
	line     *liner.State
	cmds     *Commands
	stdout   *transcriptWriter
	InitFile string
	colors   bool

	starlarkEnv *starbind.Env

	quittingMutex sync.Mutex
	quitting      bool
}

// New returns a new Term.
func New(sess *session.Session, conf *config.Config) *Term {
	cmds := DebugCommands()
	if conf != nil && conf.Aliases != nil {
		cmds.Merge(conf.Aliases)
	}

	if conf == nil {
		conf = &config.Config{}
	}

	var w io.Writer = os.Stdout
	colors := false
	if strings.ToLower(os.Getenv("TERM")) != "dumb" && isatty.IsTerminal(os.Stdout.Fd()) {
		w = colorable.NewColorableStdout()
		colors = true
	}

	t := &Term{
		sess:   sess,
		conf:   conf,
		prompt: "(dbgcore) ",
		line:   liner.NewLiner(),
		cmds:   cmds,
		stdout: &transcriptWriter{pw: &pagingWriter{w: w}},
		colors: colors,
	}
	t.starlarkEnv = starbind.New(starlarkContext{t}, t.stdout)
	return t
}

// Close returns the terminal to its previous mode.
func (t *Term) Close() {
	if t.line != nil {
		t.line.Close()
	}
	if err := t.stdout.CloseTranscript(); err != nil {
		fmt.Fprintf(os.Stderr, "error closing transcript file: %v\n", err)
	}
}

func (t *Term) sigintGuard(ch <-chan os.Signal) {
	for range ch {
		t.starlarkEnv.Cancel()
		t.stdout.pw.Reset()
		fmt.Fprintf(os.Stderr, "received SIGINT\n")
	}
}

// Run begins running dbgcore in the terminal.
func (t *Term) Run() (int, error) {
	defer t.Close()

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT)
	go t.sigintGuard(ch)

	t.line.SetCompleter(t.complete)

	fullHistoryFile, err := config.GetConfigFilePath(historyFile)
	if err != nil {
		fmt.Printf("Unable to load history file: %v.", err)
	}

	f, err := os.Open(fullHistoryFile)
	if err != nil {
		f, err = os.Create(fullHistoryFile)
		if err != nil {
			fmt.Printf("Unable to open history file: %v. History will not be saved for this session.", err)
		}
	}

	t.line.ReadHistory(f)
	f.Close()
	fmt.Println("Type 'help' for list of commands.")

	if t.InitFile != "" {
		err := t.cmds.executeFile(t, t.InitFile)
		if err != nil {
			if _, ok := err.(ExitRequestError); ok {
				return t.handleExit()
			}
			fmt.Fprintf(os.Stderr, "Error executing init file: %s\n", err)
		}
	}

	for {
		cmdstr, err := t.promptForInput()
		if err != nil {
			if err == io.EOF {
				fmt.Println("exit")
				return t.handleExit()
			}
			return 1, fmt.Errorf("Prompt for input failed.\n")
		}
		t.stdout.Echo(t.prompt + cmdstr + "\n")

		if err := t.cmds.Call(cmdstr, t); err != nil {
			if _, ok := err.(ExitRequestError); ok {
				return t.handleExit()
			}
			t.quittingMutex.Lock()
			quitting := t.quitting
			t.quittingMutex.Unlock()
			if quitting {
				return t.handleExit()
			}
			fmt.Fprintf(os.Stderr, "Command failed: %s\n", err)
			if logflags.Terminal() {
				logflags.TerminalLogger().Debugf("command %q: %v", cmdstr, err)
			}
		}

		t.stdout.Flush()
		t.stdout.pw.Reset()
	}
}

// complete completes command names and, after the first word, register
// names prefixed with '$'.
func (t *Term) complete(line string) (c []string) {
	fields := strings.Fields(line)
	if len(fields) == 0 || (len(fields) == 1 && !strings.HasSuffix(line, " ")) {
		for _, cmd := range t.cmds.cmds {
			for _, alias := range cmd.aliases {
				if strings.HasPrefix(alias, strings.ToLower(line)) {
					c = append(c, alias)
				}
			}
		}
		return
	}
	last := fields[len(fields)-1]
	a := t.sess.Arch()
	if a == nil || !strings.HasPrefix(last, "$") || strings.HasSuffix(line, " ") {
		return
	}
	head := line[:len(line)-len(last)]
	for _, name := range gdbarch.UserRegCompletions(a, last[1:]) {
		c = append(c, head+"$"+name)
	}
	return
}

// Println prints a line to the terminal.
func (t *Term) Println(prefix, str string) {
	fmt.Fprintf(t.stdout, "%s%s\n", t.highlight(ansiBlue, prefix), str)
}

func (t *Term) highlight(color int, s string) string {
	if !t.colors {
		return s
	}
	return fmt.Sprintf(terminalHighlightEscapeCode, color) + s + terminalResetEscapeCode
}

func (t *Term) promptForInput() (string, error) {
	l, err := t.line.Prompt(t.prompt)
	if err != nil {
		return "", err
	}

	l = strings.TrimSuffix(l, "\n")
	if l != "" {
		t.line.AppendHistory(l)
	}

	return l, nil
}

func yesno(line *liner.State, question string) (bool, error) {
	for {
		answer, err := line.Prompt(question)
		if err != nil {
			return false, err
		}
		answer = strings.ToLower(strings.TrimSpace(answer))
		switch answer {
		case "n", "no":
			return false, nil
		case "y", "yes":
			return true, nil
		}
	}
}

func (t *Term) handleExit() (int, error) {
	fullHistoryFile, err := config.GetConfigFilePath(historyFile)
	if err != nil {
		fmt.Println("Error saving history file:", err)
	} else {
		if f, err := os.OpenFile(fullHistoryFile, os.O_RDWR, 0666); err == nil {
			_, err = t.line.WriteHistory(f)
			if err != nil {
				fmt.Println("readline history error:", err)
			}
			f.Close()
		}
	}

	t.quittingMutex.Lock()
	quitting := t.quitting
	t.quittingMutex.Unlock()
	if quitting {
		return 0, nil
	}

	if t.sess.Target() != nil {
		detach, err := yesno(t.line, fmt.Sprintf("Would you like to detach from %s? [Y/n] ", t.sess.Target()))
		if err != nil {
			return 2, io.EOF
		}
		if detach {
			if err := t.sess.Close(); err != nil {
				return 1, err
			}
		}
	}
	return 0, nil
}
