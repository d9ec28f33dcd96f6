package starbind

import (
	"errors"
	"fmt"
	"io"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/go-delve/liner"
)

const (
	replPrompt         = ">>> "
	replContinuePrompt = "... "
	replExit           = "exit"
)

// lineReader is the part of *liner.State used by the REPL.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// REPL reads starlark statements from the terminal and executes them until
// "exit" or end of input. Globals defined in the REPL are exported like the
// ones of a script.
func (env *Env) REPL() error {
	rl := liner.NewLiner()
	defer rl.Close()
	rl.SetCtrlCAborts(true)
	return env.repl(rl)
}

func (env *Env) repl(rl lineReader) error {
	thread := env.newThread()
	globals := make(starlark.StringDict, len(env.env))
	for k, v := range env.env {
		globals[k] = v
	}

	for {
		if err := isCancelled(thread); err != nil {
			return err
		}
		f, err := env.readStmt(rl)
		switch {
		case errors.Is(err, io.EOF):
			fmt.Fprintln(env.out)
			return env.exportGlobals(globals)
		case errors.Is(err, liner.ErrPromptAborted):
			continue
		case err != nil:
			var serr syntax.Error
			if !errors.As(err, &serr) {
				return err
			}
			fmt.Fprintln(env.out, serr)
			continue
		}
		env.execStmt(thread, globals, f)
		env.out.Flush()
	}
}

// readStmt reads lines until they form a complete statement.
func (env *Env) readStmt(rl lineReader) (*syntax.File, error) {
	prompt := replPrompt
	var readErr error
	f, err := syntax.ParseCompoundStmt("<stdin>", func() ([]byte, error) {
		line, err := rl.Prompt(prompt)
		if err != nil {
			readErr = err
			return nil, err
		}
		env.out.Echo(prompt + line + "\n")
		if prompt == replPrompt && line == replExit {
			readErr = io.EOF
			return nil, io.EOF
		}
		rl.AppendHistory(line)
		prompt = replContinuePrompt
		return []byte(line + "\n"), nil
	})
	if readErr != nil {
		return nil, readErr
	}
	return f, err
}

// execStmt runs f, printing the value of expressions and any error.
// Globals assigned by f are kept even if it fails part way.
func (env *Env) execStmt(thread *starlark.Thread, globals starlark.StringDict, f *syntax.File) {
	if len(f.Stmts) == 1 {
		if stmt, ok := f.Stmts[0].(*syntax.ExprStmt); ok {
			v, err := starlark.EvalExpr(thread, stmt.X, globals)
			if err != nil {
				env.printError(err)
				return
			}
			if v != starlark.None {
				fmt.Fprintln(env.out, v)
			}
			return
		}
	}

	prog, err := starlark.FileProgram(f, globals.Has)
	if err != nil {
		env.printError(err)
		return
	}
	res, err := prog.Init(thread, globals)
	for k, v := range res {
		globals[k] = v
	}
	if err != nil {
		env.printError(err)
	}
}

func (env *Env) printError(err error) {
	var evalErr *starlark.EvalError
	if errors.As(err, &evalErr) {
		fmt.Fprintln(env.out, evalErr.Backtrace())
		return
	}
	fmt.Fprintln(env.out, err)
}
