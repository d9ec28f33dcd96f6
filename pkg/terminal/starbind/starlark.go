package starbind

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"

	startime "go.starlark.net/lib/time"
	"go.starlark.net/resolve"
	"go.starlark.net/starlark"

	"github.com/go-delve/dbgcore/pkg/gdbarch"
	"github.com/go-delve/dbgcore/pkg/session"
)

const (
	dbgCommandBuiltinName    = "dbgcore_command"
	readFileBuiltinName      = "read_file"
	writeFileBuiltinName     = "write_file"
	readRegisterBuiltinName  = "read_register"
	writeRegisterBuiltinName = "write_register"
	registerBuiltinName      = "register"
	registersBuiltinName     = "registers"
	archBuiltinName          = "arch"
	threadsBuiltinName       = "threads"
	helpBuiltinName          = "help"
	commandPrefix            = "command_"
	dbgContextName           = "dbgcore_context"
)

func init() {
	resolve.AllowNestedDef = true
	resolve.AllowLambda = true
	resolve.AllowFloat = true
	resolve.AllowSet = true
	resolve.AllowBitwise = true
	resolve.AllowRecursion = true
	resolve.AllowGlobalReassign = true
}

// Context is the context in which starlark scripts are evaluated.
type Context interface {
	Session() *session.Session
	RegisterCommand(name, helpMsg string, cmdfn func(args string) error)
	CallCommand(cmdstr string) error
}

// Env is the environment used to evaluate starlark scripts.
type Env struct {
	env       starlark.StringDict
	contextMu sync.Mutex
	thread    *starlark.Thread
	cancelfn  context.CancelFunc

	ctx Context
	out EchoWriter
}

type builtinFunc func(thread *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error)

// New creates a new starlark binding environment.
func New(ctx Context, out EchoWriter) *Env {
	env := &Env{}

	env.ctx = ctx
	env.out = out

	// Make the "time" module available to Starlark scripts.
	starlark.Universe["time"] = startime.Module

	env.env = starlark.StringDict{}
	doc := map[string]string{}

	builtin := func(name, args, descr string, fn builtinFunc) {
		env.env[name] = starlark.NewBuiltin(name, fn)
		doc[name] = name + args + "\n\n" + name + " " + descr
	}

	builtin(dbgCommandBuiltinName, "(Command)", "executes a command of the command line interface.", func(thread *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		if err := isCancelled(thread); err != nil {
			return starlark.None, err
		}
		argstrs := make([]string, len(args))
		for i := range args {
			a, ok := args[i].(starlark.String)
			if !ok {
				return nil, fmt.Errorf("argument of %s is not a string", dbgCommandBuiltinName)
			}
			argstrs[i] = string(a)
		}
		err := env.ctx.CallCommand(strings.Join(argstrs, " "))
		return starlark.None, decorateError(thread, err)
	})

	builtin(readFileBuiltinName, "(Path)", "reads a file.", func(thread *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var path string
		if err := starlark.UnpackPositionalArgs(readFileBuiltinName, args, kwargs, 1, &path); err != nil {
			return nil, decorateError(thread, err)
		}
		buf, err := os.ReadFile(path)
		if err != nil {
			return nil, decorateError(thread, err)
		}
		return starlark.String(string(buf)), nil
	})

	builtin(writeFileBuiltinName, "(Path, Text)", "writes text to the specified file.", func(thread *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		if len(args) != 2 {
			return nil, decorateError(thread, fmt.Errorf("wrong number of arguments"))
		}
		path, ok := args[0].(starlark.String)
		if !ok {
			return nil, decorateError(thread, fmt.Errorf("first argument of write_file was not a string"))
		}
		text := args[1].String()
		if s, ok := args[1].(starlark.String); ok {
			text = string(s)
		}
		err := os.WriteFile(string(path), []byte(text), 0640)
		return starlark.None, decorateError(thread, err)
	})

	builtin(readRegisterBuiltinName, "(Name)", "returns the value of a register of the current thread as an integer, None if it is unavailable.", func(thread *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var name string
		if err := starlark.UnpackPositionalArgs(readRegisterBuiltinName, args, kwargs, 1, &name); err != nil {
			return nil, decorateError(thread, err)
		}
		reg, err := env.ctx.Session().ReadRegister(name)
		if err != nil {
			return nil, decorateError(thread, err)
		}
		return registerToStarlarkValue(reg), nil
	})

	builtin(writeRegisterBuiltinName, "(Name, Value)", "assigns Value to a register of the current thread.", func(thread *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var name string
		var value starlark.Value
		if err := starlark.UnpackPositionalArgs(writeRegisterBuiltinName, args, kwargs, 2, &name, &value); err != nil {
			return nil, decorateError(thread, err)
		}
		str, err := valueToRegisterString(value)
		if err != nil {
			return nil, decorateError(thread, err)
		}
		err = env.ctx.Session().WriteRegister(name, str)
		return starlark.None, decorateError(thread, err)
	})

	builtin(registerBuiltinName, "(Name)", "returns a register of the current thread, with its name, type, size and value.", func(thread *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var name string
		if err := starlark.UnpackPositionalArgs(registerBuiltinName, args, kwargs, 1, &name); err != nil {
			return nil, decorateError(thread, err)
		}
		reg, err := env.ctx.Session().ReadRegister(name)
		if err != nil {
			return nil, decorateError(thread, err)
		}
		return registerValue{reg}, nil
	})

	builtin(registersBuiltinName, "(Group)", "returns a dictionary mapping the names of the registers of Group, \"general\" if omitted, to registers.", func(thread *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		groupName := gdbarch.GeneralReggroup.Name
		if err := starlark.UnpackPositionalArgs(registersBuiltinName, args, kwargs, 0, &groupName); err != nil {
			return nil, decorateError(thread, err)
		}
		s := env.ctx.Session()
		if s.Arch() == nil {
			return nil, decorateError(thread, session.ErrNoTarget)
		}
		group := gdbarch.ReggroupByName(s.Arch(), groupName)
		if group == nil {
			return nil, decorateError(thread, fmt.Errorf("unknown register group %q", groupName))
		}
		regs, err := s.Registers(group)
		if err != nil {
			return nil, decorateError(thread, err)
		}
		r := starlark.NewDict(len(regs))
		for _, reg := range regs {
			r.SetKey(starlark.String(reg.Name), registerValue{reg})
		}
		return r, nil
	})

	builtin(archBuiltinName, "()", "returns a description of the architecture of the current thread.", func(thread *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		a := env.ctx.Session().Arch()
		if a == nil {
			return starlark.None, nil
		}
		return archValue{a}, nil
	})

	builtin(threadsBuiltinName, "()", "returns the list of threads of the target.", func(thread *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		threads, err := env.ctx.Session().Threads()
		if err != nil {
			return nil, decorateError(thread, err)
		}
		r := make([]starlark.Value, len(threads))
		for i := range threads {
			r[i] = starlark.String(threads[i].String())
		}
		return starlark.NewList(r), nil
	})

	builtin(helpBuiltinName, "(Object)", "prints help for Object.", func(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		switch len(args) {
		case 0:
			fmt.Fprintln(env.out, "Available builtins:")
			bins := make([]string, 0, len(env.env))
			for name, value := range env.env {
				switch value.(type) {
				case *starlark.Builtin:
					bins = append(bins, name)
				}
			}
			sort.Strings(bins)
			for _, bin := range bins {
				fmt.Fprintf(env.out, "\t%s\n", bin)
			}
		case 1:
			switch x := args[0].(type) {
			case *starlark.Builtin:
				if doc[x.Name()] != "" {
					fmt.Fprintf(env.out, "%s\n", doc[x.Name()])
				} else {
					fmt.Fprintf(env.out, "no help for builtin %s\n", x.Name())
				}
			case *starlark.Function:
				fmt.Fprintf(env.out, "user defined function %s\n", x.Name())
				if doc := x.Doc(); doc != "" {
					fmt.Fprintln(env.out, doc)
				}
			default:
				fmt.Fprintf(env.out, "no help for object of type %T\n", args[0])
			}
		default:
			fmt.Fprintln(env.out, "wrong number of arguments ", len(args))
		}
		return starlark.None, nil
	})

	return env
}

// Redirect redirects starlark output to out.
func (env *Env) Redirect(out EchoWriter) {
	env.out = out
	if env.thread != nil {
		env.thread.Print = env.printFunc()
	}
}

func (env *Env) printFunc() func(_ *starlark.Thread, msg string) {
	return func(_ *starlark.Thread, msg string) { fmt.Fprintln(env.out, msg) }
}

// Execute executes a script. Path is the name of the file to execute and
// source is the source code to execute.
// Source can be either a []byte, a string or a io.Reader. If source is nil
// Execute will execute the file specified by 'path'.
// After the file is executed if a function named mainFnName exists it will be called, passing args to it.
func (env *Env) Execute(path string, source interface{}, mainFnName string, args starlark.Tuple) (_ starlark.Value, _err error) {
	defer func() {
		err := recover()
		if err == nil {
			return
		}
		_err = fmt.Errorf("panic executing starlark script: %v", err)
		fmt.Fprintf(env.out, "panic executing starlark script: %v\n", err)
		for i := 0; ; i++ {
			pc, file, line, ok := runtime.Caller(i)
			if !ok {
				break
			}
			fname := "<unknown>"
			fn := runtime.FuncForPC(pc)
			if fn != nil {
				fname = fn.Name()
			}
			fmt.Fprintf(env.out, "%s\n\tin %s:%d\n", fname, file, line)
		}
	}()

	thread := env.newThread()
	globals, err := starlark.ExecFile(thread, path, source, env.env)
	if err != nil {
		return starlark.None, err
	}

	err = env.exportGlobals(globals)
	if err != nil {
		return starlark.None, err
	}

	return env.callMain(thread, globals, mainFnName, args)
}

// exportGlobals saves globals with a name starting with a capital letter
// into the environment and creates commands from globals with a name
// starting with "command_"
func (env *Env) exportGlobals(globals starlark.StringDict) error {
	for name, val := range globals {
		switch {
		case strings.HasPrefix(name, commandPrefix):
			err := env.createCommand(name, val)
			if err != nil {
				return err
			}
		case name[0] >= 'A' && name[0] <= 'Z':
			env.env[name] = val
		}
	}
	return nil
}

// Cancel cancels the execution of a currently running script or function.
func (env *Env) Cancel() {
	if env == nil {
		return
	}
	env.contextMu.Lock()
	if env.cancelfn != nil {
		env.cancelfn()
		env.cancelfn = nil
	}
	if env.thread != nil {
		env.thread.Cancel("user interrupt")
	}
	env.contextMu.Unlock()
}

func (env *Env) newThread() *starlark.Thread {
	thread := &starlark.Thread{
		Print: env.printFunc(),
	}
	env.contextMu.Lock()
	var ctx context.Context
	ctx, env.cancelfn = context.WithCancel(context.Background())
	env.thread = thread
	env.contextMu.Unlock()
	thread.SetLocal(dbgContextName, ctx)
	return thread
}

func (env *Env) createCommand(name string, val starlark.Value) error {
	fnval, ok := val.(*starlark.Function)
	if !ok {
		return nil
	}

	name = name[len(commandPrefix):]

	helpMsg := fnval.Doc()
	if helpMsg == "" {
		helpMsg = "user defined"
	}

	if fnval.NumParams() == 1 {
		if p0, _ := fnval.Param(0); p0 == "args" {
			env.ctx.RegisterCommand(name, helpMsg, func(args string) error {
				_, err := starlark.Call(env.newThread(), fnval, starlark.Tuple{starlark.String(args)}, nil)
				return err
			})
			return nil
		}
	}

	env.ctx.RegisterCommand(name, helpMsg, func(args string) error {
		thread := env.newThread()
		argval, err := starlark.Eval(thread, "<input>", "("+args+")", env.env)
		if err != nil {
			return err
		}
		argtuple, ok := argval.(starlark.Tuple)
		if !ok {
			argtuple = starlark.Tuple{argval}
		}
		_, err = starlark.Call(thread, fnval, argtuple, nil)
		return err
	})
	return nil
}

// callMain calls the main function in globals, if one was defined.
func (env *Env) callMain(thread *starlark.Thread, globals starlark.StringDict, mainFnName string, args starlark.Tuple) (starlark.Value, error) {
	if mainFnName == "" {
		return starlark.None, nil
	}
	mainval := globals[mainFnName]
	if mainval == nil {
		return starlark.None, nil
	}
	mainfn, ok := mainval.(*starlark.Function)
	if !ok {
		return starlark.None, fmt.Errorf("%s is not a function", mainFnName)
	}
	if mainfn.NumParams() != len(args) {
		return starlark.None, fmt.Errorf("wrong number of arguments for %s", mainFnName)
	}
	return starlark.Call(thread, mainfn, args, nil)
}

func isCancelled(thread *starlark.Thread) error {
	if ctx, ok := thread.Local(dbgContextName).(context.Context); ok {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
	return nil
}

func decorateError(thread *starlark.Thread, err error) error {
	if err == nil {
		return nil
	}
	pos := thread.CallFrame(1).Pos
	if pos.Col > 0 {
		return fmt.Errorf("%s:%d:%d: %v", pos.Filename(), pos.Line, pos.Col, err)
	}
	return fmt.Errorf("%s:%d: %v", pos.Filename(), pos.Line, err)
}

// EchoWriter is the output of scripts. Echo writes only to the transcript.
type EchoWriter interface {
	io.Writer
	Echo(string)
	Flush()
}
