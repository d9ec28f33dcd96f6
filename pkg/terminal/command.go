// Package terminal implements functions for responding to user
// input and dispatching to appropriate backend commands.
package terminal

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/cosiner/argv"

	"github.com/go-delve/dbgcore/pkg/gdbarch"
	"github.com/go-delve/dbgcore/pkg/gdbtypes"
	"github.com/go-delve/dbgcore/pkg/regcache"
	"github.com/go-delve/dbgcore/pkg/session"
	"github.com/go-delve/dbgcore/pkg/target"
)

type cmdfunc func(t *Term, args string) error

type command struct {
	aliases        []string
	builtinAliases []string
	group          commandGroup
	helpMsg        string
	cmdFn          cmdfunc
}

// Returns true if the command string matches one of the aliases for this command
func (c command) match(cmdstr string) bool {
	for _, v := range c.aliases {
		if v == cmdstr {
			return true
		}
	}
	return false
}

// Commands represents the commands for the dbgcore terminal.
type Commands struct {
	cmds []command
}

// DebugCommands returns a Commands struct with default commands defined.
func DebugCommands() *Commands {
	c := &Commands{}

	c.cmds = []command{
		{aliases: []string{"help", "h"}, cmdFn: c.help, helpMsg: `Prints the help message.

	help [command]

Type "help" followed by the name of a command for more information about it.`},
		{aliases: []string{"info", "i"}, group: dataCmds, cmdFn: infoCommand, helpMsg: `Shows information about the target.

	info registers [group | $reg...]
	info all-registers
	info threads
	info target

"info registers" without arguments prints the registers of the group set by the default-register-group configuration option, "general" if it is not set. The argument can be the name of a register group or a list of registers. Registers the target could not supply are printed as <unavailable>.`},
		{aliases: []string{"print", "p"}, group: dataCmds, cmdFn: printCommand, helpMsg: `Prints the value of a register.

	print $reg

Raw, pseudo and user registers ($pc, $sp, $fp, $ps) are accepted.`},
		{aliases: []string{"set"}, group: dataCmds, cmdFn: setCommand, helpMsg: `Changes the value of a register or selects the architecture.

	set $reg = value
	set architecture <name | auto>

Values of floating point registers are parsed as floating point numbers, all other values as integers (0x, 0o and 0b prefixes are allowed).`},
		{aliases: []string{"flushregs"}, group: dataCmds, cmdFn: flushregs, helpMsg: `Discards the register cache, registers are read again from the target.

	flushregs`},
		{aliases: []string{"threads"}, group: threadCmds, cmdFn: threads, helpMsg: `Print out info for every thread.

	threads`},
		{aliases: []string{"thread", "tr"}, group: threadCmds, cmdFn: thread, helpMsg: `Switch to the specified thread.

	thread [ptid]

Without arguments prints the current thread. Ptids are written pid.lwp.tid, "pid" and "pid.lwp" are also accepted.`},
		{aliases: []string{"maintenance", "maint", "mt"}, group: maintCmds, cmdFn: maintCommand, helpMsg: `Commands for debugging the debugger.

	maint print architecture
	maint print registers
	maint print raw-registers
	maint print cooked-registers
	maint print register-groups
	maint print reggroups

"architecture" dumps every field of the current architecture, the register commands print the layout of the register cache of the current thread with their raw or cooked values or with the groups they belong to.`},
		{aliases: []string{"source"}, cmdFn: c.sourceCommand, helpMsg: `Executes a file containing a list of commands or a starlark script.

	source <path>

If path ends with the .star extension it will be interpreted as a starlark script, otherwise as a list of commands. If path is a single '-' character an interactive starlark interpreter is started instead.`},
		{aliases: []string{"transcript"}, cmdFn: transcript, helpMsg: `Appends command output to a file.

	transcript [-t] [-x] <output file>
	transcript -off

Output of commands is appended to the specified output file. If -t is specified and the output file exists it is truncated. If -x is specified output to stdout is suppressed instead.

Using the -off option disables the transcript.`},
		{aliases: []string{"config"}, cmdFn: configureCmd, helpMsg: `Changes configuration parameters.

	config -list

Show all configuration parameters.

	config -save

Saves the configuration file to disk, overwriting the current configuration file.

	config <parameter> <value>

Changes the value of a configuration parameter.

	config alias <command> <alias>
	config alias <alias>

Defines <alias> as an alias to <command> or removes an alias.`},
		{aliases: []string{"exit", "quit", "q"}, cmdFn: exitCommand, helpMsg: `Exit the debugger.

	exit`},
	}

	return c
}

// Register custom commands. Expects cf to be a func of type cmdfunc,
// returning only an error.
func (c *Commands) Register(cmdstr string, cf cmdfunc, helpMsg string) {
	for i := range c.cmds {
		if c.cmds[i].match(cmdstr) {
			c.cmds[i].cmdFn = cf
			c.cmds[i].helpMsg = helpMsg
			return
		}
	}

	c.cmds = append(c.cmds, command{aliases: []string{cmdstr}, cmdFn: cf, helpMsg: helpMsg})
}

// Find will look up the command function for the given command input.
// If it cannot find the command it will default to noCmdAvailable().
// If the command is an empty string it will replay the last command.
func (c *Commands) Find(cmdstr string) cmdfunc {
	if cmdstr == "" {
		return nullCommand
	}

	for _, v := range c.cmds {
		if v.match(cmdstr) {
			return v.cmdFn
		}
	}

	return noCmdAvailable
}

// Call takes a command to execute.
func (c *Commands) Call(cmdstr string, t *Term) error {
	vals := strings.SplitN(strings.TrimSpace(cmdstr), " ", 2)
	cmdname := vals[0]
	var args string
	if len(vals) > 1 {
		args = strings.TrimSpace(vals[1])
	}
	return c.Find(cmdname)(t, args)
}

// isPrimaryName reports whether name is the first alias of a command, the
// name aliases are attached to by Merge.
func (c *Commands) isPrimaryName(name string) bool {
	for i := range c.cmds {
		if c.cmds[i].aliases[0] == name {
			return true
		}
	}
	return false
}

// Merge takes aliases defined in the config struct and merges them with the default aliases.
func (c *Commands) Merge(allAliases map[string][]string) {
	for i := range c.cmds {
		if c.cmds[i].builtinAliases != nil {
			c.cmds[i].aliases = append(c.cmds[i].aliases[:0], c.cmds[i].builtinAliases...)
		}
	}
	for i := range c.cmds {
		if aliases, ok := allAliases[c.cmds[i].aliases[0]]; ok {
			if c.cmds[i].builtinAliases == nil {
				c.cmds[i].builtinAliases = make([]string, len(c.cmds[i].aliases))
				copy(c.cmds[i].builtinAliases, c.cmds[i].aliases)
			}
			c.cmds[i].aliases = append(c.cmds[i].aliases, aliases...)
		}
	}
}

var errNoCmd = errors.New("command not available")

func noCmdAvailable(t *Term, args string) error {
	return errNoCmd
}

func nullCommand(t *Term, args string) error {
	return nil
}

func (c *Commands) help(t *Term, args string) error {
	if args != "" {
		for _, cmd := range c.cmds {
			for _, alias := range cmd.aliases {
				if alias == args {
					fmt.Fprintln(t.stdout, cmd.helpMsg)
					return nil
				}
			}
		}
		return errNoCmd
	}

	fmt.Fprintln(t.stdout, "The following commands are available:")

	for _, cgd := range commandGroupDescriptions {
		fmt.Fprintf(t.stdout, "\n%s:\n", cgd.description)
		w := new(tabwriter.Writer)
		w.Init(t.stdout, 0, 8, 0, '-', 0)
		for _, cmd := range c.cmds {
			if cmd.group != cgd.group {
				continue
			}
			h := cmd.helpMsg
			if idx := strings.Index(h, "\n"); idx >= 0 {
				h = h[:idx]
			}
			if len(cmd.aliases) > 1 {
				fmt.Fprintf(w, "    %s (alias: %s) \t %s\n", cmd.aliases[0], strings.Join(cmd.aliases[1:], " | "), h)
			} else {
				fmt.Fprintf(w, "    %s \t %s\n", cmd.aliases[0], h)
			}
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	fmt.Fprintln(t.stdout)
	fmt.Fprintln(t.stdout, "Type help followed by a command for full documentation.")
	return nil
}

func split2PartsBySpace(s string) []string {
	v := strings.SplitN(s, " ", 2)
	for i := range v {
		v[i] = strings.TrimSpace(v[i])
	}
	return v
}

// splitArgs splits args like a shell would, backticks are not allowed.
func splitArgs(args string) ([]string, error) {
	if args == "" {
		return nil, nil
	}
	v, err := argv.Argv(args,
		func(s string) (string, error) {
			return "", fmt.Errorf("backtick not supported in '%s'", s)
		},
		nil)
	if err != nil {
		return nil, err
	}
	if len(v) != 1 {
		return nil, fmt.Errorf("illegal command line '%s'", args)
	}
	return v[0], nil
}

func infoCommand(t *Term, args string) error {
	v := split2PartsBySpace(args)
	var rest string
	if len(v) > 1 {
		rest = v[1]
	}
	switch v[0] {
	case "registers", "reg", "r":
		return infoRegisters(t, rest, false)
	case "all-registers":
		return infoRegisters(t, rest, true)
	case "threads":
		return threads(t, rest)
	case "target":
		return infoTarget(t)
	case "":
		return errors.New("wrong number of arguments: info <registers | all-registers | threads | target>")
	}
	return fmt.Errorf("unknown info command %q", v[0])
}

func infoTarget(t *Term) error {
	tgt := t.sess.Target()
	if tgt == nil {
		fmt.Fprintln(t.stdout, "No target.")
		return nil
	}
	a := t.sess.Arch()
	fmt.Fprintf(t.stdout, "Target:       %s\n", tgt)
	fmt.Fprintf(t.stdout, "Architecture: %s\n", a.ArchInfo().Name)
	fmt.Fprintf(t.stdout, "Byte order:   %s endian\n", a.ByteOrder())
	fmt.Fprintf(t.stdout, "OS ABI:       %s\n", a.OSABI())
	fmt.Fprintf(t.stdout, "Thread:       %s\n", t.sess.Ptid())
	return nil
}

func infoRegisters(t *Term, args string, all bool) error {
	a := t.sess.Arch()
	if t.sess.Target() == nil || a == nil {
		return session.ErrNoTarget
	}
	fields, err := splitArgs(args)
	if err != nil {
		return err
	}

	var regs []*session.Register
	hideUnavailable := false
	switch {
	case all && len(fields) > 0:
		return errors.New("too many arguments: info all-registers")
	case len(fields) == 0 || (len(fields) == 1 && !strings.HasPrefix(fields[0], "$")):
		groupName := gdbarch.GeneralReggroup.Name
		if all {
			groupName = gdbarch.AllReggroup.Name
		} else if len(fields) == 1 {
			groupName = fields[0]
		} else if t.conf.DefaultRegisterGroup != "" {
			groupName = t.conf.DefaultRegisterGroup
		}
		group := gdbarch.ReggroupByName(a, groupName)
		if group == nil {
			return fmt.Errorf("invalid register group %q", groupName)
		}
		regs, err = t.sess.Registers(group)
		if err != nil {
			return err
		}
		hideUnavailable = t.conf.HideUnavailable
	default:
		for _, name := range fields {
			reg, err := t.sess.ReadRegister(name)
			if err != nil {
				return err
			}
			regs = append(regs, reg)
		}
	}

	t.stdout.pw.PageMaybe(nil)
	w := new(tabwriter.Writer)
	w.Init(t.stdout, 0, 8, 1, ' ', 0)
	for _, reg := range regs {
		if hideUnavailable && reg.Status == gdbarch.RegUnavailable {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\n", t.highlight(ansiGreen, reg.Name), formatRegister(reg))
	}
	return w.Flush()
}

// formatRegister returns the contents of reg in hexadecimal followed by
// their natural representation.
func formatRegister(reg *session.Register) string {
	if !reg.Available() {
		return reg.String()
	}
	if len(reg.Bytes) > 8 && reg.Type.Code != gdbtypes.TypeFloat {
		return reg.String()
	}
	natural := reg.Natural()
	if reg.Type.Code == gdbtypes.TypeFloat {
		return fmt.Sprintf("%s\t(raw %s)", natural, reg.Hex())
	}
	return fmt.Sprintf("%s\t%s", reg.Hex(), natural)
}

func printCommand(t *Term, args string) error {
	if args == "" {
		return errors.New("not enough arguments")
	}
	if !strings.HasPrefix(args, "$") {
		return fmt.Errorf("only registers can be printed, use $name")
	}
	reg, err := t.sess.ReadRegister(args)
	if err != nil {
		return err
	}
	fmt.Fprintf(t.stdout, "%s = %s\n", args, reg.String())
	return nil
}

func setCommand(t *Term, args string) error {
	if strings.HasPrefix(args, "$") {
		eq := strings.Index(args, "=")
		if eq < 0 {
			return errors.New("wrong number of arguments: set $reg = value")
		}
		name := strings.TrimSpace(args[:eq])
		value := strings.TrimSpace(args[eq+1:])
		if value == "" {
			return errors.New("wrong number of arguments: set $reg = value")
		}
		return t.sess.WriteRegister(name, value)
	}

	v := split2PartsBySpace(args)
	switch v[0] {
	case "architecture", "arch":
		if len(v) != 2 || v[1] == "" {
			return errors.New("wrong number of arguments: set architecture <name | auto>")
		}
		var info gdbarch.Info
		if v[1] != "auto" {
			info.ArchInfo = gdbarch.LookupArchInfo(v[1])
			if info.ArchInfo == nil {
				return fmt.Errorf("undefined architecture %q", v[1])
			}
		}
		if err := t.sess.SetArchitecture(info); err != nil {
			return err
		}
		fmt.Fprintf(t.stdout, "The target architecture is set to %q.\n", t.sess.Arch().ArchInfo().Name)
		return nil
	}
	return fmt.Errorf("unknown set command %q", v[0])
}

func flushregs(t *Term, args string) error {
	if err := t.sess.FlushRegisters(); err != nil {
		return err
	}
	fmt.Fprintln(t.stdout, "Register cache flushed.")
	return nil
}

func threads(t *Term, args string) error {
	ptids, err := t.sess.Threads()
	if err != nil {
		return err
	}
	cur := t.sess.Ptid()
	for _, ptid := range ptids {
		prefix := "  "
		if ptid == cur {
			prefix = "* "
		}
		pc := "<unavailable>"
		if ptid == cur {
			if reg, err := t.sess.ReadRegister("pc"); err == nil && reg.Available() {
				pc = reg.Hex()
			}
		}
		fmt.Fprintf(t.stdout, "%sThread %s pc: %s\n", prefix, ptid, pc)
	}
	return nil
}

func thread(t *Term, args string) error {
	if t.sess.Target() == nil {
		return session.ErrNoTarget
	}
	if args == "" {
		fmt.Fprintf(t.stdout, "Current thread is %s\n", t.sess.Ptid())
		return nil
	}
	ptid, err := target.ParsePtid(args)
	if err != nil {
		return err
	}
	old := t.sess.Ptid()
	if err := t.sess.SwitchThread(ptid); err != nil {
		return err
	}
	fmt.Fprintf(t.stdout, "Switched from %s to %s\n", old, ptid)
	return nil
}

func maintCommand(t *Term, args string) error {
	v := split2PartsBySpace(args)
	if v[0] != "print" || len(v) != 2 {
		return errors.New("wrong number of arguments: maint print <architecture | registers | raw-registers | cooked-registers | register-groups | reggroups>")
	}
	a := t.sess.Arch()
	if a == nil {
		return session.ErrNoTarget
	}

	t.stdout.pw.PageMaybe(nil)
	switch v[1] {
	case "architecture":
		a.Dump(t.stdout)
		return nil
	case "reggroups":
		w := new(tabwriter.Writer)
		w.Init(t.stdout, 0, 8, 1, ' ', 0)
		fmt.Fprintln(w, " Group\tType")
		for _, g := range gdbarch.Reggroups(a) {
			typ := "user"
			if g.Type == gdbarch.InternalReggroup {
				typ = "internal"
			}
			fmt.Fprintf(w, " %s\t%s\n", g.Name, typ)
		}
		return w.Flush()
	}

	var kind regcache.DumpKind
	switch v[1] {
	case "registers":
		kind = regcache.DumpNone
	case "raw-registers":
		kind = regcache.DumpRaw
	case "cooked-registers":
		kind = regcache.DumpCooked
	case "register-groups":
		kind = regcache.DumpGroups
	default:
		return fmt.Errorf("unknown maintenance command %q", v[1])
	}
	if kind == regcache.DumpNone || kind == regcache.DumpGroups {
		// the layout does not depend on the contents of the registers
		return regcache.Dump(t.stdout, regcache.NewDetached(a), kind)
	}
	rc, err := t.sess.Regcache()
	if err != nil {
		return err
	}
	return regcache.Dump(t.stdout, rc, kind)
}

func (c *Commands) sourceCommand(t *Term, args string) error {
	if len(args) == 0 {
		return fmt.Errorf("wrong number of arguments: source <filename>")
	}

	if filepath.Ext(args) == ".star" {
		_, err := t.starlarkEnv.Execute(args, nil, "main", nil)
		return err
	}

	if args == "-" {
		return t.starlarkEnv.REPL()
	}

	return c.executeFile(t, args)
}

func (c *Commands) executeFile(t *Term, name string) error {
	fh, err := os.Open(name)
	if err != nil {
		return err
	}
	defer fh.Close()

	scanner := bufio.NewScanner(fh)
	lineno := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		lineno++

		if line == "" || line[0] == '#' {
			continue
		}

		if err := c.Call(line, t); err != nil {
			if _, isExitRequest := err.(ExitRequestError); isExitRequest {
				return err
			}
			fmt.Fprintf(t.stdout, "%s:%d: %v\n", name, lineno, err)
		}
	}

	return scanner.Err()
}

func transcript(t *Term, args string) error {
	argv, err := splitArgs(args)
	if err != nil {
		return err
	}
	truncate := false
	fileOnly := false
	disable := false
	path := ""
	for _, arg := range argv {
		switch arg {
		case "-x":
			fileOnly = true
		case "-t":
			truncate = true
		case "-off":
			disable = true
		default:
			if path != "" || strings.HasPrefix(arg, "-") {
				return fmt.Errorf("unrecognized option %q", arg)
			}
			path = arg
		}
	}

	if disable {
		if path != "" {
			return errors.New("-o option specified with an output path")
		}
		return t.stdout.CloseTranscript()
	}

	if path == "" {
		return errors.New("no output path specified")
	}

	flags := os.O_APPEND | os.O_WRONLY | os.O_CREATE
	if truncate {
		flags |= os.O_TRUNC
	}
	fh, err := os.OpenFile(path, flags, 0660)
	if err != nil {
		return err
	}

	return t.stdout.TranscribeTo(fh, fileOnly)
}

// ExitRequestError is returned when the user
// exits the debugger.
type ExitRequestError struct{}

func (ere ExitRequestError) Error() string {
	return ""
}

func exitCommand(t *Term, args string) error {
	return ExitRequestError{}
}
