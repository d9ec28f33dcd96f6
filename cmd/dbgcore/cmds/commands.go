package cmds

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/go-delve/dbgcore/pkg/config"
	"github.com/go-delve/dbgcore/pkg/gdbarch"
	"github.com/go-delve/dbgcore/pkg/logflags"
	"github.com/go-delve/dbgcore/pkg/regcache"
	"github.com/go-delve/dbgcore/pkg/session"
	"github.com/go-delve/dbgcore/pkg/target"
	"github.com/go-delve/dbgcore/pkg/target/gdbserial"
	"github.com/go-delve/dbgcore/pkg/target/native"
	"github.com/go-delve/dbgcore/pkg/terminal"
	"github.com/go-delve/dbgcore/pkg/version"
)

var (
	// log is whether to log debug statements.
	log bool
	// logOutput is a comma separated list of components that should produce debug output.
	logOutput string
	// logDest is the file path or file descriptor where logs should go.
	logDest string
	// initFile is the path to initialization file.
	initFile string

	// archName, byteOrder and osabi override the defaults of the
	// configuration file.
	archName  string
	byteOrder byteOrderFlag
	osabi     string

	// connectTimeout is how long connect waits for the remote stub.
	connectTimeout time.Duration

	// rootCommand is the root of the command tree.
	rootCommand *cobra.Command

	conf *config.Config
)

const dbgcoreCommandLongDesc = `dbgcore inspects the registers of stopped threads.

The architecture of the target is selected from the target description it
sends, from the command line flags or from the configuration file, in this
order. Registers are read through a per thread register cache and can be
listed, printed and changed from the command line interface or from starlark
scripts.`

// byteOrderFlag is a pflag.Value that only accepts byte order names.
type byteOrderFlag string

var _ pflag.Value = (*byteOrderFlag)(nil)

func (f *byteOrderFlag) String() string { return string(*f) }

func (f *byteOrderFlag) Set(s string) error {
	if _, err := gdbarch.ParseByteOrder(s); err != nil {
		return err
	}
	*f = byteOrderFlag(s)
	return nil
}

func (f *byteOrderFlag) Type() string { return "endian" }

// New returns an initialized command tree.
func New() *cobra.Command {
	// Config setup and load.
	var err error
	conf, err = config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
	}

	// Main dbgcore root command.
	rootCommand = &cobra.Command{
		Use:   "dbgcore",
		Short: "dbgcore is a register level debugger core.",
		Long:  dbgcoreCommandLongDesc,
	}

	rootCommand.PersistentFlags().BoolVarP(&log, "log", "", false, "Enable debugger logging.")
	rootCommand.PersistentFlags().StringVarP(&logOutput, "log-output", "", "", `Comma separated list of components that should produce debug output (see 'dbgcore help log')`)
	rootCommand.PersistentFlags().StringVarP(&logDest, "log-dest", "", "", "Writes logs to the specified file or file descriptor (see 'dbgcore help log').")
	rootCommand.PersistentFlags().StringVar(&initFile, "init", "", "Init file, executed by the terminal client.")
	rootCommand.PersistentFlags().StringVar(&archName, "arch", "", "Architecture used when the target does not describe itself.")
	rootCommand.PersistentFlags().Var(&byteOrder, "endian", "Byte order of the target, big or little.")
	rootCommand.PersistentFlags().StringVar(&osabi, "osabi", "", "Operating system ABI used when the target does not report one.")

	// 'connect' subcommand.
	connectCommand := &cobra.Command{
		Use:   "connect addr",
		Short: "Connect to a gdb remote stub.",
		Long: `Connect to a gdb remote stub (gdbserver, qemu -gdb, ...) listening at addr.

The target description sent by the stub, if any, selects the architecture.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("you must provide an address as the first argument")
			}
			return nil
		},
		Run: connectCmd,
	}
	connectCommand.Flags().DurationVar(&connectTimeout, "timeout", 10*time.Second, "Time to wait for the remote stub.")
	rootCommand.AddCommand(connectCommand)

	// 'attach' subcommand.
	attachCommand := &cobra.Command{
		Use:   "attach pid",
		Short: "Attach to running process and inspect its registers.",
		Long: `Attach to an already running process and begin a debug session.

The process is stopped with ptrace and detached when the session ends.
Only supported on linux/amd64.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("you must provide a PID")
			}
			return nil
		},
		Run: attachCmd,
	}
	rootCommand.AddCommand(attachCommand)

	// 'arches' subcommand.
	archesCommand := &cobra.Command{
		Use:   "arches",
		Short: "Lists the supported architectures.",
		Run: func(cmd *cobra.Command, args []string) {
			os.Exit(withSession(func(sess *session.Session) error {
				return listArches(os.Stdout, sess.Registry())
			}))
		},
	}
	rootCommand.AddCommand(archesCommand)

	// 'dump' subcommand.
	dumpCommand := &cobra.Command{
		Use:   "dump",
		Short: "Prints an architecture and its register layout.",
		Long: `Prints every field of the architecture selected by the --arch, --endian and
--osabi flags, followed by the layout of its register cache.`,
		Run: func(cmd *cobra.Command, args []string) {
			os.Exit(withSession(func(sess *session.Session) error {
				return dumpArch(os.Stdout, sess.Registry())
			}))
		},
	}
	rootCommand.AddCommand(dumpCommand)

	// 'version' subcommand.
	versionCommand := &cobra.Command{
		Use:   "version",
		Short: "Prints version.",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dbgcore\n%s\n", version.DbgcoreVersion)
			if v, _ := cmd.Flags().GetBool("verbose"); v {
				fmt.Printf("\n%s\n", version.BuildInfo())
			}
		},
	}
	versionCommand.Flags().BoolP("verbose", "v", false, "print verbose version info")
	rootCommand.AddCommand(versionCommand)

	rootCommand.AddCommand(&cobra.Command{
		Use:   "log",
		Short: "Help about logging flags.",
		Long: `Logging can be enabled by specifying the --log flag and using the
--log-output flag to select which components should produce logs.

The argument of --log-output must be a comma separated list of component
names selected from this list:


	gdbarch		Log construction and selection of architectures
	regcache	Log register fetches and stores
	gdbwire		Log connection to the gdb remote stub
	target		Log ptrace operations
	session		Log thread switches and target changes
	terminal	Log failed commands

Additionally --log-dest can be used to specify where the logs should be
written.
If the argument is a number it will be interpreted as a file descriptor,
otherwise as a file path.

`,
	})

	rootCommand.DisableAutoGenTag = true

	return rootCommand
}

// sessionConfig returns a copy of the configuration with the overrides of
// the command line applied.
func sessionConfig() *config.Config {
	c := &config.Config{}
	if conf != nil {
		*c = *conf
	}
	if archName != "" {
		c.Architecture = archName
	}
	if byteOrder != "" {
		c.ByteOrder = string(byteOrder)
	}
	if osabi != "" {
		c.OSABI = osabi
	}
	if !rootCommand.PersistentFlags().Changed("log-output") && logOutput == "" {
		logOutput = c.LogOutput
	}
	return c
}

// withSession sets up logging, creates a session and calls fn with it.
func withSession(fn func(*session.Session) error) int {
	c := sessionConfig()
	if err := logflags.Setup(log, logOutput, logDest); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer logflags.Close()

	sess, err := session.New(c)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	if err := fn(sess); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	return 0
}

func connectCmd(cmd *cobra.Command, args []string) {
	addr := args[0]
	os.Exit(withSession(func(sess *session.Session) error {
		t, err := gdbserial.Dial(addr, connectTimeout)
		if err != nil {
			return fmt.Errorf("could not connect to %s: %w", addr, err)
		}
		return runTerminal(sess, t)
	}))
}

func attachCmd(cmd *cobra.Command, args []string) {
	pid, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid pid: %s\n", args[0])
		os.Exit(1)
	}
	os.Exit(withSession(func(sess *session.Session) error {
		p, err := native.Attach(pid)
		if err != nil {
			return err
		}
		return runTerminal(sess, p)
	}))
}

func runTerminal(sess *session.Session, t target.Target) error {
	if err := sess.Open(t, gdbarch.Info{}); err != nil {
		if c, ok := t.(io.Closer); ok {
			c.Close()
		}
		return err
	}
	term := terminal.New(sess, sess.Config())
	term.InitFile = initFile
	_, err := term.Run()
	if err != nil {
		return err
	}
	return sess.Close()
}

func listArches(w io.Writer, reg *gdbarch.Registry) error {
	registered := map[gdbarch.Arch]bool{}
	for _, f := range reg.Families() {
		registered[f] = true
	}
	infos := gdbarch.ArchInfos()
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })

	tw := new(tabwriter.Writer)
	tw.Init(w, 0, 8, 1, ' ', 0)
	fmt.Fprintln(tw, "Name\tFamily\tBits\tByte order\tSupported")
	for _, ai := range infos {
		supported := "no"
		if registered[ai.Family] {
			supported = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", ai.Name, ai.Family, ai.BitsPerAddress, ai.DefaultByteOrder, supported)
	}
	return tw.Flush()
}

func dumpArch(w io.Writer, reg *gdbarch.Registry) error {
	a, err := reg.MustFindByInfo(gdbarch.Info{})
	if err != nil {
		return err
	}
	a.Dump(w)
	fmt.Fprintln(w)
	return regcache.Dump(w, regcache.NewDetached(a), regcache.DumpGroups)
}
