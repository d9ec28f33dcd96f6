package cmds

import (
	"bytes"
	"strings"
	"testing"

	"github.com/go-delve/dbgcore/pkg/config"
	"github.com/go-delve/dbgcore/pkg/session"
)

func TestByteOrderFlag(t *testing.T) {
	var f byteOrderFlag
	if err := f.Set("big"); err != nil || f.String() != "big" {
		t.Errorf("big: %q %v", f, err)
	}
	if err := f.Set("middle"); err == nil {
		t.Errorf("invalid byte order accepted")
	}
	if f.String() != "big" {
		t.Errorf("value changed by a failed Set: %q", f)
	}
}

func TestCommandTree(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	root := New()
	for _, name := range []string{"connect", "attach", "arches", "dump", "version", "log"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %s: %v", name, err)
		}
	}
	for _, flag := range []string{"log", "log-output", "log-dest", "arch", "endian", "osabi"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("missing flag --%s", flag)
		}
	}
	if err := root.PersistentFlags().Set("endian", "sideways"); err == nil {
		t.Errorf("invalid --endian accepted")
	}
}

func TestSessionConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	New()
	conf = &config.Config{Architecture: "aarch64", OSABI: "GNU/Linux", LogOutput: "regcache"}
	archName, osabi, logOutput = "i386", "", ""
	byteOrder = "big"
	defer func() {
		archName, byteOrder = "", ""
	}()

	c := sessionConfig()
	if c.Architecture != "i386" || c.ByteOrder != "big" || c.OSABI != "GNU/Linux" {
		t.Errorf("overrides not applied: %#v", c)
	}
	if conf.Architecture != "aarch64" {
		t.Errorf("configuration file modified")
	}
	if logOutput != "regcache" {
		t.Errorf("log output from the configuration file not used: %q", logOutput)
	}
}

func TestListArches(t *testing.T) {
	sess, err := session.New(&config.Config{Architecture: "aarch64"})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := listArches(&buf, sess.Registry()); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(buf.String(), "\n")
	supported := map[string]string{}
	for _, line := range lines[1:] {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		supported[fields[0]] = fields[len(fields)-1]
	}
	for name, want := range map[string]string{"aarch64": "yes", "i386": "yes", "i386:x86-64": "yes", "arm": "no"} {
		if supported[name] != want {
			t.Errorf("%s: supported %q", name, supported[name])
		}
	}
}

func TestDumpArch(t *testing.T) {
	sess, err := session.New(&config.Config{Architecture: "aarch64", OSABI: "GNU/Linux"})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := dumpArch(&buf, sess.Registry()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, s := range []string{"gdbarch_dump: bfd_arch_info = aarch64\n", "gdbarch_dump: ptr_bit = 64\n", " Name ", " x0 "} {
		if !strings.Contains(out, s) {
			t.Errorf("dump does not contain %q", s)
		}
	}
}
