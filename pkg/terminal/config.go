package terminal

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/go-delve/dbgcore/pkg/config"
	"github.com/go-delve/dbgcore/pkg/gdbarch"
)

// configSetting is a parameter that can be shown and changed with the
// config command.
type configSetting struct {
	name string
	get  func(c *config.Config) string
	set  func(t *Term, val string) error

	// archDefault settings feed the architecture selected for targets that
	// do not describe themselves.
	archDefault bool
}

var configSettings = []configSetting{
	{
		name:        "architecture",
		archDefault: true,
		get:         func(c *config.Config) string { return c.Architecture },
		set: func(t *Term, val string) error {
			if val != "" && val != "auto" && gdbarch.LookupArchInfo(val) == nil {
				return fmt.Errorf("unknown architecture %q", val)
			}
			t.conf.Architecture = val
			return nil
		},
	},
	{
		name:        "byte-order",
		archDefault: true,
		get:         func(c *config.Config) string { return c.ByteOrder },
		set: func(t *Term, val string) error {
			if _, err := gdbarch.ParseByteOrder(val); err != nil {
				return err
			}
			t.conf.ByteOrder = val
			return nil
		},
	},
	{
		name:        "osabi",
		archDefault: true,
		get:         func(c *config.Config) string { return c.OSABI },
		set: func(t *Term, val string) error {
			t.conf.OSABI = val
			return nil
		},
	},
	{
		name: "default-register-group",
		get:  func(c *config.Config) string { return c.DefaultRegisterGroup },
		set: func(t *Term, val string) error {
			if a := t.sess.Arch(); a != nil && val != "" && gdbarch.ReggroupByName(a, val) == nil {
				return fmt.Errorf("%s has no register group %q", a, val)
			}
			t.conf.DefaultRegisterGroup = val
			return nil
		},
	},
	{
		name: "hide-unavailable",
		get:  func(c *config.Config) string { return fmt.Sprint(c.HideUnavailable) },
		set: func(t *Term, val string) error {
			switch val {
			case "true":
				t.conf.HideUnavailable = true
			case "false":
				t.conf.HideUnavailable = false
			default:
				return errors.New("argument to \"hide-unavailable\" must be true or false")
			}
			return nil
		},
	},
	{
		name: "log-output",
		get:  func(c *config.Config) string { return c.LogOutput },
		set: func(t *Term, val string) error {
			t.conf.LogOutput = val
			return nil
		},
	},
}

func findConfigSetting(name string) *configSetting {
	for i := range configSettings {
		if configSettings[i].name == name {
			return &configSettings[i]
		}
	}
	return nil
}

func configureCmd(t *Term, args string) error {
	switch args {
	case "-list":
		return configureList(t)
	case "-save":
		return config.SaveConfig(t.conf)
	case "":
		return fmt.Errorf("wrong number of arguments to \"config\"")
	default:
		return configureSet(t, args)
	}
}

func configureList(t *Term) error {
	w := new(tabwriter.Writer)
	w.Init(t.stdout, 0, 8, 1, ' ', 0)
	for _, s := range configSettings {
		val := s.get(t.conf)
		if val == "" {
			val = "<not set>"
		}
		fmt.Fprintf(w, "%s\t%s\n", s.name, val)
	}

	cmds := make([]string, 0, len(t.conf.Aliases))
	for cmd := range t.conf.Aliases {
		cmds = append(cmds, cmd)
	}
	sort.Strings(cmds)
	for _, cmd := range cmds {
		if aliases := t.conf.Aliases[cmd]; len(aliases) > 0 {
			fmt.Fprintf(w, "alias %s\t%s\n", cmd, strings.Join(aliases, " "))
		}
	}
	return w.Flush()
}

func configureSet(t *Term, args string) error {
	v := split2PartsBySpace(args)
	name := v[0]
	var val string
	if len(v) == 2 {
		val = strings.Trim(v[1], "\"")
	}

	if name == "alias" {
		return configureSetAlias(t, val)
	}

	s := findConfigSetting(name)
	if s == nil {
		return fmt.Errorf("%q is not a configuration parameter", name)
	}
	old := *t.conf
	if err := s.set(t, val); err != nil {
		return err
	}
	if s.archDefault {
		if err := t.sess.ApplyConfig(); err != nil {
			*t.conf = old
			return err
		}
	}
	return nil
}

// configureSetAlias adds an alias with "<command> <alias>" and removes one
// with "<alias>".
func configureSetAlias(t *Term, args string) error {
	argv := config.SplitQuotedFields(args, '"')
	switch len(argv) {
	case 1:
		alias := argv[0]
		for cmd, aliases := range t.conf.Aliases {
			kept := aliases[:0]
			for _, a := range aliases {
				if a != alias {
					kept = append(kept, a)
				}
			}
			t.conf.Aliases[cmd] = kept
		}
	case 2:
		cmd, alias := argv[0], argv[1]
		if !t.cmds.isPrimaryName(cmd) {
			return fmt.Errorf("%q is not the name of a command", cmd)
		}
		if t.conf.Aliases == nil {
			t.conf.Aliases = make(map[string][]string)
		}
		t.conf.Aliases[cmd] = append(t.conf.Aliases[cmd], alias)
	default:
		return errors.New("wrong number of arguments to \"config alias\"")
	}
	t.cmds.Merge(t.conf.Aliases)
	return nil
}
