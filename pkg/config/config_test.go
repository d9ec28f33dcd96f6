package config

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	var buf bytes.Buffer
	if err := writeDefaultConfig(&buf); err != nil {
		t.Fatal(err)
	}
	c, err := readConfig(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if c.Architecture != "" || c.HideUnavailable || len(c.Aliases) != 0 {
		t.Errorf("default configuration is not empty: %#v", c)
	}
}

func TestReadConfig(t *testing.T) {
	c, err := readConfig(strings.NewReader(`
aliases:
  print: ["p", "pr"]
architecture: aarch64
byte-order: little
osabi: GNU/Linux
default-register-group: float
hide-unavailable: true
log-output: gdbarch,gdbwire
`))
	if err != nil {
		t.Fatal(err)
	}
	if c.Architecture != "aarch64" || c.ByteOrder != "little" || c.OSABI != "GNU/Linux" || c.DefaultRegisterGroup != "float" || !c.HideUnavailable || c.LogOutput != "gdbarch,gdbwire" {
		t.Errorf("unexpected configuration %#v", c)
	}
	if len(c.Aliases["print"]) != 2 {
		t.Errorf("aliases: %v", c.Aliases)
	}

	if _, err := readConfig(strings.NewReader("architecture: [")); err == nil {
		t.Errorf("malformed file accepted")
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	p, err := GetConfigFilePath(configFile)
	if err != nil {
		t.Fatal(err)
	}
	if p != filepath.Join(dir, "dbgcore", "config.yml") {
		t.Errorf("config file path %s", p)
	}

	c, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	c.Architecture = "i386"
	c.HideUnavailable = true
	if err := SaveConfig(c); err != nil {
		t.Fatal(err)
	}
	c2, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if c2.Architecture != "i386" || !c2.HideUnavailable {
		t.Errorf("saved configuration not loaded: %#v", c2)
	}
}
