package config

import (
	"fmt"
	"io"
	"os"
	"os/user"
	"path"

	"gopkg.in/yaml.v2"
)

const (
	configDir  string = "dbgcore"
	configFile string = "config.yml"
)

// Config defines all configuration options available to be set through the config file.
type Config struct {
	// Commands aliases.
	Aliases map[string][]string `yaml:"aliases"`

	// Architecture selected when the target does not describe itself, for
	// example "i386:x86-64" or "aarch64". Empty means automatic.
	Architecture string `yaml:"architecture,omitempty"`
	// ByteOrder overrides the byte order of the target, "big" or "little".
	ByteOrder string `yaml:"byte-order,omitempty"`
	// OSABI is the operating system ABI used when the target does not
	// report one, for example "GNU/Linux".
	OSABI string `yaml:"osabi,omitempty"`

	// DefaultRegisterGroup is the register group printed by "info
	// registers" without arguments.
	DefaultRegisterGroup string `yaml:"default-register-group,omitempty"`
	// If HideUnavailable is true register group listings skip the registers
	// the target could not supply instead of printing <unavailable>.
	HideUnavailable bool `yaml:"hide-unavailable"`

	// LogOutput is the comma separated list of components that should
	// produce debug output, used when --log-output is not given.
	LogOutput string `yaml:"log-output,omitempty"`
}

// LoadConfig attempts to populate a Config object from the config.yml file.
func LoadConfig() (*Config, error) {
	err := createConfigPath()
	if err != nil {
		return &Config{}, fmt.Errorf("could not create config directory: %v", err)
	}
	fullConfigFile, err := GetConfigFilePath(configFile)
	if err != nil {
		return &Config{}, fmt.Errorf("unable to get config file path: %v", err)
	}

	f, err := os.Open(fullConfigFile)
	if err != nil {
		f, err = createDefaultConfig(fullConfigFile)
		if err != nil {
			return &Config{}, fmt.Errorf("error creating default config file: %v", err)
		}
	}
	defer f.Close()

	return readConfig(f)
}

func readConfig(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return &Config{}, fmt.Errorf("unable to read config data: %v", err)
	}

	var c Config
	err = yaml.Unmarshal(data, &c)
	if err != nil {
		return &Config{}, fmt.Errorf("unable to decode config file: %v", err)
	}

	return &c, nil
}

// SaveConfig will marshal and save the config struct
// to disk.
func SaveConfig(conf *Config) error {
	fullConfigFile, err := GetConfigFilePath(configFile)
	if err != nil {
		return err
	}

	out, err := yaml.Marshal(*conf)
	if err != nil {
		return err
	}

	f, err := os.Create(fullConfigFile)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(out)
	return err
}

func createDefaultConfig(path string) (*os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("unable to create config file: %v", err)
	}
	err = writeDefaultConfig(f)
	if err != nil {
		return nil, fmt.Errorf("unable to write default configuration: %v", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return f, nil
}

func writeDefaultConfig(f io.Writer) error {
	_, err := io.WriteString(f,
		`# Configuration file for dbgcore.

# This is the default configuration file. Available options are provided, but disabled.
# Delete the leading hash mark to enable an item.

# Provided aliases will be added to the default aliases for a given command.
aliases:
  # command: ["alias1", "alias2"]

# Architecture used when the target does not describe itself (see "dbgcore arches").
# architecture: i386:x86-64

# Byte order of the target, big or little.
# byte-order: little

# Operating system ABI used when the target does not report one.
# osabi: GNU/Linux

# Register group printed by "info registers" without arguments.
# default-register-group: general

# Uncomment the following line to omit unavailable registers from "info registers".
# hide-unavailable: true

# Components that produce debug output when --log-output is not given.
# log-output: gdbarch,regcache
`)
	return err
}

// createConfigPath creates the directory structure at which all config files are saved.
func createConfigPath() error {
	path, err := GetConfigFilePath("")
	if err != nil {
		return err
	}
	return os.MkdirAll(path, 0700)
}

// GetConfigFilePath gets the full path to the given config file name.
// The directory is $XDG_CONFIG_HOME/dbgcore, or ~/.config/dbgcore if
// XDG_CONFIG_HOME is not set.
func GetConfigFilePath(file string) (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return path.Join(xdg, configDir, file), nil
	}
	userHomeDir := "."
	usr, err := user.Current()
	if err == nil {
		userHomeDir = usr.HomeDir
	}
	return path.Join(userHomeDir, ".config", configDir, file), nil
}
