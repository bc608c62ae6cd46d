package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	Dir        = ".sitebuilder"
	ConfigFile = "config.yaml"
	TOMLFile   = "config.toml"
	LogFile    = "sitebuilder.log"
	WorkDir    = "sandbox"
)

type Config struct {
	Version string  `yaml:"version" toml:"version"`
	Project string  `yaml:"project" toml:"project"`
	Sandbox Sandbox `yaml:"sandbox" toml:"sandbox"`
	Console Console `yaml:"console" toml:"console"`
	Archive Archive `yaml:"archive" toml:"archive"`
	Agent   Agent   `yaml:"agent" toml:"agent"`
}

type Sandbox struct {
	Runtime string            `yaml:"runtime" toml:"runtime"`
	Workdir string            `yaml:"workdir" toml:"workdir"`
	Install string            `yaml:"install,omitempty" toml:"install,omitempty"`
	Run     string            `yaml:"run,omitempty" toml:"run,omitempty"`
	Image   string            `yaml:"image,omitempty" toml:"image,omitempty"`
	Ports   []int             `yaml:"ports,omitempty" toml:"ports,omitempty"`
	Env     map[string]string `yaml:"env,omitempty" toml:"env,omitempty"`
}

type Console struct {
	MaxLines int  `yaml:"max_lines" toml:"max_lines"`
	Visible  bool `yaml:"visible" toml:"visible"`
}

type Archive struct {
	Name string `yaml:"name" toml:"name"`
	Dir  string `yaml:"dir" toml:"dir"`
}

type Agent struct {
	Command string `yaml:"command,omitempty" toml:"command,omitempty"`
}

// Sandbox runtimes.
const (
	RuntimeLocal  = "local"
	RuntimeDocker = "docker"
)

// IsDocker returns true if the project runs inside a container.
func (s Sandbox) IsDocker() bool { return s.Runtime == RuntimeDocker }

// Default returns the configuration used when no config file exists.
func Default(project string) *Config {
	return &Config{
		Version: "1",
		Project: project,
		Sandbox: Sandbox{
			Runtime: RuntimeLocal,
			Workdir: filepath.Join(Dir, WorkDir),
			Image:   "node:20",
		},
		Console: Console{MaxLines: 1000, Visible: true},
		Archive: Archive{Name: "website-project", Dir: "."},
	}
}

// Load reads config from .sitebuilder/config.yaml, or config.toml when no
// YAML file exists, relative to projectDir. Keys missing from the file keep
// their Default values.
func Load(projectDir string) (*Config, error) {
	cfg := Default(filepath.Base(projectDir))

	path := filepath.Join(projectDir, Dir, ConfigFile)
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
		return cfg, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	path = filepath.Join(projectDir, Dir, TOMLFile)
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault is Load falling back to Default when no config exists.
func LoadOrDefault(projectDir string) (*Config, error) {
	if !Exists(projectDir) {
		return Default(filepath.Base(projectDir)), nil
	}
	return Load(projectDir)
}

// Save writes config to .sitebuilder/config.yaml relative to projectDir.
// A config.toml already present is rewritten in place instead.
func Save(projectDir string, cfg *Config) error {
	dir := filepath.Join(projectDir, Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	tomlPath := filepath.Join(dir, TOMLFile)
	if _, err := os.Stat(tomlPath); err == nil {
		var b strings.Builder
		if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
			return fmt.Errorf("marshaling config: %w", err)
		}
		return os.WriteFile(tomlPath, []byte(b.String()), 0o644)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	path := filepath.Join(dir, ConfigFile)
	return os.WriteFile(path, data, 0o644)
}

// ConfigPath returns the path to the config directory.
func ConfigPath(projectDir string) string {
	return filepath.Join(projectDir, Dir)
}

// Exists returns true if a config file exists in .sitebuilder/.
func Exists(projectDir string) bool {
	for _, name := range []string{ConfigFile, TOMLFile} {
		if _, err := os.Stat(filepath.Join(projectDir, Dir, name)); err == nil {
			return true
		}
	}
	return false
}

// WorkdirPath resolves the sandbox workdir against projectDir.
func (c *Config) WorkdirPath(projectDir string) string {
	if c.Sandbox.Workdir == "" || filepath.IsAbs(c.Sandbox.Workdir) {
		return c.Sandbox.Workdir
	}
	return filepath.Join(projectDir, c.Sandbox.Workdir)
}
