package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"go-pianoroll/export"
	"go-pianoroll/grid"
	"go-pianoroll/project"
)

// ErrInvalid is wrapped by every validation failure
var ErrInvalid = errors.New("invalid config")

// OutputConfig selects the MIDI output port
type OutputConfig struct {
	Port string `yaml:"port,omitempty"` // empty: first available port
}

// TimeSignatureConfig is the time signature new projects start with
type TimeSignatureConfig struct {
	Top    int `yaml:"top"`
	Bottom int `yaml:"bottom"`
}

// ProjectConfig holds defaults for a new project
type ProjectConfig struct {
	Name          string              `yaml:"name"`
	BPM           float64             `yaml:"bpm"`
	TimeSignature TimeSignatureConfig `yaml:"timeSignature"`
}

// ExportConfig controls where MIDI exports land
type ExportConfig struct {
	Dir      string `yaml:"dir"`
	FileName string `yaml:"fileName"` // text/template with sprig functions
}

// DebugConfig enables the debug log
type DebugConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

// UIConfig stores UI preferences
type UIConfig struct {
	CenterPitch int    `yaml:"centerPitch"`
	VisibleRows int    `yaml:"visibleRows,omitempty"` // 0: fit the terminal
	Palette     string `yaml:"palette,omitempty"`     // GIMP .gpl file
}

// Config is the main configuration structure
type Config struct {
	Output  OutputConfig  `yaml:"output"`
	Project ProjectConfig `yaml:"project"`
	Export  ExportConfig  `yaml:"export"`
	Debug   DebugConfig   `yaml:"debug"`
	UI      UIConfig      `yaml:"ui"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	p := project.New()
	return &Config{
		Project: ProjectConfig{
			Name: p.Name,
			BPM:  p.BPM,
			TimeSignature: TimeSignatureConfig{
				Top:    p.TimeSignature.Top,
				Bottom: p.TimeSignature.Bottom,
			},
		},
		Export: ExportConfig{
			Dir:      ".",
			FileName: export.DefaultFileName,
		},
		UI: UIConfig{
			CenterPitch: 60,
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-pianoroll"), nil
}

// ConfigPath returns the full path to config.yaml
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the config from the default path, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFile(path)
}

// LoadFile reads path on top of the defaults. A missing file is not an error.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	// NaN fails both comparisons, so test for the valid range
	if bpm := c.Project.BPM; !(bpm >= grid.MinBPM && bpm <= grid.MaxBPM) {
		return fmt.Errorf("%w: project.bpm must be within %g-%g, got %g", ErrInvalid, grid.MinBPM, grid.MaxBPM, bpm)
	}
	if c.Project.TimeSignature.Top < 1 {
		return fmt.Errorf("%w: project.timeSignature.top must be at least 1, got %d", ErrInvalid, c.Project.TimeSignature.Top)
	}
	if b := c.Project.TimeSignature.Bottom; b < 1 || b&(b-1) != 0 {
		return fmt.Errorf("%w: project.timeSignature.bottom must be a power of two, got %d", ErrInvalid, b)
	}
	if c.UI.CenterPitch < 0 || c.UI.CenterPitch > 127 {
		return fmt.Errorf("%w: ui.centerPitch out of range 0-127: %d", ErrInvalid, c.UI.CenterPitch)
	}
	if c.UI.VisibleRows < 0 {
		return fmt.Errorf("%w: ui.visibleRows must not be negative", ErrInvalid)
	}
	return nil
}

// Save writes the config to the default path
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes the config to path, creating its directory
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// NewProject creates an empty project from the configured defaults
func (c *Config) NewProject() *project.Project {
	p := project.New()
	if c.Project.Name != "" {
		p.Name = c.Project.Name
	}
	p.BPM = c.Project.BPM
	p.TimeSignature = project.TimeSignature{
		Top:    c.Project.TimeSignature.Top,
		Bottom: c.Project.TimeSignature.Bottom,
	}
	return p
}
