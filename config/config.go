// Package config loads the batch resizer configuration from YAML.
package config

import (
	"os"

	"github.com/nvr-ai/go-resize/images"
	"github.com/nvr-ai/go-resize/images/kernels"
	"github.com/nvr-ai/go-resize/images/resizer"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	InputDir   string       `yaml:"input_dir"`
	OutputDir  string       `yaml:"output_dir"`
	Extensions []string     `yaml:"extensions"`
	Sizes      SizesConfig  `yaml:"sizes"`
	Resize     ResizeConfig `yaml:"resize"`
	Output     OutputConfig `yaml:"output"`
	Workers    int          `yaml:"workers"`
	Log        LogConfig    `yaml:"log"`
}

// SizesConfig is the per-image target size policy. Image i in name order is
// resized toward (StartWidth + i*Step, StartHeight + i*Step). A non-empty
// Preset names a standard frame size that replaces StartWidth and StartHeight.
type SizesConfig struct {
	Preset      string `yaml:"preset,omitempty"`
	StartWidth  int    `yaml:"start_width"`
	StartHeight int    `yaml:"start_height"`
	Step        int    `yaml:"step"`
}

// StartSize resolves the size of the first image.
func (s SizesConfig) StartSize() (images.Dimensions, error) {
	if s.Preset != "" {
		p, ok := images.LookupPreset(s.Preset)
		if !ok {
			return images.Dimensions{}, errors.Errorf("unknown size preset %q", s.Preset)
		}
		return p.Size, nil
	}
	if s.StartWidth <= 0 || s.StartHeight <= 0 {
		return images.Dimensions{}, errors.Errorf("start size %dx%d must be positive", s.StartWidth, s.StartHeight)
	}
	return images.Dimensions{Width: s.StartWidth, Height: s.StartHeight}, nil
}

// ResizeConfig selects the resampling pipeline knobs.
type ResizeConfig struct {
	Filter     string  `yaml:"filter"`
	KernelSize int     `yaml:"kernel_size"`
	Sigma      float64 `yaml:"sigma"`
	Edge       string  `yaml:"edge"`
	Parallel   bool    `yaml:"parallel"`
}

// OutputConfig controls encoding.
type OutputConfig struct {
	JPEGQuality int `yaml:"jpeg_quality"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		InputDir:   "InputData",
		OutputDir:  "OutputData",
		Extensions: []string{".png", ".jpg", ".jpeg", ".bmp"},
		Sizes: SizesConfig{
			StartWidth:  200,
			StartHeight: 250,
			Step:        200,
		},
		Resize: ResizeConfig{
			Filter:     resizer.FilterBicubic.String(),
			KernelSize: resizer.DefaultKernelSize,
			Sigma:      resizer.DefaultSigma,
			Edge:       kernels.EdgeSkip.String(),
		},
		Output:  OutputConfig{JPEGQuality: 95},
		Workers: 1,
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads and parses the configuration file. Fields missing from the file
// keep their Default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return cfg, nil
}

// Validate checks that the configuration describes a runnable batch.
func (c *Config) Validate() error {
	if c.InputDir == "" {
		return errors.New("input_dir is required")
	}
	if c.OutputDir == "" {
		return errors.New("output_dir is required")
	}
	if len(c.Extensions) == 0 {
		return errors.New("at least one extension is required")
	}
	if _, err := c.Sizes.StartSize(); err != nil {
		return err
	}
	if c.Sizes.Step < 0 {
		return errors.Errorf("step %d must not be negative", c.Sizes.Step)
	}
	if c.Workers < 1 {
		return errors.Errorf("workers %d must be at least 1", c.Workers)
	}
	if _, err := c.Resizer(); err != nil {
		return err
	}
	return nil
}

// Resizer builds the resizer described by the resize section.
func (c *Config) Resizer() (*resizer.Resizer, error) {
	filter, err := resizer.ParseFilter(c.Resize.Filter)
	if err != nil {
		return nil, err
	}
	edge, err := kernels.ParseEdgeMode(c.Resize.Edge)
	if err != nil {
		return nil, err
	}
	// Catch bad kernel settings here rather than on the first downscale.
	if _, err := kernels.BuildGaussian(orDefault(c.Resize.KernelSize, resizer.DefaultKernelSize), orDefaultF(c.Resize.Sigma, resizer.DefaultSigma)); err != nil {
		return nil, err
	}

	return &resizer.Resizer{
		Filter:     filter,
		KernelSize: c.Resize.KernelSize,
		Sigma:      c.Resize.Sigma,
		Convolve:   kernels.Options{Edge: edge, Parallel: c.Resize.Parallel},
	}, nil
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func orDefaultF(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}
